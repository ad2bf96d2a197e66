package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadArchive_Defaults(t *testing.T) {
	path := writeTemp(t, `data_dir = "/data"
processed_dir = "/processed"
`)

	c, err := LoadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, 600, c.ScanIntervalSeconds)
	assert.EqualValues(t, 3, c.PoolSize())
}

func TestLoadSync_Defaults(t *testing.T) {
	path := writeTemp(t, `local_url = "http://a"
remote_url = "http://b"
`)

	c, err := LoadSync(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.CheckDays)
	assert.Equal(t, 2, c.LagHours)
}

func TestLoadSubscriber_PoolSizeDefault(t *testing.T) {
	path := writeTemp(t, `nats_url = "nats://x"
topic = "pumpfun.tx"
`)

	c, err := LoadSubscriber(path)
	require.NoError(t, err)
	assert.EqualValues(t, 10, c.PoolSize())
}
