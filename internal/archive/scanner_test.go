package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
}

func TestScan_OrderingAndPairing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "100_200.meta")
	touch(t, dir, "100_200.bin")
	touch(t, dir, "300_400.meta")
	touch(t, dir, "300_400.bin")
	touch(t, dir, "700_800.bin") // no .meta, must be excluded

	units, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "300_400", units[0].Prefix)
	assert.Equal(t, "100_200", units[1].Prefix)
}

func TestScan_InvalidPrefixSortsAsZero(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "abc_def.meta")
	touch(t, dir, "abc_def.bin")
	touch(t, dir, "50_60.meta")
	touch(t, dir, "50_60.bin")

	units, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "50_60", units[0].Prefix)
	assert.Equal(t, "abc_def", units[1].Prefix)
}
