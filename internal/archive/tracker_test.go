package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_MarkAndIsProcessed(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(filepath.Join(dir, "processed_files.log"))
	require.NoError(t, tr.Load())

	assert.False(t, tr.IsProcessed("100_200"))
	require.NoError(t, tr.Mark("100_200"))
	assert.True(t, tr.IsProcessed("100_200"))

	// a fresh tracker reading the same file picks up the mark
	tr2 := NewTracker(filepath.Join(dir, "processed_files.log"))
	require.NoError(t, tr2.Load())
	assert.True(t, tr2.IsProcessed("100_200"))
}

func TestTracker_CleanupDedupes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed_files.log")
	tr := NewTracker(path)
	require.NoError(t, tr.Mark("a"))
	require.NoError(t, tr.Mark("b"))
	require.NoError(t, tr.Mark("a"))

	require.NoError(t, tr.Cleanup())

	tr2 := NewTracker(path)
	require.NoError(t, tr2.Load())
	assert.True(t, tr2.IsProcessed("a"))
	assert.True(t, tr2.IsProcessed("b"))
}
