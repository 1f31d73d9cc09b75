package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStoreRoundTrip(t *testing.T) {
	dest := t.TempDir()
	store := NewFileCheckpointStore()

	_, ok, err := store.Get(dest)
	require.NoError(t, err)
	assert.False(t, ok, "fresh destination has no checkpoint")

	instant := time.Unix(time.Now().Unix(), 0)
	require.NoError(t, store.Set(dest, instant))

	got, ok, err := store.Get(dest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(instant), "checkpoint survives at second precision")
}

func TestFileCheckpointStoreOverwrite(t *testing.T) {
	dest := t.TempDir()
	store := NewFileCheckpointStore()

	first := time.Unix(1000000000, 0)
	second := time.Unix(2000000000, 0)
	require.NoError(t, store.Set(dest, first))
	require.NoError(t, store.Set(dest, second))

	got, ok, err := store.Get(dest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(second))
}

func TestFileCheckpointStoreClear(t *testing.T) {
	dest := t.TempDir()
	store := NewFileCheckpointStore()

	require.NoError(t, store.Set(dest, time.Now()))
	require.NoError(t, store.Clear(dest))

	_, ok, err := store.Get(dest)
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an absent checkpoint is not an error.
	require.NoError(t, store.Clear(dest))
}

func TestFileCheckpointStoreRecordIsPlainText(t *testing.T) {
	dest := t.TempDir()
	store := NewFileCheckpointStore()

	instant := time.Unix(1767225600, 0)
	require.NoError(t, store.Set(dest, instant))

	data, err := os.ReadFile(filepath.Join(dest, ".treesafe_checkpoint"))
	require.NoError(t, err)
	assert.Equal(t, "1767225600\n", string(data))
}

func TestFileCheckpointStoreMalformedRecord(t *testing.T) {
	dest := t.TempDir()
	store := NewFileCheckpointStore()

	require.NoError(t, os.WriteFile(filepath.Join(dest, ".treesafe_checkpoint"), []byte("not-a-number"), 0o644))

	_, _, err := store.Get(dest)
	require.Error(t, err)
	assert.Equal(t, ErrKindCheckpoint, KindOf(err))
}

func TestCheckpointsAreIndependentPerDestination(t *testing.T) {
	destA := t.TempDir()
	destB := t.TempDir()
	store := NewFileCheckpointStore()

	require.NoError(t, store.Set(destA, time.Unix(1111111111, 0)))

	_, ok, err := store.Get(destB)
	require.NoError(t, err)
	assert.False(t, ok, "checkpoint in one destination must not leak into another")
}
