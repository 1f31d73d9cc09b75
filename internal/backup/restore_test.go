package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchiveForRestore(t *testing.T, codec Codec) (string, map[string]string) {
	t.Helper()
	source := t.TempDir()
	files := populateSourceTree(t, source)

	builder, err := NewArchiveRegistry().Builder(codec)
	require.NoError(t, err)
	format := builder.Format()
	archivePath := filepath.Join(t.TempDir(), "backup_20260301T120000."+format.Extension())
	_, err = builder.BuildTree(archivePath, source)
	require.NoError(t, err)
	return archivePath, files
}

func TestRestoreMissingArchive(t *testing.T) {
	job, err := NewRestoreJob(filepath.Join(t.TempDir(), "absent.tar.gz"), t.TempDir(), nil)
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ErrKindValidation, result.Err.Kind)
}

func TestRestoreUnsupportedFormatTouchesNothing(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "mystery.rar")
	require.NoError(t, os.WriteFile(archivePath, []byte("???"), 0o644))

	destination := filepath.Join(t.TempDir(), "dest")
	job, err := NewRestoreJob(archivePath, destination, nil)
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ErrKindUnsupportedFormat, result.Err.Kind)

	// Destination untouched: not even created.
	_, statErr := os.Stat(destination)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestoreEncryptedArchiveRequiresKey(t *testing.T) {
	archivePath, _ := buildArchiveForRestore(t, CodecGzip)
	cipherPath, err := NewCipherSet().EncryptFile(archivePath, &EncryptionSpec{
		Method: CipherChaCha20,
		Key:    []byte("Str0ng-Enough-Key!"),
	})
	require.NoError(t, err)

	destination := filepath.Join(t.TempDir(), "dest")
	job, err := NewRestoreJob(cipherPath, destination, nil)
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ErrKindValidation, result.Err.Kind)

	_, statErr := os.Stat(destination)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestoreEncryptedArchiveWrongKey(t *testing.T) {
	archivePath, _ := buildArchiveForRestore(t, CodecGzip)
	cipherPath, err := NewCipherSet().EncryptFile(archivePath, &EncryptionSpec{
		Method: CipherAES256CBC,
		Key:    []byte("Correct-Key-123!"),
	})
	require.NoError(t, err)

	destination := filepath.Join(t.TempDir(), "dest")
	job, err := NewRestoreJob(cipherPath, destination, []byte("Wrong-Key-45678!"))
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, ErrKindDecryption, result.Err.Kind)

	// A failed decryption never writes into the destination.
	_, statErr := os.Stat(destination)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRestorePlainArchivePerFormat(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecBzip2, CodecZstd, CodecLZ4, CodecZip} {
		t.Run(string(codec), func(t *testing.T) {
			archivePath, files := buildArchiveForRestore(t, codec)

			destination := t.TempDir()
			job, err := NewRestoreJob(archivePath, destination, nil)
			require.NoError(t, err)

			result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
			require.Equal(t, OutcomeSucceeded, result.Outcome, "unexpected error: %v", result.Err)
			assert.Equal(t, len(files), result.FilesExtracted)
			assertTreeRestored(t, destination, files)
		})
	}
}

func TestRestoreCreatesDestination(t *testing.T) {
	archivePath, files := buildArchiveForRestore(t, CodecGzip)

	destination := filepath.Join(t.TempDir(), "deep", "nested", "dest")
	job, err := NewRestoreJob(archivePath, destination, nil)
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeSucceeded, result.Outcome, "unexpected error: %v", result.Err)
	assertTreeRestored(t, destination, files)
}

func TestRestoreLeavesNoStagingBehind(t *testing.T) {
	archivePath, _ := buildArchiveForRestore(t, CodecGzip)
	key := []byte("Str0ng-Enough-Key!")
	cipherPath, err := NewCipherSet().EncryptFile(archivePath, &EncryptionSpec{Method: CipherChaCha20, Key: key})
	require.NoError(t, err)

	destination := t.TempDir()
	job, err := NewRestoreJob(cipherPath, destination, key)
	require.NoError(t, err)

	result := NewRestoreOrchestrator(nil, nil).Run(context.Background(), job)
	require.Equal(t, OutcomeSucceeded, result.Outcome, "unexpected error: %v", result.Err)

	// The encrypted artifact itself is untouched.
	_, err = os.Stat(cipherPath)
	assert.NoError(t, err)

	// No decrypted plaintext appears next to the artifact or in the
	// destination.
	_, err = os.Stat(cipherPath[:len(cipherPath)-len(EncryptedSuffix)])
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(destination, filepath.Base(cipherPath)))
	assert.True(t, os.IsNotExist(err))
}
