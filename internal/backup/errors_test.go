package backup

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupErrorFormatting(t *testing.T) {
	err := NewArchiveError("failed to write archive entries", fmt.Errorf("disk full"))
	assert.Equal(t, "ARCHIVE_ERROR: failed to write archive entries (caused by: disk full)", err.Error())

	bare := NewValidationError("source directory is required", nil)
	assert.Equal(t, "VALIDATION_ERROR: source directory is required", bare.Error())
}

func TestBackupErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewEncryptionError("cipher operation failed", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestBackupErrorWithContext(t *testing.T) {
	err := NewCheckpointError("failed to write checkpoint record", nil).
		WithContext("destination", "/backups").
		WithContext("stage", "UpdatingCheckpoint")

	assert.Equal(t, "/backups", err.Context["destination"])
	assert.Equal(t, "UpdatingCheckpoint", err.Context["stage"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrKindDecryption, KindOf(NewDecryptionError("x", nil)))
	assert.Equal(t, ErrKindDecryption, KindOf(fmt.Errorf("wrapped: %w", NewDecryptionError("x", nil))))
	assert.Empty(t, KindOf(fmt.Errorf("plain")))
	assert.Empty(t, KindOf(nil))
}

func TestAsBackupError(t *testing.T) {
	original := NewUnsupportedFormatError("unrecognized archive suffix: x.rar", nil)
	converted := AsBackupError(fmt.Errorf("wrapped: %w", original), ErrKindExtraction)
	require.NotNil(t, converted)
	assert.Equal(t, ErrKindUnsupportedFormat, converted.Kind, "existing kind survives wrapping")

	foreign := AsBackupError(fmt.Errorf("io failure"), ErrKindArchive)
	require.NotNil(t, foreign)
	assert.Equal(t, ErrKindArchive, foreign.Kind)

	assert.Nil(t, AsBackupError(nil, ErrKindArchive))
}
