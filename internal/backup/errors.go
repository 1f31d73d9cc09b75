package backup

import (
	"errors"
	"fmt"
)

// BackupError represents errors that occur during backup and restore jobs
type BackupError struct {
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BackupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error
func (e *BackupError) Unwrap() error {
	return e.Cause
}

// ErrorKind represents different categories of job failures
type ErrorKind string

const (
	ErrKindValidation        ErrorKind = "VALIDATION_ERROR"
	ErrKindArchive           ErrorKind = "ARCHIVE_ERROR"
	ErrKindEncryption        ErrorKind = "ENCRYPTION_ERROR"
	ErrKindDecryption        ErrorKind = "DECRYPTION_ERROR"
	ErrKindUnsupportedFormat ErrorKind = "UNSUPPORTED_FORMAT_ERROR"
	ErrKindExtraction        ErrorKind = "EXTRACTION_ERROR"
	ErrKindCheckpoint        ErrorKind = "CHECKPOINT_ERROR"
	ErrKindStorage           ErrorKind = "STORAGE_ERROR"
	ErrKindConfiguration     ErrorKind = "CONFIGURATION_ERROR"
)

// NewBackupError creates a new BackupError
func NewBackupError(kind ErrorKind, message string, cause error) *BackupError {
	return &BackupError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *BackupError) WithContext(key string, value interface{}) *BackupError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Common error constructors
func NewValidationError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindValidation, message, cause)
}

func NewArchiveError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindArchive, message, cause)
}

func NewEncryptionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindEncryption, message, cause)
}

func NewDecryptionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindDecryption, message, cause)
}

func NewUnsupportedFormatError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindUnsupportedFormat, message, cause)
}

func NewExtractionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindExtraction, message, cause)
}

func NewCheckpointError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindCheckpoint, message, cause)
}

func NewStorageError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindStorage, message, cause)
}

func NewConfigurationError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindConfiguration, message, cause)
}

// KindOf returns the ErrorKind of err if it is (or wraps) a BackupError,
// or an empty kind otherwise.
func KindOf(err error) ErrorKind {
	var be *BackupError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// AsBackupError converts err into a *BackupError, wrapping foreign errors
// under the given fallback kind.
func AsBackupError(err error, fallback ErrorKind) *BackupError {
	if err == nil {
		return nil
	}
	var be *BackupError
	if errors.As(err, &be) {
		return be
	}
	return NewBackupError(fallback, err.Error(), err)
}
