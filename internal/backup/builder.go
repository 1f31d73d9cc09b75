package backup

import (
	"time"
	"unicode"
)

// ValidateKeyStrength enforces the key-material policy: length of at least
// 12, with at least one uppercase letter, one lowercase letter, one digit
// and one symbol outside [A-Za-z0-9].
func ValidateKeyStrength(key []byte) error {
	if len(key) < 12 {
		return NewValidationError("encryption key must be at least 12 characters", nil)
	}
	var upper, lower, digit, symbol bool
	for _, r := range string(key) {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return NewValidationError("encryption key must contain upper, lower, digit and symbol characters", nil)
	}
	return nil
}

// JobBuilder assembles an immutable BackupJob. Adapters differ only in how
// they populate the builder: CLI flags, YAML job files and interactive
// prompts all funnel through the same validation.
type JobBuilder struct {
	source      string
	destination string
	baseName    string
	description string
	codecTag    string
	cipherTag   string
	key         []byte
	incremental bool
	createdAt   time.Time
}

// NewJobBuilder creates an empty builder.
func NewJobBuilder() *JobBuilder {
	return &JobBuilder{}
}

func (b *JobBuilder) Source(path string) *JobBuilder {
	b.source = path
	return b
}

func (b *JobBuilder) Destination(path string) *JobBuilder {
	b.destination = path
	return b
}

func (b *JobBuilder) BaseName(name string) *JobBuilder {
	b.baseName = name
	return b
}

func (b *JobBuilder) Description(text string) *JobBuilder {
	b.description = text
	return b
}

func (b *JobBuilder) Codec(tag string) *JobBuilder {
	b.codecTag = tag
	return b
}

// Encrypt enables encryption with the given method tag and key material.
func (b *JobBuilder) Encrypt(methodTag string, key []byte) *JobBuilder {
	b.cipherTag = methodTag
	b.key = key
	return b
}

func (b *JobBuilder) Incremental(enabled bool) *JobBuilder {
	b.incremental = enabled
	return b
}

// CreatedAt overrides the job creation instant; defaults to now.
func (b *JobBuilder) CreatedAt(t time.Time) *JobBuilder {
	b.createdAt = t
	return b
}

// Build validates the collected fields and returns the immutable job.
// Unknown codec and cipher tags are rejected here, not deep in execution.
func (b *JobBuilder) Build() (*BackupJob, error) {
	if b.source == "" {
		return nil, NewValidationError("source directory is required", nil)
	}
	if b.destination == "" {
		return nil, NewValidationError("destination directory is required", nil)
	}
	if b.baseName == "" {
		return nil, NewValidationError("backup base name is required", nil)
	}

	codec, err := ParseCodec(b.codecTag)
	if err != nil {
		return nil, NewValidationError("invalid compression codec", err)
	}

	var spec *EncryptionSpec
	if b.cipherTag != "" || len(b.key) > 0 {
		method, err := ParseCipherMethod(b.cipherTag)
		if err != nil {
			return nil, NewValidationError("invalid encryption method", err)
		}
		if err := ValidateKeyStrength(b.key); err != nil {
			return nil, err
		}
		spec = &EncryptionSpec{Method: method, Key: b.key}
	}

	createdAt := b.createdAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &BackupJob{
		ID:          NewJobID(),
		Source:      b.source,
		Destination: b.destination,
		BaseName:    b.baseName,
		CreatedAt:   createdAt,
		Codec:       codec,
		Encryption:  spec,
		Incremental: b.incremental,
		Description: b.description,
	}, nil
}

// NewRestoreJob validates and constructs an immutable RestoreJob.
func NewRestoreJob(archivePath, destination string, key []byte) (*RestoreJob, error) {
	if archivePath == "" {
		return nil, NewValidationError("archive path is required", nil)
	}
	if destination == "" {
		return nil, NewValidationError("destination directory is required", nil)
	}
	return &RestoreJob{
		ID:          NewJobID(),
		ArchivePath: archivePath,
		Destination: destination,
		Key:         key,
	}, nil
}
