package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKeyStrength(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid key", key: "Aa1!aaaaaaaa"},
		{name: "valid long key", key: "Correct-Horse-Battery-7"},
		{name: "too short", key: "Aa1!aaaa", wantErr: true},
		{name: "no uppercase", key: "aa1!aaaaaaaa", wantErr: true},
		{name: "no lowercase", key: "AA1!AAAAAAAA", wantErr: true},
		{name: "no digit", key: "Aa!!aaaaaaaa", wantErr: true},
		{name: "no symbol", key: "Aa11aaaaaaaa", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKeyStrength([]byte(tt.key))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrKindValidation, KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestJobBuilderBuild(t *testing.T) {
	job, err := NewJobBuilder().
		Source("/data/projects").
		Destination("/backups").
		BaseName("projects").
		Description("nightly").
		Codec("gzip").
		Incremental(true).
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "/data/projects", job.Source)
	assert.Equal(t, "/backups", job.Destination)
	assert.Equal(t, "projects", job.BaseName)
	assert.Equal(t, "nightly", job.Description)
	assert.Equal(t, CodecGzip, job.Codec)
	assert.True(t, job.Incremental)
	assert.Nil(t, job.Encryption)
	assert.WithinDuration(t, time.Now(), job.CreatedAt, 5*time.Second)
}

func TestJobBuilderEncryption(t *testing.T) {
	key := []byte("Str0ng-Enough-Key!")

	job, err := NewJobBuilder().
		Source("/src").
		Destination("/dst").
		BaseName("b").
		Encrypt("chacha20", key).
		Build()
	require.NoError(t, err)
	require.NotNil(t, job.Encryption)
	assert.Equal(t, CipherChaCha20, job.Encryption.Method)
	assert.Equal(t, key, job.Encryption.Key)
}

func TestJobBuilderRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*BackupJob, error)
	}{
		{
			name: "missing source",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Destination("/dst").BaseName("b").Build()
			},
		},
		{
			name: "missing destination",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").BaseName("b").Build()
			},
		},
		{
			name: "missing base name",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").Destination("/dst").Build()
			},
		},
		{
			name: "unknown codec",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").Destination("/dst").BaseName("b").Codec("rar").Build()
			},
		},
		{
			name: "unknown cipher",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").Destination("/dst").BaseName("b").
					Encrypt("rot13", []byte("Str0ng-Enough-Key!")).Build()
			},
		},
		{
			name: "weak key",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").Destination("/dst").BaseName("b").
					Encrypt("chacha20", []byte("weak")).Build()
			},
		},
		{
			name: "key without method",
			build: func() (*BackupJob, error) {
				return NewJobBuilder().Source("/src").Destination("/dst").BaseName("b").
					Encrypt("", []byte("Str0ng-Enough-Key!")).Build()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, job)
			assert.Equal(t, ErrKindValidation, KindOf(err))
		})
	}
}

func TestJobBuilderCreatedAtOverride(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	job, err := NewJobBuilder().
		Source("/src").Destination("/dst").BaseName("b").
		CreatedAt(createdAt).
		Build()
	require.NoError(t, err)
	assert.Equal(t, createdAt, job.CreatedAt)
}

func TestNewRestoreJob(t *testing.T) {
	job, err := NewRestoreJob("/backups/b.tar.gz", "/restore", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "/backups/b.tar.gz", job.ArchivePath)
	assert.Equal(t, "/restore", job.Destination)
	assert.Nil(t, job.Key)

	_, err = NewRestoreJob("", "/restore", nil)
	require.Error(t, err)

	_, err = NewRestoreJob("/backups/b.tar.gz", "", nil)
	require.Error(t, err)
}
