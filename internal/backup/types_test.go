package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodec(t *testing.T) {
	tests := []struct {
		tag     string
		want    Codec
		wantErr bool
	}{
		{tag: "", want: CodecNone},
		{tag: "none", want: CodecNone},
		{tag: "tar", want: CodecNone},
		{tag: "TAR", want: CodecNone},
		{tag: "gzip", want: CodecGzip},
		{tag: "gz", want: CodecGzip},
		{tag: "bzip2", want: CodecBzip2},
		{tag: "bz2", want: CodecBzip2},
		{tag: "zip", want: CodecZip},
		{tag: "zstd", want: CodecZstd},
		{tag: "zst", want: CodecZstd},
		{tag: "lz4", want: CodecLZ4},
		{tag: " gzip ", want: CodecGzip},
		{tag: "rar", wantErr: true},
		{tag: "7z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("tag "+tt.tag, func(t *testing.T) {
			got, err := ParseCodec(tt.tag)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrKindConfiguration, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCipherMethod(t *testing.T) {
	tests := []struct {
		tag     string
		want    CipherMethod
		wantErr bool
	}{
		{tag: "aes-256-cbc", want: CipherAES256CBC},
		{tag: "aes256cbc", want: CipherAES256CBC},
		{tag: "aes", want: CipherAES256CBC},
		{tag: "chacha20", want: CipherChaCha20},
		{tag: "chacha", want: CipherChaCha20},
		{tag: "CHACHA20", want: CipherChaCha20},
		{tag: "", wantErr: true},
		{tag: "des", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("tag "+tt.tag, func(t *testing.T) {
			got, err := ParseCipherMethod(tt.tag)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArtifactBaseName(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)
	job := &BackupJob{
		BaseName:  "projects",
		CreatedAt: createdAt,
		Codec:     CodecGzip,
	}

	name, err := ArtifactBaseName(job, false)
	require.NoError(t, err)
	assert.Equal(t, "projects_20260301T123045.tar.gz", name)

	name, err = ArtifactBaseName(job, true)
	require.NoError(t, err)
	assert.Equal(t, "projects_20260301T123045_incremental.tar.gz", name)
}

func TestArtifactBaseNamePerCodec(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		codec Codec
		want  string
	}{
		{CodecNone, "backup_20260102T030405.tar"},
		{CodecGzip, "backup_20260102T030405.tar.gz"},
		{CodecBzip2, "backup_20260102T030405.tar.bz2"},
		{CodecZstd, "backup_20260102T030405.tar.zst"},
		{CodecLZ4, "backup_20260102T030405.tar.lz4"},
		{CodecZip, "backup_20260102T030405.zip"},
	}

	for _, tt := range tests {
		t.Run(string(tt.codec), func(t *testing.T) {
			job := &BackupJob{BaseName: "backup", CreatedAt: createdAt, Codec: tt.codec}
			name, err := ArtifactBaseName(job, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestArtifactNamesSortByCreationTime(t *testing.T) {
	early := &BackupJob{BaseName: "b", CreatedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), Codec: CodecGzip}
	late := &BackupJob{BaseName: "b", CreatedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), Codec: CodecGzip}

	earlyName, err := ArtifactBaseName(early, false)
	require.NoError(t, err)
	lateName, err := ArtifactBaseName(late, false)
	require.NoError(t, err)

	assert.Less(t, earlyName, lateName)
}

func TestBackupResultArtifactPath(t *testing.T) {
	assert.Empty(t, BackupResult{Outcome: OutcomeNoChange}.ArtifactPath())

	result := BackupResult{
		Outcome:  OutcomeSucceeded,
		Artifact: &Artifact{Path: "/backups/b.tar.gz", Format: FormatTarGz},
	}
	assert.Equal(t, "/backups/b.tar.gz", result.ArtifactPath())
}

func TestNewJobIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewJobID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "job IDs must not repeat")
		seen[id] = true
	}
}
