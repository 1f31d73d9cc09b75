package backup

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Codec identifies the container/compression strategy for an archive.
type Codec string

const (
	CodecNone  Codec = "none" // plain tar container, no compression
	CodecGzip  Codec = "gzip"
	CodecBzip2 Codec = "bzip2"
	CodecZip   Codec = "zip"
	CodecZstd  Codec = "zstd"
	CodecLZ4   Codec = "lz4"
)

// ParseCodec maps a user-supplied codec tag to a Codec. "tar" is accepted
// as an alias for the uncompressed container. Unknown tags are rejected
// here, at construction time, rather than deep in a running job.
func ParseCodec(tag string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "none", "tar":
		return CodecNone, nil
	case "gzip", "gz":
		return CodecGzip, nil
	case "bzip2", "bz2":
		return CodecBzip2, nil
	case "zip":
		return CodecZip, nil
	case "zstd", "zst":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("unsupported compression codec: %s", tag), nil)
	}
}

// CipherMethod identifies the encryption strategy for an artifact.
type CipherMethod string

const (
	CipherAES256CBC CipherMethod = "aes-256-cbc"
	CipherChaCha20  CipherMethod = "chacha20"
)

// ParseCipherMethod maps a user-supplied method tag to a CipherMethod.
func ParseCipherMethod(tag string) (CipherMethod, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "aes-256-cbc", "aes256cbc", "aes":
		return CipherAES256CBC, nil
	case "chacha20", "chacha":
		return CipherChaCha20, nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("unsupported encryption method: %s", tag), nil)
	}
}

// EncryptionSpec carries the cipher method and the key material for one
// job. Key material lives only for the duration of the job and must never
// be persisted or logged.
type EncryptionSpec struct {
	Method CipherMethod
	Key    []byte
}

// BackupJob describes one backup invocation. Immutable once constructed;
// owned exclusively by a single orchestrator run.
type BackupJob struct {
	ID          string
	Source      string
	Destination string
	BaseName    string
	CreatedAt   time.Time
	Codec       Codec
	Encryption  *EncryptionSpec
	Incremental bool
	Description string
}

// RestoreJob describes one restore invocation. Immutable once constructed.
type RestoreJob struct {
	ID          string
	ArchivePath string
	Destination string
	Key         []byte
}

// ChangeSet is an ordered sequence of absolute file paths modified
// strictly after a checkpoint instant. Empty is a valid, meaningful value,
// distinct from "unknown".
type ChangeSet []string

// ArchiveFormat tags a produced artifact with its container format.
type ArchiveFormat string

const (
	FormatTar    ArchiveFormat = "tar"
	FormatTarGz  ArchiveFormat = "tar.gz"
	FormatTarBz2 ArchiveFormat = "tar.bz2"
	FormatTarZst ArchiveFormat = "tar.zst"
	FormatTarLz4 ArchiveFormat = "tar.lz4"
	FormatZip    ArchiveFormat = "zip"
)

// Extension returns the file extension for the format, without a leading dot.
func (f ArchiveFormat) Extension() string {
	return string(f)
}

// formatForCodec maps a codec to the format its builder produces.
func formatForCodec(c Codec) (ArchiveFormat, error) {
	switch c {
	case CodecNone:
		return FormatTar, nil
	case CodecGzip:
		return FormatTarGz, nil
	case CodecBzip2:
		return FormatTarBz2, nil
	case CodecZstd:
		return FormatTarZst, nil
	case CodecLZ4:
		return FormatTarLz4, nil
	case CodecZip:
		return FormatZip, nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("unsupported compression codec: %s", c), nil)
	}
}

// Artifact is a produced archive file with a known format tag. The
// Encrypted flag is true iff the path carries the encrypted-file suffix.
type Artifact struct {
	Path      string        `json:"path"`
	Format    ArchiveFormat `json:"format"`
	Encrypted bool          `json:"encrypted"`
}

// Outcome is the terminal state of a job. No further stage execution
// follows any of these.
type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeNoChange  Outcome = "NO_CHANGE"
	OutcomeFailed    Outcome = "FAILED"
)

// BackupResult is the terminal result of one backup job execution.
type BackupResult struct {
	Outcome  Outcome
	Artifact *Artifact
	Err      *BackupError
	Metrics  *JobMetrics
}

// ArtifactPath returns the final artifact path, or "" for NoChange and
// failed outcomes.
func (r BackupResult) ArtifactPath() string {
	if r.Artifact == nil {
		return ""
	}
	return r.Artifact.Path
}

// RestoreResult is the terminal result of one restore job execution.
type RestoreResult struct {
	Outcome        Outcome
	Format         ArchiveFormat
	FilesExtracted int
	Err            *BackupError
	Metrics        *JobMetrics
}

// timestampLayout is fixed-width and lexicographically sortable so artifact
// names order by creation time.
const timestampLayout = "20060102T150405"

// ArtifactBaseName computes the artifact file name for a job:
// <base>_<timestamp>[_incremental].<ext>. The _incremental infix is present
// iff the job archives an explicit change set rather than the whole tree.
func ArtifactBaseName(job *BackupJob, incrementalList bool) (string, error) {
	format, err := formatForCodec(job.Codec)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s", job.BaseName, job.CreatedAt.Format(timestampLayout))
	if incrementalList {
		name += "_incremental"
	}
	return name + "." + format.Extension(), nil
}

// NewJobID returns a unique job identifier.
func NewJobID() string {
	return uuid.NewString()
}
