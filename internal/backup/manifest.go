package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"
)

// manifestSuffix is appended to the artifact path for the sidecar record.
const manifestSuffix = ".manifest.json"

// Manifest is the advisory sidecar describing a produced artifact. It
// carries enough to identify and verify the archive without opening it.
// Never contains key material.
type Manifest struct {
	JobID         string        `json:"job_id"`
	BaseName      string        `json:"base_name"`
	Source        string        `json:"source"`
	Description   string        `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Codec         Codec         `json:"codec"`
	CipherMethod  CipherMethod  `json:"cipher_method,omitempty"`
	Incremental   bool          `json:"incremental"`
	Artifact      Artifact      `json:"artifact"`
	Checksum      string        `json:"checksum"`
	FilesArchived int           `json:"files_archived"`
	SizeBytes     int64         `json:"size_bytes"`
	Duration      time.Duration `json:"duration_ns"`
}

// ChecksumFile computes the hex-encoded SHA-256 of a file's contents.
func ChecksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// WriteManifest writes the sidecar next to the artifact and returns its
// path.
func WriteManifest(job *BackupJob, artifact *Artifact, metrics *JobMetrics) (string, error) {
	checksum, err := ChecksumFile(artifact.Path)
	if err != nil {
		return "", NewStorageError("failed to checksum artifact", err).
			WithContext("path", artifact.Path)
	}

	manifest := Manifest{
		JobID:         job.ID,
		BaseName:      job.BaseName,
		Source:        job.Source,
		Description:   job.Description,
		CreatedAt:     job.CreatedAt,
		Codec:         job.Codec,
		Incremental:   job.Incremental,
		Artifact:      *artifact,
		Checksum:      checksum,
		FilesArchived: metrics.FilesArchived,
		SizeBytes:     metrics.ArtifactBytes,
		Duration:      metrics.TotalDuration(),
	}
	if job.Encryption != nil {
		manifest.CipherMethod = job.Encryption.Method
	}

	data, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return "", NewStorageError("failed to serialize manifest", err)
	}

	path := artifact.Path + manifestSuffix
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", NewStorageError("failed to write manifest", err).
			WithContext("path", path)
	}
	return path, nil
}

// ReadManifest loads a sidecar record.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewStorageError("failed to read manifest", err).
			WithContext("path", path)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, NewStorageError("failed to parse manifest", err).
			WithContext("path", path)
	}
	return &manifest, nil
}
