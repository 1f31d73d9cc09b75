package backup

import (
	"context"
	"fmt"
	"path"
)

// Uploader copies a successful artifact to a remote store. The local
// destination stays the source of truth; upload failures are reported to
// the caller but never retro-fail a completed job.
type Uploader interface {
	// Upload stores the file at localPath under objectName and returns the
	// remote location.
	Upload(ctx context.Context, localPath, objectName string) (string, error)
	// Provider names the backing store.
	Provider() string
}

// NewUploader selects an uploader from config. A disabled upload section
// yields (nil, nil).
func NewUploader(ctx context.Context, config UploadConfig) (Uploader, error) {
	switch config.Provider {
	case "":
		return nil, nil
	case "s3":
		return NewS3Uploader(config.S3)
	case "gcs":
		return NewGCSUploader(ctx, config.GCS)
	case "azure":
		return NewAzureUploader(config.Azure)
	default:
		return nil, NewConfigurationError(fmt.Sprintf("unsupported upload provider: %s", config.Provider), nil)
	}
}

// objectKey joins an optional prefix with the object name.
func objectKey(prefix, objectName string) string {
	if prefix == "" {
		return objectName
	}
	return path.Join(prefix, objectName)
}
