package backup

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader copies artifacts to a Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSUploader creates a new GCSUploader instance.
func NewGCSUploader(ctx context.Context, config *GCSConfig) (*GCSUploader, error) {
	if config == nil {
		return nil, NewConfigurationError("gcs upload configuration is required", nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if config.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, NewStorageError("failed to create GCS client", err)
	}

	return &GCSUploader{
		client: client,
		bucket: config.Bucket,
		prefix: config.Prefix,
	}, nil
}

// Provider names the backing store.
func (u *GCSUploader) Provider() string { return "gcs" }

// Upload stores the artifact file under the configured bucket and prefix.
func (u *GCSUploader) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", NewStorageError("failed to open artifact for upload", err).
			WithContext("path", localPath)
	}
	defer file.Close()

	key := objectKey(u.prefix, objectName)
	writer := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return "", NewStorageError("failed to upload artifact to GCS", err).
			WithContext("bucket", u.bucket).
			WithContext("key", key)
	}
	if err := writer.Close(); err != nil {
		return "", NewStorageError("failed to finalize GCS upload", err).
			WithContext("bucket", u.bucket).
			WithContext("key", key)
	}

	return fmt.Sprintf("gs://%s/%s", u.bucket, key), nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
