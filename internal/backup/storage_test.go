package backup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploaderDisabled(t *testing.T) {
	uploader, err := NewUploader(context.Background(), UploadConfig{})
	require.NoError(t, err)
	assert.Nil(t, uploader, "empty provider disables upload")
}

func TestNewUploaderUnknownProvider(t *testing.T) {
	_, err := NewUploader(context.Background(), UploadConfig{Provider: "ftp"})
	require.Error(t, err)
	assert.Equal(t, ErrKindConfiguration, KindOf(err))
}

func TestNewUploaderRequiresProviderConfig(t *testing.T) {
	_, err := NewUploader(context.Background(), UploadConfig{Provider: "s3"})
	require.Error(t, err)
	assert.Equal(t, ErrKindConfiguration, KindOf(err))

	_, err = NewUploader(context.Background(), UploadConfig{Provider: "azure"})
	require.Error(t, err)
	assert.Equal(t, ErrKindConfiguration, KindOf(err))
}

func TestNewS3UploaderValidatesConfig(t *testing.T) {
	_, err := NewS3Uploader(&S3Config{Bucket: "backups"})
	require.Error(t, err)
	assert.Equal(t, ErrKindConfiguration, KindOf(err))

	uploader, err := NewS3Uploader(&S3Config{Bucket: "backups", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "s3", uploader.Provider())
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "b.tar.gz", objectKey("", "b.tar.gz"))
	assert.Equal(t, "nightly/b.tar.gz", objectKey("nightly", "b.tar.gz"))
	assert.Equal(t, "a/b/c.zip", objectKey("a/b", "c.zip"))
}
