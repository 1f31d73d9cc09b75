package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Uploader copies artifacts to an Amazon S3 bucket.
type S3Uploader struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Uploader creates a new S3Uploader instance.
func NewS3Uploader(config *S3Config) (*S3Uploader, error) {
	if config == nil {
		return nil, NewConfigurationError("s3 upload configuration is required", nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	awsConfig := &aws.Config{Region: aws.String(config.Region)}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, NewStorageError("failed to create AWS session", err)
	}

	return &S3Uploader{
		client: s3.New(sess),
		bucket: config.Bucket,
		prefix: config.Prefix,
	}, nil
}

// Provider names the backing store.
func (u *S3Uploader) Provider() string { return "s3" }

// Upload stores the artifact file under the configured bucket and prefix.
func (u *S3Uploader) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", NewStorageError("failed to open artifact for upload", err).
			WithContext("path", localPath)
	}
	defer file.Close()

	key := objectKey(u.prefix, objectName)
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", NewStorageError("failed to upload artifact to S3", err).
			WithContext("bucket", u.bucket).
			WithContext("key", key)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
