package backup

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

// AzureUploader copies artifacts to an Azure Blob Storage container.
type AzureUploader struct {
	container azblob.ContainerURL
	account   string
	name      string
	prefix    string
}

// NewAzureUploader creates a new AzureUploader instance.
func NewAzureUploader(config *AzureConfig) (*AzureUploader, error) {
	if config == nil {
		return nil, NewConfigurationError("azure upload configuration is required", nil)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, NewStorageError("failed to create Azure credential", err)
	}

	endpoint, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net/%s", config.AccountName, config.Container))
	if err != nil {
		return nil, NewStorageError("failed to build Azure container URL", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})
	return &AzureUploader{
		container: azblob.NewContainerURL(*endpoint, pipeline),
		account:   config.AccountName,
		name:      config.Container,
		prefix:    config.Prefix,
	}, nil
}

// Provider names the backing store.
func (u *AzureUploader) Provider() string { return "azure" }

// Upload stores the artifact file under the configured container and
// prefix.
func (u *AzureUploader) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", NewStorageError("failed to open artifact for upload", err).
			WithContext("path", localPath)
	}
	defer file.Close()

	key := objectKey(u.prefix, objectName)
	blob := u.container.NewBlockBlobURL(key)

	_, err = azblob.UploadFileToBlockBlob(ctx, file, blob, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: "application/octet-stream"},
	})
	if err != nil {
		return "", NewStorageError("failed to upload artifact to Azure", err).
			WithContext("container", u.name).
			WithContext("key", key)
	}

	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", u.account, u.name, key), nil
}
