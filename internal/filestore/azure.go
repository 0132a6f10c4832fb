package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureStore keeps attachments as block blobs in one container.
type AzureStore struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewAzureStore connects with a storage-account connection string and ensures the container exists.
func NewAzureStore(ctx context.Context, connectionString, container string, logger *zap.Logger) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("ensure container %s: %w", container, err)
	}
	logger.Info("azure blob storage ready", zap.String("container", container))
	return &AzureStore{client: client, container: container, logger: logger}, nil
}

func (s *AzureStore) Upload(ctx context.Context, data []byte, filename, contentType, prefix string) (UploadResult, error) {
	name := ObjectPath(prefix, filename)
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType:        to.Ptr(contentType),
			BlobContentDisposition: to.Ptr(fmt.Sprintf("inline; filename=%q", filename)),
		},
		Metadata: map[string]*string{
			"originalName": to.Ptr(filename),
			"uploadedAt":   to.Ptr(time.Now().UTC().Format(time.RFC3339)),
		},
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return UploadResult{Path: name, URL: s.blobURL(name), Size: int64(len(data))}, nil
}

func (s *AzureStore) Download(ctx context.Context, prefix, filename string) ([]byte, error) {
	name := ObjectPath(prefix, filename)
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *AzureStore) Delete(ctx context.Context, prefix, filename string) (bool, error) {
	name := ObjectPath(prefix, filename)
	if _, err := s.client.DeleteBlob(ctx, s.container, name, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", name, err)
	}
	return true, nil
}

func (s *AzureStore) Exists(ctx context.Context, prefix, filename string) (bool, error) {
	name := ObjectPath(prefix, filename)
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name)
	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AzureStore) blobURL(name string) string {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(name).URL()
}
