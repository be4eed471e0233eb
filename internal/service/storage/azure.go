package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/config"
	"github.com/zhouzirui/interview-sim/backend/internal/logger"
)

// AzureStore uploads files to Azure Blob Storage, one container per Kind.
type AzureStore struct {
	client     *azblob.Client
	containers map[Kind]string
	log        *zap.Logger

	mu      sync.Mutex
	created map[string]bool
}

// NewAzureStore picks credentials in this order: connection string, shared
// account key, then the default Azure credential chain against ServiceURL.
func NewAzureStore(cfg config.StorageConfig, log *zap.Logger) (*AzureStore, error) {
	client, err := newBlobClient(cfg)
	if err != nil {
		return nil, err
	}
	return &AzureStore{
		client: client,
		containers: map[Kind]string{
			KindAudio: cfg.AudioContainer,
			KindVideo: cfg.VideoContainer,
		},
		log:     logger.Named(log, "storage.azure"),
		created: make(map[string]bool),
	}, nil
}

func newBlobClient(cfg config.StorageConfig) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("azure blob client from connection string: %w", err)
		}
		return client, nil
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" && cfg.AccountName != "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}
	if serviceURL == "" {
		return nil, errors.New("azure storage requires AZURE_STORAGE_CONNECTION_STRING, AZURE_STORAGE_SERVICE_URL or AZURE_STORAGE_ACCOUNT")
	}

	if cfg.AccountName != "" && cfg.AccountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("azure shared key credential: %w", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("azure blob client: %w", err)
		}
		return client, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure default credential: %w", err)
	}
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return client, nil
}

// PutFile implements Store.
func (s *AzureStore) PutFile(ctx context.Context, kind Kind, path, name, contentType string) (string, error) {
	container, ok := s.containers[kind]
	if !ok || container == "" {
		return "", apperr.Wrap(apperr.ErrUpload, "storage.azure", fmt.Errorf("no container configured for %s", kind))
	}
	if err := s.ensureContainer(ctx, container); err != nil {
		return "", apperr.Wrap(apperr.ErrUpload, "storage.azure", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUpload, "storage.azure", err)
	}
	defer f.Close()

	opts := &azblob.UploadFileOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if _, err := s.client.UploadFile(ctx, container, name, f, opts); err != nil {
		return "", apperr.Wrap(apperr.ErrUpload, "storage.azure", fmt.Errorf("upload %s/%s: %w", container, name, err))
	}

	url := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name).URL()
	s.log.Debug("uploaded blob", zap.String("container", container), zap.String("name", name))
	return url, nil
}

func (s *AzureStore) ensureContainer(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.created[name] {
		return nil
	}
	_, err := s.client.CreateContainer(ctx, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", name, err)
	}
	s.created[name] = true
	return nil
}
