package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/logger"
)

// BlobStore is an Azure storage account.
type BlobStore struct {
	client *azblob.Client
}

// NewBlobStore connects to accountName with a shared key.
//
// Parameters:
//   - accountName: storage account name
//   - accountKey: base64 encoded shared key
//   - serviceURL: blob endpoint; empty means
//     https://<accountName>.blob.core.windows.net
//
// # Errors
//
//   - Configuration error when the key is not valid base64 or the client
//     cannot be built
func NewBlobStore(accountName, accountKey, serviceURL string) (*BlobStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid Azure storage credentials", err)
	}
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, apperrors.NewConfigurationError("cannot create Azure blob client", err)
	}
	return &BlobStore{client: client}, nil
}

// Blob returns a handle on one blob.
func (s *BlobStore) Blob(container, name string) *Blob {
	return &Blob{store: s, container: container, name: name}
}

// Blob is a single blob in a container.
type Blob struct {
	store     *BlobStore
	container string
	name      string
}

// Location implements Sink.
func (b *Blob) Location() string {
	return BlobScheme + b.container + "/" + b.name
}

// Read implements Source.
func (b *Blob) Read(ctx context.Context) ([]byte, error) {
	resp, err := b.store.client.DownloadStream(ctx, b.container, b.name, nil)
	if err != nil {
		return nil, b.wrap(ctx, "download failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.wrap(ctx, "download failed", err)
	}
	return data, nil
}

// Write implements Sink. A block blob upload commits atomically.
func (b *Blob) Write(ctx context.Context, data []byte) error {
	if _, err := b.store.client.UploadBuffer(ctx, b.container, b.name, data, nil); err != nil {
		return b.wrap(ctx, "upload failed", err)
	}
	logger.WithFields(map[string]interface{}{
		"location": b.Location(),
		"bytes":    len(data),
	}).Debug("Blob written")
	return nil
}

func (b *Blob) wrap(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return apperrors.NewCancelledError(err)
	}
	return apperrors.NewIOError(fmt.Sprintf("%s: %s", b.Location(), msg), err)
}
