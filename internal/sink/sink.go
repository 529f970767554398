// Package sink moves job documents in and out of storage.
//
// A location is either a local file path or an Azure Blob location written
// as az://<container>/<blob name>.
package sink

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
)

// BlobScheme prefixes Azure Blob locations.
const BlobScheme = "az://"

// Sink receives a finished document. Write replaces any previous content.
type Sink interface {
	Write(ctx context.Context, data []byte) error
	Location() string
}

// Source supplies an input document.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	Location() string
}

// Target is a location that can be both read and written.
type Target interface {
	Sink
	Source
}

// Resolve returns the target for location. blobs may be nil when no blob
// storage is configured.
//
// # Errors
//
//   - Validation error for an empty location or an az:// location without
//     both a container and a blob name
//   - Configuration error for a blob location when blobs is nil
func Resolve(location string, blobs *BlobStore) (Target, error) {
	if location == "" {
		return nil, apperrors.NewValidationError("empty location", nil)
	}
	if !strings.HasPrefix(location, BlobScheme) {
		return NewFile(location), nil
	}
	container, name, ok := strings.Cut(strings.TrimPrefix(location, BlobScheme), "/")
	if !ok || container == "" || name == "" {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid blob location %q (want az://container/name)", location), nil)
	}
	if blobs == nil {
		return nil, apperrors.NewConfigurationError("blob location "+location+" requires Azure storage credentials", nil)
	}
	return blobs.Blob(container, name), nil
}
