package sink

import (
	"context"
	"os"
	"path/filepath"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
)

// File is a document on the local filesystem.
type File struct {
	Path string
}

// NewFile returns a file target.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Location implements Sink.
func (f *File) Location() string { return f.Path }

// Read implements Source.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCancelledError(err)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, apperrors.NewIOError("cannot read "+f.Path, err)
	}
	return data, nil
}

// Write implements Sink. Data goes to a temporary file in the same directory
// which is then renamed over the destination, so readers never observe a
// partially written file.
func (f *File) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewCancelledError(err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewIOError("cannot create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return apperrors.NewIOError("cannot create temporary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewIOError("cannot write "+f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewIOError("cannot write "+f.Path, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return apperrors.NewIOError("cannot replace "+f.Path, err)
	}
	return nil
}
