package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
)

func TestFile_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "doc.pdf")
	f := NewFile(path)

	if err := f.Write(context.Background(), []byte("first")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := f.Write(context.Background(), []byte("second")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := f.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Read() = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the output file", len(entries))
	}
}

func TestFile_CancelledWriteLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFile(path).Write(ctx, []byte("data"))
	if !apperrors.IsKind(err, apperrors.KindCancelled) {
		t.Errorf("Write() error = %v, want cancelled", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("output exists after cancelled write")
	}
}

func TestFile_ReadMissing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.pdf")).Read(context.Background())
	if !apperrors.IsKind(err, apperrors.KindIO) {
		t.Errorf("Read() error = %v, want io", err)
	}
}

func TestResolve(t *testing.T) {
	target, err := Resolve("/tmp/out.pdf", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := target.(*File); !ok {
		t.Errorf("Resolve(path) = %T, want *File", target)
	}

	if _, err := Resolve("az://container/doc.pdf", nil); !apperrors.IsKind(err, apperrors.KindConfiguration) {
		t.Errorf("Resolve(blob) without store error = %v, want configuration", err)
	}
	for _, bad := range []string{"", "az://", "az://container", "az:///name"} {
		if _, err := Resolve(bad, nil); !apperrors.IsKind(err, apperrors.KindValidation) {
			t.Errorf("Resolve(%q) error = %v, want validation", bad, err)
		}
	}

	store := &BlobStore{}
	target, err = Resolve("az://jobs/out/doc.pdf", store)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if target.Location() != "az://jobs/out/doc.pdf" {
		t.Errorf("Location() = %q", target.Location())
	}
}
