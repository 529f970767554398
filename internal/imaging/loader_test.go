package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes img to dir/name and returns the path
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

func TestIsReferenceImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"logo.png", true},
		{"logo.PNG", true},
		{"logo.jpg", true},
		{"logo.jpeg", true},
		{"logo.gif", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsReferenceImage(tt.path); got != tt.want {
			t.Errorf("IsReferenceImage(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadReference_FlattensTransparency(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.NRGBA{0, 0, 0, 255})
	path := writePNG(t, dir, "logo.png", img)

	loaded, err := LoadReference(path)
	if err != nil {
		t.Fatalf("LoadReference failed: %v", err)
	}

	r, g, b, _ := loaded.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("transparent pixel should be white, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
	r, _, _, _ = loaded.At(5, 5).RGBA()
	if r>>8 != 0 {
		t.Errorf("opaque pixel should stay black, got %d", r>>8)
	}
}

func TestImageCache_LoadOnce(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "banner.png", createInMemoryImage(8, 4, color.White))

	cache := NewImageCache()
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Error("expected cached image to be returned")
	}
}

func TestImageCache_MissingFile(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
