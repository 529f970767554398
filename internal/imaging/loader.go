package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded reference and banner images.
//
// Images are keyed by the path they were loaded from and are normalized on load
// (EXIF orientation applied, transparency flattened onto white). A job loads the
// same banner for every page; the cache keeps that to a single decode.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadReference(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// IsReferenceImage reports whether path has an extension the template library accepts.
// Only PNG and JPEG are supported; everything else in a reference directory is ignored.
func IsReferenceImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// LoadReference opens an image file with its EXIF orientation applied and any
// transparency flattened onto a white background.
//
// Logos are commonly shipped as transparent PNGs; flattening keeps transparent
// areas from turning black when the image is later converted to grayscale.
func LoadReference(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", filepath.Base(path), err)
	}
	return Flatten(img, color.White), nil
}

// Flatten composites img over a solid background colour.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}
