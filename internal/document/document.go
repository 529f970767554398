// Package document abstracts the paged input a job redacts.
//
// Two implementations exist: PDF (rendered with poppler's pdftoppm, stamped
// with pdfcpu) and Raster (in-memory page images, saved as a PDF). Page
// numbers are 1-based. Page sizes are in points with the origin at the
// bottom-left, matching geometry.Rect.
//
// Overlays only add visible content on top of a page. Text, vector paths and
// fonts beneath an overlay remain in the file.
package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	"github.com/ironsheep/logo-redact/internal/geometry"
)

// Size is a page size in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlay is an opaque image drawn to exactly cover Rect.
type Overlay struct {
	Rect  geometry.Rect
	Image image.Image
}

// Document is a paged document that can be rendered and overlaid.
//
// Render may be called concurrently. AddOverlay and Save must not run
// concurrently with each other.
type Document interface {
	PageCount() int
	PageSize(page int) (Size, error)
	// Render rasterizes page to exactly width x height pixels.
	Render(ctx context.Context, page, width, height int) (image.Image, error)
	AddOverlay(page int, ov Overlay) error
	// Save writes the document with all overlays applied.
	Save(w io.Writer) error
	// Close releases temporary resources.
	Close() error
}

// Open sniffs data and returns a PDF document for %PDF input, or a
// single-page raster document for PNG/JPEG input.
func Open(data []byte, opts PDFOptions) (Document, error) {
	if IsPDF(data) {
		return OpenPDF(data, opts)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("input is neither a PDF nor a supported image: %w", err)
	}
	return NewRaster([]image.Image{img}), nil
}

// IsPDF reports whether data starts with a PDF header, ignoring leading whitespace.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-"))
}

func checkPage(page, count int) error {
	if page < 1 || page > count {
		return fmt.Errorf("page %d out of range 1..%d", page, count)
	}
	return nil
}
