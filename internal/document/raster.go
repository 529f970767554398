package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/ironsheep/logo-redact/internal/geometry"
)

// Raster is a document made of page images, one point per pixel.
// Overlays are painted straight into private copies of the pages.
type Raster struct {
	pages []*image.NRGBA
}

// NewRaster copies imgs into a new raster document.
func NewRaster(imgs []image.Image) *Raster {
	pages := make([]*image.NRGBA, len(imgs))
	for i, img := range imgs {
		pages[i] = imaging.Clone(img)
	}
	return &Raster{pages: pages}
}

// PageCount implements Document.
func (r *Raster) PageCount() int { return len(r.pages) }

// PageSize implements Document.
func (r *Raster) PageSize(page int) (Size, error) {
	if err := checkPage(page, len(r.pages)); err != nil {
		return Size{}, err
	}
	b := r.pages[page-1].Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// Render implements Document.
func (r *Raster) Render(ctx context.Context, page, width, height int) (image.Image, error) {
	if err := checkPage(page, len(r.pages)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := r.pages[page-1]
	if b := src.Bounds(); b.Dx() == width && b.Dy() == height {
		return imaging.Clone(src), nil
	}
	return imaging.Resize(src, width, height, imaging.Lanczos), nil
}

// AddOverlay implements Document.
func (r *Raster) AddOverlay(page int, ov Overlay) error {
	if err := checkPage(page, len(r.pages)); err != nil {
		return err
	}
	if ov.Image == nil {
		return fmt.Errorf("page %d: overlay has no image", page)
	}
	dst := r.pages[page-1]
	b := dst.Bounds()
	box := geometry.DocumentToPixel(ov.Rect, b.Dx(), b.Dy(), float64(b.Dx()), float64(b.Dy()))
	if box.Width <= 0 || box.Height <= 0 {
		return nil
	}
	patch := imaging.Resize(ov.Image, box.Width, box.Height, imaging.Lanczos)
	r.pages[page-1] = imaging.Paste(dst, patch, image.Pt(box.X, box.Y))
	return nil
}

// Save implements Document by importing each page image into a new PDF
// whose pages match the image dimensions.
func (r *Raster) Save(w io.Writer) error {
	readers := make([]io.Reader, len(r.pages))
	for i, p := range r.pages {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, p, imaging.PNG); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		readers[i] = &buf
	}
	return api.ImportImages(nil, w, readers, pdfcpu.DefaultImportConfig(), pdfConfig())
}

// Close implements Document.
func (r *Raster) Close() error { return nil }
