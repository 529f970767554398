package document

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/imaging"
)

// Rasterize renders page at scale into a bitmap of exactly
// floor(width*scale) x floor(height*scale) pixels. Any failure is a render
// error for that page; no partial bitmap is returned.
func Rasterize(ctx context.Context, doc Document, page int, scale float64) (*imaging.PageBitmap, error) {
	if scale <= 0 {
		return nil, apperrors.NewRenderError(page, fmt.Sprintf("invalid render scale %v", scale), nil)
	}
	size, err := doc.PageSize(page)
	if err != nil {
		return nil, apperrors.NewRenderError(page, "page size unavailable", err)
	}
	w, h := nativePixels(size, scale)
	if w < 1 || h < 1 {
		return nil, apperrors.NewRenderError(page, fmt.Sprintf("page renders to empty bitmap (%dx%d)", w, h), nil)
	}

	img, err := doc.Render(ctx, page, w, h)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, apperrors.WithPage(apperrors.NewCancelledError(err), page)
		}
		return nil, apperrors.NewRenderError(page, "render failed", err)
	}

	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		// Rasterizers may be off by a pixel from rounding; snap to the exact size.
		img = imaging.ResizeExact(img, w, h)
	}
	return imaging.NewPageBitmap(img, scale), nil
}
