// Package redact paints redactions onto document pages: an opaque solid
// rectangle, or a replacement banner scaled into a slot.
//
// Redactions are overlays. They hide what lies beneath them visually but do
// not remove the underlying text, paths or fonts from the document.
package redact

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/document"
	"github.com/ironsheep/logo-redact/internal/geometry"
	imgutil "github.com/ironsheep/logo-redact/internal/imaging"
)

// OverlayNote describes the nature of every redaction this package makes.
const OverlayNote = "Redactions are visual overlays: page content beneath them (text, vector paths, fonts) is left in the document."

const (
	// pixelsPerPoint is the resolution overlay images are rendered at.
	pixelsPerPoint = 2.0
	// maxOverlaySide caps overlay image dimensions for very large slots.
	maxOverlaySide = 4000
)

// BannerSpec describes a banner replacement.
type BannerSpec struct {
	Path string
	Fit  config.BannerFit
	// FillBackground paints the whole slot with Background before the banner.
	FillBackground bool
	Background     colorful.Color
	// BottomOffset raises the slot by this many points.
	BottomOffset float64
}

// Compositor applies redactions to one document.
type Compositor struct {
	doc     document.Document
	banners *imgutil.ImageCache
}

// NewCompositor returns a compositor for doc. banners may be shared across jobs.
func NewCompositor(doc document.Document, banners *imgutil.ImageCache) *Compositor {
	if banners == nil {
		banners = imgutil.NewImageCache()
	}
	return &Compositor{doc: doc, banners: banners}
}

// SolidFill covers rect on page with an opaque rectangle of colour c and
// returns the rectangle painted.
func (c *Compositor) SolidFill(page int, rect geometry.Rect, col colorful.Color) (geometry.Rect, error) {
	size, err := c.doc.PageSize(page)
	if err != nil {
		return geometry.Rect{}, err
	}
	rect, _ = geometry.ClampRect(rect, size.Width, size.Height)
	w, h := canvasSize(rect)
	patch := imaging.New(w, h, toNRGBA(col))
	if err := c.doc.AddOverlay(page, document.Overlay{Rect: rect, Image: patch}); err != nil {
		return geometry.Rect{}, err
	}
	return rect, nil
}

// ReplaceBanner draws the banner at bs.Path into slot on page and returns
// the rectangle painted. With cover fit the banner may extend past the slot on
// one axis; it is only clipped at the page edge.
//
// Parameters:
//   - page: 1-based page number
//   - slot: the footer slot in points, before BottomOffset is applied
//   - bs: banner image, fit and background settings
//
// # Errors
//
//   - Returns error if the page does not exist or the banner cannot be loaded
//   - Returns error if the slot lies entirely outside the page
func (c *Compositor) ReplaceBanner(page int, slot geometry.Rect, bs BannerSpec) (geometry.Rect, error) {
	size, err := c.doc.PageSize(page)
	if err != nil {
		return geometry.Rect{}, err
	}
	banner, err := c.banners.Load(bs.Path)
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("load banner: %w", err)
	}

	slot.Y += bs.BottomOffset
	bb := banner.Bounds()
	placed := PlaceBanner(bb.Dx(), bb.Dy(), slot, bs.Fit)

	area := placed
	if bs.FillBackground {
		area = union(slot, placed)
	}
	area = intersect(area, geometry.Rect{Width: size.Width, Height: size.Height})
	if area.Width <= 0 || area.Height <= 0 {
		return geometry.Rect{}, fmt.Errorf("banner slot %+v lies outside page %d", slot, page)
	}

	w, h := canvasSize(area)
	kx := float64(w) / area.Width
	ky := float64(h) / area.Height

	bg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if bs.FillBackground {
		bg = toNRGBA(bs.Background)
	}
	canvas := imaging.New(w, h, bg)

	bw := max(1, int(math.Round(placed.Width*kx)))
	bh := max(1, int(math.Round(placed.Height*ky)))
	scaled := imaging.Resize(banner, bw, bh, imaging.Lanczos)
	// Canvas rows run top-down from the area's top edge.
	at := image.Pt(
		int(math.Round((placed.X-area.X)*kx)),
		int(math.Round((area.Top()-placed.Top())*ky)),
	)
	canvas = imaging.Paste(canvas, scaled, at)

	if err := c.doc.AddOverlay(page, document.Overlay{Rect: area, Image: canvas}); err != nil {
		return geometry.Rect{}, err
	}
	return area, nil
}

// PlaceBanner fits a bannerW x bannerH image into slot, preserving aspect
// ratio and centring it.
//
// FitContain shrinks (or grows) the banner until it fits entirely inside the
// slot. FitCover scales it until it covers the slot, overflowing on one axis.
func PlaceBanner(bannerW, bannerH int, slot geometry.Rect, fit config.BannerFit) geometry.Rect {
	if bannerW <= 0 || bannerH <= 0 || slot.Width <= 0 || slot.Height <= 0 {
		return slot
	}
	sx := slot.Width / float64(bannerW)
	sy := slot.Height / float64(bannerH)
	s := math.Min(sx, sy)
	if fit == config.FitCover {
		s = math.Max(sx, sy)
	}
	w := float64(bannerW) * s
	h := float64(bannerH) * s
	return geometry.Rect{
		X:      slot.X + (slot.Width-w)/2,
		Y:      slot.Y + (slot.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

func union(a, b geometry.Rect) geometry.Rect {
	x0 := math.Min(a.X, b.X)
	y0 := math.Min(a.Y, b.Y)
	x1 := math.Max(a.Right(), b.Right())
	y1 := math.Max(a.Top(), b.Top())
	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func intersect(a, b geometry.Rect) geometry.Rect {
	x0 := math.Max(a.X, b.X)
	y0 := math.Max(a.Y, b.Y)
	x1 := math.Min(a.Right(), b.Right())
	y1 := math.Min(a.Top(), b.Top())
	return geometry.Rect{X: x0, Y: y0, Width: math.Max(0, x1-x0), Height: math.Max(0, y1-y0)}
}

// canvasSize is the pixel size an overlay for r is rendered at. The aspect
// ratio follows r so a uniform scale maps the image back onto it.
func canvasSize(r geometry.Rect) (int, int) {
	k := pixelsPerPoint
	if longest := math.Max(r.Width, r.Height) * k; longest > maxOverlaySide {
		k = maxOverlaySide / math.Max(r.Width, r.Height)
	}
	w := max(1, int(math.Round(r.Width*k)))
	h := max(1, int(math.Round(r.Height*k)))
	return w, h
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
