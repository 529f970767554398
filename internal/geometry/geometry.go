// Package geometry converts boxes between raster pixel space and document point space.
//
// Raster space has its origin at the top-left with Y growing downward; document
// space (PDF user space) has its origin at the bottom-left with Y growing upward.
// Every conversion scales each axis independently and flips Y.
package geometry

import (
	"image"
	"math"
)

// PixelBox is a box in raster space (origin top-left).
type PixelBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle converts the box to an image.Rectangle.
func (b PixelBox) Rectangle() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// FromRectangle converts an image.Rectangle to a PixelBox.
func FromRectangle(r image.Rectangle) PixelBox {
	return PixelBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// NormBox is a box in normalized 0..1 raster coordinates (origin top-left).
// The vision classifier reports boxes in this form.
type NormBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a rectangle in document space: point units, origin bottom-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Top returns the upper edge of the rectangle.
func (r Rect) Top() float64 { return r.Y + r.Height }

// Right returns the right edge of the rectangle.
func (r Rect) Right() float64 { return r.X + r.Width }

// minExtent keeps mapped rectangles from collapsing to zero area.
const minExtent = 1.0

// PixelToDocument maps a pixel box from a renderW x renderH raster onto a
// pageW x pageH document page.
//
//	xDoc = x/renderW * pageW
//	yDoc = pageH - (y/renderH)*pageH - heightDoc
//
// Parameters:
//   - box: the box in raster pixels, origin top-left
//   - renderW, renderH: size of the raster the box was found on; both must
//     be positive
//   - pageW, pageH: page size in points
//
// Returns:
//   - r: the rectangle in points, origin bottom-left, clamped to the page
//     with width and height floored at one unit
//   - clamped: whether clamping changed the rectangle
func PixelToDocument(box PixelBox, renderW, renderH int, pageW, pageH float64) (r Rect, clamped bool) {
	sx := pageW / float64(renderW)
	sy := pageH / float64(renderH)

	w := float64(box.Width) * sx
	h := float64(box.Height) * sy
	x := float64(box.X) * sx
	y := pageH - float64(box.Y)*sy - h

	return ClampRect(Rect{X: x, Y: y, Width: w, Height: h}, pageW, pageH)
}

// DocumentToPixel is the inverse of PixelToDocument, rounding to whole pixels.
// It does not clamp; callers painting into a raster clip the result themselves.
func DocumentToPixel(r Rect, renderW, renderH int, pageW, pageH float64) PixelBox {
	sx := float64(renderW) / pageW
	sy := float64(renderH) / pageH

	return PixelBox{
		X:      int(math.Round(r.X * sx)),
		Y:      int(math.Round((pageH - r.Y - r.Height) * sy)),
		Width:  int(math.Round(r.Width * sx)),
		Height: int(math.Round(r.Height * sy)),
	}
}

// ClampRect keeps r inside a pageW x pageH page.
//
// The origin is clamped first, then width and height are limited to the space
// remaining on the page, never dropping below one unit.
func ClampRect(r Rect, pageW, pageH float64) (Rect, bool) {
	orig := r

	r.X = clampFloat(r.X, 0, math.Max(0, pageW-minExtent))
	r.Y = clampFloat(r.Y, 0, math.Max(0, pageH-minExtent))
	r.Width = clampFloat(r.Width, minExtent, math.Max(minExtent, pageW-r.X))
	r.Height = clampFloat(r.Height, minExtent, math.Max(minExtent, pageH-r.Y))

	const eps = 1e-9
	changed := math.Abs(orig.X-r.X) > eps || math.Abs(orig.Y-r.Y) > eps ||
		math.Abs(orig.Width-r.Width) > eps || math.Abs(orig.Height-r.Height) > eps
	return r, changed
}

// NormToPixel scales a normalized box to a width x height raster.
func NormToPixel(b NormBox, width, height int) PixelBox {
	return PixelBox{
		X:      int(math.Round(b.X * float64(width))),
		Y:      int(math.Round(b.Y * float64(height))),
		Width:  int(math.Round(b.Width * float64(width))),
		Height: int(math.Round(b.Height * float64(height))),
	}
}

// StableFooterRect is the banner slot at the bottom of a page: full page width,
// footerRatio of the page height tall, independent of any detection.
func StableFooterRect(pageW, pageH, footerRatio float64) Rect {
	r, _ := ClampRect(Rect{X: 0, Y: 0, Width: pageW, Height: pageH * footerRatio}, pageW, pageH)
	return r
}

// BandToDocument maps a full-width pixel band [y0, y1) to a document rectangle.
// A footer band found on the rendered page becomes the banner slot this way.
func BandToDocument(y0, y1, renderW, renderH int, pageW, pageH float64) Rect {
	r, _ := PixelToDocument(PixelBox{X: 0, Y: y0, Width: renderW, Height: y1 - y0}, renderW, renderH, pageW, pageH)
	return r
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
