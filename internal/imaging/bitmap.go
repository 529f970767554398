package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
)

// PageBitmap is one rendered document page.
//
// Scale records the render scale used to produce the bitmap from the page's
// native size, so Width == floor(nativeWidth*Scale). The pixel buffer is always
// an *image.RGBA anchored at (0,0).
type PageBitmap struct {
	Width  int
	Height int
	Scale  float64
	Pix    *image.RGBA
}

// NewPageBitmap copies img into an RGBA buffer anchored at the origin.
func NewPageBitmap(img image.Image, scale float64) *PageBitmap {
	rgba := clone.AsRGBA(img)
	if rgba.Bounds().Min != (image.Point{}) {
		b := rgba.Bounds()
		shifted := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(shifted, shifted.Bounds(), rgba, b.Min, draw.Src)
		rgba = shifted
	}
	return &PageBitmap{
		Width:  rgba.Bounds().Dx(),
		Height: rgba.Bounds().Dy(),
		Scale:  scale,
		Pix:    rgba,
	}
}

// Bounds returns the pixel rectangle covered by the bitmap.
func (b *PageBitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// RGB returns the 8-bit colour components at (x, y).
func (b *PageBitmap) RGB(x, y int) (uint8, uint8, uint8) {
	i := b.Pix.PixOffset(x, y)
	p := b.Pix.Pix[i : i+3 : i+3]
	return p[0], p[1], p[2]
}
