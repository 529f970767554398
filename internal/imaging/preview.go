package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Outline is a rectangle to draw on a debug preview.
type Outline struct {
	Rect      image.Rectangle
	Color     color.RGBA
	Thickness int
	Label     string
}

// Colours used by the pipeline's debug previews.
var (
	ZoneOutlineColor  = color.RGBA{0, 160, 255, 255}
	MatchOutlineColor = color.RGBA{255, 0, 0, 255}
)

// RenderPreview draws outlines over a copy of the page bitmap.
//
// The page itself is never modified. Labels are drawn at the outline's
// top-left corner in the 7x13 bitmap font.
func RenderPreview(page *PageBitmap, outlines ...Outline) *image.RGBA {
	out := image.NewRGBA(page.Bounds())
	draw.Draw(out, out.Bounds(), page.Pix, image.Point{}, draw.Src)

	for _, o := range outlines {
		r := o.Rect.Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		t := o.Thickness
		if t <= 0 {
			t = 2
		}
		for i := 0; i < t; i++ {
			drawRect(out, r.Inset(i), o.Color)
		}
		if o.Label != "" {
			drawLabel(out, r, o.Label, color.RGBA{255, 255, 255, 255}, o.Color)
		}
	}
	return out
}

// SavePreview writes a preview image as PNG.
func SavePreview(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

// drawLabel writes text in a filled box just above r, or just below it when
// r touches the top of the image.
func drawLabel(img *image.RGBA, r image.Rectangle, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	top := r.Min.Y - face.Height
	if top < img.Bounds().Min.Y {
		top = r.Max.Y
	}
	width := font.MeasureString(face, text).Ceil() + 2
	box := image.Rect(r.Min.X, top, r.Min.X+width, top+face.Height).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(r.Min.X+1, top+face.Ascent),
	}
	d.DrawString(text)
}
