package detection

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var footerBlue = color.RGBA{R: 0x0B, G: 0x3D, B: 0x91, A: 255}

// newPage creates a white RGBA page.
func newPage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// frameLogo is a 160x60 black frame with a 120x30 white hole, placed at
// (20,10) on a 200x80 white canvas so border trimming has work to do.
func frameLogo() *image.RGBA {
	img := newPage(200, 80)
	paint(img, image.Rect(20, 10, 180, 70), color.Black)
	paint(img, image.Rect(40, 25, 160, 55), color.White)
	return img
}

// stampFrame draws the trimmed frame logo with its top-left corner at (x, y).
func stampFrame(img *image.RGBA, x, y int) {
	paint(img, image.Rect(x, y, x+160, y+60), color.Black)
	paint(img, image.Rect(x+20, y+15, x+140, y+45), color.White)
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}
