package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultTrimTolerance is the per-channel difference from the corner colour
// that still counts as border.
const DefaultTrimTolerance = 24

// TrimBorders removes uniform borders around img.
//
// The border colour is taken from the top-left pixel. Every row and column made
// entirely of pixels within tolerance of that colour (per channel, 8-bit) is
// cropped away. An image that is uniform throughout is returned unchanged so
// callers can reject it on their own size/edge checks.
func TrimBorders(img image.Image, tolerance int) image.Image {
	b := img.Bounds()
	if b.Empty() {
		return img
	}

	br, bg, bb, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	border := [3]int{int(br >> 8), int(bg >> 8), int(bb >> 8)}

	isBorder := func(x, y int) bool {
		r, g, bl, _ := img.At(x, y).RGBA()
		return absInt(int(r>>8)-border[0]) <= tolerance &&
			absInt(int(g>>8)-border[1]) <= tolerance &&
			absInt(int(bl>>8)-border[2]) <= tolerance
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isBorder(x, y) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return img
	}

	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1))
}

// ResizeToWidth scales img to the target width, preserving aspect ratio.
// The height is rounded and never drops below one pixel.
func ResizeToWidth(img image.Image, width int) *image.NRGBA {
	b := img.Bounds()
	height := int(float64(b.Dy())*float64(width)/float64(b.Dx()) + 0.5)
	if height < 1 {
		height = 1
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// DownscaleToWidth shrinks img so it is at most maxWidth pixels wide.
// Images already narrower are returned as-is.
func DownscaleToWidth(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

// Grayscale returns a grayscale copy of img.
func Grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// FitWithin shrinks img to fit a maxSize×maxSize box, preserving aspect ratio.
// Smaller images are returned unchanged.
func FitWithin(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}

// ResizeExact scales img to exactly width x height, ignoring aspect ratio.
func ResizeExact(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
