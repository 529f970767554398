package imaging

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// DefaultRingMargin is the width in pixels of the sampling ring around a box.
const DefaultRingMargin = 10

// White is the fill colour used when no usable sample exists.
var White = colorful.Color{R: 1, G: 1, B: 1}

// SampleRingColor estimates a background fill colour for box.
//
// It averages every pixel within margin pixels around box, excluding the box
// interior itself. The ring is clipped to the image bounds. Fully transparent
// pixels are skipped. The result has components in 0..1.
//
// White is returned when img is nil, carries no colour channels (alpha-only
// models), or when the clipped ring contains no usable pixels.
func SampleRingColor(img image.Image, box image.Rectangle, margin int) colorful.Color {
	if img == nil || !hasColorChannels(img) {
		return White
	}
	if margin <= 0 {
		margin = DefaultRingMargin
	}

	bounds := img.Bounds()
	outer := box.Inset(-margin).Intersect(bounds)
	if outer.Empty() {
		return White
	}

	n := outer.Dx() * outer.Dy()
	rs := make([]float64, 0, n)
	gs := make([]float64, 0, n)
	bs := make([]float64, 0, n)

	for y := outer.Min.Y; y < outer.Max.Y; y++ {
		for x := outer.Min.X; x < outer.Max.X; x++ {
			if (image.Point{X: x, Y: y}).In(box) {
				continue
			}
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			// Un-premultiply so translucent pixels don't darken the average
			rs = append(rs, float64(r)/float64(a))
			gs = append(gs, float64(g)/float64(a))
			bs = append(bs, float64(b)/float64(a))
		}
	}

	if len(rs) == 0 {
		return White
	}

	return colorful.Color{
		R: stat.Mean(rs, nil),
		G: stat.Mean(gs, nil),
		B: stat.Mean(bs, nil),
	}.Clamped()
}

func hasColorChannels(img image.Image) bool {
	switch img.(type) {
	case *image.Alpha, *image.Alpha16:
		return false
	}
	return true
}

// ColorSignature describes the colour of a footer band.
//
// A pixel matches when its CIE Lab distance to Color is at most Tolerance.
// Lab distance keeps "same colour, slightly different shade" together far
// better than raw RGB distance does for saturated brand colours.
type ColorSignature struct {
	Color     colorful.Color
	Tolerance float64
}

// ParseColorSignature builds a signature from a "#RRGGBB" hex string.
func ParseColorSignature(hex string, tolerance float64) (ColorSignature, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return ColorSignature{}, fmt.Errorf("invalid footer colour %q: %w", hex, err)
	}
	if tolerance <= 0 {
		return ColorSignature{}, fmt.Errorf("footer colour tolerance must be > 0 (got %v)", tolerance)
	}
	return ColorSignature{Color: c, Tolerance: tolerance}, nil
}

// Matcher returns a predicate for 8-bit RGB triples.
//
// Pages contain few distinct colours, so the predicate memoizes results per
// colour. The returned function is not safe for concurrent use.
func (s ColorSignature) Matcher() func(r, g, b uint8) bool {
	l1, a1, b1 := s.Color.Lab()
	memo := make(map[uint32]bool)
	return func(r, g, b uint8) bool {
		key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		if v, ok := memo[key]; ok {
			return v
		}
		c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		l2, a2, b2 := c.Lab()
		dl, da, db := l1-l2, a1-a2, b1-b2
		v := dl*dl+da*da+db*db <= s.Tolerance*s.Tolerance
		memo[key] = v
		return v
	}
}
