package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// DefaultEdgeThreshold is the gradient sum above which a pixel counts as an edge.
const DefaultEdgeThreshold = 40

// EdgeMap is a binary per-pixel map of sharp intensity transitions.
//
// Bits is row-major with one byte per pixel (1 = edge, 0 = not an edge) so the
// matcher can index it without bounds arithmetic on bit offsets.
type EdgeMap struct {
	Width  int
	Height int
	Bits   []uint8
}

// NewEdgeMap allocates an empty edge map.
func NewEdgeMap(width, height int) *EdgeMap {
	return &EdgeMap{
		Width:  width,
		Height: height,
		Bits:   make([]uint8, width*height),
	}
}

// At reports whether (x, y) is an edge pixel. Out-of-range coordinates are not edges.
func (e *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return false
	}
	return e.Bits[y*e.Width+x] != 0
}

// Set marks (x, y) as an edge pixel.
func (e *EdgeMap) Set(x, y int) {
	e.Bits[y*e.Width+x] = 1
}

// Count returns the number of edge pixels.
func (e *EdgeMap) Count() int {
	n := 0
	for _, b := range e.Bits {
		n += int(b)
	}
	return n
}

// ComputeEdgeMap derives an edge map from img.
//
// The image is converted to grayscale with BT.601 luma weights, then for every
// pixel the absolute forward differences to its right and lower neighbours
// are summed:
//
//	g = |I(x+1,y) - I(x,y)| + |I(x,y+1) - I(x,y)|
//
// A pixel is an edge when g exceeds threshold. The last column and row only
// have one neighbour each and use that single difference.
//
// Edges are a shape signature that survives recolouring of a logo, which is
// why the matcher works on them instead of raw intensities.
//
// Parameters:
//   - img: source image; any bounds origin is accepted
//   - threshold: gradient sum a pixel must exceed to count as an edge
//
// Returns an edge map with the same width and height as img, anchored at (0,0).
func ComputeEdgeMap(img image.Image, threshold int) *EdgeMap {
	gray := luma(img)
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	edges := NewEdgeMap(width, height)

	for y := 0; y < height; y++ {
		row := gray[y*width : (y+1)*width]
		var below []uint8
		if y+1 < height {
			below = gray[(y+1)*width : (y+2)*width]
		}
		for x := 0; x < width; x++ {
			c := int(row[x])
			g := 0
			if x+1 < width {
				g += absInt(int(row[x+1]) - c)
			}
			if below != nil {
				g += absInt(int(below[x]) - c)
			}
			if g > threshold {
				edges.Bits[y*width+x] = 1
			}
		}
	}

	return edges
}

// luma returns one intensity byte per pixel of img, row-major.
//
// bild returns the grayscale image as RGBA with equal colour channels, so the
// red channel of each pixel is its intensity.
func luma(img image.Image) []uint8 {
	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	b := gray.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, gray.Pix[gray.PixOffset(x, y)])
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
