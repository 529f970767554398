package detection

import (
	"context"

	"github.com/ironsheep/logo-redact/internal/geometry"
	"github.com/ironsheep/logo-redact/internal/imaging"
)

// DefaultMatchStep is the window stride in pixels along both axes.
const DefaultMatchStep = 3

// Score weights. Missing template edges cost more than stray page edges, so
// a full-shape match outranks a partial overlap on busy content.
const (
	falsePositiveWeight = 0.65
	falseNegativeWeight = 1.25
)

// MatchResult is the best template placement found on a page.
type MatchResult struct {
	// Score is the match confidence in [0,1].
	Score float64 `json:"score"`
	// BBox is the matched window in page pixels, nil when nothing matched.
	BBox *geometry.PixelBox `json:"bbox,omitempty"`
	// Reference names the reference image the winning template came from.
	Reference string `json:"reference,omitempty"`
}

// Match slides every template over edges inside zone and returns the single
// best placement. At each window position
//
//	score = tp / (tp + 0.65*fp + 1.25*fn)
//
// where tp counts edge pixels shared by window and template, fp edge pixels in
// the window absent from the template, and fn template edges absent from the
// window.
//
// Parameters:
//   - ctx: cancels the scan between templates
//   - edges: binary edge map of the rendered page
//   - templates: candidate templates; ones larger than the zone are skipped
//   - zone: search window in page pixels; an empty zone means the
//     bottom-right quadrant, and the zone is clipped to the page
//   - step: window stride in pixels; values <= 0 use DefaultMatchStep
//
// Returns the best placement. With nothing scoring above zero the result has
// score 0 and no box. Ties keep the earliest template and position.
//
// # Errors
//
// ctx is checked before each template; once it is done Match returns
// ctx.Err() and a zero result.
func Match(ctx context.Context, edges *imaging.EdgeMap, templates []Template, zone Zone, step int) (MatchResult, error) {
	if step <= 0 {
		step = DefaultMatchStep
	}
	if zone.Empty() {
		zone = DefaultZone(edges.Width, edges.Height)
	}
	zone = clipZone(zone, edges.Width, edges.Height)

	sat := newSummedArea(edges)
	var best MatchResult

	for i := range templates {
		if err := ctx.Err(); err != nil {
			return MatchResult{}, err
		}
		t := &templates[i]
		if t.Width > zone.X1-zone.X0 || t.Height > zone.Y1-zone.Y0 {
			continue
		}
		scanTemplate(edges, sat, t, zone, step, &best)
	}
	return best, nil
}

// scanTemplate updates best with any placement of t that beats it.
func scanTemplate(edges *imaging.EdgeMap, sat *summedArea, t *Template, zone Zone, step int, best *MatchResult) {
	points := edgePoints(t.Edges)
	total := len(points)

	for y := zone.Y0; y+t.Height <= zone.Y1; y += step {
		for x := zone.X0; x+t.Width <= zone.X1; x += step {
			tp := 0
			for _, p := range points {
				if edges.Bits[(y+p.y)*edges.Width+x+p.x] != 0 {
					tp++
				}
			}
			if tp == 0 {
				continue
			}
			window := sat.sum(x, y, x+t.Width, y+t.Height)
			fp := window - tp
			fn := total - tp
			score := float64(tp) / (float64(tp) + falsePositiveWeight*float64(fp) + falseNegativeWeight*float64(fn))
			if score > best.Score {
				*best = MatchResult{
					Score:     score,
					BBox:      &geometry.PixelBox{X: x, Y: y, Width: t.Width, Height: t.Height},
					Reference: t.Reference,
				}
			}
		}
	}
}

type point struct{ x, y int }

func edgePoints(e *imaging.EdgeMap) []point {
	var pts []point
	for y := 0; y < e.Height; y++ {
		for x := 0; x < e.Width; x++ {
			if e.Bits[y*e.Width+x] != 0 {
				pts = append(pts, point{x, y})
			}
		}
	}
	return pts
}

func clipZone(z Zone, width, height int) Zone {
	z.X0 = max(z.X0, 0)
	z.Y0 = max(z.Y0, 0)
	z.X1 = min(z.X1, width)
	z.Y1 = min(z.Y1, height)
	return z
}

// summedArea answers edge counts over any rectangle in constant time.
type summedArea struct {
	w     int
	table []int // (w+1) x (h+1)
}

func newSummedArea(e *imaging.EdgeMap) *summedArea {
	w1 := e.Width + 1
	s := &summedArea{w: w1, table: make([]int, w1*(e.Height+1))}
	for y := 0; y < e.Height; y++ {
		row := 0
		for x := 0; x < e.Width; x++ {
			row += int(e.Bits[y*e.Width+x])
			s.table[(y+1)*w1+x+1] = s.table[y*w1+x+1] + row
		}
	}
	return s
}

// sum counts edges in [x0,x1) x [y0,y1).
func (s *summedArea) sum(x0, y0, x1, y1 int) int {
	return s.table[y1*s.w+x1] - s.table[y0*s.w+x1] - s.table[y1*s.w+x0] + s.table[y0*s.w+x0]
}
