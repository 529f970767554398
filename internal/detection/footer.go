package detection

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/logo-redact/internal/imaging"
)

// Band is a horizontal run of footer-coloured rows in pixel space, [Y0, Y1).
type Band struct {
	// Y0 is the first row of the band.
	Y0 int `json:"y0"`
	// Y1 is one past the last row.
	Y1 int `json:"y1"`
	// AvgRatio is the mean footer-colour ratio of the band's rows.
	AvgRatio float64 `json:"avgRatio"`
	// Score is the ranking value used to pick between bands.
	Score float64 `json:"score"`
}

// Height returns the number of rows in the band.
func (b Band) Height() int { return b.Y1 - b.Y0 }

// FooterOptions tunes the band search.
type FooterOptions struct {
	// StartFraction is where the scan begins, as a fraction of page height.
	StartFraction float64
	// LowRatio is the per-row match ratio above which a row joins a band.
	LowRatio float64
	// EntryRatio must be reached by at least one row of a qualifying band.
	EntryRatio float64
	// MinHeightFraction and MinHeightPx set the minimum band height:
	// max(MinHeightPx, MinHeightFraction*pageHeight).
	MinHeightFraction float64
	MinHeightPx       int
}

// DefaultFooterOptions returns the standard band search settings.
func DefaultFooterOptions() FooterOptions {
	return FooterOptions{
		StartFraction:     0.45,
		LowRatio:          0.35,
		EntryRatio:        0.55,
		MinHeightFraction: 0.012,
		MinHeightPx:       4,
	}
}

// MinBandHeight returns the minimum qualifying band height for a page.
func (o FooterOptions) MinBandHeight(pageHeight int) int {
	h := int(math.Ceil(o.MinHeightFraction * float64(pageHeight)))
	if h < o.MinHeightPx {
		h = o.MinHeightPx
	}
	return h
}

// LocateFooterBand finds the footer band of page, or nil when none qualifies.
//
// Rows from StartFraction of the page height downward are scored by the
// fraction of their pixels matching sig. Contiguous rows above LowRatio form
// a band. Among bands that reach EntryRatio and are at least MinBandHeight
// tall, the one maximizing 0.7*height + 0.3*avgRatio*pageHeight wins, which
// favours tall, consistently coloured bars over thin spikes.
//
// Parameters:
//   - page: the rendered page; nil or empty pages have no band
//   - sig: footer colour and its Lab distance tolerance
//   - opts: scan start, ratio thresholds and minimum height
//
// Returns the winning band with Y1 exclusive, or nil. Ties keep the band
// nearest the top of the scanned region.
func LocateFooterBand(page *imaging.PageBitmap, sig imaging.ColorSignature, opts FooterOptions) *Band {
	if page == nil || page.Width == 0 || page.Height == 0 {
		return nil
	}
	match := sig.Matcher()
	start := int(opts.StartFraction * float64(page.Height))
	minHeight := opts.MinBandHeight(page.Height)

	var best *Band
	var ratios []float64
	peak := 0.0
	bandStart := -1

	closeBand := func(end int) {
		if bandStart < 0 {
			return
		}
		h := end - bandStart
		if h >= minHeight && peak >= opts.EntryRatio {
			avg := stat.Mean(ratios, nil)
			b := Band{
				Y0:       bandStart,
				Y1:       end,
				AvgRatio: avg,
				Score:    0.7*float64(h) + 0.3*avg*float64(page.Height),
			}
			if best == nil || b.Score > best.Score {
				best = &b
			}
		}
		bandStart = -1
		ratios = ratios[:0]
		peak = 0
	}

	for y := start; y < page.Height; y++ {
		ratio := rowRatio(page, y, match)
		if ratio > opts.LowRatio {
			if bandStart < 0 {
				bandStart = y
			}
			ratios = append(ratios, ratio)
			if ratio > peak {
				peak = ratio
			}
			continue
		}
		closeBand(y)
	}
	closeBand(page.Height)

	return best
}

func rowRatio(page *imaging.PageBitmap, y int, match func(r, g, b uint8) bool) float64 {
	n := 0
	for x := 0; x < page.Width; x++ {
		if match(page.RGB(x, y)) {
			n++
		}
	}
	return float64(n) / float64(page.Width)
}
