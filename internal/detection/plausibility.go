package detection

import "github.com/ironsheep/logo-redact/internal/geometry"

// Plausibility bounds for template matches, as fractions of the page.
const (
	minWidthRatio  = 0.05
	maxWidthRatio  = 0.42
	minHeightRatio = 0.015
	maxHeightRatio = 0.22
)

// PlausibleBox reports whether a matched box has a logo-like size relative to
// its page. It is independent of the match score: a perfect score on a box
// spanning half the page is still rejected.
func PlausibleBox(box geometry.PixelBox, pageW, pageH int) bool {
	if pageW <= 0 || pageH <= 0 {
		return false
	}
	wr := float64(box.Width) / float64(pageW)
	hr := float64(box.Height) / float64(pageH)
	return wr >= minWidthRatio && wr <= maxWidthRatio &&
		hr >= minHeightRatio && hr <= maxHeightRatio
}
