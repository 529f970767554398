package vision

import "github.com/ironsheep/logo-redact/internal/geometry"

// footerTop is the lowest normalized y at which a footer box may start.
const footerTop = 0.72

// ValidFooterBox reports whether b is shaped like a logo sitting in the footer.
func ValidFooterBox(b geometry.NormBox) bool {
	return b.Y >= footerTop &&
		between(b.Width, 0.06, 0.35) &&
		between(b.Height, 0.02, 0.15)
}

// WideFooterStrip reports whether b spans most of the footer, i.e. the whole
// banner slot rather than a tight logo box.
func WideFooterStrip(b geometry.NormBox) bool {
	return b.Y >= footerTop &&
		b.Width >= 0.55 &&
		between(b.Height, 0.06, 0.2)
}

func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
