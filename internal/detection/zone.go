package detection

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// ROI selects how the search zone is derived for a page.
type ROI string

const (
	// ROIAuto uses the footer band when one is found, else the default zone.
	ROIAuto        ROI = "auto"
	ROIBottomRight ROI = "bottom-right"
	ROIBottom      ROI = "bottom"
	// ROIFooter is the bottom footerRatio of the page.
	ROIFooter ROI = "footer"
	ROIPage   ROI = "page"
)

// ParseROI validates an roi setting. Empty means auto.
func ParseROI(s string) (ROI, error) {
	switch r := ROI(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return ROIAuto, nil
	case ROIAuto, ROIBottomRight, ROIBottom, ROIFooter, ROIPage:
		return r, nil
	}
	return "", fmt.Errorf("unknown roi %q (want auto, bottom-right, bottom, footer or page)", s)
}

// Zone is a search rectangle in pixel space, [X0,X1) x [Y0,Y1).
type Zone struct {
	X0     int    `json:"x0"`
	Y0     int    `json:"y0"`
	X1     int    `json:"x1"`
	Y1     int    `json:"y1"`
	Source string `json:"source"`
}

// Rect returns the zone as an image.Rectangle.
func (z Zone) Rect() image.Rectangle {
	return image.Rect(z.X0, z.Y0, z.X1, z.Y1)
}

// Empty reports whether the zone has no area.
func (z Zone) Empty() bool {
	return z.X1 <= z.X0 || z.Y1 <= z.Y0
}

// DefaultZone is the bottom-right quadrant of a width x height page.
func DefaultZone(width, height int) Zone {
	return Zone{X0: width / 2, Y0: height / 2, X1: width, Y1: height, Source: "default"}
}

// BandZone is the footer band widened upward by one band height, since logos
// often overhang the bar they sit on.
func BandZone(b Band, width, height int) Zone {
	y0 := b.Y0 - b.Height()
	if y0 < 0 {
		y0 = 0
	}
	y1 := b.Y1
	if y1 > height {
		y1 = height
	}
	return Zone{X0: 0, Y0: y0, X1: width, Y1: y1, Source: "footer_band"}
}

// ZoneForROI resolves the search zone for a page. band may be nil.
func ZoneForROI(roi ROI, width, height int, band *Band, footerRatio float64) Zone {
	switch roi {
	case ROIAuto, "":
		if band != nil {
			return BandZone(*band, width, height)
		}
		return DefaultZone(width, height)
	case ROIBottom:
		return Zone{X0: 0, Y0: height / 2, X1: width, Y1: height, Source: "bottom"}
	case ROIFooter:
		h := int(math.Ceil(footerRatio * float64(height)))
		if h < 1 {
			h = 1
		}
		if h > height {
			h = height
		}
		return Zone{X0: 0, Y0: height - h, X1: width, Y1: height, Source: "footer"}
	case ROIPage:
		return Zone{X0: 0, Y0: 0, X1: width, Y1: height, Source: "page"}
	}
	return DefaultZone(width, height)
}
