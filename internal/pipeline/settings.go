package pipeline

import (
	"fmt"
	"strings"

	"github.com/ironsheep/logo-redact/internal/audit"
	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/detection"
	apperrors "github.com/ironsheep/logo-redact/internal/errors"
)

// ModeOverlay is the only redaction mode: redactions are drawn on top of the page.
const ModeOverlay = "overlay"

// FailurePolicy decides what a page-level render or classifier failure does to the job.
type FailurePolicy string

const (
	// PolicyAbort fails the whole job on the first page failure.
	PolicyAbort FailurePolicy = "abort"
	// PolicyDegrade records the failed page with action none and carries on.
	PolicyDegrade FailurePolicy = "degrade"
)

// FillStrategy picks the colour of solid-fill redactions.
type FillStrategy string

const (
	// FillSampled averages a ring of pixels around the target.
	FillSampled FillStrategy = "sampled"
	// FillBrand uses the profile's brand colour.
	FillBrand FillStrategy = "brand"
)

// Settings is the per-job settings record supplied by the job driver.
type Settings struct {
	AutoThreshold   float64        `json:"autoThreshold"`
	ReviewThreshold float64        `json:"reviewThreshold"`
	FormatKey       string         `json:"formatKey"`
	Mode            string         `json:"mode"`
	ROI             detection.ROI  `json:"roi"`
	DetectorMode    detection.Mode `json:"detectorMode"`
	// ForceFooterBanner skips detection and replaces the banner slot on every page.
	ForceFooterBanner bool          `json:"forceFooterBanner"`
	PageFailurePolicy FailurePolicy `json:"pageFailurePolicy"`
	FillStrategy      FillStrategy  `json:"fillStrategy"`
	DebugPreview      bool          `json:"debugPreview"`
	// Pages restricts processing to these 1-based pages; empty means all.
	Pages []int `json:"pages,omitempty"`
}

// DefaultSettings returns the settings used when the driver leaves fields unset.
func DefaultSettings() Settings {
	return Settings{
		AutoThreshold:     0.8,
		ReviewThreshold:   0.5,
		FormatKey:         config.DefaultFormatKey,
		Mode:              ModeOverlay,
		ROI:               detection.ROIAuto,
		DetectorMode:      detection.ModeDeterministic,
		PageFailurePolicy: PolicyAbort,
		FillStrategy:      FillSampled,
	}
}

// Normalize fills empty enum fields with their defaults.
func (s *Settings) Normalize() {
	d := DefaultSettings()
	if s.FormatKey == "" {
		s.FormatKey = d.FormatKey
	}
	if s.Mode == "" {
		s.Mode = d.Mode
	}
	if s.ROI == "" {
		s.ROI = d.ROI
	}
	if s.DetectorMode == "" {
		s.DetectorMode = d.DetectorMode
	}
	if s.PageFailurePolicy == "" {
		s.PageFailurePolicy = d.PageFailurePolicy
	}
	if s.FillStrategy == "" {
		s.FillStrategy = d.FillStrategy
	}
}

// Validate checks the settings. Every failure is a validation error.
func (s Settings) Validate() error {
	if s.AutoThreshold < 0 || s.AutoThreshold > 1 || s.ReviewThreshold < 0 || s.ReviewThreshold > 1 {
		return apperrors.NewValidationError(fmt.Sprintf("thresholds must be within 0..1 (auto=%v, review=%v)",
			s.AutoThreshold, s.ReviewThreshold), nil)
	}
	if s.ReviewThreshold >= s.AutoThreshold {
		return apperrors.NewValidationError(fmt.Sprintf("reviewThreshold (%v) must be below autoThreshold (%v)",
			s.ReviewThreshold, s.AutoThreshold), nil)
	}
	if s.Mode != ModeOverlay {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported mode %q (only %q)", s.Mode, ModeOverlay), nil)
	}
	if _, err := detection.ParseROI(string(s.ROI)); err != nil {
		return apperrors.NewValidationError("invalid roi", err)
	}
	if _, err := detection.ParseMode(string(s.DetectorMode)); err != nil {
		return apperrors.NewValidationError("invalid detectorMode", err)
	}
	switch s.PageFailurePolicy {
	case PolicyAbort, PolicyDegrade:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown pageFailurePolicy %q", s.PageFailurePolicy), nil)
	}
	switch s.FillStrategy {
	case FillSampled, FillBrand:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown fillStrategy %q", s.FillStrategy), nil)
	}
	for _, p := range s.Pages {
		if p < 1 {
			return apperrors.NewValidationError(fmt.Sprintf("page numbers are 1-based (got %d)", p), nil)
		}
	}
	return nil
}

// Thresholds returns the decision thresholds.
func (s Settings) Thresholds() audit.Thresholds {
	return audit.Thresholds{AutoThreshold: s.AutoThreshold, ReviewThreshold: s.ReviewThreshold}
}

// maxPage bounds page numbers accepted from a page list.
const maxPage = 100000

// ParsePages parses a page list such as "1,3-5".
//
// # Errors
//
// Returns an error for malformed entries, page numbers below 1 or above
// 100000, and descending ranges.
func ParsePages(s string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var lo, hi int
		if strings.Contains(part, "-") {
			if _, err := fmt.Sscanf(part, "%d-%d", &lo, &hi); err != nil || lo < 1 || hi < lo {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		} else {
			if _, err := fmt.Sscanf(part, "%d", &lo); err != nil || lo < 1 {
				return nil, fmt.Errorf("invalid page %q", part)
			}
			hi = lo
		}
		if hi > maxPage {
			return nil, fmt.Errorf("page %d exceeds the maximum of %d", hi, maxPage)
		}
		for p := lo; p <= hi; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}
