// Package audit records what was detected and done on every page of a job.
package audit

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ironsheep/logo-redact/internal/detection"
	"github.com/ironsheep/logo-redact/internal/geometry"
	"github.com/ironsheep/logo-redact/internal/vision"
)

// Action is the outcome recorded for a page.
type Action string

const (
	ActionNone                 Action = "none"
	ActionRemoved              Action = "removed"
	ActionReplacedFooterBanner Action = "replaced_footer_banner"
	ActionReview               Action = "review"
)

// Status hints for the job driver.
const (
	StatusCompleted   = "completed"
	StatusNeedsReview = "needs_review"
)

// PageRecord is the audit entry for one page.
type PageRecord struct {
	// Page is 1-based.
	Page int `json:"page"`
	// Score is the detector's confidence in [0,1].
	Score            float64 `json:"score"`
	MatchedReference string  `json:"matchedReference,omitempty"`
	// AIProbe is the classifier's answer, set by classifier-backed detectors.
	AIProbe *vision.ProbeResult `json:"aiProbe,omitempty"`
	// FooterBand is the located footer band in render pixels.
	FooterBand *detection.Band `json:"footerBand,omitempty"`
	// FooterZone is the search zone the detector was given.
	FooterZone *detection.Zone    `json:"footerZone,omitempty"`
	PixelBBox  *geometry.PixelBox `json:"pixelBBox,omitempty"`
	// DocumentRect is the rectangle that was (or would be) painted, in points.
	DocumentRect *geometry.Rect `json:"documentRect,omitempty"`
	// GeometryClamped is set when the detected box had to be pulled inside
	// the page.
	GeometryClamped bool               `json:"geometryClamped,omitempty"`
	PreviewRect     *geometry.PixelBox `json:"previewRect,omitempty"`
	PreviewPath     string             `json:"previewPath,omitempty"`
	Plausible       bool               `json:"plausible"`
	WideStrip       bool               `json:"wideStrip,omitempty"`
	Action          Action             `json:"action"`
	// Strategy is "solid_fill" or "banner" for painted pages.
	Strategy string `json:"strategy,omitempty"`
	// FillColor is the hex colour of a solid fill.
	FillColor string `json:"fillColor,omitempty"`
	// Error is set on pages that failed under the degrade policy.
	Error string `json:"error,omitempty"`
}

// Thresholds are the decision thresholds of a job.
type Thresholds struct {
	AutoThreshold   float64 `json:"autoThreshold"`
	ReviewThreshold float64 `json:"reviewThreshold"`
}

// Summary aggregates page actions. Banner replacements count as removed.
type Summary struct {
	TotalPages      int    `json:"totalPages"`
	TotalPagesInPDF int    `json:"totalPagesInPdf"`
	Removed         int    `json:"removed"`
	Review          int    `json:"review"`
	None            int    `json:"none"`
	StatusHint      string `json:"statusHint"`
}

// NeedsReview reports whether a person should look at the output: any page
// flagged for review, or nothing removed at all.
func (s Summary) NeedsReview() bool {
	return s.StatusHint == StatusNeedsReview
}

// Document is the persisted audit for one job.
type Document struct {
	JobID string `json:"jobId"`
	// Mode is the requested detector mode; Detector is what actually ran,
	// which differs when footer banners are forced.
	Mode     string `json:"mode"`
	Detector string `json:"detector"`
	// FormatKey and FormatProfile identify the profile the job resolved to.
	FormatKey     string     `json:"formatKey"`
	FormatProfile any        `json:"formatProfile"`
	ProcessedAt   time.Time  `json:"processedAt"`
	Thresholds    Thresholds `json:"thresholds"`
	// OverlayNote states that the original content remains beneath the
	// overlays.
	OverlayNote string       `json:"overlayNote"`
	Pages       []PageRecord `json:"pages"`
	Summary     Summary      `json:"summary"`
}

// Summarize counts actions over records. totalInPDF is the page count of the
// whole input, which may exceed the processed pages.
func Summarize(records []PageRecord, totalInPDF int) Summary {
	s := Summary{TotalPages: len(records), TotalPagesInPDF: totalInPDF}
	for _, r := range records {
		switch r.Action {
		case ActionRemoved, ActionReplacedFooterBanner:
			s.Removed++
		case ActionReview:
			s.Review++
		default:
			s.None++
		}
	}
	s.StatusHint = StatusCompleted
	if s.Review > 0 || s.Removed == 0 {
		s.StatusHint = StatusNeedsReview
	}
	return s
}

// Recorder collects page records. Add is safe for concurrent use; Records
// always returns them ordered by page.
type Recorder struct {
	mu      sync.Mutex
	records []PageRecord
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends a page record.
func (r *Recorder) Add(rec PageRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns a page-ordered copy of the records.
func (r *Recorder) Records() []PageRecord {
	r.mu.Lock()
	out := make([]PageRecord, len(r.records))
	copy(out, r.records)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

// Finish builds the job document with a fresh summary.
func (r *Recorder) Finish(doc Document, totalInPDF int) Document {
	doc.Pages = r.Records()
	doc.Summary = Summarize(doc.Pages, totalInPDF)
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
