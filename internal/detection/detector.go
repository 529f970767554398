package detection

import (
	"context"
	"fmt"
	"image"
	"strings"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/geometry"
	"github.com/ironsheep/logo-redact/internal/imaging"
	"github.com/ironsheep/logo-redact/internal/vision"
)

// Mode names a detector variant.
type Mode string

const (
	// ModeDeterministic slides edge templates over the page.
	ModeDeterministic Mode = "deterministic"
	// ModeAIProbe lets the classifier decide presence; the redaction target
	// is the page's banner slot, not the returned box.
	ModeAIProbe Mode = "ai-probe"
	// ModeAICut redacts the classifier's box directly.
	ModeAICut Mode = "ai-cut"
)

// ParseMode validates a detector mode. Empty means deterministic.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeDeterministic, nil
	case ModeDeterministic, ModeAIProbe, ModeAICut:
		return m, nil
	}
	return "", fmt.Errorf("unknown detector mode %q", s)
}

// UsesTemplates reports whether the mode needs a template library.
func (m Mode) UsesTemplates() bool { return m == ModeDeterministic }

// Target says what a positive detection should redact.
type Target string

const (
	// TargetBBox redacts the detected box.
	TargetBBox Target = "bbox"
	// TargetFooterSlot redacts the page's banner slot.
	TargetFooterSlot Target = "footer_slot"
)

// Result is one detector's verdict for a page.
type Result struct {
	MatchResult
	// Plausible is the geometric sanity gate for the detector's path.
	Plausible bool
	// WideStrip marks a box shaped like the whole footer banner.
	WideStrip bool
	// Target is what a positive verdict redacts: the box or the banner slot.
	Target Target
	// Probe is set by classifier-backed detectors.
	Probe *vision.ProbeResult
}

// Detector finds the logo on one page. Implementations are safe for
// concurrent use across pages.
type Detector interface {
	Name() Mode
	Detect(ctx context.Context, page *imaging.PageBitmap, zone Zone) (Result, error)
}

// TemplateDetector matches edge templates inside the search zone.
type TemplateDetector struct {
	templates     []Template
	edgeThreshold int
	step          int
}

// NewTemplateDetector returns a deterministic detector over templates.
func NewTemplateDetector(templates []Template, edgeThreshold, step int) *TemplateDetector {
	if edgeThreshold <= 0 {
		edgeThreshold = imaging.DefaultEdgeThreshold
	}
	if step <= 0 {
		step = DefaultMatchStep
	}
	return &TemplateDetector{templates: templates, edgeThreshold: edgeThreshold, step: step}
}

// Name implements Detector.
func (d *TemplateDetector) Name() Mode { return ModeDeterministic }

// Detect implements Detector.
func (d *TemplateDetector) Detect(ctx context.Context, page *imaging.PageBitmap, zone Zone) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, apperrors.NewCancelledError(err)
	}
	edges := imaging.ComputeEdgeMap(page.Pix, d.edgeThreshold)
	m, err := Match(ctx, edges, d.templates, zone, d.step)
	if err != nil {
		return Result{}, apperrors.NewCancelledError(err)
	}

	res := Result{MatchResult: m, Target: TargetBBox}
	if m.BBox != nil {
		res.Plausible = PlausibleBox(*m.BBox, page.Width, page.Height)
	}
	return res, nil
}

// Prober is the classifier boundary used by ProbeDetector.
type Prober interface {
	Probe(ctx context.Context, page image.Image, refs []vision.Reference) (vision.ProbeResult, error)
}

// ProbeDetector asks an external classifier. The classifier always sees the
// whole page and is told to look in the footer, so the zone is not used.
type ProbeDetector struct {
	prober Prober
	refs   []vision.Reference
	mode   Mode
}

// NewProbeDetector encodes refs once for the lifetime of the detector.
// mode must be ModeAIProbe or ModeAICut.
func NewProbeDetector(prober Prober, refs []Reference, mode Mode) (*ProbeDetector, error) {
	if mode != ModeAIProbe && mode != ModeAICut {
		return nil, fmt.Errorf("probe detector does not support mode %q", mode)
	}
	encoded := make([]vision.Reference, 0, len(refs))
	for _, r := range refs {
		e, err := vision.EncodeReference(r.Name, r.Image)
		if err != nil {
			return nil, apperrors.NewConfigurationError("cannot encode reference "+r.Name, err)
		}
		encoded = append(encoded, e)
	}
	return &ProbeDetector{prober: prober, refs: encoded, mode: mode}, nil
}

// Name implements Detector.
func (d *ProbeDetector) Name() Mode { return d.mode }

// Detect implements Detector.
//
// The score is the classifier's confidence when it reports the mark, else 0.
// A returned box is plausible when it is a valid footer box or a wide footer
// strip. In ai-probe mode a positive answer without a box is still plausible,
// since the redaction target is the banner slot.
func (d *ProbeDetector) Detect(ctx context.Context, page *imaging.PageBitmap, _ Zone) (Result, error) {
	probe, err := d.prober.Probe(ctx, page.Pix, d.refs)
	if err != nil {
		return Result{}, err
	}

	res := Result{Probe: &probe, Target: TargetBBox}
	if d.mode == ModeAIProbe {
		res.Target = TargetFooterSlot
	}
	if !probe.Found {
		return res, nil
	}

	res.Score = probe.Confidence
	res.Reference = probe.MatchedReference
	if probe.BBox == nil {
		res.Plausible = d.mode == ModeAIProbe
		return res, nil
	}

	box := geometry.NormToPixel(*probe.BBox, page.Width, page.Height)
	res.BBox = &box
	res.WideStrip = vision.WideFooterStrip(*probe.BBox)
	res.Plausible = vision.ValidFooterBox(*probe.BBox) || res.WideStrip
	return res, nil
}

// NewDetector builds the detector for mode.
//
// Parameters:
//   - mode: one of ModeDeterministic, ModeAIProbe or ModeAICut
//   - lib: must carry templates for the deterministic mode; the classifier
//     modes send its references along with every page
//   - prober: the classifier, required for the classifier modes
//   - edgeThreshold, step: deterministic matcher settings; zero values use
//     the defaults
//
// # Errors
//
//   - Configuration error when lib has no templates in deterministic mode
//   - Configuration error when a classifier mode has no prober or a reference
//     cannot be encoded
//   - Validation error for an unknown mode
func NewDetector(mode Mode, lib *Library, prober Prober, edgeThreshold, step int) (Detector, error) {
	switch mode {
	case ModeDeterministic:
		if lib == nil || len(lib.Templates) == 0 {
			return nil, apperrors.NewConfigurationError("deterministic detection requires a template library", nil)
		}
		return NewTemplateDetector(lib.Templates, edgeThreshold, step), nil
	case ModeAIProbe, ModeAICut:
		if prober == nil {
			return nil, apperrors.NewConfigurationError("detector mode "+string(mode)+" requires a vision classifier", nil)
		}
		var refs []Reference
		if lib != nil {
			refs = lib.References
		}
		d, err := NewProbeDetector(prober, refs, mode)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, apperrors.NewValidationError("unknown detector mode "+string(mode), nil)
}
