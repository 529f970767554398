// Package pipeline runs redaction jobs: it renders every page, finds the
// logo, decides what to do about it and composites the redactions.
//
// A job runs in two phases. Pages are analyzed concurrently by a bounded
// worker pool (rasterize, locate the footer band, resolve the search zone,
// detect, decide). Redactions are then applied to the document strictly in
// page order, so the shared document is only ever mutated by one goroutine
// and the audit order is deterministic. Output and audit are rendered into
// memory and handed to their sinks only after every page has succeeded, the
// audit first.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/logo-redact/internal/audit"
	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/detection"
	"github.com/ironsheep/logo-redact/internal/document"
	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/geometry"
	imgutil "github.com/ironsheep/logo-redact/internal/imaging"
	"github.com/ironsheep/logo-redact/internal/redact"
	"github.com/ironsheep/logo-redact/internal/sink"
)

// Redaction strategies recorded in the audit.
const (
	StrategySolidFill = "solid_fill"
	StrategyBanner    = "banner"
)

// Engine runs jobs against one process configuration. It is safe for
// concurrent use; every job gets its own document, detector and recorder.
type Engine struct {
	cfg      *config.Config
	profiles config.Profiles
	prober   detection.Prober
	footer   imgutil.ColorSignature
	banners  *imgutil.ImageCache
}

// NewEngine validates the footer colour signature up front.
//
// Parameters:
//   - cfg: process configuration, usually from config.LoadFromEnv
//   - profiles: format profiles keyed by format key; nil means the built-in
//     default profile only
//   - prober: the vision classifier; nil leaves only the deterministic
//     detector available
//
// # Errors
//
//   - Configuration error when the footer colour cannot be parsed
func NewEngine(cfg *config.Config, profiles config.Profiles, prober detection.Prober) (*Engine, error) {
	sig, err := imgutil.ParseColorSignature(cfg.Footer.Color, cfg.Footer.Tolerance)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid footer colour", err)
	}
	if profiles == nil {
		profiles = config.Profiles{config.DefaultFormatKey: config.DefaultProfile()}
	}
	return &Engine{
		cfg:      cfg,
		profiles: profiles,
		prober:   prober,
		footer:   sig,
		banners:  imgutil.NewImageCache(),
	}, nil
}

// Profiles returns the configured format profiles.
func (e *Engine) Profiles() config.Profiles { return e.profiles }

// Request is one job as handed over by the job driver.
type Request struct {
	// Input is the raw PDF or image. Ignored when Document is set.
	Input []byte
	// Document is an already opened document; the caller keeps ownership.
	Document document.Document
	// Output receives the redacted document. Required.
	Output sink.Sink
	// Audit receives the audit JSON. Optional.
	Audit    sink.Sink
	Settings Settings
}

// Result is what the job driver gets back from a successful run.
type Result struct {
	JobID string `json:"jobId"`
	// PagesTotal counts the selected pages, not the pages in the document.
	PagesTotal     int `json:"pagesTotal"`
	PagesProcessed int `json:"pagesProcessed"`
	// Progress is a percentage; a successful run always reports 100.
	Progress int `json:"progress"`
	// HasReview is set when any page needs a human look, including pages
	// where nothing was found.
	HasReview    bool `json:"hasReview"`
	RemovedCount int  `json:"removedCount"`
	ReviewCount  int  `json:"reviewCount"`
	// StatusHint mirrors the audit summary's statusHint.
	StatusHint string `json:"statusHint"`

	// Audit is the full report also written to Request.Audit.
	Audit audit.Document `json:"-"`
}

// pagePlan is a page's analysis outcome. op is nil when nothing is painted.
type pagePlan struct {
	record audit.PageRecord
	op     *redaction
}

type redaction struct {
	banner bool
	rect   geometry.Rect
	color  colorful.Color
}

// Run processes one job: every selected page is analyzed, the redactions are
// applied in page order, and the redacted document and its audit are written.
//
// Parameters:
//   - ctx: cancels the job; it is checked between pages and before the sinks
//     are written
//   - req: input document, sinks and job settings
//
// Returns the job summary. On any error nothing is written to the sinks; if
// the audit sink fails, the output sink is not written either.
//
// # Errors
//
//   - Validation error for bad settings, a missing output sink or an
//     unreadable input
//   - Configuration error when the detector cannot be built
//   - Page errors according to Settings.PageFailurePolicy
//   - Cancelled error when ctx is done
//   - Whatever the sinks return
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if req.Output == nil {
		return Result{}, apperrors.NewValidationError("no output sink", nil)
	}
	j, err := e.prepare(ctx, req.Input, req.Document, req.Settings)
	if err != nil {
		return Result{}, err
	}
	if req.Document == nil {
		defer j.doc.Close()
	}

	j.log.WithFields(logrus.Fields{
		"pages":       len(j.pages),
		"total_pages": j.doc.PageCount(),
	}).Info("Job started")

	plans, err := e.analyze(ctx, j)
	if err != nil {
		j.log.WithError(err).Error("Job failed during analysis")
		return Result{}, err
	}

	recorder, err := e.apply(ctx, j, plans)
	if err != nil {
		j.log.WithError(err).Error("Job failed during redaction")
		return Result{}, err
	}
	report := e.finish(j, recorder)

	var out bytes.Buffer
	if err := j.doc.Save(&out); err != nil {
		return Result{}, apperrors.NewIOError("cannot save redacted document", err)
	}
	var auditJSON bytes.Buffer
	if err := audit.WriteJSON(&auditJSON, report); err != nil {
		return Result{}, apperrors.NewIOError("cannot encode audit", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, apperrors.NewCancelledError(err)
	}
	// Audit goes first so a failed audit never leaves a redacted output behind.
	if req.Audit != nil {
		if err := req.Audit.Write(ctx, auditJSON.Bytes()); err != nil {
			return Result{}, err
		}
	}
	if err := req.Output.Write(ctx, out.Bytes()); err != nil {
		return Result{}, err
	}

	res := resultFrom(j, report)
	j.log.WithFields(logrus.Fields{
		"removed":     report.Summary.Removed,
		"review":      report.Summary.Review,
		"none":        report.Summary.None,
		"status_hint": report.Summary.StatusHint,
		"output":      req.Output.Location(),
		"duration_ms": time.Since(j.started).Milliseconds(),
	}).Info("Job completed")
	return res, nil
}

// Detect analyzes pages without redacting anything. Records carry the action
// that Run would take. Errors are those of Run, minus the sink failures.
func (e *Engine) Detect(ctx context.Context, input []byte, settings Settings) (audit.Document, error) {
	j, err := e.prepare(ctx, input, nil, settings)
	if err != nil {
		return audit.Document{}, err
	}
	defer j.doc.Close()

	plans, err := e.analyze(ctx, j)
	if err != nil {
		return audit.Document{}, err
	}
	recorder := audit.NewRecorder()
	for _, p := range plans {
		recorder.Add(p.record)
	}
	return e.finish(j, recorder), nil
}

// LoadLibrary builds the template library from the configured reference directory.
func (e *Engine) LoadLibrary(withTemplates bool) (*detection.Library, error) {
	return detection.NewLibrary(e.cfg.ReferenceDir, e.templateOptions(), withTemplates)
}

func (e *Engine) templateOptions() detection.TemplateOptions {
	opts := detection.DefaultTemplateOptions()
	if len(e.cfg.Templates.Widths) > 0 {
		opts.Widths = e.cfg.Templates.Widths
	}
	if e.cfg.Templates.EdgeThreshold > 0 {
		opts.EdgeThreshold = e.cfg.Templates.EdgeThreshold
	}
	return opts
}

// prepare validates settings, opens the document and builds the detector.
// Configuration problems surface here, before any page is touched.
func (e *Engine) prepare(ctx context.Context, input []byte, doc document.Document, settings Settings) (*job, error) {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	profile, err := e.profiles.Lookup(settings.FormatKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid formatKey", err)
	}
	if settings.ForceFooterBanner && !profile.HasBanner() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("forceFooterBanner requires a banner in format profile %q", settings.FormatKey), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCancelledError(err)
	}

	j := newJob(settings, profile)

	if !settings.ForceFooterBanner {
		lib, err := detection.NewLibrary(e.cfg.ReferenceDir, e.templateOptions(), settings.DetectorMode.UsesTemplates())
		if err != nil {
			return nil, err
		}
		det, err := detection.NewDetector(settings.DetectorMode, lib, e.prober,
			e.cfg.Templates.EdgeThreshold, e.cfg.Templates.MatchStep)
		if err != nil {
			return nil, err
		}
		j.detector = det
	}

	owned := doc == nil
	if owned {
		doc, err = document.Open(input, document.PDFOptions{
			Pdftoppm: e.cfg.Render.Pdftoppm,
			Timeout:  e.cfg.Render.Timeout,
		})
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable input document", err)
		}
	}
	pages, err := selectPages(settings.Pages, doc.PageCount())
	if err != nil {
		if owned {
			doc.Close()
		}
		return nil, err
	}
	j.doc = doc
	j.pages = pages
	return j, nil
}

func selectPages(requested []int, count int) ([]int, error) {
	if len(requested) == 0 {
		pages := make([]int, count)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}
	seen := make(map[int]bool, len(requested))
	pages := make([]int, 0, len(requested))
	for _, p := range requested {
		if p < 1 || p > count {
			return nil, apperrors.NewValidationError(fmt.Sprintf("page %d out of range 1..%d", p, count), nil)
		}
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// workers bounds concurrent page analysis. Classifier modes respect the
// external service's rate limit; local matching uses every CPU.
func (e *Engine) workers(j *job) int {
	if j.settings.ForceFooterBanner || j.settings.DetectorMode.UsesTemplates() {
		return runtime.GOMAXPROCS(0)
	}
	return max(1, e.cfg.Vision.Workers)
}

// analyze runs phase one over every selected page. The returned plans are in
// page order regardless of completion order.
func (e *Engine) analyze(ctx context.Context, j *job) ([]pagePlan, error) {
	plans := make([]pagePlan, len(j.pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers(j))
	for i, page := range j.pages {
		i, page := i, page
		g.Go(func() error {
			plan, err := e.planPage(gctx, j, page)
			if err == nil {
				plans[i] = plan
				return nil
			}
			if j.settings.PageFailurePolicy == PolicyDegrade && !apperrors.IsKind(err, apperrors.KindCancelled) {
				j.log.WithError(err).WithField("page", page).Warn("Page failed, recorded as none")
				plans[i] = pagePlan{record: audit.PageRecord{Page: page, Action: audit.ActionNone, Error: err.Error()}}
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewCancelledError(ctx.Err())
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCancelledError(err)
	}
	return plans, nil
}

// planPage analyzes one page. It reads the shared document but never writes it.
func (e *Engine) planPage(ctx context.Context, j *job, page int) (pagePlan, error) {
	size, err := j.doc.PageSize(page)
	if err != nil {
		return pagePlan{}, apperrors.NewRenderError(page, "page size unavailable", err)
	}
	rec := audit.PageRecord{Page: page, Action: audit.ActionNone}

	bmp, err := document.Rasterize(ctx, j.doc, page, e.cfg.Render.Scale)
	if err != nil {
		return pagePlan{}, err
	}
	band := detection.LocateFooterBand(bmp, e.footer, detection.DefaultFooterOptions())
	rec.FooterBand = band

	if j.settings.ForceFooterBanner {
		slot := footerSlot(band, bmp, size, j.profile)
		rec.Plausible = true
		rec.Action = audit.ActionReplacedFooterBanner
		rec.Strategy = StrategyBanner
		rec.DocumentRect = &slot
		return pagePlan{record: rec, op: &redaction{banner: true, rect: slot}}, nil
	}

	zone := detection.ZoneForROI(j.settings.ROI, bmp.Width, bmp.Height, band, j.profile.FooterRatio)
	rec.FooterZone = &zone

	res, err := j.detector.Detect(ctx, bmp, zone)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = apperrors.NewCancelledError(err)
		case apperrors.KindOf(err) == "":
			err = apperrors.NewClassifierError(page, "detection failed", err)
		}
		return pagePlan{}, apperrors.WithPage(err, page)
	}
	rec.Score = res.Score
	rec.MatchedReference = res.Reference
	rec.AIProbe = res.Probe
	rec.PixelBBox = res.BBox
	rec.Plausible = res.Plausible
	rec.WideStrip = res.WideStrip

	bannerSlot := j.profile.HasBanner() && (res.WideStrip || res.Target == detection.TargetFooterSlot)
	rec.Action = Decide(res.Score, res.Plausible, bannerSlot, j.settings.Thresholds())

	target, clamped, ok := targetRect(res, band, bmp, size, j.profile)
	if ok {
		rec.DocumentRect = &target
		rec.GeometryClamped = clamped
	}

	plan := pagePlan{}
	switch rec.Action {
	case audit.ActionRemoved, audit.ActionReplacedFooterBanner:
		if !ok {
			j.log.WithField("page", page).Warn("Positive detection without a target, not redacted")
			rec.Action = audit.ActionNone
			break
		}
		op := &redaction{banner: rec.Action == audit.ActionReplacedFooterBanner, rect: target}
		if op.banner {
			rec.Strategy = StrategyBanner
		} else {
			op.color = e.fillColor(j, bmp, target, size)
			rec.Strategy = StrategySolidFill
			rec.FillColor = op.color.Hex()
		}
		plan.op = op
	}

	if j.settings.DebugPreview && e.cfg.DebugDir != "" {
		path, drawn, err := e.writePreview(j, bmp, page, zone, res)
		if err != nil {
			j.log.WithError(err).WithField("page", page).Warn("Failed to write debug preview")
		} else {
			rec.PreviewPath = path
			rec.PreviewRect = &drawn
		}
	}

	j.log.WithFields(logrus.Fields{
		"page":      page,
		"score":     rec.Score,
		"plausible": rec.Plausible,
		"action":    rec.Action,
		"zone":      zone.Source,
	}).Debug("Page analyzed")

	plan.record = rec
	return plan, nil
}

// targetRect is the document-space rectangle a positive detection redacts.
// The second result reports whether the detected box had to be clamped to the
// page; the third is false when the detection carries no usable target.
func targetRect(res detection.Result, band *detection.Band, bmp *imgutil.PageBitmap, size document.Size, profile config.Profile) (geometry.Rect, bool, bool) {
	if res.Target == detection.TargetFooterSlot {
		return footerSlot(band, bmp, size, profile), false, true
	}
	if res.BBox == nil {
		return geometry.Rect{}, false, false
	}
	r, clamped := geometry.PixelToDocument(*res.BBox, bmp.Width, bmp.Height, size.Width, size.Height)
	return r, clamped, true
}

// footerSlot is where a footer banner is replaced: the located footer band,
// or the bottom footerRatio of the page when no band was found.
func footerSlot(band *detection.Band, bmp *imgutil.PageBitmap, size document.Size, profile config.Profile) geometry.Rect {
	if band != nil {
		return geometry.BandToDocument(band.Y0, band.Y1, bmp.Width, bmp.Height, size.Width, size.Height)
	}
	return geometry.StableFooterRect(size.Width, size.Height, profile.FooterRatio)
}

func (e *Engine) fillColor(j *job, bmp *imgutil.PageBitmap, rect geometry.Rect, size document.Size) colorful.Color {
	if j.settings.FillStrategy == FillBrand {
		if c, err := colorful.Hex(j.profile.BrandColor); err == nil {
			return c
		}
		return imgutil.White
	}
	box := geometry.DocumentToPixel(rect, bmp.Width, bmp.Height, size.Width, size.Height)
	return imgutil.SampleRingColor(bmp.Pix, box.Rectangle(), imgutil.DefaultRingMargin)
}

// writePreview outlines the search zone and the detected box on a copy of the
// page. It returns the file written and the pixel rectangle of the box, or of
// the zone when nothing was found.
func (e *Engine) writePreview(j *job, bmp *imgutil.PageBitmap, page int, zone detection.Zone, res detection.Result) (string, geometry.PixelBox, error) {
	outlines := []imgutil.Outline{{Rect: zone.Rect(), Color: imgutil.ZoneOutlineColor, Thickness: 2}}
	drawn := geometry.FromRectangle(zone.Rect().Intersect(bmp.Bounds()))
	if res.BBox != nil {
		outlines = append(outlines, imgutil.Outline{
			Rect:      res.BBox.Rectangle(),
			Color:     imgutil.MatchOutlineColor,
			Thickness: 3,
			Label:     strings.TrimSpace(fmt.Sprintf("%s %.2f", res.Reference, res.Score)),
		})
		drawn = geometry.FromRectangle(res.BBox.Rectangle().Intersect(bmp.Bounds()))
	}

	if err := os.MkdirAll(e.cfg.DebugDir, 0o755); err != nil {
		return "", geometry.PixelBox{}, err
	}
	path := filepath.Join(e.cfg.DebugDir, fmt.Sprintf("%s-page-%03d.png", j.id, page))
	if err := imgutil.SavePreview(path, imgutil.RenderPreview(bmp, outlines...)); err != nil {
		return "", geometry.PixelBox{}, err
	}
	return path, drawn, nil
}

// apply runs phase two: redactions are painted in page order and every page
// is recorded.
func (e *Engine) apply(ctx context.Context, j *job, plans []pagePlan) (*audit.Recorder, error) {
	comp := redact.NewCompositor(j.doc, e.banners)
	recorder := audit.NewRecorder()

	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewCancelledError(err)
		}
		rec := p.record
		if p.op != nil {
			painted, err := e.paint(comp, j, rec.Page, *p.op)
			if err != nil {
				err = apperrors.WithPage(apperrors.NewIOError("redaction failed", err), rec.Page)
				if j.settings.PageFailurePolicy != PolicyDegrade {
					return nil, err
				}
				j.log.WithError(err).WithField("page", rec.Page).Warn("Redaction failed, recorded as none")
				rec.Action = audit.ActionNone
				rec.Strategy = ""
				rec.FillColor = ""
				rec.Error = err.Error()
			} else {
				rec.DocumentRect = &painted
			}
		}
		recorder.Add(rec)
	}
	return recorder, nil
}

func (e *Engine) paint(comp *redact.Compositor, j *job, page int, op redaction) (geometry.Rect, error) {
	if !op.banner {
		return comp.SolidFill(page, op.rect, op.color)
	}
	bg, err := colorful.Hex(j.profile.BackgroundColor)
	if err != nil {
		bg = imgutil.White
	}
	return comp.ReplaceBanner(page, op.rect, redact.BannerSpec{
		Path:           j.profile.BannerPath,
		Fit:            j.profile.BannerFit,
		FillBackground: j.profile.FillBackground,
		Background:     bg,
		BottomOffset:   j.profile.BottomOffsetPx,
	})
}

func (e *Engine) finish(j *job, recorder *audit.Recorder) audit.Document {
	return recorder.Finish(audit.Document{
		JobID:         j.id,
		Mode:          j.settings.Mode,
		Detector:      j.detectorName(),
		FormatKey:     j.settings.FormatKey,
		FormatProfile: j.profile,
		ProcessedAt:   time.Now().UTC(),
		Thresholds:    j.settings.Thresholds(),
		OverlayNote:   redact.OverlayNote,
	}, j.doc.PageCount())
}

func resultFrom(j *job, report audit.Document) Result {
	s := report.Summary
	return Result{
		JobID:          j.id,
		PagesTotal:     len(j.pages),
		PagesProcessed: len(report.Pages),
		Progress:       100,
		HasReview:      s.NeedsReview(),
		RemovedCount:   s.Removed,
		ReviewCount:    s.Review,
		StatusHint:     s.StatusHint,
		Audit:          report,
	}
}
