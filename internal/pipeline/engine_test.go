package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/logo-redact/internal/audit"
	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/detection"
	"github.com/ironsheep/logo-redact/internal/document"
	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/geometry"
	"github.com/ironsheep/logo-redact/internal/vision"
)

type memSink struct {
	mu     sync.Mutex
	data   []byte
	writes int
	err    error
}

func (m *memSink) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *memSink) Location() string { return "memory" }

// fakeProber answers every page with result, except pages whose width equals
// failWidth, which fail with err.
type fakeProber struct {
	result    vision.ProbeResult
	failWidth int
	err       error
	onProbe   func()

	mu    sync.Mutex
	calls int
}

func (f *fakeProber) Probe(ctx context.Context, page image.Image, _ []vision.Reference) (vision.ProbeResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onProbe != nil {
		f.onProbe()
		return vision.ProbeResult{}, ctx.Err()
	}
	if f.failWidth > 0 && page.Bounds().Dx() == f.failWidth {
		return vision.ProbeResult{}, f.err
	}
	return f.result, nil
}

func whitePage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// stampFrame draws a 160x60 black frame with a 120x30 hole at (x, y).
func stampFrame(img draw.Image, x, y int) {
	fill(img, image.Rect(x, y, x+160, y+60), color.Black)
	fill(img, image.Rect(x+20, y+15, x+140, y+45), color.White)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// referenceDir holds the frame logo on a padded canvas.
func referenceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	logo := whitePage(200, 80)
	stampFrame(logo, 20, 10)
	writePNG(t, filepath.Join(dir, "frame.png"), logo)
	return dir
}

// bannerProfiles returns a profile set whose "brand" profile carries a solid red banner.
func bannerProfiles(t *testing.T) config.Profiles {
	t.Helper()
	banner := whitePage(400, 40)
	fill(banner, banner.Bounds(), color.RGBA{R: 220, A: 255})
	path := filepath.Join(t.TempDir(), "banner.png")
	writePNG(t, path, banner)

	brand := config.DefaultProfile()
	brand.BannerPath = path
	brand.FillBackground = true
	return config.Profiles{
		config.DefaultFormatKey: config.DefaultProfile(),
		"brand":                 brand,
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Render.Scale = 1
	cfg.ReferenceDir = referenceDir(t)
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, profiles config.Profiles, prober detection.Prober) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, profiles, prober)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func rasterDoc(pages ...image.Image) *document.Raster {
	return document.NewRaster(pages)
}

func TestRun_NoLogoNeedsReview(t *testing.T) {
	e := newEngine(t, testConfig(t), nil, nil)
	out, auditOut := &memSink{}, &memSink{}

	res, err := e.Run(context.Background(), Request{
		Document: rasterDoc(whitePage(400, 500)),
		Output:   out,
		Audit:    auditOut,
		Settings: DefaultSettings(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := res.Audit.Summary
	if s.Removed != 0 || s.Review != 0 || s.None != 1 {
		t.Errorf("summary = %+v, want one none", s)
	}
	if s.StatusHint != audit.StatusNeedsReview || !res.HasReview {
		t.Errorf("statusHint = %q, hasReview = %v; want needs_review", s.StatusHint, res.HasReview)
	}
	if res.PagesTotal != 1 || res.PagesProcessed != 1 || res.Progress != 100 {
		t.Errorf("result = %+v", res)
	}
	if out.writes != 1 || !bytes.HasPrefix(out.data, []byte("%PDF")) {
		t.Errorf("output not written as PDF (writes=%d)", out.writes)
	}
	if auditOut.writes != 1 || !bytes.Contains(auditOut.data, []byte(`"statusHint": "needs_review"`)) {
		t.Errorf("audit not written: %s", auditOut.data)
	}
}

func TestRun_DeterministicRemovesLogo(t *testing.T) {
	cfg := testConfig(t)
	cfg.Templates.Widths = []int{160}
	e := newEngine(t, cfg, nil, nil)

	page := whitePage(800, 1000)
	stampFrame(page, 550, 800)
	doc := rasterDoc(page)

	settings := DefaultSettings()
	settings.AutoThreshold = 0.6
	settings.ReviewThreshold = 0.4

	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec := res.Audit.Pages[0]
	if rec.Action != audit.ActionRemoved || rec.Strategy != StrategySolidFill {
		t.Fatalf("record = %+v, want removed by solid fill", rec)
	}
	if rec.PixelBBox == nil || *rec.PixelBBox != (geometry.PixelBox{X: 550, Y: 800, Width: 160, Height: 60}) {
		t.Errorf("PixelBBox = %+v", rec.PixelBBox)
	}
	if rec.FillColor != "#ffffff" {
		t.Errorf("FillColor = %q, want sampled white", rec.FillColor)
	}
	if res.RemovedCount != 1 || res.HasReview || res.StatusHint != audit.StatusCompleted {
		t.Errorf("result = %+v", res)
	}

	redacted, _ := renderedPage(doc, 1)
	if r, g, b, _ := redacted.At(555, 805).RGBA(); r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("logo pixel still dark after redaction: (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestRun_ReviewLeavesPageUntouched(t *testing.T) {
	cfg := testConfig(t)
	cfg.Templates.Widths = []int{160}
	e := newEngine(t, cfg, nil, nil)

	page := whitePage(800, 1000)
	stampFrame(page, 550, 800)
	doc := rasterDoc(page)

	settings := DefaultSettings()
	settings.AutoThreshold = 0.95
	settings.ReviewThreshold = 0.4

	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Audit.Pages[0].Action; got != audit.ActionReview {
		t.Fatalf("action = %q, want review", got)
	}
	if !res.HasReview || res.ReviewCount != 1 {
		t.Errorf("result = %+v", res)
	}
	redacted, _ := renderedPage(doc, 1)
	if r, _, _, _ := redacted.At(555, 805).RGBA(); r>>8 > 10 {
		t.Errorf("review page was modified")
	}
}

func TestRun_ForceFooterBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Scale = 1
	cfg.ReferenceDir = filepath.Join(t.TempDir(), "unused")
	e := newEngine(t, cfg, bannerProfiles(t), nil)

	doc := rasterDoc(whitePage(400, 500), whitePage(400, 500), whitePage(400, 500))
	settings := DefaultSettings()
	settings.FormatKey = "brand"
	settings.ForceFooterBanner = true

	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, rec := range res.Audit.Pages {
		if rec.Action != audit.ActionReplacedFooterBanner {
			t.Errorf("page %d action = %q", rec.Page, rec.Action)
		}
	}
	s := res.Audit.Summary
	if s.Removed != 3 || s.Review != 0 || s.StatusHint != audit.StatusCompleted {
		t.Errorf("summary = %+v, want 3 removed and completed", s)
	}
	if res.Audit.Detector != "force-footer-banner" {
		t.Errorf("detector = %q", res.Audit.Detector)
	}

	for p := 1; p <= 3; p++ {
		img, _ := renderedPage(doc, p)
		r, g, _, _ := img.At(200, 475).RGBA()
		if r>>8 < 180 || g>>8 > 60 {
			t.Errorf("page %d footer pixel = (%d,%d), want banner red", p, r>>8, g>>8)
		}
		if r, g, _, _ := img.At(200, 200).RGBA(); r>>8 != 255 || g>>8 != 255 {
			t.Errorf("page %d body was modified", p)
		}
	}
}

func TestRun_ForceFooterBannerRequiresBanner(t *testing.T) {
	e := newEngine(t, testConfig(t), nil, nil)
	settings := DefaultSettings()
	settings.ForceFooterBanner = true

	_, err := e.Run(context.Background(), Request{Document: rasterDoc(whitePage(10, 10)), Output: &memSink{}, Settings: settings})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("Run() error = %v, want validation", err)
	}
}

func TestRun_AIProbeNotFound(t *testing.T) {
	prober := &fakeProber{result: vision.ProbeResult{
		Found:       false,
		Raw:         `{"found": false, "confidence": 0.1}`,
		ParseStatus: vision.StatusParsed,
		Candidates:  1,
	}}
	e := newEngine(t, testConfig(t), nil, prober)

	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe

	res, err := e.Run(context.Background(), Request{Document: rasterDoc(whitePage(400, 500)), Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := res.Audit.Pages[0]
	if rec.Action != audit.ActionNone {
		t.Errorf("action = %q, want none", rec.Action)
	}
	if rec.AIProbe == nil || rec.AIProbe.Found {
		t.Errorf("aiProbe = %+v, want found=false recorded", rec.AIProbe)
	}
	if res.Audit.Detector != string(detection.ModeAIProbe) {
		t.Errorf("detector = %q", res.Audit.Detector)
	}
}

func TestRun_AIProbeReplacesFooterSlot(t *testing.T) {
	prober := &fakeProber{result: vision.ProbeResult{Found: true, Confidence: 0.93, ParseStatus: vision.StatusParsed}}
	e := newEngine(t, testConfig(t), bannerProfiles(t), prober)

	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe
	settings.FormatKey = "brand"

	res, err := e.Run(context.Background(), Request{Document: rasterDoc(whitePage(400, 500)), Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := res.Audit.Pages[0]
	if rec.Action != audit.ActionReplacedFooterBanner || rec.Strategy != StrategyBanner {
		t.Fatalf("record = %+v", rec)
	}
	if rec.DocumentRect == nil || *rec.DocumentRect != (geometry.Rect{X: 0, Y: 0, Width: 400, Height: 50}) {
		t.Errorf("DocumentRect = %+v, want the footer slot", rec.DocumentRect)
	}
}

// footerBlue is the default footer band colour.
var footerBlue = color.RGBA{R: 0x0B, G: 0x3D, B: 0x91, A: 255}

// bandPage is a white 400x500 page with a footer-coloured bar on rows 380..429,
// well above the bottom footerRatio slot.
func bandPage() *image.NRGBA {
	page := whitePage(400, 500)
	fill(page, image.Rect(0, 380, 400, 430), footerBlue)
	return page
}

func TestRun_FooterBandIsBannerSlot(t *testing.T) {
	prober := &fakeProber{result: vision.ProbeResult{Found: true, Confidence: 0.93, ParseStatus: vision.StatusParsed}}
	e := newEngine(t, testConfig(t), bannerProfiles(t), prober)

	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe
	settings.FormatKey = "brand"

	doc := rasterDoc(bandPage())
	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := res.Audit.Pages[0]
	if rec.FooterBand == nil || rec.FooterBand.Y0 != 380 || rec.FooterBand.Y1 != 430 {
		t.Fatalf("FooterBand = %+v, want rows 380..430", rec.FooterBand)
	}
	// Rows 380..429 of a 500-row page sit 70..120 points above the bottom.
	if rec.DocumentRect == nil || *rec.DocumentRect != (geometry.Rect{X: 0, Y: 70, Width: 400, Height: 50}) {
		t.Errorf("DocumentRect = %+v, want the footer band", rec.DocumentRect)
	}

	img, _ := renderedPage(doc, 1)
	if r, g, b, _ := img.At(200, 405).RGBA(); r>>8 < 180 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("band pixel = (%d,%d,%d), want banner red", r>>8, g>>8, b>>8)
	}
}

func TestRun_ForceFooterBannerUsesFooterBand(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Scale = 1
	cfg.ReferenceDir = filepath.Join(t.TempDir(), "unused")
	e := newEngine(t, cfg, bannerProfiles(t), nil)

	settings := DefaultSettings()
	settings.FormatKey = "brand"
	settings.ForceFooterBanner = true

	doc := rasterDoc(bandPage(), whitePage(400, 500))
	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[int]geometry.Rect{
		1: {X: 0, Y: 70, Width: 400, Height: 50},
		2: {X: 0, Y: 0, Width: 400, Height: 50},
	}
	for _, rec := range res.Audit.Pages {
		if rec.DocumentRect == nil || *rec.DocumentRect != want[rec.Page] {
			t.Errorf("page %d DocumentRect = %+v, want %+v", rec.Page, rec.DocumentRect, want[rec.Page])
		}
	}
}

func TestRun_AICutFillsBox(t *testing.T) {
	box := &geometry.NormBox{X: 0.6, Y: 0.85, Width: 0.2, Height: 0.08}
	prober := &fakeProber{result: vision.ProbeResult{Found: true, Confidence: 0.9, BBox: box}}
	e := newEngine(t, testConfig(t), nil, prober)

	page := whitePage(400, 500)
	fill(page, image.Rect(240, 425, 320, 465), color.Black)
	doc := rasterDoc(page)

	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAICut
	settings.FillStrategy = FillBrand

	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := res.Audit.Pages[0]
	if rec.Action != audit.ActionRemoved || rec.FillColor != "#ffffff" {
		t.Fatalf("record = %+v", rec)
	}
	want := geometry.PixelBox{X: 240, Y: 425, Width: 80, Height: 40}
	if rec.PixelBBox == nil || *rec.PixelBBox != want {
		t.Errorf("PixelBBox = %+v, want %+v", rec.PixelBBox, want)
	}
	img, _ := renderedPage(doc, 1)
	if r, _, _, _ := img.At(280, 445).RGBA(); r>>8 < 240 {
		t.Errorf("box not filled")
	}
}

func TestRun_PageFailurePolicy(t *testing.T) {
	classifierErr := apperrors.NewClassifierError(0, "classifier returned 503", nil)
	pages := func() *document.Raster {
		return rasterDoc(whitePage(400, 500), whitePage(410, 500), whitePage(400, 500))
	}

	t.Run("abort", func(t *testing.T) {
		prober := &fakeProber{failWidth: 410, err: classifierErr}
		e := newEngine(t, testConfig(t), nil, prober)
		out := &memSink{}
		settings := DefaultSettings()
		settings.DetectorMode = detection.ModeAIProbe

		_, err := e.Run(context.Background(), Request{Document: pages(), Output: out, Settings: settings})
		if !apperrors.IsKind(err, apperrors.KindClassifier) {
			t.Fatalf("Run() error = %v, want classifier", err)
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Page != 2 {
			t.Errorf("error page = %d, want 2", appErr.Page)
		}
		if out.writes != 0 {
			t.Error("output written for a failed job")
		}
	})

	t.Run("degrade", func(t *testing.T) {
		prober := &fakeProber{failWidth: 410, err: classifierErr}
		e := newEngine(t, testConfig(t), nil, prober)
		settings := DefaultSettings()
		settings.DetectorMode = detection.ModeAIProbe
		settings.PageFailurePolicy = PolicyDegrade

		res, err := e.Run(context.Background(), Request{Document: pages(), Output: &memSink{}, Settings: settings})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(res.Audit.Pages) != 3 {
			t.Fatalf("got %d records, want 3", len(res.Audit.Pages))
		}
		failed := res.Audit.Pages[1]
		if failed.Page != 2 || failed.Action != audit.ActionNone || failed.Error == "" {
			t.Errorf("page 2 record = %+v, want none with error", failed)
		}
		if res.Audit.Summary.None != 3 {
			t.Errorf("summary = %+v", res.Audit.Summary)
		}
	})
}

func TestRun_CancelledWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	prober := &fakeProber{onProbe: cancel}
	e := newEngine(t, testConfig(t), nil, prober)

	out, auditOut := &memSink{}, &memSink{}
	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe
	settings.PageFailurePolicy = PolicyDegrade

	_, err := e.Run(ctx, Request{
		Document: rasterDoc(whitePage(400, 500), whitePage(400, 500)),
		Output:   out,
		Audit:    auditOut,
		Settings: settings,
	})
	if !apperrors.IsKind(err, apperrors.KindCancelled) {
		t.Fatalf("Run() error = %v, want cancelled", err)
	}
	if out.writes != 0 || auditOut.writes != 0 {
		t.Error("sinks written for a cancelled job")
	}
}

func TestRun_AuditFailureWritesNoOutput(t *testing.T) {
	e := newEngine(t, testConfig(t), nil, nil)
	out := &memSink{}
	auditOut := &memSink{err: apperrors.NewIOError("disk full", nil)}

	_, err := e.Run(context.Background(), Request{
		Document: rasterDoc(whitePage(400, 500)),
		Output:   out,
		Audit:    auditOut,
		Settings: DefaultSettings(),
	})
	if !apperrors.IsKind(err, apperrors.KindIO) {
		t.Fatalf("Run() error = %v, want IO", err)
	}
	if out.writes != 0 || len(out.data) != 0 {
		t.Error("output written although the audit failed")
	}
}

func TestRun_ConfigurationErrorBeforePages(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReferenceDir = filepath.Join(t.TempDir(), "missing")
	prober := &fakeProber{}
	e := newEngine(t, cfg, nil, prober)

	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe
	_, err := e.Run(context.Background(), Request{Document: rasterDoc(whitePage(10, 10)), Output: &memSink{}, Settings: settings})
	if !apperrors.IsKind(err, apperrors.KindConfiguration) {
		t.Fatalf("Run() error = %v, want configuration", err)
	}
	if prober.calls != 0 {
		t.Errorf("classifier called %d times before configuration check", prober.calls)
	}
}

func TestRun_AIModeWithoutClassifier(t *testing.T) {
	e := newEngine(t, testConfig(t), nil, nil)
	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAICut
	_, err := e.Run(context.Background(), Request{Document: rasterDoc(whitePage(10, 10)), Output: &memSink{}, Settings: settings})
	if !apperrors.IsKind(err, apperrors.KindConfiguration) {
		t.Errorf("Run() error = %v, want configuration", err)
	}
}

func TestRun_PageSelection(t *testing.T) {
	prober := &fakeProber{result: vision.ProbeResult{}}
	e := newEngine(t, testConfig(t), nil, prober)
	settings := DefaultSettings()
	settings.DetectorMode = detection.ModeAIProbe
	settings.Pages = []int{2}

	doc := rasterDoc(whitePage(400, 500), whitePage(400, 500), whitePage(400, 500))
	res, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := res.Audit.Summary
	if s.TotalPages != 1 || s.TotalPagesInPDF != 3 || res.Audit.Pages[0].Page != 2 {
		t.Errorf("summary = %+v, pages = %+v", s, res.Audit.Pages)
	}

	settings.Pages = []int{4}
	if _, err := e.Run(context.Background(), Request{Document: doc, Output: &memSink{}, Settings: settings}); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("out-of-range page error = %v, want validation", err)
	}
}

func TestRun_DebugPreview(t *testing.T) {
	cfg := testConfig(t)
	cfg.Templates.Widths = []int{160}
	cfg.DebugDir = filepath.Join(t.TempDir(), "previews")
	e := newEngine(t, cfg, nil, nil)

	page := whitePage(800, 1000)
	stampFrame(page, 550, 800)
	settings := DefaultSettings()
	settings.DebugPreview = true

	res, err := e.Run(context.Background(), Request{Document: rasterDoc(page), Output: &memSink{}, Settings: settings})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	rec := res.Audit.Pages[0]
	if rec.PreviewPath == "" {
		t.Fatal("no preview recorded")
	}
	if _, err := os.Stat(rec.PreviewPath); err != nil {
		t.Errorf("preview file missing: %v", err)
	}
	if rec.PixelBBox == nil {
		t.Fatalf("no match recorded: %+v", rec)
	}
	if rec.PreviewRect == nil || *rec.PreviewRect != *rec.PixelBBox {
		t.Errorf("PreviewRect = %+v, want the match box %+v", rec.PreviewRect, rec.PixelBBox)
	}
}

func TestDetect_DoesNotRedact(t *testing.T) {
	cfg := testConfig(t)
	cfg.Templates.Widths = []int{160}
	e := newEngine(t, cfg, nil, nil)

	page := whitePage(800, 1000)
	stampFrame(page, 550, 800)
	var input bytes.Buffer
	if err := png.Encode(&input, page); err != nil {
		t.Fatal(err)
	}

	settings := DefaultSettings()
	settings.AutoThreshold = 0.6
	settings.ReviewThreshold = 0.4

	report, err := e.Detect(context.Background(), input.Bytes(), settings)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(report.Pages) != 1 || report.Pages[0].Action != audit.ActionRemoved {
		t.Fatalf("pages = %+v", report.Pages)
	}
	if report.Pages[0].DocumentRect == nil {
		t.Error("planned rectangle missing")
	}
	if report.OverlayNote == "" || report.JobID == "" {
		t.Errorf("report = %+v", report)
	}
}

// renderedPage returns page at its native size, overlays included.
func renderedPage(doc document.Document, page int) (image.Image, error) {
	size, err := doc.PageSize(page)
	if err != nil {
		return nil, err
	}
	return doc.Render(context.Background(), page, int(size.Width), int(size.Height))
}
