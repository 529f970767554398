package detection

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
)

func TestLoadReferences(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b-logo.png", frameLogo())
	writePNG(t, dir, "a-logo.png", frameLogo())
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := LoadReferences(dir)
	if err != nil {
		t.Fatalf("LoadReferences() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d references, want 2", len(refs))
	}
	if refs[0].Name != "a-logo" || refs[1].Name != "b-logo" {
		t.Errorf("names = %s, %s; want sorted a-logo, b-logo", refs[0].Name, refs[1].Name)
	}
	b := refs[0].Image.Bounds()
	if b.Dx() != 160 || b.Dy() != 60 {
		t.Errorf("trimmed reference = %dx%d, want 160x60", b.Dx(), b.Dy())
	}
}

func TestLoadReferences_ConfigurationErrors(t *testing.T) {
	empty := t.TempDir()

	onlyText := t.TempDir()
	_ = os.WriteFile(filepath.Join(onlyText, "readme.md"), []byte("x"), 0o644)

	corrupt := t.TempDir()
	_ = os.WriteFile(filepath.Join(corrupt, "broken.png"), []byte("not a png"), 0o644)

	tests := []struct {
		name string
		dir  string
	}{
		{"missing", filepath.Join(empty, "nope")},
		{"empty", empty},
		{"no images", onlyText},
		{"unreadable images", corrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReferences(tt.dir)
			if !apperrors.IsKind(err, apperrors.KindConfiguration) {
				t.Errorf("LoadReferences() error = %v, want configuration error", err)
			}
		})
	}
}

func TestBuildTemplates(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame.png", frameLogo())
	refs, err := LoadReferences(dir)
	if err != nil {
		t.Fatal(err)
	}

	templates, err := BuildTemplates(refs, DefaultTemplateOptions())
	if err != nil {
		t.Fatalf("BuildTemplates() error = %v", err)
	}
	if len(templates) != len(DefaultTemplateWidths) {
		t.Fatalf("got %d templates, want %d", len(templates), len(DefaultTemplateWidths))
	}
	for i, tpl := range templates {
		if tpl.Width != DefaultTemplateWidths[i] {
			t.Errorf("template %d width = %d, want %d", i, tpl.Width, DefaultTemplateWidths[i])
		}
		wantH := int(float64(60)*float64(tpl.Width)/160 + 0.5)
		if tpl.Height != wantH {
			t.Errorf("template %d height = %d, want %d", i, tpl.Height, wantH)
		}
		if tpl.EdgeCount != tpl.Edges.Count() || tpl.EdgeCount < DefaultTemplateOptions().MinEdges {
			t.Errorf("template %d edge count = %d", i, tpl.EdgeCount)
		}
		if tpl.Reference != "frame" {
			t.Errorf("template %d reference = %q", i, tpl.Reference)
		}
	}
}

func TestBuildTemplates_DiscardsDegenerateVariants(t *testing.T) {
	refs := []Reference{{Name: "blank", Image: newPage(120, 40)}}
	_, err := BuildTemplates(refs, DefaultTemplateOptions())
	if !apperrors.IsKind(err, apperrors.KindConfiguration) {
		t.Errorf("BuildTemplates(blank) error = %v, want configuration error", err)
	}

	// A flat 400x30 logo drops below the minimum height at width 90 only.
	flat := newPage(400, 30)
	for x := 0; x < 400; x += 8 {
		paint(flat, image.Rect(x, 0, x+4, 30), color.Black)
	}
	opts := DefaultTemplateOptions()
	opts.MinEdges = 0
	templates, err := BuildTemplates([]Reference{{Name: "flat", Image: flat}}, opts)
	if err != nil {
		t.Fatalf("BuildTemplates(flat) error = %v", err)
	}
	if len(templates) != 4 {
		t.Fatalf("got %d templates, want 4", len(templates))
	}
	for _, tpl := range templates {
		if tpl.Height < opts.MinHeight {
			t.Errorf("kept variant %dx%d below min height", tpl.Width, tpl.Height)
		}
	}
}

func TestNewLibrary_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame.png", frameLogo())

	first, err := NewLibrary(dir, DefaultTemplateOptions(), true)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	second, err := NewLibrary(dir, DefaultTemplateOptions(), true)
	if err != nil {
		t.Fatalf("NewLibrary() second error = %v", err)
	}
	if len(first.Templates) != len(second.Templates) {
		t.Fatalf("template counts differ: %d vs %d", len(first.Templates), len(second.Templates))
	}
	for i := range first.Templates {
		a, b := first.Templates[i], second.Templates[i]
		if a.Width != b.Width || a.Height != b.Height || a.EdgeCount != b.EdgeCount {
			t.Errorf("template %d differs: %dx%d/%d vs %dx%d/%d", i, a.Width, a.Height, a.EdgeCount, b.Width, b.Height, b.EdgeCount)
		}
	}
}

func TestNewLibrary_ReferencesOnly(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame.png", frameLogo())

	lib, err := NewLibrary(dir, DefaultTemplateOptions(), false)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if len(lib.Templates) != 0 {
		t.Errorf("got %d templates, want none", len(lib.Templates))
	}
	if names := lib.ReferenceNames(); len(names) != 1 || names[0] != "frame" {
		t.Errorf("ReferenceNames() = %v", names)
	}
}
