package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Render.Scale != 1.2 {
		t.Errorf("Render.Scale = %v, want 1.2", cfg.Render.Scale)
	}
	if cfg.Templates.MatchStep != 3 {
		t.Errorf("MatchStep = %d, want 3", cfg.Templates.MatchStep)
	}
	if len(cfg.Templates.Widths) != 5 {
		t.Errorf("Widths = %v, want 5 entries", cfg.Templates.Widths)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LOGO_REDACT_RENDER_SCALE", "2")
	t.Setenv("LOGO_REDACT_TEMPLATE_WIDTHS", "64, 128")
	t.Setenv("LOGO_REDACT_VISION_TIMEOUT", "5s")
	t.Setenv("LOGO_REDACT_VISION_WORKERS", "4")
	t.Setenv("LOGO_REDACT_DEBUG_DIR", "/tmp/previews")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Render.Scale != 2 {
		t.Errorf("Render.Scale = %v, want 2", cfg.Render.Scale)
	}
	if len(cfg.Templates.Widths) != 2 || cfg.Templates.Widths[1] != 128 {
		t.Errorf("Widths = %v, want [64 128]", cfg.Templates.Widths)
	}
	if cfg.Vision.Timeout != 5*time.Second {
		t.Errorf("Vision.Timeout = %v, want 5s", cfg.Vision.Timeout)
	}
	if cfg.Vision.Workers != 4 {
		t.Errorf("Vision.Workers = %d, want 4", cfg.Vision.Workers)
	}
	if cfg.DebugDir != "/tmp/previews" {
		t.Errorf("DebugDir = %q", cfg.DebugDir)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative scale", "LOGO_REDACT_RENDER_SCALE", "-1"},
		{"zero workers", "LOGO_REDACT_VISION_WORKERS", "0"},
		{"bad widths", "LOGO_REDACT_TEMPLATE_WIDTHS", "90,abc"},
		{"blob account without key", "LOGO_REDACT_AZURE_STORAGE_ACCOUNT", "logos"},
		{"zero step", "LOGO_REDACT_MATCH_STEP", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("LoadFromEnv() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

func TestParseWidths(t *testing.T) {
	got, err := ParseWidths("90,120,,150")
	if err != nil {
		t.Fatalf("ParseWidths() error = %v", err)
	}
	if len(got) != 3 || got[0] != 90 || got[2] != 150 {
		t.Errorf("ParseWidths() = %v", got)
	}
	if _, err := ParseWidths(" , "); err == nil {
		t.Error("expected error for empty list")
	}
	if _, err := ParseWidths("-5"); err == nil {
		t.Error("expected error for negative width")
	}
}
