package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "LOGO_REDACT_"

// Config holds process configuration shared by every job.
type Config struct {
	Render    RenderConfig
	Templates TemplateConfig
	Footer    FooterConfig
	Vision    VisionConfig
	Storage   StorageConfig

	ReferenceDir string
	ProfilesFile string
	// DebugDir receives per-page preview PNGs; empty disables previews.
	DebugDir string
}

// RenderConfig controls rasterization.
type RenderConfig struct {
	Scale    float64
	Pdftoppm string
	Timeout  time.Duration
}

// TemplateConfig controls template library construction and matching.
type TemplateConfig struct {
	Widths        []int
	EdgeThreshold int
	MatchStep     int
}

// FooterConfig is the footer band colour signature.
type FooterConfig struct {
	Color     string
	Tolerance float64
}

// VisionConfig configures the external vision classifier.
type VisionConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	MaxWidth int
	Workers  int
}

// StorageConfig holds Azure Blob credentials for az:// locations.
// Blob locations are unavailable while AccountName is empty.
type StorageConfig struct {
	AccountName string
	AccountKey  string
	// ServiceURL overrides the account endpoint, e.g. for a local emulator.
	ServiceURL string
}

// BlobEnabled reports whether blob credentials are configured.
func (s StorageConfig) BlobEnabled() bool {
	return s.AccountName != "" && s.AccountKey != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Scale:    1.2,
			Pdftoppm: "pdftoppm",
			Timeout:  60 * time.Second,
		},
		Templates: TemplateConfig{
			Widths:        []int{90, 120, 150, 190, 230},
			EdgeThreshold: 40,
			MatchStep:     3,
		},
		Footer: FooterConfig{
			Color:     "#0B3D91",
			Tolerance: 0.18,
		},
		Vision: VisionConfig{
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			MaxWidth: 1400,
			Workers:  2,
		},
		ReferenceDir: "./references",
	}
}

// LoadFromEnv overlays LOGO_REDACT_* environment variables on the defaults and validates the result.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	cfg.Render.Scale = parseFloatOrDefault("RENDER_SCALE", cfg.Render.Scale)
	cfg.Render.Pdftoppm = getEnvOrDefault("PDFTOPPM", cfg.Render.Pdftoppm)
	cfg.Render.Timeout = parseDurationOrDefault("RENDER_TIMEOUT", cfg.Render.Timeout)

	cfg.Templates.EdgeThreshold = parseIntOrDefault("EDGE_THRESHOLD", cfg.Templates.EdgeThreshold)
	cfg.Templates.MatchStep = parseIntOrDefault("MATCH_STEP", cfg.Templates.MatchStep)
	if v := os.Getenv(envPrefix + "TEMPLATE_WIDTHS"); v != "" {
		widths, err := ParseWidths(v)
		if err != nil {
			return nil, err
		}
		cfg.Templates.Widths = widths
	}

	cfg.Footer.Color = getEnvOrDefault("FOOTER_COLOR", cfg.Footer.Color)
	cfg.Footer.Tolerance = parseFloatOrDefault("FOOTER_COLOR_TOLERANCE", cfg.Footer.Tolerance)

	cfg.Vision.BaseURL = getEnvOrDefault("VISION_BASE_URL", cfg.Vision.BaseURL)
	cfg.Vision.APIKey = getEnvOrDefault("VISION_API_KEY", os.Getenv("OPENAI_API_KEY"))
	cfg.Vision.Model = getEnvOrDefault("VISION_MODEL", cfg.Vision.Model)
	cfg.Vision.Timeout = parseDurationOrDefault("VISION_TIMEOUT", cfg.Vision.Timeout)
	cfg.Vision.MaxWidth = parseIntOrDefault("VISION_MAX_WIDTH", cfg.Vision.MaxWidth)
	cfg.Vision.Workers = parseIntOrDefault("VISION_WORKERS", cfg.Vision.Workers)

	cfg.Storage.AccountName = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", os.Getenv("AZURE_STORAGE_ACCOUNT"))
	cfg.Storage.AccountKey = getEnvOrDefault("AZURE_STORAGE_KEY", os.Getenv("AZURE_STORAGE_KEY"))
	cfg.Storage.ServiceURL = getEnvOrDefault("AZURE_STORAGE_URL", "")

	cfg.ReferenceDir = getEnvOrDefault("REFERENCE_DIR", cfg.ReferenceDir)
	cfg.ProfilesFile = getEnvOrDefault("PROFILES_FILE", cfg.ProfilesFile)
	cfg.DebugDir = getEnvOrDefault("DEBUG_DIR", cfg.DebugDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface as confusing failures mid-job.
func (c *Config) Validate() error {
	if c.Render.Scale <= 0 {
		return fmt.Errorf("RENDER_SCALE must be > 0 (got %v)", c.Render.Scale)
	}
	if c.Render.Timeout <= 0 || c.Vision.Timeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got render=%s, vision=%s)", c.Render.Timeout, c.Vision.Timeout)
	}
	if len(c.Templates.Widths) == 0 {
		return fmt.Errorf("TEMPLATE_WIDTHS must list at least one width")
	}
	if c.Templates.EdgeThreshold <= 0 {
		return fmt.Errorf("EDGE_THRESHOLD must be > 0 (got %d)", c.Templates.EdgeThreshold)
	}
	if c.Templates.MatchStep <= 0 {
		return fmt.Errorf("MATCH_STEP must be > 0 (got %d)", c.Templates.MatchStep)
	}
	if c.Footer.Tolerance <= 0 {
		return fmt.Errorf("FOOTER_COLOR_TOLERANCE must be > 0 (got %v)", c.Footer.Tolerance)
	}
	if c.Vision.MaxWidth <= 0 {
		return fmt.Errorf("VISION_MAX_WIDTH must be > 0 (got %d)", c.Vision.MaxWidth)
	}
	if c.Vision.Workers <= 0 {
		return fmt.Errorf("VISION_WORKERS must be > 0 (got %d)", c.Vision.Workers)
	}
	if (c.Storage.AccountName == "") != (c.Storage.AccountKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

// ParseWidths parses a comma separated list of positive template widths.
func ParseWidths(s string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid template width %q", part)
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 {
		return nil, fmt.Errorf("no template widths in %q", s)
	}
	return widths, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
