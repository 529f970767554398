package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultFormatKey names the built-in profile used when no profiles file is configured.
const DefaultFormatKey = "default"

// BannerFit selects how a banner image is scaled into its target rectangle.
type BannerFit string

const (
	// FitContain shrinks the banner to fit inside the rectangle, centered.
	FitContain BannerFit = "contain"
	// FitCover scales the banner to fill the rectangle; one axis may overflow.
	FitCover BannerFit = "cover"
)

// Profile is the per-format redaction layout.
type Profile struct {
	// BannerPath is the replacement banner image; empty disables banner
	// replacement for the format.
	BannerPath string `json:"bannerPath,omitempty"`
	// FooterRatio is the height of the fallback footer slot as a fraction of
	// the page height.
	FooterRatio float64   `json:"footerRatio"`
	BannerFit   BannerFit `json:"bannerFit"`
	// FillBackground paints BackgroundColor over the whole slot behind the
	// banner.
	FillBackground bool `json:"fillBackground"`
	// BottomOffsetPx raises the slot by this many points.
	BottomOffsetPx  float64 `json:"bottomOffsetPx"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	// BrandColor is the solid fill used by the brand fill strategy.
	BrandColor string `json:"brandColor,omitempty"`
}

// HasBanner reports whether the profile carries a replacement banner image.
func (p Profile) HasBanner() bool {
	return p.BannerPath != ""
}

// DefaultProfile is used for the "default" format key.
func DefaultProfile() Profile {
	return Profile{
		FooterRatio:     0.1,
		BannerFit:       FitContain,
		BackgroundColor: "#FFFFFF",
		BrandColor:      "#FFFFFF",
	}
}

//go:embed profiles.schema.json
var profilesSchema []byte

// Profiles maps format keys to profiles.
type Profiles map[string]Profile

// Lookup returns the profile for key.
func (p Profiles) Lookup(key string) (Profile, error) {
	if key == "" {
		key = DefaultFormatKey
	}
	prof, ok := p[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown format key %q (known: %v)", key, p.Keys())
	}
	return prof, nil
}

// Keys returns the format keys in sorted order.
func (p Profiles) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadProfiles reads a YAML profiles file. An empty path yields only the
// built-in default profile. Relative banner paths resolve against the
// directory containing the file.
//
// # Errors
//
//   - Returns error if the file cannot be read
//   - Returns error if the YAML is malformed or fails schema validation
func LoadProfiles(path string) (Profiles, error) {
	profiles := Profiles{DefaultFormatKey: DefaultProfile()}
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	parsed, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	base := filepath.Dir(path)
	for key, prof := range parsed {
		if prof.BannerPath != "" && !filepath.IsAbs(prof.BannerPath) {
			prof.BannerPath = filepath.Join(base, prof.BannerPath)
		}
		profiles[key] = prof
	}
	return profiles, nil
}

// ParseProfiles decodes YAML profile definitions and validates them against
// the embedded schema. Unset fields take the default profile's values.
func ParseProfiles(data []byte) (Profiles, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no profiles defined")
	}

	// Round-trip through JSON so the schema validator sees plain JSON values.
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal profiles: %w", err)
	}
	if err := validateProfiles(asJSON); err != nil {
		return nil, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(asJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	profiles := make(Profiles, len(entries))
	for key, entry := range entries {
		prof := DefaultProfile()
		if err := json.Unmarshal(entry, &prof); err != nil {
			return nil, fmt.Errorf("decode profile %q: %w", key, err)
		}
		profiles[key] = prof
	}
	return profiles, nil
}

func validateProfiles(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profiles.schema.json", bytes.NewReader(profilesSchema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("profiles.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal profiles: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("profiles do not match schema: %w", err)
	}
	return nil
}
