package detection

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/imaging"
	"github.com/ironsheep/logo-redact/internal/logger"
)

// DefaultTemplateWidths are the target widths, in pixels, of the template
// variants produced per reference image.
var DefaultTemplateWidths = []int{90, 120, 150, 190, 230}

// Reference is one normalized reference logo image.
type Reference struct {
	// Name is the file name without extension.
	Name string `json:"name"`
	// Path is the file the image was loaded from.
	Path string `json:"path"`
	// Image is orientation-corrected, flattened onto white and border-trimmed.
	Image image.Image `json:"-"`
}

// Template is one sized, edge-extracted variant of a reference.
type Template struct {
	// Reference is the Name of the reference the variant was cut from.
	Reference string `json:"reference"`
	// Width and Height are the variant size in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`
	// EdgeCount is the number of set pixels in Edges.
	EdgeCount int `json:"edge_count"`
	// Edges is the binary edge map slid over pages.
	Edges *imaging.EdgeMap `json:"-"`
}

// TemplateOptions controls variant generation.
type TemplateOptions struct {
	// Widths lists the variant widths; heights follow the aspect ratio.
	Widths []int
	// EdgeThreshold is passed to imaging.ComputeEdgeMap.
	EdgeThreshold int
	// MinWidth and MinHeight reject variants too small to carry a shape.
	MinWidth  int
	MinHeight int
	// MinEdges rejects near-blank variants.
	MinEdges int
}

// DefaultTemplateOptions returns the standard variant settings.
func DefaultTemplateOptions() TemplateOptions {
	return TemplateOptions{
		Widths:        DefaultTemplateWidths,
		EdgeThreshold: imaging.DefaultEdgeThreshold,
		MinWidth:      24,
		MinHeight:     8,
		MinEdges:      30,
	}
}

// Library is the read-only set of references and templates shared by every
// page of a job.
type Library struct {
	// References are the loaded reference images in file name order.
	References []Reference
	// Templates is empty when the library was built without templates.
	Templates []Template
}

// LoadReferences loads every PNG/JPEG image in dir, sorted by file name.
// Files with other extensions are ignored. Unreadable images are skipped with
// a warning; a directory that yields no usable image is a configuration error.
func LoadReferences(dir string) ([]Reference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewConfigurationError("reference directory unavailable: "+dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsReferenceImage(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, apperrors.NewConfigurationError("reference directory contains no PNG or JPEG images: "+dir, nil)
	}
	sort.Strings(paths)

	refs := make([]Reference, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.LoadReference(p)
		if err != nil {
			logger.WithError(err).WithField("path", p).Warn("skipping unreadable reference image")
			continue
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		refs = append(refs, Reference{
			Name:  name,
			Path:  p,
			Image: imaging.TrimBorders(img, imaging.DefaultTrimTolerance),
		})
	}
	if len(refs) == 0 {
		return nil, apperrors.NewConfigurationError("no usable reference images in "+dir, nil)
	}
	return refs, nil
}

// BuildTemplates produces the template variants for refs. Variants wider than
// their source are still produced; upscaling a small logo is how it matches a
// page rendered at a larger scale.
//
// Parameters:
//   - refs: normalized references, usually from LoadReferences
//   - opts: variant widths, edge threshold and the size/edge floors below
//     which a variant is discarded
//
// Returns the surviving variants, ordered by reference then width.
//
// # Errors
//
//   - Returns a configuration error when no variant survives the floors
func BuildTemplates(refs []Reference, opts TemplateOptions) ([]Template, error) {
	if len(opts.Widths) == 0 {
		opts.Widths = DefaultTemplateWidths
	}
	if opts.EdgeThreshold <= 0 {
		opts.EdgeThreshold = imaging.DefaultEdgeThreshold
	}

	var templates []Template
	for _, ref := range refs {
		gray := imaging.Grayscale(ref.Image)
		for _, w := range opts.Widths {
			variant := imaging.ResizeToWidth(gray, w)
			b := variant.Bounds()
			if b.Dx() < opts.MinWidth || b.Dy() < opts.MinHeight {
				continue
			}
			edges := imaging.ComputeEdgeMap(variant, opts.EdgeThreshold)
			count := edges.Count()
			if count < opts.MinEdges {
				continue
			}
			templates = append(templates, Template{
				Reference: ref.Name,
				Width:     b.Dx(),
				Height:    b.Dy(),
				EdgeCount: count,
				Edges:     edges,
			})
		}
	}
	if len(templates) == 0 {
		return nil, apperrors.NewConfigurationError("reference images yielded no usable templates", nil)
	}
	return templates, nil
}

// NewLibrary loads dir and builds its templates.
//
// Parameters:
//   - dir: directory of reference logo images (PNG or JPEG)
//   - opts: template settings, see BuildTemplates
//   - withTemplates: whether to build edge templates at all
//
// When withTemplates is false only the references are loaded; detectors that
// never slide templates skip the edge work.
func NewLibrary(dir string, opts TemplateOptions, withTemplates bool) (*Library, error) {
	refs, err := LoadReferences(dir)
	if err != nil {
		return nil, err
	}
	lib := &Library{References: refs}
	if !withTemplates {
		return lib, nil
	}
	lib.Templates, err = BuildTemplates(refs, opts)
	if err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{
		"references": len(refs),
		"templates":  len(lib.Templates),
	}).Debug("template library built")
	return lib, nil
}

// ReferenceNames returns the reference names in load order. The templates
// command prints it above the variant table.
func (l *Library) ReferenceNames() []string {
	names := make([]string, len(l.References))
	for i, r := range l.References {
		names[i] = r.Name
	}
	return names
}
