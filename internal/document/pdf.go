package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFOptions configures PDF rendering.
type PDFOptions struct {
	// Pdftoppm is the poppler rasterizer binary.
	Pdftoppm string
	// Timeout bounds one page render.
	Timeout time.Duration
	// Runner executes pdftoppm; nil uses os/exec.
	Runner Runner
}

// PDF is a PDF document held in memory.
type PDF struct {
	data  []byte
	sizes []Size
	opts  PDFOptions
	conf  *model.Configuration

	tmpOnce sync.Once
	tmpDir  string
	tmpPath string
	tmpErr  error

	overlays map[int][]Overlay
}

func init() {
	// pdfcpu would otherwise create and read a per-user config directory.
	api.DisableConfigDir()
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// OpenPDF reads page geometry from data.
func OpenPDF(data []byte, opts PDFOptions) (*PDF, error) {
	if opts.Pdftoppm == "" {
		opts.Pdftoppm = "pdftoppm"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Runner == nil {
		opts.Runner = execRunner{}
	}

	conf := pdfConfig()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf page sizes: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	sizes := make([]Size, len(dims))
	for i, d := range dims {
		sizes[i] = Size{Width: d.Width, Height: d.Height}
	}
	return &PDF{
		data:     data,
		sizes:    sizes,
		opts:     opts,
		conf:     conf,
		overlays: make(map[int][]Overlay),
	}, nil
}

// PageCount implements Document.
func (p *PDF) PageCount() int { return len(p.sizes) }

// PageSize implements Document.
func (p *PDF) PageSize(page int) (Size, error) {
	if err := checkPage(page, len(p.sizes)); err != nil {
		return Size{}, err
	}
	return p.sizes[page-1], nil
}

// Render implements Document by running
//
//	pdftoppm -f N -l N -scale-to-x W -scale-to-y H -png -singlefile in.pdf out
//
// against a temporary copy of the document.
func (p *PDF) Render(ctx context.Context, page, width, height int) (image.Image, error) {
	if err := checkPage(page, len(p.sizes)); err != nil {
		return nil, err
	}
	in, err := p.tempInput()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	prefix := filepath.Join(p.tmpDir, "page-"+strconv.Itoa(page)+"-"+uuid.NewString())
	n := strconv.Itoa(page)
	_, errb, err := p.opts.Runner.Run(ctx, p.opts.Pdftoppm,
		"-f", n, "-l", n,
		"-scale-to-x", strconv.Itoa(width), "-scale-to-y", strconv.Itoa(height),
		"-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, truncate(string(errb), 512))
	}

	out := prefix + ".png"
	defer os.Remove(out)
	img, err := imaging.Open(out)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page %d: %w", page, err)
	}
	return img, nil
}

func (p *PDF) tempInput() (string, error) {
	p.tmpOnce.Do(func() {
		p.tmpDir, p.tmpErr = os.MkdirTemp("", "logo-redact-*")
		if p.tmpErr != nil {
			return
		}
		p.tmpPath = filepath.Join(p.tmpDir, "input.pdf")
		p.tmpErr = os.WriteFile(p.tmpPath, p.data, 0o600)
	})
	return p.tmpPath, p.tmpErr
}

// AddOverlay implements Document. Overlays are applied in insertion order on Save.
func (p *PDF) AddOverlay(page int, ov Overlay) error {
	if err := checkPage(page, len(p.sizes)); err != nil {
		return err
	}
	if ov.Image == nil || ov.Rect.Width <= 0 || ov.Rect.Height <= 0 {
		return fmt.Errorf("page %d: overlay needs an image and a non-empty rectangle", page)
	}
	p.overlays[page] = append(p.overlays[page], ov)
	return nil
}

// Save implements Document. Each overlay becomes a foreground image stamp
// anchored at the page's bottom-left corner. Pages with several overlays are
// stamped in successive passes so later overlays land on top.
func (p *PDF) Save(w io.Writer) error {
	current := p.data
	for layer := 0; ; layer++ {
		stamps := make(map[int]*model.Watermark)
		for page, ovs := range p.overlays {
			if layer >= len(ovs) {
				continue
			}
			wm, err := imageStamp(ovs[layer])
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			stamps[page] = wm
		}
		if len(stamps) == 0 {
			break
		}
		var buf bytes.Buffer
		if err := api.AddWatermarksMap(bytes.NewReader(current), &buf, stamps, p.conf); err != nil {
			return fmt.Errorf("stamp overlays: %w", err)
		}
		current = buf.Bytes()
	}
	_, err := w.Write(current)
	return err
}

func imageStamp(ov Overlay) (*model.Watermark, error) {
	var png bytes.Buffer
	if err := imaging.Encode(&png, ov.Image, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	// An absolute scale maps overlay pixels onto the rectangle's points.
	scale := ov.Rect.Width / float64(ov.Image.Bounds().Dx())
	desc := fmt.Sprintf("pos:bl, off:%.3f %.3f, scale:%.6f abs, rot:0, op:1",
		ov.Rect.X, ov.Rect.Y, scale)
	wm, err := api.ImageWatermarkForReader(&png, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build stamp: %w", err)
	}
	return wm, nil
}

// Close removes the temporary render input.
func (p *PDF) Close() error {
	if p.tmpDir == "" {
		return nil
	}
	return os.RemoveAll(p.tmpDir)
}

// nativePixels is the pixel size of a page at scale, floored.
func nativePixels(s Size, scale float64) (int, int) {
	return int(math.Floor(s.Width * scale)), int(math.Floor(s.Height * scale))
}
