package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	imgutil "github.com/ironsheep/logo-redact/internal/imaging"
	"github.com/ironsheep/logo-redact/internal/logger"
)

// ReferenceMaxSize bounds both sides of a transmitted reference image.
const ReferenceMaxSize = 512

// Config configures the classifier client.
type Config struct {
	// BaseURL is the API root; chat/completions is appended to it.
	BaseURL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	Model  string
	// Timeout bounds a single request.
	Timeout  time.Duration
	MaxWidth int // pages are downscaled to this width before sending
}

// Client calls an OpenAI-compatible chat/completions endpoint with image input.
// It does not retry; retry policy belongs to the caller.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient fills in defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1400
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// EncodeReference fits img within ReferenceMaxSize and encodes it as a PNG data URI.
func EncodeReference(name string, img image.Image) (Reference, error) {
	uri, err := dataURI(imgutil.FitWithin(img, ReferenceMaxSize), imaging.PNG)
	if err != nil {
		return Reference{}, fmt.Errorf("encode reference %s: %w", name, err)
	}
	return Reference{Name: name, DataURI: uri}, nil
}

// Probe asks the classifier where the mark is on page.
//
// Parameters:
//   - ctx: cancels the request
//   - page: the whole rendered page; it is downscaled to Config.MaxWidth and
//     sent as JPEG
//   - refs: reference logos sent ahead of the page
//
// Returns the best candidate from the reply, with the raw reply text and the
// parse status attached.
//
// # Errors
//
//   - Transport failures and non-2xx statuses return a classifier error
//   - A reply that arrives but cannot be understood is not an error; it
//     returns found=false with ParseStatus set to StatusUnparseable
func (c *Client) Probe(ctx context.Context, page image.Image, refs []Reference) (ProbeResult, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := logger.WithFields(map[string]interface{}{"req_id": rid, "model": c.cfg.Model})

	pageURI, err := dataURI(imgutil.DownscaleToWidth(page, c.cfg.MaxWidth), imaging.JPEG)
	if err != nil {
		return ProbeResult{}, apperrors.NewClassifierError(0, "encode page", err)
	}

	content := []map[string]any{
		{"type": "text", "text": buildUserPrompt(refs)},
	}
	for _, r := range refs {
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": r.DataURI},
		})
	}
	content = append(content, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": pageURI, "detail": "high"},
	})

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": 0,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": content},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := c.post(ctx, endpoint, body)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		log.WithError(err).WithFields(map[string]interface{}{"status": status, "elapsed_ms": elapsed}).Error("vision.probe.http_error")
		if ctx.Err() != nil {
			return ProbeResult{}, apperrors.NewCancelledError(ctx.Err())
		}
		return ProbeResult{}, apperrors.NewClassifierError(0, "classifier request failed", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil || len(cc.Choices) == 0 {
		log.WithField("elapsed_ms", elapsed).Warn("vision.probe.malformed_envelope")
		return ProbeResult{Raw: string(raw), ParseStatus: StatusUnparseable, ParseError: "malformed response envelope"}, nil
	}

	text := cc.Choices[0].Message.Content
	result := ToProbeResult(ParseReply(text), text)
	log.WithFields(map[string]interface{}{
		"status":       status,
		"elapsed_ms":   elapsed,
		"found":        result.Found,
		"confidence":   result.Confidence,
		"parse_status": result.ParseStatus,
	}).Info("vision.probe.ok")
	return result, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("classifier http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.WithError(err).Warn("classifier response body close error")
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, resp.StatusCode, fmt.Errorf("classifier status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	return raw, resp.StatusCode, nil
}

func dataURI(img image.Image, format imaging.Format) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}
	mime := "image/png"
	if format == imaging.JPEG {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
