package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/logo-redact/internal/audit"
	"github.com/ironsheep/logo-redact/internal/detection"
	apperrors "github.com/ironsheep/logo-redact/internal/errors"
	"github.com/ironsheep/logo-redact/internal/logger"
	"github.com/ironsheep/logo-redact/internal/pipeline"
	"github.com/ironsheep/logo-redact/internal/sink"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "logo_redact_document").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	out, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		logger.WithError(err).WithField("tool", params.Name).Warn("Tool execution failed")
		return errorResponse(req.ID, codeToolFailed, "Tool execution failed", toolErrorData(err))
	}

	return result(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(out)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "logo_redact_document":
		return s.handleRedactDocument(ctx, args)
	case "logo_detect_page":
		return s.handleDetectPage(ctx, args)
	case "logo_list_templates":
		return s.handleListTemplates()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// toolErrorData carries the job error kind so clients can tell a bad request
// from a classifier outage.
func toolErrorData(err error) map[string]interface{} {
	data := map[string]interface{}{"message": err.Error()}
	if kind := apperrors.KindOf(err); kind != "" {
		data["kind"] = kind
	}
	return data
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// settingsArgs are the job settings accepted by the redact and detect tools.
// Pointers distinguish "unset" from zero.
type settingsArgs struct {
	AutoThreshold     *float64 `json:"autoThreshold"`
	ReviewThreshold   *float64 `json:"reviewThreshold"`
	FormatKey         string   `json:"formatKey"`
	ROI               string   `json:"roi"`
	DetectorMode      string   `json:"detectorMode"`
	FillStrategy      string   `json:"fillStrategy"`
	PageFailurePolicy string   `json:"pageFailurePolicy"`
	DebugPreview      bool     `json:"debugPreview"`
}

func (a settingsArgs) settings() (pipeline.Settings, error) {
	s := pipeline.DefaultSettings()
	if a.AutoThreshold != nil {
		s.AutoThreshold = *a.AutoThreshold
	}
	if a.ReviewThreshold != nil {
		s.ReviewThreshold = *a.ReviewThreshold
	}
	if a.FormatKey != "" {
		s.FormatKey = a.FormatKey
	}
	roi, err := detection.ParseROI(a.ROI)
	if err != nil {
		return s, apperrors.NewValidationError("invalid roi", err)
	}
	mode, err := detection.ParseMode(a.DetectorMode)
	if err != nil {
		return s, apperrors.NewValidationError("invalid detectorMode", err)
	}
	s.ROI = roi
	s.DetectorMode = mode
	s.FillStrategy = pipeline.FillStrategy(a.FillStrategy)
	s.PageFailurePolicy = pipeline.FailurePolicy(a.PageFailurePolicy)
	s.DebugPreview = a.DebugPreview
	s.Normalize()
	return s, nil
}

// === Redaction ===

type redactDocumentArgs struct {
	settingsArgs
	Input             string `json:"input"`
	Output            string `json:"output"`
	Audit             string `json:"audit"`
	Pages             string `json:"pages"`
	ForceFooterBanner bool   `json:"forceFooterBanner"`
}

func (s *Server) handleRedactDocument(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a redactDocumentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" || a.Output == "" {
		return nil, apperrors.NewValidationError("input and output are required", nil)
	}
	settings, err := a.settings()
	if err != nil {
		return nil, err
	}
	settings.ForceFooterBanner = a.ForceFooterBanner
	if a.Pages != "" {
		if settings.Pages, err = pipeline.ParsePages(a.Pages); err != nil {
			return nil, apperrors.NewValidationError("invalid pages", err)
		}
	}

	input, err := s.read(ctx, a.Input)
	if err != nil {
		return nil, err
	}
	output, err := sink.Resolve(a.Output, s.blobs)
	if err != nil {
		return nil, err
	}
	req := pipeline.Request{Input: input, Output: output, Settings: settings}
	if a.Audit != "" {
		if req.Audit, err = sink.Resolve(a.Audit, s.blobs); err != nil {
			return nil, err
		}
	}

	res, err := s.engine.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"result":      res,
		"summary":     res.Audit.Summary,
		"output":      output.Location(),
		"overlayNote": res.Audit.OverlayNote,
	}, nil
}

// === Detection ===

type detectPageArgs struct {
	settingsArgs
	Input string `json:"input"`
	Page  int    `json:"page"`
}

type detectPageResult struct {
	JobID      string           `json:"jobId"`
	Detector   string           `json:"detector"`
	TotalPages int              `json:"totalPagesInPdf"`
	Record     audit.PageRecord `json:"record"`
}

func (s *Server) handleDetectPage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectPageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" {
		return nil, apperrors.NewValidationError("input is required", nil)
	}
	if a.Page == 0 {
		a.Page = 1
	}
	settings, err := a.settings()
	if err != nil {
		return nil, err
	}
	settings.Pages = []int{a.Page}

	input, err := s.read(ctx, a.Input)
	if err != nil {
		return nil, err
	}
	report, err := s.engine.Detect(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	return detectPageResult{
		JobID:      report.JobID,
		Detector:   report.Detector,
		TotalPages: report.Summary.TotalPagesInPDF,
		Record:     report.Pages[0],
	}, nil
}

// === Templates ===

type listTemplatesResult struct {
	References []detection.Reference `json:"references"`
	Templates  []detection.Template  `json:"templates"`
	Formats    []string              `json:"formats"`
}

func (s *Server) handleListTemplates() (interface{}, error) {
	lib, err := s.engine.LoadLibrary(true)
	if err != nil {
		return nil, err
	}
	return listTemplatesResult{
		References: lib.References,
		Templates:  lib.Templates,
		Formats:    s.engine.Profiles().Keys(),
	}, nil
}

func (s *Server) read(ctx context.Context, location string) ([]byte, error) {
	src, err := sink.Resolve(location, s.blobs)
	if err != nil {
		return nil, err
	}
	return src.Read(ctx)
}
