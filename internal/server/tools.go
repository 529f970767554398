package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// detectionProperties are the job settings shared by the redact and detect tools.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"autoThreshold": map[string]interface{}{
			"type":        "number",
			"description": "Score at or above which a plausible detection is redacted. Default 0.8",
			"minimum":     0,
			"maximum":     1,
		},
		"reviewThreshold": map[string]interface{}{
			"type":        "number",
			"description": "Score at or above which a plausible detection is flagged for review. Must be below autoThreshold. Default 0.5",
			"minimum":     0,
			"maximum":     1,
		},
		"formatKey": map[string]interface{}{
			"type":        "string",
			"description": "Format profile supplying the footer ratio and replacement banner. Default \"default\"",
		},
		"roi": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"auto", "bottom-right", "bottom", "footer", "page"},
			"description": "Search zone. auto uses the detected footer band, else the bottom-right quadrant",
		},
		"detectorMode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"deterministic", "ai-probe", "ai-cut"},
			"description": "deterministic matches edge templates; ai-probe and ai-cut ask the vision classifier",
		},
		"fillStrategy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"sampled", "brand"},
			"description": "Colour of solid fills: sampled from around the logo, or the profile brand colour",
		},
		"pageFailurePolicy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"abort", "degrade"},
			"description": "abort fails the job on the first page error; degrade records the page as none",
		},
		"debugPreview": map[string]interface{}{
			"type":        "boolean",
			"description": "Write a preview PNG per page with the search zone and match outlined",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	redactProps := detectionProperties()
	redactProps["input"] = map[string]interface{}{
		"type":        "string",
		"description": "PDF or image to redact: absolute path or az://container/blob",
	}
	redactProps["output"] = map[string]interface{}{
		"type":        "string",
		"description": "Where to write the redacted PDF",
	}
	redactProps["audit"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional location for the audit JSON",
	}
	redactProps["pages"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional page list such as \"1,3-5\". Default all pages",
	}
	redactProps["forceFooterBanner"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Skip detection and replace the footer banner slot on every page",
	}

	detectProps := detectionProperties()
	detectProps["input"] = map[string]interface{}{
		"type":        "string",
		"description": "PDF or image to inspect: absolute path or az://container/blob",
	}
	detectProps["page"] = map[string]interface{}{
		"type":        "integer",
		"description": "1-based page number. Default 1",
		"minimum":     1,
	}

	return []Tool{
		{
			Name:        "logo_redact_document",
			Description: "Detect the logo on every page of a document and cover it with an opaque fill or replacement banner. Writes the redacted PDF and returns the job summary. Redactions are visual overlays; content beneath them stays in the file.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": redactProps,
				"required":   []string{"input", "output"},
			},
		},
		{
			Name:        "logo_detect_page",
			Description: "Run logo detection on one page and return its audit record (score, match box, plausibility and the action a redaction job would take). Nothing is written.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProps,
				"required":   []string{"input"},
			},
		},
		{
			Name:        "logo_list_templates",
			Description: "List the reference logos, the template variants built from them, and the configured format profiles.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
