package vision

import "github.com/ironsheep/logo-redact/internal/geometry"

// Parse statuses recorded on a ProbeResult.
const (
	StatusParsed      = "parsed"
	StatusUnparseable = "unparseable"
)

// Candidate is one logo location proposed by the classifier.
type Candidate struct {
	// Found is the classifier's claim that the mark is present.
	Found bool `json:"found"`
	// Confidence is clamped to 0..1; missing values read as 0.
	Confidence float64 `json:"confidence"`
	// BBox is nil when the reply carried no usable box.
	BBox *geometry.NormBox `json:"bbox,omitempty"`
	// MatchedReference names the reference image the classifier recognised.
	MatchedReference string `json:"matchedReference,omitempty"`
}

// ProbeResult is the classifier's answer for one page, as recorded in the audit.
type ProbeResult struct {
	Found            bool              `json:"found"`
	Confidence       float64           `json:"confidence"`
	BBox             *geometry.NormBox `json:"bbox,omitempty"`
	MatchedReference string            `json:"matchedReference,omitempty"`
	// Raw is the reply text exactly as received.
	Raw string `json:"raw"`
	// ParseStatus is StatusParsed or StatusUnparseable.
	ParseStatus string `json:"parseStatus"`
	// ParseError explains an unparseable reply.
	ParseError string `json:"parseError,omitempty"`
	// Candidates is the number of candidates salvaged from the reply.
	Candidates int `json:"candidates"`
}

// Reference is a reference logo prepared for transmission.
type Reference struct {
	Name string
	// DataURI is the PNG-encoded image as a data: URI.
	DataURI string
}
