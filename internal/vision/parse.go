package vision

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/logo-redact/internal/geometry"
)

// Reply is the outcome of parsing a classifier reply: Parsed or Unparseable.
type Reply interface {
	isReply()
}

// Parsed holds the candidates salvaged from a reply, best first.
type Parsed struct {
	Candidates []Candidate
}

// Unparseable means no candidate object could be recovered.
type Unparseable struct {
	Reason string
}

func (Parsed) isReply()      {}
func (Unparseable) isReply() {}

// ParseReply interprets free-form classifier output.
//
// Code fences are stripped and the text is parsed as JSON (an object or an
// array of objects). If that fails, every balanced {...} object in the text is
// extracted and parsed on its own, which recovers answers that were truncated
// or wrapped in prose. Only objects carrying "found" or "confidence" count as
// candidates. Candidates are sorted by confidence + 0.1*bbox.x, descending.
//
// Returns Parsed with at least one candidate, or Unparseable with a reason.
// It never fails outright; any input text yields one of the two.
func ParseReply(text string) Reply {
	cleaned := stripFences(text)
	if cleaned == "" {
		return Unparseable{Reason: "empty reply"}
	}

	var objects []map[string]any
	var direct any
	if err := json.Unmarshal([]byte(cleaned), &direct); err == nil {
		objects = collectObjects(direct)
	} else {
		for _, s := range balancedObjects(cleaned) {
			var m map[string]any
			if json.Unmarshal([]byte(s), &m) == nil {
				objects = append(objects, m)
			}
		}
	}

	var candidates []Candidate
	for _, m := range objects {
		if c, ok := candidateFrom(m); ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Unparseable{Reason: "no candidate object in reply"}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i]) > rank(candidates[j])
	})
	return Parsed{Candidates: candidates}
}

// ToProbeResult reduces a parsed reply to the best candidate.
func ToProbeResult(reply Reply, raw string) ProbeResult {
	switch r := reply.(type) {
	case Parsed:
		best := r.Candidates[0]
		return ProbeResult{
			Found:            best.Found,
			Confidence:       best.Confidence,
			BBox:             best.BBox,
			MatchedReference: best.MatchedReference,
			Raw:              raw,
			ParseStatus:      StatusParsed,
			Candidates:       len(r.Candidates),
		}
	case Unparseable:
		return ProbeResult{Raw: raw, ParseStatus: StatusUnparseable, ParseError: r.Reason}
	}
	return ProbeResult{Raw: raw, ParseStatus: StatusUnparseable}
}

func rank(c Candidate) float64 {
	x := 0.0
	if c.BBox != nil {
		x = c.BBox.X
	}
	return c.Confidence + 0.1*x
}

// stripFences removes ``` markers along with any language tag that follows them.
func stripFences(s string) string {
	for {
		i := strings.Index(s, "```")
		if i < 0 {
			break
		}
		j := i + 3
		for j < len(s) && isLetter(s[j]) {
			j++
		}
		s = s[:i] + s[j:]
	}
	return strings.TrimSpace(s)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func collectObjects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var out []map[string]any
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// balancedObjects returns the outermost balanced {...} substrings of s.
// Braces inside JSON strings are ignored. An opening brace that never closes
// is skipped and scanning resumes just after it, so complete objects nested
// in a truncated one are still found.
func balancedObjects(s string) []string {
	var out []string
	for start := 0; start < len(s); {
		open := strings.IndexByte(s[start:], '{')
		if open < 0 {
			break
		}
		open += start
		end := matchBrace(s, open)
		if end < 0 {
			start = open + 1
			continue
		}
		out = append(out, s[open:end+1])
		start = end + 1
	}
	return out
}

func matchBrace(s string, open int) int {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func candidateFrom(m map[string]any) (Candidate, bool) {
	_, hasFound := m["found"]
	_, hasConf := m["confidence"]
	if !hasFound && !hasConf {
		return Candidate{}, false
	}

	c := Candidate{
		Found:      asBool(m["found"]),
		Confidence: clamp01(asFloat(m["confidence"])),
		BBox:       asBox(m["bbox"]),
	}
	if ref, ok := m["matchedReference"].(string); ok {
		c.MatchedReference = strings.TrimSpace(ref)
	}
	if !hasFound {
		c.Found = c.Confidence > 0
	}
	return c, true
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case float64:
		return t != 0
	}
	return false
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(t, "%")), 64)
		if err != nil {
			return 0
		}
		if strings.HasSuffix(strings.TrimSpace(t), "%") {
			f /= 100
		}
		return f
	}
	return 0
}

// asBox accepts {x,y,width,height} (or w/h) or a 4-element [x,y,w,h] array.
// Components are clamped to 0..1 and the box is kept inside the page. Boxes
// without area are dropped.
func asBox(v any) *geometry.NormBox {
	var b geometry.NormBox
	switch t := v.(type) {
	case map[string]any:
		b.X = asFloat(t["x"])
		b.Y = asFloat(t["y"])
		b.Width = asFloat(firstPresent(t, "width", "w"))
		b.Height = asFloat(firstPresent(t, "height", "h"))
	case []any:
		if len(t) != 4 {
			return nil
		}
		b.X, b.Y, b.Width, b.Height = asFloat(t[0]), asFloat(t[1]), asFloat(t[2]), asFloat(t[3])
	default:
		return nil
	}

	b.X = clamp01(b.X)
	b.Y = clamp01(b.Y)
	b.Width = clamp01(b.Width)
	b.Height = clamp01(b.Height)
	if b.X+b.Width > 1 {
		b.Width = 1 - b.X
	}
	if b.Y+b.Height > 1 {
		b.Height = 1 - b.Y
	}
	if b.Width <= 0 || b.Height <= 0 {
		return nil
	}
	return &b
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
