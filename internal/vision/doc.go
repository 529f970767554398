// Package vision adapts an external multimodal classifier into a logo probe.
//
// A probe sends one rendered page plus the reference logos to an
// OpenAI-compatible chat/completions endpoint and asks for a single JSON
// object describing where the logo sits in the footer. The far end enforces no
// schema, so replies are parsed leniently into a tagged [Reply]: either
// [Parsed] with one or more candidates, or [Unparseable]. Malformed replies
// never fail a page; they become found=false. Transport failures and non-2xx
// statuses do fail, as classifier errors.
//
// Candidate boxes are normalized to 0..1 with the origin at the top-left of
// the page. [ValidFooterBox] and [WideFooterStrip] classify a box's shape.
package vision
