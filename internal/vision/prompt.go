package vision

import (
	"fmt"
	"strings"
)

const systemPrompt = `You locate one specific branding mark on scanned document pages.
Search ONLY the bottom footer region of the page (roughly the lowest quarter).
Ignore logos, stamps or signatures anywhere else on the page.
Reply with exactly one JSON object and nothing else:
{"found": true|false, "confidence": 0..1, "bbox": {"x": 0..1, "y": 0..1, "width": 0..1, "height": 0..1}, "matchedReference": "<reference name>"}
bbox is normalized to the page with the origin at the top-left corner.
If the mark is not present set found to false, confidence to your certainty it is absent subtracted from 1, and bbox to null.`

// buildUserPrompt lists the reference names in the order their images follow.
func buildUserPrompt(refs []Reference) string {
	var b strings.Builder
	if len(refs) == 0 {
		b.WriteString("No reference images are attached; look for a company logo in the footer.\n")
	} else {
		b.WriteString("The reference images of the mark follow, in this order: ")
		names := make([]string, len(refs))
		for i, r := range refs {
			names[i] = fmt.Sprintf("%q", r.Name)
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".\n")
	}
	b.WriteString("The last image is the page to search. Use a reference name for matchedReference.")
	return b.String()
}
