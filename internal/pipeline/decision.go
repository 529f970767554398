package pipeline

import "github.com/ironsheep/logo-redact/internal/audit"

// Decide maps a page's detection to an action.
//
// Only plausible detections can act. At or above the auto threshold the page
// is redacted: replaced_footer_banner when bannerSlot is set, else removed.
// At or above the review threshold it is flagged for review. Anything else
// is none.
func Decide(score float64, plausible, bannerSlot bool, th audit.Thresholds) audit.Action {
	switch {
	case plausible && score >= th.AutoThreshold:
		if bannerSlot {
			return audit.ActionReplacedFooterBanner
		}
		return audit.ActionRemoved
	case plausible && score >= th.ReviewThreshold:
		return audit.ActionReview
	}
	return audit.ActionNone
}
