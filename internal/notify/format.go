package notify

import (
	"fmt"
	"strings"

	"issuepilot/internal/agent"
)

// FormatLabels renders suggested labels (existing plus proposed-new) as a
// comma-separated list, or "none" when empty.
func FormatLabels(result agent.Result) string {
	if result.Analysis == nil {
		return "none"
	}
	all := append(append([]string{}, result.Analysis.SuggestedLabels...), result.Analysis.NewLabels...)
	if len(all) == 0 {
		return "none"
	}
	return strings.Join(all, ", ")
}

// FormatHeadline renders the one-line summary used by both notifiers.
func FormatHeadline(result agent.Result) string {
	if !result.Success {
		return fmt.Sprintf("Processing issue #%d failed: %s", result.IssueNumber, result.Error)
	}
	if result.Analysis == nil {
		return fmt.Sprintf("Issue #%d processed", result.IssueNumber)
	}
	return fmt.Sprintf("Issue #%d: %s / %s priority (confidence %.0f%%)",
		result.IssueNumber, result.Analysis.IssueType, result.Analysis.Priority,
		result.Analysis.Confidence*100)
}
