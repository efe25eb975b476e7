package agent

import (
	"fmt"
	"strings"

	"issuepilot/internal/analyze"
)

// BuildSummaryComment renders the human-readable comment summarizing a
// recommendation. In review mode this text is returned for display only; in
// auto-apply mode it is posted on the issue.
func BuildSummaryComment(rec *analyze.Recommendation) string {
	labels := "None"
	if all := append(append([]string{}, rec.SuggestedLabels...), rec.NewLabels...); len(all) > 0 {
		labels = strings.Join(all, ", ")
	}
	assignee := "None"
	if rec.SuggestedAssignee != "" {
		assignee = rec.SuggestedAssignee
	}

	var b strings.Builder
	b.WriteString("🤖 **AI Analysis Summary**\n\n")
	fmt.Fprintf(&b, "**Issue Type:** %s\n", titleCase(string(rec.IssueType)))
	fmt.Fprintf(&b, "**Priority:** %s\n", titleCase(string(rec.Priority)))
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n\n", rec.Confidence*100)
	fmt.Fprintf(&b, "**Summary:** %s\n\n", rec.Summary)
	fmt.Fprintf(&b, "**Suggested Labels:** %s\n", labels)
	fmt.Fprintf(&b, "**Suggested Assignee:** %s\n", assignee)
	if rec.Reasoning != "" {
		fmt.Fprintf(&b, "\n**Reasoning:** %s\n", rec.Reasoning)
	}
	b.WriteString("\n---\n*This analysis was performed by an AI assistant. Please review and adjust as needed.*")
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
