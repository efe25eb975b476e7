package agent

import (
	"issuepilot/internal/analyze"
	"issuepilot/internal/vector"
)

// State tracks where an issue is in the processing pipeline.
type State int

const (
	StateReceived State = iota
	StateContextGathered
	StateAnalyzed
	StateActionsApplied
	StateSkipped
	StateDone
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateContextGathered:
		return "context_gathered"
	case StateAnalyzed:
		return "analyzed"
	case StateActionsApplied:
		return "actions_applied"
	case StateSkipped:
		return "skipped"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one issue.
type Result struct {
	Success        bool                    `json:"success"`
	IssueNumber    int                     `json:"issue_number,omitempty"`
	Analysis       *analyze.Recommendation `json:"analysis,omitempty"`
	ActionsApplied bool                    `json:"actions_applied"`
	ActionErrors   []string                `json:"action_errors,omitempty"`
	SummaryComment string                  `json:"summary_comment,omitempty"`
	SimilarIssues  []vector.Match          `json:"similar_issues,omitempty"`
	Warnings       []string                `json:"warnings,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

// Advice is an analysis-only response: recommendations plus supporting
// context, with no actions applied.
type Advice struct {
	Success       bool                    `json:"success"`
	Analysis      *analyze.Recommendation `json:"analysis,omitempty"`
	SimilarIssues []vector.Match          `json:"similar_issues,omitempty"`
	Labels        []string                `json:"labels,omitempty"`
	Contributors  []string                `json:"contributors,omitempty"`
	Topics        []string                `json:"topics,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// BatchResult aggregates the results of a batch processing run. Results is
// ordered to match the requested issue numbers.
type BatchResult struct {
	TotalProcessed int      `json:"total_processed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Results        []Result `json:"results"`
}

// Counters are process-wide statistics, updated atomically per request.
type Counters struct {
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	TotalIssues     int      `json:"total_issues"`
	OpenIssues      int      `json:"open_issues"`
	ClosedIssues    int      `json:"closed_issues"`
	VectorAvailable bool     `json:"vector_service_available"`
	Repository      string   `json:"repository"`
	Counters        Counters `json:"counters"`
}
