package analyze

// IssueType classifies what kind of work an issue describes.
type IssueType string

const (
	TypeBug           IssueType = "bug"
	TypeFeature       IssueType = "feature"
	TypeDocumentation IssueType = "documentation"
	TypeEnhancement   IssueType = "enhancement"
	TypeQuestion      IssueType = "question"
	TypeOther         IssueType = "other"
)

// Priority is the urgency assessment for an issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// NormalizeIssueType maps a raw model-produced type onto the fixed enum,
// falling back to TypeOther for anything unrecognized.
func NormalizeIssueType(s string) IssueType {
	switch IssueType(s) {
	case TypeBug, TypeFeature, TypeDocumentation, TypeEnhancement, TypeQuestion, TypeOther:
		return IssueType(s)
	default:
		return TypeOther
	}
}

// NormalizePriority maps a raw model-produced priority onto the fixed enum,
// falling back to PriorityMedium for anything unrecognized.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Recommendation is the structured output of AI analysis over an issue.
// SuggestedLabels is always a subset of the repository's available labels;
// labels the model proposed that do not exist yet are carried separately in
// NewLabels. Confidence is clamped to [0, 1]. Immutable once produced.
type Recommendation struct {
	IssueType         IssueType `json:"issue_type"`
	Priority          Priority  `json:"priority"`
	SuggestedLabels   []string  `json:"suggested_labels"`
	NewLabels         []string  `json:"new_labels,omitempty"`
	SuggestedAssignee string    `json:"suggested_assignee,omitempty"`
	Summary           string    `json:"summary"`
	Reasoning         string    `json:"reasoning"`
	Confidence        float64   `json:"confidence"`
}

// Fallback returns the neutral recommendation substituted when the model
// call fails or returns unparseable output. Downstream action application
// degrades gracefully instead of aborting the pipeline.
func Fallback(reason string) *Recommendation {
	return &Recommendation{
		IssueType:  TypeOther,
		Priority:   PriorityMedium,
		Summary:    "Automatic analysis was not available for this issue.",
		Reasoning:  reason,
		Confidence: 0,
	}
}
