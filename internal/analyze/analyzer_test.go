package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"issuepilot/internal/github"
)

// mockCompleter is a test double for provider.Completer.
type mockCompleter struct {
	responses []string
	err       error
	callCount int
	prompts   []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++
	return m.responses[idx], nil
}

var testIssue = github.Issue{
	Number: 42,
	Title:  "App crashes on startup",
	Body:   "When I open the app it crashes immediately.",
	User:   github.User{Login: "reporter"},
}

func testRepoContext() *github.RepoContext {
	return &github.RepoContext{
		Name:     "widget",
		FullName: "acme/widget",
		Language: "Go",
		Labels: []github.Label{
			{Name: "bug"},
			{Name: "enhancement"},
			{Name: "documentation"},
		},
		Contributors: []github.Contributor{
			{Login: "alice", Contributions: 120},
			{Login: "bob", Contributions: 40},
		},
	}
}

func TestAnalyze_ValidJSON(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{`{"issue_type": "bug", "priority": "high", "suggested_labels": ["bug"], "suggested_assignee": "alice", "summary": "Startup crash", "reasoning": "Clear crash report", "confidence": 0.92}`},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if rec.IssueType != TypeBug {
		t.Errorf("expected issue type %q, got %q", TypeBug, rec.IssueType)
	}
	if rec.Priority != PriorityHigh {
		t.Errorf("expected priority %q, got %q", PriorityHigh, rec.Priority)
	}
	if len(rec.SuggestedLabels) != 1 || rec.SuggestedLabels[0] != "bug" {
		t.Errorf("expected suggested labels [bug], got %v", rec.SuggestedLabels)
	}
	if rec.SuggestedAssignee != "alice" {
		t.Errorf("expected assignee 'alice', got %q", rec.SuggestedAssignee)
	}
	if rec.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", rec.Confidence)
	}
}

func TestAnalyze_CodeFencedJSON(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{"```json\n{\"issue_type\": \"feature\", \"priority\": \"low\", \"suggested_labels\": [], \"summary\": \"Feature ask\", \"reasoning\": \"r\", \"confidence\": 0.7}\n```"},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if rec.IssueType != TypeFeature {
		t.Errorf("expected issue type %q, got %q", TypeFeature, rec.IssueType)
	}
	if mock.callCount != 1 {
		t.Errorf("expected 1 call, got %d", mock.callCount)
	}
}

func TestAnalyze_MalformedJSON_RetrySucceeds(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{
			"I think this issue is a bug.",
			`{"issue_type": "bug", "priority": "medium", "suggested_labels": ["bug"], "summary": "s", "reasoning": "r", "confidence": 0.8}`,
		},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if mock.callCount != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.callCount)
	}
	if rec.IssueType != TypeBug {
		t.Errorf("expected issue type %q, got %q", TypeBug, rec.IssueType)
	}
	if len(mock.prompts) != 2 || mock.prompts[1] == mock.prompts[0] {
		t.Error("expected retry prompt to differ from original prompt")
	}
}

func TestAnalyze_MalformedJSON_FallsBack(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{"garbage", "more garbage"},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err == nil {
		t.Fatal("expected error alongside fallback recommendation")
	}
	if rec == nil {
		t.Fatal("expected a usable fallback recommendation")
	}
	if rec.IssueType != TypeOther {
		t.Errorf("expected fallback issue type %q, got %q", TypeOther, rec.IssueType)
	}
	if rec.Priority != PriorityMedium {
		t.Errorf("expected fallback priority %q, got %q", PriorityMedium, rec.Priority)
	}
	if rec.Confidence != 0 {
		t.Errorf("expected fallback confidence 0, got %f", rec.Confidence)
	}
}

func TestAnalyze_CompleterError_FallsBack(t *testing.T) {
	mock := &mockCompleter{err: errors.New("connection refused")}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err == nil {
		t.Fatal("expected error alongside fallback recommendation")
	}
	if rec.IssueType != TypeOther || rec.Confidence != 0 {
		t.Errorf("expected neutral fallback, got type=%q confidence=%f", rec.IssueType, rec.Confidence)
	}
}

func TestAnalyze_NormalizesEnums(t *testing.T) {
	tests := []struct {
		name         string
		issueType    string
		priority     string
		wantType     IssueType
		wantPriority Priority
	}{
		{"uppercase", "BUG", "HIGH", TypeBug, PriorityHigh},
		{"whitespace", "  feature ", " low ", TypeFeature, PriorityLow},
		{"unknown_type", "defect", "medium", TypeOther, PriorityMedium},
		{"unknown_priority", "question", "urgent", TypeQuestion, PriorityMedium},
		{"empty", "", "", TypeOther, PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := `{"issue_type": "` + tt.issueType + `", "priority": "` + tt.priority + `", "suggested_labels": [], "summary": "s", "reasoning": "r", "confidence": 0.5}`
			mock := &mockCompleter{responses: []string{resp}}
			a := NewAnalyzer(mock, 4000, 10*time.Second)

			rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
			if err != nil {
				t.Fatalf("Analyze returned error: %v", err)
			}
			if rec.IssueType != tt.wantType {
				t.Errorf("expected issue type %q, got %q", tt.wantType, rec.IssueType)
			}
			if rec.Priority != tt.wantPriority {
				t.Errorf("expected priority %q, got %q", tt.wantPriority, rec.Priority)
			}
		})
	}
}

func TestAnalyze_PartitionsLabels(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{`{"issue_type": "bug", "priority": "medium", "suggested_labels": ["bug", "crash", "bug", " enhancement"], "summary": "s", "reasoning": "r", "confidence": 0.6}`},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if len(rec.SuggestedLabels) != 2 || rec.SuggestedLabels[0] != "bug" || rec.SuggestedLabels[1] != "enhancement" {
		t.Errorf("expected suggested labels [bug enhancement], got %v", rec.SuggestedLabels)
	}
	if len(rec.NewLabels) != 1 || rec.NewLabels[0] != "crash" {
		t.Errorf("expected new labels [crash], got %v", rec.NewLabels)
	}
}

func TestAnalyze_ClampsConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"above_one", "1.5", 1},
		{"negative", "-0.2", 0},
		{"in_range", "0.3", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := `{"issue_type": "bug", "priority": "low", "suggested_labels": [], "summary": "s", "reasoning": "r", "confidence": ` + tt.in + `}`
			mock := &mockCompleter{responses: []string{resp}}
			a := NewAnalyzer(mock, 4000, 10*time.Second)

			rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
			if err != nil {
				t.Fatalf("Analyze returned error: %v", err)
			}
			if rec.Confidence != tt.want {
				t.Errorf("expected confidence %f, got %f", tt.want, rec.Confidence)
			}
		})
	}
}

func TestAnalyze_DefaultSummary(t *testing.T) {
	mock := &mockCompleter{
		responses: []string{`{"issue_type": "bug", "priority": "low", "suggested_labels": [], "summary": "", "reasoning": "r", "confidence": 0.4}`},
	}
	a := NewAnalyzer(mock, 4000, 10*time.Second)

	rec, err := a.Analyze(context.Background(), testIssue, testRepoContext())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if rec.Summary == "" {
		t.Error("expected a default summary for empty model output")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain", `{"issue_type": "bug"}`, false},
		{"fenced", "```json\n{\"issue_type\": \"bug\"}\n```", false},
		{"fenced_no_lang", "```\n{\"issue_type\": \"bug\"}\n```", false},
		{"surrounding_whitespace", "  \n{\"issue_type\": \"bug\"}\n  ", false},
		{"prose", "the issue is a bug", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw)
			if tt.wantErr && err == nil {
				t.Error("expected parse error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected parse error: %v", err)
			}
		})
	}
}
