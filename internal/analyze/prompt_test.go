package analyze

import (
	"strings"
	"testing"
)

func TestBuildPrompt_IncludesContext(t *testing.T) {
	rctx := testRepoContext()
	rctx.Description = "A widget factory"
	rctx.Topics = []string{"go", "widgets"}
	rctx.Docs = map[string]string{
		"README.md":       "Widget builds widgets.",
		"CONTRIBUTING.md": "Run the tests first.",
	}

	prompt, err := BuildPrompt(testIssue, rctx, 4000)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}

	for _, want := range []string{
		"acme/widget",
		"A widget factory",
		"go, widgets",
		"bug, enhancement, documentation",
		"alice, bob",
		"README.md",
		"Widget builds widgets.",
		"App crashes on startup",
		"reporter",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_RequiresTitle(t *testing.T) {
	issue := testIssue
	issue.Title = ""
	if _, err := BuildPrompt(issue, testRepoContext(), 4000); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestBuildPrompt_RequiresContext(t *testing.T) {
	if _, err := BuildPrompt(testIssue, nil, 4000); err == nil {
		t.Error("expected error for nil repository context")
	}
}

func TestBuildPrompt_TruncatesLongBody(t *testing.T) {
	issue := testIssue
	issue.Body = strings.Repeat("x", maxBodyChars*2)

	prompt, err := BuildPrompt(issue, testRepoContext(), 100000)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	if strings.Contains(prompt, strings.Repeat("x", maxBodyChars+1)) {
		t.Error("expected body to be truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("x", maxBodyChars)) {
		t.Error("expected truncated body to be present")
	}
}

func TestBuildPrompt_RespectsTokenBudget(t *testing.T) {
	issue := testIssue
	issue.Body = strings.Repeat("word ", 500)

	prompt, err := BuildPrompt(issue, testRepoContext(), 100)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	if len(prompt) > 100*charsPerToken {
		t.Errorf("prompt exceeds budget: %d chars", len(prompt))
	}
}

func TestBuildPrompt_DocOrderDeterministic(t *testing.T) {
	rctx := testRepoContext()
	rctx.Docs = map[string]string{
		"docs/README.md": "nested",
		"CHANGELOG.md":   "changes",
		"README.md":      "root",
	}

	prompt, err := BuildPrompt(testIssue, rctx, 4000)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}

	first := strings.Index(prompt, "CHANGELOG.md")
	second := strings.Index(prompt, "README.md")
	third := strings.Index(prompt, "docs/README.md")
	if first == -1 || second == -1 || third == -1 {
		t.Fatal("expected all doc paths in prompt")
	}
	if !(first < second && second < third) {
		t.Errorf("doc paths not in sorted order: %d, %d, %d", first, second, third)
	}
}

func TestBuildPrompt_TruncatesDocExcerpts(t *testing.T) {
	rctx := testRepoContext()
	rctx.Docs = map[string]string{
		"README.md": strings.Repeat("d", maxDocChars*3),
	}

	prompt, err := BuildPrompt(testIssue, rctx, 100000)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	if strings.Contains(prompt, strings.Repeat("d", maxDocChars+1)) {
		t.Error("expected doc excerpt to be truncated")
	}
}
