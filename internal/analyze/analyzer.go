// Package analyze turns a GitHub issue plus repository context into a
// structured Recommendation by prompting an LLM completer.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"issuepilot/internal/github"
	"issuepilot/internal/provider"
)

// Analyzer asks an LLM completer to classify, prioritize, and summarize
// GitHub issues.
type Analyzer struct {
	completer provider.Completer
	maxTokens int
	timeout   time.Duration
}

// NewAnalyzer creates an Analyzer with the given completer, prompt token
// budget, and request timeout. If timeout is zero, defaults to 90 seconds.
func NewAnalyzer(completer provider.Completer, maxTokens int, timeout time.Duration) *Analyzer {
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &Analyzer{
		completer: completer,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// llmRecommendation is the expected JSON structure from the LLM.
type llmRecommendation struct {
	IssueType         string   `json:"issue_type"`
	Priority          string   `json:"priority"`
	SuggestedLabels   []string `json:"suggested_labels"`
	SuggestedAssignee string   `json:"suggested_assignee"`
	Summary           string   `json:"summary"`
	Reasoning         string   `json:"reasoning"`
	Confidence        float64  `json:"confidence"`
}

// codeFenceRe matches markdown code fences around JSON.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\\s*```")

// parseResponse parses the LLM's JSON response, stripping markdown fences if present.
func parseResponse(raw string) (*llmRecommendation, error) {
	cleaned := strings.TrimSpace(raw)

	if matches := codeFenceRe.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = strings.TrimSpace(matches[1])
	}

	var rec llmRecommendation
	if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", provider.ErrInvalidResponse, err)
	}
	return &rec, nil
}

const retryPromptSuffix = `

IMPORTANT: You MUST respond with ONLY valid JSON. No markdown, no code fences, no extra text.
Example: {"issue_type": "bug", "priority": "medium", "suggested_labels": ["bug"], "suggested_assignee": null, "summary": "...", "reasoning": "...", "confidence": 0.8}`

// Analyze produces a Recommendation for the issue. The returned
// Recommendation is always usable: on API failure or unparseable output
// (after one strict-JSON retry) it is the neutral fallback and the
// underlying error is returned alongside it for logging.
func (a *Analyzer) Analyze(ctx context.Context, issue github.Issue, rctx *github.RepoContext) (*Recommendation, error) {
	prompt, err := BuildPrompt(issue, rctx, a.maxTokens)
	if err != nil {
		return Fallback("prompt construction failed"), fmt.Errorf("building prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return Fallback("model request failed"), fmt.Errorf("completing prompt: %w", err)
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		// Retry once with a stricter prompt before giving up.
		raw, retryErr := a.completer.Complete(ctx, prompt+retryPromptSuffix)
		if retryErr != nil {
			return Fallback("model request failed on retry"), fmt.Errorf("completing retry prompt: %w", retryErr)
		}
		parsed, err = parseResponse(raw)
		if err != nil {
			return Fallback("model output was not valid JSON"), fmt.Errorf("parsing model output after retry: %w", err)
		}
	}

	return normalize(parsed, rctx), nil
}

// normalize shapes raw model output into a valid Recommendation: enums are
// mapped onto their fixed sets, confidence is clamped to [0, 1], and labels
// are deduplicated and partitioned into existing versus new relative to the
// repository's available labels.
func normalize(raw *llmRecommendation, rctx *github.RepoContext) *Recommendation {
	rec := &Recommendation{
		IssueType:         NormalizeIssueType(strings.ToLower(strings.TrimSpace(raw.IssueType))),
		Priority:          NormalizePriority(strings.ToLower(strings.TrimSpace(raw.Priority))),
		SuggestedAssignee: strings.TrimSpace(raw.SuggestedAssignee),
		Summary:           strings.TrimSpace(raw.Summary),
		Reasoning:         strings.TrimSpace(raw.Reasoning),
		Confidence:        clamp01(raw.Confidence),
	}

	available := make(map[string]bool, len(rctx.Labels))
	for _, l := range rctx.Labels {
		available[l.Name] = true
	}

	seen := make(map[string]bool, len(raw.SuggestedLabels))
	for _, name := range raw.SuggestedLabels {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if available[name] {
			rec.SuggestedLabels = append(rec.SuggestedLabels, name)
		} else {
			rec.NewLabels = append(rec.NewLabels, name)
		}
	}

	if rec.Summary == "" {
		rec.Summary = "No summary provided."
	}
	return rec
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
