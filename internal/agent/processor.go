// Package agent orchestrates issue processing: gather repository context,
// request an AI recommendation, and optionally apply the recommended
// actions back to GitHub.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"issuepilot/internal/analyze"
	"issuepilot/internal/github"
	"issuepilot/internal/provider"
	"issuepilot/internal/pubsub"
	"issuepilot/internal/store"
	"issuepilot/internal/vector"
)

// embedTextLimit bounds the issue text sent to the embedding provider.
const embedTextLimit = 8000

// RepoClient is the subset of the GitHub service the processor needs.
type RepoClient interface {
	FullName() string
	FetchContext(ctx context.Context) (*github.RepoContext, error)
	GetIssue(ctx context.Context, number int) (*github.Issue, error)
	CountIssues(ctx context.Context) (open, closed int, err error)
	AddLabels(ctx context.Context, number int, labels []string) error
	CreateLabel(ctx context.Context, name string) error
	Assign(ctx context.Context, number int, login string) error
	Comment(ctx context.Context, number int, body string) error
}

// Analyzer produces a Recommendation for an issue. The returned
// Recommendation must always be usable even when err is non-nil.
type Analyzer interface {
	Analyze(ctx context.Context, issue github.Issue, rctx *github.RepoContext) (*analyze.Recommendation, error)
}

// Deps holds the dependencies for the Processor. GitHub and Analyzer are
// required; everything else is optional and skipped when nil.
type Deps struct {
	GitHub         RepoClient
	Analyzer       Analyzer
	Embedder       provider.Embedder
	Vectors        vector.Store
	Log            *store.DB
	Broker         *pubsub.Broker[Result]
	Logger         *slog.Logger
	AllowNewLabels bool
	Workers        int
	TopK           int
}

// Processor sequences the issue pipeline: verify happens upstream at the
// webhook boundary; here it is gather context, analyze, apply.
type Processor struct {
	deps Deps

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// New creates a Processor with the given dependencies.
func New(deps Deps) *Processor {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Workers <= 0 {
		deps.Workers = 3
	}
	if deps.TopK <= 0 {
		deps.TopK = 5
	}
	return &Processor{deps: deps}
}

// Counters returns a snapshot of the processing counters.
func (p *Processor) Counters() Counters {
	return Counters{
		Processed: p.processed.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
	}
}

// ProcessNew runs the pipeline for a freshly submitted issue payload.
func (p *Processor) ProcessNew(ctx context.Context, issue github.Issue, autoApply bool) Result {
	result, _ := p.process(ctx, issue, autoApply)
	return result
}

// ProcessExisting fetches an issue by number and runs the pipeline on it.
// The returned error is the unrecoverable cause when the result is a
// failure (notably github.ErrNotFound), for status mapping at the API.
func (p *Processor) ProcessExisting(ctx context.Context, number int, autoApply bool) (Result, error) {
	issue, err := p.deps.GitHub.GetIssue(ctx, number)
	if err != nil {
		p.deps.Logger.Error("fetching issue failed", "issue", number, "error", err)
		return p.fail(Result{IssueNumber: number}, err), err
	}
	return p.process(ctx, *issue, autoApply)
}

// ProcessBatch processes the issues through a bounded worker pool. Results
// are ordered to match numbers, and one issue's failure never aborts the
// rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context, numbers []int, autoApply bool) BatchResult {
	results := make([]Result, len(numbers))

	sem := make(chan struct{}, p.deps.Workers)
	var wg sync.WaitGroup

	for i, number := range numbers {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot, n int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[slot], _ = p.ProcessExisting(ctx, n, autoApply)
		}(i, number)
	}
	wg.Wait()

	batch := BatchResult{
		TotalProcessed: len(numbers),
		Results:        results,
	}
	for _, r := range results {
		if r.Success {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// Recommend analyzes an issue without applying any actions and augments the
// answer with similar issues and a context subset.
func (p *Processor) Recommend(ctx context.Context, issue github.Issue) Advice {
	rctx, err := p.deps.GitHub.FetchContext(ctx)
	if err != nil {
		p.deps.Logger.Error("fetching repository context failed", "error", err)
		return Advice{Error: err.Error()}
	}

	rec, aerr := p.deps.Analyzer.Analyze(ctx, issue, rctx)
	if aerr != nil {
		p.deps.Logger.Warn("analysis degraded to fallback", "issue", issue.Number, "error", aerr)
	}

	advice := Advice{
		Success:  true,
		Analysis: rec,
		Labels:   rctx.LabelNames(),
		Topics:   rctx.Topics,
	}
	for _, c := range rctx.Contributors {
		advice.Contributors = append(advice.Contributors, c.Login)
	}

	if emb := p.embed(ctx, issue); emb != nil {
		matches, err := p.deps.Vectors.Query(ctx, emb, p.deps.TopK)
		if err != nil {
			p.deps.Logger.Warn("similar-issue query failed", "error", err)
		} else {
			advice.SimilarIssues = filterSelf(matches, issue.Number)
		}
	}

	return advice
}

// Stats gathers live issue counts plus process counters.
func (p *Processor) Stats(ctx context.Context) (Stats, error) {
	open, closed, err := p.deps.GitHub.CountIssues(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting issues: %w", err)
	}
	return Stats{
		TotalIssues:     open + closed,
		OpenIssues:      open,
		ClosedIssues:    closed,
		VectorAvailable: p.deps.Vectors != nil && p.deps.Vectors.Available(),
		Repository:      p.deps.GitHub.FullName(),
		Counters:        p.Counters(),
	}, nil
}

// process is the shared pipeline both entry points converge on.
func (p *Processor) process(ctx context.Context, issue github.Issue, autoApply bool) (Result, error) {
	logger := p.deps.Logger.With("issue", issue.Number, "auto_apply", autoApply)
	start := time.Now()

	state := StateReceived
	logger.Debug("pipeline state", "state", state.String())

	result := Result{IssueNumber: issue.Number}

	rctx, err := p.deps.GitHub.FetchContext(ctx)
	if err != nil {
		logger.Error("fetching repository context failed", "error", err)
		return p.fail(result, err), err
	}
	result.Warnings = rctx.Warnings
	state = StateContextGathered
	logger.Debug("pipeline state", "state", state.String(), "warnings", len(rctx.Warnings))

	rec, aerr := p.deps.Analyzer.Analyze(ctx, issue, rctx)
	if aerr != nil {
		logger.Warn("analysis degraded to fallback", "error", aerr)
	}
	result.Analysis = rec
	state = StateAnalyzed
	logger.Debug("pipeline state", "state", state.String(),
		"issue_type", rec.IssueType, "priority", rec.Priority, "confidence", rec.Confidence)

	p.storeEmbedding(ctx, issue, logger)

	result.SummaryComment = BuildSummaryComment(rec)

	if autoApply {
		result.ActionErrors = p.applyActions(ctx, issue.Number, rec, rctx, result.SummaryComment, logger)
		result.ActionsApplied = true
		state = StateActionsApplied
	} else {
		state = StateSkipped
	}
	logger.Debug("pipeline state", "state", state.String())

	result.Success = true
	state = StateDone
	logger.Info("issue processed",
		"state", state.String(),
		"labels", len(rec.SuggestedLabels),
		"duration", time.Since(start))

	p.finish(result)
	return result, nil
}

// applyActions performs the GitHub mutations for a recommendation. Each
// action failure is recorded and the remaining actions still run.
func (p *Processor) applyActions(ctx context.Context, number int, rec *analyze.Recommendation, rctx *github.RepoContext, comment string, logger *slog.Logger) []string {
	var actionErrs []string
	record := func(action string, err error) {
		logger.Warn("action failed", "action", action, "error", err)
		actionErrs = append(actionErrs, fmt.Sprintf("%s: %v", action, err))
	}

	labels := append([]string{}, rec.SuggestedLabels...)
	if p.deps.AllowNewLabels {
		for _, name := range rec.NewLabels {
			if err := p.deps.GitHub.CreateLabel(ctx, name); err != nil {
				record("create_label", err)
				continue
			}
			labels = append(labels, name)
		}
	}
	if len(labels) > 0 {
		if err := p.deps.GitHub.AddLabels(ctx, number, labels); err != nil {
			record("add_labels", err)
		}
	}

	if rec.SuggestedAssignee != "" {
		if rctx.HasContributor(rec.SuggestedAssignee) {
			if err := p.deps.GitHub.Assign(ctx, number, rec.SuggestedAssignee); err != nil {
				record("assign", err)
			}
		} else {
			record("assign", fmt.Errorf("%s is not a known contributor", rec.SuggestedAssignee))
		}
	}

	if err := p.deps.GitHub.Comment(ctx, number, comment); err != nil {
		record("comment", err)
	}

	return actionErrs
}

// storeEmbedding computes and stores the issue embedding. Strictly
// best-effort: failures are logged and never surface to the pipeline.
func (p *Processor) storeEmbedding(ctx context.Context, issue github.Issue, logger *slog.Logger) {
	emb := p.embed(ctx, issue)
	if emb == nil {
		return
	}
	if err := p.deps.Vectors.Upsert(ctx, issue.Number, issue.Title, issue.User.Login, emb); err != nil {
		logger.Warn("storing embedding failed", "error", err)
	}
}

// embed returns the issue embedding, or nil when no embedding provider or
// vector store is configured or the call fails.
func (p *Processor) embed(ctx context.Context, issue github.Issue) []float32 {
	if p.deps.Embedder == nil || p.deps.Vectors == nil || !p.deps.Vectors.Available() {
		return nil
	}
	text := issue.Title + "\n" + issue.Body
	if len(text) > embedTextLimit {
		text = text[:embedTextLimit]
	}
	emb, err := p.deps.Embedder.Embed(ctx, text)
	if err != nil {
		p.deps.Logger.Warn("embedding failed", "issue", issue.Number, "error", err)
		return nil
	}
	return emb
}

func filterSelf(matches []vector.Match, number int) []vector.Match {
	out := matches[:0]
	for _, m := range matches {
		if m.IssueNumber != number {
			out = append(out, m)
		}
	}
	return out
}

// fail finalizes a Result in the failed terminal state.
func (p *Processor) fail(result Result, err error) Result {
	result.Success = false
	result.Error = err.Error()
	p.processed.Add(1)
	p.failed.Add(1)
	p.audit(result)
	return result
}

// finish updates counters, audit log, and broker for a completed result.
func (p *Processor) finish(result Result) {
	p.processed.Add(1)
	if result.Success {
		p.succeeded.Add(1)
	} else {
		p.failed.Add(1)
	}
	p.audit(result)
	if p.deps.Broker != nil {
		p.deps.Broker.Publish(result)
	}
}

// audit writes the processing log record. Best-effort.
func (p *Processor) audit(result Result) {
	if p.deps.Log == nil {
		return
	}
	rec := &store.ProcessingLog{
		IssueNumber:    result.IssueNumber,
		Success:        result.Success,
		ActionsApplied: result.ActionsApplied,
		Error:          result.Error,
	}
	if result.Analysis != nil {
		rec.IssueType = string(result.Analysis.IssueType)
		rec.Priority = string(result.Analysis.Priority)
		rec.SuggestedLabels = result.Analysis.SuggestedLabels
		rec.SuggestedAssignee = result.Analysis.SuggestedAssignee
		rec.Confidence = result.Analysis.Confidence
	}
	if err := p.deps.Log.LogProcessing(rec); err != nil {
		p.deps.Logger.Warn("writing processing log failed", "error", err)
	}
}
