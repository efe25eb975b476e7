// Package notify delivers processing results to chat webhooks for human
// review.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"issuepilot/internal/agent"
)

// Notifier sends notifications about processing results.
type Notifier interface {
	Notify(ctx context.Context, repo string, result agent.Result) error
}

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier from the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify sends the result to all configured notifiers. It logs errors from
// individual notifiers but continues to the rest. Returns the last error
// encountered, if any.
func (m *MultiNotifier) Notify(ctx context.Context, repo string, result agent.Result) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, repo, result); err != nil {
			slog.Warn("notifier error", "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// NewNotifier creates a Notifier from the configured webhook URLs. Returns
// nil when neither is set.
func NewNotifier(slackURL, discordURL string) Notifier {
	var notifiers []Notifier
	if slackURL != "" {
		notifiers = append(notifiers, NewSlackNotifier(slackURL))
	}
	if discordURL != "" {
		notifiers = append(notifiers, NewDiscordNotifier(discordURL))
	}
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	default:
		return NewMultiNotifier(notifiers...)
	}
}

// Run subscribes to results on ch and notifies until ch closes or the
// context is cancelled. Intended to run as a background goroutine next to
// the HTTP server.
func Run(ctx context.Context, n Notifier, repo string, ch <-chan agent.Result, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Notify(ctx, repo, result); err != nil {
				logger.Warn("notification failed", "issue", result.IssueNumber, "error", err)
			}
		}
	}
}

// issueURL builds the GitHub link for an issue.
func issueURL(repo string, number int) string {
	return fmt.Sprintf("https://github.com/%s/issues/%d", repo, number)
}
