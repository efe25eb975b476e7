package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v60/github"
)

// ErrNotFound indicates the requested issue or repository does not exist.
var ErrNotFound = errors.New("not found")

// docFiles are the candidate documentation files fetched for repository
// context. Missing files are skipped, not errors.
var docFiles = []string{
	"README.md",
	"CONTRIBUTING.md",
	"CHANGELOG.md",
	"docs/README.md",
	"docs/CONTRIBUTING.md",
}

// docExcerptLimit caps the size of each documentation excerpt included in
// repository context.
const docExcerptLimit = 2000

// Service wraps the GitHub REST API for a single repository: context
// gathering, issue reads, and the label/assignee/comment mutations.
type Service struct {
	client  *gogithub.Client
	owner   string
	repo    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a Service for owner/repo. Every API call is bounded by
// timeout (default 15s when zero).
func NewService(client *gogithub.Client, owner, repo string, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		owner:   owner,
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

// FullName returns the owner/repo identifier.
func (s *Service) FullName() string {
	return s.owner + "/" + s.repo
}

// FetchContext gathers repository metadata, labels, contributors, and
// documentation excerpts. Only a repository-metadata failure is fatal;
// partial failures of labels, contributors, or docs are recorded as
// warnings on the returned context.
func (s *Service) FetchContext(ctx context.Context) (*RepoContext, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("repository %s: %w", s.FullName(), ErrNotFound)
		}
		return nil, fmt.Errorf("fetching repository %s: %w", s.FullName(), err)
	}

	rc := &RepoContext{
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Topics:      repo.Topics,
		Docs:        make(map[string]string),
	}

	labels, err := s.listLabels(ctx)
	if err != nil {
		rc.Warnings = append(rc.Warnings, fmt.Sprintf("labels unavailable: %v", err))
		s.logger.Warn("fetching labels failed", "repo", s.FullName(), "error", err)
	} else {
		rc.Labels = labels
	}

	contributors, err := s.listContributors(ctx)
	if err != nil {
		rc.Warnings = append(rc.Warnings, fmt.Sprintf("contributors unavailable: %v", err))
		s.logger.Warn("fetching contributors failed", "repo", s.FullName(), "error", err)
	} else {
		rc.Contributors = contributors
	}

	for _, path := range docFiles {
		content, err := s.fileContent(ctx, path)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				rc.Warnings = append(rc.Warnings, fmt.Sprintf("doc %s unavailable: %v", path, err))
			}
			continue
		}
		if len(content) > docExcerptLimit {
			content = content[:docExcerptLimit]
		}
		rc.Docs[path] = content
	}

	return rc, nil
}

// GetIssue fetches a single issue by number.
func (s *Service) GetIssue(ctx context.Context, number int) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ghIssue, _, err := s.client.Issues.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("issue #%d: %w", number, ErrNotFound)
		}
		return nil, fmt.Errorf("fetching issue #%d: %w", number, err)
	}

	issue := convertIssue(ghIssue)
	return &issue, nil
}

// CountIssues returns the number of open and closed issues in the
// repository, excluding pull requests.
func (s *Service) CountIssues(ctx context.Context) (open, closed int, err error) {
	opts := &gogithub.IssueListByRepoOptions{
		State: "all",
		ListOptions: gogithub.ListOptions{
			PerPage: 100,
		},
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		issues, resp, err := s.client.Issues.ListByRepo(callCtx, s.owner, s.repo, opts)
		cancel()
		if err != nil {
			return 0, 0, fmt.Errorf("listing issues: %w", err)
		}

		for _, ghIssue := range issues {
			// GitHub's issue list includes pull requests.
			if ghIssue.PullRequestLinks != nil {
				continue
			}
			if ghIssue.GetState() == "open" {
				open++
			} else {
				closed++
			}
		}

		if resp != nil {
			if rl := ParseRateLimit(resp.Response); rl.ShouldThrottle() {
				s.logger.Warn("GitHub rate limit low", "remaining", rl.Remaining, "reset_in", rl.WaitDuration())
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return open, closed, nil
}

// AddLabels adds labels to an issue. Labels must already exist in the
// repository unless created first via CreateLabel.
func (s *Service) AddLabels(ctx context.Context, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, _, err := s.client.Issues.AddLabelsToIssue(ctx, s.owner, s.repo, number, labels)
	if err != nil {
		return fmt.Errorf("adding labels to issue #%d: %w", number, err)
	}
	return nil
}

// CreateLabel creates a repository label. A 422 (label already exists) is
// not an error.
func (s *Service) CreateLabel(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, resp, err := s.client.Issues.CreateLabel(ctx, s.owner, s.repo, &gogithub.Label{
		Name:  gogithub.String(name),
		Color: gogithub.String("ededed"),
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return nil
		}
		return fmt.Errorf("creating label %q: %w", name, err)
	}
	return nil
}

// Assign assigns an issue to a user.
func (s *Service) Assign(ctx context.Context, number int, login string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, _, err := s.client.Issues.AddAssignees(ctx, s.owner, s.repo, number, []string{login})
	if err != nil {
		return fmt.Errorf("assigning issue #%d to %s: %w", number, login, err)
	}
	return nil
}

// Comment posts a comment on an issue.
func (s *Service) Comment(ctx context.Context, number int, body string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, _, err := s.client.Issues.CreateComment(ctx, s.owner, s.repo, number, &gogithub.IssueComment{
		Body: gogithub.String(body),
	})
	if err != nil {
		return fmt.Errorf("commenting on issue #%d: %w", number, err)
	}
	return nil
}

func (s *Service) listLabels(ctx context.Context) ([]Label, error) {
	var all []Label
	opts := &gogithub.ListOptions{PerPage: 100}

	for {
		labels, resp, err := s.client.Issues.ListLabels(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			all = append(all, Label{
				Name:        l.GetName(),
				Color:       l.GetColor(),
				Description: l.GetDescription(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (s *Service) listContributors(ctx context.Context) ([]Contributor, error) {
	var all []Contributor
	opts := &gogithub.ListContributorsOptions{
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}

	for {
		contributors, resp, err := s.client.Repositories.ListContributors(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range contributors {
			all = append(all, Contributor{
				Login:         c.GetLogin(),
				Contributions: c.GetContributions(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return all, nil
}

func (s *Service) fileContent(ctx context.Context, path string) (string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, nil)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("path %s is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

// convertIssue converts a go-github issue to the internal representation.
func convertIssue(gh *gogithub.Issue) Issue {
	issue := Issue{
		Number: gh.GetNumber(),
		Title:  gh.GetTitle(),
		Body:   gh.GetBody(),
		State:  gh.GetState(),
	}
	if gh.User != nil {
		issue.User = User{
			Login:     gh.User.GetLogin(),
			ID:        gh.User.GetID(),
			AvatarURL: gh.User.GetAvatarURL(),
			Type:      gh.User.GetType(),
		}
	}
	for _, label := range gh.Labels {
		issue.Labels = append(issue.Labels, label.GetName())
	}
	if gh.Assignee != nil {
		issue.Assignee = gh.Assignee.GetLogin()
	}
	if gh.CreatedAt != nil {
		issue.CreatedAt = gh.CreatedAt.Time
	}
	if gh.UpdatedAt != nil {
		issue.UpdatedAt = gh.UpdatedAt.Time
	}
	return issue
}

// isNotFound reports whether err is a GitHub API 404.
func isNotFound(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
