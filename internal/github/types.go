package github

import "time"

// User is a GitHub account referenced by an issue.
type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Issue represents a GitHub issue.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	State     string    `json:"state,omitempty"`
	User      User      `json:"user"`
	Labels    []string  `json:"labels,omitempty"`
	Assignee  string    `json:"assignee,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Label is a repository label.
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Contributor is a repository contributor with a contribution count.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// RepoContext is the repository context used to ground issue analysis.
// Built fresh per request and immutable once constructed.
type RepoContext struct {
	Name         string            `json:"name"`
	FullName     string            `json:"full_name"`
	Description  string            `json:"description,omitempty"`
	Language     string            `json:"language,omitempty"`
	Topics       []string          `json:"topics,omitempty"`
	Labels       []Label           `json:"labels,omitempty"`
	Contributors []Contributor     `json:"contributors,omitempty"`
	Docs         map[string]string `json:"docs,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// LabelNames returns the names of the available labels.
func (c *RepoContext) LabelNames() []string {
	names := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		names[i] = l.Name
	}
	return names
}

// HasContributor reports whether login is a known contributor.
func (c *RepoContext) HasContributor(login string) bool {
	for _, u := range c.Contributors {
		if u.Login == login {
			return true
		}
	}
	return false
}
