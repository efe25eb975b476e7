// Package vector stores issue embeddings and answers nearest-neighbor
// queries over them. It is strictly best-effort: the processing pipeline
// must keep working when no store is configured or a call fails.
package vector

import (
	"context"
	"fmt"
	"sort"

	"issuepilot/internal/store"
)

// Match is a similar issue found by a query.
type Match struct {
	IssueNumber int     `json:"issue_number"`
	Title       string  `json:"title"`
	Score       float32 `json:"score"`
}

// Store stores issue embeddings and queries them by similarity.
type Store interface {
	// Upsert stores the embedding for an issue.
	Upsert(ctx context.Context, issueNumber int, title, author string, embedding []float32) error
	// Query returns up to topK issues most similar to the embedding,
	// best first. The issue numbered like a stored embedding is excluded
	// by callers, not here.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	// Available reports whether the store can serve requests.
	Available() bool
}

// SQLiteStore keeps embeddings in the local SQLite database and scans them
// with cosine similarity. Adequate for repository-sized issue counts; a
// dedicated vector database would replace this for larger corpora.
type SQLiteStore struct {
	db    *store.DB
	model string
}

// NewSQLiteStore creates a SQLiteStore recording embeddings produced by the
// named model.
func NewSQLiteStore(db *store.DB, model string) *SQLiteStore {
	return &SQLiteStore{db: db, model: model}
}

// Upsert stores the embedding for an issue.
func (s *SQLiteStore) Upsert(ctx context.Context, issueNumber int, title, author string, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for issue #%d", issueNumber)
	}
	return s.db.UpsertEmbedding(&store.IssueEmbedding{
		IssueNumber: issueNumber,
		Title:       title,
		Author:      author,
		Embedding:   Encode(embedding),
		Model:       s.model,
	})
}

// Query scans all stored embeddings and returns the topK most similar,
// best first. Embeddings with mismatched dimensions (from an older model)
// are skipped.
func (s *SQLiteStore) Query(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	stored, err := s.db.ListEmbeddings()
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	matches := make([]Match, 0, len(stored))
	for _, e := range stored {
		score, err := CosineSimilarity(embedding, Decode(e.Embedding))
		if err != nil {
			continue
		}
		matches = append(matches, Match{
			IssueNumber: e.IssueNumber,
			Title:       e.Title,
			Score:       score,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Available reports whether the store can serve requests.
func (s *SQLiteStore) Available() bool {
	return s != nil && s.db != nil
}

var _ Store = (*SQLiteStore)(nil)
