package store

import (
	"database/sql"
	"fmt"
)

// IssueEmbedding is a stored embedding for an issue.
type IssueEmbedding struct {
	IssueNumber int
	Title       string
	Author      string
	Embedding   []byte
	Model       string
}

// UpsertEmbedding stores or replaces the embedding for an issue.
func (d *DB) UpsertEmbedding(e *IssueEmbedding) error {
	_, err := d.db.Exec(`
		INSERT INTO embeddings (issue_number, title, author, embedding, model)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(issue_number) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			embedding = excluded.embedding,
			model = excluded.model,
			updated_at = datetime('now')`,
		e.IssueNumber, e.Title, nullStr(e.Author), e.Embedding, nullStr(e.Model))
	if err != nil {
		return fmt.Errorf("upserting embedding for issue #%d: %w", e.IssueNumber, err)
	}
	return nil
}

// ListEmbeddings returns all stored embeddings.
func (d *DB) ListEmbeddings() ([]IssueEmbedding, error) {
	rows, err := d.db.Query(`
		SELECT issue_number, title, COALESCE(author, ''), embedding, COALESCE(model, '')
		FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("listing embeddings: %w", err)
	}
	defer rows.Close()

	var all []IssueEmbedding
	for rows.Next() {
		var e IssueEmbedding
		if err := rows.Scan(&e.IssueNumber, &e.Title, &e.Author, &e.Embedding, &e.Model); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		all = append(all, e)
	}
	return all, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
