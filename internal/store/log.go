package store

import (
	"fmt"
	"strings"
	"time"
)

// ProcessingLog is one audit record of a processing run.
type ProcessingLog struct {
	ID                int64
	IssueNumber       int
	Success           bool
	IssueType         string
	Priority          string
	SuggestedLabels   []string
	SuggestedAssignee string
	Confidence        float64
	ActionsApplied    bool
	Error             string
	CreatedAt         time.Time
}

// LogProcessing appends an audit record for a processing run.
func (d *DB) LogProcessing(rec *ProcessingLog) error {
	_, err := d.db.Exec(`
		INSERT INTO processing_log
			(issue_number, success, issue_type, priority, suggested_labels,
			 suggested_assignee, confidence, actions_applied, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.IssueNumber, rec.Success,
		nullStr(rec.IssueType), nullStr(rec.Priority),
		nullStr(strings.Join(rec.SuggestedLabels, ", ")),
		nullStr(rec.SuggestedAssignee), rec.Confidence,
		rec.ActionsApplied, nullStr(rec.Error))
	if err != nil {
		return fmt.Errorf("logging processing run for issue #%d: %w", rec.IssueNumber, err)
	}
	return nil
}

// ProcessingHistory returns audit records for an issue, newest first.
func (d *DB) ProcessingHistory(issueNumber int) ([]ProcessingLog, error) {
	rows, err := d.db.Query(`
		SELECT id, issue_number, success,
			COALESCE(issue_type, ''), COALESCE(priority, ''),
			COALESCE(suggested_labels, ''), COALESCE(suggested_assignee, ''),
			confidence, actions_applied, COALESCE(error, ''), created_at
		FROM processing_log
		WHERE issue_number = ?
		ORDER BY id DESC`, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("querying processing log: %w", err)
	}
	defer rows.Close()

	var out []ProcessingLog
	for rows.Next() {
		var rec ProcessingLog
		var labels, createdAt string
		if err := rows.Scan(&rec.ID, &rec.IssueNumber, &rec.Success,
			&rec.IssueType, &rec.Priority, &labels, &rec.SuggestedAssignee,
			&rec.Confidence, &rec.ActionsApplied, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning processing log row: %w", err)
		}
		if labels != "" {
			rec.SuggestedLabels = strings.Split(labels, ", ")
		}
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
