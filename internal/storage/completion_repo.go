package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CompletionRepo reads the completion ledger. Rows are written by
// TaskRepo.Complete.
type CompletionRepo struct {
	db *DB
}

func NewCompletionRepo(db *DB) *CompletionRepo {
	return &CompletionRepo{db: db}
}

func (r *CompletionRepo) Count(ctx context.Context, taskID string) (int, error) {
	return countCompletions(ctx, r.db.Conn, taskID)
}

func countCompletions(ctx context.Context, c *Conn, taskID string) (int, error) {
	row := c.queryRow(ctx, `SELECT COUNT(*) FROM task_completions WHERE task_id = ?`, taskID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("completion count: %w", err)
	}
	return n, nil
}

func (r *CompletionRepo) ListByTask(ctx context.Context, taskID string) ([]Completion, error) {
	rows, err := r.db.query(ctx, `
		SELECT id, task_id, user_id, completed_at, difficulty, due_at
		FROM task_completions
		WHERE task_id = ?
		ORDER BY completed_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("completion list: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var (
			c         Completion
			completed string
			due       sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &completed, &c.Difficulty, &due); err != nil {
			return nil, fmt.Errorf("completion scan: %w", err)
		}
		if c.CompletedAt, err = parseTime(completed); err != nil {
			return nil, fmt.Errorf("completion scan: %w", err)
		}
		if due.Valid {
			v, err := parseTime(due.String)
			if err != nil {
				return nil, fmt.Errorf("completion scan: %w", err)
			}
			c.DueAt = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completion list rows: %w", err)
	}
	return out, nil
}
