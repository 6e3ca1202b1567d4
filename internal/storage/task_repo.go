package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"focusquest/internal/recurrence"
)

type TaskRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db, logger: slog.Default()}
}

// WithLogger sets where list queries report rows they had to skip.
func (r *TaskRepo) WithLogger(l *slog.Logger) *TaskRepo {
	r.logger = l
	return r
}

const taskColumns = `id, user_id, title, description, difficulty, recurrence, next_due, active, created_at, archived_at`

func (r *TaskRepo) Insert(ctx context.Context, t Task) error {
	var rule any
	if t.Recurrence != nil {
		data, err := json.Marshal(t.Recurrence)
		if err != nil {
			return fmt.Errorf("marshal recurrence: %w", err)
		}
		rule = string(data)
	}
	var desc any
	if t.Description != "" {
		desc = t.Description
	}

	_, err := r.db.exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Title, desc, t.Difficulty, rule, formatTimePtr(t.NextDue), boolToInt(t.Active), formatTime(t.CreatedAt), formatTimePtr(t.ArchivedAt))
	if err != nil {
		return fmt.Errorf("task insert: %w", err)
	}
	return nil
}

// Get returns the user's task, or nil if no such task belongs to userID.
func (r *TaskRepo) Get(ctx context.Context, userID, id string) (*Task, error) {
	return getTask(ctx, r.db.Conn, userID, id)
}

func getTask(ctx context.Context, c *Conn, userID, id string) (*Task, error) {
	row := c.queryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("task get: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) ListActive(ctx context.Context, userID string) ([]Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND active = 1 ORDER BY created_at ASC, id ASC`, userID)
}

func (r *TaskRepo) ListAll(ctx context.Context, userID string) ([]Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if errors.Is(err, recurrence.ErrInvalidRule) {
			// One unreadable rule from another client must not hide the rest.
			r.logger.WarnContext(ctx, "skipping task with unreadable recurrence", "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("task list: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task list rows: %w", err)
	}
	return out, nil
}

// NextDueFunc decides a task's next due instant given the number of
// completions recorded so far, including the one being applied. nil archives
// the task.
type NextDueFunc func(t Task, completedCount int) *time.Time

type CompleteResult struct {
	Task           Task
	Completion     Completion
	CompletedCount int
	Archived       bool
}

// Complete appends c to the completion ledger and moves the task to its next
// occurrence in one transaction. Unknown tasks yield ErrNotFound and archived
// ones ErrInactive.
func (r *TaskRepo) Complete(ctx context.Context, c Completion, next NextDueFunc) (*CompleteResult, error) {
	var out CompleteResult
	err := WithTx(ctx, r.db, func(tx *Conn) error {
		t, err := getTask(ctx, tx, c.UserID, c.TaskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("task complete %s: %w", c.TaskID, ErrNotFound)
		}
		if !t.Active {
			return fmt.Errorf("task complete %s: %w", c.TaskID, ErrInactive)
		}

		c.Difficulty = t.Difficulty
		c.DueAt = t.NextDue
		if _, err := tx.exec(ctx, `
			INSERT INTO task_completions (id, task_id, user_id, completed_at, difficulty, due_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.TaskID, c.UserID, formatTime(c.CompletedAt), c.Difficulty, formatTimePtr(c.DueAt)); err != nil {
			return fmt.Errorf("completion insert: %w", err)
		}

		count, err := countCompletions(ctx, tx, c.TaskID)
		if err != nil {
			return err
		}

		nextDue := next(*t, count)
		var res sql.Result
		if nextDue == nil {
			res, err = tx.exec(ctx, `
				UPDATE tasks SET active = 0, next_due = NULL, archived_at = ?
				WHERE id = ? AND active = 1
			`, formatTime(c.CompletedAt), t.ID)
		} else {
			res, err = tx.exec(ctx, `UPDATE tasks SET next_due = ? WHERE id = ? AND active = 1`, formatTime(*nextDue), t.ID)
		}
		if err != nil {
			return fmt.Errorf("task advance: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("task advance rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("task complete %s: %w", c.TaskID, ErrInactive)
		}

		t.NextDue = nextDue
		if nextDue == nil {
			at := c.CompletedAt.UTC()
			t.Active = false
			t.ArchivedAt = &at
		}
		out = CompleteResult{Task: *t, Completion: c, CompletedCount: count, Archived: nextDue == nil}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func scanTask(row scanner) (*Task, error) {
	var (
		t           Task
		description sql.NullString
		rule        sql.NullString
		nextDue     sql.NullString
		active      int
		createdAt   string
		archivedAt  sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Difficulty, &rule, &nextDue, &active, &createdAt, &archivedAt); err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Active = active != 0
	if rule.Valid {
		// Rows may come from other clients of the store; check the wire shape.
		rr, err := recurrence.ParseJSON([]byte(rule.String))
		if err != nil {
			return nil, fmt.Errorf("task %s recurrence: %w", t.ID, err)
		}
		t.Recurrence = rr
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if nextDue.Valid {
		v, err := parseTime(nextDue.String)
		if err != nil {
			return nil, err
		}
		t.NextDue = &v
	}
	if archivedAt.Valid {
		v, err := parseTime(archivedAt.String)
		if err != nil {
			return nil, err
		}
		t.ArchivedAt = &v
	}
	return &t, nil
}
