package storage

import (
	"context"
	"fmt"
)

// Migrate creates missing tables. The DDL is shared by sqlite and postgres, so
// timestamps are fixed-width UTC text and booleans are integers.
func Migrate(ctx context.Context, db *DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			currency INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS combat_state (
			user_id TEXT PRIMARY KEY,
			round INTEGER NOT NULL DEFAULT 1,
			player_hp INTEGER NOT NULL,
			current_enemy_hp INTEGER NOT NULL,
			enemies_defeated INTEGER NOT NULL DEFAULT 0,
			last_penalty_date TEXT,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			difficulty INTEGER NOT NULL DEFAULT 1,
			recurrence TEXT,
			next_due TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		// Append-only; the row count per task is the completion count.
		`CREATE TABLE IF NOT EXISTS task_completions (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			difficulty INTEGER NOT NULL,
			due_at TEXT,
			FOREIGN KEY(task_id) REFERENCES tasks(id)
		);`,
		`CREATE TABLE IF NOT EXISTS loot_log (
			user_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			kind TEXT NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			item TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (user_id, round, slot)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_active ON tasks(user_id, active);`,
		`CREATE INDEX IF NOT EXISTS idx_task_completions_task_id ON task_completions(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_loot_log_user_created ON loot_log(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
