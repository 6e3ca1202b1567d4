package storage

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a SQL transaction. The Conn handed to fn must not
// escape it.
func WithTx(ctx context.Context, db *DB, fn func(tx *Conn) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Conn{q: tx, dialect: db.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
