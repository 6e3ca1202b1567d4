package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type LootRepo struct {
	db *DB
}

func NewLootRepo(db *DB) *LootRepo {
	return &LootRepo{db: db}
}

// Award records a drop for (user, round, slot) and credits gold or xp to the
// profile in the same transaction. A slot that was already awarded is left
// untouched and reported as false.
func (r *LootRepo) Award(ctx context.Context, e LootEntry) (bool, error) {
	awarded := false
	err := WithTx(ctx, r.db, func(tx *Conn) error {
		var item any
		if e.Item != "" {
			item = e.Item
		}
		res, err := tx.exec(ctx, `
			INSERT INTO loot_log (user_id, round, slot, kind, amount, item, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, round, slot) DO NOTHING
		`, e.UserID, e.Round, e.Slot, e.Kind, e.Amount, item, formatTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("loot insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("loot insert rows: %w", err)
		}
		if n == 0 {
			return nil
		}

		switch e.Kind {
		case LootGold:
			if _, err := addCurrency(ctx, tx, e.UserID, e.Amount); err != nil {
				if errors.Is(err, errNoRow) {
					return fmt.Errorf("loot credit gold: %w", ErrNotFound)
				}
				return err
			}
		case LootXP:
			if _, err := addXP(ctx, tx, e.UserID, e.Amount); err != nil {
				return err
			}
		case LootItem:
		default:
			return fmt.Errorf("loot kind %q unknown", e.Kind)
		}
		awarded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return awarded, nil
}

// Recent returns the newest loot entries first.
func (r *LootRepo) Recent(ctx context.Context, userID string, limit int) ([]LootEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.query(ctx, `
		SELECT user_id, round, slot, kind, amount, item, created_at
		FROM loot_log
		WHERE user_id = ?
		ORDER BY round DESC, slot ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loot recent: %w", err)
	}
	defer rows.Close()

	var out []LootEntry
	for rows.Next() {
		var (
			e       LootEntry
			item    sql.NullString
			created string
		)
		if err := rows.Scan(&e.UserID, &e.Round, &e.Slot, &e.Kind, &e.Amount, &item, &created); err != nil {
			return nil, fmt.Errorf("loot scan: %w", err)
		}
		e.Item = item.String
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("loot scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loot recent rows: %w", err)
	}
	return out, nil
}
