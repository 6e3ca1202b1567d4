package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*Profile, error) {
	return getProfile(ctx, r.db.Conn, userID)
}

func getProfile(ctx context.Context, c *Conn, userID string) (*Profile, error) {
	row := c.queryRow(ctx, `SELECT user_id, xp, level, currency, created_at FROM profiles WHERE user_id = ?`, userID)

	var (
		p       Profile
		created string
	)
	if err := row.Scan(&p.UserID, &p.XP, &p.Level, &p.Currency, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile get: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("profile get: %w", err)
	}
	p.CreatedAt = t
	return &p, nil
}

// Ensure returns the user's profile, creating the zero profile on first access.
// Concurrent first calls converge on one row.
func (r *ProfileRepo) Ensure(ctx context.Context, userID string, now time.Time) (*Profile, error) {
	_, err := r.db.exec(ctx, `
		INSERT INTO profiles (user_id, xp, level, currency, created_at)
		VALUES (?, 0, 1, 0, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("profile ensure: %w", err)
	}
	p, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile ensure: %w", ErrNotFound)
	}
	return p, nil
}

// AddXP increments xp in place and returns the new total.
func (r *ProfileRepo) AddXP(ctx context.Context, userID string, amount int) (int, error) {
	return addXP(ctx, r.db.Conn, userID, amount)
}

func addXP(ctx context.Context, c *Conn, userID string, amount int) (int, error) {
	row := c.queryRow(ctx, `
		UPDATE profiles SET xp = xp + ?
		WHERE user_id = ? AND xp + ? >= 0
		RETURNING xp
	`, amount, userID, amount)
	var xp int
	if err := row.Scan(&xp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("profile add xp: %w", ErrNotFound)
		}
		return 0, fmt.Errorf("profile add xp: %w", err)
	}
	return xp, nil
}

// AddCurrency applies a signed delta and returns the new balance. A delta that
// would make the balance negative is refused with ErrInsufficientFunds.
func (r *ProfileRepo) AddCurrency(ctx context.Context, userID string, amount int) (int, error) {
	balance, err := addCurrency(ctx, r.db.Conn, userID, amount)
	if !errors.Is(err, errNoRow) {
		return balance, err
	}
	p, gerr := r.Get(ctx, userID)
	if gerr != nil {
		return 0, gerr
	}
	if p == nil {
		return 0, fmt.Errorf("profile add currency: %w", ErrNotFound)
	}
	return p.Currency, fmt.Errorf("profile add currency: %w", ErrInsufficientFunds)
}

var errNoRow = errors.New("no row updated")

func addCurrency(ctx context.Context, c *Conn, userID string, amount int) (int, error) {
	row := c.queryRow(ctx, `
		UPDATE profiles SET currency = currency + ?
		WHERE user_id = ? AND currency + ? >= 0
		RETURNING currency
	`, amount, userID, amount)
	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errNoRow
		}
		return 0, fmt.Errorf("profile add currency: %w", err)
	}
	return balance, nil
}

// RaiseLevel stores level only if it is above the stored one.
func (r *ProfileRepo) RaiseLevel(ctx context.Context, userID string, level int) (bool, error) {
	res, err := r.db.exec(ctx, `UPDATE profiles SET level = ? WHERE user_id = ? AND level < ?`, level, userID, level)
	if err != nil {
		return false, fmt.Errorf("profile raise level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("profile raise level rows: %w", err)
	}
	return n > 0, nil
}
