package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CombatRepo persists per-user battle state. Every mutation is a single
// conditional statement over the stored values, never a write-back of a
// previously read snapshot.
type CombatRepo struct {
	db *DB
}

func NewCombatRepo(db *DB) *CombatRepo {
	return &CombatRepo{db: db}
}

func (r *CombatRepo) Get(ctx context.Context, userID string) (*CombatState, error) {
	row := r.db.queryRow(ctx, `
		SELECT user_id, round, player_hp, current_enemy_hp, enemies_defeated, last_penalty_date, updated_at
		FROM combat_state
		WHERE user_id = ?
	`, userID)

	var (
		s       CombatState
		penalty sql.NullString
		updated string
	)
	if err := row.Scan(&s.UserID, &s.Round, &s.PlayerHP, &s.CurrentEnemyHP, &s.EnemiesDefeated, &penalty, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("combat get: %w", err)
	}
	if penalty.Valid {
		s.LastPenaltyDate = penalty.String
	}
	t, err := parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("combat get: %w", err)
	}
	s.UpdatedAt = t
	return &s, nil
}

// Ensure creates the round-one state if the user has none and returns the
// stored state either way.
func (r *CombatRepo) Ensure(ctx context.Context, userID string, playerHP, enemyHP int, now time.Time) (*CombatState, error) {
	_, err := r.db.exec(ctx, `
		INSERT INTO combat_state (user_id, round, player_hp, current_enemy_hp, enemies_defeated, updated_at)
		VALUES (?, 1, ?, ?, 0, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, playerHP, enemyHP, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("combat ensure: %w", err)
	}
	s, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("combat ensure: %w", ErrNotFound)
	}
	return s, nil
}

// DamageEnemy subtracts dmg from the stored enemy HP of round, floored at 0.
// hit is false when the round has moved on or the enemy is already down.
func (r *CombatRepo) DamageEnemy(ctx context.Context, userID string, round, dmg int, now time.Time) (hp int, hit bool, err error) {
	row := r.db.queryRow(ctx, `
		UPDATE combat_state
		SET current_enemy_hp = CASE WHEN current_enemy_hp > ? THEN current_enemy_hp - ? ELSE 0 END,
			updated_at = ?
		WHERE user_id = ? AND round = ? AND current_enemy_hp > 0
		RETURNING current_enemy_hp
	`, dmg, dmg, formatTime(now), userID, round)
	if err := row.Scan(&hp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("combat damage enemy: %w", err)
	}
	return hp, true, nil
}

// AdvanceRound moves a defeated round to the next one. It only succeeds once
// per round: the state must still be at round with the enemy at 0.
func (r *CombatRepo) AdvanceRound(ctx context.Context, userID string, round, nextEnemyHP int, now time.Time) (bool, error) {
	res, err := r.db.exec(ctx, `
		UPDATE combat_state
		SET round = round + 1,
			enemies_defeated = enemies_defeated + 1,
			current_enemy_hp = ?,
			updated_at = ?
		WHERE user_id = ? AND round = ? AND current_enemy_hp = 0
	`, nextEnemyHP, formatTime(now), userID, round)
	if err != nil {
		return false, fmt.Errorf("combat advance round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("combat advance round rows: %w", err)
	}
	return n > 0, nil
}

// ClampEnemyHP lowers the enemy HP of round to maxHP. clamped is false when
// the HP was already within range or the round has moved on.
func (r *CombatRepo) ClampEnemyHP(ctx context.Context, userID string, round, maxHP int, now time.Time) (clamped bool, err error) {
	res, err := r.db.exec(ctx, `
		UPDATE combat_state SET current_enemy_hp = ?, updated_at = ?
		WHERE user_id = ? AND round = ? AND current_enemy_hp > ?
	`, maxHP, formatTime(now), userID, round, maxHP)
	if err != nil {
		return false, fmt.Errorf("combat clamp enemy hp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("combat clamp enemy hp rows: %w", err)
	}
	return n > 0, nil
}

// SetPlayerHP writes hp only if the stored value still equals expected.
func (r *CombatRepo) SetPlayerHP(ctx context.Context, userID string, expected, hp int, now time.Time) (bool, error) {
	res, err := r.db.exec(ctx, `
		UPDATE combat_state SET player_hp = ?, updated_at = ?
		WHERE user_id = ? AND player_hp = ?
	`, hp, formatTime(now), userID, expected)
	if err != nil {
		return false, fmt.Errorf("combat set player hp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("combat set player hp rows: %w", err)
	}
	return n > 0, nil
}

// ApplyPenalty subtracts dmg from player HP (floored at 0) and sets the
// watermark to date in one statement. applied is false when date was already
// recorded.
func (r *CombatRepo) ApplyPenalty(ctx context.Context, userID, date string, dmg int, now time.Time) (hp int, applied bool, err error) {
	row := r.db.queryRow(ctx, `
		UPDATE combat_state
		SET player_hp = CASE WHEN player_hp > ? THEN player_hp - ? ELSE 0 END,
			last_penalty_date = ?,
			updated_at = ?
		WHERE user_id = ? AND (last_penalty_date IS NULL OR last_penalty_date <> ?)
		RETURNING player_hp
	`, dmg, dmg, date, formatTime(now), userID, date)
	if err := row.Scan(&hp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("combat apply penalty: %w", err)
	}
	return hp, true, nil
}
