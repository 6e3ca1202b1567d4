package engine

import (
	"context"
	"errors"
	"time"

	"focusquest/internal/storage"
)

type AttackResult struct {
	Round    int
	Damage   int
	EnemyHP  int
	Defeated bool
	// Recovered is set when a previously defeated enemy was found unresolved
	// and its defeat handling was re-run before this attack.
	Recovered *DefeatResult
	Defeat    *DefeatResult
}

type DefeatResult struct {
	Round       int
	Enemy       Enemy
	Awarded     []Drop
	Advanced    bool
	NextRound   int
	NextEnemyHP int
	LevelUp     *LevelChange
}

// Attack deals rawDamage, scaled by the acting user's attack, to their current
// enemy.
func (s *Service) Attack(ctx context.Context, rawDamage int) (*AttackResult, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	if _, _, err := s.ensurePlayer(ctx, userID, now); err != nil {
		return nil, err
	}
	return s.attack(ctx, userID, rawDamage, now)
}

// attack hits the enemy of the stored round. The new HP is computed by the
// store from its own value, and the handler that saw it reach 0 resolves the
// defeat.
func (s *Service) attack(ctx context.Context, userID string, rawDamage int, now time.Time) (*AttackResult, error) {
	var errs []error
	st, recovered, err := s.currentState(ctx, userID, now)
	if err != nil {
		errs = append(errs, err)
	}
	if st == nil {
		return nil, errors.Join(errs...)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil || p == nil {
		if err == nil {
			err = storage.ErrNotFound
		}
		return nil, errors.Join(append(errs, s.stepFailed(ctx, userID, "read profile", err))...)
	}
	stats := s.Stats(p.Level)
	dmg := EffectiveDamage(rawDamage, stats.Attack, s.balance.Player.BaseAttack)

	res := &AttackResult{Round: st.Round, Damage: dmg, Recovered: recovered}
	hp, hit, err := s.combat.DamageEnemy(ctx, userID, st.Round, dmg, now)
	if err != nil {
		res.EnemyHP = st.CurrentEnemyHP
		return res, errors.Join(append(errs, s.stepFailed(ctx, userID, "damage enemy", err, "round", st.Round))...)
	}
	if !hit {
		// Another writer moved the round or finished the enemy first.
		res.Damage = 0
		res.EnemyHP = st.CurrentEnemyHP
		return res, errors.Join(errs...)
	}
	res.EnemyHP = hp

	if hp == 0 {
		res.Defeated = true
		defeat, err := s.resolveDefeat(ctx, userID, st.Round, now)
		if err != nil {
			errs = append(errs, err)
		}
		res.Defeat = defeat
	}
	return res, errors.Join(errs...)
}

// clampEnemy caps stored enemy HP at the MaxHP of the enemy derived for the
// round. Rows written by an older build can hold more.
func (s *Service) clampEnemy(ctx context.Context, userID string, st *storage.CombatState, now time.Time) *storage.CombatState {
	maxHP := s.enemies.Spawn(st.Round, userID).MaxHP
	if st.CurrentEnemyHP <= maxHP {
		return st
	}
	clamped, err := s.combat.ClampEnemyHP(ctx, userID, st.Round, maxHP, now)
	if err != nil {
		s.logger.WarnContext(ctx, "clamp enemy hp failed", "user", userID, "round", st.Round, "error", err)
		return st
	}
	if clamped {
		s.logger.InfoContext(ctx, "enemy hp clamped", "user", userID, "round", st.Round, "from", st.CurrentEnemyHP, "to", maxHP)
		st.CurrentEnemyHP = maxHP
	}
	return st
}

// currentState returns the stored combat state, first finishing the defeat
// handling of an enemy left at 0 HP by an earlier, interrupted run.
func (s *Service) currentState(ctx context.Context, userID string, now time.Time) (*storage.CombatState, *DefeatResult, error) {
	st, err := s.combat.Get(ctx, userID)
	if err != nil || st == nil {
		if err == nil {
			err = storage.ErrNotFound
		}
		return nil, nil, s.stepFailed(ctx, userID, "read combat state", err)
	}
	if st.CurrentEnemyHP > 0 {
		return s.clampEnemy(ctx, userID, st, now), nil, nil
	}

	s.logger.WarnContext(ctx, "resuming unresolved defeat", "user", userID, "round", st.Round)
	recovered, rerr := s.resolveDefeat(ctx, userID, st.Round, now)
	st, err = s.combat.Get(ctx, userID)
	if err != nil || st == nil {
		if err == nil {
			err = storage.ErrNotFound
		}
		return nil, recovered, errors.Join(rerr, s.stepFailed(ctx, userID, "read combat state", err))
	}
	return st, recovered, rerr
}

// resolveDefeat awards the drops of round's enemy, advances to the next round
// and re-checks the level. Each step is keyed by round, so running it again
// for the same round changes nothing that already succeeded.
func (s *Service) resolveDefeat(ctx context.Context, userID string, round int, now time.Time) (*DefeatResult, error) {
	enemy := s.enemies.Spawn(round, userID)
	res := &DefeatResult{Round: round, Enemy: enemy, NextRound: round}
	var errs []error

	for slot, d := range enemy.Drops {
		ok, err := s.loot.Award(ctx, storage.LootEntry{
			UserID:    userID,
			Round:     round,
			Slot:      slot,
			Kind:      string(d.Kind),
			Amount:    d.Amount,
			Item:      d.Item,
			CreatedAt: now,
		})
		if err != nil {
			errs = append(errs, s.stepFailed(ctx, userID, "award loot", err, "round", round, "slot", slot, "kind", string(d.Kind)))
			continue
		}
		if ok {
			res.Awarded = append(res.Awarded, d)
		}
	}

	next := s.enemies.Spawn(round+1, userID)
	advanced, err := s.combat.AdvanceRound(ctx, userID, round, next.MaxHP, now)
	if err != nil {
		errs = append(errs, s.stepFailed(ctx, userID, "advance round", err, "round", round))
	} else if advanced {
		res.Advanced = true
		res.NextRound = round + 1
		res.NextEnemyHP = next.MaxHP
		s.logger.InfoContext(ctx, "enemy defeated",
			"user", userID, "round", round, "boss", enemy.IsBoss, "drops", len(res.Awarded))
	}

	change, err := s.checkLevel(ctx, userID, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.LevelUp = change
	return res, errors.Join(errs...)
}

// BattleView is a snapshot of the acting user's progression.
type BattleView struct {
	Profile storage.Profile
	Level   LevelInfo
	Stats   PlayerStats
	State   storage.CombatState
	Enemy   Enemy
}

// Battle returns the user's current progression, creating it on first use.
func (s *Service) Battle(ctx context.Context) (*BattleView, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	if _, _, err := s.ensurePlayer(ctx, userID, now); err != nil {
		return nil, err
	}
	st, _, stateErr := s.currentState(ctx, userID, now)
	if st == nil {
		return nil, stateErr
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil || p == nil {
		if err == nil {
			err = storage.ErrNotFound
		}
		return nil, errors.Join(stateErr, PersistenceError{Step: "read profile", Err: err})
	}
	stats := s.Stats(p.Level)
	if st.PlayerHP > stats.MaxHP {
		ok, err := s.combat.SetPlayerHP(ctx, userID, st.PlayerHP, stats.MaxHP, now)
		if err != nil {
			s.logger.WarnContext(ctx, "clamp player hp failed", "user", userID, "error", err)
		} else if ok {
			st.PlayerHP = stats.MaxHP
		}
	}
	return &BattleView{
		Profile: *p,
		Level:   s.curve.Info(p.XP),
		Stats:   stats,
		State:   *st,
		Enemy:   s.enemies.Spawn(st.Round, userID),
	}, stateErr
}

// LootLog returns the user's most recent drops, newest round first.
func (s *Service) LootLog(ctx context.Context, limit int) ([]storage.LootEntry, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.loot.Recent(ctx, userID, limit)
	if err != nil {
		return nil, PersistenceError{Step: "read loot log", Err: err}
	}
	return entries, nil
}
