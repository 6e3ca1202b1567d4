package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"focusquest/internal/recurrence"
	"focusquest/internal/storage"
)

type CompleteResult struct {
	Task           storage.Task
	CompletedCount int
	Archived       bool
	Reward         Reward
	// XPTotal and Currency are the balances after this completion's rewards;
	// zero if that step failed.
	XPTotal  int
	Currency int
	LevelUp  *LevelChange
	Attack   *AttackResult
}

type LevelChange struct {
	From     int
	To       int
	HPBefore int
	HPAfter  int
	MaxHP    int
}

// CompleteTask records one completion of a task, advances it to its next
// occurrence (or archives it), then awards XP and currency, checks for a level
// up and attacks the current enemy.
//
// The completion is recorded atomically; a failure there aborts. The later
// steps are attempted independently: a failing step is logged, the rest still
// run, and the failures come back joined alongside a non-nil result.
func (s *Service) CompleteTask(ctx context.Context, taskID string) (*CompleteResult, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	if _, _, err := s.ensurePlayer(ctx, userID, now); err != nil {
		return nil, err
	}

	rec, err := s.tasks.Complete(ctx, storage.Completion{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		UserID:      userID,
		CompletedAt: now,
	}, s.nextDue(now))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	case errors.Is(err, storage.ErrInactive):
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskInactive)
	case err != nil:
		return nil, PersistenceError{Step: "record completion", Err: err}
	}

	res := &CompleteResult{
		Task:           rec.Task,
		CompletedCount: rec.CompletedCount,
		Archived:       rec.Archived,
	}
	var errs []error

	reward, err := s.rewards.For(Difficulty(rec.Task.Difficulty))
	if err != nil {
		// Stored difficulty predates the current table; still attack for 1.
		s.logger.WarnContext(ctx, "no reward for task difficulty", "user", userID, "task", taskID, "error", err)
	}
	res.Reward = reward

	if xp, err := s.profiles.AddXP(ctx, userID, reward.XP); err != nil {
		errs = append(errs, s.stepFailed(ctx, userID, "award xp", err, "task", taskID))
	} else {
		res.XPTotal = xp
	}

	if bal, err := s.profiles.AddCurrency(ctx, userID, reward.Currency); err != nil {
		errs = append(errs, s.stepFailed(ctx, userID, "award currency", err, "task", taskID))
	} else {
		res.Currency = bal
	}

	change, err := s.checkLevel(ctx, userID, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.LevelUp = change

	attack, err := s.attack(ctx, userID, reward.Damage, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.Attack = attack

	s.logger.InfoContext(ctx, "task completed",
		"user", userID, "task", taskID, "count", rec.CompletedCount, "archived", rec.Archived)
	return res, errors.Join(errs...)
}

// nextDue anchors on the later of the task's current due day and today, so
// early completions move a task forward from its due day and late ones from
// today.
func (s *Service) nextDue(now time.Time) storage.NextDueFunc {
	today := recurrence.StartOfDay(now, s.loc)
	return func(t storage.Task, completedCount int) *time.Time {
		anchor := today
		if t.NextDue != nil && t.NextDue.After(anchor) {
			anchor = t.NextDue.UTC()
		}
		next, ok := recurrence.ComputeNextDue(t.Recurrence, anchor, completedCount)
		if !ok {
			return nil
		}
		return &next
	}
}

// AddXP credits amount to the acting user's XP and returns the new total.
func (s *Service) AddXP(ctx context.Context, amount int) (int, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, _, err := s.ensurePlayer(ctx, userID, s.clock.Now()); err != nil {
		return 0, err
	}
	xp, err := s.profiles.AddXP(ctx, userID, amount)
	if err != nil {
		return 0, PersistenceError{Step: "award xp", Err: err}
	}
	return xp, nil
}

// AddCurrency applies a signed currency delta. A delta that would take the
// balance below zero fails with ErrInsufficientFunds and changes nothing.
func (s *Service) AddCurrency(ctx context.Context, amount int) (int, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, _, err := s.ensurePlayer(ctx, userID, s.clock.Now()); err != nil {
		return 0, err
	}
	bal, err := s.profiles.AddCurrency(ctx, userID, amount)
	if errors.Is(err, storage.ErrInsufficientFunds) {
		return bal, fmt.Errorf("spend %d: %w", -amount, ErrInsufficientFunds)
	}
	if err != nil {
		return 0, PersistenceError{Step: "award currency", Err: err}
	}
	return bal, nil
}

// CheckAndUpdateLevel raises the stored level to the one the user's XP has
// earned. It returns nil when nothing changed; level never goes down.
func (s *Service) CheckAndUpdateLevel(ctx context.Context) (*LevelChange, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	if _, _, err := s.ensurePlayer(ctx, userID, now); err != nil {
		return nil, err
	}
	return s.checkLevel(ctx, userID, now)
}

func (s *Service) checkLevel(ctx context.Context, userID string, now time.Time) (*LevelChange, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, s.stepFailed(ctx, userID, "read profile", err)
	}
	if p == nil {
		return nil, s.stepFailed(ctx, userID, "read profile", storage.ErrNotFound)
	}

	computed := s.curve.LevelFor(p.XP)
	if computed <= p.Level {
		return nil, nil
	}
	raised, err := s.profiles.RaiseLevel(ctx, userID, computed)
	if err != nil {
		return nil, s.stepFailed(ctx, userID, "raise level", err, "level", computed)
	}
	if !raised {
		return nil, nil
	}

	change := &LevelChange{From: p.Level, To: computed, MaxHP: s.Stats(computed).MaxHP}
	s.logger.InfoContext(ctx, "level up", "user", userID, "from", p.Level, "to", computed)

	st, err := s.combat.Get(ctx, userID)
	if err != nil || st == nil {
		if err == nil {
			err = storage.ErrNotFound
		}
		return change, s.stepFailed(ctx, userID, "rescale hp", err)
	}
	change.HPBefore = st.PlayerHP
	change.HPAfter = RescaleHP(st.PlayerHP, s.Stats(p.Level).MaxHP, change.MaxHP)
	ok, err := s.combat.SetPlayerHP(ctx, userID, st.PlayerHP, change.HPAfter, now)
	if err != nil {
		return change, s.stepFailed(ctx, userID, "rescale hp", err)
	}
	if !ok {
		return change, s.stepFailed(ctx, userID, "rescale hp", errors.New("player hp changed concurrently"))
	}
	return change, nil
}
