package engine

import (
	"context"

	"focusquest/internal/recurrence"
	"focusquest/internal/storage"
)

type PenaltyResult struct {
	Date     string
	Applied  bool
	Damage   int
	HPBefore int
	HPAfter  int
	Overdue  []string
}

// ApplyDailyPenalty damages the player once per local calendar day by the sum
// of the combat damage of every active task already past its due day. The HP
// change and the day watermark are written together; a second call on the
// same day is a no-op.
func (s *Service) ApplyDailyPenalty(ctx context.Context) (*PenaltyResult, error) {
	userID, unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	_, st, err := s.ensurePlayer(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	date := recurrence.StartOfDay(now, s.loc).Format(storage.DateLayout)
	res := &PenaltyResult{Date: date, HPBefore: st.PlayerHP, HPAfter: st.PlayerHP}
	if st.LastPenaltyDate == date {
		return res, nil
	}

	tasks, err := s.tasks.ListActive(ctx, userID)
	if err != nil {
		return nil, PersistenceError{Step: "list tasks", Err: err}
	}
	for _, t := range tasks {
		if !recurrence.IsOverdue(t.NextDue, now, s.loc) {
			continue
		}
		r, err := s.rewards.For(Difficulty(t.Difficulty))
		if err != nil {
			s.logger.WarnContext(ctx, "no reward for task difficulty", "user", userID, "task", t.ID, "error", err)
			continue
		}
		res.Damage += r.Damage
		res.Overdue = append(res.Overdue, t.ID)
	}

	hp, applied, err := s.combat.ApplyPenalty(ctx, userID, date, res.Damage, now)
	if err != nil {
		return nil, PersistenceError{Step: "apply penalty", Err: err}
	}
	if !applied {
		return res, nil
	}
	res.Applied = true
	res.HPAfter = hp
	s.logger.InfoContext(ctx, "daily penalty applied",
		"user", userID, "date", date, "damage", res.Damage, "overdue", len(res.Overdue), "hp", hp)
	return res, nil
}
