package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"focusquest/internal/recurrence"
	"focusquest/internal/storage"
)

type CreateTaskInput struct {
	Title       string
	Description string
	Difficulty  Difficulty
	// Recurrence nil means a one-time task.
	Recurrence *recurrence.Rule
	// DueOn is the first due date; zero means today.
	DueOn time.Time
}

// CreateTask validates and stores an active task with its first due day.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*storage.Task, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if !in.Difficulty.IsValid() {
		return nil, DifficultyError{Value: int(in.Difficulty)}
	}
	if in.Recurrence != nil {
		if err := recurrence.Validate(*in.Recurrence); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	from := now
	if !in.DueOn.IsZero() {
		from = in.DueOn
	}
	first, ok := recurrence.FirstDueIn(in.Recurrence, from, s.loc)
	if !ok {
		return nil, recurrence.InvalidRuleError{Reason: "rule has no occurrence"}
	}

	t := storage.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Difficulty:  int(in.Difficulty),
		Recurrence:  in.Recurrence,
		NextDue:     &first,
		Active:      true,
		CreatedAt:   now,
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, PersistenceError{Step: "insert task", Err: err}
	}
	s.logger.DebugContext(ctx, "task created", "user", userID, "task", t.ID, "due", first.Format(storage.DateLayout))
	return &t, nil
}

// ListTasks returns the user's active tasks, or all of them with archived set.
func (s *Service) ListTasks(ctx context.Context, archived bool) ([]storage.Task, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []storage.Task
	if archived {
		tasks, err = s.tasks.ListAll(ctx, userID)
	} else {
		tasks, err = s.tasks.ListActive(ctx, userID)
	}
	if err != nil {
		return nil, PersistenceError{Step: "list tasks", Err: err}
	}
	return tasks, nil
}

// Agenda is the task list for one calendar day.
type Agenda struct {
	Date    time.Time
	Due     []storage.Task
	Overdue []storage.Task
}

// DueOn lists active tasks due on date's calendar day, plus those already
// overdue by then.
func (s *Service) DueOn(ctx context.Context, date time.Time) (*Agenda, error) {
	tasks, err := s.ListTasks(ctx, false)
	if err != nil {
		return nil, err
	}
	date = date.In(s.loc)
	a := &Agenda{Date: date}
	for _, t := range tasks {
		switch {
		case recurrence.IsDueOnDate(t.NextDue, date):
			a.Due = append(a.Due, t)
		case recurrence.IsOverdue(t.NextDue, date, s.loc):
			a.Overdue = append(a.Overdue, t)
		}
	}
	return a, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*storage.Task, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, PersistenceError{Step: "get task", Err: err}
	}
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	return t, nil
}

// TaskHistory returns the task with its completion ledger, oldest first.
func (s *Service) TaskHistory(ctx context.Context, id string) (*storage.Task, []storage.Completion, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := s.completions.ListByTask(ctx, t.ID)
	if err != nil {
		return t, nil, PersistenceError{Step: "read completions", Err: err}
	}
	return t, ledger, nil
}
