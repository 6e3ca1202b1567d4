package storage

import (
	"errors"
	"fmt"
	"time"

	"focusquest/internal/recurrence"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInactive          = errors.New("task is not active")
	ErrInsufficientFunds = errors.New("insufficient currency")
)

const (
	LootGold = "gold"
	LootXP   = "xp"
	LootItem = "item"
)

type Profile struct {
	UserID    string
	XP        int
	Level     int
	Currency  int
	CreatedAt time.Time
}

type CombatState struct {
	UserID          string
	Round           int
	PlayerHP        int
	CurrentEnemyHP  int
	EnemiesDefeated int
	LastPenaltyDate string // YYYY-MM-DD, empty until the first penalty run
	UpdatedAt       time.Time
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Difficulty  int
	Recurrence  *recurrence.Rule
	NextDue     *time.Time
	Active      bool
	CreatedAt   time.Time
	ArchivedAt  *time.Time
}

type Completion struct {
	ID          string
	TaskID      string
	UserID      string
	CompletedAt time.Time
	Difficulty  int
	DueAt       *time.Time
}

type LootEntry struct {
	UserID    string
	Round     int
	Slot      int
	Kind      string
	Amount    int
	Item      string
	CreatedAt time.Time
}

// timeLayout is fixed width so text comparison orders instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const DateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}
