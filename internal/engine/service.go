package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"focusquest/internal/auth"
	"focusquest/internal/config"
	"focusquest/internal/lock"
	"focusquest/internal/storage"
)

type profileStore interface {
	Ensure(ctx context.Context, userID string, now time.Time) (*storage.Profile, error)
	Get(ctx context.Context, userID string) (*storage.Profile, error)
	AddXP(ctx context.Context, userID string, amount int) (int, error)
	AddCurrency(ctx context.Context, userID string, amount int) (int, error)
	RaiseLevel(ctx context.Context, userID string, level int) (bool, error)
}

type combatStore interface {
	Ensure(ctx context.Context, userID string, playerHP, enemyHP int, now time.Time) (*storage.CombatState, error)
	Get(ctx context.Context, userID string) (*storage.CombatState, error)
	DamageEnemy(ctx context.Context, userID string, round, dmg int, now time.Time) (int, bool, error)
	AdvanceRound(ctx context.Context, userID string, round, nextEnemyHP int, now time.Time) (bool, error)
	ClampEnemyHP(ctx context.Context, userID string, round, maxHP int, now time.Time) (bool, error)
	SetPlayerHP(ctx context.Context, userID string, expected, hp int, now time.Time) (bool, error)
	ApplyPenalty(ctx context.Context, userID, date string, dmg int, now time.Time) (int, bool, error)
}

type taskStore interface {
	Insert(ctx context.Context, t storage.Task) error
	Get(ctx context.Context, userID, id string) (*storage.Task, error)
	ListActive(ctx context.Context, userID string) ([]storage.Task, error)
	ListAll(ctx context.Context, userID string) ([]storage.Task, error)
	Complete(ctx context.Context, c storage.Completion, next storage.NextDueFunc) (*storage.CompleteResult, error)
}

type completionStore interface {
	ListByTask(ctx context.Context, taskID string) ([]storage.Completion, error)
}

type lootStore interface {
	Award(ctx context.Context, e storage.LootEntry) (bool, error)
	Recent(ctx context.Context, userID string, limit int) ([]storage.LootEntry, error)
}

// Service is the progression engine. Mutations for one user are serialized
// through the Locker; the store's conditional updates keep them consistent
// across processes as well.
type Service struct {
	profiles    profileStore
	combat      combatStore
	tasks       taskStore
	completions completionStore
	loot        lootStore

	locker  lock.Locker
	clock   Clock
	logger  *slog.Logger
	loc     *time.Location
	balance config.Balance
	curve   LevelCurve
	rewards RewardTable
	enemies *EnemyGenerator
}

type Option func(*Service)

func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithLocation sets the zone whose calendar days drive due dates and the
// daily penalty.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithBalance(b config.Balance) Option { return func(s *Service) { s.balance = b } }

func NewService(db *storage.DB, opts ...Option) *Service {
	s := &Service{
		profiles:    storage.NewProfileRepo(db),
		combat:      storage.NewCombatRepo(db),
		completions: storage.NewCompletionRepo(db),
		loot:        storage.NewLootRepo(db),
		locker:      lock.NewMemoryLocker(),
		clock:       RealClock{},
		logger:      slog.Default(),
		loc:         time.Local,
		balance:     config.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = storage.NewTaskRepo(db).WithLogger(s.logger)
	s.curve = LevelCurveFrom(s.balance.Leveling)
	s.rewards = RewardTableFrom(s.balance.Rewards)
	s.enemies = NewEnemyGenerator(s.balance.Enemies)
	return s
}

func (s *Service) Curve() LevelCurve           { return s.curve }
func (s *Service) Rewards() RewardTable        { return s.rewards }
func (s *Service) Enemies() *EnemyGenerator    { return s.enemies }
func (s *Service) Location() *time.Location    { return s.loc }
func (s *Service) Stats(level int) PlayerStats { return StatsForLevel(s.balance.Player, level) }
func (s *Service) GuestEnemy(round int) Enemy  { return s.enemies.SpawnGuest(round) }
func (s *Service) Balance() config.Balance     { return s.balance }

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", errors.New("title is required")
	}
	return t, nil
}

func (s *Service) user(ctx context.Context) (string, error) {
	u, err := auth.RequireUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return u, nil
}

// begin resolves the acting user and takes their lock.
func (s *Service) begin(ctx context.Context) (string, func(), error) {
	u, err := s.user(ctx)
	if err != nil {
		return "", nil, err
	}
	unlock, err := s.locker.Lock(ctx, u)
	if err != nil {
		return "", nil, fmt.Errorf("lock user %s: %w", u, err)
	}
	return u, unlock, nil
}

// ensurePlayer get-or-creates the profile and the round-one combat state.
func (s *Service) ensurePlayer(ctx context.Context, userID string, now time.Time) (*storage.Profile, *storage.CombatState, error) {
	p, err := s.profiles.Ensure(ctx, userID, now)
	if err != nil {
		return nil, nil, PersistenceError{Step: "ensure profile", Err: err}
	}
	stats := s.Stats(p.Level)
	first := s.enemies.Spawn(1, userID)
	st, err := s.combat.Ensure(ctx, userID, stats.MaxHP, first.MaxHP, now)
	if err != nil {
		return nil, nil, PersistenceError{Step: "ensure combat state", Err: err}
	}
	return p, st, nil
}

// stepFailed logs a failed step and returns it as a PersistenceError.
func (s *Service) stepFailed(ctx context.Context, userID, step string, err error, attrs ...any) error {
	args := append([]any{"user", userID, "step", step, "error", err}, attrs...)
	s.logger.ErrorContext(ctx, "progression step failed", args...)
	return PersistenceError{Step: step, Err: err}
}
