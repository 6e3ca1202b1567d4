package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"focusquest/internal/auth"
	"focusquest/internal/config"
	"focusquest/internal/recurrence"
	"focusquest/internal/storage"
)

var start = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *FakeClock, context.Context) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := storage.Open(ctx, storage.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clock := NewFakeClock(start)
	svc := NewService(db,
		WithClock(clock),
		WithLocation(time.UTC),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return svc, clock, auth.WithUser(ctx, "u1")
}

func mustCreate(t *testing.T, svc *Service, ctx context.Context, in CreateTaskInput) *storage.Task {
	t.Helper()
	task, err := svc.CreateTask(ctx, in)
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", in.Title, err)
	}
	return task
}

func mustBattle(t *testing.T, svc *Service, ctx context.Context) *BattleView {
	t.Helper()
	v, err := svc.Battle(ctx)
	if err != nil {
		t.Fatalf("Battle: %v", err)
	}
	return v
}

func rule(r recurrence.Rule) *recurrence.Rule { return &r }

func TestCompleteDailyTaskAwardsAndAttacks(t *testing.T) {
	svc, _, ctx := newTestService(t)

	task := mustCreate(t, svc, ctx, CreateTaskInput{Title: " Stretch ", Difficulty: DifficultyMedium, Recurrence: rule(recurrence.Daily(1))})
	if task.Title != "Stretch" {
		t.Fatalf("title = %q", task.Title)
	}
	if !task.NextDue.Equal(day(2024, time.January, 10)) {
		t.Fatalf("first due = %v, want today", task.NextDue)
	}

	res, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.CompletedCount != 1 || res.Archived {
		t.Fatalf("count=%d archived=%v", res.CompletedCount, res.Archived)
	}
	if !res.Task.NextDue.Equal(day(2024, time.January, 11)) {
		t.Fatalf("next due = %v, want Jan 11", res.Task.NextDue)
	}
	if res.Reward != (Reward{XP: 20, Damage: 12, Currency: 10}) {
		t.Fatalf("reward = %+v", res.Reward)
	}
	if res.XPTotal != 20 || res.Currency != 10 {
		t.Fatalf("xp=%d currency=%d", res.XPTotal, res.Currency)
	}
	if res.LevelUp != nil {
		t.Fatalf("unexpected level up %+v", res.LevelUp)
	}

	first := SpawnEnemy(1, "u1")
	if res.Attack == nil || res.Attack.Damage != 12 || res.Attack.EnemyHP != first.MaxHP-12 {
		t.Fatalf("attack = %+v, enemy max %d", res.Attack, first.MaxHP)
	}

	v := mustBattle(t, svc, ctx)
	if v.State.Round != 1 || v.State.CurrentEnemyHP != first.MaxHP-12 {
		t.Fatalf("state = %+v", v.State)
	}
	if v.Level.Level != 1 || v.Level.XPIntoLevel != 20 || v.Level.XPForNextLevel != 100 {
		t.Fatalf("level info = %+v", v.Level)
	}
}

func TestNextDueAnchorsOnLaterOfDueDayAndToday(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	early := mustCreate(t, svc, ctx, CreateTaskInput{Title: "early", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.Daily(1)), DueOn: day(2024, time.January, 15)})
	late := mustCreate(t, svc, ctx, CreateTaskInput{Title: "late", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.EveryNDays(3))})

	res, err := svc.CompleteTask(ctx, early.ID)
	if err != nil {
		t.Fatalf("complete early: %v", err)
	}
	if !res.Task.NextDue.Equal(day(2024, time.January, 16)) {
		t.Fatalf("early next = %v, want Jan 16", res.Task.NextDue)
	}

	clock.Set(time.Date(2024, time.January, 13, 20, 0, 0, 0, time.UTC))
	res, err = svc.CompleteTask(ctx, late.ID)
	if err != nil {
		t.Fatalf("complete late: %v", err)
	}
	if !res.Task.NextDue.Equal(day(2024, time.January, 16)) {
		t.Fatalf("late next = %v, want Jan 16", res.Task.NextDue)
	}
}

func TestWeeklyTaskFirstDueAndNext(t *testing.T) {
	svc, _, ctx := newTestService(t)

	task := mustCreate(t, svc, ctx, CreateTaskInput{Title: "gym", Difficulty: DifficultyHard, Recurrence: rule(recurrence.Weekly(time.Monday, time.Wednesday))})
	if !task.NextDue.Equal(day(2024, time.January, 10)) {
		t.Fatalf("first due = %v, want Wed Jan 10", task.NextDue)
	}
	res, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !res.Task.NextDue.Equal(day(2024, time.January, 15)) {
		t.Fatalf("next = %v, want Mon Jan 15", res.Task.NextDue)
	}
}

func TestOneTimeTaskArchives(t *testing.T) {
	svc, _, ctx := newTestService(t)

	task := mustCreate(t, svc, ctx, CreateTaskInput{Title: "taxes", Difficulty: DifficultyEpic, DueOn: day(2024, time.January, 20)})
	if !task.NextDue.Equal(day(2024, time.January, 20)) {
		t.Fatalf("due = %v", task.NextDue)
	}

	res, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !res.Archived || res.Task.Active || res.Task.NextDue != nil {
		t.Fatalf("expected archived task, got %+v", res.Task)
	}

	_, err = svc.CompleteTask(ctx, task.ID)
	if !errors.Is(err, ErrTaskInactive) {
		t.Fatalf("second completion err = %v, want ErrTaskInactive", err)
	}

	got, ledger, err := svc.TaskHistory(ctx, task.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got.Active || len(ledger) != 1 || !ledger[0].DueAt.Equal(day(2024, time.January, 20)) {
		t.Fatalf("history = %+v %+v", got, ledger)
	}

	active, err := svc.ListTasks(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active = %d, want 0", len(active))
	}
	all, err := svc.ListTasks(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("all = %d, want 1", len(all))
	}
}

func TestMaxOccurrencesArchivesAfterLastCompletion(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	task := mustCreate(t, svc, ctx, CreateTaskInput{Title: "course", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.EveryNDays(2).WithMaxOccurrences(2))})

	res, err := svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if res.Archived || !res.Task.NextDue.Equal(day(2024, time.January, 12)) {
		t.Fatalf("after first: archived=%v next=%v", res.Archived, res.Task.NextDue)
	}

	clock.Advance(48 * time.Hour)
	res, err = svc.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !res.Archived || res.CompletedCount != 2 {
		t.Fatalf("after second: archived=%v count=%d", res.Archived, res.CompletedCount)
	}
}

func TestCompleteUnknownOrForeignTask(t *testing.T) {
	svc, _, ctx := newTestService(t)

	if _, err := svc.CompleteTask(ctx, "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}

	task := mustCreate(t, svc, ctx, CreateTaskInput{Title: "mine", Difficulty: DifficultyEasy})
	other := auth.WithUser(context.Background(), "u2")
	if _, err := svc.CompleteTask(other, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("foreign err = %v, want ErrTaskNotFound", err)
	}
}

func TestOperationsRequireUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	anon := context.Background()

	if _, err := svc.CreateTask(anon, CreateTaskInput{Title: "x", Difficulty: DifficultyEasy}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CreateTask err = %v", err)
	}
	if _, err := svc.CompleteTask(anon, "x"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("CompleteTask err = %v", err)
	}
	if _, err := svc.Battle(anon); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Battle err = %v", err)
	}
	if _, err := svc.ApplyDailyPenalty(anon); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ApplyDailyPenalty err = %v", err)
	}
	if _, err := svc.AddXP(anon, 1); !errors.Is(err, auth.ErrNoUser) {
		t.Fatalf("AddXP err = %v", err)
	}
}

func TestCreateTaskRejectsInvalidInput(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.CreateTask(ctx, CreateTaskInput{Title: "w", Difficulty: DifficultyEasy, Recurrence: &recurrence.Rule{Kind: recurrence.KindWeekly}})
	if !errors.Is(err, recurrence.ErrInvalidRule) {
		t.Fatalf("empty weekly err = %v", err)
	}
	_, err = svc.CreateTask(ctx, CreateTaskInput{Title: "n", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.EveryNDays(0))})
	if !errors.Is(err, recurrence.ErrInvalidRule) {
		t.Fatalf("zero interval err = %v", err)
	}
	var derr DifficultyError
	_, err = svc.CreateTask(ctx, CreateTaskInput{Title: "d", Difficulty: 5})
	if !errors.As(err, &derr) || derr.Value != 5 {
		t.Fatalf("difficulty err = %v", err)
	}
	if _, err = svc.CreateTask(ctx, CreateTaskInput{Title: "   ", Difficulty: DifficultyEasy}); err == nil {
		t.Fatal("blank title accepted")
	}
}

func TestDefeatAdvancesExactlyOneRound(t *testing.T) {
	svc, _, ctx := newTestService(t)
	first := SpawnEnemy(1, "u1")
	second := SpawnEnemy(2, "u1")

	res, err := svc.Attack(ctx, first.MaxHP-5)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.EnemyHP != 5 || res.Defeated {
		t.Fatalf("first hit = %+v", res)
	}

	res, err = svc.Attack(ctx, 5)
	if err != nil {
		t.Fatalf("finishing attack: %v", err)
	}
	if !res.Defeated || res.Defeat == nil || !res.Defeat.Advanced {
		t.Fatalf("defeat = %+v", res)
	}
	if res.Defeat.NextRound != 2 || res.Defeat.NextEnemyHP != second.MaxHP {
		t.Fatalf("next round %d hp %d, want 2 / %d", res.Defeat.NextRound, res.Defeat.NextEnemyHP, second.MaxHP)
	}

	v := mustBattle(t, svc, ctx)
	if v.State.Round != 2 || v.State.EnemiesDefeated != 1 || v.State.CurrentEnemyHP != second.MaxHP {
		t.Fatalf("state = %+v", v.State)
	}
	if v.Profile.Currency != first.Drops[0].Amount || v.Profile.XP != first.Drops[1].Amount {
		t.Fatalf("profile = %+v, drops = %+v", v.Profile, first.Drops)
	}

	log, err := svc.LootLog(ctx, 10)
	if err != nil {
		t.Fatalf("loot log: %v", err)
	}
	if len(log) != len(first.Drops) {
		t.Fatalf("loot entries = %d, want %d", len(log), len(first.Drops))
	}
}

func TestDefeatDropCanLevelUpAndRescaleHP(t *testing.T) {
	svc, _, ctx := newTestService(t)

	if _, err := svc.AddXP(ctx, 95); err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	res, err := svc.Attack(ctx, 1000)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	lu := res.Defeat.LevelUp
	if lu == nil || lu.From != 1 || lu.To != 2 {
		t.Fatalf("level up = %+v", lu)
	}
	if lu.HPBefore != 100 || lu.HPAfter != 110 || lu.MaxHP != 110 {
		t.Fatalf("hp rescale = %+v", lu)
	}

	v := mustBattle(t, svc, ctx)
	if v.Profile.Level != 2 || v.Stats.Attack != 12 || v.State.PlayerHP != 110 {
		t.Fatalf("view = %+v %+v %+v", v.Profile, v.Stats, v.State)
	}
}

func TestCheckAndUpdateLevelNeverLowers(t *testing.T) {
	svc, _, ctx := newTestService(t)

	change, err := svc.CheckAndUpdateLevel(ctx)
	if err != nil || change != nil {
		t.Fatalf("fresh profile change=%+v err=%v", change, err)
	}
	if _, err := svc.AddXP(ctx, 224); err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	change, err = svc.CheckAndUpdateLevel(ctx)
	if err != nil || change == nil || change.To != 2 {
		t.Fatalf("change=%+v err=%v", change, err)
	}
	change, err = svc.CheckAndUpdateLevel(ctx)
	if err != nil || change != nil {
		t.Fatalf("repeat change=%+v err=%v", change, err)
	}
}

func TestLedgerAmounts(t *testing.T) {
	svc, _, ctx := newTestService(t)

	if _, err := svc.AddXP(ctx, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative xp err = %v", err)
	}
	bal, err := svc.AddCurrency(ctx, 30)
	if err != nil || bal != 30 {
		t.Fatalf("credit bal=%d err=%v", bal, err)
	}
	bal, err = svc.AddCurrency(ctx, -31)
	if !errors.Is(err, ErrInsufficientFunds) || bal != 30 {
		t.Fatalf("overspend bal=%d err=%v", bal, err)
	}
	bal, err = svc.AddCurrency(ctx, -30)
	if err != nil || bal != 0 {
		t.Fatalf("spend bal=%d err=%v", bal, err)
	}
}

type failingLoot struct {
	lootStore
	kind string
}

func (f failingLoot) Award(ctx context.Context, e storage.LootEntry) (bool, error) {
	if e.Kind == f.kind {
		return false, errors.New("loot write failed")
	}
	return f.lootStore.Award(ctx, e)
}

func TestLootFailureDoesNotBlockRoundAdvance(t *testing.T) {
	svc, _, ctx := newTestService(t)
	svc.loot = failingLoot{lootStore: svc.loot, kind: storage.LootGold}
	first := SpawnEnemy(1, "u1")

	res, err := svc.Attack(ctx, 1000)
	var perr PersistenceError
	if !errors.As(err, &perr) || perr.Step != "award loot" {
		t.Fatalf("err = %v, want award loot PersistenceError", err)
	}
	if res == nil || res.Defeat == nil || !res.Defeat.Advanced {
		t.Fatalf("round did not advance: %+v", res)
	}

	v := mustBattle(t, svc, ctx)
	if v.State.Round != 2 {
		t.Fatalf("round = %d", v.State.Round)
	}
	if v.Profile.Currency != 0 || v.Profile.XP != first.Drops[1].Amount {
		t.Fatalf("profile = %+v", v.Profile)
	}
}

type flakyCombat struct {
	combatStore
	failAdvance int
}

func (f *flakyCombat) AdvanceRound(ctx context.Context, userID string, round, nextHP int, now time.Time) (bool, error) {
	if f.failAdvance > 0 {
		f.failAdvance--
		return false, errors.New("connection reset")
	}
	return f.combatStore.AdvanceRound(ctx, userID, round, nextHP, now)
}

func TestUnresolvedDefeatIsResumedOnce(t *testing.T) {
	svc, _, ctx := newTestService(t)
	svc.combat = &flakyCombat{combatStore: svc.combat, failAdvance: 1}
	first := SpawnEnemy(1, "u1")

	_, err := svc.Attack(ctx, 1000)
	var perr PersistenceError
	if !errors.As(err, &perr) || perr.Step != "advance round" {
		t.Fatalf("err = %v, want advance round failure", err)
	}

	v := mustBattle(t, svc, ctx)
	if v.State.Round != 2 || v.State.EnemiesDefeated != 1 {
		t.Fatalf("state after resume = %+v", v.State)
	}
	if v.Profile.Currency != first.Drops[0].Amount {
		t.Fatalf("gold credited %d times over: %d", v.Profile.Currency/first.Drops[0].Amount, v.Profile.Currency)
	}

	v = mustBattle(t, svc, ctx)
	if v.State.Round != 2 {
		t.Fatalf("round moved again: %d", v.State.Round)
	}
}

func TestDailyPenaltyIsOncePerDay(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	mustCreate(t, svc, ctx, CreateTaskInput{Title: "overdue", Difficulty: DifficultyHard, Recurrence: rule(recurrence.Daily(1))})
	clock.Set(time.Date(2024, time.January, 12, 8, 0, 0, 0, time.UTC))
	mustCreate(t, svc, ctx, CreateTaskInput{Title: "today", Difficulty: DifficultyEpic, Recurrence: rule(recurrence.Daily(1))})

	res, err := svc.ApplyDailyPenalty(ctx)
	if err != nil {
		t.Fatalf("penalty: %v", err)
	}
	if !res.Applied || res.Damage != 18 || res.HPBefore != 100 || res.HPAfter != 82 || len(res.Overdue) != 1 {
		t.Fatalf("first penalty = %+v", res)
	}

	res, err = svc.ApplyDailyPenalty(ctx)
	if err != nil {
		t.Fatalf("repeat penalty: %v", err)
	}
	if res.Applied || res.HPAfter != 82 {
		t.Fatalf("repeat penalty = %+v", res)
	}

	clock.Advance(24 * time.Hour)
	res, err = svc.ApplyDailyPenalty(ctx)
	if err != nil {
		t.Fatalf("next day penalty: %v", err)
	}
	if !res.Applied || res.Damage != 18+25 || res.HPAfter != 82-43 {
		t.Fatalf("next day penalty = %+v", res)
	}

	v := mustBattle(t, svc, ctx)
	if v.State.LastPenaltyDate != "2024-01-13" {
		t.Fatalf("watermark = %q", v.State.LastPenaltyDate)
	}
}

func TestDueOnSplitsDueAndOverdue(t *testing.T) {
	svc, clock, ctx := newTestService(t)

	daily := mustCreate(t, svc, ctx, CreateTaskInput{Title: "daily", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.Daily(1))})
	clock.Advance(time.Minute)
	friday := mustCreate(t, svc, ctx, CreateTaskInput{Title: "friday", Difficulty: DifficultyEasy, Recurrence: rule(recurrence.Weekly(time.Friday))})
	clock.Advance(time.Minute)
	once := mustCreate(t, svc, ctx, CreateTaskInput{Title: "once", Difficulty: DifficultyEasy, DueOn: day(2024, time.January, 8)})

	a, err := svc.DueOn(ctx, day(2024, time.January, 10))
	if err != nil {
		t.Fatalf("DueOn: %v", err)
	}
	if len(a.Due) != 1 || a.Due[0].ID != daily.ID {
		t.Fatalf("due Jan 10 = %+v", a.Due)
	}
	if len(a.Overdue) != 1 || a.Overdue[0].ID != once.ID {
		t.Fatalf("overdue Jan 10 = %+v", a.Overdue)
	}

	a, err = svc.DueOn(ctx, day(2024, time.January, 12))
	if err != nil {
		t.Fatalf("DueOn: %v", err)
	}
	if len(a.Due) != 1 || a.Due[0].ID != friday.ID {
		t.Fatalf("due Jan 12 = %+v", a.Due)
	}
	if len(a.Overdue) != 2 {
		t.Fatalf("overdue Jan 12 = %d tasks", len(a.Overdue))
	}
}

func TestConcurrentCompletionsAreSerialized(t *testing.T) {
	svc, _, ctx := newTestService(t)

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, mustCreate(t, svc, ctx, CreateTaskInput{Title: "chore", Difficulty: DifficultyEasy}).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.CompleteTask(ctx, id); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CompleteTask: %v", err)
	}

	// Nine hits at level 1 (8 each), the tenth at level 2 (round(8*12/10) = 10).
	v := mustBattle(t, svc, ctx)
	want := SpawnEnemy(1, "u1").MaxHP - (9*8 + 10)
	if v.State.CurrentEnemyHP != want {
		t.Fatalf("enemy hp = %d, want %d", v.State.CurrentEnemyHP, want)
	}
	if v.Profile.XP != 100 || v.Profile.Currency != 50 || v.Profile.Level != 2 {
		t.Fatalf("profile = %+v", v.Profile)
	}
}

func TestBattleClampsStoredHPToDerivedMaximums(t *testing.T) {
	svc, _, ctx := newTestService(t)
	v := mustBattle(t, svc, ctx)
	if v.State.CurrentEnemyHP != v.Enemy.MaxHP || v.State.PlayerHP != 100 {
		t.Fatalf("fresh state = %+v, enemy %+v", v.State, v.Enemy)
	}

	// Read the same rows with a weaker enemy table and a smaller player.
	enemies := config.Default().Enemies
	enemies.BaseHP = 50
	svc.enemies = NewEnemyGenerator(enemies)
	svc.balance.Player.BaseHP = 80

	v = mustBattle(t, svc, ctx)
	if v.Enemy.MaxHP > 60 || v.State.CurrentEnemyHP != v.Enemy.MaxHP {
		t.Fatalf("enemy hp = %d, derived max %d", v.State.CurrentEnemyHP, v.Enemy.MaxHP)
	}
	if v.Stats.MaxHP != 80 || v.State.PlayerHP != 80 {
		t.Fatalf("player hp = %d/%d, want 80/80", v.State.PlayerHP, v.Stats.MaxHP)
	}

	st, err := svc.combat.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get combat: %v", err)
	}
	if st.CurrentEnemyHP != v.Enemy.MaxHP || st.PlayerHP != 80 {
		t.Fatalf("stored state not clamped: %+v", st)
	}

	res, err := svc.Attack(ctx, 8)
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if res.EnemyHP != v.Enemy.MaxHP-res.Damage {
		t.Fatalf("enemy hp after hit = %d, want %d", res.EnemyHP, v.Enemy.MaxHP-res.Damage)
	}
}
