package engine

import (
	"errors"
	"testing"
	"time"

	"focusquest/internal/config"
	"focusquest/internal/recurrence"
)

func TestLevelInfo(t *testing.T) {
	tests := []struct {
		xp   int
		want LevelInfo
	}{
		{0, LevelInfo{Level: 1, XPIntoLevel: 0, XPForNextLevel: 100, XPAtLevelStart: 0}},
		{99, LevelInfo{Level: 1, XPIntoLevel: 99, XPForNextLevel: 100, XPAtLevelStart: 0}},
		{100, LevelInfo{Level: 2, XPIntoLevel: 0, XPForNextLevel: 125, XPAtLevelStart: 100}},
		{224, LevelInfo{Level: 2, XPIntoLevel: 124, XPForNextLevel: 125, XPAtLevelStart: 100}},
		{225, LevelInfo{Level: 3, XPIntoLevel: 0, XPForNextLevel: 150, XPAtLevelStart: 225}},
		{-5, LevelInfo{Level: 1, XPIntoLevel: 0, XPForNextLevel: 100, XPAtLevelStart: 0}},
	}
	for _, tt := range tests {
		if got := LevelInfoFor(tt.xp); got != tt.want {
			t.Errorf("LevelInfoFor(%d) = %+v, want %+v", tt.xp, got, tt.want)
		}
	}
}

func TestXPRequiredForLevel(t *testing.T) {
	c := DefaultLevelCurve
	want := map[int]int{1: 0, 2: 100, 3: 225, 4: 375, 5: 550}
	for level, xp := range want {
		if got := c.XPRequiredForLevel(level); got != xp {
			t.Errorf("XPRequiredForLevel(%d) = %d, want %d", level, got, xp)
		}
	}
	if p := c.Info(150).Progress(); p != 0.4 {
		t.Fatalf("progress at 150 = %v, want 0.4", p)
	}
}

func TestEffectiveDamage(t *testing.T) {
	tests := []struct {
		raw, attack, base, want int
	}{
		{10, 10, 10, 10},
		{10, 20, 10, 20},
		{8, 12, 10, 10},
		{7, 12, 10, 8},
		{0, 10, 10, 1},
		{5, 10, 0, 50},
	}
	for _, tt := range tests {
		if got := EffectiveDamage(tt.raw, tt.attack, tt.base); got != tt.want {
			t.Errorf("EffectiveDamage(%d, %d, %d) = %d, want %d", tt.raw, tt.attack, tt.base, got, tt.want)
		}
	}
	if hp := ApplyDamage(50, 10, 20, 10); hp != 30 {
		t.Fatalf("ApplyDamage(50, 10, 20, 10) = %d, want 30", hp)
	}
	if hp := ApplyDamage(5, 10, 10, 10); hp != 0 {
		t.Fatalf("overkill left %d hp", hp)
	}
}

func TestStatsAndRescale(t *testing.T) {
	p := config.Default().Player
	if s := StatsForLevel(p, 3); s.Attack != 14 || s.MaxHP != 120 {
		t.Fatalf("level 3 stats = %+v", s)
	}
	if s := StatsForLevel(p, 0); s.Level != 1 || s.Attack != 10 {
		t.Fatalf("level 0 stats = %+v", s)
	}

	tests := []struct {
		hp, oldMax, newMax, want int
	}{
		{50, 100, 110, 55},
		{100, 100, 110, 110},
		{0, 100, 110, 1},
		{1, 100, 300, 3},
		{40, 0, 120, 120},
	}
	for _, tt := range tests {
		if got := RescaleHP(tt.hp, tt.oldMax, tt.newMax); got != tt.want {
			t.Errorf("RescaleHP(%d, %d, %d) = %d, want %d", tt.hp, tt.oldMax, tt.newMax, got, tt.want)
		}
	}
}

func TestRewardTable(t *testing.T) {
	rt := RewardTableFrom(config.Default().Rewards)
	r, err := rt.For(DifficultyHard)
	if err != nil || r != (Reward{XP: 35, Damage: 18, Currency: 15}) {
		t.Fatalf("hard reward = %+v, %v", r, err)
	}
	var derr DifficultyError
	if _, err := rt.For(0); !errors.As(err, &derr) {
		t.Fatalf("For(0) err = %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"", DifficultyEasy},
		{"Easy", DifficultyEasy},
		{"normal", DifficultyMedium},
		{" h ", DifficultyHard},
		{"epic", DifficultyEpic},
		{"4", DifficultyEpic},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"0", "5", "legendary"} {
		if _, err := ParseDifficulty(bad); err == nil {
			t.Errorf("ParseDifficulty(%q) accepted", bad)
		}
	}
}

func TestParseRecurrence(t *testing.T) {
	r, err := ParseRecurrence("once", 0, "", 0)
	if err != nil || r != nil {
		t.Fatalf("once = %v, %v", r, err)
	}

	r, err = ParseRecurrence("every", 3, "", 2)
	if err != nil {
		t.Fatalf("every: %v", err)
	}
	if r.Kind != recurrence.KindEveryNDays || r.Interval != 3 || r.MaxOccurrences != 2 {
		t.Fatalf("every = %+v", r)
	}

	r, err = ParseRecurrence("weekly", 0, "fri, mon,1", 0)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if len(r.Weekdays) != 2 || r.Weekdays[0] != time.Monday || r.Weekdays[1] != time.Friday {
		t.Fatalf("weekdays = %v", r.Weekdays)
	}

	for _, tc := range []struct{ kind, days string }{
		{"weekly", ""},
		{"weekly", "funday"},
		{"weekly", "7"},
		{"monthly", ""},
	} {
		if _, err := ParseRecurrence(tc.kind, 0, tc.days, 0); !errors.Is(err, recurrence.ErrInvalidRule) {
			t.Errorf("ParseRecurrence(%q, %q) err = %v", tc.kind, tc.days, err)
		}
	}
	if _, err := ParseRecurrence("every", 0, "", 0); !errors.Is(err, recurrence.ErrInvalidRule) {
		t.Fatalf("every 0 err = %v", err)
	}
}
