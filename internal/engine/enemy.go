package engine

import (
	"math"
	"math/rand/v2"

	"focusquest/internal/config"
	"focusquest/internal/storage"
)

type DropKind string

const (
	DropGold DropKind = storage.LootGold
	DropXP   DropKind = storage.LootXP
	DropItem DropKind = storage.LootItem
)

type Drop struct {
	Kind   DropKind
	Amount int
	Item   string
}

// Enemy is derived from (seed key, round) and never stored; only its current
// HP lives in the combat state.
type Enemy struct {
	Round  int
	IsBoss bool
	MaxHP  int
	Level  int
	Drops  []Drop
}

type EnemyGenerator struct {
	cfg config.EnemyBalance
}

func NewEnemyGenerator(cfg config.EnemyBalance) *EnemyGenerator {
	return &EnemyGenerator{cfg: cfg}
}

// Spawn builds seedKey's enemy for round. Equal inputs give equal enemies.
func (g *EnemyGenerator) Spawn(round int, seedKey string) Enemy {
	if round < 1 {
		round = 1
	}
	return g.build(round, NewMulberry32(EnemySeed(seedKey, round)))
}

// SpawnGuest builds an enemy from an unseeded source. Guest enemies are for
// display only and must never back stored combat state.
func (g *EnemyGenerator) SpawnGuest(round int) Enemy {
	if round < 1 {
		round = 1
	}
	return g.build(round, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func (g *EnemyGenerator) IsBossRound(round int) bool {
	return g.cfg.BossEvery > 0 && round%g.cfg.BossEvery == 0
}

// build draws, in order: HP jitter (non-boss only), gold, xp, boss item.
func (g *EnemyGenerator) build(round int, src floatSource) Enemy {
	cfg := g.cfg
	e := Enemy{
		Round:  round,
		IsBoss: g.IsBossRound(round),
		Level:  1 + (round-1)/2,
	}

	base := cfg.BaseHP + (round-1)*cfg.HPPerRound
	if e.IsBoss {
		e.MaxHP = int(math.Round(float64(base) * cfg.BossHPMultiplier))
	} else {
		jitter := int(math.Floor(src.Float64()*float64(2*cfg.Jitter+1))) - cfg.Jitter
		e.MaxHP = base + jitter
	}
	if e.MaxHP < 1 {
		e.MaxHP = 1
	}

	gold, xp := cfg.Gold, cfg.XP
	if e.IsBoss {
		gold, xp = cfg.BossGold, cfg.BossXP
	}
	e.Drops = []Drop{
		{Kind: DropGold, Amount: intRange(src, gold.Min, gold.Max)},
		{Kind: DropXP, Amount: intRange(src, xp.Min, xp.Max)},
	}
	if e.IsBoss && len(cfg.BossItems) > 0 {
		idx := intRange(src, 0, len(cfg.BossItems)-1)
		e.Drops = append(e.Drops, Drop{Kind: DropItem, Amount: 1, Item: cfg.BossItems[idx]})
	}
	return e
}

var defaultEnemies = NewEnemyGenerator(config.Default().Enemies)

// SpawnEnemy generates an enemy with the default balance.
func SpawnEnemy(round int, seedKey string) Enemy {
	return defaultEnemies.Spawn(round, seedKey)
}

// SpawnGuestEnemy is SpawnEnemy without a seed key.
func SpawnGuestEnemy(round int) Enemy {
	return defaultEnemies.SpawnGuest(round)
}
