package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Balance holds gameplay balance configuration
type Balance struct {
	Leveling Leveling           `yaml:"leveling"`
	Player   PlayerBalance      `yaml:"player"`
	Rewards  map[int]TaskReward `yaml:"rewards"`
	Enemies  EnemyBalance       `yaml:"enemies"`
}

// Leveling is the progressive XP curve: advancing from level L costs
// Base + (L-1)*Increment.
type Leveling struct {
	Base      int `yaml:"base"`
	Increment int `yaml:"increment"`
}

type PlayerBalance struct {
	BaseAttack     int `yaml:"base_attack"`
	AttackPerLevel int `yaml:"attack_per_level"`
	BaseHP         int `yaml:"base_hp"`
	HPPerLevel     int `yaml:"hp_per_level"`
}

// TaskReward is what completing a task of one difficulty is worth.
type TaskReward struct {
	XP       int `yaml:"xp"`
	Damage   int `yaml:"damage"`
	Currency int `yaml:"currency"`
}

type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type EnemyBalance struct {
	BaseHP           int      `yaml:"base_hp"`
	HPPerRound       int      `yaml:"hp_per_round"`
	BossEvery        int      `yaml:"boss_every"`
	BossHPMultiplier float64  `yaml:"boss_hp_multiplier"`
	Jitter           int      `yaml:"jitter"`
	Gold             Range    `yaml:"gold"`
	XP               Range    `yaml:"xp"`
	BossGold         Range    `yaml:"boss_gold"`
	BossXP           Range    `yaml:"boss_xp"`
	BossItems        []string `yaml:"boss_items"`
}

// Default returns the default balance configuration
func Default() Balance {
	return Balance{
		Leveling: Leveling{Base: 100, Increment: 25},
		Player: PlayerBalance{
			BaseAttack:     10,
			AttackPerLevel: 2,
			BaseHP:         100,
			HPPerLevel:     10,
		},
		Rewards: map[int]TaskReward{
			1: {XP: 10, Damage: 8, Currency: 5},
			2: {XP: 20, Damage: 12, Currency: 10},
			3: {XP: 35, Damage: 18, Currency: 15},
			4: {XP: 50, Damage: 25, Currency: 25},
		},
		Enemies: EnemyBalance{
			BaseHP:           100,
			HPPerRound:       15,
			BossEvery:        5,
			BossHPMultiplier: 1.8,
			Jitter:           10,
			Gold:             Range{Min: 5, Max: 15},
			XP:               Range{Min: 10, Max: 25},
			BossGold:         Range{Min: 30, Max: 60},
			BossXP:           Range{Min: 50, Max: 100},
			BossItems:        []string{"Ancient Relic", "Dragon Scale", "Crown of Focus", "Phoenix Feather"},
		},
	}
}

// Casual gives the player more health. Enemies and the level curve are the
// same in every preset.
func Casual() Balance {
	cfg := Default()
	cfg.Player.BaseHP = 120
	cfg.Player.HPPerLevel = 12
	return cfg
}

// Hard gives the player less health.
func Hard() Balance {
	cfg := Default()
	cfg.Player.BaseHP = 80
	cfg.Player.HPPerLevel = 8
	return cfg
}

// Preset returns the named difficulty preset.
func Preset(name string) (Balance, error) {
	switch name {
	case "", "normal", "default":
		return Default(), nil
	case "casual":
		return Casual(), nil
	case "hard":
		return Hard(), nil
	default:
		return Balance{}, fmt.Errorf("unknown difficulty preset %q", name)
	}
}

// LoadBalanceFile decodes a YAML balance file over base. Keys missing from the
// file keep base's values.
func LoadBalanceFile(path string, base Balance) (Balance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	return ParseBalance(data, base)
}

func ParseBalance(data []byte, base Balance) (Balance, error) {
	out := base
	out.Rewards = make(map[int]TaskReward, len(base.Rewards))
	for k, v := range base.Rewards {
		out.Rewards[k] = v
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Balance{}, fmt.Errorf("decode balance: %w", err)
	}
	if err := out.Validate(); err != nil {
		return Balance{}, err
	}
	return out, nil
}

// Validate checks a balance. Stored combat rounds and XP totals are
// interpreted through the level curve and the enemy tables, so those must
// match Default; only player stats and task rewards can be tuned.
func (b Balance) Validate() error {
	def := Default()
	var errs []error
	if b.Leveling != def.Leveling {
		errs = append(errs, fmt.Errorf("leveling is fixed at base %d, increment %d", def.Leveling.Base, def.Leveling.Increment))
	}
	if !reflect.DeepEqual(b.Enemies, def.Enemies) {
		errs = append(errs, errors.New("enemies cannot be changed"))
	}
	if b.Player.BaseAttack <= 0 {
		errs = append(errs, errors.New("player.base_attack must be positive"))
	}
	if b.Player.AttackPerLevel < 0 {
		errs = append(errs, errors.New("player.attack_per_level must not be negative"))
	}
	if b.Player.BaseHP <= 0 {
		errs = append(errs, errors.New("player.base_hp must be positive"))
	}
	if b.Player.HPPerLevel < 0 {
		errs = append(errs, errors.New("player.hp_per_level must not be negative"))
	}
	for d := 1; d <= 4; d++ {
		r, ok := b.Rewards[d]
		if !ok {
			errs = append(errs, fmt.Errorf("rewards.%d missing", d))
			continue
		}
		if r.XP < 0 || r.Damage < 0 || r.Currency < 0 {
			errs = append(errs, fmt.Errorf("rewards.%d must not be negative", d))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid balance: %w", errors.Join(errs...))
	}
	return nil
}
