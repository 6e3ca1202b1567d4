package engine

import (
	"math"

	"focusquest/internal/config"
)

// EffectiveDamage scales rawDamage by playerAttack/baseAttack, rounded and
// floored at 1.
func EffectiveDamage(rawDamage, playerAttack, baseAttack int) int {
	if baseAttack <= 0 {
		baseAttack = 1
	}
	d := int(math.Round(float64(rawDamage) * float64(playerAttack) / float64(baseAttack)))
	if d < 1 {
		return 1
	}
	return d
}

// ApplyDamage returns the enemy HP left after one hit.
func ApplyDamage(enemyHP, rawDamage, playerAttack, baseAttack int) int {
	hp := enemyHP - EffectiveDamage(rawDamage, playerAttack, baseAttack)
	if hp < 0 {
		return 0
	}
	return hp
}

type PlayerStats struct {
	Level  int
	Attack int
	MaxHP  int
}

func StatsForLevel(p config.PlayerBalance, level int) PlayerStats {
	if level < 1 {
		level = 1
	}
	return PlayerStats{
		Level:  level,
		Attack: p.BaseAttack + (level-1)*p.AttackPerLevel,
		MaxHP:  p.BaseHP + (level-1)*p.HPPerLevel,
	}
}

// RescaleHP keeps the player's HP fraction across a max HP change. The result
// is clamped to [1, newMax].
func RescaleHP(hp, oldMax, newMax int) int {
	if newMax < 1 {
		return 1
	}
	if oldMax <= 0 {
		return newMax
	}
	v := int(math.Round(float64(hp) / float64(oldMax) * float64(newMax)))
	switch {
	case v < 1:
		return 1
	case v > newMax:
		return newMax
	}
	return v
}
