package engine

import "focusquest/internal/config"

// LevelCurve is the progressive XP curve. Advancing from level L to L+1 costs
// Base + (L-1)*Increment XP; level 1 starts at 0 XP.
type LevelCurve struct {
	Base      int
	Increment int
}

var DefaultLevelCurve = LevelCurve{Base: 100, Increment: 25}

func LevelCurveFrom(l config.Leveling) LevelCurve {
	return LevelCurve{Base: l.Base, Increment: l.Increment}
}

type LevelInfo struct {
	Level          int
	XPIntoLevel    int
	XPForNextLevel int
	XPAtLevelStart int
}

// Progress is the fraction of the current level already earned.
func (li LevelInfo) Progress() float64 {
	if li.XPForNextLevel <= 0 {
		return 0
	}
	return float64(li.XPIntoLevel) / float64(li.XPForNextLevel)
}

// StepCost returns the XP needed to go from level to level+1.
func (c LevelCurve) StepCost(level int) int {
	if level < 1 {
		level = 1
	}
	cost := c.Base + (level-1)*c.Increment
	if cost < 1 {
		return 1
	}
	return cost
}

// XPRequiredForLevel returns the total XP threshold required to be at the given level.
func (c LevelCurve) XPRequiredForLevel(level int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += c.StepCost(l)
	}
	return total
}

// Info places xp on the curve. Negative xp counts as 0.
func (c LevelCurve) Info(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level, start := 1, 0
	need := c.StepCost(level)
	for xp-start >= need {
		start += need
		level++
		need = c.StepCost(level)
	}
	return LevelInfo{
		Level:          level,
		XPIntoLevel:    xp - start,
		XPForNextLevel: need,
		XPAtLevelStart: start,
	}
}

func (c LevelCurve) LevelFor(xp int) int {
	return c.Info(xp).Level
}

// LevelInfoFor uses DefaultLevelCurve.
func LevelInfoFor(xp int) LevelInfo {
	return DefaultLevelCurve.Info(xp)
}
