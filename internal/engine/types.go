package engine

import (
	"fmt"

	"focusquest/internal/config"
)

type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
	DifficultyEpic   Difficulty = 4
)

func (d Difficulty) IsValid() bool {
	return d >= DifficultyEasy && d <= DifficultyEpic
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	case DifficultyEpic:
		return "epic"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// Reward is what one completion of a task is worth.
type Reward struct {
	XP       int
	Damage   int
	Currency int
}

type RewardTable map[Difficulty]Reward

func RewardTableFrom(rewards map[int]config.TaskReward) RewardTable {
	out := make(RewardTable, len(rewards))
	for d, r := range rewards {
		out[Difficulty(d)] = Reward{XP: r.XP, Damage: r.Damage, Currency: r.Currency}
	}
	return out
}

func (t RewardTable) For(d Difficulty) (Reward, error) {
	r, ok := t[d]
	if !ok || !d.IsValid() {
		return Reward{}, DifficultyError{Value: int(d)}
	}
	return r, nil
}
