package engine

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSpawnProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("spawn is a pure function of key and round", prop.ForAll(
		func(round int, user int64) bool {
			key := fmt.Sprintf("user-%d", user)
			return reflect.DeepEqual(SpawnEnemy(round, key), SpawnEnemy(round, key))
		},
		gen.IntRange(1, 500),
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("hp and drops stay inside the balance ranges", prop.ForAll(
		func(round int, user int64) bool {
			e := SpawnEnemy(round, fmt.Sprintf("user-%d", user))
			base := 100 + (round-1)*15
			if e.IsBoss {
				if e.Drops[0].Amount < 30 || e.Drops[0].Amount > 60 || e.Drops[1].Amount < 50 || e.Drops[1].Amount > 100 {
					return false
				}
				return len(e.Drops) == 3 && e.Drops[2].Item != ""
			}
			if e.MaxHP < base-10 || e.MaxHP > base+10 {
				return false
			}
			return e.Drops[0].Amount >= 5 && e.Drops[0].Amount <= 15 &&
				e.Drops[1].Amount >= 10 && e.Drops[1].Amount <= 25
		},
		gen.IntRange(1, 500),
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("level is monotone in xp", prop.ForAll(
		func(xp, extra int) bool {
			a, b := LevelInfoFor(xp), LevelInfoFor(xp+extra)
			return b.Level >= a.Level && a.XPAtLevelStart+a.XPIntoLevel == xp
		},
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 10_000),
	))

	properties.TestingRun(t)
}
