package root

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focusquest/internal/engine"
	"focusquest/internal/storage"
	"focusquest/internal/ui"
)

func newDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a task and attack the current enemy",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveTaskID(ctx, svc, args[0])
			if err != nil {
				return err
			}
			res, err := svc.CompleteTask(ctx, id)
			if res == nil {
				return err
			}
			printCompletion(cmd.OutOrStdout(), res)
			// The completion is recorded; report the steps that did not apply.
			return err
		},
	}

	return cmd
}

func printCompletion(out io.Writer, res *engine.CompleteResult) {
	fmt.Fprintln(out, ui.Heading(ui.IconDone, "Completed: "+res.Task.Title))
	fmt.Fprintf(out, "%s +%d XP  %s +%d gold\n", ui.IconSparkle, res.Reward.XP, ui.IconCoin, res.Reward.Currency)
	switch {
	case res.Archived:
		fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("Archived after %d completion(s).", res.CompletedCount)))
	case res.Task.NextDue != nil:
		fmt.Fprintln(out, ui.LabelValue("Next due", res.Task.NextDue.Format(storage.DateLayout)))
	}
	if lu := res.LevelUp; lu != nil {
		fmt.Fprintf(out, "%s %s level %d → %d (HP %d/%d)\n", ui.IconCrown, ui.BadgeLevelUp, lu.From, lu.To, lu.HPAfter, lu.MaxHP)
	}
	if a := res.Attack; a != nil {
		printAttack(out, a)
	}
}

func printAttack(out io.Writer, a *engine.AttackResult) {
	if a.Recovered != nil {
		printDefeat(out, a.Recovered)
	}
	fmt.Fprintf(out, "%s Hit round %d enemy for %d (%d HP left)\n", ui.IconSword, a.Round, a.Damage, a.EnemyHP)
	if a.Defeat != nil {
		printDefeat(out, a.Defeat)
	}
}

func printDefeat(out io.Writer, d *engine.DefeatResult) {
	fmt.Fprintln(out, ui.Gold.Render(fmt.Sprintf("%s Enemy %d defeated!", ui.IconTrophy, d.Round)))
	for _, drop := range d.Awarded {
		fmt.Fprintln(out, "  "+dropText(drop))
	}
	if d.Advanced {
		fmt.Fprintf(out, "  Next: round %d (%d HP)\n", d.NextRound, d.NextEnemyHP)
	}
	if lu := d.LevelUp; lu != nil {
		fmt.Fprintf(out, "  %s level %d → %d\n", ui.BadgeLevelUp, lu.From, lu.To)
	}
}

func dropText(d engine.Drop) string {
	switch d.Kind {
	case engine.DropGold:
		return fmt.Sprintf("%s %d gold", ui.IconCoin, d.Amount)
	case engine.DropXP:
		return fmt.Sprintf("%s %d XP", ui.IconSparkle, d.Amount)
	default:
		return fmt.Sprintf("%s %s", ui.IconBolt, d.Item)
	}
}
