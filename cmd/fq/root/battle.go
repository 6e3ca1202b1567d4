package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"focusquest/internal/ui"
)

func newBattleCmd() *cobra.Command {
	var guest bool
	var round int
	var hit int

	cmd := &cobra.Command{
		Use:   "battle",
		Short: "Show the current enemy, or attack it directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if guest {
				if hit > 0 {
					return errors.New("--hit needs a signed-in user")
				}
				e := svc.GuestEnemy(round)
				fmt.Fprintln(out, ui.Muted.Render("Guest preview; nothing is saved."))
				printEnemy(out, e, e.MaxHP)
				return nil
			}

			if hit > 0 {
				res, err := svc.Attack(ctx, hit)
				if res == nil {
					return err
				}
				printAttack(out, res)
				return err
			}

			v, err := svc.Battle(ctx)
			if v == nil {
				return err
			}
			printEnemy(out, v.Enemy, v.State.CurrentEnemyHP)
			fmt.Fprintln(out, ui.LabelValue("Your HP", ui.HPBar(v.State.PlayerHP, v.Stats.MaxHP, 20)))
			return err
		},
	}

	cmd.Flags().BoolVar(&guest, "guest", false, "Preview an unseeded enemy without a user")
	cmd.Flags().IntVar(&round, "round", 1, "Round to preview with --guest")
	cmd.Flags().IntVar(&hit, "hit", 0, "Deal this much raw damage to the current enemy")

	return cmd
}
