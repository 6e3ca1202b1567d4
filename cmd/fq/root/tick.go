package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"focusquest/internal/ui"
)

func newTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Apply today's penalty for overdue tasks (once per day)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.ApplyDailyPenalty(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Applied {
				fmt.Fprintln(out, ui.Muted.Render("Penalty already applied for "+res.Date+"."))
				return nil
			}
			if res.Damage == 0 {
				fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" Nothing overdue for "+res.Date+"."))
				return nil
			}
			fmt.Fprintln(out, ui.Bad.Render(fmt.Sprintf("%s %d overdue task(s) hit you for %d", ui.IconSkull, len(res.Overdue), res.Damage)))
			fmt.Fprintln(out, ui.LabelValue("HP", fmt.Sprintf("%d → %d", res.HPBefore, res.HPAfter)))
			return nil
		},
	}

	return cmd
}
