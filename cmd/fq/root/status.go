package root

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focusquest/internal/engine"
	"focusquest/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, currency and the current battle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			v, err := svc.Battle(ctx)
			if v == nil {
				return err
			}
			out := cmd.OutOrStdout()
			li := v.Level
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Player Status"))
			fmt.Fprintln(out, ui.LabelValue("User", v.Profile.UserID))
			fmt.Fprintln(out, ui.LabelValue("Level", v.Profile.Level))
			fmt.Fprintln(out, ui.LabelValue("XP", fmt.Sprintf("%d %s %d/%d", v.Profile.XP, ui.Bar(li.XPIntoLevel, li.XPForNextLevel, 20), li.XPIntoLevel, li.XPForNextLevel)))
			fmt.Fprintln(out, ui.LabelValue("Gold", v.Profile.Currency))
			fmt.Fprintln(out, ui.LabelValue("Attack", v.Stats.Attack))
			fmt.Fprintln(out, ui.LabelValue("HP", ui.HPBar(v.State.PlayerHP, v.Stats.MaxHP, 20)))
			fmt.Fprintln(out, "")
			printEnemy(out, v.Enemy, v.State.CurrentEnemyHP)
			fmt.Fprintln(out, ui.LabelValue("Enemies defeated", v.State.EnemiesDefeated))
			return err
		},
	}

	return cmd
}

func printEnemy(out io.Writer, e engine.Enemy, hp int) {
	title := fmt.Sprintf("Round %d enemy (level %d)", e.Round, e.Level)
	if e.IsBoss {
		title = fmt.Sprintf("Round %d %s (level %d)", e.Round, ui.BadgeBoss, e.Level)
	}
	fmt.Fprintln(out, ui.H2.Render(ui.IconSword+" ")+title)
	fmt.Fprintln(out, ui.LabelValue("HP", ui.HPBar(hp, e.MaxHP, 20)))
	fmt.Fprint(out, ui.Key.Render("Drops:"))
	for _, d := range e.Drops {
		fmt.Fprint(out, "  "+dropText(d))
	}
	fmt.Fprintln(out)
}
