package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"focusquest/internal/engine"
	"focusquest/internal/ui"
)

func newLootCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "loot",
		Short: "Show recent enemy drops",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := svc.LootLog(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Loot"))
			if len(entries) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(no drops yet)"))
				return nil
			}
			for _, e := range entries {
				d := engine.Drop{Kind: engine.DropKind(e.Kind), Amount: e.Amount, Item: e.Item}
				fmt.Fprintf(out, "%s %s\n", ui.Muted.Render(fmt.Sprintf("round %d", e.Round)), dropText(d))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")

	return cmd
}
