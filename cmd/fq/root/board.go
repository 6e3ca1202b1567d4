package root

import (
	"github.com/spf13/cobra"

	"focusquest/internal/tui"
)

func newBoardCmd() *cobra.Command {
	var (
		alt     bool
		penalty bool
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the battle board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.Run(ctx, svc, tui.Options{
				In:        cmd.InOrStdin(),
				Out:       cmd.OutOrStdout(),
				AltScreen: alt,
				Penalty:   penalty,
			})
		},
	}

	cmd.Flags().BoolVar(&alt, "alt", false, "Use the terminal's alternate screen")
	cmd.Flags().BoolVar(&penalty, "penalty", false, "Apply today's overdue penalty on open")
	return cmd
}
