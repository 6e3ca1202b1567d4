package root

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"focusquest/internal/ui"
)

func newSpendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spend <amount>",
		Short: "Spend gold",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("amount is required")
			}
			if n, err := strconv.Atoi(args[0]); err != nil || n <= 0 {
				return errors.New("amount must be a positive integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, _ := strconv.Atoi(args[0])

			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			bal, err := svc.AddCurrency(ctx, -amount)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue(ui.IconCoin+" Gold", bal))
			return nil
		},
	}

	return cmd
}
