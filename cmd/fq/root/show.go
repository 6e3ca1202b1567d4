package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"focusquest/internal/storage"
	"focusquest/internal/ui"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its completion history",
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
			t, ledger, err := svc.TaskHistory(ctx, id)
			if t == nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.KindIcon(t.Recurrence != nil), t.Title))
			printTaskLine(out, *t)
			if t.Description != "" {
				fmt.Fprintln(out, ui.Muted.Render(t.Description))
			}
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("Completions (%d)", len(ledger))))
			for _, c := range ledger {
				due := "-"
				if c.DueAt != nil {
					due = c.DueAt.Format(storage.DateLayout)
				}
				fmt.Fprintf(out, "- %s %s\n", c.CompletedAt.In(svc.Location()).Format("2006-01-02 15:04"), ui.Muted.Render("(due "+due+")"))
			}
			return err
		},
	}

	return cmd
}
