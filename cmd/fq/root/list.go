package root

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"focusquest/internal/storage"
	"focusquest/internal/ui"
)

func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := svc.ListTasks(ctx, all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Tasks"))
			if len(tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
				return nil
			}
			for _, t := range tasks {
				printTaskLine(out, t)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived tasks")

	return cmd
}

func newTodayCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show tasks due today and overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			day := time.Now()
			if date != "" {
				day, err = time.ParseInLocation(storage.DateLayout, date, svc.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
			}
			a, err := svc.DueOn(ctx, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconQuest, "Agenda for "+a.Date.Format(storage.DateLayout)))
			if len(a.Overdue) > 0 {
				fmt.Fprintln(out, ui.Bad.Render("Overdue"))
				for _, t := range a.Overdue {
					printTaskLine(out, t)
				}
			}
			fmt.Fprintln(out, ui.H2.Render("Due"))
			if len(a.Due) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(nothing due)"))
			}
			for _, t := range a.Due {
				printTaskLine(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, default today)")

	return cmd
}

func printTaskLine(out io.Writer, t storage.Task) {
	due := "-"
	if t.NextDue != nil {
		due = t.NextDue.Format(storage.DateLayout)
	}
	repeat := "once"
	if t.Recurrence != nil {
		repeat = t.Recurrence.String()
	}
	fmt.Fprintf(out, "%s %s %s %s %s %s %s\n",
		ui.Muted.Render(shortID(t.ID)),
		ui.KindIcon(t.Recurrence != nil),
		t.Title,
		ui.DifficultyText(t.Difficulty),
		ui.Muted.Render(repeat),
		ui.Muted.Render("due "+due),
		ui.ActiveText(t.Active),
	)
}
