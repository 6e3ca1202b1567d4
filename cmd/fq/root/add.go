package root

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focusquest/internal/engine"
	"focusquest/internal/storage"
	"focusquest/internal/ui"
)

func newAddCmd() *cobra.Command {
	var diff string
	var desc string
	var repeat string
	var every int
	var days string
	var count int
	var due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a one-time or recurring task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := engine.ParseDifficulty(diff)
			if err != nil {
				return err
			}
			rule, err := engine.ParseRecurrence(repeat, every, days, count)
			if err != nil {
				return err
			}

			ctx, svc, cleanup, err := openService(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			in := engine.CreateTaskInput{Title: args[0], Description: desc, Difficulty: d, Recurrence: rule}
			if due != "" {
				day, err := time.ParseInLocation(storage.DateLayout, due, svc.Location())
				if err != nil {
					return fmt.Errorf("invalid --due %q (want YYYY-MM-DD): %w", due, err)
				}
				in.DueOn = day
			}

			t, err := svc.CreateTask(ctx, in)
			if err != nil {
				return err
			}

			repeatText := "once"
			if t.Recurrence != nil {
				repeatText = t.Recurrence.String()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconPlus, "Task added"))
			fmt.Fprintln(out, ui.LabelValue("ID", shortID(t.ID)))
			fmt.Fprintln(out, ui.LabelValue("Title", t.Title))
			fmt.Fprintln(out, ui.LabelValue("Difficulty", ui.DifficultyText(t.Difficulty)))
			fmt.Fprintln(out, ui.LabelValue("Repeat", repeatText))
			fmt.Fprintln(out, ui.LabelValue("Due", t.NextDue.Format(storage.DateLayout)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&diff, "diff", "d", "easy", "Difficulty (easy|medium|hard|epic or 1-4)")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "once", "Recurrence (once|daily|every|weekly)")
	cmd.Flags().IntVarP(&every, "every", "n", 1, "Interval in days for daily/every")
	cmd.Flags().StringVar(&days, "days", "", "Weekdays for weekly, e.g. mon,wed,fri")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many completions (0 = forever)")
	cmd.Flags().StringVar(&due, "due", "", "First due date (YYYY-MM-DD, default today)")

	return cmd
}
