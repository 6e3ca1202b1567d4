package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"focusquest/internal/engine"
	"focusquest/internal/ui"
)

const Version = "0.2.0"

var (
	userFlag string
	dbFlag   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fq",
		Short:         "FocusQuest: recurring tasks that fight back",
		Long:          "FocusQuest turns recurring tasks into XP, gold and damage against an endless line of enemies.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Acting user (overrides FOCUSQUEST_USER)")
	cmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database DSN or SQLite path (overrides FOCUSQUEST_DB_DSN)")

	cmd.AddCommand(
		newAddCmd(),
		newDoCmd(),
		newListCmd(),
		newShowCmd(),
		newTodayCmd(),
		newStatusCmd(),
		newBattleCmd(),
		newTickCmd(),
		newLootCmd(),
		newSpendCmd(),
		newBoardCmd(),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		if errors.Is(err, engine.ErrNotAuthenticated) {
			fmt.Fprintln(os.Stderr, ui.Muted.Render("Pass --user <name> or set FOCUSQUEST_USER."))
		}
		os.Exit(1)
	}
}
