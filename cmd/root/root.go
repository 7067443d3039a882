// Package root contains the root command for the application.
package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finbot/internal/config"
	"finbot/internal/logging"
)

var (
	// Cfg is loaded once before any command runs.
	Cfg *config.Config

	// Log is the shared logger instance for commands.
	Log logging.Logger = logging.GetLogger()

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "finbot",
		Short: "Backend for the personal finance Telegram bot.",
		Long: `finbot serves the HTTP API behind the finance tracking bot: free-text
and receipt entry, subscriptions with renewal reminders, statistics and
CSV export.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			Cfg = cfg
			Log = config.ConfigureLogging(cfg)
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Use --help to see available commands")
		},
	}
)

// Execute runs the root command.
func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
