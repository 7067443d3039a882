// Package renew contains the subscription renewal sweep command.
package renew

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"finbot/cmd/root"
	"finbot/internal/container"
	"finbot/internal/logging"
)

// Cmd is the renew command. It runs one sweep and exits, which is the shape
// cron and one-shot schedulers expect.
var Cmd = &cobra.Command{
	Use:   "renew",
	Short: "Run one subscription renewal sweep and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		c, err := container.New(ctx, root.Cfg, root.Log)
		if err != nil {
			return err
		}
		defer c.Close()

		summary, err := c.Scheduler().Run(ctx)
		if err != nil {
			return err
		}

		root.Log.WithFields(
			logging.Field{Key: "processed", Value: summary.Processed},
			logging.Field{Key: "notified", Value: summary.Notified},
			logging.Field{Key: "errors", Value: summary.Errors},
		).Info("Renewal sweep complete")
		return nil
	},
}
