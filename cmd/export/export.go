// Package export contains the CSV export command.
package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finbot/cmd/root"
	"finbot/internal/container"
	"finbot/internal/export"
)

var (
	userID int64
	output string
)

// Cmd is the export command, a maintenance door for pulling one user's full
// history without going through the API.
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's transaction history to CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == 0 {
			return fmt.Errorf("--user is required")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		c, err := container.New(ctx, root.Cfg, root.Log)
		if err != nil {
			return err
		}
		defer c.Close()

		out := os.Stdout
		if output != "" {
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = file.Close() }()
			out = file
		}

		return export.New(c.Store(), root.Log).WriteCSV(ctx, userID, out)
	},
}

func init() {
	Cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Telegram user id to export")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to stdout)")
}
