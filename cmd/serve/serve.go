// Package serve contains the HTTP server command.
package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"finbot/cmd/root"
	"finbot/internal/container"
)

var addr string

// Cmd is the serve command.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := container.New(ctx, root.Cfg, root.Log)
		if err != nil {
			return err
		}
		defer c.Close()

		listenAddr := addr
		if listenAddr == "" {
			listenAddr = root.Cfg.Server.Addr
		}

		srv := &http.Server{
			Addr:              listenAddr,
			Handler:           c.Server().Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			root.Log.WithField("addr", listenAddr).Info("HTTP server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			root.Log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides configuration)")
}
