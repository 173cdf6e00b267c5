package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/di"
	"github.com/photoramax/photorama/internal/di/providers"
	"github.com/photoramax/photorama/internal/logger"
)

func newServeCmd(flags *config.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local library over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector := di.NewContainer(*flags)

			if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
				injector.Shutdown() //nolint:errcheck
				return err
			}
			log := do.MustInvoke[*logger.Logger](injector)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case <-quit:
			case <-cmd.Context().Done():
			}

			log.Info("Shutting down gracefully...")

			// The container shuts down dependents first: the HTTP server, then
			// the photo store, then the cache and database.
			injector.Shutdown() //nolint:errcheck

			log.Info("Shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (default 127.0.0.1:8765)")
	return cmd
}
