package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nipafx/LibFX-sub001/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenarios over HTTP",
		Long: `Serve the configured scenarios over HTTP.

  GET  /healthz
  GET  /metrics
  GET  /scenarios
  POST /scenarios/{name}/run
  GET  /scenarios/{name}/watch   (WebSocket)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Serve.Addr
			}

			s := server.New(server.Config{
				Addr:         addr,
				Source:       a.cfg.ScenarioPath(),
				WriteTimeout: a.cfg.Serve.WriteTimeoutDuration(),
			}, a.loader,
				server.WithLogger(a.logger),
				server.WithObserver(a.observer),
				server.WithGatherer(a.registry),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}
