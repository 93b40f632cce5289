package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/internal/telemetry"
	"github.com/vango-dev/teamstore/pkg/middleware"
	"github.com/vango-dev/teamstore/pkg/selection"
	"github.com/vango-dev/teamstore/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the selection over HTTP and WebSocket",
		Long: `Start the HTTP server.

Routes:
  GET    /selected-team         current value
  PUT    /selected-team         set the value (JSON body)
  DELETE /selected-team         clear the value
  GET    /selected-team/watch   WebSocket change stream
  GET    /healthz               liveness
  GET    /metrics               Prometheus metrics (server.metrics)

Examples:
  teamstore serve
  teamstore serve --addr 0.0.0.0:8090 --dsn redis://localhost:6379/0`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			shutdownTimeout, err := cfg.ShutdownTimeout()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				selOpts []selection.Option
				srvOpts = []server.Option{server.WithLogger(logger)}
			)

			if cfg.Server.Metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
				selOpts = append(selOpts, selection.OnPersist(metrics.RecordPersist))
				srvOpts = append(srvOpts, server.WithMetrics(metrics, reg))
			}

			if cfg.Server.Tracing {
				shutdownTracing, err := telemetry.Setup(ctx, "teamstore", version, cfg.Server.TracingEndpoint)
				if err != nil {
					return err
				}
				defer func() {
					if err := shutdownTracing(cmd.Context()); err != nil {
						logger.Warn("tracing shutdown failed", "error", err)
					}
				}()
				srvOpts = append(srvOpts, server.WithTracing())
			}

			sel, store, err := openSelection(ctx, cfg, logger, selOpts...)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := server.New(sel, &server.Config{
				Address:         cfg.Server.Addr,
				ShutdownTimeout: shutdownTimeout,
			}, srvOpts...)

			out := cmd.OutOrStdout()
			printBanner(out)
			info(out, "Listening on http://%s", cfg.Server.Addr)
			if !sel.Persistent() {
				warn(out, "Storage is unavailable; selections are kept in memory only")
			} else {
				info(out, "Storage key %q", cfg.Storage.Key)
			}

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from teamstore.json)")

	return cmd
}
