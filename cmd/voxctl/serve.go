package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/server"
	"github.com/voxchain/voxchain/telemetry"
	"github.com/voxchain/voxchain/tts"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP synthesis service",
		Long: `Serve exposes the provider chain over HTTP: POST /api/synthesize
returns audio, GET /api/providers reports chain status, and GET /health
answers readiness probes. The process shuts down gracefully on SIGINT
and SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logger := core.NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name)

			if cfg.Telemetry.Enabled {
				tcfg := telemetry.FromCoreConfig(cfg.Telemetry, cfg.Development.Enabled)
				if tcfg.ServiceName == "" {
					tcfg.ServiceName = cfg.Name
				}
				if err := telemetry.Initialize(tcfg); err != nil {
					logger.Warn("Telemetry initialization failed, continuing without", map[string]interface{}{
						"operation": "telemetry_init_failed",
						"error":     err.Error(),
					})
				} else {
					defer func() {
						ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						_ = telemetry.Shutdown(ctx)
					}()
				}
			}

			deps := tts.NewDependencies(cfg)
			deps.Logger = logger
			chain, err := tts.NewChainFromConfig(cfg, deps)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, chain, server.WithLogger(logger))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.Start()
			}()

			select {
			case err := <-serveErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			stop()

			if err := srv.Shutdown(context.Background()); err != nil {
				return err
			}
			if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			logger.Info("Shutdown complete", map[string]interface{}{
				"operation": "server_stopped",
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port")

	return cmd
}
