package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/lexbaux/server"
	"github.com/hazyhaar/lexbaux/shield"
)

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve [--listen ADDR]",
		Short: "Démarre le serveur HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	mm, closeMetrics, err := a.openMetrics()
	if err != nil {
		return err
	}
	defer closeMetrics()
	if mm != nil {
		if n, err := mm.Cleanup(ctx, a.cfg.Metrics.RetentionDays); err != nil {
			a.logger.Warn("metrics cleanup", "error", err)
		} else if n > 0 {
			a.logger.Info("metrics cleanup", "deleted", n)
		}
	}

	svc, err := a.newAnalyzer("", mm)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{
		Analyzer:       svc,
		Logger:         a.logger,
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
		RateLimit: shield.RateLimitConfig{
			MaxRequests: a.cfg.RateLimit.Requests,
			Window:      a.cfg.RateLimit.Window,
		},
		TrustProxy: a.cfg.RateLimit.TrustProxy,
		Version:    version,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, a.cfg.Listen)
}
