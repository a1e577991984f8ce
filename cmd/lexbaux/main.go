// Command lexbaux analyses French commercial leases: HTTP server, one-shot
// CLI analysis and an MCP stdio server.
package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/lexbaux/analyzer"
	"github.com/hazyhaar/lexbaux/config"
	"github.com/hazyhaar/lexbaux/dbopen"
	"github.com/hazyhaar/lexbaux/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lexbaux: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root pre-run has loaded
// the configuration.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:                   "lexbaux [command]",
		Short:                 "Analyse de risques des baux commerciaux",
		Long:                  "LexBaux extrait le texte d'un bail commercial, repère les clauses sensibles, calcule un score de risque et propose une checklist de négociation.",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (default: defaults + environment)")

	root.AddCommand(
		a.serveCmd(),
		a.analyzeCmd(),
		a.infoCmd(),
		a.validateCmd(),
		a.mcpCmd(),
		a.statsCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Only serve logs to stdout; other commands keep stdout for their output.
	out := cmd.ErrOrStderr()
	if cmd.Name() == "serve" {
		out = cmd.OutOrStdout()
	}
	a.logger = newLogger(out, cfg)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openMetrics opens the metrics store. With metrics disabled it returns a
// nil manager and a no-op closer.
func (a *app) openMetrics() (*observability.MetricsManager, func(), error) {
	if !a.cfg.Metrics.Enabled {
		return nil, func() {}, nil
	}
	db, err := dbopen.Open(a.cfg.Metrics.DBPath, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		return nil, nil, fmt.Errorf("metrics db: %w", err)
	}
	mm := observability.NewMetricsManager(db, 100, a.cfg.Metrics.FlushInterval)
	return mm, func() { closeMetrics(a.logger, mm, db) }, nil
}

func closeMetrics(logger *slog.Logger, mm *observability.MetricsManager, db *sql.DB) {
	mm.Close()
	if err := db.Close(); err != nil {
		logger.Warn("close metrics db", "error", err)
	}
}

// newAnalyzer builds the analysis service, recording metrics when mm is set.
func (a *app) newAnalyzer(strategy string, mm *observability.MetricsManager) (*analyzer.Service, error) {
	if strategy == "" {
		strategy = a.cfg.GeneralInfo.Strategy
	}
	cfg := analyzer.Config{Strategy: strategy, Logger: a.logger, Version: version}
	if mm != nil {
		cfg.Metrics = mm
	}
	return analyzer.New(cfg)
}
