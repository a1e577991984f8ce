package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/lexbaux/analyzer"
	"github.com/hazyhaar/lexbaux/docpipe"
	"github.com/hazyhaar/lexbaux/lease"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate REPORT.json",
		Short: "Vérifie un rapport JSON contre le schéma",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := lease.ValidateJSON(data); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Sert les outils d'analyse en MCP sur stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mm, closeMetrics, err := a.openMetrics()
			if err != nil {
				return err
			}
			defer closeMetrics()

			svc, err := a.newAnalyzer("", mm)
			if err != nil {
				return err
			}
			srv := newMCPServer(svc, docpipe.New(docpipe.Config{Logger: a.logger}), a.cfg.MCP.Root)
			a.logger.Info("mcp server on stdio", "version", version, "root", a.cfg.MCP.Root)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newMCPServer(svc *analyzer.Service, pipe *docpipe.Pipeline, root string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "lexbaux", Version: version}, nil)
	svc.RegisterMCP(srv, analyzer.MCPOptions{Root: root})
	pipe.RegisterMCP(srv)
	return srv
}

func (a *app) statsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats [--days N]",
		Short: "Affiche les métriques d'analyse agrégées",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Metrics.Enabled {
				return fmt.Errorf("metrics are disabled")
			}
			mm, closeMetrics, err := a.openMetrics()
			if err != nil {
				return err
			}
			defer closeMetrics()

			st, err := mm.Stats(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "window in days")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Affiche la version",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lexbaux %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
