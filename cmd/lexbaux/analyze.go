package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/lexbaux/analyzer"
	"github.com/hazyhaar/lexbaux/docpipe"
	"github.com/hazyhaar/lexbaux/export"
	"github.com/hazyhaar/lexbaux/generalinfo"
	"github.com/hazyhaar/lexbaux/kit"
	"github.com/hazyhaar/lexbaux/lease"
)

const exampleAnalyzeUsage = `  # Rapport JSON sur la sortie standard
  lexbaux analyze bail.pdf

  # Classeur Excel
  lexbaux analyze bail.pdf --format xlsx --out rapport.xlsx

  # Markdown depuis un texte déjà extrait
  lexbaux analyze bail.txt --format md`

func (a *app) analyzeCmd() *cobra.Command {
	var format, out, strategy string
	cmd := &cobra.Command{
		Use:                   "analyze FILE [--format json|md|xlsx|html] [--out PATH]",
		Short:                 "Analyse un bail (PDF, texte ou Markdown)",
		Example:               exampleAnalyzeUsage,
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if export.Extension(format) == "" && format != "json" {
				return fmt.Errorf("unknown format %q (json, md, xlsx, html)", format)
			}
			if format == "xlsx" && out == "" {
				return errors.New("--format xlsx requires --out")
			}

			svc, err := a.newAnalyzer(strategy, nil)
			if err != nil {
				return err
			}
			ctx := kit.WithTransport(cmd.Context(), "cli")
			report, err := svc.AnalyzeFile(ctx, args[0])
			if err != nil {
				if errors.Is(err, analyzer.ErrUnusableText) {
					return fmt.Errorf("%s: le document ne contient pas de texte exploitable (scan sans OCR ?)", args[0])
				}
				return err
			}

			data, err := render(export.New(a.logger), report, format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, md, xlsx or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "general-info strategy: label or structured (default: config)")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "info FILE [--strategy label|structured]",
		Short: "Extrait les informations générales (parties, bien, loyer)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newAnalyzer(strategy, nil)
			if err != nil {
				return err
			}
			src, err := a.infoSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info := svc.GeneralInfo(src)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"generalInfo": info,
				"missing":     info.Missing(),
			})
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "label or structured (default: config)")
	return cmd
}

// infoSource reads a lease document as text, or a JSON analysis object
// (report or upstream extraction) for the structured strategy.
func (a *app) infoSource(ctx context.Context, path string) (generalinfo.Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return generalinfo.Source{}, err
		}
		var analysis map[string]any
		if err := json.Unmarshal(data, &analysis); err != nil {
			return generalinfo.Source{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return generalinfo.Source{Analysis: analysis}, nil
	}
	doc, err := docpipe.New(docpipe.Config{Logger: a.logger}).Extract(ctx, path)
	if err != nil {
		return generalinfo.Source{}, err
	}
	return generalinfo.Source{Text: doc.RawText}, nil
}

func render(exp *export.Service, r *lease.Report, format string) ([]byte, error) {
	switch format {
	case "xlsx":
		return exp.XLSX(r)
	case "md", "markdown":
		return exp.Markdown(r)
	case "html":
		var buf bytes.Buffer
		if err := exp.HTML(&buf, r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
