// Package export renders analysis reports for download: an XLSX workbook,
// a standalone HTML page and a Markdown document derived from that page.
package export

import (
	"log/slog"
	"strconv"

	md "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Content types of the rendered formats.
const (
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeHTML     = "text/html; charset=utf-8"
)

// Service renders reports. It is safe for concurrent use.
type Service struct {
	logger    *slog.Logger
	policy    *bluemonday.Policy
	converter *md.Converter
}

// New creates a Service.
func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		policy: bluemonday.UGCPolicy(),
		converter: md.NewConverter(
			md.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Extension returns the file extension for a format name, or "" when the
// format is not exportable.
func Extension(format string) string {
	switch format {
	case "xlsx":
		return ".xlsx"
	case "md", "markdown":
		return ".md"
	case "html":
		return ".html"
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func percent(score float64) string {
	return strconv.Itoa(int(score*100+0.5)) + " %"
}
