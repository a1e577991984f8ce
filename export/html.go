package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/hazyhaar/lexbaux/lease"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var reportTmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"percent": percent,
	"index_name": func(i lease.Index) string {
		if i == lease.IndexNone {
			return "non détectée"
		}
		return string(i)
	},
	"checklist": func(r *lease.Report) *lease.Checklist {
		if r.Checklist != nil {
			return r.Checklist
		}
		return lease.BuildChecklist(r.Findings)
	},
}).ParseFS(templateFS, "templates/*.html.tmpl"))

// HTML writes the report as a standalone page.
func (s *Service) HTML(w io.Writer, r *lease.Report) error {
	if err := reportTmpl.ExecuteTemplate(w, "page.html.tmpl", r); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Markdown renders the report body, sanitises it and converts it to
// Markdown.
func (s *Service) Markdown(r *lease.Report) ([]byte, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := reportTmpl.ExecuteTemplate(&buf, "body", r); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	clean := s.policy.SanitizeBytes(buf.Bytes())

	out, err := s.converter.ConvertString(string(clean))
	if err != nil {
		return nil, fmt.Errorf("html to markdown: %w", err)
	}
	out = strings.TrimSpace(out) + "\n"

	s.logger.Info("export.md.ok",
		"findings", len(r.Findings),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(out), nil
}
