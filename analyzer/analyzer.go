// Package analyzer is the boundary between transports (HTTP, CLI, MCP) and
// the pure lease analysis core. It applies the input gates, runs text
// extraction, attaches general information and records metrics.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/lexbaux/docpipe"
	"github.com/hazyhaar/lexbaux/generalinfo"
	"github.com/hazyhaar/lexbaux/idgen"
	"github.com/hazyhaar/lexbaux/kit"
	"github.com/hazyhaar/lexbaux/lease"
	"github.com/hazyhaar/lexbaux/observability"
)

// MinUsableTextLen is the minimum number of runes, after trimming, for an
// extracted text to be analysed.
const MinUsableTextLen = 40

var (
	// ErrNoFile is returned when the request carries no document.
	ErrNoFile = errors.New("no file received")
	// ErrUnusableText is returned when extraction yields too little text,
	// typically a scanned PDF without OCR.
	ErrUnusableText = errors.New("document has no usable text")
)

// TextExtractor turns documents into text. *docpipe.Pipeline implements it.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*docpipe.Document, error)
	ExtractBytes(ctx context.Context, name string, data []byte) (*docpipe.Document, error)
}

// Recorder receives analysis metrics. *observability.MetricsManager
// implements it.
type Recorder interface {
	Record(m *observability.Metric)
}

type nopRecorder struct{}

func (nopRecorder) Record(*observability.Metric) {}

// Config configures a Service.
type Config struct {
	Extractor TextExtractor // default: docpipe.New with default config
	Strategy  string        // general-info strategy, see generalinfo.ForStrategy
	Metrics   Recorder      // default: discard
	Logger    *slog.Logger
	Version   string // stamped into report meta
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	extractor TextExtractor
	info      generalinfo.Extractor
	metrics   Recorder
	logger    *slog.Logger
	version   string
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	info, err := generalinfo.ForStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = docpipe.New(docpipe.Config{Logger: cfg.Logger})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	return &Service{
		extractor: cfg.Extractor,
		info:      info,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		version:   cfg.Version,
	}, nil
}

// CheckUsable returns ErrUnusableText when text, trimmed, is shorter than
// MinUsableTextLen runes.
func CheckUsable(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinUsableTextLen {
		return ErrUnusableText
	}
	return nil
}

// TextOptions carries what the caller knows about a text beyond its content.
type TextOptions struct {
	Filename string
	Pages    int            // real page count; 0 keeps the text-based guess
	Analysis map[string]any // upstream structured data for the structured strategy
}

// AnalyzeDocument analyses an uploaded document held in memory.
func (s *Service) AnalyzeDocument(ctx context.Context, name string, data []byte) (*lease.Report, error) {
	if len(data) == 0 {
		s.reject(ctx, "no_file")
		return nil, ErrNoFile
	}
	doc, err := s.extractor.ExtractBytes(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return s.analyzeDocument(ctx, name, doc)
}

// AnalyzeFile analyses a document on disk.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*lease.Report, error) {
	doc, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return s.analyzeDocument(ctx, doc.Name, doc)
}

func (s *Service) analyzeDocument(ctx context.Context, name string, doc *docpipe.Document) (*lease.Report, error) {
	if q := doc.Quality; q != nil {
		if q.NeedsOCR() {
			s.logger.Debug("document likely needs OCR", "trace_id", kit.GetTraceID(ctx),
				"pages", q.PageCount, "chars_per_page", q.CharsPerPage)
		} else if q.HasAnnexGap() {
			s.logger.Debug("annexes probably scanned", "trace_id", kit.GetTraceID(ctx),
				"annex_refs", q.AnnexRefCount)
		}
	}
	s.metrics.Record(&observability.Metric{
		Name: observability.MetricDocumentPages, Value: float64(doc.Pages), Unit: "count",
		Labels: map[string]string{"format": string(doc.Format)},
	})
	return s.AnalyzeText(ctx, doc.RawText, TextOptions{Filename: name, Pages: doc.Pages})
}

// AnalyzeText analyses already-extracted text.
func (s *Service) AnalyzeText(ctx context.Context, text string, opts TextOptions) (*lease.Report, error) {
	if err := CheckUsable(text); err != nil {
		s.reject(ctx, "unusable_text")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	id := idgen.AnalysisID()

	report := lease.Analyze(text)
	if opts.Pages > 0 {
		report.Meta.Pages = opts.Pages
	}
	report.Meta.Filename = opts.Filename
	report.Meta.Version = s.version

	if info := s.GeneralInfo(generalinfo.Source{Text: text, Analysis: opts.Analysis}); !info.Empty() {
		report.GeneralInfo = &info
	}

	elapsed := time.Since(start)
	s.record(ctx, report, elapsed)
	s.logger.Info("analysis done",
		"analysis_id", id,
		"trace_id", kit.GetTraceID(ctx),
		"transport", kit.GetTransport(ctx),
		"pages", report.Meta.Pages,
		"findings", len(report.Findings),
		"risk_level", report.Summary.RiskLevel,
		"duration_ms", elapsed.Milliseconds(),
	)
	return report, nil
}

// GeneralInfo runs the configured extractor. When the structured strategy
// finds no upstream data, the label strategy is tried on the text.
func (s *Service) GeneralInfo(src generalinfo.Source) generalinfo.Info {
	info := s.info.Extract(src)
	if info.Empty() {
		if _, isLabel := s.info.(generalinfo.LabelExtractor); !isLabel {
			info = generalinfo.LabelExtractor{}.Extract(src)
		}
	}
	return info
}

func (s *Service) record(ctx context.Context, r *lease.Report, elapsed time.Duration) {
	transport := kit.GetTransport(ctx)
	now := time.Now()
	s.metrics.Record(&observability.Metric{
		Name: observability.MetricAnalysisDurationMs, Timestamp: now,
		Value: float64(elapsed.Microseconds()) / 1000, Unit: "milliseconds",
		Labels: map[string]string{"transport": transport},
	})
	s.metrics.Record(&observability.Metric{
		Name: observability.MetricAnalysisRiskScore, Timestamp: now,
		Value: r.Summary.RiskScore, Unit: "ratio",
		Labels: map[string]string{"risk_level": string(r.Summary.RiskLevel), "transport": transport},
	})
	s.metrics.Record(&observability.Metric{
		Name: observability.MetricAnalysisFindings, Timestamp: now,
		Value: float64(len(r.Findings)), Unit: "count",
	})
}

func (s *Service) reject(ctx context.Context, reason string) {
	s.metrics.Record(&observability.Metric{
		Name: observability.MetricAnalysisRejected, Value: 1, Unit: "count",
		Labels: map[string]string{"reason": reason, "transport": kit.GetTransport(ctx)},
	})
	s.logger.Info("analysis rejected", "reason", reason,
		"trace_id", kit.GetTraceID(ctx), "remote_addr", kit.GetRemoteAddr(ctx))
}
