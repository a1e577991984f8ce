// Package server is the HTTP surface of lexbaux: the JSON analysis API,
// demo reports, exports and the server-rendered pages.
package server

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/lexbaux/analyzer"
	"github.com/hazyhaar/lexbaux/export"
	"github.com/hazyhaar/lexbaux/shield"
)

//go:embed static
var staticFS embed.FS

// Config configures a Server.
type Config struct {
	Analyzer       *analyzer.Service
	Export         *export.Service // default: export.New(Logger)
	Logger         *slog.Logger
	MaxUploadBytes int64
	RateLimit      shield.RateLimitConfig
	// TrustProxy honours X-Forwarded-For for client addresses.
	TrustProxy bool
	Version    string
}

// Server serves the lexbaux HTTP API.
type Server struct {
	analyzer  *analyzer.Service
	export    *export.Service
	logger    *slog.Logger
	maxUpload int64
	limiter   *shield.RateLimiter
	trust     bool
	version   string
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("server: analyzer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Export == nil {
		cfg.Export = export.New(cfg.Logger)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	return &Server{
		analyzer:  cfg.Analyzer,
		export:    cfg.Export,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUploadBytes,
		limiter:   shield.NewRateLimiter(cfg.RateLimit),
		trust:     cfg.TrustProxy,
		version:   cfg.Version,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	// Multipart framing adds a few hundred bytes over the file itself.
	for _, mw := range shield.DefaultStack(s.maxUpload+64<<10, s.trust) {
		r.Use(mw)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.page("static/index.html"))
	r.Get("/mentions-legales", s.page("static/mentions-legales.html"))
	r.Get("/rapport", s.handleReportDemo)
	r.With(s.limiter.Middleware).Post("/rapport", s.handleReportUpload)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/demo", s.handleDemoList)
		r.Get("/demo/{name}", s.handleDemo)
		r.Post("/export/{format}", s.handleExport)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", s.version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
