package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/lexbaux/idgen"
	"github.com/hazyhaar/lexbaux/kit"
)

// TraceID generates a trace ID for each request and injects it into the
// context, the X-Trace-ID response header and a per-request structured
// logger. The trace ID is stored under kit.TraceIDKey and the logger under
// LoggerKey. Upload contents are never logged.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := idgen.TraceID()

		ctx := kit.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)

		logger := slog.Default().With(
			"trace_id", traceID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", kit.GetRemoteAddr(ctx),
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Debug("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP stores the client address under kit.RemoteAddrKey for the
// tracer, the rate limiter and the analyzer logs.
func ClientIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := kit.WithRemoteAddr(r.Context(), ExtractIP(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
