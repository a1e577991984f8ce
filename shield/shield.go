// Package shield provides the HTTP security middleware of the lexbaux server:
// security headers, upload body limits, request tracing, HEAD handling and
// per-IP rate limiting.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(20<<20, false) {
//	    r.Use(mw)
//	}
//	r.With(shield.NewRateLimiter(shield.RateLimitConfig{...}).Middleware).Post("/api/analyze", h)
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns the standard middleware stack, ordered
// HeadToGet → SecurityHeaders → MaxBody → ClientIP → TraceID. Rate limiting
// is applied per route group by the caller. trustProxy is only set when the
// server sits behind a reverse proxy that rewrites X-Forwarded-For.
func DefaultStack(maxBody int64, trustProxy bool) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		ClientIP(trustProxy),
		TraceID,
	}
}
