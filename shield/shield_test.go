package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/lexbaux/kit"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy", "Content-Security-Policy", "Permissions-Policy"} {
		if rec.Header().Get(name) == "" {
			t.Errorf("missing header %s", name)
		}
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "script-src 'none'") {
		t.Errorf("CSP = %q", rec.Header().Get("Content-Security-Policy"))
	}
}

func TestMaxBody(t *testing.T) {
	// WHAT: Bodies beyond the cap fail to read.
	// WHY: Uploads are bounded before multipart parsing buffers them.
	var readErr error
	h := MaxBody(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 11))))
	if readErr == nil {
		t.Fatal("expected read error past the cap")
	}

	readErr = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	if readErr != nil {
		t.Fatalf("unexpected error under the cap: %v", readErr)
	}
}

func TestTraceID(t *testing.T) {
	var ctxTrace string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxTrace = kit.GetTraceID(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("nil logger")
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	header := rec.Header().Get("X-Trace-ID")
	if header == "" || header != ctxTrace {
		t.Errorf("header %q, context %q", header, ctxTrace)
	}
}

func TestHeadToGet(t *testing.T) {
	var method string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { method = r.Method }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/", nil))
	if method != http.MethodGet {
		t.Errorf("method = %s, want GET", method)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	// WHAT: The third request in a window is rejected; a new window resets.
	// WHY: The analyze endpoint is CPU-bound and publicly exposed.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 2, Window: time.Minute})
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request must be blocked")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are independent")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("new window must reset the bucket")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	for range 100 {
		if !rl.Allow("1.2.3.4") {
			t.Fatal("zero MaxRequests must disable limiting")
		}
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 1, Window: 30 * time.Second})
	h := rl.Middleware(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRateLimiter_EvictsOldestClient(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 1, Window: time.Hour, MaxClients: 2})
	rl.Allow("a")
	rl.Allow("b")
	rl.Allow("c") // evicts "a"
	if !rl.Allow("a") {
		t.Fatal("evicted client starts a fresh bucket")
	}
	if rl.buckets.Len() != 2 {
		t.Errorf("tracked clients = %d, want 2", rl.buckets.Len())
	}
}

func TestExtractIP(t *testing.T) {
	// WHAT: X-Forwarded-For is ignored unless a proxy is trusted.
	// WHY: A client could otherwise rotate the header to dodge the limiter.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ExtractIP(req, false); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ExtractIP(req, false); got != "10.0.0.1" {
		t.Errorf("untrusted XFF: got %q, want RemoteAddr", got)
	}
	if got := ExtractIP(req, true); got != "203.0.113.7" {
		t.Errorf("trusted XFF: got %q", got)
	}
}

func TestClientIP_TraceLogger(t *testing.T) {
	var addr string
	h := ClientIP(false)(TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr = kit.GetRemoteAddr(r.Context())
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if addr != "192.0.2.4" {
		t.Errorf("remote addr = %q", addr)
	}
}

func TestRateLimiter_SpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 1, Window: time.Minute})
	h := ClientIP(false)(rl.Middleware(http.HandlerFunc(okHandler)))

	codes := make([]int, 0, 2)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, second request must be limited", codes)
	}
}

func TestDefaultStack(t *testing.T) {
	stack := DefaultStack(1<<20, false)
	if len(stack) != 5 {
		t.Fatalf("stack len = %d, want 5", len(stack))
	}
}
