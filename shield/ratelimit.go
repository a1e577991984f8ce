package shield

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hazyhaar/lexbaux/kit"
)

// RateLimitConfig defines a fixed-window limit applied per client IP.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	// MaxClients bounds the number of tracked IPs; the least recently seen
	// client is evicted first.
	MaxClients int `yaml:"max_clients"`
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP fixed-window rate limiting. Buckets live in a
// bounded LRU cache, so memory stays flat under address churn and no
// background GC goroutine is needed.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets *lru.Cache[string, *bucket]
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter. A zero MaxRequests disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	cache, err := lru.New[string, *bucket](cfg.MaxClients)
	if err != nil {
		// lru.New only fails on a non-positive size, excluded above.
		panic("shield: lru: " + err.Error())
	}
	return &RateLimiter{cfg: cfg, buckets: cache, now: time.Now}
}

// Allow records one request for ip and reports whether it is within limit.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.cfg.MaxRequests <= 0 {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets.Get(ip)
	if !ok || now.After(b.resetAt) {
		rl.buckets.Add(ip, &bucket{count: 1, resetAt: now.Add(rl.cfg.Window)})
		return true
	}
	b.count++
	return b.count <= rl.cfg.MaxRequests
}

// Middleware is the HTTP middleware that enforces the limit with a 429 JSON
// response in the same {"error": ...} shape as the API handlers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := kit.GetRemoteAddr(r.Context())
		if ip == "" {
			ip = ExtractIP(r, false)
		}
		if rl.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("ratelimit: request blocked", "ip", ip, "path", r.URL.Path)

		w.Header().Set("Retry-After", strconv.Itoa(int(rl.cfg.Window.Seconds())))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Trop de requêtes, veuillez patienter",
		})
	})
}

// ExtractIP returns the client IP. X-Forwarded-For is only read when
// trustProxy is set, i.e. when a reverse proxy overwrites the header;
// otherwise any client could pick its own address.
func ExtractIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
