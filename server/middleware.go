package server

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RequestLogger emits one structured line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// CORS allows the configured frontend origins. Preflight requests are
// answered without reaching the handlers.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter enforces a sliding one-minute window per client, where a
// client is the remote IP plus a hash of its user agent.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string][]time.Time
	now       func() time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		perMinute: perMinute,
		clients:   make(map[string][]time.Time),
		now:       time.Now,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientID(r), rl.now()) {
			respondJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":       "Too many requests. Please try again later.",
				"code":        "RATE_LIMIT_EXCEEDED",
				"retry_after": 60,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(id string, now time.Time) bool {
	cutoff := now.Add(-time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.clients[id][:0:0]
	for _, stamp := range rl.clients[id] {
		if stamp.After(cutoff) {
			recent = append(recent, stamp)
		}
	}
	if len(recent) >= rl.perMinute {
		rl.clients[id] = recent
		return false
	}
	rl.clients[id] = append(recent, now)
	return true
}

// Cleanup drops clients with no requests in the past hour. Meant to be
// called periodically from a background sweeper.
func (rl *RateLimiter) Cleanup(now time.Time) {
	cutoff := now.Add(-time.Hour)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, stamps := range rl.clients {
		recent := stamps[:0:0]
		for _, stamp := range stamps {
			if stamp.After(cutoff) {
				recent = append(recent, stamp)
			}
		}
		if len(recent) == 0 {
			delete(rl.clients, id)
		} else {
			rl.clients[id] = recent
		}
	}
}

// clientID keys the limiter on IP plus hashed user agent so distinct
// clients behind one NAT are tracked separately. RealIP middleware has
// already rewritten RemoteAddr by the time this runs.
func clientID(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	agent := r.UserAgent()
	if len(agent) > 50 {
		agent = agent[:50]
	}
	sum := sha256.Sum256([]byte(agent))
	return ip + ":" + hex.EncodeToString(sum[:8])
}
