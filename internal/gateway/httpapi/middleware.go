package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// requestLogger emits one structured line per request with the route
// pattern, status and latency.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// metricsMiddleware records per-route counters and latency. The chi route
// pattern is resolved after the handler runs so parametrized routes
// aggregate under one label value.
func metricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.observeRequest(route, r.Method, rec.status, time.Since(start))
		})
	}
}

// loginLimiter throttles login attempts per client address. Entries idle
// for longer than staleAfter are dropped by an opportunistic cleanup on
// each lookup, keeping the map bounded.
type loginLimiter struct {
	mu         sync.Mutex
	clients    map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	return &loginLimiter{
		clients:    make(map[string]*limiterEntry),
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      burst,
		staleAfter: 10 * time.Minute,
	}
}

func (l *loginLimiter) allow(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.clients {
		if now.Sub(e.lastSeen) > l.staleAfter {
			delete(l.clients, key)
		}
	}

	e, ok := l.clients[host]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

func (l *loginLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			http.Error(w, `{"error":"too many login attempts"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
