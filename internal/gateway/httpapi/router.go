package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/authbridge/internal/gateway/config"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the gateway API under /api/v1/auth, plus the operational
// endpoints.
func NewRouter(h *Handler, m *Metrics, cfg *config.Config, l logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(l))
	r.Use(metricsMiddleware(m))

	limiter := newLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limiter.middleware).Post("/login", h.Login)
		r.Post("/renew-token", h.RenewToken)
		r.Get("/session", h.Session)
		r.Get("/validate", h.Validate)
		r.Post("/logout", h.Logout)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
