// Package httptransport assembles the public HTTP surface: the middleware
// chain, the card and box endpoints, and the health and metrics routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardreturn/internal/box"
	cardhandler "cardreturn/internal/card/handler"
	"cardreturn/internal/platform/metrics"
	"cardreturn/internal/platform/middleware"
)

// defaultRequestTimeout bounds total request handling when no explicit
// timeout is configured. It must exceed the engine's collaborator timeouts,
// which an intake may spend back to back.
const defaultRequestTimeout = 30 * time.Second

// Options carries the router's cross-cutting dependencies. A nil
// StaffValidator disables the staff gate; a zero RateLimit disables rate
// limiting.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	StaffValidator middleware.StaffValidator
	AllowedOrigins []string
	RateLimit      int // requests per minute per client IP on the card routes
	RequestTimeout time.Duration
}

// New builds the router. The box endpoints stay outside the rate limit: a box
// polls on a fixed interval and must never be starved by finder traffic from
// the same NAT.
func New(cards *cardhandler.Handler, boxes *box.Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Latency(opts.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	staffGate := middleware.RequireStaff(opts.StaffValidator, opts.Logger)

	r.Group(func(g chi.Router) {
		if opts.RateLimit > 0 {
			g.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		cards.Register(g, staffGate)
	})

	boxes.Register(r)

	return r
}
