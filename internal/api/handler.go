// Package api exposes the SMS gate over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"cdr.dev/slog/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"smsgate/internal/metrics"
	"smsgate/pkg/smsgate"
)

// Admitter makes and manages send admission decisions.
type Admitter interface {
	CanSend(ctx context.Context, phoneNumber string) smsgate.SendResult
	Reset(ctx context.Context) smsgate.ResetResult
	Forget(ctx context.Context, phoneNumber string) smsgate.ForgetResult
	Usage(ctx context.Context, phoneNumber string) smsgate.Usage
}

// RateReporter answers throughput queries.
type RateReporter interface {
	Rate(ctx context.Context, query smsgate.RateQuery) smsgate.RateResult
	AccountRate(ctx context.Context, fromDate, toDate string) smsgate.RateResult
}

// Config wires dependencies for the HTTP handler.
type Config struct {
	Admission  Admitter
	Throughput RateReporter
	Logger     slog.Logger
	Metrics    *metrics.Metrics
	// AllowedOrigins defaults to every origin.
	AllowedOrigins []string
	// ResetPerMinute throttles resets per client IP. Zero disables throttling.
	ResetPerMinute int
}

// NewHandler builds the HTTP handler for the SMS gate API.
func NewHandler(cfg Config) http.Handler {
	h := &handler{
		admission:  cfg.Admission,
		throughput: cfg.Throughput,
		logger:     cfg.Logger.Named("http"),
		metrics:    cfg.Metrics,
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestID)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/api/sms", func(r chi.Router) {
		r.Post("/allow-send", h.handleAllowSend)
		r.With(resetThrottle(cfg.ResetPerMinute)).Post("/reset", h.handleReset)
		r.Get("/get-rate", h.handleGetRate)
		r.Post("/get-rate", h.handleGetRate)
		r.Get("/account-rate", h.handleAccountRate)
		r.Get("/usage/{phoneNumber}", h.handleUsage)
		r.Delete("/numbers/{phoneNumber}", h.handleForget)
	})
	return r
}

type handler struct {
	admission  Admitter
	throughput RateReporter
	logger     slog.Logger
	metrics    *metrics.Metrics
}

func resetThrottle(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, messageResponse{
				Success: false,
				Message: resetThrottledMessage,
			})
		}),
	)
}
