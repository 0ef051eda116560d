// Package testserver starts an in-memory smsgate HTTP server for tests.
package testserver

import (
	"net/http/httptest"
	"testing"

	"cdr.dev/slog/v3/sloggers/slogtest"
	"github.com/coder/quartz"

	"smsgate/internal/admission"
	"smsgate/internal/api"
	"smsgate/internal/metrics"
	"smsgate/internal/throughput"
	"smsgate/internal/usage"
)

// Config wires dependencies for Start. Nil fields get fresh defaults.
type Config struct {
	Limits         admission.Limits
	Store          *usage.Store
	Clock          quartz.Clock
	ResetPerMinute int
}

// Instance represents a running HTTP test server.
type Instance struct {
	BaseURL   string
	Store     *usage.Store
	Admission *admission.Engine
	Close     func()
}

// Start launches an in-memory HTTP server for the SMS gate API. The server
// is closed when the test ends.
func Start(t testing.TB, cfg Config) *Instance {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = usage.New()
	}
	logger := slogtest.Make(t, &slogtest.Options{IgnoreErrors: true})
	m := metrics.New()
	m.TrackNumbers(cfg.Store.Len)

	adm, err := admission.New(admission.Config{
		Store:   cfg.Store,
		Limits:  cfg.Limits,
		Clock:   cfg.Clock,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		t.Fatalf("admission engine: %v", err)
	}
	tp, err := throughput.New(throughput.Config{Store: cfg.Store, Logger: logger, Metrics: m})
	if err != nil {
		t.Fatalf("throughput engine: %v", err)
	}
	server := httptest.NewServer(api.NewHandler(api.Config{
		Admission:      adm,
		Throughput:     tp,
		Logger:         logger,
		Metrics:        m,
		ResetPerMinute: cfg.ResetPerMinute,
	}))
	t.Cleanup(server.Close)
	return &Instance{
		BaseURL:   server.URL,
		Store:     cfg.Store,
		Admission: adm,
		Close:     server.Close,
	}
}
