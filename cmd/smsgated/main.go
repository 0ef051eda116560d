// Command smsgated serves the SMS admission gate over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"

	"smsgate/internal/admission"
	"smsgate/internal/api"
	"smsgate/internal/logging"
	"smsgate/internal/metrics"
	"smsgate/internal/sweep"
	"smsgate/internal/throughput"
	"smsgate/internal/usage"
)

// main launches smsgated.
func main() {
	os.Exit(run())
}

// run executes smsgated and returns an exit code.
func run() int {
	configPath := flag.String("config", "smsgated.yaml", "path to smsgated config")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before config")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "env file error: %v\n", err)
		return 1
	}
	cfg, err := loadConfig(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	logger = logger.Named("smsgated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(cfg, logger, quartz.NewReal())
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		return 1
	}
	if err := srv.serve(ctx); err != nil {
		logger.Error(ctx, "server error", slog.Error(err))
		return 1
	}
	return 0
}

// server bundles the HTTP listener with the background sweeper.
type server struct {
	http            *http.Server
	sweeper         *sweep.Sweeper
	logger          slog.Logger
	shutdownTimeout time.Duration
}

// newServer wires the store, engines, sweeper and HTTP handler from cfg.
func newServer(cfg config, logger slog.Logger, clock quartz.Clock) (*server, error) {
	store := usage.New()
	m := metrics.New()
	m.TrackNumbers(store.Len)

	adm, err := admission.New(admission.Config{
		Store:   store,
		Limits:  admission.Limits{PerNumber: cfg.Limits.MaxPerNumber, PerAccount: cfg.Limits.MaxPerAccount},
		Clock:   clock,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}
	tp, err := throughput.New(throughput.Config{Store: store, Logger: logger, Metrics: m})
	if err != nil {
		return nil, err
	}
	sweeper, err := sweep.New(sweep.Config{
		Store:     store,
		Clock:     clock,
		Retention: cfg.Expiry.IdleRetention,
		Interval:  cfg.Expiry.SweepInterval,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(api.Config{
		Admission:      adm,
		Throughput:     tp,
		Logger:         logger,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ResetPerMinute: cfg.Server.ResetPerMinute,
	})
	return &server{
		http: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		sweeper:         sweeper,
		logger:          logger,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// serve runs until ctx is canceled or the listener fails, then shuts down
// the listener and waits for the sweeper to stop.
func (s *server) serve(ctx context.Context) error {
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.sweeper.Run(sweepCtx); err != nil {
			s.logger.Error(sweepCtx, "sweeper exited", slog.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info(ctx, "listening", slog.F("addr", s.http.Addr))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	cancelSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(shutdownCtx, "shutdown incomplete", slog.Error(err))
	}
	wg.Wait()
	s.logger.Info(shutdownCtx, "stopped")
	return serveErr
}
