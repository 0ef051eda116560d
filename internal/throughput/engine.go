// Package throughput computes messages-per-second over recorded send history.
package throughput

import (
	"context"
	"errors"
	"time"

	"cdr.dev/slog/v3"

	"smsgate/internal/metrics"
	"smsgate/internal/phone"
	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

// Config wires dependencies for an Engine.
type Config struct {
	Store   *usage.Store
	Logger  slog.Logger
	Metrics *metrics.Metrics
	// Location interprets window bounds. Defaults to time.Local, the zone
	// admission timestamps are recorded in.
	Location *time.Location
}

// Engine answers rate queries against a usage store without mutating it.
type Engine struct {
	store   *usage.Store
	logger  slog.Logger
	metrics *metrics.Metrics
	loc     *time.Location
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("throughput: usage store is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:   cfg.Store,
		logger:  cfg.Logger.Named("throughput"),
		metrics: cfg.Metrics,
		loc:     loc,
	}, nil
}

// Rate reports the send rate of one number, or of every number when
// PhoneNumber is empty.
func (e *Engine) Rate(ctx context.Context, query smsgate.RateQuery) smsgate.RateResult {
	var res smsgate.RateResult
	e.store.View(func(r usage.Reader) {
		res = compute(r, query.PhoneNumber, resolveWindow(query.FromDate, query.ToDate, e.loc))
	})
	e.record(ctx, "number", query, res)
	return res
}

// AccountRate reports the send rate across every number.
func (e *Engine) AccountRate(ctx context.Context, fromDate, toDate string) smsgate.RateResult {
	query := smsgate.RateQuery{FromDate: fromDate, ToDate: toDate}
	var res smsgate.RateResult
	e.store.View(func(r usage.Reader) {
		res = compute(r, "", resolveWindow(fromDate, toDate, e.loc))
	})
	e.record(ctx, "account", query, res)
	return res
}

func (e *Engine) record(ctx context.Context, scope string, query smsgate.RateQuery, res smsgate.RateResult) {
	e.metrics.RateQuery(scope, res.Success)
	e.logger.Debug(ctx, "rate query",
		slog.F("scope", scope),
		slog.F("phone_number", query.PhoneNumber),
		slog.F("from", query.FromDate),
		slog.F("to", query.ToDate),
		slog.F("matched", res.Matched),
		slog.F("rate", res.Rate),
	)
}

// compute runs under the store read lock.
func compute(r usage.Reader, rawNumber string, w window) smsgate.RateResult {
	if r.Len() == 0 {
		return smsgate.RateResult{Success: true, Message: smsgate.MsgNoMessages}
	}
	number := ""
	if rawNumber != "" {
		normalized, ok := phone.Normalize(rawNumber)
		if !ok {
			return smsgate.RateResult{Success: false, Message: smsgate.MsgInvalidNumber}
		}
		number = normalized
	}
	if w.inverted() {
		return smsgate.RateResult{Success: false, Message: smsgate.MsgFromAfterTo, Window: w.kind()}
	}

	var acc span
	if number != "" {
		acc.add(r.Timestamps(number), w)
	} else {
		r.Each(func(_ string, stamps []time.Time) {
			acc.add(stamps, w)
		})
	}
	if acc.count == 0 {
		return smsgate.RateResult{Success: true, Message: smsgate.MsgNoMatches, Window: w.kind()}
	}
	return smsgate.RateResult{
		Success: true,
		Message: smsgate.MsgRateComputed,
		Rate:    float64(acc.count) / acc.elapsedSeconds(),
		Matched: acc.count,
		Window:  w.kind(),
	}
}

// span tracks the count and extent of matching timestamps.
type span struct {
	count    int
	min, max time.Time
}

func (s *span) add(stamps []time.Time, w window) {
	for _, at := range stamps {
		if !w.contains(at) {
			continue
		}
		if s.count == 0 || at.Before(s.min) {
			s.min = at
		}
		if s.count == 0 || at.After(s.max) {
			s.max = at
		}
		s.count++
	}
}

// elapsedSeconds floors a non-positive extent to one second.
func (s span) elapsedSeconds() float64 {
	elapsed := s.max.Sub(s.min).Seconds()
	if elapsed <= 0 {
		return 1
	}
	return elapsed
}
