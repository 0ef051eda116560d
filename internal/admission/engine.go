// Package admission decides whether an SMS may be sent under the per-number
// and per-account ceilings.
package admission

import (
	"context"
	"errors"
	"fmt"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"

	"smsgate/internal/metrics"
	"smsgate/internal/phone"
	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

// Limits are the ceilings enforced until the next reset. Zero rejects every send.
type Limits struct {
	PerNumber  int
	PerAccount int
}

// Validate reports negative ceilings.
func (l Limits) Validate() error {
	if l.PerNumber < 0 {
		return fmt.Errorf("per-number limit must be >= 0, got %d", l.PerNumber)
	}
	if l.PerAccount < 0 {
		return fmt.Errorf("per-account limit must be >= 0, got %d", l.PerAccount)
	}
	return nil
}

// Config wires dependencies for an Engine.
type Config struct {
	Store   *usage.Store
	Limits  Limits
	Clock   quartz.Clock
	Logger  slog.Logger
	Metrics *metrics.Metrics
}

// Engine applies admission decisions against a usage store.
type Engine struct {
	store   *usage.Store
	limits  Limits
	clock   quartz.Clock
	logger  slog.Logger
	metrics *metrics.Metrics
}

var errNilStore = errors.New("admission: usage store is required")

// New validates cfg and returns an Engine. A nil clock uses the real clock.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errNilStore
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("admission: %w", err)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Engine{
		store:   cfg.Store,
		limits:  cfg.Limits,
		clock:   clock,
		logger:  cfg.Logger.Named("admission"),
		metrics: cfg.Metrics,
	}, nil
}

// Limits returns the configured ceilings.
func (e *Engine) Limits() Limits {
	return e.limits
}

// CanSend admits or rejects one send for raw. The per-number check, the
// account check and the append run in a single store transaction.
func (e *Engine) CanSend(ctx context.Context, raw string) smsgate.SendResult {
	number, ok := phone.Normalize(raw)
	if !ok {
		return e.decide(ctx, raw, smsgate.ReasonInvalidNumber)
	}

	reason := smsgate.ReasonAllowed
	e.store.Update(func(tx usage.Txn) {
		if tx.Count(number) >= e.limits.PerNumber {
			reason = smsgate.ReasonNumberLimit
			return
		}
		if tx.Total() >= e.limits.PerAccount {
			reason = smsgate.ReasonAccountLimit
			return
		}
		tx.Append(number, e.clock.Now("admission", "send"))
	})
	return e.decide(ctx, number, reason)
}

func (e *Engine) decide(ctx context.Context, number string, reason smsgate.Reason) smsgate.SendResult {
	e.metrics.Admission(reason)
	e.logger.Debug(ctx, "send decision",
		slog.F("phone_number", number),
		slog.F("reason", reason),
	)
	return smsgate.SendResult{
		Allowed: reason == smsgate.ReasonAllowed,
		Reason:  reason,
		Message: messageFor(reason),
	}
}

func messageFor(reason smsgate.Reason) string {
	switch reason {
	case smsgate.ReasonAllowed:
		return smsgate.MsgAllowed
	case smsgate.ReasonNumberLimit:
		return smsgate.MsgNumberLimit
	case smsgate.ReasonAccountLimit:
		return smsgate.MsgAccountLimit
	default:
		return smsgate.MsgInvalidNumber
	}
}

// Reset clears every count and timestamp.
func (e *Engine) Reset(ctx context.Context) smsgate.ResetResult {
	var cleared int
	e.store.Update(func(tx usage.Txn) {
		cleared = tx.Len()
		tx.Clear()
	})
	e.metrics.Reset()
	e.logger.Info(ctx, "usage reset", slog.F("cleared_numbers", cleared))
	return smsgate.ResetResult{Success: true, Message: smsgate.MsgReset}
}

// Forget removes the history of a single number.
func (e *Engine) Forget(ctx context.Context, raw string) smsgate.ForgetResult {
	number, ok := phone.Normalize(raw)
	if !ok {
		return smsgate.ForgetResult{Success: false, Message: smsgate.MsgInvalidNumber}
	}
	if e.store.RemoveAll(number) == 0 {
		return smsgate.ForgetResult{Success: true, Message: smsgate.MsgNumberUntracked}
	}
	e.metrics.Forget()
	e.logger.Info(ctx, "number forgotten", slog.F("phone_number", number))
	return smsgate.ForgetResult{Success: true, Removed: true, Message: smsgate.MsgNumberRemoved}
}

// Usage reports current counters for raw alongside the account totals.
func (e *Engine) Usage(_ context.Context, raw string) smsgate.Usage {
	number, ok := phone.Normalize(raw)
	if !ok {
		return smsgate.Usage{Success: false, Message: smsgate.MsgInvalidNumber}
	}
	out := smsgate.Usage{
		Success:       true,
		Message:       smsgate.MsgUsage,
		PhoneNumber:   number,
		MaxPerNumber:  e.limits.PerNumber,
		MaxPerAccount: e.limits.PerAccount,
	}
	e.store.View(func(r usage.Reader) {
		out.Count = r.Count(number)
		out.AccountTotal = r.Total()
		out.TrackedNumbers = r.Len()
	})
	return out
}
