// Package local implements smsgate.Gate in-process.
package local

import (
	"context"
	"fmt"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"

	"smsgate/internal/admission"
	"smsgate/internal/throughput"
	"smsgate/internal/usage"
	"smsgate/pkg/smsgate"
)

// Options configures a local client.
type Options struct {
	MaxPerNumber  int
	MaxPerAccount int
	Clock         quartz.Clock
	Logger        slog.Logger
}

// Client implements Gate against an in-memory usage store.
type Client struct {
	store      *usage.Store
	admission  *admission.Engine
	throughput *throughput.Engine
}

var _ smsgate.Gate = (*Client)(nil)

// New returns a local client with its own usage store.
func New(opts Options) (*Client, error) {
	store := usage.New()
	adm, err := admission.New(admission.Config{
		Store:  store,
		Limits: admission.Limits{PerNumber: opts.MaxPerNumber, PerAccount: opts.MaxPerAccount},
		Clock:  opts.Clock,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create admission engine: %w", err)
	}
	tp, err := throughput.New(throughput.Config{Store: store, Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("create throughput engine: %w", err)
	}
	return &Client{store: store, admission: adm, throughput: tp}, nil
}

// Store exposes the backing store for inspection.
func (c *Client) Store() *usage.Store {
	return c.store
}

// CanSend forwards admission checks to the engine.
func (c *Client) CanSend(ctx context.Context, phoneNumber string) (smsgate.SendResult, error) {
	return c.admission.CanSend(ctx, phoneNumber), nil
}

// Reset clears all usage.
func (c *Client) Reset(ctx context.Context) (smsgate.ResetResult, error) {
	return c.admission.Reset(ctx), nil
}

// Rate computes a per-number or aggregate rate.
func (c *Client) Rate(ctx context.Context, query smsgate.RateQuery) (smsgate.RateResult, error) {
	return c.throughput.Rate(ctx, query), nil
}

// AccountRate computes the account-wide rate.
func (c *Client) AccountRate(ctx context.Context, fromDate, toDate string) (smsgate.RateResult, error) {
	return c.throughput.AccountRate(ctx, fromDate, toDate), nil
}

// Forget removes one number's history.
func (c *Client) Forget(ctx context.Context, phoneNumber string) (smsgate.ForgetResult, error) {
	return c.admission.Forget(ctx, phoneNumber), nil
}

// Usage reports counters for one number.
func (c *Client) Usage(ctx context.Context, phoneNumber string) (smsgate.Usage, error) {
	return c.admission.Usage(ctx, phoneNumber), nil
}
