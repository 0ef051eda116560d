// Package testutil holds helpers shared by smsgate tests.
package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds unit tests that do not pass their own timeout.
const DefaultTimeout = 5 * time.Second

type deadliner interface {
	Deadline() (time.Time, bool)
}

// Context returns a context canceled when the test ends or the timeout
// elapses, whichever is first. The timeout is shortened to stay inside the
// go test deadline.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if d, ok := t.(deadliner); ok {
		if deadline, set := d.Deadline(); set {
			remaining := time.Until(deadline) - time.Second
			if remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
