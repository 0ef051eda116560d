package testutil

import (
	"testing"
	"time"
)

// Eventually polls fn until it returns true or timeout elapses.
func Eventually(t testing.TB, timeout, interval time.Duration, fn func() bool, msg string) {
	t.Helper()
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	deadline := time.After(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if fn() {
			return
		}
		select {
		case <-deadline:
			if msg == "" {
				t.Fatalf("condition not met within %s", timeout)
			}
			t.Fatalf("%s", msg)
		case <-ticker.C:
		}
	}
}
