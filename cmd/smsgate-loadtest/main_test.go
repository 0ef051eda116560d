package main

import (
	"bytes"
	"strings"
	"testing"

	"smsgate/pkg/smsgate"
)

func TestPercentileDuration(t *testing.T) {
	samples := []int64{50, 10, 40, 20, 30}
	if got := percentileDuration(samples, 0.5); got != 30 {
		t.Fatalf("expected p50=30ns, got %s", got)
	}
	if got := percentileDuration(samples, 1); got != 50 {
		t.Fatalf("expected p100=50ns, got %s", got)
	}
	if got := percentileDuration(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty samples, got %s", got)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{name: "mode", args: []string{"-mode", "grpc"}},
		{name: "duration", args: []string{"-duration", "0s"}},
		{name: "concurrency", args: []string{"-concurrency", "0"}},
		{name: "numbers", args: []string{"-numbers", "0"}},
		{name: "ceiling", args: []string{"-max-per-account", "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if code := run(tc.args, &out, &errOut); code != 2 {
				t.Fatalf("expected exit 2, got %d", code)
			}
		})
	}
}

func TestLocalRunHoldsCeilings(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{
		"-duration", "200ms",
		"-concurrency", "16",
		"-numbers", "5",
		"-max-per-number", "7",
		"-max-per-account", "20",
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}
	text := out.String()
	for _, want := range []string{"smsgate load test summary", "allowed: 20", "ceilings held"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestVerifyCeilingsDetectsOveradmission(t *testing.T) {
	cfg := config{MaxPerNumber: 1, MaxPerAccount: 5}
	stats := &loadtestStats{
		reasons:   map[smsgate.Reason]uint64{smsgate.ReasonAllowed: 2},
		perNumber: map[string]uint64{"1": 2},
	}
	if err := verifyCeilings(cfg, stats, 2); err == nil {
		t.Fatalf("expected per-number violation")
	}
	stats.perNumber = map[string]uint64{"1": 1, "2": 1}
	if err := verifyCeilings(cfg, stats, 1); err == nil {
		t.Fatalf("expected store mismatch")
	}
	if err := verifyCeilings(cfg, stats, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
