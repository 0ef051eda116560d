// Command smsgate-loadtest drives concurrent admission checks against the
// SMS gate and reports throughput, outcomes and latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"smsgate/pkg/smsgate"
	"smsgate/pkg/smsgate/httpclient"
	"smsgate/pkg/smsgate/local"
)

// config captures command-line configuration for the load test.
type config struct {
	Mode           string
	BaseURL        string
	Duration       time.Duration
	Concurrency    int
	Numbers        int
	MaxPerNumber   int
	MaxPerAccount  int
	RequestTimeout time.Duration
	Reset          bool
}

// loadtestStats aggregates counters and latency samples.
type loadtestStats struct {
	requests uint64
	errors   uint64

	mu        sync.Mutex
	reasons   map[smsgate.Reason]uint64
	perNumber map[string]uint64
	latencies []int64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses flags, executes the load and returns an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		return 2
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	gate, localClient, err := buildGate(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if cfg.Reset {
		resetCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		_, err := gate.Reset(resetCtx)
		cancel()
		if err != nil {
			fmt.Fprintf(stderr, "reset failed: %v\n", err)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	stats := runLoad(ctx, gate, cfg)
	printSummary(stdout, cfg, stats)

	if localClient != nil {
		if err := verifyCeilings(cfg, stats, localClient.Store().TotalCount()); err != nil {
			fmt.Fprintf(stderr, "invariant violated: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "ceilings held")
	}
	return 0
}

// parseConfig reads flags and builds a config.
func parseConfig(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("smsgate-loadtest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Mode, "mode", "local", "mode: local or http")
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:5000", "smsgated base URL")
	fs.DurationVar(&cfg.Duration, "duration", 10*time.Second, "test duration")
	fs.IntVar(&cfg.Concurrency, "concurrency", 64, "concurrent workers")
	fs.IntVar(&cfg.Numbers, "numbers", 500, "distinct phone numbers to spread load over")
	fs.IntVar(&cfg.MaxPerNumber, "max-per-number", 100, "per-number ceiling (local mode)")
	fs.IntVar(&cfg.MaxPerAccount, "max-per-account", 1000, "account ceiling (local mode)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 2*time.Second, "per-request timeout")
	fs.BoolVar(&cfg.Reset, "reset", false, "reset counters before the run")
	err := fs.Parse(args)
	return cfg, err
}

// validate ensures the configuration is usable.
func (c config) validate() error {
	if c.Mode != "http" && c.Mode != "local" {
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Numbers <= 0 {
		return fmt.Errorf("numbers must be positive")
	}
	if c.MaxPerNumber < 0 || c.MaxPerAccount < 0 {
		return fmt.Errorf("ceilings must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive")
	}
	return nil
}

// buildGate constructs the target gate. The local client is returned
// separately so its store can be inspected after the run.
func buildGate(cfg config) (smsgate.Gate, *local.Client, error) {
	switch cfg.Mode {
	case "http":
		return httpclient.NewWithTimeout(cfg.BaseURL, cfg.RequestTimeout), nil, nil
	default:
		client, err := local.New(local.Options{MaxPerNumber: cfg.MaxPerNumber, MaxPerAccount: cfg.MaxPerAccount})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}
}

// runLoad executes the concurrent load until the context expires.
func runLoad(ctx context.Context, gate smsgate.Gate, cfg config) *loadtestStats {
	stats := &loadtestStats{
		reasons:   make(map[smsgate.Reason]uint64),
		perNumber: make(map[string]uint64),
		latencies: make([]int64, 0, cfg.Concurrency*64),
	}
	numbers := phoneNumbers(cfg.Numbers)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				number := numbers[rng.Intn(len(numbers))]
				reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				start := time.Now()
				res, err := gate.CanSend(reqCtx, number)
				cancel()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					atomic.AddUint64(&stats.errors, 1)
					continue
				}
				atomic.AddUint64(&stats.requests, 1)
				stats.record(number, res, time.Since(start))
			}
		}(int64(i + 1))
	}
	wg.Wait()
	return stats
}

// record tallies one admission outcome.
func (s *loadtestStats) record(number string, res smsgate.SendResult, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons[res.Reason]++
	if res.Allowed {
		s.perNumber[number]++
	}
	s.latencies = append(s.latencies, latency.Nanoseconds())
}

// verifyCeilings checks that admissions never exceeded either ceiling and
// that the store agrees with the admitted count.
func verifyCeilings(cfg config, stats *loadtestStats, stored int) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()
	admitted := stats.reasons[smsgate.ReasonAllowed]
	if admitted > uint64(cfg.MaxPerAccount) {
		return fmt.Errorf("admitted %d exceeds account ceiling %d", admitted, cfg.MaxPerAccount)
	}
	for number, count := range stats.perNumber {
		if count > uint64(cfg.MaxPerNumber) {
			return fmt.Errorf("number %s admitted %d exceeds ceiling %d", number, count, cfg.MaxPerNumber)
		}
	}
	if uint64(stored) != admitted {
		return fmt.Errorf("store total %d differs from admitted %d", stored, admitted)
	}
	return nil
}

// printSummary renders load test metrics.
func printSummary(w io.Writer, cfg config, stats *loadtestStats) {
	elapsed := cfg.Duration.Seconds()
	requests := atomic.LoadUint64(&stats.requests)
	errors := atomic.LoadUint64(&stats.errors)

	stats.mu.Lock()
	defer stats.mu.Unlock()
	fmt.Fprintln(w, "smsgate load test summary")
	fmt.Fprintf(w, "mode: %s duration: %s concurrency: %d numbers: %d\n", cfg.Mode, cfg.Duration, cfg.Concurrency, cfg.Numbers)
	fmt.Fprintf(w, "checks/sec: %.2f errors: %d\n", float64(requests)/elapsed, errors)
	fmt.Fprintf(w, "allowed: %d number_limit: %d account_limit: %d invalid: %d\n",
		stats.reasons[smsgate.ReasonAllowed],
		stats.reasons[smsgate.ReasonNumberLimit],
		stats.reasons[smsgate.ReasonAccountLimit],
		stats.reasons[smsgate.ReasonInvalidNumber],
	)
	fmt.Fprintf(w, "latency p50=%s p95=%s p99=%s\n",
		percentileDuration(stats.latencies, 0.50),
		percentileDuration(stats.latencies, 0.95),
		percentileDuration(stats.latencies, 0.99),
	)
}

// percentileDuration computes a duration percentile for samples in nanoseconds.
func percentileDuration(samples []int64, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]int64(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if p <= 0 {
		return time.Duration(sorted[0])
	}
	if p >= 1 {
		return time.Duration(sorted[len(sorted)-1])
	}
	pos := int(float64(len(sorted)-1) * p)
	return time.Duration(sorted[pos])
}

// phoneNumbers builds n distinct digit-only numbers.
func phoneNumbers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("1555%07d", i)
	}
	return out
}
