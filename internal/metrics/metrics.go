// Package metrics exposes Prometheus collectors for the SMS gate.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smsgate/pkg/smsgate"
)

// Metrics groups the collectors updated by the engine, sweeper and HTTP layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	admissions     *prometheus.CounterVec
	resets         prometheus.Counter
	forgets        prometheus.Counter
	rateQueries    *prometheus.CounterVec
	sweeps         prometheus.Counter
	sweptNumbers   prometheus.Counter
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smsgate", Name: "admissions_total",
		Help: "Send admission decisions by reason.",
	}, []string{"reason"})
	reg.MustRegister(admissions)

	resets := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsgate", Name: "resets_total",
		Help: "Times all usage was cleared.",
	})
	reg.MustRegister(resets)

	forgets := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsgate", Name: "forgotten_numbers_total",
		Help: "Numbers removed by operators.",
	})
	reg.MustRegister(forgets)

	rateQueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smsgate", Name: "rate_queries_total",
		Help: "Rate queries by scope and success.",
	}, []string{"scope", "success"})
	reg.MustRegister(rateQueries)

	sweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsgate", Subsystem: "sweep", Name: "runs_total",
		Help: "Completed expiry sweeps.",
	})
	reg.MustRegister(sweeps)

	sweptNumbers := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsgate", Subsystem: "sweep", Name: "removed_numbers_total",
		Help: "Idle numbers removed by expiry sweeps.",
	})
	reg.MustRegister(sweptNumbers)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smsgate", Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	reg.MustRegister(requests)

	requestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smsgate", Subsystem: "http", Name: "request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"route"})
	reg.MustRegister(requestLatency)

	return &Metrics{
		registry:       reg,
		admissions:     admissions,
		resets:         resets,
		forgets:        forgets,
		rateQueries:    rateQueries,
		sweeps:         sweeps,
		sweptNumbers:   sweptNumbers,
		requests:       requests,
		requestLatency: requestLatency,
	}
}

// TrackNumbers exports the number of tracked phone numbers as a gauge.
func (m *Metrics) TrackNumbers(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "smsgate", Name: "tracked_numbers",
		Help: "Phone numbers with send history in memory.",
	}, func() float64 { return float64(count()) }))
}

// Admission records one admission decision.
func (m *Metrics) Admission(reason smsgate.Reason) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(string(reason)).Inc()
}

// Reset records a full reset.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// Forget records an operator removal.
func (m *Metrics) Forget() {
	if m == nil {
		return
	}
	m.forgets.Inc()
}

// RateQuery records a rate computation for scope "number" or "account".
func (m *Metrics) RateQuery(scope string, success bool) {
	if m == nil {
		return
	}
	m.rateQueries.WithLabelValues(scope, strconv.FormatBool(success)).Inc()
}

// Sweep records a completed sweep and the numbers it removed.
func (m *Metrics) Sweep(removed int) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweptNumbers.Add(float64(removed))
}

// Request records a served HTTP request.
func (m *Metrics) Request(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
