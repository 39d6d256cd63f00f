// Package rank orchestrates the ranking pipeline: one repository read
// through the eligibility filter, quality scoring, and sponsored merging,
// producing ordered RankedPlace projections.
package rank

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankRequestsTotal  = "rank_requests_total"
	MetricRankErrorsTotal    = "rank_errors_total"
	MetricRankDuration       = "rank_duration_seconds"
	MetricRankCandidateCount = "rank_candidate_count"
)

// Metrics contains Prometheus metrics for the ranking pipeline.
// All operations are thread-safe. A nil *Metrics is a no-op recorder.
type Metrics struct {
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	duration       prometheus.Histogram
	candidateCount prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankRequestsTotal,
			Help: "Total number of ranking requests completed successfully",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankErrorsTotal,
			Help: "Total number of ranking requests that failed",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of end-to-end ranking pipeline duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		candidateCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankCandidateCount,
			Help:    "Histogram of candidate venues per ranking request",
			Buckets: []float64{0, 5, 10, 20, 50, 100},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.errorsTotal,
		m.duration,
		m.candidateCount,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRequests increments the successful request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the failed request counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// ObserveDuration records one pipeline duration sample.
func (m *Metrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
}

// ObserveCandidates records one candidate-count sample.
func (m *Metrics) ObserveCandidates(count float64) {
	if m == nil {
		return
	}
	m.candidateCount.Observe(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.errorsTotal,
		m.duration,
		m.candidateCount,
	}
}
