// Package sponsorship ranks scored venue candidates into a merged organic
// plus sponsored result list under strict promotion policy bounds, with
// disclosure metadata for every paid placement.
package sponsorship

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricSponsoredAdmittedTotal = "sponsorship_admitted_total"
	MetricSponsoredSkippedTotal  = "sponsorship_skipped_total"
)

// Skip reasons recorded as metric label values.
const (
	SkipBelowFloor       = "below_floor"
	SkipVerificationTier = "verification_tier"
	SkipCategoryCap      = "category_cap"
	SkipViewportCap      = "viewport_cap"
)

// Metrics contains Prometheus metrics for sponsored slate selection.
// All operations are thread-safe. A nil *Metrics is a no-op recorder so the
// ranker stays usable in tests without a registry.
type Metrics struct {
	admittedTotal prometheus.Counter
	skippedTotal  *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		admittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSponsoredAdmittedTotal,
			Help: "Total number of candidates admitted to the sponsored slate",
		}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSponsoredSkippedTotal,
			Help: "Total number of sponsorship candidates skipped, by reason",
		}, []string{"reason"}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.admittedTotal,
		m.skippedTotal,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncAdmitted increments the admitted counter.
func (m *Metrics) IncAdmitted() {
	if m == nil {
		return
	}
	m.admittedTotal.Inc()
}

// IncSkipped increments the skipped counter for the given reason.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTotal.WithLabelValues(reason).Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.admittedTotal,
		m.skippedTotal,
	}
}
