package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ScreeningMetrics contains Prometheus metrics for screening
// operations. Collectors are registered on the injected registry so
// tests can use isolated registries.
type ScreeningMetrics struct {
	screeningsTotal   *prometheus.CounterVec
	subjectsTotal     prometheus.Counter
	findingsTotal     *prometheus.CounterVec
	screeningDuration prometheus.Histogram
	sourceUp          *prometheus.GaugeVec
}

// NewScreeningMetrics creates and registers screening metrics.
func NewScreeningMetrics(registry *prometheus.Registry) (*ScreeningMetrics, error) {
	m := &ScreeningMetrics{}
	if err := m.initMetrics(registry); err != nil {
		return nil, fmt.Errorf("failed to initialize screening metrics: %w", err)
	}
	return m, nil
}

func (m *ScreeningMetrics) initMetrics(registry *prometheus.Registry) error {
	m.screeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cordon_screenings_total",
			Help: "Total number of screening runs by outcome",
		},
		[]string{"outcome"},
	)

	m.subjectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cordon_subjects_screened_total",
			Help: "Total number of subjects screened",
		},
	)

	m.findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cordon_findings_total",
			Help: "Total number of findings by verdict",
		},
		[]string{"verdict"},
	)

	m.screeningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cordon_screening_duration_seconds",
			Help:    "Time taken to load feeds and classify subjects",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	m.sourceUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cordon_source_up",
			Help: "Whether a source passed its last health check (1 = up)",
		},
		[]string{"source"},
	)

	collectors := []prometheus.Collector{
		m.screeningsTotal,
		m.subjectsTotal,
		m.findingsTotal,
		m.screeningDuration,
		m.sourceUp,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordScreening records one completed run.
func (m *ScreeningMetrics) RecordScreening(outcome string, subjects int, seconds float64) {
	m.screeningsTotal.WithLabelValues(outcome).Inc()
	m.subjectsTotal.Add(float64(subjects))
	m.screeningDuration.Observe(seconds)
}

// RecordFinding records one finding by verdict.
func (m *ScreeningMetrics) RecordFinding(verdict string) {
	m.findingsTotal.WithLabelValues(verdict).Inc()
}

// SetSourceUp records the health state of a source.
func (m *ScreeningMetrics) SetSourceUp(source string, up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	m.sourceUp.WithLabelValues(source).Set(value)
}
