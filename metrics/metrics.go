package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payroll generation, edits and retention.
type Metrics struct {
	// Records by batch outcome: generated, skipped, failed
	RecordsTotal *prometheus.CounterVec

	// Edit log entries written
	EditsTotal prometheus.Counter

	// Records removed by the retention sweep
	SweptTotal prometheus.Counter

	// Duration of one GenerateBatch call
	BatchLatency prometheus.Histogram
}

// New registers all payroll metrics on reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_records_total",
			Help: "Payroll records handled by batch generation, by outcome",
		}, []string{"outcome"}), // outcome: "generated", "skipped", "failed"

		EditsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_edit_logs_total",
			Help: "Edit log entries written by manual payroll edits",
		}),

		SweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "payroll_retention_deleted_total",
			Help: "Payroll records deleted by the retention sweep",
		}),

		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payroll_generate_batch_duration_seconds",
			Help:    "Duration of payroll batch generation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) add(outcome string, n int) {
	if m != nil && n > 0 {
		m.RecordsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Metrics) RecordGenerated(n int) { m.add("generated", n) }
func (m *Metrics) RecordSkipped(n int)   { m.add("skipped", n) }
func (m *Metrics) RecordFailed(n int)    { m.add("failed", n) }

// RecordEdits counts edit log entries.
func (m *Metrics) RecordEdits(n int) {
	if m != nil && n > 0 {
		m.EditsTotal.Add(float64(n))
	}
}

// RecordSwept counts records removed by retention.
func (m *Metrics) RecordSwept(n int) {
	if m != nil && n > 0 {
		m.SweptTotal.Add(float64(n))
	}
}

// ObserveBatch records the time since start.
func (m *Metrics) ObserveBatch(start time.Time) {
	if m != nil {
		m.BatchLatency.Observe(time.Since(start).Seconds())
	}
}
