package payroll

import "time"

// Metrics receives counters from the Service. The metrics package provides a
// Prometheus implementation.
type Metrics interface {
	RecordGenerated(n int)
	RecordSkipped(n int)
	RecordFailed(n int)
	RecordEdits(n int)
	RecordSwept(n int)
	ObserveBatch(start time.Time)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordGenerated(int)    {}
func (NopMetrics) RecordSkipped(int)      {}
func (NopMetrics) RecordFailed(int)       {}
func (NopMetrics) RecordEdits(int)        {}
func (NopMetrics) RecordSwept(int)        {}
func (NopMetrics) ObserveBatch(time.Time) {}
