// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the import pipeline.
//
// It exposes a narrow Backend interface focused on counters and timing
// data, with a global, pluggable backend that defaults to a no-op
// implementation, so metric calls are always safe even when no real
// backend is configured. Concrete metric systems stay isolated behind
// the interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the
// existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline
// step (analyze, fetch, parse, merge).
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"step":   step,
		"status": status,
	}

	backend.IncCounter("import_step_total", 1, lbls)
	backend.ObserveHistogram("import_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRecords increments a record-level counter for the given kind.
//
// Typical kinds:
//   - "candidates"
//   - "skipped_rows"
//   - "inserted"
//   - "updated"
func RecordRecords(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("import_records_total", float64(delta), Labels{
		"kind": kind,
	})
}
