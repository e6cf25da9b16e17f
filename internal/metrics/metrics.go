// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the lake pipeline.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the factory pattern used by the storage package, allowing
//     the rest of the codebase to depend only on this interface while keeping
//     concrete metric systems isolated in subpackages.
//
// The primary use case is instrumentation of the pipeline stages (extract,
// transform, load) without coupling the core application logic to a specific
// metrics system such as Prometheus or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
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

// RecordStage is a convenience for the common pattern:
// measure latency + success/failure per pipeline stage.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("etl_stage_total", 1, lbls)
	backend.ObserveHistogram("etl_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a record-level counter for the given job and kind.
//
// Typical kinds mirror the run summary fields, e.g.:
//   - "song_records"
//   - "log_events"
//   - "next_song_events"
//   - "unmatched_events"
//   - "ambiguous_pairs"
//   - "near_miss_events"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("etl_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordTable reports the outcome of one table write: rows published and,
// for partitioned layouts, the number of partition directories produced.
func RecordTable(job, table string, rows int64, partitions int) {
	lbls := Labels{
		"job":   job,
		"table": table,
	}
	if rows > 0 {
		backend.IncCounter("etl_table_rows_total", float64(rows), lbls)
	}
	if partitions > 0 {
		backend.IncCounter("etl_table_partitions_total", float64(partitions), lbls)
	}
}
