// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang counter and summary collectors.
//   - Mapping the pipeline labels (job, stage, status, kind, table) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint. A batch run exits as soon as the
//     tables are published, so there is no long-lived process to scrape.
//   - Pushing through a retrying HTTP client, because the single push at the
//     end of a run is the only chance to publish and a briefly unavailable
//     gateway should not fail the run.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// pipeline.
package prompush

import (
	"fmt"
	"time"

	"github.com/pamo12/data-lake/internal/httpx"
	"github.com/pamo12/data-lake/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry
	client     *httpx.Client // retrying HTTP client used for the push

	// Stage-level metrics
	stageCounter  *prometheus.CounterVec // "etl_stage_total"
	stageDuration *prometheus.SummaryVec // "etl_stage_duration_seconds"

	// Record- and table-level metrics
	recordCounter   *prometheus.CounterVec // "etl_records_total"
	tableRows       *prometheus.CounterVec // "etl_table_rows_total"
	tablePartitions *prometheus.CounterVec // "etl_table_partitions_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as the pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "etl"
	}

	reg := prometheus.NewRegistry()

	// The job name doubles as the Pushgateway grouping key, so the
	// collectors themselves only carry stage/kind/table labels.
	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_stage_total",
			Help: "Total number of pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "etl_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)

	// RECORD metrics: kind (song_records, log_events, unmatched_events, ...).
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Record-level counts per kind (song_records, log_events, unmatched_events, etc.).",
		},
		[]string{"kind"},
	)

	// TABLE metrics: rows and partition directories per destination table.
	tableRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_table_rows_total",
			Help: "Rows published per destination table.",
		},
		[]string{"table"},
	)
	tablePartitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_table_partitions_total",
			Help: "Partition directories written per destination table.",
		},
		[]string{"table"},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(tableRows); err != nil {
		return nil, fmt.Errorf("prompush: register table rows counter: %w", err)
	}
	if err := reg.Register(tablePartitions); err != nil {
		return nil, fmt.Errorf("prompush: register table partitions counter: %w", err)
	}

	// A short retry budget: enough to ride out a gateway restart without
	// holding up process exit for long.
	client := httpx.NewClient(httpx.Config{
		Timeout:        10 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	})

	return &Backend{
		gatewayURL:      gatewayURL,
		jobName:         jobName,
		reg:             reg,
		client:          client,
		stageCounter:    stageCounter,
		stageDuration:   stageDuration,
		recordCounter:   recordCounter,
		tableRows:       tableRows,
		tablePartitions: tablePartitions,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "etl_stage_total":
		if b.stageCounter == nil {
			return
		}
		stage := labels["stage"]
		status := labels["status"]
		b.stageCounter.WithLabelValues(stage, status).Add(delta)

	case "etl_records_total":
		if b.recordCounter == nil {
			return
		}
		kind := labels["kind"]
		b.recordCounter.WithLabelValues(kind).Add(delta)

	case "etl_table_rows_total":
		if b.tableRows == nil {
			return
		}
		table := labels["table"]
		b.tableRows.WithLabelValues(table).Add(delta)

	case "etl_table_partitions_total":
		if b.tablePartitions == nil {
			return
		}
		table := labels["table"]
		b.tablePartitions.WithLabelValues(table).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "etl_stage_duration_seconds" || b.stageDuration == nil {
		return
	}
	stage := labels["stage"]
	status := labels["status"]
	b.stageDuration.WithLabelValues(stage, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, retrying transient
// gateway failures through the wrapped HTTP client.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.client != nil {
		p = p.Client(b.client)
	}
	return p.Push()
}
