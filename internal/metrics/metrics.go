package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunsTotal counts completed pipeline runs by status (ok|partial|failed).
var RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "insights",
	Name:      "runs_total",
	Help:      "Total number of analytics pipeline runs",
}, []string{"status"})

// RunDuration observes end-to-end pipeline run time.
var RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Subsystem: "insights",
	Name:      "run_duration_seconds",
	Help:      "Duration of analytics pipeline runs",
	Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
})

// RecordsProcessed tracks the input batch size of the latest run.
var RecordsProcessed = promauto.NewGauge(prometheus.GaugeOpts{
	Subsystem: "insights",
	Name:      "records_processed",
	Help:      "Deployment records in the latest batch",
})

// TableRows tracks output row counts per derived table.
var TableRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "insights",
	Name:      "table_rows",
	Help:      "Rows in each derived table of the latest run",
}, []string{"table"})

// TableErrors counts per-table aggregation failures.
var TableErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "insights",
	Name:      "table_errors_total",
	Help:      "Total number of per-table aggregation failures",
}, []string{"table"})
