// Package metrics exposes Prometheus instrumentation for the collection
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts collection runs by outcome ("success", "error",
	// "empty").
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsmonitor_runs_total",
		Help: "Collection runs by outcome.",
	}, []string{"status"})

	// APIRetries counts rate-limit backoffs against the advertising API.
	APIRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsmonitor_api_retries_total",
		Help: "Rate-limit retries against the advertising API.",
	})

	// SheetPublishFailures counts failed sheet tab publishes.
	SheetPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsmonitor_sheet_publish_failures_total",
		Help: "Failed Google Sheets tab publishes.",
	})

	// LastRunTimestamp is the unix time of the last successful run.
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adsmonitor_last_success_timestamp_seconds",
		Help: "Unix timestamp of the last successful collection run.",
	})

	// RowsCollected is the row count of the last collection run.
	RowsCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adsmonitor_rows_collected",
		Help: "Performance rows fetched in the last collection run.",
	})
)
