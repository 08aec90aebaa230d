// Package telemetry holds the Prometheus collectors for crawl, analysis and merge activity.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is private to the process so repeated test runs never collide with the default registerer.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// AdmissionRunning tracks operations currently holding a slot, summed over every controller.
	AdmissionRunning = factory.NewGauge(prometheus.GaugeOpts{
		Name: "corpusmetrics_admission_running",
		Help: "Operations currently running inside any admission controller",
	})

	// AdmissionWaiting tracks operations queued for a slot, summed over every controller.
	AdmissionWaiting = factory.NewGauge(prometheus.GaugeOpts{
		Name: "corpusmetrics_admission_waiting",
		Help: "Operations waiting for a slot in any admission controller",
	})

	// FilesAnalyzed counts files read and analyzed by the pipeline.
	FilesAnalyzed = factory.NewCounter(prometheus.CounterOpts{
		Name: "corpusmetrics_files_analyzed_total",
		Help: "Files analyzed by the metrics pipeline",
	})

	// DirectoriesListed counts directory listings performed by the crawler.
	DirectoriesListed = factory.NewCounter(prometheus.CounterOpts{
		Name: "corpusmetrics_directories_listed_total",
		Help: "Directories listed by the tree crawler",
	})

	// Diagnostics counts non-fatal findings by kind.
	Diagnostics = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "corpusmetrics_diagnostics_total",
		Help: "Path-level diagnostics by kind",
	}, []string{"kind"})

	// JoinedRows counts wide rows produced by the merge engine by outcome.
	JoinedRows = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "corpusmetrics_joined_rows_total",
		Help: "Wide rows joined by outcome (matched, defaulted, key_error)",
	}, []string{"outcome"})
)

// WriteTextfile dumps every collector in the text exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
