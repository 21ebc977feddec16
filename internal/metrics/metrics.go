package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_runs_started_total",
		Help: "Total number of reconciliation runs started",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_runs_completed_total",
		Help: "Total number of reconciliation runs completed",
	})

	DescriptorsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_descriptors_created_total",
		Help: "Total number of descriptors created",
	})

	DescriptorsRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_descriptors_repaired_total",
		Help: "Total number of descriptors repaired",
	})

	DatasetsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_datasets_skipped_total",
		Help: "Total number of datasets skipped (no download directory)",
	})

	DatasetsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_annotator_datasets_failed_total",
		Help: "Total number of datasets that failed reconciliation",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dataset_annotator_run_duration_seconds",
		Help:    "Reconciliation run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
