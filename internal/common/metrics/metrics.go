// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 120},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	PairsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_pairs_scored_total",
			Help: "Candidate-internship pairs scored, by outcome",
		},
		[]string{"outcome"},
	)

	AllocationsMade = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_seats_allocated_total",
			Help: "Allocations by allocation type and consumed seat category",
		},
		[]string{"allocation_type", "seat_category"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocation_stage_duration_seconds",
			Help:    "Duration of allocation pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"stage"},
	)

	ConfigUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_config_updates_total",
			Help: "Quota and boost configuration updates, by result",
		},
		[]string{"section", "result"},
	)
)
