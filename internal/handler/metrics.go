package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded in grader_runs_total.
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

type metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	rows     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "runs_total",
			Help:      "Grading runs started from the upload page, by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grader",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a grading subprocess.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		rows: f.NewCounter(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "rows_graded_total",
			Help:      "Result rows produced by successful runs.",
		}),
	}
}
