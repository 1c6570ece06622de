package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grader_executions_total",
			Help: "Total number of code executions",
		},
		[]string{"language", "status"}, // status: "ok", "fault", "timeout"
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grader_execution_duration_ms",
			Help:    "Execution wall time in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"language"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grader_submissions_total",
			Help: "Total number of graded submissions",
		},
		[]string{"source", "verdict"}, // source: "http", "sqs", "cli"
	)

	InFlightSubmissions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grader_in_flight_submissions",
			Help: "Number of submissions currently being graded over HTTP",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "grader_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)
)

// Verdict maps an overall pass flag to the label used by SubmissionsTotal.
func Verdict(allPassed bool) string {
	if allPassed {
		return "accepted"
	}
	return "rejected"
}
