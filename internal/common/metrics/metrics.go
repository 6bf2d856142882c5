// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_completed_total",
			Help: "Total number of completed step transitions",
		},
		[]string{"from_step", "to_step"},
	)

	TransitionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_failed_total",
			Help: "Total number of failed step transitions",
		},
		[]string{"step", "error_code"},
	)

	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wizard_transition_duration_seconds",
			Help: "Duration of Next transitions including remote calls",
		},
		[]string{"step"},
	)

	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_remote_calls_total",
			Help: "Outbound licensing-service calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Terminal application submissions by outcome",
		},
		[]string{"outcome"},
	)
)
