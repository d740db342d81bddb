// Package metrics provides Prometheus metrics for the content pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copydesk_tasks_submitted_total",
			Help: "Total number of generation tasks submitted",
		},
	)
	TasksCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copydesk_tasks_completed_total",
			Help: "Total number of tasks that reached completed",
		},
	)
	TasksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_tasks_failed_total",
			Help: "Total number of tasks that failed, by originating phase",
		},
		[]string{"phase"},
	)
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copydesk_phase_duration_seconds",
			Help:    "Pipeline phase execution duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"phase", "outcome"},
	)
	PhaseRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_phase_retries_total",
			Help: "Total number of self-correction retries, by phase",
		},
		[]string{"phase"},
	)
	ComplianceVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_compliance_verdicts_total",
			Help: "Constraint validator verdicts, by phase and verdict",
		},
		[]string{"phase", "verdict"},
	)
	ProviderInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_provider_invocations_total",
			Help: "Routed provider invocations, by provider",
		},
		[]string{"provider"},
	)
	ProviderCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_provider_cost_dollars_total",
			Help: "Estimated provider spend in dollars",
		},
		[]string{"provider"},
	)
	FallbackDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copydesk_fallback_depth",
			Help:    "Fallback depth of successful provider calls (0 = primary)",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)
	TasksByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copydesk_tasks_by_status",
			Help: "Current number of tasks by status and phase",
		},
		[]string{"status", "phase"},
	)
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copydesk_intake_queue_depth",
			Help: "Current depth of the intake queue",
		},
	)
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copydesk_workers_active",
			Help: "Number of workers currently running a pipeline",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copydesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copydesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordTaskSubmitted() {
	TasksSubmitted.Inc()
}

func RecordTaskCompleted() {
	TasksCompleted.Inc()
}

func RecordTaskFailed(phase string) {
	TasksFailed.WithLabelValues(phase).Inc()
}

func RecordPhase(phase, outcome string, duration time.Duration) {
	PhaseDuration.WithLabelValues(phase, outcome).Observe(duration.Seconds())
}

func RecordPhaseRetry(phase string) {
	PhaseRetries.WithLabelValues(phase).Inc()
}

func RecordVerdict(phase, verdict string) {
	ComplianceVerdicts.WithLabelValues(phase, verdict).Inc()
}

func RecordInvocation(provider string, fallbackDepth int, cost float64) {
	ProviderInvocations.WithLabelValues(provider).Inc()
	ProviderCost.WithLabelValues(provider).Add(cost)
	FallbackDepth.Observe(float64(fallbackDepth))
}

func UpdateTaskGauges(byStatusPhase map[string]map[string]int) {
	TasksByStatus.Reset()
	for status, phases := range byStatusPhase {
		for phase, count := range phases {
			TasksByStatus.WithLabelValues(status, phase).Set(float64(count))
		}
	}
}

func UpdateQueueDepth(depth int64) {
	QueueDepth.Set(float64(depth))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
