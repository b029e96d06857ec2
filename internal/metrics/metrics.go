package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a verdict.
	OutcomeSuccess = "success"
	// OutcomeIndeterminate labels analyses where no agent contributed.
	OutcomeIndeterminate = "indeterminate"
	// OutcomeError labels analyses rejected before dispatch.
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "truthnet_orchestrator",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "truthnet_orchestrator",
			Name:      "analysis_seconds",
			Help:      "End-to-end analysis latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 10, 20, 30, 45},
		},
	)

	agentCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "truthnet_orchestrator",
			Name:      "agent_calls_total",
			Help:      "Agent calls partitioned by agent type and outcome.",
		},
		[]string{"agent", "outcome"},
	)

	agentCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "truthnet_orchestrator",
			Name:      "agent_call_seconds",
			Help:      "Agent call latency in seconds, partitioned by agent type.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"agent"},
	)
)

// Register attaches orchestrator collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		agentCallsTotal,
		agentCallDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an end-to-end analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError && label != OutcomeIndeterminate {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveAgentCall records one agent call duration and outcome label.
func ObserveAgentCall(agent string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	agentCallsTotal.WithLabelValues(agent, label).Inc()
	if duration < 0 {
		duration = 0
	}
	agentCallDurationSeconds.WithLabelValues(agent).Observe(duration.Seconds())
}
