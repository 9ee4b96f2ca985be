package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "udahub_turns_total",
			Help: "Total number of processed ticket turns",
		},
		[]string{"route", "outcome"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "udahub_turn_duration_seconds",
			Help:    "Ticket turn processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	escalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "udahub_escalations_total",
			Help: "Total number of escalations to human agents",
		},
		[]string{"trigger"},
	)

	classificationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "udahub_classification_duration_seconds",
			Help:    "Ticket classification duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	knowledgeSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "udahub_knowledge_searches_total",
			Help: "Total number of knowledge base searches",
		},
		[]string{"usable"},
	)

	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "udahub_tool_calls_total",
			Help: "Total number of tool server calls",
		},
		[]string{"tool", "status"},
	)

	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "udahub_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	checkpointSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "udahub_checkpoint_sweeps_total",
			Help: "Total number of checkpoint garbage collection sweeps",
		},
	)

	checkpointsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "udahub_checkpoints_swept_total",
			Help: "Total number of checkpoints removed by the sweeper",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics. Safe to call multiple times.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			turnsTotal,
			turnDuration,
			escalationsTotal,
			classificationDuration,
			knowledgeSearchesTotal,
			toolCallsTotal,
			toolCallDuration,
			checkpointSweepsTotal,
			checkpointsSweptTotal,
		)
	})
}

// RecordTurn records a completed turn with its route and outcome.
func RecordTurn(route, outcome string, duration time.Duration) {
	turnsTotal.WithLabelValues(route, outcome).Inc()
	turnDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordEscalation records an escalation with the trigger that fired.
func RecordEscalation(trigger string) {
	escalationsTotal.WithLabelValues(trigger).Inc()
}

// RecordClassification records a classification call duration.
func RecordClassification(duration time.Duration) {
	classificationDuration.Observe(duration.Seconds())
}

// RecordKnowledgeSearch records a knowledge search and whether the
// result set cleared the confidence gate.
func RecordKnowledgeSearch(usable bool) {
	label := "false"
	if usable {
		label = "true"
	}
	knowledgeSearchesTotal.WithLabelValues(label).Inc()
}

// RecordToolCall records a tool server invocation.
func RecordToolCall(tool, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordCheckpointSweep records a garbage collection sweep.
func RecordCheckpointSweep(removed int) {
	checkpointSweepsTotal.Inc()
	checkpointsSweptTotal.Add(float64(removed))
}
