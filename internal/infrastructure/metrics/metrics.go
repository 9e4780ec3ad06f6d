package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carebridge"

var (
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "messages_processed_total",
		Help:      "Messages processed by type.",
	}, []string{"type"})

	MessageProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing one inbound message.",
		Buckets:   prometheus.DefBuckets,
	})

	ActiveConversations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "active_conversations",
		Help:      "Conversations currently held in the active set.",
	})

	PHIDetections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "phi_detections_total",
		Help:      "Messages in which PHI was detected and redacted.",
	})

	AIFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "ai_fallbacks_total",
		Help:      "AI responder failures degraded to the fallback reply.",
	})

	Escalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escalation",
		Name:      "escalations_total",
		Help:      "Escalations by trigger reason.",
	}, []string{"reason"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "escalation",
		Name:      "queue_depth",
		Help:      "Tickets currently waiting in the escalation queue.",
	})

	QueueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escalation",
		Name:      "queue_drops_total",
		Help:      "Tickets dropped because the queue was full.",
	})

	Assignments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escalation",
		Name:      "assignments_total",
		Help:      "Tickets assigned to agents.",
	})

	SLABreaches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "escalation",
		Name:      "sla_breaches_total",
		Help:      "Response SLA breaches by priority at breach time.",
	}, []string{"priority"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "sweep_runs_total",
		Help:      "Background sweep executions by job and outcome.",
	}, []string{"job", "outcome"})
)

// RecordMessageProcessed tracks one processed message and its latency.
func RecordMessageProcessed(msgType string, start time.Time) {
	MessagesProcessed.WithLabelValues(msgType).Inc()
	MessageProcessingSeconds.Observe(time.Since(start).Seconds())
}

// RecordEscalation tracks one escalation by reason.
func RecordEscalation(reason string) {
	Escalations.WithLabelValues(reason).Inc()
}

// RecordSLABreach tracks one response SLA breach.
func RecordSLABreach(priority string) {
	SLABreaches.WithLabelValues(priority).Inc()
}

// RecordSweep tracks one background sweep run.
func RecordSweep(job, outcome string) {
	SweepRuns.WithLabelValues(job, outcome).Inc()
}
