package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_events_evaluated_total",
		Help: "The total number of events evaluated by the moderation engine",
	}, []string{"kind", "outcome"})

	MessagesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_messages_deleted_total",
		Help: "The total number of messages deleted by violation reason",
	}, []string{"reason"})

	WarningsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guard_warnings_issued_total",
		Help: "The total number of warnings issued",
	})

	MutesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guard_mutes_issued_total",
		Help: "The total number of mutes issued at the warning limit",
	})

	AutoDeleteScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guard_autodelete_scheduled_total",
		Help: "The total number of auto-delete timers scheduled",
	})

	AutoDeleteDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guard_autodelete_deduped_total",
		Help: "The total number of auto-delete schedule requests de-duplicated",
	})

	AutoDeleteFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_autodelete_fired_total",
		Help: "The total number of auto-delete timers fired by outcome",
	}, []string{"status"})

	AutoDeletePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guard_autodelete_pending",
		Help: "Current number of pending auto-delete timers",
	})

	PlatformCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_platform_call_errors_total",
		Help: "Total number of failed chat platform API calls by method",
	}, []string{"method"})
)
