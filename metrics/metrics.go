package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_security_events_total",
			Help: "Total number of security events recorded",
		},
		[]string{"type", "severity"},
	)

	Escalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_escalations_total",
			Help: "Total number of escalation forward attempts",
		},
		[]string{"outcome"},
	)

	AccessDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_access_denials_total",
			Help: "Total number of access guard denials",
		},
		[]string{"reason"},
	)

	EventRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_event_record_failures_total",
			Help: "Total number of failed security event recordings",
		},
	)

	EscalationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_escalation_duration_seconds",
			Help:    "Time taken to forward events to the MDR service",
			Buckets: prometheus.DefBuckets,
		},
	)
)
