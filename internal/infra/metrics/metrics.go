package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthOpsTotal tracks auth operations by name and outcome.
	AuthOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authguard_auth_ops_total",
			Help: "Total number of auth operations",
		},
		[]string{"operation", "outcome"},
	)

	// AuthOpDuration tracks auth operation latency.
	AuthOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authguard_auth_op_duration_seconds",
			Help:    "Auth operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// ErrorsClassified tracks classified failures by kind.
	ErrorsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authguard_errors_classified_total",
			Help: "Total number of classified errors",
		},
		[]string{"kind"},
	)

	// LogEntriesTotal tracks logged entries by severity.
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authguard_log_entries_total",
			Help: "Total number of error log entries",
		},
		[]string{"severity"},
	)

	// ConnectionUp is 1 while the backend is reachable.
	ConnectionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authguard_connection_up",
			Help: "Whether the auth backend is currently reachable",
		},
	)

	// StatusChangesTotal counts settled connection status transitions.
	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authguard_status_changes_total",
			Help: "Total number of connection status transitions",
		},
		[]string{"to"},
	)

	// ProbeLatency tracks connectivity probe latency.
	ProbeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authguard_probe_latency_seconds",
			Help:    "Connectivity probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AlertsFired counts alerts by rule and priority.
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authguard_alerts_fired_total",
			Help: "Total number of alerts fired",
		},
		[]string{"rule", "priority"},
	)

	// EscalationAttempts counts escalation delivery attempts.
	EscalationAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authguard_escalation_attempts_total",
			Help: "Total number of escalation delivery attempts",
		},
	)
)
