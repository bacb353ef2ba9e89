// Package metrics provides Prometheus metrics for the yarrow worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpansionOccurrencesTotal tracks dose occurrences produced by rule expansion
	ExpansionOccurrencesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "expansion",
			Name:      "occurrences_total",
			Help:      "Total number of dose occurrences produced by rule expansion",
		},
	)

	// ExpansionDuration tracks per-user expansion duration in seconds
	ExpansionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "yarrow",
			Subsystem: "expansion",
			Name:      "duration_seconds",
			Help:      "Duration of per-user plan expansion in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// ExpansionFailuresTotal tracks per-user expansion failures during collection
	ExpansionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "expansion",
			Name:      "failures_total",
			Help:      "Total number of per-user expansion failures during reminder collection",
		},
	)

	// ReminderCyclesTotal tracks reminder worker cycles by outcome
	ReminderCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "cycles_total",
			Help:      "Total number of reminder worker cycles by outcome",
		},
		[]string{"status"},
	)

	// ReminderCycleDuration tracks reminder cycle duration in seconds
	ReminderCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of reminder worker cycles in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// MissedDosesTotal tracks scheduled doses found without a completion record
	MissedDosesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "missed_doses_total",
			Help:      "Total number of scheduled doses found without a matching completion record",
		},
	)

	// RemindersSentTotal tracks reminder emails handed to the sender
	RemindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "sent_total",
			Help:      "Total number of reminder emails sent",
		},
	)

	// ReminderSendFailuresTotal tracks reminder emails the sender rejected
	ReminderSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "send_failures_total",
			Help:      "Total number of reminder emails that failed to send",
		},
	)

	// RemindersSkippedTotal tracks reminders skipped before dispatch by reason
	RemindersSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yarrow",
			Subsystem: "reminder",
			Name:      "skipped_total",
			Help:      "Total number of reminders skipped before dispatch by reason",
		},
		[]string{"reason"},
	)
)
