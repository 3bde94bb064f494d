package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famhealth_sweeps_total",
		Help: "Dispatch sweeps by result.",
	}, []string{"result"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "famhealth_sweep_duration_seconds",
		Help:    "Wall time of one dispatch sweep.",
		Buckets: prometheus.DefBuckets,
	})

	dispatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famhealth_dispatch_attempts_total",
		Help: "Reminder send attempts by channel and outcome.",
	}, []string{"channel", "outcome"})

	remindersMissed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famhealth_reminders_missed_total",
		Help: "Pending reminders expired at day rollover.",
	})

	remindersExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famhealth_reminders_exhausted_total",
		Help: "Reminders that used up their daily send attempts.",
	})
)
