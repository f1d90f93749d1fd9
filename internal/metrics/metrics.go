package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	conflictsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roadbook",
			Name:      "scheduling_conflicts_total",
			Help:      "Count of rejected booking candidates by conflict kind.",
		},
		[]string{"kind"},
	)

	bookingsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roadbook",
			Name:      "bookings_saved_total",
			Help:      "Count of bookings saved by status.",
		},
		[]string{"status"},
	)

	dragsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roadbook",
			Name:      "drag_committed_total",
			Help:      "Count of committed drag reschedules by mode (move or copy).",
		},
		[]string{"mode"},
	)

	dragsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roadbook",
			Name:      "drag_rejected_total",
			Help:      "Count of drag reschedules rejected by conflict checks.",
		},
	)

	waitlistNotified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "roadbook",
			Name:      "waitlist_slot_freed_total",
			Help:      "Count of waiting-list entries whose slot became bookable.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(conflictsDetected, bookingsSaved, dragsCommitted, dragsRejected, waitlistNotified)
	})
}

func IncConflictDetected(kind string) {
	conflictsDetected.WithLabelValues(kind).Inc()
}

func IncBookingSaved(status string) {
	bookingsSaved.WithLabelValues(status).Inc()
}

func IncDragCommitted(mode string) {
	dragsCommitted.WithLabelValues(mode).Inc()
}

func IncDragRejected() {
	dragsRejected.Inc()
}

func IncWaitlistNotified() {
	waitlistNotified.Inc()
}
