package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "booking_status_changes_total",
			Help:      "Booking status transitions by resulting status.",
		},
		[]string{"status"},
	)

	listRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "booking_list_requests_total",
			Help:      "Booking list requests by role and state.",
		},
		[]string{"role", "state"},
	)
)

// Register registers the collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, statusChanges, listRequests)
	})
}

// IncBookingCreated counts a created booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncStatusChange counts a transition into status.
func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// IncListRequest counts a list call.
func IncListRequest(role, state string) {
	listRequests.WithLabelValues(role, state).Inc()
}
