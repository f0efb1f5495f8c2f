package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	reservationOpsTotal     *prometheus.CounterVec
	reservationQueueGauge   *prometheus.GaugeVec
	boardConnectionsGauge   prometheus.Gauge
	activityRecordFailTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the booking API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookit_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookit_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookit_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		reservationOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookit_reservation_operations_total",
			Help: "Reservation operations by kind and outcome.",
		}, []string{"operation", "outcome"})

		reservationQueueGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bookit_reservations",
			Help: "Current number of reservations per status.",
		}, []string{"status"})

		boardConnectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookit_room_board_connections",
			Help: "Active websocket connections on the room board.",
		})

		activityRecordFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookit_activity_record_failures_total",
			Help: "Activity entries that could not be persisted.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			reservationOpsTotal,
			reservationQueueGauge,
			boardConnectionsGauge,
			activityRecordFailTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ReservationOperations counts reservation operations labelled by outcome.
func ReservationOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return reservationOpsTotal
}

// ReservationQueue tracks reservation totals per status.
func ReservationQueue() *prometheus.GaugeVec {
	RegisterMetrics()
	return reservationQueueGauge
}

// BoardConnections tracks connected room board clients.
func BoardConnections() prometheus.Gauge {
	RegisterMetrics()
	return boardConnectionsGauge
}

// ActivityRecordFailures counts swallowed activity log failures.
func ActivityRecordFailures() prometheus.Counter {
	RegisterMetrics()
	return activityRecordFailTotal
}
