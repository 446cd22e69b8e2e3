// Package observability defines the Prometheus collectors for the dispatch
// backend. Collectors are package-level and registered via promauto, so
// importing the package is enough to expose them on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TripsRequestedTotal counts trips created in the searching state.
	TripsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "trips_requested_total",
		Help: "Total trips requested by passengers",
	})

	// TripsAcceptedTotal counts successful driver claims.
	TripsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "trips_accepted_total",
		Help: "Total trips claimed by a driver",
	})

	// AcceptRacesLostTotal counts accept attempts that lost the conditional
	// update race because the trip was claimed between read and write.
	AcceptRacesLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "accept_races_lost_total",
		Help: "Accept attempts rejected because the trip was already claimed",
	})

	// TripsFinishedTotal counts trips completed by their driver.
	TripsFinishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "trips_finished_total",
		Help: "Total trips finished",
	})

	// TripsCancelledTotal counts cancellations, labelled by which party
	// cancelled (passenger or driver).
	TripsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "trips_cancelled_total",
		Help: "Total trips cancelled",
	}, []string{"cancelled_by"})

	// AvailabilityWriteFailures counts failed best-effort driver availability
	// writes after a committed trip transition. A nonzero rate means driver
	// rows may be stale until a later operation corrects them.
	AvailabilityWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "availability_write_failures_total",
		Help: "Driver availability updates that failed after a trip transition",
	})

	// HTTPRequestsTotal counts handled HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mototaxi", Name: "http_requests_total",
		Help: "Total HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration is the HTTP latency distribution by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mototaxi", Name: "http_request_duration_seconds",
		Help:    "HTTP request latency distribution",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
