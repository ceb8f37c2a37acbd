package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LeasesCreated           prometheus.Counter
	LeasesActivated         prometheus.Counter
	LeasesTerminated        prometheus.Counter
	LeasesExpired           prometheus.Counter
	SignaturesRecorded      *prometheus.CounterVec
	ProviderReconciliations *prometheus.CounterVec
	NoticesIssued           prometheus.Counter
	RevisionsComputed       prometheus.Counter
	RevisionRemindersSent   *prometheus.CounterVec
	RegularizationsComputed prometheus.Counter
	SettlementsComputed     prometheus.Counter
	RequestDuration         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LeasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_leases_created_total",
			Help: "Total number of draft leases created",
		}),
		LeasesActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_leases_activated_total",
			Help: "Total number of leases that reached active status",
		}),
		LeasesTerminated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_leases_terminated_total",
			Help: "Total number of leases terminated by notice",
		}),
		LeasesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_leases_expired_total",
			Help: "Total number of fixed-term leases swept to expired",
		}),
		SignaturesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locatio_signatures_recorded_total",
			Help: "Signatures recorded, by party and method",
		}, []string{"party", "method"}),
		ProviderReconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locatio_provider_reconciliations_total",
			Help: "Provider envelope statuses reconciled, by status",
		}, []string{"status"}),
		NoticesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_notices_issued_total",
			Help: "Termination notices issued",
		}),
		RevisionsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_revisions_computed_total",
			Help: "Rent revisions computed and persisted",
		}),
		RevisionRemindersSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "locatio_revision_reminders_total",
			Help: "Revision reminders emitted by the daily scan, by type",
		}, []string{"type"}),
		RegularizationsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_regularizations_computed_total",
			Help: "Charge regularizations computed and persisted",
		}),
		SettlementsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "locatio_settlements_computed_total",
			Help: "Deposit settlements computed and persisted",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "locatio_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
