package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated          = "created"
	OutcomeExisting         = "existing"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeMarked           = "marked"
	OutcomeAlreadyMarked    = "already_marked"
	OutcomeInvalid          = "invalid"
	OutcomeRepaired         = "repaired"
	OutcomeConflict         = "conflict"
	OutcomeFailed           = "failed"
)

// Metrics holds the Prometheus collectors of the registration subsystem.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Cancellations prometheus.Counter
	Scans         *prometheus.CounterVec
	CacheRepairs  *prometheus.CounterVec
	EventsCreated prometheus.Counter
	EventsDeleted prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "community_events_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Cancellations: factory.NewCounter(prometheus.CounterOpts{
			Name: "community_events_cancellations_total",
			Help: "Registrations cancelled by their holder",
		}),
		Scans: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "community_events_ticket_scans_total",
			Help: "Ticket scans at the door by outcome",
		}, []string{"outcome"}),
		CacheRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "community_events_participant_cache_repairs_total",
			Help: "Read-repairs of the cached participant set by outcome",
		}, []string{"outcome"}),
		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "community_events_created_total",
			Help: "Events created",
		}),
		EventsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "community_events_deleted_total",
			Help: "Events soft-deleted",
		}),
	}
}

// NewNop returns collectors that are not exported anywhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncScan(outcome string) {
	m.Scans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCacheRepair(outcome string) {
	m.CacheRepairs.WithLabelValues(outcome).Inc()
}
