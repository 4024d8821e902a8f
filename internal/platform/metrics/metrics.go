package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
//
// The swallowed-failure counters matter most: publish and index-sync failures
// are never surfaced to callers, so these counters are the only place that
// divergence between primary and derived state becomes visible.
type Metrics struct {
	IdentitiesRegistered  prometheus.Counter
	CredentialsActivated  prometheus.Counter
	PublishFailures       prometheus.Counter
	IndexSyncFailures     *prometheus.CounterVec
	PunchcardsIssued      prometheus.Counter
	PunchcardsRejected    prometheus.Counter
	ConsumerEventsDropped prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_identities_registered_total",
			Help: "Total number of identities registered.",
		}),
		CredentialsActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_credentials_activated_total",
			Help: "Total number of provisional credentials promoted to active.",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_identity_publish_failures_total",
			Help: "Identity-created events that failed to publish. These identities stay provisional until re-issued.",
		}),
		IndexSyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stamply_index_sync_failures_total",
			Help: "Search index writes swallowed after a successful primary write, by operation.",
		}, []string{"op"}),
		PunchcardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_punchcards_issued_total",
			Help: "Punch-cards issued.",
		}),
		PunchcardsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_punchcards_rejected_total",
			Help: "Punch-card issuance attempts rejected by the validity window.",
		}),
		ConsumerEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stamply_consumer_events_dropped_total",
			Help: "Identity events discarded by the activation consumer (malformed or unknown identity).",
		}),
	}
}
