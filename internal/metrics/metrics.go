package metrics

import (
	"database/sql"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service holds the prometheus registry and the counters of the token
// core. Constructed once at startup and passed to components explicitly.
type Service struct {
	Registry *prometheus.Registry

	// Submissions counts finished submissions by operation and terminal status.
	Submissions *prometheus.CounterVec
	// SendRetries counts retried send attempts.
	SendRetries prometheus.Counter
	// NonceResyncs counts error-driven nonce resynchronizations.
	NonceResyncs prometheus.Counter
	// FeeBumps counts fee increases after underpriced send failures.
	FeeBumps prometheus.Counter
	// CircuitRejected counts submissions rejected by an open circuit.
	CircuitRejected prometheus.Counter
	// IdempotencyRequests counts idempotency lookups by result (hit/miss/bypass).
	IdempotencyRequests *prometheus.CounterVec
}

// New creates the metrics service with its own registry. db may be nil in
// tests; when set, connection pool stats are collected as well.
func New(db *sql.DB) *Service {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if db != nil {
		registry.MustRegister(sqlstats.NewStatsCollector("ledger", db))
	}

	return &Service{
		Registry: registry,
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "token_agent_submissions_total",
			Help: "Finished transaction submissions by operation and terminal status.",
		}, []string{"operation", "status"}),
		SendRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_agent_send_retries_total",
			Help: "Retried transaction send attempts.",
		}),
		NonceResyncs: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_agent_nonce_resyncs_total",
			Help: "Error-driven nonce resynchronizations to chain state.",
		}),
		FeeBumps: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_agent_fee_bumps_total",
			Help: "Fee increases applied after underpriced send failures.",
		}),
		CircuitRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_agent_circuit_rejected_total",
			Help: "Submissions rejected by an open circuit breaker.",
		}),
		IdempotencyRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "token_agent_idempotency_requests_total",
			Help: "Idempotency cache lookups by result.",
		}, []string{"result"}),
	}
}
