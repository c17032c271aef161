package relayd

import (
	"database/sql"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the relay daemon. Each server
// instance carries its own registry so tests can run several servers in one
// process.
type Metrics struct {
	Registry  *prometheus.Registry
	Sponsored prometheus.Counter
	Rejected  prometheus.Counter
	Proxied   prometheus.Counter
}

func NewMetrics(db *sql.DB) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		Registry: registry,
		Sponsored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chapay",
			Subsystem: "relayd",
			Name:      "sponsored_total",
			Help:      "Pending envelopes countersigned and forwarded to the chain.",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chapay",
			Subsystem: "relayd",
			Name:      "rejected_total",
			Help:      "Pending envelopes refused by the sponsorship policy.",
		}),
		Proxied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chapay",
			Subsystem: "relayd",
			Name:      "proxied_total",
			Help:      "Requests passed through to the upstream node verbatim.",
		}),
	}

	registry.MustRegister(collectors.NewGoCollector())

	if db != nil {
		registry.MustRegister(sqlstats.NewStatsCollector("relayd", db))
	}

	return m
}
