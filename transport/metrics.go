package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors the reactor pool and its
// connections update. Mirrors cmd/proxysip/main.go's habit of exposing a
// promhttp.Handler side-listener; here the collectors live next to the
// code that increments them instead of being wired ad hoc in main.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	RequestsTotal       *prometheus.CounterVec
	ParseErrorsTotal    *prometheus.CounterVec
}

// NewMetrics registers a fresh set of collectors on reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the global
// default registry across parallel test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mpp_connections_accepted_total",
			Help: "Total number of TCP connections accepted by the reactor pool.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mpp_connections_active",
			Help: "Number of connections currently owned by a reactor.",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mpp_requests_total",
			Help: "Total number of completed requests, labeled by reply status.",
		}, []string{"status"}),
		ParseErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mpp_parse_errors_total",
			Help: "Total number of malformed requests, labeled by failure status.",
		}, []string{"status"}),
	}
}
