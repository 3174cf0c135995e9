package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the platform counters exposed on the REST /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsTotal prometheus.Counter
	SessionsStarted  *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	MovesTotal       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamehub_connections_total",
			Help: "Client connections accepted across all transports.",
		}),
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamehub_sessions_started_total",
			Help: "Sessions that reached two participants and started.",
		}, []string{"game"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gamehub_sessions_active",
			Help: "Sessions currently in progress.",
		}),
		MovesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamehub_moves_total",
			Help: "Accepted moves and choices by game kind.",
		}, []string{"game"}),
	}
}

// Handler - returns the scrape handler for this metrics set.
func (that *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(that.registry, promhttp.HandlerOpts{})
}
