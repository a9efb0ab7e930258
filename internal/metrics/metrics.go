package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coderoom_connections",
		Help: "A gauge of websocket connections currently open.",
	})

	Rooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coderoom_rooms",
		Help: "A gauge of rooms held in memory.",
	})

	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coderoom_events_total",
		Help: "A counter of inbound events by type and outcome.",
	}, []string{"type", "outcome"})

	ExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coderoom_executions_total",
		Help: "A counter of execution results by language and outcome.",
	}, []string{"language", "outcome"})

	ExecutionSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coderoom_execution_seconds",
		Help:    "Latency of calls to the execution provider.",
		Buckets: []float64{.1, .25, .5, 1, 2, 3, 5, 10},
	})

	InFlightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coderoom_http_in_flight_requests",
		Help: "A gauge of HTTP requests being handled.",
	})
)

func init() {
	prometheus.MustRegister(
		Connections,
		Rooms,
		EventsTotal,
		ExecutionsTotal,
		ExecutionSeconds,
		InFlightRequests,
	)
}
