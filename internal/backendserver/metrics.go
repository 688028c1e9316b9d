package backendserver

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests processed by the development backend.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_commands_total",
			Help: "Total number of websocket commands handled, by outcome.",
		},
		[]string{"command", "status"},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_events_total",
			Help: "Total number of push events delivered to sessions.",
		},
		[]string{"event"},
	)
	wsActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_ws_active_sessions",
			Help: "Number of open websocket sessions.",
		},
	)
	sessionsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_sessions_issued_total",
			Help: "Total number of session tokens issued.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		commandsTotal,
		eventsTotal,
		wsActiveSessions,
		sessionsIssuedTotal,
	)
}

func observeHTTP(method, route string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(seconds)
}

func incCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	commandsTotal.WithLabelValues(command, status).Inc()
}

func incEvent(kind string) {
	eventsTotal.WithLabelValues(kind).Inc()
}

func incSessionIssued(kind string) {
	sessionsIssuedTotal.WithLabelValues(kind).Inc()
}
