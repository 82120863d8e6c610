package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the engine's Prometheus collectors.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	LoginAttempts  *prometheus.CounterVec
	TokenRefreshes prometheus.Counter
	EmailsSent     *prometheus.CounterVec
}

// New registers the collectors against the provided registerer and returns
// the handle. Passing nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authify",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status.",
		}, []string{"method", "status"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authify",
			Name:      "login_attempts_total",
			Help:      "Login attempts partitioned by outcome.",
		}, []string{"result"}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "authify",
			Name:      "token_refreshes_total",
			Help:      "Successful refresh-token rotations.",
		}),
		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authify",
			Name:      "emails_sent_total",
			Help:      "Outbound emails partitioned by kind and outcome.",
		}, []string{"kind", "result"}),
	}
}
