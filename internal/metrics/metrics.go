// Package metrics — счётчики входов и heartbeat для Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg        *prometheus.Registry
	auth       *prometheus.CounterVec
	heartbeats *prometheus.CounterVec
	limited    prometheus.Counter
}

// New регистрирует счётчики в собственном реестре (не в глобальном DefaultRegisterer).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := &Metrics{
		reg: reg,
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energydash",
			Name:      "auth_requests_total",
			Help:      "Auth requests by result: created, resumed, missing, invalid, unauthenticated, error.",
		}, []string{"result"}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energydash",
			Name:      "heartbeat_requests_total",
			Help:      "Heartbeat requests by result: ok, missing, unknown, error.",
		}, []string{"result"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "energydash",
			Name:      "auth_rate_limited_total",
			Help:      "Auth requests rejected with 429.",
		}),
	}
	reg.MustRegister(m.auth, m.heartbeats, m.limited)
	return m
}

func (m *Metrics) Auth(result string) {
	if m == nil {
		return
	}
	m.auth.WithLabelValues(result).Inc()
}

func (m *Metrics) Heartbeat(result string) {
	if m == nil {
		return
	}
	m.heartbeats.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.limited.Inc()
}

// Handler отдаёт /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
