package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raysh454/netshield/internal/assessor"
)

// metrics live on a per-server registry so several servers (tests) can
// coexist in one process.
type metrics struct {
	registry       *prometheus.Registry
	checks         *prometheus.CounterVec
	riskScore      prometheus.Histogram
	netinfoLookups *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netshield",
			Name:      "checks_total",
			Help:      "Phishing checks served, by risk level.",
		}, []string{"level"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netshield",
			Name:      "risk_score",
			Help:      "Distribution of risk scores returned.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		netinfoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netshield",
			Name:      "netinfo_lookups_total",
			Help:      "Network identity lookups, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.checks,
		m.riskScore,
		m.netinfoLookups,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) observeCheck(r assessor.RiskResult) {
	m.checks.WithLabelValues(string(r.Level)).Inc()
	if r.Level != assessor.LevelUnknown && !r.Internal() {
		m.riskScore.Observe(float64(r.RiskScore))
	}
}

func (m *metrics) observeNetInfo(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.netinfoLookups.WithLabelValues(outcome).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
