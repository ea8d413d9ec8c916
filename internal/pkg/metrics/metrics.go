package metrics

import (
	"net/http"
	"strconv"
	"time"

	"med-agent-be/pkg/fetch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry     *prometheus.Registry
	fetchTiers   *prometheus.CounterVec
	turns        *prometheus.CounterVec
	routes       *prometheus.CounterVec
	turnLatency  prometheus.Histogram
	fallbacks    prometheus.Counter
	catalogEmpty prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTiers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medagent_fetch_tier_total",
				Help: "Fetch attempts per tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medagent_turns_total",
				Help: "Completed turns by gate outcome and failure",
			},
			[]string{"blocked", "failed"},
		),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medagent_route_total",
				Help: "Routes dispatched",
			},
			[]string{"route"},
		),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medagent_turn_latency_seconds",
			Help:    "End to end turn latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medagent_locator_fallback_total",
			Help: "Locator answers served from the on-duty feed",
		}),
		catalogEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medagent_catalog_not_found_total",
			Help: "Catalog lookups that found nothing",
		}),
	}
	m.registry.MustRegister(
		m.fetchTiers, m.turns, m.routes, m.turnLatency, m.fallbacks, m.catalogEmpty,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch has the fetch.Observer signature.
func (m *Metrics) ObserveFetch(tier fetch.Tier, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.fetchTiers.WithLabelValues(string(tier), outcome).Inc()
}

// Turn is the subset of a TURN_COMPLETED payload the collectors need.
type Turn struct {
	Routes   []string
	Blocked  bool
	Failed   bool
	Fallback bool
	NotFound bool
	Latency  time.Duration
}

func (m *Metrics) ObserveTurn(t Turn) {
	m.turns.WithLabelValues(strconv.FormatBool(t.Blocked), strconv.FormatBool(t.Failed)).Inc()
	for _, r := range t.Routes {
		m.routes.WithLabelValues(r).Inc()
	}
	m.turnLatency.Observe(t.Latency.Seconds())
	if t.Fallback {
		m.fallbacks.Inc()
	}
	if t.NotFound {
		m.catalogEmpty.Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
