// Package metrics provides Prometheus metrics for the insight engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the engine's metrics and the registry they live on.
// A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	personaClassified *prometheus.CounterVec
	gateDecisions     *prometheus.CounterVec
	cardsRanked       prometheus.Counter
	cardsDuplicate    prometheus.Counter
	cardsExplored     prometheus.Counter
	catalogReloads    *prometheus.CounterVec
	catalogSkills     prometheus.Gauge
	runDuration       *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for duration histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry registers the metrics on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "insight",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.personaClassified = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "persona_classified_total",
		Help:      "Personas classified, by track and submode",
	}, []string{"track", "submode"})

	m.gateDecisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "discovered_skill_decisions_total",
		Help:      "Discovered-skill gate outcomes",
	}, []string{"outcome"})

	m.cardsRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cards_ranked_total",
		Help:      "Cards returned by the ranking engine",
	})

	m.cardsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cards_duplicate_total",
		Help:      "Candidate cards dropped as duplicate titles",
	})

	m.cardsExplored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cards_explored_total",
		Help:      "Cards chosen through the exploration slice",
	})

	m.catalogReloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "skill_catalog_reloads_total",
		Help:      "Skill catalog load attempts, by result",
	}, []string{"result"})

	m.catalogSkills = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "skill_catalog_size",
		Help:      "Skills in the catalog currently in effect",
	})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of insight runs",
		Buckets:   m.histogramBuckets,
	}, []string{"status"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by route and status code",
	}, []string{"route", "code"})
}

// RecordPersona counts a classification.
func (m *Manager) RecordPersona(track, submode string) {
	if m == nil {
		return
	}
	m.personaClassified.WithLabelValues(track, submode).Inc()
}

// RecordGateDecision counts an admitted or rejected discovered skill.
func (m *Manager) RecordGateDecision(admitted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
	}
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

// RecordRanking counts the output of one ranking call.
func (m *Manager) RecordRanking(returned, duplicates, explored int) {
	if m == nil {
		return
	}
	m.cardsRanked.Add(float64(returned))
	m.cardsDuplicate.Add(float64(duplicates))
	m.cardsExplored.Add(float64(explored))
}

// RecordCatalogReload counts a catalog load attempt.
func (m *Manager) RecordCatalogReload(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.catalogReloads.WithLabelValues(result).Inc()
}

// SetCatalogSize records the size of the catalog in effect.
func (m *Manager) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.catalogSkills.Set(float64(n))
}

// ObserveRun records how long a run took.
func (m *Manager) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordHTTPRequest counts a served request.
func (m *Manager) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
