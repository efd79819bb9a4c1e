package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Generation Metrics
	GenerationPassesTotal prometheus.Counter
	GenerationDuration    prometheus.Histogram
	GenerationsTotal      *prometheus.CounterVec
	SpeciesDiscovered     prometheus.Counter
	SpeciesDeduplicated   prometheus.Counter
	ReactionsDiscovered   prometheus.Counter
	ReactionsDeduplicated prometheus.Counter
	NetworkSpeciesTotal   prometheus.Gauge
	NetworkReactionsTotal prometheus.Gauge

	// Matcher Metrics
	MatchInvocationsTotal prometheus.Counter
	EmbeddingsFound       prometheus.Counter

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initGenerationMetrics()
	r.initMatcherMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
