package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGenerationMetrics() {
	r.GenerationPassesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_generation_passes_total",
			Help: "Total number of expansion passes across all generation runs",
		},
	)

	r.GenerationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxnet_generation_duration_seconds",
			Help:    "Wall time of complete network generation runs",
			Buckets: []float64{0.001, 0.01, 0.1, 1.0, 10.0, 60.0, 300.0},
		},
	)

	r.GenerationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxnet_generations_total",
			Help: "Total number of generation runs by outcome",
		},
		[]string{"status"},
	)

	r.SpeciesDiscovered = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_species_discovered_total",
			Help: "Total number of new species added during expansion",
		},
	)

	r.SpeciesDeduplicated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_species_deduplicated_total",
			Help: "Total number of product species found isomorphic to a known species",
		},
	)

	r.ReactionsDiscovered = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_reactions_discovered_total",
			Help: "Total number of distinct reactions added during expansion",
		},
	)

	r.ReactionsDeduplicated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_reactions_deduplicated_total",
			Help: "Total number of rule firings collapsed into an existing reaction",
		},
	)

	r.NetworkSpeciesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "rxnet_network_species_total",
			Help: "Species count of the most recently generated network",
		},
	)

	r.NetworkReactionsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "rxnet_network_reactions_total",
			Help: "Reaction count of the most recently generated network",
		},
	)
}

func (r *Registry) initMatcherMetrics() {
	r.MatchInvocationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_match_invocations_total",
			Help: "Total number of pattern-into-species match calls",
		},
	)

	r.EmbeddingsFound = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rxnet_embeddings_found_total",
			Help: "Total number of pattern embeddings enumerated",
		},
	)
}
