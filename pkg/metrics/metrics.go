package metrics

import (
	"time"
)

// RecordGenerationPass records one completed expansion pass and the network
// size it reached.
func (r *Registry) RecordGenerationPass(speciesCount, reactionCount int) {
	r.GenerationPassesTotal.Inc()
	r.NetworkSpeciesTotal.Set(float64(speciesCount))
	r.NetworkReactionsTotal.Set(float64(reactionCount))
}

// RecordGenerationDone records a generation run that converged.
func (r *Registry) RecordGenerationDone(duration time.Duration) {
	r.GenerationsTotal.WithLabelValues("converged").Inc()
	r.GenerationDuration.Observe(duration.Seconds())
}

// RecordGenerationFailed records a generation run that hit its bounds or
// failed.
func (r *Registry) RecordGenerationFailed() {
	r.GenerationsTotal.WithLabelValues("failed").Inc()
}

// RecordMatch records one matcher invocation and how many embeddings it
// found.
func (r *Registry) RecordMatch(embeddings int) {
	r.MatchInvocationsTotal.Inc()
	r.EmbeddingsFound.Add(float64(embeddings))
}
