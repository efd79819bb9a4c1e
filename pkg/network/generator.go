package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-rxnet/pkg/logging"
	"github.com/dd0wney/cluso-rxnet/pkg/metrics"
	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/species"
)

// Phase is the generator's state. Generation moves Seeding -> Expanding,
// repeats Expanding until a full pass over every rule discovers nothing
// new, then reaches Converged, which is terminal.
type Phase uint8

const (
	// PhaseSeeding loads the initial species from the model's seeds
	PhaseSeeding Phase = iota
	// PhaseExpanding applies every rule against the known species
	PhaseExpanding
	// PhaseConverged means a full pass produced nothing new
	PhaseConverged
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSeeding:
		return "seeding"
	case PhaseExpanding:
		return "expanding"
	case PhaseConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// Config bounds and instruments a generation run.
type Config struct {
	// MaxSpecies aborts generation with ErrNetworkTooLarge once the
	// species set would exceed this size. Zero means DefaultMaxSpecies.
	MaxSpecies int
	// MaxPasses aborts generation with ErrNetworkTooLarge if the fixed
	// point is not reached within this many expansion passes. Zero means
	// DefaultMaxPasses.
	MaxPasses int
	// Workers applies independent rules concurrently within one pass when
	// greater than one. Results are merged by a single writer in rule
	// order, so the generated network is identical regardless.
	Workers int
	// Logger receives pass-level progress; nil disables logging.
	Logger logging.Logger
	// Metrics receives generation counters; nil disables instrumentation.
	Metrics *metrics.Registry
}

// Default generation bounds. Unbounded rule sets (oligomerization without a
// size cap) generate infinitely many species; the bounds turn that into a
// reportable failure instead of a hang.
const (
	DefaultMaxSpecies = 10000
	DefaultMaxPasses  = 1000
)

// Generator drives rule application to a fixed point over one model. A
// Generator is single-use: create one per Generate call.
type Generator struct {
	mdl   *model.Model
	cfg   Config
	phase Phase

	specs     []*species.Species
	canon     map[string]int
	abund     []float64
	reactions []*Reaction
	seen      map[string]bool
}

// NewGenerator creates a generator for the model with the given bounds.
func NewGenerator(m *model.Model, cfg Config) *Generator {
	if cfg.MaxSpecies <= 0 {
		cfg.MaxSpecies = DefaultMaxSpecies
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = DefaultMaxPasses
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Generator{
		mdl:   m,
		cfg:   cfg,
		canon: make(map[string]int),
		seen:  make(map[string]bool),
	}
}

// Phase returns the generator's current state.
func (g *Generator) Phase() Phase {
	return g.phase
}

// Generate runs seeding and expansion to the fixed point and returns the
// finished network. Exceeding the configured bounds fails with
// ErrNetworkTooLarge; the caller may retry with larger bounds, the
// generator itself does not.
func (g *Generator) Generate() (*Network, error) {
	net, err := g.generate()
	if err != nil && g.cfg.Metrics != nil {
		g.cfg.Metrics.RecordGenerationFailed()
	}
	return net, err
}

func (g *Generator) generate() (*Network, error) {
	start := time.Now()

	if err := g.seed(); err != nil {
		return nil, err
	}

	dirs, err := expandRules(g.mdl)
	if err != nil {
		return nil, err
	}

	g.phase = PhaseExpanding
	passes := 0
	for {
		passes++
		if passes > g.cfg.MaxPasses {
			return nil, &GenError{Op: "Expand", Pass: passes,
				Cause: fmt.Errorf("%w: no fixed point within %d passes", ErrNetworkTooLarge, g.cfg.MaxPasses)}
		}
		grew, err := g.pass(dirs, passes)
		if err != nil {
			return nil, err
		}
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.RecordGenerationPass(len(g.specs), len(g.reactions))
		}
		if g.cfg.Logger != nil {
			g.cfg.Logger.Debug("expansion pass complete",
				logging.Int("pass", passes),
				logging.Int("species", len(g.specs)),
				logging.Int("reactions", len(g.reactions)))
		}
		if !grew {
			break
		}
	}
	g.phase = PhaseConverged

	net := &Network{
		ID:          uuid.New().String(),
		Model:       g.mdl.Name,
		Passes:      passes,
		Species:     g.specs,
		Abundances:  g.abund,
		Reactions:   g.reactions,
		Observables: append([]model.Observable(nil), g.mdl.Observables...),
	}
	if g.cfg.Logger != nil {
		g.cfg.Logger.Info("network generation converged",
			logging.String("network", net.ID),
			logging.Int("passes", passes),
			logging.Int("species", len(net.Species)),
			logging.Int("reactions", len(net.Reactions)),
			logging.Duration("took", time.Since(start)))
	}
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.RecordGenerationDone(time.Since(start))
	}
	return net, nil
}

// seed loads the model's initial species. Two seeds realizing isomorphic
// species is an authoring error and fails fast.
func (g *Generator) seed() error {
	g.phase = PhaseSeeding
	for _, s := range g.mdl.Seeds {
		sp, err := species.FromPattern(g.mdl.Registry, s.Pattern)
		if err != nil {
			return &GenError{Op: "Seed", Cause: err}
		}
		cf := sp.CanonicalForm()
		if _, ok := g.canon[cf]; ok {
			return &GenError{Op: "Seed", Cause: fmt.Errorf("%w: %s", ErrDuplicateSeed, cf)}
		}
		g.canon[cf] = len(g.specs)
		g.specs = append(g.specs, sp)
		g.abund = append(g.abund, s.Amount)
	}
	if g.cfg.Logger != nil {
		g.cfg.Logger.Debug("seeded initial species", logging.Int("species", len(g.specs)))
	}
	return nil
}

// pass applies every directional rule against a snapshot of the known
// species and merges the results. Rules run concurrently when configured;
// the merge is performed by this single goroutine in rule order, so
// deduplication is deterministic either way. Returns whether the network
// grew.
func (g *Generator) pass(dirs []*directional, passNo int) (bool, error) {
	snapshot := g.specs

	eventsByRule := make([][]*event, len(dirs))
	errsByRule := make([]error, len(dirs))

	if g.cfg.Workers > 1 {
		sem := make(chan struct{}, g.cfg.Workers)
		var wg sync.WaitGroup
		for i, d := range dirs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, d *directional) {
				defer wg.Done()
				defer func() { <-sem }()
				eventsByRule[i], errsByRule[i] = applyDirectional(g.mdl.Registry, d, snapshot, g.cfg.Metrics)
			}(i, d)
		}
		wg.Wait()
	} else {
		for i, d := range dirs {
			eventsByRule[i], errsByRule[i] = applyDirectional(g.mdl.Registry, d, snapshot, g.cfg.Metrics)
		}
	}

	for i, err := range errsByRule {
		if err != nil {
			return false, &GenError{Op: "Expand", Rule: dirs[i].name, Pass: passNo, Cause: err}
		}
	}

	grew := false
	for i := range dirs {
		for _, ev := range eventsByRule[i] {
			added, err := g.merge(ev)
			if err != nil {
				return false, err
			}
			if added {
				grew = true
			}
		}
	}
	return grew, nil
}

// merge folds one reaction channel into the network: products are
// deduplicated against every known species by canonical form, the reaction
// by its reactant/product multisets and rate. The rate is the directional
// base rate times the channel's embedding multiplicity; a later pass
// re-derives the same channel with the same multiplicity, so it
// deduplicates instead of accumulating. Returns whether anything new was
// added.
func (g *Generator) merge(ev *event) (bool, error) {
	added := false
	productIdx := make([]int, 0, len(ev.products))
	for _, sp := range ev.products {
		cf := sp.CanonicalForm()
		idx, ok := g.canon[cf]
		if !ok {
			if len(g.specs) >= g.cfg.MaxSpecies {
				return false, &GenError{Op: "Expand", Rule: ev.dir.name,
					Cause: fmt.Errorf("%w: species limit %d reached", ErrNetworkTooLarge, g.cfg.MaxSpecies)}
			}
			idx = len(g.specs)
			g.canon[cf] = idx
			g.specs = append(g.specs, sp)
			g.abund = append(g.abund, 0)
			added = true
			if g.cfg.Metrics != nil {
				g.cfg.Metrics.SpeciesDiscovered.Inc()
			}
		} else if g.cfg.Metrics != nil {
			g.cfg.Metrics.SpeciesDeduplicated.Inc()
		}
		productIdx = append(productIdx, idx)
	}

	rxn := &Reaction{
		Rule:      ev.dir.name,
		Reverse:   ev.dir.reverse,
		Reactants: sortedCopy(ev.reactants),
		Products:  sortedCopy(productIdx),
		Rate:      ev.dir.rate * float64(ev.mult),
	}
	key := rxn.key()
	if g.seen[key] {
		if g.cfg.Metrics != nil {
			g.cfg.Metrics.ReactionsDeduplicated.Inc()
		}
		return added, nil
	}
	g.seen[key] = true
	g.reactions = append(g.reactions, rxn)
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.ReactionsDiscovered.Inc()
	}
	return true, nil
}
