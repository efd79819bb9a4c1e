// Package observe evaluates named pattern observables against species
// populations: the readout of an observable is the sum, over every species
// its pattern embeds into, of the embedding count times the species'
// current population. Evaluation is stateless and re-run per time point.
package observe

import (
	"fmt"

	"github.com/dd0wney/cluso-rxnet/pkg/match"
	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/network"
	"github.com/dd0wney/cluso-rxnet/pkg/species"
)

// Evaluator precomputes, per observable, the embedding count into every
// network species, so repeated evaluation along a trajectory is a dot
// product.
type Evaluator struct {
	net     *network.Network
	weights map[string][]int // observable name -> per-species embedding counts
	order   []string
}

// NewEvaluator prepares the network's observables for evaluation.
func NewEvaluator(net *network.Network) *Evaluator {
	e := &Evaluator{
		net:     net,
		weights: make(map[string][]int, len(net.Observables)),
	}
	for _, obs := range net.Observables {
		w := make([]int, len(net.Species))
		for i, sp := range net.Species {
			w[i] = match.Count(obs.Pattern, sp)
		}
		e.weights[obs.Name] = w
		e.order = append(e.order, obs.Name)
	}
	return e
}

// Names returns the observable names in declaration order.
func (e *Evaluator) Names() []string {
	return append([]string(nil), e.order...)
}

// Coefficients returns the per-species embedding counts of the named
// observable, aligned with the network's species order. An external solver
// reports the observable as the dot product of these coefficients with the
// species populations.
func (e *Evaluator) Coefficients(name string) ([]int, error) {
	w, ok := e.weights[name]
	if !ok {
		return nil, fmt.Errorf("no observable %q", name)
	}
	return append([]int(nil), w...), nil
}

// Evaluate computes the observable's value for one population vector,
// indexed like the network's species list.
func (e *Evaluator) Evaluate(name string, populations []float64) (float64, error) {
	w, ok := e.weights[name]
	if !ok {
		return 0, fmt.Errorf("no observable %q", name)
	}
	if len(populations) != len(w) {
		return 0, fmt.Errorf("population vector has %d entries, network has %d species", len(populations), len(w))
	}
	total := 0.0
	for i, n := range w {
		if n != 0 {
			total += float64(n) * populations[i]
		}
	}
	return total, nil
}

// EvaluateAll computes every observable for one population vector, keyed by
// observable name.
func (e *Evaluator) EvaluateAll(populations []float64) (map[string]float64, error) {
	out := make(map[string]float64, len(e.order))
	for _, name := range e.order {
		v, err := e.Evaluate(name, populations)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Value evaluates one observable pattern against an explicit species list
// and population vector without building an Evaluator, for one-off use.
func Value(obs model.Observable, specs []*species.Species, populations []float64) (float64, error) {
	if len(specs) != len(populations) {
		return 0, fmt.Errorf("population vector has %d entries for %d species", len(populations), len(specs))
	}
	total := 0.0
	for i, sp := range specs {
		if n := match.Count(obs.Pattern, sp); n != 0 {
			total += float64(n) * populations[i]
		}
	}
	return total, nil
}
