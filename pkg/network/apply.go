package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-rxnet/pkg/match"
	"github.com/dd0wney/cluso-rxnet/pkg/metrics"
	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/species"
)

// directional is one reaction generator: the forward or reverse direction
// of a declared rule, with its patterns, derived edit, and base rate per
// embedding.
type directional struct {
	name      string // rule name
	reverse   bool
	reactants []model.Pattern
	edit      model.Edit
	rate      float64
}

// expandRules turns the model's rules into directional generators, dividing
// each forward rate by its symmetry factor. A reversible rule contributes
// two directions sharing the same pattern pair.
func expandRules(m *model.Model) ([]*directional, error) {
	var out []*directional
	for _, r := range m.Rules {
		kf, ok := m.Parameter(r.Forward)
		if !ok {
			return nil, &GenError{Op: "Expand", Rule: r.Name,
				Cause: fmt.Errorf("%w: %q", model.ErrUnknownParameter, r.Forward)}
		}
		out = append(out, &directional{
			name:      r.Name,
			reactants: r.Reactants,
			edit:      r.Edit,
			rate:      correctedRate(kf, symmetryFactor(r)),
		})
		if r.Reversible() {
			kr, ok := m.Parameter(r.Reverse)
			if !ok {
				return nil, &GenError{Op: "Expand", Rule: r.Name,
					Cause: fmt.Errorf("%w: %q", model.ErrUnknownParameter, r.Reverse)}
			}
			// The reverse base rate stays uncorrected: its statistical
			// factor is the embedding multiplicity of the product pattern
			// in the dissociating species.
			out = append(out, &directional{
				name:      r.Name,
				reverse:   true,
				reactants: r.Products,
				edit:      r.ReverseEdit,
				rate:      kr,
			})
		}
	}
	return out, nil
}

// event is one reaction channel discovered during a pass: the snapshot
// indices of the consumed species, the concrete product species, and the
// number of embeddings that produced this outcome from this tuple. Not yet
// deduplicated.
type event struct {
	dir       *directional
	reactants []int
	products  []*species.Species
	mult      int
}

// applyDirectional finds every firing of one directional rule against a
// snapshot of the known species. Species combinations are drawn with
// repetition, since a rule can consume two copies of the same species; each
// copy is cloned into the reaction mixture, so embeddings never overlap.
// A rule that matches nothing contributes no events, which is a normal
// outcome.
func applyDirectional(reg *model.Registry, d *directional, snapshot []*species.Species, met *metrics.Registry) ([]*event, error) {
	// Zero-order synthesis fires unconditionally, once.
	if len(d.reactants) == 0 {
		products, err := realizeExtra(reg, d.edit.Extra)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		return []*event{{dir: d, products: products, mult: 1}}, nil
	}

	// Per-pattern embeddings into each snapshot species, computed once.
	embeddings := make([][][]match.Binding, len(d.reactants))
	for pi, p := range d.reactants {
		embeddings[pi] = make([][]match.Binding, len(snapshot))
		for si, sp := range snapshot {
			embeddings[pi][si] = match.Match(p, sp)
			if met != nil {
				met.RecordMatch(len(embeddings[pi][si]))
			}
		}
	}

	var events []*event
	tuple := make([]int, len(d.reactants))
	var walk func(pos int) error
	walk = func(pos int) error {
		if pos == len(d.reactants) {
			perPos := make([][]match.Binding, len(tuple))
			for p, si := range tuple {
				perPos[p] = embeddings[p][si]
			}
			evts, err := fire(reg, d, snapshot, tuple, perPos)
			if err != nil {
				return err
			}
			events = append(events, evts...)
			return nil
		}
		for si := range snapshot {
			if len(embeddings[pos][si]) == 0 {
				continue
			}
			tuple[pos] = si
			if err := walk(pos + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return events, nil
}

// fire instantiates every embedding combination of the rule's patterns into
// the chosen species tuple and applies the structural edit to a cloned
// reaction mixture, preserving all context the patterns do not mention.
func fire(reg *model.Registry, d *directional, snapshot []*species.Species, tuple []int, perPos [][]match.Binding) ([]*event, error) {
	// Offsets of each reactant copy within the mixture.
	offsets := make([]int, len(tuple))
	total := 0
	for pos, si := range tuple {
		offsets[pos] = total
		total += snapshot[si].Size()
	}

	var events []*event
	combo := make([]match.Binding, len(tuple))
	var walk func(pos int) error
	walk = func(pos int) error {
		if pos == len(tuple) {
			ev, err := instantiate(reg, d, snapshot, tuple, offsets, combo)
			if err != nil {
				return err
			}
			if ev != nil {
				events = append(events, ev)
			}
			return nil
		}
		for _, b := range perPos[pos] {
			combo[pos] = b
			if err := walk(pos + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return collapseOutcomes(events), nil
}

// collapseOutcomes folds embeddings that yield the same products into one
// event carrying the multiplicity: two interchangeable firings are one
// reaction channel running at twice the base rate, not two reactions.
// Events from one tuple share their reactants, so the product multiset
// alone identifies the outcome.
func collapseOutcomes(events []*event) []*event {
	if len(events) <= 1 {
		for _, ev := range events {
			ev.mult = 1
		}
		return events
	}
	byOutcome := make(map[string]*event, len(events))
	out := events[:0]
	for _, ev := range events {
		key := ev.outcomeKey()
		if prev, ok := byOutcome[key]; ok {
			prev.mult++
			continue
		}
		ev.mult = 1
		byOutcome[key] = ev
		out = append(out, ev)
	}
	return out
}

func (ev *event) outcomeKey() string {
	forms := make([]string, len(ev.products))
	for i, sp := range ev.products {
		forms[i] = sp.CanonicalForm()
	}
	sort.Strings(forms)
	return strings.Join(forms, "|")
}

func instantiate(reg *model.Registry, d *directional, snapshot []*species.Species, tuple, offsets []int, combo []match.Binding) (*event, error) {
	if d.edit.Kind == model.RuleDegrade {
		return &event{dir: d, reactants: append([]int(nil), tuple...)}, nil
	}

	// Build the reaction mixture: one clone of each consumed species,
	// concatenated. Everything the patterns do not mention rides along
	// untouched.
	var mols []*species.Molecule
	for _, si := range tuple {
		mols = append(mols, snapshot[si].Clone().Mols...)
	}
	mixture := species.New(mols...)
	// Bond partners inside each clone still use per-species indices;
	// shift them to mixture indices.
	for pos := range tuple {
		base := offsets[pos]
		size := snapshot[tuple[pos]].Size()
		for mi := base; mi < base+size; mi++ {
			for si2, p := range mixture.Mols[mi].Partners {
				if p.Mol >= 0 {
					mixture.Mols[mi].Partners[si2] = species.SiteRef{Mol: p.Mol + base, Site: p.Site}
				}
			}
		}
	}

	// resolve maps a flattened pattern endpoint to a mixture site.
	resolve := func(ep model.SiteEndpoint) (species.SiteRef, error) {
		pos, local := 0, ep.Mol
		for ; pos < len(d.reactants); pos++ {
			if local < len(d.reactants[pos].Mols) {
				break
			}
			local -= len(d.reactants[pos].Mols)
		}
		if pos == len(d.reactants) {
			return species.SiteRef{}, fmt.Errorf("endpoint %v outside reactant patterns", ep)
		}
		mixMol := offsets[pos] + combo[pos].Mols[local]
		siteIdx := mixture.Mols[mixMol].Type.SiteIndex(ep.Site)
		if siteIdx < 0 {
			return species.SiteRef{}, fmt.Errorf("type %s has no site %q", mixture.Mols[mixMol].Type.Name, ep.Site)
		}
		return species.SiteRef{Mol: mixMol, Site: siteIdx}, nil
	}

	switch d.edit.Kind {
	case model.RuleBind:
		a, err := resolve(d.edit.A)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		b, err := resolve(d.edit.B)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		if err := mixture.Bind(a, b); err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
	case model.RuleUnbind:
		a, err := resolve(d.edit.A)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		b, err := resolve(d.edit.B)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		if err := mixture.Unbind(a, b); err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
	case model.RuleStateChange:
		for _, f := range d.edit.Flips {
			ref, err := resolve(model.SiteEndpoint{Mol: f.Mol, Site: f.Site})
			if err != nil {
				return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
			}
			if err := mixture.SetState(ref, f.To); err != nil {
				return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
			}
		}
	case model.RuleSynthesize:
		// Catalytic synthesis: context untouched, extra species appear.
	default:
		return nil, &GenError{Op: "Apply", Rule: d.name,
			Cause: fmt.Errorf("unsupported edit kind %s", d.edit.Kind)}
	}

	products := mixture.Components()
	if d.edit.Kind == model.RuleSynthesize {
		extra, err := realizeExtra(reg, d.edit.Extra)
		if err != nil {
			return nil, &GenError{Op: "Apply", Rule: d.name, Cause: err}
		}
		products = append(products, extra...)
	}
	return &event{dir: d, reactants: append([]int(nil), tuple...), products: products}, nil
}

func realizeExtra(reg *model.Registry, extra []model.Pattern) ([]*species.Species, error) {
	out := make([]*species.Species, 0, len(extra))
	for _, p := range extra {
		sp, err := species.FromPattern(reg, p)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}
