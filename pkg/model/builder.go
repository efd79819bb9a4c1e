package model

import (
	"fmt"
)

// Parameter is a named rate constant or abundance value.
type Parameter struct {
	Name  string
	Value float64
}

// Seed declares an initial species: a concrete pattern plus its starting
// abundance.
type Seed struct {
	Pattern Pattern
	Amount  float64
}

// Observable names a pattern whose match count, weighted by species
// populations, is reported as a scalar readout.
type Observable struct {
	Name    string
	Pattern Pattern
}

// Model is a finalized, immutable set of declarations: molecule types,
// parameters, rules, seeds, and observables. Models are safe for concurrent
// read-only use; independent models share no state.
type Model struct {
	Name        string
	Registry    *Registry
	Parameters  []Parameter
	Rules       []*Rule
	Seeds       []Seed
	Observables []Observable

	paramValues map[string]float64
}

// Parameter returns the value of a named parameter.
func (m *Model) Parameter(name string) (float64, bool) {
	v, ok := m.paramValues[name]
	return v, ok
}

// ModelBuilder accumulates declarations and finalizes them into an immutable
// Model. Declarations fail fast: the first invalid declaration is returned
// as an error and the builder refuses to produce a partial model.
type ModelBuilder struct {
	name        string
	registry    *Registry
	params      []Parameter
	paramValues map[string]float64
	rules       []*Rule
	seeds       []Seed
	observables []Observable
	names       map[string]string // declared name -> kind, for cross-kind collisions
}

// NewModelBuilder creates an empty builder.
func NewModelBuilder(name string) *ModelBuilder {
	return &ModelBuilder{
		name:        name,
		registry:    NewRegistry(),
		paramValues: make(map[string]float64),
		names:       make(map[string]string),
	}
}

// Registry exposes the builder's molecule type registry for lookups while
// declaring.
func (b *ModelBuilder) Registry() *Registry {
	return b.registry
}

// DeclareMolecule registers a molecule type. See Registry.Declare.
func (b *ModelBuilder) DeclareMolecule(name string, sites []string, states map[string][]string) error {
	_, err := b.registry.Declare(name, sites, states)
	return err
}

// DeclareParameter registers a named value usable as a rule rate or seed
// abundance.
func (b *ModelBuilder) DeclareParameter(name string, value float64) error {
	if name == "" {
		return &ModelError{Op: "DeclareParameter", Kind: "parameter", Cause: fmt.Errorf("empty parameter name")}
	}
	if _, ok := b.paramValues[name]; ok {
		return &ModelError{Op: "DeclareParameter", Kind: "parameter", Name: name, Cause: ErrDuplicateName}
	}
	b.params = append(b.params, Parameter{Name: name, Value: value})
	b.paramValues[name] = value
	return nil
}

// AddRule declares an irreversible rule.
func (b *ModelBuilder) AddRule(name string, reactants, products []Pattern, forward string) error {
	return b.addRule(&Rule{Name: name, Reactants: reactants, Products: products, Forward: forward})
}

// AddReversibleRule declares a reversible rule with forward and reverse rate
// parameters. During generation it expands into two directional reaction
// generators sharing the same pattern pair.
func (b *ModelBuilder) AddReversibleRule(name string, reactants, products []Pattern, forward, reverse string) error {
	if reverse == "" {
		return &ModelError{Op: "AddRule", Kind: "rule", Name: name,
			Cause: fmt.Errorf("%w: reversible rule needs a reverse rate parameter", ErrMalformedRule)}
	}
	return b.addRule(&Rule{Name: name, Reactants: reactants, Products: products, Forward: forward, Reverse: reverse})
}

// AddScaledRule declares an irreversible rule whose symmetry scaling is
// fixed by the author instead of computed from pattern automorphisms.
func (b *ModelBuilder) AddScaledRule(name string, reactants, products []Pattern, forward string, scale float64) error {
	return b.addRule(&Rule{Name: name, Reactants: reactants, Products: products, Forward: forward, Scale: &scale})
}

func (b *ModelBuilder) addRule(r *Rule) error {
	if r.Name == "" {
		return &ModelError{Op: "AddRule", Kind: "rule", Cause: fmt.Errorf("empty rule name")}
	}
	if prev, ok := b.names[r.Name]; ok {
		return &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name,
			Cause: fmt.Errorf("%w (as %s)", ErrDuplicateName, prev)}
	}
	for _, p := range append(append([]Pattern(nil), r.Reactants...), r.Products...) {
		if err := p.Validate(b.registry); err != nil {
			return &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name, Cause: err}
		}
	}
	if _, ok := b.paramValues[r.Forward]; !ok {
		return &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name,
			Cause: fmt.Errorf("%w: forward rate %q", ErrUnknownParameter, r.Forward)}
	}
	if r.Reverse != "" {
		if _, ok := b.paramValues[r.Reverse]; !ok {
			return &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name,
				Cause: fmt.Errorf("%w: reverse rate %q", ErrUnknownParameter, r.Reverse)}
		}
	}

	edit, err := deriveEdit(r, b.registry)
	if err != nil {
		return err
	}
	r.Edit = edit

	if r.Reverse != "" {
		switch edit.Kind {
		case RuleBind, RuleUnbind, RuleStateChange:
			// reversible by pattern-pair swap
		default:
			return &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name,
				Cause: fmt.Errorf("%w: a %s rule cannot be reversible", ErrMalformedRule, edit.Kind)}
		}
		inv := &Rule{Name: r.Name, Reactants: r.Products, Products: r.Reactants}
		revEdit, err := deriveEdit(inv, b.registry)
		if err != nil {
			return err
		}
		r.ReverseEdit = revEdit
	}

	b.names[r.Name] = "rule"
	b.rules = append(b.rules, r)
	return nil
}

// AddSeed declares an initial species with its starting abundance. The
// pattern must be concrete (every site's bond and state fully specified).
func (b *ModelBuilder) AddSeed(p Pattern, amount float64) error {
	if amount < 0 {
		return &ModelError{Op: "AddSeed", Kind: "seed", Cause: fmt.Errorf("negative abundance %g", amount)}
	}
	if err := p.Validate(b.registry); err != nil {
		return &ModelError{Op: "AddSeed", Kind: "seed", Cause: err}
	}
	if err := p.Concrete(b.registry); err != nil {
		return &ModelError{Op: "AddSeed", Kind: "seed", Cause: err}
	}
	b.seeds = append(b.seeds, Seed{Pattern: p, Amount: amount})
	return nil
}

// AddObservable declares a named pattern readout.
func (b *ModelBuilder) AddObservable(name string, p Pattern) error {
	if name == "" {
		return &ModelError{Op: "AddObservable", Kind: "observable", Cause: fmt.Errorf("empty observable name")}
	}
	if prev, ok := b.names[name]; ok {
		return &ModelError{Op: "AddObservable", Kind: "observable", Name: name,
			Cause: fmt.Errorf("%w (as %s)", ErrDuplicateName, prev)}
	}
	if err := p.Validate(b.registry); err != nil {
		return &ModelError{Op: "AddObservable", Kind: "observable", Name: name, Cause: err}
	}
	b.names[name] = "observable"
	b.observables = append(b.observables, Observable{Name: name, Pattern: p})
	return nil
}

// Build finalizes the declarations into an immutable Model. The builder can
// keep accumulating afterwards; the returned model holds copies.
func (b *ModelBuilder) Build() (*Model, error) {
	if len(b.registry.order) == 0 {
		return nil, &ModelError{Op: "Build", Kind: "model", Name: b.name,
			Cause: fmt.Errorf("no molecule types declared")}
	}
	m := &Model{
		Name:        b.name,
		Registry:    b.registry,
		Parameters:  append([]Parameter(nil), b.params...),
		Rules:       append([]*Rule(nil), b.rules...),
		Seeds:       append([]Seed(nil), b.seeds...),
		Observables: append([]Observable(nil), b.observables...),
		paramValues: make(map[string]float64, len(b.paramValues)),
	}
	for k, v := range b.paramValues {
		m.paramValues[k] = v
	}
	return m, nil
}
