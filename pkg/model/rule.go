package model

import (
	"fmt"
)

// RuleKind classifies the structural edit a rule performs.
type RuleKind uint8

const (
	// RuleBind joins two unbound sites with a new bond
	RuleBind RuleKind = iota
	// RuleUnbind removes the bond between two sites
	RuleUnbind
	// RuleStateChange flips one or more site state labels
	RuleStateChange
	// RuleSynthesize adds newly created molecules, optionally in the
	// presence of an unchanged catalytic context
	RuleSynthesize
	// RuleDegrade removes the matched species entirely
	RuleDegrade
)

// String returns the kind's name.
func (k RuleKind) String() string {
	switch k {
	case RuleBind:
		return "bind"
	case RuleUnbind:
		return "unbind"
	case RuleStateChange:
		return "state-change"
	case RuleSynthesize:
		return "synthesize"
	case RuleDegrade:
		return "degrade"
	default:
		return "unknown"
	}
}

// SiteEndpoint identifies a site by molecule position (index into the
// flattened reactant molecule list) and site name.
type SiteEndpoint struct {
	Mol  int
	Site string
}

// StateFlip records one site state transition performed by a rule. From is
// the reactant-side constraint and may be empty when the reactant leaves the
// state unconstrained.
type StateFlip struct {
	Mol  int
	Site string
	From string
	To   string
}

// Edit is the structural transformation derived from a rule's
// reactant/product pattern pair.
type Edit struct {
	Kind  RuleKind
	A, B  SiteEndpoint // bond endpoints for RuleBind / RuleUnbind
	Flips []StateFlip  // for RuleStateChange
	Extra []Pattern    // concrete products added by RuleSynthesize
}

// Rule is an immutable transformation declaration: reactant patterns,
// product patterns, and one (irreversible) or two (reversible) rate
// parameters. The structural edit is derived once, when the model is built.
type Rule struct {
	Name      string
	Reactants []Pattern
	Products  []Pattern
	Forward   string   // forward rate parameter name
	Reverse   string   // reverse rate parameter name; empty for irreversible rules
	Scale     *float64 // authored symmetry-scaling override; nil computes from automorphisms
	Edit      Edit
	// ReverseEdit is the edit for the reverse direction of a reversible
	// rule, derived from the swapped pattern pair.
	ReverseEdit Edit
}

// Reversible reports whether the rule carries a reverse rate.
func (r *Rule) Reversible() bool {
	return r.Reverse != ""
}

// flatten concatenates the molecule patterns of a pattern list, returning
// for each molecule its owning pattern index and its site constraints with
// labeled bonds rewritten to flattened endpoints.
type flatMol struct {
	pattern int
	mol     MolPattern
	// bonds maps site name -> flattened partner endpoint for labeled bonds
	bonds map[string]SiteEndpoint
}

func flatten(patterns []Pattern) []flatMol {
	var out []flatMol
	base := 0
	for pi, p := range patterns {
		for mi, mp := range p.Mols {
			fm := flatMol{pattern: pi, mol: mp, bonds: make(map[string]SiteEndpoint)}
			for site, sp := range mp.Sites {
				if sp.Bond != BondLabeled {
					continue
				}
				pj, psite, ok := p.bondPartner(sp.Label, mi, site)
				if !ok {
					continue
				}
				fm.bonds[site] = SiteEndpoint{Mol: base + pj, Site: psite}
			}
			out = append(out, fm)
		}
		base += len(p.Mols)
	}
	return out
}

// sitesEqual reports whether a site carries the same constraint in two
// flattened molecules, treating labeled bonds as equal when they pair the
// same flattened endpoints.
func sitesEqual(a, b flatMol, site string) bool {
	sa, sb := a.mol.Sites[site], b.mol.Sites[site]
	if sa.State != sb.State {
		return false
	}
	if sa.Bond != sb.Bond {
		return false
	}
	if sa.Bond == BondLabeled {
		return a.bonds[site] == b.bonds[site]
	}
	return true
}

// deriveEdit classifies the rule's structural transformation by diffing its
// flattened reactant and product molecule lists. Molecules correspond
// positionally, in the manner of rule-based model descriptions: product
// molecules are the reactant molecules in order, with at most one bond
// formed or broken, or one or more states flipped, or trailing fully
// concrete molecules appended. Anything else fails with ErrMalformedRule.
func deriveEdit(r *Rule, reg *Registry) (Edit, error) {
	malformed := func(format string, args ...any) (Edit, error) {
		return Edit{}, &ModelError{Op: "AddRule", Kind: "rule", Name: r.Name,
			Cause: fmt.Errorf("%w: %s", ErrMalformedRule, fmt.Sprintf(format, args...))}
	}

	// Degradation: matched species removed, nothing produced.
	if len(r.Products) == 0 {
		if len(r.Reactants) == 0 {
			return malformed("no reactants and no products")
		}
		return Edit{Kind: RuleDegrade}, nil
	}

	// Zero-order synthesis: products appear from nothing.
	if len(r.Reactants) == 0 {
		for _, p := range r.Products {
			if err := p.Concrete(reg); err != nil {
				return malformed("synthesized product %s: %v", p, err)
			}
		}
		return Edit{Kind: RuleSynthesize, Extra: r.Products}, nil
	}

	rm := flatten(r.Reactants)
	pm := flatten(r.Products)

	if len(pm) < len(rm) {
		return malformed("product side drops %d molecule(s); deletion inside a complex is not expressible", len(rm)-len(pm))
	}

	// Catalytic synthesis: reactant molecules unchanged, extra concrete
	// products appended.
	if len(pm) > len(rm) {
		for i := range rm {
			if rm[i].mol.Type != pm[i].mol.Type {
				return malformed("molecule %d changes type %s -> %s", i, rm[i].mol.Type, pm[i].mol.Type)
			}
			for site := range mergedSites(rm[i], pm[i]) {
				if !sitesEqual(rm[i], pm[i], site) {
					return malformed("molecule %d site %s changes alongside molecule synthesis", i, site)
				}
			}
		}
		extraFrom := -1
		base := 0
		for pi, p := range r.Products {
			if base >= len(rm) {
				extraFrom = pi
				break
			}
			base += len(p.Mols)
		}
		if extraFrom < 0 || base != len(rm) {
			return malformed("synthesized molecules must form their own product pattern(s)")
		}
		extra := r.Products[extraFrom:]
		for _, p := range extra {
			if err := p.Concrete(reg); err != nil {
				return malformed("synthesized product %s: %v", p, err)
			}
		}
		return Edit{Kind: RuleSynthesize, Extra: extra}, nil
	}

	// Same molecule count: bind, unbind, or state change.
	var bonds, states []SiteEndpoint
	var flips []StateFlip
	for i := range rm {
		if rm[i].mol.Type != pm[i].mol.Type {
			return malformed("molecule %d changes type %s -> %s", i, rm[i].mol.Type, pm[i].mol.Type)
		}
		for site := range mergedSites(rm[i], pm[i]) {
			if sitesEqual(rm[i], pm[i], site) {
				continue
			}
			sr, sp := rm[i].mol.Sites[site], pm[i].mol.Sites[site]
			if sr.Bond != sp.Bond || (sr.Bond == BondLabeled && rm[i].bonds[site] != pm[i].bonds[site]) {
				bonds = append(bonds, SiteEndpoint{Mol: i, Site: site})
			}
			if sr.State != sp.State {
				states = append(states, SiteEndpoint{Mol: i, Site: site})
				flips = append(flips, StateFlip{Mol: i, Site: site, From: sr.State, To: sp.State})
			}
		}
	}

	switch {
	case len(bonds) == 0 && len(flips) > 0:
		for _, f := range flips {
			if f.To == "" {
				return malformed("site %d.%s loses its state constraint on the product side", f.Mol, f.Site)
			}
		}
		return Edit{Kind: RuleStateChange, Flips: flips}, nil

	case len(bonds) == 2 && len(flips) == 0:
		a, b := bonds[0], bonds[1]
		ra, rb := rm[a.Mol].mol.Sites[a.Site], rm[b.Mol].mol.Sites[b.Site]
		pa, pb := pm[a.Mol].mol.Sites[a.Site], pm[b.Mol].mol.Sites[b.Site]
		// Bind: both sites free before, bonded to each other after.
		if ra.Bond == BondNone && rb.Bond == BondNone &&
			pa.Bond == BondLabeled && pb.Bond == BondLabeled &&
			pm[a.Mol].bonds[a.Site] == (SiteEndpoint{Mol: b.Mol, Site: b.Site}) {
			return Edit{Kind: RuleBind, A: a, B: b}, nil
		}
		// Unbind: bonded to each other before, free after.
		if ra.Bond == BondLabeled && rb.Bond == BondLabeled &&
			rm[a.Mol].bonds[a.Site] == (SiteEndpoint{Mol: b.Mol, Site: b.Site}) &&
			pa.Bond == BondNone && pb.Bond == BondNone {
			return Edit{Kind: RuleUnbind, A: a, B: b}, nil
		}
		return malformed("bond change between %d.%s and %d.%s is neither a bind nor an unbind", a.Mol, a.Site, b.Mol, b.Site)

	case len(bonds) == 0 && len(flips) == 0:
		return malformed("reactant and product sides are identical")

	default:
		return malformed("edit touches %d bond site(s) and %d state site(s); only a single bind/unbind or a pure state change is expressible", len(bonds), len(flips))
	}
}

// mergedSites returns the union of site names constrained on either side.
func mergedSites(a, b flatMol) map[string]struct{} {
	out := make(map[string]struct{}, len(a.mol.Sites)+len(b.mol.Sites))
	for s := range a.mol.Sites {
		out[s] = struct{}{}
	}
	for s := range b.mol.Sites {
		out[s] = struct{}{}
	}
	return out
}
