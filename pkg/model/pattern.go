package model

import (
	"fmt"
	"sort"
	"strings"
)

// BondConstraint describes what a pattern requires of a site's bond.
type BondConstraint uint8

const (
	// BondUnspecified places no constraint on the site's bond
	BondUnspecified BondConstraint = iota
	// BondNone requires the site to be unbound
	BondNone
	// BondAny requires the site to be bound, to anything
	BondAny
	// BondLabeled requires the site to be bound to the site carrying the
	// same label elsewhere in the pattern
	BondLabeled
)

// SitePattern constrains a single site of a pattern molecule. The zero value
// is fully unconstrained.
type SitePattern struct {
	Bond  BondConstraint
	Label int    // bond label when Bond == BondLabeled
	State string // required state label; empty means unconstrained
}

// MolPattern is one molecule position within a pattern: a type name plus
// constraints on a subset of its sites. Sites not mentioned are
// unconstrained.
type MolPattern struct {
	Type  string
	Sites map[string]SitePattern
}

// Pattern is a partial specification of a connected complex: one or more
// molecule positions, with numbered bond labels pairing sites that must be
// bound to each other.
type Pattern struct {
	Mols []MolPattern
}

// Mol starts a molecule pattern for the named type with no site constraints.
func Mol(typeName string) MolPattern {
	return MolPattern{Type: typeName, Sites: make(map[string]SitePattern)}
}

func (m MolPattern) with(site string, sp SitePattern) MolPattern {
	sites := make(map[string]SitePattern, len(m.Sites)+1)
	for k, v := range m.Sites {
		sites[k] = v
	}
	prev := sites[site]
	if sp.State == "" {
		sp.State = prev.State
	}
	if sp.Bond == BondUnspecified {
		sp.Bond = prev.Bond
		sp.Label = prev.Label
	}
	sites[site] = sp
	return MolPattern{Type: m.Type, Sites: sites}
}

// Free constrains the given sites to be unbound.
func (m MolPattern) Free(sites ...string) MolPattern {
	for _, s := range sites {
		m = m.with(s, SitePattern{Bond: BondNone})
	}
	return m
}

// BoundAny constrains the given sites to be bound, to any partner.
func (m MolPattern) BoundAny(sites ...string) MolPattern {
	for _, s := range sites {
		m = m.with(s, SitePattern{Bond: BondAny})
	}
	return m
}

// Bond constrains the site to be bound to the site carrying the same label
// elsewhere in the enclosing pattern.
func (m MolPattern) Bond(site string, label int) MolPattern {
	return m.with(site, SitePattern{Bond: BondLabeled, Label: label})
}

// State constrains the site to carry the given state label.
func (m MolPattern) State(site, label string) MolPattern {
	return m.with(site, SitePattern{State: label})
}

// Complex assembles molecule patterns into a Pattern.
func Complex(mols ...MolPattern) Pattern {
	return Pattern{Mols: mols}
}

// Size returns the number of molecule positions in the pattern.
func (p Pattern) Size() int {
	return len(p.Mols)
}

// Validate checks the pattern against the registry: every type is declared,
// every constrained site exists on its type, state constraints name allowed
// labels on stateful sites, and every bond label appears on exactly two
// sites.
func (p Pattern) Validate(reg *Registry) error {
	labelUses := make(map[int]int)
	for _, mp := range p.Mols {
		mt, err := reg.Lookup(mp.Type)
		if err != nil {
			return err
		}
		for site, sp := range mp.Sites {
			if !mt.HasSite(site) {
				return fmt.Errorf("%w: type %s has no site %q", ErrInvalidSite, mp.Type, site)
			}
			if sp.State != "" {
				if !mt.Stateful(site) {
					return fmt.Errorf("%w: site %s.%s carries no state", ErrInvalidSite, mp.Type, site)
				}
				if !mt.AllowsState(site, sp.State) {
					return fmt.Errorf("%w: site %s.%s has no state label %q", ErrInvalidSite, mp.Type, site, sp.State)
				}
			}
			if sp.Bond == BondLabeled {
				if sp.Label <= 0 {
					return fmt.Errorf("%w: bond label on %s.%s must be positive", ErrInvalidSite, mp.Type, site)
				}
				labelUses[sp.Label]++
			}
		}
	}
	for label, n := range labelUses {
		if n != 2 {
			return fmt.Errorf("%w: bond label %d used %d times, want 2", ErrInvalidSite, label, n)
		}
	}
	return nil
}

// Concrete checks that the pattern fully specifies a species: every site of
// every molecule carries a definite bond (unbound or labeled) and every
// stateful site carries a state. Seed patterns and synthesized products must
// be concrete.
func (p Pattern) Concrete(reg *Registry) error {
	for _, mp := range p.Mols {
		mt, err := reg.Lookup(mp.Type)
		if err != nil {
			return err
		}
		for _, site := range mt.Sites {
			sp := mp.Sites[site]
			if sp.Bond != BondNone && sp.Bond != BondLabeled {
				return fmt.Errorf("%w: %s.%s has no definite bond", ErrIncompletePattern, mp.Type, site)
			}
			if mt.Stateful(site) && sp.State == "" {
				return fmt.Errorf("%w: %s.%s has no state", ErrIncompletePattern, mp.Type, site)
			}
		}
	}
	return nil
}

// bondPartner returns the (molecule, site) endpoint paired with the given
// label, excluding the endpoint at (skipMol, skipSite). Second return is
// false if no other endpoint carries the label.
func (p Pattern) bondPartner(label, skipMol int, skipSite string) (int, string, bool) {
	for i, mp := range p.Mols {
		for site, sp := range mp.Sites {
			if i == skipMol && site == skipSite {
				continue
			}
			if sp.Bond == BondLabeled && sp.Label == label {
				return i, site, true
			}
		}
	}
	return 0, "", false
}

// Endpoints returns the labeled bond endpoints of the pattern as pairs of
// (molecule index, site name), one pair per label, ordered by label.
func (p Pattern) Endpoints() [][2]SiteEndpoint {
	byLabel := make(map[int][]SiteEndpoint)
	labels := make([]int, 0)
	for i, mp := range p.Mols {
		for site, sp := range mp.Sites {
			if sp.Bond == BondLabeled {
				if _, ok := byLabel[sp.Label]; !ok {
					labels = append(labels, sp.Label)
				}
				byLabel[sp.Label] = append(byLabel[sp.Label], SiteEndpoint{Mol: i, Site: site})
			}
		}
	}
	sort.Ints(labels)
	out := make([][2]SiteEndpoint, 0, len(labels))
	for _, l := range labels {
		eps := byLabel[l]
		if len(eps) != 2 {
			continue
		}
		// Deterministic endpoint order
		if eps[1].Mol < eps[0].Mol || (eps[1].Mol == eps[0].Mol && eps[1].Site < eps[0].Site) {
			eps[0], eps[1] = eps[1], eps[0]
		}
		out = append(out, [2]SiteEndpoint{eps[0], eps[1]})
	}
	return out
}

// String renders the pattern in a compact text form, e.g.
// "CD95(blig!1,bDD).Fas(blig!1)". Free sites render bare, bound-to-any as
// "site!+", unconstrained mentioned sites as "site!?", states as
// "site~label".
func (p Pattern) String() string {
	parts := make([]string, 0, len(p.Mols))
	for _, mp := range p.Mols {
		sites := make([]string, 0, len(mp.Sites))
		names := make([]string, 0, len(mp.Sites))
		for site := range mp.Sites {
			names = append(names, site)
		}
		sort.Strings(names)
		for _, site := range names {
			sp := mp.Sites[site]
			s := site
			switch sp.Bond {
			case BondNone:
				// bare
			case BondAny:
				s += "!+"
			case BondLabeled:
				s += fmt.Sprintf("!%d", sp.Label)
			case BondUnspecified:
				if sp.State == "" {
					s += "!?"
				}
			}
			if sp.State != "" {
				s += "~" + sp.State
			}
			sites = append(sites, s)
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", mp.Type, strings.Join(sites, ",")))
	}
	return strings.Join(parts, ".")
}
