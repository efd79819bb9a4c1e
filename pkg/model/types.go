package model

import (
	"fmt"
	"sort"
)

// MoleculeType describes a kind of molecule: its name, the ordered list of
// binding/state sites it carries, and the enumerated state labels allowed on
// each stateful site. Immutable once declared through a Registry.
type MoleculeType struct {
	Name   string
	Sites  []string
	States map[string][]string // site name -> allowed state labels

	siteIndex map[string]int
}

// SiteIndex returns the position of a site within the type's site list,
// or -1 if the site is not declared.
func (mt *MoleculeType) SiteIndex(site string) int {
	if idx, ok := mt.siteIndex[site]; ok {
		return idx
	}
	return -1
}

// HasSite reports whether the type declares the named site.
func (mt *MoleculeType) HasSite(site string) bool {
	return mt.SiteIndex(site) >= 0
}

// Stateful reports whether the named site carries a state enumeration.
func (mt *MoleculeType) Stateful(site string) bool {
	_, ok := mt.States[site]
	return ok
}

// AllowsState reports whether the given state label is allowed on the site.
func (mt *MoleculeType) AllowsState(site, state string) bool {
	for _, s := range mt.States[site] {
		if s == state {
			return true
		}
	}
	return false
}

// Registry holds the molecule types declared for one model. Lookup is by
// unique type name. A Registry is append-only: types cannot be redeclared
// or removed.
type Registry struct {
	types map[string]*MoleculeType
	order []string
}

// NewRegistry creates an empty molecule type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*MoleculeType)}
}

// Declare registers a molecule type with the given site list and optional
// per-site state enumerations. It fails with ErrDuplicateType if the name is
// already registered, and with ErrInvalidSite if a site name is repeated, a
// state enumeration names an undeclared site, or an enumeration has fewer
// than two labels (a single-valued state carries no information).
func (r *Registry) Declare(name string, sites []string, states map[string][]string) (*MoleculeType, error) {
	if name == "" {
		return nil, &ModelError{Op: "Declare", Kind: "molecule type", Cause: fmt.Errorf("empty type name")}
	}
	if _, ok := r.types[name]; ok {
		return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name, Cause: ErrDuplicateType}
	}

	seen := make(map[string]bool, len(sites))
	for _, s := range sites {
		if s == "" {
			return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name,
				Cause: fmt.Errorf("%w: empty site name", ErrInvalidSite)}
		}
		if seen[s] {
			return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name,
				Cause: fmt.Errorf("%w: site %q repeated", ErrInvalidSite, s)}
		}
		seen[s] = true
	}

	mt := &MoleculeType{
		Name:      name,
		Sites:     append([]string(nil), sites...),
		States:    make(map[string][]string, len(states)),
		siteIndex: make(map[string]int, len(sites)),
	}
	for i, s := range mt.Sites {
		mt.siteIndex[s] = i
	}

	for site, labels := range states {
		if !seen[site] {
			return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name,
				Cause: fmt.Errorf("%w: state enumeration for undeclared site %q", ErrInvalidSite, site)}
		}
		if len(labels) < 2 {
			return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name,
				Cause: fmt.Errorf("%w: site %q needs at least two state labels, got %d", ErrInvalidSite, site, len(labels))}
		}
		labelSeen := make(map[string]bool, len(labels))
		for _, l := range labels {
			if labelSeen[l] {
				return nil, &ModelError{Op: "Declare", Kind: "molecule type", Name: name,
					Cause: fmt.Errorf("%w: site %q repeats state label %q", ErrInvalidSite, site, l)}
			}
			labelSeen[l] = true
		}
		mt.States[site] = append([]string(nil), labels...)
	}

	r.types[name] = mt
	r.order = append(r.order, name)
	return mt, nil
}

// Lookup returns the declared type descriptor for the given name, or
// ErrUnknownType if no such type was declared.
func (r *Registry) Lookup(name string) (*MoleculeType, error) {
	mt, ok := r.types[name]
	if !ok {
		return nil, &ModelError{Op: "Lookup", Kind: "molecule type", Name: name, Cause: ErrUnknownType}
	}
	return mt, nil
}

// Types returns all declared types in declaration order.
func (r *Registry) Types() []*MoleculeType {
	out := make([]*MoleculeType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Names returns the sorted list of declared type names.
func (r *Registry) Names() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}
