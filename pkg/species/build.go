package species

import (
	"fmt"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

// FromPattern realizes a concrete pattern as a species: every molecule is
// instantiated, labeled bonds become real reciprocal bonds, and site states
// are taken from the pattern. The pattern must be concrete (see
// Pattern.Concrete); partial patterns cannot be realized.
func FromPattern(reg *model.Registry, p model.Pattern) (*Species, error) {
	if err := p.Concrete(reg); err != nil {
		return nil, err
	}
	mols := make([]*Molecule, len(p.Mols))
	for i, mp := range p.Mols {
		mt, err := reg.Lookup(mp.Type)
		if err != nil {
			return nil, err
		}
		states := make(map[string]string)
		for site, sp := range mp.Sites {
			if sp.State != "" {
				states[site] = sp.State
			}
		}
		m, err := NewMolecule(mt, states)
		if err != nil {
			return nil, err
		}
		mols[i] = m
	}
	s := New(mols...)
	for _, pair := range p.Endpoints() {
		a, b := pair[0], pair[1]
		ra := SiteRef{Mol: a.Mol, Site: mols[a.Mol].Type.SiteIndex(a.Site)}
		rb := SiteRef{Mol: b.Mol, Site: mols[b.Mol].Type.SiteIndex(b.Site)}
		if err := s.Bind(ra, rb); err != nil {
			return nil, fmt.Errorf("realize pattern %s: %w", p, err)
		}
	}
	if comps := s.Components(); len(comps) > 1 {
		return nil, fmt.Errorf("pattern %s describes %d disconnected complexes, want 1", p, len(comps))
	}
	return s, nil
}
