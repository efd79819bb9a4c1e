// Package species represents concrete molecular complexes: typed molecule
// instances joined by site-to-site bonds, with discrete site states. A
// Species is a maximal connected bond graph; identity between species is
// graph isomorphism, decided through a canonical labeling.
package species

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

// SiteRef addresses one site of one molecule within a species.
type SiteRef struct {
	Mol  int // molecule index within the species
	Site int // site index within the molecule's type
}

// unbound marks a site with no bond partner.
var unbound = SiteRef{Mol: -1, Site: -1}

// Molecule is a concrete instance of a molecule type: one bond slot and one
// optional state label per declared site.
type Molecule struct {
	Type     *model.MoleculeType
	Partners []SiteRef // per site; unbound if Mol < 0
	States   []string  // per site; "" for stateless sites
}

// NewMolecule creates an instance of the given type with every site unbound
// and stateful sites set to the given labels (keyed by site name).
func NewMolecule(mt *model.MoleculeType, states map[string]string) (*Molecule, error) {
	m := &Molecule{
		Type:     mt,
		Partners: make([]SiteRef, len(mt.Sites)),
		States:   make([]string, len(mt.Sites)),
	}
	for i := range m.Partners {
		m.Partners[i] = unbound
	}
	for site, label := range states {
		idx := mt.SiteIndex(site)
		if idx < 0 {
			return nil, fmt.Errorf("%w: type %s has no site %q", model.ErrInvalidSite, mt.Name, site)
		}
		if !mt.AllowsState(site, label) {
			return nil, fmt.Errorf("%w: site %s.%s has no state label %q", model.ErrInvalidSite, mt.Name, site, label)
		}
		m.States[idx] = label
	}
	for _, site := range mt.Sites {
		if mt.Stateful(site) && m.States[mt.SiteIndex(site)] == "" {
			return nil, fmt.Errorf("%w: site %s.%s needs a state label", model.ErrInvalidSite, mt.Name, site)
		}
	}
	return m, nil
}

// Bound reports whether the site at index i carries a bond.
func (m *Molecule) Bound(i int) bool {
	return m.Partners[i].Mol >= 0
}

// clone returns a deep copy of the molecule.
func (m *Molecule) clone() *Molecule {
	return &Molecule{
		Type:     m.Type,
		Partners: append([]SiteRef(nil), m.Partners...),
		States:   append([]string(nil), m.States...),
	}
}

// Species is a connected complex of molecule instances. Once a species has
// been handed to a network it must be treated as immutable; mutation
// methods exist for construction and for rule application on clones.
type Species struct {
	Mols []*Molecule

	canon string // cached canonical form; cleared on mutation
}

// New creates a species from the given molecules. The caller is responsible
// for connectivity; use Components to split an arbitrary bond graph into
// proper species.
func New(mols ...*Molecule) *Species {
	return &Species{Mols: mols}
}

// Size returns the number of molecule instances.
func (s *Species) Size() int {
	return len(s.Mols)
}

// Clone returns a deep copy sharing only the immutable type descriptors.
func (s *Species) Clone() *Species {
	mols := make([]*Molecule, len(s.Mols))
	for i, m := range s.Mols {
		mols[i] = m.clone()
	}
	return &Species{Mols: mols}
}

// Bind joins two unbound sites. Bonds are reciprocal: both sites record the
// partner.
func (s *Species) Bind(a, b SiteRef) error {
	if err := s.checkRef(a); err != nil {
		return err
	}
	if err := s.checkRef(b); err != nil {
		return err
	}
	if s.Mols[a.Mol].Bound(a.Site) || s.Mols[b.Mol].Bound(b.Site) {
		return fmt.Errorf("bind %v-%v: site already bound", a, b)
	}
	if a == b {
		return fmt.Errorf("bind %v-%v: site cannot bond itself", a, b)
	}
	s.Mols[a.Mol].Partners[a.Site] = b
	s.Mols[b.Mol].Partners[b.Site] = a
	s.canon = ""
	return nil
}

// Unbind removes the bond between two sites. The sites must be bound to
// each other.
func (s *Species) Unbind(a, b SiteRef) error {
	if err := s.checkRef(a); err != nil {
		return err
	}
	if err := s.checkRef(b); err != nil {
		return err
	}
	if s.Mols[a.Mol].Partners[a.Site] != b || s.Mols[b.Mol].Partners[b.Site] != a {
		return fmt.Errorf("unbind %v-%v: sites are not bound to each other", a, b)
	}
	s.Mols[a.Mol].Partners[a.Site] = unbound
	s.Mols[b.Mol].Partners[b.Site] = unbound
	s.canon = ""
	return nil
}

// SetState sets the state label of a site.
func (s *Species) SetState(ref SiteRef, label string) error {
	if err := s.checkRef(ref); err != nil {
		return err
	}
	mt := s.Mols[ref.Mol].Type
	site := mt.Sites[ref.Site]
	if !mt.AllowsState(site, label) {
		return fmt.Errorf("%w: site %s.%s has no state label %q", model.ErrInvalidSite, mt.Name, site, label)
	}
	s.Mols[ref.Mol].States[ref.Site] = label
	s.canon = ""
	return nil
}

func (s *Species) checkRef(ref SiteRef) error {
	if ref.Mol < 0 || ref.Mol >= len(s.Mols) {
		return fmt.Errorf("molecule index %d out of range [0,%d)", ref.Mol, len(s.Mols))
	}
	if ref.Site < 0 || ref.Site >= len(s.Mols[ref.Mol].Partners) {
		return fmt.Errorf("site index %d out of range for type %s", ref.Site, s.Mols[ref.Mol].Type.Name)
	}
	return nil
}

// Components splits the species' bond graph into its connected components,
// each returned as an independent species with remapped bond partners. A
// fully connected species returns a single-element slice (a fresh copy).
func (s *Species) Components() []*Species {
	n := len(s.Mols)
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	var order [][]int
	for i := 0; i < n; i++ {
		if comp[i] >= 0 {
			continue
		}
		id := len(order)
		queue := []int{i}
		comp[i] = id
		var members []int
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, p := range s.Mols[cur].Partners {
				if p.Mol >= 0 && comp[p.Mol] < 0 {
					comp[p.Mol] = id
					queue = append(queue, p.Mol)
				}
			}
		}
		order = append(order, members)
	}

	out := make([]*Species, len(order))
	for id, members := range order {
		remap := make(map[int]int, len(members))
		for local, global := range members {
			remap[global] = local
		}
		mols := make([]*Molecule, len(members))
		for local, global := range members {
			m := s.Mols[global].clone()
			for si, p := range m.Partners {
				if p.Mol >= 0 {
					m.Partners[si] = SiteRef{Mol: remap[p.Mol], Site: p.Site}
				}
			}
			mols[local] = m
		}
		out[id] = &Species{Mols: mols}
	}
	return out
}

// String renders the species in the same compact form patterns use, with
// molecules in canonical order.
func (s *Species) String() string {
	ordering := s.canonicalOrdering()
	return serialize(s, ordering)
}

// serialize renders the species with molecules in the given order. Bond ids
// are numbered by first appearance.
func serialize(s *Species, ordering []int) string {
	pos := make([]int, len(ordering))
	for newIdx, oldIdx := range ordering {
		pos[oldIdx] = newIdx
	}
	bondIDs := make(map[[2]SiteRef]int)
	nextBond := 1
	var sb strings.Builder
	for newIdx, oldIdx := range ordering {
		if newIdx > 0 {
			sb.WriteByte('.')
		}
		m := s.Mols[oldIdx]
		sb.WriteString(m.Type.Name)
		sb.WriteByte('(')
		for si, site := range m.Type.Sites {
			if si > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(site)
			if m.States[si] != "" {
				sb.WriteByte('~')
				sb.WriteString(m.States[si])
			}
			if p := m.Partners[si]; p.Mol >= 0 {
				a := SiteRef{Mol: pos[oldIdx], Site: si}
				b := SiteRef{Mol: pos[p.Mol], Site: p.Site}
				key := [2]SiteRef{a, b}
				if b.Mol < a.Mol || (b.Mol == a.Mol && b.Site < a.Site) {
					key = [2]SiteRef{b, a}
				}
				id, ok := bondIDs[key]
				if !ok {
					id = nextBond
					nextBond++
					bondIDs[key] = id
				}
				fmt.Fprintf(&sb, "!%d", id)
			}
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
