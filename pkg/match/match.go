// Package match decides where a partial species pattern embeds into a
// concrete species. An embedding is an injective mapping from pattern
// molecules to species molecules under which every site constraint holds.
// The matcher enumerates every distinct embedding, not just the first: a
// pattern can embed into one species in several structurally distinct ways
// (two interchangeable subunits of a homodimer, two equivalent sites), and
// each embedding is a separate reaction channel.
package match

import (
	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/species"
)

// Binding is one embedding: Mols[i] is the species molecule matched by
// pattern molecule i.
type Binding struct {
	Mols []int
}

// patternBonds indexes the labeled bonds of a pattern by endpoint, so the
// matcher can verify them as soon as both endpoints are placed.
type patternBond struct {
	mol  int
	site string
}

func labeledBonds(p model.Pattern) map[patternBond]patternBond {
	out := make(map[patternBond]patternBond)
	for _, pair := range p.Endpoints() {
		a := patternBond{mol: pair[0].Mol, site: pair[0].Site}
		b := patternBond{mol: pair[1].Mol, site: pair[1].Site}
		out[a] = b
		out[b] = a
	}
	return out
}

// Match returns every embedding of the pattern into the species, in a
// deterministic order (lexicographic over the molecule mapping). A pattern
// that embeds nowhere returns an empty slice; that is a normal outcome, not
// an error. Matching is purely structural and runs in time bounded by the
// species size for a fixed pattern.
func Match(p model.Pattern, sp *species.Species) []Binding {
	if len(p.Mols) == 0 || len(p.Mols) > sp.Size() {
		return nil
	}
	m := &matcher{
		pattern: p,
		sp:      sp,
		bonds:   labeledBonds(p),
		assign:  make([]int, len(p.Mols)),
		used:    make([]bool, sp.Size()),
	}
	for i := range m.assign {
		m.assign[i] = -1
	}
	m.place(0)
	return m.found
}

// Count returns the number of embeddings of the pattern into the species.
func Count(p model.Pattern, sp *species.Species) int {
	return len(Match(p, sp))
}

type matcher struct {
	pattern model.Pattern
	sp      *species.Species
	bonds   map[patternBond]patternBond
	assign  []int
	used    []bool
	found   []Binding
}

func (m *matcher) place(pi int) {
	if pi == len(m.pattern.Mols) {
		m.found = append(m.found, Binding{Mols: append([]int(nil), m.assign...)})
		return
	}
	mp := m.pattern.Mols[pi]
	for ci := 0; ci < m.sp.Size(); ci++ {
		if m.used[ci] {
			continue
		}
		if !m.admissible(pi, mp, ci) {
			continue
		}
		m.assign[pi] = ci
		m.used[ci] = true
		m.place(pi + 1)
		m.assign[pi] = -1
		m.used[ci] = false
	}
}

// admissible checks the local site constraints of pattern molecule pi
// against species molecule ci, plus every labeled pattern bond whose other
// endpoint is already placed.
func (m *matcher) admissible(pi int, mp model.MolPattern, ci int) bool {
	cand := m.sp.Mols[ci]
	if cand.Type.Name != mp.Type {
		return false
	}
	for site, sc := range mp.Sites {
		si := cand.Type.SiteIndex(site)
		if si < 0 {
			return false
		}
		if sc.State != "" && cand.States[si] != sc.State {
			return false
		}
		switch sc.Bond {
		case model.BondNone:
			if cand.Bound(si) {
				return false
			}
		case model.BondAny:
			if !cand.Bound(si) {
				return false
			}
		case model.BondLabeled:
			if !cand.Bound(si) {
				return false
			}
			other, ok := m.bonds[patternBond{mol: pi, site: site}]
			if !ok {
				return false
			}
			// Once both endpoints are placed, the real bond must connect
			// the two mapped molecules at the right sites. Intramolecular
			// pattern bonds (other.mol == pi) resolve to the candidate
			// itself.
			target := -1
			if other.mol == pi {
				target = ci
			} else if other.mol < pi {
				target = m.assign[other.mol]
			}
			if target >= 0 {
				partner := cand.Partners[si]
				if partner.Mol != target {
					return false
				}
				if partner.Site != m.sp.Mols[target].Type.SiteIndex(other.site) {
					return false
				}
			}
		}
	}
	return true
}
