package network

import (
	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

// Symmetry correction. A reaction's rate is the directional base rate times
// the number of embeddings that produce it within one rule application (see
// collapseOutcomes): a state flip available on either subunit of a
// symmetric dimer runs at 2k, and the two indistinguishable ways to unbind
// a homodimer make its dissociation run at 2*kr. The forward base rate is
// additionally divided by the automorphism count of the rule's reactant
// pattern list, which cancels the interchangeable-role overcounting of
// symmetric rules: a homodimerization declared at kf runs at kf/2. The
// reverse direction needs no pattern factor; its statistics arrive entirely
// through the product pattern's embedding count in the dissociating
// species. An authored scaling override on the rule replaces the computed
// factor verbatim.

// symmetryFactor returns the automorphism count of the rule's forward
// reactant pattern list, or the rule's authored override.
func symmetryFactor(r *model.Rule) float64 {
	if r.Scale != nil {
		return *r.Scale
	}
	return float64(patternAutomorphisms(r.Reactants))
}

// flatPatMol is a molecule position in a flattened reactant pattern list,
// with labeled bonds resolved to flattened endpoints.
type flatPatMol struct {
	block int // owning pattern index
	mp    model.MolPattern
	bonds map[string]model.SiteEndpoint
}

func flattenPatterns(ps []model.Pattern) []flatPatMol {
	var out []flatPatMol
	base := 0
	for pi, p := range ps {
		local := make(map[model.SiteEndpoint]model.SiteEndpoint)
		for _, pair := range p.Endpoints() {
			local[pair[0]] = pair[1]
			local[pair[1]] = pair[0]
		}
		for mi, mp := range p.Mols {
			fm := flatPatMol{block: pi, mp: mp, bonds: make(map[string]model.SiteEndpoint)}
			for site, sp := range mp.Sites {
				if sp.Bond != model.BondLabeled {
					continue
				}
				if other, ok := local[model.SiteEndpoint{Mol: mi, Site: site}]; ok {
					fm.bonds[site] = model.SiteEndpoint{Mol: base + other.Mol, Site: other.Site}
				}
			}
			out = append(out, fm)
		}
		base += len(p.Mols)
	}
	return out
}

// patternAutomorphisms counts the permutations of the flattened reactant
// molecules that preserve types, site constraints, labeled bond topology,
// and the grouping of molecules into reactant patterns. Two identical
// single-molecule patterns contribute a factor of two (swapping them), a
// heterogeneous pair contributes one.
func patternAutomorphisms(ps []model.Pattern) int {
	mols := flattenPatterns(ps)
	n := len(mols)
	if n == 0 {
		return 1
	}
	mapping := make([]int, n)
	used := make([]bool, n)
	for i := range mapping {
		mapping[i] = -1
	}
	blockImage := make(map[int]int)
	blockTaken := make(map[int]bool)
	return countPatternAuts(mols, mapping, used, blockImage, blockTaken, 0)
}

func countPatternAuts(mols []flatPatMol, mapping []int, used []bool, blockImage map[int]int, blockTaken map[int]bool, next int) int {
	if next == len(mols) {
		return 1
	}
	total := 0
	for cand := 0; cand < len(mols); cand++ {
		if used[cand] {
			continue
		}
		if !patMolCompatible(mols, mapping, next, cand) {
			continue
		}
		src, dst := mols[next].block, mols[cand].block
		img, seen := blockImage[src]
		switch {
		case seen && img != dst:
			continue
		case !seen && blockTaken[dst]:
			continue
		}
		claimed := !seen
		if claimed {
			blockImage[src] = dst
			blockTaken[dst] = true
		}
		mapping[next] = cand
		used[cand] = true
		total += countPatternAuts(mols, mapping, used, blockImage, blockTaken, next+1)
		mapping[next] = -1
		used[cand] = false
		if claimed {
			delete(blockImage, src)
			delete(blockTaken, dst)
		}
	}
	return total
}

// patMolCompatible checks that mapping pattern molecule `from` onto `to`
// preserves every site constraint, including labeled bonds whose other
// endpoint is already mapped.
func patMolCompatible(mols []flatPatMol, mapping []int, from, to int) bool {
	a, b := mols[from], mols[to]
	if a.mp.Type != b.mp.Type {
		return false
	}
	if len(a.mp.Sites) != len(b.mp.Sites) {
		return false
	}
	for site, sa := range a.mp.Sites {
		sb, ok := b.mp.Sites[site]
		if !ok {
			return false
		}
		if sa.State != sb.State || sa.Bond != sb.Bond {
			return false
		}
		if sa.Bond == model.BondLabeled {
			pa, pb := a.bonds[site], b.bonds[site]
			if pa.Site != pb.Site {
				return false
			}
			if img := mapping[pa.Mol]; img >= 0 && img != pb.Mol {
				return false
			}
		}
	}
	return true
}

// correctedRate divides a forward base rate by the symmetry factor. A
// factor of zero or one leaves the rate untouched.
func correctedRate(raw float64, factor float64) float64 {
	if factor == 0 || factor == 1 {
		return raw
	}
	return raw / factor
}
