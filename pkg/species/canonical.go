package species

import (
	"fmt"
	"sort"
	"strings"
)

// CanonicalForm returns a string that is identical for exactly the species
// that are isomorphic as labeled graphs (molecule types, site bonding, and
// state labels all respected). The form is cached; mutating the species
// invalidates the cache.
//
// The implementation is a refinement-and-individualization search: molecule
// colors are refined by iterated neighborhood hashing, ties are broken by
// individualizing each member of the first ambiguous class in turn, and the
// lexicographically smallest serialization wins. This is the single place
// species identity is decided; everything else compares canonical forms.
func (s *Species) CanonicalForm() string {
	if s.canon == "" {
		s.canon = serialize(s, s.canonicalOrdering())
	}
	return s.canon
}

// IsIsomorphic reports whether two species are identical up to graph
// isomorphism.
func IsIsomorphic(a, b *Species) bool {
	if a.Size() != b.Size() {
		return false
	}
	return a.CanonicalForm() == b.CanonicalForm()
}

// initialColors assigns each molecule a color from its local structure:
// type name, site states, and which sites are bound.
func (s *Species) initialColors() []string {
	colors := make([]string, len(s.Mols))
	for i, m := range s.Mols {
		var sb strings.Builder
		sb.WriteString(m.Type.Name)
		for si := range m.Type.Sites {
			sb.WriteByte('|')
			sb.WriteString(m.States[si])
			if m.Bound(si) {
				sb.WriteByte('+')
			}
		}
		colors[i] = sb.String()
	}
	return colors
}

// refineColors iterates neighborhood refinement until the color partition
// stabilizes: each round a molecule's color absorbs, per site in site
// order, the color of its bond partner.
func (s *Species) refineColors(colors []string) []string {
	n := len(s.Mols)
	cur := append([]string(nil), colors...)
	prevClasses := countClasses(cur)
	for round := 0; round < n; round++ {
		next := make([]string, n)
		for i, m := range s.Mols {
			var sb strings.Builder
			sb.WriteString(cur[i])
			for si := range m.Type.Sites {
				sb.WriteByte(';')
				if p := m.Partners[si]; p.Mol >= 0 {
					fmt.Fprintf(&sb, "%d@%s", p.Site, cur[p.Mol])
				}
			}
			next[i] = sb.String()
		}
		// Re-encode to keep color strings from growing without bound.
		next = compactColors(next)
		classes := countClasses(next)
		cur = next
		if classes == prevClasses {
			break
		}
		prevClasses = classes
	}
	return cur
}

// compactColors replaces each distinct color string with a short canonical
// token that preserves the relative order of the original strings.
func compactColors(colors []string) []string {
	uniq := make([]string, 0, len(colors))
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	sort.Strings(uniq)
	rank := make(map[string]int, len(uniq))
	for i, c := range uniq {
		rank[c] = i
	}
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = fmt.Sprintf("#%04d", rank[c])
	}
	return out
}

func countClasses(colors []string) int {
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		seen[c] = true
	}
	return len(seen)
}

// canonicalOrdering finds the molecule ordering whose serialization is
// lexicographically smallest among all orderings consistent with the color
// refinement.
func (s *Species) canonicalOrdering() []int {
	colors := s.refineColors(s.initialColors())
	best := ""
	var bestOrdering []int
	s.searchOrdering(colors, &best, &bestOrdering)
	return bestOrdering
}

func (s *Species) searchOrdering(colors []string, best *string, bestOrdering *[]int) {
	// Find the first non-singleton color class, in color order.
	classes := make(map[string][]int)
	for i, c := range colors {
		classes[c] = append(classes[c], i)
	}
	keys := make([]string, 0, len(classes))
	for c := range classes {
		keys = append(keys, c)
	}
	sort.Strings(keys)

	target := ""
	for _, c := range keys {
		if len(classes[c]) > 1 {
			target = c
			break
		}
	}

	if target == "" {
		// Discrete partition: the ordering is fully determined.
		ordering := make([]int, 0, len(colors))
		idx := make([]int, len(colors))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool {
			if colors[idx[a]] != colors[idx[b]] {
				return colors[idx[a]] < colors[idx[b]]
			}
			return idx[a] < idx[b]
		})
		ordering = append(ordering, idx...)
		form := serialize(s, ordering)
		if *best == "" || form < *best {
			*best = form
			*bestOrdering = ordering
		}
		return
	}

	// Individualize each member of the ambiguous class in turn.
	for _, member := range classes[target] {
		branched := append([]string(nil), colors...)
		branched[member] = target + "!"
		refined := s.refineColors(branched)
		s.searchOrdering(refined, best, bestOrdering)
	}
}

// Automorphisms counts the structure-preserving self-mappings of the
// species: permutations of its molecules that respect molecule type, every
// site state, and every bond. A species with no internal symmetry has
// exactly one (the identity).
func (s *Species) Automorphisms() int {
	colors := s.refineColors(s.initialColors())
	n := len(s.Mols)
	mapping := make([]int, n)
	used := make([]bool, n)
	for i := range mapping {
		mapping[i] = -1
	}
	return s.countAutomorphisms(colors, mapping, used, 0)
}

func (s *Species) countAutomorphisms(colors []string, mapping []int, used []bool, next int) int {
	if next == len(s.Mols) {
		return 1
	}
	total := 0
	for cand := 0; cand < len(s.Mols); cand++ {
		if used[cand] || colors[cand] != colors[next] {
			continue
		}
		if !s.compatibleImage(mapping, next, cand) {
			continue
		}
		mapping[next] = cand
		used[cand] = true
		total += s.countAutomorphisms(colors, mapping, used, next+1)
		mapping[next] = -1
		used[cand] = false
	}
	return total
}

// compatibleImage checks that mapping molecule `from` onto `to` preserves
// states and all bonds whose other endpoint is already mapped.
func (s *Species) compatibleImage(mapping []int, from, to int) bool {
	a, b := s.Mols[from], s.Mols[to]
	if a.Type != b.Type {
		return false
	}
	for si := range a.Type.Sites {
		if a.States[si] != b.States[si] {
			return false
		}
		pa, pb := a.Partners[si], b.Partners[si]
		if (pa.Mol >= 0) != (pb.Mol >= 0) {
			return false
		}
		if pa.Mol < 0 {
			continue
		}
		if img := mapping[pa.Mol]; img >= 0 {
			if pb.Mol != img || pb.Site != pa.Site {
				return false
			}
		}
	}
	return true
}
