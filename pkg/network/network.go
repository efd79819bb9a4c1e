// Package network generates concrete reaction networks from rule-based
// models: it applies every rule against the growing set of known species
// until no rule discovers anything new, deduplicating species by graph
// isomorphism and reactions by their reactant/product multisets, and
// annotates rates with automorphism-derived symmetry factors and embedding
// multiplicities.
package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/species"
)

// Reaction is a fully instantiated transformation between concrete species,
// annotated with its symmetry-corrected rate constant. Reactants and
// Products hold species indices into the owning Network, as sorted
// multisets.
type Reaction struct {
	Rule      string  // originating rule name
	Reverse   bool    // generated by the reverse direction of a reversible rule
	Reactants []int   // species indices, sorted, repetition allowed
	Products  []int   // species indices, sorted, repetition allowed
	Rate      float64 // rate constant after symmetry correction
}

// key identifies a reaction for deduplication: same reactant multiset,
// product multiset, and rate means the same reaction.
func (r *Reaction) key() string {
	var sb strings.Builder
	for _, i := range r.Reactants {
		fmt.Fprintf(&sb, "%d,", i)
	}
	sb.WriteByte('>')
	for _, i := range r.Products {
		fmt.Fprintf(&sb, "%d,", i)
	}
	fmt.Fprintf(&sb, "@%g", r.Rate)
	return sb.String()
}

// String renders the reaction with species indices, e.g. "S0 + S1 -> S2".
func (r *Reaction) String() string {
	side := func(idxs []int) string {
		if len(idxs) == 0 {
			return "0"
		}
		parts := make([]string, len(idxs))
		for i, s := range idxs {
			parts[i] = fmt.Sprintf("S%d", s)
		}
		return strings.Join(parts, " + ")
	}
	return fmt.Sprintf("%s -> %s", side(r.Reactants), side(r.Products))
}

// Network is the complete generation result: every reachable species with
// its initial abundance, every instantiated reaction, and the model's
// observables. A Network is immutable once generation terminates and safe
// for concurrent read-only use.
type Network struct {
	ID          string  // unique artifact identifier
	Model       string  // originating model name
	Passes      int     // expansion passes needed to converge
	Species     []*species.Species
	Abundances  []float64 // initial abundance per species; zero unless seeded
	Reactions   []*Reaction
	Observables []model.Observable
}

// SpeciesStrings returns the canonical text form of every species, in
// network order.
func (n *Network) SpeciesStrings() []string {
	out := make([]string, len(n.Species))
	for i, s := range n.Species {
		out[i] = s.CanonicalForm()
	}
	return out
}

// FindSpecies returns the index of the species isomorphic to the given one,
// or -1 when the network does not contain it.
func (n *Network) FindSpecies(s *species.Species) int {
	want := s.CanonicalForm()
	for i, known := range n.Species {
		if known.CanonicalForm() == want {
			return i
		}
	}
	return -1
}

func sortedCopy(idxs []int) []int {
	out := append([]int(nil), idxs...)
	sort.Ints(out)
	return out
}
