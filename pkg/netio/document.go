// Package netio exports generated reaction networks as self-contained
// documents, either plain JSON or a snappy-compressed binary framing of the
// same JSON for large networks. A document carries everything a downstream
// simulator needs: species with starting abundances, indexed reactions with
// corrected rates, and observable coefficient vectors.
package netio

import (
	"github.com/dd0wney/cluso-rxnet/pkg/network"
	"github.com/dd0wney/cluso-rxnet/pkg/observe"
)

// Document is the exported form of a generated network.
type Document struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Passes      int                `json:"passes"`
	Species     []SpeciesRecord    `json:"species"`
	Reactions   []ReactionRecord   `json:"reactions"`
	Observables []ObservableRecord `json:"observables,omitempty"`
}

// SpeciesRecord is one network species: its index, canonical form, and
// starting abundance.
type SpeciesRecord struct {
	Index     int     `json:"index"`
	Canonical string  `json:"canonical"`
	Abundance float64 `json:"abundance"`
}

// ReactionRecord is one concrete reaction over species indices.
type ReactionRecord struct {
	Rule      string  `json:"rule"`
	Reverse   bool    `json:"reverse,omitempty"`
	Reactants []int   `json:"reactants"`
	Products  []int   `json:"products"`
	Rate      float64 `json:"rate"`
}

// ObservableRecord carries one observable's per-species embedding counts,
// aligned with the document's species order.
type ObservableRecord struct {
	Name         string `json:"name"`
	Coefficients []int  `json:"coefficients"`
}

// FromNetwork flattens a generated network into its exported document.
func FromNetwork(net *network.Network) (*Document, error) {
	doc := &Document{
		ID:     net.ID,
		Model:  net.Model,
		Passes: net.Passes,
	}
	for i, sp := range net.Species {
		doc.Species = append(doc.Species, SpeciesRecord{
			Index:     i,
			Canonical: sp.CanonicalForm(),
			Abundance: net.Abundances[i],
		})
	}
	for _, rx := range net.Reactions {
		doc.Reactions = append(doc.Reactions, ReactionRecord{
			Rule:      rx.Rule,
			Reverse:   rx.Reverse,
			Reactants: append([]int(nil), rx.Reactants...),
			Products:  append([]int(nil), rx.Products...),
			Rate:      rx.Rate,
		})
	}
	ev := observe.NewEvaluator(net)
	for _, name := range ev.Names() {
		coeffs, err := ev.Coefficients(name)
		if err != nil {
			return nil, err
		}
		doc.Observables = append(doc.Observables, ObservableRecord{
			Name:         name,
			Coefficients: coeffs,
		})
	}
	return doc, nil
}
