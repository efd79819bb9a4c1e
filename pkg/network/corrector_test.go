package network

import (
	"testing"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

func TestPatternAutomorphisms(t *testing.T) {
	cases := []struct {
		name string
		ps   []model.Pattern
		want int
	}{
		{
			"two identical monomers",
			[]model.Pattern{
				model.Complex(model.Mol("A").Free("b")),
				model.Complex(model.Mol("A").Free("b")),
			},
			2,
		},
		{
			"distinct types",
			[]model.Pattern{
				model.Complex(model.Mol("A").Free("b")),
				model.Complex(model.Mol("B").Free("a")),
			},
			1,
		},
		{
			"same type, different constraints",
			[]model.Pattern{
				model.Complex(model.Mol("S").State("y", "u")),
				model.Complex(model.Mol("S").State("y", "p")),
			},
			1,
		},
		{
			"symmetric bonded dimer",
			[]model.Pattern{
				model.Complex(model.Mol("A").Bond("b", 1), model.Mol("A").Bond("b", 1)),
			},
			2,
		},
		{
			"three identical monomers",
			[]model.Pattern{
				model.Complex(model.Mol("A").Free("b")),
				model.Complex(model.Mol("A").Free("b")),
				model.Complex(model.Mol("A").Free("b")),
			},
			6,
		},
		{
			"two identical bonded-dimer blocks",
			[]model.Pattern{
				model.Complex(model.Mol("A").Bond("d", 1), model.Mol("A").Bond("d", 1)),
				model.Complex(model.Mol("A").Bond("d", 1), model.Mol("A").Bond("d", 1)),
			},
			8,
		},
		{
			"no reactants",
			nil,
			1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := patternAutomorphisms(tc.ps); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSymmetryFactorOverride(t *testing.T) {
	scale := 4.0
	r := &model.Rule{
		Reactants: []model.Pattern{
			model.Complex(model.Mol("A").Free("b")),
			model.Complex(model.Mol("A").Free("b")),
		},
		Scale: &scale,
	}
	if got := symmetryFactor(r); got != 4 {
		t.Fatalf("got %g, want authored override 4", got)
	}
	r.Scale = nil
	if got := symmetryFactor(r); got != 2 {
		t.Fatalf("got %g, want computed 2", got)
	}
}

func TestCorrectedRate(t *testing.T) {
	if got := correctedRate(1.0, 2); got != 0.5 {
		t.Fatalf("factor 2: got %g, want 0.5", got)
	}
	if got := correctedRate(3.0, 1); got != 3.0 {
		t.Fatalf("factor 1: got %g, want unchanged", got)
	}
	if got := correctedRate(3.0, 0); got != 3.0 {
		t.Fatalf("factor 0: got %g, want unchanged", got)
	}
}
