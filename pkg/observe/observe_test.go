package observe

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
	"github.com/dd0wney/cluso-rxnet/pkg/network"
)

func dimerNetwork(t *testing.T) *network.Network {
	t.Helper()
	b := model.NewModelBuilder("dimer")
	if err := b.DeclareMolecule("A", []string{"b"}, nil); err != nil {
		t.Fatalf("declare A: %v", err)
	}
	if err := b.DeclareParameter("kf", 1e-3); err != nil {
		t.Fatalf("declare kf: %v", err)
	}
	if err := b.DeclareParameter("kr", 1e-1); err != nil {
		t.Fatalf("declare kr: %v", err)
	}
	err := b.AddReversibleRule("dimerize",
		[]model.Pattern{model.Complex(model.Mol("A").Free("b")), model.Complex(model.Mol("A").Free("b"))},
		[]model.Pattern{model.Complex(model.Mol("A").Bond("b", 1), model.Mol("A").Bond("b", 1))},
		"kf", "kr")
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	if err := b.AddSeed(model.Complex(model.Mol("A").Free("b")), 100); err != nil {
		t.Fatalf("add seed: %v", err)
	}
	if err := b.AddObservable("Atotal", model.Complex(model.Mol("A"))); err != nil {
		t.Fatalf("add observable: %v", err)
	}
	if err := b.AddObservable("Adimer", model.Complex(model.Mol("A").Bond("b", 1), model.Mol("A").Bond("b", 1))); err != nil {
		t.Fatalf("add observable: %v", err)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	net, err := network.NewGenerator(m, network.Config{}).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return net
}

func TestEvaluatorCoefficients(t *testing.T) {
	net := dimerNetwork(t)
	if len(net.Species) != 2 {
		t.Fatalf("expected monomer and dimer, got %d species", len(net.Species))
	}
	ev := NewEvaluator(net)

	total, err := ev.Coefficients("Atotal")
	if err != nil {
		t.Fatalf("coefficients: %v", err)
	}
	// Monomer contributes one embedding, the dimer two.
	wantTotal := map[int]bool{1: false, 2: false}
	for _, c := range total {
		wantTotal[c] = true
	}
	if !wantTotal[1] || !wantTotal[2] {
		t.Fatalf("Atotal coefficients = %v, want one 1 and one 2", total)
	}

	dimer, err := ev.Coefficients("Adimer")
	if err != nil {
		t.Fatalf("coefficients: %v", err)
	}
	// The symmetric dimer pattern embeds twice into the dimer species.
	sum := 0
	for _, c := range dimer {
		sum += c
	}
	if sum != 2 {
		t.Fatalf("Adimer coefficients = %v, want total weight 2", dimer)
	}
}

func TestEvaluatorEvaluate(t *testing.T) {
	net := dimerNetwork(t)
	ev := NewEvaluator(net)

	pops := make([]float64, len(net.Species))
	for i, sp := range net.Species {
		if sp.Size() == 1 {
			pops[i] = 40
		} else {
			pops[i] = 30
		}
	}
	got, err := ev.Evaluate("Atotal", pops)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(got-100) > 1e-9 {
		t.Fatalf("Atotal = %g, want 100", got)
	}

	all, err := ev.EvaluateAll(pops)
	if err != nil {
		t.Fatalf("evaluate all: %v", err)
	}
	if math.Abs(all["Adimer"]-60) > 1e-9 {
		t.Fatalf("Adimer = %g, want 60", all["Adimer"])
	}
}

func TestEvaluatorErrors(t *testing.T) {
	net := dimerNetwork(t)
	ev := NewEvaluator(net)

	if _, err := ev.Coefficients("nope"); err == nil {
		t.Fatal("expected error for unknown observable")
	}
	if _, err := ev.Evaluate("Atotal", []float64{1}); err == nil && len(net.Species) != 1 {
		t.Fatal("expected error for mismatched population vector")
	}
}

func TestValue(t *testing.T) {
	net := dimerNetwork(t)
	obs := net.Observables[0]
	pops := make([]float64, len(net.Species))
	for i := range pops {
		pops[i] = 10
	}
	got, err := Value(obs, net.Species, pops)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	// 10 monomers and 10 dimers carry 30 A molecules.
	if math.Abs(got-30) > 1e-9 {
		t.Fatalf("Value = %g, want 30", got)
	}
}
