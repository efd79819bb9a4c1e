package species

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-rxnet/pkg/model"
)

func speciesRegistry(t *testing.T) *model.Registry {
	t.Helper()
	r := model.NewRegistry()
	if _, err := r.Declare("A", []string{"b", "c"}, nil); err != nil {
		t.Fatalf("declare A: %v", err)
	}
	if _, err := r.Declare("B", []string{"a"}, nil); err != nil {
		t.Fatalf("declare B: %v", err)
	}
	if _, err := r.Declare("S", []string{"d", "y"}, map[string][]string{"y": {"u", "p"}}); err != nil {
		t.Fatalf("declare S: %v", err)
	}
	return r
}

func mustMol(t *testing.T, reg *model.Registry, typ string, states map[string]string) *Molecule {
	t.Helper()
	mt, err := reg.Lookup(typ)
	if err != nil {
		t.Fatalf("lookup %s: %v", typ, err)
	}
	m, err := NewMolecule(mt, states)
	if err != nil {
		t.Fatalf("molecule %s: %v", typ, err)
	}
	return m
}

func TestNewMoleculeRequiresStates(t *testing.T) {
	reg := speciesRegistry(t)
	mt, _ := reg.Lookup("S")
	if _, err := NewMolecule(mt, nil); err == nil {
		t.Fatal("stateful site left unset")
	}
	if _, err := NewMolecule(mt, map[string]string{"y": "zzz"}); err == nil {
		t.Fatal("disallowed state accepted")
	}
	if _, err := NewMolecule(mt, map[string]string{"y": "u"}); err != nil {
		t.Fatalf("valid molecule rejected: %v", err)
	}
}

func TestBindUnbind(t *testing.T) {
	reg := speciesRegistry(t)
	s := New(mustMol(t, reg, "A", nil), mustMol(t, reg, "B", nil))

	a := SiteRef{Mol: 0, Site: 0} // A.b
	b := SiteRef{Mol: 1, Site: 0} // B.a
	if err := s.Bind(a, b); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !s.Mols[0].Bound(0) || !s.Mols[1].Bound(0) {
		t.Fatal("bond not recorded on both ends")
	}
	if err := s.Bind(a, b); err == nil {
		t.Fatal("double bind accepted")
	}
	if err := s.Unbind(a, b); err != nil {
		t.Fatalf("unbind: %v", err)
	}
	if s.Mols[0].Bound(0) || s.Mols[1].Bound(0) {
		t.Fatal("bond not removed")
	}
	if err := s.Unbind(a, b); err == nil {
		t.Fatal("unbinding free sites accepted")
	}
	if err := s.Bind(SiteRef{Mol: 5, Site: 0}, b); err == nil {
		t.Fatal("out-of-range molecule accepted")
	}
}

func TestSetState(t *testing.T) {
	reg := speciesRegistry(t)
	s := New(mustMol(t, reg, "S", map[string]string{"y": "u"}))
	if err := s.SetState(SiteRef{Mol: 0, Site: 1}, "p"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if s.Mols[0].States[1] != "p" {
		t.Fatalf("state = %q, want p", s.Mols[0].States[1])
	}
}

func TestCloneIsolation(t *testing.T) {
	reg := speciesRegistry(t)
	s := New(mustMol(t, reg, "A", nil), mustMol(t, reg, "B", nil))
	if err := s.Bind(SiteRef{Mol: 0, Site: 0}, SiteRef{Mol: 1, Site: 0}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	c := s.Clone()
	if err := c.Unbind(SiteRef{Mol: 0, Site: 0}, SiteRef{Mol: 1, Site: 0}); err != nil {
		t.Fatalf("unbind clone: %v", err)
	}
	if !s.Mols[0].Bound(0) {
		t.Fatal("unbinding the clone mutated the original")
	}
}

func TestComponents(t *testing.T) {
	reg := speciesRegistry(t)
	// A bound to B, plus a detached S.
	s := New(
		mustMol(t, reg, "A", nil),
		mustMol(t, reg, "B", nil),
		mustMol(t, reg, "S", map[string]string{"y": "u"}),
	)
	if err := s.Bind(SiteRef{Mol: 0, Site: 0}, SiteRef{Mol: 1, Site: 0}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	parts := s.Components()
	if len(parts) != 2 {
		t.Fatalf("components = %d, want 2", len(parts))
	}
	sizes := map[int]int{}
	for _, p := range parts {
		sizes[p.Size()]++
	}
	if sizes[2] != 1 || sizes[1] != 1 {
		t.Fatalf("component sizes = %v", sizes)
	}
	// Partner indices must be remapped into the smaller species.
	for _, p := range parts {
		if p.Size() != 2 {
			continue
		}
		for mi, m := range p.Mols {
			for si := range m.Partners {
				if !m.Bound(si) {
					continue
				}
				ref := m.Partners[si]
				if ref.Mol < 0 || ref.Mol >= p.Size() {
					t.Fatalf("molecule %d site %d points outside its component: %+v", mi, si, ref)
				}
			}
		}
	}
}

func TestFromPattern(t *testing.T) {
	reg := speciesRegistry(t)
	p := model.Complex(
		model.Mol("A").Bond("b", 1).Free("c"),
		model.Mol("B").Bond("a", 1),
	)
	s, err := FromPattern(reg, p)
	if err != nil {
		t.Fatalf("from pattern: %v", err)
	}
	if s.Size() != 2 || !s.Mols[0].Bound(0) {
		t.Fatalf("unexpected species %s", s)
	}

	// Patterns describing two disconnected pieces are not one species.
	if _, err := FromPattern(reg, model.Complex(
		model.Mol("A").Free("b", "c"),
		model.Mol("B").Free("a"),
	)); err == nil {
		t.Fatal("disconnected pattern accepted")
	}

	if _, err := FromPattern(reg, model.Complex(model.Mol("X"))); !errors.Is(err, model.ErrUnknownType) {
		t.Fatalf("got %v, want ErrUnknownType", err)
	}
}
