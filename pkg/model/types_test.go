package model

import (
	"errors"
	"testing"
)

func TestRegistryDeclare(t *testing.T) {
	r := NewRegistry()
	mt, err := r.Declare("C8", []string{"b", "s"}, map[string][]string{"s": {"pro", "act"}})
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if mt.Name != "C8" || len(mt.Sites) != 2 {
		t.Fatalf("unexpected type: %+v", mt)
	}
	if !mt.HasSite("b") || mt.HasSite("x") {
		t.Fatal("HasSite is wrong")
	}
	if mt.SiteIndex("s") != 1 || mt.SiteIndex("x") != -1 {
		t.Fatal("SiteIndex is wrong")
	}
	if !mt.Stateful("s") || mt.Stateful("b") {
		t.Fatal("Stateful is wrong")
	}
	if !mt.AllowsState("s", "pro") || mt.AllowsState("s", "dead") {
		t.Fatal("AllowsState is wrong")
	}

	got, err := r.Lookup("C8")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != mt {
		t.Fatal("lookup returned a different type")
	}
}

func TestRegistryDeclareErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Declare("A", []string{"b"}, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}

	cases := []struct {
		name   string
		typ    string
		sites  []string
		states map[string][]string
		want   error
	}{
		{"duplicate type", "A", []string{"b"}, nil, ErrDuplicateType},
		{"repeated site", "B", []string{"x", "x"}, nil, ErrInvalidSite},
		{"empty site", "C", []string{""}, nil, ErrInvalidSite},
		{"state on undeclared site", "D", []string{"x"}, map[string][]string{"y": {"u", "p"}}, ErrInvalidSite},
		{"single state label", "E", []string{"x"}, map[string][]string{"x": {"u"}}, ErrInvalidSite},
		{"repeated state label", "F", []string{"x"}, map[string][]string{"x": {"u", "u"}}, ErrInvalidSite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Declare(tc.typ, tc.sites, tc.states)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("ghost")
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("got %v, want ErrUnknownType", err)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"Z", "A", "M"} {
		if _, err := r.Declare(name, []string{"s"}, nil); err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
	}
	types := r.Types()
	if len(types) != 3 || types[0].Name != "Z" || types[1].Name != "A" || types[2].Name != "M" {
		t.Fatalf("Types() = %v, want declaration order", types)
	}
	names := r.Names()
	if len(names) != 3 || names[0] != "A" || names[1] != "M" || names[2] != "Z" {
		t.Fatalf("Names() = %v, want sorted", names)
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Declare("A", []string{"b"}, nil); err != nil {
		t.Fatalf("declare: %v", err)
	}
	_, err := r.Declare("A", []string{"b"}, nil)
	var me *ModelError
	if !errors.As(err, &me) {
		t.Fatalf("expected ModelError, got %T", err)
	}
	if me.Name != "A" || me.Op != "Declare" {
		t.Fatalf("unexpected error fields: %+v", me)
	}
}
