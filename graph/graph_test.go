package graph

import "testing"

func mod(id string, deps ...Dependency) *Module {
	return &Module{ID: id, Dependencies: deps}
}

func resolved(id string) *ResolvedId {
	return &ResolvedId{ID: id, Kind: StaticImport}
}

func TestInsertDuplicateIsInvariantViolation(t *testing.T) {
	g := New()
	if err := g.Insert(mod("a.js")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := g.Insert(mod("a.js")); err == nil {
		t.Fatal("expected an error on duplicate insertion")
	}
}

func TestDependenciesOfSkipsExternalAndUnfinished(t *testing.T) {
	g := New()
	b := mod("b.js")
	if err := g.Insert(b); err != nil {
		t.Fatal(err)
	}

	a := mod("a.js",
		Dependency{Specifier: "./b", ResolvedID: resolved("b.js")},
		Dependency{Specifier: "react", ResolvedID: &ResolvedId{ID: "react", External: true}},
		Dependency{Specifier: "./missing", ResolvedID: resolved("missing.js")},
	)
	if err := g.Insert(a); err != nil {
		t.Fatal(err)
	}

	deps := g.DependenciesOf(a)
	if len(deps) != 1 || deps[0].ID != "b.js" {
		t.Fatalf("expected only b.js, got %v", deps)
	}
}

func TestReverseDependenciesOf(t *testing.T) {
	g := New()
	d := mod("d.js")
	if err := g.Insert(d); err != nil {
		t.Fatal(err)
	}
	b := mod("b.js", Dependency{Specifier: "./d", ResolvedID: resolved("d.js")})
	if err := g.Insert(b); err != nil {
		t.Fatal(err)
	}
	c := mod("c.js", Dependency{Specifier: "./d", ResolvedID: resolved("d.js")})
	if err := g.Insert(c); err != nil {
		t.Fatal(err)
	}

	rev := g.ReverseDependenciesOf("d.js")
	if len(rev) != 2 {
		t.Fatalf("expected 2 reverse deps of d.js, got %d", len(rev))
	}
}

func TestFinalizeDiamond(t *testing.T) {
	g := New()
	d := mod("d.js")
	b := mod("b.js", Dependency{Specifier: "./d", ResolvedID: resolved("d.js"), Order: 0})
	c := mod("c.js", Dependency{Specifier: "./d", ResolvedID: resolved("d.js"), Order: 0})
	a := mod("a.js",
		Dependency{Specifier: "./b", ResolvedID: resolved("b.js"), Order: 0},
		Dependency{Specifier: "./c", ResolvedID: resolved("c.js"), Order: 1},
	)
	for _, m := range []*Module{d, b, c, a} {
		if err := g.Insert(m); err != nil {
			t.Fatal(err)
		}
	}

	Finalize(g, []*Module{a})

	if d.ExecOrder != 0 {
		t.Errorf("d.ExecOrder = %d, want 0", d.ExecOrder)
	}
	if b.ExecOrder != 1 {
		t.Errorf("b.ExecOrder = %d, want 1", b.ExecOrder)
	}
	if c.ExecOrder != 2 {
		t.Errorf("c.ExecOrder = %d, want 2", c.ExecOrder)
	}
	if a.ExecOrder != 3 {
		t.Errorf("a.ExecOrder = %d, want 3", a.ExecOrder)
	}
}

func TestFinalizeCycleTerminates(t *testing.T) {
	g := New()
	a := mod("a.js", Dependency{Specifier: "./b", ResolvedID: resolved("b.js"), Order: 0})
	b := mod("b.js", Dependency{Specifier: "./a", ResolvedID: resolved("a.js"), Order: 0})
	for _, m := range []*Module{a, b} {
		if err := g.Insert(m); err != nil {
			t.Fatal(err)
		}
	}

	done := make(chan struct{})
	go func() {
		Finalize(g, []*Module{a})
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done

	seen := map[int]bool{a.ExecOrder: true, b.ExecOrder: true}
	if len(seen) != 2 {
		t.Fatalf("expected distinct exec orders, got a=%d b=%d", a.ExecOrder, b.ExecOrder)
	}
}
