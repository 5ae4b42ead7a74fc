package dsl_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	adhoc "github.com/fredronnv/adhoc"
	g "github.com/fredronnv/adhoc/dsl"
)

func TestUniverse_Identity(t *testing.T) {
	u := g.NewUniverse()
	s := g.String().Named("label")
	if u.List(s) != u.List(s) || u.OrNull(s) != u.OrNull(s) {
		t.Fatal("wrappers of the same child must be one node")
	}
	if u.List(s) == u.List(g.String().Named("label")) {
		t.Fatal("distinct children must give distinct wrappers")
	}
	if adhoc.ExternalName(u.OrNull(s)) != "labelOrNull" {
		t.Fatalf("or-null name %q", adhoc.ExternalName(u.OrNull(s)))
	}
	if u.List(s).Name() != "" || u.OrNull(g.String()).Name() != "" {
		t.Fatal("lists and wrappers of anonymous nodes are anonymous")
	}

	calls := 0
	build := func() adhoc.Node { calls++; return g.Integer().Named("n") }
	a := u.Named("n", build)
	b := u.Named("n", build)
	if a != b || calls != 1 {
		t.Fatalf("named instance built %d times", calls)
	}
	if got, ok := u.Lookup("n"); !ok || got != a {
		t.Fatal("lookup")
	}
	if _, ok := u.Lookup("missing"); ok {
		t.Fatal("lookup of missing key")
	}
}

func TestUniverse_Concurrent(t *testing.T) {
	u := g.NewUniverse()
	s := g.String()
	const n = 16
	got := make([]adhoc.Node, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = u.List(s)
		}()
	}
	wg.Wait()
	for _, l := range got {
		if l != got[0] {
			t.Fatal("concurrent first use produced two lists")
		}
	}
	if u.Len() != 1 {
		t.Fatalf("len %d", u.Len())
	}
}

func TestUniverse_WrapUnresolvedReference(t *testing.T) {
	u := g.NewUniverse()
	var group *g.StructNode
	self := g.Lazy(func() adhoc.Node { return group })
	early := u.OrNull(self)
	earlyList := u.List(self)
	if adhoc.Resolve(early) != nil {
		t.Fatal("wrapper of an unbuilt reference resolved")
	}
	group = g.Struct("group").
		Mandatory("id", g.Integer(), "").
		Optional("parent", early, "").
		MustBuild()

	if adhoc.Resolve(early) != u.OrNull(group) {
		t.Fatal("deferred or-null must resolve to the canonical wrapper of its target")
	}
	if adhoc.Resolve(earlyList) != u.List(group) {
		t.Fatal("deferred list must resolve to the canonical list of its target")
	}
	if u.OrNull(self) != u.OrNull(group) {
		t.Fatal("wrapping a resolved reference must give the canonical wrapper")
	}
	if n := adhoc.ExternalName(early); n != "groupOrNull" {
		t.Fatalf("name %q", n)
	}
}

func TestLazy_SelfReference(t *testing.T) {
	ctx := context.Background()
	u := g.NewUniverse()
	var group *g.StructNode
	self := g.Lazy(func() adhoc.Node { return group })

	// before the target exists the reference resolves to nothing
	if adhoc.Resolve(self) != nil || self.Name() != "" {
		t.Fatal("unbuilt reference resolved")
	}
	group = g.Struct("group").
		Mandatory("id", g.Integer(), "").
		Optional("parent", u.OrNull(self), "").
		Optional("children", u.List(self), "").
		MustBuild()

	if adhoc.Resolve(self) != adhoc.Node(group) || self.Name() != "group" {
		t.Fatal("reference did not resolve to the struct")
	}
	if u.List(self) != u.List(group) {
		t.Fatal("list of a resolved reference must be the list of its target")
	}
	r, err := adhoc.EffectiveRange(group)
	if err != nil || r != adhoc.Always {
		t.Fatalf("range %v %v", r, err)
	}

	in := map[string]any{
		"id":       1,
		"parent":   map[string]any{"id": 0, "parent": nil},
		"children": []any{map[string]any{"id": 2, "children": []any{map[string]any{"id": "x"}}}},
	}
	iss, ok := adhoc.AsIssues(group.Check(ctx, in))
	if !ok || len(iss) != 1 || iss[0].Path != "/children/0/children/0/id" {
		t.Fatalf("issues %v", iss)
	}
}

func TestLazy_UnresolvedUse(t *testing.T) {
	l := g.Lazy(func() adhoc.Node { return nil })
	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, adhoc.ErrInvalidDefinition) {
			t.Fatalf("recovered %v", err)
		}
	}()
	_ = l.Check(context.Background(), 1)
}

func TestWithLookup(t *testing.T) {
	ctx := context.Background()
	type host struct{ id int64 }
	hosts := map[int64]*host{7: {id: 7}}
	n := g.WithLookup(g.Integer().Named("host-id"),
		func(_ context.Context, v any) (any, error) {
			id, _ := adhoc.Int64(v)
			h, ok := hosts[id]
			if !ok {
				return nil, errors.New("no such host")
			}
			return h, nil
		},
		func(_ context.Context, v any) (any, error) { return v.(*host).id, nil },
	)

	v, err := adhoc.Parse(ctx, n, 7)
	if err != nil || v.(*host).id != 7 {
		t.Fatalf("lookup: %v %v", v, err)
	}
	_, err = adhoc.Parse(ctx, n, 8)
	if iss, ok := adhoc.AsIssues(err); !ok || iss[0].Code != adhoc.CodeParseError {
		t.Fatalf("missing host must be a client error, got %v", err)
	}
	if w, err := adhoc.Output(ctx, n, hosts[7]); err != nil || w != int64(7) {
		t.Fatalf("reverse: %v %v", w, err)
	}
	if adhoc.ExternalName(n) != "hostId" {
		t.Fatalf("name %q", adhoc.ExternalName(n))
	}
}
