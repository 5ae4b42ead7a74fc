package adhoc_test

import (
	"errors"
	"fmt"
	"testing"

	adhoc "github.com/fredronnv/adhoc"
	g "github.com/fredronnv/adhoc/dsl"
)

func TestRange(t *testing.T) {
	r := adhoc.Versions(2, 5)
	if !r.Covers(2) || !r.Covers(5) || r.Covers(6) || r.Empty() {
		t.Fatalf("%v", r)
	}
	if got := r.Intersect(adhoc.Since(4)); got != adhoc.Versions(4, 5) {
		t.Fatalf("intersect %v", got)
	}
	if !r.Intersect(adhoc.Until(1)).Empty() {
		t.Fatal("disjoint ranges must intersect to empty")
	}
	if adhoc.Always.String() != "[0..]" || r.String() != "[2..5]" {
		t.Fatalf("%s %s", adhoc.Always, r)
	}
}

func TestClamp(t *testing.T) {
	computed := adhoc.Versions(1, 9)
	if r, err := adhoc.Clamp(computed, adhoc.Range{}, false); err != nil || r != computed {
		t.Fatalf("no override: %v %v", r, err)
	}
	if r, err := adhoc.Clamp(computed, adhoc.Versions(3, 4), true); err != nil || r != adhoc.Versions(3, 4) {
		t.Fatalf("narrow: %v %v", r, err)
	}
	for _, over := range []adhoc.Range{adhoc.Versions(0, 4), adhoc.Versions(3, 10), adhoc.Versions(4, 3)} {
		if _, err := adhoc.Clamp(computed, over, true); !errors.Is(err, adhoc.ErrVersionRange) {
			t.Fatalf("override %v: %v", over, err)
		}
	}
	if _, err := adhoc.Clamp(adhoc.Versions(5, 4), adhoc.Range{}, false); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("empty computed: %v", err)
	}
}

func TestEffectiveRange(t *testing.T) {
	u := g.NewUniverse()
	var node *g.StructNode
	self := g.Lazy(func() adhoc.Node { return node })
	node = g.Struct("node").
		Mandatory("a", g.String().Versions(1, 8), "").
		Optional("b", u.List(g.Integer().Versions(3, adhoc.MaxVersion)), "").
		Optional("next", u.OrNull(self), "").
		MustBuild()

	r, err := adhoc.EffectiveRange(node)
	if err != nil || r != adhoc.Versions(3, 8) {
		t.Fatalf("range %v err %v", r, err)
	}

	// a still-unresolved reference is an error once construction is over
	dangling := g.Struct("d").Optional("x", g.Lazy(func() adhoc.Node { return nil }), "").MustBuild()
	if _, err := adhoc.EffectiveRange(dangling); !errors.Is(err, adhoc.ErrInvalidDefinition) {
		t.Fatalf("dangling: %v", err)
	}
	if r, err := adhoc.KnownRange(dangling); err != nil || r != adhoc.Always {
		t.Fatalf("known range: %v %v", r, err)
	}
}

// denseCycle builds n structs where every struct refers to every struct,
// itself included. The last one also carries a field limited to versions 2-7.
func denseCycle(n int) []*g.StructNode {
	nodes := make([]*g.StructNode, n)
	for i := range n {
		b := g.Struct(fmt.Sprintf("node%d", i))
		for j := range n {
			b = b.Optional(fmt.Sprintf("to%d", j), g.Lazy(func() adhoc.Node { return nodes[j] }), "")
		}
		if i == n-1 {
			b = b.Optional("limited", g.Integer().Versions(2, 7), "")
		}
		nodes[i] = b.MustBuild()
	}
	return nodes
}

func TestEffectiveRange_DenseCycle(t *testing.T) {
	nodes := denseCycle(11)
	for i, n := range nodes {
		r, err := adhoc.EffectiveRange(n)
		if err != nil || r != adhoc.Versions(2, 7) {
			t.Fatalf("node%d: range %v err %v", i, r, err)
		}
	}
}
