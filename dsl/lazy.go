package dsl

import (
	"context"
	"fmt"
	"sync/atomic"

	adhoc "github.com/fredronnv/adhoc"
)

// LazyNode is a deferred reference to a node that may not exist yet. It is
// how a struct refers to itself, directly or through a cycle:
//
//	var group *dsl.StructNode
//	group = dsl.Struct("group").
//		Optional("parent", dsl.Lazy(func() adhoc.Node { return group }), "").
//		MustBuild()
//
// Once the target resolves it is cached; until then Resolve returns nil.
type LazyNode struct {
	fn       func() adhoc.Node
	resolved atomic.Pointer[adhoc.Node]
}

var (
	_ adhoc.Node     = (*LazyNode)(nil)
	_ adhoc.Resolver = (*LazyNode)(nil)
)

// Lazy returns a deferred reference to the node returned by fn.
func Lazy(fn func() adhoc.Node) *LazyNode { return &LazyNode{fn: fn} }

// Resolve returns the target node, or nil if it is not available yet.
func (l *LazyNode) Resolve() adhoc.Node {
	if p := l.resolved.Load(); p != nil {
		return *p
	}
	n := l.fn()
	if isNilNode(n) {
		return nil
	}
	l.resolved.Store(&n)
	return n
}

func (l *LazyNode) target() adhoc.Node {
	n := adhoc.Resolve(l)
	if n == nil {
		panic(fmt.Errorf("dsl: %w: deferred node used before it was built", adhoc.ErrInvalidDefinition))
	}
	return n
}

func (l *LazyNode) Name() string {
	if n := adhoc.Resolve(l); n != nil {
		return n.Name()
	}
	return ""
}

func (l *LazyNode) Description() string {
	if n := adhoc.Resolve(l); n != nil {
		return n.Description()
	}
	return ""
}

func (l *LazyNode) Explicit() (adhoc.Range, bool) {
	if n := adhoc.Resolve(l); n != nil {
		return n.Explicit()
	}
	return adhoc.Range{}, false
}

func (l *LazyNode) Check(ctx context.Context, v any) error { return l.target().Check(ctx, v) }

func (l *LazyNode) Convert(ctx context.Context, v any) (any, error) {
	return l.target().Convert(ctx, v)
}

func (l *LazyNode) Lookup(ctx context.Context, v any) (any, error) {
	return l.target().Lookup(ctx, v)
}

func (l *LazyNode) Output(ctx context.Context, v any) (any, error) {
	return l.target().Output(ctx, v)
}

func (l *LazyNode) Subtypes() []adhoc.Subtype {
	if n := adhoc.Resolve(l); n != nil {
		return n.Subtypes()
	}
	return nil
}
