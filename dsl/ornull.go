package dsl

import (
	"context"

	adhoc "github.com/fredronnv/adhoc"
)

// NullableSuffix is appended to the child's internal name to name an OrNull
// node; externally "foo" becomes "fooOrNull".
const NullableSuffix = "-or-null"

// OrNullNode accepts either a value of its child node or nil. Obtain it from
// a Universe.
type OrNullNode struct {
	meta
	child adhoc.Node
}

var _ adhoc.Node = (*OrNullNode)(nil)

func newOrNull(child adhoc.Node) *OrNullNode {
	return &OrNullNode{child: child}
}

// Child returns the wrapped node.
func (o *OrNullNode) Child() adhoc.Node { return o.child }

// Name derives from the child's name; anonymous children give anonymous
// wrappers.
func (o *OrNullNode) Name() string {
	c := adhoc.Resolve(o.child)
	if c == nil || c.Name() == "" {
		return ""
	}
	return c.Name() + NullableSuffix
}

func (o *OrNullNode) Description() string {
	return adhoc.DisplayName(o.child) + " or null"
}

func (o *OrNullNode) Subtypes() []adhoc.Subtype {
	return []adhoc.Subtype{{Node: o.child}}
}

func (o *OrNullNode) Check(ctx context.Context, v any) error {
	if v == nil {
		return nil
	}
	return o.child.Check(ctx, v)
}

func (o *OrNullNode) Convert(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return o.child.Convert(ctx, v)
}

func (o *OrNullNode) Lookup(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return o.child.Lookup(ctx, v)
}

func (o *OrNullNode) Output(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return o.child.Output(ctx, v)
}
