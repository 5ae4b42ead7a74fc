package dsl

import (
	"context"

	adhoc "github.com/fredronnv/adhoc"
)

// LookupFunc resolves a converted wire value into an internal value, for
// example an identifier into a live business object. Errors returned as
// adhoc.Issues are client errors; anything else is reported as a parse
// error at the value's path.
type LookupFunc func(ctx context.Context, v any) (any, error)

// ReverseFunc maps an internal value back to the wire value the wrapped node
// checks on output.
type ReverseFunc func(ctx context.Context, v any) (any, error)

// LookupNode decorates a node with a domain-specific lookup.
type LookupNode struct {
	adhoc.Node
	lookup  LookupFunc
	reverse ReverseFunc
}

// WithLookup installs lookup on n. reverse may be nil when internal values
// are already wire-safe.
func WithLookup(n adhoc.Node, lookup LookupFunc, reverse ReverseFunc) *LookupNode {
	return &LookupNode{Node: n, lookup: lookup, reverse: reverse}
}

// Inner returns the decorated node.
func (l *LookupNode) Inner() adhoc.Node { return l.Node }

func (l *LookupNode) Lookup(ctx context.Context, v any) (any, error) {
	base, err := l.Node.Lookup(ctx, v)
	if err != nil {
		return nil, err
	}
	if l.lookup == nil {
		return base, nil
	}
	out, err := l.lookup(ctx, base)
	if err != nil {
		if adhoc.IsInternal(err) {
			return nil, err
		}
		if _, ok := adhoc.AsIssues(err); ok {
			return nil, err
		}
		return nil, adhoc.Issues{adhoc.Issue{Path: "/", Code: adhoc.CodeParseError, Message: err.Error(), Cause: err}}
	}
	return out, nil
}

func (l *LookupNode) Output(ctx context.Context, v any) (any, error) {
	if l.reverse != nil {
		w, err := l.reverse(ctx, v)
		if err != nil {
			return nil, adhoc.AsInternal(l, err)
		}
		v = w
	}
	return l.Node.Output(ctx, v)
}
