package adhoc

import (
	"context"
	"fmt"
)

// Node is one unit of the type system. Inbound values go through Check,
// Convert and Lookup in that order (see Parse); outbound values go through
// Output.
type Node interface {
	// Name is the canonical internal name; "" for anonymous nodes. The
	// external form is Capsify(Name()).
	Name() string
	Description() string
	// Explicit returns the explicit version override, if any.
	Explicit() (Range, bool)

	// Check reports client input errors as Issues.
	Check(ctx context.Context, v any) error
	// Convert normalizes nested values without resolving the top-level value.
	Convert(ctx context.Context, v any) (any, error)
	// Lookup turns a converted wire value into its internal representation.
	Lookup(ctx context.Context, v any) (any, error)
	// Output re-checks an internal value and returns its wire form. Any
	// failure is an InternalError.
	Output(ctx context.Context, v any) (any, error)

	// Subtypes enumerates direct children for schema generation and
	// registry closure.
	Subtypes() []Subtype
}

// Subtype is a (key, child) pair. Key is the struct key, or "" for the single
// child of a wrapper node.
type Subtype struct {
	Key  string
	Node Node
}

// Resolver is implemented by nodes that stand in for another node, such as
// deferred references used to build recursive structs.
type Resolver interface {
	Resolve() Node
}

// Resolve follows Resolver indirections until it reaches a concrete node.
func Resolve(n Node) Node {
	for i := 0; n != nil && i < 64; i++ {
		r, ok := n.(Resolver)
		if !ok {
			return n
		}
		n = r.Resolve()
	}
	return n
}

// ExternalName returns the capsified external name of n, or "" when n is
// anonymous.
func ExternalName(n Node) string {
	if n = Resolve(n); n == nil {
		return ""
	}
	return Capsify(n.Name())
}

// DisplayName is a human-readable name for diagnostics.
func DisplayName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	if name := ExternalName(n); name != "" {
		return name
	}
	return fmt.Sprintf("<%T>", Resolve(n))
}

// Parse runs the inbound pipeline: Check, then Convert, then Lookup.
func Parse(ctx context.Context, n Node, raw any) (any, error) {
	if n == nil {
		return nil, Issues{Issue{Path: "/", Code: CodeParseError, Message: "nil node"}}
	}
	if err := n.Check(ctx, raw); err != nil {
		return nil, err
	}
	v, err := n.Convert(ctx, raw)
	if err != nil {
		return nil, err
	}
	return n.Lookup(ctx, v)
}

// Output runs the outbound pipeline and guarantees that any failure is
// reported as an InternalError.
func Output(ctx context.Context, n Node, v any) (any, error) {
	if n == nil {
		return nil, &InternalError{Cause: fmt.Errorf("%w: nil node", ErrInvalidDefinition)}
	}
	out, err := n.Output(ctx, v)
	if err != nil {
		return nil, AsInternal(n, err)
	}
	return out, nil
}

// AsInternal converts err into an InternalError attributed to n. Issues are
// kept as the cause so the full detail reaches the logs.
func AsInternal(n Node, err error) error {
	if err == nil {
		return nil
	}
	if IsInternal(err) {
		return err
	}
	path := "/"
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		path = iss[0].Path
	}
	return &InternalError{Node: DisplayName(n), Path: path, Cause: err}
}

// ---- Parse-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that stops checking at the first
// issue.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current check should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
