package registry

import (
	"context"
	"errors"
	"fmt"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/dsl"
)

// Handler implements a public function. args are the parsed (internal)
// parameter values in declaration order; the result is passed to Output of
// the function's return node.
type Handler func(ctx context.Context, args []any) (any, error)

// Param is one positional parameter.
type Param struct {
	Name        string
	Node        adhoc.Node
	Description string
}

// Function describes a public function. It is immutable once built.
type Function struct {
	name        string
	desc        string
	params      []Param
	returns     adhoc.Node
	handler     Handler
	explicit    adhoc.Range
	hasExplicit bool
}

func (f *Function) Name() string         { return f.name }
func (f *Function) ExternalName() string { return adhoc.Capsify(f.name) }
func (f *Function) Description() string  { return f.desc }
func (f *Function) Params() []Param      { return append([]Param(nil), f.params...) }
func (f *Function) Returns() adhoc.Node  { return f.returns }
func (f *Function) Handler() Handler     { return f.handler }

// Explicit returns the explicit version override, if any.
func (f *Function) Explicit() (adhoc.Range, bool) { return f.explicit, f.hasExplicit }

// EffectiveRange is the intersection of the parameter and return ranges,
// clamped by the function's own override.
func (f *Function) EffectiveRange() (adhoc.Range, error) {
	return f.rangeOf(adhoc.EffectiveRange)
}

func (f *Function) rangeOf(of func(adhoc.Node) (adhoc.Range, error)) (adhoc.Range, error) {
	computed := adhoc.Always
	nodes := make([]adhoc.Node, 0, len(f.params)+1)
	for _, p := range f.params {
		nodes = append(nodes, p.Node)
	}
	nodes = append(nodes, f.returns)
	for _, n := range nodes {
		r, err := of(n)
		if err != nil {
			return adhoc.Range{}, err
		}
		computed = computed.Intersect(r)
	}
	return adhoc.Clamp(computed, f.explicit, f.hasExplicit)
}

// Covers reports whether the function is valid in version v.
func (f *Function) Covers(v int) bool {
	r, err := f.EffectiveRange()
	return err == nil && r.Covers(v)
}

// FunctionBuilder assembles a Function.
type FunctionBuilder struct {
	fn   Function
	seen map[string]bool
	errs []error
}

// Func starts a function declaration.
func Func(name string, h Handler) *FunctionBuilder {
	return &FunctionBuilder{fn: Function{name: name, handler: h}, seen: map[string]bool{}}
}

// Describe sets the description.
func (b *FunctionBuilder) Describe(desc string) *FunctionBuilder { b.fn.desc = desc; return b }

// Param appends a positional parameter.
func (b *FunctionBuilder) Param(name string, n adhoc.Node, desc string) *FunctionBuilder {
	switch {
	case name == "":
		b.errs = append(b.errs, errors.New("empty parameter name"))
	case b.seen[name]:
		b.errs = append(b.errs, fmt.Errorf("parameter %q declared twice", name))
	case n == nil:
		b.errs = append(b.errs, fmt.Errorf("parameter %q has no node", name))
	default:
		b.seen[name] = true
		b.fn.params = append(b.fn.params, Param{Name: name, Node: n, Description: desc})
	}
	return b
}

// Returns sets the return node. Functions without one return null.
func (b *FunctionBuilder) Returns(n adhoc.Node) *FunctionBuilder { b.fn.returns = n; return b }

// Versions narrows the function to the inclusive range [from, to].
func (b *FunctionBuilder) Versions(from, to int) *FunctionBuilder {
	b.fn.explicit, b.fn.hasExplicit = adhoc.Versions(from, to), true
	return b
}

// Since narrows the function to versions from v onwards.
func (b *FunctionBuilder) Since(v int) *FunctionBuilder { return b.Versions(v, adhoc.MaxVersion) }

// Build validates the declaration.
func (b *FunctionBuilder) Build() (*Function, error) {
	if b.fn.name == "" {
		b.errs = append(b.errs, errors.New("empty function name"))
	}
	if b.fn.handler == nil {
		b.errs = append(b.errs, errors.New("no handler"))
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("registry: function %q: %w: %w", b.fn.name, adhoc.ErrInvalidDefinition, errors.Join(b.errs...))
	}
	fn := b.fn
	fn.params = append([]Param(nil), b.fn.params...)
	if fn.returns == nil {
		fn.returns = dsl.Null()
	}
	if _, err := fn.rangeOf(adhoc.KnownRange); err != nil {
		return nil, fmt.Errorf("registry: function %q: %w", fn.name, err)
	}
	return &fn, nil
}

// MustBuild is Build that panics on error.
func (b *FunctionBuilder) MustBuild() *Function {
	fn, err := b.Build()
	if err != nil {
		panic(err)
	}
	return fn
}
