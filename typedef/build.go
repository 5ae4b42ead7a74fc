package typedef

import (
	"context"
	"errors"
	"fmt"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/dsl"
	"github.com/fredronnv/adhoc/registry"
)

// ErrNotImplemented is returned by functions built without a handler.
var ErrNotImplemented = errors.New("function not implemented")

// Options tune Build.
type Options struct {
	StrictBooleans bool
	// Handlers maps function names (as written in the file) to handlers.
	Handlers map[string]registry.Handler
}

// Definitions is the result of building a File.
type Definitions struct {
	Types     []adhoc.Node // declaration order
	Functions []*registry.Function
	byName    map[string]adhoc.Node
}

// Type returns the node declared under name.
func (d *Definitions) Type(name string) (adhoc.Node, bool) {
	n, ok := d.byName[name]
	return n, ok
}

// Populate queues every type and function on set.
func (d *Definitions) Populate(set *registry.Set) {
	for _, t := range d.Types {
		set.AddType(t)
	}
	for _, fn := range d.Functions {
		set.AddFunction(fn)
	}
}

type builder struct {
	f    *File
	u    *dsl.Universe
	opt  Options
	defs map[string]*TypeDef
}

func key(name string) string { return "typedef:" + name }

// Build turns the declarations into nodes interned in u. References between
// declared types go through deferred nodes, so declaration order and cycles
// do not matter.
func (f *File) Build(u *dsl.Universe, opt Options) (*Definitions, error) {
	b := &builder{f: f, u: u, opt: opt, defs: make(map[string]*TypeDef, len(f.Types))}
	for i := range f.Types {
		b.defs[f.Types[i].Name] = &f.Types[i]
	}
	out := &Definitions{byName: map[string]adhoc.Node{}}
	for _, t := range f.Types {
		n, err := b.declared(t.Name)
		if err != nil {
			return nil, err
		}
		out.Types = append(out.Types, n)
		out.byName[t.Name] = n
	}
	for _, fd := range f.Functions {
		fn, err := b.function(fd)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, fn)
	}
	return out, nil
}

// declared builds (once) the node for a declared type.
func (b *builder) declared(name string) (adhoc.Node, error) {
	if n, ok := b.u.Lookup(key(name)); ok {
		return n, nil
	}
	t := b.defs[name]
	n, err := b.typeNode(t)
	if err != nil {
		return nil, fmt.Errorf("typedef: type %q: %w", name, err)
	}
	return b.u.Named(key(name), func() adhoc.Node { return n }), nil
}

func (b *builder) typeNode(t *TypeDef) (adhoc.Node, error) {
	r, explicit := t.Span.Range()
	if explicit && r.Empty() {
		return nil, fmt.Errorf("%w: %s is empty", adhoc.ErrVersionRange, r)
	}
	if t.Kind != KindStruct {
		return b.scalar(t.Kind, t.Name, t.Description, t.Constraints, r, explicit), nil
	}
	sb := dsl.Struct(t.Name).Describe(t.Description)
	for _, fd := range t.Mandatory {
		sb.Mandatory(fd.Key, b.ref(fd.Ref), fd.Description)
	}
	for _, fd := range t.Optional {
		sb.Optional(fd.Key, b.ref(fd.Ref), fd.Description)
	}
	if explicit {
		sb.Versions(r.From, r.To)
	}
	return sb.Build()
}

func (b *builder) scalar(kind, name, desc string, c Constraints, r adhoc.Range, explicit bool) adhoc.Node {
	switch kind {
	case KindString:
		s := dsl.String().Named(name).Describe(desc)
		if c.MaxLen != nil {
			s.MaxLen(*c.MaxLen)
		}
		if c.Pattern != "" {
			s.Pattern(c.Pattern)
		}
		if explicit {
			s.Versions(r.From, r.To)
		}
		return s
	case KindInteger:
		n := dsl.Integer().Named(name).Describe(desc)
		if c.Min != nil || c.Max != nil {
			lo, hi := int64(-1<<63), int64(1<<63-1)
			if c.Min != nil {
				lo = *c.Min
			}
			if c.Max != nil {
				hi = *c.Max
			}
			n.Range(lo, hi)
		}
		if explicit {
			n.Versions(r.From, r.To)
		}
		return n
	case KindBoolean:
		n := dsl.Boolean().Named(name).Describe(desc)
		if c.Strict || b.opt.StrictBooleans {
			n.Strict()
		}
		if explicit {
			n.Versions(r.From, r.To)
		}
		return n
	case KindEnum:
		n := dsl.Enum(c.Values...).Named(name).Describe(desc)
		if explicit {
			n.Versions(r.From, r.To)
		}
		return n
	default:
		return dsl.Null().Named(name).Describe(desc)
	}
}

// ref resolves a reference. Declared types are reached through a deferred
// node that resolves once the target has been built; wrappers around them
// are created at that point, so they are interned by the target itself.
func (b *builder) ref(r Ref) adhoc.Node {
	if builtins[r.Type] {
		return b.wrap(b.scalar(r.Type, "", "", r.Constraints, adhoc.Range{}, false), r)
	}
	name := r.Type
	return dsl.Lazy(func() adhoc.Node {
		n, ok := b.u.Lookup(key(name))
		if !ok {
			return nil
		}
		return b.wrap(n, r)
	})
}

func (b *builder) wrap(n adhoc.Node, r Ref) adhoc.Node {
	if r.List {
		n = b.u.List(n)
	}
	if r.Nullable {
		n = b.u.OrNull(n)
	}
	return n
}

func (b *builder) function(fd FunctionDef) (*registry.Function, error) {
	h := b.opt.Handlers[fd.Name]
	if h == nil {
		name := fd.Name
		h = func(context.Context, []any) (any, error) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotImplemented)
		}
	}
	fb := registry.Func(fd.Name, h).Describe(fd.Description)
	for _, p := range fd.Params {
		node, err := b.resolved(p.Ref)
		if err != nil {
			return nil, err
		}
		fb.Param(p.Name, node, p.Description)
	}
	if fd.Returns != nil {
		node, err := b.resolved(*fd.Returns)
		if err != nil {
			return nil, err
		}
		fb.Returns(node)
	}
	if r, ok := fd.Span.Range(); ok {
		fb.Versions(r.From, r.To)
	}
	fn, err := fb.Build()
	if err != nil {
		return nil, fmt.Errorf("typedef: %w", err)
	}
	return fn, nil
}

// resolved is ref for use after every declared type exists.
func (b *builder) resolved(r Ref) (adhoc.Node, error) {
	if builtins[r.Type] {
		return b.ref(r), nil
	}
	n, err := b.declared(r.Type)
	if err != nil {
		return nil, err
	}
	return b.wrap(n, r), nil
}
