// Package template derives the per-version structs that describe a business
// object over the wire: which attributes to return (data template), the
// returned data itself, an update request and search options.
//
// Objects are declared as tables of attributes with accessor functions; no
// reflection over Go structs is involved.
package template

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/dsl"
)

// LimitKey is the search option bounding the number of results.
const LimitKey = "_limit"

// Getter reads an attribute from an instance.
type Getter func(ctx context.Context, instance any) (any, error)

// Setter writes an attribute on an instance.
type Setter func(ctx context.Context, instance any, v any) error

// Attribute is one row of an Object table.
type Attribute struct {
	Name        string
	Node        adhoc.Node
	Description string
	Get         Getter
	Set         Setter
	// Read and Write bound the versions in which the attribute can be read
	// or written. nil means every version the node exists in. An attribute
	// without Get is never readable; without Set never writable.
	Read   *adhoc.Range
	Write  *adhoc.Range
	Search bool
}

// Object is a business object table.
type Object struct {
	Name        string
	Description string
	Attributes  []Attribute
}

func capability(fn bool, r *adhoc.Range, node adhoc.Node) (adhoc.Range, bool) {
	if !fn {
		return adhoc.Range{}, false
	}
	nr, err := adhoc.KnownRange(node)
	if err != nil {
		return adhoc.Range{}, false
	}
	if r == nil {
		return nr, true
	}
	return nr.Intersect(*r), true
}

// Readable reports whether the attribute can be read in version v.
func (a Attribute) Readable(v int) bool {
	r, ok := capability(a.Get != nil, a.Read, a.Node)
	return ok && r.Covers(v)
}

// Writable reports whether the attribute can be written in version v.
func (a Attribute) Writable(v int) bool {
	r, ok := capability(a.Set != nil, a.Write, a.Node)
	return ok && r.Covers(v)
}

// Validate checks the table: unique non-empty names, nodes present, and
// read/write ranges that are non-empty and inside the node's own range.
func (o *Object) Validate() error {
	var errs []error
	if o.Name == "" {
		errs = append(errs, fmt.Errorf("%w: object without name", adhoc.ErrInvalidDefinition))
	}
	seen := map[string]bool{}
	for _, a := range o.Attributes {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("%w: attribute without name", adhoc.ErrInvalidDefinition))
			continue
		case a.Name == LimitKey || seen[a.Name]:
			errs = append(errs, fmt.Errorf("%w: attribute %q declared twice or reserved", adhoc.ErrInvalidDefinition, a.Name))
			continue
		case a.Node == nil:
			errs = append(errs, fmt.Errorf("%w: attribute %q has no node", adhoc.ErrInvalidDefinition, a.Name))
			continue
		}
		seen[a.Name] = true
		nr, err := adhoc.KnownRange(a.Node)
		if err != nil {
			errs = append(errs, fmt.Errorf("attribute %q: %w", a.Name, err))
			continue
		}
		for _, c := range []struct {
			what string
			has  bool
			r    *adhoc.Range
		}{{"read", a.Get != nil, a.Read}, {"write", a.Set != nil, a.Write}} {
			if c.r == nil {
				continue
			}
			if !c.has {
				errs = append(errs, fmt.Errorf("%w: attribute %q has a %s range but no accessor", adhoc.ErrInvalidDefinition, a.Name, c.what))
				continue
			}
			if c.r.Empty() || !nr.Contains(*c.r) {
				errs = append(errs, fmt.Errorf("%w: attribute %q %s range %s outside %s", adhoc.ErrVersionRange, a.Name, c.what, *c.r, nr))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("template: object %q: %w", o.Name, errors.Join(errs...))
	}
	return nil
}

func (o *Object) attribute(name string) (Attribute, bool) {
	for _, a := range o.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Builder derives per-version structs and interns them in a Universe, so a
// given (object, kind, version) is always the same node.
type Builder struct {
	u *dsl.Universe
}

// New returns a Builder interning into u.
func New(u *dsl.Universe) *Builder { return &Builder{u: u} }

type kind struct {
	suffix  string
	include func(a Attribute, v int) bool
	node    func(u *dsl.Universe, a Attribute) adhoc.Node
	extra   func(sb *dsl.StructBuilder)
}

var (
	dataTemplateKind = kind{
		suffix:  "data-template",
		include: Attribute.Readable,
		node:    func(*dsl.Universe, Attribute) adhoc.Node { return dsl.Boolean() },
	}
	dataKind = kind{
		suffix:  "data",
		include: Attribute.Readable,
		node:    func(_ *dsl.Universe, a Attribute) adhoc.Node { return a.Node },
	}
	updateKind = kind{
		suffix:  "update",
		include: Attribute.Writable,
		node:    func(_ *dsl.Universe, a Attribute) adhoc.Node { return a.Node },
	}
	searchKind = kind{
		suffix:  "search-options",
		include: func(a Attribute, v int) bool { return a.Search && a.Readable(v) },
		node:    func(u *dsl.Universe, a Attribute) adhoc.Node { return u.OrNull(a.Node) },
		extra: func(sb *dsl.StructBuilder) {
			sb.Optional(LimitKey, dsl.Integer().Range(0, math.MaxInt32), "maximum number of results")
		},
	}
)

func (b *Builder) derive(o *Object, v int, k kind) (*dsl.StructNode, error) {
	name := o.Name + "-" + k.suffix
	key := name + "@" + strconv.Itoa(v)
	if n, ok := b.u.Lookup(key); ok {
		return n.(*dsl.StructNode), nil
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	sb := dsl.Struct(name).Describe(o.Description)
	n := 0
	for _, a := range o.Attributes {
		if !k.include(a, v) {
			continue
		}
		sb.Optional(a.Name, k.node(b.u, a), a.Description)
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("template: object %q has no %s attributes in version %d: %w", o.Name, k.suffix, v, adhoc.ErrVersionRange)
	}
	if k.extra != nil {
		k.extra(sb)
	}
	s, err := sb.Versions(v, v).Build()
	if err != nil {
		return nil, err
	}
	return b.u.Named(key, func() adhoc.Node { return s }).(*dsl.StructNode), nil
}

// DataTemplate returns the struct of optional booleans selecting which
// attributes readable in v to return.
func (b *Builder) DataTemplate(o *Object, v int) (*dsl.StructNode, error) {
	return b.derive(o, v, dataTemplateKind)
}

// TemplatedData returns the struct carrying the readable attributes of v.
func (b *Builder) TemplatedData(o *Object, v int) (*dsl.StructNode, error) {
	return b.derive(o, v, dataKind)
}

// Update returns the struct of optional attributes writable in v.
func (b *Builder) Update(o *Object, v int) (*dsl.StructNode, error) {
	return b.derive(o, v, updateKind)
}

// SearchOptions returns the struct of nullable searchable attributes plus
// the _limit option.
func (b *Builder) SearchOptions(o *Object, v int) (*dsl.StructNode, error) {
	return b.derive(o, v, searchKind)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render reads the attributes selected by tmpl (a parsed data template) from
// instance. The result is internal data for the TemplatedData struct.
func Render(ctx context.Context, o *Object, v int, tmpl map[string]any, instance any) (map[string]any, error) {
	out := make(map[string]any, len(tmpl))
	for _, k := range sortedKeys(tmpl) {
		if !adhoc.Truth(tmpl[k]) {
			continue
		}
		a, ok := o.attribute(k)
		if !ok {
			return nil, fmt.Errorf("template: %s: unknown attribute %q: %w", o.Name, k, adhoc.ErrInvalidDefinition)
		}
		if !a.Readable(v) {
			return nil, fmt.Errorf("template: %s.%s not readable in version %d: %w", o.Name, k, v, adhoc.ErrVersionRange)
		}
		val, err := a.Get(ctx, instance)
		if err != nil {
			return nil, fmt.Errorf("template: %s.%s: %w", o.Name, k, err)
		}
		out[k] = val
	}
	return out, nil
}

// Apply writes every attribute present in update (a parsed Update struct) on
// instance, in key order.
func Apply(ctx context.Context, o *Object, v int, update map[string]any, instance any) error {
	for _, k := range sortedKeys(update) {
		a, ok := o.attribute(k)
		if !ok {
			return fmt.Errorf("template: %s: unknown attribute %q: %w", o.Name, k, adhoc.ErrInvalidDefinition)
		}
		if !a.Writable(v) {
			return fmt.Errorf("template: %s.%s not writable in version %d: %w", o.Name, k, v, adhoc.ErrVersionRange)
		}
		if err := a.Set(ctx, instance, update[k]); err != nil {
			return fmt.Errorf("template: %s.%s: %w", o.Name, k, err)
		}
	}
	return nil
}

// Search keeps the instances whose attributes equal every non-null search
// option, stopping at _limit results when one is given.
func Search(ctx context.Context, o *Object, v int, opts map[string]any, instances []any) ([]any, error) {
	limit := -1
	if raw, ok := opts[LimitKey]; ok && raw != nil {
		n, ok := adhoc.Int64(raw)
		if !ok || n < 0 {
			return nil, fmt.Errorf("template: %s: bad %s %v: %w", o.Name, LimitKey, raw, adhoc.ErrInvalidDefinition)
		}
		limit = int(n)
	}
	var filters []Attribute
	for _, k := range sortedKeys(opts) {
		if k == LimitKey || opts[k] == nil {
			continue
		}
		a, ok := o.attribute(k)
		if !ok || !a.Search {
			return nil, fmt.Errorf("template: %s: %q is not searchable: %w", o.Name, k, adhoc.ErrInvalidDefinition)
		}
		if !a.Readable(v) {
			return nil, fmt.Errorf("template: %s.%s not readable in version %d: %w", o.Name, k, v, adhoc.ErrVersionRange)
		}
		filters = append(filters, a)
	}
	out := []any{}
	for _, inst := range instances {
		if limit >= 0 && len(out) >= limit {
			break
		}
		match := true
		for _, a := range filters {
			got, err := a.Get(ctx, inst)
			if err != nil {
				return nil, fmt.Errorf("template: %s.%s: %w", o.Name, a.Name, err)
			}
			if !equal(got, opts[a.Name]) {
				match = false
				break
			}
		}
		if match {
			out = append(out, inst)
		}
	}
	return out, nil
}

// equal compares attribute values, treating all integer representations
// alike.
func equal(a, b any) bool {
	if x, ok := adhoc.Int64(a); ok {
		y, ok := adhoc.Int64(b)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}
