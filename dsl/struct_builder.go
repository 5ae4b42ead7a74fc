package dsl

import (
	"errors"
	"fmt"

	adhoc "github.com/fredronnv/adhoc"
)

// StructBuilder assembles a StructNode. Every field is declared before Build;
// the resulting node is immutable.
type StructBuilder struct {
	name        string
	desc        string
	mandatory   []Field
	optional    []Field
	seen        map[string]bool
	explicit    adhoc.Range
	hasExplicit bool
	errs        []error
}

// Struct starts a struct declaration. An empty name declares an anonymous
// struct (never registered by name).
func Struct(name string) *StructBuilder {
	return &StructBuilder{name: name, seen: map[string]bool{}}
}

// Describe sets the description.
func (b *StructBuilder) Describe(desc string) *StructBuilder { b.desc = desc; return b }

// Mandatory declares a key that every value must carry.
func (b *StructBuilder) Mandatory(key string, n adhoc.Node, desc string) *StructBuilder {
	return b.add(Field{Key: key, Node: n, Description: desc, Mandatory: true})
}

// Optional declares a key that values may carry.
func (b *StructBuilder) Optional(key string, n adhoc.Node, desc string) *StructBuilder {
	return b.add(Field{Key: key, Node: n, Description: desc})
}

// Versions narrows the struct to the inclusive range [from, to]. The override
// must lie inside the intersection of the fields' ranges.
func (b *StructBuilder) Versions(from, to int) *StructBuilder {
	b.explicit, b.hasExplicit = adhoc.Versions(from, to), true
	return b
}

// Since narrows the struct to versions from v onwards.
func (b *StructBuilder) Since(v int) *StructBuilder { return b.Versions(v, adhoc.MaxVersion) }

func (b *StructBuilder) add(f Field) *StructBuilder {
	switch {
	case f.Key == "":
		b.errs = append(b.errs, errors.New("empty key"))
		return b
	case b.seen[f.Key]:
		b.errs = append(b.errs, fmt.Errorf("key %q declared twice", f.Key))
		return b
	case f.Node == nil:
		b.errs = append(b.errs, fmt.Errorf("key %q has no node", f.Key))
		return b
	}
	b.seen[f.Key] = true
	if f.Mandatory {
		b.mandatory = append(b.mandatory, f)
	} else {
		b.optional = append(b.optional, f)
	}
	return b
}

// Build validates the declaration and returns the node. Children that are
// deferred references not yet resolvable are skipped by the version check
// here and validated again at registration.
func (b *StructBuilder) Build() (*StructNode, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("dsl: struct %q: %w: %w", b.name, adhoc.ErrInvalidDefinition, errors.Join(b.errs...))
	}
	s := &StructNode{
		meta:      meta{name: b.name, desc: b.desc, explicit: b.explicit, hasExplicit: b.hasExplicit},
		mandatory: append([]Field(nil), b.mandatory...),
		optional:  append([]Field(nil), b.optional...),
		index:     make(map[string]int, len(b.mandatory)+len(b.optional)),
	}
	s.fields = append(append(make([]Field, 0, len(s.mandatory)+len(s.optional)), s.mandatory...), s.optional...)
	for i, f := range s.fields {
		s.index[f.Key] = i
	}
	known, err := adhoc.KnownRange(s)
	if err != nil {
		return nil, fmt.Errorf("dsl: struct %q: %w", b.name, err)
	}
	s.known = known
	return s, nil
}

// MustBuild is Build that panics on error. Use it for declarations made at
// start-up.
func (b *StructBuilder) MustBuild() *StructNode {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
