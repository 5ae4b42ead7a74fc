package dsl

import (
	"context"
	"sort"
	"strings"

	adhoc "github.com/fredronnv/adhoc"
)

// Field is one declared struct key.
type Field struct {
	Key         string
	Node        adhoc.Node
	Description string
	Mandatory   bool
}

// StructNode is a composite node with named mandatory and optional fields.
// Both field lists are fixed when the builder finishes and never change
// afterwards.
type StructNode struct {
	meta
	mandatory []Field
	optional  []Field
	index     map[string]int // key -> position in fields
	fields    []Field        // mandatory first, then optional, declaration order
	known     adhoc.Range    // range computed at build time from resolvable children
}

var _ adhoc.Node = (*StructNode)(nil)

// Fields returns every declared field, mandatory ones first.
func (s *StructNode) Fields() []Field { return append([]Field(nil), s.fields...) }

// MandatoryFields returns the mandatory fields in declaration order.
func (s *StructNode) MandatoryFields() []Field { return append([]Field(nil), s.mandatory...) }

// OptionalFields returns the optional fields in declaration order.
func (s *StructNode) OptionalFields() []Field { return append([]Field(nil), s.optional...) }

// Field looks up a declared key.
func (s *StructNode) Field(key string) (Field, bool) {
	i, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// KnownRange is the version range computed when the struct was built.
func (s *StructNode) KnownRange() adhoc.Range { return s.known }

func (s *StructNode) Subtypes() []adhoc.Subtype {
	out := make([]adhoc.Subtype, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, adhoc.Subtype{Key: f.Key, Node: f.Node})
	}
	return out
}

// unknownKeys returns supplied keys that are not declared, sorted.
func (s *StructNode) unknownKeys(src map[string]any) []string {
	var uks []string
	for k := range src {
		if _, known := s.index[k]; !known {
			uks = append(uks, k)
		}
	}
	sort.Strings(uks)
	return uks
}

func (s *StructNode) Check(ctx context.Context, v any) error {
	src, ok := v.(map[string]any)
	if !ok {
		return invalidType("struct", v)
	}
	var iss adhoc.Issues
	for _, f := range s.fields {
		val, present := src[f.Key]
		if !present {
			if f.Mandatory {
				iss = adhoc.AppendIssues(iss, adhoc.Root().Field(f.Key).Issue(adhoc.CodeRequired, "key", f.Key))
				if adhoc.IsFailFast(ctx) {
					return iss
				}
			}
			continue
		}
		if err := f.Node.Check(ctx, val); err != nil {
			err = adhoc.RebaseErr(err, f.Key)
			child, ok := adhoc.AsIssues(err)
			if !ok || adhoc.IsInternal(err) {
				return err
			}
			iss = adhoc.AppendIssues(iss, child...)
			if adhoc.IsFailFast(ctx) {
				return iss
			}
		}
	}
	for _, k := range s.unknownKeys(src) {
		iss = adhoc.AppendIssues(iss, adhoc.Root().Field(k).Issue(adhoc.CodeUnknownKey, "key", k))
		if adhoc.IsFailFast(ctx) {
			break
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// Convert runs convert-then-lookup on every supplied key and returns a new
// map. The struct itself is not looked up.
func (s *StructNode) Convert(ctx context.Context, v any) (any, error) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType("struct", v)
	}
	out := make(map[string]any, len(src))
	for _, f := range s.fields {
		val, present := src[f.Key]
		if !present {
			continue
		}
		cv, err := f.Node.Convert(ctx, val)
		if err != nil {
			return nil, adhoc.RebaseErr(err, f.Key)
		}
		lv, err := f.Node.Lookup(ctx, cv)
		if err != nil {
			return nil, adhoc.RebaseErr(err, f.Key)
		}
		out[f.Key] = lv
	}
	return out, nil
}

func (s *StructNode) Lookup(ctx context.Context, v any) (any, error) { return v, nil }

// Output consumes the mandatory keys, then the optional ones, and rejects
// whatever remains, so the emitted map matches the declaration exactly.
func (s *StructNode) Output(ctx context.Context, v any) (any, error) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, adhoc.Internalf(adhoc.DisplayName(s), "/", "expected struct value, got %T", v)
	}
	remaining := make(map[string]any, len(src))
	for k, val := range src {
		remaining[k] = val
	}
	out := make(map[string]any, len(src))
	for _, f := range s.mandatory {
		val, present := remaining[f.Key]
		if !present {
			return nil, adhoc.Internalf(adhoc.DisplayName(s), adhoc.Root().Field(f.Key).Pointer(), "mandatory key %q missing from output", f.Key)
		}
		ov, err := f.Node.Output(ctx, val)
		if err != nil {
			return nil, adhoc.RebaseErr(adhoc.AsInternal(f.Node, err), f.Key)
		}
		out[f.Key] = ov
		delete(remaining, f.Key)
	}
	for _, f := range s.optional {
		val, present := remaining[f.Key]
		if !present {
			continue
		}
		ov, err := f.Node.Output(ctx, val)
		if err != nil {
			return nil, adhoc.RebaseErr(adhoc.AsInternal(f.Node, err), f.Key)
		}
		out[f.Key] = ov
		delete(remaining, f.Key)
	}
	if len(remaining) > 0 {
		keys := make([]string, 0, len(remaining))
		for k := range remaining {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, adhoc.Internalf(adhoc.DisplayName(s), adhoc.Root().Field(keys[0]).Pointer(), "undeclared keys in output: %s", strings.Join(keys, ", "))
	}
	return out, nil
}
