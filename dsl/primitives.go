package dsl

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	adhoc "github.com/fredronnv/adhoc"
)

// StringNode accepts character strings, optionally bounded by MaxLen and
// matched against an anchored Pattern.
type StringNode struct {
	meta
	maxLen  int
	pattern string
	re      *regexp.Regexp
}

// IntegerNode accepts integral values, optionally inside an inclusive range.
type IntegerNode struct {
	meta
	min, max int64
	hasRange bool
}

// BooleanNode accepts true/false and, unless Strict, the integers 0 and 1.
type BooleanNode struct {
	meta
	strict bool
}

// EnumNode accepts one of a fixed set of strings.
type EnumNode struct {
	meta
	values []string
	set    map[string]struct{}
}

// NullNode accepts only the absence of a value.
type NullNode struct {
	meta
}

var (
	_ adhoc.Node = (*StringNode)(nil)
	_ adhoc.Node = (*IntegerNode)(nil)
	_ adhoc.Node = (*BooleanNode)(nil)
	_ adhoc.Node = (*EnumNode)(nil)
	_ adhoc.Node = (*NullNode)(nil)
)

// String returns an unconstrained string node.
func String() *StringNode { return &StringNode{maxLen: -1} }

// Integer returns an unbounded integer node.
func Integer() *IntegerNode { return &IntegerNode{} }

// Boolean returns a boolean node that also accepts 0 and 1.
func Boolean() *BooleanNode { return &BooleanNode{} }

// Enum returns a node accepting exactly the given values.
func Enum(values ...string) *EnumNode {
	e := &EnumNode{values: append([]string(nil), values...), set: make(map[string]struct{}, len(values))}
	for _, v := range values {
		e.set[v] = struct{}{}
	}
	return e
}

// Null returns the node accepting only nil.
func Null() *NullNode { return &NullNode{} }

// ---------------- String ----------------

// Named sets the internal name.
func (s *StringNode) Named(name string) *StringNode { s.name = name; return s }

// Describe sets the description.
func (s *StringNode) Describe(desc string) *StringNode { s.desc = desc; return s }

// Versions sets the explicit version override. It panics if from > to.
func (s *StringNode) Versions(from, to int) *StringNode {
	s.setVersions(adhoc.Versions(from, to))
	return s
}

// MaxLen limits the length in characters.
func (s *StringNode) MaxLen(n int) *StringNode { s.maxLen = n; return s }

// Pattern sets a regular expression the whole value must match. The
// expression is anchored at both ends unless it already is. It panics if the
// expression does not compile.
func (s *StringNode) Pattern(expr string) *StringNode {
	anchored := expr
	if !strings.HasPrefix(anchored, "^") || !strings.HasSuffix(anchored, "$") {
		anchored = "^(?:" + expr + ")$"
	}
	s.pattern = expr
	s.re = regexp.MustCompile(anchored)
	return s
}

// MaxLength returns the configured maximum length, or -1.
func (s *StringNode) MaxLength() int { return s.maxLen }

// Regexp returns the pattern as written by the author, or "".
func (s *StringNode) Regexp() string { return s.pattern }

// Anchored returns the compiled, anchored form of the pattern, or "".
func (s *StringNode) Anchored() string {
	if s.re == nil {
		return ""
	}
	return s.re.String()
}

func (s *StringNode) Check(ctx context.Context, v any) error {
	str, ok := v.(string)
	if !ok {
		return invalidType("string", v)
	}
	if s.maxLen >= 0 && utf8.RuneCountInString(str) > s.maxLen {
		return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeTooLong, "max", s.maxLen, "got", utf8.RuneCountInString(str))}
	}
	if s.re != nil && !s.re.MatchString(str) {
		return adhoc.Issues{adhoc.Root().Issue(adhoc.CodePattern, "pattern", s.pattern)}
	}
	return nil
}

func (s *StringNode) Convert(ctx context.Context, v any) (any, error) { return v, nil }
func (s *StringNode) Lookup(ctx context.Context, v any) (any, error)  { return v, nil }

func (s *StringNode) Output(ctx context.Context, v any) (any, error) {
	if err := s.Check(ctx, v); err != nil {
		return nil, adhoc.AsInternal(s, err)
	}
	return v, nil
}

func (s *StringNode) Subtypes() []adhoc.Subtype { return nil }

// ---------------- Integer ----------------

// Named sets the internal name.
func (n *IntegerNode) Named(name string) *IntegerNode { n.name = name; return n }

// Describe sets the description.
func (n *IntegerNode) Describe(desc string) *IntegerNode { n.desc = desc; return n }

// Versions sets the explicit version override. It panics if from > to.
func (n *IntegerNode) Versions(from, to int) *IntegerNode {
	n.setVersions(adhoc.Versions(from, to))
	return n
}

// Range restricts values to the inclusive interval [min, max].
func (n *IntegerNode) Range(min, max int64) *IntegerNode {
	n.min, n.max, n.hasRange = min, max, true
	return n
}

// Bounds returns the configured range and whether one is set.
func (n *IntegerNode) Bounds() (min, max int64, ok bool) { return n.min, n.max, n.hasRange }

func (n *IntegerNode) Check(ctx context.Context, v any) error {
	i, ok := adhoc.Int64(v)
	if !ok {
		return invalidType("integer", v)
	}
	if n.hasRange {
		if i < n.min {
			return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeTooSmall, "min", n.min, "got", i)}
		}
		if i > n.max {
			return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeTooBig, "max", n.max, "got", i)}
		}
	}
	return nil
}

// Convert normalizes wire numbers (json.Number, float64) to int64 and leaves
// native Go integers untouched.
func (n *IntegerNode) Convert(ctx context.Context, v any) (any, error) {
	if adhoc.IsWireNumber(v) {
		i, _ := adhoc.Int64(v)
		return i, nil
	}
	return v, nil
}

func (n *IntegerNode) Lookup(ctx context.Context, v any) (any, error) { return v, nil }

func (n *IntegerNode) Output(ctx context.Context, v any) (any, error) {
	if err := n.Check(ctx, v); err != nil {
		return nil, adhoc.AsInternal(n, err)
	}
	return v, nil
}

func (n *IntegerNode) Subtypes() []adhoc.Subtype { return nil }

// ---------------- Boolean ----------------

// Named sets the internal name.
func (b *BooleanNode) Named(name string) *BooleanNode { b.name = name; return b }

// Describe sets the description.
func (b *BooleanNode) Describe(desc string) *BooleanNode { b.desc = desc; return b }

// Versions sets the explicit version override. It panics if from > to.
func (b *BooleanNode) Versions(from, to int) *BooleanNode {
	b.setVersions(adhoc.Versions(from, to))
	return b
}

// Strict rejects the numeric spellings 0 and 1.
func (b *BooleanNode) Strict() *BooleanNode { b.strict = true; return b }

// IsStrict reports whether numeric spellings are rejected.
func (b *BooleanNode) IsStrict() bool { return b.strict }

func (b *BooleanNode) Check(ctx context.Context, v any) error {
	if _, ok := v.(bool); ok {
		return nil
	}
	if !b.strict {
		if i, ok := adhoc.Int64(v); ok && (i == 0 || i == 1) {
			return nil
		}
	}
	return invalidType("boolean", v)
}

// Convert leaves booleans and native 0/1 untouched; wire numbers become
// int64. adhoc.Truth interprets the result.
func (b *BooleanNode) Convert(ctx context.Context, v any) (any, error) {
	if adhoc.IsWireNumber(v) {
		i, _ := adhoc.Int64(v)
		return i, nil
	}
	return v, nil
}

func (b *BooleanNode) Lookup(ctx context.Context, v any) (any, error) { return v, nil }

func (b *BooleanNode) Output(ctx context.Context, v any) (any, error) {
	if err := b.Check(ctx, v); err != nil {
		return nil, adhoc.AsInternal(b, err)
	}
	return v, nil
}

func (b *BooleanNode) Subtypes() []adhoc.Subtype { return nil }

// ---------------- Enum ----------------

// Named sets the internal name.
func (e *EnumNode) Named(name string) *EnumNode { e.name = name; return e }

// Describe sets the description.
func (e *EnumNode) Describe(desc string) *EnumNode { e.desc = desc; return e }

// Versions sets the explicit version override. It panics if from > to.
func (e *EnumNode) Versions(from, to int) *EnumNode {
	e.setVersions(adhoc.Versions(from, to))
	return e
}

// Values returns the allowed values in declaration order.
func (e *EnumNode) Values() []string { return append([]string(nil), e.values...) }

func (e *EnumNode) Check(ctx context.Context, v any) error {
	s, ok := v.(string)
	if !ok {
		return invalidType("string", v)
	}
	if _, ok := e.set[s]; !ok {
		return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeInvalidEnum, "allowed", strings.Join(e.values, ","), "got", s)}
	}
	return nil
}

func (e *EnumNode) Convert(ctx context.Context, v any) (any, error) { return v, nil }
func (e *EnumNode) Lookup(ctx context.Context, v any) (any, error)  { return v, nil }

func (e *EnumNode) Output(ctx context.Context, v any) (any, error) {
	if err := e.Check(ctx, v); err != nil {
		return nil, adhoc.AsInternal(e, err)
	}
	return v, nil
}

func (e *EnumNode) Subtypes() []adhoc.Subtype { return nil }

// ---------------- Null ----------------

// Named sets the internal name.
func (n *NullNode) Named(name string) *NullNode { n.name = name; return n }

// Describe sets the description.
func (n *NullNode) Describe(desc string) *NullNode { n.desc = desc; return n }

func (n *NullNode) Check(ctx context.Context, v any) error {
	if v != nil {
		return invalidType("null", v)
	}
	return nil
}

func (n *NullNode) Convert(ctx context.Context, v any) (any, error) { return nil, nil }
func (n *NullNode) Lookup(ctx context.Context, v any) (any, error)  { return nil, nil }

func (n *NullNode) Output(ctx context.Context, v any) (any, error) {
	if err := n.Check(ctx, v); err != nil {
		return nil, adhoc.AsInternal(n, err)
	}
	return nil, nil
}

func (n *NullNode) Subtypes() []adhoc.Subtype { return nil }
