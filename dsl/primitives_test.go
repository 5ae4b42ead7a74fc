package dsl_test

import (
	"context"
	"encoding/json"
	"testing"

	adhoc "github.com/fredronnv/adhoc"
	g "github.com/fredronnv/adhoc/dsl"
)

func code(t *testing.T, err error) string {
	t.Helper()
	iss, ok := adhoc.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues, got %v", err)
	}
	return iss[0].Code
}

func TestString(t *testing.T) {
	ctx := context.Background()
	s := g.String().MaxLen(5).Pattern(`[a-z]+`)

	v, err := adhoc.Parse(ctx, s, "héllo")
	if err == nil {
		t.Fatalf("é is not in [a-z], got %v", v)
	}
	if v, err := adhoc.Parse(ctx, s, "hello"); err != nil || v != "hello" {
		t.Fatalf("parse ok expected, got v=%v err=%v", v, err)
	}
	// length is checked before the pattern
	if c := code(t, s.Check(ctx, "ABCDEFG")); c != adhoc.CodeTooLong {
		t.Fatalf("want too_long, got %s", c)
	}
	// the pattern is anchored: a matching substring is not enough
	if c := code(t, s.Check(ctx, "ab1")); c != adhoc.CodePattern {
		t.Fatalf("want pattern, got %s", c)
	}
	if s.Anchored() != `^(?:[a-z]+)$` || s.Regexp() != `[a-z]+` {
		t.Fatalf("anchored=%q regexp=%q", s.Anchored(), s.Regexp())
	}
	// characters, not bytes
	if err := g.String().MaxLen(2).Check(ctx, "åä"); err != nil {
		t.Fatalf("two characters must fit: %v", err)
	}
	if c := code(t, s.Check(ctx, 3)); c != adhoc.CodeInvalidType {
		t.Fatalf("want invalid_type, got %s", c)
	}
	if _, err := adhoc.Output(ctx, s, "TOOLONGVALUE"); !adhoc.IsInternal(err) {
		t.Fatalf("output must fail internally, got %v", err)
	}
}

func TestInteger(t *testing.T) {
	ctx := context.Background()
	n := g.Integer().Range(-2, 10)

	cases := []struct {
		in   any
		want string
	}{
		{int64(10), ""},
		{-2, ""},
		{json.Number("7"), ""},
		{3.0, ""},
		{uint8(4), ""},
		{11, adhoc.CodeTooBig},
		{-3, adhoc.CodeTooSmall},
		{3.5, adhoc.CodeInvalidType},
		{"4", adhoc.CodeInvalidType},
		{true, adhoc.CodeInvalidType},
		{json.Number("1e3"), adhoc.CodeInvalidType},
	}
	for _, c := range cases {
		err := n.Check(ctx, c.in)
		if c.want == "" {
			if err != nil {
				t.Fatalf("%#v: unexpected %v", c.in, err)
			}
			continue
		}
		if got := code(t, err); got != c.want {
			t.Fatalf("%#v: want %s, got %s", c.in, c.want, got)
		}
	}

	// wire numbers are normalized; Go integers pass through unchanged
	if v, _ := adhoc.Parse(ctx, n, json.Number("7")); v != int64(7) {
		t.Fatalf("json.Number: got %#v", v)
	}
	if v, _ := adhoc.Parse(ctx, n, 7); v != 7 {
		t.Fatalf("int: got %#v", v)
	}
	if lo, hi, ok := n.Bounds(); !ok || lo != -2 || hi != 10 {
		t.Fatalf("bounds %d %d %v", lo, hi, ok)
	}
}

func TestBoolean(t *testing.T) {
	ctx := context.Background()
	lenient := g.Boolean()
	for _, in := range []any{true, false, 0, 1, json.Number("1"), 0.0} {
		if err := lenient.Check(ctx, in); err != nil {
			t.Fatalf("%#v: %v", in, err)
		}
	}
	for _, in := range []any{2, -1, "true", nil} {
		if err := lenient.Check(ctx, in); err == nil {
			t.Fatalf("%#v accepted", in)
		}
	}
	v, err := adhoc.Parse(ctx, lenient, json.Number("1"))
	if err != nil || !adhoc.Truth(v) {
		t.Fatalf("1 must be true: %v %v", v, err)
	}

	strict := g.Boolean().Strict()
	if err := strict.Check(ctx, 1); code(t, err) != adhoc.CodeInvalidType {
		t.Fatalf("strict accepted 1")
	}
	if err := strict.Check(ctx, false); err != nil {
		t.Fatal(err)
	}
}

func TestEnumAndNull(t *testing.T) {
	ctx := context.Background()
	e := g.Enum("red", "green").Named("colour")
	if err := e.Check(ctx, "green"); err != nil {
		t.Fatal(err)
	}
	if c := code(t, e.Check(ctx, "blue")); c != adhoc.CodeInvalidEnum {
		t.Fatalf("want invalid_enum, got %s", c)
	}
	if adhoc.ExternalName(e) != "colour" || len(e.Values()) != 2 {
		t.Fatalf("name=%s values=%v", adhoc.ExternalName(e), e.Values())
	}

	n := g.Null()
	if v, err := adhoc.Parse(ctx, n, nil); err != nil || v != nil {
		t.Fatalf("null: %v %v", v, err)
	}
	if c := code(t, n.Check(ctx, 0)); c != adhoc.CodeInvalidType {
		t.Fatalf("want invalid_type, got %s", c)
	}
	if v, err := adhoc.Output(ctx, n, nil); err != nil || v != nil {
		t.Fatalf("null output: %v %v", v, err)
	}
}

func TestVersions_EmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("empty override must panic")
		}
	}()
	g.String().Versions(3, 1)
}
