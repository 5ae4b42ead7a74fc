package template_test

import (
	"context"
	"errors"
	"testing"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/dsl"
	"github.com/fredronnv/adhoc/template"
)

type host struct {
	name  string
	ip    string
	owner string
}

func rng(from, to int) *adhoc.Range {
	r := adhoc.Versions(from, to)
	return &r
}

func hostObject() *template.Object {
	get := func(f func(*host) string) template.Getter {
		return func(_ context.Context, inst any) (any, error) { return f(inst.(*host)), nil }
	}
	return &template.Object{
		Name:        "host",
		Description: "a network host",
		Attributes: []template.Attribute{
			{
				Name: "name", Node: dsl.String().MaxLen(64), Search: true,
				Get: get(func(h *host) string { return h.name }),
			},
			{
				Name: "ip", Node: dsl.String(),
				Get: get(func(h *host) string { return h.ip }),
				Set: func(_ context.Context, inst any, v any) error { inst.(*host).ip = v.(string); return nil },
			},
			{
				Name: "owner", Node: dsl.String(), Search: true, Read: rng(2, 5),
				Get: get(func(h *host) string { return h.owner }),
				Set: func(_ context.Context, inst any, v any) error { inst.(*host).owner = v.(string); return nil },
				Write: rng(3, 5),
			},
		},
	}
}

func keys(s *dsl.StructNode) []string {
	var out []string
	for _, f := range s.Fields() {
		out = append(out, f.Key)
	}
	return out
}

func TestBuilder_PerVersionStructs(t *testing.T) {
	b := template.New(dsl.NewUniverse())
	o := hostObject()

	dt1, err := b.DataTemplate(o, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := keys(dt1); len(got) != 2 || got[0] != "name" || got[1] != "ip" {
		t.Fatalf("v1 template keys=%v", got)
	}
	if dt1.Name() != "host-data-template" || adhoc.ExternalName(dt1) != "hostDataTemplate" {
		t.Fatalf("name=%q", dt1.Name())
	}
	if r, _ := adhoc.EffectiveRange(dt1); r != adhoc.Versions(1, 1) {
		t.Fatalf("range=%v", r)
	}
	dt2, _ := b.DataTemplate(o, 2)
	if len(keys(dt2)) != 3 {
		t.Fatalf("v2 template keys=%v", keys(dt2))
	}
	again, _ := b.DataTemplate(o, 2)
	if again != dt2 {
		t.Fatalf("derived structs must be interned")
	}

	up2, _ := b.Update(o, 2)
	if got := keys(up2); len(got) != 1 || got[0] != "ip" {
		t.Fatalf("v2 update keys=%v", got)
	}
	up3, _ := b.Update(o, 3)
	if len(keys(up3)) != 2 {
		t.Fatalf("v3 update keys=%v", keys(up3))
	}

	so, _ := b.SearchOptions(o, 2)
	if got := keys(so); len(got) != 3 || got[2] != template.LimitKey {
		t.Fatalf("search keys=%v", got)
	}
	f, _ := so.Field("owner")
	if _, ok := f.Node.(*dsl.OrNullNode); !ok {
		t.Fatalf("search option must be nullable: %T", f.Node)
	}
}

func TestBuilder_NoAttributes(t *testing.T) {
	b := template.New(dsl.NewUniverse())
	o := &template.Object{Name: "ro", Attributes: []template.Attribute{{
		Name: "x", Node: dsl.String(),
		Get:  func(context.Context, any) (any, error) { return "x", nil },
	}}}
	if _, err := b.Update(o, 1); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("want version range error, got %v", err)
	}
}

func TestObject_Validate(t *testing.T) {
	o := hostObject()
	o.Attributes[0].Read = rng(3, 1)
	if err := o.Validate(); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("empty read range: %v", err)
	}
	o = hostObject()
	o.Attributes[0].Write = rng(0, 1)
	if err := o.Validate(); !errors.Is(err, adhoc.ErrInvalidDefinition) {
		t.Fatalf("write range without setter: %v", err)
	}
	o = hostObject()
	o.Attributes[1].Node = dsl.String().Versions(0, 2)
	o.Attributes[1].Read = rng(0, 4)
	if err := o.Validate(); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("read range outside node range: %v", err)
	}
}

func TestRenderApplySearch(t *testing.T) {
	ctx := context.Background()
	o := hostObject()
	h := &host{name: "web1", ip: "10.0.0.1", owner: "ops"}

	out, err := template.Render(ctx, o, 2, map[string]any{"name": true, "ip": int64(0), "owner": 1}, h)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out["name"] != "web1" || out["owner"] != "ops" {
		t.Fatalf("render=%v", out)
	}
	if _, err := template.Render(ctx, o, 1, map[string]any{"owner": true}, h); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("owner unreadable in v1: %v", err)
	}

	if err := template.Apply(ctx, o, 3, map[string]any{"ip": "10.0.0.2", "owner": "dev"}, h); err != nil {
		t.Fatal(err)
	}
	if h.ip != "10.0.0.2" || h.owner != "dev" {
		t.Fatalf("apply: %+v", h)
	}
	if err := template.Apply(ctx, o, 2, map[string]any{"owner": "x"}, h); !errors.Is(err, adhoc.ErrVersionRange) {
		t.Fatalf("owner unwritable in v2: %v", err)
	}

	hosts := []any{
		&host{name: "a", owner: "ops"},
		&host{name: "b", owner: "dev"},
		&host{name: "c", owner: "ops"},
	}
	got, err := template.Search(ctx, o, 2, map[string]any{"owner": "ops", "name": nil}, hosts)
	if err != nil || len(got) != 2 {
		t.Fatalf("search=%v err=%v", got, err)
	}
	got, _ = template.Search(ctx, o, 2, map[string]any{"owner": "ops", template.LimitKey: int64(1)}, hosts)
	if len(got) != 1 || got[0].(*host).name != "a" {
		t.Fatalf("limit: %v", got)
	}
	if _, err := template.Search(ctx, o, 2, map[string]any{"ip": "x"}, hosts); !errors.Is(err, adhoc.ErrInvalidDefinition) {
		t.Fatalf("ip not searchable: %v", err)
	}
}
