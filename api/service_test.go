package api_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/api"
	"github.com/fredronnv/adhoc/dsl"
	"github.com/fredronnv/adhoc/registry"
)

type fixture struct {
	svc  *api.Service
	logs *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	T := dsl.Struct("T").
		Mandatory("id", dsl.Integer().Range(0, 100), "").
		Optional("note", dsl.String().MaxLen(10), "").
		MustBuild()

	set := registry.NewSet(1, 2)
	set.AddType(T)
	set.AddFunction(registry.Func("get_t", func(ctx context.Context, args []any) (any, error) {
		id, _ := adhoc.Int64(args[0])
		switch id {
		case 7:
			return nil, adhoc.Issues{adhoc.Root().Issue(adhoc.CodeUnknownName, "name", "7")}
		case 13:
			return nil, errors.New("database on fire")
		}
		return map[string]any{"id": id * 10, "note": args[1]}, nil
	}).
		Param("id", dsl.Integer(), "").
		Param("note", dsl.String(), "").
		Returns(T).
		MustBuild())
	if err := set.Build(); err != nil {
		t.Fatal(err)
	}

	logs := &bytes.Buffer{}
	svc, err := api.New(set,
		api.WithLogger(zerolog.New(logs)),
		api.WithRegisterer(prometheus.NewRegistry()),
		api.WithIncidentID(func() string { return "incident-1" }),
	)
	if err != nil {
		t.Fatal(err)
	}
	return fixture{svc: svc, logs: logs}
}

func TestCall_OK(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Call(context.Background(), 1, "getT", []any{int64(5), "hi"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	m := out.(map[string]any)
	if m["id"] != int64(50) || m["note"] != "hi" {
		t.Fatalf("out=%v", m)
	}
	if got := testutil.ToFloat64(f.svc.Calls().WithLabelValues("1", "getT", api.OutcomeOK)); got != 1 {
		t.Fatalf("ok counter=%v", got)
	}
}

func TestCall_ClientErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Call(ctx, 1, "get_t", []any{int64(5)})
	if iss, ok := adhoc.AsIssues(err); !ok || iss[0].Code != adhoc.CodeArity || iss[0].Path != "/params" {
		t.Fatalf("arity: %v", err)
	}

	_, err = f.svc.Call(ctx, 1, "get_t", []any{"five", 6})
	iss, ok := adhoc.AsIssues(err)
	if !ok || len(iss) != 2 || iss[0].Path != "/params/0" || iss[1].Path != "/params/1" {
		t.Fatalf("param issues: %v", err)
	}

	_, err = f.svc.Call(ctx, 1, "get_t", []any{int64(7), "x"})
	if !adhoc.IsClientError(err) {
		t.Fatalf("handler issues must stay client errors: %v", err)
	}

	_, err = f.svc.Call(ctx, 9, "get_t", nil)
	if iss, ok := adhoc.AsIssues(err); !ok || iss[0].Code != adhoc.CodeUnknownName {
		t.Fatalf("unknown version: %v", err)
	}
	_, err = f.svc.Call(ctx, 1, "nope", nil)
	if iss, ok := adhoc.AsIssues(err); !ok || iss[0].Code != adhoc.CodeUnknownName {
		t.Fatalf("unknown function: %v", err)
	}
	if got := testutil.ToFloat64(f.svc.Calls().WithLabelValues("1", "getT", api.OutcomeClient)); got != 3 {
		t.Fatalf("client counter=%v", got)
	}
	if f.logs.Len() != 0 {
		t.Fatalf("client errors must not be logged: %s", f.logs)
	}
}

func TestCall_InternalErrors(t *testing.T) {
	for name, args := range map[string][]any{
		"handler failure": {int64(13), "x"},
		"bad output":      {int64(50), "x"}, // id 500 breaks the 0..100 range
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Call(context.Background(), 2, "get_t", args)
			if !adhoc.IsInternal(err) || adhoc.IsClientError(err) {
				t.Fatalf("want internal, got %v", err)
			}
			if strings.Contains(err.Error(), "fire") || !strings.Contains(err.Error(), "incident-1") {
				t.Fatalf("caller must only see the incident id: %v", err)
			}
			if !strings.Contains(f.logs.String(), `"incident":"incident-1"`) {
				t.Fatalf("logs=%s", f.logs)
			}
			if got := testutil.ToFloat64(f.svc.Calls().WithLabelValues("2", "getT", api.OutcomeInternal)); got != 1 {
				t.Fatalf("internal counter=%v", got)
			}
		})
	}
}

func TestParseOutput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Parse(ctx, 2, "T", map[string]any{"id": int64(5)})
	if err != nil || v.(map[string]any)["id"] != int64(5) {
		t.Fatalf("parse=%v err=%v", v, err)
	}
	_, err = f.svc.Parse(ctx, 2, "T", map[string]any{"id": int64(5), "extra": 1})
	if iss, ok := adhoc.AsIssues(err); !ok || iss[0].Path != "/extra" {
		t.Fatalf("extra: %v", err)
	}
	if _, err := f.svc.Output(ctx, 2, "T", map[string]any{"id": 150}); !adhoc.IsInternal(err) {
		t.Fatalf("output: %v", err)
	}
}

func TestNew_RequiresBuiltSet(t *testing.T) {
	if _, err := api.New(registry.NewSet(0, 1)); !errors.Is(err, adhoc.ErrInvalidDefinition) {
		t.Fatalf("unbuilt set: %v", err)
	}
}

func TestCheckArgs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	args, err := f.svc.CheckArgs(ctx, 2, "get_t", []any{3.0, "x"})
	if err != nil || args[0] != int64(3) {
		t.Fatalf("args=%v err=%v", args, err)
	}
	_, err = f.svc.CheckArgs(ctx, 2, "getT", []any{"3", 4})
	iss, ok := adhoc.AsIssues(err)
	if !ok || len(iss) != 2 || iss[0].Path != "/params/0" || iss[1].Path != "/params/1" {
		t.Fatalf("issues=%v", iss)
	}
	// the handler is never reached, so nothing is counted
	if n := testutil.CollectAndCount(f.svc.Calls()); n != 0 {
		t.Fatalf("counted %d series", n)
	}
}
