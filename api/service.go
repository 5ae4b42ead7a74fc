// Package api is the version-scoped boundary between a transport and the
// registered functions: it parses client input, runs handlers and converts
// their results back to wire values.
//
// Client mistakes come back as adhoc.Issues. Anything else is a server
// defect: it is logged in full under an incident id and the caller receives
// an *adhoc.InternalError carrying only that id.
package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/registry"
)

// Call outcomes recorded in adhoc_calls_total.
const (
	OutcomeOK       = "ok"
	OutcomeClient   = "client_error"
	OutcomeInternal = "internal_error"
)

// Service dispatches calls against a built registry.Set.
type Service struct {
	set      *registry.Set
	log      zerolog.Logger
	reg      prometheus.Registerer
	calls    *prometheus.CounterVec
	newID    func() string
	failFast bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for internal errors.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithRegisterer registers the call counter with r.
func WithRegisterer(r prometheus.Registerer) Option { return func(s *Service) { s.reg = r } }

// WithIncidentID overrides the incident id generator (uuid by default).
func WithIncidentID(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// WithFailFast stops checking client input at the first issue.
func WithFailFast(enabled bool) Option { return func(s *Service) { s.failFast = enabled } }

// New returns a Service over set, which must already be built.
func New(set *registry.Set, opts ...Option) (*Service, error) {
	if set == nil || len(set.Versions()) == 0 {
		return nil, fmt.Errorf("api: %w: registry set not built", adhoc.ErrInvalidDefinition)
	}
	s := &Service{
		set:   set,
		log:   zerolog.Nop(),
		newID: uuid.NewString,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhoc_calls_total",
			Help: "Function calls by API version, function and outcome.",
		}, []string{"version", "function", "outcome"}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.reg != nil {
		if err := s.reg.Register(s.calls); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("api: register metrics: %w", err)
			}
			s.calls = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	for _, v := range set.Versions() {
		r, _ := set.Get(v)
		r.Seal()
	}
	return s, nil
}

// Calls exposes the call counter.
func (s *Service) Calls() *prometheus.CounterVec { return s.calls }

// Versions lists the served API versions.
func (s *Service) Versions() []int { return s.set.Versions() }

func (s *Service) ctx(ctx context.Context) context.Context {
	if s.failFast {
		return adhoc.WithFailFast(ctx, true)
	}
	return ctx
}

func unknown(at adhoc.PathRef, name string) error {
	return adhoc.Issues{at.Issue(adhoc.CodeUnknownName, "name", name)}
}

func (s *Service) registry(v int) (*registry.Registry, error) {
	r, ok := s.set.Get(v)
	if !ok {
		return nil, unknown(adhoc.Root(), "api version "+strconv.Itoa(v))
	}
	return r, nil
}

// incident logs err in full and returns the generic error shown to callers.
func (s *Service) incident(v int, subject string, err error) error {
	id := s.newID()
	ev := s.log.Error().Err(err).Str("incident", id).Int("api_version", v).Str("subject", subject)
	var ie *adhoc.InternalError
	if errors.As(err, &ie) {
		ev = ev.Str("node", ie.Node).Str("path", ie.Path)
	}
	ev.Msg("internal error")
	return &adhoc.InternalError{Cause: fmt.Errorf("incident %s", id)}
}

// Parse checks raw against the named type of version v and returns the
// internal value.
func (s *Service) Parse(ctx context.Context, v int, typeName string, raw any) (any, error) {
	r, err := s.registry(v)
	if err != nil {
		return nil, err
	}
	n, ok := r.Type(typeName)
	if !ok {
		return nil, unknown(adhoc.Root(), typeName)
	}
	out, err := adhoc.Parse(s.ctx(ctx), n, raw)
	if err != nil && !adhoc.IsClientError(err) {
		return nil, s.incident(v, typeName, err)
	}
	return out, err
}

// Output converts an internal value of the named type to its wire form.
func (s *Service) Output(ctx context.Context, v int, typeName string, val any) (any, error) {
	r, err := s.registry(v)
	if err != nil {
		return nil, s.incident(v, typeName, err)
	}
	n, ok := r.Type(typeName)
	if !ok {
		return nil, s.incident(v, typeName, fmt.Errorf("%w: no type %q", adhoc.ErrInvalidDefinition, typeName))
	}
	out, err := adhoc.Output(ctx, n, val)
	if err != nil {
		return nil, s.incident(v, typeName, err)
	}
	return out, nil
}

// Call runs function fnName of version v with positional wire arguments.
func (s *Service) Call(ctx context.Context, v int, fnName string, rawArgs []any) (any, error) {
	out, fn, err := s.call(ctx, v, fnName, rawArgs)
	outcome := OutcomeOK
	switch {
	case err == nil:
	case adhoc.IsClientError(err):
		outcome = OutcomeClient
	default:
		outcome = OutcomeInternal
	}
	s.calls.WithLabelValues(strconv.Itoa(v), fn, outcome).Inc()
	return out, err
}

func (s *Service) call(ctx context.Context, v int, fnName string, rawArgs []any) (any, string, error) {
	fn, args, err := s.args(ctx, v, fnName, rawArgs)
	if err != nil {
		name := ""
		if fn != nil {
			name = fn.ExternalName()
		}
		return nil, name, err
	}
	name := fn.ExternalName()
	res, err := fn.Handler()(ctx, args)
	if err != nil {
		if adhoc.IsClientError(err) {
			return nil, name, err
		}
		return nil, name, s.incident(v, name, err)
	}
	out, err := adhoc.Output(ctx, fn.Returns(), res)
	if err != nil {
		return nil, name, s.incident(v, name, err)
	}
	return out, name, nil
}

// CheckArgs runs the inbound half of Call: it resolves the function and
// parses rawArgs against its parameters without invoking the handler.
func (s *Service) CheckArgs(ctx context.Context, v int, fnName string, rawArgs []any) ([]any, error) {
	_, args, err := s.args(ctx, v, fnName, rawArgs)
	return args, err
}

func (s *Service) args(ctx context.Context, v int, fnName string, rawArgs []any) (*registry.Function, []any, error) {
	r, err := s.registry(v)
	if err != nil {
		return nil, nil, err
	}
	fn, ok := r.Function(fnName)
	if !ok {
		return nil, nil, unknown(adhoc.Root(), fnName)
	}
	params := fn.Params()
	if len(rawArgs) != len(params) {
		return fn, nil, adhoc.Issues{adhoc.Root().Field("params").Issue(adhoc.CodeArity, "expected", len(params), "got", len(rawArgs))}
	}

	pctx := s.ctx(ctx)
	args := make([]any, len(params))
	var issues adhoc.Issues
	for i, p := range params {
		val, err := adhoc.Parse(pctx, p.Node, rawArgs[i])
		if err == nil {
			args[i] = val
			continue
		}
		err = adhoc.RebaseErr(adhoc.RebaseErr(err, strconv.Itoa(i)), "params")
		if !adhoc.IsClientError(err) {
			return fn, nil, s.incident(v, fn.ExternalName(), err)
		}
		iss, _ := adhoc.AsIssues(err)
		issues = append(issues, iss...)
		if adhoc.IsFailFast(pctx) {
			break
		}
	}
	if len(issues) > 0 {
		return fn, nil, issues
	}
	return fn, args, nil
}
