package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/rs/zerolog"
)

// Registry holds the functions and named types visible in one API version,
// keyed by external (capsified) name.
//
// A registry is filled during start-up and sealed before serving. Reads after
// sealing need no locking: the maps are never written again.
type Registry struct {
	version   int
	functions map[string]*Function
	types     map[string]adhoc.Node
	sealed    atomic.Bool
	base      zerolog.Logger
	log       zerolog.Logger
}

// Option configures a Registry or a Set.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger sets the logger used for registration events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// New returns an empty registry for API version v.
func New(v int, opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		version:   v,
		functions: map[string]*Function{},
		types:     map[string]adhoc.Node{},
		base:      o.log,
		log:       o.log.With().Int("api_version", v).Logger(),
	}
}

// Version returns the API version served by the registry.
func (r *Registry) Version() int { return r.version }

// Seal rejects further additions. It is idempotent.
func (r *Registry) Seal() {
	if r.sealed.CompareAndSwap(false, true) {
		r.log.Debug().Int("functions", len(r.functions)).Int("types", len(r.types)).Msg("registry sealed")
	}
}

// Sealed reports whether additions are rejected.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// Covers reports whether n is valid in this registry's version.
func (r *Registry) Covers(n adhoc.Node) (bool, error) {
	rng, err := adhoc.EffectiveRange(n)
	if err != nil {
		return false, err
	}
	return rng.Covers(r.version), nil
}

func (r *Registry) fail(name string, err error, detail string) error {
	return &adhoc.RegistrationError{Version: r.version, Name: name, Err: err, Detail: detail}
}

// AddFunction registers fn and every type reachable from its parameters and
// return node. Registering the same *Function twice is a no-op.
func (r *Registry) AddFunction(fn *Function) error {
	if fn == nil {
		return r.fail("", adhoc.ErrInvalidDefinition, "nil function")
	}
	name := fn.ExternalName()
	if r.Sealed() {
		return r.fail(name, adhoc.ErrSealed, "")
	}
	if name == "" {
		return r.fail(fn.Name(), adhoc.ErrInvalidDefinition, "function name has no words")
	}
	if !adhoc.Canonical(fn.Name()) {
		return r.fail(name, adhoc.ErrInvalidDefinition, fmt.Sprintf("%q does not capsify to a stable name", fn.Name()))
	}
	if prev, ok := r.functions[name]; ok {
		if prev == fn {
			return nil
		}
		return r.fail(name, adhoc.ErrNameCollision, fmt.Sprintf("%q and %q", prev.Name(), fn.Name()))
	}
	rng, err := fn.EffectiveRange()
	if err != nil {
		return r.fail(name, errors.Join(adhoc.ErrVersionRange, err), "")
	}
	if !rng.Covers(r.version) {
		return r.fail(name, adhoc.ErrUnsupportedVersion, "function valid in "+rng.String())
	}
	st := newStage()
	for _, p := range fn.params {
		if err := r.collect(p.Node, st); err != nil {
			return err
		}
	}
	if err := r.collect(fn.returns, st); err != nil {
		return err
	}
	r.commit(st)
	r.functions[name] = fn
	r.log.Debug().Str("function", name).Str("versions", rng.String()).Msg("function registered")
	return nil
}

// AddType registers n and every named type reachable from it. Anonymous
// nodes are walked but not listed. Nothing is registered when an error is
// returned.
func (r *Registry) AddType(n adhoc.Node) error {
	if r.Sealed() {
		return r.fail(adhoc.ExternalName(n), adhoc.ErrSealed, "")
	}
	return r.addType(n)
}

func (r *Registry) addType(n adhoc.Node) error {
	st := newStage()
	if err := r.collect(n, st); err != nil {
		return err
	}
	r.commit(st)
	return nil
}

// stage holds the named types found by one registration until every node of
// the closure has been checked.
type stage struct {
	seen  map[adhoc.Node]bool
	types map[string]adhoc.Node
	order []string
}

func newStage() *stage {
	return &stage{seen: map[adhoc.Node]bool{}, types: map[string]adhoc.Node{}}
}

func (r *Registry) collect(n adhoc.Node, st *stage) error {
	target := adhoc.Resolve(n)
	if target == nil {
		return r.fail("", adhoc.ErrInvalidDefinition, "unresolved deferred node")
	}
	if st.seen[target] {
		return nil
	}
	st.seen[target] = true
	name := adhoc.ExternalName(target)
	rng, err := adhoc.EffectiveRange(target)
	if err != nil {
		return r.fail(name, errors.Join(adhoc.ErrVersionRange, err), "")
	}
	if !rng.Covers(r.version) {
		return r.fail(adhoc.DisplayName(target), adhoc.ErrUnsupportedVersion, "type valid in "+rng.String())
	}
	if name != "" {
		if !adhoc.Canonical(target.Name()) {
			return r.fail(name, adhoc.ErrInvalidDefinition, fmt.Sprintf("%q does not capsify to a stable name", target.Name()))
		}
		prev, ok := r.types[name]
		if !ok {
			prev, ok = st.types[name]
		}
		switch {
		case ok && prev != target:
			return r.fail(name, adhoc.ErrNameCollision, fmt.Sprintf("%q and %q", prev.Name(), target.Name()))
		case !ok:
			st.types[name] = target
			st.order = append(st.order, name)
		}
	}
	for _, sub := range target.Subtypes() {
		if err := r.collect(sub.Node, st); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) commit(st *stage) {
	for _, name := range st.order {
		r.types[name] = st.types[name]
		r.log.Debug().Str("type", name).Msg("type registered")
	}
}

// Function looks a function up by name. An exact external name wins;
// otherwise the name is capsified, so both "list_groups" and "listGroups"
// find the same entry.
func (r *Registry) Function(name string) (*Function, bool) {
	if fn, ok := r.functions[name]; ok {
		return fn, true
	}
	fn, ok := r.functions[adhoc.Capsify(name)]
	return fn, ok
}

// Type looks a named type up by name like Function does.
func (r *Registry) Type(name string) (adhoc.Node, bool) {
	if n, ok := r.types[name]; ok {
		return n, true
	}
	n, ok := r.types[adhoc.Capsify(name)]
	return n, ok
}

// Functions lists the registered functions sorted by external name.
func (r *Registry) Functions() []*Function {
	names := make([]string, 0, len(r.functions))
	for k := range r.functions {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]*Function, len(names))
	for i, k := range names {
		out[i] = r.functions[k]
	}
	return out
}

// TypeEntry is one row of Types.
type TypeEntry struct {
	Name string
	Node adhoc.Node
}

// Types lists the registered named types sorted by external name.
func (r *Registry) Types() []TypeEntry {
	out := make([]TypeEntry, 0, len(r.types))
	for k, n := range r.types {
		out = append(out, TypeEntry{Name: k, Node: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NextVersion derives the registry for version+1: it carries over every
// function and type whose range still covers the new version.
func (r *Registry) NextVersion() (*Registry, error) {
	next := New(r.version+1, WithLogger(r.base))
	for _, fn := range r.Functions() {
		if !fn.Covers(next.version) {
			next.log.Debug().Str("function", fn.ExternalName()).Msg("function dropped")
			continue
		}
		if err := next.AddFunction(fn); err != nil {
			return nil, err
		}
	}
	for _, t := range r.Types() {
		ok, err := next.Covers(t.Node)
		if err != nil {
			return nil, next.fail(t.Name, errors.Join(adhoc.ErrVersionRange, err), "")
		}
		if !ok {
			continue
		}
		if err := next.addType(t.Node); err != nil {
			return nil, err
		}
	}
	return next, nil
}
