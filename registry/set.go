package registry

import (
	"fmt"
	"sort"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/rs/zerolog"
)

// Set owns one Registry per supported API version.
//
// Declarations are queued with AddFunction and AddType and applied by Build,
// which fills the lowest version, derives each next version with
// NextVersion, re-applies every declaration that covers the new version and
// finally seals every registry.
type Set struct {
	min, max int
	opts     []Option
	log      zerolog.Logger
	fns      []*Function
	types    []adhoc.Node
	byVer    map[int]*Registry
	built    bool
}

// NewSet returns an unbuilt set for versions [min, max].
func NewSet(min, max int, opts ...Option) *Set {
	return &Set{min: min, max: max, opts: opts, log: buildOptions(opts).log}
}

// AddFunction queues a function declaration.
func (s *Set) AddFunction(fn *Function) *Set { s.fns = append(s.fns, fn); return s }

// AddType queues a standalone type declaration.
func (s *Set) AddType(n adhoc.Node) *Set { s.types = append(s.types, n); return s }

// Build creates and seals every version. Any error is a boot failure.
func (s *Set) Build() error {
	if s.built {
		return fmt.Errorf("registry: set already built: %w", adhoc.ErrSealed)
	}
	if s.min < 0 || s.min > s.max {
		return fmt.Errorf("registry: versions %d..%d: %w", s.min, s.max, adhoc.ErrVersionRange)
	}
	byVer := make(map[int]*Registry, s.max-s.min+1)
	cur := New(s.min, s.opts...)
	for {
		if err := s.populate(cur); err != nil {
			return err
		}
		byVer[cur.version] = cur
		if cur.version == s.max {
			break
		}
		next, err := cur.NextVersion()
		if err != nil {
			return err
		}
		cur = next
	}
	for _, r := range byVer {
		r.Seal()
	}
	s.byVer, s.built = byVer, true
	s.log.Info().Int("min_version", s.min).Int("max_version", s.max).Msg("api versions ready")
	return nil
}

func (s *Set) populate(r *Registry) error {
	for _, fn := range s.fns {
		if fn == nil {
			return r.fail("", adhoc.ErrInvalidDefinition, "nil function")
		}
		rng, err := fn.EffectiveRange()
		if err != nil {
			return r.fail(fn.ExternalName(), err, "")
		}
		if !rng.Covers(r.version) {
			continue
		}
		if err := r.AddFunction(fn); err != nil {
			return err
		}
	}
	for _, n := range s.types {
		ok, err := r.Covers(n)
		if err != nil {
			return r.fail(adhoc.DisplayName(n), err, "")
		}
		if !ok {
			continue
		}
		if err := r.AddType(n); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the registry for version v.
func (s *Set) Get(v int) (*Registry, bool) {
	r, ok := s.byVer[v]
	return r, ok
}

// Latest returns the registry of the highest version, or nil before Build.
func (s *Set) Latest() *Registry { return s.byVer[s.max] }

// Versions lists the built versions in ascending order.
func (s *Set) Versions() []int {
	out := make([]int, 0, len(s.byVer))
	for v := range s.byVer {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Bounds returns the supported version interval.
func (s *Set) Bounds() adhoc.Range { return adhoc.Versions(s.min, s.max) }
