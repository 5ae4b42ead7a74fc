package adhoc

import (
	"fmt"
	"math"
	"strconv"
)

// MaxVersion is the open upper bound of a version range.
const MaxVersion = math.MaxInt32

// Range is an inclusive interval of API versions.
type Range struct {
	From int
	To   int
}

// Always is the range of a node without explicit bounds.
var Always = Range{From: 0, To: MaxVersion}

// Versions returns the inclusive range [from, to].
func Versions(from, to int) Range { return Range{From: from, To: to} }

// Since returns the range starting at v without an upper bound.
func Since(v int) Range { return Range{From: v, To: MaxVersion} }

// Until returns the range [0, v].
func Until(v int) Range { return Range{From: 0, To: v} }

// Empty reports whether no version satisfies the range.
func (r Range) Empty() bool { return r.From > r.To }

// Covers reports whether v lies inside the range.
func (r Range) Covers(v int) bool { return v >= r.From && v <= r.To }

// Contains reports whether o lies entirely inside r.
func (r Range) Contains(o Range) bool { return o.From >= r.From && o.To <= r.To }

// Intersect returns the common part of r and o (possibly empty).
func (r Range) Intersect(o Range) Range {
	out := r
	if o.From > out.From {
		out.From = o.From
	}
	if o.To < out.To {
		out.To = o.To
	}
	return out
}

func (r Range) String() string {
	if r.To >= MaxVersion {
		return "[" + strconv.Itoa(r.From) + "..]"
	}
	return "[" + strconv.Itoa(r.From) + ".." + strconv.Itoa(r.To) + "]"
}

// Clamp applies an explicit override to the range computed from a node's
// children. The override may only narrow the computed range, on both sides.
func Clamp(computed, override Range, explicit bool) (Range, error) {
	if computed.Empty() {
		return Range{}, fmt.Errorf("%w: children share no version", ErrVersionRange)
	}
	if !explicit {
		return computed, nil
	}
	if override.Empty() {
		return Range{}, fmt.Errorf("%w: override %s is empty", ErrVersionRange, override)
	}
	if !computed.Contains(override) {
		return Range{}, fmt.Errorf("%w: override %s widens %s", ErrVersionRange, override, computed)
	}
	return override, nil
}

// EffectiveRange computes the version range of n: the intersection of every
// reachable child's range, clamped by each node's explicit override. A node
// already on the current path (a recursive struct) contributes nothing.
// Each node is evaluated once per call.
func EffectiveRange(n Node) (Range, error) {
	w := rangeWalk{done: map[Node]Range{}, active: map[Node]bool{}}
	return w.visit(n)
}

// KnownRange is EffectiveRange for graphs still under construction: deferred
// references that do not resolve yet contribute nothing.
func KnownRange(n Node) (Range, error) {
	w := rangeWalk{partial: true, done: map[Node]Range{}, active: map[Node]bool{}}
	return w.visit(n)
}

type rangeWalk struct {
	partial bool
	done    map[Node]Range
	active  map[Node]bool
}

func (w *rangeWalk) visit(n Node) (Range, error) {
	n = Resolve(n)
	if n == nil {
		if w.partial {
			return Always, nil
		}
		return Range{}, fmt.Errorf("%w: unresolved node", ErrInvalidDefinition)
	}
	if r, ok := w.done[n]; ok {
		return r, nil
	}
	if w.active[n] {
		return Always, nil
	}
	w.active[n] = true
	defer delete(w.active, n)
	computed := Always
	for _, st := range n.Subtypes() {
		r, err := w.visit(st.Node)
		if err != nil {
			return Range{}, err
		}
		computed = computed.Intersect(r)
	}
	over, explicit := n.Explicit()
	r, err := Clamp(computed, over, explicit)
	if err != nil {
		return Range{}, fmt.Errorf("%s: %w", DisplayName(n), err)
	}
	w.done[n] = r
	return r, nil
}
