package dsl

import (
	"sync"

	adhoc "github.com/fredronnv/adhoc"
)

// Universe interns node definitions so that structurally identical wrappers
// are one shared node, and a named type maps to exactly one live instance.
//
// A Universe is owned by the start-up routine. It is filled lazily on first
// reference and never evicted. Concurrent first use is safe: LoadOrStore
// keeps whichever instance was stored first, and every caller gets that one.
type Universe struct {
	lists   sync.Map // adhoc.Node -> *ListNode
	ornulls sync.Map // adhoc.Node -> *OrNullNode
	named   sync.Map // string -> adhoc.Node
}

// NewUniverse returns an empty universe.
func NewUniverse() *Universe { return &Universe{} }

// List returns the canonical list of elem. When elem is a deferred reference
// that has not resolved yet, List returns a deferred node that becomes the
// canonical list of the target on first use, so a list built through a
// reference and one built on the target directly are the same node.
func (u *Universe) List(elem adhoc.Node) adhoc.Node {
	k := adhoc.Resolve(elem)
	if k == nil {
		return Lazy(func() adhoc.Node {
			if t := adhoc.Resolve(elem); t != nil {
				return u.List(t)
			}
			return nil
		})
	}
	if v, ok := u.lists.Load(k); ok {
		return v.(*ListNode)
	}
	v, _ := u.lists.LoadOrStore(k, newList(k))
	return v.(*ListNode)
}

// OrNull returns the canonical "child or null" node. Unresolved references
// are deferred the same way List defers them.
func (u *Universe) OrNull(child adhoc.Node) adhoc.Node {
	k := adhoc.Resolve(child)
	if k == nil {
		return Lazy(func() adhoc.Node {
			if t := adhoc.Resolve(child); t != nil {
				return u.OrNull(t)
			}
			return nil
		})
	}
	if v, ok := u.ornulls.Load(k); ok {
		return v.(*OrNullNode)
	}
	v, _ := u.ornulls.LoadOrStore(k, newOrNull(k))
	return v.(*OrNullNode)
}

// Named returns the single instance registered under key, calling build on
// first use. If two goroutines race on first use, both may call build but
// only the first stored result is ever returned.
func (u *Universe) Named(key string, build func() adhoc.Node) adhoc.Node {
	if v, ok := u.named.Load(key); ok {
		return v.(adhoc.Node)
	}
	v, _ := u.named.LoadOrStore(key, build())
	return v.(adhoc.Node)
}

// Lookup returns the instance registered under key, if any.
func (u *Universe) Lookup(key string) (adhoc.Node, bool) {
	v, ok := u.named.Load(key)
	if !ok {
		return nil, false
	}
	return v.(adhoc.Node), true
}

// Len reports how many wrappers and named instances have been interned.
func (u *Universe) Len() int {
	n := 0
	count := func(_, _ any) bool { n++; return true }
	u.lists.Range(count)
	u.ornulls.Range(count)
	u.named.Range(count)
	return n
}
