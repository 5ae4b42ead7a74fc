package dsl

import (
	"fmt"
	"reflect"

	adhoc "github.com/fredronnv/adhoc"
)

// meta carries the identity and version override shared by every node.
type meta struct {
	name        string
	desc        string
	explicit    adhoc.Range
	hasExplicit bool
}

func (m *meta) Name() string        { return m.name }
func (m *meta) Description() string { return m.desc }

func (m *meta) Explicit() (adhoc.Range, bool) { return m.explicit, m.hasExplicit }

// setVersions records an explicit override on a leaf node. Leaves are built
// with chained setters that cannot return errors, so an empty interval panics
// at construction (start-up) time, like regexp.MustCompile.
func (m *meta) setVersions(r adhoc.Range) {
	if r.Empty() {
		panic(fmt.Errorf("dsl: %q: %w: override %s is empty", m.name, adhoc.ErrVersionRange, r))
	}
	m.explicit = r
	m.hasExplicit = true
}

// invalidType builds the top-level invalid_type issue.
func invalidType(expected string, got any) adhoc.Issues {
	return adhoc.Issues{adhoc.Root().Issue(adhoc.CodeInvalidType, "expected", expected, "got", fmt.Sprintf("%T", got))}
}

// isNilNode reports whether n is nil or a typed nil pointer wrapped in the
// interface (a forward reference to a node not yet built).
func isNilNode(n adhoc.Node) bool {
	if n == nil {
		return true
	}
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
