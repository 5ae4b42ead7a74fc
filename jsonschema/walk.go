package jsonschema

import (
	"errors"

	adhoc "github.com/fredronnv/adhoc"
)

// SkipChildren may be returned by a WalkFunc to skip the node's subtypes.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node reached by Walk. keys holds the struct
// keys leading to n; wrapper children add no key.
type WalkFunc func(keys []string, n adhoc.Node) error

// Walk visits n and its subtypes depth first. Every node is visited once,
// with the keys of the first path that reaches it, so recursive and densely
// shared graphs terminate in linear time.
func Walk(n adhoc.Node, fn WalkFunc) error {
	err := walk(n, nil, map[adhoc.Node]bool{}, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(n adhoc.Node, keys []string, seen map[adhoc.Node]bool, fn WalkFunc) error {
	target := adhoc.Resolve(n)
	if target == nil || seen[target] {
		return nil
	}
	seen[target] = true
	if err := fn(keys, target); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, st := range target.Subtypes() {
		k := keys
		if st.Key != "" {
			k = append(keys[:len(keys):len(keys)], st.Key)
		}
		if err := walk(st.Node, k, seen, fn); err != nil {
			return err
		}
	}
	return nil
}
