package dsl

import (
	"context"
	"reflect"
	"strconv"

	adhoc "github.com/fredronnv/adhoc"
)

// ListNode is a homogeneous finite sequence of values of one child node.
// Obtain lists from a Universe so that every list of the same child is the
// same node.
type ListNode struct {
	meta
	elem adhoc.Node
}

var _ adhoc.Node = (*ListNode)(nil)

func newList(elem adhoc.Node) *ListNode {
	return &ListNode{elem: elem}
}

// Elem returns the wrapped node.
func (l *ListNode) Elem() adhoc.Node { return l.elem }

func (l *ListNode) Description() string {
	return "list of " + adhoc.DisplayName(l.elem)
}

func (l *ListNode) Subtypes() []adhoc.Subtype {
	return []adhoc.Subtype{{Node: l.elem}}
}

// elements returns the items of an ordered, finite, non-mapping container.
func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil, string, map[string]any:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, true
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func (l *ListNode) Check(ctx context.Context, v any) error {
	items, ok := elements(v)
	if !ok {
		return invalidType("list", v)
	}
	var iss adhoc.Issues
	for i, it := range items {
		if err := l.elem.Check(ctx, it); err != nil {
			err = adhoc.RebaseErr(err, strconv.Itoa(i))
			child, ok := adhoc.AsIssues(err)
			if !ok || adhoc.IsInternal(err) {
				return err
			}
			iss = adhoc.AppendIssues(iss, child...)
			if adhoc.IsFailFast(ctx) {
				return iss
			}
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// Convert runs convert-then-lookup on every element.
func (l *ListNode) Convert(ctx context.Context, v any) (any, error) {
	items, ok := elements(v)
	if !ok {
		return nil, invalidType("list", v)
	}
	out := make([]any, len(items))
	for i, it := range items {
		cv, err := l.elem.Convert(ctx, it)
		if err != nil {
			return nil, adhoc.RebaseErr(err, strconv.Itoa(i))
		}
		lv, err := l.elem.Lookup(ctx, cv)
		if err != nil {
			return nil, adhoc.RebaseErr(err, strconv.Itoa(i))
		}
		out[i] = lv
	}
	return out, nil
}

func (l *ListNode) Lookup(ctx context.Context, v any) (any, error) { return v, nil }

func (l *ListNode) Output(ctx context.Context, v any) (any, error) {
	items, ok := elements(v)
	if !ok {
		return nil, adhoc.Internalf(adhoc.DisplayName(l), "/", "expected list value, got %T", v)
	}
	out := make([]any, len(items))
	for i, it := range items {
		ov, err := l.elem.Output(ctx, it)
		if err != nil {
			return nil, adhoc.RebaseErr(adhoc.AsInternal(l.elem, err), strconv.Itoa(i))
		}
		out[i] = ov
	}
	return out, nil
}
