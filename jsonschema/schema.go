// Package jsonschema exports adhoc node graphs as JSON Schema (draft
// 2020-12) documents.
//
// Named types reached recursively are emitted once under $defs and referred
// to with "#/$defs/<externalName>". A struct is expanded inline at most once
// per export; later occurrences become references too. The recursion state
// belongs to a single export call, so concurrent exports never share it.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strconv"

	adhoc "github.com/fredronnv/adhoc"
	"github.com/fredronnv/adhoc/dsl"
	"github.com/fredronnv/adhoc/registry"
	ijs "github.com/invopop/jsonschema"
)

// DefsPrefix prefixes every definition reference.
const DefsPrefix = "#/$defs/"

// Schema is the exported document type.
type Schema = ijs.Schema

// Exporter lets a custom node describe itself.
type Exporter interface {
	JSONSchema() (*Schema, error)
}

type exporter struct {
	defs      ijs.Definitions
	recursive map[adhoc.Node]bool
	done      map[adhoc.Node]*Schema
	anon      map[adhoc.Node]string
	defined   map[string]bool
	// refNamed emits every named node below the top level as a $ref.
	refNamed bool
}

func newExporter(refNamed bool) *exporter {
	return &exporter{
		defs:      ijs.Definitions{},
		recursive: map[adhoc.Node]bool{},
		done:      map[adhoc.Node]*Schema{},
		anon:      map[adhoc.Node]string{},
		defined:   map[string]bool{},
		refNamed:  refNamed,
	}
}

// Export renders n inline. Recursive references and structs reached more
// than once go to $defs.
func Export(n adhoc.Node) (*Schema, error) {
	e := newExporter(false)
	s, err := e.expand(n, nil, true)
	if err != nil {
		return nil, err
	}
	out := *s
	out.Version = ijs.Version
	if len(e.defs) > 0 {
		out.Definitions = e.defs
	}
	return &out, nil
}

// ExportRegistry renders every type and function of r. Types are listed
// under $defs by external name; each function contributes "<name>Params"
// (a fixed-length array) and "<name>Result".
func ExportRegistry(r *registry.Registry) (*Schema, error) {
	e := newExporter(true)
	for _, t := range r.Types() {
		if err := e.define(t.Node); err != nil {
			return nil, err
		}
	}
	for _, fn := range r.Functions() {
		params := &Schema{Type: "array", Description: fn.Description()}
		for _, p := range fn.Params() {
			ps, err := e.expand(p.Node, nil, false)
			if err != nil {
				return nil, fmt.Errorf("jsonschema: %s param %q: %w", fn.ExternalName(), p.Name, err)
			}
			ps.Title = p.Name
			if p.Description != "" {
				ps.Description = p.Description
			}
			params.PrefixItems = append(params.PrefixItems, ps)
		}
		n := uint64(len(fn.Params()))
		params.MinItems, params.MaxItems = &n, &n
		params.Items = ijs.FalseSchema
		e.defs[fn.ExternalName()+"Params"] = params

		res, err := e.expand(fn.Returns(), nil, false)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: %s result: %w", fn.ExternalName(), err)
		}
		e.defs[fn.ExternalName()+"Result"] = res
	}
	return &Schema{
		Version:     ijs.Version,
		Title:       "API version " + strconv.Itoa(r.Version()),
		Definitions: e.defs,
	}, nil
}

func (e *exporter) defName(n adhoc.Node) string {
	if name := adhoc.ExternalName(n); name != "" {
		return name
	}
	if name, ok := e.anon[n]; ok {
		return name
	}
	name := "anonymous" + strconv.Itoa(len(e.anon)+1)
	e.anon[n] = name
	return name
}

func (e *exporter) ref(n adhoc.Node) *Schema { return &Schema{Ref: DefsPrefix + e.defName(n)} }

func (e *exporter) define(n adhoc.Node) error {
	n = adhoc.Resolve(n)
	name := e.defName(n)
	if e.defined[name] {
		return nil
	}
	e.defined[name] = true
	s, err := e.expand(n, nil, true)
	if err != nil {
		return err
	}
	e.defs[name] = s
	return nil
}

func (e *exporter) expand(n adhoc.Node, path []adhoc.Node, top bool) (*Schema, error) {
	target := adhoc.Resolve(n)
	if target == nil {
		return nil, fmt.Errorf("%w: unresolved node", adhoc.ErrInvalidDefinition)
	}
	for _, p := range path {
		if p == target {
			e.recursive[target] = true
			return e.ref(target), nil
		}
	}
	if e.refNamed && !top && adhoc.ExternalName(target) != "" {
		if err := e.define(target); err != nil {
			return nil, err
		}
		return e.ref(target), nil
	}
	if prev, ok := e.done[target]; ok && !top {
		if name := e.defName(target); !e.defined[name] && e.defs[name] == nil {
			cp := *prev
			e.defs[name] = &cp
		}
		return e.ref(target), nil
	}
	path = append(path[:len(path):len(path)], target)

	s, err := e.body(target, path)
	if err != nil {
		return nil, err
	}
	if s.Title == "" {
		s.Title = adhoc.ExternalName(target)
	}
	if s.Description == "" {
		s.Description = target.Description()
	}
	if e.recursive[target] && !e.defined[e.defName(target)] {
		cp := *s
		e.defs[e.defName(target)] = &cp
	}
	if _, ok := target.(*dsl.StructNode); ok {
		cp := *s
		e.done[target] = &cp
	}
	return s, nil
}

func (e *exporter) body(n adhoc.Node, path []adhoc.Node) (*Schema, error) {
	switch t := n.(type) {
	case Exporter:
		return t.JSONSchema()
	case *dsl.StringNode:
		s := &Schema{Type: "string", Pattern: t.Anchored()}
		if ml := t.MaxLength(); ml >= 0 {
			u := uint64(ml)
			s.MaxLength = &u
		}
		return s, nil
	case *dsl.IntegerNode:
		s := &Schema{Type: "integer"}
		if lo, hi, ok := t.Bounds(); ok {
			s.Minimum = json.Number(strconv.FormatInt(lo, 10))
			s.Maximum = json.Number(strconv.FormatInt(hi, 10))
		}
		return s, nil
	case *dsl.BooleanNode:
		if t.IsStrict() {
			return &Schema{Type: "boolean"}, nil
		}
		return &Schema{AnyOf: []*Schema{
			{Type: "boolean"},
			{Type: "integer", Enum: []any{0, 1}},
		}}, nil
	case *dsl.EnumNode:
		vals := t.Values()
		enum := make([]any, len(vals))
		for i, v := range vals {
			enum[i] = v
		}
		return &Schema{Type: "string", Enum: enum}, nil
	case *dsl.NullNode:
		return &Schema{Type: "null"}, nil
	case *dsl.StructNode:
		s := &Schema{Type: "object", Properties: ijs.NewProperties(), AdditionalProperties: ijs.FalseSchema}
		for _, f := range t.Fields() {
			child, err := e.expand(f.Node, path, false)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", adhoc.DisplayName(t), f.Key, err)
			}
			if f.Description != "" {
				child.Description = f.Description
			}
			s.Properties.Set(f.Key, child)
			if f.Mandatory {
				s.Required = append(s.Required, f.Key)
			}
		}
		return s, nil
	case *dsl.ListNode:
		items, err := e.expand(t.Elem(), path, false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case *dsl.OrNullNode:
		child, err := e.expand(t.Child(), path, false)
		if err != nil {
			return nil, err
		}
		return &Schema{AnyOf: []*Schema{child, {Type: "null"}}}, nil
	case *dsl.LookupNode:
		inner, err := e.body(adhoc.Resolve(t.Inner()), path)
		if err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return &Schema{}, nil
	}
}
