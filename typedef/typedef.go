// Package typedef builds nodes and function descriptors from declarative
// YAML definition files.
//
//	types:
//	  - name: group
//	    kind: struct
//	    from: 1
//	    mandatory:
//	      - {key: id, type: integer, min: 0, max: 100}
//	      - {key: parent, type: group, nullable: true}
//	    optional:
//	      - {key: tags, type: string, list: true, maxlen: 10}
//	functions:
//	  - name: group_get
//	    params: [{name: id, type: integer}]
//	    returns: {type: group}
//
// A reference names either a builtin (string, integer, boolean, null) or a
// type declared in the same file, in any order and possibly cyclically.
package typedef

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	adhoc "github.com/fredronnv/adhoc"
)

// Kinds of declared types.
const (
	KindStruct  = "struct"
	KindString  = "string"
	KindInteger = "integer"
	KindBoolean = "boolean"
	KindEnum    = "enum"
	KindNull    = "null"
)

// File is a parsed definition document.
type File struct {
	Types     []TypeDef     `yaml:"types"`
	Functions []FunctionDef `yaml:"functions"`
}

// Span is an optional version interval; missing ends are open.
type Span struct {
	From *int `yaml:"from"`
	To   *int `yaml:"to"`
}

// Range reports the explicit range, if either end is set.
func (s Span) Range() (adhoc.Range, bool) {
	if s.From == nil && s.To == nil {
		return adhoc.Range{}, false
	}
	r := adhoc.Always
	if s.From != nil {
		r.From = *s.From
	}
	if s.To != nil {
		r.To = *s.To
	}
	return r, true
}

// Constraints apply to scalar kinds and to inline builtin references.
type Constraints struct {
	MaxLen  *int     `yaml:"maxlen"`
	Pattern string   `yaml:"pattern"`
	Min     *int64   `yaml:"min"`
	Max     *int64   `yaml:"max"`
	Values  []string `yaml:"values"`
	Strict  bool     `yaml:"strict"`
}

func (c Constraints) empty() bool {
	return c.MaxLen == nil && c.Pattern == "" && c.Min == nil && c.Max == nil && len(c.Values) == 0 && !c.Strict
}

// TypeDef declares one named type.
type TypeDef struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	Span        `yaml:",inline"`
	Constraints `yaml:",inline"`
	Mandatory   []FieldDef `yaml:"mandatory"`
	Optional    []FieldDef `yaml:"optional"`
}

// Ref points at a builtin or declared type, optionally wrapped.
type Ref struct {
	Type        string `yaml:"type"`
	List        bool   `yaml:"list"`
	Nullable    bool   `yaml:"nullable"`
	Constraints `yaml:",inline"`
}

// FieldDef is one struct key.
type FieldDef struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
	Ref         `yaml:",inline"`
}

// ParamDef is one function parameter.
type ParamDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Ref         `yaml:",inline"`
}

// FunctionDef declares one public function.
type FunctionDef struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Span        `yaml:",inline"`
	Params      []ParamDef `yaml:"params"`
	Returns     *Ref       `yaml:"returns"`
}

var builtins = map[string]bool{KindString: true, KindInteger: true, KindBoolean: true, KindNull: true}

// Parse decodes and validates a definition document. Unknown keys are
// rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("typedef: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names, kinds and references without building anything.
func (f *File) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{adhoc.ErrInvalidDefinition}, args...)...))
	}
	declared := map[string]bool{}
	external := map[string]string{}
	for _, t := range f.Types {
		ext := adhoc.Capsify(t.Name)
		switch {
		case ext == "":
			bad("type %q has no name", t.Name)
			continue
		case !adhoc.Canonical(t.Name):
			bad("type %q does not capsify to a stable name", t.Name)
		case builtins[t.Name]:
			bad("type %q shadows a builtin", t.Name)
		case external[ext] != "":
			bad("types %q and %q share the external name %q", external[ext], t.Name, ext)
		}
		external[ext] = t.Name
		declared[t.Name] = true
	}
	checkRef := func(where string, r Ref) {
		switch {
		case r.Type == "":
			bad("%s: missing type", where)
		case builtins[r.Type]:
		case declared[r.Type]:
			if !r.Constraints.empty() {
				bad("%s: constraints only apply to builtin types", where)
			}
		default:
			bad("%s: unknown type %q", where, r.Type)
		}
	}
	for _, t := range f.Types {
		switch t.Kind {
		case KindStruct:
			seen := map[string]bool{}
			for _, fd := range append(append([]FieldDef(nil), t.Mandatory...), t.Optional...) {
				if fd.Key == "" || seen[fd.Key] {
					bad("type %q: empty or repeated key %q", t.Name, fd.Key)
				}
				seen[fd.Key] = true
				checkRef(fmt.Sprintf("type %q key %q", t.Name, fd.Key), fd.Ref)
			}
		case KindEnum:
			if len(t.Values) == 0 {
				bad("enum %q has no values", t.Name)
			}
		case KindString, KindInteger, KindBoolean, KindNull:
			if len(t.Mandatory)+len(t.Optional) > 0 {
				bad("type %q: only structs have keys", t.Name)
			}
		default:
			bad("type %q: unknown kind %q", t.Name, t.Kind)
		}
	}
	for _, fn := range f.Functions {
		if !adhoc.Canonical(fn.Name) {
			bad("function %q has no stable external name", fn.Name)
		}
		for i, p := range fn.Params {
			checkRef(fmt.Sprintf("function %q param %d", fn.Name, i), p.Ref)
		}
		if fn.Returns != nil {
			checkRef(fmt.Sprintf("function %q result", fn.Name), *fn.Returns)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("typedef: %w", errors.Join(errs...))
	}
	return nil
}
