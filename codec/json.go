// Package codec adapts JSON wire payloads to the dynamic values adhoc nodes
// check: map[string]any, []any, string, bool, nil and json.Number.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"

	adhoc "github.com/fredronnv/adhoc"
)

// DuplicateStrictness controls duplicate object key handling.
type DuplicateStrictness int

const (
	// DupIgnore keeps the last value of a repeated key.
	DupIgnore DuplicateStrictness = iota
	// DupError reports every repeated key as a duplicate_key issue.
	DupError
)

// DefaultMaxDepth applies when Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// Options controls decoding limits.
type Options struct {
	MaxDepth    int
	MaxBytes    int64 // 0 disables the limit
	OnDuplicate DuplicateStrictness
	FailFast    bool
}

type decoder struct {
	dec    *gojson.Decoder
	opt    Options
	issues adhoc.Issues
}

var errStop = errors.New("stop")

// DecodeJSON decodes one JSON document. Numbers are kept as json.Number so
// integer nodes see the exact digits. Malformed input, excessive nesting and
// (with DupError) repeated keys are reported as adhoc.Issues.
func DecodeJSON(data []byte, opt Options) (any, error) {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, adhoc.Issues{adhoc.Root().Issue(adhoc.CodeTruncated, "limit", opt.MaxBytes)}
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{dec: dec, opt: opt}

	v, err := d.value(adhoc.Root(), 0)
	if err != nil {
		if errors.Is(err, errStop) {
			return nil, d.issues
		}
		if iss, ok := adhoc.AsIssues(err); ok {
			return nil, append(d.issues, iss...)
		}
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, adhoc.Issues{parseIssue(adhoc.Root(), "trailing data after top-level value")}
	}
	if len(d.issues) > 0 {
		return nil, d.issues
	}
	return v, nil
}

func parseIssue(at adhoc.PathRef, msg string) adhoc.Issue {
	iss := at.Issue(adhoc.CodeParseError)
	iss.Message = msg
	return iss
}

func (d *decoder) add(iss adhoc.Issue) error {
	d.issues = append(d.issues, iss)
	if d.opt.FailFast {
		return errStop
	}
	return nil
}

func (d *decoder) token(at adhoc.PathRef) (any, error) {
	tok, err := d.dec.Token()
	if err == io.EOF {
		return nil, adhoc.Issues{parseIssue(at, "unexpected end of input")}
	}
	if err != nil {
		return nil, adhoc.Issues{parseIssue(at, err.Error())}
	}
	return tok, nil
}

func (d *decoder) value(at adhoc.PathRef, depth int) (any, error) {
	tok, err := d.token(at)
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case gojson.Delim:
		if depth >= d.opt.MaxDepth {
			return nil, adhoc.Issues{at.Issue(adhoc.CodeTruncated, "limit", d.opt.MaxDepth)}
		}
		switch t {
		case '{':
			return d.object(at, depth)
		case '[':
			return d.array(at, depth)
		}
		return nil, adhoc.Issues{parseIssue(at, "unexpected delimiter "+string(rune(t)))}
	case gojson.Number:
		return json.Number(string(t)), nil
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case string, bool, nil:
		return t, nil
	}
	return nil, adhoc.Issues{parseIssue(at, "unexpected token")}
}

func (d *decoder) object(at adhoc.PathRef, depth int) (any, error) {
	m := map[string]any{}
	for d.dec.More() {
		tok, err := d.token(at)
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, adhoc.Issues{parseIssue(at, "object key is not a string")}
		}
		child := at.Field(key)
		if _, dup := m[key]; dup && d.opt.OnDuplicate == DupError {
			if err := d.add(child.Issue(adhoc.CodeDuplicateKey, "key", key)); err != nil {
				return nil, err
			}
		}
		v, err := d.value(child, depth+1)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	if _, err := d.token(at); err != nil { // '}'
		return nil, err
	}
	return m, nil
}

func (d *decoder) array(at adhoc.PathRef, depth int) (any, error) {
	out := []any{}
	for i := 0; d.dec.More(); i++ {
		v, err := d.value(at.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := d.token(at); err != nil { // ']'
		return nil, err
	}
	return out, nil
}

// EncodeJSON renders a wire value produced by Output.
func EncodeJSON(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// WriteJSON streams v to w, indented when indent is true.
func WriteJSON(w io.Writer, v any, indent bool) error {
	enc := gojson.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
