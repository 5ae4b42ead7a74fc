package adhoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fredronnv/adhoc/i18n"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code string, kv ...any) Issue
}

// Root returns the PathRef for the top-level value.
func Root() PathRef { return &pathRef{parts: nil} }

// At parses a JSON Pointer into a PathRef.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{parts: parts}
}

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return &pathRef{parts: append(append([]string{}, p.parts...), escapeToken(name))}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at this path. kv are alternating parameter keys and
// values; the message comes from the i18n catalogue.
func (p *pathRef) Issue(code string, kv ...any) Issue {
	var m map[string]any
	if len(kv) >= 2 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: i18n.T(code, stringParams(m)), Params: m}
}

// escape '~' -> '~0', '/' -> '~1' per RFC6901
func escapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func stringParams(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Rebase prefixes every issue path with the given segment (a struct key or a
// list index). It is how issue paths are built up as an error propagates out
// of nested containers.
func Rebase(iss Issues, segment string) Issues {
	if len(iss) == 0 {
		return iss
	}
	base := "/" + escapeToken(segment)
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		it.Path = prefixPath(it.Path, base)
		out = append(out, it)
	}
	return out
}

func prefixPath(p, base string) string {
	switch {
	case p == "" || p == "/":
		return base
	case p[0] == '/':
		return base + p
	default:
		return base + "/" + p
	}
}

// RebaseErr applies Rebase when err carries Issues, prefixes the path of an
// InternalError, and wraps any other error as a parse_error issue.
func RebaseErr(err error, segment string) error {
	if err == nil {
		return nil
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		cp := *ie
		cp.Path = prefixPath(cp.Path, "/"+escapeToken(segment))
		return &cp
	}
	if iss, ok := AsIssues(err); ok {
		return Rebase(iss, segment)
	}
	return Issues{Issue{Path: "/" + escapeToken(segment), Code: CodeParseError, Message: err.Error(), Cause: err}}
}
