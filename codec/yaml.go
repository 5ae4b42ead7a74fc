package codec

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	adhoc "github.com/fredronnv/adhoc"
)

// DecodeYAML decodes the first document of a YAML stream into the same
// value shapes as DecodeJSON. Integers become int64 and floats float64.
// Duplicate mapping keys, excessive nesting, alias expansion beyond the node
// budget and syntax errors are reported as adhoc.Issues; issue params carry
// the source line.
func DecodeYAML(data []byte, opt Options) (any, error) {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, adhoc.Issues{adhoc.Root().Issue(adhoc.CodeTruncated, "limit", opt.MaxBytes)}
	}
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, adhoc.Issues{parseIssue(adhoc.Root(), err.Error())}
	}
	y := &yamlDecoder{opt: opt, budget: max(minYAMLNodes, yamlNodesPerByte*len(data))}
	v, err := y.node(&root, adhoc.Root(), 0)
	if err != nil {
		if errors.Is(err, errStop) {
			return nil, y.issues
		}
		if iss, ok := adhoc.AsIssues(err); ok {
			return nil, append(y.issues, iss...)
		}
		return nil, err
	}
	if len(y.issues) > 0 {
		return nil, y.issues
	}
	return v, nil
}

// A document without aliases yields fewer values than it has bytes. Aliases
// may expand further, up to yamlNodesPerByte values per input byte, which
// stops "billion laughs" documents long before they exhaust memory.
const (
	minYAMLNodes     = 10000
	yamlNodesPerByte = 10
)

type yamlDecoder struct {
	opt    Options
	issues adhoc.Issues
	budget int
	nodes  int
}

func (y *yamlDecoder) node(n *yaml.Node, at adhoc.PathRef, depth int) (any, error) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode || n.Kind == yaml.ScalarNode {
		if y.nodes++; y.nodes > y.budget {
			return nil, adhoc.Issues{at.Issue(adhoc.CodeTruncated, "limit", y.budget, "line", n.Line)}
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return y.node(n.Content[0], at, depth)
	case yaml.AliasNode:
		return y.node(n.Alias, at, depth)
	case yaml.MappingNode:
		if depth >= y.opt.MaxDepth {
			return nil, adhoc.Issues{at.Issue(adhoc.CodeTruncated, "limit", y.opt.MaxDepth, "line", n.Line)}
		}
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			child := at.Field(k.Value)
			if _, dup := m[k.Value]; dup && y.opt.OnDuplicate == DupError {
				y.issues = append(y.issues, child.Issue(adhoc.CodeDuplicateKey, "key", k.Value, "line", k.Line))
				if y.opt.FailFast {
					return nil, errStop
				}
			}
			val, err := y.node(v, child, depth+1)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yaml.SequenceNode:
		if depth >= y.opt.MaxDepth {
			return nil, adhoc.Issues{at.Issue(adhoc.CodeTruncated, "limit", y.opt.MaxDepth, "line", n.Line)}
		}
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := y.node(c, at.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n), nil
	}
	return nil, nil
}

func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		if b, err := strconv.ParseBool(strings.ToLower(n.Value)); err == nil {
			return b
		}
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}
	return n.Value
}
