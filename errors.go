package adhoc

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes raised while checking client input.
const (
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeUnknownKey   = "unknown_key"
	CodeDuplicateKey = "duplicate_key"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeTooLong      = "too_long"
	CodePattern      = "pattern"
	CodeInvalidEnum  = "invalid_enum"
	CodeArity        = "arity"
	CodeUnknownName  = "unknown_name"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// Issue is a single client input error.
type Issue struct {
	Path    string // JSON Pointer (for example: /members/2/id).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: expected type name, pattern, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42}).
	Params map[string]any
}

// Issues is a collection of client input errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. unknown_key at /extra
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IsClientError reports whether err is a client input error (Issues) as
// opposed to an internal or registration error.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return false
	}
	_, ok := AsIssues(err)
	return ok
}

// IsInternal reports whether err is (or wraps) an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// InternalError reports that the server produced a value violating its own
// declared contract. It is never the client's fault.
type InternalError struct {
	Node  string // external name of the node that rejected the value, if any
	Path  string
	Cause error
}

func (e *InternalError) Error() string {
	var b strings.Builder
	b.WriteString("adhoc: internal error")
	if e.Node != "" {
		fmt.Fprintf(&b, " in %s", e.Node)
	}
	if e.Path != "" && e.Path != "/" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *InternalError) Unwrap() error { return e.Cause }

// Internalf builds an InternalError for node at path.
func Internalf(node, path, format string, args ...any) *InternalError {
	return &InternalError{Node: node, Path: path, Cause: fmt.Errorf(format, args...)}
}

// Registration-time failures. These are fatal at boot.
var (
	ErrNameCollision      = errors.New("name collision")
	ErrVersionRange       = errors.New("invalid version range")
	ErrSealed             = errors.New("registry sealed")
	ErrInvalidDefinition  = errors.New("invalid definition")
	ErrUnsupportedVersion = errors.New("unsupported api version")
)

// RegistrationError annotates a registration failure with the API version and
// the external name involved.
type RegistrationError struct {
	Version int
	Name    string
	Err     error
	Detail  string
}

func (e *RegistrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "adhoc: version %d", e.Version)
	if e.Name != "" {
		fmt.Fprintf(&b, ": %s", e.Name)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	return b.String()
}

func (e *RegistrationError) Unwrap() error { return e.Err }
