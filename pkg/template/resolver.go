// Package template implements the {{dotted.path}} placeholder syntax used in
// workflow string fields. Resolution is best effort: unresolvable paths
// become empty strings with an attached diagnostic, malformed delimiters are
// left as literal text, and nothing ever panics or returns an error.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Context holds the four runtime namespaces available to placeholder
// resolution. All data must be pre-fetched before resolution begins;
// resolving never performs I/O.
type Context struct {
	Trigger map[string]any // activation payload
	Steps   map[string]any // node id -> output fields
	Vars    map[string]any // workflow variables
	Output  map[string]any // accumulated workflow output
}

// Diagnostic records one placeholder that did not resolve. Callers decide
// whether to surface diagnostics; resolution itself never fails.
type Diagnostic struct {
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

// Resolve replaces each {{path}} placeholder in input with the string form
// of the value at that path. Placeholders that do not resolve become empty
// strings and produce a diagnostic. Unmatched delimiters are left literal.
func Resolve(input string, rctx *Context) (string, []Diagnostic) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	var result strings.Builder
	result.Grow(len(input))

	var diags []Diagnostic

	i := 0
	for i < len(input) {
		idx := strings.Index(input[i:], "{{")
		if idx == -1 {
			result.WriteString(input[i:])
			break
		}

		result.WriteString(input[i : i+idx])
		start := i + idx + 2 // skip "{{"

		end := strings.Index(input[start:], "}}")
		if end == -1 {
			// Unmatched "{{" means literal text from here on.
			result.WriteString(input[i+idx:])
			break
		}
		end += start

		raw := input[start:end]
		if inner := strings.Index(raw, "{{"); inner != -1 {
			// A second "{{" opened before this one closed. Treat the outer
			// marker as literal and rescan from the inner one.
			result.WriteString(input[i+idx : start+inner])
			i = start + inner
			continue
		}

		expr := strings.TrimSpace(raw)
		val, ok := ResolvePath(expr, rctx)
		if !ok {
			diags = append(diags, Diagnostic{
				Expression: expr,
				Message:    unresolvedMessage(expr, rctx),
			})
		} else {
			result.WriteString(Stringify(val))
		}

		i = end + 2 // skip "}}"
	}

	return result.String(), diags
}

// SinglePath reports whether input is exactly one placeholder (ignoring
// surrounding whitespace) and returns its path. Callers use this to resolve
// a whole expression to its raw value instead of a string, e.g. a loop
// expression referencing an array.
func SinglePath(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return "", false
	}
	inner := s[2 : len(s)-2]
	if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

// ResolvePath resolves a single dotted path against the context. The first
// segment selects the namespace; for "steps" the second segment must be a
// node id. Returns false when the path does not resolve.
func ResolvePath(path string, rctx *Context) (any, bool) {
	if path == "" || rctx == nil {
		return nil, false
	}

	parts := strings.SplitN(path, ".", 2)
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	switch parts[0] {
	case "trigger":
		return resolveIn(rctx.Trigger, rest)
	case "steps":
		// Must key by node id before any field access.
		if rest == "" {
			return nil, false
		}
		return resolveIn(rctx.Steps, rest)
	case "vars":
		return resolveIn(rctx.Vars, rest)
	case "output":
		return resolveIn(rctx.Output, rest)
	default:
		return nil, false
	}
}

// resolveIn walks a dotted path into a namespace map. An empty path yields
// the whole namespace.
func resolveIn(root map[string]any, path string) (any, bool) {
	if root == nil {
		return nil, false
	}
	if path == "" {
		return root, true
	}

	var current any = root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, false
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Stringify converts a resolved value to its string form. Strings pass
// through unquoted, nil becomes the empty marker, numbers drop trailing
// zeros, and composite values are JSON-encoded.
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func unresolvedMessage(expr string, rctx *Context) string {
	ns, _, _ := strings.Cut(expr, ".")
	switch ns {
	case "trigger", "steps", "vars", "output":
		return fmt.Sprintf("path %q did not resolve", expr)
	default:
		return fmt.Sprintf("unknown namespace %q; available: trigger, steps, vars, output", ns)
	}
}
