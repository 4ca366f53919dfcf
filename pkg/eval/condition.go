// Package eval implements the evaluation contract an execution engine
// consumes: condition comparisons, switch case selection, loop collection
// resolution and script evaluation. Template resolution follows the
// best-effort policy of pkg/template; only script evaluation can return an
// error.
package eval

import (
	"strconv"
	"strings"

	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/template"
)

// comparison operators, matched earliest-first; at the same position the
// longer operator wins so ">=" is never read as ">".
var symbolOps = []string{"==", "!=", ">=", "<=", ">", "<"}

var wordOps = []string{"contains", "startsWith", "endsWith"}

// Condition evaluates a condition node against the runtime context. The
// expression is template-resolved first, then parsed as
// "<lhs> <operator> <rhs>". An empty expression never matches. An
// expression without an operator matches only when its resolved text is
// "true" (case-insensitive).
func Condition(cfg *schema.ConditionConfig, rctx *template.Context) (bool, []template.Diagnostic) {
	if cfg == nil || strings.TrimSpace(cfg.Expression) == "" {
		return false, nil
	}

	resolved, diags := template.Resolve(cfg.Expression, rctx)
	return compare(resolved), diags
}

// compare parses and evaluates a resolved comparison expression.
func compare(expr string) bool {
	s := strings.TrimSpace(expr)
	if s == "" {
		return false
	}

	op, idx, opLen := findOperator(s)
	if op == "" {
		return strings.EqualFold(s, "true")
	}

	lhs := unquote(strings.TrimSpace(s[:idx]))
	rhs := unquote(strings.TrimSpace(s[idx+opLen:]))

	switch op {
	case "contains":
		return strings.Contains(lhs, rhs)
	case "startsWith":
		return strings.HasPrefix(lhs, rhs)
	case "endsWith":
		return strings.HasSuffix(lhs, rhs)
	case "==":
		return equal(lhs, rhs)
	case "!=":
		return !equal(lhs, rhs)
	case ">", "<", ">=", "<=":
		return ordered(lhs, rhs, op)
	default:
		return false
	}
}

// findOperator locates the earliest operator occurrence. Word operators must
// be whole space-delimited tokens.
func findOperator(s string) (op string, idx, opLen int) {
	idx = -1

	for _, candidate := range symbolOps {
		i := strings.Index(s, candidate)
		if i == -1 {
			continue
		}
		if idx == -1 || i < idx || (i == idx && len(candidate) > opLen) {
			op, idx, opLen = candidate, i, len(candidate)
		}
	}

	for _, candidate := range wordOps {
		i := strings.Index(s, " "+candidate+" ")
		if i == -1 {
			continue
		}
		// Position of the operator token itself.
		i++
		if idx == -1 || i < idx {
			op, idx, opLen = candidate, i, len(candidate)
		}
	}

	return op, idx, opLen
}

// equal compares numerically when both sides parse as numbers, otherwise as
// strings.
func equal(lhs, rhs string) bool {
	ln, lok := parseNumber(lhs)
	rn, rok := parseNumber(rhs)
	if lok && rok {
		return ln == rn
	}
	return lhs == rhs
}

// ordered compares numerically when both sides parse as numbers, otherwise
// lexicographically.
func ordered(lhs, rhs, op string) bool {
	ln, lok := parseNumber(lhs)
	rn, rok := parseNumber(rhs)

	var cmp int
	if lok && rok {
		switch {
		case ln < rn:
			cmp = -1
		case ln > rn:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(lhs, rhs)
	}

	switch op {
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
