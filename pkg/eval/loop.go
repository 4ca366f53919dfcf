package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/template"
)

// LoopItems resolves a loop node's collection. When the expression is a
// single placeholder resolving to an array, the array's elements are used
// directly; otherwise the resolved string is parsed as a JSON array, falling
// back to a comma-separated scalar list. The result is capped at the
// configured maximum iterations (clamped into its documented range), with a
// diagnostic when items are dropped.
func LoopItems(cfg *schema.LoopConfig, rctx *template.Context) ([]any, []template.Diagnostic) {
	if cfg == nil || strings.TrimSpace(cfg.Expression) == "" {
		return nil, nil
	}

	items, diags := resolveCollection(cfg.Expression, rctx)

	max := cfg.MaxIterations
	if max < schema.LoopMaxIterationsMin {
		max = schema.LoopMaxIterationsMin
	}
	if max > schema.LoopMaxIterationsMax {
		max = schema.LoopMaxIterationsMax
	}
	if len(items) > max {
		diags = append(diags, template.Diagnostic{
			Expression: cfg.Expression,
			Message:    fmt.Sprintf("collection has %d items; capped at %d", len(items), max),
		})
		items = items[:max]
	}

	return items, diags
}

func resolveCollection(expression string, rctx *template.Context) ([]any, []template.Diagnostic) {
	// A whole-placeholder expression can reference an array directly.
	if path, ok := template.SinglePath(expression); ok {
		val, found := template.ResolvePath(path, rctx)
		if !found {
			return nil, []template.Diagnostic{{
				Expression: path,
				Message:    "loop collection path did not resolve",
			}}
		}
		if arr, isArr := val.([]any); isArr {
			return arr, nil
		}
		// Scalar value: fall through to string parsing of its string form.
		return parseScalarList(template.Stringify(val)), nil
	}

	resolved, diags := template.Resolve(expression, rctx)
	return parseScalarList(resolved), diags
}

// parseScalarList parses a resolved collection string: a JSON array when it
// looks like one, otherwise comma-separated scalars with whitespace trimmed
// and empty entries dropped.
func parseScalarList(s string) []any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			return arr
		}
	}

	var items []any
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, part)
	}
	return items
}
