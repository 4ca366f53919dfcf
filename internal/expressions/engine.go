package expressions

import "context"

// Engine evaluates expressions against workflow runtime data.
// Three implementations: CEL (trigger filter expressions), Expr (script
// nodes), GoJQ (transform action previews).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
