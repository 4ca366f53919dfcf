package eval

import (
	"context"
	"time"

	"github.com/craftbase/flowkit/internal/expressions"
	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/template"
)

// ScriptRunner evaluates script node code against the runtime context.
type ScriptRunner struct {
	engine *expressions.ExprEngine
}

// NewScriptRunner creates a ScriptRunner with a fresh expression engine.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{engine: expressions.NewExprEngine()}
}

// Run evaluates a script node's code with the four runtime namespaces bound
// as top-level variables. The configured timeout is clamped into its
// documented range at the point of use, so stored out-of-range values cannot
// disable the bound.
func (r *ScriptRunner) Run(ctx context.Context, cfg *schema.ScriptConfig, rctx *template.Context) (any, error) {
	if cfg == nil || cfg.Code == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "script node has no code")
	}

	timeout := cfg.TimeoutMs
	if timeout < schema.ScriptTimeoutMin {
		timeout = schema.ScriptTimeoutMin
	}
	if timeout > schema.ScriptTimeoutMax {
		timeout = schema.ScriptTimeoutMax
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
	defer cancel()

	data := map[string]any{}
	if rctx != nil {
		data["trigger"] = rctx.Trigger
		data["steps"] = rctx.Steps
		data["vars"] = rctx.Vars
		data["output"] = rctx.Output
	}

	out, err := r.engine.Evaluate(runCtx, cfg.Code, data)
	if err != nil {
		return nil, err
	}
	if runCtx.Err() != nil {
		return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
			"script exceeded its %dms timeout", timeout).WithCause(runCtx.Err())
	}
	return out, nil
}
