package eval

import (
	"github.com/craftbase/flowkit/pkg/schema"
	"github.com/craftbase/flowkit/pkg/template"
)

// SwitchHandle selects the output handle a switch node routes to. The
// switch expression is template-resolved and compared literally against each
// case's value in order; the first match wins. No match, including an empty
// case list, falls through to the default handle.
func SwitchHandle(cfg *schema.SwitchConfig, rctx *template.Context) (string, []template.Diagnostic) {
	if cfg == nil {
		return schema.HandleDefault, nil
	}

	resolved, diags := template.Resolve(cfg.Expression, rctx)
	for _, c := range cfg.Cases {
		if c.Value == resolved {
			return c.HandleID, diags
		}
	}
	return schema.HandleDefault, diags
}
