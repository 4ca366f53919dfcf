package actions

import (
	"github.com/craftbase/flowkit/internal/expressions"
	"github.com/craftbase/flowkit/pkg/schema"
)

// Builtin returns the default action catalog.
func Builtin() *Registry {
	r := NewRegistry()
	jq := expressions.NewGoJQEngine()

	builtins := []*Definition{
		{
			Name:        "notify.email",
			Label:       "Send email",
			Category:    "notify",
			Description: "Send an email to one or more recipients.",
			ParamsSchema: `{
				"type": "object",
				"required": ["to", "subject"],
				"properties": {
					"to": { "type": "string", "minLength": 1 },
					"subject": { "type": "string", "minLength": 1 },
					"body": { "type": "string" }
				},
				"additionalProperties": false
			}`,
		},
		{
			Name:        "notify.slack",
			Label:       "Post to Slack",
			Category:    "notify",
			Description: "Post a message to a Slack channel.",
			ParamsSchema: `{
				"type": "object",
				"required": ["channel", "message"],
				"properties": {
					"channel": { "type": "string", "minLength": 1 },
					"message": { "type": "string", "minLength": 1 }
				},
				"additionalProperties": false
			}`,
		},
		{
			Name:        "item.create",
			Label:       "Create item",
			Category:    "item",
			Description: "Create an item with the given attributes.",
			ParamsSchema: `{
				"type": "object",
				"required": ["categoryKey"],
				"properties": {
					"categoryKey": { "type": "string", "minLength": 1 },
					"attributes": { "type": "object" }
				},
				"additionalProperties": false
			}`,
		},
		{
			Name:        "item.update",
			Label:       "Update item",
			Category:    "item",
			Description: "Update attributes on an existing item.",
			ParamsSchema: `{
				"type": "object",
				"required": ["itemId", "attributes"],
				"properties": {
					"itemId": { "type": "string", "minLength": 1 },
					"attributes": { "type": "object" }
				},
				"additionalProperties": false
			}`,
		},
		{
			Name:        "http.request",
			Label:       "HTTP request",
			Category:    "integrate",
			Description: "Call an external HTTP endpoint.",
			ParamsSchema: `{
				"type": "object",
				"required": ["url"],
				"properties": {
					"url": { "type": "string", "format": "uri", "minLength": 1 },
					"method": { "type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"] },
					"headers": { "type": "object" },
					"body": { "type": "string" }
				},
				"additionalProperties": false
			}`,
		},
		newTransformJQ(jq),
	}

	for _, def := range builtins {
		// Names are literals above; duplicates are a programming error.
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// newTransformJQ builds the jq transform action. Beyond the schema check,
// the program itself is compiled at edit time so broken filters surface
// before the workflow ever runs.
func newTransformJQ(jq *expressions.GoJQEngine) *Definition {
	def := &Definition{
		Name:        "transform.jq",
		Label:       "Transform with jq",
		Category:    "transform",
		Description: "Reshape step output with a jq program.",
		ParamsSchema: `{
			"type": "object",
			"required": ["program"],
			"properties": {
				"program": { "type": "string", "minLength": 1 },
				"input": { "type": "string" }
			},
			"additionalProperties": false
		}`,
	}
	return def.WithChecker(func(params map[string]any) error {
		program, _ := params["program"].(string)
		if program == "" {
			return schema.NewError(schema.ErrCodeValidation, "jq program is empty")
		}
		return jq.Check(program)
	})
}
