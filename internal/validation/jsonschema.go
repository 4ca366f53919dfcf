package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/craftbase/flowkit/pkg/schema"
)

// workflowSchemaJSON is the JSON Schema for workflow document validation.
// Embedded as a constant to avoid filesystem dependencies. Node config maps
// are deliberately open: their shape is a discriminated union interpreted by
// the semantic stage, not expressible as strict JSON Schema here.
const workflowSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://craftbase.dev/schemas/flowkit-workflow.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "id": { "type": "string" },
    "name": { "type": "string" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    },
    "trigger_type": {
      "type": "string",
      "enum": ["event", "schedule", "manual", "webhook"]
    },
    "trigger_config": { "type": "object" },
    "metadata": { "type": "object" }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "type": {
          "type": "string",
          "enum": ["trigger", "condition", "action", "delay", "script", "switch", "loop", "note"]
        },
        "label": { "type": "string" },
        "position": { "$ref": "#/$defs/position" },
        "trigger_type": {
          "type": "string",
          "enum": ["event", "schedule", "manual", "webhook"]
        },
        "config": { "type": "object" }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "source": {
          "type": "string",
          "minLength": 1
        },
        "target": {
          "type": "string",
          "minLength": 1
        },
        "source_handle": { "type": "string" }
      },
      "additionalProperties": false
    },
    "position": {
      "type": "object",
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      },
      "additionalProperties": false
    }
  }
}`

// JSONSchemaValidator implements the structural validation stage using JSON
// Schema Draft 2020-12. It is safe for concurrent use.
type JSONSchemaValidator struct {
	workflowSchema *jsonschema.Schema
}

// NewJSONSchemaValidator creates a validator with the workflow schema
// pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(workflowSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal workflow schema: %w", err)
	}
	if err := c.AddResource("https://craftbase.dev/schemas/flowkit-workflow.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add workflow schema resource: %w", err)
	}

	wfSchema, err := c.Compile("https://craftbase.dev/schemas/flowkit-workflow.json")
	if err != nil {
		return nil, fmt.Errorf("compile workflow schema: %w", err)
	}

	return &JSONSchemaValidator{workflowSchema: wfSchema}, nil
}

// ValidateDefinition validates a workflow document against the workflow JSON
// Schema, plus the structural checks JSON Schema cannot express: duplicate
// node and edge ids.
func (v *JSONSchemaValidator) ValidateDefinition(def *schema.WorkflowDefinition) error {
	if def == nil {
		return schema.NewError(schema.ErrCodeValidation, "workflow definition is nil")
	}

	doc, err := toJSONValue(def)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize workflow definition").WithCause(err)
	}

	if err := v.workflowSchema.Validate(doc); err != nil {
		return toFlowError(err)
	}

	seenNodes := make(map[string]struct{}, len(def.Nodes))
	for _, n := range def.Nodes {
		if _, exists := seenNodes[n.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate node id %q", n.ID)
		}
		seenNodes[n.ID] = struct{}{}
	}

	seenEdges := make(map[string]struct{}, len(def.Edges))
	for _, e := range def.Edges {
		if _, exists := seenEdges[e.ID]; exists {
			return schema.NewErrorf(schema.ErrCodeValidation, "duplicate edge id %q", e.ID)
		}
		seenEdges[e.ID] = struct{}{}
	}

	return nil
}

// toJSONValue round-trips a Go value through JSON encoding so that numeric
// values become json.Number, as the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toFlowError converts a jsonschema.ValidationError into a FlowError with
// one message per leaf violation.
func toFlowError(err error) *schema.FlowError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
