package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftbase/flowkit/internal/actions"
	"github.com/craftbase/flowkit/pkg/catalog"
	"github.com/craftbase/flowkit/pkg/schema"
)

func newValidator(t *testing.T) *WorkflowValidator {
	t.Helper()
	v, err := New(WithCatalog(catalog.Builtin()))
	require.NoError(t, err)
	return v
}

func eventTrigger(id, eventKey string) schema.Node {
	return schema.Node{
		ID:          id,
		Type:        schema.NodeTypeTrigger,
		TriggerType: schema.TriggerTypeEvent,
		Config:      map[string]any{"eventKey": eventKey},
	}
}

// --- structural stage ---

func TestValidateRejectsNilDefinition(t *testing.T) {
	v := newValidator(t)

	result := v.Validate(nil)

	require.False(t, result.Valid())
	assert.Equal(t, "SCHEMA_VIOLATION", result.Errors[0].Code)
}

func TestValidateRejectsUnknownNodeType(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{{ID: "n1", Type: "teleport"}},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "SCHEMA_VIOLATION", result.Errors[0].Code)
}

func TestValidateRejectsDuplicateNodeIDs(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			{ID: "n1", Type: schema.NodeTypeAction},
			{ID: "n1", Type: schema.NodeTypeDelay},
		},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, "duplicate node id")
}

func TestValidateAcceptsMinimalWorkflow(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction, Config: map[string]any{"actionName": "notify.email"}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

// --- semantic stage ---

func TestValidateRejectsDanglingEdge(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{eventTrigger("t1", "item.created")},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "ghost"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "UNKNOWN_NODE", result.Errors[0].Code)
}

func TestValidateRejectsUnknownSourceHandle(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "sw1", Type: schema.NodeTypeSwitch, Config: map[string]any{
				"switchExpression": "{{trigger.status}}",
				"switchCases": []any{
					map[string]any{"handleId": "case_0", "value": "open"},
				},
			}},
			{ID: "a1", Type: schema.NodeTypeAction},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "sw1"},
			{ID: "e2", Source: "sw1", Target: "a1", SourceHandle: "case_7"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "INVALID_HANDLE", result.Errors[0].Code)
}

func TestValidateRejectsEdgeFromNote(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "note1", Type: schema.NodeTypeNote},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "note1", Target: "t1"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "INVALID_HANDLE", result.Errors[0].Code)
}

func TestValidateRejectsUnknownEventKey(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{eventTrigger("t1", "item.vaporized")},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "UNKNOWN_EVENT", result.Errors[0].Code)
}

func TestValidateWithoutCatalogSkipsEventKeyCheck(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{eventTrigger("t1", "item.vaporized")},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
}

func TestValidateRejectsBadCronExpression(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{{
			ID:          "t1",
			Type:        schema.NodeTypeTrigger,
			TriggerType: schema.TriggerTypeSchedule,
			Config:      map[string]any{"cronExpression": "99 * * * *"},
		}},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "INVALID_CRON_EXPRESSION", result.Errors[0].Code)
}

func TestValidateAcceptsFiveFieldCron(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{{
			ID:          "t1",
			Type:        schema.NodeTypeTrigger,
			TriggerType: schema.TriggerTypeSchedule,
			Config:      map[string]any{"cronExpression": "*/15 9-17 * * 1-5"},
		}},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
}

func TestValidateRejectsDuplicateSwitchHandles(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "sw1", Type: schema.NodeTypeSwitch, Config: map[string]any{
				"switchCases": []any{
					map[string]any{"handleId": "case_0", "value": "a"},
					map[string]any{"handleId": "case_0", "value": "b"},
				},
			}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "sw1"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "DUPLICATE_HANDLE_ID", result.Errors[0].Code)
}

func TestValidateWarnsOnOutOfRangeDelay(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "d1", Type: schema.NodeTypeDelay, Config: map[string]any{"delayMs": float64(999999)}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "d1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "VALUE_OUT_OF_RANGE", result.Warnings[0].Code)
}

func TestValidateWarnsOnUnknownAction(t *testing.T) {
	v, err := New(WithCatalog(catalog.Builtin()), WithActionCatalog(actions.Builtin()))
	require.NoError(t, err)

	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction, Config: map[string]any{"actionName": "no.such.action"}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	assert.Contains(t, warningCodes(result), "UNKNOWN_ACTION")
}

func TestValidateWarnsOnBadActionParams(t *testing.T) {
	v, err := New(WithCatalog(catalog.Builtin()), WithActionCatalog(actions.Builtin()))
	require.NoError(t, err)

	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction, Config: map[string]any{
				"actionName":   "notify.email",
				"actionParams": map[string]any{"to": "ops@example.com"},
			}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	assert.Contains(t, warningCodes(result), "INVALID_ACTION_PARAMS")
}

// --- graph stage ---

func TestValidateWarnsOnMissingTrigger(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{{ID: "a1", Type: schema.NodeTypeAction}},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "NO_TRIGGER", result.Warnings[0].Code)
}

func TestValidateWarnsOnMultipleTriggers(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			eventTrigger("t2", "item.updated"),
		},
		Edges: []schema.Edge{},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	codes := warningCodes(result)
	assert.Contains(t, codes, "MULTIPLE_TRIGGERS")
}

func TestValidateWarnsOnUnreachableNode(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction},
			{ID: "orphan", Type: schema.NodeTypeAction},
			{ID: "note1", Type: schema.NodeTypeNote},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	codes := warningCodes(result)
	assert.Contains(t, codes, "UNREACHABLE_NODE")

	// Notes are exempt from reachability.
	for _, w := range result.Warnings {
		assert.NotContains(t, w.Message, "note1")
	}
}

func TestValidateRejectsCycleWithoutLoopNode(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction},
			{ID: "a2", Type: schema.NodeTypeAction},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
			{ID: "e2", Source: "a1", Target: "a2"},
			{ID: "e3", Source: "a2", Target: "a1"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "CYCLE_DETECTED", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "a1")
	assert.Contains(t, result.Errors[0].Message, "a2")
}

func TestValidateWarnsOnCycleThroughLoopNode(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "l1", Type: schema.NodeTypeLoop, Config: map[string]any{"loopExpression": "{{trigger.items}}"}},
			{ID: "a1", Type: schema.NodeTypeAction},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "l1"},
			{ID: "e2", Source: "l1", Target: "a1", SourceHandle: "body"},
			{ID: "e3", Source: "a1", Target: "l1"},
		},
	}

	result := v.Validate(def)

	assert.True(t, result.Valid())
	codes := warningCodes(result)
	assert.Contains(t, codes, "CYCLE_WITH_LOOP")
}

func TestValidateRejectsSelfLoop(t *testing.T) {
	v := newValidator(t)
	def := &schema.WorkflowDefinition{
		Nodes: []schema.Node{
			eventTrigger("t1", "item.created"),
			{ID: "a1", Type: schema.NodeTypeAction},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "t1", Target: "a1"},
			{ID: "e2", Source: "a1", Target: "a1"},
		},
	}

	result := v.Validate(def)

	require.False(t, result.Valid())
	assert.Equal(t, "CYCLE_DETECTED", result.Errors[0].Code)
}

func warningCodes(r *schema.ValidationResult) []string {
	codes := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}
