package trigger

import (
	"time"

	"github.com/craftbase/flowkit/pkg/schema"
)

// Activation is the signal that a workflow instance should run. Context
// becomes the `trigger` namespace of the run's template context; schedule
// and manual activations carry an empty context.
type Activation struct {
	WorkflowID string              `json:"workflow_id"`
	Type       schema.TriggerType  `json:"type"`
	Context    map[string]any      `json:"context,omitempty"`
	FiredAt    time.Time           `json:"fired_at"`
}

// FromEvent builds an activation for a matched platform event.
func FromEvent(workflowID string, ev Event) Activation {
	return Activation{
		WorkflowID: workflowID,
		Type:       schema.TriggerTypeEvent,
		Context:    ev.Payload,
		FiredAt:    time.Now().UTC(),
	}
}

// FromSchedule builds an activation for a due cron schedule.
func FromSchedule(workflowID string, due time.Time) Activation {
	return Activation{
		WorkflowID: workflowID,
		Type:       schema.TriggerTypeSchedule,
		FiredAt:    due,
	}
}

// FromWebhook builds an activation carrying a webhook request body.
func FromWebhook(workflowID string, payload map[string]any) Activation {
	return Activation{
		WorkflowID: workflowID,
		Type:       schema.TriggerTypeWebhook,
		Context:    payload,
		FiredAt:    time.Now().UTC(),
	}
}

// Manual builds an activation for an operator-initiated run.
func Manual(workflowID string) Activation {
	return Activation{
		WorkflowID: workflowID,
		Type:       schema.TriggerTypeManual,
		FiredAt:    time.Now().UTC(),
	}
}
