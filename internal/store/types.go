package store

import (
	"encoding/json"
	"time"

	"github.com/craftbase/flowkit/pkg/schema"
)

// WorkflowStatus controls whether a workflow may activate.
type WorkflowStatus string

const (
	StatusEnabled  WorkflowStatus = "enabled"
	StatusDisabled WorkflowStatus = "disabled"
)

// Workflow is a persisted workflow document plus lifecycle columns. The
// trigger_type and cron_expression columns are denormalized from the
// definition's trigger mirror so schedule queries never parse JSON.
type Workflow struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Definition schema.WorkflowDefinition `json:"definition"`
	Status     WorkflowStatus            `json:"status"`

	TriggerType    schema.TriggerType `json:"trigger_type,omitempty"`
	CronExpression string             `json:"cron_expression,omitempty"`
	NextRunAt      *time.Time         `json:"next_run_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncTriggerColumns refreshes the denormalized trigger columns from the
// definition. Call before persisting a changed definition.
func (w *Workflow) SyncTriggerColumns() {
	w.TriggerType = w.Definition.TriggerType
	w.CronExpression = ""
	if w.TriggerType != schema.TriggerTypeSchedule {
		return
	}
	if cron, ok := w.Definition.TriggerConfig["cronExpression"].(string); ok {
		w.CronExpression = cron
	}
}

// WorkflowUpdate is a partial update; nil fields are left unchanged.
type WorkflowUpdate struct {
	Name       *string
	Definition *schema.WorkflowDefinition
	Status     *WorkflowStatus
}

// WorkflowFilter narrows ListWorkflows results.
type WorkflowFilter struct {
	Status      *WorkflowStatus
	TriggerType *schema.TriggerType
	Limit       int
	Offset      int
}

// ActivationRecord is one row of the append-only activation log. Sequence is
// per-workflow and assigned by the store on append.
type ActivationRecord struct {
	ID         int64           `json:"id"`
	WorkflowID string          `json:"workflow_id"`
	Type       string          `json:"type"`
	Context    json.RawMessage `json:"context,omitempty"`
	FiredAt    time.Time       `json:"fired_at"`
	Sequence   int64           `json:"sequence"`
}
