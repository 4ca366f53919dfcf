// Package store persists workflow documents and their activation history.
package store

import (
	"context"
	"time"
)

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Workflows
	CreateWorkflow(ctx context.Context, wf *Workflow) error
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, update WorkflowUpdate) error
	ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]*Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	// Schedules
	ListDueSchedules(ctx context.Context, now time.Time) ([]*Workflow, error)
	SetNextRun(ctx context.Context, id string, nextRunAt time.Time) error

	// Activation log (append-only)
	AppendActivation(ctx context.Context, act *ActivationRecord) error
	GetActivations(ctx context.Context, workflowID string, since int64) ([]*ActivationRecord, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
