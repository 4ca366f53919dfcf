// Package validation implements the three-stage workflow validation
// pipeline: structural (JSON Schema), semantic (configs, handles, event
// catalog, cron syntax), and graph (trigger cardinality, reachability,
// cycles). Stages short-circuit: semantic checks assume a structurally
// valid document, graph checks assume semantically resolvable endpoints.
package validation

import (
	"github.com/robfig/cron/v3"

	"github.com/craftbase/flowkit/pkg/catalog"
	"github.com/craftbase/flowkit/pkg/schema"
)

// Validator validates a complete workflow definition.
type Validator interface {
	Validate(def *schema.WorkflowDefinition) *schema.ValidationResult
}

// ActionCatalog is the slice of the action registry the validator needs to
// check action nodes.
type ActionCatalog interface {
	Has(name string) bool
	ValidateParams(name string, params map[string]any) error
}

// WorkflowValidator runs the full pipeline. The event and action catalogs
// are optional; without them, event keys and action names go unchecked.
type WorkflowValidator struct {
	structural *JSONSchemaValidator
	catalog    catalog.Catalog
	actions    ActionCatalog
	cronParser cron.Parser
}

// Option configures a WorkflowValidator.
type Option func(*WorkflowValidator)

// WithCatalog supplies an event catalog so trigger event keys can be
// checked against known events.
func WithCatalog(c catalog.Catalog) Option {
	return func(v *WorkflowValidator) { v.catalog = c }
}

// WithActionCatalog supplies an action catalog so action nodes can be
// checked against available actions. Mismatches are warnings: the catalog
// may be a different version than the one the workflow was authored against.
func WithActionCatalog(a ActionCatalog) Option {
	return func(v *WorkflowValidator) { v.actions = a }
}

// New creates a WorkflowValidator with the workflow JSON Schema compiled.
func New(opts ...Option) (*WorkflowValidator, error) {
	structural, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	v := &WorkflowValidator{
		structural: structural,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate runs structural, semantic and graph validation in order. A
// structural failure stops the pipeline; the later stages assume a
// well-formed document.
func (v *WorkflowValidator) Validate(def *schema.WorkflowDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if err := v.structural.ValidateDefinition(def); err != nil {
		result.AddError("", "SCHEMA_VIOLATION", err.Error())
		return result
	}

	result.Merge(v.validateSemantics(def))
	if !result.Valid() {
		return result
	}

	result.Merge(validateGraph(def))
	return result
}
