// Package trigger decides whether and how a workflow activates: matching
// inbound platform events against trigger configurations and producing
// activation signals for schedule, webhook and manual triggers.
package trigger

import (
	"context"

	"github.com/craftbase/flowkit/pkg/catalog"
	"github.com/craftbase/flowkit/pkg/schema"
)

// Event is an inbound platform event offered to event triggers.
type Event struct {
	Key     string         `json:"key"`
	Payload map[string]any `json:"payload,omitempty"`
}

// BoolEvaluator evaluates a boolean filter expression against runtime data.
// Satisfied by the CEL engine.
type BoolEvaluator interface {
	EvaluateBool(ctx context.Context, expression string, data map[string]any) (bool, error)
}

// Matcher implements the activation decision for event triggers.
type Matcher struct {
	catalog catalog.Catalog
	filters BoolEvaluator
}

// NewMatcher creates a Matcher. filters may be nil, in which case trigger
// configurations carrying a filter expression never match.
func NewMatcher(cat catalog.Catalog, filters BoolEvaluator) *Matcher {
	return &Matcher{catalog: cat, filters: filters}
}

// Match decides whether an inbound event activates a trigger configuration.
//
// The event key must equal the configured key and must exist in the catalog;
// a key absent from the catalog never matches (fail closed, so taxonomy
// drift cannot activate workflows it was never reviewed against). Each
// non-empty item and attribute filter must equal the corresponding payload
// field; absent filters are wildcards. A filter expression, when present,
// must additionally evaluate to true; evaluation failures also fail closed
// and are returned as the error alongside the negative match.
func (m *Matcher) Match(ctx context.Context, cfg *schema.TriggerConfig, ev Event) (bool, error) {
	if cfg == nil || cfg.EventKey == "" {
		return false, nil
	}
	if cfg.EventKey != ev.Key {
		return false, nil
	}
	if _, known := m.catalog.Lookup(cfg.EventKey); !known {
		return false, nil
	}

	if !matchItemFilters(cfg, ev.Payload) {
		return false, nil
	}
	if !matchAttributeFilters(cfg, ev.Payload) {
		return false, nil
	}

	if cfg.FilterExpression != "" {
		if m.filters == nil {
			return false, schema.NewError(schema.ErrCodeEvaluation,
				"trigger has a filter expression but no evaluator is configured")
		}
		ok, err := m.filters.EvaluateBool(ctx, cfg.FilterExpression, map[string]any{
			"trigger": ev.Payload,
		})
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	return true, nil
}

// matchItemFilters checks itemCategoryKey/itemFamilyKey/itemTypeKey against
// the payload's item fields. Empty filters are wildcards.
func matchItemFilters(cfg *schema.TriggerConfig, payload map[string]any) bool {
	checks := []struct {
		filter string
		field  string
	}{
		{cfg.ItemCategoryKey, "categoryId"},
		{cfg.ItemFamilyKey, "familyId"},
		{cfg.ItemTypeKey, "typeId"},
	}
	for _, c := range checks {
		if c.filter == "" {
			continue
		}
		if payloadString(payload, "item", c.field) != c.filter {
			return false
		}
	}
	return true
}

// matchAttributeFilters checks attributeKey/attributeNewValue/
// attributePreviousValue against the payload's attribute fields. Empty
// filters are wildcards.
func matchAttributeFilters(cfg *schema.TriggerConfig, payload map[string]any) bool {
	checks := []struct {
		filter string
		field  string
	}{
		{cfg.AttributeKey, "key"},
		{cfg.AttributeNewValue, "newValue"},
		{cfg.AttributePreviousValue, "previousValue"},
	}
	for _, c := range checks {
		if c.filter == "" {
			continue
		}
		if payloadString(payload, "attribute", c.field) != c.filter {
			return false
		}
	}
	return true
}

// payloadString reads payload[section][field] as a string. Missing or
// non-string values yield "".
func payloadString(payload map[string]any, section, field string) string {
	if payload == nil {
		return ""
	}
	m, ok := payload[section].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[field].(string)
	return s
}
