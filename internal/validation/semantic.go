package validation

import (
	"fmt"

	"github.com/craftbase/flowkit/pkg/schema"
)

// validateSemantics checks everything JSON Schema cannot express: per-type
// config constraints, edge endpoint existence, source handle validity
// against the source node's handle set, and trigger settings against the
// event catalog and cron grammar.
func (v *WorkflowValidator) validateSemantics(def *schema.WorkflowDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	nodesByID := make(map[string]*schema.Node, len(def.Nodes))
	for i := range def.Nodes {
		nodesByID[def.Nodes[i].ID] = &def.Nodes[i]
	}

	for i := range def.Nodes {
		v.validateNodeConfig(&def.Nodes[i], result)
	}

	for i := range def.Edges {
		validateEdge(&def.Edges[i], i, nodesByID, result)
	}

	return result
}

func (v *WorkflowValidator) validateNodeConfig(n *schema.Node, result *schema.ValidationResult) {
	path := fmt.Sprintf("nodes[%s].config", n.ID)

	cfg, err := schema.DecodeConfig(n)
	if err != nil {
		result.AddError(path, "INVALID_CONFIG", err.Error())
		return
	}

	switch c := cfg.(type) {
	case *schema.TriggerConfig:
		v.validateTriggerConfig(n, c, result)

	case *schema.ActionConfig:
		if v.actions == nil || c.Name == "" {
			break
		}
		if !v.actions.Has(c.Name) {
			result.AddWarning(path+".actionName", "UNKNOWN_ACTION",
				fmt.Sprintf("action %q is not in the action catalog", c.Name))
			break
		}
		if err := v.actions.ValidateParams(c.Name, c.Params); err != nil {
			result.AddWarning(path+".actionParams", "INVALID_ACTION_PARAMS", err.Error())
		}

	case *schema.DelayConfig:
		if c.DelayMs < schema.DelayMsMin || c.DelayMs > schema.DelayMsMax {
			result.AddWarning(path+".delayMs", "VALUE_OUT_OF_RANGE",
				fmt.Sprintf("delayMs %d is outside [%d, %d] and will be clamped on next edit",
					c.DelayMs, schema.DelayMsMin, schema.DelayMsMax))
		}

	case *schema.ScriptConfig:
		if c.TimeoutMs < schema.ScriptTimeoutMin || c.TimeoutMs > schema.ScriptTimeoutMax {
			result.AddWarning(path+".scriptTimeout", "VALUE_OUT_OF_RANGE",
				fmt.Sprintf("scriptTimeout %d is outside [%d, %d] and will be clamped on next edit",
					c.TimeoutMs, schema.ScriptTimeoutMin, schema.ScriptTimeoutMax))
		}

	case *schema.SwitchConfig:
		validateSwitchCases(n.ID, c, result)

	case *schema.LoopConfig:
		if c.MaxIterations < schema.LoopMaxIterationsMin || c.MaxIterations > schema.LoopMaxIterationsMax {
			result.AddWarning(path+".loopMaxIterations", "VALUE_OUT_OF_RANGE",
				fmt.Sprintf("loopMaxIterations %d is outside [%d, %d] and will be clamped on next edit",
					c.MaxIterations, schema.LoopMaxIterationsMin, schema.LoopMaxIterationsMax))
		}
	}
}

func (v *WorkflowValidator) validateTriggerConfig(n *schema.Node, cfg *schema.TriggerConfig, result *schema.ValidationResult) {
	path := fmt.Sprintf("nodes[%s].config", n.ID)

	switch n.TriggerType {
	case schema.TriggerTypeEvent:
		if cfg.EventKey == "" {
			result.AddError(path+".eventKey", "MISSING_EVENT_KEY",
				"event trigger requires an event key")
			return
		}
		if v.catalog != nil {
			if _, ok := v.catalog.Lookup(cfg.EventKey); !ok {
				result.AddError(path+".eventKey", "UNKNOWN_EVENT",
					fmt.Sprintf("event key %q is not in the event catalog", cfg.EventKey))
			}
		}

	case schema.TriggerTypeSchedule:
		if cfg.CronExpression == "" {
			result.AddError(path+".cronExpression", "MISSING_CRON_EXPRESSION",
				"schedule trigger requires a cron expression")
			return
		}
		if _, err := v.cronParser.Parse(cfg.CronExpression); err != nil {
			result.AddError(path+".cronExpression", "INVALID_CRON_EXPRESSION",
				fmt.Sprintf("invalid cron expression %q: %s", cfg.CronExpression, err.Error()))
		}

	case schema.TriggerTypeWebhook, schema.TriggerTypeManual:
		// No required settings.

	case "":
		result.AddWarning(fmt.Sprintf("nodes[%s].trigger_type", n.ID), "MISSING_TRIGGER_TYPE",
			"trigger node has no trigger type; it will never activate")
	}
}

func validateSwitchCases(nodeID string, cfg *schema.SwitchConfig, result *schema.ValidationResult) {
	path := fmt.Sprintf("nodes[%s].config.switchCases", nodeID)

	seen := make(map[string]struct{}, len(cfg.Cases))
	for i, c := range cfg.Cases {
		casePath := fmt.Sprintf("%s[%d]", path, i)
		if c.HandleID == "" {
			result.AddError(casePath+".handleId", "MISSING_HANDLE_ID",
				"switch case requires a handle id")
			continue
		}
		if !schema.IsCaseHandle(c.HandleID) {
			result.AddError(casePath+".handleId", "INVALID_HANDLE_ID",
				fmt.Sprintf("switch case handle id %q is not a case handle", c.HandleID))
			continue
		}
		if _, dup := seen[c.HandleID]; dup {
			result.AddError(casePath+".handleId", "DUPLICATE_HANDLE_ID",
				fmt.Sprintf("switch case handle id %q is used more than once", c.HandleID))
			continue
		}
		seen[c.HandleID] = struct{}{}
	}
}

func validateEdge(e *schema.Edge, index int, nodesByID map[string]*schema.Node, result *schema.ValidationResult) {
	path := fmt.Sprintf("edges[%d]", index)

	src, srcOK := nodesByID[e.Source]
	if !srcOK {
		result.AddError(path+".source", "UNKNOWN_NODE",
			fmt.Sprintf("edge %q references unknown source node %q", e.ID, e.Source))
	}
	if _, ok := nodesByID[e.Target]; !ok {
		result.AddError(path+".target", "UNKNOWN_NODE",
			fmt.Sprintf("edge %q references unknown target node %q", e.ID, e.Target))
	}
	if !srcOK {
		return
	}

	handles, err := schema.NodeHandles(src)
	if err != nil {
		result.AddError(path+".source_handle", "INVALID_HANDLE", err.Error())
		return
	}
	if !handles[e.SourceHandle] {
		result.AddError(path+".source_handle", "INVALID_HANDLE",
			fmt.Sprintf("edge %q uses handle %q which %s node %q does not expose",
				e.ID, e.SourceHandle, src.Type, src.ID))
	}
}
