package schema

import (
	"encoding/json"
	"strconv"
)

// Numeric field bounds. Clamping happens at the edit boundary (builder);
// values already persisted outside these ranges are preserved on load and
// reported as warnings by the validation pass.
const (
	DelayMsMin = 0
	DelayMsMax = 300000

	ScriptTimeoutMin     = 100
	ScriptTimeoutMax     = 30000
	ScriptTimeoutDefault = 5000

	LoopMaxIterationsMin     = 1
	LoopMaxIterationsMax     = 1000
	LoopMaxIterationsDefault = 100

	LoopItemVariableDefault  = "item"
	LoopIndexVariableDefault = "index"
)

// NodeConfig is the tagged union of per-node-type configuration shapes.
// Obtain one with DecodeConfig; switch on the concrete type to interpret it.
type NodeConfig interface {
	NodeType() NodeType
}

// TriggerConfig is the configuration of a trigger node. Which fields apply
// depends on the node's TriggerType: event triggers use EventKey plus the
// optional filters, schedule triggers use CronExpression, webhook triggers
// use WebhookSecret, manual triggers carry nothing.
type TriggerConfig struct {
	EventKey string `json:"eventKey,omitempty"`

	// Item filters (empty = wildcard).
	ItemCategoryKey string `json:"itemCategoryKey,omitempty"`
	ItemFamilyKey   string `json:"itemFamilyKey,omitempty"`
	ItemTypeKey     string `json:"itemTypeKey,omitempty"`

	// Attribute filters (empty = wildcard).
	AttributeKey           string `json:"attributeKey,omitempty"`
	AttributeNewValue      string `json:"attributeNewValue,omitempty"`
	AttributePreviousValue string `json:"attributePreviousValue,omitempty"`

	// FilterExpression is a free-form boolean expression over the event
	// payload, evaluated with `trigger` bound to the payload.
	FilterExpression string `json:"filterExpression,omitempty"`

	CronExpression string `json:"cronExpression,omitempty"`
	WebhookSecret  string `json:"webhookSecret,omitempty"`
}

func (TriggerConfig) NodeType() NodeType { return NodeTypeTrigger }

// ResetEventFilters clears every filter field. Called when the event key
// changes: payload shapes differ per event, so stale filters must not carry
// over.
func (c *TriggerConfig) ResetEventFilters() {
	c.ItemCategoryKey = ""
	c.ItemFamilyKey = ""
	c.ItemTypeKey = ""
	c.AttributeKey = ""
	c.AttributeNewValue = ""
	c.AttributePreviousValue = ""
	c.FilterExpression = ""
}

// ConditionConfig is the configuration of a condition node. Expression is a
// template expression compared with one of the operators
// ==, !=, >, <, >=, <=, contains, startsWith, endsWith. An empty expression
// never matches.
type ConditionConfig struct {
	Expression string `json:"conditionExpression,omitempty"`
}

func (ConditionConfig) NodeType() NodeType { return NodeTypeCondition }

// ActionConfig is the configuration of an action node. Its parameter shape
// is owned by the action catalog; this subsystem only carries the action
// name and the raw parameter map.
type ActionConfig struct {
	Name   string         `json:"actionName,omitempty"`
	Params map[string]any `json:"actionParams,omitempty"`
}

func (ActionConfig) NodeType() NodeType { return NodeTypeAction }

// DelayConfig is the configuration of a delay node.
type DelayConfig struct {
	DelayMs int `json:"delayMs"`
}

func (DelayConfig) NodeType() NodeType { return NodeTypeDelay }

// Clamp forces DelayMs into [DelayMsMin, DelayMsMax].
func (c *DelayConfig) Clamp() {
	c.DelayMs = clampInt(c.DelayMs, DelayMsMin, DelayMsMax)
}

// ScriptConfig is the configuration of a script node. Code is sandboxed
// expression text; TimeoutMs bounds a single evaluation.
type ScriptConfig struct {
	Code      string `json:"scriptCode,omitempty"`
	TimeoutMs int    `json:"scriptTimeout"`
}

func (ScriptConfig) NodeType() NodeType { return NodeTypeScript }

// Clamp forces TimeoutMs into [ScriptTimeoutMin, ScriptTimeoutMax].
func (c *ScriptConfig) Clamp() {
	c.TimeoutMs = clampInt(c.TimeoutMs, ScriptTimeoutMin, ScriptTimeoutMax)
}

// SwitchCase is one branch of a switch node. HandleID is the stable edge
// source handle; it is assigned from the ordinal position at creation time
// and never renumbered afterwards.
type SwitchCase struct {
	Label    string `json:"label,omitempty"`
	HandleID string `json:"handleId"`
	Value    string `json:"value,omitempty"`
}

// SwitchConfig is the configuration of a switch node. An empty case list
// means every evaluation falls through to the default handle.
type SwitchConfig struct {
	Expression string       `json:"switchExpression,omitempty"`
	Cases      []SwitchCase `json:"switchCases,omitempty"`
}

func (SwitchConfig) NodeType() NodeType { return NodeTypeSwitch }

// LoopConfig is the configuration of a loop node. Expression must resolve to
// a JSON array or a comma-separated scalar list.
type LoopConfig struct {
	Expression    string `json:"loopExpression,omitempty"`
	ItemVariable  string `json:"loopItemVariable,omitempty"`
	IndexVariable string `json:"loopIndexVariable,omitempty"`
	MaxIterations int    `json:"loopMaxIterations"`
}

func (LoopConfig) NodeType() NodeType { return NodeTypeLoop }

// Clamp forces MaxIterations into [LoopMaxIterationsMin, LoopMaxIterationsMax].
func (c *LoopConfig) Clamp() {
	c.MaxIterations = clampInt(c.MaxIterations, LoopMaxIterationsMin, LoopMaxIterationsMax)
}

// NoteColor enumerates the annotation colors.
type NoteColor string

const (
	NoteColorYellow NoteColor = "yellow"
	NoteColorBlue   NoteColor = "blue"
	NoteColorGreen  NoteColor = "green"
	NoteColorPink   NoteColor = "pink"
)

// NoteConfig is the configuration of a note node. Notes are purely
// annotative and never participate in execution.
type NoteConfig struct {
	Content string    `json:"noteContent,omitempty"`
	Color   NoteColor `json:"noteColor,omitempty"`
}

func (NoteConfig) NodeType() NodeType { return NodeTypeNote }

// DecodeConfig interprets a node's open config map as the typed shape for
// its node type. Missing fields get their documented defaults; numeric
// fields that fail to parse get their defaults instead of an error. Stored
// out-of-range numerics are preserved (no re-clamp on load).
func DecodeConfig(n *Node) (NodeConfig, error) {
	if n == nil {
		return nil, NewError(ErrCodeValidation, "node is nil")
	}
	m := n.Config

	switch n.Type {
	case NodeTypeTrigger:
		return &TriggerConfig{
			EventKey:               stringField(m, "eventKey"),
			ItemCategoryKey:        stringField(m, "itemCategoryKey"),
			ItemFamilyKey:          stringField(m, "itemFamilyKey"),
			ItemTypeKey:            stringField(m, "itemTypeKey"),
			AttributeKey:           stringField(m, "attributeKey"),
			AttributeNewValue:      stringField(m, "attributeNewValue"),
			AttributePreviousValue: stringField(m, "attributePreviousValue"),
			FilterExpression:       stringField(m, "filterExpression"),
			CronExpression:         stringField(m, "cronExpression"),
			WebhookSecret:          stringField(m, "webhookSecret"),
		}, nil

	case NodeTypeCondition:
		return &ConditionConfig{
			Expression: stringField(m, "conditionExpression"),
		}, nil

	case NodeTypeAction:
		cfg := &ActionConfig{Name: stringField(m, "actionName")}
		if params, ok := m["actionParams"].(map[string]any); ok {
			cfg.Params = params
		}
		return cfg, nil

	case NodeTypeDelay:
		return &DelayConfig{
			DelayMs: intField(m, "delayMs", DelayMsMin),
		}, nil

	case NodeTypeScript:
		return &ScriptConfig{
			Code:      stringField(m, "scriptCode"),
			TimeoutMs: intField(m, "scriptTimeout", ScriptTimeoutDefault),
		}, nil

	case NodeTypeSwitch:
		return &SwitchConfig{
			Expression: stringField(m, "switchExpression"),
			Cases:      decodeSwitchCases(m["switchCases"]),
		}, nil

	case NodeTypeLoop:
		cfg := &LoopConfig{
			Expression:    stringField(m, "loopExpression"),
			ItemVariable:  stringField(m, "loopItemVariable"),
			IndexVariable: stringField(m, "loopIndexVariable"),
			MaxIterations: intField(m, "loopMaxIterations", LoopMaxIterationsDefault),
		}
		if cfg.ItemVariable == "" {
			cfg.ItemVariable = LoopItemVariableDefault
		}
		if cfg.IndexVariable == "" {
			cfg.IndexVariable = LoopIndexVariableDefault
		}
		return cfg, nil

	case NodeTypeNote:
		cfg := &NoteConfig{
			Content: stringField(m, "noteContent"),
			Color:   NoteColor(stringField(m, "noteColor")),
		}
		switch cfg.Color {
		case NoteColorYellow, NoteColorBlue, NoteColorGreen, NoteColorPink:
		default:
			cfg.Color = NoteColorYellow
		}
		return cfg, nil

	default:
		return nil, NewErrorf(ErrCodeValidation, "unknown node type %q", n.Type).WithNode(n.ID)
	}
}

// EncodeConfig converts a typed config back into the open map form stored on
// a node.
func EncodeConfig(cfg NodeConfig) (map[string]any, error) {
	if cfg == nil {
		return nil, NewError(ErrCodeValidation, "config is nil")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, NewErrorf(ErrCodeValidation, "encode %s config: %s", cfg.NodeType(), err.Error()).WithCause(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, NewErrorf(ErrCodeValidation, "encode %s config: %s", cfg.NodeType(), err.Error()).WithCause(err)
	}
	return m, nil
}

// DefaultConfig returns the type-appropriate default configuration for a
// freshly placed node. Returns nil for unknown types.
func DefaultConfig(t NodeType) NodeConfig {
	switch t {
	case NodeTypeTrigger:
		return &TriggerConfig{}
	case NodeTypeCondition:
		return &ConditionConfig{}
	case NodeTypeAction:
		return &ActionConfig{}
	case NodeTypeDelay:
		return &DelayConfig{DelayMs: DelayMsMin}
	case NodeTypeScript:
		return &ScriptConfig{TimeoutMs: ScriptTimeoutDefault}
	case NodeTypeSwitch:
		return &SwitchConfig{}
	case NodeTypeLoop:
		return &LoopConfig{
			ItemVariable:  LoopItemVariableDefault,
			IndexVariable: LoopIndexVariableDefault,
			MaxIterations: LoopMaxIterationsDefault,
		}
	case NodeTypeNote:
		return &NoteConfig{Color: NoteColorYellow}
	default:
		return nil
	}
}

func decodeSwitchCases(v any) []SwitchCase {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	cases := make([]SwitchCase, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cases = append(cases, SwitchCase{
			Label:    stringField(m, "label"),
			HandleID: stringField(m, "handleId"),
			Value:    stringField(m, "value"),
		})
	}
	return cases
}

// stringField reads a string field from a config map. Non-string values
// yield the empty string.
func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// intField reads a numeric field from a config map. Values arrive as JSON
// numbers (float64) or as strings from form inputs; anything that fails to
// parse yields the default rather than an error.
func intField(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		return def
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f)
		}
		return def
	default:
		return def
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
