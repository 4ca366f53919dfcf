package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DecodeConfig defaults ---

func TestDecodeConfig_DelayDefaults(t *testing.T) {
	n := &Node{ID: "d1", Type: NodeTypeDelay}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)

	delay, ok := cfg.(*DelayConfig)
	require.True(t, ok)
	assert.Equal(t, 0, delay.DelayMs)
}

func TestDecodeConfig_ScriptDefaults(t *testing.T) {
	n := &Node{ID: "s1", Type: NodeTypeScript}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)

	script := cfg.(*ScriptConfig)
	assert.Empty(t, script.Code)
	assert.Equal(t, ScriptTimeoutDefault, script.TimeoutMs)
}

func TestDecodeConfig_LoopDefaults(t *testing.T) {
	n := &Node{ID: "l1", Type: NodeTypeLoop, Config: map[string]any{
		"loopExpression": "{{trigger.items}}",
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)

	loop := cfg.(*LoopConfig)
	assert.Equal(t, "{{trigger.items}}", loop.Expression)
	assert.Equal(t, "item", loop.ItemVariable)
	assert.Equal(t, "index", loop.IndexVariable)
	assert.Equal(t, 100, loop.MaxIterations)
}

func TestDecodeConfig_NoteColorFallback(t *testing.T) {
	n := &Node{ID: "n1", Type: NodeTypeNote, Config: map[string]any{
		"noteContent": "remember",
		"noteColor":   "magenta",
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)

	note := cfg.(*NoteConfig)
	assert.Equal(t, NoteColorYellow, note.Color)
	assert.Equal(t, "remember", note.Content)
}

func TestDecodeConfig_UnknownType(t *testing.T) {
	n := &Node{ID: "x", Type: NodeType("gateway")}
	_, err := DecodeConfig(n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node type")
}

// --- lenient numeric parsing ---

func TestDecodeConfig_NumericFromString(t *testing.T) {
	n := &Node{ID: "d1", Type: NodeTypeDelay, Config: map[string]any{
		"delayMs": "2500",
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.(*DelayConfig).DelayMs)
}

func TestDecodeConfig_NumericParseFailure(t *testing.T) {
	n := &Node{ID: "s1", Type: NodeTypeScript, Config: map[string]any{
		"scriptTimeout": "not a number",
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)
	assert.Equal(t, ScriptTimeoutDefault, cfg.(*ScriptConfig).TimeoutMs)
}

func TestDecodeConfig_NumericFromFloat(t *testing.T) {
	// JSON unmarshalling produces float64 for all numbers.
	n := &Node{ID: "l1", Type: NodeTypeLoop, Config: map[string]any{
		"loopMaxIterations": float64(250),
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.(*LoopConfig).MaxIterations)
}

func TestDecodeConfig_OutOfRangePreservedOnLoad(t *testing.T) {
	// Stored out-of-range values are not re-clamped on load; the validation
	// pass reports them instead.
	n := &Node{ID: "d1", Type: NodeTypeDelay, Config: map[string]any{
		"delayMs": float64(999999),
	}}
	cfg, err := DecodeConfig(n)
	require.NoError(t, err)
	assert.Equal(t, 999999, cfg.(*DelayConfig).DelayMs)
}

// --- clamping ---

func TestDelayConfig_Clamp(t *testing.T) {
	c := &DelayConfig{DelayMs: -50}
	c.Clamp()
	assert.Equal(t, DelayMsMin, c.DelayMs)

	c.DelayMs = 999999
	c.Clamp()
	assert.Equal(t, DelayMsMax, c.DelayMs)

	c.DelayMs = 1500
	c.Clamp()
	assert.Equal(t, 1500, c.DelayMs)
}

func TestScriptConfig_Clamp(t *testing.T) {
	c := &ScriptConfig{TimeoutMs: 10}
	c.Clamp()
	assert.Equal(t, ScriptTimeoutMin, c.TimeoutMs)

	c.TimeoutMs = 60000
	c.Clamp()
	assert.Equal(t, ScriptTimeoutMax, c.TimeoutMs)
}

func TestLoopConfig_Clamp(t *testing.T) {
	c := &LoopConfig{MaxIterations: 0}
	c.Clamp()
	assert.Equal(t, LoopMaxIterationsMin, c.MaxIterations)

	c.MaxIterations = 5000
	c.Clamp()
	assert.Equal(t, LoopMaxIterationsMax, c.MaxIterations)
}

// --- encode / reset ---

func TestEncodeConfig_RoundTrip(t *testing.T) {
	orig := &SwitchConfig{
		Expression: "{{trigger.status}}",
		Cases: []SwitchCase{
			{Label: "Active", HandleID: "case_0", Value: "active"},
			{Label: "Retired", HandleID: "case_1", Value: "retired"},
		},
	}

	m, err := EncodeConfig(orig)
	require.NoError(t, err)

	n := &Node{ID: "sw", Type: NodeTypeSwitch, Config: m}
	decoded, err := DecodeConfig(n)
	require.NoError(t, err)

	sw := decoded.(*SwitchConfig)
	assert.Equal(t, orig.Expression, sw.Expression)
	require.Len(t, sw.Cases, 2)
	assert.Equal(t, "case_0", sw.Cases[0].HandleID)
	assert.Equal(t, "retired", sw.Cases[1].Value)
}

func TestTriggerConfig_ResetEventFilters(t *testing.T) {
	c := &TriggerConfig{
		EventKey:               "item.updated",
		ItemCategoryKey:        "customers",
		ItemFamilyKey:          "retail",
		ItemTypeKey:            "company",
		AttributeKey:           "status",
		AttributeNewValue:      "active",
		AttributePreviousValue: "draft",
		FilterExpression:       `trigger.item.size > 10`,
	}
	c.ResetEventFilters()

	assert.Equal(t, "item.updated", c.EventKey)
	assert.Empty(t, c.ItemCategoryKey)
	assert.Empty(t, c.ItemFamilyKey)
	assert.Empty(t, c.ItemTypeKey)
	assert.Empty(t, c.AttributeKey)
	assert.Empty(t, c.AttributeNewValue)
	assert.Empty(t, c.AttributePreviousValue)
	assert.Empty(t, c.FilterExpression)
}

// --- defaults for fresh nodes ---

func TestDefaultConfig_AllTypes(t *testing.T) {
	for _, typ := range []NodeType{
		NodeTypeTrigger, NodeTypeCondition, NodeTypeAction, NodeTypeDelay,
		NodeTypeScript, NodeTypeSwitch, NodeTypeLoop, NodeTypeNote,
	} {
		cfg := DefaultConfig(typ)
		require.NotNil(t, cfg, "no default for %s", typ)
		assert.Equal(t, typ, cfg.NodeType())
	}
	assert.Nil(t, DefaultConfig(NodeType("bogus")))
}
