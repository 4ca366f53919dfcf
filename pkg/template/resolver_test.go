package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *Context {
	return &Context{
		Trigger: map[string]any{
			"status": "active",
			"item": map[string]any{
				"id":   "itm-42",
				"name": "Fjord Table",
			},
		},
		Steps: map[string]any{
			"fetch": map[string]any{
				"count": float64(3),
				"body":  map[string]any{"ok": true},
			},
		},
		Vars:   map[string]any{"region": "emea"},
		Output: map[string]any{"summary": "done"},
	}
}

// --- plain text ---

func TestResolve_NoPlaceholders(t *testing.T) {
	out, diags := Resolve("nothing to see here", testContext())
	assert.Equal(t, "nothing to see here", out)
	assert.Empty(t, diags)
}

func TestResolve_SimplePath(t *testing.T) {
	out, diags := Resolve("{{trigger.status}}", testContext())
	assert.Equal(t, "active", out)
	assert.Empty(t, diags)
}

func TestResolve_EmbeddedInText(t *testing.T) {
	out, diags := Resolve("item {{trigger.item.name}} is {{trigger.status}}", testContext())
	assert.Equal(t, "item Fjord Table is active", out)
	assert.Empty(t, diags)
}

// --- namespaces ---

func TestResolve_StepsRequireNodeID(t *testing.T) {
	out, diags := Resolve("{{steps.fetch.count}}", testContext())
	assert.Equal(t, "3", out)
	assert.Empty(t, diags)

	out, diags = Resolve("{{steps}}", testContext())
	assert.Equal(t, "", out)
	require.Len(t, diags, 1)
	assert.Equal(t, "steps", diags[0].Expression)
}

func TestResolve_VarsAndOutput(t *testing.T) {
	out, diags := Resolve("{{vars.region}}/{{output.summary}}", testContext())
	assert.Equal(t, "emea/done", out)
	assert.Empty(t, diags)
}

func TestResolve_UnknownNamespace(t *testing.T) {
	out, diags := Resolve("{{secrets.key}}", testContext())
	assert.Equal(t, "", out)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unknown namespace")
}

// --- best-effort behavior ---

func TestResolve_UnresolvedPathBecomesEmpty(t *testing.T) {
	out, diags := Resolve("v={{trigger.missing.deep}}!", testContext())
	assert.Equal(t, "v=!", out)
	require.Len(t, diags, 1)
	assert.Equal(t, "trigger.missing.deep", diags[0].Expression)
}

func TestResolve_UnmatchedOpenLeftLiteral(t *testing.T) {
	out, diags := Resolve("broken {{trigger.status", testContext())
	assert.Equal(t, "broken {{trigger.status", out)
	assert.Empty(t, diags)
}

func TestResolve_StrayCloseLeftLiteral(t *testing.T) {
	out, diags := Resolve("weird }} text", testContext())
	assert.Equal(t, "weird }} text", out)
	assert.Empty(t, diags)
}

func TestResolve_NestedOpenRescans(t *testing.T) {
	// The outer "{{" never closes before an inner one opens; the outer is
	// literal, the inner resolves.
	out, diags := Resolve("x {{oops {{trigger.status}}", testContext())
	assert.Equal(t, "x {{oops active", out)
	assert.Empty(t, diags)
}

func TestResolve_WhitespaceInsideDelimiters(t *testing.T) {
	out, diags := Resolve("{{ trigger.status }}", testContext())
	assert.Equal(t, "active", out)
	assert.Empty(t, diags)
}

// --- stringification ---

func TestResolve_CompositeValueJSONEncoded(t *testing.T) {
	out, diags := Resolve("{{steps.fetch.body}}", testContext())
	assert.JSONEq(t, `{"ok":true}`, out)
	assert.Empty(t, diags)
}

func TestStringify_Scalars(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "3", Stringify(float64(3)))
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, "plain", Stringify("plain"))
}

// --- single-path detection ---

func TestSinglePath(t *testing.T) {
	path, ok := SinglePath("  {{trigger.item}}  ")
	require.True(t, ok)
	assert.Equal(t, "trigger.item", path)

	_, ok = SinglePath("a {{trigger.item}}")
	assert.False(t, ok)

	_, ok = SinglePath("{{a}}{{b}}")
	assert.False(t, ok)
}

func TestResolvePath_RawValue(t *testing.T) {
	val, ok := ResolvePath("trigger.item", testContext())
	require.True(t, ok)
	m, ok := val.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "itm-42", m["id"])
}
