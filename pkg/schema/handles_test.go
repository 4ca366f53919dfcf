package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeHandles_Switch(t *testing.T) {
	n := &Node{ID: "sw", Type: NodeTypeSwitch, Config: map[string]any{
		"switchCases": []any{
			map[string]any{"handleId": "case_0", "value": "a"},
			map[string]any{"handleId": "case_2", "value": "b"},
		},
	}}
	handles, err := NodeHandles(n)
	require.NoError(t, err)

	assert.True(t, handles["case_0"])
	assert.True(t, handles["case_2"])
	assert.True(t, handles[HandleDefault])
	assert.False(t, handles["case_1"])
}

func TestNodeHandles_Loop(t *testing.T) {
	n := &Node{ID: "lp", Type: NodeTypeLoop}
	handles, err := NodeHandles(n)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{HandleLoopBody: true, HandleLoopDone: true}, handles)
}

func TestNodeHandles_Note(t *testing.T) {
	n := &Node{ID: "nt", Type: NodeTypeNote}
	handles, err := NodeHandles(n)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestNodeHandles_SingleOutput(t *testing.T) {
	n := &Node{ID: "a", Type: NodeTypeAction}
	handles, err := NodeHandles(n)
	require.NoError(t, err)
	assert.True(t, handles[""])
}

func TestCaseHandleID(t *testing.T) {
	assert.Equal(t, "case_0", CaseHandleID(0))
	assert.Equal(t, "case_7", CaseHandleID(7))
	assert.True(t, IsCaseHandle("case_3"))
	assert.False(t, IsCaseHandle(HandleLoopBody))
}

func TestNode_DisplayLabel(t *testing.T) {
	n := &Node{ID: "node-9", Label: "Send email"}
	assert.Equal(t, "Send email", n.DisplayLabel())

	n.Label = ""
	assert.Equal(t, "node-9", n.DisplayLabel())
}
