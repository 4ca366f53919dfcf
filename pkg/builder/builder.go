// Package builder implements the graph mutation operations a workflow
// editor performs. Every operation is local, synchronous and idempotent:
// mutations against missing nodes or edges are no-ops rather than errors,
// matching the editor's forgiving interaction model.
//
// A Builder is not safe for concurrent use; edits are driven by a single UI
// session and apply atomically one after another.
package builder

import (
	"github.com/google/uuid"

	"github.com/craftbase/flowkit/pkg/schema"
)

// Builder mutates a workflow definition in place.
type Builder struct {
	def *schema.WorkflowDefinition
}

// New creates a Builder around an empty workflow definition.
func New(name string) *Builder {
	return &Builder{
		def: &schema.WorkflowDefinition{
			ID:   uuid.NewString(),
			Name: name,
		},
	}
}

// FromDefinition wraps an existing definition. The Builder mutates it
// directly.
func FromDefinition(def *schema.WorkflowDefinition) *Builder {
	return &Builder{def: def}
}

// Definition returns the underlying workflow definition.
func (b *Builder) Definition() *schema.WorkflowDefinition {
	return b.def
}

// --- nodes ---

// AddNode inserts a node with a fresh id and type-appropriate default
// configuration, emitting no edges. Trigger nodes start as manual triggers.
// Returns nil for unknown node types.
func (b *Builder) AddNode(t schema.NodeType) *schema.Node {
	cfg := schema.DefaultConfig(t)
	if cfg == nil {
		return nil
	}
	m, err := schema.EncodeConfig(cfg)
	if err != nil {
		return nil
	}

	node := schema.Node{
		ID:     uuid.NewString(),
		Type:   t,
		Config: m,
	}
	if t == schema.NodeTypeTrigger {
		node.TriggerType = schema.TriggerTypeManual
	}

	b.def.Nodes = append(b.def.Nodes, node)
	if t == schema.NodeTypeTrigger {
		b.syncTriggerMirror()
	}
	return &b.def.Nodes[len(b.def.Nodes)-1]
}

// RemoveNode removes a node and cascades removal of every edge that
// references it as source or target. Removing an unknown id is a no-op.
func (b *Builder) RemoveNode(id string) {
	kept := b.def.Nodes[:0]
	removed := false
	for _, n := range b.def.Nodes {
		if n.ID == id {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	if !removed {
		return
	}
	b.def.Nodes = kept

	edges := b.def.Edges[:0]
	for _, e := range b.def.Edges {
		if e.Source == id || e.Target == id {
			continue
		}
		edges = append(edges, e)
	}
	b.def.Edges = edges

	b.syncTriggerMirror()
}

// Relabel sets a node's display label.
func (b *Builder) Relabel(id, label string) {
	if n := b.def.FindNode(id); n != nil {
		n.Label = label
	}
}

// MoveNode updates a node's layout position.
func (b *Builder) MoveNode(id string, pos schema.Position) {
	if n := b.def.FindNode(id); n != nil {
		n.Position = pos
	}
}

// UpdateConfig replaces a node's configuration with the given typed config.
// Numeric fields are clamped into their documented ranges here, at the edit
// boundary. A config whose type does not match the node is a no-op.
func (b *Builder) UpdateConfig(id string, cfg schema.NodeConfig) {
	n := b.def.FindNode(id)
	if n == nil || cfg == nil || cfg.NodeType() != n.Type {
		return
	}

	switch c := cfg.(type) {
	case *schema.DelayConfig:
		c.Clamp()
	case *schema.ScriptConfig:
		c.Clamp()
	case *schema.LoopConfig:
		c.Clamp()
	}

	m, err := schema.EncodeConfig(cfg)
	if err != nil {
		return
	}
	n.Config = m

	if n.Type == schema.NodeTypeTrigger {
		b.syncTriggerMirror()
	}
}

// --- edges ---

// Connect adds an edge between two existing nodes. Returns nil when either
// endpoint is missing or the source does not expose the given handle.
func (b *Builder) Connect(source, target, sourceHandle string) *schema.Edge {
	src := b.def.FindNode(source)
	if src == nil || b.def.FindNode(target) == nil {
		return nil
	}

	handles, err := schema.NodeHandles(src)
	if err != nil || !handles[sourceHandle] {
		return nil
	}

	b.def.Edges = append(b.def.Edges, schema.Edge{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
	})
	return &b.def.Edges[len(b.def.Edges)-1]
}

// RemoveEdge removes an edge by id. Unknown ids are a no-op.
func (b *Builder) RemoveEdge(id string) {
	edges := b.def.Edges[:0]
	for _, e := range b.def.Edges {
		if e.ID == id {
			continue
		}
		edges = append(edges, e)
	}
	b.def.Edges = edges
}

// Rewire updates an edge's endpoints or source handle. Nil fields are left
// unchanged. The new endpoints must exist and the new handle must be exposed
// by the (possibly updated) source node, otherwise the edge is left as it
// was.
func (b *Builder) Rewire(edgeID string, newSource, newTarget, newSourceHandle *string) {
	e := b.def.FindEdge(edgeID)
	if e == nil {
		return
	}

	source := e.Source
	if newSource != nil {
		source = *newSource
	}
	target := e.Target
	if newTarget != nil {
		target = *newTarget
	}
	handle := e.SourceHandle
	if newSourceHandle != nil {
		handle = *newSourceHandle
	}

	src := b.def.FindNode(source)
	if src == nil || b.def.FindNode(target) == nil {
		return
	}
	handles, err := schema.NodeHandles(src)
	if err != nil || !handles[handle] {
		return
	}

	e.Source = source
	e.Target = target
	e.SourceHandle = handle
}

// --- switch cases ---

// AddCase appends a case to a switch node. The handle id is derived from
// the current case count, probing upward past ids still held by surviving
// cases so handle ids stay unique without renumbering.
func (b *Builder) AddCase(nodeID string) {
	n := b.def.FindNode(nodeID)
	if n == nil || n.Type != schema.NodeTypeSwitch {
		return
	}
	cfg, err := schema.DecodeConfig(n)
	if err != nil {
		return
	}
	sw := cfg.(*schema.SwitchConfig)

	used := make(map[string]bool, len(sw.Cases))
	for _, c := range sw.Cases {
		used[c.HandleID] = true
	}
	i := len(sw.Cases)
	for used[schema.CaseHandleID(i)] {
		i++
	}

	sw.Cases = append(sw.Cases, schema.SwitchCase{HandleID: schema.CaseHandleID(i)})
	b.storeConfig(n, sw)
}

// RemoveCase removes the case at index from a switch node and cascades
// removal of edges using that case's handle. Surviving cases keep their
// handle ids. Out-of-range indexes are a no-op.
func (b *Builder) RemoveCase(nodeID string, index int) {
	n := b.def.FindNode(nodeID)
	if n == nil || n.Type != schema.NodeTypeSwitch {
		return
	}
	cfg, err := schema.DecodeConfig(n)
	if err != nil {
		return
	}
	sw := cfg.(*schema.SwitchConfig)
	if index < 0 || index >= len(sw.Cases) {
		return
	}

	handle := sw.Cases[index].HandleID
	sw.Cases = append(sw.Cases[:index], sw.Cases[index+1:]...)
	b.storeConfig(n, sw)

	edges := b.def.Edges[:0]
	for _, e := range b.def.Edges {
		if e.Source == nodeID && e.SourceHandle == handle {
			continue
		}
		edges = append(edges, e)
	}
	b.def.Edges = edges
}

// --- triggers ---

// SetTriggerType changes a trigger node's activation source.
func (b *Builder) SetTriggerType(nodeID string, t schema.TriggerType) {
	n := b.def.FindNode(nodeID)
	if n == nil || n.Type != schema.NodeTypeTrigger || !t.Valid() {
		return
	}
	n.TriggerType = t
	b.syncTriggerMirror()
}

// SetTriggerEvent changes an event trigger's subscribed event key. Every
// filter field is reset: payload shapes differ per event, so filters from a
// previously selected event must not carry over. Setting the key it already
// has leaves the filters alone.
func (b *Builder) SetTriggerEvent(nodeID, eventKey string) {
	n := b.def.FindNode(nodeID)
	if n == nil || n.Type != schema.NodeTypeTrigger {
		return
	}
	cfg, err := schema.DecodeConfig(n)
	if err != nil {
		return
	}
	tc := cfg.(*schema.TriggerConfig)
	if tc.EventKey == eventKey {
		return
	}

	tc.EventKey = eventKey
	tc.ResetEventFilters()
	b.storeConfig(n, tc)
	b.syncTriggerMirror()
}

// storeConfig encodes a typed config back onto the node.
func (b *Builder) storeConfig(n *schema.Node, cfg schema.NodeConfig) {
	m, err := schema.EncodeConfig(cfg)
	if err != nil {
		return
	}
	n.Config = m
}

// syncTriggerMirror copies the first trigger node's type and config to the
// workflow-level mirror fields the backend indexes on.
func (b *Builder) syncTriggerMirror() {
	t := b.def.TriggerNode()
	if t == nil {
		b.def.TriggerType = ""
		b.def.TriggerConfig = nil
		return
	}
	b.def.TriggerType = t.TriggerType
	b.def.TriggerConfig = t.Config
}
