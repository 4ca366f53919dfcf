package schema

// WorkflowDefinition is the JSON-serializable workflow document exchanged
// with the backend and with any execution engine. TriggerType and
// TriggerConfig mirror the trigger node's settings so the backend can index
// workflows without walking the graph.
type WorkflowDefinition struct {
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name,omitempty"`
	Nodes         []Node         `json:"nodes"`
	Edges         []Edge         `json:"edges"`
	TriggerType   TriggerType    `json:"trigger_type,omitempty"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Node is a vertex in the workflow graph.
//
// Config is an open map whose shape is a discriminated union keyed by Type;
// consumers must switch on Type to interpret it (see DecodeConfig). Absent
// fields mean "use default".
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label,omitempty"`
	Position    Position       `json:"position"`
	TriggerType TriggerType    `json:"trigger_type,omitempty"` // trigger nodes only
	Config      map[string]any `json:"config,omitempty"`
}

// DisplayLabel returns the node label, falling back to the id when empty.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Position is a 2D layout coordinate. Owned by the builder for layout only;
// it has no effect on execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection between two nodes. SourceHandle discriminates
// between multiple named outputs on the source node (switch cases, loop
// body/done); it is empty for single-output nodes.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle,omitempty"`
}

// NodeType enumerates the kinds of nodes in a workflow graph.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
	NodeTypeDelay     NodeType = "delay"
	NodeTypeScript    NodeType = "script"
	NodeTypeSwitch    NodeType = "switch"
	NodeTypeLoop      NodeType = "loop"
	NodeTypeNote      NodeType = "note"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeTrigger, NodeTypeCondition, NodeTypeAction, NodeTypeDelay,
		NodeTypeScript, NodeTypeSwitch, NodeTypeLoop, NodeTypeNote:
		return true
	}
	return false
}

// TriggerType enumerates the activation sources of a workflow.
type TriggerType string

const (
	TriggerTypeEvent    TriggerType = "event"
	TriggerTypeSchedule TriggerType = "schedule"
	TriggerTypeManual   TriggerType = "manual"
	TriggerTypeWebhook  TriggerType = "webhook"
)

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerTypeEvent, TriggerTypeSchedule, TriggerTypeManual, TriggerTypeWebhook:
		return true
	}
	return false
}

// FindNode returns the node with the given id, or nil.
func (d *WorkflowDefinition) FindNode(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// FindEdge returns the edge with the given id, or nil.
func (d *WorkflowDefinition) FindEdge(id string) *Edge {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return &d.Edges[i]
		}
	}
	return nil
}

// TriggerNode returns the first trigger-type node, or nil. The model does not
// enforce trigger cardinality; the validation pass warns on zero or multiple
// trigger nodes.
func (d *WorkflowDefinition) TriggerNode() *Node {
	for i := range d.Nodes {
		if d.Nodes[i].Type == NodeTypeTrigger {
			return &d.Nodes[i]
		}
	}
	return nil
}
