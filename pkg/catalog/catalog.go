// Package catalog holds the trigger event catalog: the reference data that
// defines which events a workflow may subscribe to and which filter forms
// each event supports.
package catalog

// EventDef describes one subscribable platform event.
type EventDef struct {
	// Value is the stable event key, e.g. "item.created".
	Value string `json:"value"`

	// Category groups events for presentation; it has no matching semantics.
	Category string `json:"category"`

	// PayloadPaths lists the dotted paths available on the event payload when
	// this event fires. Reference/autocomplete data only, not enforced at
	// runtime.
	PayloadPaths []string `json:"payload_paths,omitempty"`

	// Capability flags. Each enables the corresponding optional filter
	// fields on a trigger configuration subscribed to this event.
	HasItemFilters     bool `json:"has_item_filters,omitempty"`
	HasAttributeFilter bool `json:"has_attribute_filter,omitempty"`
	HasBoardFilters    bool `json:"has_board_filters,omitempty"`
}

// Catalog resolves event keys to their definitions. Injected wherever event
// taxonomy is needed so deployments can swap or extend the built-in set
// without touching the matching algorithm.
type Catalog interface {
	Lookup(key string) (EventDef, bool)
	List() []EventDef
}

// Static is an immutable in-memory Catalog.
type Static struct {
	defs  []EventDef
	index map[string]int
}

// NewStatic builds a Static catalog from the given definitions. Later
// duplicates of the same event key are ignored.
func NewStatic(defs ...EventDef) *Static {
	c := &Static{
		defs:  make([]EventDef, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if _, exists := c.index[d.Value]; exists {
			continue
		}
		c.index[d.Value] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c
}

// Lookup returns the definition for an event key.
func (c *Static) Lookup(key string) (EventDef, bool) {
	i, ok := c.index[key]
	if !ok {
		return EventDef{}, false
	}
	return c.defs[i], true
}

// List returns all definitions in registration order.
func (c *Static) List() []EventDef {
	out := make([]EventDef, len(c.defs))
	copy(out, c.defs)
	return out
}

var _ Catalog = (*Static)(nil)
