package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/craftbase/flowkit/pkg/schema"
)

// validateGraph checks the topology: trigger cardinality, reachability from
// the trigger, and cycles. Cycles that pass through a loop node are reported
// as warnings (the loop's iteration cap bounds them); any other cycle is an
// error.
func validateGraph(def *schema.WorkflowDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	var triggers []string
	for i := range def.Nodes {
		if def.Nodes[i].Type == schema.NodeTypeTrigger {
			triggers = append(triggers, def.Nodes[i].ID)
		}
	}
	switch len(triggers) {
	case 0:
		result.AddWarning("nodes", "NO_TRIGGER",
			"workflow has no trigger node and can only run manually")
	case 1:
	default:
		result.AddWarning("nodes", "MULTIPLE_TRIGGERS",
			fmt.Sprintf("workflow has %d trigger nodes; any of them can activate it", len(triggers)))
	}

	adjacency := make(map[string][]string, len(def.Nodes))
	for i := range def.Edges {
		e := &def.Edges[i]
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	checkReachability(def, triggers, adjacency, result)
	checkCycles(def, adjacency, result)

	return result
}

// checkReachability walks the graph from every trigger node and warns about
// nodes no activation can ever reach. Notes are exempt: they are annotations,
// not steps.
func checkReachability(def *schema.WorkflowDefinition, triggers []string, adjacency map[string][]string, result *schema.ValidationResult) {
	if len(triggers) == 0 {
		return
	}

	reached := make(map[string]bool, len(def.Nodes))
	queue := append([]string(nil), triggers...)
	for _, t := range triggers {
		reached[t] = true
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	for i := range def.Nodes {
		n := &def.Nodes[i]
		if n.Type == schema.NodeTypeNote || reached[n.ID] {
			continue
		}
		result.AddWarning(fmt.Sprintf("nodes[%s]", n.ID), "UNREACHABLE_NODE",
			fmt.Sprintf("%s node %q is not reachable from any trigger", n.Type, n.ID))
	}
}

// checkCycles finds strongly connected components and reports each cyclic
// one. A component containing a loop node is a warning since loop iteration
// caps bound it; everything else is an error.
func checkCycles(def *schema.WorkflowDefinition, adjacency map[string][]string, result *schema.ValidationResult) {
	nodeType := make(map[string]schema.NodeType, len(def.Nodes))
	order := make([]string, 0, len(def.Nodes))
	for i := range def.Nodes {
		nodeType[def.Nodes[i].ID] = def.Nodes[i].Type
		order = append(order, def.Nodes[i].ID)
	}

	t := &tarjan{
		adjacency: adjacency,
		index:     make(map[string]int, len(order)),
		lowlink:   make(map[string]int, len(order)),
		onStack:   make(map[string]bool, len(order)),
	}
	for _, id := range order {
		if _, visited := t.index[id]; !visited {
			t.strongConnect(id)
		}
	}

	selfLoops := make(map[string]bool)
	for source, targets := range adjacency {
		for _, target := range targets {
			if source == target {
				selfLoops[source] = true
			}
		}
	}

	for _, component := range t.components {
		if len(component) == 1 && !selfLoops[component[0]] {
			continue
		}

		sort.Strings(component)
		hasLoop := false
		for _, id := range component {
			if nodeType[id] == schema.NodeTypeLoop {
				hasLoop = true
				break
			}
		}

		members := strings.Join(component, ", ")
		if hasLoop {
			result.AddWarning("edges", "CYCLE_WITH_LOOP",
				fmt.Sprintf("cycle through loop node: %s", members))
		} else {
			result.AddError("edges", "CYCLE_DETECTED",
				fmt.Sprintf("workflow graph contains a cycle: %s", members))
		}
	}
}

// tarjan computes strongly connected components.
type tarjan struct {
	adjacency  map[string][]string
	counter    int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	components [][]string
}

func (t *tarjan) strongConnect(id string) {
	t.index[id] = t.counter
	t.lowlink[id] = t.counter
	t.counter++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, next := range t.adjacency[id] {
		if _, visited := t.index[next]; !visited {
			t.strongConnect(next)
			if t.lowlink[next] < t.lowlink[id] {
				t.lowlink[id] = t.lowlink[next]
			}
		} else if t.onStack[next] {
			if t.index[next] < t.lowlink[id] {
				t.lowlink[id] = t.index[next]
			}
		}
	}

	if t.lowlink[id] == t.index[id] {
		var component []string
		for {
			top := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[top] = false
			component = append(component, top)
			if top == id {
				break
			}
		}
		t.components = append(t.components, component)
	}
}
