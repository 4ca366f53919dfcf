// Package diagram renders workflow graphs for humans: Mermaid flowcharts
// for docs and the CLI.
package diagram

import (
	"fmt"
	"strings"

	"github.com/craftbase/flowkit/pkg/schema"
)

// RenderMermaid renders a workflow definition as a Mermaid flowchart string.
// Node shapes follow type: circles for triggers, diamonds for conditions and
// switches, stadiums for delays, subroutine boxes for loops. Edge labels are
// the source handles.
func RenderMermaid(def *schema.WorkflowDefinition) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if def.Name != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", def.Name))
	}

	for i := range def.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(&def.Nodes[i])))
	}

	for _, e := range def.Edges {
		label := ""
		if e.SourceHandle != "" {
			label = fmt.Sprintf("|%s|", e.SourceHandle)
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n",
			mermaidSafeID(e.Source), label, mermaidSafeID(e.Target)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef trigger fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef note fill:#b7791a,stroke:#8a5c14,color:#fff,stroke-dasharray:5 5\n")

	for i := range def.Nodes {
		n := &def.Nodes[i]
		switch n.Type {
		case schema.NodeTypeTrigger:
			b.WriteString(fmt.Sprintf("    class %s trigger\n", mermaidSafeID(n.ID)))
		case schema.NodeTypeNote:
			b.WriteString(fmt.Sprintf("    class %s note\n", mermaidSafeID(n.ID)))
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(n *schema.Node) string {
	id := mermaidSafeID(n.ID)
	label := firstLine(n.DisplayLabel())

	switch n.Type {
	case schema.NodeTypeTrigger:
		return fmt.Sprintf("%s((%q))", id, label)
	case schema.NodeTypeCondition, schema.NodeTypeSwitch:
		return fmt.Sprintf("%s{%q}", id, label)
	case schema.NodeTypeDelay:
		return fmt.Sprintf("%s([%q])", id, label)
	case schema.NodeTypeLoop:
		return fmt.Sprintf("%s[[%q]]", id, label)
	case schema.NodeTypeNote:
		return fmt.Sprintf("%s[/%q/]", id, label)
	default: // action, script
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
// Replaces dots and dashes with underscores.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
