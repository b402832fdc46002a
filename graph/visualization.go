package graph

import (
	"fmt"
	"strings"
)

// Exporter provides methods to export graphs in different formats
type Exporter[S, U any] struct {
	graph *StateGraph[S, U]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S, U any](graph *StateGraph[S, U]) *Exporter[S, U] {
	return &Exporter[S, U]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S, U]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Nodes that belong to a branch are grouped into a subgraph named after it.
func (ge *Exporter[S, U]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	if ge.graph.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString("    style START fill:#90EE90\n")
	}

	var branches []string
	byBranch := make(map[string][]string)
	for _, name := range ge.graph.order {
		b := ge.graph.nodes[name].Branch
		if b == "" {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
			continue
		}
		if _, ok := byBranch[b]; !ok {
			branches = append(branches, b)
		}
		byBranch[b] = append(byBranch[b], name)
	}
	for _, b := range branches {
		fmt.Fprintf(&sb, "    subgraph %s\n", b)
		for _, name := range byBranch[b] {
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", name, name)
		}
		sb.WriteString("    end\n")
	}

	hasEnd := false
	for _, edge := range ge.graph.edges {
		if edge.To == END {
			hasEnd = true
			break
		}
	}
	if hasEnd {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}

	if ge.graph.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", ge.graph.entryPoint)
	}
	for _, edge := range ge.graph.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", edge.From, edge.To)
	}

	if ge.graph.entryPoint != "" {
		fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", ge.graph.entryPoint)
	}

	return sb.String()
}
