package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/waypoint/pkg/graphdoc"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a graph document.
// Shapes follow the node type:
// - Entry: ((Circle))
// - Decision: {Rhombus}
// - Terminal: [/Parallelogram/]
// - Action: [Rectangle]
// Guarded edges are labelled with their conditions; a default edge leaving
// a decision node is labelled "else". Overlay styles are applied if provided.
func GenerateMermaid(doc *graphdoc.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range doc.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case graphdoc.TypeEntry:
			opener, closer = "((", "))"
		case graphdoc.TypeDecision:
			opener, closer = "{", "}"
		case graphdoc.TypeTerminal:
			opener, closer = "[/", "/]"
		}

		label := node.ID
		if node.Label != "" {
			label = node.Label
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)
	}

	for _, e := range doc.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		switch {
		case len(e.When) > 0:
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(conditionLabel(e.When)), to)
		case isDecision(doc, e.Source):
			fmt.Fprintf(&sb, "    %s -. \"else\" .-> %s\n", from, to)
		default:
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || visited[safeID] || id == overlay.CurrentNode {
				continue
			}
			visited[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func isDecision(doc *graphdoc.Document, id string) bool {
	n, ok := doc.Node(id)
	return ok && n.Type == graphdoc.TypeDecision
}

func conditionLabel(when map[string]any) string {
	keys := make([]string, 0, len(when))
	for k := range when {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %v", k, when[k])
	}
	return strings.Join(parts, " and ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
