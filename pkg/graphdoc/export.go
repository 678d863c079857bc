package graphdoc

import (
	"fmt"

	"github.com/aretw0/waypoint/pkg/router"
)

// Export describes g as a Document. Handlers are not part of the document.
func Export(g *router.Graph, meta Metadata) *Document {
	doc := &Document{
		Version:  Version,
		Entry:    g.Entry(),
		Metadata: meta,
	}

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:          n.Name,
			Description: n.Description,
			Type:        nodeType(g, n.Name),
			Writes:      n.Writes.TypeNames(),
		})
	}

	seen := make(map[string]int)
	for _, t := range g.Transitions() {
		id := t.From + "_to_" + t.To
		seen[id]++
		if seen[id] > 1 {
			id = fmt.Sprintf("%s_%d", id, seen[id])
		}

		e := EdgeDoc{ID: id, Source: t.From, Target: t.To}
		if t.Guard.IsDefault() {
			e.Default = true
		} else {
			e.When = make(map[string]any)
			for _, c := range t.Guard.Conditions() {
				e.When[c.Field] = c.Value
			}
		}
		doc.Edges = append(doc.Edges, e)
	}
	return doc
}

func nodeType(g *router.Graph, name string) string {
	if name == g.Entry() {
		return TypeEntry
	}
	out := g.TransitionsFrom(name)
	if len(out) == 0 {
		return TypeTerminal
	}
	for _, t := range out {
		if !t.Guard.IsDefault() {
			return TypeDecision
		}
	}
	return TypeAction
}
