package graphdoc

import (
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Validate checks the document's structure: supported version, unique
// non-empty node and edge ids, edges between declared nodes, a guard on
// every edge and a declared entry. Problems are reported together in a
// *domain.ConfigurationError.
//
// Routing rules that need the built graph, such as defaults shadowing later
// edges or unreachable nodes, are checked by router.Build during Bind.
func Validate(d *Document) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if d.Version != Version {
		addf("unsupported document version %q (want %q)", d.Version, Version)
	}
	if len(d.Nodes) == 0 {
		addf("document has no nodes")
	}

	nodes := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		switch {
		case n.ID == "":
			addf("node %d has no id", i)
		case nodes[n.ID]:
			addf("duplicate node id %q", n.ID)
		}
		nodes[n.ID] = true
		switch n.Type {
		case "", TypeEntry, TypeDecision, TypeAction, TypeTerminal:
		default:
			addf("node %q has unknown type %q", n.ID, n.Type)
		}
	}

	if d.Entry != "" && !nodes[d.Entry] {
		addf("entry node %q is not declared", d.Entry)
	}

	edges := make(map[string]bool, len(d.Edges))
	for i, e := range d.Edges {
		name := e.ID
		switch {
		case e.ID == "":
			addf("edge %d has no id", i)
			name = fmt.Sprintf("#%d", i)
		case edges[e.ID]:
			addf("duplicate edge id %q", e.ID)
		}
		edges[e.ID] = true

		if !nodes[e.Source] {
			addf("edge %s: source node %q not found", name, e.Source)
		}
		if !nodes[e.Target] {
			addf("edge %s: target node %q not found", name, e.Target)
		}
		switch {
		case e.Default && len(e.When) > 0:
			addf("edge %s: sets both when and default", name)
		case !e.Default && len(e.When) == 0:
			addf("edge %s: needs either when or default", name)
		}
	}

	if len(problems) > 0 {
		return &domain.ConfigurationError{Problems: problems}
	}
	return nil
}
