package graphdoc

import (
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/registry"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/aretw0/waypoint/pkg/schema"
)

// Bind validates d, looks up a handler for every node in reg by node id and
// builds the graph. The document's entry, if any, is applied before opts.
func Bind(d *Document, reg *registry.Registry, opts ...router.Option) (*router.Graph, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}

	var problems []string
	nodes := make([]domain.Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		h, err := reg.Lookup(n.ID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("node %q: %v", n.ID, err))
			continue
		}
		writes, err := schema.Parse(n.Writes)
		if err != nil {
			problems = append(problems, fmt.Sprintf("node %q: writes: %v", n.ID, err))
			continue
		}
		nodes = append(nodes, domain.Node{
			Name:        n.ID,
			Description: n.Description,
			Handler:     h,
			Writes:      writes,
		})
	}
	if len(problems) > 0 {
		return nil, &domain.ConfigurationError{Problems: problems}
	}

	transitions := make([]domain.Transition, 0, len(d.Edges))
	for _, e := range d.Edges {
		guard := domain.Default()
		if !e.Default {
			guard = domain.WhenMap(e.When)
		}
		transitions = append(transitions, domain.Transition{From: e.Source, To: e.Target, Guard: guard})
	}

	if d.Entry != "" {
		opts = append([]router.Option{router.WithEntry(d.Entry)}, opts...)
	}
	return router.Build(nodes, transitions, opts...)
}
