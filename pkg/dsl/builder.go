package dsl

import (
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/router"
)

// Builder manages the graph construction.
type Builder struct {
	nodes []*NodeBuilder
	index map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		index: make(map[string]*NodeBuilder),
	}
}

// Add declares a node. If the node already exists, it returns the existing
// builder so transitions can be appended later.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.index[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{Name: name},
		builder: b,
	}
	b.index[name] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Converge adds an unconditional transition from each source to target.
// It declares independent edges: any one source reaching target is enough.
func (b *Builder) Converge(sources []string, target string) *Builder {
	for _, src := range sources {
		b.Add(src).Go(target)
	}
	return b
}

// Definition returns the nodes and transitions in declaration order.
func (b *Builder) Definition() ([]domain.Node, []domain.Transition) {
	nodes := make([]domain.Node, 0, len(b.nodes))
	var transitions []domain.Transition
	for _, nb := range b.nodes {
		nodes = append(nodes, nb.node)
		transitions = append(transitions, nb.transitions...)
	}
	return nodes, transitions
}

// Build validates the declared graph.
func (b *Builder) Build(opts ...router.Option) (*router.Graph, error) {
	nodes, transitions := b.Definition()
	g, err := router.Build(nodes, transitions, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
