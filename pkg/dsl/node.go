package dsl

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/schema"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node        domain.Node
	transitions []domain.Transition
	builder     *Builder
}

// Do sets the handler run when the router enters this node.
func (n *NodeBuilder) Do(h domain.Handler) *NodeBuilder {
	n.node.Handler = h
	return n
}

// DoFunc is Do for a plain function.
func (n *NodeBuilder) DoFunc(fn func(ctx context.Context, s domain.State) (domain.Update, domain.State, error)) *NodeBuilder {
	return n.Do(domain.HandlerFunc(fn))
}

// Describe attaches a human readable description.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Description = text
	return n
}

// Writes declares the keys the handler must leave in State.
func (n *NodeBuilder) Writes(s schema.Schema) *NodeBuilder {
	n.node.Writes = s
	return n
}

// When adds a transition to target taken iff every condition holds.
func (n *NodeBuilder) When(target string, conditions ...domain.Condition) *NodeBuilder {
	n.transitions = append(n.transitions, domain.Transition{
		From:  n.node.Name,
		To:    target,
		Guard: domain.When(conditions...),
	})
	return n
}

// Otherwise adds the default transition. It must be the last one declared
// for the node.
func (n *NodeBuilder) Otherwise(target string) *NodeBuilder {
	n.transitions = append(n.transitions, domain.Transition{
		From:  n.node.Name,
		To:    target,
		Guard: domain.Default(),
	})
	return n
}

// Go is Otherwise for nodes with a single unconditional exit.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.Otherwise(target)
}

// Terminal drops every transition declared so far.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.transitions = nil
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
