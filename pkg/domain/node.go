package domain

import (
	"context"

	"github.com/aretw0/waypoint/pkg/schema"
)

// Handler is the logic executed when the router enters a node.
// It reads the current State and returns a partial Update together with the
// (possibly unchanged) State. It must not mutate its input; side effects
// belong to the collaborators it calls.
type Handler interface {
	Handle(ctx context.Context, state State) (Update, State, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, state State) (Update, State, error)

// Handle calls f(ctx, state).
func (f HandlerFunc) Handle(ctx context.Context, state State) (Update, State, error) {
	return f(ctx, state)
}

// Passthrough is a handler that changes nothing.
var Passthrough Handler = HandlerFunc(func(_ context.Context, s State) (Update, State, error) {
	return nil, s, nil
})

// Node is a named step in the graph.
type Node struct {
	Name        string
	Description string
	Handler     Handler

	// Writes declares keys the handler must leave in State with the given
	// types, e.g. {"safe": schema.Bool()}. Empty means no contract.
	Writes schema.Schema
}
