package router

import (
	"context"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
)

// ContinueFunc is consulted after every step of Run with the node just
// entered and the resulting State. Returning false stops the run there.
type ContinueFunc func(next string, state domain.State) bool

// Until stops a run as soon as one of names is entered.
func Until(names ...string) ContinueFunc {
	return func(next string, _ domain.State) bool {
		for _, n := range names {
			if n == next {
				return false
			}
		}
		return true
	}
}

// Run steps from entry until shouldContinue returns false, a node without
// outgoing transitions is reached, ctx is done, or the graph's step limit is
// hit. A nil shouldContinue never stops the run by itself.
//
// It returns the last node entered and its State. On error those are the
// last good values, so callers can persist progress before surfacing it.
func (g *Graph) Run(ctx context.Context, entry string, state domain.State, shouldContinue ContinueFunc) (string, domain.State, error) {
	if _, ok := g.nodes[entry]; !ok {
		return entry, state, fmt.Errorf("%w: %q", domain.ErrUnknownNode, entry)
	}

	node := entry
	for steps := 0; ; steps++ {
		if g.Terminal(node) {
			return node, state, nil
		}
		if err := ctx.Err(); err != nil {
			return node, state, err
		}
		if g.maxSteps > 0 && steps >= g.maxSteps {
			return node, state, fmt.Errorf("%w: %d steps from %q", domain.ErrStepLimit, steps, entry)
		}

		next, nextState, err := g.Step(ctx, node, state)
		if err != nil {
			return node, state, err
		}
		node, state = next, nextState

		if shouldContinue != nil && !shouldContinue(node, state) {
			return node, state, nil
		}
	}
}
