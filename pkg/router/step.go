package router

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/schema"
)

// Step advances one transition from current.
//
// Transitions leaving current are evaluated in declaration order against
// state; the first match wins. The destination handler runs and its update is
// merged over state. Handler errors are returned unchanged, and a State with
// no matching guard yields *domain.NoMatchingTransitionError. On error the
// returned node and State are the inputs.
func (g *Graph) Step(ctx context.Context, current string, state domain.State) (string, domain.State, error) {
	if _, ok := g.nodes[current]; !ok {
		return current, state, fmt.Errorf("%w: %q", domain.ErrUnknownNode, current)
	}

	for _, t := range g.outgoing[current] {
		if !t.Guard.Matches(state) {
			continue
		}

		g.emitNodeLeave(ctx, current)
		g.emitTransition(ctx, t)
		g.logger.Debug("transition", "from", t.From, "to", t.To, "guard", t.Guard.String())

		next, err := g.enter(ctx, t.To, state)
		if err != nil {
			g.emitStepError(ctx, t.To, err)
			return current, state, err
		}
		return t.To, next, nil
	}

	err := &domain.NoMatchingTransitionError{Node: current, Keys: state.Keys()}
	g.emitStepError(ctx, current, err)
	return current, state, err
}

// Enter runs the handler of name against state without taking a transition.
// Hosts use it to prime the entry node before the first Run.
func (g *Graph) Enter(ctx context.Context, name string, state domain.State) (domain.State, error) {
	if _, ok := g.nodes[name]; !ok {
		return state, fmt.Errorf("%w: %q", domain.ErrUnknownNode, name)
	}
	next, err := g.enter(ctx, name, state)
	if err != nil {
		g.emitStepError(ctx, name, err)
		return state, err
	}
	return next, nil
}

func (g *Graph) enter(ctx context.Context, name string, state domain.State) (domain.State, error) {
	node := g.nodes[name]

	start := time.Now()
	update, returned, err := node.Handler.Handle(ctx, state)
	elapsed := time.Since(start)
	if err != nil {
		return state, err
	}

	// A handler may add or overwrite keys but never drop them.
	next := state.Union(returned).Merge(update)

	if err := schema.Validate(node.Writes, next.Values()); err != nil {
		return state, &domain.HandlerContractError{Node: name, Err: err}
	}

	g.emitNodeEnter(ctx, name, elapsed, domain.Diff(state, next).Keys())
	return next, nil
}

func (g *Graph) emitNodeEnter(ctx context.Context, name string, d time.Duration, changed []string) {
	if g.hooks.OnNodeEnter == nil {
		return
	}
	g.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter},
		Node:      name,
		Duration:  d,
		Changed:   changed,
	})
}

func (g *Graph) emitNodeLeave(ctx context.Context, name string) {
	if g.hooks.OnNodeLeave == nil {
		return
	}
	g.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave},
		Node:      name,
	})
}

func (g *Graph) emitTransition(ctx context.Context, t domain.Transition) {
	if g.hooks.OnTransition == nil {
		return
	}
	g.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition},
		From:      t.From,
		To:        t.To,
		Guard:     t.Guard.String(),
	})
}

func (g *Graph) emitStepError(ctx context.Context, name string, err error) {
	g.logger.Debug("step failed", "node", name, "err", err)
	if g.hooks.OnStepError == nil {
		return
	}
	g.hooks.OnStepError(ctx, &domain.ErrorEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepError},
		Node:      name,
		Err:       err,
	})
}
