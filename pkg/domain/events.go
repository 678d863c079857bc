package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventTransition EventType = "transition"
	EventStepError  EventType = "step_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Node string `json:"node"`
	// Duration is the handler run time. Only set on enter events.
	Duration time.Duration `json:"duration,omitempty"`
	Changed  []string      `json:"changed,omitempty"`
}

// TransitionEvent records which edge a step took.
type TransitionEvent struct {
	EventBase
	From  string `json:"from"`
	To    string `json:"to"`
	Guard string `json:"guard"`
}

// ErrorEvent records a failed step.
type ErrorEvent struct {
	EventBase
	Node string `json:"node"`
	Err  error  `json:"-"`
}

// LifecycleHooks defines callbacks for router observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnStepError  func(context.Context, *ErrorEvent)
}

// Chain returns hooks that call h first and then next.
func (h LifecycleHooks) Chain(next LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:  chain(h.OnNodeEnter, next.OnNodeEnter),
		OnNodeLeave:  chain(h.OnNodeLeave, next.OnNodeLeave),
		OnTransition: chain(h.OnTransition, next.OnTransition),
		OnStepError:  chain(h.OnStepError, next.OnStepError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
