package observability

import (
	"context"
	"errors"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors fed by router events.
type Metrics struct {
	NodeVisits      *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	StepErrors      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "node_visits_total",
			Help:      "Number of times each node was entered.",
		}, []string{"node"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "transitions_total",
			Help:      "Number of transitions taken, by edge.",
		}, []string{"from", "to"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "handler_duration_seconds",
			Help:      "Time spent in node handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		StepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "step_errors_total",
			Help:      "Failed steps, by node and kind.",
		}, []string{"node", "kind"}),
	}

	for _, c := range []prometheus.Collector{m.NodeVisits, m.Transitions, m.HandlerDuration, m.StepErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Node).Inc()
			m.HandlerDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.From, e.To).Inc()
		},
		OnStepError: func(_ context.Context, e *domain.ErrorEvent) {
			m.StepErrors.WithLabelValues(e.Node, ErrorKind(e.Err)).Inc()
		},
	}
}

// ErrorKind classifies a step error for metric labels.
func ErrorKind(err error) string {
	var noMatch *domain.NoMatchingTransitionError
	var contract *domain.HandlerContractError
	switch {
	case errors.As(err, &noMatch):
		return "no_transition"
	case errors.As(err, &contract):
		return "contract"
	case errors.Is(err, domain.ErrUnknownNode):
		return "unknown_node"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "handler"
}
