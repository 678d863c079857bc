package router

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Graph is an immutable, validated set of nodes and transitions.
type Graph struct {
	nodes       map[string]domain.Node
	order       []string
	transitions []domain.Transition
	outgoing    map[string][]domain.Transition
	entry       string

	maxSteps int
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Build validates nodes and transitions and returns the Graph.
// Every problem found is reported in a single *domain.ConfigurationError.
func Build(nodes []domain.Node, transitions []domain.Transition, opts ...Option) (*Graph, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(nodes) == 0 {
		return nil, &domain.ConfigurationError{Problems: []string{"graph has no nodes"}}
	}

	g := &Graph{
		nodes:    make(map[string]domain.Node, len(nodes)),
		outgoing: make(map[string][]domain.Transition),
		maxSteps: cfg.maxSteps,
		hooks:    cfg.hooks,
		logger:   cfg.logger,
	}

	for i, n := range nodes {
		if n.Name == "" {
			addf("node %d has no name", i)
			continue
		}
		if _, dup := g.nodes[n.Name]; dup {
			addf("node %q declared twice", n.Name)
			continue
		}
		if n.Handler == nil {
			n.Handler = domain.Passthrough
		}
		g.nodes[n.Name] = n
		g.order = append(g.order, n.Name)
	}

	g.entry = cfg.entry
	if g.entry == "" && len(g.order) > 0 {
		g.entry = g.order[0]
	}
	if _, ok := g.nodes[g.entry]; !ok {
		addf("entry node %q is not declared", g.entry)
	}

	defaulted := make(map[string]string)
	for i, t := range transitions {
		valid := true
		if _, ok := g.nodes[t.From]; !ok {
			addf("transition %d (%s): unknown source %q", i, t, t.From)
			valid = false
		}
		if _, ok := g.nodes[t.To]; !ok {
			addf("transition %d (%s): unknown target %q", i, t, t.To)
			valid = false
		}
		if !t.Guard.IsDefault() && len(t.Guard.Conditions()) == 0 {
			addf("transition %d (%s): guard has no conditions", i, t)
			valid = false
		}
		if prev, ok := defaulted[t.From]; ok {
			addf("transition %d (%s) is shadowed by the default transition to %q", i, t, prev)
			valid = false
		}
		if !valid {
			continue
		}
		if t.Guard.IsDefault() {
			defaulted[t.From] = t.To
		}
		g.transitions = append(g.transitions, t)
		g.outgoing[t.From] = append(g.outgoing[t.From], t)
	}

	if !cfg.allowUnreachable && len(problems) == 0 {
		for _, name := range g.unreachable() {
			addf("node %q is unreachable from %q", name, g.entry)
		}
	}

	if len(problems) > 0 {
		return nil, &domain.ConfigurationError{Problems: problems}
	}
	return g, nil
}

func (g *Graph) unreachable() []string {
	seen := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, t := range g.outgoing[current] {
			if !seen[t.To] {
				seen[t.To] = true
				queue = append(queue, t.To)
			}
		}
	}

	var out []string
	for _, name := range g.order {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// Entry returns the entry node name.
func (g *Graph) Entry() string {
	return g.entry
}

// Node returns the node declared under name.
func (g *Graph) Node(name string) (domain.Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns the nodes in declaration order.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Transitions returns every transition in declaration order.
func (g *Graph) Transitions() []domain.Transition {
	return append([]domain.Transition(nil), g.transitions...)
}

// TransitionsFrom returns the transitions leaving name, in evaluation order.
func (g *Graph) TransitionsFrom(name string) []domain.Transition {
	return append([]domain.Transition(nil), g.outgoing[name]...)
}

// Terminal reports whether name has no outgoing transitions.
func (g *Graph) Terminal(name string) bool {
	return len(g.outgoing[name]) == 0
}

// Observe returns a Graph sharing g's nodes and transitions whose hooks run
// g's own hooks followed by hooks. g is left unchanged.
func (g *Graph) Observe(hooks domain.LifecycleHooks) *Graph {
	c := *g
	c.hooks = g.hooks.Chain(hooks)
	return &c
}

// MaxSteps returns the per-Run step limit. Zero means unbounded.
func (g *Graph) MaxSteps() int {
	return g.maxSteps
}
