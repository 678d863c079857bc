package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/aretw0/waypoint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setter(key string, value any) domain.Handler {
	return domain.HandlerFunc(func(_ context.Context, s domain.State) (domain.Update, domain.State, error) {
		return domain.Update{key: value}, s, nil
	})
}

func TestStep_FirstMatchWins(t *testing.T) {
	g, err := router.Build(nodes("a", "b", "c", "d"), []domain.Transition{
		edge("a", "b", domain.When(domain.Eq("x", 1))),
		edge("a", "c", domain.When(domain.Eq("x", 1), domain.Eq("y", 2))),
		edge("a", "d", domain.Default()),
		edge("b", "a", domain.Default()),
		edge("c", "a", domain.Default()),
		edge("d", "a", domain.Default()),
	})
	require.NoError(t, err)
	ctx := context.Background()

	next, _, err := g.Step(ctx, "a", domain.NewState(map[string]any{"x": 1, "y": 2}))
	require.NoError(t, err)
	assert.Equal(t, "b", next, "earlier declaration shadows the more specific guard")

	next, _, err = g.Step(ctx, "a", domain.NewState(map[string]any{"x": 2}))
	require.NoError(t, err)
	assert.Equal(t, "d", next)
}

func TestStep_MergesUpdateAndKeepsFields(t *testing.T) {
	g, err := router.Build([]domain.Node{
		{Name: "a"},
		{Name: "b", Handler: setter("b_ran", true)},
	}, []domain.Transition{
		edge("a", "b", domain.Default()),
		edge("b", "a", domain.Default()),
	})
	require.NoError(t, err)

	in := domain.NewState(map[string]any{"kept": "yes"})
	next, out, err := g.Step(context.Background(), "a", in)
	require.NoError(t, err)
	assert.Equal(t, "b", next)
	assert.Equal(t, []string{"b_ran", "kept"}, out.Keys())
	assert.False(t, in.Has("b_ran"), "input state is not mutated")
}

func TestStep_HandlerCannotDropFields(t *testing.T) {
	dropper := domain.HandlerFunc(func(context.Context, domain.State) (domain.Update, domain.State, error) {
		return domain.Update{"new": 1}, domain.NewState(map[string]any{"fresh": true}), nil
	})
	g, err := router.Build([]domain.Node{{Name: "a"}, {Name: "b", Handler: dropper}},
		[]domain.Transition{edge("a", "b", domain.Default())})
	require.NoError(t, err)

	_, out, err := g.Step(context.Background(), "a", domain.NewState(map[string]any{"old": 1}))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "new", "old"}, out.Keys())
}

func TestStep_NoMatchingTransition(t *testing.T) {
	g, err := router.Build(nodes("a", "b"), []domain.Transition{
		edge("a", "b", domain.When(domain.Eq("ok", true))),
		edge("b", "a", domain.Default()),
	})
	require.NoError(t, err)

	state := domain.NewState(map[string]any{"ok": false})
	next, out, err := g.Step(context.Background(), "a", state)

	var nm *domain.NoMatchingTransitionError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, "a", nm.Node)
	assert.Equal(t, "a", next)
	assert.Equal(t, state, out)
}

func TestStep_TerminalNodeHasNoMatch(t *testing.T) {
	g, err := router.Build(nodes("a", "end"), []domain.Transition{edge("a", "end", domain.Default())})
	require.NoError(t, err)

	_, _, err = g.Step(context.Background(), "end", domain.State{})
	var nm *domain.NoMatchingTransitionError
	assert.True(t, errors.As(err, &nm))
}

func TestStep_UnknownNode(t *testing.T) {
	g, err := router.Build(nodes("a"), nil)
	require.NoError(t, err)

	_, _, err = g.Step(context.Background(), "ghost", domain.State{})
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestStep_HandlerErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("classifier offline")
	failing := domain.HandlerFunc(func(context.Context, domain.State) (domain.Update, domain.State, error) {
		return nil, domain.State{}, boom
	})
	g, err := router.Build([]domain.Node{{Name: "a"}, {Name: "b", Handler: failing}},
		[]domain.Transition{edge("a", "b", domain.Default())})
	require.NoError(t, err)

	in := domain.NewState(map[string]any{"k": "v"})
	next, out, err := g.Step(context.Background(), "a", in)
	assert.Same(t, boom, err)
	assert.Equal(t, "a", next)
	assert.Equal(t, in, out)
}

func TestStep_WriteContract(t *testing.T) {
	build := func(h domain.Handler) *router.Graph {
		g, err := router.Build([]domain.Node{
			{Name: "a"},
			{Name: "check", Handler: h, Writes: schema.Schema{"safe": schema.Bool()}},
		}, []domain.Transition{edge("a", "check", domain.Default())})
		require.NoError(t, err)
		return g
	}

	_, _, err := build(domain.Passthrough).Step(context.Background(), "a", domain.State{})
	var hc *domain.HandlerContractError
	require.True(t, errors.As(err, &hc))
	assert.Equal(t, "check", hc.Node)

	_, _, err = build(setter("safe", "yes")).Step(context.Background(), "a", domain.State{})
	assert.True(t, errors.As(err, &hc))

	_, out, err := build(setter("safe", true)).Step(context.Background(), "a", domain.State{})
	require.NoError(t, err)
	assert.True(t, out.Has("safe"))
}

func TestStep_Hooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { events = append(events, "leave:"+e.Node) },
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			events = append(events, "transition:"+e.From+">"+e.To+":"+e.Guard)
		},
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			events = append(events, "enter:"+e.Node)
			assert.Equal(t, []string{"hit"}, e.Changed)
		},
		OnStepError: func(_ context.Context, e *domain.ErrorEvent) { events = append(events, "error:"+e.Node) },
	}
	g, err := router.Build([]domain.Node{{Name: "a"}, {Name: "b", Handler: setter("hit", true)}},
		[]domain.Transition{edge("a", "b", domain.Default())},
		router.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	_, _, err = g.Step(context.Background(), "a", domain.State{})
	require.NoError(t, err)
	_, _, err = g.Step(context.Background(), "b", domain.State{})
	require.Error(t, err)

	assert.Equal(t, []string{"leave:a", "transition:a>b:default", "enter:b", "error:b"}, events)
}

func TestEnter(t *testing.T) {
	g, err := router.Build([]domain.Node{{Name: "a", Handler: setter("primed", true)}}, nil)
	require.NoError(t, err)

	out, err := g.Enter(context.Background(), "a", domain.State{})
	require.NoError(t, err)
	assert.True(t, out.Has("primed"))

	_, err = g.Enter(context.Background(), "nope", domain.State{})
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestObserve(t *testing.T) {
	var base, extra int
	g, err := router.Build(nodes("a", "b"), []domain.Transition{
		edge("a", "b", domain.Default()),
		edge("b", "a", domain.Default()),
	}, router.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { base++ },
	}))
	require.NoError(t, err)

	observed := g.Observe(domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { extra++ },
	})

	_, _, err = observed.Step(context.Background(), "a", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, 1, base)
	assert.Equal(t, 1, extra)

	_, _, err = g.Step(context.Background(), "b", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, 2, base)
	assert.Equal(t, 1, extra, "the original graph keeps its own hooks")
	assert.Equal(t, g.Transitions(), observed.Transitions())
}
