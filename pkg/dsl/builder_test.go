package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/aretw0/waypoint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Add("start").
		Describe("entry").
		Go("ask")

	b.Add("ask").
		DoFunc(func(_ context.Context, s domain.State) (domain.Update, domain.State, error) {
			return domain.Update{"answer": "yes"}, s, nil
		}).
		Writes(schema.Schema{"answer": schema.String()}).
		When("done", domain.Eq("answer", "yes")).
		Otherwise("start")

	b.Add("done").Terminal()

	nodes, transitions := b.Definition()
	require.Len(t, nodes, 3)
	assert.Equal(t, "entry", nodes[0].Description)
	assert.Equal(t, []string{"start", "ask", "done"}, []string{nodes[0].Name, nodes[1].Name, nodes[2].Name})
	require.Len(t, transitions, 3)
	assert.Equal(t, "ask -> done [when(answer=yes)]", transitions[1].String())
	assert.Equal(t, "ask -> start [default]", transitions[2].String())

	g, err := b.Build()
	require.NoError(t, err)

	next, state, err := g.Step(context.Background(), "start", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, "ask", next)
	assert.True(t, state.Has("answer"))

	next, _, err = g.Step(context.Background(), next, state)
	require.NoError(t, err)
	assert.Equal(t, "done", next)
	assert.True(t, g.Terminal("done"))
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	first := b.Add("a")
	assert.Same(t, first, b.Add("a"))
}

func TestBuilder_ConvergeIsIndependentEdges(t *testing.T) {
	b := New()
	b.Add("hub").When("x", domain.Eq("to", "x")).Otherwise("y")
	b.Add("x")
	b.Add("y")
	b.Converge([]string{"x", "y"}, "hub")

	_, transitions := b.Definition()
	var intoHub []string
	for _, tr := range transitions {
		if tr.To == "hub" {
			intoHub = append(intoHub, tr.From)
			assert.True(t, tr.Guard.IsDefault())
		}
	}
	assert.Equal(t, []string{"x", "y"}, intoHub)

	g, err := b.Build(router.WithEntry("hub"))
	require.NoError(t, err)
	for _, src := range []string{"x", "y"} {
		next, _, err := g.Step(context.Background(), src, domain.State{})
		require.NoError(t, err)
		assert.Equal(t, "hub", next)
	}
}

func TestBuilder_BuildWrapsConfigurationError(t *testing.T) {
	b := New()
	b.Add("a").Go("ghost")

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}
