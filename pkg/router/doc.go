/*
Package router implements the directed action graph: a fixed set of named
nodes, ordered guarded transitions between them, and a step function that
advances a session one node at a time.

A Graph is built once, validated eagerly and never modified afterwards, so a
single *Graph can be shared by any number of concurrent sessions without
locking. Each step evaluates the transitions of the current node in
declaration order, takes the first whose guard matches, runs the destination
node's handler and merges the handler's update over the previous State.

	g, err := router.Build(nodes, transitions, router.WithEntry("prompt"))
	if err != nil {
		// *domain.ConfigurationError
	}
	next, state, err := g.Step(ctx, "check_safety", state)
*/
package router
