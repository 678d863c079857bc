/*
Package waypoint hosts conversations over a directed action graph.

A graph is a fixed set of named nodes joined by ordered, guarded
transitions (see package router). Every node runs a handler that reads the
current State and returns a partial update; the router merges it and picks
the next node by evaluating the guards of the current one. Package assistant
builds the conversational topology this module ships with:

	prompt -> check_safety -> decide_mode -> (action) -> prompt
	                       \-> unsafe_response ------> prompt

The Engine in this package adds sessions on top: it persists where each
conversation stands, serializes turns per session, and runs the graph from
one user message until it is waiting at the entry node again.

# Usage

	g, err := assistant.NewGraph(assistant.Collaborators{
		Safety:  assistant.KeywordSafety{Blocked: []string{"exploit"}},
		Intents: assistant.RuleIntents{Rules: rules},
		Input:   assistant.HostInput{},
	})
	if err != nil {
		log.Fatal(err)
	}

	eng, err := waypoint.New(g, waypoint.WithStore(redis.New("localhost:6379", "", 0)))
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.Turn(ctx, "session-123", "rename the project to Bridge")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(s.State.String("response"))

# Surfaces

The same Engine backs the HTTP server (pkg/adapters/http), the MCP server
(pkg/adapters/mcp) and the interactive CLI (cmd/waypoint).
*/
package waypoint
