package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/router"
)

// Engine is what the driving adapters (HTTP, MCP, CLI) need from the
// conversation engine.
type Engine interface {
	// Start creates a session positioned at the graph's entry node.
	Start(ctx context.Context, sessionID string, initial map[string]any) (*domain.Session, error)

	// Turn feeds one user message into a session and runs the graph until it
	// comes back to the entry node.
	Turn(ctx context.Context, sessionID, message string) (*domain.Session, error)

	// Session returns a stored session.
	Session(ctx context.Context, sessionID string) (*domain.Session, error)

	// Sessions lists the stored session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// End deletes a session.
	End(ctx context.Context, sessionID string) error

	// Graph returns the graph the engine routes over.
	Graph() *router.Graph
}
