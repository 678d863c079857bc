package runner

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Reply is what a turn produced, as shown to the user.
type Reply struct {
	SessionID string   `json:"session_id"`
	Turn      int      `json:"turn"`
	Node      string   `json:"node"`
	Path      []string `json:"path,omitempty"`
	Response  string   `json:"response,omitempty"`
}

// NewReply extracts the reply from a session. The response is read from
// responseKey.
func NewReply(s *domain.Session, responseKey string) Reply {
	resp, _ := s.State.String(responseKey)
	return Reply{
		SessionID: s.ID,
		Turn:      s.Turn,
		Node:      s.Node,
		Path:      append([]string(nil), s.Path...),
		Response:  resp,
	}
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (structured) modes.
type IOHandler interface {
	// Input reads the next message. io.EOF ends the conversation.
	Input(ctx context.Context) (string, error)

	// Output presents a reply.
	Output(ctx context.Context, reply Reply) error

	// SystemOutput presents a meta-message (errors, status) distinct from
	// conversation content.
	SystemOutput(ctx context.Context, msg string) error
}
