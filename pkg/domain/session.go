package domain

import "time"

// Session is the persisted snapshot of one conversation: where the router
// stands and the State accumulated so far.
type Session struct {
	ID   string `json:"id"`
	Node string `json:"node"`

	State State `json:"state"`

	// History lists the nodes entered, oldest first.
	History []string `json:"history,omitempty"`

	// Path lists the nodes entered during the last turn.
	Path []string `json:"path,omitempty"`

	// Turn counts the messages processed.
	Turn int `json:"turn"`

	// Changes is what the last turn added or changed in State. It is set on
	// the session a turn returns and is never persisted.
	Changes StateDiff `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session positioned at node.
func NewSession(id, node string, state State) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Node:      node,
		State:     state,
		History:   []string{node},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no mutable data with s.
// State is immutable and therefore shared. Changes is not copied.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Changes = StateDiff{}
	c.History = append([]string(nil), s.History...)
	c.Path = append([]string(nil), s.Path...)
	return &c
}
