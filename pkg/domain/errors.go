package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownNode is returned when a step names a node the graph does not declare.
	ErrUnknownNode = errors.New("unknown node")

	// ErrStepLimit is returned when Run exceeds its configured number of steps.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when a turn is sent to a session that stopped
	// at a node with no outgoing transitions.
	ErrSessionEnded = errors.New("session ended")
)

// ConfigurationError reports a malformed graph. It is only ever returned at
// build time.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid graph: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid graph: %d problems:\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// NoMatchingTransitionError is returned by a step when no guard of the
// current node matched the State.
type NoMatchingTransitionError struct {
	Node string
	Keys []string
}

func (e *NoMatchingTransitionError) Error() string {
	return fmt.Sprintf("no transition from %q matched state keys %v", e.Node, e.Keys)
}

// HandlerContractError is returned when a handler leaves State without the
// keys its node promised to write.
type HandlerContractError struct {
	Node string
	Err  error
}

func (e *HandlerContractError) Error() string {
	return fmt.Sprintf("handler for %q broke its write contract: %v", e.Node, e.Err)
}

func (e *HandlerContractError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
