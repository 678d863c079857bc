package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Runner handles the conversation loop using an IOHandler.
type Runner struct {
	Handler      IOHandler
	Logger       *slog.Logger
	SessionID    string
	MaxInputSize int
	ResponseKey  string
	ExitWords    []string
}

// New creates a Runner. Without WithInputHandler it talks text over
// Stdin/Stdout.
func New(opts ...Option) *Runner {
	r := &Runner{
		Logger:       logging.NewNop(),
		MaxInputSize: DefaultMaxInputSize,
		ResponseKey:  "response",
		ExitWords:    []string{"exit", "quit"},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run starts (or resumes) the session and processes messages until the
// handler reports io.EOF, an exit word is typed, or ctx is done.
//
// Rejected input and failed turns are reported through SystemOutput and the
// loop continues; the session is left as it was before the failed turn.
// A session that has ended stops the loop.
func (r *Runner) Run(ctx context.Context, engine ports.Engine) error {
	s, err := engine.Start(ctx, r.SessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.SessionID = s.ID
	r.Logger.Debug("conversation started", "session_id", s.ID, "turn", s.Turn)

	for {
		raw, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		msg, err := SanitizeInput(raw, r.MaxInputSize)
		if err != nil {
			if err := r.Handler.SystemOutput(ctx, err.Error()); err != nil {
				return err
			}
			continue
		}
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		if slices.Contains(r.ExitWords, strings.ToLower(msg)) {
			return nil
		}

		turned, err := engine.Turn(ctx, r.SessionID, msg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, domain.ErrSessionEnded) {
				return r.Handler.SystemOutput(ctx, "session ended")
			}
			r.Logger.Warn("turn failed", "session_id", r.SessionID, "err", err)
			if err := r.Handler.SystemOutput(ctx, "turn failed: "+err.Error()); err != nil {
				return err
			}
			continue
		}

		if err := r.Handler.Output(ctx, NewReply(turned, r.ResponseKey)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}
