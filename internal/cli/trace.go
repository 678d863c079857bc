package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/waypoint/internal/config"
	"github.com/aretw0/waypoint/pkg/assistant"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/router"
)

// RunTrace drives the graph directly, without sessions: the prompt node
// reads one message per line of in, and every transition taken is printed
// to out with the guard that selected it.
func RunTrace(ctx context.Context, cfg config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	lines := assistant.NewReaderInput(in, nil)
	input := assistant.InputFunc(func(ctx context.Context, s domain.State) (string, error) {
		if reply, ok := s.String(assistant.KeyResponse); ok && reply != "" {
			fmt.Fprintf(out, "< %s\n", reply)
		}
		msg, err := lines.Receive(ctx, s)
		if err == nil {
			fmt.Fprintf(out, "> %s\n", msg)
		}
		return msg, err
	})

	collab, err := Collaborators(cfg, logger, input)
	if err != nil {
		return err
	}
	g, err := BuildGraph(cfg, collab, router.WithLogger(logger), router.WithLifecycleHooks(traceHooks(out)))
	if err != nil {
		return err
	}

	entry := g.Entry()
	node := entry
	state, err := g.Enter(ctx, entry, domain.NewState(nil))
	for err == nil {
		node, state, err = g.Run(ctx, entry, state, func(next string, _ domain.State) bool {
			return next != entry
		})
		if err == nil && g.Terminal(node) {
			if reply, ok := state.String(assistant.KeyResponse); ok && reply != "" {
				fmt.Fprintf(out, "< %s\n", reply)
			}
			fmt.Fprintf(out, "  stopped at terminal node %s\n", node)
			return nil
		}
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func traceHooks(out io.Writer) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			fmt.Fprintf(out, "  %s -> %s  [%s]\n", e.From, e.To, e.Guard)
		},
	}
}
