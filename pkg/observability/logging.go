package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/waypoint/pkg/domain"
)

// LogHooks returns hooks that write router events to logger: steps at
// debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered",
				"node", e.Node,
				"duration", e.Duration,
				"changed", e.Changed,
			)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition", "from", e.From, "to", e.To, "guard", e.Guard)
		},
		OnStepError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "step failed", "node", e.Node, "kind", ErrorKind(e.Err), "err", e.Err)
		},
	}
}
