package router

import (
	"log/slog"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
)

type config struct {
	entry            string
	allowUnreachable bool
	maxSteps         int
	hooks            domain.LifecycleHooks
	logger           *slog.Logger
}

// Option configures Build.
type Option func(*config)

// WithEntry designates the entry node. Defaults to the first declared node.
func WithEntry(name string) Option {
	return func(c *config) {
		c.entry = name
	}
}

// AllowUnreachable accepts nodes that cannot be reached from the entry node.
func AllowUnreachable() Option {
	return func(c *config) {
		c.allowUnreachable = true
	}
}

// WithMaxSteps bounds the number of steps a single Run may take.
// Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(c *config) {
		c.maxSteps = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithLogger sets the structured logger used for step tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultConfig() config {
	return config{logger: logging.NewNop()}
}
