package waypoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/google/uuid"
)

// KeyInput is the State key a turn's message is written to.
const KeyInput = "input"

// maxHistory caps Session.History so long conversations stay cheap to store.
const maxHistory = 256

// ErrEmptyMessage is returned by Turn for a blank message.
var ErrEmptyMessage = errors.New("empty message")

// Engine hosts conversations over a router.Graph. It owns session lifecycle
// and persistence; routing itself stays in the graph.
type Engine struct {
	graph    *router.Graph
	sessions *session.Manager

	store   ports.StateStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where sessions are persisted. Defaults to memory.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets how long a distributed session lock outlives a crashed
// holder. Zero keeps session.DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks, run after any the graph was
// built with.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Chain(hooks)
	}
}

// New creates an Engine over g.
func New(g *router.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, errors.New("waypoint: graph is required")
	}
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	e.graph = g.Observe(e.hooks)

	mgrOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(e.locker), session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(e.store, mgrOpts...)
	return e, nil
}

// Graph returns the graph the engine routes over.
func (e *Engine) Graph() *router.Graph {
	return e.graph
}

// Start creates a session at the entry node, or loads it if sessionID is
// already in use. An empty sessionID gets a random one. A new session has the
// entry node's handler run once on initial so it is ready for its first turn.
func (e *Engine) Start(ctx context.Context, sessionID string, initial map[string]any) (*domain.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s, err := e.sessions.LoadOrStart(ctx, sessionID, e.graph.Entry(), e.prime(initial))
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "session ready", "session_id", s.ID, "node", s.Node)
	return s, nil
}

// prime runs the entry node's handler on the State of a new session.
func (e *Engine) prime(initial map[string]any) session.InitFunc {
	return func(ctx context.Context) (domain.State, error) {
		state, err := e.graph.Enter(ctx, e.graph.Entry(), domain.NewState(initial))
		if err != nil {
			return domain.State{}, fmt.Errorf("failed to prime entry node: %w", err)
		}
		return state, nil
	}
}

// Turn writes message to the session's State and runs the graph until it is
// back at the entry node. A session that does not exist yet is started the
// way Start does it. The returned session carries the turn's State changes.
//
// A turn is atomic: when any step fails nothing is saved and the session
// stays where it was before the message. A session parked at a node with no
// outgoing transitions takes no more turns and yields domain.ErrSessionEnded.
func (e *Engine) Turn(ctx context.Context, sessionID, message string) (*domain.Session, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", domain.ErrSessionNotFound)
	}

	entry := e.graph.Entry()
	return e.sessions.Update(ctx, sessionID, entry, e.prime(nil), func(ctx context.Context, s *domain.Session) error {
		if _, known := e.graph.Node(s.Node); known && e.graph.Terminal(s.Node) {
			return fmt.Errorf("%w: %q stopped at %q", domain.ErrSessionEnded, sessionID, s.Node)
		}
		before := s.State
		state := before.Merge(domain.Update{KeyInput: message})

		var path []string
		node, state, err := e.graph.Run(ctx, s.Node, state, func(next string, _ domain.State) bool {
			path = append(path, next)
			return next != entry
		})
		if err != nil {
			e.logger.WarnContext(ctx, "turn failed", "session_id", sessionID, "node", node, "err", err)
			return err
		}

		s.Node = node
		s.State = state
		s.Changes = domain.Diff(before, state)
		s.Turn++
		s.Path = path
		s.History = append(s.History, path...)
		if over := len(s.History) - maxHistory; over > 0 {
			s.History = append([]string(nil), s.History[over:]...)
		}
		e.logger.DebugContext(ctx, "turn complete", "session_id", sessionID, "turn", s.Turn, "node", node, "steps", len(path))
		return nil
	})
}

// Session returns a stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// End deletes a session.
func (e *Engine) End(ctx context.Context, sessionID string) error {
	if _, err := e.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	return e.sessions.Delete(ctx, sessionID)
}
