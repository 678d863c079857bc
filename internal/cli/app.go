package cli

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/config"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	redisadapter "github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/aretw0/waypoint/pkg/assistant"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/aretw0/waypoint/pkg/observability"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/registry"
	"github.com/aretw0/waypoint/pkg/router"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds everything a command needs: the graph, the engine and the
// store behind it.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Graph  *router.Graph
	Engine *waypoint.Engine
	Store  ports.StateStore

	// Metrics and Registry are nil unless metrics are enabled.
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// AppOption tweaks NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	input   assistant.InputSource
	metrics bool
	hooks   domain.LifecycleHooks
}

// WithInput sets the InputSource of the prompt node. Hosts that push
// messages through Engine.Turn leave it unset.
func WithInput(in assistant.InputSource) AppOption {
	return func(o *appOptions) {
		o.input = in
	}
}

// WithMetrics forces the prometheus registry on regardless of config.
func WithMetrics(enabled bool) AppOption {
	return func(o *appOptions) {
		o.metrics = enabled
	}
}

// WithGraphHooks adds hooks to the graph before it reaches the engine.
func WithGraphHooks(hooks domain.LifecycleHooks) AppOption {
	return func(o *appOptions) {
		o.hooks = o.hooks.Chain(hooks)
	}
}

// NewApp wires the application from cfg.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{metrics: cfg.HTTP.Metrics}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: logger}

	collab, err := Collaborators(cfg, logger, o.input)
	if err != nil {
		return nil, err
	}

	hooks := observability.LogHooks(logger).Chain(o.hooks)
	if o.metrics {
		app.Registry = prometheus.NewRegistry()
		app.Metrics, err = observability.NewMetrics(app.Registry)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		hooks = hooks.Chain(app.Metrics.Hooks())
	}

	app.Graph, err = BuildGraph(cfg, collab, router.WithLogger(logger), router.WithLifecycleHooks(hooks))
	if err != nil {
		return nil, err
	}

	mws, err := StoreMiddleware(cfg.Store)
	if err != nil {
		return nil, err
	}

	engineOpts := []waypoint.Option{waypoint.WithLogger(logger)}
	switch cfg.Store.Driver {
	case config.StoreRedis:
		store := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		app.Store = middleware.Chain(store, mws...)
		app.closers = append(app.closers, store.Close)
		engineOpts = append(engineOpts,
			waypoint.WithLocker(redisadapter.NewLocker(store.Client(), cfg.Redis.Prefix)),
			waypoint.WithLockTTL(cfg.Store.LockTTL),
		)
	default:
		app.Store = middleware.Chain(memory.NewStore(), mws...)
	}
	engineOpts = append(engineOpts, waypoint.WithStore(app.Store))

	app.Engine, err = waypoint.New(app.Graph, engineOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	logger.Debug("app ready", "store", cfg.Store.Driver, "entry", app.Graph.Entry(), "nodes", len(app.Graph.Nodes()))
	return app, nil
}

// Close releases store connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// StoreMiddleware returns the at-rest protections cfg asks for: PII masking
// first, then encryption of the masked session.
func StoreMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PIIKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// Collaborators builds the default collaborator set from cfg.
func Collaborators(cfg config.Config, logger *slog.Logger, input assistant.InputSource) (assistant.Collaborators, error) {
	patterns := maps.Clone(assistant.DefaultIntentPatterns)
	var extra []string
	for mode, p := range cfg.Assistant.IntentRules {
		patterns[mode] = p
		if !slices.Contains(assistant.Modes, mode) {
			extra = append(extra, mode)
		}
	}
	slices.Sort(extra)

	rules, err := assistant.CompileIntentRules(patterns, extra...)
	if err != nil {
		return assistant.Collaborators{}, fmt.Errorf("intent rules: %w", err)
	}
	if input == nil {
		input = assistant.HostInput{}
	}
	return assistant.Collaborators{
		Safety:   assistant.KeywordSafety{Blocked: cfg.Assistant.BlockedTerms},
		Intents:  assistant.RuleIntents{Rules: rules},
		Notifier: assistant.LogNotifier{Logger: logger},
		Input:    input,
	}, nil
}

// BuildGraph binds the configured graph document, or builds the built-in
// assistant topology when none is set.
func BuildGraph(cfg config.Config, c assistant.Collaborators, opts ...router.Option) (*router.Graph, error) {
	if cfg.Router.MaxSteps > 0 {
		opts = append(opts, router.WithMaxSteps(cfg.Router.MaxSteps))
	}
	if cfg.Router.Graph == "" {
		return assistant.NewGraph(c, opts...)
	}

	doc, err := LoadDocument(cfg.Router.Graph)
	if err != nil {
		return nil, err
	}
	reg := registry.NewRegistry()
	if err := assistant.Register(reg, c); err != nil {
		return nil, err
	}
	return graphdoc.Bind(doc, reg, opts...)
}

// LoadDocument reads and parses a graph document file.
func LoadDocument(path string) (*graphdoc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	doc, err := graphdoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}
	return doc, nil
}
