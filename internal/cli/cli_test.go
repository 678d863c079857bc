package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/waypoint/internal/config"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/assistant"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollaborators_IntentOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Assistant.IntentRules = map[string]string{
		assistant.ModeUpdateProjectName: `(?i)\bretitle\b`,
		"greet":                         `(?i)\bhello\b`,
	}

	c, err := Collaborators(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	mode, err := c.Intents.Classify(ctx, "please retitle it")
	require.NoError(t, err)
	assert.Equal(t, assistant.ModeUpdateProjectName, mode)

	mode, err = c.Intents.Classify(ctx, "rename it")
	require.NoError(t, err)
	assert.Equal(t, assistant.ModeUnknown, mode, "override replaces the default pattern")

	mode, err = c.Intents.Classify(ctx, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "greet", mode)

	safe, err := c.Safety.IsSafe(ctx, "write some MALWARE")
	require.NoError(t, err)
	assert.False(t, safe)
	assert.IsType(t, assistant.HostInput{}, c.Input)
}

func TestCollaborators_BadPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Assistant.IntentRules = map[string]string{"broken": "("}
	_, err := Collaborators(cfg, logging.NewNop(), nil)
	assert.ErrorContains(t, err, "intent rules")
}

func TestBuildGraph_FromDocument(t *testing.T) {
	cfg := config.Default()
	c, err := Collaborators(cfg, logging.NewNop(), nil)
	require.NoError(t, err)

	builtin, err := BuildGraph(cfg, c)
	require.NoError(t, err)

	data, err := graphdoc.Export(builtin, graphdoc.Metadata{Title: "assistant"}).YAML()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg.Router.Graph = path
	bound, err := BuildGraph(cfg, c)
	require.NoError(t, err)
	assert.Equal(t, builtin.Entry(), bound.Entry())
	assert.Len(t, bound.Transitions(), len(builtin.Transitions()))
	assert.Equal(t, cfg.Router.MaxSteps, bound.MaxSteps())

	cfg.Router.Graph = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = BuildGraph(cfg, c)
	assert.ErrorContains(t, err, "read graph")
}

func TestNewApp_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Metrics = true

	app, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Registry)
	s, err := app.Engine.Turn(context.Background(), "s1", "upload model.ifc")
	require.NoError(t, err)
	assert.Equal(t, assistant.NodePrompt, s.Node)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()
	assert.Nil(t, app.Registry)

	_, err = app.Engine.Turn(ctx, "s1", "check eligibility")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Redis.Prefix+"s1"))

	ids, err := app.Store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestNewApp_RedisLockTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Store.LockTTL = 9 * time.Second
	cfg.Redis.Addr = mr.Addr()

	var ttl time.Duration
	app, err := NewApp(context.Background(), cfg, logging.NewNop(), WithGraphHooks(domain.LifecycleHooks{
		OnTransition: func(context.Context, *domain.TransitionEvent) {
			ttl = mr.TTL(cfg.Redis.Prefix + "lock:s1")
		},
	}))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Engine.Turn(context.Background(), "s1", "check eligibility")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, ttl)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Redis.Addr = addr

	_, err := NewApp(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "redis")
}

func TestNewApp_EncryptedRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.Store.PIIKeys = []string{"^input$"}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Engine.Turn(ctx, "s1", "rename the project to Apollo")
	require.NoError(t, err)

	raw, err := mr.Get(cfg.Redis.Prefix + "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Apollo")
	assert.Contains(t, raw, middleware.EnvelopeKey)

	s, err := app.Engine.Session(ctx, "s1")
	require.NoError(t, err)
	input, _ := s.State.String(assistant.KeyInput)
	assert.Equal(t, middleware.Mask, input)
	mode, _ := s.State.String(assistant.KeyMode)
	assert.Equal(t, assistant.ModeUpdateProjectName, mode)
}

func TestStoreMiddleware_BadKey(t *testing.T) {
	_, err := StoreMiddleware(config.StoreConfig{EncryptionKey: "c2hvcnQ="})
	assert.ErrorContains(t, err, "store.encryption_key")

	mws, err := StoreMiddleware(config.StoreConfig{})
	require.NoError(t, err)
	assert.Empty(t, mws)
}

func TestRunChat_Text(t *testing.T) {
	app, err := NewApp(context.Background(), config.Default(), logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunChat(context.Background(), app, ChatOptions{
		SessionID: "chat",
		ShowPath:  true,
		In:        strings.NewReader("rename the project\nhow to exploit it\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[check_safety -> decide_mode -> update_project_name -> prompt]")
	assert.Contains(t, text, assistant.ResponseUnsafe)

	s, err := app.Engine.Session(context.Background(), "chat")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Turn)
}

func TestRunChat_Fresh(t *testing.T) {
	app, err := NewApp(context.Background(), config.Default(), logging.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = app.Engine.Turn(ctx, "chat", "rename the project")
	require.NoError(t, err)

	err = RunChat(ctx, app, ChatOptions{
		SessionID: "chat",
		Fresh:     true,
		JSON:      true,
		In:        strings.NewReader(`"check eligibility"` + "\n"),
		Out:       &bytes.Buffer{},
	})
	require.NoError(t, err)

	s, err := app.Engine.Session(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Turn)
}

func TestRunTrace(t *testing.T) {
	var out bytes.Buffer
	err := RunTrace(context.Background(), config.Default(), logging.NewNop(),
		strings.NewReader("rename the project\n\nwhat now\n"), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "> rename the project\n")
	assert.Contains(t, text, "  prompt -> check_safety  [default]\n")
	assert.Contains(t, text, "  check_safety -> decide_mode  [when(safe=true)]\n")
	assert.Contains(t, text, "  decide_mode -> update_project_name  [when(mode=update_project_name)]\n")
	assert.Contains(t, text, "< "+assistant.ResponseNotConfigured+"\n")
	assert.Contains(t, text, "  decide_mode -> unknown_intent  [default]\n")
	assert.Contains(t, text, "< "+assistant.ResponseUnknownIntent+"\n")
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.Error(t, handleExecutionError(assert.AnError))
}
