package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/assistant"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	rules, err := assistant.CompileIntentRules(assistant.DefaultIntentPatterns)
	require.NoError(t, err)
	g, err := assistant.NewGraph(assistant.Collaborators{
		Safety:  assistant.KeywordSafety{Blocked: []string{"exploit"}},
		Intents: assistant.RuleIntents{Rules: rules},
		Input:   assistant.HostInput{},
	})
	require.NoError(t, err)
	eng, err := waypoint.New(g)
	require.NoError(t, err)

	s := &Server{Engine: eng, maxInputSize: 64, responseKey: assistant.KeyResponse, version: "test"}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.Streams = NewStreamManager(s.logger)
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_SessionLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/sessions", `{"id":"s1","initial":{"user":"ana"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "s1", created.ID)
	assert.Equal(t, assistant.NodePrompt, created.Node)

	rec = do(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":["s1"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CreateSessionWithoutBody(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	// Chunked requests report an unknown length even when the body is empty.
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(""))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestServer_PostMessage(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/sessions/s1/messages", `{"message":"upload the structural notes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Session.Turn)
	assert.Equal(t, assistant.NodePrompt, resp.Session.Node)
	assert.Equal(t, []string{"check_safety", "decide_mode", "upload_structural_notes", "prompt"}, resp.Session.Path)
	assert.Equal(t, assistant.ResponseNotConfigured, resp.Response)
	assert.Contains(t, resp.Diff.Keys(), assistant.KeyMode)

	rec = do(t, h, http.MethodPost, "/sessions/s1/messages", `{"message":"upload the structural notes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = TurnResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Diff.Keys(), assistant.KeyMode, "diff is against the state the turn started from")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrSessionEnded), http.StatusConflict},
		{waypoint.ErrEmptyMessage, http.StatusBadRequest},
		{&domain.NoMatchingTransitionError{Node: "a"}, http.StatusUnprocessableEntity},
		{domain.ErrStepLimit, http.StatusUnprocessableEntity},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, statusFor(tt.err), tt.err.Error())
	}
}

func TestServer_PostMessageErrors(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"blank message", `{"message":"   "}`, http.StatusBadRequest},
		{"too large", `{"message":"` + strings.Repeat("a", 65) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/sessions/s1/messages", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServer_GetGraph(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, assistant.NodePrompt, doc["entry"])

	rec = do(t, h, http.MethodGet, "/graph?format=mermaid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph TD"))

	do(t, h, http.MethodPost, "/sessions/s1/messages", `{"message":"run the eligibility check"}`)
	rec = do(t, h, http.MethodGet, "/graph?format=mermaid&session=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "classDef current")

	rec = do(t, h, http.MethodGet, "/graph?format=mermaid&session=nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/graph?format=dot", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthInfoAndCORS(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)

	rec = do(t, h, http.MethodOptions, "/sessions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MetricsHandler(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)

	_, h = newTestServer(t, WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("waypoint_node_visits_total 1\n"))
	})))
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waypoint_node_visits_total")
}

func TestServer_SubscribeEvents(t *testing.T) {
	s, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	require.Eventually(t, func() bool { return s.Streams.Subscribers("s1") == 1 }, time.Second, 10*time.Millisecond)

	post, err := http.Post(ts.URL+"/sessions/s1/messages", "application/json", strings.NewReader(`{"message":"rename the project"}`))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}
	var ev TurnEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, 1, ev.Turn)
	assert.Contains(t, ev.Path, "update_project_name")
}

func TestTouches(t *testing.T) {
	msg, err := json.Marshal(TurnEvent{Diff: domain.StateDiff{Added: []string{"mode"}, Changed: []string{"input"}}})
	require.NoError(t, err)

	assert.True(t, touches(string(msg), []string{"mode"}))
	assert.True(t, touches(string(msg), []string{"project_name", "input"}))
	assert.False(t, touches(string(msg), []string{"project_name"}))
	assert.True(t, touches("not json", []string{"mode"}))
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	ch, cancel := sm.Subscribe("s1")

	for i := 0; i < 15; i++ {
		sm.Broadcast("s1", "msg")
	}
	assert.Len(t, ch, 10)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
}
