package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves a ports.Engine over REST.
type Server struct {
	Engine  ports.Engine
	Streams *StreamManager

	logger       *slog.Logger
	metrics      http.Handler
	maxInputSize int
	responseKey  string
	version      string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize bounds message size in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// WithResponseKey sets the State key copied into TurnResponse.Response.
func WithResponseKey(key string) Option {
	return func(s *Server) {
		s.responseKey = key
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:       engine,
		logger:       logging.NewNop(),
		maxInputSize: runner.DefaultMaxInputSize,
		responseKey:  "response",
		version:      "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.PostMessage)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	ID      string         `json:"id,omitempty"`
	Initial map[string]any `json:"initial,omitempty"`
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// TurnResponse is returned by POST /sessions/{id}/messages.
type TurnResponse struct {
	Session  *domain.Session  `json:"session"`
	Response string           `json:"response,omitempty"`
	Diff     domain.StateDiff `json:"diff"`
}

// TurnEvent is published on the session's SSE stream after every turn.
type TurnEvent struct {
	SessionID string           `json:"session_id"`
	Turn      int              `json:"turn"`
	Node      string           `json:"node"`
	Path      []string         `json:"path,omitempty"`
	Diff      domain.StateDiff `json:"diff"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := s.Engine.Start(r.Context(), body.ID, body.Initial)
	if err != nil {
		s.fail(w, statusFor(err), "start failed", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list failed", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.Engine.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, statusFor(err), "load failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, statusFor(err), "delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostMessage handles POST /sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	msg, err := runner.SanitizeInput(body.Message, s.maxInputSize)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "input rejected", err)
		return
	}

	session, err := s.Engine.Turn(r.Context(), sessionID, msg)
	if err != nil {
		s.fail(w, statusFor(err), "turn failed", err)
		return
	}

	diff := session.Changes
	if data, err := json.Marshal(TurnEvent{
		SessionID: session.ID,
		Turn:      session.Turn,
		Node:      session.Node,
		Path:      session.Path,
		Diff:      diff,
	}); err == nil {
		s.Streams.Broadcast(session.ID, string(data))
	}

	resp := TurnResponse{Session: session, Diff: diff}
	resp.Response, _ = session.State.String(s.responseKey)
	s.writeJSON(w, http.StatusOK, resp)
}

// GetGraph handles GET /graph. ?format=mermaid returns a Mermaid flowchart;
// ?session=<id> highlights that session's route.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	doc := graphdoc.Export(s.Engine.Graph(), graphdoc.Metadata{Title: "waypoint"})

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeJSON(w, http.StatusOK, doc)
	case "mermaid":
		var overlay *graph.GraphOverlay
		if id := r.URL.Query().Get("session"); id != "" {
			session, err := s.Engine.Session(r.Context(), id)
			if err != nil {
				s.fail(w, statusFor(err), "load failed", err)
				return
			}
			overlay = &graph.GraphOverlay{VisitedNodes: session.History, CurrentNode: session.Node}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, graph.GenerateMermaid(doc, overlay))
	default:
		s.fail(w, http.StatusBadRequest, "unknown format", fmt.Errorf("format %q is not json or mermaid", format))
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "waypoint-http",
		"version": strings.TrimSpace(s.version),
		"entry":   s.Engine.Graph().Entry(),
		"nodes":   len(s.Engine.Graph().Nodes()),
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). ?watch=a,b only
// forwards turns that added or changed one of the listed State keys.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, http.StatusInternalServerError, "streaming not supported", errors.New("response writer cannot flush"))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				watch = append(watch, k)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !touches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "event: turn\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func touches(msg string, watch []string) bool {
	var ev TurnEvent
	if err := json.Unmarshal([]byte(msg), &ev); err != nil {
		return true
	}
	for _, k := range ev.Diff.Keys() {
		if slices.Contains(watch, k) {
			return true
		}
	}
	return false
}

func statusFor(err error) int {
	var noMatch *domain.NoMatchingTransitionError
	var contract *domain.HandlerContractError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8), errors.Is(err, waypoint.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.As(err, &noMatch), errors.As(err, &contract), errors.Is(err, domain.ErrStepLimit):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Debug(msg, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
