package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/graphdoc"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI addresses the graph document resource.
const GraphURI = "waypoint://graph"

// StartSessionInput is the argument set of start_session.
type StartSessionInput struct {
	SessionID string         `json:"session_id,omitempty" jsonschema_description:"Session ID; generated when omitted"`
	Initial   map[string]any `json:"initial,omitempty" jsonschema_description:"Initial state values"`
}

// SendMessageInput is the argument set of send_message.
type SendMessageInput struct {
	SessionID string `json:"session_id" jsonschema:"required" jsonschema_description:"Session to route the message in"`
	Message   string `json:"message" jsonschema:"required" jsonschema_description:"User message"`
}

// GetSessionInput is the argument set of get_session.
type GetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"required" jsonschema_description:"Session ID"`
}

// TurnResult is the structured output of send_message.
type TurnResult struct {
	SessionID string           `json:"session_id" jsonschema_description:"Session ID"`
	Turn      int              `json:"turn" jsonschema_description:"Messages processed so far"`
	Node      string           `json:"node" jsonschema_description:"Node the session waits at"`
	Path      []string         `json:"path,omitempty" jsonschema_description:"Nodes entered during this turn"`
	Response  string           `json:"response,omitempty" jsonschema_description:"Reply produced by the turn"`
	Diff      domain.StateDiff `json:"diff" jsonschema_description:"State keys the turn added or changed"`
}

// Server exposes a ports.Engine as an MCP server.
type Server struct {
	engine       ports.Engine
	mcpServer    *server.MCPServer
	logger       *slog.Logger
	maxInputSize int
	responseKey  string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger. Stdio mode must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxInputSize bounds send_message input in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// WithResponseKey sets the State key copied into TurnResult.Response.
func WithResponseKey(key string) Option {
	return func(s *Server) {
		s.responseKey = key
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:       engine,
		logger:       logging.NewNop(),
		maxInputSize: runner.DefaultMaxInputSize,
		responseKey:  "response",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("waypoint-mcp", strings.TrimSpace(version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a session positioned at the entry node."),
		mcp.WithInputSchema[StartSessionInput](),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Route a user message through the graph and return where the session ended up."),
		mcp.WithInputSchema[SendMessageInput](),
		mcp.WithOutputSchema[TurnResult](),
	), s.handleSendMessage)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the persisted snapshot of a session."),
		mcp.WithInputSchema[GetSessionInput](),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the graph definition for introspection."),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum("json", "yaml", "mermaid"),
			mcp.DefaultString("json"),
		),
	), s.handleGetGraph)
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input StartSessionInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid start_session arguments", err), nil
	}

	session, err := s.engine.Start(ctx, input.SessionID, input.Initial)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("start failed", err), nil
	}
	return jsonResult(session)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SendMessageInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid send_message arguments", err), nil
	}
	if input.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	msg, err := runner.SanitizeInput(input.Message, s.maxInputSize)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(input.Message))
		return mcp.NewToolResultErrorFromErr("input rejected", err), nil
	}

	session, err := s.engine.Turn(ctx, input.SessionID, msg)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("turn failed", err), nil
	}

	result := TurnResult{
		SessionID: session.ID,
		Turn:      session.Turn,
		Node:      session.Node,
		Path:      session.Path,
		Diff:      session.Changes,
	}
	result.Response, _ = session.State.String(s.responseKey)
	return mcp.NewToolResultStructuredOnly(result), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GetSessionInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid get_session arguments", err), nil
	}

	session, err := s.engine.Session(ctx, input.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", input.SessionID)), nil
	}
	if err != nil {
		return mcp.NewToolResultErrorFromErr("load failed", err), nil
	}
	return jsonResult(session)
}

func (s *Server) handleGetGraph(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	text, err := s.renderGraph(format)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("render failed", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) renderGraph(format string) (string, error) {
	doc := graphdoc.Export(s.engine.Graph(), graphdoc.Metadata{Title: "waypoint"})
	switch format {
	case "", "json":
		data, err := doc.JSON()
		return string(data), err
	case "yaml":
		data, err := doc.YAML()
		return string(data), err
	case "mermaid":
		return graph.GenerateMermaid(doc, nil), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Graph Definition",
		mcp.WithResourceDescription("Nodes and guarded transitions of the routing graph"),
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.renderGraph("json")
	if err != nil {
		return nil, fmt.Errorf("failed to export graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
