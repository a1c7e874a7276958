package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/progress"
	"github.com/aretw0/cerebro/pkg/runner"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const exercisesURI = "cerebro://exercises"

// SessionResponse is the structured result of every session tool.
type SessionResponse struct {
	View     session.View `json:"view" jsonschema_description:"Snapshot of the session after the call"`
	Terminal bool         `json:"terminal" jsonschema_description:"True once the session is completed or exited"`
}

// ExerciseSummary is one entry of list_exercises.
type ExerciseSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Domain      string `json:"domain,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Steps       int    `json:"steps"`
}

// ExerciseList wraps the catalog listing.
type ExerciseList struct {
	Exercises []ExerciseSummary `json:"exercises"`
}

// Engine defines what the MCP server needs from cerebro.Engine.
type Engine interface {
	Open(ctx context.Context, profileID, exerciseID string, resume bool) (*session.Controller, error)
	Get(sessionID string) (*session.Controller, error)
	Close(ctx context.Context, sessionID string) error
	Catalog() ports.Catalog
	Profiles() *progress.Manager
}

// Server exposes guided sessions as MCP tools.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
	version   string
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = strings.TrimSpace(v) }
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("cerebro-mcp", s.version)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" {
		host = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s", net.JoinHostPort(host, port))

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("MCP server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by open_session")),
	}
	opts = append(opts, extra...)
	opts = append(opts, mcp.WithOutputSchema[SessionResponse]())
	return mcp.NewTool(name, opts...)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_exercises",
		mcp.WithDescription("List the exercises available in the catalog."),
		mcp.WithOutputSchema[ExerciseList](),
	), mcp.NewStructuredToolHandler(s.handleListExercises))

	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open a guided session for an exercise and present its first step."),
		mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise to run")),
		mcp.WithString("profile_id", mcp.Description("Profile that records progress (optional)")),
		mcp.WithBoolean("resume", mcp.Description("Resume from the saved step of this profile")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(sessionTool("get_session", "Return the current view of a session."),
		mcp.NewStructuredToolHandler(s.handleGet))
	s.mcpServer.AddTool(sessionTool("activate", "Begin the exercise if it has not started yet."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.Activate(ctx) })))
	s.mcpServer.AddTool(sessionTool("advance", "Move to the next step, completing the exercise on the last one."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.Advance(ctx) })))
	s.mcpServer.AddTool(sessionTool("retreat", "Go back one step."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.Retreat(ctx) })))
	s.mcpServer.AddTool(sessionTool("replay", "Speak the current step again."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.Replay(ctx) })))
	s.mcpServer.AddTool(sessionTool("explain", "Describe the current step's visual aloud."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.ExplainVisual(ctx) })))
	s.mcpServer.AddTool(sessionTool("exit", "Leave the session, saving progress for the profile."),
		mcp.NewStructuredToolHandler(s.step(func(ctx context.Context, c *session.Controller) error { return c.Exit(ctx) })))
	s.mcpServer.AddTool(sessionTool("ask", "Ask the guide a question about the current step. The answer is spoken.",
		mcp.WithString("question", mcp.Required(), mcp.Description("The question")),
	), mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Exit if needed and release the session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleClose)
}

func (s *Server) handleListExercises(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExerciseList, error) {
	exercises, err := s.engine.Catalog().List(ctx)
	if err != nil {
		return ExerciseList{}, fmt.Errorf("list failed: %w", err)
	}
	out := ExerciseList{Exercises: make([]ExerciseSummary, 0, len(exercises))}
	for _, ex := range exercises {
		out.Exercises = append(out.Exercises, summarize(ex))
	}
	return out, nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	exerciseID, _ := args["exercise_id"].(string)
	profileID, _ := args["profile_id"].(string)
	resume, _ := args["resume"].(bool)
	if exerciseID == "" {
		return SessionResponse{}, errors.New("exercise_id is required")
	}

	ctrl, err := s.engine.Open(ctx, profileID, exerciseID, resume)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("open failed: %w", err)
	}
	s.logger.Debug("MCP session opened", "session_id", ctrl.ID(), "exercise_id", exerciseID)
	return respond(ctrl), nil
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	ctrl, err := s.lookup(args)
	if err != nil {
		return SessionResponse{}, err
	}
	return respond(ctrl), nil
}

func (s *Server) step(fn func(context.Context, *session.Controller) error) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (SessionResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
		ctrl, err := s.lookup(args)
		if err != nil {
			return SessionResponse{}, err
		}
		// Tool calls return as soon as the transition is applied; the
		// narration keeps running on the session's own context.
		if err := fn(context.WithoutCancel(ctx), ctrl); err != nil {
			return SessionResponse{}, fmt.Errorf("%s failed: %w", request.Params.Name, err)
		}
		return respond(ctrl), nil
	}
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	ctrl, err := s.lookup(args)
	if err != nil {
		return SessionResponse{}, err
	}
	question, _ := args["question"].(string)
	clean, err := runner.SanitizeInput(question)
	if err != nil {
		s.logger.Warn("MCP ask: input rejected", "error", err, "size", len(question))
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if err := ctrl.Ask(context.WithoutCancel(ctx), clean); err != nil {
		return SessionResponse{}, fmt.Errorf("ask failed: %w", err)
	}
	return respond(ctrl), nil
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Close(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
	}
	return mcp.NewToolResultText("closed " + id), nil
}

func (s *Server) lookup(args map[string]interface{}) (*session.Controller, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return nil, errors.New("session_id is required")
	}
	ctrl, err := s.engine.Get(id)
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

func respond(ctrl *session.Controller) SessionResponse {
	v := ctrl.Snapshot()
	return SessionResponse{View: v, Terminal: v.Status.Terminal()}
}

func summarize(ex domain.Exercise) ExerciseSummary {
	return ExerciseSummary{
		ID:          ex.ID,
		Title:       ex.Title,
		Domain:      ex.Domain,
		Tier:        ex.Tier,
		Duration:    ex.Duration,
		Description: ex.Description,
		Steps:       len(ex.Steps),
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(exercisesURI, "Exercise Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		exercises, err := s.engine.Catalog().List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list exercises: %w", err)
		}
		jsonBytes, err := json.Marshal(exercises)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      exercisesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
