package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/progress"
	"github.com/aretw0/cerebro/pkg/runner"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the subset of cerebro.Engine the HTTP adapter drives.
type Engine interface {
	Open(ctx context.Context, profileID, exerciseID string, resume bool) (*session.Controller, error)
	Get(sessionID string) (*session.Controller, error)
	Close(ctx context.Context, sessionID string) error
	Catalog() ports.Catalog
	Profiles() *progress.Manager
}

// Server serves the session API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Version string

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose hooks are registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}
	return enableCORS(s.Routes())
}

// Routes builds the chi router without middleware wrappers.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/exercises", func(r chi.Router) {
		r.Get("/", s.ListExercises)
		r.Get("/{exerciseID}", s.GetExercise)
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", s.ListProfiles)
		r.Post("/", s.CreateProfile)
		r.Get("/{profileID}", s.GetProfile)
		r.Delete("/{profileID}", s.DeleteProfile)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.OpenSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CloseSession)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/activate", s.transition(func(ctx context.Context, c *session.Controller) error { return c.Activate(ctx) }))
			r.Post("/advance", s.transition(func(ctx context.Context, c *session.Controller) error { return c.Advance(ctx) }))
			r.Post("/retreat", s.transition(func(ctx context.Context, c *session.Controller) error { return c.Retreat(ctx) }))
			r.Post("/exit", s.transition(func(ctx context.Context, c *session.Controller) error { return c.Exit(ctx) }))
			r.Post("/replay", s.transition(func(ctx context.Context, c *session.Controller) error { return c.Replay(ctx) }))
			r.Post("/explain", s.transition(func(ctx context.Context, c *session.Controller) error { return c.ExplainVisual(ctx) }))
			r.Post("/ask", s.Ask)
			r.Post("/pointer", s.Pointer)
			r.Post("/assistant", s.ToggleAssistant)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cerebro-http",
		"version": strings.TrimSpace(s.Version),
	})
}

// ListExercises handles the GET /exercises request.
func (s *Server) ListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.Catalog().List(r.Context())
	if err != nil {
		s.writeError(w, "ListExercises", err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// GetExercise handles the GET /exercises/{exerciseID} request.
func (s *Server) GetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.Engine.Catalog().Get(r.Context(), chi.URLParam(r, "exerciseID"))
	if err != nil {
		s.writeError(w, "GetExercise", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ex)
}

// ListProfiles handles the GET /profiles request.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Profiles().List(r.Context())
	if err != nil {
		s.writeError(w, "ListProfiles", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

type createProfileRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateProfile handles the POST /profiles request. Existing profiles are
// returned unchanged.
func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var body createProfileRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	p, err := s.Engine.Profiles().LoadOrCreate(r.Context(), body.ID, body.Name)
	if err != nil {
		s.writeError(w, "CreateProfile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// GetProfile handles the GET /profiles/{profileID} request.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.Profiles().Load(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		s.writeError(w, "GetProfile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// DeleteProfile handles the DELETE /profiles/{profileID} request.
func (s *Server) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Profiles().Delete(r.Context(), chi.URLParam(r, "profileID")); err != nil {
		s.writeError(w, "DeleteProfile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type openSessionRequest struct {
	ProfileID  string `json:"profile_id"`
	ExerciseID string `json:"exercise_id"`
	Resume     bool   `json:"resume"`
}

// OpenSession handles the POST /sessions request.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body openSessionRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.ExerciseID == "" {
		http.Error(w, "exercise_id is required", http.StatusBadRequest)
		return
	}
	ctrl, err := s.Engine.Open(r.Context(), body.ProfileID, body.ExerciseID, body.Resume)
	if err != nil {
		s.writeError(w, "OpenSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+ctrl.ID())
	s.writeJSON(w, http.StatusCreated, ctrl.Snapshot())
}

// GetSession handles the GET /sessions/{sessionID} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// CloseSession handles the DELETE /sessions/{sessionID} request.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.Engine.Close(r.Context(), id); err != nil {
		s.writeError(w, "CloseSession", err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transition(fn func(context.Context, *session.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.session(w, r)
		if !ok {
			return
		}
		if err := fn(r.Context(), ctrl); err != nil {
			s.writeError(w, "Transition", err)
			return
		}
		s.writeJSON(w, http.StatusOK, ctrl.Snapshot())
	}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles the POST /sessions/{sessionID}/ask request. The answer is
// spoken asynchronously; the response only acknowledges the question.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	var body askRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := ctrl.Ask(r.Context(), body.Question); err != nil {
		s.writeError(w, "Ask", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, ctrl.Snapshot())
}

// PointerEvent is one input sample for the gesture machine.
type PointerEvent struct {
	Type string  `json:"type"` // down, move, up, cancel, double_tap
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type pointerResponse struct {
	Intent domain.Intent `json:"intent,omitempty"`
	View   session.View  `json:"view"`
}

// Pointer handles the POST /sessions/{sessionID}/pointer request.
func (s *Server) Pointer(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	var ev PointerEvent
	if !s.decode(w, r, &ev) {
		return
	}

	g := ctrl.Gesture()
	p := domain.Point{X: ev.X, Y: ev.Y}
	var resp pointerResponse
	switch ev.Type {
	case "down":
		g.PointerDown(p)
	case "move":
		g.PointerMove(p)
	case "up":
		if intent, ok := g.PointerUp(p); ok {
			resp.Intent = intent
		}
	case "cancel":
		g.PointerCancel()
	case "double_tap":
		if g.DoubleTap() {
			resp.Intent = domain.IntentAssistantToggled
		}
	default:
		http.Error(w, fmt.Sprintf("unknown pointer event type %q", ev.Type), http.StatusBadRequest)
		return
	}
	resp.View = ctrl.Snapshot()
	s.writeJSON(w, http.StatusOK, resp)
}

type assistantRequest struct {
	Open bool `json:"open"`
}

// ToggleAssistant handles the POST /sessions/{sessionID}/assistant request.
func (s *Server) ToggleAssistant(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	var body assistantRequest
	if !s.decode(w, r, &body) {
		return
	}
	ctrl.Gesture().SetAssistantOpen(body.Open)
	s.writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// SubscribeEvents handles the GET /sessions/{sessionID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(ctrl.ID())
	defer cancel()

	s.logger.Info("SSE: Subscribing to session events", "session_id", ctrl.ID())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	ctrl, err := s.Engine.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "Session", err)
		return nil, false
	}
	return ctrl, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrNotStarted),
		errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrNoVisual):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyQuestion),
		errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
