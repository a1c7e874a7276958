package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/cerebro"
	"github.com/aretw0/cerebro/internal/testutils"
	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *cerebro.Engine, *testutils.AnswererFunc) {
	t.Helper()
	catalog, err := memory.NewCatalog(domain.Exercise{
		ID:    "loci",
		Title: "Method of Loci",
		Tier:  "novice",
		Steps: []domain.Step{
			{ID: "door", NarrationText: "Picture your front door.", VisualPrompt: "a red door"},
			{ID: "hall", NarrationText: "Walk down the hall."},
		},
	})
	require.NoError(t, err)

	answerer := &testutils.AnswererFunc{Fn: func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		return ports.QueryResult{AnswerText: "Keep walking."}, nil
	}}
	engine, err := cerebro.New(
		cerebro.WithCatalog(catalog),
		cerebro.WithBackends(
			&testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
				return ports.SynthesisResult{Audio: testutils.PCM16(48)}, nil
			}},
			&testutils.IllustratorFunc{Fn: func(ctx context.Context, req ports.IllustrationRequest) (ports.IllustrationResult, error) {
				return ports.IllustrationResult{URI: "data:image/png;base64,AA=="}, nil
			}},
			answerer,
		),
		cerebro.WithScheduler(testutils.NewFakeScheduler()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	return NewServer(engine, WithVersion("0.9.0 \n")), engine, answerer
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func TestListExercises(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	list, err := s.handleListExercises(ctx, callRequest("list_exercises", nil), map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, list.Exercises, 1)
	assert.Equal(t, "loci", list.Exercises[0].ID)
	assert.Equal(t, "novice", list.Exercises[0].Tier)
	assert.Equal(t, 2, list.Exercises[0].Steps)
}

func TestSessionToolsDriveController(t *testing.T) {
	s, engine, _ := newTestServer(t)
	ctx := context.Background()

	opened, err := s.handleOpen(ctx, callRequest("open_session", nil), map[string]interface{}{"exercise_id": "loci"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, opened.View.Status)
	assert.False(t, opened.Terminal)
	id := opened.View.SessionID

	advance := s.step(func(ctx context.Context, c *session.Controller) error { return c.Advance(ctx) })
	_, err = advance(ctx, callRequest("advance", nil), map[string]interface{}{"session_id": id})
	assert.ErrorIs(t, err, domain.ErrNotActive)

	activate := s.step(func(ctx context.Context, c *session.Controller) error { return c.Activate(ctx) })
	resp, err := activate(ctx, callRequest("activate", nil), map[string]interface{}{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, resp.View.Status)
	assert.Equal(t, "door", resp.View.Step.ID)

	resp, err = advance(ctx, callRequest("advance", nil), map[string]interface{}{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, "hall", resp.View.Step.ID)

	resp, err = advance(ctx, callRequest("advance", nil), map[string]interface{}{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.View.Status)
	assert.True(t, resp.Terminal)

	ctrl, err := engine.Get(id)
	require.NoError(t, err)
	ctrl.Wait()
}

func TestAskSanitizesAndForwards(t *testing.T) {
	s, engine, answerer := newTestServer(t)
	ctx := context.Background()

	opened, err := s.handleOpen(ctx, callRequest("open_session", nil), map[string]interface{}{"exercise_id": "loci"})
	require.NoError(t, err)
	id := opened.View.SessionID
	ctrl, err := engine.Get(id)
	require.NoError(t, err)
	require.NoError(t, ctrl.Activate(ctx))

	var got ports.QueryRequest
	answerer.Fn = func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		got = req
		return ports.QueryResult{AnswerText: "Keep walking."}, nil
	}

	_, err = s.handleAsk(ctx, callRequest("ask", nil), map[string]interface{}{"session_id": id, "question": "bad\xffinput"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input rejected")

	_, err = s.handleAsk(ctx, callRequest("ask", nil), map[string]interface{}{"session_id": id, "question": "what\x1b next?"})
	require.NoError(t, err)
	ctrl.Wait()

	assert.Equal(t, 1, answerer.Calls())
	assert.Equal(t, "what next?", got.Question)
	assert.Equal(t, "Picture your front door.", got.ContextText)
}

func TestUnknownSession(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, err := s.handleGet(context.Background(), callRequest("get_session", nil), map[string]interface{}{"session_id": "nope"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleGet(context.Background(), callRequest("get_session", nil), map[string]interface{}{})
	assert.Error(t, err)

	_, err = s.handleOpen(context.Background(), callRequest("open_session", nil), map[string]interface{}{"exercise_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestCloseSession(t *testing.T) {
	s, engine, _ := newTestServer(t)
	ctx := context.Background()

	opened, err := s.handleOpen(ctx, callRequest("open_session", nil), map[string]interface{}{"exercise_id": "loci"})
	require.NoError(t, err)
	id := opened.View.SessionID

	result, err := s.handleClose(ctx, callRequest("close_session", map[string]any{"session_id": id}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	_, err = engine.Get(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	result, err = s.handleClose(ctx, callRequest("close_session", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestToolsAreRegistered(t *testing.T) {
	s, _, _ := newTestServer(t)

	msg := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"list_exercises", "open_session", "activate", "advance", "retreat", "ask", "replay", "explain", "exit", "get_session", "close_session"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestExercisesResource(t *testing.T) {
	s, _, _ := newTestServer(t)

	msg := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"cerebro://exercises"}}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Method of Loci")
}
