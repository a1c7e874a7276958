package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cerebro"
	"github.com/aretw0/cerebro/internal/config"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/internal/testutils"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const palace = `---
id: palace
title: Memory Palace
steps:
  - id: door
    narration_text: Picture your front door.
  - id: hall
    narration_text: Walk down the hall.
---`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "palace.md"), []byte(palace), 0644))
	return &config.Config{
		APIKey:       "test-key",
		Voice:        "Fenrir",
		ContentDir:   dir,
		Store:        config.StoreMemory,
		LogLevel:     "error",
		MaxInputSize: 64,
	}
}

// fakeBackends replaces the Gemini client so no request leaves the test.
func fakeBackends() cerebro.Option {
	return cerebro.WithBackends(
		&testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
			return ports.SynthesisResult{Audio: testutils.PCM16(24)}, nil
		}},
		&testutils.IllustratorFunc{Fn: func(ctx context.Context, req ports.IllustrationRequest) (ports.IllustrationResult, error) {
			return ports.IllustrationResult{URI: "data:image/png;base64,AA=="}, nil
		}},
		&testutils.AnswererFunc{Fn: func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
			return ports.QueryResult{AnswerText: "ok"}, nil
		}},
	)
}

func TestNewEngine_Memory(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()

	c, err := NewEngine(context.Background(), cfg, EngineDeps{
		Logger:     logging.NewNop(),
		Registerer: reg,
		Options:    []cerebro.Option{fakeBackends(), cerebro.WithScheduler(testutils.NewFakeScheduler())},
	})
	require.NoError(t, err)
	defer c.Close()

	exercises, err := c.Catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "palace", exercises[0].ID)

	ctrl, err := c.Engine.Open(context.Background(), "", "palace", false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Metrics.ActiveSessions))
	require.NoError(t, c.Engine.Close(context.Background(), ctrl.ID()))
}

func TestNewEngine_FileStorePersistsExit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreFile
	cfg.StoreDir = t.TempDir()

	c, err := NewEngine(context.Background(), cfg, EngineDeps{
		Logger:  logging.NewNop(),
		Options: []cerebro.Option{fakeBackends(), cerebro.WithScheduler(testutils.NewFakeScheduler())},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	ctrl, err := c.Engine.Open(ctx, "ana", "palace", false)
	require.NoError(t, err)
	require.NoError(t, ctrl.Activate(ctx))
	require.NoError(t, ctrl.Advance(ctx))
	require.NoError(t, c.Engine.Close(ctx, ctrl.ID()))

	_, err = os.Stat(filepath.Join(cfg.StoreDir, "ana.json"))
	require.NoError(t, err)

	profile, err := c.Engine.Profiles().Load(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, profile.CurrentProgress)
	assert.Equal(t, 1, profile.CurrentProgress.StepIndex)
}

func TestNewEngine_EncryptedFileStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreFile
	cfg.StoreDir = t.TempDir()
	cfg.ProfileKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	c, err := NewEngine(context.Background(), cfg, EngineDeps{
		Logger:  logging.NewNop(),
		Options: []cerebro.Option{fakeBackends(), cerebro.WithScheduler(testutils.NewFakeScheduler())},
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	ctrl, err := c.Engine.Open(ctx, "ana", "palace", false)
	require.NoError(t, err)
	require.NoError(t, ctrl.Activate(ctx))
	require.NoError(t, c.Engine.Close(ctx, ctrl.ID()))

	raw, err := os.ReadFile(filepath.Join(cfg.StoreDir, "ana.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "current_progress")

	profile, err := c.Engine.Profiles().Load(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, profile.CurrentProgress)
	assert.Equal(t, "palace", profile.CurrentProgress.ExerciseID)
}

func TestNewEngine_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store = config.StoreRedis
	cfg.RedisAddr = mr.Addr()

	c, err := NewEngine(context.Background(), cfg, EngineDeps{
		Logger:  logging.NewNop(),
		Options: []cerebro.Option{fakeBackends()},
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestNewEngine_Errors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.APIKey = ""
		_, err := NewEngine(context.Background(), cfg, EngineDeps{Logger: logging.NewNop()})
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("short profile key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.ProfileKey = base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := NewEngine(context.Background(), cfg, EngineDeps{Logger: logging.NewNop()})
		assert.Error(t, err)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(t)
		cfg.Store = config.StoreRedis
		cfg.RedisAddr = addr
		_, err := NewEngine(context.Background(), cfg, EngineDeps{Logger: logging.NewNop()})
		assert.Error(t, err)
	})
}

func TestNewEngine_UnknownExercise(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewEngine(context.Background(), cfg, EngineDeps{
		Logger:  logging.NewNop(),
		Options: []cerebro.Option{fakeBackends()},
	})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Engine.Open(context.Background(), "", "missing", false)
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestGraph_WithProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreFile
	cfg.StoreDir = t.TempDir()
	cfg.APIKey = ""

	ctx := context.Background()
	var out bytes.Buffer
	require.NoError(t, Graph(ctx, cfg, "palace", "nobody", &out))
	assert.Contains(t, out.String(), `s0_door(("door"))`)
	assert.NotContains(t, out.String(), "current;")

	profile := domain.NewProfile("ana", "Ana")
	profile.CurrentProgress = &domain.Progress{ExerciseID: "palace", StepIndex: 1, StepID: "hall"}
	c := &Components{}
	store, _, err := c.profileStore(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, profile))

	out.Reset()
	require.NoError(t, Graph(ctx, cfg, "palace", "ana", &out))
	assert.Contains(t, out.String(), "class s1_hall current;")

	assert.ErrorIs(t, Graph(ctx, cfg, "missing", "", &out), domain.ErrExerciseNotFound)
}
