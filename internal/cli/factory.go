package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/cerebro"
	"github.com/aretw0/cerebro/internal/config"
	"github.com/aretw0/cerebro/pkg/adapters/file"
	"github.com/aretw0/cerebro/pkg/adapters/gemini"
	"github.com/aretw0/cerebro/pkg/adapters/loam"
	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/adapters/redis"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/observability"
	"github.com/aretw0/cerebro/pkg/persistence/middleware"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/runner"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrMissingAPIKey is returned when no generative backend key is configured.
var ErrMissingAPIKey = errors.New("CEREBRO_API_KEY (or GEMINI_API_KEY) is not set")

// EngineDeps are the process-level collaborators of NewEngine.
type EngineDeps struct {
	Logger *slog.Logger
	// Registerer receives the engine metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	// Hooks are merged after the metrics and debug hooks.
	Hooks domain.LifecycleHooks
	// Options are applied last and may override any wired component.
	Options []cerebro.Option
	Debug   bool
}

// Components is a wired engine plus the resources it owns.
type Components struct {
	Engine  *cerebro.Engine
	Catalog ports.Catalog
	Metrics *observability.Metrics

	closers []func() error
}

// Close releases store connections.
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewEngine initializes an Engine with standard CLI conventions: a loam
// catalog over cfg.ContentDir, Gemini backends and the configured profile
// store.
func NewEngine(ctx context.Context, cfg *config.Config, deps EngineDeps) (*Components, error) {
	logger := deps.Logger
	if logger == nil {
		logger = createLogger(cfg.LogLevel, deps.Debug)
	}

	catalog, err := loam.Open(cfg.ContentDir, loam.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("error opening catalog: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	backend, err := gemini.New(ctx, cfg.APIKey,
		gemini.WithLogger(logger),
		gemini.WithTextModel(cfg.TextModel),
		gemini.WithImageModel(cfg.ImageModel),
		gemini.WithSpeechModel(cfg.SpeechModel),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing gemini: %w", err)
	}

	c := &Components{
		Catalog: catalog,
		Metrics: observability.NewMetrics(deps.Registerer),
	}

	opts := []cerebro.Option{
		cerebro.WithCatalog(catalog),
		cerebro.WithBackends(backend, backend, backend),
		cerebro.WithLogger(logger),
		cerebro.WithMetrics(c.Metrics),
		cerebro.WithSessionOptions(
			session.WithSanitizer(runner.NewSanitizer(cfg.MaxInputSize)),
			session.WithVoice(cfg.Voice),
			session.WithSettleDelay(cfg.Tuning.SettleDelay),
			session.WithAssetDebounce(cfg.Tuning.AssetDebounce),
			session.WithGestureConfig(cfg.Tuning.Gesture),
		),
	}

	store, locker, err := c.profileStore(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	opts = append(opts, cerebro.WithProfileStore(store))
	if locker != nil {
		opts = append(opts, cerebro.WithLocker(locker))
	}

	if deps.Debug {
		opts = append(opts, cerebro.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	opts = append(opts, cerebro.WithLifecycleHooks(deps.Hooks))
	opts = append(opts, deps.Options...)

	c.Engine, err = cerebro.New(opts...)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return c, nil
}

func (c *Components) profileStore(ctx context.Context, cfg *config.Config) (ports.ProfileStore, ports.DistributedLocker, error) {
	var (
		store  ports.ProfileStore
		locker ports.DistributedLocker
	)
	switch cfg.Store {
	case config.StoreFile:
		store = file.New(cfg.ProfileDir())
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, "", 0, redis.WithTTL(cfg.RedisTTL))
		c.closers = append(c.closers, rs.Close)
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		store = rs
		locker = redis.NewLocker(rs.Client(), "cerebro:")
	default:
		store = memory.NewStore()
	}

	active, fallback, err := cfg.ProfileKeys()
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("profile encryption: %w", err)
		}
		store = middleware.Chain(store, mw)
	}
	return store, locker, nil
}
