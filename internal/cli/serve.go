package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/cerebro"
	"github.com/aretw0/cerebro/internal/config"
	httpadapter "github.com/aretw0/cerebro/pkg/adapters/http"
	mcpadapter "github.com/aretw0/cerebro/pkg/adapters/mcp"
	"github.com/aretw0/cerebro/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Addr string
	// MCPAddr additionally exposes the MCP tools over SSE when set.
	MCPAddr string
	Debug   bool
}

// Serve runs the HTTP API (and optionally MCP over SSE) until ctx is
// cancelled, then shuts every open session down.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	logger := createLogger(cfg.LogLevel, opts.Debug)
	if opts.Addr == "" {
		opts.Addr = cfg.Addr
	}

	if cfg.Trace {
		shutdown, err := observability.InitTracing(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	streams := httpadapter.NewStreamManager()
	c, err := NewEngine(ctx, cfg, EngineDeps{
		Logger:     logger,
		Registerer: prometheus.DefaultRegisterer,
		Hooks:      streams.Hooks(),
		Debug:      opts.Debug,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	handler := httpadapter.NewHandler(c.Engine,
		httpadapter.WithStreams(streams),
		httpadapter.WithMetricsHandler(promhttp.Handler()),
		httpadapter.WithVersion(cerebro.Version),
		httpadapter.WithLogger(logger),
	)
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if opts.MCPAddr != "" {
		mcpSrv := mcpadapter.NewServer(c.Engine,
			mcpadapter.WithLogger(logger),
			mcpadapter.WithVersion(cerebro.Version),
		)
		g.Go(func() error { return mcpSrv.ServeSSE(gctx, opts.MCPAddr) })
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := c.Engine.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("engine shutdown", "err", serr)
	}
	logger.Info("server stopped")
	return err
}

// MCPOptions configures the MCP command.
type MCPOptions struct {
	// Transport is "stdio" (default) or "sse".
	Transport string
	Addr      string
	Debug     bool
}

// ServeMCP exposes the engine as MCP tools until ctx is cancelled or stdin
// closes.
func ServeMCP(ctx context.Context, cfg *config.Config, opts MCPOptions) error {
	logger := createLogger(cfg.LogLevel, opts.Debug)

	c, err := NewEngine(ctx, cfg, EngineDeps{Logger: logger, Debug: opts.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.Engine.Shutdown(shutdownCtx)
	}()

	srv := mcpadapter.NewServer(c.Engine,
		mcpadapter.WithLogger(logger),
		mcpadapter.WithVersion(cerebro.Version),
	)
	switch opts.Transport {
	case "", "stdio":
		return srv.ServeStdio()
	case "sse":
		addr := opts.Addr
		if addr == "" {
			addr = cfg.Addr
		}
		return srv.ServeSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or sse)", opts.Transport)
	}
}
