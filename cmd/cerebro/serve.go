package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/cerebro/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves sessions over HTTP with server-sent events for narration and visuals.
Prometheus metrics are exposed at /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)

		var opts cli.ServeOptions
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.MCPAddr, _ = cmd.Flags().GetString("mcp-addr")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exitOnError("Server error", cli.Serve(ctx, cfg, opts))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides CEREBRO_ADDR)")
	serveCmd.Flags().String("mcp-addr", "", "Also serve MCP over SSE on this address")
}
