package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/cerebro/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Exposes exercises and sessions as MCP tools so an agent can drive them.
The stdio transport keeps stdout for the protocol; logs go to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)

		var opts cli.MCPOptions
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exitOnError("MCP server error", cli.ServeMCP(ctx, cfg, opts))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().StringP("addr", "a", "", "Address for the sse transport (overrides CEREBRO_ADDR)")
}
