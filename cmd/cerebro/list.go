package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the exercises in the content directory",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)

		catalog, err := loam.Open(cfg.ContentDir, loam.WithLogger(logging.New(logging.ParseLevel(cfg.LogLevel))))
		exitOnError("Error opening catalog", err)

		exercises, err := catalog.List(cmd.Context())
		exitOnError("Error listing exercises", err)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			exitOnError("Error encoding", json.NewEncoder(os.Stdout).Encode(exercises))
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tDOMAIN\tTIER\tSTEPS")
		for _, ex := range exercises {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", ex.ID, ex.Title, ex.Domain, ex.Tier, len(ex.Steps))
		}
		_ = tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}
