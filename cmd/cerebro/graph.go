package main

import (
	"os"

	"github.com/aretw0/cerebro/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <exercise-id>",
	Short: "Print the exercise as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)

		profileID, _ := cmd.Flags().GetString("profile")
		exitOnError("Error", cli.Graph(cmd.Context(), cfg, args[0], profileID, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("profile", "p", "", "Highlight the saved position of this profile")
}
