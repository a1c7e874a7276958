package main

import (
	"github.com/aretw0/cerebro/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <exercise-id>",
	Short: "Run an exercise in the terminal",
	Long: `Opens a session for the exercise and reads commands from stdin:
next, back, replay, explain, ask <question>, status, exit.
With --profile, progress is saved on exit and resumed on the next run.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)

		opts := cli.RunOptions{ExerciseID: args[0]}
		opts.ProfileID, _ = cmd.Flags().GetString("profile")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		if !opts.Headless && !opts.JSON && !cli.IsInteractive() {
			opts.Headless = true
		}

		exitOnError("Error", cli.RunSession(cfg, opts))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("profile", "p", "", "Profile that records progress")
	runCmd.Flags().Bool("fresh", false, "Start from the first step, ignoring saved progress")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, JSON lines)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
}
