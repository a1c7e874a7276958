package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the exercise files for consistency",
	Long:  `Loads every exercise and reports empty exercises, duplicate step ids and id collisions.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		exitOnError("Error loading config", err)
		dir := cfg.ContentDir
		if len(args) > 0 {
			dir = args[0]
		}

		n, err := runValidate(cmd.Context(), dir)
		if err != nil {
			fmt.Printf("Validation failed:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d exercises are valid! ✅\n", n)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, dir string) (int, error) {
	catalog, err := loam.Open(dir, loam.WithLogger(logging.NewNop()))
	if err != nil {
		return 0, err
	}
	if err := catalog.Validate(ctx); err != nil {
		return 0, err
	}
	exercises, err := catalog.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(exercises), nil
}
