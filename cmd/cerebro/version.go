package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/aretw0/cerebro"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cerebro",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cerebro %s (%s", strings.TrimSpace(cerebro.Version), runtime.Version())
		if rev := vcsRevision(); rev != "" {
			fmt.Printf(", commit %s", rev)
		}
		fmt.Println(")")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
