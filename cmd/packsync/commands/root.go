package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "packsync",
		Short: "packsync - incremental content pack build and deployment sync",
		Long: `packsync keeps game content pack projects mirrored into the game's
deployment directory, recompiling and re-syncing on file changes.

Features:
  - Incremental tree sync (size and mtime based, per-entry failure isolation)
  - TypeScript compilation straight into the deployment tree
  - Shared-library usage scanning and minimal materialization
  - Coalescing file watcher (one cycle in flight per project)
  - Build cycle history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "packsync.cue", "workspace config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
