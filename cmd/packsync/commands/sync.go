package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/packsync/packsync/pkg/engine"
)

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [project...]",
		Short: "Run one build and sync cycle",
		Long: `Run exactly one build+sync cycle for the named projects and exit.

This command:
  - Compiles the project's TypeScript source (when present and non-empty)
    directly into the deployed scripts directory
  - Scans source files for shared-library references
  - Mirrors the behavior and resource subtrees into the deployment
  - Materializes exactly the referenced shared libraries

With no arguments, every declared or discovered project is synced.`,
		Example: `  # Sync every project in the workspace
  packsync sync

  # Sync a single project
  packsync sync mylevel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := loadWorkspace(ctx)
			if err != nil {
				return err
			}
			defer w.close(ctx)

			projects, err := w.projects(args)
			if err != nil {
				return err
			}

			var failed int
			for _, project := range projects {
				cycle, err := w.orchestrator.RunCycle(ctx, project)
				if err != nil {
					return err
				}
				if cycle.State != engine.CycleStateSucceeded {
					failed++
				}
				printCycle(cycle)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d cycle(s) did not succeed", failed, len(projects))
			}
			return nil
		},
	}

	return cmd
}

func printCycle(cycle *engine.Cycle) {
	if jsonOutput {
		data, err := json.MarshalIndent(cycle, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode cycle")
			return
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s  seq=%d  state=%s  copied=%d deleted=%d skipped=%d  libraries=%v  (%s)\n",
		cycle.Project, cycle.Seq, cycle.State,
		cycle.Copied, cycle.Deleted, cycle.Skipped,
		cycle.Libraries, cycle.Duration().Round(time.Millisecond))
	for _, line := range cycle.Diagnostics {
		fmt.Printf("  %s\n", line)
	}
}
