package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <project>",
		Short: "Show recent build cycles",
		Long: `Show the most recent build cycles for a project from the workspace's
cycle history database. Requires workspace.historyPath to be configured.`,
		Example: `  # Last 20 cycles
  packsync history mylevel

  # Last 5 cycles as JSON
  packsync history mylevel --limit 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := loadWorkspace(ctx)
			if err != nil {
				return err
			}
			defer w.close(ctx)

			if w.store == nil {
				return fmt.Errorf("no history database configured: set workspace.historyPath")
			}

			cycles, err := w.store.ListCycles(ctx, args[0], limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(cycles, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if len(cycles) == 0 {
				fmt.Printf("no recorded cycles for %s\n", args[0])
				return nil
			}
			for _, cycle := range cycles {
				fmt.Printf("#%-5d %s  %-13s  copied=%-4d deleted=%-4d skipped=%-4d  libraries=%v\n",
					cycle.Seq,
					cycle.StartedAt.Format("2006-01-02 15:04:05"),
					cycle.State,
					cycle.Copied, cycle.Deleted, cycle.Skipped,
					cycle.Libraries)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of cycles to show")

	return cmd
}
