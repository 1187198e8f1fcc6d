package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/packsync/packsync/pkg/watcher"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [project...]",
		Short: "Watch projects and sync on change",
		Long: `Watch the named projects' source trees and run a build+sync cycle on
every change until interrupted.

Events arriving while a cycle runs coalesce into at most one follow-up
cycle; cycles for a project never overlap. Each watched project runs
independently.

With no arguments, every declared or discovered project is watched.`,
		Example: `  # Watch the whole workspace
  packsync watch

  # Watch two projects
  packsync watch mylevel otherlevel`,
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

			if err := w.metrics.StartMetricsServer(); err != nil {
				return err
			}

			manager := watcher.NewManager(w.orchestrator, log.Logger, w.metrics)
			for _, project := range projects {
				if err := manager.Watch(ctx, project); err != nil {
					manager.StopAll()
					return err
				}
			}

			log.Info().Strs("projects", manager.Active()).Msg("Watching for changes")
			<-ctx.Done()
			manager.StopAll()
			return nil
		},
	}

	return cmd
}
