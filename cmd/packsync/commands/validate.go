package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/packsync/packsync/pkg/config"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the workspace configuration",
		Long: `Validate the workspace configuration without running any build cycles.
Parses the CUE configuration, reports syntax and schema errors with file
positions, and lists the projects the workspace resolves to.`,
		Example: `  # Validate the default packsync.cue
  packsync validate

  # Validate an explicit configuration file
  packsync validate -c deploy/packsync.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := config.NewCUEParser()
			parsed, err := parser.Parse([]string{configPath})
			if err != nil {
				return fmt.Errorf("parsing configuration: %w", err)
			}

			for _, verr := range parsed.Errors {
				logValidationError(verr)
			}
			if len(parsed.Errors) > 0 {
				return fmt.Errorf("configuration has %d validation error(s)", len(parsed.Errors))
			}

			log.Info().
				Str("workspace", parsed.Workspace.Name).
				Int("projects", len(parsed.Projects)).
				Strs("files", parsed.SourceFiles).
				Msg("Configuration is valid")
			return nil
		},
	}
}
