package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logic"
)

// NewCheckCommand creates a new cobra command for the check subcommand.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check [flags] [paths/patterns...]",
		Short:   "Validate that include/exclude patterns match files",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.RunCheck(cfg, logic.Env{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
		},
	}

	filterFlags(cmd.Flags())

	return cmd
}
