package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] [paths...]",
		Aliases: []string{"enc"},
		Short:   "Encrypt files into the vault",
		Long: `Encrypt files into the vault.

Directories are walked recursively and filtered by --include/--exclude.
Files named explicitly are always stored. Each stored file is printed with its ID.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := password(cmd, cfg)
			if err != nil {
				return err
			}

			return withVault(cmd, cfg, nil, func(ctx context.Context, s session) error {
				return logic.Run(ctx, cfg, s.env, secret)
			})
		},
	}

	cmd.Flags().BoolP("delete", "d", false, "Delete the original file after it is stored")
	cmd.Flags().Bool("dry", false, "Show which files would be stored without storing them")
	cmd.Flags().Bool("stats", false, "Print a summary when done")
	filterFlags(cmd.Flags())

	return cmd
}
