package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] [ids...]",
		Aliases: []string{"dec"},
		Short:   "Restore files from the vault",
		Long: `Restore files from the vault into --output.

Without IDs every stored file is restored. Files are written under their
stored base name; names repeated within one run get their ID appended.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: idsPreRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := password(cmd, cfg)
			if err != nil {
				return err
			}

			return withVault(cmd, cfg, nil, func(ctx context.Context, s session) error {
				return logic.RunDecrypt(ctx, cfg, s.env, secret)
			})
		},
	}

	cmd.Flags().StringP("output", "o", ".", "Directory to restore files into")
	cmd.Flags().BoolP("delete", "d", false, "Delete the record from the vault after it is restored")
	cmd.Flags().Bool("dry", false, "Show which files would be restored without writing them")
	cmd.Flags().Bool("stats", false, "Print a summary when done")

	return cmd
}
