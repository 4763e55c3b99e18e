package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logic"
)

// NewListCommand creates a new cobra command for the list subcommand.
func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [flags]",
		Aliases: []string{"ls"},
		Short:   "List stored files, newest first",
		Args:    cobra.NoArgs,
		PreRunE: idsPreRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withVault(cmd, cfg, nil, func(ctx context.Context, s session) error {
				return logic.RunList(ctx, cfg, s.env)
			})
		},
	}

	cmd.Flags().Bool("stats", false, "Print the number and total size of stored files")

	return cmd
}

// NewDeleteCommand creates a new cobra command for the delete subcommand.
func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [flags] ids...",
		Aliases: []string{"rm"},
		Short:   "Delete stored files",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: idsPreRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withVault(cmd, cfg, nil, func(ctx context.Context, s session) error {
				return logic.RunDelete(ctx, cfg, s.env)
			})
		},
	}

	cmd.Flags().Bool("dry", false, "Show which records would be deleted without deleting them")

	return cmd
}

// NewFingerprintCommand creates a new cobra command for the fingerprint subcommand.
func NewFingerprintCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "fingerprint [flags] [ids...]",
		Aliases: []string{"fp"},
		Short:   "Print the password fingerprint and check it against stored files",
		Args:    cobra.ArbitraryArgs,
		PreRunE: idsPreRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := password(cmd, cfg)
			if err != nil {
				return err
			}

			return withVault(cmd, cfg, nil, func(ctx context.Context, s session) error {
				return logic.RunFingerprint(ctx, cfg, s.env, secret)
			})
		},
	}
}
