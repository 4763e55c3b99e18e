// Package commands provides the command-line interface for the qtdfp tool.
//
// It implements commands for:
//   - storing files in the vault (encrypt)
//   - restoring them (decrypt)
//   - listing, deleting and fingerprinting
//   - pattern checks and the HTTP API (check, serve)
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper. With --show the
// resolved configuration is printed, secrets masked, and cobraext.ErrExitGracefully
// is returned instead of running the command.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/qtdfp/internal/config"
)

// preRun returns a PreRunE handler that resolves positional args into cfg.Files
// and validates the configuration.
func preRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			cfg.Files = []string{"."}
		} else {
			cfg.Files = args
		}

		return cobraext.Validate(cfg, cfg)
	}
}

// idsPreRun is preRun for commands taking record IDs.
func idsPreRun(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.IDs = args

		return cobraext.Validate(cfg, cfg)
	}
}
