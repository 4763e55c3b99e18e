package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/qtdfp/internal/config"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version, readConfigFile)

	root.Use = "qtdfp [flags] command [flags]"
	root.Short = "Password-derived file vault"
	root.Long = `A file vault that encrypts files with a keystream derived from a password.
Stored files are addressed by ID and can be restored, listed and deleted,
either from the command line or through the HTTP API started by "serve".

Every flag can also be set through a QTDFP_ environment variable, e.g.
--password-file as QTDFP_PASSWORD_FILE, or in the --config file.`

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.StringP("config", "c", "", "Path to a YAML/JSON/TOML configuration file")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")

	flags.StringP("password", "p", "", "Vault password (at least 8 characters)")
	flags.StringP("password-file", "f", "", "Path to a file holding the vault password")

	flags.String("store", defaultStorePath(), "Directory of the vault database")
	flags.Bool("in-memory", false, "Keep the vault in memory, discarding it on exit")

	flags.String("blob-backend", "badger", "Where encrypted blobs are stored: badger or s3")
	flags.String("s3-bucket", "", "S3 bucket for encrypted blobs")
	flags.String("s3-prefix", "", "Key prefix for blobs in the S3 bucket")
	flags.String("s3-region", "", "S3 region")
	flags.String("s3-endpoint", "", "Custom S3 endpoint URL, e.g. for MinIO")
	flags.String("s3-access-key", "", "S3 access key, defaults to the AWS credential chain")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.Bool("s3-path-style", false, "Use path-style S3 addressing")

	flags.String("log-level", "info", "Log level: trace, debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")

	root.AddCommand(
		NewEncryptCommand(cfg),
		NewDecryptCommand(cfg),
		NewListCommand(cfg),
		NewDeleteCommand(cfg),
		NewFingerprintCommand(cfg),
		NewCheckCommand(cfg),
		NewServeCommand(cfg),
	)

	return root
}

// readConfigFile merges the --config file into viper, below flags and
// environment variables.
func readConfigFile(_ *cobra.Command, _ []string) error {
	file := viper.GetString("config")
	if file == "" {
		return nil
	}

	viper.SetConfigFile(file)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".qtdfp"
	}

	return filepath.Join(dir, "qtdfp", "vault")
}

// filterFlags registers the include/exclude flags shared by encrypt and check.
func filterFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("include", "i", nil, "Include patterns (find -path semantics), repeatable")
	flags.StringSliceP("exclude", "e", nil, "Exclude patterns (find -path semantics), repeatable")
	flags.String("include-from", "", "Read include patterns from a JSON/JSONC file")
	flags.String("exclude-from", "", "Read exclude patterns from a JSON/JSONC file")
}
