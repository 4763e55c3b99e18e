package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/metrics"
	"github.com/idelchi/qtdfp/internal/server"
)

// NewServeCommand creates a new cobra command for the serve subcommand.
func NewServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve the vault over HTTP",
		Long: `Serve the vault over HTTP.

Routes:
  GET    /                  health check
  POST   /api/encrypt       multipart upload with "file" and "password"
  GET    /api/files         list stored files
  POST   /api/decrypt/{id}  form field "password", returns the file
  DELETE /api/files/{id}    delete a stored file
  GET    /metrics           Prometheus metrics`,
		Args:    cobra.NoArgs,
		PreRunE: idsPreRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Server.Validate(); err != nil {
				return err
			}

			reg := metrics.NewRegistry()

			return withVault(cmd, cfg, reg, func(ctx context.Context, s session) error {
				srv := server.New(s.svc, server.Options{
					Addr:           cfg.Server.Addr,
					ReadTimeout:    cfg.Server.ReadTimeout,
					WriteTimeout:   cfg.Server.WriteTimeout,
					MaxUploadBytes: cfg.Server.MaxUploadBytes,
					AllowedOrigins: cfg.Server.AllowedOrigins,
					Version:        cmd.Root().Version,
					Logger:         s.log,
					Metrics:        reg,
				})

				return srv.ListenAndServe(ctx)
			})
		},
	}

	cmd.Flags().String("addr", ":8000", "Address to listen on")
	cmd.Flags().Duration("read-timeout", 0, "Maximum duration for reading a request, 0 for none")
	cmd.Flags().Duration("write-timeout", 0, "Maximum duration for writing a response, 0 for none")
	cmd.Flags().String("max-upload", "100MiB", "Maximum upload size")
	cmd.Flags().StringSlice("allowed-origins", nil, "CORS origins allowed to call the API, defaults to any")

	return cmd
}
