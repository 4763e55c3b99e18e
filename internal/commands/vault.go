package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logging"
	"github.com/idelchi/qtdfp/internal/logic"
	"github.com/idelchi/qtdfp/internal/metrics"
	"github.com/idelchi/qtdfp/internal/service"
)

// session is an open vault and the service on top of it.
type session struct {
	svc *service.Service
	log *logrus.Logger
	env logic.Env
}

// withVault opens the configured vault, runs fn and closes the vault again.
// reg may be nil.
func withVault(
	cmd *cobra.Command,
	cfg *config.Config,
	reg *metrics.Registry,
	fn func(ctx context.Context, s session) error,
) (err error) {
	ctx := cmd.Context()

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	store, err := logic.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing vault: %w", cerr))
		}
	}()

	svc := service.New(store, logger, reg)

	return fn(ctx, session{
		svc: svc,
		log: logger,
		env: logic.Env{Files: svc, Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()},
	})
}

// password resolves the vault password, prompting on the terminal as a last resort.
func password(cmd *cobra.Command, cfg *config.Config) (string, error) {
	return cfg.ResolvePassword(terminalPrompt(cmd.InOrStdin(), cmd.ErrOrStderr()))
}

// terminalPrompt reads a password from in without echo. It returns nil when
// in is not a terminal.
func terminalPrompt(in io.Reader, out io.Writer) config.Prompter {
	file, ok := in.(*os.File)
	if !ok {
		return nil
	}

	fd := int(file.Fd()) //nolint:gosec // file descriptors fit in an int

	if !term.IsTerminal(fd) {
		return nil
	}

	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)

		secret, err := term.ReadPassword(fd)

		fmt.Fprintln(out)

		return string(secret), err
	}
}
