package logic

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/encryption"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1) //nolint:gochecknoglobals // shared style

var cellStyle = lipgloss.NewStyle().Padding(0, 1) //nolint:gochecknoglobals // shared style

// RunList prints every stored record, newest first. With --quiet only IDs
// are printed.
func RunList(ctx context.Context, cfg *config.Config, env Env) error {
	records, err := env.Files.List(ctx)
	if err != nil {
		return err
	}

	if cfg.Quiet {
		for _, rec := range records {
			fmt.Fprintln(env.Out, rec.ID)
		}

		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(env.Err, "No stored files")

		return nil
	}

	rows := make([][]string, 0, len(records))

	var total int64

	for _, rec := range records {
		total += rec.OriginalSize

		rows = append(rows, []string{
			rec.ID,
			rec.Filename,
			humanize.IBytes(uint64(max(0, rec.OriginalSize))), //nolint:gosec // clamped
			humanize.Time(rec.CreatedAt),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers("ID", "NAME", "SIZE", "STORED").
		Rows(rows...)

	fmt.Fprintln(env.Out, tbl.Render())

	if cfg.Stats {
		//nolint:gosec // total is a sum of non-negative sizes
		fmt.Fprintf(env.Err, "%d files, %s\n", len(records), humanize.IBytes(uint64(max(0, total))))
	}

	return nil
}

// RunDelete removes the records named by cfg.IDs. It attempts every ID and
// reports the first failure.
func RunDelete(ctx context.Context, cfg *config.Config, env Env) error {
	if len(cfg.IDs) == 0 {
		return errors.New("no file IDs given")
	}

	var errs []error

	for _, id := range unique(cfg.IDs) {
		if cfg.Dry {
			if !cfg.Quiet {
				fmt.Fprintf(env.Out, "Would delete %s\n", id)
			}

			continue
		}

		if err := env.Files.Delete(ctx, id); err != nil {
			fmt.Fprintf(env.Err, "Error deleting %s: %v\n", id, err)

			errs = append(errs, fmt.Errorf("%s: %w", id, err))

			continue
		}

		if !cfg.Quiet {
			fmt.Fprintf(env.Out, "Deleted %s\n", id)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("deleting files: %w", errors.Join(errs...))
	}

	return nil
}

// ErrFingerprintMismatch is returned when a record was stored under another password.
var ErrFingerprintMismatch = errors.New("fingerprint mismatch")

// RunFingerprint prints the fingerprint of password. Given IDs, it also
// reports whether each record was stored under that password.
func RunFingerprint(ctx context.Context, cfg *config.Config, env Env, password string) error {
	fingerprint := encryption.Fingerprint(password)

	fmt.Fprintln(env.Out, fingerprint)

	var mismatched int

	for _, id := range unique(cfg.IDs) {
		rec, err := env.Files.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", id, err)
		}

		verdict := "match"
		if subtle.ConstantTimeCompare([]byte(fingerprint), []byte(rec.Fingerprint)) != 1 {
			verdict = "mismatch"
			mismatched++
		}

		if !cfg.Quiet || verdict != "match" {
			fmt.Fprintf(env.Out, "%s %s %q\n", verdict, rec.ID, rec.Filename)
		}
	}

	if mismatched > 0 {
		return fmt.Errorf("%w: %d file(s)", ErrFingerprintMismatch, mismatched)
	}

	return nil
}
