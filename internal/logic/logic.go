// Package logic implements the command behavior on top of the file service.
package logic

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/filter"
	"github.com/idelchi/qtdfp/internal/vault"
)

// Files is the file service the commands drive.
type Files interface {
	EncryptReader(ctx context.Context, filename string, r io.Reader, size int64, password string) (vault.Record, error)
	DecryptTo(ctx context.Context, w io.Writer, id, password string) (vault.Record, int64, error)
	Get(ctx context.Context, id string) (vault.Record, error)
	List(ctx context.Context) ([]vault.Record, error)
	Delete(ctx context.Context, id string) error
}

// Env carries what every command needs besides its configuration.
type Env struct {
	Files Files
	Out   io.Writer
	Err   io.Writer
}

// Run stores the files selected by cfg in the vault.
func Run(ctx context.Context, cfg *config.Config, env Env, password string) error {
	start := time.Now()

	sel, err := resolveFiles(cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	if cfg.Dry {
		return dryRun(cfg, env, sel, start)
	}

	proc := &Processor{
		env:      env,
		parallel: cfg.Parallel,
		quiet:    cfg.Quiet,
		verb:     "Stored",
	}

	if cfg.Delete {
		proc.cleanup = func(_ context.Context, res Result) (string, error) {
			return res.Input, os.Remove(res.Input)
		}
	}

	counts, err := proc.ProcessAll(ctx, sel.Files, func(ctx context.Context, file string) (Result, error) {
		return storeFile(ctx, env.Files, file, password)
	})

	if cfg.Stats {
		printStats(env.Err, sel, counts, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("storing files: %w", err)
	}

	return nil
}

// storeFile streams one file into the vault under its slash-separated path.
func storeFile(ctx context.Context, files Files, file, password string) (Result, error) {
	in, err := os.Open(filepath.Clean(file))
	if err != nil {
		return Result{}, fmt.Errorf("opening input file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("getting file info: %w", err)
	}

	rec, err := files.EncryptReader(ctx, filepath.ToSlash(file), in, info.Size(), password)
	if err != nil {
		return Result{}, err
	}

	return Result{Input: file, Output: rec.ID, Size: rec.OriginalSize}, nil
}

// resolveFiles expands positional args and applies include/exclude filtering.
func resolveFiles(cfg *config.Config) (filter.Selection, error) {
	includes, err := filter.Patterns(cfg.Include, cfg.IncludeFrom)
	if err != nil {
		return filter.Selection{}, fmt.Errorf("loading include patterns: %w", err)
	}

	excludes, err := filter.Patterns(cfg.Exclude, cfg.ExcludeFrom)
	if err != nil {
		return filter.Selection{}, fmt.Errorf("loading exclude patterns: %w", err)
	}

	flt, err := filter.New(includes, excludes, cfg.IncludeFrom != "")
	if err != nil {
		return filter.Selection{}, err
	}

	sel, err := flt.Resolve(cfg.Files)
	if err != nil {
		return sel, fmt.Errorf("filtering files: %w", err)
	}

	return sel, nil
}

// dryRun previews what would be stored without touching the vault.
func dryRun(cfg *config.Config, env Env, sel filter.Selection, start time.Time) error {
	counts := Counts{Processed: len(sel.Files)}

	for _, file := range sel.Files {
		if !cfg.Quiet {
			fmt.Fprintf(env.Out, "Would store %q\n", file)
		}

		if info, err := os.Stat(file); err == nil {
			counts.Size += info.Size()
		}
	}

	if cfg.Stats {
		printStats(env.Err, sel, counts, time.Since(start))
	}

	return nil
}

func printStats(w io.Writer, sel filter.Selection, counts Counts, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Scanned:   %d\n", sel.Scanned)
	fmt.Fprintf(w, "  Excluded:  %d\n", sel.Excluded()-sel.Empty)
	fmt.Fprintf(w, "  Empty:     %d\n", sel.Empty)
	fmt.Fprintf(w, "  Processed: %d\n", counts.Processed)
	fmt.Fprintf(w, "  Errors:    %d\n", counts.Errored)
	//nolint:gosec // counts.Size is always non-negative (sum of file sizes)
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, counts.Size))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
