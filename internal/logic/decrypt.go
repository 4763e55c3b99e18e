package logic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/fileutil"
	"github.com/idelchi/qtdfp/internal/vault"
)

const ownerReadWrite = 0o600

// RunDecrypt restores the records named by cfg.IDs, or every record when none
// are given, into cfg.Output.
func RunDecrypt(ctx context.Context, cfg *config.Config, env Env, password string) error {
	start := time.Now()

	ids := cfg.IDs
	if len(ids) == 0 {
		records, err := env.Files.List(ctx)
		if err != nil {
			return err
		}

		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
	}

	ids = unique(ids)

	if len(ids) == 0 {
		return errors.New("no stored files to decrypt")
	}

	dests, err := destinations(ctx, env.Files, cfg.Output, ids)
	if err != nil {
		return err
	}

	if cfg.Dry {
		for _, id := range ids {
			if !cfg.Quiet {
				fmt.Fprintf(env.Out, "Would restore %s -> %q\n", id, dests[id])
			}
		}

		return nil
	}

	proc := &Processor{
		env:      env,
		parallel: cfg.Parallel,
		quiet:    cfg.Quiet,
		verb:     "Restored",
	}

	if cfg.Delete {
		proc.cleanup = func(ctx context.Context, res Result) (string, error) {
			return res.Input, env.Files.Delete(ctx, res.Input)
		}
	}

	counts, err := proc.ProcessAll(ctx, ids, func(ctx context.Context, id string) (Result, error) {
		return restore(ctx, env.Files, id, dests[id], password)
	})

	if cfg.Stats {
		printRestoreStats(env.Err, len(ids), counts, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("restoring files: %w", err)
	}

	return nil
}

// restore decrypts one record into dest atomically.
func restore(ctx context.Context, files Files, id, dest, password string) (res Result, err error) {
	out, err := fileutil.Create(dest)
	if err != nil {
		return Result{}, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer out.Abort()

	rec, n, err := files.DecryptTo(ctx, out, id, password)
	if err != nil {
		return Result{}, err
	}

	if _, err := out.Commit(ownerReadWrite, rec.CreatedAt); err != nil {
		return Result{}, fmt.Errorf("finalizing output: %w", err)
	}

	return Result{Input: id, Output: dest, Size: n}, nil
}

// destinations maps every ID to a distinct path below dir. Names that repeat
// within one run get the record ID appended.
func destinations(ctx context.Context, files Files, dir string, ids []string) (map[string]string, error) {
	if dir == "" {
		dir = "."
	}

	dests := make(map[string]string, len(ids))
	taken := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := dests[id]; ok {
			continue
		}

		rec, err := files.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", id, err)
		}

		name := safeName(rec.Filename, rec.ID)
		if _, ok := taken[name]; ok {
			ext := filepath.Ext(name)
			name = strings.TrimSuffix(name, ext) + "-" + rec.ID + ext
		}

		taken[name] = struct{}{}
		dests[id] = filepath.Join(dir, name)
	}

	return dests, nil
}

// safeName reduces a stored filename to its base so restores stay inside the
// output directory.
func safeName(filename, fallback string) string {
	name := filepath.Base(filepath.FromSlash(strings.ReplaceAll(filename, `\`, "/")))

	switch name {
	case "", ".", "..", string(filepath.Separator):
		return fallback
	}

	return name
}

// unique drops repeated IDs, comparing them in canonical form. IDs that do
// not parse are kept as given so the lookup reports them.
func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if canonical, err := vault.ParseID(id); err == nil {
			id = canonical
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func printRestoreStats(w io.Writer, requested int, counts Counts, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Requested: %d\n", requested)
	fmt.Fprintf(w, "  Restored:  %d\n", counts.Processed)
	fmt.Fprintf(w, "  Errors:    %d\n", counts.Errored)
	//nolint:gosec // counts.Size is always non-negative
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, counts.Size))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
