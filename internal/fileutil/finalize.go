// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AtomicFile is a temporary file in the destination's directory that replaces
// the destination only on Commit.
type AtomicFile struct {
	*os.File

	dest string
	done bool
}

// Create opens a temporary file next to dest. Caller must defer Abort.
func Create(dest string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &AtomicFile{File: tmp, dest: dest}, nil
}

// Commit applies perm, renames the file onto its destination and, if modTime is
// non-zero, sets its timestamps. It returns the final size.
func (f *AtomicFile) Commit(perm os.FileMode, modTime time.Time) (int64, error) {
	if err := f.Chmod(perm); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("syncing temporary file: %w", err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(f.Name(), f.dest); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	f.done = true

	return FinalizeOutput(f.dest, !modTime.IsZero(), modTime)
}

// Abort discards the temporary file unless Commit succeeded.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}

	f.Close()           //nolint:errcheck,gosec // best-effort cleanup
	os.Remove(f.Name()) //nolint:errcheck,gosec // best-effort cleanup
}

// FinalizeOutput optionally preserves timestamps and returns the output file size.
func FinalizeOutput(outPath string, preserveTimestamps bool, modTime time.Time) (int64, error) {
	if preserveTimestamps {
		if err := os.Chtimes(outPath, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", outPath, err)
	}

	return outInfo.Size(), nil
}
