// Package filter selects the files handed to the vault using find -path
// include/exclude semantics.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/idelchi/qtdfp/pkg/pathmatch"
)

// ErrNoFiles is returned when nothing survives filtering.
var ErrNoFiles = errors.New("no files matched")

// Filter decides whether a walked path is selected.
// Without includes every path is selected. Excludes always win.
type Filter struct {
	includes    *pathmatch.Matcher
	excludes    *pathmatch.Matcher
	hasIncludes bool
}

// New compiles include/exclude patterns into a reusable filter. hasIncludes
// forces include filtering on even when includes is empty, so an empty
// include file selects nothing.
func New(includes, excludes []string, hasIncludes bool) (*Filter, error) {
	inc, err := pathmatch.NewMatcher(Normalize(includes))
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := pathmatch.NewMatcher(Normalize(excludes))
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc, hasIncludes: hasIncludes || len(includes) > 0}, nil
}

// Match reports whether the slash-separated path is selected.
func (f *Filter) Match(path string) bool {
	included := !f.hasIncludes || f.includes.MatchAny(path)

	return included && !f.excludes.MatchAny(path)
}

// Normalize strips a leading "./" so patterns match cleaned paths.
func Normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))

	for _, p := range patterns {
		out = append(out, strings.TrimPrefix(p, "./"))
	}

	return out
}

// Selection is the outcome of Resolve.
type Selection struct {
	Files []string
	// Scanned counts every regular file looked at.
	Scanned int
	// Empty counts zero-length files skipped while walking.
	Empty int
}

// Excluded is the number of scanned files that were not selected.
func (s Selection) Excluded() int {
	return s.Scanned - len(s.Files)
}

// Resolve expands positional args into files. Explicit files bypass the
// filter; directories are walked and filtered. Empty files found while
// walking are skipped since they cannot be stored.
func (f *Filter) Resolve(args []string) (Selection, error) {
	for _, arg := range args {
		if err := validatePath(arg); err != nil {
			return Selection{}, err
		}
	}

	var sel Selection

	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		sel.Files = append(sel.Files, path)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return Selection{}, fmt.Errorf("stat %q: %w", arg, err)
		}

		switch {
		case info.IsDir():
			if err := f.walk(arg, &sel, add); err != nil {
				return Selection{}, err
			}
		case info.Mode().IsRegular():
			sel.Scanned++

			add(arg)
		default:
			return Selection{}, fmt.Errorf("%q is not a regular file", arg)
		}
	}

	if len(sel.Files) == 0 {
		return sel, fmt.Errorf("%w: %v", ErrNoFiles, args)
	}

	return sel, nil
}

// walk adds every selected, non-empty regular file below root.
func (f *Filter) walk(root string, sel *Selection, add func(string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		sel.Scanned++

		if !f.Match(filepath.ToSlash(filepath.Clean(path))) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %q: %w", path, err)
		}

		if info.Size() == 0 {
			sel.Empty++

			return nil
		}

		add(path)

		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %q: %w", root, err)
	}

	return nil
}

// validatePath rejects paths that escape the current working directory.
func validatePath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed: %q", path)
	}

	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("paths must be within the current working directory: %q", path)
	}

	return nil
}
