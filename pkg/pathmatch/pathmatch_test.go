package pathmatch_test

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/idelchi/qtdfp/pkg/pathmatch"
)

// goldenCase is one pattern/path pair from testdata.
type goldenCase struct {
	Pattern     string `yaml:"pattern"`
	Path        string `yaml:"path"`
	Match       bool   `yaml:"match"`
	Description string `yaml:"description,omitempty"`
}

// goldenGroup is a named set of cases.
type goldenGroup struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []goldenCase `yaml:"cases"`
}

func loadGolden(t *testing.T) map[string][]goldenGroup {
	t.Helper()

	files, err := filepath.Glob("testdata/*.yml")
	if err != nil {
		t.Fatalf("globbing testdata: %v", err)
	}

	if len(files) == 0 {
		t.Fatal("no testdata/*.yml files found")
	}

	golden := make(map[string][]goldenGroup)

	for _, f := range files {
		data, err := os.ReadFile(f) //nolint:gosec // test helper reads known testdata files
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}

		var groups []goldenGroup
		if err := yaml.Unmarshal(data, &groups); err != nil {
			t.Fatalf("parsing %s: %v", f, err)
		}

		golden[filepath.Base(f)] = groups
	}

	return golden
}

// forEachCase runs fn for every golden case in its own subtest.
func forEachCase(t *testing.T, fn func(t *testing.T, tc goldenCase)) {
	t.Helper()

	forEachGroup(t, func(t *testing.T, cases []goldenCase) {
		t.Helper()

		for i, tc := range cases {
			desc := tc.Description
			if desc == "" {
				desc = fmt.Sprintf("case_%d", i)
			}

			t.Run(desc, func(t *testing.T) {
				t.Parallel()
				fn(t, tc)
			})
		}
	})
}

// forEachGroup runs fn once per golden group.
func forEachGroup(t *testing.T, fn func(t *testing.T, cases []goldenCase)) {
	t.Helper()

	for file, groups := range loadGolden(t) {
		t.Run(file, func(t *testing.T) {
			t.Parallel()

			for _, g := range groups {
				t.Run(g.Name, func(t *testing.T) {
					t.Parallel()
					fn(t, g.Cases)
				})
			}
		})
	}
}

// TestMatch runs the golden cases through Match.
func TestMatch(t *testing.T) {
	t.Parallel()

	forEachCase(t, func(t *testing.T, tc goldenCase) {
		t.Helper()

		got, err := pathmatch.Match(tc.Pattern, tc.Path)
		if err != nil {
			t.Fatalf("Match(%q, %q) error: %v", tc.Pattern, tc.Path, err)
		}

		if got != tc.Match {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.Pattern, tc.Path, got, tc.Match)
		}
	})
}

// TestMatcher checks that compiled matchers agree with Match.
func TestMatcher(t *testing.T) {
	t.Parallel()

	forEachGroup(t, func(t *testing.T, cases []goldenCase) {
		t.Helper()

		byPattern := make(map[string][]goldenCase)

		for _, tc := range cases {
			byPattern[tc.Pattern] = append(byPattern[tc.Pattern], tc)
		}

		for pattern, pCases := range byPattern {
			matcher, err := pathmatch.NewMatcher([]string{pattern})
			if err != nil {
				t.Fatalf("NewMatcher(%q) error: %v", pattern, err)
			}

			for _, tc := range pCases {
				got := matcher.MatchAny(tc.Path)
				if got != tc.Match {
					t.Errorf("Matcher(%q).MatchAny(%q) = %v, want %v",
						pattern, tc.Path, got, tc.Match)
				}
			}
		}
	})
}

// TestFindParity materializes each golden path and asks find -path for the verdict.
func TestFindParity(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("find"); err != nil {
		t.Skip("find not available")
	}

	forEachCase(t, func(t *testing.T, tc goldenCase) {
		t.Helper()

		if tc.Path == "" {
			t.Skip("empty path cannot be materialized")
		}

		findResult := runFind(t, tc.Pattern, tc.Path)

		if findResult != tc.Match {
			t.Errorf(
				"find -path disagrees with testdata: find=%v, want=%v for pattern=%q path=%q",
				findResult, tc.Match, tc.Pattern, tc.Path,
			)
		}

		got, err := pathmatch.Match(tc.Pattern, tc.Path)
		if err != nil {
			t.Fatalf("Match(%q, %q) error: %v", tc.Pattern, tc.Path, err)
		}

		if got != findResult {
			t.Errorf("Match(%q, %q) = %v, but find says %v",
				tc.Pattern, tc.Path, got, findResult)
		}
	})
}

// runFind materializes a path in a temp dir and checks if find -path matches it.
func runFind(t *testing.T, pattern, path string) bool {
	t.Helper()

	tmpDir := t.TempDir()

	// Materialize the path: create parent dirs and touch the file.
	fullPath := filepath.Join(tmpDir, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		t.Fatalf("mkdir for %q: %v", path, err)
	}

	if err := os.WriteFile(fullPath, nil, 0o600); err != nil {
		t.Fatalf("touch %q: %v", path, err)
	}

	// Build the find pattern: prepend tmpDir/ to the pattern so find can match.
	// find uses -path which matches against the full path from the search root.
	findPattern := filepath.Join(tmpDir, pattern)

	// Run: find <tmpDir> -type f -path '<findPattern>'
	//nolint:gosec // test parity check with find
	cmd := exec.CommandContext(t.Context(), "find", tmpDir, "-type", "f", "-path", findPattern)

	out, err := cmd.Output()
	if err != nil {
		// find returns exit code 0 even with no matches; an error means something went wrong.
		var exitErr *exec.ExitError
		if ok := errors.As(err, &exitErr); ok {
			t.Logf("find stderr: %s", exitErr.Stderr)
		}

		return false
	}

	return strings.TrimSpace(string(out)) != ""
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, pattern := range []string{`trailing\`, "[abc", "[!", "[[:digit:]", "[[:bogus:]]"} {
		if _, err := pathmatch.Compile(pattern); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", pattern)
		}

		if _, err := pathmatch.NewMatcher([]string{"*.go", pattern}); err == nil {
			t.Errorf("NewMatcher with %q succeeded, want error", pattern)
		}
	}
}

func TestMatcherMatchAny(t *testing.T) {
	t.Parallel()

	matcher, err := pathmatch.NewMatcher([]string{"*.go", "docs/*"})
	if err != nil {
		t.Fatal(err)
	}

	if matcher.Len() != 2 {
		t.Errorf("Len() = %d, want 2", matcher.Len())
	}

	for path, want := range map[string]bool{
		"cmd/main.go":   true,
		"docs/a/b.md":   true,
		"README.md":     false,
		"docs":          false,
		"internal/x.go": true,
	} {
		if got := matcher.MatchAny(path); got != want {
			t.Errorf("MatchAny(%q) = %v, want %v", path, got, want)
		}
	}

	empty, err := pathmatch.NewMatcher(nil)
	if err != nil {
		t.Fatal(err)
	}

	if empty.MatchAny("anything") {
		t.Error("empty matcher matched")
	}
}

func TestStarsCollapse(t *testing.T) {
	t.Parallel()

	p, err := pathmatch.Compile("a***b")
	if err != nil {
		t.Fatal(err)
	}

	if !p.Match("a/x/y/b") || p.Match("a/x/y/c") {
		t.Errorf("%s: unexpected result", p)
	}
}
