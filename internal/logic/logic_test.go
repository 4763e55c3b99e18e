package logic_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/encryption"
	"github.com/idelchi/qtdfp/internal/logging"
	"github.com/idelchi/qtdfp/internal/logic"
	"github.com/idelchi/qtdfp/internal/service"
	"github.com/idelchi/qtdfp/internal/vault"
)

const password = "correcthorse"

type harness struct {
	env logic.Env
	svc *service.Service
	out *bytes.Buffer
	err *bytes.Buffer
}

// setup creates files in a fresh working directory and an in-memory vault.
func setup(t *testing.T, files map[string]string) *harness {
	t.Helper()

	t.Chdir(t.TempDir())

	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o750))
		require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
	}

	store, err := logic.OpenStore(t.Context(), &config.Config{Store: config.Store{InMemory: true}}, logging.Discard())
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	svc := service.New(store, nil, nil)
	h := &harness{svc: svc, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.env = logic.Env{Files: svc, Out: h.out, Err: h.err}

	return h
}

func baseConfig(args ...string) *config.Config {
	return &config.Config{Parallel: 4, Files: args}
}

func stored(t *testing.T, h *harness) map[string]vault.Record {
	t.Helper()

	records, err := h.svc.List(t.Context())
	require.NoError(t, err)

	byName := make(map[string]vault.Record, len(records))
	for _, rec := range records {
		byName[rec.Filename] = rec
	}

	return byName
}

func TestRunStoresFiles(t *testing.T) {
	h := setup(t, map[string]string{
		"docs/a.txt": "alpha",
		"docs/b.txt": "bravo",
		"empty.txt":  "",
	})

	cfg := baseConfig(".")
	cfg.Stats = true

	require.NoError(t, logic.Run(t.Context(), cfg, h.env, password))

	byName := stored(t, h)
	require.Len(t, byName, 2)
	assert.EqualValues(t, 5, byName["docs/a.txt"].OriginalSize)
	assert.Contains(t, h.out.String(), `Stored "docs/a.txt" -> "`+byName["docs/a.txt"].ID+`"`)
	assert.Contains(t, h.err.String(), "Processed: 2")
	assert.Contains(t, h.err.String(), "Empty:     1")

	_, err := os.Stat("docs/a.txt")
	require.NoError(t, err)
}

func TestRunDeleteAndDry(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha", "b.md": "bravo"})

	dry := baseConfig(".")
	dry.Dry = true

	require.NoError(t, logic.Run(t.Context(), dry, h.env, password))
	assert.Contains(t, h.out.String(), `Would store "a.txt"`)
	assert.Empty(t, stored(t, h))

	cfg := baseConfig(".")
	cfg.Include = []string{"*.txt"}
	cfg.Delete = true

	require.NoError(t, logic.Run(t.Context(), cfg, h.env, password))
	assert.Contains(t, stored(t, h), "a.txt")
	assert.NotContains(t, stored(t, h), "b.md")

	_, err := os.Stat("a.txt")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat("b.md")
	require.NoError(t, err)
}

func TestRunRejectsShortPassword(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha"})

	err := logic.Run(t.Context(), baseConfig("a.txt"), h.env, "short")
	require.ErrorIs(t, err, service.ErrInvalidPassword)
	assert.Contains(t, h.err.String(), `Error processing "a.txt"`)
}

func TestRunDecrypt(t *testing.T) {
	h := setup(t, map[string]string{
		"docs/a.txt":  "alpha",
		"other/a.txt": "second alpha",
		"b.bin":       "\x00\x01\x02",
	})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))
	require.NoError(t, os.Mkdir("restored", 0o750))

	cfg := baseConfig()
	cfg.Output = "restored"
	cfg.Stats = true

	require.NoError(t, logic.RunDecrypt(t.Context(), cfg, h.env, password))

	entries, err := os.ReadDir("restored")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	data, err := os.ReadFile(filepath.Join("restored", "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)

	info, err := os.Stat(filepath.Join("restored", "b.bin"))
	require.NoError(t, err)

	createdAt := stored(t, h)["b.bin"].CreatedAt
	assert.True(t, info.ModTime().Equal(createdAt), "mtime %s, stored %s", info.ModTime(), createdAt)

	var alphas []string

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "a") {
			content, err := os.ReadFile(filepath.Join("restored", e.Name()))
			require.NoError(t, err)

			alphas = append(alphas, string(content))
		}
	}

	assert.ElementsMatch(t, []string{"alpha", "second alpha"}, alphas)
	assert.Contains(t, h.err.String(), "Restored:  3")
}

func TestRunDecryptWrongPassword(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha"})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))

	rec := stored(t, h)["a.txt"]

	require.NoError(t, os.Mkdir("out", 0o750))

	cfg := baseConfig()
	cfg.IDs = []string{rec.ID}
	cfg.Output = "out"

	err := logic.RunDecrypt(t.Context(), cfg, h.env, "wrong-password")
	require.ErrorIs(t, err, service.ErrDecryptionFailed)

	entries, err := os.ReadDir("out")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunDecryptDelete(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha"})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))

	rec := stored(t, h)["a.txt"]
	require.NoError(t, os.Remove("a.txt"))

	cfg := baseConfig()
	cfg.IDs = []string{rec.ID, rec.ID}
	cfg.Delete = true

	require.NoError(t, logic.RunDecrypt(t.Context(), cfg, h.env, password))

	data, err := os.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
	assert.Empty(t, stored(t, h))
}

func TestRunDecryptCanonicalIDs(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha"})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))
	require.NoError(t, os.Mkdir("out", 0o750))

	id := stored(t, h)["a.txt"].ID

	cfg := baseConfig()
	cfg.IDs = []string{id, strings.ToUpper(id)}
	cfg.Output = "out"
	cfg.Stats = true

	require.NoError(t, logic.RunDecrypt(t.Context(), cfg, h.env, password))

	entries, err := os.ReadDir("out")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
	assert.Contains(t, h.err.String(), "Requested: 1")
}

func TestRunListAndDelete(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))

	byName := stored(t, h)

	h.out.Reset()
	require.NoError(t, logic.RunList(t.Context(), baseConfig(), h.env))
	assert.Contains(t, h.out.String(), "a.txt")
	assert.Contains(t, h.out.String(), byName["b.txt"].ID)

	quiet := baseConfig()
	quiet.Quiet = true

	h.out.Reset()
	require.NoError(t, logic.RunList(t.Context(), quiet, h.env))
	assert.ElementsMatch(t,
		[]string{byName["a.txt"].ID, byName["b.txt"].ID},
		strings.Fields(h.out.String()))

	del := baseConfig()
	del.IDs = []string{byName["a.txt"].ID, vault.NewID()}

	err := logic.RunDelete(t.Context(), del, h.env)
	require.ErrorIs(t, err, service.ErrNotFound)
	assert.NotContains(t, stored(t, h), "a.txt")
	assert.Contains(t, stored(t, h), "b.txt")

	require.Error(t, logic.RunDelete(t.Context(), baseConfig(), h.env))
}

func TestRunFingerprint(t *testing.T) {
	h := setup(t, map[string]string{"a.txt": "alpha"})

	require.NoError(t, logic.Run(t.Context(), baseConfig("."), h.env, password))

	rec := stored(t, h)["a.txt"]

	h.out.Reset()
	require.NoError(t, logic.RunFingerprint(t.Context(), baseConfig(), h.env, password))
	assert.Equal(t, encryption.Fingerprint(password)+"\n", h.out.String())

	cfg := baseConfig()
	cfg.IDs = []string{rec.ID}

	h.out.Reset()
	require.NoError(t, logic.RunFingerprint(t.Context(), cfg, h.env, password))
	assert.Contains(t, h.out.String(), "match "+rec.ID)

	err := logic.RunFingerprint(t.Context(), cfg, h.env, "another-password")
	require.ErrorIs(t, err, logic.ErrFingerprintMismatch)
}

func TestRunCheck(t *testing.T) {
	h := setup(t, map[string]string{"src/main.go": "package main", "README.md": "readme"})

	ok := baseConfig(".")
	ok.Include = []string{"*.go"}
	ok.Exclude = []string{"./README.md"}

	require.NoError(t, logic.RunCheck(ok, h.env))
	assert.Contains(t, h.err.String(), "include: *.go: 1 files")

	bad := baseConfig(".")
	bad.Include = []string{"*.go", "*.rs"}
	bad.Exclude = []string{"[unclosed"}

	err := logic.RunCheck(bad, h.env)
	require.ErrorIs(t, err, logic.ErrUnmatchedPatterns)
	assert.Contains(t, err.Error(), "2 pattern(s)")

	require.Error(t, logic.RunCheck(baseConfig("."), h.env))
}
