package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idelchi/qtdfp/internal/config"
)

func valid() config.Config {
	return config.Config{
		Parallel: 2,
		Store:    config.Store{InMemory: true},
		Blobs:    config.Blobs{Backend: "badger"},
		Log:      config.Log{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"exclusive password", func(c *config.Config) {
			c.Password = "password1"
			c.PasswordFile = "config_test.go"
		}, "--password is mutually exclusive"},
		{"missing store", func(c *config.Config) { c.Store.InMemory = false }, "--store"},
		{"bad backend", func(c *config.Config) { c.Blobs.Backend = "gridfs" }, "--blob-backend must be one of"},
		{"s3 without bucket", func(c *config.Config) {
			c.Blobs.Backend = "s3"
			c.Blobs.S3Region = "eu-central-1"
		}, "--s3-bucket"},
		{"half credentials", func(c *config.Config) { c.Blobs.S3AccessKey = "AKIA" }, "--s3-secret-key"},
		{"bad log level", func(c *config.Config) { c.Log.Level = "loud" }, "--log-level must be one of"},
		{"no workers", func(c *config.Config) { c.Parallel = 0 }, "--parallel"},
		{"missing password file", func(c *config.Config) { c.PasswordFile = "does-not-exist" }, "--password-file"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate(&cfg)

			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}

				return
			}

			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("Validate() = %v, want %v", err, config.ErrInvalid)
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	cfg := valid()
	if cfg.Display() {
		t.Fatal("Display() = true without --show")
	}

	cfg.Show = true
	if !cfg.Display() {
		t.Fatal("Display() = false with --show")
	}
}

func TestServerValidate(t *testing.T) {
	t.Parallel()

	srv := config.Server{Addr: ":8000", MaxUpload: "32MiB"}
	if err := srv.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if srv.MaxUploadBytes != 32<<20 {
		t.Fatalf("MaxUploadBytes = %d, want %d", srv.MaxUploadBytes, 32<<20)
	}

	for _, bad := range []string{"lots", "0B", "5GiB"} {
		srv := config.Server{Addr: ":8000", MaxUpload: bad}
		if err := srv.Validate(); !errors.Is(err, config.ErrInvalid) {
			t.Errorf("Validate(max-upload=%q) = %v, want %v", bad, err, config.ErrInvalid)
		}
	}
}

func TestResolvePassword(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(file, []byte("from-the-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	prompt := func(string) (string, error) { return "from-the-prompt", nil }

	tests := []struct {
		name   string
		cfg    config.Config
		prompt config.Prompter
		want   string
	}{
		{"flag wins", config.Config{Password: "from-the-flag", PasswordFile: file}, prompt, "from-the-flag"},
		{"file", config.Config{PasswordFile: file}, prompt, "from-the-file"},
		{"prompt", config.Config{}, prompt, "from-the-prompt"},
	}

	for _, tc := range tests {
		got, err := tc.cfg.ResolvePassword(tc.prompt)
		if err != nil {
			t.Fatalf("%s: ResolvePassword() error: %v", tc.name, err)
		}

		if got != tc.want {
			t.Errorf("%s: ResolvePassword() = %q, want %q", tc.name, got, tc.want)
		}
	}

	var empty config.Config
	if _, err := empty.ResolvePassword(nil); !errors.Is(err, config.ErrNoPassword) {
		t.Fatalf("ResolvePassword(nil) = %v, want %v", err, config.ErrNoPassword)
	}
}
