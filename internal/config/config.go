// Package config holds the runtime configuration shared by all commands.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Config is populated by viper from flags, QTDFP_* environment variables and
// an optional config file.
type Config struct {
	// Secrets
	Password     string `label:"--password"      mapstructure:"password"      mask:"filled" validate:"exclusive=PasswordFile"`
	PasswordFile string `label:"--password-file" mapstructure:"password-file" validate:"omitempty,file"`

	// Show prints the resolved configuration and exits.
	Show bool `mapstructure:"show"`

	// Processing
	Parallel int  `label:"--parallel" mapstructure:"parallel" validate:"gte=1"`
	Quiet    bool `mapstructure:"quiet"`
	Stats    bool `mapstructure:"stats"`
	Dry      bool `mapstructure:"dry"`
	Delete   bool `mapstructure:"delete"`

	// Output is the directory decrypted files are written to.
	Output string `label:"--output" mapstructure:"output"`

	// Include/exclude patterns
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	IncludeFrom string   `label:"--include-from" mapstructure:"include-from" validate:"omitempty,file"`
	ExcludeFrom string   `label:"--exclude-from" mapstructure:"exclude-from" validate:"omitempty,file"`

	Store  Store  `mapstructure:",squash"`
	Blobs  Blobs  `mapstructure:",squash"`
	Log    Log    `mapstructure:",squash"`
	Server Server `mapstructure:",squash" validate:"-"`

	// Positional arguments
	Files []string `mapstructure:"-"`
	IDs   []string `mapstructure:"-"`
}

// Store locates the metadata database.
type Store struct {
	Path     string `label:"--store"     mapstructure:"store"     validate:"required_without=InMemory"`
	InMemory bool   `label:"--in-memory" mapstructure:"in-memory"`
}

// Blobs selects where encrypted blobs live.
type Blobs struct {
	Backend     string `label:"--blob-backend"  mapstructure:"blob-backend"  validate:"oneof=badger s3"`
	S3Bucket    string `label:"--s3-bucket"     mapstructure:"s3-bucket"     validate:"required_if=Backend s3"`
	S3Prefix    string `label:"--s3-prefix"     mapstructure:"s3-prefix"`
	S3Region    string `label:"--s3-region"     mapstructure:"s3-region"     validate:"required_if=Backend s3"`
	S3Endpoint  string `label:"--s3-endpoint"   mapstructure:"s3-endpoint"   validate:"omitempty,url"`
	S3AccessKey string `label:"--s3-access-key" mapstructure:"s3-access-key" mask:"filled" validate:"required_with=S3SecretKey"`
	S3SecretKey string `label:"--s3-secret-key" mapstructure:"s3-secret-key" mask:"filled" validate:"required_with=S3AccessKey"`
	S3PathStyle bool   `label:"--s3-path-style" mapstructure:"s3-path-style"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `label:"--log-level"  mapstructure:"log-level"  validate:"oneof=trace debug info warn error"`
	Format string `label:"--log-format" mapstructure:"log-format" validate:"oneof=text json"`
}

// Server configures the HTTP API. It is only validated by the serve command.
type Server struct {
	Addr           string        `label:"--addr"            mapstructure:"addr"            validate:"required"`
	ReadTimeout    time.Duration `label:"--read-timeout"    mapstructure:"read-timeout"    validate:"gte=0"`
	WriteTimeout   time.Duration `label:"--write-timeout"   mapstructure:"write-timeout"   validate:"gte=0"`
	MaxUpload      string        `label:"--max-upload"      mapstructure:"max-upload"      validate:"required"`
	AllowedOrigins []string      `label:"--allowed-origins" mapstructure:"allowed-origins" validate:"dive,required"`

	// MaxUploadBytes is MaxUpload parsed by Validate.
	MaxUploadBytes int64 `mapstructure:"-" validate:"-"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Display reports whether the configuration should be printed instead of run.
func (c *Config) Display() bool {
	return c.Show
}

// Validate checks config, usually the Config itself, against its struct tags.
func (c *Config) Validate(config any) error {
	return validateStruct(config)
}

// Validate checks the server settings and resolves MaxUploadBytes.
func (s *Server) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}

	size, err := humanize.ParseBytes(s.MaxUpload)
	if err != nil {
		return fmt.Errorf("%w: --max-upload: %w", ErrInvalid, err)
	}

	if size == 0 || size > 1<<32 {
		return fmt.Errorf("%w: --max-upload must be between 1B and 4GiB, got %s", ErrInvalid, s.MaxUpload)
	}

	s.MaxUploadBytes = int64(size) //nolint:gosec // bounded above

	return nil
}

func validateStruct(s any) error {
	validate, err := newValidator()
	if err != nil {
		return err
	}

	errs := validate.Validate(s)
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, strings.TrimPrefix(err.Error(), "validation error: "))
	}

	// Translations come from a map, so the order is not stable.
	slices.Sort(msgs)

	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
