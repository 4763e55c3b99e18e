package logic

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/qtdfp/internal/config"
	"github.com/idelchi/qtdfp/internal/logging"
	"github.com/idelchi/qtdfp/internal/vault"
)

// OpenStore opens the vault described by cfg, with blobs in badger or S3.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*vault.Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	opts := vault.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
		Logger:   logger,
	}

	if cfg.Blobs.Backend == "s3" {
		blobs, err := vault.NewS3Blobs(ctx, vault.S3Options{
			Bucket:    cfg.Blobs.S3Bucket,
			Prefix:    cfg.Blobs.S3Prefix,
			Region:    cfg.Blobs.S3Region,
			Endpoint:  cfg.Blobs.S3Endpoint,
			PathStyle: cfg.Blobs.S3PathStyle,
			AccessKey: cfg.Blobs.S3AccessKey,
			SecretKey: cfg.Blobs.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring s3 blobs: %w", err)
		}

		opts.Blobs = blobs
	}

	store, err := vault.Open(opts)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"store":     cfg.Store.Path,
		"in_memory": cfg.Store.InMemory,
		"blobs":     cfg.Blobs.Backend,
	}).Debug("opened vault")

	return store, nil
}
