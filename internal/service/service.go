// Package service encrypts files into the vault and restores them.
// The HTTP API and the CLI both go through it.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/qtdfp/internal/encryption"
	"github.com/idelchi/qtdfp/internal/logging"
	"github.com/idelchi/qtdfp/internal/metrics"
	"github.com/idelchi/qtdfp/internal/vault"
)

const (
	// MinPasswordLength is counted in characters, not bytes.
	MinPasswordLength = 8

	// minStoredSize is the smallest blob a non-empty file seals to: the
	// length prefix and one byte.
	minStoredSize = encryption.HeaderSize + 1
)

// Operation names used for metrics and logs.
const (
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpList    = "list"
	OpDelete  = "delete"
)

// Store is the part of the vault the service needs.
type Store interface {
	Put(ctx context.Context, rec vault.Record, blob []byte) error
	Get(ctx context.Context, id string) (vault.Record, error)
	Blob(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]vault.Record, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// Service ties the engine to a store.
type Service struct {
	store   Store
	log     *logrus.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// New returns a Service. logger and reg may be nil.
func New(store Store, logger *logrus.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		store:   store,
		log:     logger,
		metrics: reg,
		now:     time.Now,
	}
}

// Encrypt seals data under password and stores it as filename.
func (s *Service) Encrypt(ctx context.Context, filename string, data []byte, password string) (vault.Record, error) {
	return s.EncryptReader(ctx, filename, bytes.NewReader(data), int64(len(data)), password)
}

// EncryptReader seals exactly size bytes read from r and stores them as filename.
func (s *Service) EncryptReader(
	ctx context.Context,
	filename string,
	r io.Reader,
	size int64,
	password string,
) (rec vault.Record, err error) {
	start := time.Now()

	defer func() { s.observe(OpEncrypt, start, int(size), err, logrus.Fields{"filename": filename, "id": rec.ID}) }()

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return vault.Record{}, ErrInvalidPassword
	}

	if size <= 0 {
		return vault.Record{}, ErrEmptyFile
	}

	if size > encryption.MaxPlaintextSize {
		return vault.Record{}, fmt.Errorf("encrypting %q: %w", filename, encryption.ErrInputTooLarge)
	}

	var blob bytes.Buffer

	blob.Grow(int(encryption.SealedSize(size)))

	sealed, err := encryption.EncryptStream(&blob, r, size, password)
	if err != nil {
		return vault.Record{}, fmt.Errorf("encrypting %q: %w", filename, err)
	}

	rec = vault.Record{
		ID:            vault.NewID(),
		Filename:      filename,
		Fingerprint:   sealed.Fingerprint,
		Checksum:      sealed.Checksum,
		OriginalSize:  size,
		EncryptedSize: int64(blob.Len()),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.store.Put(ctx, rec, blob.Bytes()); err != nil {
		return vault.Record{}, fmt.Errorf("storing %q: %w", filename, err)
	}

	s.refreshCount(ctx)

	return rec, nil
}

// Decrypt restores the file stored under id.
func (s *Service) Decrypt(ctx context.Context, id, password string) (vault.Record, []byte, error) {
	var plain bytes.Buffer

	rec, _, err := s.DecryptTo(ctx, &plain, id, password)
	if err != nil {
		return vault.Record{}, nil, err
	}

	return rec, plain.Bytes(), nil
}

// DecryptTo restores the file stored under id into w. Nothing is written
// unless the blob verifies.
func (s *Service) DecryptTo(ctx context.Context, w io.Writer, id, password string) (rec vault.Record, n int64, err error) {
	start := time.Now()

	defer func() { s.observe(OpDecrypt, start, int(n), err, logrus.Fields{"id": id}) }()

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return vault.Record{}, 0, ErrInvalidPassword
	}

	rec, err = s.store.Get(ctx, id)
	if err != nil {
		return vault.Record{}, 0, mapNotFound(err)
	}

	blob, err := s.store.Blob(ctx, rec.ID)
	if err != nil {
		return vault.Record{}, 0, mapNotFound(err)
	}

	if len(blob) < minStoredSize {
		return vault.Record{}, 0, ErrCorrupted
	}

	n, err = encryption.DecryptStream(w, bytes.NewReader(blob), password, rec.Fingerprint, rec.Checksum)

	switch {
	case errors.Is(err, encryption.ErrDecryptionFailed):
		return vault.Record{}, 0, ErrDecryptionFailed
	case err != nil:
		return vault.Record{}, n, fmt.Errorf("writing %s: %w", rec.ID, err)
	}

	return rec, n, nil
}

// List returns every stored record, newest first.
func (s *Service) List(ctx context.Context) (records []vault.Record, err error) {
	start := time.Now()

	defer func() { s.observe(OpList, start, 0, err, nil) }()

	records, err = s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	return records, nil
}

// Get returns the record stored under id.
func (s *Service) Get(ctx context.Context, id string) (vault.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return vault.Record{}, mapNotFound(err)
	}

	return rec, nil
}

// Delete removes the file stored under id.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()

	defer func() { s.observe(OpDelete, start, 0, err, logrus.Fields{"id": id}) }()

	if err := s.store.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}

	s.refreshCount(ctx)

	return nil
}

func (s *Service) refreshCount(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		s.log.WithError(err).Warn("counting stored files")

		return
	}

	s.metrics.SetStoredFiles(n)
}

func (s *Service) observe(op string, start time.Time, size int, err error, fields logrus.Fields) {
	elapsed := time.Since(start)

	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}

	s.metrics.RecordOperation(op, status, elapsed, size)

	entry := s.log.WithFields(fields).WithFields(logrus.Fields{
		"operation": op,
		"duration":  elapsed.Round(time.Microsecond),
	})

	switch {
	case err == nil:
		entry.WithField("bytes", size).Debug("completed")
	case isClientError(err):
		entry.WithError(err).Debug("rejected")
	default:
		entry.WithError(err).Error("failed")
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, vault.ErrNotFound) || errors.Is(err, vault.ErrInvalidID) {
		return ErrNotFound
	}

	return err
}

// isClientError reports whether err is caused by the caller's input.
func isClientError(err error) bool {
	for _, target := range []error{ErrInvalidPassword, ErrEmptyFile, ErrNotFound, ErrCorrupted, ErrDecryptionFailed} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
