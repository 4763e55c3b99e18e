// Package vault persists encrypted blobs together with the metadata needed to
// open them. Metadata always lives in badger; blobs live in badger or S3.
package vault

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/qtdfp/internal/logging"
)

// BlobStore holds encrypted blobs keyed by record ID.
type BlobStore interface {
	Put(ctx context.Context, id string, blob []byte) error
	// Get returns ErrNotFound if no blob exists for id.
	Get(ctx context.Context, id string) ([]byte, error)
	// Delete is a no-op for unknown IDs.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Options configures Open.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Blobs overrides the blob backend. When nil, blobs are kept in the
	// metadata database. The store takes ownership and closes it.
	Blobs BlobStore

	Logger *logrus.Logger
}

// Store is a handle to an open vault. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	blobs  BlobStore
	log    *logrus.Entry
	closed atomic.Bool
}

// Open opens (or creates) the vault described by opts.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(logger.WithField("component", "badger")).
		WithLoggingLevel(badger.WARNING)

	if opts.InMemory {
		badgerOpts.Dir, badgerOpts.ValueDir = "", ""
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", opts.Path, err)
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs = &BadgerBlobs{db: db}
	}

	return &Store{
		db:    db,
		blobs: blobs,
		log:   logger.WithField("component", "vault"),
	}, nil
}

// Close releases the blob backend and the database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	return errors.Join(s.blobs.Close(), s.db.Close())
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return ctx.Err()
}

// Put stores blob and then its record. If the record cannot be written the blob
// is removed again, so a record never points at a missing blob.
func (s *Store) Put(ctx context.Context, rec Record, blob []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	id, err := ParseID(rec.ID)
	if err != nil {
		return err
	}

	rec.ID = id

	meta, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	if err := s.blobs.Put(ctx, id, blob); err != nil {
		return fmt.Errorf("storing blob %s: %w", id, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(id), meta)
	})
	if err != nil {
		if cleanupErr := s.blobs.Delete(context.WithoutCancel(ctx), id); cleanupErr != nil {
			s.log.WithError(cleanupErr).WithField("id", id).Warn("removing orphaned blob")
		}

		return fmt.Errorf("storing record %s: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{"id": id, "bytes": len(blob)}).Debug("stored")

	return nil
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if err := s.check(ctx); err != nil {
		return Record{}, err
	}

	id, err := ParseID(id)
	if err != nil {
		return Record{}, err
	}

	var rec Record

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case err != nil:
		return Record{}, fmt.Errorf("reading record %s: %w", id, err)
	}

	return rec, nil
}

// Blob returns the stored blob for id.
func (s *Store) Blob(ctx context.Context, id string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	blob, err := s.blobs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", id, err)
	}

	return blob, nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec Record

			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}

			records = append(records, rec)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	slices.SortFunc(records, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	var n int

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}

	return n, nil
}

// Delete removes the blob and the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	id, _ = ParseID(id)

	if err := s.blobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(metaKey(id))
	})
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	s.log.WithField("id", id).Debug("deleted")

	return nil
}

// BadgerBlobs keeps blobs in the metadata database under a separate prefix.
type BadgerBlobs struct {
	db *badger.DB
}

// Put implements BlobStore.
func (b *BadgerBlobs) Put(_ context.Context, id string, blob []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(id), bytes.Clone(blob))
	})
}

// Get implements BlobStore.
func (b *BadgerBlobs) Get(_ context.Context, id string) ([]byte, error) {
	var blob []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(id))
		if err != nil {
			return err
		}

		blob, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	return blob, err
}

// Delete implements BlobStore.
func (b *BadgerBlobs) Delete(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blobKey(id))
	})
}

// Close is a no-op; the database is closed by the Store.
func (b *BadgerBlobs) Close() error { return nil }
