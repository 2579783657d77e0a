// Package bolt provides an hllop.RecordStore persisted in a bolt database.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/engine"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/kit/tracing"
	"github.com/influxdata/hllop/logger"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var recordsBucket = []byte("recordsv1")

var _ hllop.RecordStore = (*RecordStore)(nil)

// RecordStore is a hllop.RecordStore backed by a bolt database. Every batch
// runs in a single read-write transaction.
type RecordStore struct {
	Path string
	db   *bolt.DB
	log  *zap.Logger

	engine *engine.Engine
}

// NewRecordStore returns an instance of a RecordStore for the database at
// path, executing batches with e.
func NewRecordStore(log *zap.Logger, path string, e *engine.Engine) *RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordStore{
		Path:   path,
		log:    log,
		engine: e,
	}
}

// DB returns the stores DB.
func (s *RecordStore) DB() *bolt.DB {
	return s.db
}

// Open / create boltDB file.
func (s *RecordStore) Open(ctx context.Context) error {
	// Ensure the required directory structure exists.
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", s.Path, err)
	}

	if _, err := os.Stat(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	// Open database file.
	db, err := bolt.Open(s.Path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		// Hack to give a slightly nicer error message for a known failure mode when bolt calls
		// the flock syscall on a file that is already locked.
		if err == bolt.ErrTimeout {
			return fmt.Errorf("unable to open boltdb: timed out waiting for lock on %s", s.Path)
		}
		return fmt.Errorf("unable to open boltdb: %w", err)
	}
	s.db = db

	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	}); err != nil {
		return fmt.Errorf("unable to initialize boltdb: %w", err)
	}

	s.log.Info("Resources opened", zap.String("path", s.Path))
	return nil
}

// Close the connection to the bolt database
func (s *RecordStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Operate applies batch to the record stored under key.
func (s *RecordStore) Operate(ctx context.Context, key string, batch *hllop.Batch) (hllop.Record, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	var results hllop.Record
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)

		var rec hllop.Record
		if v := b.Get([]byte(key)); v != nil {
			var err error
			if rec, err = decodeRecord(v); err != nil {
				return err
			}
		}

		updated, res, err := s.engine.Apply(ctx, rec, batch)
		if err != nil {
			return err
		}
		v, err := encodeRecord(updated)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), v); err != nil {
			return internal(err)
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	logger.FromContextOr(ctx, s.log).Debug("Operated on record",
		zap.String("key", key),
		zap.Int("operations", batch.Len()),
		zap.Uint64("digest", batch.Digest()))
	return results, nil
}

// Get returns the record stored under key.
func (s *RecordStore) Get(ctx context.Context, key string) (hllop.Record, error) {
	var rec hllop.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get([]byte(key))
		if v == nil {
			return notFound(key)
		}
		var err error
		rec, err = decodeRecord(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record stored under key.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		if b.Get([]byte(key)) == nil {
			return notFound(key)
		}
		if err := b.Delete([]byte(key)); err != nil {
			return internal(err)
		}
		return nil
	})
}

// Keys returns the keys of all stored records in ascending order.
func (s *RecordStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, internal(err)
	}
	return keys, nil
}

func notFound(key string) error {
	return &errors.Error{
		Code: errors.ENotFound,
		Msg:  fmt.Sprintf("record %q not found", key),
	}
}

func internal(err error) error {
	return &errors.Error{Code: errors.EInternal, Err: err}
}
