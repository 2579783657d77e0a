// Package inmem provides an in memory hllop.RecordStore.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/engine"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/kit/tracing"
	"github.com/influxdata/hllop/logger"
	"go.uber.org/zap"
)

var _ hllop.RecordStore = (*RecordStore)(nil)

// RecordStore is an in memory btree backed hllop.RecordStore.
type RecordStore struct {
	log    *zap.Logger
	engine *engine.Engine

	mu      sync.RWMutex
	records *btree.BTree
}

// NewRecordStore creates an instance of a RecordStore executing batches
// with e.
func NewRecordStore(log *zap.Logger, e *engine.Engine) *RecordStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordStore{
		log:     log,
		engine:  e,
		records: btree.New(2),
	}
}

type item struct {
	key    string
	record hllop.Record
}

// Less is used to implement btree.Item.
func (i *item) Less(b btree.Item) bool {
	j, ok := b.(*item)
	if !ok {
		return false
	}
	return i.key < j.key
}

func (s *RecordStore) get(key string) (hllop.Record, error) {
	i := s.records.Get(&item{key: key})
	if i == nil {
		return nil, nil
	}
	j, ok := i.(*item)
	if !ok {
		return nil, &errors.Error{
			Code: errors.EInternal,
			Msg:  fmt.Sprintf("error item is type %T not *item", i),
		}
	}
	return j.record, nil
}

// Operate applies batch to the record stored under key.
func (s *RecordStore) Operate(ctx context.Context, key string, batch *hllop.Batch) (hllop.Record, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.get(key)
	if err != nil {
		return nil, tracing.LogError(span, err)
	}
	updated, results, err := s.engine.Apply(ctx, rec, batch)
	if err != nil {
		return nil, tracing.LogError(span, err)
	}
	_ = s.records.ReplaceOrInsert(&item{key: key, record: updated})

	logger.FromContextOr(ctx, s.log).Debug("Operated on record",
		zap.String("key", key),
		zap.Int("operations", batch.Len()),
		zap.Uint64("digest", batch.Digest()))
	return results, nil
}

// Get returns a copy of the record stored under key.
func (s *RecordStore) Get(ctx context.Context, key string) (hllop.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, notFound(key)
	}
	return rec.Copy(), nil
}

// Delete removes the record stored under key.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records.Delete(&item{key: key}) == nil {
		return notFound(key)
	}
	return nil
}

// Keys returns the keys of all stored records in ascending order.
func (s *RecordStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, s.records.Len())
	var err error
	s.records.Ascend(func(i btree.Item) bool {
		j, ok := i.(*item)
		if !ok {
			err = fmt.Errorf("error item is type %T not *item", i)
			return false
		}
		keys = append(keys, j.key)
		return true
	})
	if err != nil {
		return nil, &errors.Error{Code: errors.EInternal, Err: err}
	}
	return keys, nil
}

func notFound(key string) error {
	return &errors.Error{
		Code: errors.ENotFound,
		Msg:  fmt.Sprintf("record %q not found", key),
	}
}
