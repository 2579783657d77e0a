// Package hllop describes HyperLogLog (HLL) operations on record bins and the
// ordered batches they are submitted in.
//
// A caller builds operations from loosely typed descriptors (see the operate
// package), appends them to a Batch, and hands the batch to a RecordStore,
// which executes every operation against a single record.
package hllop

import (
	"context"
)

// Descriptor keys understood by the operation builder.
const (
	BinKey           = "bin"
	PolicyKey        = "hll_policy"
	IndexBitCountKey = "index_bit_count"
	MHBitCountKey    = "mh_bit_count"
	ValuesKey        = "values"
	CtxKey           = "ctx"
)

// MaxBinNameLength is the longest bin name, in bytes, a record may carry.
const MaxBinNameLength = 15

// Descriptor is an untyped description of a single HLL operation, usually
// decoded from JSON or YAML or handed over by a foreign runtime.
type Descriptor map[string]interface{}

// Record is the set of bins of a single record, keyed by bin name.
type Record map[string]interface{}

// Copy returns a shallow copy of r.
func (r Record) Copy() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

//go:generate go run github.com/golang/mock/mockgen -package mock -destination mock/record_store.go github.com/influxdata/hllop RecordStore

// RecordStore executes batches against stored records.
type RecordStore interface {
	// Operate applies batch to the record stored under key, creating the
	// record when it does not exist. The returned record holds the result of
	// the last operation on each bin. A failing batch leaves the stored
	// record unchanged.
	Operate(ctx context.Context, key string, batch *Batch) (Record, error)

	// Get returns the record stored under key.
	Get(ctx context.Context, key string) (Record, error)

	// Delete removes the record stored under key.
	Delete(ctx context.Context, key string) error
}
