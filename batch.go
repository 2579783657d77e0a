package hllop

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Batch is an ordered list of operations submitted together against a
// single record. A Batch is not safe for concurrent use.
type Batch struct {
	ops []Operation
}

// NewBatch returns an empty batch with room for n operations.
func NewBatch(n int) *Batch {
	return &Batch{ops: make([]Operation, 0, n)}
}

// Append adds op to the end of the batch.
func (b *Batch) Append(op Operation) {
	b.ops = append(b.ops, op)
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.ops)
}

// Operations returns the operations in submission order. The slice must not
// be modified.
func (b *Batch) Operations() []Operation {
	if b == nil {
		return nil
	}
	return b.ops
}

// Digest returns a fingerprint of the batch contents. Two batches holding
// equal operations in the same order have equal digests.
func (b *Batch) Digest() uint64 {
	d := xxhash.New()
	for _, op := range b.Operations() {
		fmt.Fprintf(d, "%s|%s|%s|", op.OpCode(), op.BinName(), op.Path())
		if p := OperationPolicy(op); p != nil {
			fmt.Fprintf(d, "%d", int(p.Flags))
		}
		index, mh := OperationBitCounts(op)
		fmt.Fprintf(d, "|%v|%d|%d\n", OperationValues(op), index, mh)
	}
	return d.Sum64()
}
