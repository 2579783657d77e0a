// Package engine executes batches of HLL operations against an in-memory
// record. It backs the record stores and gives the operation builder a local
// executor to be tested against.
package engine

import (
	"context"
	"fmt"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/kit/tracing"
	"github.com/influxdata/hllop/logger"
	"github.com/opentracing/opentracing-go/log"
	"go.uber.org/zap"
)

const opApply = "engine/Engine.Apply"

// Engine applies operations to records. It holds no state of its own and is
// safe for concurrent use.
type Engine struct {
	log     *zap.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records applied operations in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New returns an Engine logging to log.
func New(log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{log: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply runs every operation of batch, in order, against a copy of rec. It
// returns the updated record and, per bin, the result of the last operation
// on that bin that produced one. If any operation fails, Apply returns the
// error and rec is left untouched.
func (e *Engine) Apply(ctx context.Context, rec hllop.Record, batch *hllop.Batch) (hllop.Record, hllop.Record, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()
	span.LogFields(log.Int("operations", batch.Len()))
	lg := logger.FromContextOr(ctx, e.log)

	updated := rec.Copy()
	if updated == nil {
		updated = hllop.Record{}
	}
	results := hllop.Record{}

	for i, op := range batch.Operations() {
		if err := ctx.Err(); err != nil {
			return nil, nil, tracing.LogError(span, err)
		}

		res, ok, err := e.apply(updated, op)
		if e.metrics != nil {
			e.metrics.observe(op.OpCode(), err)
		}
		if err != nil {
			lg.Debug("Failed to apply hll operation",
				zap.Int("index", i),
				zap.Stringer("op", op.OpCode()),
				zap.String("bin", op.BinName()),
				zap.Error(err))
			return nil, nil, tracing.LogError(span, &errors.Error{
				Code: errors.ErrorCode(err),
				Op:   opApply,
				Msg:  fmt.Sprintf("operation %d (%s on bin %q)", i, op.OpCode(), op.BinName()),
				Err:  err,
			})
		}
		if ok {
			results[op.BinName()] = res
		}
	}
	return updated, results, nil
}

func (e *Engine) apply(rec hllop.Record, op hllop.Operation) (interface{}, bool, error) {
	if len(op.Path()) > 0 {
		return nil, false, &errors.Error{
			Code: errors.ENotImplemented,
			Msg:  fmt.Sprintf("nested context %s is not supported", op.Path()),
		}
	}

	switch o := op.(type) {
	case *hllop.InitOp:
		return nil, false, initBin(rec, o.Bin, o.Policy, o.IndexBitCount, 0)
	case *hllop.InitMHOp:
		return nil, false, initBin(rec, o.Bin, o.Policy, o.IndexBitCount, o.MinHashBitCount)
	case *hllop.AddOp:
		return addValues(rec, o.Bin, o.Policy, o.Values, o.IndexBitCount, 0)
	case *hllop.AddMHOp:
		return addValues(rec, o.Bin, o.Policy, o.Values, o.IndexBitCount, o.MinHashBitCount)
	case *hllop.GetCountOp:
		return readCount(rec, o.Bin)
	case *hllop.RefreshCountOp:
		return readCount(rec, o.Bin)
	case *hllop.DescribeOp:
		return describe(rec, o.Bin)
	case *hllop.FoldOp:
		return nil, false, fold(rec, o.Bin, o.IndexBitCount)
	case *hllop.GetUnionOp:
		u, err := union(rec, o.Bin, o.Values)
		if err != nil || u == nil {
			return nil, err == nil, err
		}
		return u.encode(), true, nil
	case *hllop.GetUnionCountOp:
		u, err := union(rec, o.Bin, o.Values)
		if err != nil || u == nil {
			return nil, err == nil, err
		}
		return u.count(), true, nil
	case *hllop.GetIntersectCountOp:
		return intersectCount(rec, o.Bin, o.Values)
	case *hllop.GetSimilarityOp:
		return similarity(rec, o.Bin, o.Values)
	case *hllop.SetUnionOp:
		return nil, false, setUnion(rec, o.Bin, o.Policy, o.Values)
	case *hllop.UpdateOp:
		return update(rec, o.Bin, o.Policy, o.Values)
	}
	return nil, false, &errors.Error{
		Code: errors.EUnknownOperation,
		Msg:  fmt.Sprintf("unknown operation %s", op.OpCode()),
	}
}

// load returns the sketch stored in bin, or nil when the bin is empty.
func load(rec hllop.Record, bin string) (*sketch, error) {
	v, ok := rec[bin]
	if !ok || v == nil {
		return nil, nil
	}
	return decodeSketch(v)
}

// checkWrite applies the policy's write flags. It reports whether the
// operation must be skipped.
func checkWrite(p *hllop.Policy, bin string, exists bool) (bool, error) {
	flags := hllop.HLLWriteDefault
	if p != nil {
		flags = p.Flags
	}

	var err error
	switch {
	case exists && flags.Has(hllop.HLLWriteCreateOnly):
		err = &errors.Error{Code: errors.EConflict, Msg: fmt.Sprintf("bin %q already exists", bin)}
	case !exists && flags.Has(hllop.HLLWriteUpdateOnly):
		err = &errors.Error{Code: errors.ENotFound, Msg: fmt.Sprintf("bin %q not found", bin)}
	}
	if err != nil && flags.Has(hllop.HLLWriteNoFail) {
		return true, nil
	}
	return false, err
}

func initBin(rec hllop.Record, bin string, p *hllop.Policy, indexBits, mhBits int) error {
	_, exists := rec[bin]
	skip, err := checkWrite(p, bin, exists)
	if err != nil || skip {
		return err
	}
	s, err := newSketch(indexBits, mhBits)
	if err != nil {
		return err
	}
	rec[bin] = s.encode()
	return nil
}

func addValues(rec hllop.Record, bin string, p *hllop.Policy, values []interface{}, indexBits, mhBits int) (interface{}, bool, error) {
	s, err := load(rec, bin)
	if err != nil {
		return nil, false, err
	}
	skip, err := checkWrite(p, bin, s != nil)
	if err != nil {
		return nil, false, err
	}
	if skip {
		return int64(0), true, nil
	}
	if s == nil {
		if s, err = newSketch(indexBits, mhBits); err != nil {
			return nil, false, err
		}
	}

	n, err := s.add(values)
	if err != nil {
		return nil, false, err
	}
	rec[bin] = s.encode()
	return n, true, nil
}

func update(rec hllop.Record, bin string, p *hllop.Policy, values []interface{}) (interface{}, bool, error) {
	s, err := load(rec, bin)
	if err != nil {
		return nil, false, err
	}
	flags := hllop.HLLWriteDefault
	if p != nil {
		flags = p.Flags
	}
	if s == nil {
		if flags.Has(hllop.HLLWriteNoFail) {
			return int64(0), true, nil
		}
		return nil, false, &errors.Error{Code: errors.ENotFound, Msg: fmt.Sprintf("bin %q not found", bin)}
	}
	if skip, err := checkWrite(p, bin, true); err != nil || skip {
		if skip {
			return int64(0), true, nil
		}
		return nil, false, err
	}

	n, err := s.add(values)
	if err != nil {
		return nil, false, err
	}
	rec[bin] = s.encode()
	return n, true, nil
}

func readCount(rec hllop.Record, bin string) (interface{}, bool, error) {
	s, err := load(rec, bin)
	if err != nil || s == nil {
		return nil, err == nil, err
	}
	return s.count(), true, nil
}

func describe(rec hllop.Record, bin string) (interface{}, bool, error) {
	s, err := load(rec, bin)
	if err != nil || s == nil {
		return nil, err == nil, err
	}
	return []interface{}{int64(s.indexBits), int64(s.mhBits)}, true, nil
}

func fold(rec hllop.Record, bin string, indexBits int) error {
	s, err := load(rec, bin)
	if err != nil {
		return err
	}
	switch {
	case s == nil:
		return &errors.Error{Code: errors.ENotFound, Msg: fmt.Sprintf("bin %q not found", bin)}
	case s.mhBits != 0:
		return &errors.Error{Code: errors.EInvalid, Msg: "cannot fold an hll with minhash bits"}
	case indexBits < MinIndexBits || indexBits > s.indexBits:
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("cannot fold hll with %d index bits to %d index bits", s.indexBits, indexBits),
		}
	case indexBits == s.indexBits:
		return nil
	}
	return &errors.Error{
		Code: errors.ENotImplemented,
		Msg:  "folding to fewer index bits is not supported by the local engine",
	}
}

func decodeAll(values []interface{}) ([]*sketch, error) {
	out := make([]*sketch, 0, len(values))
	for _, v := range values {
		s, err := decodeSketch(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// union merges the bin and the value sketches into a new sketch. It returns
// nil when there is nothing to merge.
func union(rec hllop.Record, bin string, values []interface{}) (*sketch, error) {
	s, err := load(rec, bin)
	if err != nil {
		return nil, err
	}
	others, err := decodeAll(values)
	if err != nil {
		return nil, err
	}
	if s != nil {
		others = append([]*sketch{s}, others...)
	}
	return mergeAll(others)
}

func mergeAll(sketches []*sketch) (*sketch, error) {
	if len(sketches) == 0 {
		return nil, nil
	}
	u, err := sketches[0].clone()
	if err != nil {
		return nil, err
	}
	for _, o := range sketches[1:] {
		if err := u.merge(o); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// maxIntersect is the largest number of value sketches an intersection or
// similarity may be computed against.
const maxIntersect = 2

// intersection estimates the size of the intersection of the bin and the
// value sketches with the inclusion-exclusion principle.
func intersection(rec hllop.Record, bin string, values []interface{}) (int64, []*sketch, error) {
	if len(values) == 0 || len(values) > maxIntersect {
		return 0, nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("intersection needs between 1 and %d hll values, got %d", maxIntersect, len(values)),
		}
	}
	s, err := load(rec, bin)
	if err != nil || s == nil {
		return 0, nil, err
	}
	others, err := decodeAll(values)
	if err != nil {
		return 0, nil, err
	}
	all := append([]*sketch{s}, others...)

	var total int64
	for mask := 1; mask < 1<<len(all); mask++ {
		var subset []*sketch
		for i := range all {
			if mask&(1<<i) != 0 {
				subset = append(subset, all[i])
			}
		}
		u, err := mergeAll(subset)
		if err != nil {
			return 0, nil, err
		}
		if len(subset)%2 == 1 {
			total += u.count()
		} else {
			total -= u.count()
		}
	}
	if total < 0 {
		total = 0
	}
	return total, all, nil
}

func intersectCount(rec hllop.Record, bin string, values []interface{}) (interface{}, bool, error) {
	n, all, err := intersection(rec, bin, values)
	if err != nil {
		return nil, false, err
	}
	if all == nil {
		return nil, true, nil
	}
	return n, true, nil
}

func similarity(rec hllop.Record, bin string, values []interface{}) (interface{}, bool, error) {
	n, all, err := intersection(rec, bin, values)
	if err != nil {
		return nil, false, err
	}
	if all == nil {
		return nil, true, nil
	}
	u, err := mergeAll(all)
	if err != nil {
		return nil, false, err
	}
	c := u.count()
	if c == 0 {
		return float64(0), true, nil
	}
	sim := float64(n) / float64(c)
	if sim > 1 {
		sim = 1
	}
	return sim, true, nil
}

func setUnion(rec hllop.Record, bin string, p *hllop.Policy, values []interface{}) error {
	s, err := load(rec, bin)
	if err != nil {
		return err
	}
	skip, err := checkWrite(p, bin, s != nil)
	if err != nil || skip {
		return err
	}

	others, err := decodeAll(values)
	if err != nil {
		return err
	}
	if s != nil {
		others = append([]*sketch{s}, others...)
	}
	if len(others) == 0 {
		return nil
	}
	if p != nil && p.Flags.Has(hllop.HLLWriteAllowFold) {
		for _, o := range others[1:] {
			if o.indexBits != others[0].indexBits {
				return &errors.Error{
					Code: errors.ENotImplemented,
					Msg:  "folding to fewer index bits is not supported by the local engine",
				}
			}
		}
	}
	u, err := mergeAll(others)
	if err != nil {
		return err
	}
	rec[bin] = u.encode()
	return nil
}
