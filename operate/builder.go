// Package operate builds typed HLL operations from untyped descriptors.
package operate

import (
	"fmt"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/serializer"
	"go.uber.org/zap"
)

const opBuild = "operate/Builder.Build"

// field is the set of descriptor fields an operation code consumes, beyond
// the bin and the optional context path every code accepts.
type field uint8

const (
	fieldIndexBits field = 1 << iota
	fieldMHBits
	fieldPolicy
	fieldValues
)

// schema describes how a descriptor becomes an operation for one code.
type schema struct {
	fields field
	build  func(req request) hllop.Operation
}

var schemas = map[hllop.OpCode]schema{
	hllop.OpHLLAdd: {fieldIndexBits | fieldPolicy | fieldValues, func(r request) hllop.Operation {
		return &hllop.AddOp{Target: r.target, Policy: r.policy, Values: r.values, IndexBitCount: r.indexBits}
	}},
	hllop.OpHLLAddMH: {fieldIndexBits | fieldMHBits | fieldPolicy | fieldValues, func(r request) hllop.Operation {
		return &hllop.AddMHOp{Target: r.target, Policy: r.policy, Values: r.values, IndexBitCount: r.indexBits, MinHashBitCount: r.mhBits}
	}},
	hllop.OpHLLInit: {fieldIndexBits | fieldPolicy, func(r request) hllop.Operation {
		return &hllop.InitOp{Target: r.target, Policy: r.policy, IndexBitCount: r.indexBits}
	}},
	hllop.OpHLLInitMH: {fieldIndexBits | fieldMHBits | fieldPolicy, func(r request) hllop.Operation {
		return &hllop.InitMHOp{Target: r.target, Policy: r.policy, IndexBitCount: r.indexBits, MinHashBitCount: r.mhBits}
	}},
	hllop.OpHLLGetCount: {0, func(r request) hllop.Operation {
		return &hllop.GetCountOp{Target: r.target}
	}},
	hllop.OpHLLDescribe: {0, func(r request) hllop.Operation {
		return &hllop.DescribeOp{Target: r.target}
	}},
	hllop.OpHLLFold: {fieldIndexBits, func(r request) hllop.Operation {
		return &hllop.FoldOp{Target: r.target, IndexBitCount: r.indexBits}
	}},
	hllop.OpHLLGetIntersectCount: {fieldValues, func(r request) hllop.Operation {
		return &hllop.GetIntersectCountOp{Target: r.target, Values: r.values}
	}},
	hllop.OpHLLGetSimilarity: {fieldValues, func(r request) hllop.Operation {
		return &hllop.GetSimilarityOp{Target: r.target, Values: r.values}
	}},
	hllop.OpHLLGetUnion: {fieldValues, func(r request) hllop.Operation {
		return &hllop.GetUnionOp{Target: r.target, Values: r.values}
	}},
	hllop.OpHLLGetUnionCount: {fieldValues, func(r request) hllop.Operation {
		return &hllop.GetUnionCountOp{Target: r.target, Values: r.values}
	}},
	hllop.OpHLLRefreshCount: {0, func(r request) hllop.Operation {
		return &hllop.RefreshCountOp{Target: r.target}
	}},
	hllop.OpHLLSetUnion: {fieldPolicy | fieldValues, func(r request) hllop.Operation {
		return &hllop.SetUnionOp{Target: r.target, Policy: r.policy, Values: r.values}
	}},
	hllop.OpHLLUpdate: {fieldPolicy | fieldValues, func(r request) hllop.Operation {
		return &hllop.UpdateOp{Target: r.target, Policy: r.policy, Values: r.values}
	}},
}

// request holds every field extracted from a descriptor.
type request struct {
	target    hllop.Target
	policy    *hllop.Policy
	values    []interface{}
	indexBits int
	mhBits    int
}

// Builder turns descriptors into typed operations. A Builder is safe for
// concurrent use; the batches it appends to are not.
type Builder struct {
	log        *zap.Logger
	serializer hllop.ValueSerializer
	pool       *hllop.CtxPool
	metrics    *BuilderMetrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithSerializer sets the serializer used for values without a native
// representation. The default rejects them.
func WithSerializer(s hllop.ValueSerializer) Option {
	return func(b *Builder) {
		b.serializer = s
	}
}

// WithCtxPool shares a context path pool between builders.
func WithCtxPool(p *hllop.CtxPool) Option {
	return func(b *Builder) {
		b.pool = p
	}
}

// WithMetrics records built operations and failures in m.
func WithMetrics(m *BuilderMetrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder returns a Builder logging to log.
func NewBuilder(log *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		log:        log,
		serializer: serializer.None{},
		pool:       hllop.NewCtxPool(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

// Build validates desc for code and appends the resulting operation to
// batch. On failure nothing is appended and the first error encountered is
// returned.
func (b *Builder) Build(desc hllop.Descriptor, code hllop.OpCode, batch *hllop.Batch) error {
	op, err := b.build(desc, code)
	if b.metrics != nil {
		b.metrics.observe(code, err)
	}
	if err != nil {
		b.log.Debug("Rejected hll operation",
			zap.Stringer("op", code),
			zap.String("code", errors.ErrorCode(err)),
			zap.Error(err))
		return err
	}

	batch.Append(op)
	b.log.Debug("Appended hll operation",
		zap.Stringer("op", code),
		zap.String("bin", op.BinName()),
		zap.Int("batch_len", batch.Len()))
	return nil
}

func (b *Builder) build(desc hllop.Descriptor, code hllop.OpCode) (hllop.Operation, error) {
	bin, err := getBin(desc)
	if err != nil {
		return nil, err
	}

	sc, ok := schemas[code]
	if !ok {
		return nil, &errors.Error{
			Code: errors.EUnknownOperation,
			Op:   opBuild,
			Msg:  fmt.Sprintf("unknown operation %s", code),
		}
	}

	req, err := b.parse(desc, bin, sc.fields)
	if err != nil {
		return nil, err
	}
	return sc.build(req), nil
}

// parse extracts fields from desc in a fixed order, stopping at the first
// failure.
func (b *Builder) parse(desc hllop.Descriptor, bin string, fields field) (request, error) {
	req := request{target: hllop.Target{Bin: bin}}

	var err error
	if fields&fieldIndexBits != 0 {
		if req.indexBits, err = getInt(desc, hllop.IndexBitCountKey); err != nil {
			return request{}, err
		}
	}
	if fields&fieldMHBits != 0 {
		if req.mhBits, err = getInt(desc, hllop.MHBitCountKey); err != nil {
			return request{}, err
		}
	}
	if fields&fieldPolicy != 0 {
		if req.policy, err = getPolicy(desc); err != nil {
			return request{}, err
		}
	}

	scratch, err := b.getCtx(desc)
	if err != nil {
		return request{}, err
	}
	defer scratch.Release()

	if fields&fieldValues != 0 {
		if req.values, err = b.getValues(desc); err != nil {
			return request{}, err
		}
	}

	req.target.Ctx = scratch.Ctx()
	return req, nil
}
