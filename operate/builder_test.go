package operate_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/influxdata/hllop"
	platerrors "github.com/influxdata/hllop/kit/platform/errors"
	"github.com/influxdata/hllop/kit/prom"
	"github.com/influxdata/hllop/kit/prom/promtest"
	"github.com/influxdata/hllop/mock"
	"github.com/influxdata/hllop/operate"
	"github.com/influxdata/hllop/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var opCmpOptions = cmp.Options{
	cmpopts.EquateEmpty(),
}

func newTestBuilder(t *testing.T, opts ...operate.Option) *operate.Builder {
	return operate.NewBuilder(zaptest.NewLogger(t), opts...)
}

func policy(f hllop.WriteFlags) *hllop.Policy {
	return &hllop.Policy{Flags: f}
}

func target(bin string) hllop.Target {
	return hllop.Target{Bin: bin}
}

func TestBuilder_Build(t *testing.T) {
	values := []interface{}{"key1", "key2"}
	norm := []interface{}{"key1", "key2"}

	tests := []struct {
		name string
		code hllop.OpCode
		desc hllop.Descriptor
		want hllop.Operation
	}{
		{
			name: "add",
			code: hllop.OpHLLAdd,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 8, "values": values},
			want: &hllop.AddOp{Target: target("hll"), Values: norm, IndexBitCount: 8},
		},
		{
			name: "add with policy",
			code: hllop.OpHLLAdd,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 8, "values": values, "hll_policy": map[string]interface{}{"flags": 1}},
			want: &hllop.AddOp{Target: target("hll"), Policy: policy(hllop.HLLWriteCreateOnly), Values: norm, IndexBitCount: 8},
		},
		{
			name: "add mh",
			code: hllop.OpHLLAddMH,
			desc: hllop.Descriptor{"bin": "mh", "index_bit_count": 6, "mh_bit_count": 12, "values": values},
			want: &hllop.AddMHOp{Target: target("mh"), Values: norm, IndexBitCount: 6, MinHashBitCount: 12},
		},
		{
			name: "init",
			code: hllop.OpHLLInit,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 10},
			want: &hllop.InitOp{Target: target("hll"), IndexBitCount: 10},
		},
		{
			name: "init forwards policy",
			code: hllop.OpHLLInit,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 10, "hll_policy": map[string]interface{}{"flags": 2}},
			want: &hllop.InitOp{Target: target("hll"), Policy: policy(hllop.HLLWriteUpdateOnly), IndexBitCount: 10},
		},
		{
			name: "init mh",
			code: hllop.OpHLLInitMH,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 10, "mh_bit_count": 20, "hll_policy": map[string]interface{}{"flags": 4}},
			want: &hllop.InitMHOp{Target: target("hll"), Policy: policy(hllop.HLLWriteNoFail), IndexBitCount: 10, MinHashBitCount: 20},
		},
		{
			name: "get count",
			code: hllop.OpHLLGetCount,
			desc: hllop.Descriptor{"bin": "hll"},
			want: &hllop.GetCountOp{Target: target("hll")},
		},
		{
			name: "describe",
			code: hllop.OpHLLDescribe,
			desc: hllop.Descriptor{"bin": "hll"},
			want: &hllop.DescribeOp{Target: target("hll")},
		},
		{
			name: "fold",
			code: hllop.OpHLLFold,
			desc: hllop.Descriptor{"bin": "hll", "index_bit_count": 6},
			want: &hllop.FoldOp{Target: target("hll"), IndexBitCount: 6},
		},
		{
			name: "get intersect count",
			code: hllop.OpHLLGetIntersectCount,
			desc: hllop.Descriptor{"bin": "hll", "values": []interface{}{hllop.HLLValue{8, 0, 1}}},
			want: &hllop.GetIntersectCountOp{Target: target("hll"), Values: []interface{}{hllop.HLLValue{8, 0, 1}}},
		},
		{
			name: "get similarity",
			code: hllop.OpHLLGetSimilarity,
			desc: hllop.Descriptor{"bin": "hll", "values": []interface{}{hllop.HLLValue{8, 0, 1}}},
			want: &hllop.GetSimilarityOp{Target: target("hll"), Values: []interface{}{hllop.HLLValue{8, 0, 1}}},
		},
		{
			name: "get union",
			code: hllop.OpHLLGetUnion,
			desc: hllop.Descriptor{"bin": "hll", "values": []interface{}{hllop.HLLValue{8, 0, 1}}},
			want: &hllop.GetUnionOp{Target: target("hll"), Values: []interface{}{hllop.HLLValue{8, 0, 1}}},
		},
		{
			name: "get union count",
			code: hllop.OpHLLGetUnionCount,
			desc: hllop.Descriptor{"bin": "s", "values": []interface{}{1, 2, 3}},
			want: &hllop.GetUnionCountOp{Target: target("s"), Values: []interface{}{int64(1), int64(2), int64(3)}},
		},
		{
			name: "refresh count",
			code: hllop.OpHLLRefreshCount,
			desc: hllop.Descriptor{"bin": "hll"},
			want: &hllop.RefreshCountOp{Target: target("hll")},
		},
		{
			name: "set union forwards policy",
			code: hllop.OpHLLSetUnion,
			desc: hllop.Descriptor{"bin": "hll", "values": []interface{}{hllop.HLLValue{8, 0}}, "hll_policy": map[string]interface{}{"flags": 8}},
			want: &hllop.SetUnionOp{Target: target("hll"), Policy: policy(hllop.HLLWriteAllowFold), Values: []interface{}{hllop.HLLValue{8, 0}}},
		},
		{
			name: "update without policy",
			code: hllop.OpHLLUpdate,
			desc: hllop.Descriptor{"bin": "hll", "values": values},
			want: &hllop.UpdateOp{Target: target("hll"), Values: norm},
		},
		{
			name: "update with policy",
			code: hllop.OpHLLUpdate,
			desc: hllop.Descriptor{"bin": "hll", "values": values, "hll_policy": hllop.Policy{Flags: hllop.HLLWriteNoFail}},
			want: &hllop.UpdateOp{Target: target("hll"), Policy: policy(hllop.HLLWriteNoFail), Values: norm},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t)
			batch := hllop.NewBatch(1)

			require.NoError(t, b.Build(tt.desc, tt.code, batch))
			require.Equal(t, 1, batch.Len())

			got := batch.Operations()[0]
			assert.Equal(t, tt.code, got.OpCode())
			if diff := cmp.Diff(tt.want, got, opCmpOptions...); diff != "" {
				t.Errorf("unexpected operation -want/+got:\n%s", diff)
			}
		})
	}
}

func TestBuilder_Build_EveryCode(t *testing.T) {
	desc := hllop.Descriptor{
		"bin":             "hll",
		"index_bit_count": 8,
		"mh_bit_count":    4,
		"values":          []interface{}{"a"},
	}
	b := newTestBuilder(t)
	batch := hllop.NewBatch(0)
	for i, code := range hllop.OpCodes() {
		require.NoError(t, b.Build(desc, code, batch), code.String())
		require.Equal(t, i+1, batch.Len())
		assert.Equal(t, code, batch.Operations()[i].OpCode())
	}
	assert.Len(t, batch.Operations(), 14)
}

func TestBuilder_Build_Scenarios(t *testing.T) {
	t.Run("add without values or policy", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "s", "index_bit_count": 8}, hllop.OpHLLAdd, batch)
		require.NoError(t, err)
		require.Equal(t, 1, batch.Len())

		op, ok := batch.Operations()[0].(*hllop.AddOp)
		require.True(t, ok)
		assert.Equal(t, 8, op.IndexBitCount)
		assert.Nil(t, op.Policy)
		assert.Empty(t, op.Ctx)
		assert.Equal(t, "s", op.BinName())
	})

	t.Run("fold without index_bit_count", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "s"}, hllop.OpHLLFold, batch)
		require.Error(t, err)
		assert.Equal(t, platerrors.EInvalidParam, platerrors.ErrorCode(err))
		assert.Equal(t, 0, batch.Len())
	})

	t.Run("get union count references values", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "s", "values": []int{1, 2, 3}}, hllop.OpHLLGetUnionCount, batch)
		require.NoError(t, err)
		require.Equal(t, 1, batch.Len())
		assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, hllop.OperationValues(batch.Operations()[0]))
	})

	t.Run("unknown operation", func(t *testing.T) {
		for _, code := range []hllop.OpCode{0, hllop.OpHLLUpdate + 1, 99} {
			batch := hllop.NewBatch(1)
			err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "s", "index_bit_count": 8}, code, batch)
			require.Error(t, err, code.String())
			assert.Equal(t, platerrors.EUnknownOperation, platerrors.ErrorCode(err))
			assert.Equal(t, "operate/Builder.Build", platerrors.ErrorOp(err))
			assert.Equal(t, 0, batch.Len())
		}
	})
}

func TestBuilder_Build_RequiredInts(t *testing.T) {
	tests := []struct {
		name string
		code hllop.OpCode
		desc hllop.Descriptor
		msg  string
	}{
		{"add", hllop.OpHLLAdd, hllop.Descriptor{"bin": "b"}, "index_bit_count is required"},
		{"add mh missing index", hllop.OpHLLAddMH, hllop.Descriptor{"bin": "b", "mh_bit_count": 4}, "index_bit_count is required"},
		{"add mh missing mh", hllop.OpHLLAddMH, hllop.Descriptor{"bin": "b", "index_bit_count": 4}, "mh_bit_count is required"},
		{"init", hllop.OpHLLInit, hllop.Descriptor{"bin": "b"}, "index_bit_count is required"},
		{"init mh", hllop.OpHLLInitMH, hllop.Descriptor{"bin": "b", "index_bit_count": 4}, "mh_bit_count is required"},
		{"fold", hllop.OpHLLFold, hllop.Descriptor{"bin": "b", "index_bit_count": nil}, "index_bit_count is required"},
		{"string", hllop.OpHLLInit, hllop.Descriptor{"bin": "b", "index_bit_count": "8"}, "index_bit_count must be an integer, got string"},
		{"bool", hllop.OpHLLInit, hllop.Descriptor{"bin": "b", "index_bit_count": true}, "index_bit_count must be an integer, got bool"},
		{"fraction", hllop.OpHLLInit, hllop.Descriptor{"bin": "b", "index_bit_count": 8.5}, "index_bit_count must be an integer, got float64"},
		{"overflow", hllop.OpHLLInit, hllop.Descriptor{"bin": "b", "index_bit_count": uint64(1 << 63)}, "index_bit_count must be an integer, got uint64"},
		{"float overflow", hllop.OpHLLInit, hllop.Descriptor{"bin": "b", "index_bit_count": float64(1 << 63)}, "index_bit_count must be an integer, got float64"},
		{"float underflow", hllop.OpHLLFold, hllop.Descriptor{"bin": "b", "index_bit_count": -float64(1 << 64)}, "index_bit_count must be an integer, got float64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := hllop.NewBatch(1)
			err := newTestBuilder(t).Build(tt.desc, tt.code, batch)
			require.Error(t, err)
			assert.Equal(t, platerrors.EInvalidParam, platerrors.ErrorCode(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.Equal(t, 0, batch.Len())
		})
	}
}

func TestBuilder_Build_NumericForms(t *testing.T) {
	for _, v := range []interface{}{int8(8), int64(8), uint16(8), float64(8), json.Number("8")} {
		batch := hllop.NewBatch(1)
		require.NoError(t, newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "index_bit_count": v}, hllop.OpHLLInit, batch))
		assert.Equal(t, 8, batch.Operations()[0].(*hllop.InitOp).IndexBitCount)
	}
}

func TestBuilder_Build_Bin(t *testing.T) {
	tests := []struct {
		name string
		desc hllop.Descriptor
		msg  string
	}{
		{"missing", hllop.Descriptor{}, "bin is required"},
		{"not a string", hllop.Descriptor{"bin": 3}, "bin must be a string, got int"},
		{"empty", hllop.Descriptor{"bin": ""}, "bin must not be empty"},
		{"too long", hllop.Descriptor{"bin": "abcdefghijklmnop"}, `bin name "abcdefghijklmnop" exceeds 15 bytes`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := hllop.NewBatch(1)
			// The bin is checked before the code, so even unknown codes report it.
			err := newTestBuilder(t).Build(tt.desc, hllop.OpCode(0), batch)
			require.Error(t, err)
			assert.Equal(t, platerrors.EInvalidParam, platerrors.ErrorCode(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.Equal(t, 0, batch.Len())
		})
	}
}

func TestBuilder_Build_Policy(t *testing.T) {
	t.Run("absent policy is no override", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		require.NoError(t, newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "index_bit_count": 8, "hll_policy": nil}, hllop.OpHLLAdd, batch))
		assert.Nil(t, hllop.OperationPolicy(batch.Operations()[0]))
	})

	t.Run("empty policy is a default override", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		require.NoError(t, newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "index_bit_count": 8, "hll_policy": map[string]interface{}{}}, hllop.OpHLLAdd, batch))
		p := hllop.OperationPolicy(batch.Operations()[0])
		require.NotNil(t, p)
		assert.Equal(t, hllop.HLLWriteDefault, p.Flags)
	})

	for _, tt := range []struct {
		name   string
		policy interface{}
	}{
		{"not a map", 3},
		{"unknown key", map[string]interface{}{"flag": 1}},
		{"flags not an int", map[string]interface{}{"flags": "create_only"}},
		{"unknown flag", map[string]interface{}{"flags": 16}},
		{"conflicting flags", map[string]interface{}{"flags": 3}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			batch := hllop.NewBatch(1)
			err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "values": []interface{}{}, "hll_policy": tt.policy}, hllop.OpHLLUpdate, batch)
			require.Error(t, err)
			assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
			assert.Equal(t, 0, batch.Len())
		})
	}

	t.Run("ignored by read operations", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		require.NoError(t, newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "hll_policy": 3}, hllop.OpHLLGetCount, batch))
		assert.Nil(t, hllop.OperationPolicy(batch.Operations()[0]))
	})
}

func TestBuilder_Build_Values(t *testing.T) {
	type opaque struct{ A int }

	t.Run("unsupported value without serializer", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "index_bit_count": 8, "values": []interface{}{"a", opaque{A: 1}}}, hllop.OpHLLAdd, batch)
		require.Error(t, err)
		assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
		assert.Equal(t, "unsupported value type operate_test.opaque", err.Error())
		assert.Equal(t, 0, batch.Len())
	})

	t.Run("values must be a list", func(t *testing.T) {
		for _, v := range []interface{}{"abc", []byte("abc"), 7, map[string]interface{}{}} {
			batch := hllop.NewBatch(1)
			err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "values": v}, hllop.OpHLLGetUnion, batch)
			require.Error(t, err)
			assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
			assert.Equal(t, 0, batch.Len())
		}
	})

	t.Run("native kinds are normalized", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		desc := hllop.Descriptor{"bin": "b", "values": []interface{}{
			nil, true, int32(-4), uint32(5), float32(1.5), json.Number("12"), json.Number("0.5"),
			[]byte{1}, []interface{}{int16(2)}, map[string]interface{}{"k": uint8(3)},
		}}
		require.NoError(t, newTestBuilder(t).Build(desc, hllop.OpHLLGetUnion, batch))
		assert.Equal(t, []interface{}{
			nil, true, int64(-4), int64(5), float64(1.5), int64(12), float64(0.5),
			[]byte{1}, []interface{}{int64(2)}, map[string]interface{}{"k": int64(3)},
		}, hllop.OperationValues(batch.Operations()[0]))
	})

	t.Run("unsigned overflow", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		err := newTestBuilder(t).Build(hllop.Descriptor{"bin": "b", "values": []interface{}{uint64(1 << 63)}}, hllop.OpHLLGetUnion, batch)
		require.Error(t, err)
		assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
		assert.Equal(t, 0, batch.Len())
	})

	t.Run("msgpack serializer", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithSerializer(serializer.MsgPack{}))
		require.NoError(t, b.Build(hllop.Descriptor{"bin": "b", "values": []interface{}{[]string{"x"}}}, hllop.OpHLLUpdate, batch))
		// []string is a list for the value list itself, but nested it is opaque.
		vals := hllop.OperationValues(batch.Operations()[0])
		require.Len(t, vals, 1)
		blob, ok := vals[0].(hllop.Blob)
		require.True(t, ok)
		assert.Equal(t, hllop.BlobMsgPack, blob.Type)
	})

	t.Run("serializer failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ser := mock.NewMockValueSerializer(ctrl)
		ser.EXPECT().Serialize(opaque{A: 1}).Return(hllop.Blob{}, errors.New("boom"))

		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithSerializer(ser))
		err := b.Build(hllop.Descriptor{"bin": "b", "values": []interface{}{opaque{A: 1}}}, hllop.OpHLLSetUnion, batch)
		require.Error(t, err)
		assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
		assert.Equal(t, "unable to serialize value of type operate_test.opaque: boom", err.Error())
		assert.Equal(t, 0, batch.Len())
	})

	t.Run("serializer success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ser := mock.NewMockValueSerializer(ctrl)
		blob := hllop.Blob{Type: hllop.BlobUser, Data: []byte("A=1")}
		ser.EXPECT().Serialize(opaque{A: 1}).Return(blob, nil)

		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithSerializer(ser))
		require.NoError(t, b.Build(hllop.Descriptor{"bin": "b", "values": []interface{}{opaque{A: 1}}}, hllop.OpHLLSetUnion, batch))
		assert.Equal(t, []interface{}{blob}, hllop.OperationValues(batch.Operations()[0]))
	})
}

func TestBuilder_Build_Ctx(t *testing.T) {
	pool := hllop.NewCtxPool()

	t.Run("forwarded", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithCtxPool(pool))
		desc := hllop.Descriptor{
			"bin": "nested",
			"ctx": []interface{}{
				map[string]interface{}{"id": int(hllop.CtxMapKey), "value": "sketches"},
				map[string]interface{}{"id": int(hllop.CtxListIndex), "value": -1},
			},
		}
		require.NoError(t, b.Build(desc, hllop.OpHLLGetCount, batch))
		assert.Equal(t, hllop.Ctx{
			{Type: hllop.CtxMapKey, Value: "sketches"},
			{Type: hllop.CtxListIndex, Value: int64(-1)},
		}, batch.Operations()[0].Path())
		assert.Equal(t, "map_key(sketches).list_index(-1)", batch.Operations()[0].Path().String())
		assert.Equal(t, int64(0), pool.Outstanding())
	})

	t.Run("typed ctx", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithCtxPool(pool))
		c := hllop.Ctx{{Type: hllop.CtxListRank, Value: int64(0)}}
		require.NoError(t, b.Build(hllop.Descriptor{"bin": "b", "ctx": c}, hllop.OpHLLDescribe, batch))
		assert.Equal(t, c, batch.Operations()[0].Path())
		assert.Equal(t, int64(0), pool.Outstanding())
	})

	for _, tt := range []struct {
		name string
		ctx  interface{}
	}{
		{"not a list", "map_key"},
		{"item not a map", []interface{}{1}},
		{"missing id", []interface{}{map[string]interface{}{"value": 1}}},
		{"unknown id", []interface{}{map[string]interface{}{"id": 0x99, "value": 1}}},
		{"positional without int", []interface{}{map[string]interface{}{"id": int(hllop.CtxListIndex), "value": "x"}}},
		{"positional without value", []interface{}{map[string]interface{}{"id": int(hllop.CtxMapRank)}}},
		{"unserializable value", []interface{}{map[string]interface{}{"id": int(hllop.CtxMapKey), "value": struct{}{}}}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			batch := hllop.NewBatch(1)
			b := newTestBuilder(t, operate.WithCtxPool(pool))
			err := b.Build(hllop.Descriptor{"bin": "b", "ctx": tt.ctx}, hllop.OpHLLRefreshCount, batch)
			require.Error(t, err)
			assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
			assert.Equal(t, 0, batch.Len())
			assert.Equal(t, int64(0), pool.Outstanding())
		})
	}

	t.Run("released when a later field fails", func(t *testing.T) {
		batch := hllop.NewBatch(1)
		b := newTestBuilder(t, operate.WithCtxPool(pool))
		desc := hllop.Descriptor{
			"bin":    "b",
			"ctx":    []interface{}{map[string]interface{}{"id": int(hllop.CtxMapKey), "value": "k"}},
			"values": 42,
		}
		err := b.Build(desc, hllop.OpHLLUpdate, batch)
		require.Error(t, err)
		assert.Equal(t, platerrors.EParam, platerrors.ErrorCode(err))
		assert.Equal(t, int64(0), pool.Outstanding())
	})
}

func TestBuilder_Metrics(t *testing.T) {
	reg := prom.NewRegistry(zaptest.NewLogger(t))
	m := operate.NewBuilderMetrics()
	reg.MustRegister(m)

	b := newTestBuilder(t, operate.WithMetrics(m))
	batch := hllop.NewBatch(2)
	require.NoError(t, b.Build(hllop.Descriptor{"bin": "b"}, hllop.OpHLLGetCount, batch))
	require.NoError(t, b.Build(hllop.Descriptor{"bin": "b"}, hllop.OpHLLGetCount, batch))
	require.Error(t, b.Build(hllop.Descriptor{"bin": "b"}, hllop.OpHLLFold, batch))

	assert.Equal(t, float64(2), promtest.MustCounterValue(t, reg, "hllop_builder_operations_total", map[string]string{"op": "hll_get_count"}))
	assert.Equal(t, float64(1), promtest.MustCounterValue(t, reg, "hllop_builder_errors_total", map[string]string{"op": "hll_fold", "code": platerrors.EInvalidParam}))
}
