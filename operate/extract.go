package operate

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/mitchellh/mapstructure"
)

func invalidParam(format string, args ...interface{}) error {
	return &errors.Error{
		Code: errors.EInvalidParam,
		Op:   opBuild,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func paramError(err error, format string, args ...interface{}) error {
	return &errors.Error{
		Code: errors.EParam,
		Op:   opBuild,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

func getBin(desc hllop.Descriptor) (string, error) {
	v, ok := desc[hllop.BinKey]
	if !ok || v == nil {
		return "", invalidParam("%s is required", hllop.BinKey)
	}
	bin, ok := v.(string)
	if !ok {
		return "", invalidParam("%s must be a string, got %T", hllop.BinKey, v)
	}
	if bin == "" {
		return "", invalidParam("%s must not be empty", hllop.BinKey)
	}
	if len(bin) > hllop.MaxBinNameLength {
		return "", invalidParam("bin name %q exceeds %d bytes", bin, hllop.MaxBinNameLength)
	}
	return bin, nil
}

func getInt(desc hllop.Descriptor, key string) (int, error) {
	v, ok := desc[key]
	if !ok || v == nil {
		return 0, invalidParam("%s is required", key)
	}
	n, err := decodeInt(v)
	if err != nil {
		return 0, invalidParam("%s must be an integer, got %T", key, v)
	}
	return n, nil
}

// integralHook rejects numbers mapstructure would otherwise truncate or wrap
// when decoding into an int.
func integralHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) || f >= -float64(math.MinInt) || f < float64(math.MinInt) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if reflect.ValueOf(data).Uint() > math.MaxInt {
			return nil, fmt.Errorf("%v overflows int", data)
		}
	}
	return data, nil
}

func decodeInt(v interface{}) (int, error) {
	var n int
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: integralHook,
		Result:     &n,
	})
	if err != nil {
		return 0, err
	}
	if err := dec.Decode(v); err != nil {
		return 0, err
	}
	return n, nil
}

// policyDesc is the descriptor form of an hllop.Policy.
type policyDesc struct {
	Flags *int `mapstructure:"flags"`
}

func getPolicy(desc hllop.Descriptor) (*hllop.Policy, error) {
	v, ok := desc[hllop.PolicyKey]
	if !ok || v == nil {
		return nil, nil
	}

	var p hllop.Policy
	switch x := v.(type) {
	case *hllop.Policy:
		if x == nil {
			return nil, nil
		}
		p = *x
	case hllop.Policy:
		p = x
	default:
		var pd policyDesc
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:  integralHook,
			ErrorUnused: true,
			Result:      &pd,
		})
		if err != nil {
			return nil, paramError(err, "invalid %s", hllop.PolicyKey)
		}
		if err := dec.Decode(v); err != nil {
			return nil, paramError(err, "invalid %s", hllop.PolicyKey)
		}
		if pd.Flags != nil {
			p.Flags = hllop.WriteFlags(*pd.Flags)
		}
	}

	if err := p.Flags.Validate(); err != nil {
		return nil, paramError(err, "invalid %s", hllop.PolicyKey)
	}
	return &p, nil
}

// getCtx parses the optional context path into scratch space drawn from
// pool. It returns nil when the descriptor carries no path. On success the
// caller owns the returned path and must release it.
func (b *Builder) getCtx(desc hllop.Descriptor) (*hllop.ScratchCtx, error) {
	v, ok := desc[hllop.CtxKey]
	if !ok || v == nil {
		return nil, nil
	}

	scratch := b.pool.Get()
	if err := b.parseCtx(v, scratch); err != nil {
		scratch.Release()
		return nil, err
	}
	return scratch, nil
}

func (b *Builder) parseCtx(v interface{}, scratch *hllop.ScratchCtx) error {
	if c, ok := v.(hllop.Ctx); ok {
		for _, it := range c {
			if !it.Type.Valid() {
				return paramError(nil, "invalid %s: unknown context type %s", hllop.CtxKey, it.Type)
			}
			scratch.Append(it)
		}
		return nil
	}

	items, err := asList(v)
	if err != nil {
		return paramError(err, "invalid %s", hllop.CtxKey)
	}
	for i, raw := range items {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return paramError(nil, "invalid %s: item %d must be a map, got %T", hllop.CtxKey, i, raw)
		}
		id, ok := m["id"]
		if !ok {
			return paramError(nil, "invalid %s: item %d has no id", hllop.CtxKey, i)
		}
		n, err := decodeInt(id)
		if err != nil {
			return paramError(err, "invalid %s: item %d id must be an integer", hllop.CtxKey, i)
		}
		typ := hllop.CtxType(n)
		if !typ.Valid() {
			return paramError(nil, "invalid %s: item %d has unknown context type %s", hllop.CtxKey, i, typ)
		}

		var value interface{}
		if typ.Positional() {
			if m["value"] == nil {
				return paramError(nil, "invalid %s: item %d value must be an integer for %s", hllop.CtxKey, i, typ)
			}
			pos, err := decodeInt(m["value"])
			if err != nil {
				return paramError(err, "invalid %s: item %d value must be an integer for %s", hllop.CtxKey, i, typ)
			}
			value = int64(pos)
		} else {
			value, err = b.normalize(m["value"])
			if err != nil {
				return err
			}
		}
		scratch.Append(hllop.CtxItem{Type: typ, Value: value})
	}
	return nil
}

// getValues returns the normalized value list. A missing list is empty.
func (b *Builder) getValues(desc hllop.Descriptor) ([]interface{}, error) {
	v, ok := desc[hllop.ValuesKey]
	if !ok || v == nil {
		return nil, nil
	}
	items, err := asList(v)
	if err != nil {
		return nil, paramError(err, "invalid %s", hllop.ValuesKey)
	}
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		nv, err := b.normalize(it)
		if err != nil {
			return nil, err
		}
		out = append(out, nv)
	}
	return out, nil
}

// asList converts any slice or array, other than a byte slice, into a list.
func asList(v interface{}) ([]interface{}, error) {
	if l, ok := v.([]interface{}); ok {
		return l, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list, got %T", v)
}

// normalize maps v onto the value kinds a batch carries natively and hands
// everything else to the serializer.
func (b *Builder) normalize(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil, string, bool, []byte, hllop.HLLValue, hllop.Blob:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		return normalizeUint(uint64(x))
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, paramError(err, "invalid number %q", string(x))
		}
		return f, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, it := range x {
			nv, err := b.normalize(it)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, it := range x {
			nv, err := b.normalize(it)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	}

	blob, err := b.serializer.Serialize(v)
	if err != nil {
		if errors.ErrorCode(err) == errors.EParam {
			return nil, err
		}
		return nil, paramError(err, "unable to serialize value of type %T", v)
	}
	return blob, nil
}

func normalizeUint(u uint64) (interface{}, error) {
	if u > math.MaxInt64 {
		return nil, paramError(nil, "unsigned value %d overflows int64", u)
	}
	return int64(u), nil
}
