// Package serializer provides the hllop.ValueSerializer implementations used
// for values that have no native representation in a value list.
package serializer

import (
	"fmt"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/tinylib/msgp/msgp"
)

// Names accepted by New.
const (
	NameNone    = "none"
	NameMsgPack = "msgpack"
)

// New returns the serializer registered under name. An empty name selects
// None.
func New(name string) (hllop.ValueSerializer, error) {
	switch name {
	case "", NameNone:
		return None{}, nil
	case NameMsgPack:
		return MsgPack{}, nil
	}
	return nil, fmt.Errorf("unknown serializer %q; supported serializers are %s, %s", name, NameNone, NameMsgPack)
}

// None rejects every value.
type None struct{}

// Serialize implements hllop.ValueSerializer.
func (None) Serialize(v interface{}) (hllop.Blob, error) {
	return hllop.Blob{}, &errors.Error{
		Code: errors.EParam,
		Msg:  fmt.Sprintf("unsupported value type %T", v),
	}
}

// MsgPack encodes values with MessagePack.
type MsgPack struct{}

// Serialize implements hllop.ValueSerializer.
func (MsgPack) Serialize(v interface{}) (hllop.Blob, error) {
	b, err := msgp.AppendIntf(nil, v)
	if err != nil {
		return hllop.Blob{}, &errors.Error{
			Code: errors.EParam,
			Msg:  fmt.Sprintf("unable to serialize value of type %T", v),
			Err:  err,
		}
	}
	return hllop.Blob{Type: hllop.BlobMsgPack, Data: b}, nil
}

// Func adapts a user supplied function to hllop.ValueSerializer.
type Func func(v interface{}) ([]byte, error)

// Serialize implements hllop.ValueSerializer.
func (fn Func) Serialize(v interface{}) (hllop.Blob, error) {
	b, err := fn(v)
	if err != nil {
		return hllop.Blob{}, &errors.Error{
			Code: errors.EParam,
			Msg:  fmt.Sprintf("user serializer failed on value of type %T", v),
			Err:  err,
		}
	}
	return hllop.Blob{Type: hllop.BlobUser, Data: b}, nil
}
