package bolt

import (
	"fmt"
	"sort"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/tinylib/msgp/msgp"
)

// MessagePack extension types used for bin values msgp has no native
// representation for.
const (
	hllExtensionType  int8 = 18
	blobExtensionType int8 = 19
)

func init() {
	msgp.RegisterExtension(hllExtensionType, func() msgp.Extension { return new(hllExtension) })
	msgp.RegisterExtension(blobExtensionType, func() msgp.Extension { return new(blobExtension) })
}

type hllExtension hllop.HLLValue

func (e *hllExtension) ExtensionType() int8 { return hllExtensionType }
func (e *hllExtension) Len() int            { return len(*e) }

func (e *hllExtension) MarshalBinaryTo(b []byte) error {
	copy(b, *e)
	return nil
}

func (e *hllExtension) UnmarshalBinary(b []byte) error {
	*e = append((*e)[:0], b...)
	return nil
}

// blobExtension holds the blob type in its first byte.
type blobExtension hllop.Blob

func (e *blobExtension) ExtensionType() int8 { return blobExtensionType }
func (e *blobExtension) Len() int            { return 1 + len(e.Data) }

func (e *blobExtension) MarshalBinaryTo(b []byte) error {
	b[0] = byte(e.Type)
	copy(b[1:], e.Data)
	return nil
}

func (e *blobExtension) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("blob extension is empty")
	}
	e.Type = hllop.BlobType(b[0])
	e.Data = append(e.Data[:0], b[1:]...)
	return nil
}

func toWire(v interface{}) interface{} {
	switch x := v.(type) {
	case hllop.HLLValue:
		e := hllExtension(x)
		return &e
	case hllop.Blob:
		e := blobExtension(x)
		return &e
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, it := range x {
			out[i] = toWire(it)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, it := range x {
			out[k] = toWire(it)
		}
		return out
	}
	return v
}

func fromWire(v interface{}) interface{} {
	switch x := v.(type) {
	case *hllExtension:
		return hllop.HLLValue(*x)
	case *blobExtension:
		return hllop.Blob(*x)
	case []interface{}:
		for i, it := range x {
			x[i] = fromWire(it)
		}
	case map[string]interface{}:
		for k, it := range x {
			x[k] = fromWire(it)
		}
	}
	return v
}

// encodeRecord encodes rec as a MessagePack map with its bins in name order.
func encodeRecord(rec hllop.Record) ([]byte, error) {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	b := msgp.AppendMapHeader(nil, uint32(len(rec)))
	for _, name := range names {
		b = msgp.AppendString(b, name)
		var err error
		if b, err = msgp.AppendIntf(b, toWire(rec[name])); err != nil {
			return nil, &errors.Error{
				Code: errors.EInternal,
				Msg:  fmt.Sprintf("unable to encode bin %q", name),
				Err:  err,
			}
		}
	}
	return b, nil
}

func decodeRecord(b []byte) (hllop.Record, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, corrupt(err)
	}
	rec := make(hllop.Record, n)
	for i := uint32(0); i < n; i++ {
		var name string
		if name, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, corrupt(err)
		}
		var v interface{}
		if v, b, err = msgp.ReadIntfBytes(b); err != nil {
			return nil, corrupt(err)
		}
		rec[name] = fromWire(v)
	}
	return rec, nil
}

func corrupt(err error) error {
	return &errors.Error{Code: errors.EInternal, Msg: "stored record is corrupt", Err: err}
}
