package hllop

import (
	"fmt"
)

// HLLValue is a serialized HLL sketch, as stored in a bin or returned by a
// union.
type HLLValue []byte

// BlobType identifies the serializer that produced a Blob.
type BlobType int

// Blob types.
const (
	BlobMsgPack BlobType = 1
	BlobUser    BlobType = 2
)

func (t BlobType) String() string {
	switch t {
	case BlobMsgPack:
		return "msgpack"
	case BlobUser:
		return "user"
	}
	return fmt.Sprintf("BlobType(%d)", int(t))
}

// Blob is an opaque value produced by a ValueSerializer.
type Blob struct {
	Type BlobType
	Data []byte
}

//go:generate go run github.com/golang/mock/mockgen -package mock -destination mock/value_serializer.go github.com/influxdata/hllop ValueSerializer

// ValueSerializer turns values that have no native representation into
// opaque blobs.
type ValueSerializer interface {
	Serialize(v interface{}) (Blob, error)
}
