package engine

import (
	"fmt"

	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/retailnext/hllpp"
	"github.com/tinylib/msgp/msgp"
)

// Sketch parameter bounds.
const (
	MinIndexBits   = 4
	MaxIndexBits   = 16
	MinMinHashBits = 4
	MaxMinHashBits = 51
	maxTotalBits   = 64

	sparsePrecision = 25
	headerLen       = 2
)

// sketch is an HLL bin value: the configured bit counts and an HLL++
// estimator. Minhash bits are recorded and reported but do not change the
// estimates.
type sketch struct {
	indexBits int
	mhBits    int
	h         *hllpp.HLLPP
}

func validateBits(indexBits, mhBits int) error {
	if indexBits < MinIndexBits || indexBits > MaxIndexBits {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("index bit count %d out of range [%d, %d]", indexBits, MinIndexBits, MaxIndexBits),
		}
	}
	if mhBits != 0 && (mhBits < MinMinHashBits || mhBits > MaxMinHashBits) {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("minhash bit count %d out of range [%d, %d]", mhBits, MinMinHashBits, MaxMinHashBits),
		}
	}
	if indexBits+mhBits > maxTotalBits {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("index and minhash bit counts exceed %d bits", maxTotalBits),
		}
	}
	return nil
}

func newSketch(indexBits, mhBits int) (*sketch, error) {
	if err := validateBits(indexBits, mhBits); err != nil {
		return nil, err
	}
	h, err := hllpp.NewWithConfig(hllpp.Config{
		Precision:       uint8(indexBits),
		SparsePrecision: sparsePrecision,
	})
	if err != nil {
		return nil, &errors.Error{Code: errors.EInternal, Msg: "unable to create sketch", Err: err}
	}
	return &sketch{indexBits: indexBits, mhBits: mhBits, h: h}, nil
}

// decodeSketch reads a sketch from a bin value or a value list element.
func decodeSketch(v interface{}) (*sketch, error) {
	var b []byte
	switch x := v.(type) {
	case hllop.HLLValue:
		b = x
	case []byte:
		b = x
	default:
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("value of type %T is not an hll", v),
		}
	}
	if len(b) < headerLen {
		return nil, &errors.Error{Code: errors.EInvalid, Msg: "hll value is truncated"}
	}

	indexBits, mhBits := int(b[0]), int(b[1])
	if err := validateBits(indexBits, mhBits); err != nil {
		return nil, err
	}
	h, err := hllpp.Unmarshal(b[headerLen:])
	if err != nil {
		return nil, &errors.Error{Code: errors.EInvalid, Msg: "hll value is corrupt", Err: err}
	}
	return &sketch{indexBits: indexBits, mhBits: mhBits, h: h}, nil
}

func (s *sketch) encode() hllop.HLLValue {
	body := s.h.Marshal()
	out := make(hllop.HLLValue, headerLen, headerLen+len(body))
	out[0], out[1] = byte(s.indexBits), byte(s.mhBits)
	return append(out, body...)
}

func (s *sketch) clone() (*sketch, error) {
	return decodeSketch(s.encode())
}

func (s *sketch) count() int64 {
	return int64(s.h.Count())
}

// add hashes every value into the sketch and returns the estimated number of
// new distinct entries.
func (s *sketch) add(values []interface{}) (int64, error) {
	before := s.count()
	for _, v := range values {
		b, err := elementBytes(v)
		if err != nil {
			return 0, err
		}
		s.h.Add(b)
	}
	if n := s.count() - before; n > 0 {
		return n, nil
	}
	return 0, nil
}

func (s *sketch) merge(o *sketch) error {
	if s.indexBits != o.indexBits {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("cannot merge hll with %d index bits into hll with %d index bits", o.indexBits, s.indexBits),
		}
	}
	if err := s.h.Merge(o.h); err != nil {
		return &errors.Error{Code: errors.EInvalid, Msg: "unable to merge hll", Err: err}
	}
	return nil
}

// elementBytes returns the canonical encoding of a value list element, so
// that equal values of different kinds never hash alike.
func elementBytes(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case hllop.HLLValue:
		return msgp.AppendBytes(nil, x), nil
	case hllop.Blob:
		return msgp.AppendBytes([]byte{byte(x.Type)}, x.Data), nil
	}
	b, err := msgp.AppendIntf(nil, v)
	if err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("cannot add value of type %T to an hll", v),
			Err:  err,
		}
	}
	return b, nil
}
