package hllop

import (
	"fmt"
)

// OpCode selects one of the HLL operations.
type OpCode int

// HLL operation codes. The zero value is not a valid operation.
const (
	OpHLLInit OpCode = iota + 1
	OpHLLAdd
	OpHLLGetCount
	OpHLLAddMH
	OpHLLDescribe
	OpHLLFold
	OpHLLGetIntersectCount
	OpHLLGetSimilarity
	OpHLLGetUnion
	OpHLLGetUnionCount
	OpHLLInitMH
	OpHLLRefreshCount
	OpHLLSetUnion
	OpHLLUpdate
)

var opCodeNames = map[OpCode]string{
	OpHLLInit:              "hll_init",
	OpHLLAdd:               "hll_add",
	OpHLLGetCount:          "hll_get_count",
	OpHLLAddMH:             "hll_add_mh",
	OpHLLDescribe:          "hll_describe",
	OpHLLFold:              "hll_fold",
	OpHLLGetIntersectCount: "hll_get_intersect_count",
	OpHLLGetSimilarity:     "hll_get_similarity",
	OpHLLGetUnion:          "hll_get_union",
	OpHLLGetUnionCount:     "hll_get_union_count",
	OpHLLInitMH:            "hll_init_mh",
	OpHLLRefreshCount:      "hll_refresh_count",
	OpHLLSetUnion:          "hll_set_union",
	OpHLLUpdate:            "hll_update",
}

// OpCodes returns every valid operation code in declaration order.
func OpCodes() []OpCode {
	codes := make([]OpCode, 0, len(opCodeNames))
	for c := OpHLLInit; c <= OpHLLUpdate; c++ {
		codes = append(codes, c)
	}
	return codes
}

// Valid reports whether c names a known operation.
func (c OpCode) Valid() bool {
	_, ok := opCodeNames[c]
	return ok
}

func (c OpCode) String() string {
	if name, ok := opCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("OpCode(%d)", int(c))
}

// ParseOpCode returns the operation code named s, e.g. "hll_add".
func ParseOpCode(s string) (OpCode, error) {
	for c, name := range opCodeNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown hll operation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c OpCode) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown hll operation %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *OpCode) UnmarshalText(b []byte) error {
	code, err := ParseOpCode(string(b))
	if err != nil {
		return err
	}
	*c = code
	return nil
}
