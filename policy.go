package hllop

import (
	"fmt"
	"strings"
)

// WriteFlags control how a writing HLL operation treats an existing or
// missing bin.
type WriteFlags int

const (
	// HLLWriteDefault creates the bin when missing and updates it otherwise.
	HLLWriteDefault WriteFlags = 0
	// HLLWriteCreateOnly fails when the bin already exists.
	HLLWriteCreateOnly WriteFlags = 1
	// HLLWriteUpdateOnly fails when the bin does not exist.
	HLLWriteUpdateOnly WriteFlags = 2
	// HLLWriteNoFail turns policy violations into no-ops.
	HLLWriteNoFail WriteFlags = 4
	// HLLWriteAllowFold lets a set union fold to the smallest precision.
	HLLWriteAllowFold WriteFlags = 8

	allWriteFlags = HLLWriteCreateOnly | HLLWriteUpdateOnly | HLLWriteNoFail | HLLWriteAllowFold
)

// Has reports whether all bits of flag are set in f.
func (f WriteFlags) Has(flag WriteFlags) bool {
	return f&flag == flag
}

// Validate checks f only carries known, compatible bits.
func (f WriteFlags) Validate() error {
	if f&^allWriteFlags != 0 {
		return fmt.Errorf("unknown hll write flags %#x", int(f&^allWriteFlags))
	}
	if f.Has(HLLWriteCreateOnly | HLLWriteUpdateOnly) {
		return fmt.Errorf("hll write flags create_only and update_only are mutually exclusive")
	}
	return nil
}

func (f WriteFlags) String() string {
	if f == HLLWriteDefault {
		return "default"
	}
	var parts []string
	for _, fl := range []struct {
		flag WriteFlags
		name string
	}{
		{HLLWriteCreateOnly, "create_only"},
		{HLLWriteUpdateOnly, "update_only"},
		{HLLWriteNoFail, "no_fail"},
		{HLLWriteAllowFold, "allow_fold"},
	} {
		if f.Has(fl.flag) {
			parts = append(parts, fl.name)
		}
	}
	if rest := f &^ allWriteFlags; rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", int(rest)))
	}
	return strings.Join(parts, "|")
}

// Policy overrides the write behavior of an HLL operation. A nil *Policy
// means no override: the executing side applies its default.
type Policy struct {
	Flags WriteFlags `yaml:"flags"`
}
