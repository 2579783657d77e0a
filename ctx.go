package hllop

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// CtxType is the kind of a single step in a context path.
type CtxType int

// Context path step kinds.
const (
	CtxListIndex CtxType = 0x10
	CtxListRank  CtxType = 0x11
	CtxListValue CtxType = 0x13
	CtxMapIndex  CtxType = 0x20
	CtxMapRank   CtxType = 0x21
	CtxMapKey    CtxType = 0x22
	CtxMapValue  CtxType = 0x23
)

var ctxTypeNames = map[CtxType]string{
	CtxListIndex: "list_index",
	CtxListRank:  "list_rank",
	CtxListValue: "list_value",
	CtxMapIndex:  "map_index",
	CtxMapRank:   "map_rank",
	CtxMapKey:    "map_key",
	CtxMapValue:  "map_value",
}

// Valid reports whether t is a known step kind.
func (t CtxType) Valid() bool {
	_, ok := ctxTypeNames[t]
	return ok
}

// Positional reports whether the step value must be an integer.
func (t CtxType) Positional() bool {
	switch t {
	case CtxListIndex, CtxListRank, CtxMapIndex, CtxMapRank:
		return true
	}
	return false
}

func (t CtxType) String() string {
	if name, ok := ctxTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CtxType(%#x)", int(t))
}

// CtxItem is one addressing step into a nested list or map.
type CtxItem struct {
	Type  CtxType
	Value interface{}
}

// Ctx is a context path. An empty Ctx addresses the top level of a bin.
type Ctx []CtxItem

func (c Ctx) String() string {
	parts := make([]string, len(c))
	for i, it := range c {
		parts[i] = fmt.Sprintf("%s(%v)", it.Type, it.Value)
	}
	return strings.Join(parts, ".")
}

// CtxPool hands out scratch space for parsing context paths. It is safe for
// concurrent use.
type CtxPool struct {
	pool        sync.Pool
	outstanding int64
}

// NewCtxPool returns an empty pool.
func NewCtxPool() *CtxPool {
	p := &CtxPool{}
	p.pool.New = func() interface{} {
		return &ScratchCtx{items: make([]CtxItem, 0, 4)}
	}
	return p
}

// Get acquires a scratch context path. The caller must Release it.
func (p *CtxPool) Get() *ScratchCtx {
	s := p.pool.Get().(*ScratchCtx)
	s.pool = p
	s.items = s.items[:0]
	atomic.AddInt64(&p.outstanding, 1)
	return s
}

// Outstanding returns the number of scratch paths acquired and not yet
// released.
func (p *CtxPool) Outstanding() int64 {
	return atomic.LoadInt64(&p.outstanding)
}

// ScratchCtx is a pooled, mutable context path used while parsing.
type ScratchCtx struct {
	items []CtxItem
	pool  *CtxPool
}

// Append adds a step to the path.
func (s *ScratchCtx) Append(it CtxItem) {
	s.items = append(s.items, it)
}

// Len returns the number of steps.
func (s *ScratchCtx) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Ctx returns a copy of the path that outlives Release.
func (s *ScratchCtx) Ctx() Ctx {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	out := make(Ctx, len(s.items))
	copy(out, s.items)
	return out
}

// Release returns the scratch path to its pool. Calling Release on a nil
// path or more than once is a no-op.
func (s *ScratchCtx) Release() {
	if s == nil || s.pool == nil {
		return
	}
	p := s.pool
	s.pool = nil
	for i := range s.items {
		s.items[i] = CtxItem{}
	}
	s.items = s.items[:0]
	atomic.AddInt64(&p.outstanding, -1)
	p.pool.Put(s)
}
