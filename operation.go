package hllop

// Operation is a fully typed HLL operation. The concrete types below form a
// closed set, one per OpCode.
type Operation interface {
	// OpCode returns the code the operation was built for.
	OpCode() OpCode
	// BinName returns the bin the operation targets.
	BinName() string
	// Path returns the nested context the operation is scoped to, if any.
	Path() Ctx
}

// Target names the bin, and optionally the nested element, an operation
// works on.
type Target struct {
	Bin string
	Ctx Ctx
}

// BinName implements Operation.
func (t Target) BinName() string { return t.Bin }

// Path implements Operation.
func (t Target) Path() Ctx { return t.Ctx }

// InitOp creates or resets an HLL bin.
type InitOp struct {
	Target
	Policy        *Policy
	IndexBitCount int
}

// InitMHOp creates or resets an HLL bin with minhash bits.
type InitMHOp struct {
	Target
	Policy          *Policy
	IndexBitCount   int
	MinHashBitCount int
}

// AddOp adds values to an HLL bin, creating it when needed.
type AddOp struct {
	Target
	Policy        *Policy
	Values        []interface{}
	IndexBitCount int
}

// AddMHOp adds values to an HLL bin with minhash bits, creating it when
// needed.
type AddMHOp struct {
	Target
	Policy          *Policy
	Values          []interface{}
	IndexBitCount   int
	MinHashBitCount int
}

// GetCountOp reads the estimated cardinality of an HLL bin.
type GetCountOp struct {
	Target
}

// DescribeOp reads the index and minhash bit counts of an HLL bin.
type DescribeOp struct {
	Target
}

// FoldOp reduces the index bit count of an HLL bin.
type FoldOp struct {
	Target
	IndexBitCount int
}

// GetIntersectCountOp estimates the size of the intersection of the bin and
// the given sketches.
type GetIntersectCountOp struct {
	Target
	Values []interface{}
}

// GetSimilarityOp estimates the Jaccard similarity of the bin and the given
// sketches.
type GetSimilarityOp struct {
	Target
	Values []interface{}
}

// GetUnionOp returns the union of the bin and the given sketches.
type GetUnionOp struct {
	Target
	Values []interface{}
}

// GetUnionCountOp estimates the cardinality of the union of the bin and the
// given sketches.
type GetUnionCountOp struct {
	Target
	Values []interface{}
}

// RefreshCountOp recomputes and returns the cached count of an HLL bin.
type RefreshCountOp struct {
	Target
}

// SetUnionOp stores the union of the bin and the given sketches in the bin.
type SetUnionOp struct {
	Target
	Policy *Policy
	Values []interface{}
}

// UpdateOp adds values to an existing HLL bin.
type UpdateOp struct {
	Target
	Policy *Policy
	Values []interface{}
}

func (InitOp) OpCode() OpCode              { return OpHLLInit }
func (InitMHOp) OpCode() OpCode            { return OpHLLInitMH }
func (AddOp) OpCode() OpCode               { return OpHLLAdd }
func (AddMHOp) OpCode() OpCode             { return OpHLLAddMH }
func (GetCountOp) OpCode() OpCode          { return OpHLLGetCount }
func (DescribeOp) OpCode() OpCode          { return OpHLLDescribe }
func (FoldOp) OpCode() OpCode              { return OpHLLFold }
func (GetIntersectCountOp) OpCode() OpCode { return OpHLLGetIntersectCount }
func (GetSimilarityOp) OpCode() OpCode     { return OpHLLGetSimilarity }
func (GetUnionOp) OpCode() OpCode          { return OpHLLGetUnion }
func (GetUnionCountOp) OpCode() OpCode     { return OpHLLGetUnionCount }
func (RefreshCountOp) OpCode() OpCode      { return OpHLLRefreshCount }
func (SetUnionOp) OpCode() OpCode          { return OpHLLSetUnion }
func (UpdateOp) OpCode() OpCode            { return OpHLLUpdate }

var (
	_ Operation = (*InitOp)(nil)
	_ Operation = (*InitMHOp)(nil)
	_ Operation = (*AddOp)(nil)
	_ Operation = (*AddMHOp)(nil)
	_ Operation = (*GetCountOp)(nil)
	_ Operation = (*DescribeOp)(nil)
	_ Operation = (*FoldOp)(nil)
	_ Operation = (*GetIntersectCountOp)(nil)
	_ Operation = (*GetSimilarityOp)(nil)
	_ Operation = (*GetUnionOp)(nil)
	_ Operation = (*GetUnionCountOp)(nil)
	_ Operation = (*RefreshCountOp)(nil)
	_ Operation = (*SetUnionOp)(nil)
	_ Operation = (*UpdateOp)(nil)
)

// OperationValues returns the value list carried by op, or nil when op takes
// none.
func OperationValues(op Operation) []interface{} {
	switch o := op.(type) {
	case *AddOp:
		return o.Values
	case *AddMHOp:
		return o.Values
	case *GetIntersectCountOp:
		return o.Values
	case *GetSimilarityOp:
		return o.Values
	case *GetUnionOp:
		return o.Values
	case *GetUnionCountOp:
		return o.Values
	case *SetUnionOp:
		return o.Values
	case *UpdateOp:
		return o.Values
	}
	return nil
}

// OperationPolicy returns the policy override carried by op. A nil result
// means no override.
func OperationPolicy(op Operation) *Policy {
	switch o := op.(type) {
	case *InitOp:
		return o.Policy
	case *InitMHOp:
		return o.Policy
	case *AddOp:
		return o.Policy
	case *AddMHOp:
		return o.Policy
	case *SetUnionOp:
		return o.Policy
	case *UpdateOp:
		return o.Policy
	}
	return nil
}

// OperationBitCounts returns the index and minhash bit counts carried by op.
// Counts op does not carry are zero.
func OperationBitCounts(op Operation) (indexBits, mhBits int) {
	switch o := op.(type) {
	case *InitOp:
		return o.IndexBitCount, 0
	case *InitMHOp:
		return o.IndexBitCount, o.MinHashBitCount
	case *AddOp:
		return o.IndexBitCount, 0
	case *AddMHOp:
		return o.IndexBitCount, o.MinHashBitCount
	case *FoldOp:
		return o.IndexBitCount, 0
	}
	return 0, 0
}
