package ir

// Op enumerates IR operations.
type Op uint8

const (
	OpInvalid Op = iota
	OpParam
	OpLiteral
	OpAdd
	OpSub
	OpSMul
	OpUMul
	OpSDiv
	OpUDiv
	OpSMod
	OpUMod
	OpAnd
	OpOr
	OpXor
	OpNot
	OpNeg
	OpEq
	OpNe
	OpSLt
	OpSLe
	OpSGt
	OpSGe
	OpULt
	OpULe
	OpUGt
	OpUGe
	OpShll
	OpShrl
	OpShra
	OpSignExt
	OpZeroExt
	OpBitSlice
	OpSel
	OpTuple
	OpTupleIndex
	OpArray
	OpArrayIndex
	OpArrayUpdate
	OpInvoke
)

var opNames = map[Op]string{
	OpParam:       "param",
	OpLiteral:     "literal",
	OpAdd:         "add",
	OpSub:         "sub",
	OpSMul:        "smul",
	OpUMul:        "umul",
	OpSDiv:        "sdiv",
	OpUDiv:        "udiv",
	OpSMod:        "smod",
	OpUMod:        "umod",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpNot:         "not",
	OpNeg:         "neg",
	OpEq:          "eq",
	OpNe:          "ne",
	OpSLt:         "slt",
	OpSLe:         "sle",
	OpSGt:         "sgt",
	OpSGe:         "sge",
	OpULt:         "ult",
	OpULe:         "ule",
	OpUGt:         "ugt",
	OpUGe:         "uge",
	OpShll:        "shll",
	OpShrl:        "shrl",
	OpShra:        "shra",
	OpSignExt:     "sign_ext",
	OpZeroExt:     "zero_ext",
	OpBitSlice:    "bit_slice",
	OpSel:         "sel",
	OpTuple:       "tuple",
	OpTupleIndex:  "tuple_index",
	OpArray:       "array",
	OpArrayIndex:  "array_index",
	OpArrayUpdate: "array_update",
	OpInvoke:      "invoke",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "invalid"
}

// NodeID indexes a node inside its function. Node 0 is reserved so that the
// zero NodeID can mean "absent" (an always-true predicate, a missing value).
type NodeID uint32

// NoNode is the absent-node sentinel.
const NoNode NodeID = 0

// Node is one dataflow operation.
//
// Field use per op:
//   - OpParam: Name
//   - OpLiteral: Value (low bits, two's complement for signed semantics)
//   - OpSignExt/OpZeroExt: result width in Type
//   - OpBitSlice: Index is the start bit, result width in Type
//   - OpSel: Args[0] selector, Args[1] on-zero case, Args[2] on-one case
//   - OpTupleIndex: Index
//   - OpInvoke: Callee function name, resolved through the Package
type Node struct {
	ID     NodeID
	Op     Op
	Type   *Type
	Args   []NodeID
	Value  uint64
	Name   string
	Index  int
	Callee string
}

// IsLiteral reports whether n is a literal node.
func (n *Node) IsLiteral() bool {
	return n != nil && n.Op == OpLiteral
}
