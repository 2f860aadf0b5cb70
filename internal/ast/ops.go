package ast

// BinOp enumerates binary operators. Assignment is a separate expression
// kind; compound assignment reuses these for its arithmetic part.
type BinOp uint8

const (
	OpNone BinOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLAnd
	OpLOr
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLAnd:
		return "&&"
	case OpLOr:
		return "||"
	}
	return "?"
}

// IsComparison reports whether op yields a 1-bit result.
func (op BinOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLAnd, OpLOr:
		return true
	}
	return false
}

// UnaryOp enumerates unary operators, including the four inc/dec forms.
type UnaryOp uint8

const (
	UnNone UnaryOp = iota
	UnNeg
	UnPlus
	UnNot
	UnBitNot
	UnPreInc
	UnPreDec
	UnPostInc
	UnPostDec
	// UnDeref is accepted only as *this.
	UnDeref
)

func (op UnaryOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnPlus:
		return "+"
	case UnNot:
		return "!"
	case UnBitNot:
		return "~"
	case UnPreInc, UnPostInc:
		return "++"
	case UnPreDec, UnPostDec:
		return "--"
	case UnDeref:
		return "*"
	}
	return "?"
}

// Mutates reports whether the operator writes its operand.
func (op UnaryOp) Mutates() bool {
	switch op {
	case UnPreInc, UnPreDec, UnPostInc, UnPostDec:
		return true
	}
	return false
}
