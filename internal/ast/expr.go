package ast

import (
	"sluice/internal/source"
)

// ExprKind enumerates expression node kinds.
type ExprKind uint8

const (
	ExprIntLit ExprKind = iota
	ExprBoolLit
	ExprName
	ExprUnary
	ExprBinary
	ExprAssign
	ExprTernary
	ExprCall
	ExprMethodCall
	ExprMember
	ExprIndex
	ExprCast
	ExprInitList
	ExprThis
	ExprParen
)

// Expr is one expression node. Data holds the kind-specific payload.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data any
}

type IntLitData struct {
	Value int64
	// Type is the suffix-derived literal type; nil means int.
	Type *TypeSpec
}

type BoolLitData struct {
	Value bool
}

type NameData struct {
	Name string
}

type UnaryData struct {
	Op UnaryOp
	X  *Expr
}

type BinaryData struct {
	Op BinOp
	X  *Expr
	Y  *Expr
}

// AssignData covers plain (`Op == OpNone`) and compound assignment.
type AssignData struct {
	Op  BinOp
	LHS *Expr
	RHS *Expr
}

type TernaryData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

// CallData is a free-function call or a record construction by name.
type CallData struct {
	Name     string
	TypeArgs []TemplArg
	Args     []*Expr
}

type MethodCallData struct {
	Recv *Expr
	Name string
	Args []*Expr
}

type MemberData struct {
	X     *Expr
	Field string
	Arrow bool
}

type IndexData struct {
	X *Expr
	I *Expr
}

type CastData struct {
	Type *TypeSpec
	X    *Expr
}

type InitListData struct {
	Elems []*Expr
}

type ParenData struct {
	X *Expr
}

// Unparen strips grouping parentheses.
func (e *Expr) Unparen() *Expr {
	for e != nil && e.Kind == ExprParen {
		e = e.Data.(ParenData).X
	}
	return e
}
