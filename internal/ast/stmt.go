package ast

import (
	"sluice/internal/source"
)

// StmtKind enumerates statement node kinds.
type StmtKind uint8

const (
	StmtDecl StmtKind = iota
	StmtExpr
	StmtBlock
	StmtIf
	StmtSwitch
	StmtFor
	StmtReturn
	StmtBreak
	StmtContinue
	StmtEmpty
)

// Stmt is one statement node. Data holds the kind-specific payload.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data any
}

// VarInit is one declarator in a declaration group.
type VarInit struct {
	Name string
	// Init is the single-expression initializer, nil when absent.
	Init *Expr
	// ListInit is a braced initializer list, nil when absent.
	ListInit *Expr
	// CtorArgs are direct-initialization arguments: `Test t(1, 2);`.
	CtorArgs []*Expr
	Span     source.Span
}

type DeclData struct {
	Type *TypeSpec
	Vars []VarInit
}

type ExprStmtData struct {
	X *Expr
}

type BlockData struct {
	Stmts []*Stmt
}

type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt
}

// SwitchCase is one `case value:` or `default:` label with the statements
// that follow it up to the next label. Fall-through is textual.
type SwitchCase struct {
	// Value is nil for the default label.
	Value *Expr
	Body  []*Stmt
	Span  source.Span
}

type SwitchData struct {
	Subject *Expr
	Cases   []SwitchCase
}

type ForData struct {
	Init *Stmt
	Cond *Expr
	Inc  *Stmt
	Body *Stmt
}

type ReturnData struct {
	Value *Expr
}
