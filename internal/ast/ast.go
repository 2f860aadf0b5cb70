// Package ast defines the typed syntax tree the translator consumes. It is
// the contract surface between the front end and the translation engine:
// any producer that builds these nodes can drive lowering.
package ast

import (
	"sluice/internal/source"
)

// File is one scanned translation unit.
type File struct {
	Path     string
	FileID   source.FileID
	Typedefs []*TypedefDecl
	Records  []*RecordDecl
	Funcs    []*FuncDecl
}

// FindFunc returns the first free function named name.
func (f *File) FindFunc(name string) *FuncDecl {
	for _, fn := range f.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// FindRecord returns the record declaration named name.
func (f *File) FindRecord(name string) *RecordDecl {
	for _, r := range f.Records {
		if r.Name == name {
			return r
		}
	}
	return nil
}

type TypedefDecl struct {
	Name string
	Type *TypeSpec
	Span source.Span
}

// TypeParam is one template parameter: `typename T` or a value parameter
// such as `int N`.
type TypeParam struct {
	Name    string
	IsValue bool
	Span    source.Span
}

// Field is one record field.
type Field struct {
	Name string
	Type *TypeSpec
	Span source.Span
}

// RecordDecl is a struct or class declaration. Anonymous records are kept in
// the tree so the translator can reject them with a proper diagnostic.
type RecordDecl struct {
	Name       string
	TypeParams []TypeParam
	Bases      []string
	Fields     []Field
	Methods    []*FuncDecl
	Anon       bool
	Span       source.Span
}

// FindMethod returns the method (or operator) named name, nil if absent.
func (r *RecordDecl) FindMethod(name string) *FuncDecl {
	for _, m := range r.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Param is one function parameter.
type Param struct {
	Name    string
	Type    *TypeSpec
	ByRef   bool
	Const   bool
	Default *Expr
	Span    source.Span
}

// CtorInit is one member initializer in a constructor initializer list.
type CtorInit struct {
	Field string
	Value *Expr
	Span  source.Span
}

// FuncDecl is a free function, method, operator overload, or constructor.
// Methods carry the owning record's name in Receiver. Operator overloads are
// named "operator+", "operator++", ...; conversion operators "operator int".
type FuncDecl struct {
	Name       string
	Receiver   string
	TypeParams []TypeParam
	Ret        *TypeSpec
	Params     []*Param
	Inits      []CtorInit
	Body       *Stmt
	IsCtor     bool
	IsStatic   bool
	ConstMeth  bool
	Span       source.Span
}
