// Package types maps source types onto the IR's composite encodings:
// scalars to signed/unsigned bit vectors, structs to ordered tuples with
// inherited bases flattened first, arrays to fixed-size IR arrays.
package types

import (
	"fmt"

	"sluice/internal/ast"
	"sluice/internal/ir"
)

// Kind enumerates semantic type kinds.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindBool
	KindStruct
	KindArray
	KindChannel
)

// StructField is one flattened field.
type StructField struct {
	Name string
	Type *Type
}

// StructInfo describes a resolved record: base fields first, then the
// record's own fields, in declaration order. Field order is deterministic
// for a given source.
type StructInfo struct {
	Name string
	// DeclName and Args identify the declaration and the template arguments
	// this instance was resolved from, for method lookup at lowering time.
	DeclName string
	Args     []ast.TemplArg
	Fields   []StructField
	// NoTuple records the flattening annotation: the struct is represented
	// by its sole field's type with no tuple wrapper.
	NoTuple bool
}

// Type is one semantic type. Width and Signed apply to KindInt; KindBool is
// a 1-bit unsigned value.
type Type struct {
	Kind   Kind
	Width  int
	Signed bool
	Elem   *Type
	Size   int
	Struct *StructInfo
}

var (
	Void = &Type{Kind: KindVoid}
	Bool = &Type{Kind: KindBool, Width: 1}
)

// Integer returns the scalar type with the given width and signedness.
func Integer(width int, signed bool) *Type {
	return &Type{Kind: KindInt, Width: width, Signed: signed}
}

// Int is the default 32-bit signed integer type.
func Int() *Type { return Integer(32, true) }

func ArrayOf(elem *Type, size int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Size: size}
}

func ChannelOf(elem *Type) *Type {
	return &Type{Kind: KindChannel, Elem: elem}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		if t.Signed {
			return fmt.Sprintf("sbits[%d]", t.Width)
		}
		return fmt.Sprintf("ubits[%d]", t.Width)
	case KindStruct:
		return t.Struct.Name
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.Elem, t.Size)
	case KindChannel:
		return fmt.Sprintf("__channel<%s>", t.Elem)
	}
	return "<bad>"
}

// IsScalar reports whether t lowers to one bit vector.
func (t *Type) IsScalar() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindBool)
}

// IsSigned reports signedness; bools and aggregates are unsigned.
func (t *Type) IsSigned() bool {
	return t != nil && t.Kind == KindInt && t.Signed
}

// Equal compares semantic types structurally.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindVoid:
		return true
	case KindBool:
		return true
	case KindInt:
		return t.Width == other.Width && t.Signed == other.Signed
	case KindStruct:
		return t.Struct.Name == other.Struct.Name
	case KindArray:
		return t.Size == other.Size && t.Elem.Equal(other.Elem)
	case KindChannel:
		return t.Elem.Equal(other.Elem)
	}
	return false
}

// FieldIndex finds the flattened index of name. Derived fields shadow base
// fields, so the search runs back to front.
func (t *Type) FieldIndex(name string) int {
	if t.Kind != KindStruct {
		return -1
	}
	for i := len(t.Struct.Fields) - 1; i >= 0; i-- {
		if t.Struct.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Encode maps a semantic type to its IR representation. Channels have no
// value encoding; their element type is encoded instead at the use site.
func Encode(t *Type) *ir.Type {
	switch t.Kind {
	case KindBool:
		return ir.Bits(1)
	case KindInt:
		return ir.Bits(t.Width)
	case KindStruct:
		if t.Struct.NoTuple {
			return Encode(t.Struct.Fields[0].Type)
		}
		elems := make([]*ir.Type, len(t.Struct.Fields))
		for i, f := range t.Struct.Fields {
			elems[i] = Encode(f.Type)
		}
		return ir.Tuple(elems...)
	case KindArray:
		return ir.Array(Encode(t.Elem), t.Size)
	}
	panic(fmt.Sprintf("no IR encoding for %s", t))
}

// Common computes the arithmetic conversion target for two scalar operands:
// the wider width wins; on equal width an unsigned operand makes the result
// unsigned.
func Common(a, b *Type) *Type {
	wa, wb := a.Width, b.Width
	w := wa
	if wb > w {
		w = wb
	}
	signed := a.IsSigned() && b.IsSigned()
	if !signed {
		// A signed operand strictly wider than the unsigned one keeps the
		// result signed.
		if a.IsSigned() && wa > wb {
			signed = true
		}
		if b.IsSigned() && wb > wa {
			signed = true
		}
	}
	return Integer(w, signed)
}
