package ast

import (
	"fmt"
	"strings"

	"sluice/internal/source"
)

// TypeKind enumerates syntactic type forms.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeChar
	TypeUChar
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLongLong
	TypeULongLong
	// TypeNamed refers to a record, typedef, or template parameter by name,
	// optionally with template arguments.
	TypeNamed
	// TypeArray is a fixed-size array of Elem.
	TypeArray
	// TypeChannel is the external communication endpoint type __channel<T>.
	TypeChannel
)

// TemplArg is one template argument: a type or a constant value.
type TemplArg struct {
	Type    *TypeSpec
	Value   int64
	IsValue bool
}

func (a TemplArg) String() string {
	if a.IsValue {
		return fmt.Sprintf("%d", a.Value)
	}
	return a.Type.String()
}

// TypeSpec is a syntactic type reference, resolved by the type encoder.
type TypeSpec struct {
	Kind TypeKind
	Name string
	Elem *TypeSpec
	Size int
	// SizeName is set instead of Size when an array dimension is written as
	// a name, such as a template value parameter. The encoder resolves it
	// under the instantiation's bindings.
	SizeName string
	Args     []TemplArg
	Span     source.Span
}

func (t *TypeSpec) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeChar:
		return "char"
	case TypeUChar:
		return "unsigned char"
	case TypeShort:
		return "short"
	case TypeUShort:
		return "unsigned short"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "unsigned int"
	case TypeLongLong:
		return "long long"
	case TypeULongLong:
		return "unsigned long long"
	case TypeNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ", "))
	case TypeArray:
		if t.SizeName != "" {
			return fmt.Sprintf("%s[%s]", t.Elem, t.SizeName)
		}
		return fmt.Sprintf("%s[%d]", t.Elem, t.Size)
	case TypeChannel:
		return fmt.Sprintf("__channel<%s>", t.Elem)
	}
	return "<bad type>"
}
