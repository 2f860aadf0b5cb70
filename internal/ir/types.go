// Package ir holds the pure dataflow intermediate representation produced by
// the translator: typed value graphs with no control flow, plus the process
// wrapper for hardware blocks. It also carries the textual and binary forms
// and a reference evaluator.
package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates IR type forms. The IR is signless: signedness is a
// property of the operations chosen during lowering, not of the values.
type TypeKind uint8

const (
	KindBits TypeKind = iota
	KindTuple
	KindArray
)

// Type is an IR value type.
type Type struct {
	Kind  TypeKind
	Width int
	Elems []*Type
	Elem  *Type
	Size  int
}

func Bits(width int) *Type {
	return &Type{Kind: KindBits, Width: width}
}

func Tuple(elems ...*Type) *Type {
	return &Type{Kind: KindTuple, Elems: elems}
}

func Array(elem *Type, size int) *Type {
	return &Type{Kind: KindArray, Elem: elem, Size: size}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBits:
		return fmt.Sprintf("bits[%d]", t.Width)
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.Elem, t.Size)
	}
	return "<bad>"
}

func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindBits:
		return t.Width == other.Width
	case KindTuple:
		if len(t.Elems) != len(other.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(other.Elems[i]) {
				return false
			}
		}
		return true
	case KindArray:
		return t.Size == other.Size && t.Elem.Equal(other.Elem)
	}
	return false
}

// IsBits reports whether t is a scalar bits type.
func (t *Type) IsBits() bool {
	return t != nil && t.Kind == KindBits
}

// FlatWidth returns the total bit count of t.
func (t *Type) FlatWidth() int {
	switch t.Kind {
	case KindBits:
		return t.Width
	case KindTuple:
		total := 0
		for _, e := range t.Elems {
			total += e.FlatWidth()
		}
		return total
	case KindArray:
		return t.Elem.FlatWidth() * t.Size
	}
	return 0
}
