package ir

import (
	"fmt"
)

// Fn is one lowered function graph. Nodes are stored in creation order and
// every node's arguments precede it, so a single forward pass evaluates the
// whole graph.
type Fn struct {
	Name   string
	Params []NodeID
	Nodes  []Node
	// Ret is the function result, NoNode for a void-equivalent body.
	Ret NodeID
}

// Node returns the node for id, nil for NoNode or out of range.
func (f *Fn) Node(id NodeID) *Node {
	if id == NoNode || int(id) >= len(f.Nodes) {
		return nil
	}
	return &f.Nodes[id]
}

// RetType returns the type of the function result.
func (f *Fn) RetType() *Type {
	if n := f.Node(f.Ret); n != nil {
		return n.Type
	}
	return nil
}

// Package is one translated module: functions plus hardware processes.
type Package struct {
	Name  string
	Funcs []*Fn
	Procs []*Proc
}

// Fn returns the function named name.
func (p *Package) Fn(name string) *Fn {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Proc returns the process named name.
func (p *Package) ProcByName(name string) *Proc {
	for _, pr := range p.Procs {
		if pr.Name == name {
			return pr
		}
	}
	return nil
}

// AddFn appends f, replacing any previous function with the same name.
func (p *Package) AddFn(f *Fn) {
	for i, old := range p.Funcs {
		if old.Name == f.Name {
			p.Funcs[i] = f
			return
		}
	}
	p.Funcs = append(p.Funcs, f)
}

// Builder constructs one Fn, folding operations over literal operands so
// that compile-time-constant subgraphs collapse to literals.
type Builder struct {
	fn *Fn
}

func NewBuilder(name string) *Builder {
	b := &Builder{fn: &Fn{Name: name}}
	// Reserve node 0 so NoNode never aliases a real node.
	b.fn.Nodes = append(b.fn.Nodes, Node{Op: OpInvalid})
	return b
}

// Finish seals the function with ret as its result.
func (b *Builder) Finish(ret NodeID) *Fn {
	b.fn.Ret = ret
	return b.fn
}

// Fn exposes the function under construction.
func (b *Builder) Fn() *Fn {
	return b.fn
}

func (b *Builder) add(n Node) NodeID {
	n.ID = NodeID(len(b.fn.Nodes))
	b.fn.Nodes = append(b.fn.Nodes, n)
	return n.ID
}

// Node returns the node for id.
func (b *Builder) Node(id NodeID) *Node {
	return b.fn.Node(id)
}

// LiteralValue returns the constant value of id if it is a literal node.
func (b *Builder) LiteralValue(id NodeID) (uint64, bool) {
	n := b.Node(id)
	if n.IsLiteral() {
		return n.Value, true
	}
	return 0, false
}

func (b *Builder) Param(name string, t *Type) NodeID {
	id := b.add(Node{Op: OpParam, Type: t, Name: name})
	b.fn.Params = append(b.fn.Params, id)
	return id
}

func (b *Builder) Literal(value uint64, t *Type) NodeID {
	if t.Kind != KindBits {
		panic(fmt.Sprintf("literal of non-bits type %s", t))
	}
	return b.add(Node{Op: OpLiteral, Type: t, Value: value & mask(t.Width)})
}

// Bool returns a 1-bit literal.
func (b *Builder) Bool(v bool) NodeID {
	return b.Literal(boolBit(v), Bits(1))
}

// Binary emits op over two equal-width bits operands, folding literals.
func (b *Builder) Binary(op Op, x, y NodeID) NodeID {
	xn, yn := b.Node(x), b.Node(y)
	w := xn.Type.Width
	rt := xn.Type
	if opIsComparison(op) {
		rt = Bits(1)
	}
	if xn.IsLiteral() && yn.IsLiteral() {
		if v, ok := evalBinary(op, w, xn.Value, yn.Value); ok {
			return b.Literal(v, rt)
		}
	}
	return b.add(Node{Op: op, Type: rt, Args: []NodeID{x, y}})
}

func opIsComparison(op Op) bool {
	switch op {
	case OpEq, OpNe, OpSLt, OpSLe, OpSGt, OpSGe, OpULt, OpULe, OpUGt, OpUGe:
		return true
	}
	return false
}

// Unary emits not/neg, folding literals.
func (b *Builder) Unary(op Op, x NodeID) NodeID {
	xn := b.Node(x)
	if xn.IsLiteral() {
		if v, ok := evalUnary(op, xn.Type.Width, xn.Value); ok {
			return b.Literal(v, xn.Type)
		}
	}
	return b.add(Node{Op: op, Type: xn.Type, Args: []NodeID{x}})
}

// Extend widens x to width using sign or zero extension. A no-op when the
// width already matches.
func (b *Builder) Extend(x NodeID, width int, signed bool) NodeID {
	xn := b.Node(x)
	if xn.Type.Width == width {
		return x
	}
	if xn.Type.Width > width {
		return b.Slice(x, 0, width)
	}
	op := OpZeroExt
	if signed {
		op = OpSignExt
	}
	if xn.IsLiteral() {
		v := xn.Value
		if signed {
			v = FromSigned(toSigned(v, xn.Type.Width), width)
		}
		return b.Literal(v, Bits(width))
	}
	return b.add(Node{Op: op, Type: Bits(width), Args: []NodeID{x}})
}

// Slice extracts width bits of x starting at bit start.
func (b *Builder) Slice(x NodeID, start, width int) NodeID {
	xn := b.Node(x)
	if start == 0 && xn.Type.Width == width {
		return x
	}
	if xn.IsLiteral() {
		return b.Literal(xn.Value>>uint(start), Bits(width))
	}
	return b.add(Node{Op: OpBitSlice, Type: Bits(width), Args: []NodeID{x}, Index: start})
}

// Select returns onTrue when pred is 1, else onFalse. Literal predicates
// fold to the chosen operand without creating a node.
func (b *Builder) Select(pred, onTrue, onFalse NodeID) NodeID {
	if v, ok := b.LiteralValue(pred); ok {
		if v != 0 {
			return onTrue
		}
		return onFalse
	}
	if onTrue == onFalse {
		return onTrue
	}
	// sel cases are indexed by selector value: Args[1] selects on 0.
	return b.add(Node{Op: OpSel, Type: b.Node(onTrue).Type, Args: []NodeID{pred, onFalse, onTrue}})
}

// And conjoins two 1-bit values, folding literal identities.
func (b *Builder) And(x, y NodeID) NodeID {
	if v, ok := b.LiteralValue(x); ok {
		if v == 0 {
			return x
		}
		return y
	}
	if v, ok := b.LiteralValue(y); ok {
		if v == 0 {
			return y
		}
		return x
	}
	return b.Binary(OpAnd, x, y)
}

// NotBit negates a 1-bit value.
func (b *Builder) NotBit(x NodeID) NodeID {
	return b.Unary(OpNot, x)
}

func (b *Builder) TupleOf(elems ...NodeID) NodeID {
	types := make([]*Type, len(elems))
	for i, e := range elems {
		types[i] = b.Node(e).Type
	}
	return b.add(Node{Op: OpTuple, Type: Tuple(types...), Args: elems})
}

func (b *Builder) TupleIndex(x NodeID, i int) NodeID {
	xn := b.Node(x)
	if xn.Type.Kind != KindTuple {
		panic(fmt.Sprintf("tuple_index of %s", xn.Type))
	}
	// tuple(e0..en)[i] folds to ei.
	if xn.Op == OpTuple {
		return xn.Args[i]
	}
	return b.add(Node{Op: OpTupleIndex, Type: xn.Type.Elems[i], Args: []NodeID{x}, Index: i})
}

func (b *Builder) ArrayOf(elemType *Type, elems ...NodeID) NodeID {
	return b.add(Node{Op: OpArray, Type: Array(elemType, len(elems)), Args: elems})
}

func (b *Builder) ArrayIndex(arr, idx NodeID) NodeID {
	at := b.Node(arr).Type
	return b.add(Node{Op: OpArrayIndex, Type: at.Elem, Args: []NodeID{arr, idx}})
}

func (b *Builder) ArrayUpdate(arr, idx, value NodeID) NodeID {
	return b.add(Node{Op: OpArrayUpdate, Type: b.Node(arr).Type, Args: []NodeID{arr, idx, value}})
}

// Invoke emits a call edge to callee; the inliner removes it later.
func (b *Builder) Invoke(callee *Fn, args ...NodeID) NodeID {
	return b.add(Node{Op: OpInvoke, Type: callee.RetType(), Args: args, Callee: callee.Name})
}

// ZeroValue builds the all-zero value of t.
func (b *Builder) ZeroValue(t *Type) NodeID {
	switch t.Kind {
	case KindBits:
		return b.Literal(0, t)
	case KindTuple:
		elems := make([]NodeID, len(t.Elems))
		for i, et := range t.Elems {
			elems[i] = b.ZeroValue(et)
		}
		return b.TupleOf(elems...)
	case KindArray:
		elems := make([]NodeID, t.Size)
		for i := range elems {
			elems[i] = b.ZeroValue(t.Elem)
		}
		return b.ArrayOf(t.Elem, elems...)
	}
	panic("zero value of invalid type")
}
