package ir

import (
	"fmt"
)

// Value is one evaluated IR value.
type Value struct {
	Type  *Type
	Bits  uint64
	Elems []Value
}

// BitsValue builds a scalar value of width w.
func BitsValue(v uint64, w int) Value {
	return Value{Type: Bits(w), Bits: v & mask(w)}
}

// SignedValue builds a scalar from a signed integer.
func SignedValue(v int64, w int) Value {
	return Value{Type: Bits(w), Bits: FromSigned(v, w)}
}

// TupleValue builds a tuple from element values.
func TupleValue(elems ...Value) Value {
	types := make([]*Type, len(elems))
	for i := range elems {
		types[i] = elems[i].Type
	}
	return Value{Type: Tuple(types...), Elems: elems}
}

// Int64 reinterprets a scalar value as signed.
func (v Value) Int64() int64 {
	return toSigned(v.Bits, v.Type.Width)
}

// Uint64 returns the raw scalar bits.
func (v Value) Uint64() uint64 {
	return v.Bits & mask(v.Type.Width)
}

// Equal compares values structurally.
func (v Value) Equal(other Value) bool {
	if !v.Type.Equal(other.Type) {
		return false
	}
	if v.Type.IsBits() {
		return v.Uint64() == other.Uint64()
	}
	for i := range v.Elems {
		if !v.Elems[i].Equal(other.Elems[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	if v.Type == nil {
		return "<none>"
	}
	if v.Type.IsBits() {
		return fmt.Sprintf("bits[%d]:%d", v.Type.Width, v.Uint64())
	}
	s := "("
	for i, e := range v.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// ZeroOf builds the all-zero value of t.
func ZeroOf(t *Type) Value {
	switch t.Kind {
	case KindBits:
		return Value{Type: t}
	case KindTuple:
		elems := make([]Value, len(t.Elems))
		for i, et := range t.Elems {
			elems[i] = ZeroOf(et)
		}
		return Value{Type: t, Elems: elems}
	case KindArray:
		elems := make([]Value, t.Size)
		for i := range elems {
			elems[i] = ZeroOf(t.Elem)
		}
		return Value{Type: t, Elems: elems}
	}
	return Value{}
}

// Evaluator executes function graphs and process activations. It is the
// in-repo reference for the semantics a downstream simulator must honor.
type Evaluator struct {
	Pkg *Package
}

func NewEvaluator(p *Package) *Evaluator {
	return &Evaluator{Pkg: p}
}

// EvalFn runs f with keyword arguments by parameter name.
func (e *Evaluator) EvalFn(f *Fn, args map[string]Value) (Value, error) {
	vals := make([]Value, len(f.Nodes))
	bind := func(n *Node) (Value, error) {
		v, ok := args[n.Name]
		if !ok {
			return Value{}, fmt.Errorf("missing argument %q", n.Name)
		}
		return v, nil
	}
	if err := e.run(f, vals, bind); err != nil {
		return Value{}, err
	}
	if f.Ret == NoNode {
		return Value{Type: Tuple()}, nil
	}
	return vals[f.Ret], nil
}

// run evaluates every node in creation order. bind resolves parameters.
func (e *Evaluator) run(f *Fn, vals []Value, bind func(*Node) (Value, error)) error {
	for i := 1; i < len(f.Nodes); i++ {
		n := &f.Nodes[i]
		v, err := e.evalNode(f, n, vals, bind)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	return nil
}

func (e *Evaluator) evalNode(f *Fn, n *Node, vals []Value, bind func(*Node) (Value, error)) (Value, error) {
	arg := func(i int) Value { return vals[n.Args[i]] }
	switch n.Op {
	case OpParam:
		return bind(n)
	case OpLiteral:
		return Value{Type: n.Type, Bits: n.Value}, nil
	case OpNot, OpNeg:
		v, _ := evalUnary(n.Op, n.Type.Width, arg(0).Bits)
		return Value{Type: n.Type, Bits: v}, nil
	case OpSignExt:
		return Value{Type: n.Type, Bits: FromSigned(arg(0).Int64(), n.Type.Width)}, nil
	case OpZeroExt:
		return Value{Type: n.Type, Bits: arg(0).Uint64()}, nil
	case OpBitSlice:
		return Value{Type: n.Type, Bits: (arg(0).Bits >> uint(n.Index)) & mask(n.Type.Width)}, nil
	case OpSel:
		if arg(0).Bits != 0 {
			return arg(2), nil
		}
		return arg(1), nil
	case OpTuple:
		elems := make([]Value, len(n.Args))
		for i := range n.Args {
			elems[i] = arg(i)
		}
		return Value{Type: n.Type, Elems: elems}, nil
	case OpTupleIndex:
		return arg(0).Elems[n.Index], nil
	case OpArray:
		elems := make([]Value, len(n.Args))
		for i := range n.Args {
			elems[i] = arg(i)
		}
		return Value{Type: n.Type, Elems: elems}, nil
	case OpArrayIndex:
		idx := int(arg(1).Uint64())
		elems := arg(0).Elems
		// Out-of-range reads clamp to the last element.
		if idx >= len(elems) {
			idx = len(elems) - 1
		}
		return elems[idx], nil
	case OpArrayUpdate:
		src := arg(0)
		idx := int(arg(1).Uint64())
		elems := append([]Value(nil), src.Elems...)
		if idx < len(elems) {
			elems[idx] = arg(2)
		}
		return Value{Type: src.Type, Elems: elems}, nil
	case OpInvoke:
		callee := e.Pkg.Fn(n.Callee)
		if callee == nil {
			return Value{}, fmt.Errorf("invoke of unknown function %q", n.Callee)
		}
		args := make(map[string]Value, len(n.Args))
		for i, id := range callee.Params {
			args[callee.Node(id).Name] = vals[n.Args[i]]
		}
		return e.EvalFn(callee, args)
	default:
		xn, yn := arg(0), arg(1)
		v, ok := evalBinary(n.Op, xn.Type.Width, xn.Bits, yn.Bits)
		if !ok {
			return Value{}, fmt.Errorf("cannot evaluate op %s", n.Op)
		}
		return Value{Type: n.Type, Bits: v}, nil
	}
}

// RunProc executes one activation of p. FIFO inputs are queues consumed in
// schedule order; direct inputs are sampled once. The returned map holds the
// values enqueued on each output channel, in order.
func (e *Evaluator) RunProc(p *Proc, inputs map[string][]Value) (map[string][]Value, error) {
	byParam := make(map[NodeID]*ProcOp)
	for i := range p.Ops {
		op := &p.Ops[i]
		if op.Kind == ProcDirect || op.Kind == ProcRecv {
			byParam[op.Param] = op
		}
	}

	queues := make(map[string][]Value, len(inputs))
	for name, vals := range inputs {
		queues[name] = append([]Value(nil), vals...)
	}

	f := p.Body
	vals := make([]Value, len(f.Nodes))
	bind := func(n *Node) (Value, error) {
		op, ok := byParam[n.ID]
		if !ok {
			return Value{}, fmt.Errorf("unbound process parameter %q", n.Name)
		}
		// Guard predicates only depend on earlier operations, so they are
		// already evaluated when the parameter is reached.
		if op.Pred != NoNode && vals[op.Pred].Bits == 0 {
			return ZeroOf(n.Type), nil
		}
		q := queues[op.Channel]
		if len(q) == 0 {
			if op.Kind == ProcDirect {
				return Value{}, fmt.Errorf("direct channel %q has no value", op.Channel)
			}
			return Value{}, fmt.Errorf("activation blocked: channel %q is empty", op.Channel)
		}
		v := q[0]
		if op.Kind != ProcDirect {
			queues[op.Channel] = q[1:]
		}
		return v, nil
	}
	if err := e.run(f, vals, bind); err != nil {
		return nil, err
	}

	outputs := make(map[string][]Value)
	for _, c := range p.Channels {
		if c.Dir == DirOutput {
			outputs[c.Name] = []Value{}
		}
	}
	for _, op := range p.Ops {
		if op.Kind != ProcSend {
			continue
		}
		if op.Pred != NoNode && vals[op.Pred].Bits == 0 {
			continue
		}
		outputs[op.Channel] = append(outputs[op.Channel], vals[op.Value])
	}
	return outputs, nil
}
