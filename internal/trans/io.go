package trans

import (
	"fmt"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/manifest"
	"sluice/internal/source"
	"sluice/internal/types"
)

// ioChannel is one channel endpoint of the entry function.
type ioChannel struct {
	name string
	elem *types.Type
}

// ioOp is one recorded channel operation, in source evaluation order.
type ioOp struct {
	kind    ir.ProcOpKind
	channel string
	// pred is the activation condition at the op site.
	pred ir.NodeID
	// value is the receive parameter node or the send payload node.
	value ir.NodeID
	elem  *types.Type
	span  source.Span
}

// ioRecorder collects the channel surface of one lowered entry.
type ioRecorder struct {
	channels []ioChannel
	ops      []*ioOp
	params   []valueParam
	retType  *types.Type
}

func (r *ioRecorder) addChannel(name string, elem *types.Type) {
	r.channels = append(r.channels, ioChannel{name: name, elem: elem})
}

func (r *ioRecorder) channel(name string) *ioChannel {
	for i := range r.channels {
		if r.channels[i].name == name {
			return &r.channels[i]
		}
	}
	return nil
}

// lowerChannelOp lowers ch.read() and ch.write(v). The predicate node is
// created before the receive parameter, so a process activation can evaluate
// guards before binding the dequeued value.
func (lo *funcLowerer) lowerChannelOp(e *ast.Expr, bnd *binding, d ast.MethodCallData) (value, error) {
	if lo.inOperator {
		return value{}, diag.Errorf(diag.UnsupportedIOInOperator, e.Span,
			"IO ops in operator calls are not supported")
	}
	if lo.io == nil {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span,
			"IO op outside a translated entry")
	}
	elem := bnd.typ.Elem
	switch d.Name {
	case "read":
		if len(d.Args) != 0 {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "read takes no arguments")
		}
		pred := lo.effCond()
		id := lo.b.Param(fmt.Sprintf("%s__%d", bnd.chanName, len(lo.io.ops)), types.Encode(elem))
		lo.io.ops = append(lo.io.ops, &ioOp{
			kind: ir.ProcRecv, channel: bnd.chanName, pred: pred, value: id, elem: elem, span: e.Span,
		})
		return value{id: id, typ: elem}, nil
	case "write":
		if len(d.Args) != 1 {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "write takes one argument")
		}
		pred := lo.effCond()
		v, err := lo.lowerInit(elem, d.Args[0])
		if err != nil {
			return value{}, err
		}
		lo.io.ops = append(lo.io.ops, &ioOp{
			kind: ir.ProcSend, channel: bnd.chanName, pred: pred, value: v.id, elem: elem, span: e.Span,
		})
		return value{typ: types.Void}, nil
	}
	return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span,
		"channel has no operation %q; use read or write", d.Name)
}

// predIsTrue reports whether an op predicate folded to the constant 1.
func predIsTrue(fn *ir.Fn, pred ir.NodeID) bool {
	n := fn.Node(pred)
	return n.IsLiteral() && n.Value == 1
}

// packFunctionIO rewrites the entry graph into its function-mode shape:
// each channel with receives becomes one parameter (the element type for a
// single op, a tuple otherwise) and the return value grows one entry per op
// in schedule order: a bare value for an unconditional receive,
// (value, valid) for a conditional one, (value, fired) for a send with the
// value masked to zero when not fired.
func packFunctionIO(fn *ir.Fn, rec *ioRecorder) (*ir.Fn, error) {
	if rec == nil || len(rec.ops) == 0 {
		return fn, nil
	}

	recvIdx := make(map[ir.NodeID]bool)
	var chanOrder []string
	perChan := make(map[string][]*ioOp)
	for _, op := range rec.ops {
		if op.kind != ir.ProcRecv {
			continue
		}
		recvIdx[op.value] = true
		if len(perChan[op.channel]) == 0 {
			chanOrder = append(chanOrder, op.channel)
		}
		perChan[op.channel] = append(perChan[op.channel], op)
	}

	nf := &ir.Fn{Name: fn.Name, Nodes: []ir.Node{{Op: ir.OpInvalid}}}
	remap := make([]ir.NodeID, len(fn.Nodes))
	add := func(n ir.Node) ir.NodeID {
		n.ID = ir.NodeID(len(nf.Nodes))
		nf.Nodes = append(nf.Nodes, n)
		if n.Op == ir.OpParam {
			nf.Params = append(nf.Params, n.ID)
		}
		return n.ID
	}

	// Value parameters keep their order and names.
	for _, pid := range fn.Params {
		if recvIdx[pid] {
			continue
		}
		p := fn.Node(pid)
		remap[pid] = add(ir.Node{Op: ir.OpParam, Type: p.Type, Name: p.Name})
	}
	// One parameter per receiving channel.
	for _, ch := range chanOrder {
		ops := perChan[ch]
		if len(ops) == 1 {
			remap[ops[0].value] = add(ir.Node{Op: ir.OpParam, Type: types.Encode(ops[0].elem), Name: ch})
			continue
		}
		elems := make([]*ir.Type, len(ops))
		for i, op := range ops {
			elems[i] = types.Encode(op.elem)
		}
		tp := add(ir.Node{Op: ir.OpParam, Type: ir.Tuple(elems...), Name: ch})
		for i, op := range ops {
			remap[op.value] = add(ir.Node{Op: ir.OpTupleIndex, Type: elems[i], Args: []ir.NodeID{tp}, Index: i})
		}
	}

	for i := 1; i < len(fn.Nodes); i++ {
		n := &fn.Nodes[i]
		if n.Op == ir.OpParam {
			continue // already placed
		}
		nn := *n
		if len(n.Args) > 0 {
			nn.Args = make([]ir.NodeID, len(n.Args))
			for j, a := range n.Args {
				nn.Args[j] = remap[a]
			}
		}
		remap[i] = add(nn)
	}

	var elems []ir.NodeID
	if rec.retType != nil && rec.retType.Kind != types.KindVoid && fn.Ret != ir.NoNode {
		elems = append(elems, remap[fn.Ret])
	}
	one := add(ir.Node{Op: ir.OpLiteral, Type: ir.Bits(1), Value: 1})
	for _, op := range rec.ops {
		val := remap[op.value]
		uncond := predIsTrue(fn, op.pred)
		pred := remap[op.pred]
		if uncond {
			pred = one
		}
		masked := val
		if !uncond {
			zero := zeroOfType(add, nf.Node(val).Type)
			masked = add(ir.Node{Op: ir.OpSel, Type: nf.Node(val).Type, Args: []ir.NodeID{pred, zero, val}})
		}
		if op.kind == ir.ProcRecv && uncond {
			elems = append(elems, val)
		} else {
			elems = append(elems, tupleOf(add, nf, masked, pred))
		}
	}

	ret := elems[0]
	if len(elems) > 1 {
		ret = tupleOf(add, nf, elems...)
	}
	nf.Ret = ret
	return nf, nil
}

func tupleOf(add func(ir.Node) ir.NodeID, fn *ir.Fn, elems ...ir.NodeID) ir.NodeID {
	ts := make([]*ir.Type, len(elems))
	for i, e := range elems {
		ts[i] = fn.Node(e).Type
	}
	return add(ir.Node{Op: ir.OpTuple, Type: ir.Tuple(ts...), Args: elems})
}

// zeroOfType builds an all-zero aggregate the long way, for masked
// aggregate-typed channel elements.
func zeroOfType(add func(ir.Node) ir.NodeID, t *ir.Type) ir.NodeID {
	switch t.Kind {
	case ir.KindBits:
		return add(ir.Node{Op: ir.OpLiteral, Type: t, Value: 0})
	case ir.KindTuple:
		elems := make([]ir.NodeID, len(t.Elems))
		for i, et := range t.Elems {
			elems[i] = zeroOfType(add, et)
		}
		return add(ir.Node{Op: ir.OpTuple, Type: t, Args: elems})
	default:
		elems := make([]ir.NodeID, t.Size)
		for i := range elems {
			elems[i] = zeroOfType(add, t.Elem)
		}
		return add(ir.Node{Op: ir.OpArray, Type: t, Args: elems})
	}
}

// buildProc assembles the hardware process for block mode: every function
// parameter must match a manifest channel by name and vice versa; value
// parameters become direct-in samples and channel operations become the
// scheduled op list.
func (t *Translator) buildProc(top *ast.FuncDecl, fn *ir.Fn, rec *ioRecorder, blk *manifest.Block) (*ir.Proc, error) {
	if rec.retType != nil && rec.retType.Kind != types.KindVoid {
		return nil, diag.Errorf(diag.UnsupportedConstruct, top.Span,
			"block entry %q must return void", top.Name)
	}

	proc := &ir.Proc{Name: blk.Name, Body: fn}
	used := make(map[string]bool, len(blk.Channels))

	for _, vp := range rec.params {
		mc := blk.Channel(vp.name)
		if mc == nil {
			return nil, diag.Errorf(diag.NotFoundChan, top.Span,
				"parameter %q has no channel in the manifest", vp.name)
		}
		if mc.IRDir() != ir.DirInput || mc.IRKind() != ir.KindDirect {
			return nil, diag.Errorf(diag.NotFoundChan, top.Span,
				"value parameter %q requires a direct input channel", vp.name)
		}
		used[vp.name] = true
		proc.Channels = append(proc.Channels, ir.Channel{
			Name: vp.name, Dir: ir.DirInput, Kind: ir.KindDirect, Type: types.Encode(vp.typ),
		})
		proc.Ops = append(proc.Ops, ir.ProcOp{Kind: ir.ProcDirect, Channel: vp.name, Param: vp.id})
	}

	for _, ch := range rec.channels {
		mc := blk.Channel(ch.name)
		if mc == nil {
			return nil, diag.Errorf(diag.NotFoundChan, top.Span,
				"channel parameter %q has no channel in the manifest", ch.name)
		}
		kind := mc.IRKind()
		if t.opts.AllSingleValue {
			kind = ir.KindDirect
		}
		used[ch.name] = true
		proc.Channels = append(proc.Channels, ir.Channel{
			Name: ch.name, Dir: mc.IRDir(), Kind: kind, Type: types.Encode(ch.elem),
		})
	}

	for _, mc := range blk.Channels {
		if !used[mc.Name] {
			return nil, diag.Errorf(diag.NotFoundChan, top.Span,
				"manifest channel %q has no matching parameter", mc.Name)
		}
	}

	for _, op := range rec.ops {
		c := proc.Channel(op.channel)
		if op.kind == ir.ProcRecv && c.Dir != ir.DirInput {
			return nil, diag.Errorf(diag.UnsupportedConstruct, op.span,
				"read on output channel %q", op.channel)
		}
		if op.kind == ir.ProcSend && c.Dir != ir.DirOutput {
			return nil, diag.Errorf(diag.UnsupportedConstruct, op.span,
				"write on input channel %q", op.channel)
		}
		pred := op.pred
		if predIsTrue(fn, pred) {
			pred = ir.NoNode
		}
		po := ir.ProcOp{Kind: op.kind, Channel: op.channel, Pred: pred}
		if op.kind == ir.ProcRecv {
			po.Param = op.value
		} else {
			po.Value = op.value
		}
		proc.Ops = append(proc.Ops, po)
	}
	return proc, nil
}
