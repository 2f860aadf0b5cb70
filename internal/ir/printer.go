package ir

import (
	"fmt"
	"sort"
	"strings"
)

// DumpPackage renders the whole package in the textual IR form.
func DumpPackage(p *Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n", p.Name)
	for _, f := range p.Funcs {
		b.WriteString("\n")
		b.WriteString(DumpFn(f))
	}
	for _, pr := range p.Procs {
		b.WriteString("\n")
		b.WriteString(DumpProc(pr))
	}
	return b.String()
}

// DumpFn renders one function. Dead nodes are kept: the dump mirrors the
// graph exactly.
func DumpFn(f *Fn) string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, id := range f.Params {
		n := f.Node(id)
		params[i] = fmt.Sprintf("%s: %s", n.Name, n.Type)
	}
	ret := "()"
	if t := f.RetType(); t != nil {
		ret = t.String()
	}
	fmt.Fprintf(&b, "fn %s(%s) -> %s {\n", f.Name, strings.Join(params, ", "), ret)
	for i := 1; i < len(f.Nodes); i++ {
		n := &f.Nodes[i]
		prefix := "  "
		if n.ID == f.Ret {
			prefix = "  ret "
		}
		fmt.Fprintf(&b, "%s%s: %s = %s\n", prefix, nodeName(f, n.ID), n.Type, nodeExpr(f, n))
	}
	b.WriteString("}\n")
	return b.String()
}

// DumpProc renders one process: its port list then its body.
func DumpProc(p *Proc) string {
	var b strings.Builder
	chans := make([]string, len(p.Channels))
	for i, c := range p.Channels {
		chans[i] = fmt.Sprintf("%s: %s %s %s", c.Name, c.Kind, c.Dir, c.Type)
	}
	fmt.Fprintf(&b, "proc %s(%s) {\n", p.Name, strings.Join(chans, ", "))
	for _, op := range p.Ops {
		pred := "always"
		if op.Pred != NoNode {
			pred = nodeName(p.Body, op.Pred)
		}
		switch op.Kind {
		case ProcDirect:
			fmt.Fprintf(&b, "  direct %s -> %s\n", op.Channel, nodeName(p.Body, op.Param))
		case ProcRecv:
			fmt.Fprintf(&b, "  recv %s -> %s if %s\n", op.Channel, nodeName(p.Body, op.Param), pred)
		case ProcSend:
			fmt.Fprintf(&b, "  send %s <- %s if %s\n", op.Channel, nodeName(p.Body, op.Value), pred)
		}
	}
	body := DumpFn(p.Body)
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	b.WriteString("}\n")
	return b.String()
}

func nodeName(f *Fn, id NodeID) string {
	n := f.Node(id)
	if n == nil {
		return "none"
	}
	if n.Op == OpParam {
		return n.Name
	}
	return fmt.Sprintf("%s.%d", n.Op, n.ID)
}

func nodeExpr(f *Fn, n *Node) string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = nodeName(f, a)
	}
	switch n.Op {
	case OpParam:
		return fmt.Sprintf("param(name=%s)", n.Name)
	case OpLiteral:
		return fmt.Sprintf("literal(value=%d)", n.Value)
	case OpBitSlice:
		return fmt.Sprintf("bit_slice(%s, start=%d, width=%d)", args[0], n.Index, n.Type.Width)
	case OpTupleIndex:
		return fmt.Sprintf("tuple_index(%s, index=%d)", args[0], n.Index)
	case OpSignExt, OpZeroExt:
		return fmt.Sprintf("%s(%s, new_bit_count=%d)", n.Op, args[0], n.Type.Width)
	case OpSel:
		return fmt.Sprintf("sel(%s, cases=[%s])", args[0], strings.Join(args[1:], ", "))
	case OpInvoke:
		return fmt.Sprintf("invoke(%s, to_apply=%s)", strings.Join(args, ", "), n.Callee)
	default:
		return fmt.Sprintf("%s(%s)", n.Op, strings.Join(args, ", "))
	}
}

// SortedFuncNames returns the package's function names in sorted order.
func SortedFuncNames(p *Package) []string {
	names := make([]string, len(p.Funcs))
	for i, f := range p.Funcs {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
