package ir

import (
	"fmt"
)

// InlineAll recursively substitutes every invoke edge with a copy of the
// callee's body until no call edges remain. Functions and process bodies are
// replaced by new flattened graphs; already-flat graphs pass through
// untouched, so the pass is idempotent.
func (p *Package) InlineAll() error {
	inl := &inliner{pkg: p, flat: make(map[string]*Fn)}
	for i, f := range p.Funcs {
		nf, err := inl.flatten(f)
		if err != nil {
			return err
		}
		p.Funcs[i] = nf
	}
	for _, pr := range p.Procs {
		if !hasInvokes(pr.Body) {
			continue
		}
		nf, remap, err := inl.flattenWithMap(pr.Body)
		if err != nil {
			return err
		}
		pr.Body = nf
		for i := range pr.Ops {
			op := &pr.Ops[i]
			op.Param = remap[op.Param]
			op.Value = remap[op.Value]
			op.Pred = remap[op.Pred]
		}
	}
	return nil
}

func hasInvokes(f *Fn) bool {
	for i := range f.Nodes {
		if f.Nodes[i].Op == OpInvoke {
			return true
		}
	}
	return false
}

type inliner struct {
	pkg  *Package
	flat map[string]*Fn
	// inProgress guards against call cycles, which the source subset should
	// make impossible.
	inProgress map[string]bool
}

func (inl *inliner) flatten(f *Fn) (*Fn, error) {
	if !hasInvokes(f) {
		return f, nil
	}
	if cached, ok := inl.flat[f.Name]; ok {
		return cached, nil
	}
	nf, _, err := inl.flattenWithMap(f)
	if err != nil {
		return nil, err
	}
	inl.flat[f.Name] = nf
	return nf, nil
}

// flattenWithMap rebuilds f without invoke nodes and returns the mapping
// from old node IDs to new ones.
func (inl *inliner) flattenWithMap(f *Fn) (*Fn, []NodeID, error) {
	if inl.inProgress == nil {
		inl.inProgress = make(map[string]bool)
	}
	if inl.inProgress[f.Name] {
		return nil, nil, fmt.Errorf("recursive call involving %q", f.Name)
	}
	inl.inProgress[f.Name] = true
	defer delete(inl.inProgress, f.Name)

	nf := &Fn{Name: f.Name, Nodes: []Node{{Op: OpInvalid}}}
	remap := make([]NodeID, len(f.Nodes))
	for i := 1; i < len(f.Nodes); i++ {
		n := &f.Nodes[i]
		if n.Op != OpInvoke {
			remap[i] = copyNode(nf, n, remap)
			continue
		}
		callee := inl.pkg.Fn(n.Callee)
		if callee == nil {
			return nil, nil, fmt.Errorf("invoke of unknown function %q", n.Callee)
		}
		flatCallee, err := inl.flatten(callee)
		if err != nil {
			return nil, nil, err
		}
		remap[i] = spliceBody(nf, flatCallee, n, remap)
	}
	nf.Ret = remap[f.Ret]
	return nf, remap, nil
}

// copyNode appends a renamed copy of n to dst using remap for arguments.
func copyNode(dst *Fn, n *Node, remap []NodeID) NodeID {
	nn := *n
	nn.ID = NodeID(len(dst.Nodes))
	if len(n.Args) > 0 {
		nn.Args = make([]NodeID, len(n.Args))
		for i, a := range n.Args {
			nn.Args[i] = remap[a]
		}
	}
	dst.Nodes = append(dst.Nodes, nn)
	if nn.Op == OpParam {
		dst.Params = append(dst.Params, nn.ID)
	}
	return nn.ID
}

// spliceBody copies the callee graph into dst, substituting its parameters
// with the invoke arguments, and returns the node standing for the result.
func spliceBody(dst *Fn, callee *Fn, invoke *Node, callerRemap []NodeID) NodeID {
	sub := make([]NodeID, len(callee.Nodes))
	paramPos := make(map[NodeID]int, len(callee.Params))
	for i, id := range callee.Params {
		paramPos[id] = i
	}
	for i := 1; i < len(callee.Nodes); i++ {
		n := &callee.Nodes[i]
		if pos, ok := paramPos[n.ID]; ok {
			sub[i] = callerRemap[invoke.Args[pos]]
			continue
		}
		nn := *n
		nn.ID = NodeID(len(dst.Nodes))
		if len(n.Args) > 0 {
			nn.Args = make([]NodeID, len(n.Args))
			for j, a := range n.Args {
				nn.Args[j] = sub[a]
			}
		}
		dst.Nodes = append(dst.Nodes, nn)
		sub[i] = nn.ID
	}
	return sub[callee.Ret]
}
