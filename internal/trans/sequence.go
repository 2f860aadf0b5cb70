package trans

import (
	"strconv"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/source"
	"sluice/internal/types"
)

// seqEffect is one access or modification of a storage location. The
// location is a root name followed by path segments: field names, literal
// index values, or "?" for an index that is not a compile-time constant.
type seqEffect struct {
	loc   []string
	write bool
	span  source.Span
}

// checkSeq rejects expressions whose result depends on evaluation order:
// a modification and another access of overlapping locations in operand
// positions the language leaves unsequenced. Assignments sequence their
// right side before the left, and the logical operators sequence left
// before right, so neither pair is cross-checked.
func (lo *funcLowerer) checkSeq(e *ast.Expr) error {
	if e == nil {
		return nil
	}
	_, err := lo.seqWalk(e)
	return err
}

func (lo *funcLowerer) seqWalk(e *ast.Expr) ([]seqEffect, error) {
	switch e.Kind {
	case ast.ExprIntLit, ast.ExprBoolLit, ast.ExprThis:
		return nil, nil

	case ast.ExprParen:
		return lo.seqWalk(e.Data.(ast.ParenData).X)

	case ast.ExprName:
		name := e.Data.(ast.NameData).Name
		if lo.lookup(name) == nil {
			return nil, nil // template value or unknown; lowering diagnoses
		}
		return []seqEffect{{loc: []string{name}, span: e.Span}}, nil

	case ast.ExprCast:
		return lo.seqWalk(e.Data.(ast.CastData).X)

	case ast.ExprInitList:
		var effs []seqEffect
		for _, el := range e.Data.(ast.InitListData).Elems {
			sub, err := lo.seqWalk(el)
			if err != nil {
				return nil, err
			}
			effs = append(effs, sub...)
		}
		return effs, nil

	case ast.ExprUnary:
		d := e.Data.(ast.UnaryData)
		effs, err := lo.seqWalk(d.X)
		if err != nil {
			return nil, err
		}
		if d.Op.Mutates() {
			if loc, ok := seqLoc(d.X); ok {
				effs = append(effs, seqEffect{loc: loc, write: true, span: e.Span})
			}
		}
		return effs, nil

	case ast.ExprBinary:
		d := e.Data.(ast.BinaryData)
		left, err := lo.seqWalk(d.X)
		if err != nil {
			return nil, err
		}
		right, err := lo.seqWalk(d.Y)
		if err != nil {
			return nil, err
		}
		if d.Op != ast.OpLAnd && d.Op != ast.OpLOr {
			if err := seqConflict(left, right); err != nil {
				return nil, err
			}
		}
		return append(left, right...), nil

	case ast.ExprTernary:
		d := e.Data.(ast.TernaryData)
		cond, err := lo.seqWalk(d.Cond)
		if err != nil {
			return nil, err
		}
		then, err := lo.seqWalk(d.Then)
		if err != nil {
			return nil, err
		}
		els, err := lo.seqWalk(d.Else)
		if err != nil {
			return nil, err
		}
		// The arms are unsequenced against each other and neither arm is
		// sequenced after the condition.
		if err := seqConflict(then, els); err != nil {
			return nil, err
		}
		if err := seqConflict(cond, then); err != nil {
			return nil, err
		}
		if err := seqConflict(cond, els); err != nil {
			return nil, err
		}
		return append(cond, append(then, els...)...), nil

	case ast.ExprAssign:
		d := e.Data.(ast.AssignData)
		effs, err := lo.seqWalk(d.RHS)
		if err != nil {
			return nil, err
		}
		lhs, err := lo.seqWalk(d.LHS)
		if err != nil {
			return nil, err
		}
		effs = append(effs, lhs...)
		if loc, ok := seqLoc(d.LHS); ok {
			effs = append(effs, seqEffect{loc: loc, write: true, span: e.Span})
		}
		return effs, nil

	case ast.ExprMember:
		return lo.seqAccess(e, e.Data.(ast.MemberData).X, nil)

	case ast.ExprIndex:
		d := e.Data.(ast.IndexData)
		return lo.seqAccess(e, d.X, d.I)

	case ast.ExprCall:
		d := e.Data.(ast.CallData)
		return lo.seqCall(e, d.Args, lo.t.unit.FindFunc(d.Name), nil)

	case ast.ExprMethodCall:
		d := e.Data.(ast.MethodCallData)
		if ae := d.Recv.Unparen(); ae.Kind == ast.ExprName {
			if bnd := lo.lookup(ae.Data.(ast.NameData).Name); bnd != nil && bnd.chanName != "" {
				// Channel ops are ordered effects on the channel itself.
				effs, err := lo.seqCall(e, d.Args, nil, nil)
				if err != nil {
					return nil, err
				}
				return append(effs, seqEffect{loc: []string{bnd.chanName}, write: true, span: e.Span}), nil
			}
		}
		var recv []seqEffect
		if loc, ok := seqLoc(d.Recv); ok {
			recv = append(recv, seqEffect{loc: loc, write: lo.methodMutates(d.Recv, d.Name), span: e.Span})
		} else {
			sub, err := lo.seqWalk(d.Recv)
			if err != nil {
				return nil, err
			}
			recv = sub
		}
		return lo.seqCall(e, d.Args, nil, recv)
	}
	return nil, nil
}

// seqAccess handles member and index chains: the whole chain is one read of
// its location, plus whatever the index expressions themselves do.
func (lo *funcLowerer) seqAccess(e, base *ast.Expr, idx *ast.Expr) ([]seqEffect, error) {
	var effs []seqEffect
	if idx != nil {
		sub, err := lo.seqWalk(idx)
		if err != nil {
			return nil, err
		}
		effs = sub
	}
	if loc, ok := seqLoc(e); ok {
		return append(effs, seqEffect{loc: loc, span: e.Span}), nil
	}
	sub, err := lo.seqWalk(base)
	if err != nil {
		return nil, err
	}
	return append(effs, sub...), nil
}

// seqCall checks a call's arguments. With two or more arguments, no
// argument may carry a modification at all: the arguments are mutually
// unsequenced and also unsequenced against the callee's own effects, so
// any write is rejected rather than searched for a witness access.
func (lo *funcLowerer) seqCall(e *ast.Expr, args []*ast.Expr, callee *ast.FuncDecl, extra []seqEffect) ([]seqEffect, error) {
	effs := extra
	for i, a := range args {
		sub, err := lo.seqWalk(a)
		if err != nil {
			return nil, err
		}
		if len(args) >= 2 {
			for _, ef := range sub {
				if ef.write {
					return nil, diag.Errorf(diag.UnsequencedEffect, ef.span,
						"unsequenced modification and access to %q", ef.loc[0])
				}
			}
		}
		if callee != nil && i < len(callee.Params) {
			p := callee.Params[i]
			if p.ByRef && !p.Const {
				if writes := lo.t.paramWrites(callee); writes[i] {
					if loc, ok := seqLoc(a); ok {
						sub = append(sub, seqEffect{loc: loc, write: true, span: a.Span})
					}
				}
			}
		}
		effs = append(effs, sub...)
	}
	if err := seqConflict(extra, effs[len(extra):]); err != nil {
		return nil, err
	}
	return effs, nil
}

// seqConflict reports an error when the two unsequenced groups touch
// overlapping locations and at least one side modifies.
func seqConflict(a, b []seqEffect) error {
	for i := range a {
		for j := range b {
			if !a[i].write && !b[j].write {
				continue
			}
			if !locOverlap(a[i].loc, b[j].loc) {
				continue
			}
			ef := &a[i]
			if !ef.write {
				ef = &b[j]
			}
			return diag.Errorf(diag.UnsequencedEffect, ef.span,
				"unsequenced modification and access to %q", ef.loc[0])
		}
	}
	return nil
}

// locOverlap reports whether one location is a prefix of the other, with
// "?" matching any segment.
func locOverlap(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] && a[i] != "?" && b[i] != "?" {
			return false
		}
	}
	return true
}

// seqLoc resolves an lvalue-shaped expression to its location. Non-constant
// indices become "?".
func seqLoc(e *ast.Expr) ([]string, bool) {
	e = e.Unparen()
	switch e.Kind {
	case ast.ExprName:
		return []string{e.Data.(ast.NameData).Name}, true
	case ast.ExprThis:
		return []string{"this"}, true
	case ast.ExprUnary:
		d := e.Data.(ast.UnaryData)
		if d.Op == ast.UnDeref {
			return seqLoc(d.X)
		}
	case ast.ExprMember:
		d := e.Data.(ast.MemberData)
		if base, ok := seqLoc(d.X); ok {
			return append(base, d.Field), true
		}
	case ast.ExprIndex:
		d := e.Data.(ast.IndexData)
		base, ok := seqLoc(d.X)
		if !ok {
			return nil, false
		}
		if il := d.I.Unparen(); il.Kind == ast.ExprIntLit {
			return append(base, strconv.FormatInt(il.Data.(ast.IntLitData).Value, 10)), true
		}
		return append(base, "?"), true
	}
	return nil, false
}

// methodMutates reports whether calling name on recv can modify the
// receiver. When the receiver's type or the method cannot be resolved
// statically the conservative answer is true.
func (lo *funcLowerer) methodMutates(recv *ast.Expr, name string) bool {
	t := lo.seqRecvType(recv)
	if t == nil || t.Kind != types.KindStruct {
		return true
	}
	decl, _, err := lo.t.recordDecl(t.Struct)
	if err != nil {
		return true
	}
	m := lo.t.findMethod(decl, name)
	if m == nil {
		return true
	}
	return lo.t.methodWrites(t.Struct, m)
}

// seqRecvType resolves a receiver expression's static type without lowering
// anything; nil when the expression is not a plain lvalue chain.
func (lo *funcLowerer) seqRecvType(e *ast.Expr) *types.Type {
	e = e.Unparen()
	switch e.Kind {
	case ast.ExprName:
		name := e.Data.(ast.NameData).Name
		if bnd := lo.lookup(name); bnd != nil {
			return bnd.typ
		}
		if lo.recv != nil {
			if fi := lo.recv.typ.FieldIndex(name); fi >= 0 {
				return lo.recv.typ.Struct.Fields[fi].Type
			}
		}
	case ast.ExprThis:
		if lo.recv != nil {
			return lo.recv.typ
		}
	case ast.ExprMember:
		d := e.Data.(ast.MemberData)
		base := lo.seqRecvType(d.X)
		if base == nil || base.Kind != types.KindStruct {
			return nil
		}
		if fi := base.FieldIndex(d.Field); fi >= 0 {
			return base.Struct.Fields[fi].Type
		}
	case ast.ExprIndex:
		d := e.Data.(ast.IndexData)
		base := lo.seqRecvType(d.X)
		if base != nil && base.Kind == types.KindArray {
			return base.Elem
		}
	}
	return nil
}

// methodWrites summarizes whether a method modifies its receiver: a write to
// this, or to a name that resolves to a field rather than a parameter. While
// the summary is being computed (mutual recursion) it stands at true.
func (t *Translator) methodWrites(info *types.StructInfo, fd *ast.FuncDecl) bool {
	if w, ok := t.mutMethods[fd]; ok {
		return w
	}
	t.mutMethods[fd] = true

	written := make(map[string]bool)
	t.stmtWrites(fd.Body, written)

	w := written["this"]
	if !w {
		params := make(map[string]bool, len(fd.Params))
		for _, p := range fd.Params {
			params[p.Name] = true
		}
		for _, f := range info.Fields {
			if written[f.Name] && !params[f.Name] {
				w = true
				break
			}
		}
	}
	t.mutMethods[fd] = w
	return w
}

// paramWrites summarizes which parameters a function writes through, by
// position. Calls passing a parameter onward by mutable reference count
// transitively. While a summary is being computed (mutual recursion) the
// conservative answer, every mutable reference written, stands in.
func (t *Translator) paramWrites(fd *ast.FuncDecl) []bool {
	if w, ok := t.refWrites[fd]; ok {
		return w
	}
	conservative := make([]bool, len(fd.Params))
	for i, p := range fd.Params {
		conservative[i] = p.ByRef && !p.Const
	}
	t.refWrites[fd] = conservative

	written := make(map[string]bool)
	t.stmtWrites(fd.Body, written)

	w := make([]bool, len(fd.Params))
	for i, p := range fd.Params {
		w[i] = p.ByRef && !p.Const && written[p.Name]
	}
	t.refWrites[fd] = w
	return w
}

func (t *Translator) stmtWrites(s *ast.Stmt, out map[string]bool) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtDecl:
		for _, v := range s.Data.(ast.DeclData).Vars {
			t.exprWrites(v.Init, out)
			t.exprWrites(v.ListInit, out)
			for _, a := range v.CtorArgs {
				t.exprWrites(a, out)
			}
		}
	case ast.StmtExpr:
		t.exprWrites(s.Data.(ast.ExprStmtData).X, out)
	case ast.StmtBlock:
		for _, st := range s.Data.(ast.BlockData).Stmts {
			t.stmtWrites(st, out)
		}
	case ast.StmtIf:
		d := s.Data.(ast.IfData)
		t.exprWrites(d.Cond, out)
		t.stmtWrites(d.Then, out)
		t.stmtWrites(d.Else, out)
	case ast.StmtSwitch:
		d := s.Data.(ast.SwitchData)
		t.exprWrites(d.Subject, out)
		for _, c := range d.Cases {
			for _, st := range c.Body {
				t.stmtWrites(st, out)
			}
		}
	case ast.StmtFor:
		d := s.Data.(ast.ForData)
		t.stmtWrites(d.Init, out)
		t.exprWrites(d.Cond, out)
		t.stmtWrites(d.Inc, out)
		t.stmtWrites(d.Body, out)
	case ast.StmtReturn:
		t.exprWrites(s.Data.(ast.ReturnData).Value, out)
	}
}

func (t *Translator) exprWrites(e *ast.Expr, out map[string]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprParen:
		t.exprWrites(e.Data.(ast.ParenData).X, out)
	case ast.ExprCast:
		t.exprWrites(e.Data.(ast.CastData).X, out)
	case ast.ExprInitList:
		for _, el := range e.Data.(ast.InitListData).Elems {
			t.exprWrites(el, out)
		}
	case ast.ExprUnary:
		d := e.Data.(ast.UnaryData)
		t.exprWrites(d.X, out)
		if d.Op.Mutates() {
			markRoot(d.X, out)
		}
	case ast.ExprBinary:
		d := e.Data.(ast.BinaryData)
		t.exprWrites(d.X, out)
		t.exprWrites(d.Y, out)
	case ast.ExprTernary:
		d := e.Data.(ast.TernaryData)
		t.exprWrites(d.Cond, out)
		t.exprWrites(d.Then, out)
		t.exprWrites(d.Else, out)
	case ast.ExprAssign:
		d := e.Data.(ast.AssignData)
		t.exprWrites(d.RHS, out)
		t.exprWrites(d.LHS, out)
		markRoot(d.LHS, out)
	case ast.ExprMember:
		t.exprWrites(e.Data.(ast.MemberData).X, out)
	case ast.ExprIndex:
		d := e.Data.(ast.IndexData)
		t.exprWrites(d.X, out)
		t.exprWrites(d.I, out)
	case ast.ExprCall:
		d := e.Data.(ast.CallData)
		callee := t.unit.FindFunc(d.Name)
		var writes []bool
		if callee != nil {
			writes = t.paramWrites(callee)
		}
		for i, a := range d.Args {
			t.exprWrites(a, out)
			if writes != nil && i < len(writes) && writes[i] {
				markRoot(a, out)
			}
		}
	case ast.ExprMethodCall:
		d := e.Data.(ast.MethodCallData)
		t.exprWrites(d.Recv, out)
		if d.Name != "read" {
			markRoot(d.Recv, out)
		}
		for _, a := range d.Args {
			t.exprWrites(a, out)
		}
	}
}

func markRoot(e *ast.Expr, out map[string]bool) {
	if loc, ok := seqLoc(e); ok {
		out[loc[0]] = true
	}
}
