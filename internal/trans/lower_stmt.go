package trans

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/types"
)

func (lo *funcLowerer) lowerStmt(s *ast.Stmt) error {
	switch s.Kind {
	case ast.StmtEmpty:
		return nil
	case ast.StmtBlock:
		lo.pushScope()
		defer lo.popScope()
		for _, st := range s.Data.(ast.BlockData).Stmts {
			if err := lo.lowerStmt(st); err != nil {
				return err
			}
		}
		return nil
	case ast.StmtDecl:
		return lo.lowerDecl(s)
	case ast.StmtExpr:
		x := s.Data.(ast.ExprStmtData).X
		if err := lo.checkSeq(x); err != nil {
			return err
		}
		_, err := lo.lowerExpr(x)
		return err
	case ast.StmtIf:
		return lo.lowerIf(s)
	case ast.StmtSwitch:
		return lo.lowerSwitch(s)
	case ast.StmtFor:
		return lo.lowerFor(s)
	case ast.StmtReturn:
		return lo.lowerReturn(s)
	case ast.StmtBreak:
		return lo.lowerBreak(s)
	case ast.StmtContinue:
		return lo.lowerContinue(s)
	}
	return diag.Errorf(diag.UnsupportedConstruct, s.Span, "unsupported statement")
}

// lowerDecl lowers one declaration group left to right, so earlier names
// are visible to later initializers.
func (lo *funcLowerer) lowerDecl(s *ast.Stmt) error {
	d := s.Data.(ast.DeclData)
	declType, err := lo.t.enc.Resolve(d.Type, lo.bnd)
	if err != nil {
		return err
	}
	for _, v := range d.Vars {
		if declType.Kind == types.KindChannel {
			return diag.Errorf(diag.UnsupportedChannelCapture, v.Span,
				"IO ops should be on channel parameters: channel bound to local %q", v.Name)
		}
		var init value
		switch {
		case v.Init != nil:
			if err := lo.checkSeq(v.Init); err != nil {
				return err
			}
			if init, err = lo.lowerInit(declType, v.Init); err != nil {
				return err
			}
		case v.ListInit != nil:
			if init, err = lo.lowerInitList(declType, v.ListInit); err != nil {
				return err
			}
		case len(v.CtorArgs) > 0:
			for _, a := range v.CtorArgs {
				if err := lo.checkSeq(a); err != nil {
					return err
				}
			}
			if init, err = lo.constructValue(declType, v.CtorArgs, v.Span); err != nil {
				return err
			}
		default:
			if init, err = lo.defaultValue(declType, v.Span); err != nil {
				return err
			}
		}
		slot := &varSlot{name: v.Name, typ: declType, val: init.id}
		lo.define(v.Name, &binding{lv: lvalue{slot: slot}, typ: declType})
	}
	return nil
}

func (lo *funcLowerer) lowerIf(s *ast.Stmt) error {
	d := s.Data.(ast.IfData)
	if err := lo.checkSeq(d.Cond); err != nil {
		return err
	}
	c, err := lo.lowerCond(d.Cond)
	if err != nil {
		return err
	}

	lo.conds = append(lo.conds, c.id)
	err = lo.lowerStmt(d.Then)
	lo.conds = lo.conds[:len(lo.conds)-1]
	if err != nil {
		return err
	}

	if d.Else != nil {
		notC := lo.b.NotBit(c.id)
		lo.conds = append(lo.conds, notC)
		err = lo.lowerStmt(d.Else)
		lo.conds = lo.conds[:len(lo.conds)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

// lowerSwitch evaluates the subject once, runs case bodies in textual order
// under accumulated match conditions, and models break with a frame
// predicate. The default label matches when no case does, regardless of its
// textual position.
func (lo *funcLowerer) lowerSwitch(s *ast.Stmt) error {
	d := s.Data.(ast.SwitchData)
	if err := lo.checkSeq(d.Subject); err != nil {
		return err
	}
	subj, err := lo.lowerExpr(d.Subject)
	if err != nil {
		return err
	}
	if !subj.typ.IsScalar() {
		return diag.Errorf(diag.ShapeTypeUnknown, d.Subject.Span, "switch subject of type %s", subj.typ)
	}

	matches := make([]ir.NodeID, len(d.Cases))
	for i, c := range d.Cases {
		if c.Value == nil {
			continue
		}
		cv, err := lo.lowerExpr(c.Value)
		if err != nil {
			return err
		}
		cx, cy, _, err := lo.usualConvert(subj, cv, c.Span)
		if err != nil {
			return err
		}
		matches[i] = lo.b.Binary(ir.OpEq, cx.id, cy.id)
	}
	for i, c := range d.Cases {
		if c.Value != nil {
			continue
		}
		def := lo.b.Bool(true)
		for j := range d.Cases {
			if d.Cases[j].Value != nil {
				def = lo.b.And(def, lo.b.NotBit(matches[j]))
			}
		}
		matches[i] = def
	}

	fr := &frame{kind: frameSwitch, brk: lo.b.Bool(false)}
	lo.frames = append(lo.frames, fr)
	lo.pushScope()
	defer func() {
		lo.popScope()
		lo.frames = lo.frames[:len(lo.frames)-1]
	}()

	entered := lo.b.Bool(false)
	for i, c := range d.Cases {
		entered = lo.orBit(entered, matches[i])
		lo.conds = append(lo.conds, entered)
		fr.caseDepth = len(lo.conds)
		for _, st := range c.Body {
			if err := lo.lowerStmt(st); err != nil {
				lo.conds = lo.conds[:len(lo.conds)-1]
				return err
			}
		}
		lo.conds = lo.conds[:len(lo.conds)-1]
	}
	return nil
}

func (lo *funcLowerer) lowerReturn(s *ast.Stmt) error {
	d := s.Data.(ast.ReturnData)
	fire := lo.effCond()
	if lo.retType.Kind != types.KindVoid {
		if d.Value == nil {
			return diag.Errorf(diag.UnsupportedConstruct, s.Span, "return without a value")
		}
		if err := lo.checkSeq(d.Value); err != nil {
			return err
		}
		v, err := lo.lowerInit(lo.retType, d.Value)
		if err != nil {
			return err
		}
		lo.retVal = lo.b.Select(fire, v.id, lo.retVal)
	}
	lo.returned = lo.orBit(lo.returned, fire)
	return nil
}

// lowerBreak fires the nearest loop or switch frame. Inside a switch a
// break must be unconditional relative to its case.
func (lo *funcLowerer) lowerBreak(s *ast.Stmt) error {
	if len(lo.frames) == 0 {
		return diag.Errorf(diag.UnsupportedConstruct, s.Span, "break outside a loop or switch")
	}
	fr := lo.frames[len(lo.frames)-1]
	if fr.kind == frameSwitch {
		for _, c := range lo.conds[fr.caseDepth:] {
			if _, ok := lo.b.LiteralValue(c); !ok {
				return diag.Errorf(diag.UnsupportedConditionalBrk, s.Span,
					"Conditional breaks are not supported")
			}
		}
	}
	fr.brk = lo.orBit(fr.brk, lo.effCond())
	return nil
}

func (lo *funcLowerer) lowerContinue(s *ast.Stmt) error {
	for i := len(lo.frames) - 1; i >= 0; i-- {
		if lo.frames[i].kind == frameLoop {
			fr := lo.frames[i]
			fr.cont = lo.orBit(fr.cont, lo.effCond())
			return nil
		}
	}
	return diag.Errorf(diag.UnsupportedConstruct, s.Span, "continue outside a loop")
}
