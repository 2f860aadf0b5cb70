package trans

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/pragma"
)

// lowerFor unrolls an annotated for loop: the induction variable is
// interpreted at compile time, so the loop condition must fold to a literal
// each iteration. Break, continue, and return inside the body mask through
// predicates, not control flow.
func (lo *funcLowerer) lowerFor(s *ast.Stmt) error {
	pos := lo.t.files.Resolve(s.Span)
	if lo.t.pragmas.At(s.Span.File, pos.Line) != pragma.KindUnroll {
		return diag.Errorf(diag.BoundNotUnrolled, s.Span, "only unrolled loops are supported")
	}
	d := s.Data.(ast.ForData)
	if d.Init == nil {
		return diag.Errorf(diag.BoundMissingClause, s.Span, "unrolled loop must have an initializer")
	}
	if d.Cond == nil {
		return diag.Errorf(diag.BoundMissingClause, s.Span, "unrolled loop must have a condition")
	}
	if d.Inc == nil {
		return diag.Errorf(diag.BoundMissingClause, s.Span, "unrolled loop must have an increment")
	}

	lo.pushScope()
	defer lo.popScope()
	if err := lo.lowerStmt(d.Init); err != nil {
		return err
	}
	loopVar, err := lo.inductionSlot(d.Init)
	if err != nil {
		return err
	}
	if _, ok := lo.b.LiteralValue(loopVar.val); !ok {
		return diag.Errorf(diag.BoundNotConstant, s.Span,
			"loop initializer must be a compile-time constant")
	}
	if err := lo.checkSeq(d.Cond); err != nil {
		return err
	}

	fr := &frame{kind: frameLoop, brk: lo.b.Bool(false), loopVar: loopVar}
	lo.frames = append(lo.frames, fr)
	defer func() { lo.frames = lo.frames[:len(lo.frames)-1] }()

	max := lo.t.opts.maxIters()
	for iter := 0; ; iter++ {
		cv, err := lo.lowerCond(d.Cond)
		if err != nil {
			return err
		}
		lit, ok := lo.b.LiteralValue(cv.id)
		if !ok {
			return diag.Errorf(diag.BoundNotConstant, d.Cond.Span,
				"loop condition must fold to a compile-time constant")
		}
		if lit == 0 {
			break
		}
		if iter >= max {
			return diag.Errorf(diag.BoundMaxIterations, s.Span,
				"maximum iterations exceeded while unrolling (%d)", max)
		}

		fr.cont = lo.b.Bool(false)
		if err := lo.lowerStmt(d.Body); err != nil {
			return err
		}
		fr.cont = ir.NoNode

		fr.inInc = true
		err = lo.lowerStmt(d.Inc)
		fr.inInc = false
		if err != nil {
			return err
		}
		if _, ok := lo.b.LiteralValue(loopVar.val); !ok {
			return diag.Errorf(diag.BoundNotConstant, d.Inc.Span,
				"loop increment must keep the loop variable a compile-time constant")
		}
	}
	return nil
}

// inductionSlot identifies the loop variable from the canonical initializer
// forms: a single declaration or a plain assignment to a name.
func (lo *funcLowerer) inductionSlot(init *ast.Stmt) (*varSlot, error) {
	switch init.Kind {
	case ast.StmtDecl:
		d := init.Data.(ast.DeclData)
		if len(d.Vars) == 1 {
			if bnd := lo.lookup(d.Vars[0].Name); bnd != nil {
				return bnd.lv.slot, nil
			}
		}
	case ast.StmtExpr:
		x := init.Data.(ast.ExprStmtData).X.Unparen()
		if x.Kind == ast.ExprAssign {
			lhs := x.Data.(ast.AssignData).LHS.Unparen()
			if lhs.Kind == ast.ExprName {
				if bnd := lo.lookup(lhs.Data.(ast.NameData).Name); bnd != nil {
					return bnd.lv.slot, nil
				}
			}
		}
	}
	return nil, diag.Errorf(diag.BoundMissingClause, init.Span,
		"unrolled loop initializer must declare or assign the loop variable")
}
