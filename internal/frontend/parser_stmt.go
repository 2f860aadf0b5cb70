package frontend

import (
	"sluice/internal/ast"
)

func (p *parser) parseBlock() (*ast.Stmt, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	var stmts []*ast.Stmt
	for !p.accept("}") {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &ast.Stmt{Kind: ast.StmtBlock, Span: open.Span, Data: ast.BlockData{Stmts: stmts}}, nil
}

func (p *parser) parseStmt() (*ast.Stmt, error) {
	tok := p.cur()
	switch {
	case tok.Is("{"):
		return p.parseBlock()
	case tok.Is(";"):
		p.advance()
		return &ast.Stmt{Kind: ast.StmtEmpty, Span: tok.Span}, nil
	case tok.IsIdent("if"):
		return p.parseIf()
	case tok.IsIdent("switch"):
		return p.parseSwitch()
	case tok.IsIdent("for"):
		return p.parseFor()
	case tok.IsIdent("return"):
		p.advance()
		data := ast.ReturnData{}
		if !p.cur().Is(";") {
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			data.Value = value
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtReturn, Span: tok.Span, Data: data}, nil
	case tok.IsIdent("break"):
		p.advance()
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtBreak, Span: tok.Span}, nil
	case tok.IsIdent("continue"):
		p.advance()
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &ast.Stmt{Kind: ast.StmtContinue, Span: tok.Span}, nil
	}

	if decl, ok, err := p.tryParseDecl(); err != nil {
		return nil, err
	} else if ok {
		return decl, nil
	}

	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ast.Stmt{Kind: ast.StmtExpr, Span: x.Span, Data: ast.ExprStmtData{X: x}}, nil
}

// tryParseDecl parses a declaration group if the statement starts with a
// type followed by a declarator, restoring the position otherwise.
func (p *parser) tryParseDecl() (*ast.Stmt, bool, error) {
	if !p.startsType() {
		return nil, false, nil
	}
	save := p.pos
	spec, _, err := p.parseTypeSpec()
	if err != nil || p.cur().Kind != TokIdent || keywords[p.cur().Text] {
		p.pos = save
		return nil, false, nil
	}
	data := ast.DeclData{Type: spec}
	declSpan := spec.Span
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, false, err
		}
		v := ast.VarInit{Name: name.Text, Span: name.Span}
		// Array dimensions modify this declarator's type; a group mixing
		// array and scalar declarators keeps per-declarator shapes.
		vtype, err := p.parseArraySuffix(spec)
		if err != nil {
			return nil, false, err
		}
		if vtype != spec {
			if len(data.Vars) == 0 {
				data.Type = vtype
			} else {
				return nil, false, p.errHere("mixed array declarator in group is not supported")
			}
		}
		switch {
		case p.accept("="):
			if p.cur().Is("{") {
				list, err := p.parseInitList()
				if err != nil {
					return nil, false, err
				}
				v.ListInit = list
			} else {
				init, err := p.parseAssignExpr()
				if err != nil {
					return nil, false, err
				}
				v.Init = init
			}
		case p.cur().Is("("):
			p.advance()
			for !p.accept(")") {
				arg, err := p.parseAssignExpr()
				if err != nil {
					return nil, false, err
				}
				v.CtorArgs = append(v.CtorArgs, arg)
				if !p.accept(",") {
					if _, err := p.expect(")"); err != nil {
						return nil, false, err
					}
					break
				}
			}
		}
		data.Vars = append(data.Vars, v)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, false, err
	}
	return &ast.Stmt{Kind: ast.StmtDecl, Span: declSpan, Data: data}, true, nil
}

func (p *parser) parseInitList() (*ast.Expr, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	data := ast.InitListData{}
	for !p.accept("}") {
		elem, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		data.Elems = append(data.Elems, elem)
		if !p.accept(",") {
			if _, err := p.expect("}"); err != nil {
				return nil, err
			}
			break
		}
	}
	return &ast.Expr{Kind: ast.ExprInitList, Span: open.Span, Data: data}, nil
}

func (p *parser) parseIf() (*ast.Stmt, error) {
	tok := p.advance() // if
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	data := ast.IfData{Cond: cond, Then: then}
	if p.acceptIdent("else") {
		els, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		data.Else = els
	}
	return &ast.Stmt{Kind: ast.StmtIf, Span: tok.Span, Data: data}, nil
}

func (p *parser) parseSwitch() (*ast.Stmt, error) {
	tok := p.advance() // switch
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	data := ast.SwitchData{Subject: subject}
	for !p.accept("}") {
		c := ast.SwitchCase{Span: p.cur().Span}
		switch {
		case p.acceptIdent("case"):
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			c.Value = value
		case p.acceptIdent("default"):
		default:
			return nil, p.errHere("expected case or default, found %q", p.cur().Text)
		}
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		for !p.cur().Is("}") && !p.cur().IsIdent("case") && !p.cur().IsIdent("default") {
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		}
		data.Cases = append(data.Cases, c)
	}
	return &ast.Stmt{Kind: ast.StmtSwitch, Span: tok.Span, Data: data}, nil
}

func (p *parser) parseFor() (*ast.Stmt, error) {
	tok := p.advance() // for
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	data := ast.ForData{}
	if !p.accept(";") {
		if decl, ok, err := p.tryParseDecl(); err != nil {
			return nil, err
		} else if ok {
			data.Init = decl
		} else {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(";"); err != nil {
				return nil, err
			}
			data.Init = &ast.Stmt{Kind: ast.StmtExpr, Span: x.Span, Data: ast.ExprStmtData{X: x}}
		}
	}
	if !p.cur().Is(";") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		data.Cond = cond
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.cur().Is(")") {
		inc, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		data.Inc = &ast.Stmt{Kind: ast.StmtExpr, Span: inc.Span, Data: ast.ExprStmtData{X: inc}}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	data.Body = body
	return &ast.Stmt{Kind: ast.StmtFor, Span: tok.Span, Data: data}, nil
}
