package frontend

import (
	"sluice/internal/ast"
)

func (p *parser) parseExpr() (*ast.Expr, error) {
	return p.parseAssignExpr()
}

var compoundOps = map[string]ast.BinOp{
	"=": ast.OpNone, "+=": ast.OpAdd, "-=": ast.OpSub, "*=": ast.OpMul,
	"/=": ast.OpDiv, "%=": ast.OpRem, "&=": ast.OpAnd, "|=": ast.OpOr,
	"^=": ast.OpXor, "<<=": ast.OpShl, ">>=": ast.OpShr,
}

func (p *parser) parseAssignExpr() (*ast.Expr, error) {
	lhs, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	tok := p.cur()
	if tok.Kind != TokSym {
		return lhs, nil
	}
	op, ok := compoundOps[tok.Text]
	if !ok {
		return lhs, nil
	}
	p.advance()
	rhs, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.ExprAssign, Span: lhs.Span, Data: ast.AssignData{Op: op, LHS: lhs, RHS: rhs}}, nil
}

func (p *parser) parseTernary() (*ast.Expr, error) {
	cond, err := p.parseBinaryExpr(1)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.ExprTernary, Span: cond.Span, Data: ast.TernaryData{Cond: cond, Then: then, Else: els}}, nil
}

// binPrec maps a binary operator token to its operator and precedence
// level; higher binds tighter. Zero means not a binary operator.
func binPrec(tok Token) (ast.BinOp, int) {
	if tok.Kind != TokSym {
		return ast.OpNone, 0
	}
	switch tok.Text {
	case "||":
		return ast.OpLOr, 1
	case "&&":
		return ast.OpLAnd, 2
	case "|":
		return ast.OpOr, 3
	case "^":
		return ast.OpXor, 4
	case "&":
		return ast.OpAnd, 5
	case "==":
		return ast.OpEq, 6
	case "!=":
		return ast.OpNe, 6
	case "<":
		return ast.OpLt, 7
	case "<=":
		return ast.OpLe, 7
	case ">":
		return ast.OpGt, 7
	case ">=":
		return ast.OpGe, 7
	case "<<":
		return ast.OpShl, 8
	case ">>":
		return ast.OpShr, 8
	case "+":
		return ast.OpAdd, 9
	case "-":
		return ast.OpSub, 9
	case "*":
		return ast.OpMul, 10
	case "/":
		return ast.OpDiv, 10
	case "%":
		return ast.OpRem, 10
	}
	return ast.OpNone, 0
}

func (p *parser) parseBinaryExpr(minPrec int) (*ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec := binPrec(p.cur())
		if prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Expr{Kind: ast.ExprBinary, Span: left.Span, Data: ast.BinaryData{Op: op, X: left, Y: right}}
	}
}

func (p *parser) parseUnary() (*ast.Expr, error) {
	tok := p.cur()
	var op ast.UnaryOp
	switch {
	case tok.Is("++"):
		op = ast.UnPreInc
	case tok.Is("--"):
		op = ast.UnPreDec
	case tok.Is("-"):
		op = ast.UnNeg
	case tok.Is("+"):
		op = ast.UnPlus
	case tok.Is("!"):
		op = ast.UnNot
	case tok.Is("~"):
		op = ast.UnBitNot
	case tok.Is("*"):
		op = ast.UnDeref
	default:
		return p.parsePostfix()
	}
	p.advance()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Expr{Kind: ast.ExprUnary, Span: tok.Span, Data: ast.UnaryData{Op: op, X: x}}, nil
}

func (p *parser) parsePostfix() (*ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		switch {
		case tok.Is("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &ast.Expr{Kind: ast.ExprIndex, Span: x.Span, Data: ast.IndexData{X: x, I: idx}}
		case tok.Is(".") || tok.Is("->"):
			arrow := tok.Is("->")
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.cur().Is("(") {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &ast.Expr{Kind: ast.ExprMethodCall, Span: x.Span, Data: ast.MethodCallData{Recv: x, Name: name.Text, Args: args}}
			} else {
				x = &ast.Expr{Kind: ast.ExprMember, Span: x.Span, Data: ast.MemberData{X: x, Field: name.Text, Arrow: arrow}}
			}
		case tok.Is("++"):
			p.advance()
			x = &ast.Expr{Kind: ast.ExprUnary, Span: x.Span, Data: ast.UnaryData{Op: ast.UnPostInc, X: x}}
		case tok.Is("--"):
			p.advance()
			x = &ast.Expr{Kind: ast.ExprUnary, Span: x.Span, Data: ast.UnaryData{Op: ast.UnPostDec, X: x}}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseArgs() ([]*ast.Expr, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var args []*ast.Expr
	for !p.accept(")") {
		arg, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.accept(",") {
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			break
		}
	}
	return args, nil
}

func (p *parser) parsePrimary() (*ast.Expr, error) {
	tok := p.cur()
	switch {
	case tok.Kind == TokNumber:
		p.advance()
		return &ast.Expr{Kind: ast.ExprIntLit, Span: tok.Span, Data: ast.IntLitData{Value: tok.Val, Type: suffixType(tok)}}, nil
	case tok.IsIdent("true") || tok.IsIdent("false"):
		p.advance()
		return &ast.Expr{Kind: ast.ExprBoolLit, Span: tok.Span, Data: ast.BoolLitData{Value: tok.Text == "true"}}, nil
	case tok.IsIdent("this"):
		p.advance()
		return &ast.Expr{Kind: ast.ExprThis, Span: tok.Span}, nil
	case tok.Is("{"):
		return p.parseInitList()
	case tok.Is("("):
		// Distinguish a C-style cast from a parenthesized expression:
		// a cast is `(` type `)` followed by a unary expression.
		save := p.pos
		p.advance()
		if p.startsType() {
			spec, _, err := p.parseTypeSpec()
			if err == nil && p.accept(")") {
				x, err := p.parseUnary()
				if err != nil {
					return nil, err
				}
				return &ast.Expr{Kind: ast.ExprCast, Span: tok.Span, Data: ast.CastData{Type: spec, X: x}}, nil
			}
			p.pos = save
			p.advance()
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprParen, Span: tok.Span, Data: ast.ParenData{X: x}}, nil
	case tok.Kind == TokIdent && keywords[tok.Text] && p.startsType():
		// Functional-style cast on a builtin type: `short(x)`.
		spec, _, err := p.parseTypeSpec()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprCast, Span: tok.Span, Data: ast.CastData{Type: spec, X: x}}, nil
	case tok.Kind == TokIdent && !keywords[tok.Text]:
		p.advance()
		var typeArgs []ast.TemplArg
		if p.cur().Is("<") {
			save := p.pos
			args, ok, err := p.tryTemplateArgs()
			if err != nil {
				return nil, err
			}
			if ok && p.cur().Is("(") {
				typeArgs = args
			} else {
				p.pos = save
			}
		}
		if p.cur().Is("(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.Expr{Kind: ast.ExprCall, Span: tok.Span, Data: ast.CallData{Name: tok.Text, TypeArgs: typeArgs, Args: args}}, nil
		}
		return &ast.Expr{Kind: ast.ExprName, Span: tok.Span, Data: ast.NameData{Name: tok.Text}}, nil
	}
	return nil, p.errHere("expected expression, found %q", tok.Text)
}

// suffixType maps an integer literal suffix to its declared type; nil
// means plain int.
func suffixType(tok Token) *ast.TypeSpec {
	var kind ast.TypeKind
	switch tok.Suffix {
	case "":
		return nil
	case "u":
		kind = ast.TypeUInt
	case "l", "ll":
		kind = ast.TypeLongLong
	case "ul", "lu", "ull", "llu":
		kind = ast.TypeULongLong
	default:
		return nil
	}
	return &ast.TypeSpec{Kind: kind, Span: tok.Span}
}
