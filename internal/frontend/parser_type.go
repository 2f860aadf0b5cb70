package frontend

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
)

// parseTypeSpec parses one type reference. The returned bool reports a
// `const` qualifier seen in front of or after the base type.
func (p *parser) parseTypeSpec() (*ast.TypeSpec, bool, error) {
	isConst := p.acceptIdent("const")
	start := p.cur()

	switch {
	case p.acceptIdent("void"):
		return &ast.TypeSpec{Kind: ast.TypeVoid, Span: start.Span}, isConst, nil
	case p.acceptIdent("bool"):
		return &ast.TypeSpec{Kind: ast.TypeBool, Span: start.Span}, isConst, nil
	case p.acceptIdent("unsigned"):
		kind := ast.TypeUInt
		switch {
		case p.acceptIdent("char"):
			kind = ast.TypeUChar
		case p.acceptIdent("short"):
			kind = ast.TypeUShort
		case p.acceptIdent("long"):
			p.acceptIdent("long")
			kind = ast.TypeULongLong
		case p.acceptIdent("int"):
		}
		return &ast.TypeSpec{Kind: kind, Span: start.Span}, isConst, nil
	case p.acceptIdent("signed"):
		kind := ast.TypeInt
		switch {
		case p.acceptIdent("char"):
			kind = ast.TypeChar
		case p.acceptIdent("short"):
			kind = ast.TypeShort
		case p.acceptIdent("long"):
			p.acceptIdent("long")
			kind = ast.TypeLongLong
		case p.acceptIdent("int"):
		}
		return &ast.TypeSpec{Kind: kind, Span: start.Span}, isConst, nil
	case p.acceptIdent("char"):
		return &ast.TypeSpec{Kind: ast.TypeChar, Span: start.Span}, isConst, nil
	case p.acceptIdent("short"):
		p.acceptIdent("int")
		return &ast.TypeSpec{Kind: ast.TypeShort, Span: start.Span}, isConst, nil
	case p.acceptIdent("int"):
		return &ast.TypeSpec{Kind: ast.TypeInt, Span: start.Span}, isConst, nil
	case p.acceptIdent("long"):
		p.acceptIdent("long")
		p.acceptIdent("int")
		return &ast.TypeSpec{Kind: ast.TypeLongLong, Span: start.Span}, isConst, nil
	case p.acceptIdent("__channel"):
		if _, err := p.expect("<"); err != nil {
			return nil, false, err
		}
		elem, _, err := p.parseTypeSpec()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(">"); err != nil {
			return nil, false, err
		}
		return &ast.TypeSpec{Kind: ast.TypeChannel, Elem: elem, Span: start.Span}, isConst, nil
	}

	if start.Kind == TokIdent && !keywords[start.Text] && p.typeNames[start.Text] {
		p.advance()
		spec := &ast.TypeSpec{Kind: ast.TypeNamed, Name: start.Text, Span: start.Span}
		if p.cur().Is("<") {
			args, ok, err := p.tryTemplateArgs()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, diag.Errorf(diag.ParseBadType, p.cur().Span,
					"malformed template arguments for %q", start.Text)
			}
			spec.Args = args
		}
		// Allow trailing const: `Foo const` is rare but legal.
		isConst = p.acceptIdent("const") || isConst
		return spec, isConst, nil
	}
	return nil, false, diag.Errorf(diag.ParseBadType, start.Span, "expected type, found %q", start.Text)
}

// tryTemplateArgs attempts to parse `<arg, ...>` starting at `<`. On a
// mismatch the position is restored and ok is false, letting the caller
// re-read `<` as less-than.
func (p *parser) tryTemplateArgs() ([]ast.TemplArg, bool, error) {
	save := p.pos
	p.advance() // <
	var args []ast.TemplArg
	for {
		arg, ok := p.tryTemplateArg()
		if !ok {
			p.pos = save
			return nil, false, nil
		}
		args = append(args, arg)
		if p.accept(",") {
			continue
		}
		if p.accept(">") {
			return args, true, nil
		}
		p.pos = save
		return nil, false, nil
	}
}

func (p *parser) tryTemplateArg() (ast.TemplArg, bool) {
	if p.cur().Kind == TokNumber {
		t := p.advance()
		return ast.TemplArg{Value: t.Val, IsValue: true}, true
	}
	if p.cur().IsIdent("true") || p.cur().IsIdent("false") {
		t := p.advance()
		v := int64(0)
		if t.Text == "true" {
			v = 1
		}
		return ast.TemplArg{Value: v, IsValue: true}, true
	}
	save := p.pos
	spec, _, err := p.parseTypeSpec()
	if err != nil {
		p.pos = save
		return ast.TemplArg{}, false
	}
	return ast.TemplArg{Type: spec}, true
}

// startsType reports whether the current token can begin a declaration.
func (p *parser) startsType() bool {
	t := p.cur()
	if t.Kind != TokIdent {
		return false
	}
	switch t.Text {
	case "void", "bool", "char", "short", "int", "long", "unsigned", "signed", "const", "__channel":
		return true
	}
	return p.typeNames[t.Text]
}
