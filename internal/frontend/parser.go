// Package frontend is the reference scanner for the C-like synthesizable
// subset: it lexes and parses one translation unit into the typed AST the
// translator consumes. Any other producer of ast nodes can replace it.
package frontend

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/source"
)

type parser struct {
	toks      []Token
	pos       int
	file      *ast.File
	typeNames map[string]bool
}

// Parse builds the AST for one file.
func Parse(file *source.File) (*ast.File, error) {
	toks, err := lexAll(file)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
		file: &ast.File{Path: file.Path, FileID: file.ID},
		typeNames: map[string]bool{
			"__channel": true,
		},
	}
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	return p.file, nil
}

func (p *parser) cur() Token  { return p.toks[p.pos] }
func (p *parser) peek() Token { return p.toks[min(p.pos+1, len(p.toks)-1)] }

func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) accept(text string) bool {
	if p.cur().Is(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) acceptIdent(text string) bool {
	if p.cur().IsIdent(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(text string) (Token, error) {
	if p.cur().Is(text) {
		return p.advance(), nil
	}
	return Token{}, diag.Errorf(diag.ParseUnexpected, p.cur().Span,
		"expected %q, found %q", text, p.cur().Text)
}

func (p *parser) expectIdent() (Token, error) {
	t := p.cur()
	if t.Kind != TokIdent || keywords[t.Text] {
		return Token{}, diag.Errorf(diag.ParseUnexpected, t.Span,
			"expected identifier, found %q", t.Text)
	}
	return p.advance(), nil
}

func (p *parser) errHere(format string, args ...any) error {
	return diag.Errorf(diag.ParseUnexpected, p.cur().Span, format, args...)
}

func (p *parser) parseFile() error {
	for p.cur().Kind != TokEOF {
		switch {
		case p.accept(";"):
		case p.cur().IsIdent("typedef"):
			if err := p.parseTypedef(); err != nil {
				return err
			}
		case p.cur().IsIdent("template"):
			if err := p.parseTemplated(); err != nil {
				return err
			}
		case p.cur().IsIdent("struct") || p.cur().IsIdent("class"):
			if err := p.parseRecord(nil); err != nil {
				return err
			}
		default:
			if err := p.parseTopFunc(nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) parseTypedef() error {
	p.advance() // typedef
	spec, _, err := p.parseTypeSpec()
	if err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}
	p.typeNames[name.Text] = true
	p.file.Typedefs = append(p.file.Typedefs, &ast.TypedefDecl{
		Name: name.Text, Type: spec, Span: name.Span,
	})
	return nil
}

func (p *parser) parseTemplated() error {
	p.advance() // template
	if _, err := p.expect("<"); err != nil {
		return err
	}
	var params []ast.TypeParam
	for {
		switch {
		case p.acceptIdent("typename") || p.acceptIdent("class"):
			name, err := p.expectIdent()
			if err != nil {
				return err
			}
			params = append(params, ast.TypeParam{Name: name.Text, Span: name.Span})
			p.typeNames[name.Text] = true
		case p.cur().IsIdent("int") || p.cur().IsIdent("unsigned") || p.cur().IsIdent("long"):
			if _, _, err := p.parseTypeSpec(); err != nil {
				return err
			}
			name, err := p.expectIdent()
			if err != nil {
				return err
			}
			params = append(params, ast.TypeParam{Name: name.Text, IsValue: true, Span: name.Span})
		default:
			return p.errHere("expected template parameter, found %q", p.cur().Text)
		}
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(">"); err != nil {
		return err
	}
	if p.cur().IsIdent("struct") || p.cur().IsIdent("class") {
		return p.parseRecord(params)
	}
	return p.parseTopFunc(params)
}

func (p *parser) parseRecord(typeParams []ast.TypeParam) error {
	p.advance() // struct / class
	rec := &ast.RecordDecl{TypeParams: typeParams}
	if p.cur().Kind == TokIdent && !keywords[p.cur().Text] {
		name := p.advance()
		rec.Name = name.Text
		rec.Span = name.Span
		p.typeNames[rec.Name] = true
	} else {
		rec.Anon = true
		rec.Span = p.cur().Span
	}
	if p.accept(":") {
		for {
			p.acceptIdent("public")
			p.acceptIdent("private")
			p.acceptIdent("protected")
			base, err := p.expectIdent()
			if err != nil {
				return err
			}
			rec.Bases = append(rec.Bases, base.Text)
			if !p.accept(",") {
				break
			}
		}
	}
	if _, err := p.expect("{"); err != nil {
		return err
	}
	for !p.accept("}") {
		if err := p.parseMember(rec); err != nil {
			return err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}
	p.file.Records = append(p.file.Records, rec)
	return nil
}

func (p *parser) parseMember(rec *ast.RecordDecl) error {
	if (p.cur().IsIdent("public") || p.cur().IsIdent("private") || p.cur().IsIdent("protected")) && p.peek().Is(":") {
		p.advance()
		p.advance()
		return nil
	}
	isStatic := p.acceptIdent("static")

	// Constructor: record name followed by a parameter list.
	if p.cur().IsIdent(rec.Name) && p.peek().Is("(") {
		name := p.advance()
		fn := &ast.FuncDecl{
			Name:     rec.Name,
			Receiver: rec.Name,
			IsCtor:   true,
			Span:     name.Span,
		}
		return p.parseFuncRest(rec, fn)
	}

	// Conversion operator: `operator int() const`.
	if p.cur().IsIdent("operator") {
		opTok := p.advance()
		spec, _, err := p.parseTypeSpec()
		if err != nil {
			return err
		}
		fn := &ast.FuncDecl{
			Name:     "operator " + spec.String(),
			Receiver: rec.Name,
			Ret:      spec,
			Span:     opTok.Span,
		}
		return p.parseFuncRest(rec, fn)
	}

	spec, _, err := p.parseTypeSpec()
	if err != nil {
		return err
	}

	// Operator overload: `Test operator++()`, `bool operator<=(int)`.
	if p.cur().IsIdent("operator") {
		opTok := p.advance()
		sym := p.cur()
		if sym.Kind != TokSym {
			return p.errHere("expected operator symbol, found %q", sym.Text)
		}
		p.advance()
		fn := &ast.FuncDecl{
			Name:     "operator" + sym.Text,
			Receiver: rec.Name,
			Ret:      spec,
			Span:     opTok.Span,
		}
		return p.parseFuncRest(rec, fn)
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if p.cur().Is("(") {
		fn := &ast.FuncDecl{
			Name:     name.Text,
			Receiver: rec.Name,
			Ret:      spec,
			IsStatic: isStatic,
			Span:     name.Span,
		}
		return p.parseFuncRest(rec, fn)
	}

	// Field declarator list with optional array dimensions.
	for {
		ftype, err := p.parseArraySuffix(spec)
		if err != nil {
			return err
		}
		rec.Fields = append(rec.Fields, ast.Field{Name: name.Text, Type: ftype, Span: name.Span})
		if !p.accept(",") {
			break
		}
		name, err = p.expectIdent()
		if err != nil {
			return err
		}
	}
	_, err = p.expect(";")
	return err
}

func (p *parser) parseTopFunc(typeParams []ast.TypeParam) error {
	spec, _, err := p.parseTypeSpec()
	if err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	fn := &ast.FuncDecl{
		Name:       name.Text,
		TypeParams: typeParams,
		Ret:        spec,
		Span:       name.Span,
	}
	return p.parseFuncRest(nil, fn)
}

// parseFuncRest parses the parameter list, optional constructor initializer
// list, and body, then attaches fn to rec or the file.
func (p *parser) parseFuncRest(rec *ast.RecordDecl, fn *ast.FuncDecl) error {
	if _, err := p.expect("("); err != nil {
		return err
	}
	for !p.accept(")") {
		param, err := p.parseParam()
		if err != nil {
			return err
		}
		fn.Params = append(fn.Params, param)
		if !p.accept(",") {
			if _, err := p.expect(")"); err != nil {
				return err
			}
			break
		}
	}
	fn.ConstMeth = p.acceptIdent("const")
	if fn.IsCtor && p.accept(":") {
		for {
			field, err := p.expectIdent()
			if err != nil {
				return err
			}
			if _, err := p.expect("("); err != nil {
				return err
			}
			value, err := p.parseExpr()
			if err != nil {
				return err
			}
			if _, err := p.expect(")"); err != nil {
				return err
			}
			fn.Inits = append(fn.Inits, ast.CtorInit{Field: field.Text, Value: value, Span: field.Span})
			if !p.accept(",") {
				break
			}
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return err
	}
	fn.Body = body
	if rec != nil {
		rec.Methods = append(rec.Methods, fn)
	} else {
		p.file.Funcs = append(p.file.Funcs, fn)
	}
	return nil
}

func (p *parser) parseParam() (*ast.Param, error) {
	isConst := p.acceptIdent("const")
	spec, specConst, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	isConst = isConst || specConst
	byRef := p.accept("&")
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	ptype, err := p.parseArraySuffix(spec)
	if err != nil {
		return nil, err
	}
	param := &ast.Param{
		Name:  name.Text,
		Type:  ptype,
		ByRef: byRef,
		Const: isConst,
		Span:  name.Span,
	}
	if p.accept("=") {
		def, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		param.Default = def
	}
	return param, nil
}

// parseArraySuffix attaches trailing `[N]` dimensions to base. Dimensions
// apply outermost-first, so `int a[2][3]` is a 2-array of 3-arrays.
func (p *parser) parseArraySuffix(base *ast.TypeSpec) (*ast.TypeSpec, error) {
	if !p.accept("[") {
		return base, nil
	}
	size := p.cur()
	var sizeName string
	switch {
	case size.Kind == TokNumber:
	case size.Kind == TokIdent && !keywords[size.Text]:
		// A name, typically a template value parameter; resolved at
		// instantiation time.
		sizeName = size.Text
	default:
		return nil, p.errHere("expected constant array size, found %q", p.cur().Text)
	}
	p.advance()
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	elem, err := p.parseArraySuffix(base)
	if err != nil {
		return nil, err
	}
	return &ast.TypeSpec{
		Kind:     ast.TypeArray,
		Elem:     elem,
		Size:     int(size.Val),
		SizeName: sizeName,
		Span:     base.Span,
	}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
