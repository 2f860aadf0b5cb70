package trans

import (
	"strings"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/source"
	"sluice/internal/types"
)

func (lo *funcLowerer) lowerCall(e *ast.Expr) (value, error) {
	d := e.Data.(ast.CallData)

	// A record name as callee is construction.
	if rec := lo.t.enc.Record(d.Name); rec != nil && lo.t.unit.FindFunc(d.Name) == nil {
		spec := &ast.TypeSpec{Kind: ast.TypeNamed, Name: d.Name, Args: d.TypeArgs, Span: e.Span}
		rt, err := lo.t.enc.Resolve(spec, lo.bnd)
		if err != nil {
			return value{}, err
		}
		return lo.constructValue(rt, d.Args, e.Span)
	}

	fd := lo.t.unit.FindFunc(d.Name)
	if fd == nil {
		return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "unknown function %q", d.Name)
	}
	bind, instName, err := lo.funcInstance(fd, d.TypeArgs, e.Span)
	if err != nil {
		return value{}, err
	}

	if isPure(fd) {
		return lo.invokeCall(fd, bind, instName, d.Args, e.Span)
	}
	return lo.inlineCall(fd, bind, instName, nil, d.Args, e.Span)
}

// funcInstance binds explicit template arguments against the declaration
// and mangles the instance name.
func (lo *funcLowerer) funcInstance(fd *ast.FuncDecl, typeArgs []ast.TemplArg, at source.Span) (types.Bindings, string, error) {
	args, err := lo.t.enc.Subst(typeArgs, lo.bnd)
	if err != nil {
		return nil, "", err
	}
	if len(args) != len(fd.TypeParams) {
		return nil, "", diag.Errorf(diag.ShapeTypeUnknown, at,
			"%s expects %d template arguments, got %d", fd.Name, len(fd.TypeParams), len(args))
	}
	bind := make(types.Bindings, len(args))
	for i, p := range fd.TypeParams {
		bind[p.Name] = args[i]
	}
	return bind, types.InstanceName(fd.Name, args), nil
}

// invokeCall lowers a pure call as an IR invoke edge against the memoized
// callee graph. Void pure callees have no observable effect beyond their
// argument evaluation and emit nothing.
func (lo *funcLowerer) invokeCall(fd *ast.FuncDecl, bind types.Bindings, instName string, args []*ast.Expr, at source.Span) (value, error) {
	if len(args) > len(fd.Params) {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, at, "too many arguments to %q", fd.Name)
	}
	ids := make([]ir.NodeID, 0, len(fd.Params))
	for i, p := range fd.Params {
		pt, err := lo.t.enc.Resolve(p.Type, bind)
		if err != nil {
			return value{}, err
		}
		argE := p.Default
		if i < len(args) {
			argE = args[i]
		}
		if argE == nil {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, at,
				"missing argument %q in call to %q", p.Name, fd.Name)
		}
		v, err := lo.lowerInit(pt, argE)
		if err != nil {
			return value{}, err
		}
		ids = append(ids, v.id)
	}
	retType, err := lo.t.enc.Resolve(fd.Ret, bind)
	if err != nil {
		return value{}, err
	}
	if retType.Kind == types.KindVoid {
		return value{typ: types.Void}, nil
	}
	fn, err := lo.t.lowerPureFn(fd, bind, instName)
	if err != nil {
		return value{}, err
	}
	return value{id: lo.b.Invoke(fn, ids...), typ: retType}, nil
}

// inlineCall substitutes the callee at the call site: by-value parameters
// copy, non-const references alias the caller's location, channels pass
// through. The callee lowers under the caller's activation condition.
func (lo *funcLowerer) inlineCall(fd *ast.FuncDecl, bind types.Bindings, instName string, recv *binding, args []*ast.Expr, at source.Span) (value, error) {
	key := fd.Receiver + "::" + instName
	if lo.t.inlining[key] {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, at, "recursive call involving %q", fd.Name)
	}
	lo.t.inlining[key] = true
	defer delete(lo.t.inlining, key)

	if len(args) > len(fd.Params) {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, at, "too many arguments to %q", fd.Name)
	}

	child := lo.childLowerer(fd, bind)
	child.recv = recv

	for i, p := range fd.Params {
		pt, err := lo.t.enc.Resolve(p.Type, bind)
		if err != nil {
			return value{}, err
		}
		var argE *ast.Expr
		fromDefault := false
		if i < len(args) {
			argE = args[i]
		} else {
			argE, fromDefault = p.Default, true
		}
		if argE == nil {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, at,
				"missing argument %q in call to %q", p.Name, fd.Name)
		}

		if pt.Kind == types.KindChannel {
			ae := argE.Unparen()
			if ae.Kind == ast.ExprName {
				if bnd := lo.lookup(ae.Data.(ast.NameData).Name); bnd != nil && bnd.chanName != "" {
					child.define(p.Name, bnd)
					continue
				}
			}
			return value{}, diag.Errorf(diag.UnsupportedChannelIndirect, argE.Span,
				"IO ops should be on channel parameters")
		}

		if p.ByRef && !p.Const {
			lv, ok, err := lo.tryLValue(argE)
			if err != nil {
				return value{}, err
			}
			if !ok {
				return value{}, diag.Errorf(diag.UnsupportedConstruct, argE.Span,
					"reference argument %q must be addressable", p.Name)
			}
			child.define(p.Name, &binding{lv: lv, typ: pt})
			continue
		}

		var v value
		if fromDefault {
			v, err = child.lowerInit(pt, argE)
		} else {
			v, err = lo.lowerInit(pt, argE)
		}
		if err != nil {
			return value{}, err
		}
		slot := &varSlot{name: p.Name, typ: pt, val: v.id, ro: p.Const}
		child.define(p.Name, &binding{lv: lvalue{slot: slot}, typ: pt})
	}

	if fd.IsCtor && recv != nil {
		for _, ci := range fd.Inits {
			fi := recv.typ.FieldIndex(ci.Field)
			if fi < 0 {
				return value{}, diag.Errorf(diag.ShapeFieldUnknown, ci.Span,
					"no field %q in %s", ci.Field, recv.typ)
			}
			flv := lvalue{slot: recv.lv.slot, path: appendPath(recv.lv.path, pathElem{kind: pathField, field: fi})}
			ft := recv.typ.Struct.Fields[fi].Type
			v, err := child.lowerInit(ft, ci.Value)
			if err != nil {
				return value{}, err
			}
			if err := child.writeLV(flv, v.id, ci.Span); err != nil {
				return value{}, err
			}
		}
	}

	retType, err := lo.t.enc.Resolve(fd.Ret, bind)
	if err != nil {
		return value{}, err
	}
	if err := child.lowerBody(retType); err != nil {
		return value{}, err
	}
	if retType.Kind == types.KindVoid {
		return value{typ: types.Void}, nil
	}
	return value{id: child.retVal, typ: retType}, nil
}

func (lo *funcLowerer) lowerMethodCall(e *ast.Expr) (value, error) {
	d := e.Data.(ast.MethodCallData)

	if ae := d.Recv.Unparen(); ae.Kind == ast.ExprName {
		if bnd := lo.lookup(ae.Data.(ast.NameData).Name); bnd != nil && bnd.chanName != "" {
			return lo.lowerChannelOp(e, bnd, d)
		}
	}

	recv, rt, err := lo.receiverOf(d.Recv)
	if err != nil {
		return value{}, err
	}
	decl, bind, err := lo.t.recordDecl(rt.Struct)
	if err != nil {
		return value{}, err
	}
	m := lo.t.findMethod(decl, d.Name)
	if m == nil {
		return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "no method %q in %s", d.Name, rt)
	}
	return lo.inlineCall(m, bind, rt.Struct.Name+"."+m.Name, recv, d.Args, e.Span)
}

// receiverOf binds a method receiver: an addressable expression aliases in
// place, an rvalue materializes a temporary.
func (lo *funcLowerer) receiverOf(e *ast.Expr) (*binding, *types.Type, error) {
	lv, ok, err := lo.tryLValue(e)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		t := lo.lvType(lv)
		if t.Kind != types.KindStruct {
			return nil, nil, diag.Errorf(diag.NotFoundSymbol, e.Span, "method call on non-struct type %s", t)
		}
		return &binding{lv: lv, typ: t}, t, nil
	}
	v, err := lo.lowerExpr(e)
	if err != nil {
		return nil, nil, err
	}
	if v.typ.Kind != types.KindStruct {
		return nil, nil, diag.Errorf(diag.NotFoundSymbol, e.Span, "method call on non-struct type %s", v.typ)
	}
	bnd := lo.tempBinding(v)
	return bnd, v.typ, nil
}

// tempBinding materializes an rvalue as an anonymous addressable slot.
func (lo *funcLowerer) tempBinding(v value) *binding {
	slot := &varSlot{name: "<temp>", typ: v.typ, val: v.id}
	return &binding{lv: lvalue{slot: slot}, typ: v.typ}
}

// constructValue builds a struct value: zero-initialize every field, then
// run the matching constructor when one is declared.
func (lo *funcLowerer) constructValue(t *types.Type, args []*ast.Expr, at source.Span) (value, error) {
	if t.Kind != types.KindStruct {
		if len(args) == 1 {
			v, err := lo.lowerExpr(args[0])
			if err != nil {
				return value{}, err
			}
			return lo.convert(v, t, at)
		}
		return value{}, diag.Errorf(diag.ShapeTypeUnknown, at, "cannot construct %s", t)
	}
	decl, bind, err := lo.t.recordDecl(t.Struct)
	if err != nil {
		return value{}, err
	}
	slot := &varSlot{name: "<ctor>", typ: t, val: lo.b.ZeroValue(types.Encode(t))}
	recv := &binding{lv: lvalue{slot: slot}, typ: t}

	var ctor *ast.FuncDecl
	for _, m := range decl.Methods {
		if m.IsCtor {
			ctor = m
			break
		}
	}
	if ctor == nil {
		if len(args) > 0 {
			return value{}, diag.Errorf(diag.NotFoundSymbol, at, "no constructor for %s", t)
		}
		return value{id: slot.val, typ: t}, nil
	}
	if _, err := lo.inlineCall(ctor, bind, t.Struct.Name+".ctor", recv, args, at); err != nil {
		return value{}, err
	}
	return lo.readLV(recv.lv), nil
}

// defaultValue builds the value of an uninitialized declaration: structs run
// their constructor, everything else is zero.
func (lo *funcLowerer) defaultValue(t *types.Type, at source.Span) (value, error) {
	if t.Kind == types.KindStruct {
		return lo.constructValue(t, nil, at)
	}
	if t.Kind == types.KindVoid || t.Kind == types.KindChannel {
		return value{}, diag.Errorf(diag.ShapeTypeUnknown, at, "cannot declare a value of type %s", t)
	}
	return value{id: lo.b.ZeroValue(types.Encode(t)), typ: t}, nil
}

// lowerBinaryOverload dispatches a binary operator whose left operand is a
// struct to its operator method.
func (lo *funcLowerer) lowerBinaryOverload(e *ast.Expr, d ast.BinaryData, x value) (value, error) {
	name := "operator" + d.Op.String()
	decl, bind, err := lo.t.recordDecl(x.typ.Struct)
	if err != nil {
		return value{}, err
	}
	m := lo.t.findMethod(decl, name)
	if m == nil {
		// Fall back on a conversion operator and scalar arithmetic.
		conv, ok, err := lo.tryConversion(x, types.Int(), e.Span)
		if err != nil {
			return value{}, err
		}
		if !ok {
			return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "no %s for %s", name, x.typ)
		}
		y, err := lo.lowerExpr(d.Y)
		if err != nil {
			return value{}, err
		}
		return lo.lowerArith(d.Op, conv, y, e.Span)
	}
	recv := lo.tempBinding(x)
	return lo.inlineOperator(m, bind, x.typ.Struct.Name+"."+name, recv, []*ast.Expr{d.Y}, e.Span)
}

// lowerStructUnary dispatches -, !, ~ on a struct operand.
func (lo *funcLowerer) lowerStructUnary(e *ast.Expr, op ast.UnaryOp, v value) (value, error) {
	name := "operator" + op.String()
	decl, bind, err := lo.t.recordDecl(v.typ.Struct)
	if err != nil {
		return value{}, err
	}
	m := lo.t.findMethod(decl, name)
	if m == nil {
		return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "no %s for %s", name, v.typ)
	}
	recv := lo.tempBinding(v)
	return lo.inlineOperator(m, bind, v.typ.Struct.Name+"."+name, recv, nil, e.Span)
}

// lowerUnaryOverload dispatches ++ and -- on a struct lvalue.
func (lo *funcLowerer) lowerUnaryOverload(e *ast.Expr, op ast.UnaryOp, lv lvalue) (value, error) {
	name := "operator" + op.String()
	t := lo.lvType(lv)
	decl, bind, err := lo.t.recordDecl(t.Struct)
	if err != nil {
		return value{}, err
	}
	m := lo.t.findMethod(decl, name)
	if m == nil {
		return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "no %s for %s", name, t)
	}
	old := lo.readLV(lv)
	recv := &binding{lv: lv, typ: t}
	res, err := lo.inlineOperator(m, bind, t.Struct.Name+"."+name, recv, nil, e.Span)
	if err != nil {
		return value{}, err
	}
	if op == ast.UnPostInc || op == ast.UnPostDec {
		return old, nil
	}
	if res.typ.Kind == types.KindVoid {
		return lo.readLV(lv), nil
	}
	return res, nil
}

// lowerCompoundOverload dispatches += and friends on a struct lvalue.
func (lo *funcLowerer) lowerCompoundOverload(e *ast.Expr, d ast.AssignData, lv lvalue) (value, error) {
	name := "operator" + d.Op.String() + "="
	t := lo.lvType(lv)
	decl, bind, err := lo.t.recordDecl(t.Struct)
	if err != nil {
		return value{}, err
	}
	m := lo.t.findMethod(decl, name)
	if m == nil {
		return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "no %s for %s", name, t)
	}
	recv := &binding{lv: lv, typ: t}
	res, err := lo.inlineOperator(m, bind, t.Struct.Name+"."+name, recv, []*ast.Expr{d.RHS}, e.Span)
	if err != nil {
		return value{}, err
	}
	if res.typ.Kind == types.KindVoid {
		return lo.readLV(lv), nil
	}
	return res, nil
}

// inlineOperator is inlineCall with I/O forbidden inside the callee.
func (lo *funcLowerer) inlineOperator(m *ast.FuncDecl, bind types.Bindings, instName string, recv *binding, args []*ast.Expr, at source.Span) (value, error) {
	saved := lo.inOperator
	lo.inOperator = true
	defer func() { lo.inOperator = saved }()
	return lo.inlineCall(m, bind, instName, recv, args, at)
}

// tryConversion applies a conversion operator of a struct value toward
// want: an exact target match wins, otherwise a sole conversion operator is
// used and the result converts again.
func (lo *funcLowerer) tryConversion(v value, want *types.Type, at source.Span) (value, bool, error) {
	decl, bind, err := lo.t.recordDecl(v.typ.Struct)
	if err != nil {
		return value{}, false, err
	}
	var exact, sole *ast.FuncDecl
	count := 0
	for _, m := range decl.Methods {
		if !strings.HasPrefix(m.Name, "operator ") {
			continue
		}
		count++
		sole = m
		mt, err := lo.t.enc.Resolve(m.Ret, bind)
		if err != nil {
			return value{}, false, err
		}
		if mt.Equal(want) {
			exact = m
		}
	}
	m := exact
	if m == nil && count == 1 {
		m = sole
	}
	if m == nil {
		return value{}, false, nil
	}
	recv := lo.tempBinding(v)
	res, err := lo.inlineOperator(m, bind, v.typ.Struct.Name+"."+m.Name, recv, nil, at)
	if err != nil {
		return value{}, false, err
	}
	return res, true, nil
}
