package trans

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/source"
	"sluice/internal/types"
)

func (lo *funcLowerer) lowerExpr(e *ast.Expr) (value, error) {
	switch e.Kind {
	case ast.ExprParen:
		return lo.lowerExpr(e.Data.(ast.ParenData).X)
	case ast.ExprIntLit:
		d := e.Data.(ast.IntLitData)
		t := types.Int()
		if d.Type != nil {
			var err error
			t, err = lo.t.enc.Resolve(d.Type, lo.bnd)
			if err != nil {
				return value{}, err
			}
		}
		return lo.literalInt(d.Value, t), nil
	case ast.ExprBoolLit:
		d := e.Data.(ast.BoolLitData)
		return value{id: lo.b.Bool(d.Value), typ: types.Bool}, nil
	case ast.ExprName:
		return lo.lowerName(e)
	case ast.ExprThis:
		if lo.recv == nil {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "this outside a method")
		}
		return lo.readLV(lo.recv.lv), nil
	case ast.ExprUnary:
		return lo.lowerUnary(e)
	case ast.ExprBinary:
		return lo.lowerBinary(e)
	case ast.ExprAssign:
		return lo.lowerAssign(e)
	case ast.ExprTernary:
		return lo.lowerTernary(e)
	case ast.ExprCall:
		return lo.lowerCall(e)
	case ast.ExprMethodCall:
		return lo.lowerMethodCall(e)
	case ast.ExprMember:
		return lo.lowerMember(e)
	case ast.ExprIndex:
		return lo.lowerIndex(e)
	case ast.ExprCast:
		d := e.Data.(ast.CastData)
		to, err := lo.t.enc.Resolve(d.Type, lo.bnd)
		if err != nil {
			return value{}, err
		}
		v, err := lo.lowerExpr(d.X)
		if err != nil {
			return value{}, err
		}
		return lo.convert(v, to, e.Span)
	case ast.ExprInitList:
		return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span,
			"initializer list requires a declared target type")
	}
	return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "unsupported expression")
}

func (lo *funcLowerer) lowerName(e *ast.Expr) (value, error) {
	name := e.Data.(ast.NameData).Name
	if bnd := lo.lookup(name); bnd != nil {
		if bnd.chanName != "" {
			return value{}, diag.Errorf(diag.UnsupportedChannelIndirect, e.Span,
				"IO ops should be on channel parameters: channel %q used as a value", name)
		}
		return lo.readLV(bnd.lv), nil
	}
	if arg, ok := lo.bnd[name]; ok && arg.IsValue {
		return lo.literalInt(arg.Value, types.Int()), nil
	}
	if lo.recv != nil {
		if fi := lo.recv.typ.FieldIndex(name); fi >= 0 {
			lv := lvalue{slot: lo.recv.lv.slot, path: appendPath(lo.recv.lv.path, pathElem{kind: pathField, field: fi})}
			return lo.readLV(lv), nil
		}
	}
	return value{}, diag.Errorf(diag.NotFoundSymbol, e.Span, "unknown symbol %q", name)
}

func appendPath(path []pathElem, pe pathElem) []pathElem {
	out := make([]pathElem, len(path), len(path)+1)
	copy(out, path)
	return append(out, pe)
}

// tryLValue resolves e into an addressable location. ok is false for
// rvalues; err reports addressable-looking expressions that are invalid.
func (lo *funcLowerer) tryLValue(e *ast.Expr) (lvalue, bool, error) {
	e = e.Unparen()
	switch e.Kind {
	case ast.ExprName:
		name := e.Data.(ast.NameData).Name
		if bnd := lo.lookup(name); bnd != nil {
			if bnd.chanName != "" {
				return lvalue{}, false, nil
			}
			return bnd.lv, true, nil
		}
		if lo.recv != nil {
			if fi := lo.recv.typ.FieldIndex(name); fi >= 0 {
				return lvalue{slot: lo.recv.lv.slot, path: appendPath(lo.recv.lv.path, pathElem{kind: pathField, field: fi})}, true, nil
			}
		}
		return lvalue{}, false, nil
	case ast.ExprThis:
		if lo.recv == nil {
			return lvalue{}, false, nil
		}
		return lo.recv.lv, true, nil
	case ast.ExprUnary:
		d := e.Data.(ast.UnaryData)
		if d.Op == ast.UnDeref && d.X.Unparen().Kind == ast.ExprThis && lo.recv != nil {
			return lo.recv.lv, true, nil
		}
		return lvalue{}, false, nil
	case ast.ExprMember:
		d := e.Data.(ast.MemberData)
		base, ok, err := lo.tryLValue(d.X)
		if err != nil || !ok {
			return lvalue{}, false, err
		}
		bt := lo.lvType(base)
		if bt.Kind != types.KindStruct {
			return lvalue{}, false, diag.Errorf(diag.ShapeFieldUnknown, e.Span,
				"member access on non-struct type %s", bt)
		}
		fi := bt.FieldIndex(d.Field)
		if fi < 0 {
			return lvalue{}, false, diag.Errorf(diag.ShapeFieldUnknown, e.Span,
				"no field %q in %s", d.Field, bt)
		}
		return lvalue{slot: base.slot, path: appendPath(base.path, pathElem{kind: pathField, field: fi})}, true, nil
	case ast.ExprIndex:
		d := e.Data.(ast.IndexData)
		base, ok, err := lo.tryLValue(d.X)
		if err != nil || !ok {
			return lvalue{}, false, err
		}
		bt := lo.lvType(base)
		if bt.Kind != types.KindArray {
			return lvalue{}, false, diag.Errorf(diag.ShapeTypeUnknown, e.Span,
				"index into non-array type %s", bt)
		}
		iv, err := lo.lowerExpr(d.I)
		if err != nil {
			return lvalue{}, false, err
		}
		if !iv.typ.IsScalar() {
			return lvalue{}, false, diag.Errorf(diag.ShapeTypeUnknown, d.I.Span, "array index must be scalar")
		}
		return lvalue{slot: base.slot, path: appendPath(base.path, pathElem{kind: pathIndex, idx: iv.id})}, true, nil
	}
	return lvalue{}, false, nil
}

func (lo *funcLowerer) lowerMember(e *ast.Expr) (value, error) {
	lv, ok, err := lo.tryLValue(e)
	if err != nil {
		return value{}, err
	}
	if ok {
		return lo.readLV(lv), nil
	}
	d := e.Data.(ast.MemberData)
	x, err := lo.lowerExpr(d.X)
	if err != nil {
		return value{}, err
	}
	if x.typ.Kind != types.KindStruct {
		return value{}, diag.Errorf(diag.ShapeFieldUnknown, e.Span, "member access on non-struct type %s", x.typ)
	}
	fi := x.typ.FieldIndex(d.Field)
	if fi < 0 {
		return value{}, diag.Errorf(diag.ShapeFieldUnknown, e.Span, "no field %q in %s", d.Field, x.typ)
	}
	ft := x.typ.Struct.Fields[fi].Type
	if x.typ.Struct.NoTuple {
		return value{id: x.id, typ: ft}, nil
	}
	return value{id: lo.b.TupleIndex(x.id, fi), typ: ft}, nil
}

func (lo *funcLowerer) lowerIndex(e *ast.Expr) (value, error) {
	lv, ok, err := lo.tryLValue(e)
	if err != nil {
		return value{}, err
	}
	if ok {
		return lo.readLV(lv), nil
	}
	d := e.Data.(ast.IndexData)
	x, err := lo.lowerExpr(d.X)
	if err != nil {
		return value{}, err
	}
	if x.typ.Kind != types.KindArray {
		return value{}, diag.Errorf(diag.ShapeTypeUnknown, e.Span, "index into non-array type %s", x.typ)
	}
	iv, err := lo.lowerExpr(d.I)
	if err != nil {
		return value{}, err
	}
	return value{id: lo.b.ArrayIndex(x.id, iv.id), typ: x.typ.Elem}, nil
}

func (lo *funcLowerer) lowerUnary(e *ast.Expr) (value, error) {
	d := e.Data.(ast.UnaryData)
	if d.Op == ast.UnDeref {
		if lo.recv == nil || d.X.Unparen().Kind != ast.ExprThis {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span,
				"dereference is only supported on this")
		}
		return lo.readLV(lo.recv.lv), nil
	}

	if d.Op.Mutates() {
		lv, ok, err := lo.tryLValue(d.X)
		if err != nil {
			return value{}, err
		}
		if !ok {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "expression is not assignable")
		}
		t := lo.lvType(lv)
		if t.Kind == types.KindStruct {
			return lo.lowerUnaryOverload(e, d.Op, lv)
		}
		if lv.slot.ro {
			return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span,
				"assignment to read-only variable %q", lv.slot.name)
		}
		old := lo.readLV(lv)
		one := lo.b.Literal(1, ir.Bits(t.Width))
		op := ir.OpAdd
		if d.Op == ast.UnPreDec || d.Op == ast.UnPostDec {
			op = ir.OpSub
		}
		nv := lo.b.Binary(op, old.id, one)
		if err := lo.writeLV(lv, nv, e.Span); err != nil {
			return value{}, err
		}
		if d.Op == ast.UnPostInc || d.Op == ast.UnPostDec {
			return old, nil
		}
		return value{id: nv, typ: t}, nil
	}

	v, err := lo.lowerExpr(d.X)
	if err != nil {
		return value{}, err
	}
	if v.typ.Kind == types.KindStruct {
		return lo.lowerStructUnary(e, d.Op, v)
	}
	switch d.Op {
	case ast.UnPlus:
		return v, nil
	case ast.UnNeg:
		if v.typ.Kind == types.KindBool {
			if v, err = lo.convert(v, types.Int(), e.Span); err != nil {
				return value{}, err
			}
		}
		return value{id: lo.b.Unary(ir.OpNeg, v.id), typ: v.typ}, nil
	case ast.UnNot:
		bv := lo.boolize(v)
		return value{id: lo.b.NotBit(bv.id), typ: types.Bool}, nil
	case ast.UnBitNot:
		return value{id: lo.b.Unary(ir.OpNot, v.id), typ: v.typ}, nil
	}
	return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "unsupported unary operator")
}

func (lo *funcLowerer) lowerBinary(e *ast.Expr) (value, error) {
	d := e.Data.(ast.BinaryData)
	if d.Op == ast.OpLAnd || d.Op == ast.OpLOr {
		return lo.lowerLogical(d)
	}
	x, err := lo.lowerExpr(d.X)
	if err != nil {
		return value{}, err
	}
	if x.typ.Kind == types.KindStruct {
		return lo.lowerBinaryOverload(e, d, x)
	}
	y, err := lo.lowerExpr(d.Y)
	if err != nil {
		return value{}, err
	}
	if y.typ.Kind == types.KindStruct {
		// A struct on the right converts toward the scalar left operand.
		if y, err = lo.convert(y, scalarOf(x.typ), d.Y.Span); err != nil {
			return value{}, err
		}
	}
	return lo.lowerArith(d.Op, x, y, e.Span)
}

// lowerLogical lowers && and ||. The right operand's side effects are
// masked by the left truth value, preserving short-circuit stores.
func (lo *funcLowerer) lowerLogical(d ast.BinaryData) (value, error) {
	cx, err := lo.lowerCond(d.X)
	if err != nil {
		return value{}, err
	}
	guard := cx.id
	if d.Op == ast.OpLOr {
		guard = lo.b.NotBit(cx.id)
	}
	lo.conds = append(lo.conds, guard)
	cy, err := lo.lowerCond(d.Y)
	lo.conds = lo.conds[:len(lo.conds)-1]
	if err != nil {
		return value{}, err
	}
	var id ir.NodeID
	if d.Op == ast.OpLAnd {
		id = lo.b.And(cx.id, cy.id)
	} else {
		id = lo.orBit(cx.id, cy.id)
	}
	return value{id: id, typ: types.Bool}, nil
}

// lowerArith applies the usual arithmetic conversions and emits the
// signedness-resolved IR operation.
func (lo *funcLowerer) lowerArith(op ast.BinOp, x, y value, at source.Span) (value, error) {
	cx, cy, common, err := lo.usualConvert(x, y, at)
	if err != nil {
		return value{}, err
	}
	signed := common.Signed
	var irop ir.Op
	rt := common
	switch op {
	case ast.OpAdd:
		irop = ir.OpAdd
	case ast.OpSub:
		irop = ir.OpSub
	case ast.OpMul:
		irop = pick(signed, ir.OpSMul, ir.OpUMul)
	case ast.OpDiv:
		irop = pick(signed, ir.OpSDiv, ir.OpUDiv)
	case ast.OpRem:
		irop = pick(signed, ir.OpSMod, ir.OpUMod)
	case ast.OpAnd:
		irop = ir.OpAnd
	case ast.OpOr:
		irop = ir.OpOr
	case ast.OpXor:
		irop = ir.OpXor
	case ast.OpShl:
		irop = ir.OpShll
	case ast.OpShr:
		irop = pick(signed, ir.OpShra, ir.OpShrl)
	case ast.OpEq:
		irop, rt = ir.OpEq, types.Bool
	case ast.OpNe:
		irop, rt = ir.OpNe, types.Bool
	case ast.OpLt:
		irop, rt = pick(signed, ir.OpSLt, ir.OpULt), types.Bool
	case ast.OpLe:
		irop, rt = pick(signed, ir.OpSLe, ir.OpULe), types.Bool
	case ast.OpGt:
		irop, rt = pick(signed, ir.OpSGt, ir.OpUGt), types.Bool
	case ast.OpGe:
		irop, rt = pick(signed, ir.OpSGe, ir.OpUGe), types.Bool
	default:
		return value{}, diag.Errorf(diag.UnsupportedConstruct, at, "unsupported binary operator")
	}
	return value{id: lo.b.Binary(irop, cx.id, cy.id), typ: rt}, nil
}

func pick(signed bool, s, u ir.Op) ir.Op {
	if signed {
		return s
	}
	return u
}

func (lo *funcLowerer) lowerAssign(e *ast.Expr) (value, error) {
	d := e.Data.(ast.AssignData)

	// The right side is sequenced before the left-side store.
	rv, err := lo.lowerExpr(d.RHS)
	if err != nil {
		return value{}, err
	}
	lv, ok, err := lo.tryLValue(d.LHS)
	if err != nil {
		return value{}, err
	}
	if !ok {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span, "expression is not assignable")
	}
	if lv.slot.ro {
		return value{}, diag.Errorf(diag.UnsupportedConstruct, e.Span,
			"assignment to read-only variable %q", lv.slot.name)
	}
	t := lo.lvType(lv)
	if d.Op != ast.OpNone {
		if t.Kind == types.KindStruct {
			return lo.lowerCompoundOverload(e, d, lv)
		}
		old := lo.readLV(lv)
		if rv, err = lo.lowerArith(d.Op, old, rv, e.Span); err != nil {
			return value{}, err
		}
	}
	cv, err := lo.convert(rv, t, e.Span)
	if err != nil {
		return value{}, err
	}
	if err := lo.writeLV(lv, cv.id, e.Span); err != nil {
		return value{}, err
	}
	return cv, nil
}

func (lo *funcLowerer) lowerTernary(e *ast.Expr) (value, error) {
	d := e.Data.(ast.TernaryData)
	c, err := lo.lowerCond(d.Cond)
	if err != nil {
		return value{}, err
	}

	lo.conds = append(lo.conds, c.id)
	tv, err := lo.lowerExpr(d.Then)
	lo.conds = lo.conds[:len(lo.conds)-1]
	if err != nil {
		return value{}, err
	}
	notC := lo.b.NotBit(c.id)
	lo.conds = append(lo.conds, notC)
	ev, err := lo.lowerExpr(d.Else)
	lo.conds = lo.conds[:len(lo.conds)-1]
	if err != nil {
		return value{}, err
	}

	if tv.typ.Equal(ev.typ) {
		return value{id: lo.b.Select(c.id, tv.id, ev.id), typ: tv.typ}, nil
	}
	ctv, cev, common, err := lo.usualConvert(tv, ev, e.Span)
	if err != nil {
		return value{}, err
	}
	return value{id: lo.b.Select(c.id, ctv.id, cev.id), typ: common}, nil
}

// lowerCond lowers e to its 1-bit truth value.
func (lo *funcLowerer) lowerCond(e *ast.Expr) (value, error) {
	v, err := lo.lowerExpr(e)
	if err != nil {
		return value{}, err
	}
	if v.typ.Kind == types.KindStruct {
		if v, err = lo.convert(v, types.Bool, e.Span); err != nil {
			return value{}, err
		}
	}
	if !v.typ.IsScalar() {
		return value{}, diag.Errorf(diag.ShapeTypeUnknown, e.Span, "condition of type %s", v.typ)
	}
	return lo.boolize(v), nil
}

// lowerInit lowers an initializer against a declared target type,
// accepting brace lists.
func (lo *funcLowerer) lowerInit(want *types.Type, e *ast.Expr) (value, error) {
	if e.Unparen().Kind == ast.ExprInitList {
		return lo.lowerInitList(want, e.Unparen())
	}
	v, err := lo.lowerExpr(e)
	if err != nil {
		return value{}, err
	}
	return lo.convert(v, want, e.Span)
}

// lowerInitList builds an aggregate from a brace list: short lists
// zero-pad, long lists are a shape error.
func (lo *funcLowerer) lowerInitList(want *types.Type, e *ast.Expr) (value, error) {
	elems := e.Data.(ast.InitListData).Elems
	switch want.Kind {
	case types.KindArray:
		if len(elems) > want.Size {
			return value{}, diag.Errorf(diag.ShapeInitTooLong, e.Span,
				"%d initializers for array of %d", len(elems), want.Size)
		}
		ids := make([]ir.NodeID, want.Size)
		for i := range ids {
			if i < len(elems) {
				ev, err := lo.lowerInit(want.Elem, elems[i])
				if err != nil {
					return value{}, err
				}
				ids[i] = ev.id
			} else {
				ids[i] = lo.b.ZeroValue(types.Encode(want.Elem))
			}
		}
		return value{id: lo.b.ArrayOf(types.Encode(want.Elem), ids...), typ: want}, nil
	case types.KindStruct:
		fields := want.Struct.Fields
		if len(elems) > len(fields) {
			return value{}, diag.Errorf(diag.ShapeInitTooLong, e.Span,
				"%d initializers for struct with %d fields", len(elems), len(fields))
		}
		ids := make([]ir.NodeID, len(fields))
		for i, f := range fields {
			if i < len(elems) {
				ev, err := lo.lowerInit(f.Type, elems[i])
				if err != nil {
					return value{}, err
				}
				ids[i] = ev.id
			} else {
				ids[i] = lo.b.ZeroValue(types.Encode(f.Type))
			}
		}
		if want.Struct.NoTuple {
			return value{id: ids[0], typ: want}, nil
		}
		return value{id: lo.b.TupleOf(ids...), typ: want}, nil
	default:
		switch len(elems) {
		case 0:
			return value{id: lo.b.ZeroValue(types.Encode(want)), typ: want}, nil
		case 1:
			return lo.lowerInit(want, elems[0])
		}
		return value{}, diag.Errorf(diag.ShapeInitTooLong, e.Span,
			"%d initializers for scalar type %s", len(elems), want)
	}
}
