package trans

import (
	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/source"
	"sluice/internal/types"
)

// value is one lowered rvalue: an IR node plus its semantic type.
type value struct {
	id  ir.NodeID
	typ *types.Type
}

// varSlot holds the current IR value of one storage root. Assignment
// replaces val; conditional assignment replaces it with a select.
type varSlot struct {
	name string
	typ  *types.Type
	val  ir.NodeID
	// ro marks const bindings; stores through them are rejected.
	ro bool
}

type pathKind uint8

const (
	pathField pathKind = iota
	pathIndex
)

// pathElem is one step from a storage root toward the addressed element.
type pathElem struct {
	kind  pathKind
	field int
	idx   ir.NodeID
}

// lvalue addresses an element inside a storage root.
type lvalue struct {
	slot *varSlot
	path []pathElem
}

// binding resolves a name in scope: an addressable location, or a channel
// endpoint when chanName is set.
type binding struct {
	lv       lvalue
	typ      *types.Type
	chanName string
}

type scope struct {
	vars map[string]*binding
}

type frameKind uint8

const (
	frameLoop frameKind = iota
	frameSwitch
)

// frame tracks one enclosing loop or switch: its break/continue predicates
// and enough context to police break placement.
type frame struct {
	kind frameKind
	// brk is 1 once a break has fired for the active input.
	brk ir.NodeID
	// cont is 1 once a continue has fired in the current loop iteration.
	cont ir.NodeID
	// caseDepth is the condition stack depth where the current switch
	// case body began.
	caseDepth int
	// loopVar is the induction variable slot; writes to it from the body
	// are rejected.
	loopVar *varSlot
	// inInc marks lowering of the loop increment clause, where the
	// induction variable write is unmasked so it stays a literal.
	inInc bool
}

type valueParam struct {
	name string
	typ  *types.Type
	id   ir.NodeID
}

// funcLowerer lowers one function body into a builder. Inlined callees run
// in a child lowerer sharing the builder, the I/O recorder, and the caller's
// activation condition.
type funcLowerer struct {
	t   *Translator
	b   *ir.Builder
	fd  *ast.FuncDecl
	bnd types.Bindings

	scopes []*scope
	conds  []ir.NodeID
	frames []*frame

	retType  *types.Type
	retVal   ir.NodeID
	returned ir.NodeID

	// recv is the receiver binding of a method body, nil for free functions.
	recv *binding

	io          *ioRecorder
	inOperator  bool
	valueParams []valueParam
}

func newFuncLowerer(t *Translator, name string, fd *ast.FuncDecl, bind types.Bindings) *funcLowerer {
	lo := &funcLowerer{
		t:   t,
		b:   ir.NewBuilder(name),
		fd:  fd,
		bnd: bind,
	}
	lo.pushScope()
	return lo
}

// childLowerer runs an inlined callee in the caller's graph: same builder,
// same I/O recorder, the caller's activation condition as the baseline.
func (lo *funcLowerer) childLowerer(fd *ast.FuncDecl, bind types.Bindings) *funcLowerer {
	child := &funcLowerer{
		t:          lo.t,
		b:          lo.b,
		fd:         fd,
		bnd:        bind,
		conds:      []ir.NodeID{lo.effCond()},
		io:         lo.io,
		inOperator: lo.inOperator,
	}
	child.pushScope()
	return child
}

// lowerBody runs the function body and leaves the folded return value in
// retVal.
func (lo *funcLowerer) lowerBody(retType *types.Type) error {
	lo.retType = retType
	lo.returned = lo.b.Bool(false)
	if retType.Kind != types.KindVoid {
		lo.retVal = lo.b.ZeroValue(types.Encode(retType))
	}
	return lo.lowerStmt(lo.fd.Body)
}

func (lo *funcLowerer) pushScope() {
	lo.scopes = append(lo.scopes, &scope{vars: make(map[string]*binding)})
}

func (lo *funcLowerer) popScope() {
	lo.scopes = lo.scopes[:len(lo.scopes)-1]
}

func (lo *funcLowerer) define(name string, bnd *binding) {
	lo.scopes[len(lo.scopes)-1].vars[name] = bnd
}

func (lo *funcLowerer) lookup(name string) *binding {
	for i := len(lo.scopes) - 1; i >= 0; i-- {
		if b, ok := lo.scopes[i].vars[name]; ok {
			return b
		}
	}
	return nil
}

// effCond is the activation condition of the current statement: every
// enclosing branch condition, not-yet-returned, and no enclosing break or
// continue fired. Folds to a literal 1 on the unconditional path.
func (lo *funcLowerer) effCond() ir.NodeID {
	c := lo.b.Bool(true)
	for _, cn := range lo.conds {
		c = lo.b.And(c, cn)
	}
	if lo.returned != ir.NoNode {
		c = lo.b.And(c, lo.b.NotBit(lo.returned))
	}
	for _, fr := range lo.frames {
		if fr.brk != ir.NoNode {
			c = lo.b.And(c, lo.b.NotBit(fr.brk))
		}
		if fr.cont != ir.NoNode {
			c = lo.b.And(c, lo.b.NotBit(fr.cont))
		}
	}
	return c
}

// orBit disjoins two 1-bit values with literal identities folded.
func (lo *funcLowerer) orBit(x, y ir.NodeID) ir.NodeID {
	if v, ok := lo.b.LiteralValue(x); ok {
		if v != 0 {
			return x
		}
		return y
	}
	if v, ok := lo.b.LiteralValue(y); ok {
		if v != 0 {
			return y
		}
		return x
	}
	return lo.b.Binary(ir.OpOr, x, y)
}

// readLV loads the addressed element.
func (lo *funcLowerer) readLV(lv lvalue) value {
	v := lv.slot.val
	t := lv.slot.typ
	for _, pe := range lv.path {
		switch pe.kind {
		case pathField:
			f := t.Struct.Fields[pe.field]
			if !t.Struct.NoTuple {
				v = lo.b.TupleIndex(v, pe.field)
			}
			t = f.Type
		case pathIndex:
			v = lo.b.ArrayIndex(v, pe.idx)
			t = t.Elem
		}
	}
	return value{id: v, typ: t}
}

// lvType is the element type an lvalue addresses.
func (lo *funcLowerer) lvType(lv lvalue) *types.Type {
	t := lv.slot.typ
	for _, pe := range lv.path {
		if pe.kind == pathField {
			t = t.Struct.Fields[pe.field].Type
		} else {
			t = t.Elem
		}
	}
	return t
}

// writeLV stores val into the addressed element, masked by the current
// activation condition so untaken paths keep the old value.
func (lo *funcLowerer) writeLV(lv lvalue, val ir.NodeID, at source.Span) error {
	for _, fr := range lo.frames {
		if fr.loopVar == lv.slot {
			if fr.inInc {
				// The increment clause keeps the induction variable a
				// compile-time literal; it never masks.
				lv.slot.val = lo.rebuild(lv.slot.val, lv.slot.typ, lv.path, val)
				return nil
			}
			return diag.Errorf(diag.BoundLoopVarWrite, at,
				"assignment to loop variable %q is forbidden in this context", lv.slot.name)
		}
	}
	newRoot := lo.rebuild(lv.slot.val, lv.slot.typ, lv.path, val)
	lv.slot.val = lo.b.Select(lo.effCond(), newRoot, lv.slot.val)
	return nil
}

// rebuild reconstructs the root value with the addressed element replaced.
func (lo *funcLowerer) rebuild(root ir.NodeID, t *types.Type, path []pathElem, val ir.NodeID) ir.NodeID {
	if len(path) == 0 {
		return val
	}
	pe := path[0]
	if pe.kind == pathField {
		ft := t.Struct.Fields[pe.field].Type
		if t.Struct.NoTuple {
			return lo.rebuild(root, ft, path[1:], val)
		}
		elems := make([]ir.NodeID, len(t.Struct.Fields))
		for i := range elems {
			elems[i] = lo.b.TupleIndex(root, i)
		}
		elems[pe.field] = lo.rebuild(elems[pe.field], ft, path[1:], val)
		return lo.b.TupleOf(elems...)
	}
	if len(path) == 1 {
		return lo.b.ArrayUpdate(root, pe.idx, val)
	}
	inner := lo.b.ArrayIndex(root, pe.idx)
	updated := lo.rebuild(inner, t.Elem, path[1:], val)
	return lo.b.ArrayUpdate(root, pe.idx, updated)
}

// convert adapts a scalar value to the destination type: widening extends
// by source signedness, narrowing slices, bool targets compare against zero.
func (lo *funcLowerer) convert(v value, to *types.Type, at source.Span) (value, error) {
	if v.typ.Equal(to) {
		return v, nil
	}
	if v.typ.Kind == types.KindStruct {
		conv, ok, err := lo.tryConversion(v, to, at)
		if err != nil {
			return value{}, err
		}
		if ok {
			return lo.convert(conv, to, at)
		}
	}
	if !v.typ.IsScalar() || !to.IsScalar() {
		return value{}, diag.Errorf(diag.ShapeTypeUnknown, at,
			"cannot convert %s to %s", v.typ, to)
	}
	if to.Kind == types.KindBool {
		return lo.boolize(v), nil
	}
	id := lo.b.Extend(v.id, to.Width, v.typ.IsSigned())
	return value{id: id, typ: to}, nil
}

// boolize maps a scalar to its truth value.
func (lo *funcLowerer) boolize(v value) value {
	if v.typ.Kind == types.KindBool {
		return v
	}
	zero := lo.b.Literal(0, ir.Bits(v.typ.Width))
	return value{id: lo.b.Binary(ir.OpNe, v.id, zero), typ: types.Bool}
}

// usualConvert applies the arithmetic conversion to both operands.
func (lo *funcLowerer) usualConvert(x, y value, at source.Span) (value, value, *types.Type, error) {
	xt, yt := scalarOf(x.typ), scalarOf(y.typ)
	common := types.Common(xt, yt)
	cx, err := lo.convert(value{id: x.id, typ: xt}, common, at)
	if err != nil {
		return value{}, value{}, nil, err
	}
	cy, err := lo.convert(value{id: y.id, typ: yt}, common, at)
	if err != nil {
		return value{}, value{}, nil, err
	}
	return cx, cy, common, nil
}

// scalarOf treats bool as a 1-bit unsigned integer for arithmetic.
func scalarOf(t *types.Type) *types.Type {
	if t.Kind == types.KindBool {
		return types.Integer(1, false)
	}
	return t
}

// literalInt builds an integer literal value.
func (lo *funcLowerer) literalInt(v int64, t *types.Type) value {
	return value{id: lo.b.Literal(ir.FromSigned(v, t.Width), ir.Bits(t.Width)), typ: t}
}
