package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalFnArithmetic(t *testing.T) {
	b := NewBuilder("calc")
	x := b.Param("x", Bits(32))
	y := b.Param("y", Bits(32))
	sum := b.Binary(OpAdd, x, y)
	twice := b.Binary(OpSMul, sum, b.Literal(2, Bits(32)))
	f := b.Finish(twice)

	ev := NewEvaluator(&Package{Funcs: []*Fn{f}})
	got, err := ev.EvalFn(f, map[string]Value{
		"x": SignedValue(-3, 32),
		"y": SignedValue(10, 32),
	})
	require.NoError(t, err)
	require.Equal(t, int64(14), got.Int64())
}

func TestEvalFnMissingArgument(t *testing.T) {
	b := NewBuilder("f")
	x := b.Param("x", Bits(8))
	f := b.Finish(x)

	_, err := NewEvaluator(&Package{Funcs: []*Fn{f}}).EvalFn(f, nil)
	require.ErrorContains(t, err, `missing argument "x"`)
}

func TestEvalSignedOps(t *testing.T) {
	b := NewBuilder("f")
	x := b.Param("x", Bits(8))
	y := b.Param("y", Bits(8))
	f := b.Finish(b.Binary(OpSDiv, x, y))

	ev := NewEvaluator(&Package{Funcs: []*Fn{f}})
	got, err := ev.EvalFn(f, map[string]Value{
		"x": SignedValue(-7, 8),
		"y": SignedValue(2, 8),
	})
	require.NoError(t, err)
	require.Equal(t, int64(-3), got.Int64())
}

func TestEvalShiftOutOfRange(t *testing.T) {
	b := NewBuilder("f")
	x := b.Param("x", Bits(8))
	n := b.Param("n", Bits(8))
	f := b.Finish(b.Binary(OpShll, x, n))

	ev := NewEvaluator(&Package{Funcs: []*Fn{f}})
	got, err := ev.EvalFn(f, map[string]Value{
		"x": BitsValue(0xFF, 8),
		"n": BitsValue(9, 8),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Uint64())
}

func TestEvalArrayIndexClamps(t *testing.T) {
	b := NewBuilder("f")
	arr := b.ArrayOf(Bits(8),
		b.Literal(10, Bits(8)), b.Literal(20, Bits(8)), b.Literal(30, Bits(8)))
	idx := b.Param("i", Bits(8))
	f := b.Finish(b.ArrayIndex(arr, idx))

	ev := NewEvaluator(&Package{Funcs: []*Fn{f}})
	got, err := ev.EvalFn(f, map[string]Value{"i": BitsValue(1, 8)})
	require.NoError(t, err)
	require.Equal(t, uint64(20), got.Uint64())

	// Out-of-range reads clamp to the last element.
	got, err = ev.EvalFn(f, map[string]Value{"i": BitsValue(200, 8)})
	require.NoError(t, err)
	require.Equal(t, uint64(30), got.Uint64())
}

func TestEvalArrayUpdateIgnoresOutOfRange(t *testing.T) {
	b := NewBuilder("f")
	arr := b.ArrayOf(Bits(8), b.Literal(1, Bits(8)), b.Literal(2, Bits(8)))
	idx := b.Param("i", Bits(8))
	f := b.Finish(b.ArrayUpdate(arr, idx, b.Literal(9, Bits(8))))

	ev := NewEvaluator(&Package{Funcs: []*Fn{f}})
	got, err := ev.EvalFn(f, map[string]Value{"i": BitsValue(0, 8)})
	require.NoError(t, err)
	require.Equal(t, uint64(9), got.Elems[0].Uint64())
	require.Equal(t, uint64(2), got.Elems[1].Uint64())

	got, err = ev.EvalFn(f, map[string]Value{"i": BitsValue(5, 8)})
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.Elems[0].Uint64())
	require.Equal(t, uint64(2), got.Elems[1].Uint64())
}

func TestEvalInvoke(t *testing.T) {
	cb := NewBuilder("double")
	cx := cb.Param("v", Bits(32))
	callee := cb.Finish(cb.Binary(OpAdd, cx, cx))

	b := NewBuilder("main")
	x := b.Param("x", Bits(32))
	f := b.Finish(b.Invoke(callee, x))

	pkg := &Package{Funcs: []*Fn{callee, f}}
	got, err := NewEvaluator(pkg).EvalFn(f, map[string]Value{"x": BitsValue(21, 32)})
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.Uint64())
}

// muxProc routes the input to out1 when it is even, else to out2, and also
// samples a direct threshold port.
func muxProc(t *testing.T) *Proc {
	t.Helper()
	b := NewBuilder("mux_body")
	v := b.Param("in", Bits(32))
	even := b.Binary(OpEq, b.Binary(OpAnd, v, b.Literal(1, Bits(32))), b.Literal(0, Bits(32)))
	odd := b.NotBit(even)
	body := b.Finish(NoNode)

	return &Proc{
		Name: "mux",
		Channels: []Channel{
			{Name: "in", Dir: DirInput, Kind: KindFIFO, Type: Bits(32)},
			{Name: "out1", Dir: DirOutput, Kind: KindFIFO, Type: Bits(32)},
			{Name: "out2", Dir: DirOutput, Kind: KindFIFO, Type: Bits(32)},
		},
		Body: body,
		Ops: []ProcOp{
			{Kind: ProcRecv, Channel: "in", Param: v},
			{Kind: ProcSend, Channel: "out1", Value: v, Pred: even},
			{Kind: ProcSend, Channel: "out2", Value: v, Pred: odd},
		},
	}
}

func TestRunProcRouting(t *testing.T) {
	p := muxProc(t)
	ev := NewEvaluator(&Package{Procs: []*Proc{p}})

	out, err := ev.RunProc(p, map[string][]Value{"in": {BitsValue(4, 32)}})
	require.NoError(t, err)
	require.Len(t, out["out1"], 1)
	require.Empty(t, out["out2"])
	require.Equal(t, uint64(4), out["out1"][0].Uint64())

	out, err = ev.RunProc(p, map[string][]Value{"in": {BitsValue(7, 32)}})
	require.NoError(t, err)
	require.Empty(t, out["out1"])
	require.Len(t, out["out2"], 1)
}

func TestRunProcBlockedOnEmptyChannel(t *testing.T) {
	p := muxProc(t)
	ev := NewEvaluator(&Package{Procs: []*Proc{p}})
	_, err := ev.RunProc(p, nil)
	require.ErrorContains(t, err, "activation blocked")
}

func TestRunProcDirectSample(t *testing.T) {
	b := NewBuilder("body")
	bias := b.Param("bias", Bits(32))
	v := b.Param("in", Bits(32))
	sum := b.Binary(OpAdd, v, bias)
	body := b.Finish(NoNode)

	p := &Proc{
		Name: "adder",
		Channels: []Channel{
			{Name: "bias", Dir: DirInput, Kind: KindDirect, Type: Bits(32)},
			{Name: "in", Dir: DirInput, Kind: KindFIFO, Type: Bits(32)},
			{Name: "out", Dir: DirOutput, Kind: KindFIFO, Type: Bits(32)},
		},
		Body: body,
		Ops: []ProcOp{
			{Kind: ProcDirect, Channel: "bias", Param: bias},
			{Kind: ProcRecv, Channel: "in", Param: v},
			{Kind: ProcSend, Channel: "out", Value: sum},
		},
	}

	ev := NewEvaluator(&Package{Procs: []*Proc{p}})
	out, err := ev.RunProc(p, map[string][]Value{
		"bias": {BitsValue(100, 32)},
		"in":   {BitsValue(1, 32)},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(101), out["out"][0].Uint64())
}

func TestZeroOf(t *testing.T) {
	z := ZeroOf(Tuple(Bits(8), Array(Bits(4), 2)))
	require.Len(t, z.Elems, 2)
	require.Equal(t, uint64(0), z.Elems[0].Uint64())
	require.Len(t, z.Elems[1].Elems, 2)
}

func TestValueEqual(t *testing.T) {
	a := TupleValue(BitsValue(3, 8), BitsValue(1, 1))
	b := TupleValue(BitsValue(3, 8), BitsValue(1, 1))
	c := TupleValue(BitsValue(4, 8), BitsValue(1, 1))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(BitsValue(3, 8)))
}
