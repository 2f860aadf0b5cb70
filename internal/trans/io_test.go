package trans_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/trans"
)

// evalRaw runs the entry with explicit argument values, for channel-backed
// parameters whose types are not plain scalars.
func evalRaw(t *testing.T, pkg *ir.Package, args map[string]ir.Value) ir.Value {
	t.Helper()
	got, err := ir.NewEvaluator(pkg).EvalFn(entry(pkg), args)
	require.NoError(t, err)
	return got
}

func TestChannelReadWritePacking(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
void add_one(__channel<int>& in, __channel<int>& out) {
  out.write(in.read() + 1);
}
`)
	f := entry(pkg)
	require.Len(t, f.Params, 1)
	require.Equal(t, "in", f.Node(f.Params[0]).Name)
	require.Equal(t, 32, f.Node(f.Params[0]).Type.Width)

	got := evalRaw(t, pkg, map[string]ir.Value{"in": ir.BitsValue(5, 32)})
	want := ir.TupleValue(
		ir.BitsValue(5, 32),
		ir.TupleValue(ir.BitsValue(6, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, want.Equal(got), "got %s", got)
}

func TestConditionalChannelOps(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
void gate(__channel<int>& ctrl, __channel<int>& data, __channel<int>& out) {
  if (ctrl.read() == 1) {
    out.write(data.read());
  }
}
`)
	eval := func(ctrl, data uint64) ir.Value {
		return evalRaw(t, pkg, map[string]ir.Value{
			"ctrl": ir.BitsValue(ctrl, 32),
			"data": ir.BitsValue(data, 32),
		})
	}

	open := ir.TupleValue(
		ir.BitsValue(1, 32),
		ir.TupleValue(ir.BitsValue(7, 32), ir.BitsValue(1, 1)),
		ir.TupleValue(ir.BitsValue(7, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, open.Equal(eval(1, 7)))

	// A closed gate masks both the dequeue and the send to zero.
	closed := ir.TupleValue(
		ir.BitsValue(0, 32),
		ir.TupleValue(ir.BitsValue(0, 32), ir.BitsValue(0, 1)),
		ir.TupleValue(ir.BitsValue(0, 32), ir.BitsValue(0, 1)),
	)
	require.True(t, closed.Equal(eval(0, 7)))
}

func TestChainedConditionalReads(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
void chain(__channel<int>& a, __channel<int>& b, __channel<int>& out) {
  if (a.read() > 0) {
    if (b.read() > 10) {
      out.write(1);
    }
  }
}
`)
	eval := func(a, b uint64) ir.Value {
		return evalRaw(t, pkg, map[string]ir.Value{
			"a": ir.BitsValue(a, 32),
			"b": ir.BitsValue(b, 32),
		})
	}

	// Both guards hold: the inner read fires and so does the send.
	want := ir.TupleValue(
		ir.BitsValue(5, 32),
		ir.TupleValue(ir.BitsValue(20, 32), ir.BitsValue(1, 1)),
		ir.TupleValue(ir.BitsValue(1, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, want.Equal(eval(5, 20)), "got %s", eval(5, 20))

	// The outer guard fails: the inner read and the send are both masked.
	want = ir.TupleValue(
		ir.BitsValue(0, 32),
		ir.TupleValue(ir.BitsValue(0, 32), ir.BitsValue(0, 1)),
		ir.TupleValue(ir.BitsValue(0, 32), ir.BitsValue(0, 1)),
	)
	require.True(t, want.Equal(eval(0, 20)), "got %s", eval(0, 20))

	// The inner guard fails: the read fires but the send does not.
	want = ir.TupleValue(
		ir.BitsValue(5, 32),
		ir.TupleValue(ir.BitsValue(3, 32), ir.BitsValue(1, 1)),
		ir.TupleValue(ir.BitsValue(0, 32), ir.BitsValue(0, 1)),
	)
	require.True(t, want.Equal(eval(5, 3)), "got %s", eval(5, 3))
}

func TestRepeatedReadsShareTupleParam(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
void pairsum(__channel<int>& in, __channel<int>& out) {
  int a = in.read();
  int b = in.read();
  out.write(a + b);
}
`)
	f := entry(pkg)
	require.Len(t, f.Params, 1)
	p := f.Node(f.Params[0])
	require.Equal(t, "in", p.Name)
	require.Equal(t, ir.KindTuple, p.Type.Kind)
	require.Len(t, p.Type.Elems, 2)

	got := evalRaw(t, pkg, map[string]ir.Value{
		"in": ir.TupleValue(ir.BitsValue(3, 32), ir.BitsValue(4, 32)),
	})
	want := ir.TupleValue(
		ir.BitsValue(3, 32),
		ir.BitsValue(4, 32),
		ir.TupleValue(ir.BitsValue(7, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, want.Equal(got), "got %s", got)
}

func TestChannelPassthroughSubroutine(t *testing.T) {
	pkg := mustLower(t, `
void pump(__channel<int>& c, __channel<int>& o) {
  o.write(c.read() * 2);
}

#pragma hls_top
void top(__channel<int>& in, __channel<int>& out) {
  pump(in, out);
}
`)
	got := evalRaw(t, pkg, map[string]ir.Value{"in": ir.BitsValue(5, 32)})
	want := ir.TupleValue(
		ir.BitsValue(5, 32),
		ir.TupleValue(ir.BitsValue(10, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, want.Equal(got), "got %s", got)
}

func TestValueParamAlongsideChannels(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
void scale(int k, __channel<int>& in, __channel<int>& out) {
  out.write(in.read() * k);
}
`)
	f := entry(pkg)
	require.Len(t, f.Params, 2)
	require.Equal(t, "k", f.Node(f.Params[0]).Name)
	require.Equal(t, "in", f.Node(f.Params[1]).Name)

	got := evalRaw(t, pkg, map[string]ir.Value{
		"k":  ir.BitsValue(3, 32),
		"in": ir.BitsValue(5, 32),
	})
	want := ir.TupleValue(
		ir.BitsValue(5, 32),
		ir.TupleValue(ir.BitsValue(15, 32), ir.BitsValue(1, 1)),
	)
	require.True(t, want.Equal(got), "got %s", got)
}

func TestChannelDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{
			name: "channel by value",
			src: `
#pragma hls_top
void f(__channel<int> in, __channel<int>& out) {
  out.write(in.read());
}
`,
			code: diag.UnsupportedChannelIndirect,
		},
		{
			name: "channel declared locally",
			src: `
#pragma hls_top
void f(__channel<int>& out) {
  __channel<int> c;
  out.write(1);
}
`,
			code: diag.UnsupportedChannelCapture,
		},
		{
			name: "channel used as a value",
			src: `
#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  int x = in;
  out.write(x);
}
`,
			code: diag.UnsupportedChannelIndirect,
		},
		{
			name: "read inside operator",
			src: `
struct S {
  int v;
  int operator+(__channel<int>& c) {
    return v + c.read();
  }
};

#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  S s;
  out.write(s + in);
}
`,
			code: diag.UnsupportedIOInOperator,
		},
		{
			name: "channel expression argument",
			src: `
void pump(__channel<int>& c, __channel<int>& o) {
  o.write(c.read());
}

#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  pump((in), out);
}
`,
			code: diag.UnknownCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lowerSrc(t, tt.src, trans.Options{})
			if tt.code == diag.UnknownCode {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.code, diag.CodeOf(err))
		})
	}
}
