package trans_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/manifest"
	"sluice/internal/source"
	"sluice/internal/trans"
)

func lowerBlock(t *testing.T, src, mf string, opts trans.Options) (*ir.Package, error) {
	t.Helper()
	blk, err := manifest.Parse([]byte(mf))
	require.NoError(t, err)
	fs := source.NewFileSet()
	id := fs.Add("test.cc", []byte(src))
	unit, pm, err := trans.Scan(parserFE{}, fs.Get(id))
	require.NoError(t, err)
	return trans.New(unit, pm, fs, opts).TranslateBlock(blk)
}

const forkSrc = `
#pragma hls_top
void split(__channel<int>& in, __channel<int>& lo, __channel<int>& hi) {
  int v = in.read();
  if (v < 100) {
    lo.write(v);
  } else {
    hi.write(v);
  }
}
`

const forkManifest = `
name = "fork"

[[channel]]
name = "in"
dir = "in"

[[channel]]
name = "lo"
dir = "out"

[[channel]]
name = "hi"
dir = "out"
`

func TestBlockRouting(t *testing.T) {
	pkg, err := lowerBlock(t, forkSrc, forkManifest, trans.Options{})
	require.NoError(t, err)
	require.Len(t, pkg.Procs, 1)
	proc := pkg.Procs[0]
	require.Equal(t, "fork", proc.Name)
	require.Len(t, proc.Channels, 3)

	ev := ir.NewEvaluator(pkg)

	out, err := ev.RunProc(proc, map[string][]ir.Value{"in": {ir.BitsValue(7, 32)}})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{ir.BitsValue(7, 32)}, out["lo"])
	require.Empty(t, out["hi"])

	out, err = ev.RunProc(proc, map[string][]ir.Value{"in": {ir.BitsValue(200, 32)}})
	require.NoError(t, err)
	require.Empty(t, out["lo"])
	require.Equal(t, []ir.Value{ir.BitsValue(200, 32)}, out["hi"])
}

func TestBlockUnconditionalRecvHasNoPredicate(t *testing.T) {
	pkg, err := lowerBlock(t, forkSrc, forkManifest, trans.Options{})
	require.NoError(t, err)
	proc := pkg.Procs[0]

	var recv *ir.ProcOp
	for i := range proc.Ops {
		if proc.Ops[i].Kind == ir.ProcRecv {
			recv = &proc.Ops[i]
		}
	}
	require.NotNil(t, recv)
	require.Equal(t, "in", recv.Channel)
	require.Equal(t, ir.NoNode, recv.Pred)
}

const threshSrc = `
#pragma hls_top
void thresh(int cut, __channel<int>& in, __channel<int>& out) {
  int v = in.read();
  if (v >= cut) {
    out.write(v);
  }
}
`

const threshManifest = `
name = "thresh"

[[channel]]
name = "cut"
dir = "in"
kind = "direct"

[[channel]]
name = "in"
dir = "in"

[[channel]]
name = "out"
dir = "out"
`

func TestBlockDirectInput(t *testing.T) {
	pkg, err := lowerBlock(t, threshSrc, threshManifest, trans.Options{})
	require.NoError(t, err)
	proc := pkg.Procs[0]
	require.Equal(t, ir.KindDirect, proc.Channel("cut").Kind)
	require.Equal(t, ir.KindFIFO, proc.Channel("in").Kind)

	ev := ir.NewEvaluator(pkg)
	cut := []ir.Value{ir.BitsValue(10, 32)}

	out, err := ev.RunProc(proc, map[string][]ir.Value{"cut": cut, "in": {ir.BitsValue(20, 32)}})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{ir.BitsValue(20, 32)}, out["out"])

	out, err = ev.RunProc(proc, map[string][]ir.Value{"cut": cut, "in": {ir.BitsValue(5, 32)}})
	require.NoError(t, err)
	require.Empty(t, out["out"])
}

func TestBlockAllSingleValue(t *testing.T) {
	pkg, err := lowerBlock(t, threshSrc, threshManifest, trans.Options{AllSingleValue: true})
	require.NoError(t, err)
	proc := pkg.Procs[0]
	for _, name := range []string{"cut", "in", "out"} {
		require.Equal(t, ir.KindDirect, proc.Channel(name).Kind, name)
	}
}

func TestBlockMuxByDirectControl(t *testing.T) {
	pkg, err := lowerBlock(t, `
#pragma hls_top
void mux(int sel, __channel<int>& in, __channel<int>& out0, __channel<int>& out1) {
  int v = in.read();
  if (sel == 0) {
    out0.write(v);
  } else {
    out1.write(v);
  }
}
`, `
name = "mux"

[[channel]]
name = "sel"
dir = "in"
kind = "direct"

[[channel]]
name = "in"
dir = "in"

[[channel]]
name = "out0"
dir = "out"

[[channel]]
name = "out1"
dir = "out"
`, trans.Options{})
	require.NoError(t, err)
	proc := pkg.Procs[0]
	ev := ir.NewEvaluator(pkg)

	out, err := ev.RunProc(proc, map[string][]ir.Value{
		"sel": {ir.BitsValue(0, 32)},
		"in":  {ir.BitsValue(11, 32)},
	})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{ir.BitsValue(11, 32)}, out["out0"])
	require.Empty(t, out["out1"])

	out, err = ev.RunProc(proc, map[string][]ir.Value{
		"sel": {ir.BitsValue(1, 32)},
		"in":  {ir.BitsValue(22, 32)},
	})
	require.NoError(t, err)
	require.Empty(t, out["out0"])
	require.Equal(t, []ir.Value{ir.BitsValue(22, 32)}, out["out1"])
}

func TestBlockErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		mf   string
		code diag.Code
		msg  string
	}{
		{
			name: "entry returns a value",
			src: `
#pragma hls_top
int f(__channel<int>& in) {
  return in.read();
}
`,
			mf:   "name = \"b\"\n\n[[channel]]\nname = \"in\"\ndir = \"in\"\n",
			code: diag.UnsupportedConstruct,
			msg:  "must return void",
		},
		{
			name: "parameter missing from manifest",
			src: `
#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  out.write(in.read());
}
`,
			mf:   "name = \"b\"\n\n[[channel]]\nname = \"in\"\ndir = \"in\"\n",
			code: diag.NotFoundChan,
		},
		{
			name: "manifest channel unused",
			src: `
#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  out.write(in.read());
}
`,
			mf: "name = \"b\"\n\n[[channel]]\nname = \"in\"\ndir = \"in\"\n" +
				"\n[[channel]]\nname = \"out\"\ndir = \"out\"\n" +
				"\n[[channel]]\nname = \"spare\"\ndir = \"in\"\n",
			code: diag.NotFoundChan,
			msg:  `manifest channel "spare"`,
		},
		{
			name: "write on input channel",
			src: `
#pragma hls_top
void f(__channel<int>& a, __channel<int>& b) {
  b.write(a.read());
}
`,
			mf: "name = \"b\"\n\n[[channel]]\nname = \"a\"\ndir = \"in\"\n" +
				"\n[[channel]]\nname = \"b\"\ndir = \"in\"\n",
			code: diag.UnsupportedConstruct,
			msg:  `write on input channel "b"`,
		},
		{
			name: "value parameter over a fifo",
			src:  threshSrc,
			mf: "name = \"thresh\"\n\n[[channel]]\nname = \"cut\"\ndir = \"in\"\n" +
				"\n[[channel]]\nname = \"in\"\ndir = \"in\"\n" +
				"\n[[channel]]\nname = \"out\"\ndir = \"out\"\n",
			code: diag.NotFoundChan,
			msg:  "requires a direct input channel",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lowerBlock(t, tt.src, tt.mf, trans.Options{})
			require.Error(t, err)
			require.Equal(t, tt.code, diag.CodeOf(err))
			if tt.msg != "" {
				require.ErrorContains(t, err, tt.msg)
			}
		})
	}
}
