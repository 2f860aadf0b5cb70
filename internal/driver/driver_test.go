package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/manifest"
)

const addSrc = `
int square(int x) {
  return x * x;
}

#pragma hls_top
int hyp2(int a, int b) {
  return square(a) + square(b);
}
`

func TestLowerSource(t *testing.T) {
	res, err := LowerSource("hyp.cc", []byte(addSrc), Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Package)
	require.Equal(t, "hyp", res.Package.Name)

	f := res.Package.Funcs[len(res.Package.Funcs)-1]
	got, err := ir.NewEvaluator(res.Package).EvalFn(f, map[string]ir.Value{
		"a": ir.SignedValue(3, 32),
		"b": ir.SignedValue(4, 32),
	})
	require.NoError(t, err)
	require.Equal(t, int64(25), got.Int64())

	phases, total := res.Timer.Report()
	require.GreaterOrEqual(t, len(phases), 3)
	require.Equal(t, "load", phases[0].Name)
	require.Equal(t, "scan", phases[1].Name)
	require.Equal(t, "translate", phases[2].Name)
	require.GreaterOrEqual(t, total, 0.0)
}

func TestLowerSourceInline(t *testing.T) {
	res, err := LowerSource("hyp.cc", []byte(addSrc), Options{Inline: true})
	require.NoError(t, err)
	f := res.Package.Funcs[len(res.Package.Funcs)-1]
	for _, n := range f.Nodes {
		require.NotEqual(t, ir.OpInvoke, n.Op)
	}
}

func TestLowerSourceErrorKeepsFiles(t *testing.T) {
	res, err := LowerSource("bad.cc", []byte(`
#pragma hls_top
int f(int x) {
  return y;
}
`), Options{})
	require.Error(t, err)
	require.Equal(t, diag.NotFoundSymbol, diag.CodeOf(err))
	// The partial result still carries the file set for rendering.
	require.NotNil(t, res.Files)
	require.NotNil(t, res.Timer)
	require.Nil(t, res.Package)
}

func TestLowerFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "top.cc")
	require.NoError(t, os.WriteFile(path, []byte(addSrc), 0o644))

	res, err := Lower(path, Options{})
	require.NoError(t, err)
	require.Equal(t, "top", res.Package.Name)
}

func TestLowerBlockFromDisk(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "echo.cc")
	mfPath := filepath.Join(dir, "echo.toml")
	require.NoError(t, os.WriteFile(srcPath, []byte(`
#pragma hls_top
void echo(__channel<int>& in, __channel<int>& out) {
  out.write(in.read());
}
`), 0o644))
	require.NoError(t, os.WriteFile(mfPath, []byte(`
name = "echo"

[[channel]]
name = "in"
dir = "in"

[[channel]]
name = "out"
dir = "out"
`), 0o644))

	res, err := LowerBlock(srcPath, mfPath, Options{})
	require.NoError(t, err)
	require.Len(t, res.Package.Procs, 1)

	proc := res.Package.Procs[0]
	out, err := ir.NewEvaluator(res.Package).RunProc(proc, map[string][]ir.Value{
		"in": {ir.BitsValue(9, 32)},
	})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{ir.BitsValue(9, 32)}, out["out"])
}

func TestLowerEntriesIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.cc")
	require.NoError(t, os.WriteFile(path, []byte(`
int twice(int x) {
  return 2 * x;
}

int broken(int x) {
  return nothere;
}
`), 0o644))

	bag := diag.NewBag(8)
	results, files, err := LowerEntries(context.Background(), path, []string{"twice", "broken"},
		Options{Reporter: diag.BagReporter{Bag: bag}})
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Len(t, results, 2)

	require.Equal(t, "twice", results[0].Top)
	require.NoError(t, results[0].Err)
	got, err := ir.NewEvaluator(results[0].Package).EvalFn(
		results[0].Package.Funcs[len(results[0].Package.Funcs)-1],
		map[string]ir.Value{"x": ir.SignedValue(21, 32)})
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Int64())

	require.Equal(t, "broken", results[1].Top)
	require.Error(t, results[1].Err)
	require.Equal(t, diag.NotFoundSymbol, diag.CodeOf(results[1].Err))

	// The failure also landed in the bag, renderable against the file set.
	require.Equal(t, 1, bag.Len())
	require.True(t, bag.HasErrors())
	require.Equal(t, diag.NotFoundSymbol, bag.Items()[0].Code)
	var buf bytes.Buffer
	diag.NewRenderer(files, false).RenderBag(&buf, bag)
	require.Contains(t, buf.String(), "nothere")
}

func TestLowerBlocksMultiManifest(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "pair.cc")
	require.NoError(t, os.WriteFile(srcPath, []byte(`
#pragma hls_top
void pair(__channel<int>& in, __channel<int>& out) {
  out.write(in.read() + 1);
}
`), 0o644))

	mf := []byte(`
[[block]]
name = "good"

[[block.channel]]
name = "in"
dir = "in"

[[block.channel]]
name = "out"
dir = "out"

[[block]]
name = "bad"

[[block.channel]]
name = "in"
dir = "in"
`)
	mfPath := filepath.Join(dir, "pair.toml")
	require.NoError(t, os.WriteFile(mfPath, mf, 0o644))
	blocks, err := manifest.LoadAll(mfPath)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	bag := diag.NewBag(8)
	results, files, err := LowerBlocks(context.Background(), srcPath, blocks,
		Options{Reporter: diag.BagReporter{Bag: bag}})
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Len(t, results, 2)

	require.Equal(t, "good", results[0].Top)
	require.NoError(t, results[0].Err)
	out, err := ir.NewEvaluator(results[0].Package).RunProc(results[0].Package.Procs[0],
		map[string][]ir.Value{"in": {ir.BitsValue(9, 32)}})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{ir.BitsValue(10, 32)}, out["out"])

	require.Equal(t, "bad", results[1].Top)
	require.Error(t, results[1].Err)
	require.Equal(t, 1, bag.Len())
}

func TestIRFileRoundTrip(t *testing.T) {
	res, err := LowerSource("hyp.cc", []byte(addSrc), Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hyp"+IRExt)
	require.NoError(t, WriteIR(path, res.Package))

	back, err := ReadIR(path)
	require.NoError(t, err)
	if diff := cmp.Diff(res.Package, back); diff != "" {
		t.Fatalf("package changed across the file round trip:\n%s", diff)
	}
}

func TestReadIRMissingFile(t *testing.T) {
	_, err := ReadIR(filepath.Join(t.TempDir(), "absent.sir"))
	require.Error(t, err)
}

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	ph := tm.Begin("scan")
	tm.End(ph, "3 funcs")
	tm.End(99, "") // out of range indices are ignored

	s := tm.Summary()
	require.Contains(t, s, "timings:")
	require.Contains(t, s, "scan")
	require.Contains(t, s, "// 3 funcs")
	require.Contains(t, s, "total")
}
