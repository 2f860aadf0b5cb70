package trans_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/frontend"
	"sluice/internal/ir"
	"sluice/internal/source"
	"sluice/internal/trans"
)

type parserFE struct{}

func (parserFE) Parse(f *source.File) (*ast.File, error) {
	return frontend.Parse(f)
}

func lowerSrc(t *testing.T, src string, opts trans.Options) (*ir.Package, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("test.cc", []byte(src))
	unit, pm, err := trans.Scan(parserFE{}, fs.Get(id))
	require.NoError(t, err)
	return trans.New(unit, pm, fs, opts).Translate()
}

func mustLower(t *testing.T, src string) *ir.Package {
	t.Helper()
	pkg, err := lowerSrc(t, src, trans.Options{})
	require.NoError(t, err)
	return pkg
}

// entry returns the translated top function. Lowered subroutines are added
// during translation, so the entry sits last.
func entry(pkg *ir.Package) *ir.Fn {
	return pkg.Funcs[len(pkg.Funcs)-1]
}

// evalEntry runs the entry with signed scalar arguments by parameter name.
func evalEntry(t *testing.T, pkg *ir.Package, args map[string]int64) ir.Value {
	t.Helper()
	f := entry(pkg)
	vals := make(map[string]ir.Value, len(f.Params))
	for _, pid := range f.Params {
		p := f.Node(pid)
		v, ok := args[p.Name]
		require.True(t, ok, "missing test argument %q", p.Name)
		vals[p.Name] = ir.SignedValue(v, p.Type.Width)
	}
	got, err := ir.NewEvaluator(pkg).EvalFn(f, vals)
	require.NoError(t, err)
	return got
}

func TestConstReturn(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int answer() {
  return 123;
}
`)
	got := evalEntry(t, pkg, nil)
	require.Equal(t, int64(123), got.Int64())
}

func TestArithmetic(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int scale(int x, int y) {
  return x * y + 1;
}
`)
	got := evalEntry(t, pkg, map[string]int64{"x": 6, "y": 7})
	require.Equal(t, int64(43), got.Int64())
}

func TestMixedWidthConversion(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int widen(short a, char b) {
  return a + b;
}
`)
	got := evalEntry(t, pkg, map[string]int64{"a": 1000, "b": -100})
	require.Equal(t, int64(900), got.Int64())
}

func TestTernary(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int pickmax(int a, int b) {
  return a > b ? a : b;
}
`)
	require.Equal(t, int64(9), evalEntry(t, pkg, map[string]int64{"a": 9, "b": 4}).Int64())
	require.Equal(t, int64(4), evalEntry(t, pkg, map[string]int64{"a": -9, "b": 4}).Int64())
}

func TestIfElsePredication(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int clamp(int v) {
  int r = v;
  if (v > 100) {
    r = 100;
  } else if (v < 0) {
    r = 0;
  }
  return r;
}
`)
	require.Equal(t, int64(100), evalEntry(t, pkg, map[string]int64{"v": 150}).Int64())
	require.Equal(t, int64(0), evalEntry(t, pkg, map[string]int64{"v": -5}).Int64())
	require.Equal(t, int64(42), evalEntry(t, pkg, map[string]int64{"v": 42}).Int64())
}

func TestEarlyReturnMasksLaterWrites(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int sign(int v) {
  if (v < 0) {
    return -1;
  }
  if (v == 0) {
    return 0;
  }
  return 1;
}
`)
	require.Equal(t, int64(-1), evalEntry(t, pkg, map[string]int64{"v": -7}).Int64())
	require.Equal(t, int64(0), evalEntry(t, pkg, map[string]int64{"v": 0}).Int64())
	require.Equal(t, int64(1), evalEntry(t, pkg, map[string]int64{"v": 3}).Int64())
}

func TestSelectTop(t *testing.T) {
	src := `
int helper(int v) {
  return v;
}
int main_fn(int v) {
  return v + 1;
}
`
	// No annotation and no configured name.
	_, err := lowerSrc(t, src, trans.Options{})
	require.Equal(t, diag.NotFoundTop, diag.CodeOf(err))

	// Configured name.
	pkg, err := lowerSrc(t, src, trans.Options{Top: "main_fn"})
	require.NoError(t, err)
	require.Equal(t, "main_fn", entry(pkg).Name)

	// Unknown configured name.
	_, err = lowerSrc(t, src, trans.Options{Top: "nope"})
	require.Equal(t, diag.NotFoundSymbol, diag.CodeOf(err))
}

func TestTopPragmaWinsOverOption(t *testing.T) {
	pkg, err := lowerSrc(t, `
int other(int v) {
  return v;
}
#pragma hls_top
int marked(int v) {
  return v * 2;
}
`, trans.Options{Top: "other"})
	require.NoError(t, err)
	require.Equal(t, "marked", entry(pkg).Name)
}

func TestPureCallBecomesInvoke(t *testing.T) {
	pkg := mustLower(t, `
int square(int v) {
  return v * v;
}
#pragma hls_top
int run(int a) {
  return square(a) + square(a + 1);
}
`)
	require.NotNil(t, pkg.Fn("square"))
	got := evalEntry(t, pkg, map[string]int64{"a": 3})
	require.Equal(t, int64(25), got.Int64())
}

func TestDefaultArgument(t *testing.T) {
	pkg := mustLower(t, `
int addn(int v, int n = 10) {
  return v + n;
}
#pragma hls_top
int run(int a) {
  return addn(a) + addn(a, 1);
}
`)
	got := evalEntry(t, pkg, map[string]int64{"a": 5})
	require.Equal(t, int64(21), got.Int64())
}

func TestReferenceParamWriteBack(t *testing.T) {
	pkg := mustLower(t, `
void bump(int& x, int d) {
  x += d;
}
#pragma hls_top
int run(int a) {
  int v = a;
  bump(v, 5);
  return v;
}
`)
	got := evalEntry(t, pkg, map[string]int64{"a": 1})
	require.Equal(t, int64(6), got.Int64())
}

func TestConstParamWriteRejected(t *testing.T) {
	_, err := lowerSrc(t, `
#pragma hls_top
int run(const int a) {
  a = 1;
  return a;
}
`, trans.Options{})
	require.Error(t, err)
	require.ErrorContains(t, err, `assignment to read-only variable "a"`)
}

func TestConstParamWriteRejectedInCallee(t *testing.T) {
	_, err := lowerSrc(t, `
int poke(const int v) {
  v = 2;
  return v;
}
#pragma hls_top
int run(int a) {
  return poke(a);
}
`, trans.Options{})
	require.Error(t, err)
	require.ErrorContains(t, err, `assignment to read-only variable "v"`)
}

func TestConstRefParamStaysWritableByCaller(t *testing.T) {
	pkg := mustLower(t, `
int peek(const int& x) {
  return x + 1;
}
#pragma hls_top
int run(int a) {
  int v = a;
  int r = peek(v);
  v = v + r;
  return v;
}
`)
	got := evalEntry(t, pkg, map[string]int64{"a": 3})
	require.Equal(t, int64(7), got.Int64())
}

func TestRecursionRejected(t *testing.T) {
	_, err := lowerSrc(t, `
int spin(int v) {
  return spin(v - 1);
}
#pragma hls_top
int run(int a) {
  return spin(a);
}
`, trans.Options{})
	require.Error(t, err)
	require.ErrorContains(t, err, "recursive call")
}
