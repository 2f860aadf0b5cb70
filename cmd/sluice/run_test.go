package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/driver"
	"sluice/internal/ir"
)

func lowerForRun(t *testing.T) *ir.Package {
	t.Helper()
	res, err := driver.LowerSource("calc.cc", []byte(`
int half(int x) {
  return x / 2;
}

#pragma hls_top
int mix(int a, int b) {
  return half(a) + b;
}
`), driver.Options{})
	require.NoError(t, err)
	return res.Package
}

func TestPickFn(t *testing.T) {
	pkg := lowerForRun(t)
	require.Equal(t, "mix", pickFn(pkg, "").Name)
	require.Equal(t, "half", pickFn(pkg, "half").Name)
	require.Nil(t, pickFn(pkg, "absent"))
}

func TestParseArgs(t *testing.T) {
	pkg := lowerForRun(t)
	fn := pickFn(pkg, "")

	kwargs, err := parseArgs(fn, []string{"a=6", "b=0x10"})
	require.NoError(t, err)
	got, err := ir.NewEvaluator(pkg).EvalFn(fn, kwargs)
	require.NoError(t, err)
	require.Equal(t, int64(19), got.Int64())

	// Unset parameters default to zero.
	kwargs, err = parseArgs(fn, []string{"a=-8"})
	require.NoError(t, err)
	got, err = ir.NewEvaluator(pkg).EvalFn(fn, kwargs)
	require.NoError(t, err)
	require.Equal(t, int64(-4), got.Int64())
}

func TestParseArgsErrors(t *testing.T) {
	pkg := lowerForRun(t)
	fn := pickFn(pkg, "")

	_, err := parseArgs(fn, []string{"a"})
	require.ErrorContains(t, err, "not name=value")

	_, err = parseArgs(fn, []string{"nope=1"})
	require.ErrorContains(t, err, `no scalar parameter "nope"`)

	_, err = parseArgs(fn, []string{"a=zzz"})
	require.Error(t, err)
}
