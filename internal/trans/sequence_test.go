package trans_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/diag"
	"sluice/internal/trans"
)

func TestUnsequencedWriteAndRead(t *testing.T) {
	_, err := lowerSrc(t, `
#pragma hls_top
int f(int x) {
  return x++ + x;
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}

func TestRepeatedReadIsFine(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int f(int x) {
  return x + x;
}
`)
	require.Equal(t, int64(14), evalEntry(t, pkg, map[string]int64{"x": 7}).Int64())
}

func TestUnsequencedWriteInCallArgs(t *testing.T) {
	_, err := lowerSrc(t, `
int add2(int a, int b) {
  return a + b;
}

#pragma hls_top
int f(int x) {
  return add2(x++, x);
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}

func TestSingleEffectInExpressionIsFine(t *testing.T) {
	pkg := mustLower(t, `
#pragma hls_top
int f(int x) {
  int y = x++ + 1;
  return y * 10 + x;
}
`)
	// y = 3 + 1, x becomes 4.
	require.Equal(t, int64(44), evalEntry(t, pkg, map[string]int64{"x": 3}).Int64())
}

func TestTernaryConditionWriteRejected(t *testing.T) {
	_, err := lowerSrc(t, `
#pragma hls_top
int f(int a) {
  return (a = 7) ? a : 11;
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}

func TestReadOnlyMethodBesideFieldRead(t *testing.T) {
	pkg := mustLower(t, `
struct Tally {
  int n;
  int get() {
    return n;
  }
};

#pragma hls_top
int f(int v) {
  Tally c;
  c.n = v;
  return c.get() + c.n;
}
`)
	require.Equal(t, int64(10), evalEntry(t, pkg, map[string]int64{"v": 5}).Int64())
}

func TestMutatingMethodBesideFieldRead(t *testing.T) {
	_, err := lowerSrc(t, `
struct Tally {
  int n;
  int bump() {
    n += 1;
    return n;
  }
};

#pragma hls_top
int f(int v) {
  Tally c;
  c.n = v;
  return c.bump() + c.n;
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}

func TestIndexedSelfAssignment(t *testing.T) {
	// Assignment sequences its right side before the left, so the
	// increment lands before the store.
	pkg := mustLower(t, `
#pragma hls_top
int f(int v) {
  int s[2] = {0, v};
  s[0] = ++s[1];
  return s[0] * 10 + s[1];
}
`)
	require.Equal(t, int64(11), evalEntry(t, pkg, map[string]int64{"v": 0}).Int64())
}

func TestWriteInSoleCallArgument(t *testing.T) {
	pkg := mustLower(t, `
int nop(int x) {
  return x;
}

#pragma hls_top
int f(int a) {
  int y = -nop(a = 10);
  return y + a;
}
`)
	require.Equal(t, int64(0), evalEntry(t, pkg, map[string]int64{"a": 3}).Int64())
}

func TestWriteInMultiArgCallRejected(t *testing.T) {
	_, err := lowerSrc(t, `
int nop2(int x, int y) {
  return x;
}

#pragma hls_top
int f(int a) {
  return nop2(a = 10, 100);
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}

func TestUnsequencedChannelReads(t *testing.T) {
	_, err := lowerSrc(t, `
#pragma hls_top
void f(__channel<int>& in, __channel<int>& out) {
  out.write(in.read() + in.read());
}
`, trans.Options{})
	require.Error(t, err)
	require.Equal(t, diag.UnsequencedEffect, diag.CodeOf(err))
}
