package pragma

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/source"
)

func TestScanBindsToNextLine(t *testing.T) {
	src := []byte(`#pragma hls_top
int top(int a) {
  #pragma hls_unroll
  for (int i = 0; i < 4; ++i) {
  }
}
`)
	m := Scan(source.FileID(0), src)
	require.Equal(t, KindTop, m.At(0, 2))
	require.Equal(t, KindUnroll, m.At(0, 4))
	require.Equal(t, KindNone, m.At(0, 3))
	require.Equal(t, KindNone, m.At(0, 5))
}

func TestScanSkipsBlankLines(t *testing.T) {
	src := []byte("#pragma hls_no_tuple\n\n\nstruct S { int x; };\n")
	m := Scan(0, src)
	require.Equal(t, KindNoTuple, m.At(0, 4))
}

func TestCommentedPragmasAreInert(t *testing.T) {
	src := []byte(`// #pragma hls_top
/* #pragma hls_unroll */
int f() { return 0; }
`)
	m := Scan(0, src)
	require.Equal(t, KindNone, m.At(0, 3))
}

func TestUnrollNo(t *testing.T) {
	src := []byte("#pragma hls_unroll no\nfor (;;) {}\n")
	m := Scan(0, src)
	require.Equal(t, KindNone, m.At(0, 2))
}

func TestUnknownPragmaIgnored(t *testing.T) {
	src := []byte("#pragma once\nint f();\n")
	m := Scan(0, src)
	require.Equal(t, KindNone, m.At(0, 2))
}

func TestNilMap(t *testing.T) {
	var m *Map
	require.Equal(t, KindNone, m.At(0, 1))
}
