package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/frontend"
	"sluice/internal/ir"
	"sluice/internal/pragma"
	"sluice/internal/source"
	"sluice/internal/types"
)

func encoderFor(t *testing.T, src string) (*types.Encoder, *ast.File) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("test.cc", []byte(src))
	f, err := frontend.Parse(fs.Get(id))
	require.NoError(t, err)
	pm := pragma.Scan(id, fs.Get(id).Content)
	return types.NewEncoder(f, pm, fs), f
}

func resolveNamed(t *testing.T, e *types.Encoder, name string, args ...ast.TemplArg) *types.Type {
	t.Helper()
	ty, err := e.ResolveRecord(e.Record(name), args)
	require.NoError(t, err)
	return ty
}

func TestScalarWidths(t *testing.T) {
	e, _ := encoderFor(t, "")
	tests := []struct {
		kind   ast.TypeKind
		width  int
		signed bool
	}{
		{ast.TypeChar, 8, true},
		{ast.TypeUChar, 8, false},
		{ast.TypeShort, 16, true},
		{ast.TypeUShort, 16, false},
		{ast.TypeInt, 32, true},
		{ast.TypeUInt, 32, false},
		{ast.TypeLongLong, 64, true},
		{ast.TypeULongLong, 64, false},
	}
	for _, tt := range tests {
		ty, err := e.Resolve(&ast.TypeSpec{Kind: tt.kind}, nil)
		require.NoError(t, err)
		require.Equal(t, types.KindInt, ty.Kind)
		require.Equal(t, tt.width, ty.Width)
		require.Equal(t, tt.signed, ty.Signed)
	}

	b, err := e.Resolve(&ast.TypeSpec{Kind: ast.TypeBool}, nil)
	require.NoError(t, err)
	require.Equal(t, types.KindBool, b.Kind)
	require.Equal(t, 1, b.Width)
}

func TestStructFlattening(t *testing.T) {
	e, _ := encoderFor(t, `
struct Base {
  int a;
  short b;
};
struct Derived : public Base {
  char c;
};
`)
	d := resolveNamed(t, e, "Derived")
	require.Equal(t, types.KindStruct, d.Kind)

	// Base fields come first, then own fields, in declaration order.
	names := make([]string, len(d.Struct.Fields))
	for i, f := range d.Struct.Fields {
		names[i] = f.Name
	}
	require.Equal(t, []string{"a", "b", "c"}, names)

	enc := types.Encode(d)
	require.Equal(t, ir.Tuple(ir.Bits(32), ir.Bits(16), ir.Bits(8)), enc)
}

func TestFieldShadowing(t *testing.T) {
	e, _ := encoderFor(t, `
struct Base {
  int v;
};
struct Derived : public Base {
  int v;
};
`)
	d := resolveNamed(t, e, "Derived")
	require.Len(t, d.Struct.Fields, 2)
	// The derived field shadows the base field.
	require.Equal(t, 1, d.FieldIndex("v"))
}

func TestTemplateInstantiation(t *testing.T) {
	e, _ := encoderFor(t, `
template <typename T, int N>
struct Block {
  T data[N];
  int count;
};
`)
	args := []ast.TemplArg{
		{Type: &ast.TypeSpec{Kind: ast.TypeShort}},
		{Value: 4, IsValue: true},
	}
	b := resolveNamed(t, e, "Block", args...)
	require.Equal(t, "Block<short,4>", b.Struct.Name)
	require.Equal(t, "Block", b.Struct.DeclName)

	data := b.Struct.Fields[0].Type
	require.Equal(t, types.KindArray, data.Kind)
	require.Equal(t, 4, data.Size)
	require.Equal(t, 16, data.Elem.Width)

	// Same arguments resolve to the same memoized instance.
	again := resolveNamed(t, e, "Block", args...)
	require.Same(t, b, again)

	// Wrong arity is a shape error.
	_, err := e.ResolveRecord(e.Record("Block"), nil)
	require.Equal(t, diag.ShapeTypeUnknown, diag.CodeOf(err))
}

func TestNoTuple(t *testing.T) {
	e, _ := encoderFor(t, `
#pragma hls_no_tuple
struct Wrap {
  int v;
};
`)
	w := resolveNamed(t, e, "Wrap")
	require.True(t, w.Struct.NoTuple)
	require.Equal(t, ir.Bits(32), types.Encode(w))
}

func TestNoTupleRejectsMultipleFields(t *testing.T) {
	e, _ := encoderFor(t, `
#pragma hls_no_tuple
struct Pair {
  int a;
  int b;
};
`)
	_, err := e.ResolveRecord(e.Record("Pair"), nil)
	require.Equal(t, diag.ShapeFlattenFields, diag.CodeOf(err))
}

func TestChannelFieldRejected(t *testing.T) {
	e, _ := encoderFor(t, `
struct Holder {
  __channel<int> ch;
};
`)
	_, err := e.ResolveRecord(e.Record("Holder"), nil)
	require.Equal(t, diag.UnsupportedChannelCapture, diag.CodeOf(err))
}

func TestTypedefResolution(t *testing.T) {
	e, _ := encoderFor(t, `
typedef unsigned short word;
struct S {
  word w;
};
`)
	s := resolveNamed(t, e, "S")
	w := s.Struct.Fields[0].Type
	require.Equal(t, 16, w.Width)
	require.False(t, w.Signed)
}

func TestCommonConversions(t *testing.T) {
	i32 := types.Int()
	u32 := types.Integer(32, false)
	i16 := types.Integer(16, true)
	u16 := types.Integer(16, false)

	// The wider width wins.
	require.Equal(t, 32, types.Common(i16, i32).Width)
	// Equal width with an unsigned operand goes unsigned.
	require.False(t, types.Common(i32, u32).IsSigned())
	// A strictly wider signed operand keeps the result signed.
	require.True(t, types.Common(i32, u16).IsSigned())
	require.True(t, types.Common(u16, i32).IsSigned())
	require.False(t, types.Common(u32, i16).IsSigned())
}

func TestEncodeArray(t *testing.T) {
	arr := types.ArrayOf(types.Integer(8, false), 3)
	require.Equal(t, ir.Array(ir.Bits(8), 3), types.Encode(arr))
}

func TestInstanceName(t *testing.T) {
	require.Equal(t, "Foo", types.InstanceName("Foo", nil))
	name := types.InstanceName("Foo", []ast.TemplArg{
		{Type: &ast.TypeSpec{Kind: ast.TypeInt}},
		{Value: 7, IsValue: true},
	})
	require.Equal(t, "Foo<int,7>", name)
}
