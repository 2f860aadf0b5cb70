package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/source"
)

func TestBagCapacity(t *testing.T) {
	b := NewBag(2)
	require.True(t, b.Add(Diagnostic{Code: ParseUnexpected, Severity: SevError}))
	require.True(t, b.Add(Diagnostic{Code: ParseUnclosed, Severity: SevError}))
	require.False(t, b.Add(Diagnostic{Code: ParseBadNumber, Severity: SevError}))
	require.Equal(t, 2, b.Len())
	require.True(t, b.HasErrors())
}

func TestBagSorted(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Code: BoundNotUnrolled, Primary: source.Span{File: 0, Start: 50}})
	b.Add(Diagnostic{Code: ParseUnexpected, Primary: source.Span{File: 0, Start: 10}})
	b.Add(Diagnostic{Code: ShapeInitTooLong, Primary: source.Span{File: 0, Start: 10}})

	got := b.Sorted()
	require.Equal(t, ParseUnexpected, got[0].Code)
	require.Equal(t, ShapeInitTooLong, got[1].Code)
	require.Equal(t, BoundNotUnrolled, got[2].Code)
}

func TestCodeClass(t *testing.T) {
	require.Equal(t, Code(2000), UnsupportedConditionalBrk.Class())
	require.Equal(t, Code(4000), BoundMaxIterations.Class())
	require.Equal(t, "UNSEQUENCED(3001)", UnsequencedEffect.String())
	require.Equal(t, "NOTFOUND(6001)", NotFoundTop.String())
}

func TestErrorCodeExtraction(t *testing.T) {
	err := Errorf(BoundNotConstant, source.Span{}, "loop bound depends on %q", "x")
	require.Equal(t, BoundNotConstant, CodeOf(err))
	require.Equal(t, Code(4000), ClassOf(err))

	wrapped := fmt.Errorf("translate: %w", err)
	var de *Error
	require.True(t, errors.As(wrapped, &de))
	require.Equal(t, BoundNotConstant, de.Code())

	require.Equal(t, UnknownCode, CodeOf(errors.New("plain")))
}

func TestWithNote(t *testing.T) {
	d := Diagnostic{Code: NotFoundSymbol, Message: "unknown symbol"}
	d2 := d.WithNote(source.Span{Start: 3}, "declared here")
	require.Empty(t, d.Notes)
	require.Len(t, d2.Notes, 1)
	require.Equal(t, "declared here", d2.Notes[0].Msg)
}
