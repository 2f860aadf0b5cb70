package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sluice/internal/source"
)

func TestRenderWithExcerpt(t *testing.T) {
	files := source.NewFileSet()
	id := files.Add("main.cc", []byte("int top() {\n  return x;\n}\n"))

	// Span covers the "x" on line 2, column 10.
	d := Diagnostic{
		Severity: SevError,
		Code:     NotFoundSymbol,
		Message:  `unknown symbol "x"`,
		Primary:  source.Span{File: id, Start: 21, End: 22},
	}

	var sb strings.Builder
	NewRenderer(files, false).Render(&sb, d)
	out := sb.String()

	require.Contains(t, out, `main.cc:2:10: error[NOTFOUND(6002)]: unknown symbol "x"`)
	require.Contains(t, out, "  return x;")
	// Caret sits under the offending column.
	require.Contains(t, out, "\n  "+strings.Repeat(" ", 9)+"^\n")
}

func TestRenderNote(t *testing.T) {
	files := source.NewFileSet()
	id := files.Add("a.cc", []byte("int v = 1;\nint v = 2;\n"))

	d := Diagnostic{
		Severity: SevError,
		Code:     ParseDuplicate,
		Message:  `redefinition of "v"`,
		Primary:  source.Span{File: id, Start: 15, End: 16},
	}
	d = d.WithNote(source.Span{File: id, Start: 4, End: 5}, "previously declared here")

	var sb strings.Builder
	NewRenderer(files, false).Render(&sb, d)
	require.Contains(t, sb.String(), "  note: a.cc:1:5: previously declared here")
}

func TestRenderWithoutFiles(t *testing.T) {
	var sb strings.Builder
	NewRenderer(nil, false).Render(&sb, Diagnostic{
		Severity: SevWarning,
		Code:     UnsupportedConstruct,
		Message:  "goto is not supported",
	})
	require.Equal(t, "1:1: warning[UNSUPPORTED(2001)]: goto is not supported\n", sb.String())
}

func TestBagReporter(t *testing.T) {
	b := NewBag(4)
	r := BagReporter{Bag: b}
	r.Report(BoundMissingClause, SevError, source.Span{}, "for loop needs an init clause", nil)
	require.Equal(t, 1, b.Len())
	require.True(t, b.HasErrors())

	NopReporter{}.Report(BoundMissingClause, SevError, source.Span{}, "ignored", nil)
	BagReporter{}.Report(BoundMissingClause, SevError, source.Span{}, "ignored", nil)
	require.Equal(t, 1, b.Len())
}
