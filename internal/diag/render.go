package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"sluice/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
)

// Renderer writes human-readable diagnostics with a source excerpt and caret.
type Renderer struct {
	Files *source.FileSet
	// Color disables ANSI styling when false.
	Color bool
}

func NewRenderer(files *source.FileSet, useColor bool) *Renderer {
	return &Renderer{Files: files, Color: useColor}
}

func (r *Renderer) severityLabel(sev Severity) string {
	label := sev.String()
	if !r.Color {
		return label
	}
	switch sev {
	case SevError:
		return errColor.Sprint(label)
	case SevWarning:
		return warnColor.Sprint(label)
	default:
		return infoColor.Sprint(label)
	}
}

// Render writes one diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) {
	pos := source.Position{Line: 1, Col: 1}
	if r.Files != nil {
		pos = r.Files.Resolve(d.Primary)
	}
	head := pos.String()
	if r.Color {
		head = posColor.Sprint(head)
	}
	fmt.Fprintf(w, "%s: %s[%s]: %s\n", head, r.severityLabel(d.Severity), d.Code, d.Message)
	r.renderExcerpt(w, d.Primary)
	for _, n := range d.Notes {
		npos := pos
		if r.Files != nil {
			npos = r.Files.Resolve(n.Span)
		}
		fmt.Fprintf(w, "  note: %s: %s\n", npos, n.Msg)
	}
}

// RenderBag writes every diagnostic in b in source order.
func (r *Renderer) RenderBag(w io.Writer, b *Bag) {
	for _, d := range b.Sorted() {
		r.Render(w, d)
	}
}

func (r *Renderer) renderExcerpt(w io.Writer, span source.Span) {
	if r.Files == nil || span.File == source.NoFile {
		return
	}
	pos := r.Files.Resolve(span)
	line := r.Files.LineText(span.File, pos.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	// Caret column accounts for display width of everything before the span.
	prefix := line
	if pos.Col-1 < len(line) {
		prefix = line[:pos.Col-1]
	}
	pad := runewidth.StringWidth(prefix)
	caret := "^"
	if r.Color {
		caret = errColor.Sprint("^")
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), caret)
}
