// Package driver orchestrates the compilation pipeline: load, scan,
// translate, inline. Commands and tests go through it rather than wiring
// the phases by hand.
package driver

import (
	"errors"
	"fmt"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/frontend"
	"sluice/internal/ir"
	"sluice/internal/manifest"
	"sluice/internal/source"
	"sluice/internal/trans"
)

// Options configures one pipeline run.
type Options struct {
	// Top names the entry function when the source carries no top
	// annotation.
	Top string
	// MaxUnrollIters caps any single loop's unrolled trip count.
	MaxUnrollIters int
	// AllSingleValue turns block-mode FIFO channels into direct ports.
	AllSingleValue bool
	// Inline flattens invoke edges after translation.
	Inline bool
	// Reporter receives every diagnostic a phase raises. Nil drops them.
	Reporter diag.Reporter
}

// report forwards err to the configured reporter when it carries a
// diagnostic. Plain errors stay with the caller.
func (o Options) report(err error) {
	r := o.Reporter
	if r == nil {
		r = diag.NopReporter{}
	}
	var de *diag.Error
	if errors.As(err, &de) {
		d := de.Diag
		r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
}

func (o Options) transOptions() trans.Options {
	return trans.Options{
		Top:            o.Top,
		MaxUnrollIters: o.MaxUnrollIters,
		AllSingleValue: o.AllSingleValue,
	}
}

// Result is one finished pipeline run.
type Result struct {
	Package *ir.Package
	Files   *source.FileSet
	Timer   *Timer
}

// parserFE adapts the reference front end to the translator seam.
type parserFE struct{}

func (parserFE) Parse(f *source.File) (*ast.File, error) { return frontend.Parse(f) }

// Lower runs the function-mode pipeline on one source file.
func Lower(path string, opts Options) (*Result, error) {
	return lower(path, nil, "", opts)
}

// LowerSource runs the function-mode pipeline on in-memory content.
func LowerSource(path string, content []byte, opts Options) (*Result, error) {
	return lower(path, content, "", opts)
}

// LowerBlock runs the block-mode pipeline against a channel manifest.
func LowerBlock(path, manifestPath string, opts Options) (*Result, error) {
	return lower(path, nil, manifestPath, opts)
}

func lower(path string, content []byte, manifestPath string, opts Options) (*Result, error) {
	timer := NewTimer()
	files := source.NewFileSet()

	ph := timer.Begin("load")
	var id source.FileID
	if content != nil {
		id = files.Add(path, content)
	} else {
		var err error
		id, err = files.Load(path)
		if err != nil {
			return nil, err
		}
	}
	f := files.Get(id)
	timer.End(ph, fmt.Sprintf("%d bytes", len(f.Content)))

	ph = timer.Begin("scan")
	unit, pragmas, err := trans.Scan(parserFE{}, f)
	if err != nil {
		opts.report(err)
		return &Result{Files: files, Timer: timer}, err
	}
	timer.End(ph, fmt.Sprintf("%d funcs", len(unit.Funcs)))

	ph = timer.Begin("translate")
	t := trans.New(unit, pragmas, files, opts.transOptions())
	var pkg *ir.Package
	if manifestPath != "" {
		blk, err := manifest.Load(manifestPath)
		if err != nil {
			return &Result{Files: files, Timer: timer}, err
		}
		pkg, err = t.TranslateBlock(blk)
		if err != nil {
			opts.report(err)
			return &Result{Files: files, Timer: timer}, err
		}
	} else {
		pkg, err = t.Translate()
		if err != nil {
			opts.report(err)
			return &Result{Files: files, Timer: timer}, err
		}
	}
	timer.End(ph, fmt.Sprintf("%d funcs, %d procs", len(pkg.Funcs), len(pkg.Procs)))

	if opts.Inline {
		ph = timer.Begin("inline")
		if err := pkg.InlineAll(); err != nil {
			opts.report(err)
			return &Result{Files: files, Timer: timer}, err
		}
		timer.End(ph, "")
	}

	return &Result{Package: pkg, Files: files, Timer: timer}, nil
}
