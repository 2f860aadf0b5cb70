package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"sluice/internal/ir"
	"sluice/internal/manifest"
	"sluice/internal/source"
	"sluice/internal/trans"
)

// EntryResult is one lowered entry of a multi-entry run.
type EntryResult struct {
	Top     string
	Package *ir.Package
	Err     error
}

// LowerEntries translates several entry functions of one source file in
// parallel. The scan happens once; each entry gets its own translator, so a
// failed entry never poisons another. Results keep the input order.
func LowerEntries(ctx context.Context, path string, tops []string, opts Options) ([]EntryResult, *source.FileSet, error) {
	files := source.NewFileSet()
	id, err := files.Load(path)
	if err != nil {
		return nil, nil, err
	}
	f := files.Get(id)
	unit, pragmas, err := trans.Scan(parserFE{}, f)
	if err != nil {
		return nil, files, err
	}

	results := make([]EntryResult, len(tops))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(tops)))

	for i, top := range tops {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			o := opts.transOptions()
			o.Top = top
			t := trans.New(unit, pragmas, files, o)
			pkg, err := t.Translate()
			if err == nil && opts.Inline {
				err = pkg.InlineAll()
			}
			if err != nil {
				opts.report(err)
			}
			results[i] = EntryResult{Top: top, Package: pkg, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, files, err
	}
	return results, files, nil
}

// LowerBlocks translates every block of a manifest file against the same
// source, in parallel.
func LowerBlocks(ctx context.Context, path string, blocks []*manifest.Block, opts Options) ([]EntryResult, *source.FileSet, error) {
	files := source.NewFileSet()
	id, err := files.Load(path)
	if err != nil {
		return nil, nil, err
	}
	f := files.Get(id)
	unit, pragmas, err := trans.Scan(parserFE{}, f)
	if err != nil {
		return nil, files, err
	}

	results := make([]EntryResult, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(blocks)))

	for i, blk := range blocks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			t := trans.New(unit, pragmas, files, opts.transOptions())
			pkg, err := t.TranslateBlock(blk)
			if err != nil {
				opts.report(err)
			}
			results[i] = EntryResult{Top: blk.Name, Package: pkg, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, files, err
	}
	return results, files, nil
}
