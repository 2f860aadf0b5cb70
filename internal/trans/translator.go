// Package trans is the translation engine: it lowers the scanned AST into
// the dataflow IR, turning control flow into predicated selects, bounded
// loops into unrolled straight-line code, and channel operations into a
// scheduled sequence of guarded sends and receives.
package trans

import (
	"path/filepath"
	"strings"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/ir"
	"sluice/internal/manifest"
	"sluice/internal/pragma"
	"sluice/internal/source"
	"sluice/internal/types"
)

// Frontend produces the AST for one file. The in-repo reference
// implementation is internal/frontend; any producer of ast nodes works.
type Frontend interface {
	Parse(file *source.File) (*ast.File, error)
}

// DefaultMaxUnrollIters bounds loop unrolling when Options leaves the
// ceiling unset.
const DefaultMaxUnrollIters = 1000

// Options configures one translation.
type Options struct {
	// Top names the entry function. A top annotation in the source takes
	// precedence.
	Top string
	// MaxUnrollIters caps the trip count of any single unrolled loop.
	MaxUnrollIters int
	// AllSingleValue makes block-mode channel parameters direct single-value
	// ports instead of FIFOs.
	AllSingleValue bool
}

func (o Options) maxIters() int {
	if o.MaxUnrollIters > 0 {
		return o.MaxUnrollIters
	}
	return DefaultMaxUnrollIters
}

// Translator lowers one scanned translation unit. Scan state survives a
// failed entry, so independent entries translate independently.
type Translator struct {
	opts    Options
	files   *source.FileSet
	pragmas *pragma.Map
	unit    *ast.File
	enc     *types.Encoder
	pkg     *ir.Package

	// lowered memoizes pure function instances by mangled name.
	lowered map[string]*ir.Fn
	// inlining guards against lowering-time inline recursion.
	inlining map[string]bool
	// refWrites memoizes per-function parameter write summaries.
	refWrites map[*ast.FuncDecl][]bool
	// mutMethods memoizes per-method receiver write summaries.
	mutMethods map[*ast.FuncDecl]bool
}

// New builds a Translator over a scanned unit.
func New(unit *ast.File, pragmas *pragma.Map, files *source.FileSet, opts Options) *Translator {
	return &Translator{
		opts:       opts,
		files:      files,
		pragmas:    pragmas,
		unit:       unit,
		enc:        types.NewEncoder(unit, pragmas, files),
		lowered:    make(map[string]*ir.Fn),
		inlining:   make(map[string]bool),
		refWrites:  make(map[*ast.FuncDecl][]bool),
		mutMethods: make(map[*ast.FuncDecl]bool),
	}
}

// Scan parses one loaded file and extracts its annotations.
func Scan(fe Frontend, f *source.File) (*ast.File, *pragma.Map, error) {
	unit, err := fe.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	return unit, pragma.Scan(f.ID, f.Content), nil
}

// SelectTop picks the translation entry: the annotated function when one
// exists, the configured name otherwise.
func (t *Translator) SelectTop() (*ast.FuncDecl, error) {
	for _, fn := range t.unit.Funcs {
		pos := t.files.Resolve(fn.Span)
		if t.pragmas.At(fn.Span.File, pos.Line) == pragma.KindTop {
			return fn, nil
		}
	}
	if t.opts.Top != "" {
		if fn := t.unit.FindFunc(t.opts.Top); fn != nil {
			return fn, nil
		}
		return nil, diag.Errorf(diag.NotFoundSymbol, source.Span{}, "function %q not found", t.opts.Top)
	}
	return nil, diag.Errorf(diag.NotFoundTop, source.Span{}, "No top function found")
}

// Translate lowers the top function in function mode: channels become
// parameters and the return tuple carries every I/O op's outcome.
func (t *Translator) Translate() (*ir.Package, error) {
	top, err := t.SelectTop()
	if err != nil {
		return nil, err
	}
	t.pkg = &ir.Package{Name: packageName(t.unit.Path)}
	fn, rec, err := t.lowerEntry(top)
	if err != nil {
		return nil, err
	}
	packed, err := packFunctionIO(fn, rec)
	if err != nil {
		return nil, err
	}
	t.pkg.AddFn(packed)
	return t.pkg, nil
}

// TranslateBlock lowers the top function in block mode against a channel
// manifest, producing a hardware process.
func (t *Translator) TranslateBlock(blk *manifest.Block) (*ir.Package, error) {
	top, err := t.SelectTop()
	if err != nil {
		return nil, err
	}
	t.pkg = &ir.Package{Name: packageName(t.unit.Path)}
	fn, rec, err := t.lowerEntry(top)
	if err != nil {
		return nil, err
	}
	proc, err := t.buildProc(top, fn, rec, blk)
	if err != nil {
		return nil, err
	}
	t.pkg.Procs = append(t.pkg.Procs, proc)
	return t.pkg, nil
}

func packageName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" || base == "." {
		return "module"
	}
	return base
}

// lowerEntry lowers the entry function with channel parameters permitted.
func (t *Translator) lowerEntry(fd *ast.FuncDecl) (*ir.Fn, *ioRecorder, error) {
	lo := newFuncLowerer(t, fd.Name, fd, nil)
	lo.io = &ioRecorder{}

	for _, p := range fd.Params {
		pt, err := t.enc.Resolve(p.Type, nil)
		if err != nil {
			return nil, nil, err
		}
		if pt.Kind == types.KindChannel {
			if !p.ByRef {
				return nil, nil, diag.Errorf(diag.UnsupportedChannelIndirect, p.Span,
					"channel %q must be passed by reference", p.Name)
			}
			lo.define(p.Name, &binding{typ: pt, chanName: p.Name})
			lo.io.addChannel(p.Name, pt.Elem)
			continue
		}
		id := lo.b.Param(p.Name, types.Encode(pt))
		slot := &varSlot{name: p.Name, typ: pt, val: id, ro: p.Const}
		lo.define(p.Name, &binding{lv: lvalue{slot: slot}, typ: pt})
		lo.valueParams = append(lo.valueParams, valueParam{name: p.Name, typ: pt, id: id})
	}

	retType, err := t.enc.Resolve(fd.Ret, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := lo.lowerBody(retType); err != nil {
		return nil, nil, err
	}
	ret := ir.NoNode
	if retType.Kind != types.KindVoid {
		ret = lo.retVal
	}
	lo.io.retType = retType
	lo.io.params = lo.valueParams
	return lo.b.Finish(ret), lo.io, nil
}

// lowerPureFn lowers a subroutine without reference or channel parameters to
// its own graph, for invoke edges. Instances are memoized by mangled name.
func (t *Translator) lowerPureFn(fd *ast.FuncDecl, bind types.Bindings, instName string) (*ir.Fn, error) {
	if fn, ok := t.lowered[instName]; ok {
		return fn, nil
	}
	if t.inlining[instName] {
		return nil, diag.Errorf(diag.UnsupportedConstruct, fd.Span,
			"recursive call involving %q", fd.Name)
	}
	t.inlining[instName] = true
	defer delete(t.inlining, instName)

	lo := newFuncLowerer(t, instName, fd, bind)
	for _, p := range fd.Params {
		pt, err := t.enc.Resolve(p.Type, bind)
		if err != nil {
			return nil, err
		}
		id := lo.b.Param(p.Name, types.Encode(pt))
		slot := &varSlot{name: p.Name, typ: pt, val: id, ro: p.Const}
		lo.define(p.Name, &binding{lv: lvalue{slot: slot}, typ: pt})
	}
	retType, err := t.enc.Resolve(fd.Ret, bind)
	if err != nil {
		return nil, err
	}
	if err := lo.lowerBody(retType); err != nil {
		return nil, err
	}
	fn := lo.b.Finish(lo.retVal)
	t.lowered[instName] = fn
	t.pkg.AddFn(fn)
	return fn, nil
}

// isPure reports whether every parameter is a plain by-value or const
// binding, making the call representable as an invoke edge.
func isPure(fd *ast.FuncDecl) bool {
	if fd.Receiver != "" {
		return false
	}
	for _, p := range fd.Params {
		if p.ByRef && !p.Const {
			return false
		}
		if p.Type.Kind == ast.TypeChannel {
			return false
		}
	}
	return true
}

// recordDecl resolves the declaration a struct instance came from, plus the
// template bindings its methods need.
func (t *Translator) recordDecl(st *types.StructInfo) (*ast.RecordDecl, types.Bindings, error) {
	decl := t.enc.Record(st.DeclName)
	if decl == nil {
		return nil, nil, diag.Errorf(diag.ShapeTypeUnknown, source.Span{}, "unknown type %q", st.DeclName)
	}
	bind := make(types.Bindings, len(st.Args))
	for i, p := range decl.TypeParams {
		bind[p.Name] = st.Args[i]
	}
	return decl, bind, nil
}

// findMethod searches decl and its bases for a method, mirroring the
// flattened-base field order.
func (t *Translator) findMethod(decl *ast.RecordDecl, name string) *ast.FuncDecl {
	if m := decl.FindMethod(name); m != nil {
		return m
	}
	for _, baseName := range decl.Bases {
		if base := t.enc.Record(baseName); base != nil {
			if m := t.findMethod(base, name); m != nil {
				return m
			}
		}
	}
	return nil
}
