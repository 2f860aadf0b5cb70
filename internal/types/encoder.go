package types

import (
	"fmt"
	"strings"

	"sluice/internal/ast"
	"sluice/internal/diag"
	"sluice/internal/pragma"
	"sluice/internal/source"
)

// Bindings maps template parameter names to concrete arguments.
type Bindings map[string]ast.TemplArg

// Encoder resolves syntactic type references against the scanned
// declarations, instantiating templates on demand. Resolution is memoized,
// so field order and instantiation identity are stable across a scan.
type Encoder struct {
	records  map[string]*ast.RecordDecl
	typedefs map[string]*ast.TypeSpec
	resolved map[string]*Type
	pragmas  *pragma.Map
	files    *source.FileSet
}

func NewEncoder(file *ast.File, pragmas *pragma.Map, files *source.FileSet) *Encoder {
	e := &Encoder{
		records:  make(map[string]*ast.RecordDecl),
		typedefs: make(map[string]*ast.TypeSpec),
		resolved: make(map[string]*Type),
		pragmas:  pragmas,
		files:    files,
	}
	for _, r := range file.Records {
		e.records[r.Name] = r
	}
	for _, td := range file.Typedefs {
		e.typedefs[td.Name] = td.Type
	}
	return e
}

// Record returns the declaration a struct type was resolved from.
func (e *Encoder) Record(name string) *ast.RecordDecl {
	return e.records[name]
}

var scalarKinds = map[ast.TypeKind]*Type{
	ast.TypeBool:      Bool,
	ast.TypeChar:      Integer(8, true),
	ast.TypeUChar:     Integer(8, false),
	ast.TypeShort:     Integer(16, true),
	ast.TypeUShort:    Integer(16, false),
	ast.TypeInt:       Integer(32, true),
	ast.TypeUInt:      Integer(32, false),
	ast.TypeLongLong:  Integer(64, true),
	ast.TypeULongLong: Integer(64, false),
}

// Resolve maps a syntactic type to its semantic type under the given
// template bindings.
func (e *Encoder) Resolve(spec *ast.TypeSpec, bind Bindings) (*Type, error) {
	if spec == nil {
		return Void, nil
	}
	if t, ok := scalarKinds[spec.Kind]; ok {
		return t, nil
	}
	switch spec.Kind {
	case ast.TypeVoid:
		return Void, nil
	case ast.TypeArray:
		elem, err := e.Resolve(spec.Elem, bind)
		if err != nil {
			return nil, err
		}
		size := spec.Size
		if spec.SizeName != "" {
			arg, ok := bind[spec.SizeName]
			if !ok || !arg.IsValue {
				return nil, diag.Errorf(diag.ShapeTypeUnknown, spec.Span,
					"array size %q is not a constant", spec.SizeName)
			}
			size = int(arg.Value)
		}
		return ArrayOf(elem, size), nil
	case ast.TypeChannel:
		elem, err := e.Resolve(spec.Elem, bind)
		if err != nil {
			return nil, err
		}
		return ChannelOf(elem), nil
	case ast.TypeNamed:
		return e.resolveNamed(spec, bind)
	}
	return nil, diag.Errorf(diag.ShapeTypeUnknown, spec.Span, "unknown type %q", spec)
}

func (e *Encoder) resolveNamed(spec *ast.TypeSpec, bind Bindings) (*Type, error) {
	// Template parameter bound in the current instantiation.
	if arg, ok := bind[spec.Name]; ok && len(spec.Args) == 0 {
		if arg.IsValue {
			return nil, diag.Errorf(diag.ShapeTypeUnknown, spec.Span,
				"template value parameter %q used as a type", spec.Name)
		}
		return e.Resolve(arg.Type, nil)
	}
	if td, ok := e.typedefs[spec.Name]; ok && len(spec.Args) == 0 {
		return e.Resolve(td, bind)
	}
	decl, ok := e.records[spec.Name]
	if !ok {
		return nil, diag.Errorf(diag.ShapeTypeUnknown, spec.Span, "unknown type %q", spec.Name)
	}
	args, err := e.substArgs(spec.Args, bind)
	if err != nil {
		return nil, err
	}
	return e.resolveRecord(decl, args, spec.Span)
}

// substArgs replaces template parameters inside explicit arguments with the
// caller's bindings so nested instantiations resolve concretely.
func (e *Encoder) substArgs(args []ast.TemplArg, bind Bindings) ([]ast.TemplArg, error) {
	out := make([]ast.TemplArg, len(args))
	for i, a := range args {
		if a.IsValue {
			out[i] = a
			continue
		}
		if a.Type != nil && a.Type.Kind == ast.TypeNamed {
			if inner, ok := bind[a.Type.Name]; ok && len(a.Type.Args) == 0 {
				out[i] = inner
				continue
			}
		}
		out[i] = a
	}
	return out, nil
}

// Subst is the exported form of substArgs for callers mangling function
// instances.
func (e *Encoder) Subst(args []ast.TemplArg, bind Bindings) ([]ast.TemplArg, error) {
	return e.substArgs(args, bind)
}

// InstanceName mangles a record instantiation for memoization and IR naming.
func InstanceName(name string, args []ast.TemplArg) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", name, strings.Join(parts, ","))
}

// ResolveRecord resolves a record declaration with explicit template
// arguments.
func (e *Encoder) ResolveRecord(decl *ast.RecordDecl, args []ast.TemplArg) (*Type, error) {
	return e.resolveRecord(decl, args, decl.Span)
}

func (e *Encoder) resolveRecord(decl *ast.RecordDecl, args []ast.TemplArg, at source.Span) (*Type, error) {
	if decl.Anon {
		return nil, diag.Errorf(diag.UnsupportedAnonRecord, at, "anonymous structs are not supported")
	}
	if len(args) != len(decl.TypeParams) {
		return nil, diag.Errorf(diag.ShapeTypeUnknown, at,
			"%s expects %d template arguments, got %d", decl.Name, len(decl.TypeParams), len(args))
	}
	key := InstanceName(decl.Name, args)
	if t, ok := e.resolved[key]; ok {
		return t, nil
	}

	bind := make(Bindings, len(args))
	for i, p := range decl.TypeParams {
		bind[p.Name] = args[i]
	}

	info := &StructInfo{Name: key, DeclName: decl.Name, Args: args}
	t := &Type{Kind: KindStruct, Struct: info}
	// Memoize before resolving fields; recursive references are an error
	// caught by field resolution, not an infinite loop.
	e.resolved[key] = t

	for _, baseName := range decl.Bases {
		base, ok := e.records[baseName]
		if !ok {
			return nil, diag.Errorf(diag.ShapeTypeUnknown, decl.Span, "unknown base type %q", baseName)
		}
		bt, err := e.resolveRecord(base, nil, decl.Span)
		if err != nil {
			return nil, err
		}
		info.Fields = append(info.Fields, bt.Struct.Fields...)
	}

	for _, f := range decl.Fields {
		ft, err := e.Resolve(f.Type, bind)
		if err != nil {
			return nil, err
		}
		if ft.Kind == KindChannel {
			return nil, diag.Errorf(diag.UnsupportedChannelCapture, f.Span,
				"IO ops should be on direct DeclRefs: channel stored in struct field %q", f.Name)
		}
		info.Fields = append(info.Fields, StructField{Name: f.Name, Type: ft})
	}

	if e.flattenRequested(decl) {
		if len(info.Fields) != 1 {
			return nil, diag.Errorf(diag.ShapeFlattenFields, decl.Span,
				"struct %s has %d fields, but the no-tuple encoding allows only 1 field", decl.Name, len(info.Fields))
		}
		info.NoTuple = true
	}
	return t, nil
}

func (e *Encoder) flattenRequested(decl *ast.RecordDecl) bool {
	if e.pragmas == nil || e.files == nil {
		return false
	}
	pos := e.files.Resolve(decl.Span)
	return e.pragmas.At(decl.Span.File, pos.Line) == pragma.KindNoTuple
}
