package symfile

import (
	"io"
	"os"

	"oberonc/ast"
	"oberonc/depm"
	"oberonc/typing"

	"github.com/pkg/errors"
)

// Importer reads the symbol file of a module and reconstructs its exported
// declarations in the symbol table.
type Importer struct {
	r      *Reader
	module string
	table  *depm.SymbolTable
	ctx    *typing.Context

	// xrefs maps reference numbers to the named types read so far.
	xrefs map[int]typing.Type

	// fwds maps reference numbers which have not been read yet to the pointers
	// whose base they are.
	fwds map[int][]*typing.PointerType
}

// Import reads the symbol file of a module from `in`.  The exported
// declarations are added to the namespace of the module, which is created if
// it does not exist, and returned in order.
func Import(in io.Reader, module string, table *depm.SymbolTable, ctx *typing.Context) ([]ast.Decl, error) {
	imp := &Importer{
		r:      NewReader(in),
		module: module,
		table:  table,
		ctx:    ctx,
		xrefs:  make(map[int]typing.Type),
		fwds:   make(map[int][]*typing.PointerType),
	}

	return imp.importModule()
}

// ReadFile imports the symbol file at the given path.
func ReadFile(path, module string, table *depm.SymbolTable, ctx *typing.Context) ([]ast.Decl, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open symbol file `%s`", path)
	}
	defer f.Close()

	decls, err := Import(f, module, table, ctx)
	return decls, errors.Wrapf(err, "error importing `%s`", path)
}

func (imp *Importer) importModule() ([]ast.Decl, error) {
	imp.r.ReadLong()
	imp.r.ReadString()
	version := imp.r.ReadChar()
	if err := imp.r.Err(); err != nil {
		return nil, err
	}

	if version != Version {
		return nil, errors.Errorf("incompatible symbol file version %d for module %s: expected %d.", version, imp.module, Version)
	}

	if !imp.table.HasNamespace(imp.module) {
		if err := imp.table.CreateNamespace(imp.module, false); err != nil {
			return nil, err
		}
	}

	var decls []ast.Decl
	for {
		kind := imp.r.ReadChar()
		if err := imp.r.Err(); err != nil {
			return nil, err
		}

		if kind == 0 {
			break
		}

		decl, err := imp.readDecl(ast.DeclKind(kind))
		if err != nil {
			return nil, err
		}

		if err := imp.table.Import(imp.module, decl.Name(), decl); err != nil {
			return nil, err
		}

		decls = append(decls, decl)
	}

	if len(imp.fwds) > 0 {
		return nil, errors.New("unresolved forward type references during import.")
	}

	return decls, nil
}

func (imp *Importer) readDecl(kind ast.DeclKind) (ast.Decl, error) {
	name := imp.r.ReadString()
	typ, err := imp.readType(nil)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ast.DeclConst:
		decl := ast.NewDecl(kind, name, true, imp.module, typ).(*ast.ConstDecl)
		if typ != nil && typ.Kind() == typing.KindProcedure {
			imp.r.ReadChar()
			return decl, imp.r.Err()
		}

		decl.Value, err = imp.readValue(typ)
		return decl, err
	case ast.DeclVar:
		imp.r.ReadChar()
		return ast.NewDecl(kind, name, true, imp.module, typ), imp.r.Err()
	case ast.DeclType:
		return imp.declareType(imp.module, name, typ), imp.r.Err()
	case ast.DeclProc:
		if _, ok := typ.(*typing.ProcedureType); !ok {
			return nil, errors.Errorf("procedure %s has no procedure type.", name)
		}

		return ast.NewDecl(kind, name, true, imp.module, typ), imp.r.Err()
	}

	return nil, errors.Errorf("invalid declaration kind %d for %s.", kind, name)
}

// declareType returns the declaration of a named type.  An existing
// declaration of the same name in the module takes precedence over the type
// that was read.
func (imp *Importer) declareType(module, name string, typ typing.Type) *ast.TypeDecl {
	if ns := imp.table.Namespace(module); ns != nil {
		if td, ok := ns.Lookup(name, true).(*ast.TypeDecl); ok {
			imp.replaceRef(typ, td.Type())
			return td
		}
	}

	named := imp.ctx.Declare(typ, module, name)
	imp.replaceRef(typ, named)

	return ast.NewDecl(ast.DeclType, name, true, module, named).(*ast.TypeDecl)
}

func (imp *Importer) replaceRef(old, named typing.Type) {
	if old == named {
		return
	}

	for ref, t := range imp.xrefs {
		if t == old {
			imp.xrefs[ref] = named
		}
	}
}

func (imp *Importer) readValue(typ typing.Type) (ast.Expr, error) {
	base := ast.NewExprBase(nil, typ)

	var value ast.Expr
	switch typ.Kind() {
	case typing.KindString:
		value = &ast.StringLit{ExprBase: base, Value: imp.r.ReadString()}
	case typing.KindBoolean:
		value = &ast.BooleanLit{ExprBase: base, Value: imp.r.ReadChar() != 0}
	case typing.KindChar:
		value = &ast.CharLit{ExprBase: base, Value: byte(imp.r.ReadChar())}
	case typing.KindShortInt:
		value = &ast.IntegerLit{ExprBase: base, Value: int64(imp.r.ReadShort())}
	case typing.KindInteger:
		value = &ast.IntegerLit{ExprBase: base, Value: int64(imp.r.ReadInt())}
	case typing.KindLongInt:
		value = &ast.IntegerLit{ExprBase: base, Value: imp.r.ReadLong()}
	case typing.KindReal:
		value = &ast.RealLit{ExprBase: base, Value: float64(imp.r.ReadFloat())}
	case typing.KindLongReal:
		value = &ast.RealLit{ExprBase: base, Value: imp.r.ReadDouble()}
	case typing.KindSet:
		value = &ast.SetLit{ExprBase: base, Value: uint32(imp.r.ReadInt())}
	default:
		return nil, errors.Errorf("invalid constant type %s.", typing.Format(typ))
	}

	return value, imp.r.Err()
}

// -----------------------------------------------------------------------------

// readType reads a type descriptor.  It returns nil for NOTYPE, which denotes
// the absence of a type or a repetition of the previous type depending on the
// context.  `pending` is the pointer whose base is being read: references to
// types that were not read yet are recorded as forward references of it.
func (imp *Importer) readType(pending *typing.PointerType) (typing.Type, error) {
	ref := int(imp.r.ReadChar())
	if err := imp.r.Err(); err != nil {
		return nil, err
	}

	if ref < 0 {
		ref = -ref

		switch {
		case ref == int(typing.KindNoType):
			return nil, nil
		case ref < int(typing.KindType):
			return imp.ctx.Basic(typing.Kind(ref)), nil
		}

		if t, ok := imp.xrefs[ref]; ok {
			return t, nil
		} else if pending != nil {
			imp.fwds[ref] = append(imp.fwds[ref], pending)
			return nil, nil
		}

		return nil, errors.Errorf("undefined type reference %d.", ref)
	}

	var module, name string
	if ref > 0 {
		module = imp.r.ReadString()
		if module != "" {
			name = imp.r.ReadString()
		}
	}

	kind := typing.Kind(imp.r.ReadChar())

	var t typing.Type
	var err error
	switch kind {
	case typing.KindArray:
		t, err = imp.readArray()
	case typing.KindPointer:
		t, err = imp.readPointer(ref)
	case typing.KindProcedure:
		t, err = imp.readProcedure()
	case typing.KindRecord:
		t, err = imp.readRecord(ref)
	default:
		err = errors.Errorf("invalid type kind %d.", kind)
	}

	if err != nil {
		return nil, err
	}

	if ref > 0 {
		imp.define(ref, t)

		// types declared by another module are registered with that module
		if module != "" {
			t = imp.reexport(module, name, t)
		}
	}

	return t, imp.r.Err()
}

// define binds a reference number to a type and resolves the pointers that
// referred to it in advance.
func (imp *Importer) define(ref int, t typing.Type) {
	imp.xrefs[ref] = t

	for _, pt := range imp.fwds[ref] {
		pt.Base = t
	}
	delete(imp.fwds, ref)
}

func (imp *Importer) reexport(module, name string, t typing.Type) typing.Type {
	if !imp.table.HasNamespace(module) {
		// the namespace is always absent here so creation cannot fail
		_ = imp.table.CreateNamespace(module, false)
	}

	td := imp.declareType(module, name, t)
	if imp.table.Namespace(module).Lookup(name, true) == nil {
		_ = imp.table.Import(module, name, td)
	}

	return td.Type()
}

func (imp *Importer) readArray() (typing.Type, error) {
	member, err := imp.readType(nil)
	if err != nil {
		return nil, err
	} else if member == nil {
		return nil, errors.New("array type without member type.")
	}

	length := int(imp.r.ReadInt())
	imp.r.ReadInt()

	lengths := []int{length}
	if at, ok := member.(*typing.ArrayType); ok && typing.IsAnonymous(at) {
		lengths = append(lengths, at.Lengths...)
		member = at.Member()
	}

	return imp.ctx.ArrayOf(lengths, member), nil
}

func (imp *Importer) readPointer(ref int) (typing.Type, error) {
	pt := imp.ctx.PointerTo(nil)
	if ref > 0 {
		imp.define(ref, pt)
	}

	base, err := imp.readType(pt)
	if err != nil {
		return nil, err
	}

	if base != nil {
		pt.Base = base
	}

	return pt, nil
}

func (imp *Importer) readProcedure() (typing.Type, error) {
	ret, err := imp.readType(nil)
	if err != nil {
		return nil, err
	}

	var params []*typing.Param
	var prev typing.Type
	seq := 0
	for {
		tag := imp.r.ReadChar()
		if err := imp.r.Err(); err != nil {
			return nil, err
		} else if tag == 0 {
			break
		} else if tag != int8(ast.DeclParam) {
			return nil, errors.Errorf("invalid parameter tag %d.", tag)
		}

		isVar := imp.r.ReadChar() == 0
		typ, err := imp.readType(nil)
		if err != nil {
			return nil, err
		}

		if typ == nil {
			if prev == nil {
				return nil, errors.New("parameter without type.")
			}

			typ = prev
			seq++
		} else {
			prev = typ
			seq = 0
		}

		params = append(params, &typing.Param{Var: isVar, Type: typ, Seq: seq})
	}

	return imp.ctx.NewProcedure(params, ret, false), nil
}

func (imp *Importer) readRecord(ref int) (typing.Type, error) {
	baseType, err := imp.readType(nil)
	if err != nil {
		return nil, err
	}

	var base *typing.RecordType
	if baseType != nil {
		rt, ok := baseType.(*typing.RecordType)
		if !ok {
			return nil, errors.Errorf("record extends non-record type %s.", typing.Format(baseType))
		}

		base = rt
	}

	rt := imp.ctx.NewRecord(base, nil)
	if ref > 0 {
		imp.define(ref, rt)
	}

	imp.r.ReadChar()
	count := int(imp.r.ReadInt())
	imp.r.ReadInt()

	fields := make([]*typing.Field, 0, count)
	var prev typing.Type
	seq := 0
	for {
		tag := imp.r.ReadChar()
		if err := imp.r.Err(); err != nil {
			return nil, err
		} else if tag == 0 {
			break
		} else if tag != int8(ast.DeclField) {
			return nil, errors.Errorf("invalid field tag %d.", tag)
		}

		imp.r.ReadInt()
		name := imp.r.ReadString()
		typ, err := imp.readType(nil)
		if err != nil {
			return nil, err
		}
		imp.r.ReadInt()

		if typ == nil {
			if prev == nil {
				return nil, errors.Errorf("field %s without type.", name)
			}

			typ = prev
			seq++
		} else {
			prev = typ
			seq = 0
		}

		fields = append(fields, &typing.Field{Name: name, Exported: name != "_", Type: typ, Seq: seq})
	}

	if len(fields) != count {
		return nil, errors.Errorf("record declares %d fields, found %d.", count, len(fields))
	}

	rt.SetFields(fields)
	return rt, nil
}
