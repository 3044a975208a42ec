package symfile

import (
	"io"
	"os"
	"path/filepath"

	"oberonc/ast"
	"oberonc/common"
	"oberonc/typing"

	"github.com/pkg/errors"
)

// firstRef is the first reference number assigned to named types: smaller
// numbers denote the basic types by their kind.
const firstRef = int(typing.KindType) + 1

// exportNo is written in place of the export number of variables and
// procedure constants.
const exportNo = -1

// Exporter writes the exported declarations of a module to a symbol file.
type Exporter struct {
	w      *Writer
	module string

	// ref is the next free reference number.
	ref int

	// refs maps the named types already written to their reference numbers.
	refs map[typing.Type]int

	// fwds maps named types that were referenced before being written to the
	// reference number reserved for them.
	fwds map[typing.Type]int

	// pending contains the types of exported type declarations that have not
	// been written yet.
	pending map[typing.Type]bool
}

// Export writes the symbol file of a module containing the given exported
// declarations in order.
func Export(out io.Writer, module string, decls []ast.Decl) error {
	e := &Exporter{
		w:       NewWriter(out),
		module:  module,
		ref:     firstRef,
		refs:    make(map[typing.Type]int),
		fwds:    make(map[typing.Type]int),
		pending: make(map[typing.Type]bool),
	}

	for _, decl := range decls {
		if td, ok := decl.(*ast.TypeDecl); ok && td.Type() != nil && !typing.IsAnonymous(td.Type()) {
			e.pending[td.Type()] = true
		}
	}

	// header: reserved key, source file name and format version
	e.w.WriteLong(0)
	e.w.WriteString(module + common.SourceFileExt)
	e.w.WriteChar(Version)

	for _, decl := range decls {
		if err := e.writeDecl(decl); err != nil {
			return err
		}
	}

	e.w.WriteChar(0)
	return errors.Wrapf(e.w.Flush(), "error writing symbol file of module %s", module)
}

// WriteFile writes the symbol file of a module to the given directory.  It
// returns the path to the written file.
func WriteFile(dir, module string, decls []ast.Decl) (string, error) {
	path := filepath.Join(dir, module+common.SymbolFileExt)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "unable to create symbol directory `%s`", dir)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to create symbol file `%s`", path)
	}
	defer f.Close()

	return path, Export(f, module, decls)
}

func (e *Exporter) writeDecl(decl ast.Decl) error {
	e.w.WriteChar(int8(decl.Kind()))
	e.w.WriteString(decl.Name())
	e.writeType(decl.Type())

	switch v := decl.(type) {
	case *ast.ConstDecl:
		if decl.Type().Kind() == typing.KindProcedure {
			e.w.WriteChar(exportNo)
			return nil
		}

		return e.writeValue(v)
	case *ast.VarDecl:
		e.w.WriteChar(exportNo)
	case *ast.TypeDecl:
		delete(e.pending, v.Type())
	}

	return nil
}

func (e *Exporter) writeValue(decl *ast.ConstDecl) error {
	switch v := decl.Value.(type) {
	case *ast.StringLit:
		e.w.WriteString(v.Value)
	case *ast.BooleanLit:
		if v.Value {
			e.w.WriteChar(1)
		} else {
			e.w.WriteChar(0)
		}
	case *ast.CharLit:
		e.w.WriteChar(int8(v.Value))
	case *ast.IntegerLit:
		switch decl.Type().Kind() {
		case typing.KindShortInt:
			e.w.WriteShort(int16(v.Value))
		case typing.KindInteger:
			e.w.WriteInt(int32(v.Value))
		default:
			e.w.WriteLong(v.Value)
		}
	case *ast.RealLit:
		if decl.Type().Kind() == typing.KindReal {
			e.w.WriteFloat(float32(v.Value))
		} else {
			e.w.WriteDouble(v.Value)
		}
	case *ast.SetLit:
		e.w.WriteInt(int32(v.Value))
	default:
		return errors.Errorf("cannot export constant %s.", decl.Name())
	}

	return nil
}

// writeType writes a type descriptor.  Named types are written in full the
// first time they are encountered and by reference afterwards.
func (e *Exporter) writeType(t typing.Type) {
	if t == nil || t.Kind() == typing.KindNoType {
		e.w.WriteChar(-int8(typing.KindNoType))
		return
	}

	if typing.IsBasic(t) || t.Kind() == typing.KindNilType {
		e.w.WriteChar(-int8(t.Kind()))
		return
	}

	if ref, ok := e.refs[t]; ok {
		e.w.WriteRef(-ref)
		return
	}

	if typing.IsAnonymous(t) {
		e.w.WriteChar(0)
	} else {
		ref, ok := e.fwds[t]
		if ok {
			delete(e.fwds, t)
		} else {
			ref = e.ref
			e.ref++
		}

		e.refs[t] = ref
		e.w.WriteRef(ref)

		if t.Module() != e.module {
			e.w.WriteString(t.Module())
			e.w.WriteString(t.Name())
		} else {
			e.w.WriteString("")
		}
	}

	e.w.WriteChar(int8(t.Kind()))

	switch v := t.(type) {
	case *typing.ArrayType:
		e.writeType(v.Types[0])
		e.w.WriteCount(v.Lengths[0])
		e.w.WriteCount(v.Size())
	case *typing.PointerType:
		e.writePointerBase(v.Base)
	case *typing.ProcedureType:
		e.writeType(v.Return)
		for _, param := range v.Params {
			e.w.WriteChar(int8(ast.DeclParam))

			// VAR parameters are tagged 0 and value parameters 1
			if param.Var {
				e.w.WriteChar(0)
			} else {
				e.w.WriteChar(1)
			}

			// runs of parameters with the same type only write the first type
			if param.Seq == 0 {
				e.writeType(param.Type)
			} else {
				e.writeType(nil)
			}
		}
		e.w.WriteChar(0)
	case *typing.RecordType:
		e.writeRecord(v)
	}
}

// writePointerBase writes the base of a pointer type.  A named base type that
// is written later by its own declaration is emitted as a forward reference.
func (e *Exporter) writePointerBase(base typing.Type) {
	if base != nil && !typing.IsAnonymous(base) && e.pending[base] {
		if _, ok := e.refs[base]; !ok {
			ref, ok := e.fwds[base]
			if !ok {
				ref = e.ref
				e.fwds[base] = ref
				e.ref++
			}

			e.w.WriteRef(-ref)
			return
		}
	}

	e.writeType(base)
}

func (e *Exporter) writeRecord(rt *typing.RecordType) {
	if rt.Base != nil {
		e.writeType(rt.Base)
	} else {
		e.writeType(nil)
	}

	if typing.IsAnonymous(rt) {
		e.w.WriteChar(0)
	} else {
		e.w.WriteChar(exportNo)
	}

	e.w.WriteCount(len(rt.Fields))
	e.w.WriteCount(rt.Size())

	local := typing.IsAnonymous(rt) || rt.Module() == e.module
	for i, field := range rt.Fields {
		e.w.WriteChar(int8(ast.DeclField))
		e.w.WriteCount(i + 1)

		// hidden fields are still written to preserve the record layout
		if field.Exported || !local {
			e.w.WriteString(field.Name)
		} else {
			e.w.WriteString("_")
		}

		if field.Seq == 0 {
			e.writeType(field.Type)
		} else {
			e.writeType(nil)
		}

		e.w.WriteCount(rt.Offset(field))
	}

	e.w.WriteChar(0)
}
