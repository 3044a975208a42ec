package generate

import (
	"fmt"

	"oberonc/ast"
	"oberonc/typing"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// convType converts a type into its LLVM type.  Arrays are nested LLVM arrays
// and records are named structures whose first element is the structure of
// their base record.
func (g *Generator) convType(typ typing.Type) types.Type {
	if llTyp, ok := g.llTypes[typ]; ok {
		return llTyp
	}

	var llTyp types.Type
	switch v := typ.(type) {
	case *typing.BasicType:
		llTyp = g.convBasicType(v)
	case *typing.ArrayType:
		llTyp = g.convType(v.Member())
		for i := len(v.Lengths) - 1; i >= 0; i-- {
			if v.Lengths[i] == 0 {
				g.fail("open array type %s has no storage type", typing.Format(v))
			}

			length, err := safecast.Conv[uint64](v.Lengths[i])
			if err != nil {
				g.fail("invalid array length %d: %s", v.Lengths[i], err)
			}

			llTyp = types.NewArray(length, llTyp)
		}
	case *typing.PointerType:
		if v.Base == nil {
			g.fail("pointer type %s has no base type", typing.Format(v))
		}

		if at, ok := v.Base.(*typing.ArrayType); ok && at.IsOpen() {
			g.fail("pointers to open arrays are not supported")
		}

		// anonymous records of imported pointer types are named after the pointer
		if rt, ok := v.Base.(*typing.RecordType); ok && v.Name() != "" && typing.IsAnonymous(rt) {
			if _, named := g.recordNames[rt]; !named {
				g.recordNames[rt] = v.Module() + "_" + v.Name() + ".rec"
			}
		}

		// records are registered before their fields are converted so the base
		// of a recursive pointer is always found in the cache
		llTyp = types.NewPointer(g.convType(v.Base))
	case *typing.RecordType:
		return g.convRecordType(v)
	case *typing.ProcedureType:
		llTyp = types.NewPointer(g.convFuncType(v))
	default:
		g.fail("type %s cannot be converted", typing.Format(typ))
	}

	g.llTypes[typ] = llTyp
	return llTyp
}

// convBasicType converts a basic type.  Strings are pointers to their
// characters.
func (g *Generator) convBasicType(bt *typing.BasicType) types.Type {
	switch bt.Kind() {
	case typing.KindBoolean:
		return types.I1
	case typing.KindByte, typing.KindChar:
		return types.I8
	case typing.KindShortInt:
		return types.I16
	case typing.KindInteger, typing.KindSet:
		return types.I32
	case typing.KindLongInt:
		return types.I64
	case typing.KindReal:
		return types.Float
	case typing.KindLongReal:
		return types.Double
	case typing.KindString, typing.KindNilType:
		return types.I8Ptr
	}

	g.fail("type %s has no storage type", bt.Repr())
	return nil
}

// convRecordType converts a record into a named structure.
func (g *Generator) convRecordType(rt *typing.RecordType) types.Type {
	name := g.recordName(rt)
	if llTyp, ok := g.typeDefs[name]; ok {
		g.llTypes[rt] = llTyp
		return llTyp
	}

	st := &types.StructType{}
	llTyp := g.mod.NewTypeDef(name, st)
	g.llTypes[rt] = llTyp
	g.typeDefs[name] = llTyp

	if rt.Base != nil {
		st.Fields = append(st.Fields, g.convType(rt.Base))
	}

	for _, field := range rt.Fields {
		st.Fields = append(st.Fields, g.convType(field.Type))
	}

	return llTyp
}

// recordName returns the name of the structure of a record.  Named records
// are qualified by their module and anonymous records are numbered.
func (g *Generator) recordName(rt *typing.RecordType) string {
	if name, ok := g.recordNames[rt]; ok {
		return name
	}

	var name string
	if rt.Name() != "" {
		name = rt.Module() + "_" + rt.Name()
	} else {
		g.recordCounter++
		name = fmt.Sprintf("record.%d", g.recordCounter)
		g.localRecords[rt] = true
	}

	g.recordNames[rt] = name
	return name
}

// declaredRecord returns the record introduced by a type declaration and the
// suffix of its name: records of pointer types declared with an anonymous
// record are named after the pointer.  It returns nil for other declarations.
func declaredRecord(td *ast.TypeDecl) (*typing.RecordType, string) {
	switch t := td.Type().(type) {
	case *typing.RecordType:
		if t.Name() == td.Name() {
			return t, ""
		}
	case *typing.PointerType:
		if rt, ok := t.Base.(*typing.RecordType); ok && t.Name() == td.Name() && typing.IsAnonymous(rt) {
			return rt, ".rec"
		}
	}

	return nil, ""
}

// nameRecords names the records declared by a declaration sequence after the
// module or the procedure declaring them.
func (g *Generator) nameRecords(scope string, decls []*ast.TypeDecl, local bool) {
	for _, td := range decls {
		rt, suffix := declaredRecord(td)
		if rt == nil {
			continue
		}

		if _, ok := g.recordNames[rt]; ok {
			continue
		}

		g.recordNames[rt] = scope + "_" + td.Name() + suffix
		if local {
			g.localRecords[rt] = true
		}
	}
}

// nameLocalRecords names the records declared in procedures.  The same name
// may be declared by several procedures.
func (g *Generator) nameLocalRecords(procs []*ast.ProcDecl) {
	for _, proc := range procs {
		g.nameRecords(g.globalName(proc), proc.Types, true)
		g.nameLocalRecords(proc.Procs)
	}
}

// convFuncType converts a procedure type into the type of the functions
// implementing it.
func (g *Generator) convFuncType(pt *typing.ProcedureType) *types.FuncType {
	var params []types.Type
	for _, param := range pt.Params {
		params = append(params, g.convParamType(param))

		if passesTypeDesc(param) {
			params = append(params, types.I8Ptr)
		}

		if at, ok := param.Type.(*typing.ArrayType); ok {
			for _, length := range at.Lengths {
				if length == 0 {
					params = append(params, types.I64)
				}
			}
		}
	}

	return types.NewFunc(g.convReturnType(pt), params...)
}

// passesTypeDesc returns whether the type descriptor of the actual parameter
// is passed along with a formal parameter.  Variable records may have an
// extension of their formal type.
func passesTypeDesc(param *typing.Param) bool {
	_, ok := param.Type.(*typing.RecordType)
	return ok && param.Var
}

// convParamType converts the type of a formal parameter.  Variable parameters
// and structured parameters are passed by pointer: open arrays as a pointer
// to their elements.
func (g *Generator) convParamType(param *typing.Param) types.Type {
	switch t := param.Type.(type) {
	case *typing.ArrayType:
		if t.IsOpen() {
			return types.NewPointer(g.convType(t.Member()))
		}

		return types.NewPointer(g.convType(t))
	case *typing.RecordType:
		return types.NewPointer(g.convType(t))
	}

	if param.Var {
		return types.NewPointer(g.convType(param.Type))
	}

	return g.convType(param.Type)
}

// convReturnType converts the result type of a procedure.
func (g *Generator) convReturnType(pt *typing.ProcedureType) types.Type {
	if pt.Return == nil {
		return types.Void
	}

	return g.convType(pt.Return)
}

// -----------------------------------------------------------------------------

// alignOf returns the alignment of a type in bytes.
func (g *Generator) alignOf(typ typing.Type) int {
	switch v := typ.(type) {
	case *typing.ArrayType:
		return g.alignOf(v.Member())
	case *typing.RecordType:
		align := 1
		for _, field := range v.AllFields() {
			if fa := g.alignOf(field.Type); fa > align {
				align = fa
			}
		}

		return align
	case *typing.BasicType:
		if size := v.Size(); size > 0 {
			return size
		}
	}

	return 8
}

// sizeOf returns the allocation size of an LLVM type as a constant `i64`.
func sizeOf(llTyp types.Type) constant.Constant {
	end := constant.NewGetElementPtr(llTyp, constant.NewNull(types.NewPointer(llTyp)), constant.NewInt(types.I32, 1))
	return constant.NewPtrToInt(end, types.I64)
}

// intType returns the LLVM integer type of an integer, character, boolean or
// set type.
func (g *Generator) intType(typ typing.Type) *types.IntType {
	llTyp, ok := g.convType(typ).(*types.IntType)
	if !ok {
		g.fail("type %s is not an integer type", typing.Format(typ))
	}

	return llTyp
}

// isScalar returns whether values of a type are held in registers.  Values of
// structured types are always handled through their address.
func isScalar(typ typing.Type) bool {
	return !typing.IsStructured(typ)
}
