package generate

import (
	"oberonc/ast"
	"oberonc/depm"
	"oberonc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// access is the state of a designator while its selectors are lowered.
type access struct {
	// ptr is the address of the location reached so far.  It is nil once the
	// designator yields a value which is not stored anywhere.
	ptr value.Value

	// val is the value of the designator when it has no address: procedures
	// and call results.
	val value.Value

	typ typing.Type

	// lengths are the lengths of the dimensions of an array location as `i64`
	// values.
	lengths []value.Value

	// flat indicates that `ptr` points to the first member of an array whose
	// dimensions are given by `lengths` rather than to an LLVM array.
	flat bool

	// td is the type descriptor of a variable record parameter.
	td value.Value

	// heap indicates that `ptr` points to a record allocated by NEW.
	heap bool
}

// genDesignator lowers a designator according to the current reference mode:
// in value mode, scalar locations are loaded.  Structured locations always
// yield their address.
func (g *Generator) genDesignator(d *ast.Designator) value.Value {
	if pp, ok := d.Decl.(*ast.PredefinedProc); ok {
		return g.genPredefined(pp, d.Selectors[len(d.Selectors)-1].(*ast.ActualParameters))
	}

	acc := g.genAccess(d)
	if acc.val != nil {
		return acc.val
	}

	if g.deref() && isScalar(acc.typ) {
		return g.block.NewLoad(g.convType(acc.typ), acc.ptr)
	}

	return acc.ptr
}

// genAddr returns the address of the location denoted by a designator.
func (g *Generator) genAddr(expr ast.Expr) value.Value {
	d, ok := expr.(*ast.Designator)
	if !ok {
		g.fail("expression at %s has no address", expr.Pos())
	}

	g.setRefMode(false)
	defer g.restoreRefMode()

	return g.genDesignator(d)
}

// genAccess walks the selectors of a designator.
func (g *Generator) genAccess(d *ast.Designator) *access {
	acc := g.genBase(d.Decl)

	for _, sel := range d.Selectors {
		switch v := sel.(type) {
		case *ast.Dereference:
			g.genDereference(acc)
		case *ast.ArrayIndex:
			g.genArrayIndex(acc, v)
		case *ast.RecordField:
			g.genRecordField(acc, v)
		case *ast.Typeguard:
			g.genTypeguard(acc, v)
		case *ast.ActualParameters:
			g.genCall(acc, v)
		}

		acc.typ = sel.Type()
	}

	return acc
}

// genBase returns the access to the declaration a designator starts from.
func (g *Generator) genBase(decl ast.Decl) *access {
	switch v := decl.(type) {
	case *ast.VarDecl:
		return g.arrayAccess(g.lookupValue(v), v.Type())
	case *ast.ParamDecl:
		acc := &access{ptr: g.lookupValue(v), typ: v.Type(), td: g.recordTags[v]}
		if at, ok := v.Type().(*typing.ArrayType); ok {
			acc.lengths = g.openLengths[v]
			acc.flat = hasOpenDim(at)
		}

		return acc
	case *ast.ProcDecl:
		return &access{val: g.lookupValue(v), typ: v.Type()}
	}

	g.fail("%s %s cannot be used as a value", decl.Kind(), decl.Name())
	return nil
}

// arrayAccess returns the access to a location.  The lengths of fixed arrays
// are constants.
func (g *Generator) arrayAccess(ptr value.Value, typ typing.Type) *access {
	acc := &access{ptr: ptr, typ: typ}

	if at, ok := typ.(*typing.ArrayType); ok {
		for _, length := range at.Lengths {
			acc.lengths = append(acc.lengths, constant.NewInt(types.I64, int64(length)))
		}
	}

	return acc
}

// hasOpenDim returns whether any dimension of an array is open.
func hasOpenDim(at *typing.ArrayType) bool {
	for _, length := range at.Lengths {
		if length == 0 {
			return true
		}
	}

	return false
}

// loadPtr returns the value of a pointer or procedure location.
func (g *Generator) loadPtr(acc *access) value.Value {
	if acc.val != nil {
		return acc.val
	}

	return g.block.NewLoad(g.convType(acc.typ), acc.ptr)
}

// -----------------------------------------------------------------------------

func (g *Generator) genDereference(acc *access) {
	ptr := g.loadPtr(acc)
	g.genNilCheck(ptr)

	acc.ptr, acc.val = ptr, nil
	acc.lengths, acc.flat = nil, false
	acc.td, acc.heap = nil, true
}

// genArrayIndex indexes an array.  Arrays with open dimensions are indexed by
// computing the offset of the member in row-major order.
func (g *Generator) genArrayIndex(acc *access, sel *ast.ArrayIndex) {
	at := acc.typ.(*typing.ArrayType)

	indices := make([]value.Value, len(sel.Indices))
	for i, index := range sel.Indices {
		indices[i] = g.toI64(g.genExpr(index))
		g.genBoundsCheck(indices[i], acc.lengths[i])
	}

	remaining := acc.lengths[len(indices):]
	result := at.Types[len(indices)-1]
	acc.td, acc.heap = nil, false

	if !acc.flat {
		gepIndices := append([]value.Value{constant.NewInt(types.I64, 0)}, indices...)
		acc.ptr = g.block.NewGetElementPtr(g.convType(at), acc.ptr, gepIndices...)
		acc.lengths = remaining
		return
	}

	offset := indices[0]
	for i := 1; i < len(indices); i++ {
		offset = g.block.NewAdd(g.block.NewMul(offset, acc.lengths[i]), indices[i])
	}

	for _, length := range remaining {
		offset = g.block.NewMul(offset, length)
	}

	acc.ptr = g.block.NewGetElementPtr(g.convType(at.Member()), acc.ptr, offset)
	acc.lengths = remaining

	if rt, ok := result.(*typing.ArrayType); ok && !hasOpenDim(rt) {
		acc.ptr = g.block.NewBitCast(acc.ptr, types.NewPointer(g.convType(rt)))
		acc.flat = false
	} else if !ok {
		acc.flat = false
	}
}

// genRecordField selects a field of a record.  Inherited fields are reached
// through the base record stored as the first element of each extension.
func (g *Generator) genRecordField(acc *access, sel *ast.RecordField) {
	rt := acc.typ.(*typing.RecordType)
	llRec := g.convType(rt)

	ptr := acc.ptr
	if !ptr.Type().Equal(types.NewPointer(llRec)) {
		ptr = g.block.NewBitCast(ptr, types.NewPointer(llRec))
	}

	path := []value.Value{constant.NewInt(types.I32, 0)}

outer:
	for r := rt; r != nil; r = r.Base {
		for j, field := range r.Fields {
			if field == sel.Field {
				if r.Base != nil {
					j++
				}

				path = append(path, constant.NewInt(types.I32, int64(j)))
				break outer
			}
		}

		if r.Base == nil {
			g.fail("record %s has no field %s", typing.Format(rt), sel.Name)
		}

		path = append(path, constant.NewInt(types.I32, 0))
	}

	next := g.arrayAccess(g.block.NewGetElementPtr(llRec, ptr, path...), sel.Field.Type)
	*acc = *next
}

// genTypeguard reinterprets the location as the guarded type.  With the
// `guard` sanitizer, explicit guards trap unless the dynamic type extends the
// guarded type.
func (g *Generator) genTypeguard(acc *access, sel *ast.Typeguard) {
	guard := sel.Type()
	if !sel.Implicit && g.sanitize(depm.SanitizeGuard) {
		holds := g.genSubjectTest(g.subjectOf(acc), guard)
		g.genTrap(g.block.NewXor(holds, constant.True), trapGuard)
	}

	llGuard := g.convType(guard)

	if acc.val != nil {
		if !acc.val.Type().Equal(llGuard) {
			acc.val = g.block.NewBitCast(acc.val, llGuard)
		}

		return
	}

	if !acc.ptr.Type().Equal(types.NewPointer(llGuard)) {
		acc.ptr = g.block.NewBitCast(acc.ptr, types.NewPointer(llGuard))
	}
}

// -----------------------------------------------------------------------------

// genCall calls the procedure reached so far.
func (g *Generator) genCall(acc *access, sel *ast.ActualParameters) {
	callee := g.loadPtr(acc)

	sig := sel.Signature
	if sig == nil {
		sig = acc.typ.(*typing.ProcedureType)
	}

	args := g.genArgs(sig, sel.Args)
	acc.val = g.block.NewCall(callee, args...)
	acc.ptr, acc.lengths, acc.flat = nil, nil, false
	acc.td, acc.heap = nil, false
}

// genArgs generates the actual parameters of a call.  Open array arguments
// are followed by the lengths of their open dimensions and variable record
// arguments by their type descriptor.
func (g *Generator) genArgs(sig *typing.ProcedureType, args []ast.Expr) []value.Value {
	var vals []value.Value

	for i, arg := range args {
		if i >= len(sig.Params) {
			vals = append(vals, g.genExpr(arg))
			continue
		}

		param := sig.Params[i]
		llParam := g.convParamType(param)

		switch pt := param.Type.(type) {
		case *typing.ArrayType:
			ptr, lengths := g.genArrayArg(arg, pt)
			vals = append(vals, g.castPtr(ptr, llParam))

			for dim, length := range pt.Lengths {
				if length == 0 {
					vals = append(vals, lengths[dim])
				}
			}
		case *typing.RecordType:
			if !param.Var {
				vals = append(vals, g.castPtr(g.genAddr(arg), llParam))
				break
			}

			ptr, td := g.genRecordArg(arg)
			vals = append(vals, g.castPtr(ptr, llParam), td)
		default:
			if param.Var {
				vals = append(vals, g.castPtr(g.genAddr(arg), llParam))
			} else {
				vals = append(vals, g.genExpr(arg))
			}
		}
	}

	return vals
}

// genArrayArg returns the address and the dimension lengths of an argument
// passed to an array parameter.  String literals passed to fixed character
// arrays are copied to a buffer of the length of the parameter.
func (g *Generator) genArrayArg(arg ast.Expr, formal *typing.ArrayType) (value.Value, []value.Value) {
	var text string
	switch v := arg.(type) {
	case *ast.StringLit:
		text = v.Value
	case *ast.CharLit:
		text = string([]byte{v.Value})
	default:
		d, ok := arg.(*ast.Designator)
		if !ok {
			g.fail("array argument at %s is not a designator", arg.Pos())
		}

		acc := g.genAccess(d)
		return acc.ptr, acc.lengths
	}

	length := int64(len(text) + 1)
	if formal.IsOpen() {
		return g.stringPtr(text), []value.Value{constant.NewInt(types.I64, length)}
	}

	if int64(formal.Lengths[0]) > length {
		length = int64(formal.Lengths[0])
	}

	bufType := types.NewArray(uint64(length), types.I8)
	buf := g.entry.NewAlloca(bufType)
	g.block.NewStore(constant.NewZeroInitializer(bufType), buf)
	g.memcpy(buf, g.stringPtr(text), constant.NewInt(types.I64, int64(len(text)+1)))

	return buf, []value.Value{constant.NewInt(types.I64, length)}
}

// genRecordArg returns the address and the type descriptor of an argument
// passed to a variable record parameter.
func (g *Generator) genRecordArg(arg ast.Expr) (value.Value, value.Value) {
	d, ok := arg.(*ast.Designator)
	if !ok {
		g.fail("record argument at %s is not a designator", arg.Pos())
	}

	g.setRefMode(false)
	defer g.restoreRefMode()

	acc := g.genAccess(d)
	return acc.ptr, g.typeDescOf(acc)
}

// castPtr converts a pointer to another pointer type if the types differ.
func (g *Generator) castPtr(ptr value.Value, to types.Type) value.Value {
	if ptr.Type().Equal(to) {
		return ptr
	}

	if c, ok := ptr.(constant.Constant); ok {
		return constant.NewBitCast(c, to)
	}

	return g.block.NewBitCast(ptr, to)
}

// byteSize returns the size in bytes of the location of an access as an `i64`.
func (g *Generator) byteSize(acc *access) value.Value {
	if !acc.flat {
		return sizeOf(g.convType(acc.typ))
	}

	var size value.Value = sizeOf(g.convType(acc.typ.(*typing.ArrayType).Member()))
	for _, length := range acc.lengths {
		size = g.block.NewMul(size, length)
	}

	return size
}
