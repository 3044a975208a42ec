package generate

import (
	"strings"

	"oberonc/ast"
	"oberonc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// tagSize is the size of the header preceding records allocated by NEW: it
// holds the type descriptor of the record.
const tagSize = 8

// typeDescType returns the structure of type descriptors: a pointer to the
// descriptors of the record and of its bases indexed by extension level,
// followed by the extension level of the record.
func (g *Generator) typeDescType() *types.StructType {
	if g.tdType == nil {
		g.tdType = types.NewStruct(types.NewPointer(types.I8Ptr), types.I32)
		g.mod.NewTypeDef("typedesc", g.tdType)
	}

	return g.tdType
}

// extensionLevel returns the number of bases of a record.
func extensionLevel(rt *typing.RecordType) int {
	level := 0
	for r := rt.Base; r != nil; r = r.Base {
		level++
	}

	return level
}

// definesRecord returns whether the type descriptor of a record is defined
// by the module being generated.
func (g *Generator) definesRecord(rt *typing.RecordType) bool {
	return g.localRecords[rt] || strings.HasPrefix(g.recordName(rt), g.module.Name()+"_")
}

// typeDesc returns the type descriptor global of a record.  The address of the
// descriptor identifies the record type at runtime.  Descriptors of records
// declared at module level are visible to importing modules.
func (g *Generator) typeDesc(rt *typing.RecordType) *ir.Global {
	name := g.recordName(rt)
	if td, ok := g.typeDescs[name]; ok {
		return td
	}

	tdType := g.typeDescType()
	td := g.mod.NewGlobal(name+".td", tdType)
	td.Immutable = true
	td.Align = tagSize
	g.typeDescs[name] = td

	if !g.definesRecord(rt) {
		td.Linkage = enum.LinkageExternal
		return td
	}

	if g.localRecords[rt] {
		td.Linkage = enum.LinkageInternal
	}

	chain := make([]constant.Constant, extensionLevel(rt)+1)
	for r, i := rt, len(chain)-1; r != nil; r, i = r.Base, i-1 {
		chain[i] = constant.NewBitCast(g.typeDesc(r), types.I8Ptr)
	}

	idsType := types.NewArray(uint64(len(chain)), types.I8Ptr)
	ids := g.mod.NewGlobalDef(name+".ids", constant.NewArray(idsType, chain...))
	ids.Linkage = enum.LinkagePrivate
	ids.Immutable = true

	zero := constant.NewInt(types.I64, 0)
	td.Init = constant.NewStruct(tdType,
		constant.NewGetElementPtr(idsType, ids, zero, zero),
		constant.NewInt(types.I32, int64(len(chain)-1)),
	)

	return td
}

// typeDescPtr returns the type descriptor of a record as an `i8*`.
func (g *Generator) typeDescPtr(rt *typing.RecordType) constant.Constant {
	return constant.NewBitCast(g.typeDesc(rt), types.I8Ptr)
}

// genTypeDescs defines the type descriptors of the records declared at module
// level so that importing modules can allocate and test them.
func (g *Generator) genTypeDescs(decls []*ast.TypeDecl) {
	for _, td := range decls {
		if rt, _ := declaredRecord(td); rt != nil {
			g.typeDesc(rt)
		}
	}
}

// -----------------------------------------------------------------------------

// tagAddr returns the address of the type descriptor stored in the header of
// a record allocated by NEW.
func (g *Generator) tagAddr(ptr value.Value) value.Value {
	slot := g.block.NewBitCast(ptr, types.NewPointer(types.I8Ptr))
	return g.block.NewGetElementPtr(types.I8Ptr, slot, constant.NewInt(types.I64, -1))
}

// typeDescOf returns the type descriptor of the dynamic type of a record
// location.  Records on the heap carry their descriptor in their header and
// variable parameters receive it from the caller.  All other records have
// their static type.
func (g *Generator) typeDescOf(acc *access) value.Value {
	switch {
	case acc.td != nil:
		return acc.td
	case acc.heap:
		return g.block.NewLoad(types.I8Ptr, g.tagAddr(acc.ptr))
	}

	rt, ok := acc.typ.(*typing.RecordType)
	if !ok {
		g.fail("type %s has no type descriptor", typing.Format(acc.typ))
	}

	return g.typeDescPtr(rt)
}

// typeSubject is a value whose dynamic type is tested: either a pointer or the
// type descriptor of a variable record parameter.
type typeSubject struct {
	ptr value.Value
	td  value.Value

	// typ is the static type of the value.
	typ typing.Type
}

// subjectOf returns the subject of a type test applied to an access.
func (g *Generator) subjectOf(acc *access) *typeSubject {
	if typing.IsPointer(acc.typ) {
		return &typeSubject{ptr: g.loadPtr(acc), typ: acc.typ}
	}

	return &typeSubject{td: g.typeDescOf(acc), typ: acc.typ}
}

// genTypeSubject evaluates the tested value of a type test or a type case.
func (g *Generator) genTypeSubject(expr ast.Expr) *typeSubject {
	d, ok := expr.(*ast.Designator)
	if !ok {
		g.fail("type test at %s is not applied to a designator", expr.Pos())
	}

	g.setRefMode(false)
	defer g.restoreRefMode()

	return g.subjectOf(g.genAccess(d))
}

// genSubjectTest tests whether a subject has the type `target` or one of its
// extensions.  NIL pointers have no type.  A subject whose static type
// already extends the target only needs the NIL test.
func (g *Generator) genSubjectTest(subj *typeSubject, target typing.Type) value.Value {
	rt := typing.RecordOf(target)
	if rt == nil {
		g.fail("type %s cannot be tested", typing.Format(target))
	}

	if !typing.IsPointer(subj.typ) {
		if typing.Extends(subj.typ, target) {
			return constant.True
		}

		return g.genTypeTest(subj.td, rt)
	}

	startBlock := g.block
	testBlock := g.appendBlock()
	endBlock := g.appendBlock()

	isNil := g.block.NewICmp(enum.IPredEQ, subj.ptr, constant.NewNull(subj.ptr.Type().(*types.PointerType)))
	g.block.NewCondBr(isNil, endBlock, testBlock)

	g.block = testBlock
	var result value.Value = constant.True
	if !typing.Extends(subj.typ, target) {
		result = g.genTypeTest(g.block.NewLoad(types.I8Ptr, g.tagAddr(subj.ptr)), rt)
	}

	testEnd := g.block
	testEnd.NewBr(endBlock)

	g.block = endBlock
	return g.block.NewPhi(ir.NewIncoming(constant.False, startBlock), ir.NewIncoming(result, testEnd))
}

// genTypeTest tests whether the type described by `td` is `target` or one of
// its extensions: the descriptor of `target` must appear in the chain of `td`
// at the extension level of `target`.
func (g *Generator) genTypeTest(td value.Value, target *typing.RecordType) value.Value {
	tdType := g.typeDescType()
	level := int64(extensionLevel(target))

	desc := g.block.NewBitCast(td, types.NewPointer(tdType))
	depth := g.block.NewLoad(types.I32, g.block.NewGetElementPtr(tdType, desc,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1)))
	deep := g.block.NewICmp(enum.IPredSGE, depth, constant.NewInt(types.I32, level))

	startBlock := g.block
	testBlock := g.appendBlock()
	endBlock := g.appendBlock()
	g.block.NewCondBr(deep, testBlock, endBlock)

	g.block = testBlock
	ids := g.block.NewLoad(types.NewPointer(types.I8Ptr), g.block.NewGetElementPtr(tdType, desc,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0)))
	id := g.block.NewLoad(types.I8Ptr, g.block.NewGetElementPtr(types.I8Ptr, ids, constant.NewInt(types.I64, level)))
	match := g.block.NewICmp(enum.IPredEQ, id, g.typeDescPtr(target))
	g.block.NewBr(endBlock)

	g.block = endBlock
	return g.block.NewPhi(ir.NewIncoming(constant.False, startBlock), ir.NewIncoming(match, testBlock))
}
