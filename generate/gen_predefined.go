package generate

import (
	"fmt"

	"oberonc/ast"
	"oberonc/typing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genPredefined generates a call to a predefined procedure inline.  Proper
// procedures return nil.
func (g *Generator) genPredefined(pp *ast.PredefinedProc, call *ast.ActualParameters) value.Value {
	args := call.Args
	sig := call.Signature

	switch pp.ProcKind {
	case ast.ProcNEW:
		g.genNew(args[0])
	case ast.ProcDISPOSE:
		g.genDispose(args[0])
	case ast.ProcINC, ast.ProcDEC:
		g.genIncDec(pp.ProcKind == ast.ProcINC, args)
	case ast.ProcINCL, ast.ProcEXCL:
		ptr := g.genAddr(args[0])
		set := g.block.NewLoad(types.I32, ptr)
		bit := g.block.NewShl(constant.NewInt(types.I32, 1), g.toIntType(g.genExpr(args[1]), types.I32))

		if pp.ProcKind == ast.ProcINCL {
			g.block.NewStore(g.block.NewOr(set, bit), ptr)
		} else {
			g.block.NewStore(g.block.NewAnd(set, g.block.NewXor(bit, constant.NewInt(types.I32, -1))), ptr)
		}
	case ast.ProcABS:
		return g.genAbs(g.genExpr(args[0]), sig.Return)
	case ast.ProcODD:
		x := g.genExpr(args[0])
		it := x.Type().(*types.IntType)
		return g.block.NewICmp(enum.IPredNE, g.block.NewAnd(x, constant.NewInt(it, 1)), constant.NewInt(it, 0))
	case ast.ProcORD:
		x := g.genExpr(args[0])
		if typing.IsSet(sig.Params[0].Type) {
			return x
		}

		return g.block.NewZExt(x, types.I32)
	case ast.ProcCHR:
		return g.toIntType(g.genExpr(args[0]), types.I8)
	case ast.ProcCAP:
		c := g.genExpr(args[0])

		// `c - 'a'` is below 26 exactly for lower case letters
		offset := g.block.NewSub(c, constant.NewInt(types.I8, 'a'))
		isLower := g.block.NewICmp(enum.IPredULT, offset, constant.NewInt(types.I8, 26))
		return g.block.NewSelect(isLower, g.block.NewSub(c, constant.NewInt(types.I8, 'a'-'A')), c)
	case ast.ProcFLT:
		return g.genCast(g.genExpr(args[0]), sig.Params[0].Type, sig.Return)
	case ast.ProcFLOOR, ast.ProcENTIER:
		x := g.genExpr(args[0])

		floor := "llvm.floor.f64"
		if sig.Params[0].Type.Kind() == typing.KindReal {
			floor = "llvm.floor.f32"
		}

		return g.block.NewFPToSI(g.callRuntime(floor, x), g.convType(sig.Return))
	case ast.ProcLONG, ast.ProcSHORT:
		return g.genCast(g.genExpr(args[0]), sig.Params[0].Type, sig.Return)
	case ast.ProcLSL, ast.ProcASR, ast.ProcASH, ast.ProcROR:
		return g.genShift(pp.ProcKind, sig.Return, g.genExpr(args[0]), g.genExpr(args[1]))
	case ast.ProcLEN:
		return g.genLen(args)
	case ast.ProcHALT:
		g.callRuntime("exit", g.toIntType(g.genExpr(args[0]), types.I32))
		g.block.NewUnreachable()
	case ast.ProcASSERT:
		g.genTrap(g.block.NewXor(g.genExpr(args[0]), constant.True), trapAssert)
	case ast.ProcCOPY:
		g.genCopy(args[0], args[1])
	default:
		g.fail("call to %s must be constant", pp.Name())
	}

	return nil
}

// genNew allocates the target of a pointer variable.  The allocated record is
// zeroed.  Records are preceded by a header holding their type descriptor.
func (g *Generator) genNew(arg ast.Expr) {
	ptr := g.genAddr(arg)

	pt := arg.Type().(*typing.PointerType)
	llBase := g.convType(pt.Base)

	var mem value.Value
	if rt, ok := pt.Base.(*typing.RecordType); ok {
		raw := g.callRuntime("malloc", g.block.NewAdd(sizeOf(llBase), constant.NewInt(types.I64, tagSize)))
		mem = g.block.NewGetElementPtr(types.I8, raw, constant.NewInt(types.I64, tagSize))
		g.block.NewStore(g.typeDescPtr(rt), g.tagAddr(mem))
	} else {
		mem = g.callRuntime("malloc", sizeOf(llBase))
	}

	obj := g.block.NewBitCast(mem, g.convType(pt))
	g.block.NewStore(constant.NewZeroInitializer(llBase), obj)
	g.block.NewStore(obj, ptr)
}

// genDispose frees the target of a pointer variable and sets the variable to
// NIL.  Disposing NIL does nothing.
func (g *Generator) genDispose(arg ast.Expr) {
	ptr := g.genAddr(arg)

	pt := arg.Type().(*typing.PointerType)
	llPtr := g.convType(pt).(*types.PointerType)

	mem := g.toI8Ptr(g.block.NewLoad(llPtr, ptr))
	if _, ok := pt.Base.(*typing.RecordType); ok {
		isNil := g.block.NewICmp(enum.IPredEQ, mem, constant.NewNull(types.I8Ptr))
		raw := g.block.NewGetElementPtr(types.I8, mem, constant.NewInt(types.I64, -tagSize))
		mem = g.block.NewSelect(isNil, constant.NewNull(types.I8Ptr), raw)
	}

	g.callRuntime("free", mem)
	g.block.NewStore(constant.NewNull(llPtr), ptr)
}

// genIncDec generates INC and DEC with an optional increment.
func (g *Generator) genIncDec(inc bool, args []ast.Expr) {
	ptr := g.genAddr(args[0])
	it := g.intType(args[0].Type())

	var delta value.Value = constant.NewInt(it, 1)
	if len(args) > 1 {
		delta = g.toIntType(g.genExpr(args[1]), it)
	}

	old := g.block.NewLoad(it, ptr)
	if inc {
		g.block.NewStore(g.block.NewAdd(old, delta), ptr)
	} else {
		g.block.NewStore(g.block.NewSub(old, delta), ptr)
	}
}

func (g *Generator) genAbs(x value.Value, typ typing.Type) value.Value {
	if typing.IsReal(typ) {
		isNeg := g.block.NewFCmp(enum.FPredOLT, x, constant.NewFloat(x.Type().(*types.FloatType), 0))
		return g.block.NewSelect(isNeg, g.block.NewFNeg(x), x)
	}

	zero := constant.NewInt(x.Type().(*types.IntType), 0)
	isNeg := g.block.NewICmp(enum.IPredSLT, x, zero)
	return g.block.NewSelect(isNeg, g.block.NewSub(zero, x), x)
}

// genShift generates the shift and rotation procedures.  The shift count is
// converted to the width of the shifted value.  BYTE values are shifted right
// without sign extension.
func (g *Generator) genShift(kind ast.ProcKind, typ typing.Type, x, n value.Value) value.Value {
	it := x.Type().(*types.IntType)
	n = g.toIntType(n, it)

	shr := func(x, n value.Value) value.Value {
		if typ.Kind() == typing.KindByte {
			return g.block.NewLShr(x, n)
		}

		return g.block.NewAShr(x, n)
	}

	switch kind {
	case ast.ProcLSL:
		return g.block.NewShl(x, n)
	case ast.ProcASR:
		return shr(x, n)
	case ast.ProcROR:
		return g.callRuntime(fmt.Sprintf("llvm.fshr.i%d", it.BitSize), x, x, n)
	}

	// ASH shifts left for positive counts and right for negative counts
	zero := constant.NewInt(it, 0)
	isNeg := g.block.NewICmp(enum.IPredSLT, n, zero)
	left := g.block.NewShl(x, n)
	right := shr(x, g.block.NewSub(zero, n))
	return g.block.NewSelect(isNeg, right, left)
}

// genLen returns the length of a dimension of an array.  The dimension is
// always constant.
func (g *Generator) genLen(args []ast.Expr) value.Value {
	dim := int64(0)
	if len(args) > 1 {
		lit, ok := args[1].(*ast.IntegerLit)
		if !ok {
			g.fail("dimension of LEN must be constant")
		}

		dim = lit.Value
	}

	d, ok := args[0].(*ast.Designator)
	if !ok {
		g.fail("LEN requires an array variable")
	}

	g.setRefMode(false)
	acc := g.genAccess(d)
	g.restoreRefMode()

	if dim < 0 || dim >= int64(len(acc.lengths)) {
		g.fail("array dimension %d out of bounds", dim)
	}

	return acc.lengths[dim]
}

// genCopy copies a string into a character array.  The copy is truncated to
// the length of the target and always null-terminated.
func (g *Generator) genCopy(src, dst ast.Expr) {
	var srcPtr value.Value
	switch v := src.(type) {
	case *ast.StringLit:
		srcPtr = g.stringPtr(v.Value)
	case *ast.CharLit:
		srcPtr = g.stringPtr(string([]byte{v.Value}))
	default:
		srcPtr = g.toI8Ptr(g.genAddr(src))
	}

	d, ok := dst.(*ast.Designator)
	if !ok {
		g.fail("COPY requires a character array variable")
	}

	g.setRefMode(false)
	acc := g.genAccess(d)
	g.restoreRefMode()

	dstPtr := g.toI8Ptr(acc.ptr)
	last := g.block.NewSub(acc.lengths[0], constant.NewInt(types.I64, 1))

	g.callRuntime("strncpy", dstPtr, srcPtr, last)
	g.block.NewStore(constant.NewInt(types.I8, 0), g.block.NewGetElementPtr(types.I8, dstPtr, last))
}
