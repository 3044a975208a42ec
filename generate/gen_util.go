package generate

import (
	"fmt"

	"oberonc/depm"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Trap codes passed to `llvm.ubsantrap`.
const (
	trapBounds = 1
	trapNil    = 2
	trapDiv    = 3
	trapAssert = 4
	trapGuard  = 5
)

// runtimeSigs are the signatures of the runtime functions and intrinsics the
// generated code may call.
var runtimeSigs = map[string]*types.FuncType{
	"llvm.ubsantrap":            types.NewFunc(types.Void, types.I8),
	"malloc":                    types.NewFunc(types.I8Ptr, types.I64),
	"free":                      types.NewFunc(types.Void, types.I8Ptr),
	"exit":                      types.NewFunc(types.Void, types.I32),
	"strcmp":                    types.NewFunc(types.I32, types.I8Ptr, types.I8Ptr),
	"strncpy":                   types.NewFunc(types.I8Ptr, types.I8Ptr, types.I8Ptr, types.I64),
	"llvm.memcpy.p0i8.p0i8.i64": types.NewFunc(types.Void, types.I8Ptr, types.I8Ptr, types.I64, types.I1),
	"llvm.floor.f32":            types.NewFunc(types.Float, types.Float),
	"llvm.floor.f64":            types.NewFunc(types.Double, types.Double),
	"llvm.fshr.i8":              types.NewFunc(types.I8, types.I8, types.I8, types.I8),
	"llvm.fshr.i16":             types.NewFunc(types.I16, types.I16, types.I16, types.I16),
	"llvm.fshr.i32":             types.NewFunc(types.I32, types.I32, types.I32, types.I32),
	"llvm.fshr.i64":             types.NewFunc(types.I64, types.I64, types.I64, types.I64),
}

// runtimeFunc returns the declaration of a runtime function, declaring it on
// first use.
func (g *Generator) runtimeFunc(name string) *ir.Func {
	if fn, ok := g.runtime[name]; ok {
		return fn
	}

	sig, ok := runtimeSigs[name]
	if !ok {
		g.fail("unknown runtime function: %s", name)
	}

	var params []*ir.Param
	for _, pt := range sig.Params {
		params = append(params, ir.NewParam("", pt))
	}

	fn := g.mod.NewFunc(name, sig.RetType, params...)
	if name == "llvm.ubsantrap" || name == "exit" {
		fn.FuncAttrs = append(fn.FuncAttrs, enum.FuncAttrNoReturn)
	}

	g.runtime[name] = fn
	return fn
}

// callRuntime calls a runtime function in the current block.
func (g *Generator) callRuntime(name string, args ...value.Value) *ir.InstCall {
	return g.block.NewCall(g.runtimeFunc(name), args...)
}

// -----------------------------------------------------------------------------

// sanitize returns whether a runtime check is enabled.
func (g *Generator) sanitize(check string) bool {
	return g.cfg.Sanitize[check]
}

// genTrap branches to a block calling `llvm.ubsantrap` if `fails` is true and
// continues in a new block otherwise.
func (g *Generator) genTrap(fails value.Value, code int64) {
	trapBlock := g.appendBlock()
	contBlock := g.appendBlock()

	g.block.NewCondBr(fails, trapBlock, contBlock)

	trapBlock.NewCall(g.runtimeFunc("llvm.ubsantrap"), constant.NewInt(types.I8, code))
	trapBlock.NewUnreachable()

	g.block = contBlock
}

// genBoundsCheck traps if an index is not in `[0, length)`.  The comparison is
// unsigned so that negative indices fail as well.
func (g *Generator) genBoundsCheck(index, length value.Value) {
	if !g.sanitize(depm.SanitizeBounds) {
		return
	}

	g.genTrap(g.block.NewICmp(enum.IPredUGE, index, length), trapBounds)
}

// genNilCheck traps if a pointer is NIL.
func (g *Generator) genNilCheck(ptr value.Value) {
	if !g.sanitize(depm.SanitizeNil) {
		return
	}

	g.genTrap(g.block.NewICmp(enum.IPredEQ, ptr, constant.NewNull(ptr.Type().(*types.PointerType))), trapNil)
}

// genDivCheck traps if a divisor is zero.
func (g *Generator) genDivCheck(divisor value.Value) {
	if !g.sanitize(depm.SanitizeDiv) {
		return
	}

	g.genTrap(g.block.NewICmp(enum.IPredEQ, divisor, constant.NewInt(divisor.Type().(*types.IntType), 0)), trapDiv)
}

// -----------------------------------------------------------------------------

// stringGlobal returns the interned global holding a null-terminated string.
func (g *Generator) stringGlobal(s string) *ir.Global {
	if glob, ok := g.strings[s]; ok {
		return glob
	}

	init := constant.NewCharArrayFromString(s + "\x00")
	glob := g.mod.NewGlobalDef(fmt.Sprintf("str.%d", len(g.strings)), init)
	glob.Linkage = enum.LinkagePrivate
	glob.UnnamedAddr = enum.UnnamedAddrUnnamedAddr
	glob.Immutable = true
	glob.Align = 1

	g.strings[s] = glob
	return glob
}

// stringPtr returns a pointer to the first character of an interned string.
func (g *Generator) stringPtr(s string) constant.Constant {
	glob := g.stringGlobal(s)
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(glob.ContentType, glob, zero, zero)
}

// toI8Ptr converts a pointer to an `i8*`.
func (g *Generator) toI8Ptr(ptr value.Value) value.Value {
	if ptr.Type().Equal(types.I8Ptr) {
		return ptr
	}

	return g.block.NewBitCast(ptr, types.I8Ptr)
}

// toI64 converts an integer value to an `i64` keeping its sign.
func (g *Generator) toI64(v value.Value) value.Value {
	it, ok := v.Type().(*types.IntType)
	if !ok {
		g.fail("value of type %s is not an integer", v.Type().LLString())
	}

	if it.BitSize == 64 {
		return v
	} else if it.BitSize == 8 {
		return g.block.NewZExt(v, types.I64)
	}

	return g.block.NewSExt(v, types.I64)
}

// toIntType converts an integer value to an integer type of another width,
// keeping its sign.
func (g *Generator) toIntType(v value.Value, to *types.IntType) value.Value {
	from, ok := v.Type().(*types.IntType)
	if !ok {
		g.fail("value of type %s is not an integer", v.Type().LLString())
	}

	switch {
	case from.BitSize == to.BitSize:
		return v
	case from.BitSize > to.BitSize:
		return g.block.NewTrunc(v, to)
	case from.BitSize == 8:
		return g.block.NewZExt(v, to)
	}

	return g.block.NewSExt(v, to)
}

// memcpy copies `n` bytes between two pointers.
func (g *Generator) memcpy(dst, src, n value.Value) {
	g.callRuntime("llvm.memcpy.p0i8.p0i8.i64", g.toI8Ptr(dst), g.toI8Ptr(src), n, constant.False)
}
