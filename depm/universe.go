package depm

import (
	"oberonc/ast"
	"oberonc/typing"
)

// PopulateUniverse declares the predefined types and procedures in the
// universe scope of a symbol table.
func PopulateUniverse(st *SymbolTable, ctx *typing.Context) {
	for _, bt := range ctx.BasicTypes() {
		st.InsertGlobal(bt.Name(), ast.NewDecl(ast.DeclType, bt.Name(), false, "", bt))
	}

	for _, proc := range predefinedProcs(ctx) {
		st.InsertGlobal(proc.Name(), proc)
	}
}

// param creates a formal parameter of a predefined procedure signature.
func param(typ typing.Type, isVar bool) *typing.Param {
	return &typing.Param{Name: "_", Type: typ, Var: isVar}
}

func predefinedProcs(ctx *typing.Context) []*ast.PredefinedProc {
	sig := func(ret typing.Type, params ...*typing.Param) *typing.ProcedureType {
		return ctx.NewProcedure(params, ret, false)
	}

	varSig := func(ret typing.Type, params ...*typing.Param) *typing.ProcedureType {
		return ctx.NewProcedure(params, ret, true)
	}

	// conversions between the basic numeric types
	conv := func(pairs ...typing.Type) []*typing.ProcedureType {
		var sigs []*typing.ProcedureType
		for i := 0; i < len(pairs); i += 2 {
			sigs = append(sigs, sig(pairs[i+1], param(pairs[i], false)))
		}

		return sigs
	}

	anyPtr := ctx.PointerTo(ctx.AnyType)
	anyArr := ctx.ArrayOf([]int{0}, ctx.AnyType)
	charArr := ctx.ArrayOf([]int{0}, ctx.Char)

	// the shift procedures keep the width of the shifted value
	var shiftSigs []*typing.ProcedureType
	for _, it := range []typing.Type{ctx.Byte, ctx.ShortInt, ctx.Integer, ctx.LongInt} {
		shiftSigs = append(shiftSigs, sig(it, param(it, false), param(ctx.Entire, false)))
	}

	return []*ast.PredefinedProc{
		ast.NewPredefinedProc(ast.ProcNEW, "NEW", false, sig(nil, param(anyPtr, true))),
		ast.NewPredefinedProc(ast.ProcDISPOSE, "DISPOSE", false, sig(nil, param(anyPtr, true))),
		ast.NewPredefinedProc(ast.ProcINC, "INC", false, varSig(nil, param(ctx.Entire, true))),
		ast.NewPredefinedProc(ast.ProcDEC, "DEC", false, varSig(nil, param(ctx.Entire, true))),
		ast.NewPredefinedProc(ast.ProcINCL, "INCL", false, sig(nil, param(ctx.Set, true), param(ctx.Entire, false))),
		ast.NewPredefinedProc(ast.ProcEXCL, "EXCL", false, sig(nil, param(ctx.Set, true), param(ctx.Entire, false))),
		ast.NewPredefinedProc(ast.ProcABS, "ABS", false, conv(
			ctx.ShortInt, ctx.ShortInt,
			ctx.Integer, ctx.Integer,
			ctx.LongInt, ctx.LongInt,
			ctx.Real, ctx.Real,
			ctx.LongReal, ctx.LongReal,
		)...),
		ast.NewPredefinedProc(ast.ProcODD, "ODD", false, sig(ctx.Boolean, param(ctx.Entire, false))),
		ast.NewPredefinedProc(ast.ProcORD, "ORD", false, conv(
			ctx.Char, ctx.Integer,
			ctx.Boolean, ctx.Integer,
			ctx.Set, ctx.Integer,
		)...),
		ast.NewPredefinedProc(ast.ProcCHR, "CHR", false, sig(ctx.Char, param(ctx.Entire, false))),
		ast.NewPredefinedProc(ast.ProcCAP, "CAP", false, sig(ctx.Char, param(ctx.Char, false))),
		ast.NewPredefinedProc(ast.ProcFLT, "FLT", false, conv(
			ctx.ShortInt, ctx.Real,
			ctx.Integer, ctx.Real,
			ctx.LongInt, ctx.LongReal,
		)...),
		ast.NewPredefinedProc(ast.ProcFLOOR, "FLOOR", false, conv(
			ctx.Real, ctx.Integer,
			ctx.LongReal, ctx.LongInt,
		)...),
		ast.NewPredefinedProc(ast.ProcENTIER, "ENTIER", false, conv(
			ctx.Real, ctx.Integer,
			ctx.LongReal, ctx.LongInt,
		)...),
		ast.NewPredefinedProc(ast.ProcLONG, "LONG", false, conv(
			ctx.ShortInt, ctx.Integer,
			ctx.Integer, ctx.LongInt,
			ctx.Real, ctx.LongReal,
		)...),
		ast.NewPredefinedProc(ast.ProcSHORT, "SHORT", false, conv(
			ctx.Integer, ctx.ShortInt,
			ctx.LongInt, ctx.Integer,
			ctx.LongReal, ctx.Real,
		)...),
		ast.NewPredefinedProc(ast.ProcLSL, "LSL", false, shiftSigs...),
		ast.NewPredefinedProc(ast.ProcASR, "ASR", false, shiftSigs...),
		ast.NewPredefinedProc(ast.ProcASH, "ASH", false, shiftSigs...),
		ast.NewPredefinedProc(ast.ProcROR, "ROR", false, shiftSigs...),
		ast.NewPredefinedProc(ast.ProcCOPY, "COPY", false, sig(nil, param(charArr, false), param(charArr, true))),
		ast.NewPredefinedProc(ast.ProcLEN, "LEN", false, varSig(ctx.LongInt, param(anyArr, false))),
		ast.NewPredefinedProc(ast.ProcHALT, "HALT", false, sig(nil, param(ctx.Entire, false))),
		ast.NewPredefinedProc(ast.ProcASSERT, "ASSERT", false, sig(nil, param(ctx.Boolean, false))),
		ast.NewPredefinedProc(ast.ProcMAX, "MAX", true, sig(ctx.TypeT, param(ctx.TypeT, false))),
		ast.NewPredefinedProc(ast.ProcMIN, "MIN", true, sig(ctx.TypeT, param(ctx.TypeT, false))),
		ast.NewPredefinedProc(ast.ProcSIZE, "SIZE", false, sig(ctx.LongInt, param(ctx.TypeT, false))),
	}
}
