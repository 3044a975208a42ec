package generate

import (
	"oberonc/ast"
	"oberonc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpr generates an expression in value mode and applies its conversion.
// Designators of structured types yield their address.
func (g *Generator) genExpr(expr ast.Expr) value.Value {
	g.setRefMode(true)
	defer g.restoreRefMode()

	val := g.genRawExpr(expr)
	if cast := expr.Cast(); cast != nil {
		val = g.genCast(val, expr.Type(), cast)
	}

	return val
}

// genRawExpr generates an expression without applying its conversion.
func (g *Generator) genRawExpr(expr ast.Expr) value.Value {
	switch v := expr.(type) {
	case *ast.IntegerLit:
		return constant.NewInt(g.intType(v.Type()), v.Value)
	case *ast.RealLit:
		ft := g.convType(v.Type()).(*types.FloatType)
		if ft.Kind == types.FloatKindFloat {
			return constant.NewFloat(ft, float64(float32(v.Value)))
		}

		return constant.NewFloat(ft, v.Value)
	case *ast.BooleanLit:
		return constant.NewBool(v.Value)
	case *ast.CharLit:
		return constant.NewInt(types.I8, int64(v.Value))
	case *ast.StringLit:
		return g.stringPtr(v.Value)
	case *ast.SetLit:
		return constant.NewInt(types.I32, int64(int32(v.Value)))
	case *ast.NilLit:
		return constant.NewNull(g.convType(v.Type()).(*types.PointerType))
	case *ast.UnaryExpr:
		return g.genUnaryExpr(v)
	case *ast.BinaryExpr:
		return g.genBinaryExpr(v)
	case *ast.SetExpr:
		return g.genSetExpr(v)
	case *ast.Designator:
		return g.genDesignator(v)
	}

	g.fail("expression at %s cannot be generated", expr.Pos())
	return nil
}

// genCast converts a value of type `from` to type `to`.
func (g *Generator) genCast(val value.Value, from, to typing.Type) value.Value {
	if from == to || typing.Equal(from, to) {
		return val
	}

	switch {
	case typing.IsInteger(from) && typing.IsInteger(to):
		return g.toIntType(val, g.intType(to))
	case typing.IsInteger(from) && typing.IsReal(to):
		if from.Kind() == typing.KindByte {
			return g.block.NewUIToFP(val, g.convType(to))
		}

		return g.block.NewSIToFP(val, g.convType(to))
	case typing.IsReal(from) && typing.IsReal(to):
		if to.Size() > from.Size() {
			return g.block.NewFPExt(val, g.convType(to))
		} else if to.Size() < from.Size() {
			return g.block.NewFPTrunc(val, g.convType(to))
		}

		return val
	}

	llTo := g.convType(to)
	if val.Type().Equal(llTo) {
		return val
	}

	if c, ok := val.(constant.Constant); ok {
		return constant.NewBitCast(c, llTo)
	}

	return g.block.NewBitCast(val, llTo)
}

// -----------------------------------------------------------------------------

func (g *Generator) genUnaryExpr(expr *ast.UnaryExpr) value.Value {
	operand := g.genExpr(expr.Operand)
	typ := expr.Type()

	switch expr.Op {
	case ast.OpNot:
		return g.block.NewXor(operand, constant.True)
	case ast.OpMinus:
		switch {
		case typing.IsSet(typ):
			return g.block.NewXor(operand, constant.NewInt(types.I32, -1))
		case typing.IsReal(typ):
			return g.block.NewFNeg(operand)
		default:
			return g.block.NewSub(constant.NewInt(g.intType(typ), 0), operand)
		}
	}

	return operand
}

// genBinaryExpr generates a binary expression.  The operands have already
// been converted to their common type except for string comparisons.
func (g *Generator) genBinaryExpr(expr *ast.BinaryExpr) value.Value {
	switch expr.Op {
	case ast.OpAnd, ast.OpOr:
		return g.genShortCircuit(expr)
	case ast.OpIn:
		elem := g.toIntType(g.genExpr(expr.Lhs), types.I32)
		set := g.genExpr(expr.Rhs)

		bit := g.block.NewShl(constant.NewInt(types.I32, 1), elem)
		return g.block.NewICmp(enum.IPredNE, g.block.NewAnd(set, bit), constant.NewInt(types.I32, 0))
	case ast.OpIs:
		return g.genSubjectTest(g.genTypeSubject(expr.Lhs), expr.Rhs.(*ast.Designator).Decl.Type())
	}

	if expr.Op.IsRelation() {
		return g.genRelation(expr)
	}

	lhs, rhs := g.genExpr(expr.Lhs), g.genExpr(expr.Rhs)
	typ := expr.Type()

	switch {
	case typing.IsSet(typ):
		switch expr.Op {
		case ast.OpPlus:
			return g.block.NewOr(lhs, rhs)
		case ast.OpMinus:
			return g.block.NewAnd(lhs, g.block.NewXor(rhs, constant.NewInt(types.I32, -1)))
		case ast.OpTimes:
			return g.block.NewAnd(lhs, rhs)
		case ast.OpDivide:
			return g.block.NewXor(lhs, rhs)
		}
	case typing.IsReal(typ):
		switch expr.Op {
		case ast.OpPlus:
			return g.block.NewFAdd(lhs, rhs)
		case ast.OpMinus:
			return g.block.NewFSub(lhs, rhs)
		case ast.OpTimes:
			return g.block.NewFMul(lhs, rhs)
		case ast.OpDivide:
			return g.block.NewFDiv(lhs, rhs)
		}
	case typing.IsInteger(typ):
		switch expr.Op {
		case ast.OpPlus:
			return g.block.NewAdd(lhs, rhs)
		case ast.OpMinus:
			return g.block.NewSub(lhs, rhs)
		case ast.OpTimes:
			return g.block.NewMul(lhs, rhs)
		case ast.OpDiv, ast.OpMod:
			return g.genIntDivision(expr.Op, typ, lhs, rhs)
		}
	}

	g.fail("operator %s cannot be applied to %s", expr.Op, typing.Format(typ))
	return nil
}

// genShortCircuit generates `&` and `OR`: the right operand is only evaluated
// if the left operand does not decide the result.
func (g *Generator) genShortCircuit(expr *ast.BinaryExpr) value.Value {
	lhs := g.genExpr(expr.Lhs)
	startBlock := g.block

	evalBlock := g.appendBlock()
	skipBlock := g.appendBlock()

	var decided constant.Constant
	if expr.Op == ast.OpAnd {
		g.block.NewCondBr(lhs, evalBlock, skipBlock)
		decided = constant.False
	} else {
		g.block.NewCondBr(lhs, skipBlock, evalBlock)
		decided = constant.True
	}

	g.block = evalBlock
	rhs := g.genExpr(expr.Rhs)
	evalEnd := g.block
	evalEnd.NewBr(skipBlock)

	g.block = skipBlock
	return g.block.NewPhi(ir.NewIncoming(decided, startBlock), ir.NewIncoming(rhs, evalEnd))
}

// genIntDivision generates `DIV` and `MOD`.  The quotient is rounded towards
// negative infinity and the remainder has the sign of the divisor.
func (g *Generator) genIntDivision(op ast.Operator, typ typing.Type, lhs, rhs value.Value) value.Value {
	g.genDivCheck(rhs)

	if typ.Kind() == typing.KindByte {
		if op == ast.OpDiv {
			return g.block.NewUDiv(lhs, rhs)
		}

		return g.block.NewURem(lhs, rhs)
	}

	it := g.intType(typ)
	zero := constant.NewInt(it, 0)

	rem := g.block.NewSRem(lhs, rhs)
	signsDiffer := g.block.NewICmp(enum.IPredSLT, g.block.NewXor(rem, rhs), zero)
	adjust := g.block.NewAnd(g.block.NewICmp(enum.IPredNE, rem, zero), signsDiffer)

	if op == ast.OpDiv {
		quot := g.block.NewSDiv(lhs, rhs)
		return g.block.NewSub(quot, g.block.NewZExt(adjust, it))
	}

	return g.block.NewSelect(adjust, g.block.NewAdd(rem, rhs), rem)
}

// -----------------------------------------------------------------------------

var signedPreds = map[ast.Operator]enum.IPred{
	ast.OpEq:  enum.IPredEQ,
	ast.OpNeq: enum.IPredNE,
	ast.OpLt:  enum.IPredSLT,
	ast.OpLeq: enum.IPredSLE,
	ast.OpGt:  enum.IPredSGT,
	ast.OpGeq: enum.IPredSGE,
}

var unsignedPreds = map[ast.Operator]enum.IPred{
	ast.OpEq:  enum.IPredEQ,
	ast.OpNeq: enum.IPredNE,
	ast.OpLt:  enum.IPredULT,
	ast.OpLeq: enum.IPredULE,
	ast.OpGt:  enum.IPredUGT,
	ast.OpGeq: enum.IPredUGE,
}

var floatPreds = map[ast.Operator]enum.FPred{
	ast.OpEq:  enum.FPredOEQ,
	ast.OpNeq: enum.FPredUNE,
	ast.OpLt:  enum.FPredOLT,
	ast.OpLeq: enum.FPredOLE,
	ast.OpGt:  enum.FPredOGT,
	ast.OpGeq: enum.FPredOGE,
}

// genRelation generates a comparison.
func (g *Generator) genRelation(expr *ast.BinaryExpr) value.Value {
	lt, rt := ast.EffectiveType(expr.Lhs), ast.EffectiveType(expr.Rhs)

	if isTextual(lt) && isTextual(rt) {
		if typing.IsChar(lt) && typing.IsChar(rt) {
			return g.block.NewICmp(unsignedPreds[expr.Op], g.genExpr(expr.Lhs), g.genExpr(expr.Rhs))
		}

		lhs, rhs := g.genTextPtr(expr.Lhs), g.genTextPtr(expr.Rhs)
		cmp := g.callRuntime("strcmp", lhs, rhs)
		return g.block.NewICmp(signedPreds[expr.Op], cmp, constant.NewInt(types.I32, 0))
	}

	lhs, rhs := g.genExpr(expr.Lhs), g.genExpr(expr.Rhs)

	switch {
	case typing.IsReal(lt):
		return g.block.NewFCmp(floatPreds[expr.Op], lhs, rhs)
	case typing.IsSet(lt):
		switch expr.Op {
		case ast.OpLeq:
			return g.isSubset(lhs, rhs)
		case ast.OpGeq:
			return g.isSubset(rhs, lhs)
		}
	case typing.IsPointer(lt), typing.IsProcedure(lt), lt.Kind() == typing.KindNilType:
		if !lhs.Type().Equal(rhs.Type()) {
			rhs = g.block.NewBitCast(rhs, lhs.Type())
		}
	case lt.Kind() == typing.KindByte:
		return g.block.NewICmp(unsignedPreds[expr.Op], lhs, rhs)
	}

	return g.block.NewICmp(signedPreds[expr.Op], lhs, rhs)
}

// isSubset returns whether all the elements of `sub` are in `set`.
func (g *Generator) isSubset(sub, set value.Value) value.Value {
	outside := g.block.NewAnd(sub, g.block.NewXor(set, constant.NewInt(types.I32, -1)))
	return g.block.NewICmp(enum.IPredEQ, outside, constant.NewInt(types.I32, 0))
}

// isTextual returns whether values of a type are compared as strings.
func isTextual(t typing.Type) bool {
	return typing.IsChar(t) || typing.IsString(t) || typing.IsCharArray(t)
}

// genTextPtr returns a pointer to the null-terminated characters of a string,
// a character array or a character.
func (g *Generator) genTextPtr(expr ast.Expr) value.Value {
	switch v := expr.(type) {
	case *ast.StringLit:
		return g.stringPtr(v.Value)
	case *ast.CharLit:
		return g.stringPtr(string([]byte{v.Value}))
	}

	if typing.IsChar(expr.Type()) {
		buf := g.entry.NewAlloca(types.NewArray(2, types.I8))
		zero := constant.NewInt(types.I64, 0)

		g.block.NewStore(g.genExpr(expr), g.block.NewGetElementPtr(buf.ElemType, buf, zero, zero))
		g.block.NewStore(constant.NewInt(types.I8, 0), g.block.NewGetElementPtr(buf.ElemType, buf, zero, constant.NewInt(types.I64, 1)))

		return g.toI8Ptr(buf)
	}

	return g.toI8Ptr(g.genExpr(expr))
}

// -----------------------------------------------------------------------------

// genSetExpr generates a set constructor with non-constant elements.
func (g *Generator) genSetExpr(expr *ast.SetExpr) value.Value {
	allOnes := constant.NewInt(types.I32, -1)

	var set value.Value = constant.NewInt(types.I32, 0)
	for _, elem := range expr.Elements {
		var bits value.Value

		if re, ok := elem.(*ast.RangeExpr); ok {
			low := g.toIntType(g.genExpr(re.Low), types.I32)
			high := g.toIntType(g.genExpr(re.High), types.I32)

			above := g.block.NewShl(allOnes, low)
			below := g.block.NewLShr(allOnes, g.block.NewSub(constant.NewInt(types.I32, 31), high))
			bits = g.block.NewAnd(above, below)
		} else {
			bits = g.block.NewShl(constant.NewInt(types.I32, 1), g.toIntType(g.genExpr(elem), types.I32))
		}

		set = g.block.NewOr(set, bits)
	}

	return set
}
