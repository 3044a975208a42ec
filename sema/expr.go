package sema

import (
	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

func (s *Sema) OnInteger(pos *report.TextPosition, value int64) *ast.IntegerLit {
	return &ast.IntegerLit{ExprBase: ast.NewExprBase(pos, s.ctx.IntType(value)), Value: value}
}

// OnReal creates a real literal.  Literals written with a `D` exponent are
// LONGREAL.
func (s *Sema) OnReal(pos *report.TextPosition, value float64, long bool) *ast.RealLit {
	typ := s.ctx.Real
	if long {
		typ = s.ctx.LongReal
	}

	return &ast.RealLit{ExprBase: ast.NewExprBase(pos, typ), Value: value}
}

func (s *Sema) OnBoolean(pos *report.TextPosition, value bool) *ast.BooleanLit {
	return &ast.BooleanLit{ExprBase: ast.NewExprBase(pos, s.ctx.Boolean), Value: value}
}

func (s *Sema) OnChar(pos *report.TextPosition, value byte) *ast.CharLit {
	return &ast.CharLit{ExprBase: ast.NewExprBase(pos, s.ctx.Char), Value: value}
}

// OnString creates a string literal.  Strings of length one are characters.
func (s *Sema) OnString(pos *report.TextPosition, value string) ast.Expr {
	if len(value) == 1 {
		return s.OnChar(pos, value[0])
	}

	return &ast.StringLit{ExprBase: ast.NewExprBase(pos, s.ctx.String), Value: value}
}

func (s *Sema) OnNil(pos *report.TextPosition) *ast.NilLit {
	return &ast.NilLit{ExprBase: ast.NewExprBase(pos, s.ctx.NilType)}
}

// -----------------------------------------------------------------------------

// OnUnaryExpression checks a unary expression and folds it if its operand is
// a literal.
func (s *Sema) OnUnaryExpression(pos *report.TextPosition, op ast.Operator, operand ast.Expr) ast.Expr {
	typ := operand.Type()
	expr := &ast.UnaryExpr{ExprBase: ast.NewExprBase(pos, typ), Op: op, Operand: operand}

	if typ == s.ctx.NoType {
		return expr
	}

	switch op {
	case ast.OpNot:
		if !typing.IsBoolean(typ) {
			s.error(pos, "operator %s requires a boolean argument.", op)
			expr.SetType(s.ctx.NoType)
			return expr
		}
	case ast.OpMinus:
		if !typing.IsNumeric(typ) && !typing.IsSet(typ) {
			s.error(pos, "operator %s requires a numeric or set argument.", op)
			expr.SetType(s.ctx.NoType)
			return expr
		}
	case ast.OpPlus:
		if !typing.IsNumeric(typ) {
			s.error(pos, "operator %s requires a numeric argument.", op)
			expr.SetType(s.ctx.NoType)
			return expr
		}
	}

	if operand.IsLiteral() {
		if lit := s.foldUnary(pos, op, operand); lit != nil {
			return lit
		}
	}

	return expr
}

// OnBinaryExpression checks a binary expression, casts its operands to their
// common type and folds it if both operands are literals.
func (s *Sema) OnBinaryExpression(pos *report.TextPosition, op ast.Operator, lhs, rhs ast.Expr) ast.Expr {
	expr := &ast.BinaryExpr{ExprBase: ast.NewExprBase(pos, s.ctx.NoType), Op: op, Lhs: lhs, Rhs: rhs}

	lt, rt := lhs.Type(), rhs.Type()
	if lt == s.ctx.NoType || rt == s.ctx.NoType {
		return expr
	}

	switch op {
	case ast.OpIs:
		s.onTypeTest(expr)
		return expr
	case ast.OpIn:
		if !typing.IsInteger(lt) || !typing.IsSet(rt) {
			s.error(pos, "operator IN requires an integer and a set argument.")
			return expr
		}

		expr.SetType(s.ctx.Boolean)
	case ast.OpAnd, ast.OpOr:
		if !typing.IsBoolean(lt) || !typing.IsBoolean(rt) {
			s.error(pos, "operator %s requires boolean arguments.", op)
			return expr
		}

		expr.SetType(s.ctx.Boolean)
	default:
		common := s.commonType(lhs, rhs)
		if common == nil {
			s.error(pos, "type mismatch: incompatible operand types %s and %s.", typing.Format(lt), typing.Format(rt))
			return expr
		}

		if !s.checkOperands(pos, op, common, lhs, rhs) {
			return expr
		}

		if op == ast.OpDivide && typing.IsInteger(common) {
			if common.Size() > s.ctx.Integer.Size() {
				common = s.ctx.LongReal
			} else {
				common = s.ctx.Real
			}
		}

		if !isTextual(common) {
			expr.Lhs = s.promote(common, lhs)
			expr.Rhs = s.promote(common, rhs)
		}

		if op.IsRelation() {
			expr.SetType(s.ctx.Boolean)
		} else {
			expr.SetType(common)
		}
	}

	if expr.Lhs.IsLiteral() && expr.Rhs.IsLiteral() {
		if lit := s.foldBinary(pos, op, expr.Lhs, expr.Rhs, expr.Type()); lit != nil {
			return lit
		}
	}

	return expr
}

// onTypeTest checks a type test `v IS T`.  The tested value is a pointer or a
// variable parameter of record type and `T` must be an extension of its type.
func (s *Sema) onTypeTest(expr *ast.BinaryExpr) {
	target, ok := expr.Rhs.(*ast.Designator)
	if !ok || !target.IsTypeRef() {
		s.error(expr.Rhs.Pos(), "type expected.")
		return
	}

	lt, tt := expr.Lhs.Type(), target.Decl.Type()
	if !s.isTypeTestSubject(expr.Lhs) {
		s.error(expr.Lhs.Pos(), "type mismatch: a type test can only be applied to a variable parameter of record type or a pointer.")
		return
	}

	if !typing.Extends(tt, lt) {
		s.error(expr.Pos(), "type mismatch: %s is not an extension of %s.", typing.Format(tt), typing.Format(lt))
		return
	}

	expr.SetType(s.ctx.Boolean)
}

// isTypeTestSubject returns whether the dynamic type of an expression can be
// tested: it is a pointer or a whole variable parameter of record type.
func (s *Sema) isTypeTestSubject(expr ast.Expr) bool {
	d, ok := expr.(*ast.Designator)
	if !ok {
		return false
	}

	if typing.IsPointer(d.Type()) {
		return true
	}

	if !typing.IsRecord(d.Type()) || !isWholeVariable(d) {
		return false
	}

	param, ok := d.Decl.(*ast.ParamDecl)
	return ok && param.Var
}

// commonType returns the type both operands of a binary operator are
// converted to.  An integer literal adopts the type of the other operand if
// its value fits.  Character arrays are compared as strings.
func (s *Sema) commonType(lhs, rhs ast.Expr) typing.Type {
	lt, rt := lhs.Type(), rhs.Type()

	if isTextual(lt) && isTextual(rt) {
		if typing.IsChar(lt) && typing.IsChar(rt) {
			return lt
		}

		return s.ctx.String
	}

	if lit, ok := lhs.(*ast.IntegerLit); ok && !rhs.IsLiteral() && typing.IsInteger(rt) && typing.Fits(rt, lit.Value) {
		return rt
	}

	if lit, ok := rhs.(*ast.IntegerLit); ok && !lhs.IsLiteral() && typing.IsInteger(lt) && typing.Fits(lt, lit.Value) {
		return lt
	}

	return typing.CommonType(lt, rt)
}

// isTextual returns whether values of a type take part in string comparisons.
func isTextual(t typing.Type) bool {
	return typing.IsChar(t) || typing.IsString(t) || typing.IsCharArray(t)
}

// checkOperands checks that an operator applies to operands of the common
// type.
func (s *Sema) checkOperands(pos *report.TextPosition, op ast.Operator, common typing.Type, lhs, rhs ast.Expr) bool {
	ok := true

	switch op {
	case ast.OpEq, ast.OpNeq:
		switch {
		case typing.IsNumeric(common), isTextual(common), typing.IsBoolean(common), typing.IsSet(common):
		case typing.IsPointer(common), typing.IsProcedure(common), common.Kind() == typing.KindNilType:
		default:
			s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(common))
			ok = false
		}
	case ast.OpLt, ast.OpGt:
		if !typing.IsNumeric(common) && !isTextual(common) {
			s.error(pos, "operator %s requires numeric or character arguments.", op)
			ok = false
		}
	case ast.OpLeq, ast.OpGeq:
		if !typing.IsNumeric(common) && !isTextual(common) && !typing.IsSet(common) {
			s.error(pos, "operator %s requires numeric, character or set arguments.", op)
			ok = false
		}
	case ast.OpPlus:
		if isTextual(common) {
			if !lhs.IsLiteral() || !rhs.IsLiteral() {
				s.error(pos, "string concatenation requires constant arguments.")
				ok = false
			}
		} else if !typing.IsNumeric(common) && !typing.IsSet(common) {
			s.error(pos, "arithmetic operation requires numeric or set arguments.")
			ok = false
		}
	case ast.OpMinus, ast.OpTimes, ast.OpDivide:
		if !typing.IsNumeric(common) && !typing.IsSet(common) {
			s.error(pos, "arithmetic operation requires numeric or set arguments.")
			ok = false
		}
	case ast.OpDiv, ast.OpMod:
		if !typing.IsInteger(common) {
			s.error(pos, "integer division requires integer arguments.")
			ok = false
		}
	}

	return ok
}

// promote converts an operand of a binary expression to the common type.
func (s *Sema) promote(common typing.Type, operand ast.Expr) ast.Expr {
	if operand.IsLiteral() {
		if lit := s.castLiteral(operand.Pos(), common, operand); lit != nil {
			return lit
		}
	}

	s.cast(common, operand)
	return operand
}

// -----------------------------------------------------------------------------

// OnRangeExpr checks an element range of a set constructor or a case label.
func (s *Sema) OnRangeExpr(pos *report.TextPosition, low, high ast.Expr) ast.Expr {
	expr := &ast.RangeExpr{ExprBase: ast.NewExprBase(pos, s.ctx.NoType), Low: low, High: high}

	lt, ht := low.Type(), high.Type()
	if lt == s.ctx.NoType || ht == s.ctx.NoType {
		return expr
	}

	switch {
	case typing.IsInteger(lt) && typing.IsInteger(ht):
		expr.SetType(typing.CommonType(lt, ht))
	case typing.IsChar(lt) && typing.IsChar(ht):
		expr.SetType(s.ctx.Char)
	default:
		s.error(pos, "range expression requires integer or character values.")
		return expr
	}

	if lo, hi, ok := rangeBounds(expr); ok && hi < lo {
		s.error(pos, "upper bound must be greater than lower bound.")
	}

	return expr
}

// rangeBounds returns the bounds of a range with literal bounds.
func rangeBounds(expr *ast.RangeExpr) (int64, int64, bool) {
	lo, ok := ordinal(expr.Low)
	if !ok {
		return 0, 0, false
	}

	hi, ok := ordinal(expr.High)
	return lo, hi, ok
}

// ordinal returns the ordinal value of an integer or character literal.
func ordinal(expr ast.Expr) (int64, bool) {
	switch v := expr.(type) {
	case *ast.IntegerLit:
		return v.Value, true
	case *ast.CharLit:
		return int64(v.Value), true
	}

	return 0, false
}

// OnSetExpr checks a set constructor.  Sets made of literals are folded into
// set literals.
func (s *Sema) OnSetExpr(pos *report.TextPosition, elements []ast.Expr) ast.Expr {
	expr := &ast.SetExpr{ExprBase: ast.NewExprBase(pos, s.ctx.Set), Elements: elements}

	var value uint32
	constant := true
	prev := int64(-1)

	for _, elem := range elements {
		if elem.Type() == s.ctx.NoType {
			constant = false
			continue
		}

		lo, hi, ok := int64(0), int64(0), false
		if re, isRange := elem.(*ast.RangeExpr); isRange {
			if !typing.IsInteger(re.Type()) {
				s.error(elem.Pos(), "set elements must be integers.")
				constant = false
				continue
			}

			lo, hi, ok = rangeBounds(re)
		} else {
			if !typing.IsInteger(elem.Type()) {
				s.error(elem.Pos(), "set elements must be integers.")
				constant = false
				continue
			}

			lo, ok = ordinal(elem)
			hi = lo
		}

		if !ok {
			constant = false
			continue
		}

		if lo < 0 || hi > 31 {
			s.error(elem.Pos(), "set element out of range [0..31].")
			constant = false
			continue
		}

		if lo <= prev {
			s.warn(elem.Pos(), "element must be larger than previous element.")
		}
		prev = hi

		for i := lo; i <= hi; i++ {
			value |= 1 << uint(i)
		}
	}

	if constant {
		return &ast.SetLit{ExprBase: ast.NewExprBase(pos, s.ctx.Set), Value: value}
	}

	return expr
}
