package sema

import (
	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

// convert checks that a value can be used where a value of type `expected` is
// required and returns the value prepared for that use: literals are
// converted in place and other values are marked with a cast.
func (s *Sema) convert(pos *report.TextPosition, expected typing.Type, expr ast.Expr) ast.Expr {
	actual := expr.Type()
	if expected == nil || actual == nil || expected == s.ctx.NoType || actual == s.ctx.NoType {
		return expr
	}

	if expr.IsLiteral() {
		if lit := s.castLiteral(pos, expected, expr); lit != nil {
			return lit
		}
	} else if typing.IsChar(actual) && typing.IsCharArray(expected) {
		s.error(pos, "type mismatch: cannot assign a non-constant character value to a string variable.")
		return expr
	}

	if err := typing.CheckCompatible(expected, actual); err != nil {
		s.error(pos, err.Error())
		return expr
	}

	s.cast(expected, expr)
	return expr
}

// cast marks an expression to be converted to the expected type when its
// value is used.
func (s *Sema) cast(expected typing.Type, expr ast.Expr) {
	actual := expr.Type()
	if typing.IsVirtual(expected) || typing.Equal(expected, actual) {
		return
	}

	switch {
	case typing.IsNumeric(expected) && typing.IsNumeric(actual):
		expr.SetCast(expected)
	case typing.IsPointer(expected) && typing.IsPointer(actual):
		expr.SetCast(expected)
	case typing.IsPointer(expected) || typing.IsProcedure(expected):
		if actual.Kind() == typing.KindNilType {
			expr.SetCast(expected)
		}
	}
}

// castLiteral converts a literal to the expected type if the conversion is
// exact.  It returns nil if no conversion applies.
func (s *Sema) castLiteral(pos *report.TextPosition, expected typing.Type, expr ast.Expr) ast.Expr {
	base := ast.NewExprBase(expr.Pos(), expected)

	switch lit := expr.(type) {
	case *ast.IntegerLit:
		if typing.IsVirtual(expected) {
			return nil
		}

		if typing.IsInteger(expected) && lit.Type() != expected && typing.Fits(expected, lit.Value) {
			return &ast.IntegerLit{ExprBase: base, Value: lit.Value}
		}

		if typing.IsReal(expected) {
			return &ast.RealLit{ExprBase: base, Value: float64(lit.Value)}
		}
	case *ast.RealLit:
		if typing.IsReal(expected) && !typing.IsVirtual(expected) && lit.Type() != expected {
			return &ast.RealLit{ExprBase: base, Value: lit.Value}
		}
	case *ast.CharLit:
		if typing.IsCharArray(expected) || typing.IsString(expected) {
			return &ast.StringLit{ExprBase: ast.NewExprBase(expr.Pos(), s.ctx.String), Value: string([]byte{lit.Value})}
		}
	case *ast.StringLit:
		at, ok := expected.(*typing.ArrayType)
		if !ok || !typing.IsCharArray(at) || at.IsOpen() {
			return nil
		}

		if len(lit.Value) >= at.Lengths[0] {
			s.warn(pos, "string literal will be truncated to length of character array.")
			return &ast.StringLit{ExprBase: ast.NewExprBase(expr.Pos(), s.ctx.String), Value: lit.Value[:at.Lengths[0]-1]}
		}
	case *ast.NilLit:
		if typing.IsPointer(expected) || typing.IsProcedure(expected) {
			return &ast.NilLit{ExprBase: base}
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// isAssignable returns whether a designator denotes a storage location the
// compiled module can write to.
func (s *Sema) isAssignable(d *ast.Designator) bool {
	return s.assignError(d) == ""
}

// assertAssignable reports an error if a designator is not assignable.
func (s *Sema) assertAssignable(d *ast.Designator) bool {
	if d.Decl == nil {
		return false
	}

	if msg := s.assignError(d); msg != "" {
		s.error(d.Pos(), "cannot assign to %s.", msg)
		return false
	}

	return true
}

// assignError describes why a designator is not assignable.  It returns the
// empty string for assignable designators.
func (s *Sema) assignError(d *ast.Designator) string {
	if d.IsCall() {
		return "an expression"
	}

	switch decl := d.Decl.(type) {
	case nil:
		return "an undefined identifier"
	case *ast.ConstDecl:
		return "constant " + decl.Name()
	case *ast.VarDecl:
		if decl.Module() != s.module.Name() && !throughPointer(d) {
			return "external variable " + d.Ident.String()
		}
	case *ast.ParamDecl:
		if !decl.Var && typing.IsStructured(decl.Type()) && !throughPointer(d) {
			return "non-variable structured parameter " + decl.Name()
		}
	case *ast.ProcDecl, *ast.PredefinedProc:
		return "procedure " + d.Ident.String()
	case *ast.TypeDecl:
		return "type " + d.Ident.String()
	default:
		return d.Ident.String()
	}

	return ""
}

// throughPointer returns whether a designator accesses its location through a
// pointer dereference.
func throughPointer(d *ast.Designator) bool {
	for _, sel := range d.Selectors {
		if _, ok := sel.(*ast.Dereference); ok {
			return true
		}
	}

	return false
}
