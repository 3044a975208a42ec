package sema

import (
	"math"
	"math/bits"

	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

func (s *Sema) intLit(pos *report.TextPosition, value int64, typ typing.Type) *ast.IntegerLit {
	if typ == nil || !typing.Fits(typ, value) {
		typ = s.ctx.IntType(value)
	}

	return &ast.IntegerLit{ExprBase: ast.NewExprBase(pos, typ), Value: value}
}

func (s *Sema) realLit(pos *report.TextPosition, value float64, typ typing.Type) *ast.RealLit {
	if typ == nil || !typing.IsReal(typ) || typing.IsVirtual(typ) {
		typ = s.ctx.Real
	}

	return &ast.RealLit{ExprBase: ast.NewExprBase(pos, typ), Value: value}
}

func (s *Sema) setLit(pos *report.TextPosition, value uint32) *ast.SetLit {
	return &ast.SetLit{ExprBase: ast.NewExprBase(pos, s.ctx.Set), Value: value}
}

// realValue returns the value of a numeric literal as a float.
func realValue(expr ast.Expr) (float64, bool) {
	switch v := expr.(type) {
	case *ast.RealLit:
		return v.Value, true
	case *ast.IntegerLit:
		return float64(v.Value), true
	}

	return 0, false
}

// textValue returns the value of a string or character literal as a string.
func textValue(expr ast.Expr) (string, bool) {
	switch v := expr.(type) {
	case *ast.StringLit:
		return v.Value, true
	case *ast.CharLit:
		return string([]byte{v.Value}), true
	}

	return "", false
}

// floorDiv returns the quotient of the floored division of `a` by `b`.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// floorMod returns the remainder of the floored division of `a` by `b`.  It has
// the sign of `b`.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}

	return m
}

// -----------------------------------------------------------------------------

// foldUnary evaluates a unary operator applied to a literal.  It returns nil if
// the operator cannot be folded.
func (s *Sema) foldUnary(pos *report.TextPosition, op ast.Operator, operand ast.Expr) ast.Expr {
	switch v := operand.(type) {
	case *ast.BooleanLit:
		if op == ast.OpNot {
			return s.OnBoolean(pos, !v.Value)
		}
	case *ast.IntegerLit:
		switch op {
		case ast.OpMinus:
			return s.intLit(pos, -v.Value, nil)
		case ast.OpPlus:
			return s.intLit(pos, v.Value, v.Type())
		}
	case *ast.RealLit:
		switch op {
		case ast.OpMinus:
			return s.realLit(pos, -v.Value, v.Type())
		case ast.OpPlus:
			return s.realLit(pos, v.Value, v.Type())
		}
	case *ast.SetLit:
		if op == ast.OpMinus {
			return s.setLit(pos, ^v.Value)
		}
	}

	s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(operand.Type()))
	return nil
}

// foldBinary evaluates a binary operator applied to two literals.  The
// operands have been converted to their common type.  It returns nil if the
// operator cannot be folded.
func (s *Sema) foldBinary(pos *report.TextPosition, op ast.Operator, lhs, rhs ast.Expr, result typing.Type) ast.Expr {
	if op == ast.OpIn {
		l, lok := lhs.(*ast.IntegerLit)
		r, rok := rhs.(*ast.SetLit)
		if lok && rok {
			return s.OnBoolean(pos, l.Value >= 0 && l.Value < 32 && r.Value&(1<<uint(l.Value)) != 0)
		}

		return nil
	}

	switch l := lhs.(type) {
	case *ast.BooleanLit:
		if r, ok := rhs.(*ast.BooleanLit); ok {
			return s.foldBoolean(pos, op, l.Value, r.Value)
		}
	case *ast.IntegerLit:
		if r, ok := rhs.(*ast.IntegerLit); ok {
			return s.foldInteger(pos, op, l.Value, r.Value, result)
		}

		if _, ok := rhs.(*ast.RealLit); ok {
			lv, _ := realValue(lhs)
			rv, _ := realValue(rhs)
			return s.foldReal(pos, op, lv, rv, result)
		}
	case *ast.RealLit:
		if rv, ok := realValue(rhs); ok {
			return s.foldReal(pos, op, l.Value, rv, result)
		}
	case *ast.CharLit:
		if r, ok := rhs.(*ast.CharLit); ok && op != ast.OpPlus {
			return s.foldInteger(pos, op, int64(l.Value), int64(r.Value), result)
		}

		if rv, ok := textValue(rhs); ok {
			return s.foldString(pos, op, string([]byte{l.Value}), rv)
		}
	case *ast.StringLit:
		if rv, ok := textValue(rhs); ok {
			return s.foldString(pos, op, l.Value, rv)
		}
	case *ast.SetLit:
		if r, ok := rhs.(*ast.SetLit); ok {
			return s.foldSet(pos, op, l.Value, r.Value)
		}
	case *ast.NilLit:
		if _, ok := rhs.(*ast.NilLit); ok {
			switch op {
			case ast.OpEq:
				return s.OnBoolean(pos, true)
			case ast.OpNeq:
				return s.OnBoolean(pos, false)
			}
		}
	}

	s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(lhs.Type()))
	return nil
}

func (s *Sema) foldBoolean(pos *report.TextPosition, op ast.Operator, l, r bool) ast.Expr {
	switch op {
	case ast.OpAnd:
		return s.OnBoolean(pos, l && r)
	case ast.OpOr:
		return s.OnBoolean(pos, l || r)
	case ast.OpEq:
		return s.OnBoolean(pos, l == r)
	case ast.OpNeq:
		return s.OnBoolean(pos, l != r)
	}

	s.error(pos, "operator %s cannot be applied to BOOLEAN values.", op)
	return nil
}

// foldInteger folds integer and character operands.  Arithmetic wraps around
// on 64 bits.
func (s *Sema) foldInteger(pos *report.TextPosition, op ast.Operator, l, r int64, result typing.Type) ast.Expr {
	switch op {
	case ast.OpEq:
		return s.OnBoolean(pos, l == r)
	case ast.OpNeq:
		return s.OnBoolean(pos, l != r)
	case ast.OpLt:
		return s.OnBoolean(pos, l < r)
	case ast.OpLeq:
		return s.OnBoolean(pos, l <= r)
	case ast.OpGt:
		return s.OnBoolean(pos, l > r)
	case ast.OpGeq:
		return s.OnBoolean(pos, l >= r)
	}

	if !typing.IsInteger(result) {
		s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(result))
		return nil
	}

	switch op {
	case ast.OpPlus:
		return s.intLit(pos, l+r, result)
	case ast.OpMinus:
		return s.intLit(pos, l-r, result)
	case ast.OpTimes:
		return s.intLit(pos, l*r, result)
	case ast.OpDiv, ast.OpMod:
		if r == 0 {
			s.error(pos, "division by zero.")
			return nil
		} else if r < 0 {
			s.error(pos, "divisor cannot be negative.")
			return nil
		}

		if op == ast.OpDiv {
			return s.intLit(pos, floorDiv(l, r), result)
		}

		return s.intLit(pos, floorMod(l, r), result)
	}

	s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(result))
	return nil
}

func (s *Sema) foldReal(pos *report.TextPosition, op ast.Operator, l, r float64, result typing.Type) ast.Expr {
	switch op {
	case ast.OpEq:
		return s.OnBoolean(pos, l == r)
	case ast.OpNeq:
		return s.OnBoolean(pos, l != r)
	case ast.OpLt:
		return s.OnBoolean(pos, l < r)
	case ast.OpLeq:
		return s.OnBoolean(pos, l <= r)
	case ast.OpGt:
		return s.OnBoolean(pos, l > r)
	case ast.OpGeq:
		return s.OnBoolean(pos, l >= r)
	case ast.OpPlus:
		return s.realLit(pos, l+r, result)
	case ast.OpMinus:
		return s.realLit(pos, l-r, result)
	case ast.OpTimes:
		return s.realLit(pos, l*r, result)
	case ast.OpDivide:
		if r == 0 {
			s.error(pos, "division by zero.")
			return nil
		}

		return s.realLit(pos, l/r, result)
	}

	s.error(pos, "operator %s cannot be applied to %s values.", op, typing.Format(result))
	return nil
}

func (s *Sema) foldString(pos *report.TextPosition, op ast.Operator, l, r string) ast.Expr {
	switch op {
	case ast.OpEq:
		return s.OnBoolean(pos, l == r)
	case ast.OpNeq:
		return s.OnBoolean(pos, l != r)
	case ast.OpLt:
		return s.OnBoolean(pos, l < r)
	case ast.OpLeq:
		return s.OnBoolean(pos, l <= r)
	case ast.OpGt:
		return s.OnBoolean(pos, l > r)
	case ast.OpGeq:
		return s.OnBoolean(pos, l >= r)
	case ast.OpPlus:
		return &ast.StringLit{ExprBase: ast.NewExprBase(pos, s.ctx.String), Value: l + r}
	}

	s.error(pos, "operator %s cannot be applied to STRING values.", op)
	return nil
}

func (s *Sema) foldSet(pos *report.TextPosition, op ast.Operator, l, r uint32) ast.Expr {
	switch op {
	case ast.OpEq:
		return s.OnBoolean(pos, l == r)
	case ast.OpNeq:
		return s.OnBoolean(pos, l != r)
	case ast.OpLeq:
		return s.OnBoolean(pos, l&^r == 0)
	case ast.OpGeq:
		return s.OnBoolean(pos, r&^l == 0)
	case ast.OpPlus:
		return s.setLit(pos, l|r)
	case ast.OpMinus:
		return s.setLit(pos, l&^r)
	case ast.OpTimes:
		return s.setLit(pos, l&r)
	case ast.OpDivide:
		return s.setLit(pos, l^r)
	}

	s.error(pos, "operator %s cannot be applied to SET values.", op)
	return nil
}

// -----------------------------------------------------------------------------

// foldPredefined evaluates a call to a predefined procedure whose arguments
// are constant.  It returns nil if the call cannot be evaluated at compile
// time.
func (s *Sema) foldPredefined(d *ast.Designator) ast.Expr {
	pp := d.Decl.(*ast.PredefinedProc)
	if len(d.Selectors) != 1 || d.Type() == s.ctx.NoType {
		return nil
	}

	call := lastCall(d)
	pos := d.Pos()
	ret := d.Type()

	switch pp.ProcKind {
	case ast.ProcMAX, ast.ProcMIN:
		return s.foldBound(pos, pp.ProcKind == ast.ProcMAX, ret)
	case ast.ProcSIZE:
		arg := call.Args[0].(*ast.Designator)
		return s.intLit(pos, int64(arg.Decl.Type().Size()), nil)
	case ast.ProcLEN:
		return s.foldLen(pos, call.Args)
	}

	for _, arg := range call.Args {
		if !arg.IsLiteral() {
			return nil
		}
	}

	args := call.Args
	switch pp.ProcKind {
	case ast.ProcABS:
		switch v := args[0].(type) {
		case *ast.IntegerLit:
			if v.Value < 0 {
				return s.intLit(pos, -v.Value, ret)
			}

			return s.intLit(pos, v.Value, ret)
		case *ast.RealLit:
			return s.realLit(pos, math.Abs(v.Value), ret)
		}
	case ast.ProcODD:
		if v, ok := args[0].(*ast.IntegerLit); ok {
			return s.OnBoolean(pos, v.Value%2 != 0)
		}
	case ast.ProcORD:
		switch v := args[0].(type) {
		case *ast.CharLit:
			return s.intLit(pos, int64(v.Value), ret)
		case *ast.BooleanLit:
			if v.Value {
				return s.intLit(pos, 1, ret)
			}

			return s.intLit(pos, 0, ret)
		case *ast.SetLit:
			return s.intLit(pos, int64(int32(v.Value)), ret)
		}
	case ast.ProcCHR:
		if v, ok := args[0].(*ast.IntegerLit); ok {
			if v.Value < 0 || v.Value > math.MaxUint8 {
				s.error(pos, "value %d out of bounds [0..255].", v.Value)
				return nil
			}

			return s.OnChar(pos, byte(v.Value))
		}
	case ast.ProcCAP:
		if v, ok := args[0].(*ast.CharLit); ok {
			c := v.Value
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}

			return s.OnChar(pos, c)
		}
	case ast.ProcFLT:
		if v, ok := args[0].(*ast.IntegerLit); ok {
			return s.realLit(pos, float64(v.Value), ret)
		}
	case ast.ProcFLOOR, ast.ProcENTIER:
		if v, ok := args[0].(*ast.RealLit); ok {
			return s.intLit(pos, int64(math.Floor(v.Value)), ret)
		}
	case ast.ProcLONG, ast.ProcSHORT:
		switch v := args[0].(type) {
		case *ast.IntegerLit:
			if !typing.Fits(ret, v.Value) {
				s.error(pos, "value %d does not fit into %s.", v.Value, typing.Format(ret))
				return nil
			}

			return s.intLit(pos, v.Value, ret)
		case *ast.RealLit:
			return s.realLit(pos, v.Value, ret)
		}
	case ast.ProcLSL, ast.ProcASR, ast.ProcASH, ast.ProcROR:
		x, xok := args[0].(*ast.IntegerLit)
		n, nok := args[1].(*ast.IntegerLit)
		if !xok || !nok {
			return nil
		}

		return s.intLit(pos, shift(pp.ProcKind, x.Value, n.Value, ret.Size()*8, ret.Kind() == typing.KindByte), ret)
	}

	return nil
}

// shift evaluates the shift procedures on a value of the given width.  The
// result wraps around like the generated code does.
func shift(kind ast.ProcKind, x, n int64, width int, unsigned bool) int64 {
	var v int64
	switch kind {
	case ast.ProcASH:
		if n < 0 {
			v = x >> uint(-n)
		} else {
			v = x << uint(n)
		}
	case ast.ProcASR:
		v = x >> uint(n)
	case ast.ProcROR:
		switch width {
		case 8:
			v = int64(bits.RotateLeft8(uint8(x), -int(n)))
		case 16:
			v = int64(bits.RotateLeft16(uint16(x), -int(n)))
		case 32:
			v = int64(bits.RotateLeft32(uint32(x), -int(n)))
		default:
			v = int64(bits.RotateLeft64(uint64(x), -int(n)))
		}
	default:
		v = x << uint(n)
	}

	return wrap(v, width, unsigned)
}

// wrap truncates a value to an integer of the given width.
func wrap(v int64, width int, unsigned bool) int64 {
	switch width {
	case 8:
		if unsigned {
			return int64(uint8(v))
		}

		return int64(int8(v))
	case 16:
		return int64(int16(v))
	case 32:
		return int64(int32(v))
	}

	return v
}

// foldBound evaluates MAX and MIN of a basic type.
func (s *Sema) foldBound(pos *report.TextPosition, isMax bool, typ typing.Type) ast.Expr {
	pick := func(lo, hi int64) int64 {
		if isMax {
			return hi
		}

		return lo
	}

	switch typ.Kind() {
	case typing.KindBoolean:
		return s.OnBoolean(pos, isMax)
	case typing.KindChar:
		return s.OnChar(pos, byte(pick(0, math.MaxUint8)))
	case typing.KindByte:
		return s.intLit(pos, pick(0, math.MaxUint8), typ)
	case typing.KindShortInt:
		return s.intLit(pos, pick(math.MinInt16, math.MaxInt16), typ)
	case typing.KindInteger:
		return s.intLit(pos, pick(math.MinInt32, math.MaxInt32), typ)
	case typing.KindLongInt:
		return s.intLit(pos, pick(math.MinInt64, math.MaxInt64), typ)
	case typing.KindSet:
		return s.intLit(pos, pick(0, 31), s.ctx.Integer)
	case typing.KindReal:
		if isMax {
			return s.realLit(pos, math.MaxFloat32, typ)
		}

		return s.realLit(pos, -math.MaxFloat32, typ)
	case typing.KindLongReal:
		if isMax {
			return s.realLit(pos, math.MaxFloat64, typ)
		}

		return s.realLit(pos, -math.MaxFloat64, typ)
	}

	s.error(pos, "type %s has no bounds.", typing.Format(typ))
	return nil
}

// foldLen evaluates LEN applied to an array with a fixed length.
func (s *Sema) foldLen(pos *report.TextPosition, args []ast.Expr) ast.Expr {
	at, ok := args[0].Type().(*typing.ArrayType)
	if !ok {
		return nil
	}

	dim := int64(0)
	if len(args) > 1 {
		lit, ok := args[1].(*ast.IntegerLit)
		if !ok {
			s.error(args[1].Pos(), "constant expression expected.")
			return nil
		}

		dim = lit.Value
	}

	if dim < 0 || dim >= int64(at.Dimensions()) {
		s.error(pos, "array dimension %d out of bounds [0..%d].", dim, at.Dimensions()-1)
		return nil
	}

	if length := at.Lengths[dim]; length > 0 {
		return s.intLit(pos, int64(length), nil)
	}

	return nil
}
