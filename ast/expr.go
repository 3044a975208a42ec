package ast

import (
	"oberonc/report"
	"oberonc/typing"
)

// Expr represents an expression simple or complex. All expression nodes
// implement the `Expr` interface.
type Expr interface {
	ASTNode

	// Type is the yielded type of the expression.
	Type() typing.Type

	// SetType sets the type of the expression.
	SetType(typing.Type)

	// Cast is the type the value of the expression is converted to when it is
	// used.  It is nil if no conversion is necessary.
	Cast() typing.Type

	// SetCast sets the conversion type of the expression.
	SetCast(typing.Type)

	// IsConstant returns whether the value of the expression is known at
	// compile time.
	IsConstant() bool

	// IsLiteral returns whether the expression is a literal node.
	IsLiteral() bool
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	ASTBase

	typ, cast typing.Type
}

func NewExprBase(pos *report.TextPosition, typ typing.Type) ExprBase {
	return ExprBase{ASTBase: NewASTBaseOn(pos), typ: typ}
}

func (eb *ExprBase) Type() typing.Type {
	return eb.typ
}

func (eb *ExprBase) SetType(typ typing.Type) {
	eb.typ = typ
}

func (eb *ExprBase) Cast() typing.Type {
	return eb.cast
}

func (eb *ExprBase) SetCast(typ typing.Type) {
	eb.cast = typ
}

// EffectiveType returns the type of the value of an expression after its
// conversion has been applied.
func EffectiveType(expr Expr) typing.Type {
	if cast := expr.Cast(); cast != nil {
		return cast
	}

	return expr.Type()
}

// -----------------------------------------------------------------------------

// Operator is an operator used in expressions.
type Operator int

// Enumeration of operators.
const (
	OpEq Operator = iota
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
	OpIn
	OpIs
	OpPlus
	OpMinus
	OpOr
	OpTimes
	OpDivide
	OpDiv
	OpMod
	OpAnd
	OpNot
)

var opNames = [...]string{
	OpEq:     "=",
	OpNeq:    "#",
	OpLt:     "<",
	OpLeq:    "<=",
	OpGt:     ">",
	OpGeq:    ">=",
	OpIn:     "IN",
	OpIs:     "IS",
	OpPlus:   "+",
	OpMinus:  "-",
	OpOr:     "OR",
	OpTimes:  "*",
	OpDivide: "/",
	OpDiv:    "DIV",
	OpMod:    "MOD",
	OpAnd:    "&",
	OpNot:    "~",
}

func (op Operator) String() string {
	return opNames[op]
}

// IsRelation returns whether the operator is a relational operator: its
// result is always BOOLEAN.
func (op Operator) IsRelation() bool {
	return op <= OpIs
}

// -----------------------------------------------------------------------------

// IntegerLit is an integer literal.
type IntegerLit struct {
	ExprBase

	Value int64
}

// RealLit is a real literal.
type RealLit struct {
	ExprBase

	Value float64
}

// BooleanLit is a boolean literal: `TRUE` or `FALSE`.
type BooleanLit struct {
	ExprBase

	Value bool
}

// CharLit is a character literal.
type CharLit struct {
	ExprBase

	Value byte
}

// StringLit is a string literal.
type StringLit struct {
	ExprBase

	Value string
}

// SetLit is a set literal: bit `i` is set if element `i` is in the set.
type SetLit struct {
	ExprBase

	Value uint32
}

// NilLit is the `NIL` literal.
type NilLit struct {
	ExprBase
}

func (il *IntegerLit) IsConstant() bool { return true }
func (il *IntegerLit) IsLiteral() bool  { return true }
func (rl *RealLit) IsConstant() bool    { return true }
func (rl *RealLit) IsLiteral() bool     { return true }
func (bl *BooleanLit) IsConstant() bool { return true }
func (bl *BooleanLit) IsLiteral() bool  { return true }
func (cl *CharLit) IsConstant() bool    { return true }
func (cl *CharLit) IsLiteral() bool     { return true }
func (sl *StringLit) IsConstant() bool  { return true }
func (sl *StringLit) IsLiteral() bool   { return true }
func (sl *SetLit) IsConstant() bool     { return true }
func (sl *SetLit) IsLiteral() bool      { return true }
func (nl *NilLit) IsConstant() bool     { return true }
func (nl *NilLit) IsLiteral() bool      { return true }

// CopyLiteral returns a copy of a literal at a new position.  It returns nil if
// the expression is not a literal.
func CopyLiteral(expr Expr, pos *report.TextPosition) Expr {
	base := NewExprBase(pos, expr.Type())
	base.cast = expr.Cast()

	switch v := expr.(type) {
	case *IntegerLit:
		return &IntegerLit{ExprBase: base, Value: v.Value}
	case *RealLit:
		return &RealLit{ExprBase: base, Value: v.Value}
	case *BooleanLit:
		return &BooleanLit{ExprBase: base, Value: v.Value}
	case *CharLit:
		return &CharLit{ExprBase: base, Value: v.Value}
	case *StringLit:
		return &StringLit{ExprBase: base, Value: v.Value}
	case *SetLit:
		return &SetLit{ExprBase: base, Value: v.Value}
	case *NilLit:
		return &NilLit{ExprBase: base}
	}

	return nil
}

// -----------------------------------------------------------------------------

// UnaryExpr is the application of a unary operator: `~`, `-` or `+`.
type UnaryExpr struct {
	ExprBase

	Op      Operator
	Operand Expr
}

func (ue *UnaryExpr) IsConstant() bool { return ue.Operand.IsConstant() }
func (ue *UnaryExpr) IsLiteral() bool  { return false }

// BinaryExpr is the application of a binary operator.
type BinaryExpr struct {
	ExprBase

	Op       Operator
	Lhs, Rhs Expr
}

func (be *BinaryExpr) IsConstant() bool { return be.Lhs.IsConstant() && be.Rhs.IsConstant() }
func (be *BinaryExpr) IsLiteral() bool  { return false }

// RangeExpr is an element range `low..high` inside a set constructor or a case
// label.
type RangeExpr struct {
	ExprBase

	Low, High Expr
}

func (re *RangeExpr) IsConstant() bool { return re.Low.IsConstant() && re.High.IsConstant() }
func (re *RangeExpr) IsLiteral() bool  { return false }

// SetExpr is a set constructor with non-constant elements: `{a, b..c}`.
type SetExpr struct {
	ExprBase

	Elements []Expr
}

func (se *SetExpr) IsConstant() bool {
	for _, elem := range se.Elements {
		if !elem.IsConstant() {
			return false
		}
	}

	return true
}

func (se *SetExpr) IsLiteral() bool { return false }

// -----------------------------------------------------------------------------

// Designator is a reference to a declaration followed by a chain of
// selectors.  Function calls are designators whose last selector is a list of
// actual parameters.
type Designator struct {
	ExprBase

	Ident *QualIdent

	// Decl is the declaration the identifier resolves to.  It is nil if the
	// identifier could not be resolved.
	Decl Decl

	Selectors []Selector
}

func (d *Designator) IsConstant() bool {
	_, ok := d.Decl.(*ConstDecl)
	return ok && len(d.Selectors) == 0
}

func (d *Designator) IsLiteral() bool { return false }

// IsTypeRef returns whether the designator names a type.
func (d *Designator) IsTypeRef() bool {
	_, ok := d.Decl.(*TypeDecl)
	return ok && len(d.Selectors) == 0
}

// IsCall returns whether the designator ends with a procedure call.
func (d *Designator) IsCall() bool {
	if len(d.Selectors) == 0 {
		return false
	}

	_, ok := d.Selectors[len(d.Selectors)-1].(*ActualParameters)
	return ok
}
