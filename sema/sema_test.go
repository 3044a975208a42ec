package sema

import (
	"fmt"
	"strings"
	"testing"

	"oberonc/ast"
	"oberonc/depm"
	"oberonc/report"
	"oberonc/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pos = &report.TextPosition{StartLn: 1, StartCol: 0, EndLn: 1, EndCol: 1}

func newTestSema(t *testing.T) *Sema {
	t.Helper()
	report.InitReporter(report.LogLevelSilent)

	ctx := typing.NewContext()
	table := depm.NewSymbolTable()
	depm.PopulateUniverse(table, ctx)

	s := New("Test.Mod", Config{}, ctx, table)
	s.OnTranslationUnitStart(pos, "Test")
	return s
}

func errorMessages() []string {
	var msgs []string
	for _, m := range report.Messages() {
		if m.IsError {
			msgs = append(msgs, m.Message)
		}
	}

	return msgs
}

func id(name string) *ast.Ident {
	return &ast.Ident{Name: name}
}

func qi(name string) *ast.QualIdent {
	return ast.NewQualIdent(pos, "", name)
}

func idents(names ...string) []IdentDef {
	defs := make([]IdentDef, len(names))
	for i, name := range names {
		defs[i] = IdentDef{Ident: ast.Ident{Name: name}, Pos: pos}
	}

	return defs
}

func field(name string) *ast.RecordField {
	return &ast.RecordField{SelectorBase: ast.NewSelectorBase(pos), Name: name}
}

func index(s *Sema, values ...int64) *ast.ArrayIndex {
	sel := &ast.ArrayIndex{SelectorBase: ast.NewSelectorBase(pos)}
	for _, v := range values {
		sel.Indices = append(sel.Indices, s.OnInteger(pos, v))
	}

	return sel
}

func call(args ...ast.Expr) *ast.ActualParameters {
	return &ast.ActualParameters{SelectorBase: ast.NewSelectorBase(pos), Args: args}
}

// -----------------------------------------------------------------------------

func TestFoldAddition(t *testing.T) {
	s := newTestSema(t)

	expr := s.OnBinaryExpression(pos, ast.OpPlus, s.OnInteger(pos, 3), s.OnInteger(pos, 4))

	lit, ok := expr.(*ast.IntegerLit)
	require.True(t, ok)
	assert.Equal(t, int64(7), lit.Value)
	assert.Equal(t, s.ctx.Integer, lit.Type())
	assert.Zero(t, report.ErrorCount())
}

func TestFoldNestedExpressions(t *testing.T) {
	s := newTestSema(t)

	// (2 * 3) - -4
	prod := s.OnBinaryExpression(pos, ast.OpTimes, s.OnInteger(pos, 2), s.OnInteger(pos, 3))
	neg := s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, 4))
	expr := s.OnBinaryExpression(pos, ast.OpMinus, prod, neg)

	lit, ok := expr.(*ast.IntegerLit)
	require.True(t, ok)
	assert.Equal(t, int64(10), lit.Value)
}

func TestFoldIntegerDivision(t *testing.T) {
	s := newTestSema(t)

	tests := []struct {
		op       ast.Operator
		lhs, rhs int64
		want     int64
	}{
		{ast.OpDiv, 7, 2, 3},
		{ast.OpDiv, -7, 2, -4},
		{ast.OpMod, -7, 2, 1},
		{ast.OpMod, 7, 3, 1},
	}

	for _, tc := range tests {
		var lhs ast.Expr = s.OnInteger(pos, tc.lhs)
		if tc.lhs < 0 {
			lhs = s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, -tc.lhs))
		}

		expr := s.OnBinaryExpression(pos, tc.op, lhs, s.OnInteger(pos, tc.rhs))
		lit, ok := expr.(*ast.IntegerLit)
		require.True(t, ok, "%d %s %d", tc.lhs, tc.op, tc.rhs)
		assert.Equal(t, tc.want, lit.Value, "%d %s %d", tc.lhs, tc.op, tc.rhs)
	}

	assert.Zero(t, report.ErrorCount())

	s.OnBinaryExpression(pos, ast.OpDiv, s.OnInteger(pos, 1), s.OnInteger(pos, 0))
	assert.Equal(t, []string{"division by zero."}, errorMessages())
}

func TestFoldRealDivisionOfIntegers(t *testing.T) {
	s := newTestSema(t)

	expr := s.OnBinaryExpression(pos, ast.OpDivide, s.OnInteger(pos, 7), s.OnInteger(pos, 2))

	lit, ok := expr.(*ast.RealLit)
	require.True(t, ok)
	assert.Equal(t, 3.5, lit.Value)
	assert.Equal(t, s.ctx.Real, lit.Type())
}

func TestFoldStringsAndSets(t *testing.T) {
	s := newTestSema(t)

	concat := s.OnBinaryExpression(pos, ast.OpPlus, s.OnString(pos, "ab"), s.OnString(pos, "c"))
	str, ok := concat.(*ast.StringLit)
	require.True(t, ok)
	assert.Equal(t, "abc", str.Value)

	eq := s.OnBinaryExpression(pos, ast.OpEq, s.OnString(pos, "x"), s.OnString(pos, "x"))
	b, ok := eq.(*ast.BooleanLit)
	require.True(t, ok)
	assert.True(t, b.Value)

	lhs := s.OnSetExpr(pos, []ast.Expr{s.OnInteger(pos, 1), s.OnRangeExpr(pos, s.OnInteger(pos, 2), s.OnInteger(pos, 3))})
	rhs := s.OnSetExpr(pos, []ast.Expr{s.OnInteger(pos, 3), s.OnInteger(pos, 5)})

	union := s.OnBinaryExpression(pos, ast.OpPlus, lhs, rhs)
	set, ok := union.(*ast.SetLit)
	require.True(t, ok)
	assert.Equal(t, uint32(0b101110), set.Value)

	diff := s.OnBinaryExpression(pos, ast.OpMinus, lhs, rhs)
	assert.Equal(t, uint32(0b0110), diff.(*ast.SetLit).Value)

	in := s.OnBinaryExpression(pos, ast.OpIn, s.OnInteger(pos, 5), rhs)
	assert.True(t, in.(*ast.BooleanLit).Value)

	assert.Zero(t, report.ErrorCount())
}

func TestFoldRejectsUnsupportedOperators(t *testing.T) {
	s := newTestSema(t)

	s.OnBinaryExpression(pos, ast.OpAnd, s.OnInteger(pos, 1), s.OnInteger(pos, 2))
	s.OnBinaryExpression(pos, ast.OpDiv, s.OnReal(pos, 1, false), s.OnReal(pos, 2, false))

	assert.Equal(t, []string{
		"operator & requires boolean arguments.",
		"integer division requires integer arguments.",
	}, errorMessages())
}

// -----------------------------------------------------------------------------

func TestConstantArrayLength(t *testing.T) {
	s := newTestSema(t)

	s.OnConstant(pos, id("Max"), s.OnInteger(pos, 10))
	length := s.OnDesignator(pos, qi("Max"), nil)

	lit, ok := length.(*ast.IntegerLit)
	require.True(t, ok)
	assert.Equal(t, int64(10), lit.Value)

	typ := s.OnArrayType(pos, []ast.Expr{length}, s.ctx.Integer)
	vars := s.OnVariables(idents("a"), typ)

	at, ok := vars[0].Type().(*typing.ArrayType)
	require.True(t, ok)
	assert.Equal(t, []int{10}, at.Lengths)
	assert.Equal(t, 10*s.ctx.Integer.Size(), at.Size())
	assert.Zero(t, report.ErrorCount())
}

func TestArrayLengthMustBePositiveConstant(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("n"), s.ctx.Integer)
	s.OnArrayType(pos, []ast.Expr{s.OnDesignator(pos, qi("n"), nil)}, s.ctx.Char)
	s.OnArrayType(pos, []ast.Expr{s.OnInteger(pos, 0)}, s.ctx.Char)

	assert.Equal(t, []string{
		"constant integer expression expected.",
		"array dimension must be a positive value.",
	}, errorMessages())
}

func TestNestedArraysAreFlattened(t *testing.T) {
	s := newTestSema(t)

	inner := s.OnArrayType(pos, []ast.Expr{s.OnInteger(pos, 4)}, s.ctx.Integer)
	outer := s.OnArrayType(pos, []ast.Expr{s.OnInteger(pos, 3)}, inner)

	at := outer.(*typing.ArrayType)
	assert.Equal(t, []int{3, 4}, at.Lengths)
	assert.Equal(t, 1, report.WarningCount())
}

// -----------------------------------------------------------------------------

// declareVector declares `Vec = RECORD data: ARRAY 4 OF INTEGER END`, a
// pointer type `VecPtr` to it and a variable `p: VecPtr`.
func declareVector(s *Sema) {
	data := s.OnArrayType(pos, []ast.Expr{s.OnInteger(pos, 4)}, s.ctx.Integer)
	s.OnTypeDeclaration(pos, id("VecPtr"), s.OnPointerTo(pos, qi("Vec")))
	s.OnTypeDeclaration(pos, id("Vec"), s.OnRecordType(pos, nil, s.OnFields(idents("data"), data), nil))
	s.OnDeclarationsEnd()

	s.OnVariables(idents("p"), s.OnTypeReference(qi("VecPtr")))
}

func TestImplicitDereference(t *testing.T) {
	s := newTestSema(t)
	declareVector(s)

	implicit := s.Resolve(pos, qi("p"), []ast.Selector{field("data"), index(s, 1)})
	explicit := s.Resolve(pos, qi("p"), []ast.Selector{
		&ast.Dereference{SelectorBase: ast.NewSelectorBase(pos)},
		field("data"),
		index(s, 1),
	})

	require.Zero(t, report.ErrorCount())
	assert.Equal(t, s.ctx.Integer, implicit.Type())
	assert.Equal(t, explicit.Type(), implicit.Type())

	require.Len(t, implicit.Selectors, 3)
	require.Len(t, explicit.Selectors, 3)
	for i := range implicit.Selectors {
		assert.Equal(t, fmt.Sprintf("%T", explicit.Selectors[i]), fmt.Sprintf("%T", implicit.Selectors[i]))
		assert.Equal(t, explicit.Selectors[i].Type(), implicit.Selectors[i].Type())
	}

	assert.True(t, implicit.Selectors[0].(*ast.Dereference).Implicit)
	assert.False(t, explicit.Selectors[0].(*ast.Dereference).Implicit)
}

func TestSelectorErrors(t *testing.T) {
	s := newTestSema(t)
	declareVector(s)

	s.Resolve(pos, qi("p"), []ast.Selector{field("missing")})
	s.Resolve(pos, qi("p"), []ast.Selector{field("data"), index(s, 4)})
	s.Resolve(pos, qi("p"), []ast.Selector{field("data"), index(s, 1, 2)})
	s.Resolve(pos, qi("q"), nil)

	assert.Equal(t, []string{
		"undefined record field for type Vec: missing.",
		"value 4 out of bounds [0..3].",
		"more indices than array dimensions: 2 > 1.",
		"undefined identifier: q.",
	}, errorMessages())
}

func declareExtension(s *Sema) {
	s.OnTypeDeclaration(pos, id("Shape"), s.OnPointerTo(pos, qi("ShapeDesc")))
	s.OnTypeDeclaration(pos, id("ShapeDesc"), s.OnRecordType(pos, nil, s.OnFields(idents("x"), s.ctx.Integer), nil))
	s.OnTypeDeclaration(pos, id("Circle"), s.OnPointerTo(pos, qi("CircleDesc")))
	base := s.OnTypeReference(qi("ShapeDesc"))
	s.OnTypeDeclaration(pos, id("CircleDesc"), s.OnRecordType(pos, base, s.OnFields(idents("r"), s.ctx.Integer), nil))
	s.OnDeclarationsEnd()

	s.OnVariables(idents("shape"), s.OnTypeReference(qi("Shape")))
	s.OnVariables(idents("n"), s.ctx.Integer)
}

func TestTypeTest(t *testing.T) {
	s := newTestSema(t)
	declareExtension(s)

	test := s.OnBinaryExpression(pos, ast.OpIs, s.OnDesignator(pos, qi("shape"), nil), s.OnDesignator(pos, qi("Circle"), nil))

	require.Zero(t, report.ErrorCount())
	assert.Equal(t, s.ctx.Boolean, test.Type())
}

func TestTypeTestErrors(t *testing.T) {
	s := newTestSema(t)
	declareExtension(s)

	s.OnBinaryExpression(pos, ast.OpIs, s.OnDesignator(pos, qi("shape"), nil), s.OnDesignator(pos, qi("ShapeDesc"), nil))
	s.OnBinaryExpression(pos, ast.OpIs, s.OnDesignator(pos, qi("n"), nil), s.OnDesignator(pos, qi("Circle"), nil))
	s.OnBinaryExpression(pos, ast.OpIs, s.OnDesignator(pos, qi("shape"), nil), s.OnInteger(pos, 1))

	msgs := errorMessages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "is not an extension of")
	assert.Contains(t, msgs[1], "a type test can only be applied to")
	assert.Equal(t, "type expected.", msgs[2])
}

func TestTypeCaseNarrowsVariable(t *testing.T) {
	s := newTestSema(t)
	declareExtension(s)

	shape := s.OnDesignator(pos, qi("shape"), nil)
	label := s.OnDesignator(pos, qi("Circle"), nil)

	s.OnCaseLabels(shape, []ast.Expr{label})
	inside := s.Resolve(pos, qi("shape"), []ast.Selector{field("r")})
	clause := s.OnCaseClause(pos, shape, []ast.Expr{label}, nil)
	s.OnCase(pos, shape, []*ast.CaseClause{clause}, nil)

	require.Zero(t, report.ErrorCount())
	assert.Equal(t, s.ctx.Integer, inside.Type())

	require.Len(t, inside.Selectors, 3)
	guard, ok := inside.Selectors[0].(*ast.Typeguard)
	require.True(t, ok)
	assert.True(t, guard.Implicit)
	assert.Equal(t, label.(*ast.Designator).Decl.Type(), guard.Type())

	after := s.Resolve(pos, qi("shape"), nil)
	assert.Empty(t, after.Selectors)
	assert.Equal(t, shape.Type(), after.Type())
}

func TestTypeCaseDuplicateLabels(t *testing.T) {
	s := newTestSema(t)
	declareExtension(s)

	shape := s.OnDesignator(pos, qi("shape"), nil)

	var clauses []*ast.CaseClause
	for i := 0; i < 2; i++ {
		labels := []ast.Expr{s.OnDesignator(pos, qi("Circle"), nil)}
		s.OnCaseLabels(shape, labels)
		clauses = append(clauses, s.OnCaseClause(pos, shape, labels, nil))
	}

	s.OnCase(pos, shape, clauses, nil)
	assert.Len(t, errorMessages(), 1)
}

func TestRepeatedIndicesAreMerged(t *testing.T) {
	s := newTestSema(t)

	grid := s.OnArrayType(pos, []ast.Expr{s.OnInteger(pos, 3), s.OnInteger(pos, 4)}, s.ctx.Char)
	s.OnVariables(idents("grid"), grid)

	d := s.Resolve(pos, qi("grid"), []ast.Selector{index(s, 1), index(s, 2)})

	require.Len(t, d.Selectors, 1)
	assert.Len(t, d.Selectors[0].(*ast.ArrayIndex).Indices, 2)
	assert.Equal(t, s.ctx.Char, d.Type())
	assert.Equal(t, 1, report.WarningCount())
}

func TestForwardPointerResolution(t *testing.T) {
	s := newTestSema(t)

	node := s.OnTypeDeclaration(pos, id("Node"), s.OnPointerTo(pos, qi("NodeDesc")))
	next := s.OnFields(idents("next"), s.OnTypeReference(qi("Node")))
	desc := s.OnTypeDeclaration(pos, id("NodeDesc"), s.OnRecordType(pos, nil, next, nil))
	s.OnDeclarationsEnd()

	require.Zero(t, report.ErrorCount())

	pt, ok := node.Type().(*typing.PointerType)
	require.True(t, ok)
	assert.True(t, pt.Base == desc.Type())

	rt := desc.Type().(*typing.RecordType)
	assert.True(t, rt.Field("next").Type == node.Type())
}

func TestUnresolvedForwardPointer(t *testing.T) {
	s := newTestSema(t)

	s.OnTypeDeclaration(pos, id("Dangling"), s.OnPointerTo(pos, qi("Missing")))
	s.OnDeclarationsEnd()

	assert.Equal(t, []string{"undefined forward reference: Missing."}, errorMessages())
}

func TestTypeguard(t *testing.T) {
	s := newTestSema(t)

	base := s.OnTypeDeclaration(pos, id("Base"), s.OnRecordType(pos, nil, nil, nil))
	ext := s.OnRecordType(pos, base.Type(), s.OnFields(idents("x"), s.ctx.Integer), nil)
	s.OnTypeDeclaration(pos, id("Ext"), ext)
	s.OnTypeDeclaration(pos, id("BasePtr"), s.OnPointerTo(pos, qi("Base")))
	s.OnTypeDeclaration(pos, id("ExtPtr"), s.OnPointerTo(pos, qi("Ext")))
	s.OnDeclarationsEnd()

	s.OnVariables(idents("p"), s.OnTypeReference(qi("BasePtr")))

	guard := call(s.OnDesignator(pos, qi("ExtPtr"), nil))
	d := s.Resolve(pos, qi("p"), []ast.Selector{guard, field("x")})

	require.Zero(t, report.ErrorCount())
	assert.Equal(t, s.ctx.Integer, d.Type())

	require.Len(t, d.Selectors, 3)
	assert.IsType(t, &ast.Typeguard{}, d.Selectors[0])
	assert.IsType(t, &ast.Dereference{}, d.Selectors[1])
	assert.IsType(t, &ast.RecordField{}, d.Selectors[2])

	s.Resolve(pos, qi("p"), []ast.Selector{call(s.OnDesignator(pos, qi("INTEGER"), nil))})
	assert.Len(t, errorMessages(), 1)
}

// -----------------------------------------------------------------------------

func TestOverloadResolution(t *testing.T) {
	s := newTestSema(t)

	intSig := s.ctx.NewProcedure([]*typing.Param{{Name: "x", Type: s.ctx.Integer}}, s.ctx.Boolean, false)
	realSig := s.ctx.NewProcedure([]*typing.Param{{Name: "x", Type: s.ctx.Real}}, s.ctx.Char, false)
	s.table.InsertGlobal("PICK", ast.NewPredefinedProc(ast.ProcASSERT, "PICK", false, intSig, realSig))

	expr := s.OnDesignator(pos, qi("PICK"), []ast.Selector{call(s.OnInteger(pos, 3))})
	d, ok := expr.(*ast.Designator)
	require.True(t, ok)
	assert.Equal(t, s.ctx.Boolean, d.Type())
	assert.True(t, lastCall(d).Signature == intSig)

	expr = s.OnDesignator(pos, qi("PICK"), []ast.Selector{call(s.OnReal(pos, 2.5, false))})
	assert.Equal(t, s.ctx.Char, expr.Type())
	assert.Zero(t, report.ErrorCount())
}

func TestAmbiguousOverloadReportsOnce(t *testing.T) {
	s := newTestSema(t)

	entire := s.ctx.NewProcedure([]*typing.Param{{Name: "x", Type: s.ctx.Entire}}, s.ctx.Boolean, false)
	numeric := s.ctx.NewProcedure([]*typing.Param{{Name: "x", Type: s.ctx.Numeric}}, s.ctx.Char, false)
	s.table.InsertGlobal("PICK", ast.NewPredefinedProc(ast.ProcASSERT, "PICK", false, entire, numeric))

	expr := s.OnDesignator(pos, qi("PICK"), []ast.Selector{call(s.OnInteger(pos, 3))})

	assert.Equal(t, s.ctx.NoType, expr.Type())
	assert.Equal(t, []string{"ambiguous call to PICK."}, errorMessages())
}

func TestPredefinedFolding(t *testing.T) {
	s := newTestSema(t)

	intOf := func(name string, args ...ast.Expr) int64 {
		expr := s.OnDesignator(pos, qi(name), []ast.Selector{call(args...)})
		lit, ok := expr.(*ast.IntegerLit)
		require.True(t, ok, name)
		return lit.Value
	}

	assert.Equal(t, int64(8), intOf("LSL", s.OnInteger(pos, 1), s.OnInteger(pos, 3)))
	assert.Equal(t, int64(5), intOf("ABS", s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, 5))))
	assert.Equal(t, int64(2147483647), intOf("MAX", s.OnDesignator(pos, qi("INTEGER"), nil)))
	assert.Equal(t, int64(-32768), intOf("MIN", s.OnDesignator(pos, qi("SHORTINT"), nil)))
	assert.Equal(t, int64(8), intOf("SIZE", s.OnDesignator(pos, qi("LONGINT"), nil)))
	assert.Equal(t, int64(65), intOf("ORD", s.OnChar(pos, 'A')))
	assert.Equal(t, int64(-4), intOf("ASH", s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, 8)), s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, 1))))

	chr := s.OnDesignator(pos, qi("CHR"), []ast.Selector{call(s.OnInteger(pos, 97))})
	assert.Equal(t, byte('a'), chr.(*ast.CharLit).Value)

	odd := s.OnDesignator(pos, qi("ODD"), []ast.Selector{call(s.OnInteger(pos, 3))})
	assert.True(t, odd.(*ast.BooleanLit).Value)

	assert.Zero(t, report.ErrorCount())
}

func TestShiftKeepsOperandWidth(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("b"), s.ctx.Byte)
	s.OnVariables(idents("h"), s.ctx.ShortInt)

	for _, name := range []string{"LSL", "ASR", "ASH", "ROR"} {
		b := s.OnDesignator(pos, qi(name), []ast.Selector{call(s.OnDesignator(pos, qi("b"), nil), s.OnInteger(pos, 1))})
		assert.Equal(t, s.ctx.Byte, b.Type(), name)

		h := s.OnDesignator(pos, qi(name), []ast.Selector{call(s.OnDesignator(pos, qi("h"), nil), s.OnInteger(pos, 1))})
		assert.Equal(t, s.ctx.ShortInt, h.Type(), name)
	}

	assert.Zero(t, report.ErrorCount())
}

func TestShiftFoldingWraps(t *testing.T) {
	assert.Equal(t, int64(0xFE), shift(ast.ProcLSL, 0xFF, 1, 8, true))
	assert.Equal(t, int64(-2), shift(ast.ProcLSL, 0x7FFF, 1, 16, false))
	assert.Equal(t, int64(0x80), shift(ast.ProcROR, 1, 1, 8, true))
	assert.Equal(t, int64(-2147483648), shift(ast.ProcLSL, 1, 31, 32, false))
	assert.Equal(t, int64(-1), shift(ast.ProcASR, -4, 2, 32, false))
}

func TestPredefinedProcedureCannotBeReferenced(t *testing.T) {
	s := newTestSema(t)

	s.OnDesignator(pos, qi("ABS"), nil)
	assert.Equal(t, []string{"predefined procedures cannot be referenced."}, errorMessages())
}

// -----------------------------------------------------------------------------

func TestAssignmentConversions(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("i"), s.ctx.Integer)
	s.OnVariables(idents("sh"), s.ctx.ShortInt)
	s.OnVariables(idents("r"), s.ctx.Real)

	widen := s.OnAssignment(pos, s.Resolve(pos, qi("i"), nil), s.OnDesignator(pos, qi("sh"), nil))
	assert.Equal(t, s.ctx.Integer, widen.Rhs.Cast())

	toReal := s.OnAssignment(pos, s.Resolve(pos, qi("r"), nil), s.OnInteger(pos, 1))
	lit, ok := toReal.Rhs.(*ast.RealLit)
	require.True(t, ok)
	assert.Equal(t, 1.0, lit.Value)

	short := s.OnAssignment(pos, s.Resolve(pos, qi("sh"), nil), s.OnInteger(pos, 100))
	assert.Equal(t, s.ctx.ShortInt, short.Rhs.Type())
	require.Zero(t, report.ErrorCount())

	s.OnAssignment(pos, s.Resolve(pos, qi("sh"), nil), s.OnDesignator(pos, qi("i"), nil))
	msgs := errorMessages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.Contains(msgs[0], "may lose data"), msgs[0])
}

func TestBinaryExpressionPromotion(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("sh"), s.ctx.ShortInt)
	s.OnVariables(idents("i"), s.ctx.Integer)
	s.OnVariables(idents("r"), s.ctx.Real)

	sum := s.OnBinaryExpression(pos, ast.OpPlus, s.OnDesignator(pos, qi("sh"), nil), s.OnInteger(pos, 1))
	assert.Equal(t, s.ctx.ShortInt, sum.Type())

	mixed := s.OnBinaryExpression(pos, ast.OpTimes, s.OnDesignator(pos, qi("i"), nil), s.OnDesignator(pos, qi("r"), nil)).(*ast.BinaryExpr)
	assert.Equal(t, s.ctx.Real, mixed.Type())
	assert.Equal(t, s.ctx.Real, mixed.Lhs.Cast())
	assert.Nil(t, mixed.Rhs.Cast())

	rel := s.OnBinaryExpression(pos, ast.OpLt, s.OnDesignator(pos, qi("i"), nil), s.OnDesignator(pos, qi("r"), nil))
	assert.Equal(t, s.ctx.Boolean, rel.Type())

	assert.Zero(t, report.ErrorCount())
}

func TestAssignability(t *testing.T) {
	s := newTestSema(t)

	s.OnConstant(pos, id("C"), s.OnInteger(pos, 1))
	s.OnAssignment(pos, s.Resolve(pos, qi("C"), nil), s.OnInteger(pos, 2))

	s.OnTypeDeclaration(pos, id("T"), s.ctx.Integer)
	s.OnAssignment(pos, s.Resolve(pos, qi("T"), nil), s.OnInteger(pos, 2))

	assert.Equal(t, []string{
		"cannot assign to constant C.",
		"cannot assign to type T.",
	}, errorMessages())
}

func TestDuplicateDefinitions(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("x", "x"), s.ctx.Integer)
	s.OnVariables(idents("INTEGER"), s.ctx.Integer)

	assert.Equal(t, []string{
		"duplicate definition: x.",
		"predefined identifier: INTEGER.",
	}, errorMessages())
}

// -----------------------------------------------------------------------------

func TestForStatement(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("i"), s.ctx.Integer)
	s.OnVariables(idents("r"), s.ctx.Real)

	stmt := s.OnFor(pos, s.Resolve(pos, qi("i"), nil), s.OnInteger(pos, 10), s.OnInteger(pos, 1),
		s.OnUnaryExpression(pos, ast.OpMinus, s.OnInteger(pos, 2)), nil)
	assert.Equal(t, int64(-2), stmt.Step)
	require.Zero(t, report.ErrorCount())

	stmt = s.OnFor(pos, s.Resolve(pos, qi("i"), nil), s.OnInteger(pos, 1), s.OnInteger(pos, 10), nil, nil)
	assert.Equal(t, int64(1), stmt.Step)

	s.OnFor(pos, s.Resolve(pos, qi("i"), nil), s.OnInteger(pos, 1), s.OnInteger(pos, 10), s.OnInteger(pos, 0), nil)
	s.OnFor(pos, s.Resolve(pos, qi("r"), nil), s.OnInteger(pos, 1), s.OnInteger(pos, 10), nil, nil)

	assert.Equal(t, []string{
		"step value cannot be zero.",
		"type mismatch: integer type expected, found REAL.",
	}, errorMessages())
}

func TestLoopAndExit(t *testing.T) {
	s := newTestSema(t)

	s.OnExit(pos)
	assert.Equal(t, []string{"EXIT statement outside of loop."}, errorMessages())

	s.OnLoopStart()
	s.OnLoop(pos, nil)
	assert.Equal(t, 1, report.WarningCount())

	s.OnLoopStart()
	exit := s.OnExit(pos)
	s.OnLoop(pos, []ast.Stmt{exit})
	assert.Equal(t, 1, report.WarningCount())
	assert.Equal(t, 1, report.ErrorCount())
}

func TestCaseLabels(t *testing.T) {
	s := newTestSema(t)

	s.OnVariables(idents("n"), s.ctx.Integer)
	expr := s.OnDesignator(pos, qi("n"), nil)

	first := s.OnCaseClause(pos, expr, []ast.Expr{s.OnInteger(pos, 1), s.OnRangeExpr(pos, s.OnInteger(pos, 3), s.OnInteger(pos, 5))}, nil)
	second := s.OnCaseClause(pos, expr, []ast.Expr{s.OnInteger(pos, 4)}, nil)
	third := s.OnCaseClause(pos, expr, []ast.Expr{s.OnChar(pos, 'x')}, nil)

	s.OnCase(pos, expr, []*ast.CaseClause{first, second, third}, nil)

	assert.Equal(t, []string{
		"type mismatch: case labels must all have the same type.",
		"duplicate case labels in case statement.",
	}, errorMessages())
}

func TestProcedureReturns(t *testing.T) {
	s := newTestSema(t)

	// PROCEDURE F(x: INTEGER): INTEGER; BEGIN IF x > 0 THEN RETURN x END END F;
	proc := s.OnProcedureStart(pos, id("F"))
	params := s.OnParameters(idents("x"), false, s.ctx.Integer, true)
	s.OnProcedureSignature(proc, params, s.OnFormalParameters(pos, params, s.ctx.Integer))

	x := s.OnDesignator(pos, qi("x"), nil)
	ret := s.OnReturn(pos, s.OnDesignator(pos, qi("x"), nil))
	cond := s.OnBinaryExpression(pos, ast.OpGt, x, s.OnInteger(pos, 0))
	body := []ast.Stmt{s.OnIf(pos, cond, []ast.Stmt{ret}, nil, nil)}
	s.OnProcedureEnd(pos, "F", body)

	// PROCEDURE P; BEGIN RETURN 1 END Q;
	proc = s.OnProcedureStart(pos, id("P"))
	s.OnProcedureSignature(proc, nil, s.OnFormalParameters(pos, nil, nil))
	body = []ast.Stmt{s.OnReturn(pos, s.OnInteger(pos, 1))}
	s.OnProcedureEnd(pos, "Q", body)

	assert.Equal(t, []string{
		"not all control flow paths of procedure F return a result.",
		"procedure cannot return a value.",
		"procedure name mismatch: expected P, found Q.",
	}, errorMessages())

	assert.Equal(t, depm.ModuleLevel, s.level())
	assert.Len(t, s.module.Procs, 2)
}

func TestProcedureCalls(t *testing.T) {
	s := newTestSema(t)

	// PROCEDURE Inc(VAR n: INTEGER; by: INTEGER);
	proc := s.OnProcedureStart(pos, id("Inc"))
	params := append(s.OnParameters(idents("n"), true, s.ctx.Integer, true), s.OnParameters(idents("by"), false, s.ctx.Integer, true)...)
	s.OnProcedureSignature(proc, params, s.OnFormalParameters(pos, params, nil))
	s.OnProcedureEnd(pos, "Inc", nil)

	s.OnVariables(idents("i"), s.ctx.Integer)
	s.OnVariables(idents("sh"), s.ctx.ShortInt)

	ok := s.OnProcedureCall(pos, s.Resolve(pos, qi("Inc"), []ast.Selector{call(s.OnDesignator(pos, qi("i"), nil), s.OnInteger(pos, 2))}))
	assert.True(t, ok.Call.IsCall())
	require.Zero(t, report.ErrorCount())

	s.Resolve(pos, qi("Inc"), []ast.Selector{call(s.OnInteger(pos, 1), s.OnInteger(pos, 2))})
	s.Resolve(pos, qi("Inc"), []ast.Selector{call(s.OnDesignator(pos, qi("sh"), nil), s.OnInteger(pos, 2))})
	s.Resolve(pos, qi("Inc"), []ast.Selector{call(s.OnDesignator(pos, qi("i"), nil))})

	assert.Equal(t, []string{
		"illegal actual parameter: cannot pass a constant value by reference.",
		"type mismatch: cannot pass SHORTINT to INTEGER by reference.",
		"fewer actual than formal parameters.",
	}, errorMessages())
}
