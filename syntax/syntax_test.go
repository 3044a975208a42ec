package syntax

import (
	"strings"
	"testing"

	"oberonc/ast"
	"oberonc/depm"
	"oberonc/report"
	"oberonc/sema"
	"oberonc/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []*Token {
	t.Helper()

	sc := NewScanner(strings.NewReader(src))

	var toks []*Token
	for {
		tok, err := sc.NextToken()
		require.NoError(t, err)

		if tok.Kind == TOK_EOF {
			return toks
		}

		toks = append(toks, tok)
	}
}

func kinds(toks []*Token) []int {
	ks := make([]int, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}

	return ks
}

func TestScanKeywordsAndSymbols(t *testing.T) {
	toks := scanAll(t, "IF x <= 10 THEN y := x^.next ELSE z # {} END")

	assert.Equal(t, []int{
		TOK_IF, TOK_IDENT, TOK_LTEQ, TOK_INTLIT, TOK_THEN,
		TOK_IDENT, TOK_ASSIGN, TOK_IDENT, TOK_CARET, TOK_DOT, TOK_IDENT,
		TOK_ELSE, TOK_IDENT, TOK_NEQ, TOK_LBRACE, TOK_RBRACE, TOK_END,
	}, kinds(toks))
	assert.Equal(t, "x", toks[1].Value)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "42 0FFH 41X 3.25 1.5D2 2.0E-1")
	require.Len(t, toks, 6)

	assert.Equal(t, []int{TOK_INTLIT, TOK_INTLIT, TOK_CHARLIT, TOK_REALLIT, TOK_REALLIT, TOK_REALLIT}, kinds(toks))

	v, err := IntValue(toks[0])
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = IntValue(toks[1])
	require.NoError(t, err)
	assert.Equal(t, int64(255), v)

	c, err := CharValue(toks[2])
	require.NoError(t, err)
	assert.Equal(t, byte('A'), c)

	r, long, err := RealValue(toks[3])
	require.NoError(t, err)
	assert.Equal(t, 3.25, r)
	assert.False(t, long)

	r, long, err = RealValue(toks[4])
	require.NoError(t, err)
	assert.Equal(t, 150.0, r)
	assert.True(t, long)

	r, _, err = RealValue(toks[5])
	require.NoError(t, err)
	assert.InDelta(t, 0.2, r, 1e-12)
}

func TestScanRangeAfterInteger(t *testing.T) {
	toks := scanAll(t, "{1..5}")

	assert.Equal(t, []int{TOK_LBRACE, TOK_INTLIT, TOK_RANGE, TOK_INTLIT, TOK_RBRACE}, kinds(toks))
	assert.Equal(t, "1", toks[1].Value)
}

func TestScanStringsAndComments(t *testing.T) {
	toks := scanAll(t, "(* outer (* inner *) still comment *) \"abc\" 'd' (x)")

	assert.Equal(t, []int{TOK_STRINGLIT, TOK_STRINGLIT, TOK_LPAREN, TOK_IDENT, TOK_RPAREN}, kinds(toks))
	assert.Equal(t, "abc", toks[0].Value)
	assert.Equal(t, "d", toks[1].Value)
}

func TestScanPositions(t *testing.T) {
	toks := scanAll(t, "MODULE\n  Foo")
	require.Len(t, toks, 2)

	assert.Equal(t, 2, toks[1].Pos.StartLn)
	assert.Equal(t, 2, toks[1].Pos.StartCol)
	assert.Equal(t, 5, toks[1].Pos.EndCol)
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"\"abc", "unclosed string literal"},
		{"(* abc", "unclosed comment"},
		{"0FF", "hexadecimal number must end with `H`"},
		{"1.0E", "expected digits in exponent"},
		{"!", "unknown character: `!`"},
	}

	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			sc := NewScanner(strings.NewReader(test.src))

			_, err := sc.NextToken()
			require.Error(t, err)

			lce, ok := err.(*report.LocalCompileError)
			require.True(t, ok)
			assert.Equal(t, test.msg, lce.Message)
		})
	}
}

// -----------------------------------------------------------------------------

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	report.InitReporter(report.LogLevelSilent)

	ctx := typing.NewContext()
	table := depm.NewSymbolTable()
	depm.PopulateUniverse(table, ctx)

	s := sema.New("Test.Mod", sema.Config{}, ctx, table)
	return NewParser("Test.Mod", strings.NewReader(src), s).Parse()
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

func TestParseModule(t *testing.T) {
	mod := parse(t, `
MODULE Test;
CONST Max = 10;
TYPE
	Node = POINTER TO NodeDesc;
	NodeDesc = RECORD
		value: INTEGER;
		next: Node
	END;
VAR
	a: ARRAY Max OF INTEGER;
	i: INTEGER;
	head: Node;

PROCEDURE Sum(VAR v: ARRAY OF INTEGER): INTEGER;
	VAR k, total: INTEGER;
BEGIN
	total := 0;
	FOR k := 0 TO Max - 1 DO total := total + v[k] END;
	RETURN total
END Sum;

BEGIN
	FOR i := 0 TO Max - 1 DO a[i] := i * 2 END;
	IF Sum(a) > 0 THEN head := NIL END
END Test.
`)

	require.NotNil(t, mod)
	assert.Empty(t, errorMessages())

	assert.Equal(t, "Test", mod.Name())
	require.Len(t, mod.Consts, 1)
	require.Len(t, mod.Types, 2)
	require.Len(t, mod.Vars, 3)
	require.Len(t, mod.Procs, 1)
	require.Len(t, mod.Body, 2)

	at, ok := mod.Vars[0].Type().(*typing.ArrayType)
	require.True(t, ok)
	assert.Equal(t, []int{10}, at.Lengths)

	pt, ok := mod.Types[0].Type().(*typing.PointerType)
	require.True(t, ok)
	assert.Equal(t, mod.Types[1].Type(), pt.Base)

	loop, ok := mod.Body[0].(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, int64(1), loop.Step)
	assert.Equal(t, int64(9), loop.High.(*ast.IntegerLit).Value)

	sum := mod.Procs[0]
	assert.Equal(t, "Sum", sum.Name())
	require.Len(t, sum.Params, 1)
	assert.True(t, sum.Params[0].Var)
	require.Len(t, sum.Body, 3)
	assert.IsType(t, &ast.ReturnStmt{}, sum.Body[2])
}

func TestParseOberon07Return(t *testing.T) {
	mod := parse(t, `
MODULE Test;
PROCEDURE Double(x: INTEGER): INTEGER;
	RETURN x * 2
END Double;
END Test.
`)

	require.NotNil(t, mod)
	assert.Empty(t, errorMessages())

	require.Len(t, mod.Procs, 1)
	require.Len(t, mod.Procs[0].Body, 1)
	assert.IsType(t, &ast.ReturnStmt{}, mod.Procs[0].Body[0])
}

func TestParseCaseAndLoop(t *testing.T) {
	mod := parse(t, `
MODULE Test;
VAR i, j: INTEGER;
BEGIN
	CASE i OF
	  0: j := 1
	| 1, 2: j := 2
	| 3..5: j := 3
	ELSE j := 0
	END;
	LOOP
		i := i + 1;
		IF i > 10 THEN EXIT END
	END
END Test.
`)

	require.NotNil(t, mod)
	assert.Empty(t, errorMessages())
	require.Len(t, mod.Body, 2)

	cs, ok := mod.Body[0].(*ast.CaseStmt)
	require.True(t, ok)
	require.Len(t, cs.Clauses, 3)
	assert.Len(t, cs.Clauses[1].Labels, 2)
	assert.Len(t, cs.Else, 1)

	assert.IsType(t, &ast.LoopStmt{}, mod.Body[1])
}

func TestParseTypeTestAndTypeCase(t *testing.T) {
	mod := parse(t, `
MODULE Test;
TYPE
	Node = POINTER TO NodeDesc;
	NodeDesc = RECORD next: Node END;
	Ext = POINTER TO ExtDesc;
	ExtDesc = RECORD (NodeDesc) value: INTEGER END;
VAR head: Node;
BEGIN
	IF head IS Ext THEN END;
	CASE head OF
	  Ext: head.value := 1
	| Node: head := NIL
	END;
	head := head.next
END Test.
`)

	require.NotNil(t, mod)
	assert.Empty(t, errorMessages())
	require.Len(t, mod.Body, 3)

	cond := mod.Body[0].(*ast.IfStmt).Cond.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpIs, cond.Op)
	assert.True(t, typing.IsBoolean(cond.Type()))

	cs := mod.Body[1].(*ast.CaseStmt)
	require.Len(t, cs.Clauses, 2)

	arm := cs.Clauses[0].Body[0].(*ast.Assignment)
	guard, ok := arm.Lhs.Selectors[0].(*ast.Typeguard)
	require.True(t, ok)
	assert.True(t, guard.Implicit)
	assert.Equal(t, mod.Types[2].Type(), guard.Type())

	// the narrowing ends with the clause
	after := mod.Body[2].(*ast.Assignment)
	assert.Equal(t, mod.Types[0].Type(), after.Lhs.Type())
	assert.Empty(t, after.Lhs.Selectors)
}

func TestParseTypeCaseErrors(t *testing.T) {
	mod := parse(t, `
MODULE Test;
TYPE
	Node = POINTER TO NodeDesc;
	NodeDesc = RECORD next: Node END;
	Ext = POINTER TO ExtDesc;
	ExtDesc = RECORD (NodeDesc) value: INTEGER END;
VAR head: Node; b: BOOLEAN;
BEGIN
	b := head IS NodeDesc;
	CASE head OF
	  Ext: head := NIL
	| Ext: head := NIL
	END
END Test.
`)

	require.NotNil(t, mod)
	msgs := errorMessages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "is not an extension of")
	assert.Equal(t, "duplicate case labels in case statement.", msgs[1])
}

func TestParseRecoversInsideStatements(t *testing.T) {
	mod := parse(t, `
MODULE Test;
VAR i: INTEGER;
BEGIN
	i := (1 + ;
	i := 2
END Test.
`)

	require.NotNil(t, mod)
	assert.Equal(t, []string{"unexpected token: `;`"}, errorMessages())

	require.Len(t, mod.Body, 1)
	assert.IsType(t, &ast.Assignment{}, mod.Body[0])
}

func TestParseAssignmentWithEquals(t *testing.T) {
	mod := parse(t, `
MODULE Test;
VAR i: INTEGER;
BEGIN
	i = 1
END Test.
`)

	require.NotNil(t, mod)
	assert.Equal(t, []string{"expected :=, found `=`"}, errorMessages())
}

func TestParseDeclarationErrorAbortsFile(t *testing.T) {
	mod := parse(t, `
MODULE Test;
VAR i INTEGER;
END Test.
`)

	assert.Nil(t, mod)
	assert.Equal(t, []string{"expected :, found `INTEGER`"}, errorMessages())
}

func TestParseModuleNameMismatch(t *testing.T) {
	mod := parse(t, "MODULE Test; END Other.")

	require.NotNil(t, mod)
	assert.Equal(t, []string{"module name mismatch: expected Test, found Other."}, errorMessages())
}

func TestParseUnexpectedEndOfFile(t *testing.T) {
	mod := parse(t, "MODULE Test; BEGIN")

	assert.Nil(t, mod)
	assert.Equal(t, []string{"expected END, found end of file"}, errorMessages())
}
