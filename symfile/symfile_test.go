package symfile

import (
	"bytes"
	"testing"

	"oberonc/ast"
	"oberonc/depm"
	"oberonc/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listModule builds the exported declarations of:
//
//	MODULE Lists;
//	TYPE Node* = POINTER TO NodeDesc;
//	  NodeDesc* = RECORD value*: INTEGER; next*: Node; hidden: CHAR END;
//	CONST Max* = 10;
//	VAR head*: Node; grid*: ARRAY 3, 4 OF INTEGER;
//	PROCEDURE Push*(VAR l: Node; x: INTEGER): BOOLEAN;
func listModule(ctx *typing.Context) []ast.Decl {
	node := ctx.Declare(ctx.PointerTo(nil), "Lists", "Node").(*typing.PointerType)
	desc := ctx.Declare(ctx.NewRecord(nil, []*typing.Field{
		{Name: "value", Exported: true, Type: ctx.Integer},
		{Name: "next", Exported: true, Type: node},
		{Name: "hidden", Type: ctx.Char},
	}), "Lists", "NodeDesc")
	node.Base = desc

	maxDecl := ast.NewDecl(ast.DeclConst, "Max", true, "Lists", ctx.Integer).(*ast.ConstDecl)
	maxDecl.Value = &ast.IntegerLit{ExprBase: ast.NewExprBase(nil, ctx.Integer), Value: 10}

	push := ctx.NewProcedure([]*typing.Param{
		{Name: "l", Var: true, Type: node},
		{Name: "x", Type: ctx.Integer},
	}, ctx.Boolean, false)

	return []ast.Decl{
		ast.NewDecl(ast.DeclType, "Node", true, "Lists", node),
		ast.NewDecl(ast.DeclType, "NodeDesc", true, "Lists", desc),
		maxDecl,
		ast.NewDecl(ast.DeclVar, "head", true, "Lists", node),
		ast.NewDecl(ast.DeclVar, "grid", true, "Lists", ctx.ArrayOf([]int{3, 4}, ctx.Integer)),
		ast.NewDecl(ast.DeclProc, "Push", true, "Lists", push),
	}
}

func roundTrip(t *testing.T, module string, decls []ast.Decl) ([]ast.Decl, *depm.SymbolTable, *typing.Context) {
	buf := &bytes.Buffer{}
	require.NoError(t, Export(buf, module, decls))

	table := depm.NewSymbolTable()
	ctx := typing.NewContext()
	imported, err := Import(buf, module, table, ctx)
	require.NoError(t, err)

	return imported, table, ctx
}

func TestRoundTripRecursiveTypes(t *testing.T) {
	decls, table, ctx := roundTrip(t, "Lists", listModule(typing.NewContext()))
	require.Len(t, decls, 6)

	node, ok := decls[0].Type().(*typing.PointerType)
	require.True(t, ok)
	assert.Equal(t, "Node", node.Name())
	assert.Equal(t, "Lists", node.Module())

	desc, ok := node.Base.(*typing.RecordType)
	require.True(t, ok)
	assert.Equal(t, "NodeDesc", desc.Name())
	assert.Same(t, desc, decls[1].Type())

	require.Len(t, desc.Fields, 3)
	assert.Same(t, ctx.Integer, desc.Fields[0].Type)
	assert.Same(t, node, desc.Fields[1].Type)
	assert.Equal(t, "_", desc.Fields[2].Name)
	assert.False(t, desc.Fields[2].Exported)
	assert.Equal(t, 2, desc.Fields[2].Index)

	assert.Same(t, node, decls[3].Type())
	assert.Same(t, node, table.Lookup("Lists", "head").Type())
}

func TestRoundTripDeclarations(t *testing.T) {
	decls, _, ctx := roundTrip(t, "Lists", listModule(typing.NewContext()))

	maxDecl, ok := decls[2].(*ast.ConstDecl)
	require.True(t, ok)
	assert.Same(t, ctx.Integer, maxDecl.Type())
	assert.Equal(t, int64(10), maxDecl.Value.(*ast.IntegerLit).Value)

	grid, ok := decls[4].Type().(*typing.ArrayType)
	require.True(t, ok)
	assert.Equal(t, []int{3, 4}, grid.Lengths)
	assert.Same(t, ctx.Integer, grid.Member())

	push, ok := decls[5].(*ast.ProcDecl)
	require.True(t, ok)
	assert.True(t, push.External)

	sig := push.Signature()
	require.NotNil(t, sig)
	require.Len(t, sig.Params, 2)
	assert.True(t, sig.Params[0].Var)
	assert.Same(t, decls[0].Type(), sig.Params[0].Type)
	assert.False(t, sig.Params[1].Var)
	assert.Same(t, ctx.Integer, sig.Params[1].Type)
	assert.Same(t, ctx.Boolean, sig.Return)
}

func TestRoundTripConstants(t *testing.T) {
	src := typing.NewContext()
	lit := func(typ typing.Type, value ast.Expr) ast.Decl {
		return &ast.ConstDecl{DeclBase: ast.NewDeclBase(nil, &ast.Ident{Name: "C" + typ.Name(), Exported: true}, "Consts", typ, 1), Value: value}
	}
	base := func(typ typing.Type) ast.ExprBase {
		return ast.NewExprBase(nil, typ)
	}

	decls := []ast.Decl{
		lit(src.String, &ast.StringLit{ExprBase: base(src.String), Value: "hello"}),
		lit(src.Boolean, &ast.BooleanLit{ExprBase: base(src.Boolean), Value: true}),
		lit(src.Char, &ast.CharLit{ExprBase: base(src.Char), Value: 'x'}),
		lit(src.ShortInt, &ast.IntegerLit{ExprBase: base(src.ShortInt), Value: -300}),
		lit(src.Integer, &ast.IntegerLit{ExprBase: base(src.Integer), Value: 70000}),
		lit(src.LongInt, &ast.IntegerLit{ExprBase: base(src.LongInt), Value: 1 << 40}),
		lit(src.Real, &ast.RealLit{ExprBase: base(src.Real), Value: 1.5}),
		lit(src.LongReal, &ast.RealLit{ExprBase: base(src.LongReal), Value: 2.25}),
		lit(src.Set, &ast.SetLit{ExprBase: base(src.Set), Value: 0b1011}),
	}

	imported, _, _ := roundTrip(t, "Consts", decls)
	require.Len(t, imported, len(decls))

	for i, decl := range imported {
		want := decls[i].(*ast.ConstDecl)
		got := decl.(*ast.ConstDecl)

		assert.Equal(t, want.Name(), got.Name())
		assert.Equal(t, want.Type().Kind(), got.Type().Kind())
		assert.Equal(t, want.Value, got.Value, want.Name())
	}
}

func TestImportRejectsVersionMismatch(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.WriteLong(0)
	w.WriteString("Old.Mod")
	w.WriteChar(Version - 1)
	w.WriteChar(0)
	require.NoError(t, w.Flush())

	_, err := Import(buf, "Old", depm.NewSymbolTable(), typing.NewContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestImportRejectsUnresolvedForwardReference(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.WriteLong(0)
	w.WriteString("Fwd.Mod")
	w.WriteChar(Version)

	// TYPE P* = POINTER TO <ref 22>, where 22 is never defined
	w.WriteChar(int8(ast.DeclType))
	w.WriteString("P")
	w.WriteRef(firstRef)
	w.WriteString("")
	w.WriteChar(int8(typing.KindPointer))
	w.WriteRef(-(firstRef + 1))
	w.WriteChar(0)
	require.NoError(t, w.Flush())

	_, err := Import(buf, "Fwd", depm.NewSymbolTable(), typing.NewContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved forward type references")
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, "Lists", listModule(typing.NewContext()))
	require.NoError(t, err)
	assert.FileExists(t, path)

	table := depm.NewSymbolTable()
	decls, err := ReadFile(path, "Lists", table, typing.NewContext())
	require.NoError(t, err)
	assert.Len(t, decls, 6)
	assert.True(t, table.HasNamespace("Lists"))
}

func TestWriterRejectsOutOfRangeRef(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	w.WriteRef(1000)
	assert.Error(t, w.Flush())
}
