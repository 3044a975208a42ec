package depm

import (
	"os"
	"path/filepath"
	"testing"

	"oberonc/ast"
	"oberonc/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVar(name, module string, typ typing.Type) ast.Decl {
	return ast.NewDecl(ast.DeclVar, name, false, module, typ)
}

func TestSymbolTableScopes(t *testing.T) {
	ctx := typing.NewContext()
	st := NewSymbolTable()
	PopulateUniverse(st, ctx)

	require.NoError(t, st.CreateNamespace("Main", true))
	assert.Equal(t, ModuleLevel, st.Level())

	x := newVar("x", "Main", ctx.Integer)
	st.Insert("x", x)
	assert.True(t, st.IsDuplicate("x"))
	assert.True(t, st.IsGlobal("INTEGER"))
	assert.False(t, st.IsGlobal("x"))

	st.OpenScope()
	assert.Equal(t, ModuleLevel+1, st.Level())
	assert.False(t, st.IsDuplicate("x"))

	inner := newVar("x", "Main", ctx.Real)
	st.Insert("x", inner)
	assert.Same(t, inner, st.Lookup("", "x"))

	// the universe is consulted after the scope chain
	assert.IsType(t, &ast.PredefinedProc{}, st.Lookup("", "INC"))

	require.NoError(t, st.CloseScope())
	assert.Same(t, x, st.Lookup("", "x"))
	assert.Error(t, st.CloseScope())
}

func TestSymbolTableNamespaces(t *testing.T) {
	ctx := typing.NewContext()
	st := NewSymbolTable()

	require.NoError(t, st.CreateNamespace("Texts", false))
	require.NoError(t, st.CreateNamespace("Main", true))
	assert.Error(t, st.CreateNamespace("Main", false))

	w := newVar("W", "Texts", ctx.Integer)
	require.NoError(t, st.Import("Texts", "W", w))
	assert.Error(t, st.Import("Files", "W", w))

	st.AddAlias("T", "Texts")
	assert.True(t, st.IsQualifier("T"))
	assert.True(t, st.IsQualifier("Texts"))
	assert.False(t, st.IsQualifier("Files"))

	assert.Same(t, w, st.Lookup("T", "W"))
	assert.Same(t, w, st.LookupIdent(ast.NewQualIdent(nil, "Texts", "W")))
	assert.Nil(t, st.Lookup("", "W"))
	assert.Nil(t, st.Lookup("Files", "W"))
}

func TestExportedSymbolsInOrder(t *testing.T) {
	ctx := typing.NewContext()
	st := NewSymbolTable()
	require.NoError(t, st.CreateNamespace("M", true))

	for _, name := range []string{"c", "a", "b"} {
		st.Insert(name, ast.NewDecl(ast.DeclVar, name, name != "a", "M", ctx.Integer))
	}

	var names []string
	for _, decl := range st.ExportedSymbols("M") {
		names = append(names, decl.Name())
	}

	assert.Equal(t, []string{"c", "b"}, names)
}

func TestUniverse(t *testing.T) {
	ctx := typing.NewContext()
	st := NewSymbolTable()
	PopulateUniverse(st, ctx)

	decl := st.Lookup("", "LONGINT")
	require.IsType(t, &ast.TypeDecl{}, decl)
	assert.Same(t, ctx.LongInt, decl.Type())

	abs := st.Lookup("", "ABS").(*ast.PredefinedProc)
	assert.True(t, abs.IsOverloaded())
	assert.Len(t, abs.Signatures, 5)

	maxProc := st.Lookup("", "MAX").(*ast.PredefinedProc)
	assert.True(t, maxProc.IsCast)
	assert.False(t, st.Lookup("", "ODD").(*ast.PredefinedProc).IsOverloaded())
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()

	projFile := `
name = "Hello"
out-dir = "build"
include = ["lib"]
enable-main = true
sanitize = ["bounds", "div", "guard"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oberon.toml"), []byte(projFile), 0644))

	proj, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "Hello", proj.Name)
	assert.Equal(t, filepath.Join(dir, "Hello.Mod"), proj.SourcePath)
	assert.Equal(t, filepath.Join(dir, "build"), proj.OutDir)
	assert.Equal(t, dir, proj.SymDir)
	assert.Equal(t, []string{filepath.Join(dir, "lib")}, proj.Include)
	assert.True(t, proj.EnableMain)
	assert.True(t, proj.Sanitize[SanitizeBounds])
	assert.False(t, proj.Sanitize[SanitizeNil])
	assert.True(t, proj.Sanitize[SanitizeGuard])
	assert.Equal(t, []string{dir, filepath.Join(dir, "lib")}, proj.SymbolPath())
}

func TestLoadProjectErrors(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "oberon.toml"), []byte(`name = "1abc"`), 0644))
	_, err := LoadProject(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "oberon.toml"), []byte("name = \"A\"\nsanitize = [\"overflow\"]"), 0644))
	_, err = LoadProject(dir)
	assert.Error(t, err)

	_, err = LoadProject(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadSourceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Lists.Mod")
	require.NoError(t, os.WriteFile(src, []byte("MODULE Lists; END Lists."), 0644))

	proj, err := LoadProject(src)
	require.NoError(t, err)
	assert.Equal(t, "Lists", proj.Name)
	assert.Equal(t, src, proj.SourcePath)
	assert.Equal(t, dir, proj.OutDir)
}

func TestFindSymbolFile(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(b, "Out.smb"), []byte{0}, 0644))

	path, ok := FindSymbolFile("Out", []string{a, b})
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(b, "Out.smb"), path)

	_, ok = FindSymbolFile("In", []string{a, b})
	assert.False(t, ok)
}
