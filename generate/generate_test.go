package generate

import (
	"strings"
	"testing"

	"oberonc/depm"
	"oberonc/report"
	"oberonc/sema"
	"oberonc/syntax"
	"oberonc/typing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, cfg Config, src string) *ir.Module {
	t.Helper()

	mod, err := tryGenerate(t, cfg, src)
	require.NoError(t, err)
	require.NotNil(t, mod)

	return mod
}

func tryGenerate(t *testing.T, cfg Config, src string) (*ir.Module, error) {
	t.Helper()
	report.InitReporter(report.LogLevelSilent)

	ctx := typing.NewContext()
	table := depm.NewSymbolTable()
	depm.PopulateUniverse(table, ctx)

	s := sema.New("Test.Mod", sema.Config{}, ctx, table)
	module := syntax.NewParser("Test.Mod", strings.NewReader(src), s).Parse()
	require.NotNil(t, module)

	return NewGenerator(cfg, ctx, module).Generate()
}

func findFunc(mod *ir.Module, name string) *ir.Func {
	for _, fn := range mod.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	return nil
}

func findGlobal(mod *ir.Module, name string) *ir.Global {
	for _, glob := range mod.Globals {
		if glob.Name() == name {
			return glob
		}
	}

	return nil
}

func insts(fn *ir.Func) []ir.Instruction {
	var all []ir.Instruction
	for _, block := range fn.Blocks {
		all = append(all, block.Insts...)
	}

	return all
}

func callees(fn *ir.Func) []string {
	var names []string
	for _, inst := range insts(fn) {
		if call, ok := inst.(*ir.InstCall); ok {
			if callee, ok := call.Callee.(*ir.Func); ok {
				names = append(names, callee.Name())
			}
		}
	}

	return names
}

// -----------------------------------------------------------------------------

func TestGenerateGlobals(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
CONST Max = 10;
VAR
	a*: ARRAY Max OF INTEGER;
	i: INTEGER;
BEGIN
	a[0] := Max
END Test.
`)

	a := findGlobal(mod, "Test_a")
	require.NotNil(t, a)
	assert.Equal(t, "[10 x i32]", a.ContentType.LLString())
	assert.Equal(t, enum.LinkageNone, a.Linkage)

	i := findGlobal(mod, "Test_i")
	require.NotNil(t, i)
	assert.Equal(t, "i32", i.ContentType.LLString())
	assert.Equal(t, enum.LinkageInternal, i.Linkage)

	body := findFunc(mod, "Test__body")
	require.NotNil(t, body)
	assert.Equal(t, "i32", body.Sig.RetType.LLString())
}

func TestGenerateProcedureLinkage(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
PROCEDURE P*;
BEGIN
END P;

PROCEDURE Q;
BEGIN
END Q;
END Test.
`)

	p := findFunc(mod, "Test_P")
	require.NotNil(t, p)
	assert.Equal(t, enum.LinkageNone, p.Linkage)
	assert.Contains(t, p.FuncAttrs, enum.FuncAttrNoUnwind)

	q := findFunc(mod, "Test_Q")
	require.NotNil(t, q)
	assert.Equal(t, enum.LinkageInternal, q.Linkage)
}

func TestGenerateOpenArrayParameter(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
VAR a: ARRAY 4 OF INTEGER; s: INTEGER;

PROCEDURE Sum(VAR v: ARRAY OF INTEGER): INTEGER;
	VAR k, total: INTEGER;
BEGIN
	total := 0;
	FOR k := 0 TO SHORT(LEN(v)) - 1 DO total := total + v[k] END;
	RETURN total
END Sum;

BEGIN
	s := Sum(a)
END Test.
`)

	sum := findFunc(mod, "Test_Sum")
	require.NotNil(t, sum)
	require.Len(t, sum.Params, 2)
	assert.Equal(t, "i32*", sum.Params[0].Type().LLString())
	assert.Equal(t, "i64", sum.Params[1].Type().LLString())
	assert.Equal(t, "v.len0", sum.Params[1].Name())

	body := findFunc(mod, "Test__body")
	require.NotNil(t, body)
	assert.Contains(t, callees(body), "Test_Sum")
}

func TestGenerateNegativeStepLoop(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
VAR i, j: INTEGER;
BEGIN
	FOR i := 10 TO 0 BY -1 DO j := j + i END
END Test.
`)

	var preds []enum.IPred
	for _, inst := range insts(findFunc(mod, "Test__body")) {
		if cmp, ok := inst.(*ir.InstICmp); ok {
			preds = append(preds, cmp.Pred)
		}
	}

	assert.Equal(t, []enum.IPred{enum.IPredSGE, enum.IPredSLT}, preds)
}

func TestGenerateShortCircuit(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
VAR i, j: INTEGER; b: BOOLEAN;
BEGIN
	b := (i > 0) & (j > 0)
END Test.
`)

	phis := 0
	for _, inst := range insts(findFunc(mod, "Test__body")) {
		if phi, ok := inst.(*ir.InstPhi); ok {
			phis++
			assert.Len(t, phi.Incs, 2)
		}
	}

	assert.Equal(t, 1, phis)
}

func TestGenerateRecordsAndPointers(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
TYPE
	Node = POINTER TO NodeDesc;
	NodeDesc = RECORD
		value: INTEGER;
		next: Node
	END;
VAR head: Node;
BEGIN
	NEW(head);
	head.value := 1;
	head.next := NIL;
	DISPOSE(head)
END Test.
`)

	head := findGlobal(mod, "Test_head")
	require.NotNil(t, head)
	assert.Equal(t, "%Test_NodeDesc*", head.ContentType.LLString())

	assert.Equal(t, []string{"malloc", "free"}, callees(findFunc(mod, "Test__body")))
}

func TestGenerateLocalRecordsPerProcedure(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
PROCEDURE A;
TYPE R = RECORD x: INTEGER END;
VAR r: R;
BEGIN
	r.x := 1
END A;

PROCEDURE B;
TYPE R = RECORD y: BOOLEAN END;
VAR r: R;
BEGIN
	r.y := TRUE
END B;
END Test.
`)

	defs := make(map[string]string)
	for _, def := range mod.TypeDefs {
		defs[def.Name()] = def.LLString()
	}

	assert.Equal(t, "{ i32 }", defs["Test_A_R"])
	assert.Equal(t, "{ i1 }", defs["Test_B_R"])
	assert.NotContains(t, defs, "Test_R")
}

func TestGenerateProcedureNamedLikeModule(t *testing.T) {
	mod := generate(t, Config{EnableMain: true}, `
MODULE Test;
PROCEDURE Test;
BEGIN
END Test;
BEGIN
	Test
END Test.
`)

	seen := make(map[string]bool)
	for _, fn := range mod.Funcs {
		assert.False(t, seen[fn.Name()], "duplicate function %s", fn.Name())
		seen[fn.Name()] = true
	}

	require.NotNil(t, findFunc(mod, "Test_Test"))
	assert.Equal(t, []string{"Test_Test"}, callees(findFunc(mod, "Test__body")))
	assert.Equal(t, []string{"Test__body"}, callees(findFunc(mod, "main")))
}

const typeTestSource = `
MODULE Test;
TYPE
	Node = POINTER TO NodeDesc;
	NodeDesc = RECORD next: Node END;
	Ext = POINTER TO ExtDesc;
	ExtDesc = RECORD (NodeDesc) value: INTEGER END;
VAR head: Node; e: Ext; b: BOOLEAN;

PROCEDURE Touch(VAR n: NodeDesc);
BEGIN
	IF n IS ExtDesc THEN n(ExtDesc).value := 1 END
END Touch;

BEGIN
	NEW(e);
	head := e;
	b := head IS Ext;
	head(Ext).value := 2;
	CASE head OF
		Ext: head.value := 3
	END;
	Touch(head^)
END Test.
`

func TestGenerateTypeDescriptors(t *testing.T) {
	mod := generate(t, Config{}, typeTestSource)

	base := findGlobal(mod, "Test_NodeDesc.td")
	require.NotNil(t, base)
	assert.True(t, base.Immutable)
	assert.Equal(t, enum.LinkageNone, base.Linkage)

	ext := findGlobal(mod, "Test_ExtDesc.td")
	require.NotNil(t, ext)
	assert.Equal(t, "%typedesc", ext.ContentType.String())

	ids := findGlobal(mod, "Test_ExtDesc.ids")
	require.NotNil(t, ids)
	assert.Equal(t, "[2 x i8*]", ids.ContentType.LLString())
	assert.Equal(t, enum.LinkagePrivate, ids.Linkage)
}

func TestGenerateTypeTests(t *testing.T) {
	mod := generate(t, Config{}, typeTestSource)

	touch := findFunc(mod, "Test_Touch")
	require.NotNil(t, touch)
	require.Len(t, touch.Params, 2)
	assert.Equal(t, "i8*", touch.Params[1].Type().LLString())

	body := findFunc(mod, "Test__body")
	require.NotNil(t, body)

	var phis int
	for _, inst := range insts(body) {
		if _, ok := inst.(*ir.InstPhi); ok {
			phis++
		}
	}

	// IS and the single clause of the CASE each test the tag behind a NIL test
	assert.Equal(t, 4, phis)
	assert.NotContains(t, callees(body), "llvm.ubsantrap")
}

func TestGenerateCheckedTypeguards(t *testing.T) {
	mod := generate(t, Config{Sanitize: map[string]bool{depm.SanitizeGuard: true}}, typeTestSource)

	assert.Contains(t, callees(findFunc(mod, "Test__body")), "llvm.ubsantrap")
	assert.Contains(t, callees(findFunc(mod, "Test_Touch")), "llvm.ubsantrap")
}

func TestGenerateByteShifts(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
VAR b: BYTE;
BEGIN
	b := ASR(b, 1);
	b := ROR(b, 2)
END Test.
`)

	body := findFunc(mod, "Test__body")
	assert.Contains(t, callees(body), "llvm.fshr.i8")

	var lshr bool
	for _, inst := range insts(body) {
		if v, ok := inst.(*ir.InstLShr); ok {
			lshr = true
			assert.Equal(t, "i8", v.Type().LLString())
		}
	}

	assert.True(t, lshr)
}

func TestGenerateStringComparison(t *testing.T) {
	mod := generate(t, Config{}, `
MODULE Test;
VAR s: ARRAY 8 OF CHAR; b: BOOLEAN;
BEGIN
	s := "abc";
	b := s = "abc"
END Test.
`)

	names := callees(findFunc(mod, "Test__body"))
	assert.Contains(t, names, "llvm.memcpy.p0i8.p0i8.i64")
	assert.Contains(t, names, "strcmp")

	var strs int
	for _, glob := range mod.Globals {
		if strings.HasPrefix(glob.Name(), "str.") {
			strs++
			assert.True(t, glob.Immutable)
		}
	}

	assert.Equal(t, 1, strs)
}

func TestGenerateSanitizers(t *testing.T) {
	src := `
MODULE Test;
VAR a: ARRAY 4 OF INTEGER; i: INTEGER;
BEGIN
	a[i] := i DIV 2
END Test.
`

	plain := generate(t, Config{}, src)
	assert.NotContains(t, callees(findFunc(plain, "Test__body")), "llvm.ubsantrap")

	checked := generate(t, Config{Sanitize: map[string]bool{depm.SanitizeBounds: true}}, src)
	assert.Contains(t, callees(findFunc(checked, "Test__body")), "llvm.ubsantrap")
}

func TestGenerateMain(t *testing.T) {
	src := "MODULE Test; END Test."

	assert.Nil(t, findFunc(generate(t, Config{}, src), "main"))

	main := findFunc(generate(t, Config{EnableMain: true}, src), "main")
	require.NotNil(t, main)
	assert.Equal(t, []string{"Test__body"}, callees(main))
}

func TestGenerateRefusesModulesWithErrors(t *testing.T) {
	mod, err := tryGenerate(t, Config{}, `
MODULE Test;
BEGIN
	x := 1
END Test.
`)

	assert.Nil(t, mod)
	assert.Error(t, err)
}

func TestRefModes(t *testing.T) {
	g := NewGenerator(Config{}, typing.NewContext(), nil)
	assert.False(t, g.deref())

	g.setRefMode(true)
	assert.True(t, g.deref())

	g.setRefMode(false)
	assert.False(t, g.deref())

	g.restoreRefMode()
	assert.True(t, g.deref())

	g.restoreRefMode()
	assert.False(t, g.deref())
}
