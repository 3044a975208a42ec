package generate

import (
	"fmt"

	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"

	"github.com/golang-collections/collections/stack"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
)

// Config holds the options of code generation that depend on the project.
type Config struct {
	// EnableMain indicates that a C `main` function calling the module body
	// should be generated.
	EnableMain bool

	// Sanitize is the set of enabled runtime checks: the keys are the
	// `depm.Sanitize*` options.
	Sanitize map[string]bool
}

// Generator is responsible for converting the typed AST of a module into an
// LLVM module.  Generators are created once per module.
type Generator struct {
	cfg Config
	ctx *typing.Context

	// module is the module being converted.
	module *ast.Module

	// mod is the LLVM module being generated.
	mod *ir.Module

	// llTypes maps the types of the module to their LLVM types.
	llTypes map[typing.Type]types.Type

	// recordCounter is used to name anonymous record types.
	recordCounter int

	// recordNames maps records to the name of their structure.  Records that
	// are not declared at module level are in `localRecords`.
	recordNames  map[*typing.RecordType]string
	localRecords map[*typing.RecordType]bool

	// typeDefs contains the record structures by name.  Records imported
	// through several modules share their structure.
	typeDefs map[string]types.Type

	// typeDescs contains the type descriptor globals by name.
	typeDescs map[string]*ir.Global

	// tdType is the structure of type descriptors.  It is declared on first
	// use.
	tdType *types.StructType

	// values maps the variables, parameters and procedures to their LLVM
	// values: the address of variables and the functions of procedures.
	values map[ast.Decl]value.Value

	// openLengths maps the open array parameters of the procedure being
	// generated to the lengths of their dimensions.
	openLengths map[ast.Decl][]value.Value

	// recordTags maps the variable record parameters of the procedure being
	// generated to the type descriptors passed along with them.
	recordTags map[ast.Decl]value.Value

	// runtime contains the declared runtime functions and intrinsics by name.
	runtime map[string]*ir.Func

	// strings contains the interned string literal globals by value.
	strings map[string]*ir.Global

	// refModes is the stack of reference modes: the top is true when
	// designators are lowered to their values and false when they are lowered
	// to their addresses.
	refModes *stack.Stack

	// enclosingFunc is the function enclosing the block being generated.
	enclosingFunc *ir.Func

	// proc is the procedure being generated.  It is nil in the module body.
	proc *ast.ProcDecl

	// entry is the entry block of the enclosing function: it holds all stack
	// allocations.
	entry *ir.Block

	// block is the current block being generated.
	block *ir.Block

	// loopExits is the stack of blocks `EXIT` statements branch to.
	loopExits []*ir.Block
}

// genError is raised by the generator when a construct cannot be lowered.
type genError struct {
	msg string
}

// NewGenerator creates a new generator for the given module.
func NewGenerator(cfg Config, ctx *typing.Context, module *ast.Module) *Generator {
	return &Generator{
		cfg:          cfg,
		ctx:          ctx,
		module:       module,
		mod:          ir.NewModule(),
		llTypes:      make(map[typing.Type]types.Type),
		recordNames:  make(map[*typing.RecordType]string),
		localRecords: make(map[*typing.RecordType]bool),
		typeDefs:     make(map[string]types.Type),
		typeDescs:    make(map[string]*ir.Global),
		values:       make(map[ast.Decl]value.Value),
		openLengths:  make(map[ast.Decl][]value.Value),
		recordTags:   make(map[ast.Decl]value.Value),
		runtime:      make(map[string]*ir.Func),
		strings:      make(map[string]*ir.Global),
		refModes:     stack.New(),
	}
}

// Generate converts the module into an LLVM module.  No code is generated for
// modules with compile errors.
func (g *Generator) Generate() (mod *ir.Module, err error) {
	if report.AnyErrors() {
		return nil, errors.Errorf("module %s has errors: no code generated", g.module.Name())
	}

	defer func() {
		if x := recover(); x != nil {
			gerr, ok := x.(*genError)
			if !ok {
				panic(x)
			}

			mod, err = nil, errors.Errorf("failed to generate module %s: %s", g.module.Name(), gerr.msg)
		}
	}()

	g.mod.SourceFilename = g.module.File

	g.nameRecords(g.module.Name(), g.module.Types, false)
	g.nameLocalRecords(g.module.Procs)
	g.genTypeDescs(g.module.Types)

	for _, vd := range g.module.Vars {
		g.genGlobal(vd)
	}

	g.declareProcs(g.module.Procs)
	g.genProcs(g.module.Procs)

	body := g.genModuleBody()
	if g.cfg.EnableMain {
		g.genMain(body)
	}

	return g.mod, nil
}

// fail aborts the generation of the module.
func (g *Generator) fail(msg string, args ...interface{}) {
	panic(&genError{msg: fmt.Sprintf(msg, args...)})
}

// -----------------------------------------------------------------------------

// globalName returns the LLVM name of a module level declaration or of a
// procedure.  Names are qualified by their module and nested procedures by
// their enclosing procedures.  Oberon identifiers contain no underscores so
// the qualified names never clash with each other or with runtime symbols.
func (g *Generator) globalName(decl ast.Decl) string {
	if proc, ok := decl.(*ast.ProcDecl); ok && proc.Parent != nil {
		return g.globalName(proc.Parent) + "_" + proc.Name()
	}

	return decl.Module() + "_" + decl.Name()
}

// bodyName returns the name of the body function of a module.
func bodyName(module string) string {
	return module + "__body"
}

// linkage returns the linkage of a module level declaration.  Exported
// definitions use the default external linkage.
func linkage(decl ast.Decl) enum.Linkage {
	if decl.Exported() {
		return enum.LinkageNone
	}

	return enum.LinkageInternal
}

// genGlobal generates a zero-initialized global variable.
func (g *Generator) genGlobal(vd *ast.VarDecl) {
	typ := g.convType(vd.Type())

	glob := g.mod.NewGlobalDef(g.globalName(vd), constant.NewZeroInitializer(typ))
	glob.Linkage = linkage(vd)
	glob.Align = ir.Align(g.alignOf(vd.Type()))

	g.values[vd] = glob
}

// lookupValue returns the LLVM value of a declaration.  Declarations imported
// from other modules are declared on first use.
func (g *Generator) lookupValue(decl ast.Decl) value.Value {
	if val, ok := g.values[decl]; ok {
		return val
	}

	if decl.Module() == g.module.Name() {
		g.fail("declaration %s has no value", decl.Name())
	}

	var val value.Value
	switch v := decl.(type) {
	case *ast.VarDecl:
		glob := g.mod.NewGlobal(g.globalName(v), g.convType(v.Type()))
		glob.Linkage = enum.LinkageExternal
		glob.Align = ir.Align(g.alignOf(v.Type()))
		val = glob
	case *ast.ProcDecl:
		val = g.declareFunc(g.globalName(v), v.Signature(), nil)
	default:
		g.fail("cannot import %s %s", decl.Kind(), decl.Name())
	}

	g.values[decl] = val
	return val
}

// -----------------------------------------------------------------------------

// declareProcs declares the functions of a list of procedures and of their
// nested procedures.
func (g *Generator) declareProcs(procs []*ast.ProcDecl) {
	for _, proc := range procs {
		fn := g.declareFunc(g.globalName(proc), proc.Signature(), proc.Params)
		fn.Linkage = linkage(proc)
		fn.FuncAttrs = append(fn.FuncAttrs, enum.FuncAttrNoUnwind)

		g.values[proc] = fn
		g.declareProcs(proc.Procs)
	}
}

// declareFunc declares a function with the given signature.  Open arrays are
// passed as a pointer to their elements followed by the length of each open
// dimension and variable records are followed by their type descriptor.  The
// parameters are left unnamed for external declarations.
func (g *Generator) declareFunc(name string, sig *typing.ProcedureType, decls []*ast.ParamDecl) *ir.Func {
	var params []*ir.Param
	for i, param := range sig.Params {
		pname := ""
		if decls != nil {
			pname = decls[i].Name()
		}

		params = append(params, ir.NewParam(pname, g.convParamType(param)))

		if passesTypeDesc(param) {
			tdName := ""
			if pname != "" {
				tdName = pname + ".td"
			}

			params = append(params, ir.NewParam(tdName, types.I8Ptr))
		}

		if at, ok := param.Type.(*typing.ArrayType); ok {
			for dim, length := range at.Lengths {
				if length != 0 {
					continue
				}

				lname := ""
				if pname != "" {
					lname = fmt.Sprintf("%s.len%d", pname, dim)
				}

				params = append(params, ir.NewParam(lname, types.I64))
			}
		}
	}

	return g.mod.NewFunc(name, g.convReturnType(sig), params...)
}

// genProcs generates the bodies of a list of procedures and of their nested
// procedures.
func (g *Generator) genProcs(procs []*ast.ProcDecl) {
	for _, proc := range procs {
		g.genProc(proc)
		g.genProcs(proc.Procs)
	}
}

// genProc generates the body of a procedure.
func (g *Generator) genProc(proc *ast.ProcDecl) {
	fn := g.values[proc].(*ir.Func)
	g.startFunc(fn, proc)

	g.genParams(fn, proc)
	g.genLocals(proc.Vars)
	g.genStmts(proc.Body)

	if !g.terminated() {
		if sig := proc.Signature(); sig.Return != nil {
			g.block.NewUnreachable()
		} else {
			g.block.NewRet(nil)
		}
	}

	g.openLengths = make(map[ast.Decl][]value.Value)
	g.recordTags = make(map[ast.Decl]value.Value)
}

// genParams binds the parameters of a procedure.  Scalar value parameters are
// copied to the stack so that they can be assigned; all other parameters are
// used through the pointer they are passed as.
func (g *Generator) genParams(fn *ir.Func, proc *ast.ProcDecl) {
	i := 0
	for _, pd := range proc.Params {
		param := fn.Params[i]
		i++

		switch t := pd.Type().(type) {
		case *typing.ArrayType:
			lengths := make([]value.Value, len(t.Lengths))
			for dim, length := range t.Lengths {
				if length == 0 {
					lengths[dim] = fn.Params[i]
					i++
				} else {
					lengths[dim] = constant.NewInt(types.I64, int64(length))
				}
			}

			g.openLengths[pd] = lengths
			g.values[pd] = param
		case *typing.RecordType:
			g.values[pd] = param
			if pd.Var {
				g.recordTags[pd] = fn.Params[i]
				i++
			}
		default:
			if pd.Var {
				g.values[pd] = param
			} else {
				slot := g.entry.NewAlloca(param.Type())
				slot.Align = ir.Align(g.alignOf(pd.Type()))
				g.block.NewStore(param, slot)
				g.values[pd] = slot
			}
		}
	}
}

// genLocals allocates and zeroes the local variables of a procedure.
func (g *Generator) genLocals(vars []*ast.VarDecl) {
	for _, vd := range vars {
		typ := g.convType(vd.Type())

		slot := g.entry.NewAlloca(typ)
		slot.Align = ir.Align(g.alignOf(vd.Type()))
		slot.SetName(vd.Name())
		g.block.NewStore(constant.NewZeroInitializer(typ), slot)

		g.values[vd] = slot
	}
}

// genModuleBody generates the module body function: it runs the bodies of the
// imported modules and then the statements of the module.
func (g *Generator) genModuleBody() *ir.Func {
	body := g.mod.NewFunc(bodyName(g.module.Name()), types.I32)
	body.FuncAttrs = append(body.FuncAttrs, enum.FuncAttrNoUnwind)
	g.startFunc(body, nil)

	for _, imp := range g.module.Imports {
		g.block.NewCall(g.mod.NewFunc(bodyName(imp.Module), types.I32))
	}

	g.genStmts(g.module.Body)

	if !g.terminated() {
		g.block.NewRet(constant.NewInt(types.I32, 0))
	}

	return body
}

// genMain generates a C `main` function calling the module body.
func (g *Generator) genMain(body *ir.Func) {
	main := g.mod.NewFunc("main", types.I32)
	main.FuncAttrs = append(main.FuncAttrs, enum.FuncAttrNoUnwind)

	block := main.NewBlock("")
	block.NewRet(block.NewCall(body))
}

// -----------------------------------------------------------------------------

// startFunc prepares the generator to generate the body of a function.
func (g *Generator) startFunc(fn *ir.Func, proc *ast.ProcDecl) {
	g.enclosingFunc = fn
	g.proc = proc
	g.entry = fn.NewBlock("")
	g.block = g.entry
	g.loopExits = nil
}

// appendBlock adds a new basic block to the current function.  It does *not*
// set the current block to this new block.  Block names contain a dot so that
// they never clash with the names of parameters and variables.
func (g *Generator) appendBlock() *ir.Block {
	return g.enclosingFunc.NewBlock(fmt.Sprintf("bb.%d", len(g.enclosingFunc.Blocks)))
}

// terminated returns whether the current block already has a terminator.
func (g *Generator) terminated() bool {
	return g.block.Term != nil
}

// -----------------------------------------------------------------------------

// setRefMode pushes a reference mode: designators are lowered to their values
// if `deref` is set and to their addresses otherwise.
func (g *Generator) setRefMode(deref bool) {
	g.refModes.Push(deref)
}

// restoreRefMode pops the current reference mode.
func (g *Generator) restoreRefMode() {
	g.refModes.Pop()
}

// deref returns whether designators are lowered to their values.  Designators
// are lowered to their addresses when no reference mode is set.
func (g *Generator) deref() bool {
	if g.refModes.Len() == 0 {
		return false
	}

	return g.refModes.Peek().(bool)
}
