package sema

import (
	"oberonc/ast"
	"oberonc/depm"
	"oberonc/report"
	"oberonc/symfile"
	"oberonc/typing"
)

// Config holds the options of semantic analysis that depend on the project.
type Config struct {
	// SymbolPath is the list of directories searched for the symbol files of
	// imported modules.
	SymbolPath []string

	// SymbolDir is the directory the symbol file of the compiled module is
	// written to.  No symbol file is written if it is empty.
	SymbolDir string
}

// Sema performs the semantic analysis of a single module.  Its methods are
// invoked by the parser as the productions of the grammar complete: each
// returns the resolved AST node.  Errors are reported and analysis continues
// with a degraded result so that as many errors as possible are found.
type Sema struct {
	// The absolute path to the source file being analyzed.
	file string

	cfg   Config
	ctx   *typing.Context
	table *depm.SymbolTable

	// The module being analyzed.
	module *ast.Module

	// The stack of enclosing procedures.  It is empty in the module body.
	procs []*ast.ProcDecl

	// The enclosing `LOOP` statements: an entry is set once the loop contains
	// an `EXIT`.
	loops []bool

	// The pointer types whose base type is declared after them in the current
	// declaration sequence.
	forwards []forwardRef

	// The case variables of the enclosing type `CASE` clauses mapped to the
	// type of the clause label.
	narrowed map[ast.Decl]typing.Type

	// The narrowings of the enclosing case clauses, innermost last.  Entries
	// are nil for clauses that narrow nothing.
	narrowings []*narrowing
}

// narrowing records the type a case variable had before a type case clause
// narrowed it.  The previous type is nil if the variable was not narrowed.
type narrowing struct {
	decl ast.Decl
	prev typing.Type
}

// forwardRef is a pointer type whose base type is referenced by name before
// it is declared.
type forwardRef struct {
	ident   *ast.QualIdent
	pointer *typing.PointerType
}

// IdentDef is an identifier definition along with its position as collected
// by the parser for lists of variables, parameters and fields.
type IdentDef struct {
	ast.Ident

	Pos *report.TextPosition
}

// New creates a new semantic analyzer for the given source file.  The symbol
// table must already contain the universe.
func New(file string, cfg Config, ctx *typing.Context, table *depm.SymbolTable) *Sema {
	return &Sema{
		file:     file,
		cfg:      cfg,
		ctx:      ctx,
		table:    table,
		narrowed: make(map[ast.Decl]typing.Type),
	}
}

// Context returns the type context of the compilation.
func (s *Sema) Context() *typing.Context {
	return s.ctx
}

// Module returns the module being analyzed.
func (s *Sema) Module() *ast.Module {
	return s.module
}

// -----------------------------------------------------------------------------

// OnTranslationUnitStart creates the module node and its namespace.
func (s *Sema) OnTranslationUnitStart(pos *report.TextPosition, name string) *ast.Module {
	if err := s.table.CreateNamespace(name, true); err != nil {
		s.error(pos, "duplicate module definition: %s.", name)
		_ = s.table.SetNamespace(name)
	}

	s.module = ast.NewModule(pos, name, s.file)
	return s.module
}

// OnTranslationUnitEnd completes the module with its body, checks the closing
// name and writes the symbol file of the module if no errors occurred.
func (s *Sema) OnTranslationUnitEnd(pos *report.TextPosition, name string, body []ast.Stmt) {
	s.module.Body = body

	if name != s.module.Name() {
		s.error(pos, "module name mismatch: expected %s, found %s.", s.module.Name(), name)
	}

	if report.AnyErrors() || s.cfg.SymbolDir == "" {
		return
	}

	path, err := symfile.WriteFile(s.cfg.SymbolDir, s.module.Name(), s.table.ExportedSymbols(s.module.Name()))
	if err != nil {
		report.ReportStdError(s.file, err)
		return
	}

	report.ReportPhase("Wrote symbol file %s", path)
}

// OnImport imports the declarations of a module from its symbol file.
func (s *Sema) OnImport(pos *report.TextPosition, alias, name string) *ast.Import {
	imp := &ast.Import{ASTBase: ast.NewASTBaseOn(pos), Alias: alias, Module: name}
	if alias == "" {
		imp.Alias = name
	}

	for _, other := range s.module.Imports {
		if other.Module == name {
			s.error(pos, "duplicate import of module %s.", name)
			return imp
		}
	}

	if name == s.module.Name() {
		s.error(pos, "module %s must not import itself.", name)
		return imp
	}

	path, ok := depm.FindSymbolFile(name, s.cfg.SymbolPath)
	if !ok {
		s.error(pos, "module %s could not be imported.", name)
		return imp
	}

	if _, err := symfile.ReadFile(path, name, s.table, s.ctx); err != nil {
		s.error(pos, "module %s could not be imported: %s", name, err)
		return imp
	}

	if imp.Alias != name {
		s.table.AddAlias(imp.Alias, name)
	}

	report.ReportPhase("Imported %s from %s", name, path)
	s.module.Imports = append(s.module.Imports, imp)
	return imp
}

// -----------------------------------------------------------------------------

// IsType returns whether a qualified identifier names a type.  It is used by
// the parser to recognize forward references and type guards.
func (s *Sema) IsType(ident *ast.QualIdent) bool {
	_, ok := s.table.LookupIdent(ident).(*ast.TypeDecl)
	return ok
}

// IsQualifier returns whether a name refers to an imported module.
func (s *Sema) IsQualifier(name string) bool {
	return s.table.IsQualifier(name) && s.table.Lookup("", name) == nil
}

// level returns the current scope level.
func (s *Sema) level() int {
	return s.table.Level()
}

// enclosingProc returns the innermost enclosing procedure or nil in the
// module body.
func (s *Sema) enclosingProc() *ast.ProcDecl {
	if len(s.procs) == 0 {
		return nil
	}

	return s.procs[len(s.procs)-1]
}

// block returns the block receiving the declarations currently analyzed.
func (s *Sema) block() *ast.Block {
	if proc := s.enclosingProc(); proc != nil {
		return &proc.Block
	}

	return &s.module.Block
}

// assertUnique inserts a declaration into the current scope, reporting an
// error if the name is already declared in the scope or is predefined.  The
// declaration is inserted either way.
func (s *Sema) assertUnique(pos *report.TextPosition, decl ast.Decl) {
	if s.table.IsDuplicate(decl.Name()) {
		s.error(pos, "duplicate definition: %s.", decl.Name())
	}

	if s.table.IsGlobal(decl.Name()) {
		s.error(pos, "predefined identifier: %s.", decl.Name())
	}

	s.table.Insert(decl.Name(), decl)
}

// checkExport checks that only top-level declarations are exported.
func (s *Sema) checkExport(pos *report.TextPosition, decl ast.Decl) {
	if decl.Exported() {
		if decl.Level() != depm.ModuleLevel {
			s.error(pos, "only top-level declarations can be exported.")
		}

		return
	}

	if rt, ok := decl.Type().(*typing.RecordType); ok && decl.Kind() == ast.DeclType {
		for _, field := range rt.Fields {
			if field.Exported {
				s.error(pos, "cannot export fields of non-exported record type.")
				break
			}
		}
	}
}

// -----------------------------------------------------------------------------

// error reports a recoverable compile error.
func (s *Sema) error(pos *report.TextPosition, msg string, args ...interface{}) {
	report.ReportCompileError(s.file, pos, msg, args...)
}

// warn reports a compile warning.
func (s *Sema) warn(pos *report.TextPosition, msg string, args ...interface{}) {
	report.ReportCompileWarning(s.file, pos, msg, args...)
}
