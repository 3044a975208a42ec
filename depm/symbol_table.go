package depm

import (
	"oberonc/ast"

	"github.com/pkg/errors"
)

// Scope levels of the symbol table: the universe is at the global level and
// the namespace of each module is at the module level.  Procedure scopes are
// nested below the module level.
const (
	GlobalLevel = 0
	ModuleLevel = 1
)

// SymbolTable is the symbol table of a compilation.  It holds the universe
// scope of predefined names, one namespace per module (the module being
// compiled and every imported module) and the chain of nested scopes that is
// currently active.
type SymbolTable struct {
	universe *Scope
	current  *Scope

	// namespaces maps module names to the root scopes of their modules.
	namespaces map[string]*Scope

	// aliases maps the qualifiers usable in the compiled module to module
	// names.
	aliases map[string]string
}

// NewSymbolTable creates a new symbol table with an empty universe.
func NewSymbolTable() *SymbolTable {
	universe := NewScope(GlobalLevel, nil)

	return &SymbolTable{
		universe:   universe,
		current:    universe,
		namespaces: make(map[string]*Scope),
		aliases:    make(map[string]string),
	}
}

// CreateNamespace allocates a fresh root scope for a module.  If `activate` is
// set, the namespace becomes the current scope.
func (st *SymbolTable) CreateNamespace(module string, activate bool) error {
	if _, ok := st.namespaces[module]; ok {
		return errors.Errorf("duplicate namespace: %s.", module)
	}

	scope := NewScope(ModuleLevel, st.universe)
	st.namespaces[module] = scope
	st.aliases[module] = module

	if activate {
		st.current = scope
	}

	return nil
}

// HasNamespace returns whether a namespace exists for a module.
func (st *SymbolTable) HasNamespace(module string) bool {
	_, ok := st.namespaces[module]
	return ok
}

// SetNamespace makes the namespace of the given module the current scope.
func (st *SymbolTable) SetNamespace(module string) error {
	scope, ok := st.namespaces[module]
	if !ok {
		return errors.Errorf("undefined namespace: %s.", module)
	}

	st.current = scope
	return nil
}

// AddAlias makes the namespace of a module accessible using another qualifier
// as in `IMPORT X := LongModuleName`.
func (st *SymbolTable) AddAlias(alias, module string) {
	st.aliases[alias] = module
}

// IsQualifier returns whether a name is a known module qualifier.
func (st *SymbolTable) IsQualifier(name string) bool {
	_, ok := st.aliases[name]
	return ok
}

// -----------------------------------------------------------------------------

// OpenScope pushes a new nested scope.
func (st *SymbolTable) OpenScope() {
	scope := NewScope(st.current.Level+1, st.current)
	st.current.Child = scope
	st.current = scope
}

// CloseScope pops the current scope.  The namespace of a module and the
// universe cannot be closed.
func (st *SymbolTable) CloseScope() error {
	if st.current.Level <= ModuleLevel {
		return errors.New("cannot close global scope.")
	}

	st.current = st.current.Parent
	st.current.Child = nil
	return nil
}

// Level returns the level of the current scope.
func (st *SymbolTable) Level() int {
	return st.current.Level
}

// -----------------------------------------------------------------------------

// Insert adds a declaration to the current scope.  Checking for duplicate
// definitions is the responsibility of the caller.
func (st *SymbolTable) Insert(name string, decl ast.Decl) {
	st.current.Insert(name, decl)
}

// InsertGlobal adds a declaration to the universe.
func (st *SymbolTable) InsertGlobal(name string, decl ast.Decl) {
	st.universe.Insert(name, decl)
}

// Import adds a declaration to the namespace of a module.
func (st *SymbolTable) Import(module, name string, decl ast.Decl) error {
	scope, ok := st.namespaces[module]
	if !ok {
		return errors.Errorf("undefined namespace: %s.", module)
	}

	scope.Insert(name, decl)
	return nil
}

// IsDuplicate returns whether the name is already declared in the current
// scope.
func (st *SymbolTable) IsDuplicate(name string) bool {
	return st.current.Lookup(name, true) != nil
}

// IsGlobal returns whether the name is a predefined name of the universe.
func (st *SymbolTable) IsGlobal(name string) bool {
	return st.universe.Lookup(name, true) != nil
}

// Lookup resolves a possibly qualified name.  An empty qualifier walks the
// chain of active scopes up to and including the universe.  A non-empty
// qualifier is mapped to a module through the alias table and the name is
// looked up in the namespace of that module only.
func (st *SymbolTable) Lookup(qualifier, name string) ast.Decl {
	if qualifier == "" {
		return st.current.Lookup(name, false)
	}

	module, ok := st.aliases[qualifier]
	if !ok {
		return nil
	}

	if scope, ok := st.namespaces[module]; ok {
		return scope.Lookup(name, true)
	}

	return nil
}

// LookupIdent resolves a qualified identifier.
func (st *SymbolTable) LookupIdent(ident *ast.QualIdent) ast.Decl {
	return st.Lookup(ident.Qualifier, ident.Name)
}

// Namespace returns the root scope of a module or nil if there is none.
func (st *SymbolTable) Namespace(module string) *Scope {
	return st.namespaces[module]
}

// ExportedSymbols returns the exported declarations of a module in
// declaration order.
func (st *SymbolTable) ExportedSymbols(module string) []ast.Decl {
	if scope, ok := st.namespaces[module]; ok {
		return scope.Exported()
	}

	return nil
}
