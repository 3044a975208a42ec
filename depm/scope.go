package depm

import "oberonc/ast"

// Scope is a flat mapping from names to declarations which remembers the order
// of insertion.  Scopes form a chain through their parent links: the root of
// every chain is the namespace of a module.
type Scope struct {
	Level int

	Parent *Scope
	Child  *Scope

	symbols map[string]ast.Decl
	order   []ast.Decl
}

// NewScope creates a new scope at the given level.
func NewScope(level int, parent *Scope) *Scope {
	return &Scope{
		Level:   level,
		Parent:  parent,
		symbols: make(map[string]ast.Decl),
	}
}

// Insert adds a declaration to the scope.  The scope stores the declaration,
// it does not copy it.  A declaration with the same name is replaced.
func (s *Scope) Insert(name string, decl ast.Decl) {
	if _, ok := s.symbols[name]; !ok {
		s.order = append(s.order, decl)
	} else {
		for i, d := range s.order {
			if d.Name() == name {
				s.order[i] = decl
				break
			}
		}
	}

	s.symbols[name] = decl
}

// Lookup looks up a name in the scope.  Unless `local` is set, the enclosing
// scopes are searched as well.
func (s *Scope) Lookup(name string, local bool) ast.Decl {
	for scope := s; scope != nil; scope = scope.Parent {
		if decl, ok := scope.symbols[name]; ok {
			return decl
		}

		if local {
			break
		}
	}

	return nil
}

// Decls returns all declarations of the scope in insertion order.
func (s *Scope) Decls() []ast.Decl {
	return s.order
}

// Exported returns the exported declarations of the scope in insertion order.
func (s *Scope) Exported() []ast.Decl {
	var exported []ast.Decl
	for _, decl := range s.order {
		if decl.Exported() {
			exported = append(exported, decl)
		}
	}

	return exported
}
