package ast

import "oberonc/report"

// ASTNode is the abstract interface for all AST nodes.
type ASTNode interface {
	// Pos returns the text position of the AST node.
	Pos() *report.TextPosition
}

// ASTBase is a utility base struct for all AST nodes.
type ASTBase struct {
	// The position at which the AST node occurs.
	pos *report.TextPosition
}

// NewASTBaseOn creates a new AST base at the given position.
func NewASTBaseOn(pos *report.TextPosition) ASTBase {
	return ASTBase{pos: pos}
}

func (ab ASTBase) Pos() *report.TextPosition {
	return ab.pos
}

// -----------------------------------------------------------------------------

// Block holds the declarations and the statements of a module or procedure
// in declaration order.
type Block struct {
	Consts []*ConstDecl
	Types  []*TypeDecl
	Vars   []*VarDecl
	Procs  []*ProcDecl

	Body []Stmt
}

// Import is an entry of the import list of a module.
type Import struct {
	ASTBase

	// Alias is the name the module is referred to by: it is the module name
	// itself unless an alias was given.
	Alias string

	Module string
}

// Module is the AST of a compiled module: the root of the tree handed to the
// code generator.
type Module struct {
	DeclBase
	Block

	Imports []*Import

	// The absolute path of the source file.
	File string
}

// NewModule creates a new module node.
func NewModule(pos *report.TextPosition, name, file string) *Module {
	m := &Module{File: file}
	m.DeclBase = NewDeclBase(pos, &Ident{Name: name}, name, nil, 0)
	return m
}

func (m *Module) Kind() DeclKind {
	return DeclModule
}
