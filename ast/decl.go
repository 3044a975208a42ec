package ast

import (
	"oberonc/report"
	"oberonc/typing"
)

// DeclKind is the kind of a declaration.  The numeric values of the kinds are
// used as node tags in symbol files.
type DeclKind int8

// Enumeration of declaration kinds.
const (
	DeclConst DeclKind = iota + 1
	DeclType
	DeclVar
	DeclProc
	DeclParam
	DeclField
	DeclModule
)

func (dk DeclKind) String() string {
	switch dk {
	case DeclConst:
		return "constant"
	case DeclType:
		return "type"
	case DeclVar:
		return "variable"
	case DeclProc:
		return "procedure"
	case DeclParam:
		return "parameter"
	case DeclField:
		return "field"
	default:
		return "module"
	}
}

// Ident is a declared identifier along with its export mark.
type Ident struct {
	Name     string
	Exported bool
}

// QualIdent is a possibly qualified identifier: `Module.name`.
type QualIdent struct {
	ASTBase

	Qualifier, Name string
}

// NewQualIdent creates a new qualified identifier.
func NewQualIdent(pos *report.TextPosition, qualifier, name string) *QualIdent {
	return &QualIdent{ASTBase: NewASTBaseOn(pos), Qualifier: qualifier, Name: name}
}

func (qi *QualIdent) String() string {
	if qi.Qualifier == "" {
		return qi.Name
	}

	return qi.Qualifier + "." + qi.Name
}

// -----------------------------------------------------------------------------

// Decl represents a named declaration.  All declaration nodes implement the
// `Decl` interface.
type Decl interface {
	ASTNode

	Kind() DeclKind

	// Name returns the declared name.
	Name() string

	// Exported returns whether the declaration is marked for export.
	Exported() bool

	// Module returns the name of the module owning the declaration.
	Module() string

	// Type returns the type of the declaration.
	Type() typing.Type
	SetType(typing.Type)

	// Level returns the scope level of the declaration.
	Level() int

	// Seq returns the position of the declaration within a run of declarations
	// sharing a type: 0 for the first declaration of a run.
	Seq() int
}

// DeclBase is the base struct for all declarations.
type DeclBase struct {
	ASTBase

	ident  *Ident
	module string
	typ    typing.Type
	level  int
	seq    int
}

// NewDeclBase creates a new declaration base.
func NewDeclBase(pos *report.TextPosition, ident *Ident, module string, typ typing.Type, level int) DeclBase {
	return DeclBase{
		ASTBase: NewASTBaseOn(pos),
		ident:   ident,
		module:  module,
		typ:     typ,
		level:   level,
	}
}

func (db *DeclBase) Name() string {
	return db.ident.Name
}

func (db *DeclBase) Exported() bool {
	return db.ident.Exported
}

func (db *DeclBase) Module() string {
	return db.module
}

func (db *DeclBase) Type() typing.Type {
	return db.typ
}

func (db *DeclBase) SetType(typ typing.Type) {
	db.typ = typ
}

func (db *DeclBase) Level() int {
	return db.level
}

func (db *DeclBase) Seq() int {
	return db.seq
}

func (db *DeclBase) SetSeq(seq int) {
	db.seq = seq
}

// -----------------------------------------------------------------------------

// ConstDecl is a constant declaration.  The value is always a literal.
type ConstDecl struct {
	DeclBase

	Value Expr
}

func (cd *ConstDecl) Kind() DeclKind {
	return DeclConst
}

// TypeDecl is a type declaration.
type TypeDecl struct {
	DeclBase
}

func (td *TypeDecl) Kind() DeclKind {
	return DeclType
}

// VarDecl is a variable declaration.
type VarDecl struct {
	DeclBase
}

func (vd *VarDecl) Kind() DeclKind {
	return DeclVar
}

// ParamDecl is a formal parameter of a procedure.
type ParamDecl struct {
	DeclBase

	// Var indicates a by-reference parameter.
	Var bool

	// Index is the position of the parameter in the parameter list.
	Index int
}

func (pd *ParamDecl) Kind() DeclKind {
	return DeclParam
}

// FieldDecl is a field of a record type constructor as parsed: the record type
// itself stores its fields as `typing.Field`.
type FieldDecl struct {
	DeclBase
}

func (fd *FieldDecl) Kind() DeclKind {
	return DeclField
}

// ProcDecl is a procedure declaration.  The type of a procedure is always a
// `*typing.ProcedureType`.
type ProcDecl struct {
	DeclBase
	Block

	Params []*ParamDecl

	// External procedures have no body: they are imported from a symbol file.
	External bool

	// Parent is the enclosing procedure of a nested procedure.
	Parent *ProcDecl

	// EndPos is the position of the closing identifier.
	EndPos *report.TextPosition
}

func (pd *ProcDecl) Kind() DeclKind {
	return DeclProc
}

// Signature returns the procedure type of the procedure.
func (pd *ProcDecl) Signature() *typing.ProcedureType {
	if pt, ok := pd.typ.(*typing.ProcedureType); ok {
		return pt
	}

	return nil
}

// NewDecl creates a declaration node of the given kind.  It is used by symbol
// file readers which reconstruct declarations without source positions.
func NewDecl(kind DeclKind, name string, exported bool, module string, typ typing.Type) Decl {
	base := NewDeclBase(nil, &Ident{Name: name, Exported: exported}, module, typ, 1)

	switch kind {
	case DeclConst:
		return &ConstDecl{DeclBase: base}
	case DeclType:
		return &TypeDecl{DeclBase: base}
	case DeclVar:
		return &VarDecl{DeclBase: base}
	case DeclParam:
		return &ParamDecl{DeclBase: base}
	case DeclField:
		return &FieldDecl{DeclBase: base}
	case DeclProc:
		return &ProcDecl{DeclBase: base, External: true}
	default:
		return NewModule(nil, name, "")
	}
}
