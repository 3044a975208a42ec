package ast

import (
	"oberonc/report"
	"oberonc/typing"
)

// Selector is one step of the access chain of a designator.
type Selector interface {
	ASTNode

	// Type returns the type of the designator after the selector has been
	// applied.
	Type() typing.Type
	SetType(typing.Type)
}

// SelectorBase is the base struct for all selectors.
type SelectorBase struct {
	ASTBase

	typ typing.Type
}

func NewSelectorBase(pos *report.TextPosition) SelectorBase {
	return SelectorBase{ASTBase: NewASTBaseOn(pos)}
}

func (sb *SelectorBase) Type() typing.Type {
	return sb.typ
}

func (sb *SelectorBase) SetType(typ typing.Type) {
	sb.typ = typ
}

// ArrayIndex selects an element of an array: `a[i, j]`.
type ArrayIndex struct {
	SelectorBase

	Indices []Expr
}

// RecordField selects a field of a record: `r.f`.
type RecordField struct {
	SelectorBase

	Name string

	// Field is the resolved field.  It is nil if the field is undefined.
	Field *typing.Field
}

// Dereference selects the target of a pointer: `p^`.  Dereferences are also
// inserted implicitly before indexing or field selection on pointers.
type Dereference struct {
	SelectorBase

	// Implicit marks dereferences that do not appear in the source.
	Implicit bool
}

// Typeguard asserts the dynamic type of a record or pointer: `p(Ext)`.
type Typeguard struct {
	SelectorBase

	// Guard is the guarding type as written.  It is nil for implicit guards.
	Guard *QualIdent

	// Implicit marks the guards inserted on the case variable inside the
	// clauses of a type `CASE`: the clause has already tested the type.
	Implicit bool
}

// ActualParameters calls a procedure with the given arguments: `f(x, y)`.
type ActualParameters struct {
	SelectorBase

	Args []Expr

	// Signature is the signature of the called procedure.  For overloaded
	// predefined procedures, it is the signature selected by dispatch.
	Signature *typing.ProcedureType
}
