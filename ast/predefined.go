package ast

import "oberonc/typing"

// ProcKind identifies a predefined procedure.
type ProcKind int

// Enumeration of predefined procedures.
const (
	ProcABS ProcKind = iota
	ProcASH
	ProcASR
	ProcASSERT
	ProcCAP
	ProcCHR
	ProcCOPY
	ProcDEC
	ProcDISPOSE
	ProcENTIER
	ProcEXCL
	ProcFLOOR
	ProcFLT
	ProcHALT
	ProcINC
	ProcINCL
	ProcLEN
	ProcLONG
	ProcLSL
	ProcMAX
	ProcMIN
	ProcNEW
	ProcODD
	ProcORD
	ProcROR
	ProcSHORT
	ProcSIZE
)

// PredefinedProc is a procedure declared in the universe scope.  Overloaded
// predefined procedures have several signatures: the signature of a call is
// selected by `typing.Dispatch`.
type PredefinedProc struct {
	ProcDecl

	ProcKind   ProcKind
	Signatures []*typing.ProcedureType

	// IsCast marks procedures taking a type argument which is also the
	// result type of the call, such as `MAX(INTEGER)`.
	IsCast bool
}

// NewPredefinedProc creates a new predefined procedure with the given
// signatures.
func NewPredefinedProc(kind ProcKind, name string, isCast bool, signatures ...*typing.ProcedureType) *PredefinedProc {
	pp := &PredefinedProc{ProcKind: kind, Signatures: signatures, IsCast: isCast}
	pp.DeclBase = NewDeclBase(nil, &Ident{Name: name}, "", signatures[0], 0)
	return pp
}

// IsOverloaded returns whether the signature of a call has to be dispatched.
func (pp *PredefinedProc) IsOverloaded() bool {
	return len(pp.Signatures) > 1 || pp.IsCast
}
