package typing

import (
	"fmt"
	"strings"
)

// Type is the parent interface for all types.  The set of implementations is
// closed: *BasicType, *ArrayType, *PointerType, *RecordType and
// *ProcedureType.
type Type interface {
	// Kind returns the kind tag of the type.
	Kind() Kind

	// Size returns the size of the type in bytes.
	Size() int

	// Name returns the name the type was declared with.  It is empty for
	// anonymous types.
	Name() string

	// Module returns the name of the module declaring the type.
	Module() string

	// Repr returns a representative string of the type for purposes of error
	// reporting.
	Repr() string

	base() *TypeBase
}

// TypeBase holds the naming information shared by all types.
type TypeBase struct {
	name, module string

	// Whether the type was interned by a context: interned types are shared
	// and must not be renamed.
	interned bool
}

func (tb *TypeBase) Name() string {
	return tb.name
}

func (tb *TypeBase) Module() string {
	return tb.module
}

func (tb *TypeBase) base() *TypeBase {
	return tb
}

// IsAnonymous returns whether the type has no declared name.
func IsAnonymous(t Type) bool {
	return t.Name() == ""
}

// SameName returns whether two types are the same named type.  Types imported
// from a symbol file are equal to their declaration in the source module by
// name.
func SameName(a, b Type) bool {
	return a.Name() != "" && a.Name() == b.Name() && a.Module() == b.Module()
}

// -----------------------------------------------------------------------------

// BasicType represents the built-in types as well as the virtual types.
type BasicType struct {
	TypeBase

	kind Kind
}

func (bt *BasicType) Kind() Kind {
	return bt.kind
}

func (bt *BasicType) Size() int {
	return kindSizes[bt.kind]
}

func (bt *BasicType) Repr() string {
	return bt.name
}

// -----------------------------------------------------------------------------

// ArrayType represents a possibly multi-dimensional array type.  A length of
// zero denotes an open dimension.
type ArrayType struct {
	TypeBase

	// Lengths contains the length of each dimension.
	Lengths []int

	// Types contains the type obtained after indexing one more dimension:
	// Types[i] is the type of `a[i_0, ..., i_i]`. The last entry is the member
	// type of the array.
	Types []Type
}

func (at *ArrayType) Kind() Kind {
	return KindArray
}

func (at *ArrayType) Size() int {
	size := at.Member().Size()
	for _, length := range at.Lengths {
		size *= length
	}

	return size
}

// Dimensions returns the number of dimensions of the array.
func (at *ArrayType) Dimensions() int {
	return len(at.Lengths)
}

// Member returns the innermost element type of the array.
func (at *ArrayType) Member() Type {
	return at.Types[len(at.Types)-1]
}

// IsOpen returns whether the outermost dimension of the array is open.
func (at *ArrayType) IsOpen() bool {
	return at.Lengths[0] == 0
}

func (at *ArrayType) Repr() string {
	if at.name != "" {
		return at.name
	}

	sb := strings.Builder{}
	for _, length := range at.Lengths {
		if length > 0 {
			fmt.Fprintf(&sb, "ARRAY %d ", length)
		} else {
			sb.WriteString("ARRAY ")
		}

		sb.WriteString("OF ")
	}
	sb.WriteString(at.Member().Repr())

	return sb.String()
}

// -----------------------------------------------------------------------------

// PointerType represents a pointer type.  The base of a pointer may be nil
// while the pointer is a pending forward reference.
type PointerType struct {
	TypeBase

	Base Type
}

func (pt *PointerType) Kind() Kind {
	return KindPointer
}

func (pt *PointerType) Size() int {
	return 8
}

func (pt *PointerType) Repr() string {
	if pt.name != "" {
		return pt.name
	} else if pt.Base == nil {
		return "POINTER TO ?"
	}

	return "POINTER TO " + pt.Base.Repr()
}

// -----------------------------------------------------------------------------

// Field is a field of a record type.
type Field struct {
	Name     string
	Exported bool
	Type     Type

	// Index is the position of the field in the flattened field list of the
	// record: inherited fields come first.
	Index int

	// Seq is the position of the field in a run of fields with the same type:
	// zero marks the first field of a run.
	Seq int
}

// RecordType represents a possibly extended record type.
type RecordType struct {
	TypeBase

	// Fields are the fields declared by this record: inherited fields are
	// reached through the base.
	Fields []*Field

	// Base is the record type extended by this record (may be nil).
	Base *RecordType

	// Level is the extension depth: records without a base are at level 0.
	Level int
}

func (rt *RecordType) Kind() Kind {
	return KindRecord
}

func (rt *RecordType) Size() int {
	size := 0
	for _, field := range rt.AllFields() {
		if field.Type != nil {
			size += field.Type.Size()
		}
	}

	return size
}

// SetFields sets the fields declared by the record.  The base of the record
// must be complete.
func (rt *RecordType) SetFields(fields []*Field) {
	offset := 0
	if rt.Base != nil {
		offset = len(rt.Base.AllFields())
	}

	for i, field := range fields {
		field.Index = offset + i
	}

	rt.Fields = fields
}

// Field looks up a field by name in the record and its bases.
func (rt *RecordType) Field(name string) *Field {
	for r := rt; r != nil; r = r.Base {
		for _, field := range r.Fields {
			if field.Name == name {
				return field
			}
		}
	}

	return nil
}

// AllFields returns the flattened field list: the fields of the outermost
// base first, the fields of this record last.
func (rt *RecordType) AllFields() []*Field {
	if rt.Base == nil {
		return rt.Fields
	}

	inherited := rt.Base.AllFields()
	fields := make([]*Field, 0, len(inherited)+len(rt.Fields))
	fields = append(fields, inherited...)
	return append(fields, rt.Fields...)
}

// Offset returns the byte offset of a field in the record.
func (rt *RecordType) Offset(field *Field) int {
	offset := 0
	for _, f := range rt.AllFields() {
		if f == field {
			break
		}

		offset += f.Type.Size()
	}

	return offset
}

// Extends returns whether the record is the given record type or a (possibly
// indirect) extension of it.
func (rt *RecordType) Extends(other Type) bool {
	for r := rt; r != nil; r = r.Base {
		if Type(r) == other || SameName(r, other) {
			return true
		}
	}

	return false
}

func (rt *RecordType) Repr() string {
	if rt.name != "" {
		return rt.name
	}

	return "RECORD"
}

// -----------------------------------------------------------------------------

// Param is a formal parameter of a procedure type.
type Param struct {
	Name string
	Var  bool
	Type Type

	// Seq is the position of the parameter in a run of parameters with the
	// same type: zero marks the first parameter of a run.
	Seq int
}

// ProcedureType represents the signature of a procedure.  A nil return type
// denotes a proper procedure.
type ProcedureType struct {
	TypeBase

	Params  []*Param
	Return  Type
	VarArgs bool
}

func (pt *ProcedureType) Kind() Kind {
	return KindProcedure
}

func (pt *ProcedureType) Size() int {
	return 8
}

func (pt *ProcedureType) Repr() string {
	if pt.name != "" {
		return pt.name
	}

	sb := strings.Builder{}
	sb.WriteString("PROCEDURE (")
	for i, param := range pt.Params {
		if param.Var {
			sb.WriteString("VAR ")
		}

		sb.WriteString(Format(param.Type))

		if i < len(pt.Params)-1 {
			sb.WriteString(", ")
		}
	}

	if pt.VarArgs {
		sb.WriteString(", ...")
	}

	sb.WriteRune(')')

	if pt.Return != nil {
		sb.WriteString(": ")
		sb.WriteString(pt.Return.Repr())
	}

	return sb.String()
}

// Format returns the representation of a type used in diagnostics.  It
// accepts nil types.
func Format(t Type) string {
	if t == nil {
		return "undefined type"
	}

	return t.Repr()
}
