package sema

import (
	"oberonc/ast"
	"oberonc/depm"
	"oberonc/report"
	"oberonc/typing"
)

// OnTypeReference resolves a type name.  It returns the NOTYPE type if the name
// does not denote a type.
func (s *Sema) OnTypeReference(ident *ast.QualIdent) typing.Type {
	decl := s.table.LookupIdent(ident)
	if decl == nil {
		s.error(ident.Pos(), "undefined type: %s.", ident)
		return s.ctx.NoType
	}

	if td, ok := decl.(*ast.TypeDecl); ok {
		return td.Type()
	}

	s.error(ident.Pos(), "%s is not a type.", ident)
	return s.ctx.NoType
}

// OnArrayType creates an array type.  A nil length denotes an open dimension.
// Arrays of anonymous arrays are flattened into a single multi-dimensional
// array type.
func (s *Sema) OnArrayType(pos *report.TextPosition, lengths []ast.Expr, member typing.Type) typing.Type {
	dims := make([]int, len(lengths))
	for i, length := range lengths {
		if length == nil {
			continue
		}

		dims[i] = s.arrayLength(length)
	}

	if member == nil || member == s.ctx.NoType {
		return s.ctx.NoType
	}

	if at, ok := member.(*typing.ArrayType); ok && typing.IsAnonymous(at) {
		s.warn(pos, "nested array found, use multi-dimensional array instead.")
		dims = append(dims, at.Lengths...)
		member = at.Member()
	}

	return s.ctx.ArrayOf(dims, member)
}

// arrayLength evaluates the length of an array dimension.
func (s *Sema) arrayLength(length ast.Expr) int {
	lit, ok := length.(*ast.IntegerLit)
	if !ok {
		s.error(length.Pos(), "constant integer expression expected.")
		return 1
	}

	if lit.Value <= 0 {
		s.error(length.Pos(), "array dimension must be a positive value.")
		return 1
	}

	if !typing.Fits(s.ctx.Integer, lit.Value) {
		s.error(length.Pos(), "array dimension %d is too large.", lit.Value)
		return 1
	}

	return int(lit.Value)
}

// OnPointerType creates a pointer to a known base type.
func (s *Sema) OnPointerType(pos *report.TextPosition, base typing.Type) typing.Type {
	if base == nil || base == s.ctx.NoType {
		return s.ctx.NoType
	}

	if !typing.IsRecord(base) {
		s.error(pos, "pointer base type must be a record type.")
		return s.ctx.NoType
	}

	return s.ctx.PointerTo(base)
}

// OnPointerTo creates a pointer to a named base type.  A base name that is
// not yet declared is recorded as a forward reference: the pointer is patched
// when the name is declared by the current declaration sequence.
func (s *Sema) OnPointerTo(pos *report.TextPosition, ident *ast.QualIdent) typing.Type {
	if ident.Qualifier == "" && s.table.LookupIdent(ident) == nil {
		ptr := s.ctx.PointerTo(nil)
		s.forwards = append(s.forwards, forwardRef{ident: ident, pointer: ptr})
		return ptr
	}

	return s.OnPointerType(pos, s.OnTypeReference(ident))
}

// OnFields creates a list of record fields sharing a type.
func (s *Sema) OnFields(idents []IdentDef, typ typing.Type) []*typing.Field {
	if typ == nil {
		typ = s.ctx.NoType
	}

	fields := make([]*typing.Field, len(idents))
	for i, ident := range idents {
		if ident.Exported && s.level() != depm.ModuleLevel {
			s.error(ident.Pos, "only top-level declarations can be exported.")
		}

		fields[i] = &typing.Field{
			Name:     ident.Name,
			Exported: ident.Exported,
			Type:     typ,
			Seq:      i,
		}
	}

	return fields
}

// OnRecordType creates a record type.  The base type may be nil.
func (s *Sema) OnRecordType(pos *report.TextPosition, base typing.Type, fields []*typing.Field, positions []*report.TextPosition) typing.Type {
	var baseRecord *typing.RecordType
	if base != nil && base != s.ctx.NoType {
		if rt, ok := base.(*typing.RecordType); ok {
			baseRecord = rt
		} else {
			s.error(pos, "base type must be a record type.")
		}
	}

	seen := make(map[string]bool)
	unique := fields[:0]
	for i, field := range fields {
		fieldPos := pos
		if i < len(positions) {
			fieldPos = positions[i]
		}

		if baseRecord != nil && baseRecord.Field(field.Name) != nil {
			s.error(fieldPos, "redefinition of record field: %s.", field.Name)
			continue
		}

		if seen[field.Name] {
			s.error(fieldPos, "duplicate record field: %s.", field.Name)
			continue
		}

		seen[field.Name] = true
		unique = append(unique, field)
	}

	return s.ctx.NewRecord(baseRecord, unique)
}

// OnProcedureType creates a procedure type from a formal parameter list.
func (s *Sema) OnProcedureType(pos *report.TextPosition, params []*ast.ParamDecl, ret typing.Type) typing.Type {
	return s.OnFormalParameters(pos, params, ret)
}
