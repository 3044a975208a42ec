package sema

import (
	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

// Resolve resolves a designator used as a statement target: the left-hand side
// of an assignment, a called procedure or a loop counter.  Unlike designators
// in expressions, references to constants are not replaced by their values.
func (s *Sema) Resolve(pos *report.TextPosition, ident *ast.QualIdent, selectors []ast.Selector) *ast.Designator {
	// `M.x` is parsed as the field `x` of `M` when `M` is a module.
	if ident.Qualifier == "" && len(selectors) > 0 && s.IsQualifier(ident.Name) {
		if rf, ok := selectors[0].(*ast.RecordField); ok {
			ident = ast.NewQualIdent(report.TextPositionFromRange(ident.Pos(), rf.Pos()), ident.Name, rf.Name)
			selectors = selectors[1:]
		}
	}

	d := &ast.Designator{
		ExprBase:  ast.NewExprBase(pos, s.ctx.NoType),
		Ident:     ident,
		Selectors: selectors,
	}

	decl := s.table.LookupIdent(ident)
	if decl == nil {
		s.error(ident.Pos(), "undefined identifier: %s.", ident)
		s.resolveArgs(selectors)
		return d
	}

	if s.isLocalOfEnclosing(decl) {
		s.error(ident.Pos(), "cannot access local %s of an enclosing procedure.", ident)
	}

	d.Decl = decl

	// the case variable of a type case has the type of the clause label
	var narrow *ast.Typeguard
	if nt, ok := s.narrowed[decl]; ok {
		narrow = &ast.Typeguard{SelectorBase: ast.NewSelectorBase(ident.Pos()), Implicit: true}
		narrow.SetType(nt)
	}

	var typ typing.Type
	switch decl.(type) {
	case *ast.TypeDecl:
		typ = s.ctx.TypeT
	case *ast.Module:
		s.error(ident.Pos(), "variable, parameter, type, or function call expected.")
		return d
	default:
		typ = decl.Type()
		if narrow != nil {
			typ = narrow.Type()
		}
	}

	if _, ok := decl.(*ast.ConstDecl); ok {
		d.SetType(typ)
		return d
	}

	d.Selectors = s.onSelectors(d, typ, selectors)
	if narrow != nil {
		d.Selectors = append([]ast.Selector{narrow}, d.Selectors...)
	}
	if len(d.Selectors) == 0 {
		d.SetType(typ)
	} else {
		d.SetType(d.Selectors[len(d.Selectors)-1].Type())
	}

	return d
}

// isWholeVariable returns whether a designator denotes a variable or a
// parameter without selectors.  The implicit guards of enclosing type cases
// are not selectors.
func isWholeVariable(d *ast.Designator) bool {
	switch d.Decl.(type) {
	case *ast.VarDecl, *ast.ParamDecl:
	default:
		return false
	}

	for _, sel := range d.Selectors {
		if tg, ok := sel.(*ast.Typeguard); !ok || !tg.Implicit {
			return false
		}
	}

	return true
}

// resolveArgs marks the arguments of the calls of an unresolved designator.
// Their diagnostics have already been reported when they were built.
func (s *Sema) resolveArgs(selectors []ast.Selector) {
	for _, sel := range selectors {
		sel.SetType(s.ctx.NoType)
	}
}

// OnDesignator resolves a designator used as an expression.  References to
// constants and calls of predefined procedures with constant arguments are
// folded into literals.
func (s *Sema) OnDesignator(pos *report.TextPosition, ident *ast.QualIdent, selectors []ast.Selector) ast.Expr {
	d := s.Resolve(pos, ident, selectors)

	switch decl := d.Decl.(type) {
	case *ast.ConstDecl:
		if len(d.Selectors) > 0 {
			s.warn(pos, "ignoring unexpected selector(s).")
		}

		if decl.Value == nil {
			return d
		}

		return ast.CopyLiteral(decl.Value, pos)
	case *ast.PredefinedProc:
		if !d.IsCall() {
			s.error(pos, "predefined procedures cannot be referenced.")
			d.SetType(s.ctx.NoType)
			return d
		}

		if lit := s.foldPredefined(d); lit != nil {
			return lit
		}
	case *ast.TypeDecl:
		if len(d.Selectors) > 0 {
			s.error(pos, "variable, parameter, type, or function call expected.")
			d.SetType(s.ctx.NoType)
		}

		return d
	}

	if d.IsCall() && d.Type() == s.ctx.NoType {
		if sig := lastCall(d).Signature; sig != nil && sig.Return == nil {
			s.error(pos, "procedure %s does not return a value.", d.Ident)
		}
	}

	return d
}

// lastCall returns the actual parameters of a call designator.
func lastCall(d *ast.Designator) *ast.ActualParameters {
	return d.Selectors[len(d.Selectors)-1].(*ast.ActualParameters)
}

// -----------------------------------------------------------------------------

// onSelectors walks the selectors of a designator starting from the type of
// its declaration and returns the resolved selector list.  Dereferences are
// inserted before indices and fields applied to pointers and repeated indices
// are merged.  Once a selector fails, the remaining selectors are typed NOTYPE.
func (s *Sema) onSelectors(d *ast.Designator, typ typing.Type, selectors []ast.Selector) []ast.Selector {
	resolved := make([]ast.Selector, 0, len(selectors))

	for i := 0; i < len(selectors); i++ {
		if typ == nil || typ == s.ctx.NoType {
			s.resolveArgs(selectors[i:])
			return append(resolved, selectors[i:]...)
		}

		sel := selectors[i]
		switch v := sel.(type) {
		case *ast.ArrayIndex:
			if at, ok := typ.(*typing.ArrayType); ok {
				for i+1 < len(selectors) && len(v.Indices) < at.Dimensions() {
					next, ok := selectors[i+1].(*ast.ArrayIndex)
					if !ok {
						break
					}

					s.warn(next.Pos(), "use multi-dimensional index to access multi-dimensional array.")
					v.Indices = append(v.Indices, next.Indices...)
					i++
				}
			}

			typ, resolved = s.implicitDeref(v, typ, resolved)
			typ = s.onArrayIndex(typ, v)
		case *ast.RecordField:
			typ, resolved = s.implicitDeref(v, typ, resolved)
			typ = s.onRecordField(typ, v)
		case *ast.Dereference:
			typ = s.onDereference(typ, v)
		case *ast.Typeguard:
			typ = s.onTypeguard(d, len(resolved) == 0, typ, v, s.OnTypeReference(v.Guard))
		case *ast.ActualParameters:
			if pt, ok := typ.(*typing.ProcedureType); ok {
				typ = s.onActualParameters(d, len(resolved) == 0, pt, v)
				break
			}

			if guard, ok := s.asTypeguard(v); ok && (typing.IsRecord(typ) || typing.IsPointer(typ)) {
				sel = guard
				typ = s.onTypeguard(d, len(resolved) == 0, typ, guard, guard.Type())
				break
			}

			if typing.IsRecord(typ) || typing.IsPointer(typ) {
				s.error(v.Pos(), "unexpected selector: illegal type guard.")
			} else {
				s.error(v.Pos(), "type %s is not a procedure type.", typing.Format(typ))
			}

			typ = s.ctx.NoType
		}

		sel.SetType(typ)
		resolved = append(resolved, sel)
	}

	return resolved
}

// asTypeguard converts a parameter list holding a single type into a type
// guard.  The type of the returned guard is the guarding type.
func (s *Sema) asTypeguard(params *ast.ActualParameters) (*ast.Typeguard, bool) {
	if len(params.Args) != 1 {
		return nil, false
	}

	arg, ok := params.Args[0].(*ast.Designator)
	if !ok || !arg.IsTypeRef() {
		return nil, false
	}

	guard := &ast.Typeguard{SelectorBase: ast.NewSelectorBase(params.Pos()), Guard: arg.Ident}
	guard.SetType(arg.Decl.Type())
	return guard, true
}

// implicitDeref inserts a dereference before a selector applied to a pointer.
func (s *Sema) implicitDeref(sel ast.Selector, typ typing.Type, resolved []ast.Selector) (typing.Type, []ast.Selector) {
	pt, ok := typ.(*typing.PointerType)
	if !ok {
		return typ, resolved
	}

	deref := &ast.Dereference{SelectorBase: ast.NewSelectorBase(sel.Pos()), Implicit: true}
	typ = s.onDereference(pt, deref)
	deref.SetType(typ)

	return typ, append(resolved, deref)
}

func (s *Sema) onArrayIndex(typ typing.Type, sel *ast.ArrayIndex) typing.Type {
	if typ == s.ctx.NoType {
		return typ
	}

	at, ok := typ.(*typing.ArrayType)
	if !ok {
		s.error(sel.Pos(), "%s is not an array.", typing.Format(typ))
		return s.ctx.NoType
	}

	if len(sel.Indices) > at.Dimensions() {
		s.error(sel.Pos(), "more indices than array dimensions: %d > %d.", len(sel.Indices), at.Dimensions())
		return s.ctx.NoType
	}

	for i, index := range sel.Indices {
		if index.Type() == s.ctx.NoType {
			continue
		}

		if !typing.IsInteger(index.Type()) {
			s.error(index.Pos(), "integer expression expected.")
			continue
		}

		lit, ok := index.(*ast.IntegerLit)
		if !ok {
			continue
		}

		if length := at.Lengths[i]; length == 0 {
			if lit.Value < 0 {
				s.error(index.Pos(), "negative value %d is not a valid array index.", lit.Value)
			}
		} else if lit.Value < 0 || lit.Value >= int64(length) {
			s.error(index.Pos(), "value %d out of bounds [0..%d].", lit.Value, length-1)
		}
	}

	return at.Types[len(sel.Indices)-1]
}

func (s *Sema) onRecordField(typ typing.Type, sel *ast.RecordField) typing.Type {
	if typ == s.ctx.NoType {
		return typ
	}

	rt, ok := typ.(*typing.RecordType)
	if !ok {
		s.error(sel.Pos(), "%s is not a record.", typing.Format(typ))
		return s.ctx.NoType
	}

	field := rt.Field(sel.Name)
	if field == nil {
		s.error(sel.Pos(), "undefined record field for type %s: %s.", typing.Format(typ), sel.Name)
		return s.ctx.NoType
	}

	if !field.Exported && rt.Module() != "" && rt.Module() != s.module.Name() {
		s.error(sel.Pos(), "field %s of record type %s is not exported.", sel.Name, typing.Format(typ))
	}

	sel.Field = field
	return field.Type
}

func (s *Sema) onDereference(typ typing.Type, sel *ast.Dereference) typing.Type {
	pt, ok := typ.(*typing.PointerType)
	if !ok {
		s.error(sel.Pos(), "%s is not a pointer.", typing.Format(typ))
		return s.ctx.NoType
	}

	if pt.Base == nil {
		s.error(sel.Pos(), "undefined forward reference.")
		return s.ctx.NoType
	}

	return pt.Base
}

// onTypeguard checks a type guard applied to a value of type `typ`.  A record
// can only be guarded if it is a variable parameter.
func (s *Sema) onTypeguard(d *ast.Designator, first bool, typ typing.Type, sel *ast.Typeguard, guard typing.Type) typing.Type {
	if guard == s.ctx.NoType {
		return guard
	}

	param, isParam := d.Decl.(*ast.ParamDecl)
	switch {
	case typing.IsPointer(typ) && typing.IsPointer(guard):
	case typing.IsRecord(typ) && typing.IsRecord(guard) && first && isParam && param.Var:
	default:
		s.error(sel.Pos(), "type mismatch: a type guard can only be applied to a variable parameter of record type or a pointer.")
		return s.ctx.NoType
	}

	if !typing.Extends(guard, typ) {
		s.error(sel.Pos(), "type mismatch: %s is not an extension of %s.", typing.Format(guard), typing.Format(typ))
		return s.ctx.NoType
	}

	if typing.Equal(guard, typ) {
		s.warn(sel.Pos(), "type check is always true.")
	}

	return guard
}

// -----------------------------------------------------------------------------

// onActualParameters checks the arguments of a call against the signature of
// the called procedure and returns the result type of the call.
func (s *Sema) onActualParameters(d *ast.Designator, first bool, pt *typing.ProcedureType, sel *ast.ActualParameters) typing.Type {
	for _, arg := range sel.Args {
		if arg.Type() == s.ctx.NoType {
			return s.ctx.NoType
		}
	}

	sig := pt
	if pp, ok := d.Decl.(*ast.PredefinedProc); ok && first {
		sig = s.dispatch(pp, sel)
		if sig == nil {
			return s.ctx.NoType
		}
	}

	sel.Signature = sig

	if len(sel.Args) < len(sig.Params) {
		s.error(sel.Pos(), "fewer actual than formal parameters.")
		return s.resultType(sig)
	} else if len(sel.Args) > len(sig.Params) && !sig.VarArgs {
		s.error(sel.Pos(), "more actual than formal parameters.")
		return s.resultType(sig)
	}

	for i, arg := range sel.Args {
		if i >= len(sig.Params) {
			if !typing.IsInteger(arg.Type()) {
				s.error(arg.Pos(), "integer expression expected.")
			}

			continue
		}

		param := sig.Params[i]
		if param.Var {
			s.checkVarArgument(param, arg)
		} else {
			sel.Args[i] = s.convert(arg.Pos(), param.Type, arg)
		}
	}

	return s.resultType(sig)
}

func (s *Sema) resultType(sig *typing.ProcedureType) typing.Type {
	if sig.Return == nil {
		return s.ctx.NoType
	}

	return sig.Return
}

// dispatch selects the signature of a call to an overloaded predefined
// procedure.  It returns nil after reporting a diagnostic if no signature is
// selected.
func (s *Sema) dispatch(pp *ast.PredefinedProc, sel *ast.ActualParameters) *typing.ProcedureType {
	if !pp.IsOverloaded() {
		return pp.Signatures[0]
	}

	actuals := make([]typing.Type, len(sel.Args))
	var typeType typing.Type
	for i, arg := range sel.Args {
		actuals[i] = arg.Type()

		if d, ok := arg.(*ast.Designator); ok && d.IsTypeRef() && typeType == nil {
			typeType = d.Decl.Type()
		}
	}

	if sig := typing.Dispatch(pp.Signatures, actuals, typeType, pp.IsCast); sig != nil {
		return sig
	}

	if winners, _ := typing.Candidates(pp.Signatures, actuals); len(winners) > 1 {
		s.error(sel.Pos(), "ambiguous call to %s.", pp.Name())
	} else {
		s.error(sel.Pos(), "no matching overload for %s.", pp.Name())
	}

	return nil
}

// checkVarArgument checks an argument passed to a variable parameter.
func (s *Sema) checkVarArgument(param *typing.Param, arg ast.Expr) {
	d, ok := arg.(*ast.Designator)
	if !ok || !s.isAssignable(d) {
		s.error(arg.Pos(), "illegal actual parameter: cannot pass %s by reference.", describe(arg))
		return
	}

	if err := typing.CheckCompatible(param.Type, arg.Type()); err != nil {
		s.error(arg.Pos(), err.Error())
		return
	}

	if typing.IsNumeric(param.Type) && !typing.IsVirtual(param.Type) && param.Type.Kind() != arg.Type().Kind() {
		s.error(arg.Pos(), "type mismatch: cannot pass %s to %s by reference.",
			typing.Format(arg.Type()), typing.Format(param.Type))
	}
}

// describe returns a short description of an expression for diagnostics.
func describe(expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.Designator:
		return v.Ident.String()
	case *ast.IntegerLit, *ast.RealLit, *ast.BooleanLit, *ast.CharLit, *ast.StringLit, *ast.SetLit, *ast.NilLit:
		return "a constant value"
	}

	return "an expression"
}
