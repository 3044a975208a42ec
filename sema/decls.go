package sema

import (
	"oberonc/ast"
	"oberonc/depm"
	"oberonc/report"
	"oberonc/typing"
)

// newDeclBase creates the base of a declaration in the current scope.
func (s *Sema) newDeclBase(pos *report.TextPosition, ident *ast.Ident, typ typing.Type) ast.DeclBase {
	id := *ident
	return ast.NewDeclBase(pos, &id, s.module.Name(), typ, s.level())
}

// OnConstant declares a constant.  The value must have been folded to a
// literal.
func (s *Sema) OnConstant(pos *report.TextPosition, ident *ast.Ident, value ast.Expr) *ast.ConstDecl {
	decl := &ast.ConstDecl{}

	if value == nil || !value.IsLiteral() {
		if value != nil {
			s.error(value.Pos(), "value must be constant.")
		}

		decl.DeclBase = s.newDeclBase(pos, ident, s.ctx.NoType)
	} else {
		decl.DeclBase = s.newDeclBase(pos, ident, value.Type())
		decl.Value = value
	}

	s.checkExport(pos, decl)
	s.assertUnique(pos, decl)

	block := s.block()
	block.Consts = append(block.Consts, decl)
	return decl
}

// OnTypeDeclaration binds a name to a type.  Pointer types waiting for the
// declared name as their base are patched.
func (s *Sema) OnTypeDeclaration(pos *report.TextPosition, ident *ast.Ident, typ typing.Type) *ast.TypeDecl {
	if typ == nil {
		typ = s.ctx.NoType
	} else if typ != s.ctx.NoType {
		typ = s.ctx.Declare(typ, s.module.Name(), ident.Name)
	}

	decl := &ast.TypeDecl{DeclBase: s.newDeclBase(pos, ident, typ)}
	s.checkExport(pos, decl)
	s.assertUnique(pos, decl)

	pending := s.forwards[:0]
	for _, fwd := range s.forwards {
		if fwd.ident.Name != ident.Name {
			pending = append(pending, fwd)
			continue
		}

		if !typing.IsRecord(typ) {
			s.error(fwd.ident.Pos(), "pointer base type must be a record type.")
			fwd.pointer.Base = s.ctx.NoType
		} else {
			fwd.pointer.Base = typ
		}
	}
	s.forwards = pending

	block := s.block()
	block.Types = append(block.Types, decl)
	return decl
}

// OnDeclarationsEnd reports the forward references of pointer types that
// were not resolved by the type declarations of the declaration sequence.  It
// is invoked before the procedure declarations of the sequence.
func (s *Sema) OnDeclarationsEnd() {
	for _, fwd := range s.forwards {
		s.error(fwd.ident.Pos(), "undefined forward reference: %s.", fwd.ident.Name)
		fwd.pointer.Base = s.ctx.NoType
	}

	s.forwards = nil
}

// OnVariables declares a list of variables sharing a type.
func (s *Sema) OnVariables(idents []IdentDef, typ typing.Type) []*ast.VarDecl {
	if typ == nil {
		typ = s.ctx.NoType
	}

	decls := make([]*ast.VarDecl, len(idents))
	block := s.block()

	for i := range idents {
		decl := &ast.VarDecl{DeclBase: s.newDeclBase(idents[i].Pos, &idents[i].Ident, typ)}
		decl.SetSeq(i)

		s.checkExport(idents[i].Pos, decl)
		s.assertUnique(idents[i].Pos, decl)

		decls[i] = decl
	}

	block.Vars = append(block.Vars, decls...)
	return decls
}

// -----------------------------------------------------------------------------

// OnProcedureStart declares a procedure and opens its scope.  The procedure is
// declared before its parameters so that it can call itself.
func (s *Sema) OnProcedureStart(pos *report.TextPosition, ident *ast.Ident) *ast.ProcDecl {
	proc := &ast.ProcDecl{
		DeclBase: s.newDeclBase(pos, ident, s.ctx.NewProcedure(nil, nil, false)),
		Parent:   s.enclosingProc(),
	}

	s.checkExport(pos, proc)
	s.assertUnique(pos, proc)

	block := s.block()
	block.Procs = append(block.Procs, proc)

	s.procs = append(s.procs, proc)
	s.table.OpenScope()
	return proc
}

// OnParameters creates a section of formal parameters sharing a type.  The
// parameters are declared in the current scope if `declare` is set: the
// parameters of procedure types are not declared.
func (s *Sema) OnParameters(idents []IdentDef, isVar bool, typ typing.Type, declare bool) []*ast.ParamDecl {
	if typ == nil {
		typ = s.ctx.NoType
	}

	params := make([]*ast.ParamDecl, len(idents))
	for i := range idents {
		param := &ast.ParamDecl{DeclBase: s.newDeclBase(idents[i].Pos, &idents[i].Ident, typ), Var: isVar}
		param.SetSeq(i)

		if declare {
			s.assertUnique(idents[i].Pos, param)
		}

		params[i] = param
	}

	return params
}

// OnFormalParameters builds the procedure type of a formal parameter list.
// The result type may be nil for proper procedures.
func (s *Sema) OnFormalParameters(pos *report.TextPosition, params []*ast.ParamDecl, ret typing.Type) *typing.ProcedureType {
	if ret != nil && typing.IsStructured(ret) {
		s.error(pos, "result type of a procedure can neither be a record nor an array.")
		ret = s.ctx.NoType
	}

	tparams := make([]*typing.Param, len(params))
	for i, param := range params {
		param.Index = i
		tparams[i] = &typing.Param{
			Name: param.Name(),
			Var:  param.Var,
			Type: param.Type(),
			Seq:  param.Seq(),
		}
	}

	return s.ctx.NewProcedure(tparams, ret, false)
}

// OnProcedureSignature sets the signature of the procedure being declared.
func (s *Sema) OnProcedureSignature(proc *ast.ProcDecl, params []*ast.ParamDecl, sig *typing.ProcedureType) {
	proc.Params = params
	proc.SetType(sig)
}

// OnProcedureEnd completes the procedure with its body and closes its scope.
func (s *Sema) OnProcedureEnd(pos *report.TextPosition, name string, body []ast.Stmt) *ast.ProcDecl {
	proc := s.enclosingProc()
	proc.Body = body
	proc.EndPos = pos

	if name != proc.Name() {
		s.error(pos, "procedure name mismatch: expected %s, found %s.", proc.Name(), name)
	}

	if sig := proc.Signature(); sig != nil && sig.Return != nil && !alwaysReturns(body) {
		s.error(proc.Pos(), "not all control flow paths of procedure %s return a result.", proc.Name())
	}

	if err := s.table.CloseScope(); err != nil {
		report.ReportICE("failed to close scope of procedure %s: %s", proc.Name(), err)
	}

	s.procs = s.procs[:len(s.procs)-1]
	return proc
}

// alwaysReturns returns whether every path through a statement sequence ends
// in a `RETURN` statement.
func alwaysReturns(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.IfStmt:
			if v.Else == nil || !alwaysReturns(v.Then) || !alwaysReturns(v.Else) {
				continue
			}

			all := true
			for _, branch := range v.ElsIfs {
				all = all && alwaysReturns(branch.Body)
			}

			if all {
				return true
			}
		case *ast.CaseStmt:
			if v.Else == nil || !alwaysReturns(v.Else) {
				continue
			}

			all := true
			for _, clause := range v.Clauses {
				all = all && alwaysReturns(clause.Body)
			}

			if all {
				return true
			}
		case *ast.LoopStmt:
			if !containsExit(v.Body) {
				return true
			}
		case *ast.RepeatStmt:
			if alwaysReturns(v.Body) {
				return true
			}
		}
	}

	return false
}

// containsExit returns whether a statement sequence contains an `EXIT` leaving
// the loop it belongs to.  Nested loops are not searched.
func containsExit(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.ExitStmt:
			return true
		case *ast.IfStmt:
			if containsExit(v.Then) || containsExit(v.Else) {
				return true
			}

			for _, branch := range v.ElsIfs {
				if containsExit(branch.Body) {
					return true
				}
			}
		case *ast.CaseStmt:
			if containsExit(v.Else) {
				return true
			}

			for _, clause := range v.Clauses {
				if containsExit(clause.Body) {
					return true
				}
			}
		case *ast.WhileStmt:
			if containsExit(v.Body) {
				return true
			}

			for _, branch := range v.ElsIfs {
				if containsExit(branch.Body) {
					return true
				}
			}
		case *ast.RepeatStmt:
			if containsExit(v.Body) {
				return true
			}
		case *ast.ForStmt:
			if containsExit(v.Body) {
				return true
			}
		}
	}

	return false
}

// isLocalOfEnclosing returns whether a declaration is a local variable or
// parameter of a procedure enclosing the current procedure.
func (s *Sema) isLocalOfEnclosing(decl ast.Decl) bool {
	switch decl.(type) {
	case *ast.VarDecl, *ast.ParamDecl:
		return decl.Level() > depm.ModuleLevel && decl.Level() < s.level()
	}

	return false
}
