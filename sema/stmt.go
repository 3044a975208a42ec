package sema

import (
	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

// OnAssignment checks an assignment.
func (s *Sema) OnAssignment(pos *report.TextPosition, lhs *ast.Designator, rhs ast.Expr) *ast.Assignment {
	stmt := &ast.Assignment{ASTBase: ast.NewASTBaseOn(pos), Lhs: lhs, Rhs: rhs}

	if !s.assertAssignable(lhs) || lhs.Type() == s.ctx.NoType {
		return stmt
	}

	stmt.Rhs = s.convert(rhs.Pos(), lhs.Type(), rhs)
	return stmt
}

// OnProcedureCall checks a procedure call statement.  A proper procedure
// without parameters may be called without a parameter list.
func (s *Sema) OnProcedureCall(pos *report.TextPosition, call *ast.Designator) *ast.ProcCall {
	stmt := &ast.ProcCall{ASTBase: ast.NewASTBaseOn(pos), Call: call}

	if call.Decl == nil || call.Type() == s.ctx.NoType && !call.IsCall() {
		return stmt
	}

	if !call.IsCall() {
		pt, ok := call.Type().(*typing.ProcedureType)
		if !ok {
			s.error(pos, "procedure call expected.")
			return stmt
		}

		if pt.Return != nil {
			s.error(pos, "function procedure call must be followed by parameter list.")
			return stmt
		}

		params := &ast.ActualParameters{SelectorBase: ast.NewSelectorBase(call.Pos())}
		s.onActualParameters(call, len(call.Selectors) == 0, pt, params)
		params.SetType(s.ctx.NoType)
		call.Selectors = append(call.Selectors, params)
		call.SetType(s.ctx.NoType)
		return stmt
	}

	if call.Type() != s.ctx.NoType {
		s.warn(pos, "discarded expression value.")
	}

	return stmt
}

// assertBoolean checks that a condition is a boolean expression.
func (s *Sema) assertBoolean(cond ast.Expr) {
	if cond.Type() != s.ctx.NoType && !typing.IsBoolean(cond.Type()) {
		s.error(cond.Pos(), "Boolean expression expected.")
	}
}

func (s *Sema) OnIf(pos *report.TextPosition, cond ast.Expr, then []ast.Stmt, elsifs []*ast.CondBranch, els []ast.Stmt) *ast.IfStmt {
	s.assertBoolean(cond)
	for _, branch := range elsifs {
		s.assertBoolean(branch.Cond)
	}

	return &ast.IfStmt{ASTBase: ast.NewASTBaseOn(pos), Cond: cond, Then: then, ElsIfs: elsifs, Else: els}
}

// OnElsIf creates a conditional branch of an `IF` or `WHILE` statement.
func (s *Sema) OnElsIf(pos *report.TextPosition, cond ast.Expr, body []ast.Stmt) *ast.CondBranch {
	return &ast.CondBranch{ASTBase: ast.NewASTBaseOn(pos), Cond: cond, Body: body}
}

func (s *Sema) OnWhile(pos *report.TextPosition, cond ast.Expr, body []ast.Stmt, elsifs []*ast.CondBranch) *ast.WhileStmt {
	s.assertBoolean(cond)
	for _, branch := range elsifs {
		s.assertBoolean(branch.Cond)
	}

	return &ast.WhileStmt{ASTBase: ast.NewASTBaseOn(pos), Cond: cond, Body: body, ElsIfs: elsifs}
}

func (s *Sema) OnRepeat(pos *report.TextPosition, body []ast.Stmt, cond ast.Expr) *ast.RepeatStmt {
	s.assertBoolean(cond)
	return &ast.RepeatStmt{ASTBase: ast.NewASTBaseOn(pos), Body: body, Cond: cond}
}

// -----------------------------------------------------------------------------

// isTypeCase returns whether a case expression selects on the dynamic type of
// a pointer or a record.
func isTypeCase(expr ast.Expr) bool {
	return typing.IsPointer(expr.Type()) || typing.IsRecord(expr.Type())
}

// OnCaseLabels is called once the labels of a case clause are parsed.  In a
// type case, the case variable has the type of the label within the clause.
func (s *Sema) OnCaseLabels(expr ast.Expr, labels []ast.Expr) {
	var n *narrowing

	d, ok := expr.(*ast.Designator)
	if ok && isTypeCase(expr) && isWholeVariable(d) && len(labels) == 1 {
		if label, ok := labels[0].(*ast.Designator); ok && label.IsTypeRef() && typing.Extends(label.Decl.Type(), expr.Type()) {
			n = &narrowing{decl: d.Decl, prev: s.narrowed[d.Decl]}
			s.narrowed[d.Decl] = label.Decl.Type()
		}
	}

	s.narrowings = append(s.narrowings, n)
}

// endNarrowing restores the type of the case variable narrowed by the
// innermost case clause.
func (s *Sema) endNarrowing() {
	last := len(s.narrowings) - 1
	if last < 0 {
		return
	}

	if n := s.narrowings[last]; n != nil {
		if n.prev == nil {
			delete(s.narrowed, n.decl)
		} else {
			s.narrowed[n.decl] = n.prev
		}
	}

	s.narrowings = s.narrowings[:last]
}

// OnCaseClause checks the labels of a case clause against the type of the case
// expression.
func (s *Sema) OnCaseClause(pos *report.TextPosition, expr ast.Expr, labels []ast.Expr, body []ast.Stmt) *ast.CaseClause {
	clause := &ast.CaseClause{ASTBase: ast.NewASTBaseOn(pos), Labels: labels, Body: body}
	s.endNarrowing()

	if isTypeCase(expr) {
		if len(labels) > 0 {
			s.checkTypeLabels(expr, labels)
		}

		return clause
	}

	for _, label := range labels {
		if label.Type() == s.ctx.NoType {
			continue
		}

		bound := label
		if re, ok := label.(*ast.RangeExpr); ok {
			if _, _, ok := rangeBounds(re); !ok {
				s.error(label.Pos(), "constant expression expected.")
				continue
			}

			bound = re.Low
		} else if !label.IsLiteral() {
			s.error(label.Pos(), "constant expression expected.")
			continue
		}

		if et := expr.Type(); et != s.ctx.NoType {
			if typing.IsInteger(et) != typing.IsInteger(bound.Type()) || typing.IsChar(et) != typing.IsChar(bound.Type()) {
				s.error(label.Pos(), "type mismatch: case labels must all have the same type.")
			}
		}
	}

	return clause
}

// OnCase checks a case statement.  The labels of all clauses must be distinct.
func (s *Sema) OnCase(pos *report.TextPosition, expr ast.Expr, clauses []*ast.CaseClause, els []ast.Stmt) *ast.CaseStmt {
	stmt := &ast.CaseStmt{ASTBase: ast.NewASTBaseOn(pos), Expr: expr, Clauses: clauses, Else: els}

	if isTypeCase(expr) {
		s.checkTypeCase(expr, clauses)
		return stmt
	}

	if et := expr.Type(); et != s.ctx.NoType && !typing.IsInteger(et) && !typing.IsChar(et) {
		s.error(expr.Pos(), "integer, character, pointer or record expression expected.")
		return stmt
	}

	type span struct{ lo, hi int64 }
	var seen []span

	for _, clause := range clauses {
		for _, label := range clause.Labels {
			var lo, hi int64
			var ok bool

			if re, isRange := label.(*ast.RangeExpr); isRange {
				lo, hi, ok = rangeBounds(re)
			} else {
				lo, ok = ordinal(label)
				hi = lo
			}

			if !ok {
				continue
			}

			for _, other := range seen {
				if lo <= other.hi && other.lo <= hi {
					s.error(label.Pos(), "duplicate case labels in case statement.")
					break
				}
			}

			seen = append(seen, span{lo, hi})
		}
	}

	return stmt
}

// checkTypeLabels checks the label of a type case clause: a single type
// extending the type of the case variable.
func (s *Sema) checkTypeLabels(expr ast.Expr, labels []ast.Expr) {
	if len(labels) > 1 {
		s.error(labels[1].Pos(), "non-integer case must have a single type as label.")
	}

	label, ok := labels[0].(*ast.Designator)
	if !ok || !label.IsTypeRef() {
		if labels[0].Type() != s.ctx.NoType {
			s.error(labels[0].Pos(), "type mismatch: case label type must be pointer or record.")
		}

		return
	}

	lt, et := label.Decl.Type(), expr.Type()
	if typing.IsPointer(lt) != typing.IsPointer(et) || typing.IsRecord(lt) != typing.IsRecord(et) {
		s.error(label.Pos(), "type mismatch: case label type %s is incompatible with case expression type %s.",
			typing.Format(lt), typing.Format(et))
	} else if !typing.Extends(lt, et) {
		s.error(label.Pos(), "type mismatch: %s is not an extension of %s.", typing.Format(lt), typing.Format(et))
	}
}

// checkTypeCase checks a type case statement.  The case variable must be a
// variable or a variable parameter and no label may repeat an earlier one.
// Labels extending an earlier label can never be selected.
func (s *Sema) checkTypeCase(expr ast.Expr, clauses []*ast.CaseClause) {
	d, ok := expr.(*ast.Designator)
	if !ok || !isWholeVariable(d) {
		s.error(expr.Pos(), "non-integer case expression must be a variable or variable parameter.")
	} else if param, ok := d.Decl.(*ast.ParamDecl); typing.IsRecord(expr.Type()) && (!ok || !param.Var) {
		s.error(expr.Pos(), "record must be a variable parameter.")
	}

	var seen []typing.Type
	for _, clause := range clauses {
		if len(clause.Labels) == 0 {
			continue
		}

		label, ok := clause.Labels[0].(*ast.Designator)
		if !ok || !label.IsTypeRef() {
			continue
		}

		lt := label.Decl.Type()
		for _, prev := range seen {
			if typing.Equal(lt, prev) {
				s.error(label.Pos(), "duplicate case labels in case statement.")
				break
			} else if typing.Extends(lt, prev) {
				s.warn(label.Pos(), "unreachable case label in case statement.")
				break
			}
		}

		seen = append(seen, lt)
	}
}

// -----------------------------------------------------------------------------

// OnFor checks a for statement.  The step defaults to 1 if it is nil.
func (s *Sema) OnFor(pos *report.TextPosition, counter *ast.Designator, low, high, step ast.Expr, body []ast.Stmt) *ast.ForStmt {
	stmt := &ast.ForStmt{ASTBase: ast.NewASTBaseOn(pos), Counter: counter, Low: low, High: high, Step: 1, Body: body}

	if step != nil {
		if lit, ok := step.(*ast.IntegerLit); !ok {
			if step.Type() != s.ctx.NoType {
				s.error(step.Pos(), "constant expression expected.")
			}
		} else if lit.Value == 0 {
			s.error(step.Pos(), "step value cannot be zero.")
		} else {
			stmt.Step = lit.Value
		}
	}

	if counter.Decl == nil {
		return stmt
	}

	switch counter.Decl.(type) {
	case *ast.VarDecl, *ast.ParamDecl:
		if len(counter.Selectors) > 0 {
			s.error(counter.Pos(), "variable expected.")
			return stmt
		}
	default:
		s.error(counter.Pos(), "variable expected.")
		return stmt
	}

	if !s.assertAssignable(counter) {
		return stmt
	}

	ct := counter.Type()
	if !typing.IsInteger(ct) {
		s.error(counter.Pos(), "type mismatch: integer type expected, found %s.", typing.Format(ct))
		return stmt
	}

	stmt.Low = s.convert(low.Pos(), ct, low)
	stmt.High = s.convert(high.Pos(), ct, high)

	if step != nil && !typing.Fits(ct, stmt.Step) {
		s.error(step.Pos(), "step value %d does not fit into %s.", stmt.Step, typing.Format(ct))
	}

	return stmt
}

// OnLoopStart enters a `LOOP` statement.
func (s *Sema) OnLoopStart() {
	s.loops = append(s.loops, false)
}

// OnLoop completes a `LOOP` statement.
func (s *Sema) OnLoop(pos *report.TextPosition, body []ast.Stmt) *ast.LoopStmt {
	if n := len(s.loops); n > 0 {
		if !s.loops[n-1] {
			s.warn(pos, "LOOP statement without EXIT found.")
		}

		s.loops = s.loops[:n-1]
	}

	return &ast.LoopStmt{ASTBase: ast.NewASTBaseOn(pos), Body: body}
}

func (s *Sema) OnExit(pos *report.TextPosition) *ast.ExitStmt {
	if n := len(s.loops); n == 0 {
		s.error(pos, "EXIT statement outside of loop.")
	} else {
		s.loops[n-1] = true
	}

	return &ast.ExitStmt{ASTBase: ast.NewASTBaseOn(pos)}
}

// OnReturn checks a return statement against the enclosing procedure.  The
// value is nil for returns without a value.
func (s *Sema) OnReturn(pos *report.TextPosition, value ast.Expr) *ast.ReturnStmt {
	stmt := &ast.ReturnStmt{ASTBase: ast.NewASTBaseOn(pos), Value: value}

	proc := s.enclosingProc()
	switch {
	case proc == nil:
		if value != nil {
			s.error(pos, "module cannot return a value.")
		}
	case proc.Signature() == nil:
	case proc.Signature().Return == nil:
		if value != nil {
			s.error(pos, "procedure cannot return a value.")
		}
	case value == nil:
		s.error(pos, "function must return value.")
	default:
		stmt.Value = s.convert(value.Pos(), proc.Signature().Return, value)
	}

	return stmt
}
