package syntax

import (
	"oberonc/ast"
)

// stmt_seq := stmt {';' stmt} ;
func (p *Parser) parseStmtSeq() []ast.Stmt {
	var stmts []ast.Stmt

	for {
		if stmt := p.parseGuardedStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}

		if !p.has(TOK_SEMI) {
			break
		}

		p.next()
	}

	return stmts
}

// parseGuardedStmt parses a statement recovering from syntax errors inside it.
// It returns nil for empty and erroneous statements.
func (p *Parser) parseGuardedStmt() (stmt ast.Stmt) {
	defer p.recoverStmt()

	return p.parseStmt()
}

// stmt := [assign_or_call | if_stmt | case_stmt | while_stmt | repeat_stmt
//
//	| for_stmt | loop_stmt | 'EXIT' | return_stmt] ;
func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case TOK_IDENT:
		return p.parseAssignOrCall()
	case TOK_IF:
		return p.parseIfStmt()
	case TOK_CASE:
		return p.parseCaseStmt()
	case TOK_WHILE:
		return p.parseWhileStmt()
	case TOK_REPEAT:
		return p.parseRepeatStmt()
	case TOK_FOR:
		return p.parseForStmt()
	case TOK_LOOP:
		return p.parseLoopStmt()
	case TOK_EXIT:
		return p.sema.OnExit(p.want(TOK_EXIT).Pos)
	case TOK_RETURN:
		return p.parseReturnStmt()
	}

	// empty statement
	return nil
}

// assign_or_call := designator [':=' expr] ;
func (p *Parser) parseAssignOrCall() ast.Stmt {
	start := p.tok

	ident, selectors := p.parseDesignatorParts()
	d := p.sema.Resolve(p.spanFrom(start), ident, selectors)

	switch p.tok.Kind {
	case TOK_ASSIGN:
		p.next()
		rhs := p.parseExpr()
		return p.sema.OnAssignment(p.spanFrom(start), d, rhs)
	case TOK_EQ:
		p.want(TOK_ASSIGN)
	}

	return p.sema.OnProcedureCall(p.spanFrom(start), d)
}

// if_stmt := 'IF' expr 'THEN' stmt_seq {'ELSIF' expr 'THEN' stmt_seq}
//
//	['ELSE' stmt_seq] 'END' ;
func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.want(TOK_IF)

	cond := p.parseExpr()
	p.want(TOK_THEN)
	then := p.parseStmtSeq()

	var elsifs []*ast.CondBranch
	for p.has(TOK_ELSIF) {
		tok := p.want(TOK_ELSIF)

		branchCond := p.parseExpr()
		p.want(TOK_THEN)
		elsifs = append(elsifs, p.sema.OnElsIf(tok.Pos, branchCond, p.parseStmtSeq()))
	}

	var els []ast.Stmt
	if p.has(TOK_ELSE) {
		p.next()
		els = p.parseStmtSeq()
	}

	p.want(TOK_END)

	return p.sema.OnIf(start.Pos, cond, then, elsifs, els)
}

// case_stmt := 'CASE' expr 'OF' [case] {'|' [case]} ['ELSE' stmt_seq] 'END' ;
// case := case_label {',' case_label} ':' stmt_seq ;
// case_label := expr ['..' expr] ;
func (p *Parser) parseCaseStmt() ast.Stmt {
	start := p.want(TOK_CASE)

	expr := p.parseExpr()
	p.want(TOK_OF)

	var clauses []*ast.CaseClause
	for {
		if !p.hasOneOf(TOK_BAR, TOK_ELSE, TOK_END) {
			clauseStart := p.tok

			var labels []ast.Expr
			for {
				labelStart := p.tok

				label := p.parseExpr()
				if p.has(TOK_RANGE) {
					p.next()
					label = p.sema.OnRangeExpr(p.spanFrom(labelStart), label, p.parseExpr())
				}

				labels = append(labels, label)

				if !p.has(TOK_COMMA) {
					break
				}

				p.next()
			}

			p.want(TOK_COLON)
			p.sema.OnCaseLabels(expr, labels)
			body := p.parseStmtSeq()

			clauses = append(clauses, p.sema.OnCaseClause(clauseStart.Pos, expr, labels, body))
		}

		if !p.has(TOK_BAR) {
			break
		}

		p.next()
	}

	var els []ast.Stmt
	if p.has(TOK_ELSE) {
		p.next()
		els = p.parseStmtSeq()
	}

	p.want(TOK_END)

	return p.sema.OnCase(start.Pos, expr, clauses, els)
}

// while_stmt := 'WHILE' expr 'DO' stmt_seq {'ELSIF' expr 'DO' stmt_seq} 'END' ;
func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.want(TOK_WHILE)

	cond := p.parseExpr()
	p.want(TOK_DO)
	body := p.parseStmtSeq()

	var elsifs []*ast.CondBranch
	for p.has(TOK_ELSIF) {
		tok := p.want(TOK_ELSIF)

		branchCond := p.parseExpr()
		p.want(TOK_DO)
		elsifs = append(elsifs, p.sema.OnElsIf(tok.Pos, branchCond, p.parseStmtSeq()))
	}

	p.want(TOK_END)

	return p.sema.OnWhile(start.Pos, cond, body, elsifs)
}

// repeat_stmt := 'REPEAT' stmt_seq 'UNTIL' expr ;
func (p *Parser) parseRepeatStmt() ast.Stmt {
	start := p.want(TOK_REPEAT)

	body := p.parseStmtSeq()
	p.want(TOK_UNTIL)

	return p.sema.OnRepeat(start.Pos, body, p.parseExpr())
}

// for_stmt := 'FOR' ident ':=' expr 'TO' expr ['BY' expr] 'DO' stmt_seq 'END' ;
func (p *Parser) parseForStmt() ast.Stmt {
	start := p.want(TOK_FOR)

	name := p.want(TOK_IDENT)
	counter := p.sema.Resolve(name.Pos, ast.NewQualIdent(name.Pos, "", name.Value), nil)

	p.want(TOK_ASSIGN)
	low := p.parseExpr()
	p.want(TOK_TO)
	high := p.parseExpr()

	var step ast.Expr
	if p.has(TOK_BY) {
		p.next()
		step = p.parseExpr()
	}

	p.want(TOK_DO)
	body := p.parseStmtSeq()
	p.want(TOK_END)

	return p.sema.OnFor(start.Pos, counter, low, high, step, body)
}

// loop_stmt := 'LOOP' stmt_seq 'END' ;
func (p *Parser) parseLoopStmt() ast.Stmt {
	start := p.want(TOK_LOOP)

	p.sema.OnLoopStart()
	body := p.parseStmtSeq()
	p.want(TOK_END)

	return p.sema.OnLoop(start.Pos, body)
}

// return_stmt := 'RETURN' [expr] ;
func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.want(TOK_RETURN)

	var value ast.Expr
	if !p.hasOneOf(TOK_SEMI, TOK_END, TOK_ELSE, TOK_ELSIF, TOK_UNTIL, TOK_BAR, TOK_EOF) {
		value = p.parseExpr()
	}

	return p.sema.OnReturn(p.spanFrom(start), value)
}
