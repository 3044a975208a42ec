package syntax

import (
	"oberonc/ast"
	"oberonc/report"
)

// relations maps the relational operator tokens to their operators.
var relations = map[int]ast.Operator{
	TOK_EQ:   ast.OpEq,
	TOK_NEQ:  ast.OpNeq,
	TOK_LT:   ast.OpLt,
	TOK_LTEQ: ast.OpLeq,
	TOK_GT:   ast.OpGt,
	TOK_GTEQ: ast.OpGeq,
	TOK_IN:   ast.OpIn,
	TOK_IS:   ast.OpIs,
}

// addOperators maps the additive operator tokens to their operators.
var addOperators = map[int]ast.Operator{
	TOK_PLUS:  ast.OpPlus,
	TOK_MINUS: ast.OpMinus,
	TOK_OR:    ast.OpOr,
}

// mulOperators maps the multiplicative operator tokens to their operators.
var mulOperators = map[int]ast.Operator{
	TOK_STAR:  ast.OpTimes,
	TOK_SLASH: ast.OpDivide,
	TOK_DIV:   ast.OpDiv,
	TOK_MOD:   ast.OpMod,
	TOK_AMP:   ast.OpAnd,
}

// expr := simple_expr [relation simple_expr] ;
func (p *Parser) parseExpr() ast.Expr {
	start := p.tok
	lhs := p.parseSimpleExpr()

	if op, ok := relations[p.tok.Kind]; ok {
		p.next()
		rhs := p.parseSimpleExpr()
		return p.sema.OnBinaryExpression(p.spanFrom(start), op, lhs, rhs)
	}

	return lhs
}

// expr_list := expr {',' expr} ;
func (p *Parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr()}

	for p.has(TOK_COMMA) {
		p.next()
		exprs = append(exprs, p.parseExpr())
	}

	return exprs
}

// simple_expr := ['+' | '-'] term {add_op term} ;
func (p *Parser) parseSimpleExpr() ast.Expr {
	start := p.tok

	var expr ast.Expr
	if op, ok := addOperators[p.tok.Kind]; ok && op != ast.OpOr {
		p.next()
		expr = p.sema.OnUnaryExpression(p.spanFrom(start), op, p.parseTerm())
	} else {
		expr = p.parseTerm()
	}

	for {
		op, ok := addOperators[p.tok.Kind]
		if !ok {
			return expr
		}

		p.next()
		rhs := p.parseTerm()
		expr = p.sema.OnBinaryExpression(p.spanFrom(start), op, expr, rhs)
	}
}

// term := factor {mul_op factor} ;
func (p *Parser) parseTerm() ast.Expr {
	start := p.tok
	expr := p.parseFactor()

	for {
		op, ok := mulOperators[p.tok.Kind]
		if !ok {
			return expr
		}

		p.next()
		rhs := p.parseFactor()
		expr = p.sema.OnBinaryExpression(p.spanFrom(start), op, expr, rhs)
	}
}

// factor := number | char | string | 'NIL' | 'TRUE' | 'FALSE' | set
//
//	| designator | '(' expr ')' | '~' factor ;
func (p *Parser) parseFactor() ast.Expr {
	tok := p.tok

	switch tok.Kind {
	case TOK_INTLIT:
		p.next()

		value, err := IntValue(tok)
		if err != nil {
			panic(err)
		}

		return p.sema.OnInteger(tok.Pos, value)
	case TOK_REALLIT:
		p.next()

		value, long, err := RealValue(tok)
		if err != nil {
			panic(err)
		}

		return p.sema.OnReal(tok.Pos, value, long)
	case TOK_CHARLIT:
		p.next()

		value, err := CharValue(tok)
		if err != nil {
			panic(err)
		}

		return p.sema.OnChar(tok.Pos, value)
	case TOK_STRINGLIT:
		p.next()
		return p.sema.OnString(tok.Pos, tok.Value)
	case TOK_NIL:
		p.next()
		return p.sema.OnNil(tok.Pos)
	case TOK_TRUE, TOK_FALSE:
		p.next()
		return p.sema.OnBoolean(tok.Pos, tok.Kind == TOK_TRUE)
	case TOK_LBRACE:
		return p.parseSet()
	case TOK_IDENT:
		{
			ident, selectors := p.parseDesignatorParts()
			return p.sema.OnDesignator(p.spanFrom(tok), ident, selectors)
		}
	case TOK_LPAREN:
		{
			p.next()
			expr := p.parseExpr()
			p.want(TOK_RPAREN)
			return expr
		}
	case TOK_TILDE:
		p.next()
		return p.sema.OnUnaryExpression(tok.Pos, ast.OpNot, p.parseFactor())
	}

	p.reject()
	return nil
}

// set := '{' [element {',' element}] '}' ;
// element := expr ['..' expr] ;
func (p *Parser) parseSet() ast.Expr {
	start := p.want(TOK_LBRACE)

	var elements []ast.Expr
	if !p.has(TOK_RBRACE) {
		for {
			elemStart := p.tok

			elem := p.parseExpr()
			if p.has(TOK_RANGE) {
				p.next()
				elem = p.sema.OnRangeExpr(p.spanFrom(elemStart), elem, p.parseExpr())
			}

			elements = append(elements, elem)

			if !p.has(TOK_COMMA) {
				break
			}

			p.next()
		}
	}

	p.want(TOK_RBRACE)

	return p.sema.OnSetExpr(p.spanFrom(start), elements)
}

// -----------------------------------------------------------------------------

// designator := ident {selector} ;
// selector := '.' ident | '[' expr_list ']' | '^' | '(' [expr_list] ')' ;
//
// A qualified identifier is parsed as an identifier followed by a field
// selector: the semantic analyzer tells the two apart.
func (p *Parser) parseDesignatorParts() (*ast.QualIdent, []ast.Selector) {
	name := p.want(TOK_IDENT)
	ident := ast.NewQualIdent(name.Pos, "", name.Value)

	var selectors []ast.Selector
	for {
		start := p.tok

		switch p.tok.Kind {
		case TOK_DOT:
			{
				p.next()
				field := p.want(TOK_IDENT)
				selectors = append(selectors, &ast.RecordField{
					SelectorBase: ast.NewSelectorBase(report.TextPositionFromRange(start.Pos, field.Pos)),
					Name:         field.Value,
				})
			}
		case TOK_LBRACKET:
			{
				p.next()
				indices := p.parseExprList()
				p.want(TOK_RBRACKET)

				selectors = append(selectors, &ast.ArrayIndex{
					SelectorBase: ast.NewSelectorBase(p.spanFrom(start)),
					Indices:      indices,
				})
			}
		case TOK_CARET:
			p.next()
			selectors = append(selectors, &ast.Dereference{SelectorBase: ast.NewSelectorBase(start.Pos)})
		case TOK_LPAREN:
			{
				p.next()

				var args []ast.Expr
				if !p.has(TOK_RPAREN) {
					args = p.parseExprList()
				}

				p.want(TOK_RPAREN)

				selectors = append(selectors, &ast.ActualParameters{
					SelectorBase: ast.NewSelectorBase(p.spanFrom(start)),
					Args:         args,
				})
			}
		default:
			return ident, selectors
		}
	}
}
