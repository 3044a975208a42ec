package syntax

import (
	"oberonc/ast"
	"oberonc/report"
	"oberonc/typing"
)

// type := qualident | array_type | record_type | pointer_type | proc_type ;
func (p *Parser) parseType() typing.Type {
	switch p.tok.Kind {
	case TOK_IDENT:
		return p.sema.OnTypeReference(p.parseQualIdent())
	case TOK_ARRAY:
		return p.parseArrayType()
	case TOK_RECORD:
		return p.parseRecordType()
	case TOK_POINTER:
		return p.parsePointerType()
	case TOK_PROCEDURE:
		{
			start := p.want(TOK_PROCEDURE)

			var params []*ast.ParamDecl
			var ret typing.Type
			if p.has(TOK_LPAREN) {
				params, ret = p.parseFormalParams(false)
			}

			return p.sema.OnProcedureType(p.spanFrom(start), params, ret)
		}
	}

	p.reject()
	return nil
}

// array_type := 'ARRAY' [expr {',' expr}] 'OF' type ;
func (p *Parser) parseArrayType() typing.Type {
	start := p.want(TOK_ARRAY)

	var lengths []ast.Expr
	if p.has(TOK_OF) {
		// open array
		lengths = []ast.Expr{nil}
	} else {
		lengths = p.parseExprList()
	}

	p.want(TOK_OF)
	member := p.parseType()

	return p.sema.OnArrayType(p.spanFrom(start), lengths, member)
}

// record_type := 'RECORD' ['(' qualident ')'] [field_list {';' field_list}] 'END' ;
// field_list := ident_list ':' type ;
func (p *Parser) parseRecordType() typing.Type {
	start := p.want(TOK_RECORD)

	var base typing.Type
	if p.has(TOK_LPAREN) {
		p.next()
		base = p.sema.OnTypeReference(p.parseQualIdent())
		p.want(TOK_RPAREN)
	}

	var fields []*typing.Field
	var positions []*report.TextPosition
	for {
		if p.has(TOK_IDENT) {
			idents := p.parseIdentList()
			p.want(TOK_COLON)

			fields = append(fields, p.sema.OnFields(idents, p.parseType())...)
			for _, ident := range idents {
				positions = append(positions, ident.Pos)
			}
		}

		if !p.has(TOK_SEMI) {
			break
		}

		p.next()
	}

	p.want(TOK_END)

	return p.sema.OnRecordType(p.spanFrom(start), base, fields, positions)
}

// pointer_type := 'POINTER' 'TO' type ;
func (p *Parser) parsePointerType() typing.Type {
	start := p.want(TOK_POINTER)
	p.want(TOK_TO)

	// named bases may be declared later on
	if p.has(TOK_IDENT) {
		ident := p.parseQualIdent()
		return p.sema.OnPointerTo(p.spanFrom(start), ident)
	}

	base := p.parseType()
	return p.sema.OnPointerType(p.spanFrom(start), base)
}
