package syntax

import (
	"oberonc/ast"
	"oberonc/sema"
	"oberonc/typing"
)

// decl_seq := {'CONST' {const_decl ';'} | 'TYPE' {type_decl ';'}
//
//	| 'VAR' {var_decl ';'}} {proc_decl ';'} ;
func (p *Parser) parseDeclSeq() {
sections:
	for {
		switch p.tok.Kind {
		case TOK_CONST:
			p.next()

			for p.has(TOK_IDENT) {
				p.parseConstDecl()
				p.want(TOK_SEMI)
			}
		case TOK_TYPE:
			p.next()

			for p.has(TOK_IDENT) {
				p.parseTypeDecl()
				p.want(TOK_SEMI)
			}
		case TOK_VAR:
			p.next()

			for p.has(TOK_IDENT) {
				p.parseVarDecl()
				p.want(TOK_SEMI)
			}
		default:
			break sections
		}
	}

	p.sema.OnDeclarationsEnd()

	for p.has(TOK_PROCEDURE) {
		p.parseProcDecl()
		p.want(TOK_SEMI)
	}
}

// const_decl := ident_def '=' expr ;
func (p *Parser) parseConstDecl() {
	def := p.parseIdentDef()
	p.want(TOK_EQ)

	p.sema.OnConstant(def.Pos, &def.Ident, p.parseExpr())
}

// type_decl := ident_def '=' type ;
func (p *Parser) parseTypeDecl() {
	def := p.parseIdentDef()
	p.want(TOK_EQ)

	p.sema.OnTypeDeclaration(def.Pos, &def.Ident, p.parseType())
}

// var_decl := ident_list ':' type ;
func (p *Parser) parseVarDecl() {
	idents := p.parseIdentList()
	p.want(TOK_COLON)

	p.sema.OnVariables(idents, p.parseType())
}

// proc_decl := 'PROCEDURE' ident_def [formal_params] ';' decl_seq
//
//	['BEGIN' stmt_seq] ['RETURN' expr] 'END' ident ;
func (p *Parser) parseProcDecl() {
	p.want(TOK_PROCEDURE)
	def := p.parseIdentDef()

	proc := p.sema.OnProcedureStart(def.Pos, &def.Ident)

	var params []*ast.ParamDecl
	var ret typing.Type
	if p.has(TOK_LPAREN) {
		params, ret = p.parseFormalParams(true)
	}

	p.sema.OnProcedureSignature(proc, params, p.sema.OnFormalParameters(def.Pos, params, ret))
	p.want(TOK_SEMI)

	p.parseDeclSeq()

	var body []ast.Stmt
	if p.has(TOK_BEGIN) {
		p.next()
		body = p.parseStmtSeq()
	}

	// Oberon-07 style result: `... RETURN x END F`
	if p.has(TOK_RETURN) {
		body = append(body, p.parseReturnStmt())
	}

	p.want(TOK_END)
	name := p.want(TOK_IDENT)

	p.sema.OnProcedureEnd(name.Pos, name.Value, body)
}

// formal_params := '(' [fp_section {';' fp_section}] ')' [':' qualident] ;
// fp_section := ['VAR'] ident {',' ident} ':' type ;
func (p *Parser) parseFormalParams(declare bool) ([]*ast.ParamDecl, typing.Type) {
	p.want(TOK_LPAREN)

	var params []*ast.ParamDecl
	if !p.has(TOK_RPAREN) {
		for {
			isVar := false
			if p.has(TOK_VAR) {
				p.next()
				isVar = true
			}

			var idents []sema.IdentDef
			for {
				tok := p.want(TOK_IDENT)
				idents = append(idents, sema.IdentDef{Ident: ast.Ident{Name: tok.Value}, Pos: tok.Pos})

				if !p.has(TOK_COMMA) {
					break
				}

				p.next()
			}

			p.want(TOK_COLON)
			params = append(params, p.sema.OnParameters(idents, isVar, p.parseType(), declare)...)

			if !p.has(TOK_SEMI) {
				break
			}

			p.next()
		}
	}

	p.want(TOK_RPAREN)

	var ret typing.Type
	if p.has(TOK_COLON) {
		p.next()
		ret = p.sema.OnTypeReference(p.parseQualIdent())
	}

	return params, ret
}

// -----------------------------------------------------------------------------

// ident_def := ident ['*'] ;
func (p *Parser) parseIdentDef() sema.IdentDef {
	tok := p.want(TOK_IDENT)

	def := sema.IdentDef{Ident: ast.Ident{Name: tok.Value}, Pos: tok.Pos}
	if p.has(TOK_STAR) {
		p.next()
		def.Exported = true
	}

	return def
}

// ident_list := ident_def {',' ident_def} ;
func (p *Parser) parseIdentList() []sema.IdentDef {
	idents := []sema.IdentDef{p.parseIdentDef()}

	for p.has(TOK_COMMA) {
		p.next()
		idents = append(idents, p.parseIdentDef())
	}

	return idents
}

// qualident := [ident '.'] ident ;
func (p *Parser) parseQualIdent() *ast.QualIdent {
	first := p.want(TOK_IDENT)

	if p.has(TOK_DOT) && p.sema.IsQualifier(first.Value) {
		p.next()
		name := p.want(TOK_IDENT)
		return ast.NewQualIdent(p.spanFrom(first), first.Value, name.Value)
	}

	return ast.NewQualIdent(first.Pos, "", first.Value)
}
