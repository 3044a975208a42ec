package syntax

import (
	"io"

	"oberonc/ast"
	"oberonc/report"
	"oberonc/sema"
)

// NOTE: All parsing functions (that are not utility/API functions) are
// commented with the EBNF notation of the grammar they parse.

// Parser is the parser for an Oberon source file.  It is a recursive descent
// parser which performs no analysis of its own: every construct it recognizes
// is handed to the semantic analyzer which builds and checks the AST.  All
// parsing functions assume that they begin with the parser centered on the
// first token of their production and must consume all tokens (including the
// last) of their production, leaving the parser on the next token.  Parsers
// are created once per file.
type Parser struct {
	// file is the path of the source file being parsed.
	file string

	// scanner is the Scanner this parser is using to tokenize the source file.
	scanner *Scanner

	// sema is the semantic analyzer receiving the parsed constructs.
	sema *sema.Sema

	// tok is the current token the parser is positioned on.
	tok *Token

	// lookbehind is the token the parser was positioned on before the current
	// token.
	lookbehind *Token
}

// NewParser creates a new parser for the given file and file reader.
func NewParser(file string, r io.Reader, s *sema.Sema) *Parser {
	return &Parser{
		file:    file,
		scanner: NewScanner(r),
		sema:    s,
	}
}

// Parse parses the file and returns its module.  Syntax errors inside
// statements are reported and parsing continues at the next statement; any
// other syntax error aborts the file in which case nil is returned.
func (p *Parser) Parse() (mod *ast.Module) {
	defer report.CatchErrors(p.file)

	// move the parser onto the first token
	p.next()

	return p.parseModule()
}

// module := 'MODULE' ident ';' [import_list] decl_seq
//
//	['BEGIN' stmt_seq] 'END' ident '.' ;
func (p *Parser) parseModule() *ast.Module {
	p.want(TOK_MODULE)
	name := p.want(TOK_IDENT)

	mod := p.sema.OnTranslationUnitStart(name.Pos, name.Value)
	p.want(TOK_SEMI)

	if p.has(TOK_IMPORT) {
		p.parseImportList()
	}

	p.parseDeclSeq()

	var body []ast.Stmt
	if p.has(TOK_BEGIN) {
		p.next()
		body = p.parseStmtSeq()
	}

	p.want(TOK_END)
	endName := p.want(TOK_IDENT)
	p.want(TOK_DOT)

	p.sema.OnTranslationUnitEnd(endName.Pos, endName.Value, body)
	return mod
}

// import_list := 'IMPORT' import {',' import} ';' ;
// import := ident [':=' ident] ;
func (p *Parser) parseImportList() {
	p.want(TOK_IMPORT)

	for {
		first := p.want(TOK_IDENT)

		alias, name := "", first.Value
		if p.has(TOK_ASSIGN) {
			p.next()
			alias, name = first.Value, p.want(TOK_IDENT).Value
		}

		p.sema.OnImport(p.spanFrom(first), alias, name)

		if !p.has(TOK_COMMA) {
			break
		}

		p.next()
	}

	p.want(TOK_SEMI)
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() {
	tok, err := p.scanner.NextToken()
	if err != nil {
		panic(err)
	}

	p.lookbehind = p.tok
	p.tok = tok
}

// has returns whether the parser is on a token of the given kind.
func (p *Parser) has(kind int) bool {
	return p.tok.Kind == kind
}

// hasOneOf returns whether the parser's current token is of one of the given
// kinds.
func (p *Parser) hasOneOf(kinds ...int) bool {
	for _, kind := range kinds {
		if p.tok.Kind == kind {
			return true
		}
	}

	return false
}

// want asserts that the parser is on a token of the given kind, moves the
// parser forward and returns the matched token.
func (p *Parser) want(kind int) *Token {
	if !p.has(kind) {
		if p.has(TOK_EOF) {
			panic(report.Raise(p.tok.Pos, "expected %s, found end of file", TokenName(kind)))
		}

		panic(report.Raise(p.tok.Pos, "expected %s, found `%s`", TokenName(kind), p.tok.Value))
	}

	tok := p.tok
	p.next()
	return tok
}

// reject reports an unexpected token error on the current token.
func (p *Parser) reject() {
	if p.has(TOK_EOF) {
		panic(report.Raise(p.tok.Pos, "unexpected end of file"))
	}

	panic(report.Raise(p.tok.Pos, "unexpected token: `%s`", p.tok.Value))
}

// spanFrom returns the text position spanning from the start token to the
// last token consumed by the parser.
func (p *Parser) spanFrom(start *Token) *report.TextPosition {
	return report.TextPositionFromRange(start.Pos, p.lookbehind.Pos)
}

// recoverStmt recovers from a syntax error raised while parsing a statement:
// the error is reported and the parser skips to the end of the statement.
// NB: This function must ALWAYS be deferred.
func (p *Parser) recoverStmt() {
	x := recover()
	if x == nil {
		return
	}

	lce, ok := x.(*report.LocalCompileError)
	if !ok {
		panic(x)
	}

	report.ReportCompileError(p.file, lce.Position, lce.Message)

	for !p.hasOneOf(TOK_SEMI, TOK_END, TOK_ELSE, TOK_ELSIF, TOK_UNTIL, TOK_BAR, TOK_EOF) {
		p.next()
	}
}
