package syntax

import "oberonc/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.  The value of a string token has its
	// quotes trimmed off.
	Value string

	// The text position over which the token exists.
	Pos *report.TextPosition
}

// Enumeration of token kinds.
const (
	TOK_MODULE = iota
	TOK_IMPORT
	TOK_CONST
	TOK_TYPE
	TOK_VAR
	TOK_PROCEDURE
	TOK_BEGIN
	TOK_END

	TOK_ARRAY
	TOK_RECORD
	TOK_POINTER
	TOK_OF
	TOK_TO

	TOK_IF
	TOK_THEN
	TOK_ELSIF
	TOK_ELSE
	TOK_CASE
	TOK_WHILE
	TOK_DO
	TOK_REPEAT
	TOK_UNTIL
	TOK_FOR
	TOK_BY
	TOK_LOOP
	TOK_EXIT
	TOK_RETURN

	TOK_NIL
	TOK_TRUE
	TOK_FALSE

	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_SLASH
	TOK_DIV
	TOK_MOD
	TOK_AMP
	TOK_OR
	TOK_TILDE

	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_LTEQ
	TOK_GT
	TOK_GTEQ
	TOK_IN
	TOK_IS

	TOK_ASSIGN
	TOK_CARET
	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_LBRACE
	TOK_RBRACE
	TOK_COMMA
	TOK_DOT
	TOK_RANGE
	TOK_SEMI
	TOK_COLON
	TOK_BAR

	TOK_IDENT
	TOK_INTLIT
	TOK_REALLIT
	TOK_CHARLIT
	TOK_STRINGLIT

	TOK_EOF
)

// tokenNames gives the source representation of the token kinds used in
// diagnostics.
var tokenNames = map[int]string{
	TOK_IDENT:     "identifier",
	TOK_INTLIT:    "integer",
	TOK_REALLIT:   "real number",
	TOK_CHARLIT:   "character",
	TOK_STRINGLIT: "string",
	TOK_EOF:       "end of file",
}

func init() {
	for value, kind := range keywordPatterns {
		tokenNames[kind] = value
	}

	for value, kind := range symbolPatterns {
		tokenNames[kind] = value
	}

	tokenNames[TOK_LPAREN] = "("
}

// TokenName returns the name of a token kind as it appears in source text.
func TokenName(kind int) string {
	if name, ok := tokenNames[kind]; ok {
		return name
	}

	return "token"
}
