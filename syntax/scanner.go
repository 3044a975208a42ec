package syntax

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"oberonc/report"
)

// Scanner is responsible for tokenizing an Oberon source file.
type Scanner struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewScanner creates a new scanner reading from the given source.
func NewScanner(r io.Reader) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &Scanner{
		file:    br,
		tokBuff: &strings.Builder{},
		line:    1,
		col:     0,
	}
}

// NextToken retrieves the next token from the input file. If the file has
// ended, this will be an EOF token.
func (l *Scanner) NextToken() (*Token, error) {
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			break
		}

		switch c {
		case '\n', '\t', ' ', '\r', '\v', '\f':
			l.skip()
		case '(':
			if tok, err := l.lexCommentOrParen(); tok != nil || err != nil {
				return tok, err
			}
		case '"', '\'':
			return l.lexStringLit(c)
		default:
			if isDecimalDigit(c) {
				return l.lexNumericLit()
			} else if isLetter(c) {
				return l.lexIdentOrKeyword()
			} else {
				return l.lexPunctOrOper()
			}
		}
	}

	l.mark()
	return l.makeToken(TOK_EOF), nil
}

// -----------------------------------------------------------------------------

// symbolPatterns maps symbol strings (patterns) to their punctuation/operator
// token kind.  The opening parenthesis is handled with the comment logic.
var symbolPatterns = map[string]int{
	"+": TOK_PLUS,
	"-": TOK_MINUS,
	"*": TOK_STAR,
	"/": TOK_SLASH,
	"&": TOK_AMP,
	"~": TOK_TILDE,

	"=":  TOK_EQ,
	"#":  TOK_NEQ,
	"<":  TOK_LT,
	"<=": TOK_LTEQ,
	">":  TOK_GT,
	">=": TOK_GTEQ,

	":=": TOK_ASSIGN,
	"^":  TOK_CARET,
	")":  TOK_RPAREN,
	"[":  TOK_LBRACKET,
	"]":  TOK_RBRACKET,
	"{":  TOK_LBRACE,
	"}":  TOK_RBRACE,
	",":  TOK_COMMA,
	".":  TOK_DOT,
	"..": TOK_RANGE,
	";":  TOK_SEMI,
	":":  TOK_COLON,
	"|":  TOK_BAR,
}

// lexPunctOrOper lexes a punctuation or operator symbol.
func (l *Scanner) lexPunctOrOper() (*Token, error) {
	l.mark()
	c, _ := l.eat()

	kind, ok := symbolPatterns[l.tokBuff.String()]
	if !ok {
		return nil, report.Raise(l.getPos(), "unknown character: `%c`", c)
	}

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if c == -1 {
			break
		}

		if _kind, ok := symbolPatterns[l.tokBuff.String()+string(c)]; ok {
			l.eat()
			kind = _kind
		} else {
			break
		}
	}

	return l.makeToken(kind), nil
}

// -----------------------------------------------------------------------------

// keywordPatterns maps keyword strings (patterns) to their keyword token kind.
var keywordPatterns = map[string]int{
	"MODULE":    TOK_MODULE,
	"IMPORT":    TOK_IMPORT,
	"CONST":     TOK_CONST,
	"TYPE":      TOK_TYPE,
	"VAR":       TOK_VAR,
	"PROCEDURE": TOK_PROCEDURE,
	"BEGIN":     TOK_BEGIN,
	"END":       TOK_END,

	"ARRAY":   TOK_ARRAY,
	"RECORD":  TOK_RECORD,
	"POINTER": TOK_POINTER,
	"OF":      TOK_OF,
	"TO":      TOK_TO,

	"IF":     TOK_IF,
	"THEN":   TOK_THEN,
	"ELSIF":  TOK_ELSIF,
	"ELSE":   TOK_ELSE,
	"CASE":   TOK_CASE,
	"WHILE":  TOK_WHILE,
	"DO":     TOK_DO,
	"REPEAT": TOK_REPEAT,
	"UNTIL":  TOK_UNTIL,
	"FOR":    TOK_FOR,
	"BY":     TOK_BY,
	"LOOP":   TOK_LOOP,
	"EXIT":   TOK_EXIT,
	"RETURN": TOK_RETURN,

	"NIL":   TOK_NIL,
	"TRUE":  TOK_TRUE,
	"FALSE": TOK_FALSE,

	"DIV": TOK_DIV,
	"MOD": TOK_MOD,
	"OR":  TOK_OR,
	"IN":  TOK_IN,
	"IS":  TOK_IS,
}

// lexIdentOrKeyword lexes an identifier or a keyword.
func (l *Scanner) lexIdentOrKeyword() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if !isLetter(c) && !isDecimalDigit(c) {
			break
		}

		l.eat()
	}

	var kind int
	if _kind, ok := keywordPatterns[l.tokBuff.String()]; ok {
		kind = _kind
	} else {
		kind = TOK_IDENT
	}

	return l.makeToken(kind), nil
}

// -----------------------------------------------------------------------------

// lexNumericLit lexes an integer, real or hexadecimal character literal.
// Hexadecimal integers end with `H` and hexadecimal characters with `X`.
func (l *Scanner) lexNumericLit() (*Token, error) {
	l.mark()

	hex := false
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if isDecimalDigit(c) {
			l.eat()
		} else if isHexLetter(c) {
			hex = true
			l.eat()
		} else {
			break
		}
	}

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	switch c {
	case 'H':
		l.eat()
		return l.makeToken(TOK_INTLIT), nil
	case 'X':
		l.eat()
		return l.makeToken(TOK_CHARLIT), nil
	case '.':
		if hex {
			break
		}

		// `1..5` is a range, not a real number
		if next, err := l.file.Peek(2); err == nil && next[1] == '.' {
			return l.makeToken(TOK_INTLIT), nil
		}

		return l.lexRealFraction()
	}

	if hex {
		return nil, report.Raise(l.getPos(), "hexadecimal number must end with `H`")
	}

	return l.makeToken(TOK_INTLIT), nil
}

// lexRealFraction lexes the fraction and the exponent of a real literal.  The
// scanner is positioned on the decimal point.
func (l *Scanner) lexRealFraction() (*Token, error) {
	l.eat()
	l.eatDigits()

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	if c == 'E' || c == 'D' {
		l.eat()

		if c, err = l.peek(); err != nil {
			return nil, err
		}

		if c == '+' || c == '-' {
			l.eat()

			if c, err = l.peek(); err != nil {
				return nil, err
			}
		}

		if !isDecimalDigit(c) {
			return nil, report.Raise(l.getPos(), "expected digits in exponent")
		}

		l.eatDigits()
	}

	return l.makeToken(TOK_REALLIT), nil
}

// eatDigits moves the lexer over a sequence of decimal digits.
func (l *Scanner) eatDigits() {
	for {
		c, err := l.peek()
		if err != nil || !isDecimalDigit(c) {
			return
		}

		l.eat()
	}
}

// -----------------------------------------------------------------------------

// lexStringLit lexes a string delimited by the given quote.  Strings may not
// span lines.
func (l *Scanner) lexStringLit(quote rune) (*Token, error) {
	l.mark()
	l.skip()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		switch c {
		case -1, '\n':
			return nil, report.Raise(l.getPos(), "unclosed string literal")
		case quote:
			l.skip()
			return l.makeToken(TOK_STRINGLIT), nil
		}

		l.eat()
	}
}

// -----------------------------------------------------------------------------

// lexCommentOrParen lexes a comment or an opening parenthesis.  Comments nest.
func (l *Scanner) lexCommentOrParen() (*Token, error) {
	l.mark()
	l.skip()

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	if c != '*' {
		tok := l.makeToken(TOK_LPAREN)
		tok.Value = "("
		return tok, nil
	}

	l.skip()

	depth := 1
	for depth > 0 {
		c, err := l.skip()
		if err != nil {
			return nil, err
		}

		switch c {
		case -1:
			return nil, report.Raise(l.getPos(), "unclosed comment")
		case '(':
			if next, err := l.peek(); err != nil {
				return nil, err
			} else if next == '*' {
				l.skip()
				depth++
			}
		case '*':
			if next, err := l.peek(); err != nil {
				return nil, err
			} else if next == ')' {
				l.skip()
				depth--
			}
		}
	}

	return nil, nil
}

// -----------------------------------------------------------------------------

// IntValue returns the value of an integer literal token.
func IntValue(tok *Token) (int64, error) {
	if strings.HasSuffix(tok.Value, "H") {
		v, err := strconv.ParseUint(tok.Value[:len(tok.Value)-1], 16, 64)
		if err != nil {
			return 0, report.Raise(tok.Pos, "integer literal out of range")
		}

		return int64(v), nil
	}

	v, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return 0, report.Raise(tok.Pos, "integer literal out of range")
	}

	return v, nil
}

// RealValue returns the value of a real literal token and whether it is a
// LONGREAL literal: one with a `D` exponent.
func RealValue(tok *Token) (float64, bool, error) {
	long := strings.ContainsRune(tok.Value, 'D')

	v, err := strconv.ParseFloat(strings.Replace(tok.Value, "D", "E", 1), 64)
	if err != nil {
		return 0, false, report.Raise(tok.Pos, "real literal out of range")
	}

	return v, long, nil
}

// CharValue returns the value of a hexadecimal character literal token.
func CharValue(tok *Token) (byte, error) {
	v, err := strconv.ParseUint(tok.Value[:len(tok.Value)-1], 16, 8)
	if err != nil {
		return 0, report.Raise(tok.Pos, "character literal out of range")
	}

	return byte(v), nil
}

// -----------------------------------------------------------------------------

// mark sets the lexer's stored start line and column to its current position.
func (l *Scanner) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken produces a new token of the given kind from the lexer's state and
// resets the lexer to begin building the next token.
func (l *Scanner) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Pos:   l.getPos(),
	}
}

// getPos calculates a text position based on the lexer's current state.
func (l *Scanner) getPos() *report.TextPosition {
	return &report.TextPosition{
		StartLn:  l.startLine,
		StartCol: l.startCol,
		EndLn:    l.line,
		EndCol:   l.col,
	}
}

// -----------------------------------------------------------------------------

// eat moves the lexer forward one rune and writes the rune to the token buffer.
// If the lexer encounters an EOF, -1 is returned as the rune value.
func (l *Scanner) eat() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)
	l.tokBuff.WriteRune(c)

	return c, nil
}

// skip moves the lexer forward one rune but does not write the rune to the
// token buffer.  If the lexer encounters an EOF, -1 is returned as the rune
// value.
func (l *Scanner) skip() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)

	return c, nil
}

// peek returns the next rune in the file without moving the lexer forward or
// writing the rune to the token buffer.  If the lexer encounters an EOF, -1 is
// returned as rune value.
func (l *Scanner) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	if err = l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// updatePos updates the lexer's position based on input character.
func (l *Scanner) updatePos(c rune) {
	switch c {
	case '\n':
		l.line++
		l.col = 0
	case '\t':
		l.col += 4
	default:
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit returns whether c is a decimal digit.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isHexLetter returns whether c is an upper case hexadecimal digit letter.
func isHexLetter(c rune) bool {
	return 'A' <= c && c <= 'F'
}

// isLetter returns whether c can occur in an identifier.
func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}
