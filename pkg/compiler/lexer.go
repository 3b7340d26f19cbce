package compiler

import "unicode/utf8"

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	text   string // source text, for error snippets
	src    []rune
	pos    int // index of the next rune to consume
	line   int // current 1-based source line
	col    int // current 1-based column
	offset int // byte offset of src[pos]

	atLineStart bool
	nesting     int // open ( [ { pairs; continuation lines inside them never indent
	tokens      []Token
}

func newLexer(src string) *Lexer {
	return &Lexer{text: src, src: []rune(src), line: 1, col: 1, atLineStart: true}
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peek2() rune {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	l.offset += utf8.RuneLen(r)
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// mark captures the position at which the next token starts.
type mark struct {
	pos, line, col, offset int
}

func (l *Lexer) mark() mark {
	return mark{l.pos, l.line, l.col, l.offset}
}

func (l *Lexer) emit(tt TokenType, m mark) {
	l.tokens = append(l.tokens, Token{
		Type:   tt,
		Lexeme: string(l.src[m.pos:l.pos]),
		Line:   m.line,
		Col:    m.col,
		Offset: m.offset,
	})
}

func (l *Lexer) errorAt(m mark, format string, args ...any) error {
	return newSyntaxError(l.text, Token{Line: m.line, Col: m.col, Offset: m.offset}, format, args...)
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || r == '#' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// triviaLine reports whether the text after the leading spaces at the current
// position holds nothing but comments before the end of the line.
func (l *Lexer) triviaLine() bool {
	i := l.pos
	for i < len(l.src) && l.src[i] == ' ' {
		i++
	}
	for {
		if i >= len(l.src) || l.src[i] == '\n' {
			return true
		}
		if l.src[i] != '/' || i+1 >= len(l.src) {
			return false
		}
		switch l.src[i+1] {
		case '/':
			return true
		case '*':
			i += 2
			for i+1 < len(l.src) && !(l.src[i] == '*' && l.src[i+1] == '/') {
				i++
			}
			if i+1 >= len(l.src) {
				// Unterminated; let the comment scanner report it.
				return true
			}
			i += 2
			for i < len(l.src) && l.src[i] == ' ' {
				i++
			}
		default:
			return false
		}
	}
}

// scanIndent turns the leading spaces of a line into INDENT tokens. Blank and
// comment-only lines keep their spaces as trivia so they never affect depth.
func (l *Lexer) scanIndent() error {
	l.atLineStart = false
	if l.nesting > 0 || l.triviaLine() {
		return nil
	}
	m := l.mark()
	n := 0
	for l.peek() == ' ' {
		n++
		l.advance()
	}
	if n%4 != 0 {
		return l.errorAt(m, "indentation of %d spaces is not a multiple of 4", n)
	}
	// Rewind and emit one INDENT per group so each token has its own column.
	l.pos, l.line, l.col, l.offset = m.pos, m.line, m.col, m.offset
	for i := 0; i < n/4; i++ {
		start := l.mark()
		for k := 0; k < 4; k++ {
			l.advance()
		}
		l.emit(INDENT, start)
	}
	return nil
}

// scanBlockComment consumes a /* ... */ comment. The opening "/*" must still be
// at the current position.
func (l *Lexer) scanBlockComment() error {
	m := l.mark()
	l.advance() // /
	l.advance() // *
	for !l.atEnd() {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.emit(COMMENT, m)
			return nil
		}
		l.advance()
	}
	return l.errorAt(m, "unterminated block comment (opened on line %d)", m.line)
}

// scanLineComment consumes a // comment up to, but not including, the newline.
func (l *Lexer) scanLineComment() {
	m := l.mark()
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
	l.emit(COMMENT, m)
}

// scanString collects a literal in any of the three quote styles. Escapes are
// kept verbatim; a backslash only stops the next rune from closing the literal.
func (l *Lexer) scanString() error {
	m := l.mark()
	quote := l.advance()
	for !l.atEnd() {
		r := l.advance()
		if r == '\\' {
			l.advance()
			continue
		}
		if r == quote {
			l.emit(STRING, m)
			return nil
		}
	}
	return l.errorAt(m, "unterminated string literal (opened on line %d)", m.line)
}

// regexEnd returns the index just past the closing '/' of a regex literal that
// starts at the current position, or -1 when the line has no closing slash.
func (l *Lexer) regexEnd() int {
	for i := l.pos + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case '\n':
			return -1
		case '\\':
			i++
		case '/':
			return i + 1
		}
	}
	return -1
}

func allRegexFlags(rs []rune) bool {
	for _, r := range rs {
		switch r {
		case 'g', 'i', 'm', 's', 'u', 'y':
		default:
			return false
		}
	}
	return true
}

// scanSlash emits a comment, a regex literal, or the division operator.
func (l *Lexer) scanSlash() error {
	switch l.peek2() {
	case '/':
		l.scanLineComment()
		return nil
	case '*':
		return l.scanBlockComment()
	}
	m := l.mark()
	next := l.peek2()
	if next != ' ' && next != '\n' && next != 0 {
		if end := l.regexEnd(); end > 0 {
			// Trailing letters are flags only when every one of them is a flag.
			j := end
			for j < len(l.src) && isIdentPart(l.src[j]) {
				j++
			}
			if allRegexFlags(l.src[end:j]) {
				end = j
			}
			for l.pos < end {
				l.advance()
			}
			l.emit(REGEX, m)
			return nil
		}
	}
	l.advance()
	l.emit(SLASH, m)
	return nil
}

// scanNumber collects a decimal, float, or hex literal.
func (l *Lexer) scanNumber() {
	m := l.mark()
	if l.peek() == '0' && (l.peek2() == 'x' || l.peek2() == 'X') && isHexDigit(l.peekAt(2)) {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.emit(NUMBER, m)
		return
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peek2()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		k := 1
		if l.peekAt(1) == '+' || l.peekAt(1) == '-' {
			k = 2
		}
		if isDigit(l.peekAt(k)) {
			for ; k > 0; k-- {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	l.emit(NUMBER, m)
}

// scanIdent collects an identifier. A '.' belongs to the identifier only when
// another identifier character follows it, so "a.b.c" is one token.
func (l *Lexer) scanIdent() {
	m := l.mark()
	l.advance()
	for {
		r := l.peek()
		if isIdentPart(r) {
			l.advance()
			continue
		}
		if r == '.' && isIdentStart(l.peek2()) {
			l.advance()
			continue
		}
		break
	}
	l.emit(IDENT, m)
}

// simple holds the single- and double-rune punctuation tokens.
var simple = map[string]TokenType{
	"(": LPAREN, ")": RPAREN,
	"[": LBRACKET, "]": RBRACKET,
	"{": LBRACE, "}": RBRACE,
	",": COMMA, ":": COLON, ".": DOT,
	"+": PLUS, "-": MINUS, "*": STAR, "%": PERCENT,
	"=": ASSIGN, ">": GREATER, "<": LESS,
	"->": ARROW, "!=": NOT_EQ, ">=": GREATER_EQ, "<=": LESS_EQ,
}

// next scans exactly one token (or one run of INDENT tokens) into l.tokens.
func (l *Lexer) next() error {
	if l.atLineStart {
		if err := l.scanIndent(); err != nil {
			return err
		}
		if l.atEnd() {
			return nil
		}
	}

	ch := l.peek()
	m := l.mark()

	switch {
	case ch == ' ' || ch == '\t':
		for l.peek() == ' ' || l.peek() == '\t' {
			l.advance()
		}
		l.emit(WHITESPACE, m)
		return nil
	case ch == '\n':
		for l.peek() == '\n' {
			l.advance()
		}
		l.emit(NEWLINE, m)
		l.atLineStart = true
		return nil
	case ch == '/':
		return l.scanSlash()
	case ch == '"' || ch == '\'' || ch == '`':
		return l.scanString()
	case isDigit(ch):
		l.scanNumber()
		return nil
	case isIdentStart(ch):
		l.scanIdent()
		return nil
	}

	if tt, ok := simple[string([]rune{ch, l.peek2()})]; ok {
		l.advance()
		l.advance()
		l.emit(tt, m)
		return nil
	}
	if tt, ok := simple[string(ch)]; ok {
		l.advance()
		l.emit(tt, m)
		switch tt {
		case LPAREN, LBRACKET, LBRACE:
			l.nesting++
		case RPAREN, RBRACKET, RBRACE:
			if l.nesting > 0 {
				l.nesting--
			}
		}
		return nil
	}
	return l.errorAt(m, "unexpected character %q", ch)
}

// Lex tokenises src and returns all tokens including the final EOF token.
// Trivia (whitespace, newlines, comments) is kept. It returns a *SyntaxError on
// the first illegal character, bad indentation, or unterminated literal.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	for !l.atEnd() {
		if err := l.next(); err != nil {
			return l.tokens, err
		}
	}
	l.tokens = append(l.tokens, Token{Type: EOF, Line: l.line, Col: l.col, Offset: l.offset})
	return l.tokens, nil
}
