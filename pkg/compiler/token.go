package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Trivia. Kept in the token stream so the parse tree stays concrete.
	WHITESPACE // run of spaces inside a line
	NEWLINE    // one or more line breaks
	COMMENT    // /* ... */ or // ...
	INDENT     // exactly four spaces at the start of a line

	// Literals
	IDENT  // identifier, possibly dotted: a.b.c, #get, $el
	NUMBER // 12, 1.5, 1e3, 0xFF
	STRING // "...", '...', `...`
	REGEX  // /.../flags

	// Paired delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }

	// Punctuation
	COMMA // ,
	COLON // :
	DOT   // .
	ARROW // ->

	// Arithmetic operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	// Assignment / comparison
	ASSIGN     // =
	NOT_EQ     // !=
	GREATER    // >
	GREATER_EQ // >=
	LESS       // <
	LESS_EQ    // <=
)

var tokenNames = [...]string{
	EOF:        "EOF",
	WHITESPACE: "WHITESPACE",
	NEWLINE:    "NEWLINE",
	COMMENT:    "COMMENT",
	INDENT:     "INDENT",
	IDENT:      "IDENT",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	REGEX:      "REGEX",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACKET:   "LBRACKET",
	RBRACKET:   "RBRACKET",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	COMMA:      "COMMA",
	COLON:      "COLON",
	DOT:        "DOT",
	ARROW:      "ARROW",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	PERCENT:    "PERCENT",
	ASSIGN:     "ASSIGN",
	NOT_EQ:     "NOT_EQ",
	GREATER:    "GREATER",
	GREATER_EQ: "GREATER_EQ",
	LESS:       "LESS",
	LESS_EQ:    "LESS_EQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// IsTrivia reports whether tokens of this type carry no meaning for the grammar.
func (tt TokenType) IsTrivia() bool {
	return tt == WHITESPACE || tt == NEWLINE || tt == COMMENT
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based column, in runes
	Offset int    // byte offset into the preprocessed source
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d col %d", t.Type, t.Lexeme, t.Line, t.Col)
}
