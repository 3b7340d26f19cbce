package compiler

import (
	"errors"
	"reflect"
	"testing"
)

// lexed is a token reduced to the fields most tests care about.
type lexed struct {
	Type   TokenType
	Lexeme string
}

func lexTypes(t *testing.T, src string) []lexed {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	out := make([]lexed, len(tokens))
	for i, tok := range tokens {
		out[i] = lexed{tok.Type, tok.Lexeme}
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []lexed
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []lexed{{EOF, ""}},
		},
		{
			name:  "Assignment",
			input: "x = 1",
			expected: []lexed{
				{IDENT, "x"}, {WHITESPACE, " "}, {ASSIGN, "="}, {WHITESPACE, " "}, {NUMBER, "1"},
				{EOF, ""},
			},
		},
		{
			name:  "Punctuation",
			input: "+-*%!=>=<=->()[]{},:.><",
			expected: []lexed{
				{PLUS, "+"}, {MINUS, "-"}, {STAR, "*"}, {PERCENT, "%"}, {NOT_EQ, "!="},
				{GREATER_EQ, ">="}, {LESS_EQ, "<="}, {ARROW, "->"},
				{LPAREN, "("}, {RPAREN, ")"}, {LBRACKET, "["}, {RBRACKET, "]"},
				{LBRACE, "{"}, {RBRACE, "}"}, {COMMA, ","}, {COLON, ":"}, {DOT, "."},
				{GREATER, ">"}, {LESS, "<"},
				{EOF, ""},
			},
		},
		{
			name:  "Indentation",
			input: "if x\n    y\n",
			expected: []lexed{
				{IDENT, "if"}, {WHITESPACE, " "}, {IDENT, "x"}, {NEWLINE, "\n"},
				{INDENT, "    "}, {IDENT, "y"}, {NEWLINE, "\n"},
				{EOF, ""},
			},
		},
		{
			name:  "Two levels",
			input: "        z",
			expected: []lexed{
				{INDENT, "    "}, {INDENT, "    "}, {IDENT, "z"},
				{EOF, ""},
			},
		},
		{
			name:  "Comment line keeps its spaces as trivia",
			input: "x\n  // note\ny",
			expected: []lexed{
				{IDENT, "x"}, {NEWLINE, "\n"},
				{WHITESPACE, "  "}, {COMMENT, "// note"}, {NEWLINE, "\n"},
				{IDENT, "y"},
				{EOF, ""},
			},
		},
		{
			name:  "Blank lines collapse",
			input: "a\n\n\nb",
			expected: []lexed{
				{IDENT, "a"}, {NEWLINE, "\n\n\n"}, {IDENT, "b"}, {EOF, ""},
			},
		},
		{
			name:  "Block comment",
			input: "a /* one\ntwo */ b",
			expected: []lexed{
				{IDENT, "a"}, {WHITESPACE, " "}, {COMMENT, "/* one\ntwo */"}, {WHITESPACE, " "}, {IDENT, "b"},
				{EOF, ""},
			},
		},
		{
			name:  "Three quote styles",
			input: "'a' \"b\\\"c\" `d`",
			expected: []lexed{
				{STRING, "'a'"}, {WHITESPACE, " "}, {STRING, `"b\"c"`}, {WHITESPACE, " "}, {STRING, "`d`"},
				{EOF, ""},
			},
		},
		{
			name:  "Regex with escaped slash and flags",
			input: `r = /a\/b/gi`,
			expected: []lexed{
				{IDENT, "r"}, {WHITESPACE, " "}, {ASSIGN, "="}, {WHITESPACE, " "}, {REGEX, `/a\/b/gi`},
				{EOF, ""},
			},
		},
		{
			name:  "Slash before space is division",
			input: "a / b",
			expected: []lexed{
				{IDENT, "a"}, {WHITESPACE, " "}, {SLASH, "/"}, {WHITESPACE, " "}, {IDENT, "b"},
				{EOF, ""},
			},
		},
		{
			name:  "Numbers",
			input: "0x1F 1.5 2e3 7",
			expected: []lexed{
				{NUMBER, "0x1F"}, {WHITESPACE, " "}, {NUMBER, "1.5"}, {WHITESPACE, " "},
				{NUMBER, "2e3"}, {WHITESPACE, " "}, {NUMBER, "7"},
				{EOF, ""},
			},
		},
		{
			name:  "Dotted identifiers",
			input: "a.b.c $el #get x. y",
			expected: []lexed{
				{IDENT, "a.b.c"}, {WHITESPACE, " "}, {IDENT, "$el"}, {WHITESPACE, " "}, {IDENT, "#get"},
				{WHITESPACE, " "}, {IDENT, "x"}, {DOT, "."}, {WHITESPACE, " "}, {IDENT, "y"},
				{EOF, ""},
			},
		},
		{
			name:  "Continuation lines inside brackets do not indent",
			input: "x = [1,\n  2]",
			expected: []lexed{
				{IDENT, "x"}, {WHITESPACE, " "}, {ASSIGN, "="}, {WHITESPACE, " "},
				{LBRACKET, "["}, {NUMBER, "1"}, {COMMA, ","}, {NEWLINE, "\n"},
				{WHITESPACE, "  "}, {NUMBER, "2"}, {RBRACKET, "]"},
				{EOF, ""},
			},
		},
		{
			name:  "Words are identifiers",
			input: "x is more than y",
			expected: []lexed{
				{IDENT, "x"}, {WHITESPACE, " "}, {IDENT, "is"}, {WHITESPACE, " "}, {IDENT, "more"},
				{WHITESPACE, " "}, {IDENT, "than"}, {WHITESPACE, " "}, {IDENT, "y"},
				{EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexTypes(t, tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex(%q)\n got: %v\nwant: %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	tokens, err := Lex("ab\n    cd")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	expected := []Token{
		{Type: IDENT, Lexeme: "ab", Line: 1, Col: 1, Offset: 0},
		{Type: NEWLINE, Lexeme: "\n", Line: 1, Col: 3, Offset: 2},
		{Type: INDENT, Lexeme: "    ", Line: 2, Col: 1, Offset: 3},
		{Type: IDENT, Lexeme: "cd", Line: 2, Col: 5, Offset: 7},
		{Type: EOF, Lexeme: "", Line: 2, Col: 7, Offset: 9},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("positions\n got: %v\nwant: %v", tokens, expected)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		col     int
		wantMsg string
	}{
		{"Odd indentation", "x\n  y", 2, 1, "indentation of 2 spaces is not a multiple of 4"},
		{"Unterminated string", "x = 'abc", 1, 5, "unterminated string literal (opened on line 1)"},
		{"Unterminated comment", "x /* never", 1, 3, "unterminated block comment (opened on line 1)"},
		{"Illegal character", "x = @", 1, 5, `unexpected character '@'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			var syn *SyntaxError
			if !errors.As(err, &syn) {
				t.Fatalf("expected *SyntaxError, got %T (%v)", err, err)
			}
			if syn.Line != tt.line || syn.Col != tt.col {
				t.Errorf("position: got %d:%d, want %d:%d", syn.Line, syn.Col, tt.line, tt.col)
			}
			if syn.Msg != tt.wantMsg {
				t.Errorf("message: got %q, want %q", syn.Msg, tt.wantMsg)
			}
		})
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"\tx", "    x"},
		{"\t\tx", "        x"},
		{"a\r\nb\rc", "a\nb\nc"},
		{"  \tx", "      x"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
