package compiler

import (
	"errors"
	"strings"
	"testing"
)

func generate(src string) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}
	tree, err := Parse(tokens, src)
	if err != nil {
		return "", err
	}
	mod, err := Build(tree, src)
	if err != nil {
		return "", err
	}
	return Generate(mod)
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Assignment",
			input: "x = 1",
			want:  lines("var x;", "x = 1;"),
		},
		{
			name:  "Reassignment is declared once",
			input: "x = 1\nx is 2",
			want:  lines("var x;", "x = 1;", "x = 2;"),
		},
		{
			name:  "Numbers are canonical",
			input: "a = 2.0\nb = 0x10\nc = 1.5\nd = -3",
			want:  lines("var a, b, c, d;", "a = 2;", "b = 16;", "c = 1.5;", "d = -3;"),
		},
		{
			name:  "Strings keep their quotes",
			input: "a = 'x'\nb = \"y\"\nc = `z`",
			want:  lines("var a, b, c;", "a = 'x';", `b = "y";`, "c = `z`;"),
		},
		{
			name:  "Regex",
			input: "r = /ab+/i",
			want:  lines("var r;", "r = /ab+/i;"),
		},
		{
			name:  "Comments are dropped",
			input: "// header\nx = 1 // trailing\n/* block */",
			want:  lines("var x;", "x = 1;"),
		},
		{
			name:  "Loop",
			input: "i = from 1 to 5\n    print i",
			want:  lines("var i;", "for (i = 1; i <= 5; i++) {", "    console.log(i);", "}"),
		},
		{
			name:  "If hoists inside the block",
			input: "if x is more than 5\n    y = 1",
			want:  lines("if (x > 5) {", "    y = 1;", "    var y;", "}"),
		},
		{
			name:  "Outer names are not redeclared",
			input: "x = 1\nif x\n    x = 2",
			want:  lines("var x;", "x = 1;", "if (x) {", "    x = 2;", "}"),
		},
		{
			name:  "Else",
			input: "if a\n    b = 1\nelse\n    b = 2",
			want: lines(
				"if (a) {",
				"    b = 1;",
				"    var b;",
				"} else {",
				"    b = 2;",
				"    var b;",
				"}",
			),
		},
		{
			name:  "Nested else",
			input: "i = from 1 to 2\n    if i is 1\n        print 'one'\n    else\n        print 'other'",
			want: lines(
				"var i;",
				"for (i = 1; i <= 2; i++) {",
				"    if (i === 1) {",
				"        console.log('one');",
				"    } else {",
				"        console.log('other');",
				"    }",
				"}",
			),
		},
		{
			name:  "Dedent closes every level",
			input: "if a\n    if b\n        c = 1\nd = 2",
			want: lines(
				"var d;",
				"if (a) {",
				"    if (b) {",
				"        c = 1;",
				"        var c;",
				"    }",
				"}",
				"d = 2;",
			),
		},
		{
			name:  "Control words",
			input: "i = from 1 to 3\n    if i is 2\n        skip\n    if i is 3\n        break\n    print i",
			want: lines(
				"var i;",
				"for (i = 1; i <= 3; i++) {",
				"    if (i === 2) {",
				"        continue;",
				"    }",
				"    if (i === 3) {",
				"        break;",
				"    }",
				"    console.log(i);",
				"}",
			),
		},
		{
			name:  "Block lambda",
			input: "f = a ->\n    return a",
			want:  lines("var f;", "f = (a) => {", "    return a;", "};"),
		},
		{
			name:  "Block lambda hoists its locals",
			input: "f = ->\n    t = 1\n    return t",
			want:  lines("var f;", "f = () => {", "    t = 1;", "    return t;", "    var t;", "};"),
		},
		{
			name:  "Return forms",
			input: "f = ->\n    return\ng = ->\n    return a b",
			want:  lines("var f, g;", "f = () => {", "    return;", "};", "g = () => {", "    return a, b;", "};"),
		},
		{
			name:  "Inline lambda",
			input: "f = a b -> a plus b",
			want:  lines("var f;", "f = (a, b) => a + b;"),
		},
		{
			name:  "Lambda returning an object",
			input: "f = -> {a: 1}",
			want:  lines("var f;", "f = () => ({a: 1});"),
		},
		{
			name:  "Call with a block tail",
			input: "items.each item ->\n    print item",
			want:  lines("items.each((item) => {", "    console.log(item);", "});"),
		},
		{
			name:  "Operator word as callee",
			input: "on \"click\" e ->\n    print e",
			want:  lines(`on("click", (e) => {`, "    console.log(e);", "});"),
		},
		{
			name:  "Assigned call with a block tail",
			input: "r = fetch 'u' res ->\n    print res",
			want:  lines("var r;", "r = fetch('u', (res) => {", "    console.log(res);", "});"),
		},
		{
			name:  "Calls",
			input: "print x plus 1\nprint (add 1 2) 'z'\nredraw",
			want:  lines("console.log(x + 1);", "console.log(add(1, 2), 'z');", "redraw();"),
		},
		{
			name:  "DOM builtins",
			input: "el = #get 'p'\nx = #id",
			want:  lines("var el, x;", "el = document.querySelector('p');", "x = document.getElementById;"),
		},
		{
			name:  "Shadowed print is called as itself",
			input: "print = 1\nprint 2",
			want:  lines("var print;", "print = 1;", "print(2);"),
		},
		{
			name:  "Keywords are aliased",
			input: "new = 1\nname = 'x'\nprint class.list",
			want:  lines("var _new, _name;", "_new = 1;", "_name = 'x';", "console.log(_class.list);"),
		},
		{
			name:  "Dotted targets are not declared",
			input: "user.name = 'x'",
			want:  lines("user.name = 'x';"),
		},
		{
			name:  "Object keys",
			input: "o = {a: 1, 'b': 2, (k): 3, class: 4, a: 5}",
			want:  lines("var o;", "o = {a: 1, 'b': 2, [k]: 3, class: 4, a: 5};"),
		},
		{
			name:  "Arrays",
			input: "a = [1, [2, 3], {}]",
			want:  lines("var a;", "a = [1, [2, 3], {}];"),
		},
		{
			name:  "Parenthesisation",
			input: "a = x plus y plus z\nb = x times (y plus z)\nc = (1 plus 2).foo\nd = items[0].name",
			want: lines(
				"var a, b, c, d;",
				"a = (x + y) + z;",
				"b = x * (y + z);",
				"c = (1 + 2).foo;",
				"d = items[0].name;",
			),
		},
		{
			name:  "Expression statements",
			input: "x plus 1\na -> a",
			want:  lines("x + 1;", "(a) => a;"),
		},
		{
			name:  "Comparators",
			input: "if a is not b\n    x\nif a <= b\n    x",
			want:  lines("if (a !== b) {", "    x();", "}", "if (a <= b) {", "    x();", "}"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generate(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output mismatch\n got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		wantMsg string
	}{
		{"Indent without block", "x = 1\n    y = 2", 2, "unexpected indentation: no statement opens a block here"},
		{"Indent jump", "if a\n        b", 2, "indentation jumps from depth 0 to 2"},
		{"Empty block", "if a\nb = 1", 1, "block has no body"},
		{"Empty block at end", "x = 1\nif a", 2, "block has no body"},
		{"Else first", "else\n    x", 1, "else does not follow a closed if block"},
		{"Else after statement", "if a\n    b\nc\nelse\n    d", 4, "else does not follow a closed if block"},
		{"Else after loop", "i = from 1 to 2\n    print i\nelse\n    print 0", 3, "else follows a loop block, not an if block"},
		{"Second else", "if a\n    b\nelse\n    c\nelse\n    d", 5, "not an if block"},
		{"Builtin hint", "x = #gt", 1, `unknown builtin "#gt" (did you mean "#get"?)`},
		{"Builtin hint by containment", "x = #idd", 1, `unknown builtin "#idd" (did you mean "#id"?)`},
		{"Builtin without hint", "x = #zzz", 1, `unknown builtin "#zzz"`},
		{"Skip with arguments", "skip 1", 1, "skip takes no arguments"},
		{"Assigned control word", "x = return 1", 1, "return can only be used as a statement"},
		{"Block lambda inside an expression", "x = [a ->]", 1, "a block lambda must end its statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(tt.input)
			var gen *CodegenError
			if !errors.As(err, &gen) {
				t.Fatalf("expected *CodegenError, got %T (%v)", err, err)
			}
			if gen.Line != tt.line {
				t.Errorf("line: got %d, want %d", gen.Line, tt.line)
			}
			if !strings.Contains(gen.Msg, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", gen.Msg, tt.wantMsg)
			}
		})
	}
}

func TestClosestBuiltin(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#gt", "#get"},
		{"#GET", "#get"},
		{"#i", "#id"},
		{"#idd", "#id"},
		{"#qqq", ""},
	}
	for _, tt := range tests {
		if got := closestBuiltin(tt.in); got != tt.want {
			t.Errorf("closestBuiltin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAlias(t *testing.T) {
	tests := map[string]string{
		"x":          "x",
		"new":        "_new",
		"name":       "_name",
		"class.list": "_class.list",
		"a.new":      "a.new",
		"true":       "true",
		"this.x":     "this.x",
	}
	for in, want := range tests {
		if got := alias(in); got != want {
			t.Errorf("alias(%q) = %q, want %q", in, got, want)
		}
	}
}
