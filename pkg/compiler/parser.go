package compiler

import (
	"fmt"
	"strings"
)

// Parser consumes the token slice produced by the Lexer and builds a concrete
// parse tree. Every rule is an ordered choice: alternatives are tried left to
// right, a failed alternative rewinds to where it started, and the first match
// wins. The order below is therefore part of the grammar.
//
//	module         = statement? (NEWLINE statement?)* EOF
//	statement      = INDENT* (else / ifstat / vardef / lambda / funccall / expr)
//	else           = "else"
//	ifstat         = "if" (cond / expr)
//	vardef         = IDENT ("=" / "is") (fromloop / lambda / funccall / expr)
//	fromloop       = "from" expr "to" expr
//	lambda         = params "->" (funccall / cond / expr)?
//	params         = IDENT*                                    undotted
//	funccall       = callee args
//	callee         = opword / postfix                          postfix starting with IDENT or group
//	args           = (lambda / expr)+                          each preceded by space
//	cond           = expr comparator expr
//	comparator     = "<=" / ">=" / "<" / ">" / "!=" / "=" / "is not" / "is more than" / "is less than" / "is"
//	expr           = additive
//	additive       = multiplicative (addop multiplicative)*
//	multiplicative = postfix (mulop postfix)*
//	postfix        = primary ("[" inner "]" / "." IDENT)*      no space before "[" or "."
//	primary        = group / array / object / value
//	group          = "(" inner ")"
//	inner          = lambda / funccall / cond / expr
//	array          = "[" (inner ("," inner)* ","?)? "]"
//	object         = "{" (pair ("," pair)* ","?)? "}"
//	pair           = (IDENT / STRING / NUMBER / group) ":" inner
//	value          = NUMBER / "-"NUMBER / STRING / REGEX / IDENT
//
// Whitespace and comments may appear between any two tokens. Inside brackets,
// braces, and parentheses newlines may appear too.
type Parser struct {
	tokens []Token
	pos    int
	src    string

	// nested counts open brackets; newlines are trivia while it is positive.
	nested int

	// furthest is the index of the furthest token any alternative failed on,
	// and expected describes what that alternative wanted there.
	furthest int
	expected string
}

// addWords spell the additive operators; mulWords the multiplicative ones.
var (
	addWords = map[string]bool{"plus": true, "and": true, "with": true, "minus": true, "without": true}
	mulWords = map[string]bool{"times": true, "by": true, "on": true, "over": true, "mod": true, "modulo": true}
)

// isKeyword reports whether an identifier is claimed by the grammar and so can
// never be read as a value.
func isKeyword(word string) bool {
	return addWords[word] || mulWords[word] || word == "is" || word == "if" || word == "else"
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, src: rawSource}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// fail records that the alternative at the current position wanted what.
// It always returns nil so callers can write `return p.fail(...)`.
func (p *Parser) fail(what string) *Node {
	if p.pos >= p.furthest {
		p.furthest = p.pos
		p.expected = what
	}
	return nil
}

func (p *Parser) isTrivia(tok Token) bool {
	if tok.Type == WHITESPACE || tok.Type == COMMENT {
		return true
	}
	return p.nested > 0 && (tok.Type == NEWLINE || tok.Type == INDENT)
}

// trivia moves any whitespace and comments at the current position into n.
func (p *Parser) trivia(n *Node) {
	for p.isTrivia(p.peek()) {
		n.add(leaf(p.advance()))
	}
}

// sig returns the next significant token without consuming anything.
func (p *Parser) sig() Token {
	for i := p.pos; i < len(p.tokens); i++ {
		if !p.isTrivia(p.tokens[i]) {
			return p.tokens[i]
		}
	}
	return Token{Type: EOF}
}

// sigAt returns the k-th significant token ahead (0 is the next one).
func (p *Parser) sigAt(k int) Token {
	for i := p.pos; i < len(p.tokens); i++ {
		if p.isTrivia(p.tokens[i]) {
			continue
		}
		if k == 0 {
			return p.tokens[i]
		}
		k--
	}
	return Token{Type: EOF}
}

// token consumes leading trivia plus one token of type tt into n.
func (p *Parser) token(n *Node, tt TokenType) bool {
	save, kids := p.pos, len(n.Children)
	p.trivia(n)
	if p.peek().Type != tt {
		p.fail(tt.String())
		p.pos, n.Children = save, n.Children[:kids]
		return false
	}
	n.add(leaf(p.advance()))
	return true
}

// word consumes leading trivia plus one IDENT spelled exactly w into n.
func (p *Parser) word(n *Node, w string) bool {
	save, kids := p.pos, len(n.Children)
	p.trivia(n)
	if tok := p.peek(); tok.Type != IDENT || tok.Lexeme != w {
		p.fail(fmt.Sprintf("%q", w))
		p.pos, n.Children = save, n.Children[:kids]
		return false
	}
	n.add(leaf(p.advance()))
	return true
}

// rule is one grammar alternative. It returns nil, with the position
// unchanged, when it does not match.
type rule func() *Node

// first tries each alternative in order and returns the first match.
func (p *Parser) first(alts ...rule) *Node {
	for _, alt := range alts {
		save := p.pos
		if n := alt(); n != nil {
			return n
		}
		p.pos = save
	}
	return nil
}

// wrap returns a node of kind k around child, with leading trivia kept.
func (p *Parser) wrap(k NodeKind, parse rule) *Node {
	save := p.pos
	n := &Node{Kind: k}
	p.trivia(n)
	child := parse()
	if child == nil {
		p.pos = save
		return nil
	}
	n.add(child)
	return n
}

//  Statements

func (p *Parser) parseStatement() *Node {
	save := p.pos
	n := &Node{Kind: NodeStatement}
	for p.peek().Type == INDENT {
		n.add(leaf(p.advance()))
	}
	body := p.first(p.parseElse, p.parseIf, p.parseVarDef, p.parseLambda, p.parseFuncCall, p.parseExpr)
	if body == nil {
		p.pos = save
		return p.fail("statement")
	}
	n.add(body)
	return n
}

func (p *Parser) parseElse() *Node {
	n := &Node{Kind: NodeElse}
	if !p.word(n, "else") {
		return nil
	}
	return n
}

func (p *Parser) parseIf() *Node {
	n := &Node{Kind: NodeIfStat}
	if !p.word(n, "if") {
		return nil
	}
	test := p.first(p.parseCond, p.parseExpr)
	if test == nil {
		return p.fail("condition")
	}
	n.add(test)
	return n
}

// isComparatorPhrase reports whether the "is" at the current significant
// position begins "is not", "is more than", or "is less than".
func (p *Parser) isComparatorPhrase() bool {
	next := p.sigAt(1)
	if next.Type != IDENT {
		return false
	}
	switch next.Lexeme {
	case "not":
		return true
	case "more", "less":
		than := p.sigAt(2)
		return than.Type == IDENT && than.Lexeme == "than"
	}
	return false
}

func (p *Parser) parseVarDef() *Node {
	n := &Node{Kind: NodeVarDef}
	p.trivia(n)
	target := p.peek()
	if target.Type != IDENT || isKeyword(target.Lexeme) {
		return p.fail("variable name")
	}
	n.add(leaf(p.advance()))

	switch eq := p.sig(); {
	case eq.Type == ASSIGN:
		p.token(n, ASSIGN)
	case eq.Type == IDENT && eq.Lexeme == "is" && !p.isComparatorPhrase():
		p.word(n, "is")
	default:
		return p.fail(`"=" or "is"`)
	}

	value := p.first(p.parseFromLoop, p.parseLambda, p.parseFuncCall, p.parseExpr)
	if value == nil {
		return p.fail("value")
	}
	n.add(value)
	return n
}

func (p *Parser) parseFromLoop() *Node {
	n := &Node{Kind: NodeFromLoop}
	if !p.word(n, "from") {
		return nil
	}
	from := p.parseExpr()
	if from == nil {
		return nil
	}
	n.add(from)
	if !p.word(n, "to") {
		return nil
	}
	to := p.parseExpr()
	if to == nil {
		return nil
	}
	n.add(to)
	return n
}

func (p *Parser) parseLambda() *Node {
	n := &Node{Kind: NodeLambda}
	params := &Node{Kind: NodeParams}
	for {
		tok := p.sig()
		if tok.Type != IDENT || isKeyword(tok.Lexeme) || strings.Contains(tok.Lexeme, ".") {
			break
		}
		p.trivia(params)
		params.add(leaf(p.advance()))
	}
	n.add(params)
	if !p.token(n, ARROW) {
		return nil
	}

	// The body is optional; without one the lambda takes the following block.
	switch p.sig().Type {
	case NEWLINE, EOF, RPAREN, RBRACKET, RBRACE, COMMA:
		return n
	}
	body := p.first(p.parseFuncCall, p.parseCond, p.parseExpr)
	if body == nil {
		return p.fail("lambda body")
	}
	n.add(body)
	return n
}

// parseCallee parses a postfix expression that can name a function: an
// identifier or a parenthesised group, followed by any index or member access.
func (p *Parser) parseCallee() *Node {
	if tok := p.sig(); tok.Type == IDENT && (addWords[tok.Lexeme] || mulWords[tok.Lexeme]) {
		// An operator word can still name a function at the head of a call.
		prim := &Node{Kind: NodePrimary}
		p.trivia(prim)
		prim.add(&Node{Kind: NodeValue, Children: []*Node{leaf(p.advance())}})
		return &Node{Kind: NodePostfix, Children: []*Node{prim}}
	}
	save := p.pos
	n := p.parsePostfix()
	if n == nil {
		return nil
	}
	prim := n.Children[0].Children[len(n.Children[0].Children)-1]
	callable := prim.Kind == NodeGroup ||
		prim.Kind == NodeValue && len(prim.Children) == 1 && prim.Children[0].Tok.Type == IDENT
	if !callable {
		p.pos = save
		return p.fail("function name")
	}
	return n
}

func (p *Parser) parseFuncCall() *Node {
	callee := p.parseCallee()
	if callee == nil {
		return nil
	}
	args := &Node{Kind: NodeArgs}
	for {
		// Arguments are separated by whitespace; only a group may touch the callee.
		if !p.isTrivia(p.peek()) && p.peek().Type != LPAREN {
			break
		}
		arg := p.first(p.parseLambda, p.parseExpr)
		if arg == nil {
			break
		}
		args.add(arg)
	}
	if len(args.Children) == 0 {
		return p.fail("argument")
	}
	return &Node{Kind: NodeFuncCall, Children: []*Node{callee, args}}
}

//  Conditions

// comparators lists every comparator spelling, longest phrases first.
var comparators = []struct {
	tt    TokenType
	words []string
}{
	{tt: LESS_EQ},
	{tt: GREATER_EQ},
	{tt: LESS},
	{tt: GREATER},
	{tt: NOT_EQ},
	{tt: ASSIGN},
	{tt: IDENT, words: []string{"is", "not"}},
	{tt: IDENT, words: []string{"is", "more", "than"}},
	{tt: IDENT, words: []string{"is", "less", "than"}},
	{tt: IDENT, words: []string{"is"}},
}

func (p *Parser) parseComparator() *Node {
	for _, c := range comparators {
		save := p.pos
		n := &Node{Kind: NodeComparator}
		ok := true
		if c.tt != IDENT {
			ok = p.token(n, c.tt)
		} else {
			for _, w := range c.words {
				if !p.word(n, w) {
					ok = false
					break
				}
			}
		}
		if ok {
			return n
		}
		p.pos = save
	}
	return p.fail("comparator")
}

func (p *Parser) parseCond() *Node {
	left := p.parseExpr()
	if left == nil {
		return nil
	}
	cmp := p.parseComparator()
	if cmp == nil {
		return nil
	}
	right := p.parseExpr()
	if right == nil {
		return nil
	}
	return &Node{Kind: NodeCond, Children: []*Node{left, cmp, right}}
}

//  Expressions

func (p *Parser) parseExpr() *Node {
	return p.wrap(NodeExpr, p.parseAdditive)
}

// parseOperator consumes one operator token (symbol or word) accepted by
// accept, together with its leading trivia.
func (p *Parser) parseOperator(accept func(Token) bool) *Node {
	save := p.pos
	n := &Node{Kind: NodeOperator}
	p.trivia(n)
	if !accept(p.peek()) {
		p.pos = save
		return p.fail("operator")
	}
	n.add(leaf(p.advance()))
	return n
}

func isAddOp(tok Token) bool {
	return tok.Type == PLUS || tok.Type == MINUS || tok.Type == IDENT && addWords[tok.Lexeme]
}

func isMulOp(tok Token) bool {
	switch tok.Type {
	case STAR, SLASH, PERCENT:
		return true
	case IDENT:
		return mulWords[tok.Lexeme]
	}
	return false
}

// binaryLevel parses operand (op operand)* for one precedence level.
func (p *Parser) binaryLevel(k NodeKind, operand rule, accept func(Token) bool) *Node {
	first := operand()
	if first == nil {
		return nil
	}
	n := &Node{Kind: k, Children: []*Node{first}}
	for {
		save := p.pos
		op := p.parseOperator(accept)
		if op == nil {
			break
		}
		right := operand()
		if right == nil {
			p.pos = save
			break
		}
		n.add(op, right)
	}
	return n
}

func (p *Parser) parseAdditive() *Node {
	return p.binaryLevel(NodeAdditive, p.parseMultiplicative, isAddOp)
}

func (p *Parser) parseMultiplicative() *Node {
	return p.binaryLevel(NodeMultiplicative, p.parsePostfix, isMulOp)
}

func (p *Parser) parsePostfix() *Node {
	prim := p.parsePrimary()
	if prim == nil {
		return nil
	}
	n := &Node{Kind: NodePostfix, Children: []*Node{prim}}
	for {
		switch p.peek().Type {
		case LBRACKET:
			save := p.pos
			idx := &Node{Kind: NodeIndex}
			idx.add(leaf(p.advance()))
			p.nested++
			inner := p.parseInner()
			ok := inner != nil
			if ok {
				idx.add(inner)
				ok = p.token(idx, RBRACKET)
			}
			p.nested--
			if !ok {
				p.pos = save
				return n
			}
			n.add(idx)
		case DOT:
			if p.pos+1 >= len(p.tokens) || p.tokens[p.pos+1].Type != IDENT {
				return n
			}
			n.add(&Node{Kind: NodeMember, Children: []*Node{leaf(p.advance()), leaf(p.advance())}})
		default:
			return n
		}
	}
}

func (p *Parser) parsePrimary() *Node {
	save := p.pos
	n := &Node{Kind: NodePrimary}
	p.trivia(n)
	var child *Node
	switch tok := p.peek(); tok.Type {
	case LPAREN:
		child = p.parseGroup()
	case LBRACKET:
		child = p.parseArray()
	case LBRACE:
		child = p.parseObject()
	default:
		child = p.parseValue()
	}
	if child == nil {
		p.pos = save
		return nil
	}
	n.add(child)
	return n
}

func (p *Parser) parseValue() *Node {
	tok := p.peek()
	switch tok.Type {
	case NUMBER, STRING, REGEX:
		return &Node{Kind: NodeValue, Children: []*Node{leaf(p.advance())}}
	case IDENT:
		if isKeyword(tok.Lexeme) {
			return p.fail("value")
		}
		return &Node{Kind: NodeValue, Children: []*Node{leaf(p.advance())}}
	case MINUS:
		// A sign binds only when the number follows with no space.
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == NUMBER {
			return &Node{Kind: NodeValue, Children: []*Node{leaf(p.advance()), leaf(p.advance())}}
		}
	}
	return p.fail("value")
}

// parseInner parses the contents of a group, array element, or object value.
func (p *Parser) parseInner() *Node {
	return p.first(p.parseLambda, p.parseFuncCall, p.parseCond, p.parseExpr)
}

// parseDelimited parses open item ("," item)* ","? close into n. Trailing
// commas are accepted, and newlines are trivia throughout.
func (p *Parser) parseDelimited(n *Node, open, close TokenType, item rule) bool {
	if !p.token(n, open) {
		return false
	}
	p.nested++
	defer func() { p.nested-- }()
	for {
		p.trivia(n)
		if p.peek().Type == close {
			n.add(leaf(p.advance()))
			return true
		}
		it := item()
		if it == nil {
			return false
		}
		n.add(it)
		p.trivia(n)
		if p.peek().Type == COMMA {
			n.add(leaf(p.advance()))
			continue
		}
		if !p.token(n, close) {
			return false
		}
		return true
	}
}

func (p *Parser) parseGroup() *Node {
	n := &Node{Kind: NodeGroup}
	if !p.token(n, LPAREN) {
		return nil
	}
	p.nested++
	defer func() { p.nested-- }()
	inner := p.parseInner()
	if inner == nil {
		return nil
	}
	n.add(inner)
	if !p.token(n, RPAREN) {
		return nil
	}
	return n
}

func (p *Parser) parseArray() *Node {
	n := &Node{Kind: NodeArray}
	if !p.parseDelimited(n, LBRACKET, RBRACKET, p.parseInner) {
		return nil
	}
	return n
}

func (p *Parser) parseObject() *Node {
	n := &Node{Kind: NodeObject}
	if !p.parseDelimited(n, LBRACE, RBRACE, p.parsePair) {
		return nil
	}
	return n
}

func (p *Parser) parsePair() *Node {
	n := &Node{Kind: NodePair}
	p.trivia(n)
	switch tok := p.peek(); tok.Type {
	case IDENT, STRING, NUMBER:
		n.add(&Node{Kind: NodeValue, Children: []*Node{leaf(p.advance())}})
	case LPAREN:
		key := p.parseGroup()
		if key == nil {
			return nil
		}
		n.add(key)
	default:
		return p.fail("object key")
	}
	if !p.token(n, COLON) {
		return nil
	}
	value := p.parseInner()
	if value == nil {
		return p.fail("object value")
	}
	n.add(value)
	return n
}

//  Module

// syntaxError builds the error for a failed parse, preferring the furthest
// position any alternative reached over the position where parsing stopped.
func (p *Parser) syntaxError(at int, format string, args ...any) error {
	if p.furthest > at && p.furthest < len(p.tokens) {
		tok := p.tokens[p.furthest]
		return newSyntaxError(p.src, tok, "expected %s, got %s (%q)", p.expected, tok.Type, tok.Lexeme)
	}
	tok := p.peek()
	if at < len(p.tokens) {
		tok = p.tokens[at]
	}
	return newSyntaxError(p.src, tok, format, args...)
}

func (p *Parser) parseModule() (*Node, error) {
	mod := &Node{Kind: NodeModule}
	for {
		p.trivia(mod)
		switch tok := p.peek(); tok.Type {
		case EOF:
			return mod, nil
		case NEWLINE:
			mod.add(leaf(p.advance()))
			continue
		}

		start := p.pos
		stmt := p.parseStatement()
		if stmt == nil {
			tok := p.peek()
			return nil, p.syntaxError(start, "unexpected %s (%q)", tok.Type, tok.Lexeme)
		}
		mod.add(stmt)

		p.trivia(mod)
		if tok := p.peek(); tok.Type != NEWLINE && tok.Type != EOF {
			return nil, p.syntaxError(p.pos, "unexpected %s (%q) after statement", tok.Type, tok.Lexeme)
		}
	}
}

// Parse builds the concrete parse tree for a token stream produced by Lex.
// It returns a *SyntaxError for the first construct no alternative accepts.
func Parse(tokens []Token, rawSource string) (*Node, error) {
	return NewParser(tokens, rawSource).parseModule()
}
