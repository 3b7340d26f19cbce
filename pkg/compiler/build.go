package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// builder turns the concrete parse tree into the typed AST. Every node kind
// has exactly one branch; a shape no branch accepts is a ReconstructionError.
type builder struct {
	src string
}

// Build reconstructs a Module from the tree produced by Parse.
func Build(tree *Node, src string) (*Module, error) {
	b := &builder{src: src}
	return b.module(tree)
}

func (b *builder) fail(n *Node, format string, args ...any) *ReconstructionError {
	line := n.FirstToken().Line
	frag := strings.TrimSpace(n.Text())
	if frag == "" {
		frag = sourceLine(b.src, line)
	}
	return &ReconstructionError{
		Rule:     n.Kind.String(),
		Fragment: frag,
		Line:     line,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// significant returns the children of n with whitespace, newline, and comment
// leaves removed.
func significant(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == NodeToken && c.Tok.Type.IsTrivia() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// wrappers are the kinds the grammar adds only to encode precedence.
var wrappers = map[NodeKind]bool{
	NodeExpr:           true,
	NodeAdditive:       true,
	NodeMultiplicative: true,
	NodePostfix:        true,
	NodePrimary:        true,
	NodeValue:          true,
}

// unwrap descends through wrapper nodes that have a single significant child.
func unwrap(n *Node) *Node {
	for wrappers[n.Kind] {
		kids := significant(n)
		if len(kids) != 1 {
			break
		}
		n = kids[0]
	}
	return n
}

// operatorWords maps every operator spelling the grammar accepts.
var operatorWords = map[string]Operator{
	"+": OpAdd, "plus": OpAdd, "and": OpAdd, "with": OpAdd,
	"-": OpSub, "minus": OpSub, "without": OpSub,
	"*": OpMul, "times": OpMul, "by": OpMul,
	"/": OpDiv, "on": OpDiv, "over": OpDiv,
	"%": OpMod, "mod": OpMod, "modulo": OpMod,
}

// comparatorWords maps every comparator spelling, multi-word phrases joined
// by a single space.
var comparatorWords = map[string]Comparator{
	"=": CmpEq, "is": CmpEq,
	"!=": CmpNe, "is not": CmpNe,
	">": CmpGt, "is more than": CmpGt,
	">=": CmpGe,
	"<": CmpLt, "is less than": CmpLt,
	"<=": CmpLe,
}

//  Statements

func (b *builder) module(n *Node) (*Module, error) {
	if n.Kind != NodeModule {
		return nil, b.fail(n, "expected module, got %s", n.Kind)
	}
	mod := &Module{}
	for _, c := range n.Children {
		if c.IsTrivia() {
			continue
		}
		if c.Kind != NodeStatement {
			return nil, b.fail(c, "unexpected %s at module level", c.Kind)
		}
		stmt, err := b.statement(c)
		if err != nil {
			return nil, err
		}
		mod.Body = append(mod.Body, stmt)
	}
	return mod, nil
}

func (b *builder) statement(n *Node) (*Statement, error) {
	stmt := &Statement{}
	var bodyNode *Node
	for _, c := range n.Children {
		switch {
		case c.Kind == NodeToken && c.Tok.Type == INDENT:
			if bodyNode != nil {
				return nil, b.fail(n, "indentation after statement body")
			}
			stmt.Indent++
		case c.IsTrivia():
		case bodyNode == nil:
			bodyNode = c
		default:
			return nil, b.fail(n, "statement has more than one body")
		}
	}
	if bodyNode == nil {
		return nil, b.fail(n, "statement has no body")
	}
	stmt.Line = bodyNode.FirstToken().Line

	body, err := b.statementBody(bodyNode)
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (b *builder) statementBody(n *Node) (StmtBody, error) {
	switch n.Kind {
	case NodeElse:
		return &ElseStat{}, nil

	case NodeIfStat:
		kids := significant(n)
		if len(kids) != 2 || !kids[0].Is("if") {
			return nil, b.fail(n, "expected \"if\" followed by a condition")
		}
		test, err := b.expr(kids[1])
		if err != nil {
			return nil, err
		}
		return &IfStat{Test: test}, nil

	case NodeVarDef:
		return b.varDef(n)

	case NodeFuncCall:
		return b.funcCall(n)

	case NodeLambda:
		lam, err := b.lambda(n)
		if err != nil {
			return nil, err
		}
		return &ExprStat{Expr: lam}, nil

	case NodeExpr:
		e, err := b.expr(n)
		if err != nil {
			return nil, err
		}
		if name, ok := e.(*Name); ok {
			return name, nil
		}
		return &ExprStat{Expr: e}, nil

	default:
		return nil, b.fail(n, "%s cannot be a statement", n.Kind)
	}
}

func (b *builder) varDef(n *Node) (*VarDef, error) {
	kids := significant(n)
	if len(kids) != 3 || kids[0].Kind != NodeToken || kids[0].Tok.Type != IDENT {
		return nil, b.fail(n, "expected name, \"=\" and value")
	}
	if !kids[1].Is("=") && !kids[1].Is("is") {
		return nil, b.fail(n, "unknown assignment operator %q", kids[1].Text())
	}
	value, err := b.expr(kids[2])
	if err != nil {
		return nil, err
	}
	return &VarDef{Target: &Name{Value: kids[0].Tok.Lexeme}, Value: value}, nil
}

func (b *builder) funcCall(n *Node) (*FuncCall, error) {
	kids := significant(n)
	if len(kids) != 2 || kids[1].Kind != NodeArgs {
		return nil, b.fail(n, "expected callee followed by arguments")
	}
	var callee Expr
	if head := unwrap(kids[0]); head.Kind == NodeToken && head.Tok.Type == IDENT {
		// Operator words are valid function names here.
		callee = &Name{Value: head.Tok.Lexeme}
	} else {
		var err error
		if callee, err = b.expr(kids[0]); err != nil {
			return nil, err
		}
	}
	call := &FuncCall{Callee: callee}
	for _, a := range significant(kids[1]) {
		arg, err := b.expr(a)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	if len(call.Args) == 0 {
		return nil, b.fail(n, "call has no arguments")
	}
	return call, nil
}

func (b *builder) lambda(n *Node) (*Lambda, error) {
	kids := significant(n)
	if len(kids) < 2 || kids[0].Kind != NodeParams || kids[1].Kind != NodeToken || kids[1].Tok.Type != ARROW {
		return nil, b.fail(n, "expected parameters followed by \"->\"")
	}
	lam := &Lambda{Params: []*Name{}}
	for _, p := range significant(kids[0]) {
		if p.Kind != NodeToken || p.Tok.Type != IDENT || strings.Contains(p.Tok.Lexeme, ".") {
			return nil, b.fail(kids[0], "parameter %q is not an identifier", p.Text())
		}
		lam.Params = append(lam.Params, &Name{Value: p.Tok.Lexeme})
	}
	switch len(kids) {
	case 2:
		// Block form.
	case 3:
		body, err := b.expr(kids[2])
		if err != nil {
			return nil, err
		}
		lam.Body = body
	default:
		return nil, b.fail(n, "lambda has more than one body")
	}
	return lam, nil
}

func (b *builder) fromLoop(n *Node) (*FromLoop, error) {
	kids := significant(n)
	if len(kids) != 4 || !kids[0].Is("from") || !kids[2].Is("to") {
		return nil, b.fail(n, "expected \"from\" <expr> \"to\" <expr>")
	}
	if kids[1].Kind != NodeExpr || kids[3].Kind != NodeExpr {
		return nil, b.fail(n, "loop bounds must be expressions")
	}
	from, err := b.expr(kids[1])
	if err != nil {
		return nil, err
	}
	to, err := b.expr(kids[3])
	if err != nil {
		return nil, err
	}
	return &FromLoop{From: from, To: to}, nil
}

//  Expressions

func (b *builder) expr(n *Node) (Expr, error) {
	n = unwrap(n)
	switch n.Kind {
	case NodeToken:
		return b.literal(n)

	case NodeValue:
		return b.signedNumber(n)

	case NodeAdditive, NodeMultiplicative:
		return b.binary(n)

	case NodePostfix:
		return b.postfix(n)

	case NodeGroup:
		kids := significant(n)
		if len(kids) != 3 || !kids[0].Is("(") || !kids[2].Is(")") {
			return nil, b.fail(n, "unbalanced parentheses")
		}
		return b.expr(kids[1])

	case NodeArray:
		arr := &Array{Elements: []Expr{}}
		for _, c := range b.items(n) {
			e, err := b.expr(c)
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, e)
		}
		return arr, nil

	case NodeObject:
		obj := &Object{Pairs: []Pair{}}
		for _, c := range b.items(n) {
			p, err := b.pair(c)
			if err != nil {
				return nil, err
			}
			obj.Pairs = append(obj.Pairs, p)
		}
		return obj, nil

	case NodeCond:
		return b.cond(n)

	case NodeLambda:
		return b.lambda(n)

	case NodeFuncCall:
		return b.funcCall(n)

	case NodeFromLoop:
		return b.fromLoop(n)

	case NodeModule, NodeStatement, NodeElse, NodeIfStat, NodeVarDef, NodeParams,
		NodeArgs, NodeComparator, NodeExpr, NodePrimary, NodeOperator,
		NodeIndex, NodeMember, NodePair:
		return nil, b.fail(n, "%s is not an expression", n.Kind)

	default:
		return nil, b.fail(n, "unknown node kind %s", n.Kind)
	}
}

// items returns the element nodes of an array or object, skipping the
// brackets and separating commas.
func (b *builder) items(n *Node) []*Node {
	var out []*Node
	for _, c := range significant(n) {
		if c.Kind == NodeToken {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *builder) pair(n *Node) (Pair, error) {
	if n.Kind != NodePair {
		return Pair{}, b.fail(n, "expected key: value")
	}
	kids := significant(n)
	if len(kids) != 3 || !kids[1].Is(":") {
		return Pair{}, b.fail(n, "expected key: value")
	}
	var key Expr
	if head := unwrap(kids[0]); head.Kind == NodeToken && head.Tok.Type == IDENT {
		// Any identifier, operator words included, is a property name.
		key = &Name{Value: head.Tok.Lexeme}
	} else {
		var err error
		if key, err = b.expr(kids[0]); err != nil {
			return Pair{}, err
		}
	}
	value, err := b.expr(kids[2])
	if err != nil {
		return Pair{}, err
	}
	return Pair{Key: key, Value: value, Computed: kids[0].Kind == NodeGroup}, nil
}

func (b *builder) literal(n *Node) (Expr, error) {
	tok := n.Tok
	switch tok.Type {
	case IDENT:
		if isKeyword(tok.Lexeme) {
			return nil, b.fail(n, "%q is an operator word, not a value", tok.Lexeme)
		}
		return &Name{Value: tok.Lexeme}, nil
	case NUMBER:
		return b.number(n, tok.Lexeme, false)
	case STRING:
		runes := []rune(tok.Lexeme)
		if len(runes) < 2 || runes[0] != runes[len(runes)-1] {
			return nil, b.fail(n, "malformed string literal")
		}
		return &String{Value: string(runes[1 : len(runes)-1]), Quote: runes[0]}, nil
	case REGEX:
		return &Regex{Value: tok.Lexeme}, nil
	default:
		return nil, b.fail(n, "%s token has no value", tok.Type)
	}
}

func (b *builder) signedNumber(n *Node) (Expr, error) {
	kids := significant(n)
	if len(kids) != 2 || !kids[0].Is("-") || kids[1].Kind != NodeToken || kids[1].Tok.Type != NUMBER {
		return nil, b.fail(n, "expected a value")
	}
	return b.number(n, kids[1].Tok.Lexeme, true)
}

// number coerces a NUMBER lexeme. Integral results are stored as integers.
func (b *builder) number(n *Node, lexeme string, negative bool) (*Number, error) {
	var v float64
	if len(lexeme) > 2 && (lexeme[:2] == "0x" || lexeme[:2] == "0X") {
		i, err := strconv.ParseUint(lexeme[2:], 16, 64)
		if err != nil {
			return nil, b.fail(n, "bad hex literal %q: %v", lexeme, err)
		}
		v = float64(i)
	} else {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, b.fail(n, "bad number %q: %v", lexeme, err)
		}
		v = f
	}
	if negative {
		v = -v
	}
	integral := v == math.Trunc(v) && math.Abs(v) < 1<<53
	return &Number{Value: v, IsFloat: !integral}, nil
}

func (b *builder) operator(n *Node) (Operator, error) {
	kids := significant(n)
	if n.Kind != NodeOperator || len(kids) != 1 || kids[0].Kind != NodeToken {
		return 0, b.fail(n, "expected an operator")
	}
	op, ok := operatorWords[kids[0].Tok.Lexeme]
	if !ok {
		return 0, b.fail(n, "no canonical operator for %q", kids[0].Tok.Lexeme)
	}
	return op, nil
}

// binary folds operand (op operand)* left to right.
func (b *builder) binary(n *Node) (Expr, error) {
	kids := significant(n)
	if len(kids)%2 == 0 {
		return nil, b.fail(n, "operator without right operand")
	}
	left, err := b.expr(kids[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(kids); i += 2 {
		op, err := b.operator(kids[i])
		if err != nil {
			return nil, err
		}
		right, err := b.expr(kids[i+1])
		if err != nil {
			return nil, err
		}
		left = &Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (b *builder) postfix(n *Node) (Expr, error) {
	kids := significant(n)
	base, err := b.expr(kids[0])
	if err != nil {
		return nil, err
	}
	for _, k := range kids[1:] {
		parts := significant(k)
		switch k.Kind {
		case NodeIndex:
			if len(parts) != 3 || !parts[0].Is("[") || !parts[2].Is("]") {
				return nil, b.fail(k, "malformed index")
			}
			idx, err := b.expr(parts[1])
			if err != nil {
				return nil, err
			}
			base = &Binary{Left: base, Op: OpIndex, Right: idx}
		case NodeMember:
			if len(parts) != 2 || !parts[0].Is(".") || parts[1].Tok.Type != IDENT {
				return nil, b.fail(k, "malformed member access")
			}
			for _, seg := range strings.Split(parts[1].Tok.Lexeme, ".") {
				base = &Binary{Left: base, Op: OpMember, Right: &Name{Value: seg}}
			}
		default:
			return nil, b.fail(k, "unexpected %s after value", k.Kind)
		}
	}
	return base, nil
}

func (b *builder) cond(n *Node) (*Cond, error) {
	kids := significant(n)
	if len(kids) != 3 || kids[1].Kind != NodeComparator {
		return nil, b.fail(n, "expected <expr> <comparator> <expr>")
	}
	words := make([]string, 0, 3)
	for _, w := range significant(kids[1]) {
		words = append(words, w.Tok.Lexeme)
	}
	phrase := strings.Join(words, " ")
	op, ok := comparatorWords[phrase]
	if !ok {
		return nil, b.fail(kids[1], "no canonical comparator for %q", phrase)
	}
	left, err := b.expr(kids[0])
	if err != nil {
		return nil, err
	}
	right, err := b.expr(kids[2])
	if err != nil {
		return nil, err
	}
	return &Cond{Left: left, Op: op, Right: right}, nil
}
