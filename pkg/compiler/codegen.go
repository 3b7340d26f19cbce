package compiler

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CodeGen walks a Module and emits JavaScript source text. A CodeGen is used
// for exactly one Generate call.
type CodeGen struct {
	scopes *ScopeStack
	out    bytes.Buffer
	line   int // source line of the statement being rendered

	// pending is the block the last statement introduced; the next statement
	// must open it by indenting one level.
	pending *pendingBlock

	// closed describes the block whose closer was the last thing written.
	closed *closedBlock
}

type pendingBlock struct {
	kind   ScopeKind
	closer string
	params []*Name
	line   int
}

type closedBlock struct {
	kind  ScopeKind
	depth int
	end   int // output length right after the closer
}

// callTargets rewrites builtin call targets to their platform names.
var callTargets = map[string]string{
	"print": "console.log",
	"#get":  "document.querySelector",
	"#id":   "document.getElementById",
}

// controlWords short-circuit to statements instead of rendering as calls.
// They are never hoisted.
var controlWords = map[string]bool{
	"skip":   true,
	"break":  true,
	"return": true,
}

// aliases renames identifiers that would collide with JavaScript keywords.
// Literals such as true, null, and this pass through.
var aliases = func() map[string]string {
	words := []string{
		"case", "catch", "class", "const", "continue", "debugger", "default",
		"delete", "do", "else", "enum", "export", "extends", "finally", "for",
		"function", "if", "import", "in", "instanceof", "let", "new", "return",
		"static", "super", "switch", "throw", "try", "typeof", "var", "void",
		"while", "with", "yield", "break", "name",
	}
	m := make(map[string]string, len(words))
	for _, w := range words {
		m[w] = "_" + w
	}
	return m
}()

func newCodeGen() *CodeGen {
	return &CodeGen{scopes: NewScopeStack()}
}

func (cg *CodeGen) errorf(format string, args ...any) *CodegenError {
	return &CodegenError{Line: cg.line, Msg: fmt.Sprintf(format, args...)}
}

func indent(depth int) string {
	return strings.Repeat("    ", depth)
}

// emit writes one complete output line at depth.
func (cg *CodeGen) emit(depth int, text string) {
	cg.out.WriteString(indent(depth))
	cg.out.WriteString(text)
	cg.out.WriteByte('\n')
}

// open writes a block-introducer header at depth and leaves the line open
// for the " {" of the following statement.
func (cg *CodeGen) open(depth int, header string, kind ScopeKind, closer string, params []*Name) {
	cg.out.WriteString(indent(depth))
	cg.out.WriteString(header)
	cg.pending = &pendingBlock{kind: kind, closer: closer, params: params, line: cg.line}
}

// closeBlock flushes the innermost frame's hoisted names and writes its closer.
func (cg *CodeGen) closeBlock() {
	depth := cg.scopes.Depth()
	top := cg.scopes.Pop()
	if names := top.Names(); len(names) > 0 {
		cg.emit(depth, "var "+strings.Join(names, ", ")+";")
	}
	cg.emit(depth-1, top.closer)
	cg.closed = &closedBlock{kind: top.Kind, depth: depth - 1, end: cg.out.Len()}
}

// enter adjusts the open blocks to the depth of stmt.
func (cg *CodeGen) enter(stmt *Statement) error {
	depth := cg.scopes.Depth()
	switch {
	case stmt.Indent == depth+1:
		if cg.pending == nil {
			return cg.errorf("unexpected indentation: no statement opens a block here")
		}
		cg.out.WriteString(" {\n")
		cg.scopes.Push(cg.pending.kind, cg.pending.closer)
		for _, p := range cg.pending.params {
			cg.scopes.Bind(alias(p.Value))
		}
		cg.pending = nil
	case stmt.Indent > depth+1:
		return cg.errorf("indentation jumps from depth %d to %d", depth, stmt.Indent)
	default:
		if cg.pending != nil {
			return &CodegenError{Line: cg.pending.line, Msg: "block has no body"}
		}
		for cg.scopes.Depth() > stmt.Indent {
			cg.closeBlock()
		}
	}
	return nil
}

// Generate renders mod as JavaScript.
func Generate(mod *Module) (string, error) {
	cg := newCodeGen()
	for _, stmt := range mod.Body {
		cg.line = stmt.Line
		if err := cg.enter(stmt); err != nil {
			return "", err
		}
		if err := cg.genStmt(stmt.Body); err != nil {
			return "", err
		}
	}
	if cg.pending != nil {
		return "", &CodegenError{Line: cg.pending.line, Msg: "block has no body"}
	}
	for cg.scopes.Depth() > 0 {
		cg.closeBlock()
	}

	body := cg.out.String()
	if names := cg.scopes.Module().Names(); len(names) > 0 {
		return "var " + strings.Join(names, ", ") + ";\n" + body, nil
	}
	return body, nil
}

//  Statements

func (cg *CodeGen) genStmt(body StmtBody) error {
	depth := cg.scopes.Depth()
	switch s := body.(type) {
	case *VarDef:
		return cg.genVarDef(depth, s)

	case *IfStat:
		test, err := cg.genExpr(s.Test)
		if err != nil {
			return err
		}
		cg.open(depth, "if ("+test+")", ScopeIf, "}", nil)
		return nil

	case *ElseStat:
		c := cg.closed
		if c == nil || c.end != cg.out.Len() || c.depth != depth {
			return cg.errorf("else does not follow a closed if block")
		}
		if c.kind != ScopeIf {
			return cg.errorf("else follows a %s block, not an if block", c.kind)
		}
		// Turn the "}\n" just written into "} else".
		cg.out.Truncate(cg.out.Len() - 1)
		cg.out.WriteString(" else")
		cg.pending = &pendingBlock{kind: ScopeElse, closer: "}", line: cg.line}
		cg.closed = nil
		return nil

	case *Name:
		return cg.genCall(depth, "", &FuncCall{Callee: s})

	case *FuncCall:
		return cg.genCall(depth, "", s)

	case *ExprStat:
		if lam, ok := s.Expr.(*Lambda); ok && lam.Body == nil {
			cg.open(depth, "("+paramList(lam)+") =>", ScopeLambda, "}", lam.Params)
			return nil
		}
		e, err := cg.genExpr(s.Expr)
		if err != nil {
			return err
		}
		cg.emit(depth, e+";")
		return nil

	default:
		return cg.errorf("unknown statement node %T", body)
	}
}

// declare hoists an assignment target into the innermost block. Dotted
// targets and control words are never declared.
func (cg *CodeGen) declare(target *Name) {
	if strings.Contains(target.Value, ".") || controlWords[target.Value] {
		return
	}
	cg.scopes.Declare(alias(target.Value))
}

func (cg *CodeGen) genVarDef(depth int, v *VarDef) error {
	target, err := cg.genName(v.Target)
	if err != nil {
		return err
	}
	switch value := v.Value.(type) {
	case *FromLoop:
		from, err := cg.genExpr(value.From)
		if err != nil {
			return err
		}
		to, err := cg.genExpr(value.To)
		if err != nil {
			return err
		}
		cg.declare(v.Target)
		header := fmt.Sprintf("for (%[1]s = %[2]s; %[1]s <= %[3]s; %[1]s++)", target, from, to)
		cg.open(depth, header, ScopeLoop, "}", nil)
		return nil

	case *Lambda:
		if value.Body == nil {
			cg.declare(v.Target)
			cg.open(depth, target+" = ("+paramList(value)+") =>", ScopeLambda, "};", value.Params)
			return nil
		}

	case *FuncCall:
		if blockTail(value) != nil {
			cg.declare(v.Target)
			return cg.genCall(depth, target+" = ", value)
		}
	}

	rhs, err := cg.genExpr(v.Value)
	if err != nil {
		return err
	}
	cg.declare(v.Target)
	cg.emit(depth, target+" = "+rhs+";")
	return nil
}

// blockTail returns the trailing block-form lambda of a call, if any.
func blockTail(call *FuncCall) *Lambda {
	if len(call.Args) == 0 {
		return nil
	}
	if lam, ok := call.Args[len(call.Args)-1].(*Lambda); ok && lam.Body == nil {
		return lam
	}
	return nil
}

// genCall renders a statement-level call. prefix is written before the call,
// for assignments such as `x = f(...)`.
func (cg *CodeGen) genCall(depth int, prefix string, call *FuncCall) error {
	if name, ok := call.Callee.(*Name); ok && controlWords[name.Value] {
		if prefix != "" {
			return cg.errorf("%s can only be used as a statement", name.Value)
		}
		return cg.genControl(depth, name.Value, call.Args)
	}
	callee, err := cg.genCallee(call.Callee)
	if err != nil {
		return err
	}

	tail := blockTail(call)
	args := call.Args
	if tail != nil {
		args = args[:len(args)-1]
	}
	parts, err := cg.genArgs(args)
	if err != nil {
		return err
	}

	if tail == nil {
		cg.emit(depth, prefix+callee+"("+strings.Join(parts, ", ")+");")
		return nil
	}
	parts = append(parts, "("+paramList(tail)+") =>")
	cg.open(depth, prefix+callee+"("+strings.Join(parts, ", "), ScopeLambda, "});", tail.Params)
	return nil
}

func (cg *CodeGen) genControl(depth int, word string, args []Expr) error {
	switch word {
	case "skip", "break":
		if len(args) > 0 {
			return cg.errorf("%s takes no arguments", word)
		}
		kw := "continue"
		if word == "break" {
			kw = "break"
		}
		cg.emit(depth, kw+";")
		return nil
	default:
		parts, err := cg.genArgs(args)
		if err != nil {
			return err
		}
		if len(parts) == 0 {
			cg.emit(depth, "return;")
			return nil
		}
		cg.emit(depth, "return "+strings.Join(parts, ", ")+";")
		return nil
	}
}

func (cg *CodeGen) genArgs(args []Expr) ([]string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := cg.genExpr(a)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func (cg *CodeGen) genCallee(e Expr) (string, error) {
	if name, ok := e.(*Name); ok {
		if name.Value == "print" && cg.scopes.Lookup("print") {
			return "print", nil
		}
		if target, ok := callTargets[name.Value]; ok {
			return target, nil
		}
		return cg.genName(name)
	}
	return cg.genOperand(e, compound)
}

//  Expressions

// alias renames the first segment of a dotted name when it collides with a
// JavaScript keyword.
func alias(name string) string {
	head, rest, dotted := strings.Cut(name, ".")
	if a, ok := aliases[head]; ok {
		head = a
	}
	if dotted {
		return head + "." + rest
	}
	return head
}

func (cg *CodeGen) genName(n *Name) (string, error) {
	if strings.HasPrefix(n.Value, "#") {
		head, rest, dotted := strings.Cut(n.Value, ".")
		target, ok := callTargets[head]
		if !ok {
			if hint := closestBuiltin(head); hint != "" {
				return "", cg.errorf("unknown builtin %q (did you mean %q?)", head, hint)
			}
			return "", cg.errorf("unknown builtin %q", head)
		}
		if dotted {
			return target + "." + rest, nil
		}
		return target, nil
	}
	return alias(n.Value), nil
}

// hashBuiltins lists the builtins spelled with a leading '#', sorted.
var hashBuiltins = func() []string {
	var names []string
	for name := range callTargets {
		if strings.HasPrefix(name, "#") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}()

// closestBuiltin suggests a builtin for a misspelt name, or returns "".
func closestBuiltin(name string) string {
	ranks := fuzzy.RankFindFold(name, hashBuiltins)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	// The name may be a builtin with extra characters typed into it.
	for _, b := range hashBuiltins {
		if fuzzy.MatchFold(b, name) {
			return b
		}
	}
	return ""
}

func paramList(l *Lambda) string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = alias(p.Value)
	}
	return strings.Join(names, ", ")
}

// needsParens decides whether a nested expression must be parenthesised.
type needsParens func(Expr) bool

// compound matches arithmetic, lambdas, calls, and conditions.
func compound(e Expr) bool {
	switch x := e.(type) {
	case *Binary:
		return x.Op != OpMember && x.Op != OpIndex
	case *Lambda, *FuncCall, *Cond:
		return true
	}
	return false
}

// receiver matches what cannot sit unparenthesised left of "." or "[".
func receiver(e Expr) bool {
	switch x := e.(type) {
	case *Binary:
		return x.Op != OpMember && x.Op != OpIndex
	case *Lambda, *Cond, *Number:
		return true
	}
	return false
}

// comparand matches what cannot sit unparenthesised beside a comparator.
func comparand(e Expr) bool {
	switch e.(type) {
	case *Lambda, *Cond:
		return true
	}
	return false
}

func (cg *CodeGen) genOperand(e Expr, wrap needsParens) (string, error) {
	s, err := cg.genExpr(e)
	if err != nil {
		return "", err
	}
	if wrap(e) {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (cg *CodeGen) genExpr(e Expr) (string, error) {
	switch x := e.(type) {
	case *Name:
		return cg.genName(x)

	case *Number:
		return x.String(), nil

	case *String:
		return x.String(), nil

	case *Regex:
		return x.Value, nil

	case *Array:
		parts, err := cg.genArgs(x.Elements)
		if err != nil {
			return "", err
		}
		return "[" + strings.Join(parts, ", ") + "]", nil

	case *Object:
		parts := make([]string, len(x.Pairs))
		for i, p := range x.Pairs {
			key, err := cg.genKey(p)
			if err != nil {
				return "", err
			}
			value, err := cg.genExpr(p.Value)
			if err != nil {
				return "", err
			}
			parts[i] = key + ": " + value
		}
		return "{" + strings.Join(parts, ", ") + "}", nil

	case *Binary:
		return cg.genBinary(x)

	case *Cond:
		left, err := cg.genOperand(x.Left, comparand)
		if err != nil {
			return "", err
		}
		right, err := cg.genOperand(x.Right, comparand)
		if err != nil {
			return "", err
		}
		return left + " " + x.Op.String() + " " + right, nil

	case *Lambda:
		if x.Body == nil {
			return "", cg.errorf("a block lambda must end its statement")
		}
		body, err := cg.genExpr(x.Body)
		if err != nil {
			return "", err
		}
		if _, ok := x.Body.(*Object); ok {
			body = "(" + body + ")"
		}
		return "(" + paramList(x) + ") => " + body, nil

	case *FuncCall:
		if name, ok := x.Callee.(*Name); ok && controlWords[name.Value] {
			return "", cg.errorf("%s can only be used as a statement", name.Value)
		}
		callee, err := cg.genCallee(x.Callee)
		if err != nil {
			return "", err
		}
		parts, err := cg.genArgs(x.Args)
		if err != nil {
			return "", err
		}
		return callee + "(" + strings.Join(parts, ", ") + ")", nil

	case *FromLoop:
		return "", cg.errorf("a from loop can only be assigned to a loop variable")

	default:
		return "", cg.errorf("unknown expression node %T", e)
	}
}

func (cg *CodeGen) genBinary(b *Binary) (string, error) {
	switch b.Op {
	case OpMember:
		left, err := cg.genOperand(b.Left, receiver)
		if err != nil {
			return "", err
		}
		name, ok := b.Right.(*Name)
		if !ok {
			return "", cg.errorf("member access needs a name, got %s", b.Right)
		}
		return left + "." + name.Value, nil

	case OpIndex:
		left, err := cg.genOperand(b.Left, receiver)
		if err != nil {
			return "", err
		}
		idx, err := cg.genExpr(b.Right)
		if err != nil {
			return "", err
		}
		return left + "[" + idx + "]", nil

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		left, err := cg.genOperand(b.Left, compound)
		if err != nil {
			return "", err
		}
		right, err := cg.genOperand(b.Right, compound)
		if err != nil {
			return "", err
		}
		return left + " " + b.Op.String() + " " + right, nil

	default:
		return "", cg.errorf("unknown operator %s", b.Op)
	}
}

// genKey renders an object key. Bare names are property names and are not
// aliased; parenthesised keys are computed.
func (cg *CodeGen) genKey(p Pair) (string, error) {
	if !p.Computed {
		switch key := p.Key.(type) {
		case *Name:
			if strings.ContainsAny(key.Value, ".#") {
				return "", cg.errorf("object key %q is not a property name", key.Value)
			}
			return key.Value, nil
		case *String, *Number:
			return key.String(), nil
		}
	}
	s, err := cg.genExpr(p.Key)
	if err != nil {
		return "", err
	}
	return "[" + s + "]", nil
}
