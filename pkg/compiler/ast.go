package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// Name is an identifier, possibly dotted.
//
//	print user.name
//	      ^^^^^^^^^  Name{Value: "user.name"}
type Name struct {
	Value string
}

func (*Name) exprNode()        {}
func (*Name) stmtNode()        {}
func (n *Name) String() string { return n.Value }

// Number is a numeric literal. Integral values are stored with IsFloat false,
// so 2.0 and 2 are the same literal.
type Number struct {
	Value   float64
	IsFloat bool
}

func (*Number) exprNode() {}
func (n *Number) String() string {
	if !n.IsFloat {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// String is a quoted literal with its delimiters removed. Escapes are kept as
// written in the source.
type String struct {
	Value string
	Quote rune // '"', '\'' or '`'
}

func (*String) exprNode()        {}
func (s *String) String() string { return string(s.Quote) + s.Value + string(s.Quote) }

// Regex is a /pattern/flags literal kept verbatim.
type Regex struct {
	Value string
}

func (*Regex) exprNode()        {}
func (r *Regex) String() string { return r.Value }

// Array is [e, e, ...].
type Array struct {
	Elements []Expr
}

func (*Array) exprNode() {}
func (a *Array) String() string {
	return fmt.Sprintf("Array(len=%d, %v)", len(a.Elements), a.Elements)
}

// Pair is one key: value entry of an Object. Computed is set for a
// parenthesised key, {(k): v}.
type Pair struct {
	Key      Expr
	Value    Expr
	Computed bool
}

// Object is {k: v, ...}. Pairs keep source order and duplicate keys.
type Object struct {
	Pairs []Pair
}

func (*Object) exprNode() {}
func (o *Object) String() string {
	parts := make([]string, len(o.Pairs))
	for i, p := range o.Pairs {
		if p.Computed {
			parts[i] = fmt.Sprintf("[%s]: %s", p.Key, p.Value)
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", p.Key, p.Value)
	}
	return "Object{" + strings.Join(parts, ", ") + "}"
}

// Operator is the canonical tag for every spelling of a binary operator.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMember // a.b
	OpIndex  // a[b]
)

var operatorSymbols = [...]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpMember: ".",
	OpIndex:  "[]",
}

func (op Operator) String() string {
	if int(op) >= 0 && int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// Binary represents Left Op Right.
//
//	x plus 1
//	^ ^^^^ ^
//	| |    |
//	| |    Right
//	| Op (OpAdd)
//	Left
type Binary struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (*Binary) exprNode() {}
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Comparator is the canonical tag for every spelling of a comparison.
type Comparator int

const (
	CmpEq Comparator = iota
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
)

var comparatorSymbols = [...]string{
	CmpEq: "===",
	CmpNe: "!==",
	CmpGt: ">",
	CmpGe: ">=",
	CmpLt: "<",
	CmpLe: "<=",
}

func (c Comparator) String() string {
	if int(c) >= 0 && int(c) < len(comparatorSymbols) {
		return comparatorSymbols[c]
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// Cond is a comparison.
//
//	if x is more than 5
//	   ^^^^^^^^^^^^^^^^  Cond{Left: x, Op: CmpGt, Right: 5}
type Cond struct {
	Left  Expr
	Op    Comparator
	Right Expr
}

func (*Cond) exprNode() {}
func (c *Cond) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// Lambda is a function literal. A nil Body is the block form: the body is
// the indented block that follows the statement.
type Lambda struct {
	Params []*Name
	Body   Expr
}

func (*Lambda) exprNode() {}
func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Value
	}
	if l.Body == nil {
		return fmt.Sprintf("Lambda(%s) -> <block>", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Lambda(%s) -> %s", strings.Join(names, ", "), l.Body)
}

// FromLoop is an inclusive counted range. It only appears as a VarDef value.
type FromLoop struct {
	From Expr
	To   Expr
}

func (*FromLoop) exprNode() {}
func (f *FromLoop) String() string {
	return fmt.Sprintf("from %s to %s", f.From, f.To)
}

// FuncCall is a call with at least one argument. A call with no arguments is
// written as a bare Name statement.
type FuncCall struct {
	Callee Expr
	Args   []Expr
}

func (*FuncCall) exprNode() {}
func (*FuncCall) stmtNode() {}
func (f *FuncCall) String() string {
	return fmt.Sprintf("Call(%s, %v)", f.Callee, f.Args)
}

//  Statement nodes

// StmtBody is implemented by everything that can stand on a line of its own.
type StmtBody interface {
	stmtNode()
	String() string
}

// VarDef is an assignment, `x = v` or `x is v`.
type VarDef struct {
	Target *Name
	Value  Expr
}

func (*VarDef) stmtNode() {}
func (v *VarDef) String() string {
	return fmt.Sprintf("VarDef(%s = %s)", v.Target, v.Value)
}

// IfStat opens a conditional block.
type IfStat struct {
	Test Expr
}

func (*IfStat) stmtNode()        {}
func (s *IfStat) String() string { return fmt.Sprintf("If(%s)", s.Test) }

// ElseStat continues the if block that closed immediately before it.
type ElseStat struct{}

func (*ElseStat) stmtNode()      {}
func (*ElseStat) String() string { return "Else" }

// ExprStat is an expression used as a statement.
type ExprStat struct {
	Expr Expr
}

func (*ExprStat) stmtNode()        {}
func (s *ExprStat) String() string { return fmt.Sprintf("Expr(%s)", s.Expr) }

// Statement is one source line: its depth in 4-space units and its body.
type Statement struct {
	Indent int
	Line   int
	Body   StmtBody
}

func (s *Statement) String() string {
	return strings.Repeat("    ", s.Indent) + s.Body.String()
}

// Module is the root of a compiled unit.
type Module struct {
	Body []*Statement
}

func (m *Module) String() string {
	var sb strings.Builder
	for _, s := range m.Body {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
