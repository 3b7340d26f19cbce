package compiler

import (
	"fmt"
	"strings"
)

// NodeKind tags a parse-tree node with the grammar rule that produced it.
// The set is closed; the AST builder switches over every kind.
type NodeKind int

const (
	NodeToken NodeKind = iota // leaf: a single token, trivia included
	NodeModule
	NodeStatement
	NodeElse
	NodeIfStat
	NodeVarDef
	NodeFromLoop
	NodeLambda
	NodeParams
	NodeFuncCall
	NodeArgs
	NodeCond
	NodeComparator
	NodeExpr
	NodeAdditive
	NodeMultiplicative
	NodeOperator
	NodePostfix
	NodeIndex
	NodeMember
	NodePrimary
	NodeGroup
	NodeArray
	NodeObject
	NodePair
	NodeValue
)

var nodeNames = [...]string{
	NodeToken:          "token",
	NodeModule:         "module",
	NodeStatement:      "statement",
	NodeElse:           "else",
	NodeIfStat:         "ifstat",
	NodeVarDef:         "vardef",
	NodeFromLoop:       "fromloop",
	NodeLambda:         "lambda",
	NodeParams:         "params",
	NodeFuncCall:       "funccall",
	NodeArgs:           "args",
	NodeCond:           "cond",
	NodeComparator:     "comparator",
	NodeExpr:           "expr",
	NodeAdditive:       "additive",
	NodeMultiplicative: "multiplicative",
	NodeOperator:       "operator",
	NodePostfix:        "postfix",
	NodeIndex:          "index",
	NodeMember:         "member",
	NodePrimary:        "primary",
	NodeGroup:          "group",
	NodeArray:          "array",
	NodeObject:         "object",
	NodePair:           "pair",
	NodeValue:          "value",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeNames) {
		return nodeNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one production of the concrete parse tree. Leaves (NodeToken) carry
// Tok; every other kind carries Children in source order.
type Node struct {
	Kind     NodeKind
	Tok      Token
	Children []*Node
}

func leaf(tok Token) *Node {
	return &Node{Kind: NodeToken, Tok: tok}
}

func (n *Node) add(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// IsTrivia reports whether n is a whitespace, newline, comment, or indent leaf.
func (n *Node) IsTrivia() bool {
	return n.Kind == NodeToken && (n.Tok.Type.IsTrivia() || n.Tok.Type == INDENT)
}

// Is reports whether n is a leaf whose lexeme equals word.
func (n *Node) Is(word string) bool {
	return n.Kind == NodeToken && n.Tok.Lexeme == word
}

// FirstToken returns the first leaf token under n.
func (n *Node) FirstToken() Token {
	if n.Kind == NodeToken {
		return n.Tok
	}
	for _, c := range n.Children {
		if tok := c.FirstToken(); tok.Line > 0 {
			return tok
		}
	}
	return Token{}
}

// Text reassembles the source text covered by n.
func (n *Node) Text() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	if n.Kind == NodeToken {
		sb.WriteString(n.Tok.Lexeme)
		return
	}
	for _, c := range n.Children {
		c.writeText(sb)
	}
}

// String dumps the tree one node per line, indented by depth. Trivia is omitted.
func (n *Node) String() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	if n.IsTrivia() && n.Tok.Type != INDENT {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	if n.Kind == NodeToken {
		fmt.Fprintf(sb, "%s %q\n", n.Tok.Type, n.Tok.Lexeme)
		return
	}
	sb.WriteString(n.Kind.String())
	sb.WriteByte('\n')
	for _, c := range n.Children {
		c.dump(sb, depth+1)
	}
}

// Count returns the number of nodes in the tree, leaves included.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
