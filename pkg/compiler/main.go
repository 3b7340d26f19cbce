// Package compiler provides a lexer, parser, AST builder, and code generator
// for the plain scripting dialect, targeting JavaScript source.
//
// Pipeline: plain source → Preprocess → Lex → Parse → Build → Generate → JavaScript text
package compiler
