package compiler

import (
	"fmt"
	"strings"
)

// ScopeKind records which statement opened a block.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeIf
	ScopeElse
	ScopeLoop
	ScopeLambda
)

var scopeNames = [...]string{
	ScopeModule: "module",
	ScopeIf:     "if",
	ScopeElse:   "else",
	ScopeLoop:   "loop",
	ScopeLambda: "lambda",
}

func (k ScopeKind) String() string {
	if int(k) >= 0 && int(k) < len(scopeNames) {
		return scopeNames[k]
	}
	return fmt.Sprintf("ScopeKind(%d)", int(k))
}

// Scope is one open block. names holds the variables first assigned in the
// block, in assignment order; they are declared just before closer.
type Scope struct {
	Kind   ScopeKind
	closer string
	names  []string
	known  map[string]bool
}

func newScope(kind ScopeKind, closer string) *Scope {
	return &Scope{Kind: kind, closer: closer, known: make(map[string]bool)}
}

// Names returns the hoisted names of the frame in first-assignment order.
func (s *Scope) Names() []string {
	return s.names
}

// ScopeStack is the chain of open blocks, module frame first.
type ScopeStack struct {
	frames []*Scope
}

// NewScopeStack returns a stack holding only the module frame.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{frames: []*Scope{newScope(ScopeModule, "")}}
}

// Push opens a block.
func (s *ScopeStack) Push(kind ScopeKind, closer string) *Scope {
	sc := newScope(kind, closer)
	s.frames = append(s.frames, sc)
	return sc
}

// Pop closes the innermost block. The module frame is never popped.
func (s *ScopeStack) Pop() *Scope {
	if len(s.frames) <= 1 {
		return nil
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top
}

// Top returns the innermost frame.
func (s *ScopeStack) Top() *Scope {
	return s.frames[len(s.frames)-1]
}

// Module returns the outermost frame.
func (s *ScopeStack) Module() *Scope {
	return s.frames[0]
}

// Depth is the number of open blocks above the module frame.
func (s *ScopeStack) Depth() int {
	return len(s.frames) - 1
}

// Lookup reports whether any open frame knows name.
func (s *ScopeStack) Lookup(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].known[name] {
			return true
		}
	}
	return false
}

// Declare records name for hoisting in the innermost frame. It reports false
// when an open frame already knows the name.
func (s *ScopeStack) Declare(name string) bool {
	if s.Lookup(name) {
		return false
	}
	top := s.Top()
	top.known[name] = true
	top.names = append(top.names, name)
	return true
}

// Bind makes name known in the innermost frame without hoisting it.
func (s *ScopeStack) Bind(name string) {
	s.Top().known[name] = true
}

// String dumps every frame from the module outward, e.g.
//
//	module[x, y] > loop[i] > lambda[]
func (s *ScopeStack) String() string {
	parts := make([]string, len(s.frames))
	for i, f := range s.frames {
		parts[i] = fmt.Sprintf("%s[%s]", f.Kind, strings.Join(f.names, ", "))
	}
	return strings.Join(parts, " > ")
}
