// Package sexp models s-expression trees and renders them back to text,
// breaking lists across lines so output stays within a maximum width.
//
// A tree is built once from a concrete syntax tree (see Build and Parse) and
// is immutable afterwards. Rendering (Format, Fprint) keeps all of its
// running state private to the call, so a tree can be rendered any number
// of times, from any number of goroutines.
package sexp

import (
	"fmt"

	"github.com/kr/pretty"
)

// Expression is an Atom, a List or Nil.
type Expression interface {
	// Size is the total byte length of every atom in the expression,
	// ignoring delimiters and whitespace.
	Size() int

	// String renders the expression with DefaultOptions.
	String() string

	expression()
}

// Atom is an indivisible token, copied verbatim from source.
type Atom string

// List is an ordered sequence of expressions.
type List struct {
	children []Expression
}

// Nil marks a bare closing delimiter found inside an error-recovery
// production. It renders as nothing but closes one level of nesting.
type Nil struct{}

var (
	_ Expression = Atom("")
	_ Expression = List{}
	_ Expression = Nil{}
)

// NewList returns a List holding a copy of children.
func NewList(children ...Expression) List {
	if len(children) == 0 {
		return List{}
	}
	cp := make([]Expression, len(children))
	copy(cp, children)
	return List{children: cp}
}

func (Atom) expression() {}
func (List) expression() {}
func (Nil) expression()  {}

func (a Atom) Size() int { return len(a) }

func (l List) Size() int {
	size := 0
	for _, c := range l.children {
		size += c.Size()
	}
	return size
}

func (Nil) Size() int { return 0 }

// Len returns the number of children.
func (l List) Len() int { return len(l.children) }

// At returns the i'th child.
func (l List) At(i int) Expression { return l.children[i] }

// Children returns a copy of the list's children.
func (l List) Children() []Expression {
	cp := make([]Expression, len(l.children))
	copy(cp, l.children)
	return cp
}

func (a Atom) String() string { return Format(a, DefaultOptions()) }
func (l List) String() string { return Format(l, DefaultOptions()) }
func (n Nil) String() string  { return Format(n, DefaultOptions()) }

// Size returns e.Size(), treating a nil expression as empty.
func Size(e Expression) int {
	if e == nil {
		return 0
	}
	return e.Size()
}

// Dump returns a structural dump of the tree, for debugging.
func Dump(e Expression) string {
	return fmt.Sprintf("%# v", pretty.Formatter(e))
}
