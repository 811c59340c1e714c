package sexp

import (
	"io"
	"unicode/utf8"
)

// Node kinds understood by Build.
const (
	KindAtom    = "atom"
	KindList    = "list"
	KindError   = "ERROR"
	KindMissing = "MISSING"
	KindOpen    = "("
	KindClose   = ")"
)

// Node is a concrete syntax node produced by a Parser.
type Node interface {
	// Kind is the grammar symbol of the node, e.g. "list" or "atom".
	Kind() string
	ChildCount() int
	Child(i int) Node
	// Content returns the node's slice of source.
	Content(source []byte) []byte
}

// Parser turns source into a concrete syntax tree. The returned root wraps
// a single node spanning the whole input.
//
// If the root also implements io.Closer, Parse closes it once the tree has
// been built.
type Parser interface {
	Parse(source []byte) (Node, error)
}

// Parse parses source with p and builds an Expression from the single node
// beneath the root.
func Parse(p Parser, source []byte) (Expression, error) {
	root, err := p.Parse(source)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if root == nil {
		return nil, &ParseError{}
	}
	if c, ok := root.(io.Closer); ok {
		defer c.Close()
	}

	// skip the top-level source node
	if root.ChildCount() == 0 {
		return nil, &ParseError{}
	}

	return Build(root.Child(0), source)
}

// Build converts node and everything beneath it into an Expression.
func Build(node Node, source []byte) (Expression, error) {
	switch kind := node.Kind(); kind {
	case KindAtom:
		text := node.Content(source)
		if !utf8.Valid(text) {
			return nil, &TextDecodeError{Text: append([]byte(nil), text...)}
		}
		return Atom(text), nil

	case KindList:
		count := node.ChildCount()
		from, to := 0, count
		if count > 0 && node.Child(0).Kind() == KindOpen {
			from++
		}
		if to > from && node.Child(to-1).Kind() == KindClose {
			to--
		}
		return buildList(node, source, from, to, nil)

	case KindError, KindMissing:
		return buildList(node, source, 0, node.ChildCount(), Atom(kind))

	case KindClose:
		return Nil{}, nil

	default:
		return nil, &UnknownNodeKindError{Kind: kind}
	}
}

// buildList builds children [from, to) of node, after head if it is set.
func buildList(node Node, source []byte, from, to int, head Expression) (Expression, error) {
	children := make([]Expression, 0, to-from+1)
	if head != nil {
		children = append(children, head)
	}
	for i := from; i < to; i++ {
		child, err := Build(node.Child(i), source)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return List{}, nil
	}
	return List{children: children}, nil
}
