// Package syntax parses s-expression source into a concrete syntax tree
// shaped like the one tree-sitter produces for the same grammar: a
// source_file root wrapping one node, lists that keep their delimiters as
// children, and ERROR / MISSING nodes where the input does not fit.
package syntax

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vito/sexpfmt/pkg/sexp"
)

// KindSourceFile is the kind of the root node.
const KindSourceFile = "source_file"

// Node is a node in the concrete syntax tree.
type Node struct {
	kind       string
	start, end int
	children   []*Node
}

var _ sexp.Node = (*Node)(nil)

func (n *Node) Kind() string { return n.kind }

// StartByte is the offset of the node's first byte.
func (n *Node) StartByte() int { return n.start }

// EndByte is the offset just past the node's last byte.
func (n *Node) EndByte() int { return n.end }

func (n *Node) ChildCount() int { return len(n.children) }

func (n *Node) Child(i int) sexp.Node { return n.children[i] }

// Children returns the node's children.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) Content(source []byte) []byte { return source[n.start:n.end] }

func (n *Node) IsError() bool { return n.kind == sexp.KindError }

func (n *Node) IsMissing() bool { return n.kind == sexp.KindMissing }

// Parser is a sexp.Parser backed by Parse.
type Parser struct {
	// MaxDepth bounds how deeply lists may nest. Zero means no limit.
	MaxDepth int
}

var _ sexp.Parser = Parser{}

func (p Parser) Parse(source []byte) (sexp.Node, error) {
	root, err := parse(source, p.MaxDepth)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// DepthError is returned when lists nest deeper than Parser.MaxDepth.
type DepthError struct {
	Limit int
	// Offset is the byte offset of the "(" that went over the limit.
	Offset int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("lists nested deeper than %d at offset %d", e.Limit, e.Offset)
}

type parser struct {
	lex *lexer
	tok token
	src []byte

	depth    int
	maxDepth int
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) leaf(kind string) *Node {
	return &Node{kind: kind, start: p.tok.start, end: p.tok.end}
}

// Parse parses source into a tree rooted at a source_file node.
//
// Input that cannot be covered by a single expression is recovered where
// possible: several top-level expressions or a stray ")" are grouped under
// an ERROR node, and a list still open at end of input is closed by a
// zero-width MISSING node. Parse fails only for empty input and for input
// that ends directly after a "(".
func Parse(source []byte) (*Node, error) {
	return parse(source, 0)
}

func parse(source []byte, maxDepth int) (*Node, error) {
	p := &parser{lex: &lexer{src: source}, src: source, maxDepth: maxDepth}
	p.advance()

	var top []*Node
	for p.tok.kind != tokEOF {
		if p.tok.kind == tokClose {
			top = append(top, p.leaf(sexp.KindClose))
			p.advance()
			continue
		}
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		top = append(top, n)
	}

	if len(top) == 0 {
		return nil, errors.New("no expression found")
	}

	root := &Node{kind: KindSourceFile, start: 0, end: len(source)}
	if len(top) == 1 && top[0].kind != sexp.KindClose {
		root.children = top
	} else {
		root.children = []*Node{{
			kind:     sexp.KindError,
			start:    top[0].start,
			end:      top[len(top)-1].end,
			children: top,
		}}
	}
	return root, nil
}

func (p *parser) parseExpr() (*Node, error) {
	switch p.tok.kind {
	case tokAtom:
		n := p.leaf(sexp.KindAtom)
		p.advance()
		return n, nil
	case tokOpen:
		return p.parseList()
	default:
		return nil, errors.Errorf("unexpected token at offset %d", p.tok.start)
	}
}

func (p *parser) parseList() (*Node, error) {
	open := p.leaf(sexp.KindOpen)
	p.advance()

	p.depth++
	defer func() { p.depth-- }()
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return nil, &DepthError{Limit: p.maxDepth, Offset: open.start}
	}

	if p.tok.kind == tokEOF {
		return nil, errors.Errorf("unexpected end of input after '(' at offset %d", open.start)
	}

	list := &Node{kind: sexp.KindList, start: open.start, children: []*Node{open}}
	for {
		switch p.tok.kind {
		case tokClose:
			closing := p.leaf(sexp.KindClose)
			p.advance()
			list.children = append(list.children, closing)
			list.end = closing.end
			return list, nil

		case tokEOF:
			end := len(p.src)
			list.children = append(list.children, &Node{kind: sexp.KindMissing, start: end, end: end})
			list.end = end
			return list, nil

		default:
			child, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list.children = append(list.children, child)
		}
	}
}
