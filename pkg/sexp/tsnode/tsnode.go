// Package tsnode lets a tree-sitter grammar feed the sexp tree builder.
//
// The grammar is expected to name its nodes the way tree-sitter-sexp does
// ("atom", "list", and the "(" / ")" tokens); any other kind is reported by
// the builder as an unknown node kind.
package tsnode

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/vito/sexpfmt/pkg/sexp"
)

// Node adapts a tree-sitter node to sexp.Node.
type Node struct {
	n *tree_sitter.Node
}

var _ sexp.Node = Node{}

// Wrap adapts n.
func Wrap(n *tree_sitter.Node) Node {
	return Node{n: n}
}

// Kind reports tree-sitter's kind, except that nodes inserted by error
// recovery report sexp.KindMissing so they stay visible once formatted.
func (n Node) Kind() string {
	if n.n.IsMissing() {
		return sexp.KindMissing
	}
	return n.n.Kind()
}

func (n Node) ChildCount() int {
	return int(n.n.ChildCount())
}

func (n Node) Child(i int) sexp.Node {
	return Node{n: n.n.Child(uint(i))}
}

func (n Node) Content(source []byte) []byte {
	return source[n.n.StartByte():n.n.EndByte()]
}

// Root is the root of a parsed tree. Closing it frees the tree.
type Root struct {
	Node
	tree *tree_sitter.Tree
}

func (r *Root) Close() error {
	r.tree.Close()
	return nil
}

// Parser is a sexp.Parser backed by a tree-sitter grammar.
type Parser struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

var _ sexp.Parser = (*Parser)(nil)

// NewParser returns a parser for lang.
func NewParser(lang *tree_sitter.Language) (*Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		parser.Close()
		return nil, fmt.Errorf("set tree-sitter language: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses source. The returned root must be closed; sexp.Parse does
// this itself.
func (p *Parser) Parse(source []byte) (sexp.Node, error) {
	// tree-sitter parsers are not thread-safe; serialize access.
	p.mu.Lock()
	tree := p.parser.Parse(source, nil)
	p.mu.Unlock()

	if tree == nil {
		return nil, fmt.Errorf("tree-sitter produced no tree")
	}
	return &Root{Node: Wrap(tree.RootNode()), tree: tree}, nil
}

// Close releases the underlying parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parser.Close()
}
