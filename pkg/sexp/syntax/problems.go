package syntax

import (
	"fmt"

	"github.com/vito/sexpfmt/pkg/sexp"
)

// Problem is a recovered syntax error.
type Problem struct {
	Start, End int
	Message    string
}

// Problems describes the ERROR and MISSING productions beneath root.
func Problems(root *Node) []Problem {
	var problems []Problem
	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.kind {
		case sexp.KindMissing:
			problems = append(problems, Problem{
				Start:   n.start,
				End:     n.end,
				Message: "missing \")\"",
			})
			return
		case sexp.KindError:
			exprs := 0
			for _, c := range n.children {
				if c.kind == sexp.KindClose {
					problems = append(problems, Problem{
						Start:   c.start,
						End:     c.end,
						Message: "unexpected \")\"",
					})
				} else {
					exprs++
				}
			}
			if exprs > 1 {
				problems = append(problems, Problem{
					Start:   n.start,
					End:     n.end,
					Message: fmt.Sprintf("expected a single expression, found %d", exprs),
				})
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return problems
}
