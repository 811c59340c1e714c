package sexp

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultMaxWidth   = 150
	DefaultIndentSize = 1
)

// Options controls line wrapping.
type Options struct {
	// MaxWidth is the target maximum line length.
	MaxWidth int
	// IndentSize is the number of columns added per level of nesting.
	IndentSize int
}

// DefaultOptions returns a width of 150 and an indent of one column.
func DefaultOptions() Options {
	return Options{
		MaxWidth:   DefaultMaxWidth,
		IndentSize: DefaultIndentSize,
	}
}

// Validate reports whether the options make sense.
func (o Options) Validate() error {
	if o.MaxWidth <= 0 {
		return fmt.Errorf("max width must be positive, got %d", o.MaxWidth)
	}
	if o.IndentSize < 0 {
		return fmt.Errorf("indent size must not be negative, got %d", o.IndentSize)
	}
	return nil
}

// cursor is the running layout state of one render.
type cursor struct {
	width int // bytes written since the current line began (approximate)
	depth int // nesting of the list being rendered, 0 at the top
}

// ErrOutputTooLarge is returned by FormatLimit when the rendering grows past
// its limit.
var ErrOutputTooLarge = errors.New("formatted output too large")

type printer struct {
	opts Options
	buf  strings.Builder

	// limit caps buf in bytes when positive; full is set once a write
	// would have gone past it, and nothing more is written
	limit int
	full  bool
}

// Format renders e, wrapping lists that would run past opts.MaxWidth.
func Format(e Expression, opts Options) string {
	out, _ := FormatLimit(e, opts, 0)
	return out
}

// FormatLimit is Format for renderings that must stay within limit bytes.
// It stops as soon as the output would grow past limit and returns
// ErrOutputTooLarge. A limit of zero or less means no limit.
func FormatLimit(e Expression, opts Options, limit int) (string, error) {
	p := &printer{opts: opts, limit: limit}
	if e != nil {
		p.print(&cursor{}, e)
	}
	if p.full {
		return "", ErrOutputTooLarge
	}
	return p.buf.String(), nil
}

// Fprint renders e to w.
func Fprint(w io.Writer, e Expression, opts Options) error {
	_, err := io.WriteString(w, Format(e, opts))
	return err
}

// ParseAndFormat parses source with p and renders the result.
func ParseAndFormat(p Parser, source []byte, opts Options) (string, error) {
	e, err := Parse(p, source)
	if err != nil {
		return "", err
	}
	return Format(e, opts), nil
}

// padding is the column at which continuation lines at the cursor's depth
// begin.
func (p *printer) padding(c *cursor) int {
	if c.depth <= 1 {
		return 0
	}
	return (c.depth - 1) * p.opts.IndentSize
}

// fits reports whether n more bytes may be written, marking the printer
// full if not.
func (p *printer) fits(n int) bool {
	if p.limit > 0 && p.buf.Len()+n > p.limit {
		p.full = true
	}
	return !p.full
}

func (p *printer) write(s string) {
	if p.fits(len(s)) {
		p.buf.WriteString(s)
	}
}

func (p *printer) writeByte(b byte) {
	if p.fits(1) {
		p.buf.WriteByte(b)
	}
}

func (p *printer) print(c *cursor, e Expression) {
	if p.full {
		return
	}

	switch e := e.(type) {
	case Atom:
		c.width += len(e)
		p.write(string(e))

	case Nil:
		c.depth--

	case List:
		if len(e.children) == 0 {
			p.write("()")
			return
		}

		// depth belongs to this frame; Nil children may lower it until we
		// return
		depth := c.depth
		defer func() { c.depth = depth }()

		c.depth++
		padding := p.padding(c)
		projected := c.width + padding + e.Size()
		if projected > p.opts.MaxWidth/2 && c.depth > 1 {
			c.width = padding
		}

		p.writeByte('(')
		p.print(c, e.children[0])

		for _, child := range e.children[1:] {
			if p.full {
				return
			}
			if _, ok := child.(Nil); ok {
				p.print(c, child)
				continue
			}

			if projected+p.padding(c)+child.Size() > p.opts.MaxWidth {
				p.writeByte('\n')
				p.indent(p.padding(c) + p.opts.IndentSize)
			} else {
				p.writeByte(' ')
			}
			p.print(c, child)
		}

		p.writeByte(')')

	default:
		panic(fmt.Sprintf("unhandled expression type: %T", e))
	}
}

func (p *printer) indent(n int) {
	if n > 0 && p.fits(n) {
		p.buf.WriteString(strings.Repeat(" ", n))
	}
}
