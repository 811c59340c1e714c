package syntax

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpen
	tokClose
	tokAtom
)

type token struct {
	kind       tokenKind
	start, end int
}

type lexer struct {
	src []byte
	pos int
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || isSpace(b)
}

// next returns the next token. Atoms run until whitespace or a parenthesis,
// so `name:` and `"a` are atoms like any other.
func (l *lexer) next() token {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, start: len(l.src), end: len(l.src)}
	}

	start := l.pos
	switch l.src[l.pos] {
	case '(':
		l.pos++
		return token{kind: tokOpen, start: start, end: l.pos}
	case ')':
		l.pos++
		return token{kind: tokClose, start: start, end: l.pos}
	}

	for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	return token{kind: tokAtom, start: start, end: l.pos}
}
