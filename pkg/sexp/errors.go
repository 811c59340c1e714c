package sexp

import (
	"fmt"
)

// ParseError is returned when the parser could not produce a tree at all.
//
// A tree containing ERROR or MISSING productions is not a ParseError; those
// are built into the tree and show up in formatted output.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "could not parse anything"
	}
	return fmt.Sprintf("could not parse anything: %s", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TextDecodeError is returned when an atom's source text is not valid UTF-8.
type TextDecodeError struct {
	Text []byte
}

func (e *TextDecodeError) Error() string {
	return fmt.Sprintf("atom is not valid UTF-8: %q", e.Text)
}

// UnknownNodeKindError is returned when the parser hands the builder a node
// kind it does not know how to represent, which means the parser and the
// builder disagree about the grammar.
type UnknownNodeKindError struct {
	Kind string
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("unknown node kind %q", e.Kind)
}
