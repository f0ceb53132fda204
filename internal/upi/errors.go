package upi

import "fmt"

// ErrKind classifies a ParseError.
type ErrKind int

const (
	UnexpectedToken ErrKind = iota
	UnclosedGroup
	InvalidNumber
	OutOfRange
	UnknownGenerator
)

func (k ErrKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnclosedGroup:
		return "unclosed group"
	case InvalidNumber:
		return "invalid number"
	case OutOfRange:
		return "out of range"
	case UnknownGenerator:
		return "unknown generator"
	}
	return "parse error"
}

// ParseError reports a malformed UPI input. Pos is a byte offset into
// the original input string.
type ParseError struct {
	Pos  int
	Kind ErrKind
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("upi: %s at position %d", e.Kind, e.Pos)
	}
	return fmt.Sprintf("upi: %s at position %d: %s", e.Kind, e.Pos, e.Msg)
}

func errAt(pos int, kind ErrKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// BudgetError reports a compile whose result would exceed the
// resource bounds, such as a combinator expansion past the maximum
// pattern length. The previous compiled pattern stays in force.
type BudgetError struct {
	What string
	Size int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("upi: %s exceeds compile budget (%d)", e.What, e.Size)
}
