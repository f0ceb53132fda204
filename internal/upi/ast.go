// Package upi implements the Universal Pattern Input language: a
// small textual notation for binary rhythm patterns with generators,
// combinators, accents, progressive modifiers and scene cycling.
package upi

import "github.com/cbegin/upiseq-go/internal/pattern"

// Node is a parsed UPI expression.
type Node interface {
	node()
}

// Literal is a pattern written out directly in binary, hex, octal or
// decimal notation.
type Literal struct {
	Bits pattern.Pattern
}

// Euclid is the E(k,n) generator, or its complement D(k,n) when Anti
// is set. Offset rotates the result.
type Euclid struct {
	Onsets, Steps, Offset int
	Anti                  bool
}

// BarlowGen is the B(k,n) indispensability generator, or W(k,n) when
// Wolrab is set.
type BarlowGen struct {
	Onsets, Steps int
	Wolrab        bool
}

// PolygonGen is P(sides,offset[,steps]). Steps zero means the side
// count.
type PolygonGen struct {
	Sides, Offset, Steps int
}

// RandomGen is R(k,n), or R(r,n) when Bell is set.
type RandomGen struct {
	Onsets, Steps int
	Bell          bool
}

// MorseGen is M(text).
type MorseGen struct {
	Text string
}

// Invert flips every step of its operand.
type Invert struct {
	X Node
}

// Reverse plays its operand backwards.
type Reverse struct {
	X Node
}

// BinaryOp selects the combinator of a Binary node.
type BinaryOp int

const (
	OpUnion BinaryOp = iota
	OpDiff
)

// Binary applies a two-pattern combinator, expanding both sides to
// the least common multiple of their lengths.
type Binary struct {
	Op   BinaryOp
	L, R Node
}

// StutterNode repeats each step of its operand K times.
type StutterNode struct {
	X Node
	K int
}

// QuantizeNode remaps its operand onto a Steps-step grid by angular
// position, from a trailing ';N' suffix. Clockwise is false for a
// negative count.
type QuantizeNode struct {
	X         Node
	Steps     int
	Clockwise bool
}

// Accented pairs an accent expression with the rhythm it decorates.
type Accented struct {
	Accent Node
	Rhythm Node
}

// ProgKind selects the trigger behavior of a Progressive node.
type ProgKind int

const (
	// ProgOffset rotates the pattern a fixed amount per trigger.
	ProgOffset ProgKind = iota
	// ProgLengthen appends random steps per trigger.
	ProgLengthen
	// ProgTransform moves onset count toward a target one onset per
	// trigger.
	ProgTransform
)

func (k ProgKind) String() string {
	switch k {
	case ProgOffset:
		return "offset"
	case ProgLengthen:
		return "lengthen"
	case ProgTransform:
		return "transform"
	}
	return "unknown"
}

// Progressive wraps a scene expression with a trailing +N, *N or >N
// modifier. Anchor is the surface text of the whole scene and keys
// the persistent trigger state.
type Progressive struct {
	X      Node
	Kind   ProgKind
	Step   int
	Anchor string
}

func (Literal) node()      {}
func (Euclid) node()       {}
func (BarlowGen) node()    {}
func (PolygonGen) node()   {}
func (RandomGen) node()    {}
func (MorseGen) node()     {}
func (Invert) node()       {}
func (Reverse) node()      {}
func (Binary) node()       {}
func (StutterNode) node()  {}
func (QuantizeNode) node() {}
func (Accented) node()     {}
func (Progressive) node()  {}

// Scene is one branch of a top-level '|' alternation. Text is the
// normalized surface form, used to detect whether a new input keeps
// the same scene list.
type Scene struct {
	Expr Node
	Text string
}

// Program is a parsed UPI input: one or more scenes.
type Program struct {
	Scenes []Scene
}
