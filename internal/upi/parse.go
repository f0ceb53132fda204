package upi

import (
	"strconv"
	"strings"

	"github.com/cbegin/upiseq-go/internal/pattern"
)

// Numeric limits enforced at parse time.
const (
	MaxSteps   = 1024
	MinSides   = 2
	MaxSides   = 64
	MaxStutter = 64
)

// Parse turns a UPI input string into a Program. Whitespace is
// insignificant and the input is treated case-insensitively, except
// inside M(...) where the text is taken verbatim. A malformed input
// returns a nil Program and a *ParseError.
func Parse(input string) (*Program, error) {
	src := foldInput(input)
	spans, err := splitScenes(src)
	if err != nil {
		return nil, err
	}
	prog := &Program{Scenes: make([]Scene, 0, len(spans))}
	for _, sp := range spans {
		node, text, err := parseScene(src, sp.start, sp.end)
		if err != nil {
			return nil, err
		}
		prog.Scenes = append(prog.Scenes, Scene{Expr: node, Text: text})
	}
	return prog, nil
}

// foldInput lowercases the input, then restores the original bytes
// inside every M(...) payload so Morse text keeps its case.
func foldInput(input string) string {
	b := []byte(strings.ToLower(input))
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c != 'm' && c != 'M' {
			continue
		}
		if i > 0 && isLetterAnyCase(input[i-1]) {
			continue
		}
		j := i + 1
		for j < len(input) && isSpace(input[j]) {
			j++
		}
		if j >= len(input) || input[j] != '(' {
			continue
		}
		k := j + 1
		for k < len(input) && input[k] != ')' {
			k++
		}
		copy(b[j+1:k], input[j+1:k])
		i = k
	}
	return string(b)
}

type span struct{ start, end int }

// splitScenes cuts the input at top-level '|' characters, ignoring
// any inside braces or parentheses.
func splitScenes(src string) ([]span, error) {
	depth := 0
	brace := false
	start := 0
	var out []span
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			if !brace {
				depth++
			}
		case ')':
			if !brace {
				depth--
				if depth < 0 {
					return nil, errAt(i, UnexpectedToken, "unmatched ')'")
				}
			}
		case '{':
			if brace {
				return nil, errAt(i, UnexpectedToken, "nested accent brace")
			}
			brace = true
		case '}':
			if !brace {
				return nil, errAt(i, UnexpectedToken, "unmatched '}'")
			}
			brace = false
		case '|':
			if depth == 0 && !brace {
				out = append(out, span{start, i})
				start = i + 1
			}
		}
	}
	out = append(out, span{start, len(src)})
	if len(out) == 1 && strings.TrimSpace(src) == "" {
		return nil, errAt(0, UnexpectedToken, "empty pattern")
	}
	return out, nil
}

// parseScene parses one scene span, peeling a trailing progressive
// modifier first. The returned text is the normalized surface form
// used for scene identity and as the progressive anchor.
func parseScene(src string, start, end int) (Node, string, error) {
	for start < end && isSpace(src[start]) {
		start++
	}
	for end > start && isSpace(src[end-1]) {
		end--
	}
	if start >= end {
		return nil, "", errAt(start, UnexpectedToken, "empty scene")
	}
	text := stripSpaces(src[start:end])

	kind, step, exprEnd, err := trailingProgressive(src, start, end)
	if err != nil {
		return nil, "", err
	}
	qSteps, qClockwise, exprEnd, err := trailingQuantize(src, start, exprEnd)
	if err != nil {
		return nil, "", err
	}

	p := &parser{src: src, pos: start, end: exprEnd}
	node, err := p.parseAccented()
	if err != nil {
		return nil, "", err
	}
	p.skipWS()
	if p.pos < p.end {
		return nil, "", errAt(p.pos, UnexpectedToken, "trailing input %q", src[p.pos:p.end])
	}
	if qSteps > 0 {
		node = QuantizeNode{X: node, Steps: qSteps, Clockwise: qClockwise}
	}
	if kind >= 0 {
		node = Progressive{X: node, Kind: ProgKind(kind), Step: step, Anchor: text}
	}
	return node, text, nil
}

// trailingProgressive finds a scene-final +N, *N or >N modifier. It
// returns kind -1 when the scene has none. A trailing + followed by a
// bare integer is a progressive offset; a + followed by anything
// richer stays a union and is left for the expression parser.
func trailingProgressive(src string, start, end int) (kind, step, exprEnd int, err error) {
	depth := 0
	brace := false
	opPos := -1
	var opChar byte
	for i := start; i < end; i++ {
		switch c := src[i]; c {
		case '(':
			if !brace {
				depth++
			}
		case ')':
			if !brace {
				depth--
			}
		case '{':
			brace = true
		case '}':
			brace = false
		case '+', '*', '>':
			if depth == 0 && !brace && i > start {
				opPos = i
				opChar = c
			}
		}
	}
	if opPos < 0 {
		return -1, 0, end, nil
	}
	tail := strings.TrimSpace(src[opPos+1 : end])
	n, ok := bareInt(tail, opChar == '+')
	if !ok {
		if opChar == '+' {
			// Union with a generator or prefixed literal.
			return -1, 0, end, nil
		}
		return 0, 0, 0, errAt(opPos, InvalidNumber, "'%c' needs an integer", opChar)
	}
	switch opChar {
	case '+':
		kind = int(ProgOffset)
	case '*':
		kind = int(ProgLengthen)
		if n < 1 {
			return 0, 0, 0, errAt(opPos, OutOfRange, "lengthen step must be positive")
		}
	case '>':
		kind = int(ProgTransform)
		if n > MaxSteps {
			return 0, 0, 0, errAt(opPos, OutOfRange, "transform target %d above %d", n, MaxSteps)
		}
	}
	return kind, n, opPos, nil
}

// trailingQuantize finds a scene-final ';N' quantization suffix. A
// negative count quantizes counterclockwise. It returns steps 0 when
// the scene has none.
func trailingQuantize(src string, start, end int) (steps int, clockwise bool, exprEnd int, err error) {
	depth := 0
	brace := false
	pos := -1
	for i := start; i < end; i++ {
		switch src[i] {
		case '(':
			if !brace {
				depth++
			}
		case ')':
			if !brace {
				depth--
			}
		case '{':
			brace = true
		case '}':
			brace = false
		case ';':
			if depth == 0 && !brace {
				pos = i
			}
		}
	}
	if pos < 0 {
		return 0, true, end, nil
	}
	tail := strings.TrimSpace(src[pos+1 : end])
	n, ok := bareInt(tail, true)
	if !ok {
		return 0, false, 0, errAt(pos, InvalidNumber, "';' needs a step count")
	}
	clockwise = n >= 0
	if n < 0 {
		n = -n
	}
	if n < 1 || n > MaxSteps {
		return 0, false, 0, errAt(pos, OutOfRange, "quantize steps %d outside [1,%d]", n, MaxSteps)
	}
	return n, clockwise, pos, nil
}

// bareInt reports whether s is nothing but an integer. A sign is only
// meaningful for the offset form.
func bareInt(s string, allowSign bool) (int, bool) {
	if s == "" {
		return 0, false
	}
	body := s
	if allowSign && (s[0] == '+' || s[0] == '-') {
		body = s[1:]
	}
	if body == "" {
		return 0, false
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

type parser struct {
	src      string
	pos, end int
}

func (p *parser) skipWS() {
	for p.pos < p.end && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < p.end {
		return p.src[p.pos]
	}
	return 0
}

// parseAccented handles the optional '{accent}' prefix.
func (p *parser) parseAccented() (Node, error) {
	p.skipWS()
	if p.peek() != '{' {
		return p.parseCombined()
	}
	open := p.pos
	closePos := -1
	for i := p.pos + 1; i < p.end; i++ {
		if p.src[i] == '}' {
			closePos = i
			break
		}
	}
	if closePos < 0 {
		return nil, errAt(open, UnclosedGroup, "missing '}'")
	}
	inner := &parser{src: p.src, pos: open + 1, end: closePos}
	accent, err := inner.parseCombined()
	if err != nil {
		return nil, err
	}
	inner.skipWS()
	if inner.pos < inner.end {
		return nil, errAt(inner.pos, UnexpectedToken, "trailing input in accent")
	}
	p.pos = closePos + 1
	rhythm, err := p.parseCombined()
	if err != nil {
		return nil, err
	}
	return Accented{Accent: accent, Rhythm: rhythm}, nil
}

// parseCombined handles the '+' and '-' combinator chain.
func (p *parser) parseCombined() (Node, error) {
	left, err := p.parseStutter()
	if err != nil {
		return nil, err
	}
	for {
		p.skipWS()
		var op BinaryOp
		switch p.peek() {
		case '+':
			op = OpUnion
		case '-':
			op = OpDiff
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseStutter()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
}

// parseStutter handles the '@k' step repetition suffix.
func (p *parser) parseStutter() (Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.peek() != '@' {
		return atom, nil
	}
	at := p.pos
	p.pos++
	k, err := p.parseInt(false)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > MaxStutter {
		return nil, errAt(at, OutOfRange, "stutter count %d outside [1,%d]", k, MaxStutter)
	}
	return StutterNode{X: atom, K: k}, nil
}

func (p *parser) parseAtom() (Node, error) {
	p.skipWS()
	if p.pos >= p.end {
		return nil, errAt(p.pos, UnexpectedToken, "expected pattern")
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		open := p.pos
		p.pos++
		inner, err := p.parseCombined()
		if err != nil {
			return nil, err
		}
		p.skipWS()
		if p.peek() != ')' {
			if p.pos >= p.end {
				return nil, errAt(open, UnclosedGroup, "missing ')'")
			}
			return nil, errAt(p.pos, UnexpectedToken, "expected ')'")
		}
		p.pos++
		return inner, nil
	case c == '~':
		p.pos++
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return Invert{X: inner}, nil
	case c == '0' && p.pos+1 < p.end && p.src[p.pos+1] == 'x':
		return p.parseHexLiteral()
	case c == 'o' && p.pos+1 < p.end && isDigit(p.src[p.pos+1]):
		return p.parseOctalLiteral()
	case c == 'd' && p.pos+1 < p.end && isDigit(p.src[p.pos+1]):
		p.pos++
		return p.parseDecimalLiteral(p.pos - 1)
	case isDigit(c):
		return p.parseBareLiteral()
	case isLetter(c):
		return p.parseName()
	}
	return nil, errAt(p.pos, UnexpectedToken, "unexpected %q", string(c))
}

func (p *parser) parseHexLiteral() (Node, error) {
	at := p.pos
	p.pos += 2
	start := p.pos
	for p.pos < p.end && isHexDigit(p.src[p.pos]) {
		p.pos++
	}
	digits := p.src[start:p.pos]
	if digits == "" {
		return nil, errAt(at, InvalidNumber, "hex literal needs digits")
	}
	v, _ := pattern.HexValue(digits)
	width, err := p.parseWidth(len(digits) * 4)
	if err != nil {
		return nil, err
	}
	return Literal{Bits: pattern.FromValue(v, width)}, nil
}

func (p *parser) parseOctalLiteral() (Node, error) {
	at := p.pos
	p.pos++
	start := p.pos
	for p.pos < p.end && isDigit(p.src[p.pos]) {
		p.pos++
	}
	digits := p.src[start:p.pos]
	v, ok := pattern.OctalValue(digits)
	if !ok {
		return nil, errAt(at, InvalidNumber, "bad octal digits %q", digits)
	}
	width, err := p.parseWidth(len(digits) * 3)
	if err != nil {
		return nil, err
	}
	return Literal{Bits: pattern.FromValue(v, width)}, nil
}

func (p *parser) parseDecimalLiteral(at int) (Node, error) {
	start := p.pos
	for p.pos < p.end && isDigit(p.src[p.pos]) {
		p.pos++
	}
	digits := p.src[start:p.pos]
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil, errAt(at, InvalidNumber, "bad decimal %q", digits)
	}
	width, werr := p.parseWidth(pattern.MinWidth(v))
	if werr != nil {
		return nil, werr
	}
	return Literal{Bits: pattern.FromValue(v, width)}, nil
}

// parseBareLiteral reads an unprefixed digit run: all 0/1 digits make
// a binary pattern, anything else reads as a decimal value.
func (p *parser) parseBareLiteral() (Node, error) {
	at := p.pos
	start := p.pos
	binary := true
	for p.pos < p.end && isDigit(p.src[p.pos]) {
		if p.src[p.pos] > '1' {
			binary = false
		}
		p.pos++
	}
	digits := p.src[start:p.pos]
	if !binary {
		p.pos = start
		return p.parseDecimalLiteral(at)
	}
	width, err := p.parseWidth(len(digits))
	if err != nil {
		return nil, err
	}
	return Literal{Bits: pattern.BinaryPattern(digits, width)}, nil
}

// parseWidth reads an optional ':n' suffix, defaulting to def.
func (p *parser) parseWidth(def int) (int, error) {
	if p.peek() != ':' {
		if def < 1 || def > MaxSteps {
			return 0, errAt(p.pos, OutOfRange, "literal width %d outside [1,%d]", def, MaxSteps)
		}
		return def, nil
	}
	at := p.pos
	p.pos++
	n, err := p.parseInt(false)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > MaxSteps {
		return 0, errAt(at, OutOfRange, "width %d outside [1,%d]", n, MaxSteps)
	}
	return n, nil
}

// parseName reads an identifier and dispatches to a generator call or
// a named shorthand.
func (p *parser) parseName() (Node, error) {
	at := p.pos
	for p.pos < p.end && isLetter(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[at:p.pos]
	p.skipWS()
	if p.peek() == '(' {
		return p.parseCall(name, at)
	}
	if node, ok := shorthand(name); ok {
		return node, nil
	}
	return nil, errAt(at, UnknownGenerator, "unknown name %q", name)
}

func (p *parser) parseCall(name string, at int) (Node, error) {
	open := p.pos
	p.pos++ // consume '('
	switch name {
	case "m":
		return p.parseMorseCall(open)
	case "inv", "rev", "comp":
		inner, err := p.parseCombined()
		if err != nil {
			return nil, err
		}
		if err := p.expectClose(open); err != nil {
			return nil, err
		}
		if name == "rev" {
			return Reverse{X: inner}, nil
		}
		// comp is the complement, which is the same operation.
		return Invert{X: inner}, nil
	case "e", "d", "b", "w", "p", "r":
		return p.parseGeneratorCall(name, open)
	}
	return nil, errAt(at, UnknownGenerator, "unknown generator %q", name)
}

func (p *parser) parseMorseCall(open int) (Node, error) {
	start := p.pos
	for p.pos < p.end && p.src[p.pos] != ')' {
		p.pos++
	}
	if p.pos >= p.end {
		return nil, errAt(open, UnclosedGroup, "missing ')'")
	}
	text := strings.TrimSpace(p.src[start:p.pos])
	p.pos++
	if len(pattern.Morse(text)) == 0 {
		return nil, errAt(open, InvalidNumber, "morse text %q produces no steps", text)
	}
	return MorseGen{Text: text}, nil
}

func (p *parser) parseGeneratorCall(name string, open int) (Node, error) {
	bell := false
	var first int
	p.skipWS()
	if name == "r" && p.peek() == 'r' {
		bell = true
		p.pos++
	} else {
		n, err := p.parseInt(true)
		if err != nil {
			return nil, err
		}
		first = n
	}
	if err := p.expectComma(); err != nil {
		return nil, err
	}
	secondAt := p.pos
	second, err := p.parseInt(true)
	if err != nil {
		return nil, err
	}

	third := 0
	hasThird := false
	p.skipWS()
	if p.peek() == ',' {
		p.pos++
		n, err := p.parseInt(true)
		if err != nil {
			return nil, err
		}
		third = n
		hasThird = true
	}
	if err := p.expectClose(open); err != nil {
		return nil, err
	}
	if hasThird && name != "e" && name != "p" {
		return nil, errAt(open, UnexpectedToken, "%s takes two arguments", name)
	}

	switch name {
	case "p":
		if first < MinSides || first > MaxSides {
			return nil, errAt(open, OutOfRange, "polygon sides %d outside [%d,%d]", first, MinSides, MaxSides)
		}
		if hasThird {
			if third < 1 || third > MaxSteps {
				return nil, errAt(open, OutOfRange, "steps %d outside [1,%d]", third, MaxSteps)
			}
		}
		return PolygonGen{Sides: first, Offset: second, Steps: third}, nil
	}

	// The remaining generators all read (onsets, steps).
	if second < 1 || second > MaxSteps {
		return nil, errAt(secondAt, OutOfRange, "steps %d outside [1,%d]", second, MaxSteps)
	}
	if !bell && first < 0 {
		return nil, errAt(open, OutOfRange, "onset count %d negative", first)
	}
	switch name {
	case "e":
		if hasThird {
			return Euclid{Onsets: first, Steps: second, Offset: third}, nil
		}
		return Euclid{Onsets: first, Steps: second}, nil
	case "d":
		return Euclid{Onsets: first, Steps: second, Anti: true}, nil
	case "b":
		return BarlowGen{Onsets: first, Steps: second}, nil
	case "w":
		return BarlowGen{Onsets: first, Steps: second, Wolrab: true}, nil
	case "r":
		return RandomGen{Onsets: first, Steps: second, Bell: bell}, nil
	}
	return nil, errAt(open, UnknownGenerator, "unknown generator %q", name)
}

func (p *parser) expectComma() error {
	p.skipWS()
	if p.peek() != ',' {
		return errAt(p.pos, UnexpectedToken, "expected ','")
	}
	p.pos++
	return nil
}

func (p *parser) expectClose(open int) error {
	p.skipWS()
	if p.peek() != ')' {
		if p.pos >= p.end {
			return errAt(open, UnclosedGroup, "missing ')'")
		}
		return errAt(p.pos, UnexpectedToken, "expected ')'")
	}
	p.pos++
	return nil
}

func (p *parser) parseInt(allowSign bool) (int, error) {
	p.skipWS()
	at := p.pos
	if allowSign && (p.peek() == '+' || p.peek() == '-') {
		p.pos++
	}
	start := p.pos
	for p.pos < p.end && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return 0, errAt(at, InvalidNumber, "expected integer")
	}
	n, err := strconv.Atoi(p.src[at:p.pos])
	if err != nil {
		return 0, errAt(at, InvalidNumber, "bad integer %q", p.src[at:p.pos])
	}
	return n, nil
}

// shorthand maps a handful of named patterns to their generator
// forms.
func shorthand(name string) (Node, bool) {
	switch name {
	case "tresillo":
		return Euclid{Onsets: 3, Steps: 8}, true
	case "cinquillo":
		return Euclid{Onsets: 5, Steps: 8}, true
	case "tri":
		return PolygonGen{Sides: 3}, true
	case "pent":
		return PolygonGen{Sides: 5}, true
	case "hex":
		return PolygonGen{Sides: 6}, true
	case "hept":
		return PolygonGen{Sides: 7}, true
	case "oct":
		return PolygonGen{Sides: 8}, true
	}
	return nil, false
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
func isLetterAnyCase(c byte) bool {
	return isLetter(c | 0x20)
}
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f')
}

func stripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
