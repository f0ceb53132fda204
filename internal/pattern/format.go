package pattern

import (
	"fmt"
	"strings"
)

// Numeric literal codec. The project convention is strict
// left-to-right reading: the leftmost step of a pattern is the least
// significant bit of its numeric value, and digit groups are likewise
// read left to right. 10010010 therefore has value 0x49 but displays
// as "0x94", and parse(display(p)) == p for every pattern.

// FromValue expands the low width bits of value into a pattern, bit i
// of value mapping to step i.
func FromValue(value uint64, width int) Pattern {
	if width <= 0 {
		return Pattern{}
	}
	p := make(Pattern, width)
	for i := 0; i < width && i < 64; i++ {
		p[i] = value&(1<<uint(i)) != 0
	}
	return p
}

// Value reads a pattern back as its numeric value, step i contributing
// bit i. Steps beyond 64 are ignored.
func Value(p Pattern) uint64 {
	var v uint64
	for i, b := range p {
		if i >= 64 {
			break
		}
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}

// HexValue accumulates hex digits in left-to-right convention: the
// leftmost digit is the least significant nibble, so digits are
// processed right to left. Returns false on a non-hex digit.
func HexValue(digits string) (uint64, bool) {
	var v uint64
	for i := len(digits) - 1; i >= 0; i-- {
		d, ok := hexDigit(digits[i])
		if !ok {
			return 0, false
		}
		v = v<<4 | uint64(d)
	}
	return v, true
}

// OctalValue is HexValue for octal digits (3 bits per digit).
func OctalValue(digits string) (uint64, bool) {
	var v uint64
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '7' {
			return 0, false
		}
		v = v<<3 | uint64(c-'0')
	}
	return v, true
}

// BinaryPattern reads a 0/1 digit string directly, padding with rests
// up to width when width exceeds the digit count. width <= 0 uses the
// digit count.
func BinaryPattern(digits string, width int) Pattern {
	if width <= 0 {
		width = len(digits)
	}
	p := make(Pattern, width)
	for i := 0; i < width && i < len(digits); i++ {
		p[i] = digits[i] == '1'
	}
	return p
}

// MinWidth returns the smallest step count able to hold value, at
// least 1.
func MinWidth(value uint64) int {
	w := 1
	for value > 1 {
		value >>= 1
		w++
	}
	return w
}

// FormatBinary renders a pattern as 0/1 digits.
func FormatBinary(p Pattern) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, s := range p {
		if s {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// FormatHex renders a pattern in left-to-right hex notation: 4-bit
// groups read left to right, bit i of each group mapping to bit i of
// its digit. A ":n" width suffix is appended when the digit count
// alone would not reproduce the pattern length.
func FormatHex(p Pattern) string {
	if len(p) == 0 {
		return "0x0"
	}
	var b strings.Builder
	b.WriteString("0x")
	for start := 0; start < len(p); start += 4 {
		nibble := 0
		for bit := 0; bit < 4 && start+bit < len(p); bit++ {
			if p[start+bit] {
				nibble |= 1 << uint(bit)
			}
		}
		b.WriteByte(strings.ToUpper(fmt.Sprintf("%x", nibble))[0])
	}
	digits := (len(p) + 3) / 4
	if digits*4 != len(p) {
		fmt.Fprintf(&b, ":%d", len(p))
	}
	return b.String()
}

// FormatOctal renders 3-bit groups left to right with an "o" prefix.
func FormatOctal(p Pattern) string {
	if len(p) == 0 {
		return "o0"
	}
	var b strings.Builder
	b.WriteByte('o')
	for start := 0; start < len(p); start += 3 {
		digit := 0
		for bit := 0; bit < 3 && start+bit < len(p); bit++ {
			if p[start+bit] {
				digit |= 1 << uint(bit)
			}
		}
		fmt.Fprintf(&b, "%d", digit)
	}
	digits := (len(p) + 2) / 3
	if digits*3 != len(p) {
		fmt.Fprintf(&b, ":%d", len(p))
	}
	return b.String()
}

// FormatDecimal renders the pattern value with a "d" prefix, with a
// ":n" suffix when the minimal width differs from the pattern length.
func FormatDecimal(p Pattern) string {
	if len(p) == 0 {
		return "d0"
	}
	v := Value(p)
	if MinWidth(v) == len(p) {
		return fmt.Sprintf("d%d", v)
	}
	return fmt.Sprintf("d%d:%d", v, len(p))
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}
