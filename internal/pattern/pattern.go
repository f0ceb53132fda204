// Package pattern holds the binary step vector type and the pure
// operations and generators the UPI language is built from.
package pattern

// Pattern is an ordered sequence of step values. Index 0 is the
// downbeat. A true step is an onset.
type Pattern []bool

// Clone returns an independent copy of p.
func (p Pattern) Clone() Pattern {
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// Onsets returns the number of true steps.
func (p Pattern) Onsets() int {
	n := 0
	for _, b := range p {
		if b {
			n++
		}
	}
	return n
}

// Equal reports structural equality.
func (p Pattern) Equal(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Rotate returns p cyclically left-shifted by k steps. Negative k
// rotates the other direction. Rotate on empty returns empty.
func Rotate(p Pattern, k int) Pattern {
	if len(p) == 0 {
		return Pattern{}
	}
	n := len(p)
	k = k % n
	if k < 0 {
		k += n
	}
	out := make(Pattern, 0, n)
	out = append(out, p[k:]...)
	out = append(out, p[:k]...)
	return out
}

// Invert flips every step.
func Invert(p Pattern) Pattern {
	out := make(Pattern, len(p))
	for i, b := range p {
		out[i] = !b
	}
	return out
}

// Reverse returns p in reverse step order.
func Reverse(p Pattern) Pattern {
	out := make(Pattern, len(p))
	for i, b := range p {
		out[len(p)-1-i] = b
	}
	return out
}

// Union expands both patterns to the LCM of their lengths by
// repetition and takes the step-wise logical or. If either pattern is
// empty the other is returned unchanged.
func Union(a, b Pattern) Pattern {
	if len(a) == 0 {
		return b.Clone()
	}
	if len(b) == 0 {
		return a.Clone()
	}
	n := LCM(len(a), len(b))
	out := make(Pattern, n)
	for i := 0; i < n; i++ {
		out[i] = a[i%len(a)] || b[i%len(b)]
	}
	return out
}

// Diff expands both patterns to the LCM of their lengths and keeps the
// steps of a that are not set in b.
func Diff(a, b Pattern) Pattern {
	if len(a) == 0 {
		return b.Clone()
	}
	if len(b) == 0 {
		return a.Clone()
	}
	n := LCM(len(a), len(b))
	out := make(Pattern, n)
	for i := 0; i < n; i++ {
		out[i] = a[i%len(a)] && !b[i%len(b)]
	}
	return out
}

// Stutter repeats each step k consecutive times. k < 1 returns p
// unchanged.
func Stutter(p Pattern, k int) Pattern {
	if k < 1 {
		return p.Clone()
	}
	out := make(Pattern, 0, len(p)*k)
	for _, b := range p {
		for j := 0; j < k; j++ {
			out = append(out, b)
		}
	}
	return out
}

// Concat appends b after a.
func Concat(a, b Pattern) Pattern {
	out := make(Pattern, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// Expand tiles p by repetition until length n. Expanding an empty
// pattern yields an all-rest pattern of length n.
func Expand(p Pattern, n int) Pattern {
	if n <= 0 {
		return Pattern{}
	}
	out := make(Pattern, n)
	if len(p) == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = p[i%len(p)]
	}
	return out
}

// OnsetPrefix returns, for each step i, the number of onsets in
// p[0:i]. The slice has len(p)+1 entries; the last is the total onset
// count. Used for O(1) onset-index lookups.
func OnsetPrefix(p Pattern) []int {
	pre := make([]int, len(p)+1)
	for i, b := range p {
		pre[i+1] = pre[i]
		if b {
			pre[i+1]++
		}
	}
	return pre
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b; zero if either is
// zero.
func LCM(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}
