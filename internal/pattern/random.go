package pattern

import (
	"math"
	"math/rand"
)

// RandomFixed places onsets distinct onsets uniformly at random over
// steps positions. onsets > steps clamps.
func RandomFixed(onsets, steps int, rng *rand.Rand) Pattern {
	if steps <= 0 {
		return Pattern{}
	}
	if onsets > steps {
		onsets = steps
	}
	p := make(Pattern, steps)
	if onsets <= 0 {
		return p
	}
	idx := rng.Perm(steps)
	for i := 0; i < onsets; i++ {
		p[idx[i]] = true
	}
	return p
}

// RandomBell draws the onset count from a truncated normal centered at
// steps/2 with sigma (steps-1)/6, clamped to [0, steps], then places
// that many onsets uniformly. A single step is a coin flip.
func RandomBell(steps int, rng *rand.Rand) Pattern {
	if steps <= 0 {
		return Pattern{}
	}
	if steps == 1 {
		return Pattern{rng.Intn(2) == 0}
	}
	onsets := BellOnsetCount(steps, rng)
	return RandomFixed(onsets, steps, rng)
}

// BellSteps generates n new steps for progressive lengthening. Onset
// positions are drawn from a normal centered on the middle of the new
// segment, about a third of the segment ends up filled.
func BellSteps(n int, rng *rand.Rand) Pattern {
	if n <= 0 {
		return Pattern{}
	}
	p := make(Pattern, n)
	mean := float64(n) / 2.0
	sigma := float64(n) / 6.0
	for i := 0; i < n/3+1; i++ {
		pos := int(math.Round(rng.NormFloat64()*sigma + mean))
		if pos >= 0 && pos < n {
			p[pos] = true
		}
	}
	return p
}

// BellOnsetCount samples the bell-curve onset count used by R(r,n) and
// by progressive lengthening.
func BellOnsetCount(steps int, rng *rand.Rand) int {
	sigma := float64(steps-1) / 6.0
	n := int(math.Round(rng.NormFloat64()*sigma + float64(steps)/2.0))
	if n < 0 {
		n = 0
	}
	if n > steps {
		n = steps
	}
	return n
}
