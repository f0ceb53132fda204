package pattern

import "math"

// Quantize remaps a pattern onto a new step count by angular
// position: each onset keeps its fraction of the cycle and lands on
// the nearest step of the new grid. Counterclockwise traversal
// mirrors the positions around step zero. Onsets that round onto the
// same new step collapse to one. A matching step count returns the
// pattern unchanged in either direction.
func Quantize(p Pattern, steps int, clockwise bool) Pattern {
	if steps < 1 {
		return nil
	}
	out := make(Pattern, steps)
	if len(p) == 0 {
		return out
	}
	if steps == len(p) {
		copy(out, p)
		return out
	}
	for i, on := range p {
		if !on {
			continue
		}
		frac := float64(i) / float64(len(p))
		if !clockwise {
			frac = 1 - frac
		}
		pos := int(math.Round(frac * float64(steps)))
		if pos >= steps {
			pos = 0
		}
		out[pos] = true
	}
	return out
}
