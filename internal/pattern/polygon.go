package pattern

import "math"

// Polygon projects the vertices of a regular polygon onto a step grid:
// vertex i of sides lands on round(i*steps/sides)+offset mod steps.
// steps <= 0 defaults to sides. Vertices that round onto the same step
// collapse to one onset.
func Polygon(sides, offset, steps int) Pattern {
	if sides <= 0 {
		return Pattern{}
	}
	if steps <= 0 {
		steps = sides
	}
	p := make(Pattern, steps)
	for i := 0; i < sides; i++ {
		exact := float64(i*steps) / float64(sides)
		pos := (int(math.Round(exact)) + offset) % steps
		if pos < 0 {
			pos += steps
		}
		p[pos] = true
	}
	return p
}
