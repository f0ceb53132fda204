package pattern

// Euclidean distributes onsets onsets as evenly as possible over steps
// steps using the Bjorklund algorithm, rotated so the first onset sits
// on the downbeat. onsets > steps clamps to steps.
func Euclidean(onsets, steps int) Pattern {
	if steps <= 0 {
		return Pattern{}
	}
	if onsets > steps {
		onsets = steps
	}
	if onsets <= 0 {
		return make(Pattern, steps)
	}
	if onsets == steps {
		p := make(Pattern, steps)
		for i := range p {
			p[i] = true
		}
		return p
	}

	// Euclidean division chain of the rest count by the onset count.
	var counts, remainders []int
	divisor := steps - onsets
	remainders = append(remainders, onsets)
	level := 0
	for {
		counts = append(counts, divisor/remainders[level])
		remainders = append(remainders, divisor%remainders[level])
		divisor = remainders[level]
		level++
		if remainders[level] <= 1 {
			break
		}
	}
	counts = append(counts, divisor)

	p := make(Pattern, 0, steps)
	// Iterative flatten of the recursive short/long run tree. The
	// explicit stack mirrors the closure recursion of the classic
	// formulation but cannot blow the goroutine stack on large steps.
	type frame struct{ level, i int }
	stack := []frame{{level, 0}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		switch {
		case f.level == -1:
			p = append(p, false)
			stack = stack[:len(stack)-1]
		case f.level == -2:
			p = append(p, true)
			stack = stack[:len(stack)-1]
		case f.i < counts[f.level]:
			f.i++
			stack = append(stack, frame{f.level - 1, 0})
		default:
			lv := f.level
			stack = stack[:len(stack)-1]
			if remainders[lv] != 0 {
				stack = append(stack, frame{lv - 2, 0})
			}
		}
	}
	for len(p) < steps {
		p = append(p, false)
	}
	p = p[:steps]

	// Rotate the first onset to position 0.
	for i, b := range p {
		if b {
			return Rotate(p, i)
		}
	}
	return p
}

// AntiEuclidean (the "Dilcue" generator) places onsets where the
// Euclidean pattern of the complementary onset count has rests.
func AntiEuclidean(onsets, steps int) Pattern {
	if steps <= 0 {
		return Pattern{}
	}
	if onsets > steps {
		onsets = steps
	}
	if onsets <= 0 {
		return make(Pattern, steps)
	}
	if onsets == steps {
		p := make(Pattern, steps)
		for i := range p {
			p[i] = true
		}
		return p
	}
	return Invert(Euclidean(steps-onsets, steps))
}
