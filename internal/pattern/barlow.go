package pattern

import (
	"math"
	"sort"
)

// Indispensability scores how much a metric position wants an onset,
// after Clarence Barlow. Position 0 (the downbeat) always scores
// highest; mirror positions can tie and callers break ties by
// position order, so rankings stay deterministic. A pure
// prime-factor formulation collapses to sequential fill on prime step
// counts; this scheme combines gcd metric strength, alignment with
// common musical fractions, and a symmetric center/edge bias so prime
// lengths still rank non-sequentially.
func Indispensability(position, steps int) float64 {
	if position == 0 {
		return 10.0
	}

	score := 0.0
	if g := GCD(position, steps); g > 1 {
		score = float64(g) / float64(steps) * 10.0
	}

	// Alignment with common musical fractions, strongest first.
	fractions := [...]float64{
		1.0 / 2.0,
		1.0 / 4.0, 3.0 / 4.0,
		1.0 / 3.0, 2.0 / 3.0,
		1.0 / 8.0, 3.0 / 8.0, 5.0 / 8.0, 7.0 / 8.0,
		1.0 / 6.0, 5.0 / 6.0,
	}
	strengths := [...]float64{
		5.0,
		3.0, 3.0,
		2.5, 2.5,
		1.5, 1.5, 1.5, 1.5,
		1.0, 1.0,
	}
	ratio := float64(position) / float64(steps)
	closest := 1.0
	strength := 0.0
	for i, f := range fractions {
		if d := math.Abs(ratio - f); d < closest {
			closest = d
			strength = strengths[i]
		}
	}
	if closest <= 0.5/float64(steps) {
		score = math.Max(score, strength)
	}

	if score < 0.5 {
		half := float64(steps) / 2.0
		centerDistance := math.Abs(float64(position)-half) / half
		edgeDistance := math.Min(float64(position), float64(steps-position)) / half
		score = (1.0 - centerDistance*0.3) + edgeDistance*0.2
		score += float64(position%3)*0.01 + float64(position%5)*0.005
	}

	// Pickup beat.
	if position == steps-1 {
		score = math.Max(score, 7.0)
	}

	return math.Max(score, 0.1+float64(position)*0.001)
}

// Barlow generates a pattern of the given length whose onsets occupy
// the most indispensable positions, starting from a lone downbeat and
// concentrating up to the target count. Wolrab mode selects the least
// indispensable positions instead.
func Barlow(onsets, steps int, wolrab bool) Pattern {
	if steps <= 0 {
		return Pattern{}
	}
	if onsets > steps {
		onsets = steps
	}
	if onsets <= 0 {
		return make(Pattern, steps)
	}
	base := make(Pattern, steps)
	base[0] = true
	return BarlowTransform(base, onsets, wolrab)
}

// BarlowTransform moves a pattern toward the target onset count one
// placement decision at a time: concentration adds onsets at the most
// indispensable empty positions, dilution removes the least
// indispensable onsets. Ties break toward the lower index. wolrab
// negates the scores.
func BarlowTransform(p Pattern, target int, wolrab bool) Pattern {
	steps := len(p)
	if steps == 0 {
		return Pattern{}
	}
	if target > steps {
		target = steps
	}
	if target < 0 {
		target = 0
	}
	current := p.Onsets()
	if current == target {
		return p.Clone()
	}

	score := make([]float64, steps)
	for i := range score {
		score[i] = Indispensability(i, steps)
		if wolrab {
			score[i] = -score[i]
		}
	}

	out := p.Clone()
	if target < current {
		onsetIdx := candidateIndexes(out, true)
		// Lowest scores go first when removing.
		sort.SliceStable(onsetIdx, func(a, b int) bool {
			return score[onsetIdx[a]] < score[onsetIdx[b]]
		})
		for i := 0; i < current-target && i < len(onsetIdx); i++ {
			out[onsetIdx[i]] = false
		}
		return out
	}
	emptyIdx := candidateIndexes(out, false)
	// Highest scores go first when adding.
	sort.SliceStable(emptyIdx, func(a, b int) bool {
		return score[emptyIdx[a]] > score[emptyIdx[b]]
	})
	for i := 0; i < target-current && i < len(emptyIdx); i++ {
		out[emptyIdx[i]] = true
	}
	return out
}

// EuclideanTransform regenerates the pattern at the target onset count
// with the Euclidean (or anti-Euclidean) distribution, discarding the
// current onset placement.
func EuclideanTransform(p Pattern, target int, anti bool) Pattern {
	steps := len(p)
	if steps == 0 {
		return Pattern{}
	}
	if target > steps {
		target = steps
	}
	if target <= 0 {
		return make(Pattern, steps)
	}
	if anti {
		return AntiEuclidean(target, steps)
	}
	return Euclidean(target, steps)
}

func candidateIndexes(p Pattern, onset bool) []int {
	idx := make([]int, 0, len(p))
	for i, b := range p {
		if b == onset {
			idx = append(idx, i)
		}
	}
	return idx
}
