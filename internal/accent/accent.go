// Package accent pairs a rhythm with a cyclic accent layer and
// answers, for any absolute step, whether that step's onset is
// accented. The accent layer advances per onset, not per step, so the
// combined cycle is longer than either input when their lengths do
// not divide.
package accent

import "github.com/cbegin/upiseq-go/internal/pattern"

// MaxTableBits caps the precomputed accent table. Periods above the
// cap fall back to modular computation per query.
const MaxTableBits = 65536

// Sequence answers accent queries for one compiled pattern. It is
// immutable after New and safe for concurrent readers.
type Sequence struct {
	rhythm pattern.Pattern
	accent pattern.Pattern
	prefix []int
	onsets int
	period int
	table  pattern.Pattern
}

// New builds a Sequence. A nil or empty accent, an empty rhythm, or a
// rhythm with no onsets all degrade to a sequence that accents
// nothing.
func New(rhythm, accent pattern.Pattern) *Sequence {
	s := &Sequence{
		rhythm: rhythm.Clone(),
		accent: accent.Clone(),
		prefix: pattern.OnsetPrefix(rhythm),
		onsets: rhythm.Onsets(),
	}
	if len(rhythm) == 0 {
		s.period = 1
		return s
	}
	if s.onsets == 0 || len(accent) == 0 {
		s.period = len(rhythm)
		return s
	}
	s.period = len(rhythm) * pattern.LCM(s.onsets, len(accent)) / s.onsets
	if s.period <= MaxTableBits {
		s.table = make(pattern.Pattern, s.period)
		for step := 0; step < s.period; step++ {
			s.table[step] = s.compute(step)
		}
	}
	return s
}

// AccentLayer returns a copy of the raw accent pattern, or nil when
// the input had none.
func (s *Sequence) AccentLayer() pattern.Pattern {
	return s.accent.Clone()
}

// Period returns the combined rhythm/accent cycle length in steps.
func (s *Sequence) Period() int {
	return s.period
}

// IsAccented reports whether the onset at the given absolute step is
// accented. Steps without an onset are never accented.
func (s *Sequence) IsAccented(step int) bool {
	if s.onsets == 0 || len(s.accent) == 0 || len(s.rhythm) == 0 {
		return false
	}
	step %= s.period
	if step < 0 {
		step += s.period
	}
	if s.table != nil {
		return s.table[step]
	}
	return s.compute(step)
}

func (s *Sequence) compute(step int) bool {
	r := step % len(s.rhythm)
	if !s.rhythm[r] {
		return false
	}
	onsetIndex := s.prefix[r] + (step/len(s.rhythm))*s.onsets
	return s.accent[onsetIndex%len(s.accent)]
}

// MapForCycle returns the accent flags of one rhythm cycle starting
// at the given absolute step, for visualizers. With no accent layer
// the map is all false.
func (s *Sequence) MapForCycle(cycleStart int) pattern.Pattern {
	out := make(pattern.Pattern, len(s.rhythm))
	for i := range out {
		out[i] = s.IsAccented(cycleStart + i)
	}
	return out
}
