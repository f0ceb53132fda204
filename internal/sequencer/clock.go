// Package sequencer turns host transport positions into step indexes
// and sample-accurate onset events. The clock and scheduler run on
// the audio side, reading an immutable snapshot published by the
// controller.
package sequencer

import "math"

// Transport is the host's view of musical time for one audio block.
type Transport struct {
	QuarterPos   float64
	TempoBPM     float64
	SampleRate   float64
	Playing      bool
	Looping      bool
	BlockSamples int
}

// SamplesPerQuarter returns the quarter-note length in samples, or 0
// when the transport carries no usable tempo.
func (t Transport) SamplesPerQuarter() float64 {
	if t.TempoBPM <= 0 || t.SampleRate <= 0 {
		return 0
	}
	return t.SampleRate * 60.0 / t.TempoBPM
}

// StepTick is one step boundary inside a block.
type StepTick struct {
	Index        int
	SampleOffset int
}

// restartEpsilon is the backwards jump, in quarters, treated as a
// transport loop rather than jitter.
const restartEpsilon = 0.1

// DefaultStepsPerQuarter makes one step a sixteenth note.
const DefaultStepsPerQuarter = 4.0

// StepClock enumerates the steps covered by successive audio blocks.
// Step indexes derive from the absolute quarter position, so a host
// loop back to the song start lands on step zero by construction.
type StepClock struct {
	prevEnd    float64
	wasPlaying bool
	ticks      []StepTick
}

func NewStepClock() *StepClock {
	return &StepClock{}
}

// Reset forgets the previous block, so the next one reports a
// restart.
func (c *StepClock) Reset() {
	c.prevEnd = 0
	c.wasPlaying = false
}

// Block returns the step ticks falling inside the given block, in
// order, plus whether a transport restart was detected. The returned
// slice is reused by the next call. A step landing exactly on the
// block end belongs to the next block.
func (c *StepClock) Block(tr Transport, stepsPerQuarter float64) (ticks []StepTick, restarted bool) {
	if !tr.Playing || tr.BlockSamples <= 0 {
		c.wasPlaying = false
		return nil, false
	}
	spq := tr.SamplesPerQuarter()
	if spq <= 0 || stepsPerQuarter <= 0 {
		return nil, false
	}

	restarted = !c.wasPlaying || tr.QuarterPos < c.prevEnd-restartEpsilon
	qStart := tr.QuarterPos
	qEnd := qStart + float64(tr.BlockSamples)/spq

	c.ticks = c.ticks[:0]
	const eps = 1e-9
	i := int(math.Ceil(qStart*stepsPerQuarter - eps))
	if i < 0 {
		i = 0
	}
	for float64(i) < qEnd*stepsPerQuarter-eps {
		stepQuarter := float64(i) / stepsPerQuarter
		off := int(math.Round((stepQuarter - qStart) / (qEnd - qStart) * float64(tr.BlockSamples)))
		if off < 0 {
			off = 0
		}
		if off >= tr.BlockSamples {
			off = tr.BlockSamples - 1
		}
		c.ticks = append(c.ticks, StepTick{Index: i, SampleOffset: off})
		i++
	}

	c.prevEnd = qEnd
	c.wasPlaying = true
	return c.ticks, restarted
}
