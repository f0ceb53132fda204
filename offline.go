package upiseq

import intseq "github.com/cbegin/upiseq-go/internal/sequencer"

// RenderedEvent is one scheduled onset event with its sample time
// made absolute from the start of the render.
type RenderedEvent struct {
	Sample int64
	Event  StepEvent
}

// RenderEvents compiles a pattern input and walks a simulated
// transport over it for the given duration, returning every onset
// event in order. Useful for tests and offline export; live hosts use
// a Controller directly.
func RenderEvents(input string, tempo, sampleRate float64, blockSize int, seconds float64, opts ...Option) ([]RenderedEvent, error) {
	c := New(opts...)
	if err := c.SetUPI(input); err != nil {
		return nil, err
	}
	return RenderControllerEvents(c, tempo, sampleRate, blockSize, seconds), nil
}

// RenderControllerEvents drives an already configured controller over
// a simulated playing transport. Scene and progressive state advance
// only through the controller's own Trigger calls, so callers can
// interleave triggers between renders.
func RenderControllerEvents(c *Controller, tempo, sampleRate float64, blockSize int, seconds float64) []RenderedEvent {
	var out []RenderedEvent
	totalSamples := int64(sampleRate * seconds)
	for start := int64(0); start < totalSamples; start += int64(blockSize) {
		tr := intseq.Transport{
			Playing:      true,
			TempoBPM:     tempo,
			SampleRate:   sampleRate,
			QuarterPos:   float64(start) / sampleRate * tempo / 60,
			BlockSamples: blockSize,
		}
		for _, ev := range c.ProcessBlock(tr) {
			out = append(out, RenderedEvent{Sample: start + int64(ev.SampleOffset), Event: ev})
		}
	}
	return out
}
