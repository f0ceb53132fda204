package sequencer

import (
	"sort"

	"github.com/cbegin/upiseq-go/internal/accent"
	"github.com/cbegin/upiseq-go/internal/pattern"
)

// EventKind tags a StepEvent.
type EventKind uint8

const (
	OnsetStart EventKind = iota
	OnsetRelease
)

func (k EventKind) String() string {
	if k == OnsetStart {
		return "start"
	}
	return "release"
}

// StepEvent is one onset boundary inside a block. SampleOffset is
// always within the block.
type StepEvent struct {
	SampleOffset int
	Kind         EventKind
	Accented     bool
	StepIndex    int
}

// Snapshot is the immutable compile result the audio side reads for
// the duration of one block. GateSteps, when positive, overrides the
// scheduler's default gate length so gate changes travel with the
// published snapshot instead of mutating the scheduler.
type Snapshot struct {
	Rhythm          pattern.Pattern
	Accents         *accent.Sequence
	StepsPerQuarter float64
	GateSteps       float64
}

type pendingRelease struct {
	at       int64
	step     int
	accented bool
}

// safetyReleaseOffset is the extra early release distance, in
// samples, used when a gate crosses the block boundary and the host
// is known to drop deferred releases.
const safetyReleaseOffset = 10

// Scheduler pairs the clock's step ticks with the snapshot's rhythm
// and emits ordered onset events. Releases that fall beyond the
// current block wait in a pending queue keyed by absolute sample
// time. The scheduler is owned by the audio side; it never allocates
// after warmup beyond slice growth.
type Scheduler struct {
	gateSteps     float64
	safetyRelease bool
	samplePos     int64
	pending       []pendingRelease
	events        []StepEvent
}

// NewScheduler builds a scheduler with the given gate length in
// steps. gateSteps <= 0 defaults to one step.
func NewScheduler(gateSteps float64, safetyRelease bool) *Scheduler {
	if gateSteps <= 0 {
		gateSteps = 1
	}
	return &Scheduler{gateSteps: gateSteps, safetyRelease: safetyRelease}
}

// Reset drops pending releases and rewinds the absolute sample
// counter. Used on transport stop or a full controller reset.
func (s *Scheduler) Reset() {
	s.pending = s.pending[:0]
	s.samplePos = 0
}

// Block turns the clock's ticks into ordered StepEvents for one
// block. On a restart, still-pending releases flush at offset zero so
// no note hangs across the loop seam. The returned slice is reused by
// the next call.
func (s *Scheduler) Block(snap *Snapshot, tr Transport, ticks []StepTick, restarted bool) []StepEvent {
	s.events = s.events[:0]
	if snap == nil || len(snap.Rhythm) == 0 {
		return s.events
	}

	if restarted {
		for _, pr := range s.pending {
			s.events = append(s.events, StepEvent{
				SampleOffset: 0,
				Kind:         OnsetRelease,
				Accented:     pr.accented,
				StepIndex:    pr.step,
			})
		}
		s.pending = s.pending[:0]
		s.samplePos = 0
	}

	blockEnd := s.samplePos + int64(tr.BlockSamples)
	kept := s.pending[:0]
	for _, pr := range s.pending {
		if pr.at < blockEnd {
			off := int(pr.at - s.samplePos)
			if off < 0 {
				off = 0
			}
			s.events = append(s.events, StepEvent{
				SampleOffset: off,
				Kind:         OnsetRelease,
				Accented:     pr.accented,
				StepIndex:    pr.step,
			})
		} else {
			kept = append(kept, pr)
		}
	}
	s.pending = kept

	spq := tr.SamplesPerQuarter()
	gate := s.gateSteps
	if snap.GateSteps > 0 {
		gate = snap.GateSteps
	}
	gateSamples := int64(gate * spq / snap.StepsPerQuarter)
	if gateSamples < 1 {
		gateSamples = 1
	}

	for _, tick := range ticks {
		r := tick.Index % len(snap.Rhythm)
		if !snap.Rhythm[r] {
			continue
		}
		accented := snap.Accents.IsAccented(tick.Index)
		s.events = append(s.events, StepEvent{
			SampleOffset: tick.SampleOffset,
			Kind:         OnsetStart,
			Accented:     accented,
			StepIndex:    tick.Index,
		})
		releaseAt := s.samplePos + int64(tick.SampleOffset) + gateSamples
		if releaseAt < blockEnd {
			s.events = append(s.events, StepEvent{
				SampleOffset: int(releaseAt - s.samplePos),
				Kind:         OnsetRelease,
				Accented:     accented,
				StepIndex:    tick.Index,
			})
			continue
		}
		s.pending = append(s.pending, pendingRelease{at: releaseAt, step: tick.Index, accented: accented})
		if s.safetyRelease {
			off := tick.SampleOffset + safetyReleaseOffset
			if off >= tr.BlockSamples {
				off = tr.BlockSamples - 1
			}
			s.events = append(s.events, StepEvent{
				SampleOffset: off,
				Kind:         OnsetRelease,
				Accented:     accented,
				StepIndex:    tick.Index,
			})
		}
	}

	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].SampleOffset < s.events[j].SampleOffset
	})
	s.samplePos = blockEnd
	return s.events
}
