package sequencer

import (
	"testing"

	"github.com/cbegin/upiseq-go/internal/accent"
	"github.com/cbegin/upiseq-go/internal/pattern"
)

// slowTransport puts one step every 250 samples: 60 BPM at 1000 Hz
// with 4 steps per quarter.
func slowTransport(q float64, block int) Transport {
	return Transport{
		QuarterPos:   q,
		TempoBPM:     60,
		SampleRate:   1000,
		Playing:      true,
		BlockSamples: block,
	}
}

func newSnapshot(rhythm, accents string) *Snapshot {
	r := pattern.BinaryPattern(rhythm, 0)
	var a pattern.Pattern
	if accents != "" {
		a = pattern.BinaryPattern(accents, 0)
	}
	return &Snapshot{
		Rhythm:          r,
		Accents:         accent.New(r, a),
		StepsPerQuarter: 4,
	}
}

func runBlock(t *testing.T, c *StepClock, s *Scheduler, snap *Snapshot, tr Transport) []StepEvent {
	t.Helper()
	ticks, restarted := c.Block(tr, snap.StepsPerQuarter)
	events := s.Block(snap, tr, ticks, restarted)
	out := make([]StepEvent, len(events))
	copy(out, events)
	return out
}

func TestSchedulerStartAndInlineRelease(t *testing.T) {
	snap := newSnapshot("10", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	events := runBlock(t, c, s, snap, slowTransport(0, 500))
	// Steps 0 (onset) and 1 (rest) fall in this block; the gate is one
	// step so the release lands inline at sample 250.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Kind != OnsetStart || events[0].SampleOffset != 0 || events[0].StepIndex != 0 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Kind != OnsetRelease || events[1].SampleOffset != 250 || events[1].StepIndex != 0 {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}

func TestSchedulerNoEventForRestStep(t *testing.T) {
	snap := newSnapshot("01", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	events := runBlock(t, c, s, snap, slowTransport(0, 500))
	for _, e := range events {
		if e.StepIndex%2 == 0 && e.Kind == OnsetStart {
			t.Fatalf("rest step emitted a start: %+v", e)
		}
	}
}

func TestSchedulerCrossBlockRelease(t *testing.T) {
	snap := newSnapshot("11", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	// Block of 300 samples covers steps 0 (sample 0) and 1 (sample
	// 250); step 1's release at 500 crosses into the next block.
	first := runBlock(t, c, s, snap, slowTransport(0, 300))
	starts, releases := 0, 0
	for _, e := range first {
		switch e.Kind {
		case OnsetStart:
			starts++
		case OnsetRelease:
			releases++
		}
	}
	if starts != 2 || releases != 1 {
		t.Fatalf("expected 2 starts and 1 release, got %+v", first)
	}
	second := runBlock(t, c, s, snap, slowTransport(0.3, 300))
	found := false
	for _, e := range second {
		if e.Kind == OnsetRelease && e.StepIndex == 1 {
			if e.SampleOffset != 200 {
				t.Fatalf("expected deferred release at offset 200, got %+v", e)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("deferred release missing from next block: %+v", second)
	}
}

func TestSchedulerNonDecreasingOffsets(t *testing.T) {
	snap := newSnapshot("10110110", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	for n := 0; n < 20; n++ {
		q := float64(n) * 0.3
		events := runBlock(t, c, s, snap, slowTransport(q, 300))
		for i := 1; i < len(events); i++ {
			if events[i].SampleOffset < events[i-1].SampleOffset {
				t.Fatalf("block %d: events out of order: %+v", n, events)
			}
		}
	}
}

func TestSchedulerEveryStartGetsRelease(t *testing.T) {
	snap := newSnapshot("10110110", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	open := map[int]int{}
	for n := 0; n < 40; n++ {
		q := float64(n) * 0.3
		for _, e := range runBlock(t, c, s, snap, slowTransport(q, 300)) {
			switch e.Kind {
			case OnsetStart:
				open[e.StepIndex]++
			case OnsetRelease:
				open[e.StepIndex]--
			}
		}
	}
	for step, n := range open {
		if n > 1 {
			t.Fatalf("step %d: %d unmatched starts", step, n)
		}
	}
}

func TestSchedulerAccentFlag(t *testing.T) {
	snap := newSnapshot("10110110", "10")
	c := NewStepClock()
	s := NewScheduler(1, false)
	accented := map[int]bool{}
	for n := 0; n < 40; n++ {
		q := float64(n) * 0.3
		for _, e := range runBlock(t, c, s, snap, slowTransport(q, 300)) {
			if e.Kind == OnsetStart {
				accented[e.StepIndex] = e.Accented
			}
		}
	}
	want := map[int]bool{0: true, 2: false, 3: true, 5: false, 6: true,
		8: false, 10: true, 11: false, 13: true, 14: false}
	for step, acc := range want {
		got, ok := accented[step]
		if !ok {
			t.Fatalf("step %d never fired", step)
		}
		if got != acc {
			t.Fatalf("step %d: expected accented=%v", step, acc)
		}
	}
}

func TestSchedulerRestartFlushesPending(t *testing.T) {
	snap := newSnapshot("11", "")
	c := NewStepClock()
	s := NewScheduler(1, false)
	runBlock(t, c, s, snap, slowTransport(0, 300)) // step 1 release pending
	events := runBlock(t, c, s, snap, slowTransport(0, 300))
	if len(events) == 0 || events[0].Kind != OnsetRelease || events[0].SampleOffset != 0 {
		t.Fatalf("expected pending release flushed at offset 0, got %+v", events)
	}
}

func TestSchedulerSafetyRelease(t *testing.T) {
	snap := newSnapshot("11", "")
	c := NewStepClock()
	s := NewScheduler(1, true)
	events := runBlock(t, c, s, snap, slowTransport(0, 300))
	// Step 1's real release crosses the boundary, so a redundant
	// release fires 10 samples after its start.
	found := false
	for _, e := range events {
		if e.Kind == OnsetRelease && e.StepIndex == 1 && e.SampleOffset == 260 {
			found = true
		}
	}
	if !found {
		t.Fatalf("safety release missing: %+v", events)
	}
}

func TestSchedulerLongGate(t *testing.T) {
	snap := newSnapshot("10", "")
	c := NewStepClock()
	s := NewScheduler(2, false)
	events := runBlock(t, c, s, snap, slowTransport(0, 600))
	// Gate of 2 steps is 500 samples; step 2's onset lands at the same
	// sample, after the release.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %+v", events)
	}
	if events[1].Kind != OnsetRelease || events[1].SampleOffset != 500 || events[1].StepIndex != 0 {
		t.Fatalf("expected step 0 release at 500, got %+v", events[1])
	}
	if events[2].Kind != OnsetStart || events[2].StepIndex != 2 {
		t.Fatalf("expected step 2 start, got %+v", events[2])
	}
}

func TestSchedulerEmptySnapshot(t *testing.T) {
	c := NewStepClock()
	s := NewScheduler(1, false)
	ticks, restarted := c.Block(slowTransport(0, 300), 4)
	if events := s.Block(nil, slowTransport(0, 300), ticks, restarted); len(events) != 0 {
		t.Fatalf("expected no events for nil snapshot, got %+v", events)
	}
}

func TestSchedulerSnapshotGateOverride(t *testing.T) {
	snap := newSnapshot("10", "")
	snap.GateSteps = 2
	c := NewStepClock()
	s := NewScheduler(1, false)
	events := runBlock(t, c, s, snap, slowTransport(0, 600))
	// The snapshot's gate wins over the constructor's: 2 steps is 500
	// samples.
	if events[1].Kind != OnsetRelease || events[1].SampleOffset != 500 {
		t.Fatalf("expected release at 500, got %+v", events[1])
	}
}
