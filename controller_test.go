package upiseq

import (
	"testing"

	intpattern "github.com/cbegin/upiseq-go/internal/pattern"
)

const (
	testTempo      = 120.0
	testSampleRate = 48000.0
	testBlockSize  = 512
)

// At 120 BPM, 48 kHz and sixteenth-note steps one step is 6000
// samples.
const samplesPerStep = 6000

func mustSetUPI(t *testing.T, c *Controller, input string) {
	t.Helper()
	if err := c.SetUPI(input); err != nil {
		t.Fatalf("SetUPI(%q): %v", input, err)
	}
}

func rhythmString(c *Controller) string {
	r, _ := c.CurrentPattern()
	return intpattern.FormatBinary(r)
}

// renderStarts plays the controller for the given duration and
// returns onset starts keyed by absolute step index, with the accent
// flag and absolute sample time of each.
func renderStarts(c *Controller, seconds float64) (accented map[int]bool, samples map[int]int64) {
	accented = make(map[int]bool)
	samples = make(map[int]int64)
	for _, re := range RenderControllerEvents(c, testTempo, testSampleRate, testBlockSize, seconds) {
		if re.Event.Kind != OnsetStart {
			continue
		}
		accented[re.Event.StepIndex] = re.Event.Accented
		samples[re.Event.StepIndex] = re.Sample
	}
	return accented, samples
}

func TestEuclideanPlayback(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)")
	if got := rhythmString(c); got != "10010010" {
		t.Fatalf("rhythm = %s, want 10010010", got)
	}

	// Just under one second: the eight-step cycle without the final
	// block spilling into step 8.
	starts, samples := renderStarts(c, 0.99)
	wantSteps := map[int]int64{0: 0, 3: 3 * samplesPerStep, 6: 6 * samplesPerStep}
	if len(starts) != len(wantSteps) {
		t.Fatalf("got onsets at %v, want steps 0, 3, 6", starts)
	}
	for step, wantAt := range wantSteps {
		at, ok := samples[step]
		if !ok {
			t.Fatalf("no onset at step %d", step)
		}
		if at < wantAt-1 || at > wantAt+1 {
			t.Errorf("step %d fired at sample %d, want %d", step, at, wantAt)
		}
	}
}

func TestHexLiteralMatchesEuclidean(t *testing.T) {
	hex := New()
	mustSetUPI(t, hex, "0x94:8")
	euclid := New()
	mustSetUPI(t, euclid, "E(3,8)")

	if got, want := rhythmString(hex), rhythmString(euclid); got != want {
		t.Fatalf("0x94:8 = %s, E(3,8) = %s", got, want)
	}
	r, _ := hex.CurrentPattern()
	if got := intpattern.FormatHex(r); got != "0x94" {
		t.Fatalf("FormatHex = %s, want 0x94", got)
	}

	a := RenderControllerEvents(hex, testTempo, testSampleRate, testBlockSize, 1.0)
	b := RenderControllerEvents(euclid, testTempo, testSampleRate, testBlockSize, 1.0)
	if len(a) != len(b) {
		t.Fatalf("event counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestAccentAdvancesPerOnset(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "{10}E(5,8)")
	if got := rhythmString(c); got != "10110110" {
		t.Fatalf("rhythm = %s, want 10110110", got)
	}

	// Two rhythm cycles, ten onsets, five accent cycles, stopping
	// before the final block reaches step 16.
	starts, _ := renderStarts(c, 1.99)
	want := map[int]bool{
		0: true, 2: false, 3: true, 5: false, 6: true,
		8: false, 10: true, 11: false, 13: true, 14: false,
	}
	if len(starts) != len(want) {
		t.Fatalf("got onsets at %v, want 10 onsets", starts)
	}
	for step, acc := range want {
		got, ok := starts[step]
		if !ok {
			t.Fatalf("no onset at step %d", step)
		}
		if got != acc {
			t.Errorf("step %d accented = %v, want %v", step, got, acc)
		}
	}
}

func TestProgressiveOffsetRotatesPerTrigger(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(5,8)+2")

	// The first rotation is already visible on compile.
	steps := []string{"11011010", "01101011", "10101101", "10110110"}
	if got := rhythmString(c); got != steps[0] {
		t.Fatalf("initial rhythm = %s, want %s", got, steps[0])
	}
	for _, want := range steps[1:] {
		c.Trigger()
		if got := rhythmString(c); got != want {
			t.Fatalf("after trigger rhythm = %s, want %s", got, want)
		}
	}
}

func TestProgressiveTransformReachesTarget(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(1,8)>8")
	for i := 0; i <= 12; i++ {
		r, _ := c.CurrentPattern()
		want := 1 + i
		if want > 8 {
			want = 8
		}
		if got := r.Onsets(); got != want {
			t.Fatalf("after %d triggers onsets = %d, want %d", i, got, want)
		}
		c.Trigger()
	}
}

func TestProgressiveResetReturnsToStart(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(5,8)+2")
	c.Trigger()
	c.Trigger()
	c.Reset()
	if got := rhythmString(c); got != "11011010" {
		t.Fatalf("after reset rhythm = %s, want 11011010", got)
	}
}

func TestSceneCycling(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)|E(5,8)|0xa5:8")
	rhythms := []string{"10010010", "10110110", "01011010"}

	for round := 0; round < 2; round++ {
		for i, want := range rhythms {
			idx, count := c.SceneIndex()
			if idx != i || count != 3 {
				t.Fatalf("scene index = %d/%d, want %d/3", idx, count, i)
			}
			if got := rhythmString(c); got != want {
				t.Fatalf("scene %d rhythm = %s, want %s", i, got, want)
			}
			c.Trigger()
		}
	}
}

func TestSetUPIKeepsScenePositionForSameScenes(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)|E(5,8)")
	c.Trigger()
	if idx, _ := c.SceneIndex(); idx != 1 {
		t.Fatalf("scene index = %d, want 1", idx)
	}

	// Reapplying the same scene list keeps the position.
	mustSetUPI(t, c, "E(3,8)|E(5,8)")
	if idx, _ := c.SceneIndex(); idx != 1 {
		t.Fatalf("scene index after reapply = %d, want 1", idx)
	}

	// A different scene list starts over.
	mustSetUPI(t, c, "E(3,8)|E(7,16)")
	if idx, _ := c.SceneIndex(); idx != 0 {
		t.Fatalf("scene index after change = %d, want 0", idx)
	}
}

func TestSetUPIErrorKeepsPreviousPattern(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)")
	if err := c.SetUPI("E(3,"); err == nil {
		t.Fatal("expected parse error")
	}
	if got := rhythmString(c); got != "10010010" {
		t.Fatalf("rhythm after failed set = %s, want 10010010", got)
	}
	if got := c.UPI(); got != "E(3,8)" {
		t.Fatalf("UPI after failed set = %q, want E(3,8)", got)
	}
}

func TestSaveLoadStateReproducesProgressive(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(5,8)+2")
	c.Trigger()
	c.Trigger()
	want := rhythmString(c)

	cfg := c.SaveState()
	if cfg.UPI != "E(5,8)+2" {
		t.Fatalf("saved UPI = %q", cfg.UPI)
	}

	restored := New()
	if err := restored.LoadState(cfg); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := rhythmString(restored); got != want {
		t.Fatalf("restored rhythm = %s, want %s", got, want)
	}
}

func TestSaveLoadStateReproducesLengthening(t *testing.T) {
	c := New(WithSeed(7))
	mustSetUPI(t, c, "E(3,8)*4")
	for i := 0; i < 3; i++ {
		c.Trigger()
	}
	want := rhythmString(c)

	// A different seed proves the accumulated bits travel through the
	// saved state rather than being regrown.
	restored := New(WithSeed(99))
	if err := restored.LoadState(c.SaveState()); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got := rhythmString(restored); got != want {
		t.Fatalf("restored rhythm = %s, want %s", got, want)
	}
}

func TestAccentMap(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "{10}E(5,8)")
	if got := intpattern.FormatBinary(c.AccentMap()); got != "10010010" {
		t.Fatalf("accent map = %s, want 10010010", got)
	}
}

func TestRenderEventsFacade(t *testing.T) {
	events, err := RenderEvents("E(3,8)", testTempo, testSampleRate, testBlockSize, 0.5)
	if err != nil {
		t.Fatalf("RenderEvents: %v", err)
	}
	var starts []int
	for _, re := range events {
		if re.Event.Kind == OnsetStart {
			starts = append(starts, re.Event.StepIndex)
		}
	}
	want := []int{0, 3}
	if len(starts) != len(want) {
		t.Fatalf("starts = %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("starts = %v, want %v", starts, want)
		}
	}
}

func TestAutoLengthChangesStepRate(t *testing.T) {
	// A sparse sixteen-step pattern stretches to eight beats, two
	// steps per quarter instead of the fixed four.
	auto := New(WithAutoLength(true))
	mustSetUPI(t, auto, "E(2,16)")
	if got := auto.StepsPerQuarter(); got != 2 {
		t.Fatalf("auto steps per quarter = %v, want 2", got)
	}
	fixed := New()
	mustSetUPI(t, fixed, "E(2,16)")
	if got := fixed.StepsPerQuarter(); got != 4 {
		t.Fatalf("fixed steps per quarter = %v, want 4", got)
	}
}

func TestSetUPIRejectsEmptyMorse(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)")
	if err := c.SetUPI("M()"); err == nil {
		t.Fatal("expected error for empty morse text")
	}
	if got := rhythmString(c); got != "10010010" {
		t.Fatalf("rhythm = %s, want previous 10010010", got)
	}
	if got := c.UPI(); got != "E(3,8)" {
		t.Fatalf("UPI = %q, want previous input", got)
	}
}

func TestQuantizedPlaybackStepRate(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8);4")
	if got := rhythmString(c); got != "1011" {
		t.Fatalf("rhythm = %s, want 1011", got)
	}
	_, samples := renderStarts(c, 0.49)
	at, ok := samples[2]
	if !ok {
		t.Fatal("no onset at step 2")
	}
	if want := int64(2 * samplesPerStep); at < want-1 || at > want+1 {
		t.Fatalf("step 2 fired at %d, want %d", at, want)
	}
}

func TestResetConcurrentWithProcessBlock(t *testing.T) {
	c := New()
	mustSetUPI(t, c, "E(3,8)+1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 400; i++ {
			start := int64(i) * int64(testBlockSize)
			tr := Transport{
				Playing:      true,
				TempoBPM:     testTempo,
				SampleRate:   testSampleRate,
				QuarterPos:   float64(start) / testSampleRate * testTempo / 60,
				BlockSamples: testBlockSize,
			}
			for _, ev := range c.ProcessBlock(tr) {
				if ev.SampleOffset < 0 || ev.SampleOffset >= testBlockSize {
					t.Errorf("event offset %d outside block", ev.SampleOffset)
					return
				}
			}
		}
	}()

	for i := 0; i < 100; i++ {
		c.Trigger()
		c.Reset()
	}
	<-done

	// The final Reset recreates the fresh offset state.
	if got := rhythmString(c); got != "00100101" {
		t.Fatalf("after reset: rhythm = %s, want 00100101", got)
	}
}
