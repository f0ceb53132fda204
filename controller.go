// Package upiseq generates rhythm patterns from UPI pattern input and
// schedules their onsets against a host transport. The Controller is
// the single entry point: the control side feeds it pattern text and
// triggers, the audio side calls ProcessBlock once per block.
package upiseq

import (
	"math/rand"
	"sync"
	"sync/atomic"

	intaccent "github.com/cbegin/upiseq-go/internal/accent"
	intconfig "github.com/cbegin/upiseq-go/internal/config"
	intdebug "github.com/cbegin/upiseq-go/internal/debug"
	intpattern "github.com/cbegin/upiseq-go/internal/pattern"
	intprog "github.com/cbegin/upiseq-go/internal/progression"
	intseq "github.com/cbegin/upiseq-go/internal/sequencer"
	intupi "github.com/cbegin/upiseq-go/internal/upi"
)

// Transport re-exports the per-block host timing input.
type Transport = intseq.Transport

// StepEvent re-exports the scheduler's event type.
type StepEvent = intseq.StepEvent

// Event kinds.
const (
	OnsetStart   = intseq.OnsetStart
	OnsetRelease = intseq.OnsetRelease
)

type Option func(*controllerConfig)

type controllerConfig struct {
	seed           int64
	gateSteps      float64
	autoLength     bool
	safetyRelease  bool
	progressiveCap int
	logger         *intdebug.Logger
}

func defaultControllerConfig() controllerConfig {
	return controllerConfig{
		seed:           1,
		gateSteps:      1,
		progressiveCap: intprog.DefaultCap,
	}
}

// WithSeed fixes the random source used by R() generators and
// progressive lengthening.
func WithSeed(seed int64) Option {
	return func(cfg *controllerConfig) {
		cfg.seed = seed
	}
}

// WithGateSteps sets the gate length in steps. Default is one step.
func WithGateSteps(steps float64) Option {
	return func(cfg *controllerConfig) {
		cfg.gateSteps = steps
	}
}

// WithAutoLength lets the clock pick a musical duration per pattern
// from its step and onset counts instead of the fixed sixteenth-note
// step rate.
func WithAutoLength(enabled bool) Option {
	return func(cfg *controllerConfig) {
		cfg.autoLength = enabled
	}
}

// WithSafetyRelease emits a redundant early release when a gate
// crosses the block boundary, for hosts that drop deferred releases.
func WithSafetyRelease(enabled bool) Option {
	return func(cfg *controllerConfig) {
		cfg.safetyRelease = enabled
	}
}

// WithProgressiveCap bounds the progressive state store.
func WithProgressiveCap(capacity int) Option {
	return func(cfg *controllerConfig) {
		cfg.progressiveCap = capacity
	}
}

// WithLogger attaches a debug logger. A nil logger discards.
func WithLogger(l *intdebug.Logger) Option {
	return func(cfg *controllerConfig) {
		cfg.logger = l
	}
}

// Controller owns the compile pipeline and the published snapshot.
// SetUPI, Trigger, Reset and the state methods belong to the control
// side and may allocate; ProcessBlock belongs to the audio side and
// only reads the atomically published snapshot.
type Controller struct {
	mu     sync.Mutex
	cfg    controllerConfig
	rng    *rand.Rand
	store  *intprog.Store
	scenes *intprog.SceneList
	prog   *intupi.Program
	text   string
	logger *intdebug.Logger

	snap     atomic.Pointer[intseq.Snapshot]
	resetReq atomic.Bool
	clock    *intseq.StepClock
	sched    *intseq.Scheduler
}

func New(opts ...Option) *Controller {
	cfg := defaultControllerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	rng := rand.New(rand.NewSource(cfg.seed))
	return &Controller{
		cfg:    cfg,
		rng:    rng,
		store:  intprog.NewStore(cfg.progressiveCap, rng),
		logger: cfg.logger,
		clock:  intseq.NewStepClock(),
		sched:  intseq.NewScheduler(cfg.gateSteps, cfg.safetyRelease),
	}
}

// SetUPI parses and compiles a new pattern input. On error the
// previously published pattern stays in force. Scene position is
// preserved when the new input has the same scene list.
func (c *Controller) SetUPI(input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prog, err := intupi.Parse(input)
	if err != nil {
		c.logger.Log("upi", "parse %q failed: %v", input, err)
		return err
	}
	texts := make([]string, len(prog.Scenes))
	for i, s := range prog.Scenes {
		texts[i] = s.Text
	}
	if c.scenes == nil || !c.scenes.SameAs(texts) {
		c.scenes = intprog.NewSceneList(texts)
	}
	c.prog = prog
	c.text = input
	return c.compileAndPublish()
}

// Trigger advances progressive and scene state by one: the current
// scene's progressives move first, then the next scene becomes
// active and is recompiled.
func (c *Controller) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prog == nil {
		return
	}
	scene := c.prog.Scenes[c.scenes.Index()]
	for _, anchor := range progressiveAnchors(scene.Expr) {
		c.store.Advance(anchor)
	}
	c.scenes.Advance()
	if err := c.compileAndPublish(); err != nil {
		c.logger.Log("trigger", "recompile failed: %v", err)
	}
}

// Reset clears all progressive state, returns to scene zero and
// requests a rewind. The clock and scheduler are owned by the audio
// side, so the rewind itself happens at the head of the next
// ProcessBlock.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Clear()
	if c.scenes != nil {
		c.scenes.Reset()
	}
	c.resetReq.Store(true)
	if c.prog != nil {
		if err := c.compileAndPublish(); err != nil {
			c.logger.Log("reset", "recompile failed: %v", err)
		}
	}
}

// compileAndPublish evaluates the active scene and swaps in the new
// snapshot. Callers hold the mutex.
func (c *Controller) compileAndPublish() error {
	scene := c.prog.Scenes[c.scenes.Index()]
	comp, err := intupi.Eval(scene.Expr, &intupi.Env{Rand: c.rng, Progressives: c.store})
	if err != nil {
		c.logger.Log("compile", "scene %q failed: %v", scene.Text, err)
		return err
	}
	spq := intseq.DefaultStepsPerQuarter
	if c.cfg.autoLength {
		spq = intseq.AutoStepsPerQuarter(len(comp.Rhythm), comp.Rhythm.Onsets())
	}
	snap := &intseq.Snapshot{
		Rhythm:          comp.Rhythm,
		Accents:         intaccent.New(comp.Rhythm, comp.Accent),
		StepsPerQuarter: spq,
		GateSteps:       c.cfg.gateSteps,
	}
	c.snap.Store(snap)
	c.logger.Log("compile", "scene %d/%d %q -> %s (spq %.3g)",
		c.scenes.Index()+1, c.scenes.Count(), scene.Text,
		intpattern.FormatBinary(comp.Rhythm), spq)
	return nil
}

// ProcessBlock enumerates the steps covered by one audio block and
// returns their onset events in non-decreasing sample order. Audio
// side only; never blocks on the control side.
func (c *Controller) ProcessBlock(tr Transport) []StepEvent {
	if c.resetReq.Swap(false) {
		c.clock.Reset()
		c.sched.Reset()
	}
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}
	ticks, restarted := c.clock.Block(tr, snap.StepsPerQuarter)
	return c.sched.Block(snap, tr, ticks, restarted)
}

// CurrentPattern returns the published rhythm and accent layers. The
// accent is nil when the input has no accent prefix.
func (c *Controller) CurrentPattern() (rhythm, accent intpattern.Pattern) {
	snap := c.snap.Load()
	if snap == nil {
		return nil, nil
	}
	return snap.Rhythm.Clone(), snap.Accents.AccentLayer()
}

// AccentMap returns the accent flags of the first rhythm cycle, for
// visualizers.
func (c *Controller) AccentMap() intpattern.Pattern {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.Accents.MapForCycle(0)
}

// StepsPerQuarter exposes the published clock rate.
func (c *Controller) StepsPerQuarter() float64 {
	snap := c.snap.Load()
	if snap == nil {
		return intseq.DefaultStepsPerQuarter
	}
	return snap.StepsPerQuarter
}

// UPI returns the last successfully applied input.
func (c *Controller) UPI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SceneIndex returns the active scene position and scene count.
func (c *Controller) SceneIndex() (index, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scenes == nil {
		return 0, 0
	}
	return c.scenes.Index(), c.scenes.Count()
}

// SaveState exports the reproducible session state.
func (c *Controller) SaveState() *intconfig.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := intconfig.DefaultConfig()
	cfg.UPI = c.text
	cfg.GateSteps = c.cfg.gateSteps
	cfg.AutoLength = c.cfg.autoLength
	snaps := c.store.Snapshot()
	if len(snaps) > 0 {
		cfg.Progressive = make(map[string]intconfig.SavedProgressive, len(snaps))
		for anchor, sn := range snaps {
			saved := intconfig.SavedProgressive{Count: sn.Count}
			if sn.Accumulated != nil {
				saved.Accumulated = intpattern.FormatBinary(sn.Accumulated)
			}
			cfg.Progressive[anchor] = saved
		}
	}
	return cfg
}

// LoadState applies a saved session: the input is reparsed and the
// progressive counts replayed, reproducing the live pattern exactly.
func (c *Controller) LoadState(cfg *intconfig.Config) error {
	c.mu.Lock()
	c.cfg.gateSteps = cfg.GateSteps
	if c.cfg.gateSteps <= 0 {
		c.cfg.gateSteps = 1
	}
	c.cfg.autoLength = cfg.AutoLength
	c.store.Clear()
	c.scenes = nil
	c.resetReq.Store(true)
	c.mu.Unlock()

	if err := c.SetUPI(cfg.UPI); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(cfg.Progressive) > 0 {
		// Evaluate every scene once so all progressive anchors exist
		// before the snapshot is replayed onto them.
		env := &intupi.Env{Rand: c.rng, Progressives: c.store}
		for _, scene := range c.prog.Scenes {
			if _, err := intupi.Eval(scene.Expr, env); err != nil {
				return err
			}
		}
		snaps := make(map[string]intprog.Snap, len(cfg.Progressive))
		for anchor, saved := range cfg.Progressive {
			sn := intprog.Snap{Count: saved.Count}
			if saved.Accumulated != "" {
				sn.Accumulated = intpattern.BinaryPattern(saved.Accumulated, 0)
			}
			snaps[anchor] = sn
		}
		c.store.Restore(snaps)
	}
	return c.compileAndPublish()
}

// progressiveAnchors collects the progressive state keys reachable
// from a scene expression.
func progressiveAnchors(n intupi.Node) []string {
	var out []string
	var walk func(intupi.Node)
	walk = func(n intupi.Node) {
		switch x := n.(type) {
		case intupi.Progressive:
			out = append(out, x.Anchor)
			walk(x.X)
		case intupi.Accented:
			walk(x.Accent)
			walk(x.Rhythm)
		case intupi.Binary:
			walk(x.L)
			walk(x.R)
		case intupi.StutterNode:
			walk(x.X)
		case intupi.QuantizeNode:
			walk(x.X)
		case intupi.Invert:
			walk(x.X)
		case intupi.Reverse:
			walk(x.X)
		}
	}
	walk(n)
	return out
}
