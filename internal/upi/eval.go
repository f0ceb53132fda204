package upi

import (
	"math/rand"

	"github.com/cbegin/upiseq-go/internal/pattern"
)

// MaxPatternLen bounds the step count a compile may produce through
// combinator expansion or stuttering.
const MaxPatternLen = 65536

// Compiled is the result of evaluating one scene: a rhythm and an
// optional accent layer. A nil Accent means no onset is ever
// accented.
type Compiled struct {
	Rhythm pattern.Pattern
	Accent pattern.Pattern
}

// ProgressiveResolver supplies the persistent trigger state for
// Progressive nodes. Resolve receives the anchor key, the modifier
// and the freshly evaluated base rhythm, and returns the pattern as
// of the current trigger count.
type ProgressiveResolver interface {
	Resolve(anchor string, kind ProgKind, step int, base pattern.Pattern) pattern.Pattern
}

// Env carries the evaluation dependencies. A nil Rand falls back to a
// fixed-seed source; a nil Progressives resolves every progressive to
// its freshly created state.
type Env struct {
	Rand         *rand.Rand
	Progressives ProgressiveResolver
}

func (e *Env) rng() *rand.Rand {
	if e != nil && e.Rand != nil {
		return e.Rand
	}
	return rand.New(rand.NewSource(1))
}

// Eval compiles a scene expression to its pattern. Generator domain
// excesses clamp rather than fail; only budget overruns error.
func Eval(n Node, env *Env) (Compiled, error) {
	switch x := n.(type) {
	case Literal:
		return Compiled{Rhythm: x.Bits.Clone()}, nil
	case Euclid:
		var p pattern.Pattern
		if x.Anti {
			p = pattern.AntiEuclidean(x.Onsets, x.Steps)
		} else {
			p = pattern.Euclidean(x.Onsets, x.Steps)
		}
		if x.Offset != 0 {
			p = pattern.Rotate(p, x.Offset)
		}
		return Compiled{Rhythm: p}, nil
	case BarlowGen:
		return Compiled{Rhythm: pattern.Barlow(x.Onsets, x.Steps, x.Wolrab)}, nil
	case PolygonGen:
		return Compiled{Rhythm: pattern.Polygon(x.Sides, x.Offset, x.Steps)}, nil
	case RandomGen:
		if x.Bell {
			return Compiled{Rhythm: pattern.RandomBell(x.Steps, env.rng())}, nil
		}
		return Compiled{Rhythm: pattern.RandomFixed(x.Onsets, x.Steps, env.rng())}, nil
	case MorseGen:
		return Compiled{Rhythm: pattern.Morse(x.Text)}, nil
	case Invert:
		c, err := Eval(x.X, env)
		if err != nil {
			return Compiled{}, err
		}
		c.Rhythm = pattern.Invert(c.Rhythm)
		return c, nil
	case Reverse:
		c, err := Eval(x.X, env)
		if err != nil {
			return Compiled{}, err
		}
		c.Rhythm = pattern.Reverse(c.Rhythm)
		return c, nil
	case Binary:
		l, err := Eval(x.L, env)
		if err != nil {
			return Compiled{}, err
		}
		r, err := Eval(x.R, env)
		if err != nil {
			return Compiled{}, err
		}
		if n := pattern.LCM(len(l.Rhythm), len(r.Rhythm)); n > MaxPatternLen {
			return Compiled{}, &BudgetError{What: "combined pattern length", Size: n}
		}
		var out pattern.Pattern
		if x.Op == OpUnion {
			out = pattern.Union(l.Rhythm, r.Rhythm)
		} else {
			out = pattern.Diff(l.Rhythm, r.Rhythm)
		}
		return Compiled{Rhythm: out}, nil
	case StutterNode:
		c, err := Eval(x.X, env)
		if err != nil {
			return Compiled{}, err
		}
		if n := len(c.Rhythm) * x.K; n > MaxPatternLen {
			return Compiled{}, &BudgetError{What: "stuttered pattern length", Size: n}
		}
		c.Rhythm = pattern.Stutter(c.Rhythm, x.K)
		return c, nil
	case QuantizeNode:
		c, err := Eval(x.X, env)
		if err != nil {
			return Compiled{}, err
		}
		c.Rhythm = pattern.Quantize(c.Rhythm, x.Steps, x.Clockwise)
		return c, nil
	case Accented:
		accent, err := Eval(x.Accent, env)
		if err != nil {
			return Compiled{}, err
		}
		rhythm, err := Eval(x.Rhythm, env)
		if err != nil {
			return Compiled{}, err
		}
		return Compiled{Rhythm: rhythm.Rhythm, Accent: accent.Rhythm}, nil
	case Progressive:
		c, err := Eval(x.X, env)
		if err != nil {
			return Compiled{}, err
		}
		c.Rhythm = resolveProgressive(env, x, c.Rhythm)
		return c, nil
	}
	return Compiled{}, errAt(0, UnexpectedToken, "unhandled node %T", n)
}

// resolveProgressive consults the persistent store when one is wired,
// otherwise derives the freshly created state: an offset already
// shows its first rotation, lengthening and transformation start at
// the base.
func resolveProgressive(env *Env, x Progressive, base pattern.Pattern) pattern.Pattern {
	if env != nil && env.Progressives != nil {
		return env.Progressives.Resolve(x.Anchor, x.Kind, x.Step, base)
	}
	if x.Kind == ProgOffset {
		return pattern.Rotate(base, x.Step)
	}
	return base
}
