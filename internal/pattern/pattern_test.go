package pattern

import (
	"math/rand"
	"testing"
)

func newTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func bits(s string) Pattern {
	return BinaryPattern(s, 0)
}

func checkPattern(t *testing.T, got Pattern, want string) {
	t.Helper()
	if !got.Equal(bits(want)) {
		t.Fatalf("expected %s, got %s", want, FormatBinary(got))
	}
}

func TestRotate(t *testing.T) {
	p := bits("10010010")
	checkPattern(t, Rotate(p, 0), "10010010")
	checkPattern(t, Rotate(p, 1), "00100101")
	checkPattern(t, Rotate(p, 3), "10010100")
	checkPattern(t, Rotate(p, 8), "10010010")
	checkPattern(t, Rotate(p, -1), "01001001")
	checkPattern(t, Rotate(p, -9), "01001001")
}

func TestRotateRoundTrip(t *testing.T) {
	p := bits("1101000100")
	for k := -12; k <= 12; k++ {
		if !Rotate(Rotate(p, k), -k).Equal(p) {
			t.Fatalf("rotate by %d then %d did not restore pattern", k, -k)
		}
	}
}

func TestRotateEmpty(t *testing.T) {
	if got := Rotate(Pattern{}, 5); len(got) != 0 {
		t.Fatalf("expected empty pattern, got %s", FormatBinary(got))
	}
}

func TestInvertIsInvolution(t *testing.T) {
	p := bits("10010010")
	checkPattern(t, Invert(p), "01101101")
	if !Invert(Invert(p)).Equal(p) {
		t.Fatal("double inversion did not restore pattern")
	}
}

func TestReverseIsInvolution(t *testing.T) {
	p := bits("11010000")
	checkPattern(t, Reverse(p), "00001011")
	if !Reverse(Reverse(p)).Equal(p) {
		t.Fatal("double reversal did not restore pattern")
	}
}

func TestUnionSameLength(t *testing.T) {
	checkPattern(t, Union(bits("1000"), bits("0010")), "1010")
}

func TestUnionExpandsToLCM(t *testing.T) {
	// len 4 and len 6 expand to 12.
	got := Union(bits("1000"), bits("100100"))
	checkPattern(t, got, "100110101100")
}

func TestUnionEmptyIdentity(t *testing.T) {
	p := bits("1010")
	checkPattern(t, Union(p, Pattern{}), "1010")
	checkPattern(t, Union(Pattern{}, p), "1010")
}

func TestDiffRemovesOnsets(t *testing.T) {
	checkPattern(t, Diff(bits("1011"), bits("0011")), "1000")
}

func TestDiffExpandsToLCM(t *testing.T) {
	got := Diff(bits("1111"), bits("10"))
	checkPattern(t, got, "0101")
}

func TestStutter(t *testing.T) {
	checkPattern(t, Stutter(bits("101"), 2), "110011")
	checkPattern(t, Stutter(bits("10"), 3), "111000")
	checkPattern(t, Stutter(bits("101"), 1), "101")
	checkPattern(t, Stutter(bits("101"), 0), "101")
}

func TestConcat(t *testing.T) {
	checkPattern(t, Concat(bits("10"), bits("01")), "1001")
	checkPattern(t, Concat(Pattern{}, bits("11")), "11")
}

func TestExpand(t *testing.T) {
	checkPattern(t, Expand(bits("10"), 6), "101010")
	checkPattern(t, Expand(bits("100"), 4), "1001")
	if got := Expand(Pattern{}, 4); got.Onsets() != 0 || len(got) != 4 {
		t.Fatalf("expected 4 rests, got %s", FormatBinary(got))
	}
}

func TestOnsetPrefix(t *testing.T) {
	pre := OnsetPrefix(bits("10010010"))
	want := []int{0, 1, 1, 1, 2, 2, 2, 3, 3}
	if len(pre) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(pre))
	}
	for i := range want {
		if pre[i] != want[i] {
			t.Fatalf("prefix[%d]: expected %d, got %d", i, want[i], pre[i])
		}
	}
}

func TestGCDLCM(t *testing.T) {
	if g := GCD(12, 8); g != 4 {
		t.Fatalf("gcd(12,8): expected 4, got %d", g)
	}
	if l := LCM(4, 6); l != 12 {
		t.Fatalf("lcm(4,6): expected 12, got %d", l)
	}
	if l := LCM(0, 6); l != 0 {
		t.Fatalf("lcm(0,6): expected 0, got %d", l)
	}
}

func TestPolygonSquareOnEight(t *testing.T) {
	checkPattern(t, Polygon(4, 0, 8), "10101010")
}

func TestPolygonOffset(t *testing.T) {
	checkPattern(t, Polygon(4, 1, 8), "01010101")
	checkPattern(t, Polygon(4, -1, 8), "01010101")
	checkPattern(t, Polygon(4, 9, 8), "01010101")
}

func TestPolygonDefaultSteps(t *testing.T) {
	checkPattern(t, Polygon(5, 0, 0), "11111")
}

func TestPolygonTriangleOnTwelve(t *testing.T) {
	checkPattern(t, Polygon(3, 0, 12), "100010001000")
}

func TestMorseSingleLetters(t *testing.T) {
	checkPattern(t, Morse("e"), "1")
	checkPattern(t, Morse("t"), "10")
	checkPattern(t, Morse("a"), "110")
	checkPattern(t, Morse("s"), "111")
}

func TestMorseRawCode(t *testing.T) {
	// Unmapped runes pass through, so raw dot/dash text works.
	checkPattern(t, Morse(".-"), "110")
	checkPattern(t, Morse(". ."), "101")
}

func TestMorseWordSpacing(t *testing.T) {
	// "e e" is dot, rest, dot.
	checkPattern(t, Morse("e e"), "101")
}

func TestRandomFixedOnsetCount(t *testing.T) {
	rng := newTestRNG(1)
	for onsets := 0; onsets <= 16; onsets++ {
		p := RandomFixed(onsets, 16, rng)
		if len(p) != 16 {
			t.Fatalf("expected length 16, got %d", len(p))
		}
		if p.Onsets() != onsets {
			t.Fatalf("expected %d onsets, got %d", onsets, p.Onsets())
		}
	}
}

func TestRandomFixedClampsOnsets(t *testing.T) {
	p := RandomFixed(10, 4, newTestRNG(2))
	if p.Onsets() != 4 {
		t.Fatalf("expected 4 onsets, got %d", p.Onsets())
	}
}

func TestRandomSeedDeterminism(t *testing.T) {
	a := RandomFixed(5, 16, newTestRNG(42))
	b := RandomFixed(5, 16, newTestRNG(42))
	if !a.Equal(b) {
		t.Fatalf("same seed produced %s and %s", FormatBinary(a), FormatBinary(b))
	}
}

func TestRandomBellBounds(t *testing.T) {
	rng := newTestRNG(7)
	for i := 0; i < 50; i++ {
		p := RandomBell(8, rng)
		if len(p) != 8 {
			t.Fatalf("expected length 8, got %d", len(p))
		}
		if n := p.Onsets(); n < 0 || n > 8 {
			t.Fatalf("onset count %d out of range", n)
		}
	}
}

func TestBellStepsLength(t *testing.T) {
	rng := newTestRNG(3)
	p := BellSteps(9, rng)
	if len(p) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(p))
	}
	if len(BellSteps(0, rng)) != 0 {
		t.Fatal("expected empty segment for zero steps")
	}
}

func TestMorseCaseInsensitiveLetters(t *testing.T) {
	checkPattern(t, Morse("A"), "110")
	if !Morse("SOS").Equal(Morse("sos")) {
		t.Fatalf("expected SOS and sos to match, got %s and %s",
			FormatBinary(Morse("SOS")), FormatBinary(Morse("sos")))
	}
}

func TestQuantizeDownToFour(t *testing.T) {
	// Onsets 0, 3, 6 of eight steps land on 0, 2, 3 of four.
	checkPattern(t, Quantize(bits("10010010"), 4, true), "1011")
}

func TestQuantizeUpToSixteen(t *testing.T) {
	checkPattern(t, Quantize(bits("10010010"), 16, true), "1000001000001000")
}

func TestQuantizeCounterclockwiseMirrors(t *testing.T) {
	checkPattern(t, Quantize(bits("10010010"), 4, false), "1101")
}

func TestQuantizeSameCountIsIdentity(t *testing.T) {
	p := bits("10010010")
	checkPattern(t, Quantize(p, 8, true), "10010010")
	checkPattern(t, Quantize(p, 8, false), "10010010")
}

func TestQuantizeMergesCollidingOnsets(t *testing.T) {
	// Four adjacent onsets fold onto three steps of the coarser grid.
	checkPattern(t, Quantize(bits("11110000"), 4, true), "1110")
}

func TestQuantizeEmptyKeepsLength(t *testing.T) {
	checkPattern(t, Quantize(bits("0000"), 3, true), "000")
	if got := Quantize(Pattern{}, 5, true); len(got) != 5 || got.Onsets() != 0 {
		t.Fatalf("expected 5 rests, got %s", FormatBinary(got))
	}
}
