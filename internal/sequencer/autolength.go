package sequencer

// lengthException pins a (steps, onsets) pair to a fixed duration in
// beats, overriding the density rules.
type lengthKey struct{ steps, onsets int }

var lengthExceptions = map[lengthKey]float64{
	{7, 3}:  2,
	{8, 3}:  2,
	{16, 3}: 4,
	{5, 3}:  2.5,
	{5, 4}:  1.25,
}

// AutoBeats picks a musical duration, in quarter-note beats, for a
// pattern of the given step and onset count. Short patterns get short
// durations, sparse patterns stretch, dense patterns compress. An
// exception table entry wins over the density rules.
func AutoBeats(steps, onsets int) float64 {
	if steps <= 0 {
		return 1
	}
	if beats, ok := lengthExceptions[lengthKey{steps, onsets}]; ok {
		return beats
	}

	var beats float64
	switch {
	case steps <= 4:
		beats = 1
	case steps <= 8:
		beats = 2
	case steps <= 16:
		beats = 4
	default:
		beats = 8
	}

	density := float64(onsets) / float64(steps)
	switch {
	case density < 0.2:
		beats *= 2
	case density < 0.4:
		beats *= 1.5
	case density > 0.8:
		beats *= 0.5
	case density > 0.6:
		beats *= 0.75
	}

	if beats < 0.5 {
		beats = 0.5
	}
	if beats > 16 {
		beats = 16
	}
	return beats
}

// AutoStepsPerQuarter converts the heuristic duration into the step
// rate the clock consumes.
func AutoStepsPerQuarter(steps, onsets int) float64 {
	if steps <= 0 {
		return DefaultStepsPerQuarter
	}
	return float64(steps) / AutoBeats(steps, onsets)
}
