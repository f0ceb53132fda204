// Package progression holds the persistent state behind progressive
// UPI modifiers. Entries are keyed by the surface text of the scene
// that declared them, so state survives recompiles of an unchanged
// input, and an LRU cap keeps long sessions bounded.
package progression

import (
	"container/list"
	"math/rand"

	"github.com/cbegin/upiseq-go/internal/pattern"
	"github.com/cbegin/upiseq-go/internal/upi"
)

// DefaultCap is the default entry limit of a Store.
const DefaultCap = 256

type entry struct {
	kind     upi.ProgKind
	step     int
	base     pattern.Pattern
	count    int
	rotation int
	current  pattern.Pattern
	target   int
	elem     *list.Element
}

// Store maps progressive anchors to their trigger state. Not safe for
// concurrent use; the controller confines it to the control side.
type Store struct {
	cap     int
	rng     *rand.Rand
	entries map[string]*entry
	lru     *list.List
}

// NewStore builds a store with the given entry cap and random source.
// cap <= 0 uses DefaultCap; a nil rng gets a fixed seed.
func NewStore(capacity int, rng *rand.Rand) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Store{
		cap:     capacity,
		rng:     rng,
		entries: make(map[string]*entry),
		lru:     list.New(),
	}
}

// Resolve implements upi.ProgressiveResolver. It returns the pattern
// for the anchor's current trigger state, creating the entry on first
// sight. A fresh offset entry already shows its first rotation;
// lengthening and transformation start at the base pattern.
func (s *Store) Resolve(anchor string, kind upi.ProgKind, step int, base pattern.Pattern) pattern.Pattern {
	e, ok := s.entries[anchor]
	if !ok {
		e = s.insert(anchor, kind, step, base)
	} else {
		e.base = base.Clone()
		s.lru.MoveToFront(e.elem)
	}
	return s.derive(e, base)
}

func (s *Store) insert(anchor string, kind upi.ProgKind, step int, base pattern.Pattern) *entry {
	e := &entry{kind: kind, step: step, base: base.Clone()}
	e.resetState()
	e.elem = s.lru.PushFront(anchor)
	s.entries[anchor] = e
	for len(s.entries) > s.cap {
		oldest := s.lru.Back()
		delete(s.entries, oldest.Value.(string))
		s.lru.Remove(oldest)
	}
	return e
}

// resetState returns an entry to its freshly created form.
func (e *entry) resetState() {
	switch e.kind {
	case upi.ProgOffset:
		e.rotation = e.step
		e.count = 1
	case upi.ProgLengthen:
		e.current = e.base.Clone()
		e.count = 0
	case upi.ProgTransform:
		e.current = e.base.Clone()
		e.target = e.step
		if e.target > len(e.base) {
			e.target = len(e.base)
		}
		e.count = 0
	}
}

func (s *Store) derive(e *entry, base pattern.Pattern) pattern.Pattern {
	switch e.kind {
	case upi.ProgOffset:
		return pattern.Rotate(base, e.rotation)
	default:
		return e.current.Clone()
	}
}

// Advance applies one trigger to the anchor's entry. Unknown anchors
// are ignored; a transform that has reached its target is a no-op.
func (s *Store) Advance(anchor string) {
	e, ok := s.entries[anchor]
	if !ok {
		return
	}
	s.lru.MoveToFront(e.elem)
	switch e.kind {
	case upi.ProgOffset:
		e.rotation += e.step
		e.count++
	case upi.ProgLengthen:
		e.current = pattern.Concat(e.current, pattern.BellSteps(e.step, s.rng))
		e.count++
	case upi.ProgTransform:
		onsets := e.current.Onsets()
		if onsets == e.target {
			return
		}
		next := onsets + 1
		if e.target < onsets {
			next = onsets - 1
		}
		e.current = pattern.BarlowTransform(e.current, next, false)
		e.count++
	}
}

// Reset returns the anchor's entry to its first-trigger state.
func (s *Store) Reset(anchor string) {
	if e, ok := s.entries[anchor]; ok {
		e.resetState()
	}
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.entries = make(map[string]*entry)
	s.lru.Init()
}

// Len returns the live entry count.
func (s *Store) Len() int {
	return len(s.entries)
}

// TriggerCount returns how many triggers the anchor has absorbed, for
// persistence. Unknown anchors report zero.
func (s *Store) TriggerCount(anchor string) int {
	if e, ok := s.entries[anchor]; ok {
		return e.count
	}
	return 0
}

// Snap is the persistable state of one entry. Accumulated is only set
// for lengthening entries, whose random growth cannot be replayed
// from the count alone.
type Snap struct {
	Count       int
	Accumulated pattern.Pattern
}

// Snapshot exports all entries for persistence.
func (s *Store) Snapshot() map[string]Snap {
	out := make(map[string]Snap, len(s.entries))
	for anchor, e := range s.entries {
		sn := Snap{Count: e.count}
		if e.kind == upi.ProgLengthen {
			sn.Accumulated = e.current.Clone()
		}
		out[anchor] = sn
	}
	return out
}

// Restore replays a snapshot onto existing entries. Entries are
// created by a compile pass first; anchors absent from the store are
// ignored.
func (s *Store) Restore(snaps map[string]Snap) {
	for anchor, sn := range snaps {
		e, ok := s.entries[anchor]
		if !ok {
			continue
		}
		e.resetState()
		if e.kind == upi.ProgLengthen && sn.Accumulated != nil {
			e.current = sn.Accumulated.Clone()
			e.count = sn.Count
			continue
		}
		for e.count < sn.Count {
			before := e.count
			s.Advance(anchor)
			if e.count == before {
				break
			}
		}
	}
}
