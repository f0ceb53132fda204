package progression

// SceneList tracks which branch of a '|' alternation is active. The
// scene texts double as identity: a new input with the same texts in
// the same order keeps the current index, anything else rebuilds at
// scene zero.
type SceneList struct {
	texts []string
	index int
}

// NewSceneList starts at scene zero.
func NewSceneList(texts []string) *SceneList {
	return &SceneList{texts: append([]string(nil), texts...)}
}

// SameAs reports whether the given texts match this list exactly.
func (s *SceneList) SameAs(texts []string) bool {
	if len(texts) != len(s.texts) {
		return false
	}
	for i := range texts {
		if texts[i] != s.texts[i] {
			return false
		}
	}
	return true
}

// Index returns the active scene index.
func (s *SceneList) Index() int {
	return s.index
}

// Count returns the scene count.
func (s *SceneList) Count() int {
	return len(s.texts)
}

// Text returns the active scene's surface text.
func (s *SceneList) Text() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[s.index]
}

// Advance moves to the next scene, wrapping at the end, and returns
// the new index.
func (s *SceneList) Advance() int {
	if len(s.texts) == 0 {
		return 0
	}
	s.index = (s.index + 1) % len(s.texts)
	return s.index
}

// Reset returns to scene zero.
func (s *SceneList) Reset() {
	s.index = 0
}
