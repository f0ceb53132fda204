// Package theme holds the terminal styling for the pattern grid:
// lipgloss styles plus a small color ramp for onset density.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Symbols are the grid glyphs.
type Symbols struct {
	Rest     rune
	Onset    rune
	Accent   rune
	Playhead rune
}

// Theme styles the grid renderer.
type Theme struct {
	Symbols  Symbols
	Title    lipgloss.Style
	Rest     lipgloss.Style
	Onset    lipgloss.Style
	Accent   lipgloss.Style
	Playhead lipgloss.Style
	Error    lipgloss.Style
	Hint     lipgloss.Style
}

// New builds the default theme: a blue-to-magenta ramp with the
// accent at the hot end.
func New() *Theme {
	base, _ := colorful.Hex("#5f87d7")
	hot, _ := colorful.Hex("#ff5faf")
	mid := base.BlendLuv(hot, 0.5)
	return &Theme{
		Symbols: Symbols{
			Rest:     '·',
			Onset:    '●',
			Accent:   '◆',
			Playhead: '▶',
		},
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(base.Hex())),
		Rest:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Onset:    lipgloss.NewStyle().Foreground(lipgloss.Color(mid.Hex())),
		Accent:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hot.Hex())),
		Playhead: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// DensityColor maps an onset density in [0,1] onto the ramp, for
// scene overview rows.
func (t *Theme) DensityColor(density float64) lipgloss.Color {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}
	base, _ := colorful.Hex("#5f87d7")
	hot, _ := colorful.Hex("#ff5faf")
	return lipgloss.Color(base.BlendLuv(hot, density).Clamped().Hex())
}

// StepGlyph picks the glyph for one grid cell.
func (t *Theme) StepGlyph(onset, accented, playhead bool) string {
	switch {
	case playhead:
		return t.Playhead.Render(string(t.Symbols.Playhead))
	case accented:
		return t.Accent.Render(string(t.Symbols.Accent))
	case onset:
		return t.Onset.Render(string(t.Symbols.Onset))
	}
	return t.Rest.Render(string(t.Symbols.Rest))
}

// SceneLabel renders "scene i/n" with the active scene highlighted.
func (t *Theme) SceneLabel(index, count int) string {
	return t.Hint.Render(fmt.Sprintf("scene %d/%d", index+1, count))
}
