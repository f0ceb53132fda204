package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	upiseq "github.com/cbegin/upiseq-go"
	"github.com/cbegin/upiseq-go/internal/config"
	"github.com/cbegin/upiseq-go/internal/midiout"
	"github.com/cbegin/upiseq-go/internal/pattern"
	"github.com/cbegin/upiseq-go/internal/theme"
)

const (
	uiSampleRate = 48000.0
	uiBlockSize  = 2400 // one UI tick of audio at 48 kHz
	tickInterval = 50 * time.Millisecond
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	ctrl  *upiseq.Controller
	out   *midiout.Output
	th    *theme.Theme
	cfg   *config.Config
	tempo float64

	input     string
	editing   bool
	applied   string
	errMsg    string
	playing   bool
	samplePos int64
	playStep  int
	quitting  bool
}

func newModel(ctrl *upiseq.Controller, out *midiout.Output, cfg *config.Config, tempo float64, upiText string) model {
	return model{
		ctrl:    ctrl,
		out:     out,
		th:      theme.New(),
		cfg:     cfg,
		tempo:   tempo,
		input:   upiText,
		applied: upiText,
		playing: true,
	}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.out != nil {
				m.out.Silence()
			}
			saved := m.ctrl.SaveState()
			saved.MIDI = m.cfg.MIDI
			saved.Tempo = m.tempo
			_ = saved.Save()
			return m, tea.Quit
		case "i", "enter":
			m.editing = true
			m.input = m.applied
		case "t":
			m.ctrl.Trigger()
		case "r":
			m.ctrl.Reset()
			m.samplePos = 0
			m.playStep = 0
		case "p", " ":
			m.playing = !m.playing
			if !m.playing && m.out != nil {
				m.out.Silence()
			}
		case "+", "=":
			m.tempo += 5
		case "-", "_":
			if m.tempo > 20 {
				m.tempo -= 5
			}
		}

	case tickMsg:
		if m.playing {
			m.processBlock()
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.ctrl.SetUPI(m.input); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.applied = m.input
		m.editing = false
	case "esc":
		m.input = m.applied
		m.editing = false
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	default:
		if msg.Type == tea.KeyRunes {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

// processBlock advances the simulated transport by one UI tick of
// audio and forwards the resulting events.
func (m *model) processBlock() {
	tr := upiseq.Transport{
		Playing:      true,
		TempoBPM:     m.tempo,
		SampleRate:   uiSampleRate,
		QuarterPos:   float64(m.samplePos) / uiSampleRate * m.tempo / 60,
		BlockSamples: uiBlockSize,
	}
	for _, ev := range m.ctrl.ProcessBlock(tr) {
		if ev.Kind == upiseq.OnsetStart {
			m.playStep = ev.StepIndex
		}
		if m.out != nil {
			m.out.Send(ev)
		}
	}
	m.samplePos += uiBlockSize
	rhythm, _ := m.ctrl.CurrentPattern()
	if len(rhythm) > 0 {
		quarters := float64(m.samplePos) / uiSampleRate * m.tempo / 60
		m.playStep = int(quarters*m.ctrl.StepsPerQuarter()) % len(rhythm)
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(m.th.Title.Render("upigrid"))
	b.WriteString("  ")
	idx, count := m.ctrl.SceneIndex()
	if count > 1 {
		b.WriteString(m.th.SceneLabel(idx, count))
		b.WriteString("  ")
	}
	if rhythm, _ := m.ctrl.CurrentPattern(); len(rhythm) > 0 {
		b.WriteString(m.th.Hint.Render(pattern.FormatHex(rhythm)))
	}
	b.WriteString("\n\n")

	prompt := "  "
	line := m.applied
	if m.editing {
		prompt = "> "
		line = m.input + "_"
	}
	b.WriteString(prompt + line + "\n")
	if m.errMsg != "" {
		b.WriteString(m.th.Error.Render("  " + m.errMsg))
	}
	b.WriteString("\n\n")

	b.WriteString(m.viewGrid())
	b.WriteString("\n\n")

	status := fmt.Sprintf("tempo %.0f  %s  ", m.tempo, playState(m.playing))
	if m.out != nil {
		status += "midi " + m.out.PortName()
	} else {
		status += "no midi"
	}
	b.WriteString(m.th.Hint.Render(status))
	b.WriteString("\n")
	b.WriteString(m.th.Hint.Render("[i]nput  [t]rigger  [r]eset  [p]lay/pause  [+/-] tempo  [q]uit"))
	b.WriteString("\n")
	return b.String()
}

// viewGrid renders the rhythm as one glyph per step, wrapped at 32
// steps per row, with accent flags and the playhead overlaid.
func (m model) viewGrid() string {
	rhythm, _ := m.ctrl.CurrentPattern()
	if len(rhythm) == 0 {
		return m.th.Hint.Render("  (no pattern)")
	}
	accents := m.ctrl.AccentMap()

	const perRow = 32
	var rows []string
	for start := 0; start < len(rhythm); start += perRow {
		end := start + perRow
		if end > len(rhythm) {
			end = len(rhythm)
		}
		var row strings.Builder
		row.WriteString("  ")
		for i := start; i < end; i++ {
			accented := i < len(accents) && accents[i]
			row.WriteString(m.th.StepGlyph(rhythm[i], accented, m.playing && i == m.playStep))
			row.WriteString(" ")
		}
		rows = append(rows, row.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func playState(playing bool) string {
	if playing {
		return "playing"
	}
	return "paused"
}

func main() {
	var (
		upiText  = flag.String("upi", "", "initial UPI pattern input (default: saved session)")
		tempo    = flag.Float64("tempo", 120, "tempo in BPM")
		gate     = flag.Float64("gate", 1, "gate length in steps")
		auto     = flag.Bool("auto", false, "pick step rate from the pattern length")
		seed     = flag.Int64("seed", 1, "random seed for R() and lengthening")
		portName = flag.String("port", "", "MIDI output port (substring match, empty = first)")
		noMIDI   = flag.Bool("no-midi", false, "run without a MIDI output")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *portName != "" {
		cfg.MIDI.PortName = *portName
	}

	ctrl := upiseq.New(
		upiseq.WithSeed(*seed),
		upiseq.WithGateSteps(*gate),
		upiseq.WithAutoLength(*auto),
	)
	switch {
	case *upiText != "":
		if err := ctrl.SetUPI(*upiText); err != nil {
			log.Fatal(err)
		}
	case cfg.UPI != "":
		// Resume the saved session, progressive state included.
		if err := ctrl.LoadState(cfg); err != nil {
			log.Fatal(err)
		}
		if cfg.Tempo > 0 {
			*tempo = cfg.Tempo
		}
	default:
		if err := ctrl.SetUPI("E(3,8)"); err != nil {
			log.Fatal(err)
		}
	}

	var out *midiout.Output
	if !*noMIDI {
		out, err = midiout.Open(cfg.MIDI)
		if err != nil {
			// The grid is still useful without a port.
			out = nil
		} else {
			defer out.Close()
		}
	}

	p := tea.NewProgram(newModel(ctrl, out, cfg, *tempo, ctrl.UPI()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
