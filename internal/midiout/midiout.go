// Package midiout translates scheduler step events into MIDI notes.
// Accented onsets play their own note and velocity so a drum host can
// map them to an alternate articulation.
package midiout

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"github.com/cbegin/upiseq-go/internal/config"
	"github.com/cbegin/upiseq-go/internal/sequencer"
)

// Output sends step events to one MIDI out port.
type Output struct {
	send func(gomidi.Message) error
	port drivers.Out
	cfg  config.MIDIConfig
}

// Ports lists the available MIDI output port names.
func Ports() []string {
	outs := gomidi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, p := range outs {
		names = append(names, p.String())
	}
	return names
}

// Open connects to the port named in cfg. An empty port name takes
// the first available port; a partial name matches by substring.
func Open(cfg config.MIDIConfig) (*Output, error) {
	outs := gomidi.GetOutPorts()
	if len(outs) == 0 {
		return nil, fmt.Errorf("midiout: no output ports")
	}
	var port drivers.Out
	if cfg.PortName == "" {
		port = outs[0]
	} else {
		for _, p := range outs {
			if strings.Contains(p.String(), cfg.PortName) {
				port = p
				break
			}
		}
		if port == nil {
			return nil, fmt.Errorf("midiout: port %q not found", cfg.PortName)
		}
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("midiout: open %q: %w", port.String(), err)
	}
	return &Output{send: send, port: port, cfg: cfg}, nil
}

// PortName returns the connected port's name.
func (o *Output) PortName() string {
	return o.port.String()
}

// Send translates one step event. Sample offsets are ignored; the
// caller is responsible for pacing blocks in real time.
func (o *Output) Send(e sequencer.StepEvent) error {
	ch := uint8(o.cfg.Channel)
	note, vel := uint8(o.cfg.Note), uint8(o.cfg.Velocity)
	if e.Accented {
		note, vel = uint8(o.cfg.AccentNote), uint8(o.cfg.AccentVelocity)
	}
	switch e.Kind {
	case sequencer.OnsetStart:
		return o.send(gomidi.NoteOn(ch, note, vel))
	case sequencer.OnsetRelease:
		return o.send(gomidi.NoteOff(ch, note))
	}
	return nil
}

// Silence releases both mapped notes, for shutdown.
func (o *Output) Silence() {
	ch := uint8(o.cfg.Channel)
	o.send(gomidi.NoteOff(ch, uint8(o.cfg.Note)))
	o.send(gomidi.NoteOff(ch, uint8(o.cfg.AccentNote)))
}

// Close releases the driver resources.
func (o *Output) Close() {
	gomidi.CloseDriver()
}
