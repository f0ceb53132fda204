// Package config persists user settings and session state to
// ~/.config/upiseq/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MIDIConfig selects the output port and note mapping used by the
// MIDI adapter. Accented onsets get their own note and velocity.
type MIDIConfig struct {
	PortName       string `json:"portName,omitempty"`
	Channel        int    `json:"channel,omitempty"`
	Note           int    `json:"note,omitempty"`
	Velocity       int    `json:"velocity,omitempty"`
	AccentNote     int    `json:"accentNote,omitempty"`
	AccentVelocity int    `json:"accentVelocity,omitempty"`
}

// SavedProgressive is the persisted trigger state of one progressive
// anchor. Accumulated holds the grown pattern of a lengthening entry
// as 0/1 digits; other kinds replay from the count.
type SavedProgressive struct {
	Count       int    `json:"count"`
	Accumulated string `json:"accumulated,omitempty"`
}

// Config is the persisted session: the last pattern input and the
// playback settings needed to reproduce the live state.
type Config struct {
	UPI         string                      `json:"upi,omitempty"`
	GateSteps   float64                     `json:"gateSteps,omitempty"`
	AutoLength  bool                        `json:"autoLength,omitempty"`
	Tempo       float64                     `json:"tempo,omitempty"`
	MIDI        MIDIConfig                  `json:"midi,omitempty"`
	Progressive map[string]SavedProgressive `json:"progressive,omitempty"`
}

// DefaultConfig returns the out-of-the-box settings.
func DefaultConfig() *Config {
	return &Config{
		UPI:       "E(3,8)",
		GateSteps: 1,
		Tempo:     120,
		MIDI: MIDIConfig{
			Channel:        0,
			Note:           36,
			Velocity:       96,
			AccentNote:     36,
			AccentVelocity: 127,
		},
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "upiseq"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults when none
// exists yet.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to its default location.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to an explicit path.
func (c *Config) SaveFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
