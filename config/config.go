// Package config loads and saves the engine's on-disk JSON configuration,
// grounded on the same os.UserHomeDir + encoding/json pattern used by the
// sequencer example pack's own config package.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Slot is one bank slot's persisted configuration: which sample file to
// load and its launch policy, mirroring the fields the trigger persistence
// shim itself round-trips.
type Slot struct {
	Name         string `json:"name"`
	File         string `json:"file,omitempty"`
	LaunchStyle  string `json:"launch_style"`
	FollowAction [2]string `json:"follow_action"`
	Quantization string `json:"quantization"`
	Legato       bool   `json:"legato"`
}

// Config is the engine's top-level configuration: audio device settings,
// the MIDI controller to bind, and the initial slot bank.
type Config struct {
	SampleRate int    `json:"sample_rate"`
	BufferSize int    `json:"buffer_size"`
	BPM        float64 `json:"bpm"`
	MidiInput  string `json:"midi_input"`
	Slots      []Slot `json:"slots"`
}

// DefaultConfig returns the configuration used when no config file exists
// yet.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		BufferSize: 512,
		BPM:        120,
		Slots:      make([]Slot, 10),
	}
}

// Dir returns the directory the engine's config file lives in.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".triggerbox"), nil
}

// Path returns the full path to the engine's config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file, returning DefaultConfig if none exists yet.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file, creating its directory if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
