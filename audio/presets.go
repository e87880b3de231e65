package audio

import "fmt"

// Device is a settable/gettable property surface; *Instrument satisfies it
// through its embedded *props.Store.
type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

// presets are canned property sets for the audition instrument, useful for
// previewing a clip's character (kick weight, hat brightness) before it's
// assigned to a slot, per SPEC_FULL.md §4.11.
var presets = map[string]preset{
	"sub-bass": preset{
		"level":       3.,
		"env.decay":   0.1,
		"env.sustain": 0.,
		"osc1.wave":   "saw",
		"osc2.wave":   "saw",
		"cutoff":      900.0,
	},
	"kick-thump": preset{
		"level":       4.,
		"env.attack":  0.001,
		"env.decay":   0.15,
		"env.sustain": 0.,
		"env.release": 0.05,
		"osc1.wave":   "sine",
		"osc2.wave":   "off",
		"cutoff":      200.0,
	},
	"hat-tick": preset{
		"level":       1.5,
		"env.attack":  0.0005,
		"env.decay":   0.03,
		"env.sustain": 0.,
		"env.release": 0.01,
		"osc1.wave":   "square",
		"osc2.wave":   "square",
		"cutoff":      9000.0,
	},
}

// LoadPreset applies the named preset's properties onto d, reachable from
// the control language's "preset" command.
func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}
