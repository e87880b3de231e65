// Package tempo converts between sample positions and musical time (beats)
// and snaps beat values up to a quantization grid. It implements the narrow
// "tempo map" contract the trigger box needs: convert a slice edge to
// beats, and snap a beat value up to the next grid line.
package tempo

import (
	"fmt"
	"math"
)

// Quantization is a musical-time offset expressed as bars, beats and ticks.
// Only (bars == 0) is currently honored; see DESIGN.md for the rationale.
type Quantization struct {
	Bars  int
	Beats int
	Ticks int
}

// TicksPerBeat matches common DAW convention (960 PPQN, as used by the
// teacher engine's own sequencer).
const TicksPerBeat = 960

// Beats is a musical-time position measured in beats (with fractional
// ticks folded in), a float64 for simplicity since the core only needs
// ordering and snapping, not sample-exact rational arithmetic.
type Beats float64

// Grid returns the quantization interval expressed in beats.
func (q Quantization) Grid() Beats {
	return Beats(q.Beats) + Beats(q.Ticks)/TicksPerBeat
}

// Map is a fixed tempo (no time signature) used to convert between sample
// positions and musical beats. Grounded on the teacher engine's
// Sequencer.Tick arithmetic (PPQN, samples-per-pulse), generalized here
// into a bidirectional sample<->beat conversion instead of a one-shot
// scheduler tick.
type Map struct {
	sampleRate float64
	bpm        float64
}

func NewMap(sampleRate, bpm float64) *Map {
	return &Map{sampleRate: sampleRate, bpm: bpm}
}

func (m *Map) BPM() float64 { return m.bpm }

// samplesPerBeat is the number of audio samples in one beat at the
// configured tempo, mirroring the teacher's samplesPerPulse computed at
// PPQN granularity but expressed directly in beats.
func (m *Map) samplesPerBeat() float64 {
	return m.sampleRate * 60.0 / m.bpm
}

// SampleToBeats converts an absolute sample position to a beat position.
func (m *Map) SampleToBeats(sample int64) Beats {
	return Beats(float64(sample) / m.samplesPerBeat())
}

// BeatsToSample converts a beat position back to an absolute sample
// position, rounding to the nearest sample.
func (m *Map) BeatsToSample(b Beats) int64 {
	return int64(math.Round(float64(b) * m.samplesPerBeat()))
}

// SnapUp snaps beats up to the next multiple of the quantization grid. It
// returns an error if q.Bars != 0 (see DESIGN.md open question #1): bar-level
// quantization is rejected rather than silently ignored, since Ardour's own
// original left this branch computing an uninitialized event time.
func (m *Map) SnapUp(b Beats, q Quantization) (Beats, error) {
	if q.Bars != 0 {
		return 0, fmt.Errorf("tempo: bar-level quantization is not supported (bars=%d)", q.Bars)
	}
	grid := q.Grid()
	if grid <= 0 {
		return b, nil
	}
	n := math.Ceil(float64(b) / float64(grid))
	return Beats(n * float64(grid)), nil
}
