package trigger

import (
	"sync/atomic"

	"github.com/mrdg/triggerbox/tempo"
)

// Media is the tagged-variant contract a slot's payload implements. Per
// §9's "virtual dispatch becomes a tagged variant" note, audioMedia and
// midiMedia are the two concrete variants; midiMedia is a stub since MIDI
// clip playback is out of scope.
type Media interface {
	Runnable() bool
	Fill(out [][]float32, destOffset, n int, first, loop bool) (written int, exhausted bool)
	Retrigger()
	RelativeReadIndex() int64
	SetLegatoOffset(offset int64)
}

// audioMedia adapts *Clip to the Media interface.
type audioMedia struct {
	clip *Clip
}

func newAudioMedia() *audioMedia { return &audioMedia{clip: NewClip()} }

func (m *audioMedia) Runnable() bool { return m.clip.Loaded() }

func (m *audioMedia) Fill(out [][]float32, destOffset, n int, first, loop bool) (int, bool) {
	return m.clip.Fill(out, destOffset, n, first, loop)
}

func (m *audioMedia) Retrigger()                        { m.clip.Retrigger() }
func (m *audioMedia) RelativeReadIndex() int64           { return m.clip.RelativeReadIndex() }
func (m *audioMedia) SetLegatoOffset(offset int64)       { m.clip.SetLegatoOffset(offset) }

// midiMedia is a placeholder variant: it never reports runnable and never
// produces output, matching the spec's "slot type exists as a placeholder
// but only audio is realized" non-goal.
type midiMedia struct{}

func (midiMedia) Runnable() bool { return false }
func (midiMedia) Fill(out [][]float32, destOffset, n int, first, loop bool) (int, bool) {
	return 0, true
}
func (midiMedia) Retrigger()                  {}
func (midiMedia) RelativeReadIndex() int64    { return 0 }
func (midiMedia) SetLegatoOffset(offset int64) {}

// Slot is one entry in the trigger box's fixed-length bank. It carries the
// shared state machine (state, launch style, follow actions, quantization)
// regardless of media type, plus its concrete Media payload.
type Slot struct {
	Index int
	Name  string

	media Media

	state             State
	launchStyle       LaunchStyle
	followAction      [2]FollowAction
	followProbability int
	quantization      tempo.Quantization
	legato            bool

	bangCount      uint32 // atomic, incremented by producers
	unbangCount    uint32 // atomic, incremented by producers
	requestedState int32  // atomic, encodes State; None means no pending request
}

// NewAudioSlot builds a slot whose media variant is an audio clip.
func NewAudioSlot(index int, name string) *Slot {
	return &Slot{
		Index:             index,
		Name:              name,
		media:             newAudioMedia(),
		state:             Stopped,
		requestedState:    int32(None),
		followProbability: 100,
	}
}

// NewMidiSlot builds a slot whose media variant is the MIDI stub.
func NewMidiSlot(index int, name string) *Slot {
	return &Slot{
		Index:             index,
		Name:              name,
		media:             midiMedia{},
		state:             Stopped,
		requestedState:    int32(None),
		followProbability: 100,
	}
}

func (s *Slot) State() State { return s.state }

// Runnable means the slot has a region loaded and is not currently active.
func (s *Slot) Runnable() bool {
	return s.media.Runnable() && s.state == Stopped
}

// Clip exposes the underlying clip buffer for audio slots, or nil for the
// MIDI stub.
func (s *Slot) Clip() *Clip {
	if am, ok := s.media.(*audioMedia); ok {
		return am.clip
	}
	return nil
}

// Bang is the control-thread entry point for a start stimulus.
func (s *Slot) Bang() { atomic.AddUint32(&s.bangCount, 1) }

// Unbang is the control-thread entry point for a release stimulus.
func (s *Slot) Unbang() { atomic.AddUint32(&s.unbangCount, 1) }

// RequestState replaces (does not queue) the pending explicit
// Stopped/Running request.
func (s *Slot) RequestState(want State) {
	atomic.StoreInt32(&s.requestedState, int32(want))
}

// SetLaunchStyle, SetFollowAction and friends are the non-audio-thread
// configuration surface (§6). They're plain field writes: per §5 the slot
// vector's pointers are stable in steady state and these fields are only
// ever read by the audio thread at slice boundaries, never mutated
// concurrently with a slice in flight for the same slot in normal use.
func (s *Slot) SetLaunchStyle(l LaunchStyle) { s.launchStyle = l }

func (s *Slot) SetFollowAction(which int, action FollowAction) {
	if which < 0 || which > 1 {
		return
	}
	s.followAction[which] = action
}

func (s *Slot) SetFollowActionProbability(p int) error {
	if p < 0 || p > 100 {
		return errBadArgument("follow action probability must be 0..100, got %d", p)
	}
	s.followProbability = p
	return nil
}

// SetQuantization validates and stores the slot's quantization grid.
// bars > 0 is rejected outright rather than silently ignored (DESIGN.md
// open question 1): Ardour's own source left that branch computing an
// uninitialized event time, so this implementation treats it as a
// configuration error instead of reproducing the bug.
func (s *Slot) SetQuantization(q tempo.Quantization) error {
	if q.Bars != 0 {
		return errBadArgument("bar-level quantization is not supported (bars=%d)", q.Bars)
	}
	s.quantization = q
	return nil
}

func (s *Slot) SetLegato(v bool) { s.legato = v }

// processStateRequests implements §4.3.1. Called once per slice per slot
// before any playback. box is used to enqueue this slot on the explicit
// queue and to clear the implicit queue when a bang interrupts a running
// clip.
func processStateRequests(s *Slot, box *Box) {
	// 1. Atomic requested-state exchange.
	requested := State(atomic.SwapInt32(&s.requestedState, int32(None)))
	if requested == Stopped && s.state != WaitingToStop {
		s.state = WaitingToStop
	} else if requested == Running {
		box.queueExplicit(s.Index)
	}

	// 2. Drain bang counter.
	for atomic.LoadUint32(&s.bangCount) > 0 {
		atomic.AddUint32(&s.bangCount, ^uint32(0))
		switch {
		case s.state == Running && s.launchStyle == OneShot:
			s.state = WaitingForRetrigger
		case s.state == Running:
			s.state = WaitingToStop
			box.implicit.clear()
		case s.state == Stopped:
			box.queueExplicit(s.Index)
		default:
			// Waiting* or Stopping: a stacked bang is absorbed.
		}
	}

	// 3. Drain unbang counter, meaningful only for Gate/Repeat.
	for atomic.LoadUint32(&s.unbangCount) > 0 {
		atomic.AddUint32(&s.unbangCount, ^uint32(0))
		if s.launchStyle != Gate && s.launchStyle != Repeat {
			continue
		}
		switch s.state {
		case Running:
			s.state = WaitingToStop
		default:
			// WaitingToStart, WaitingToStop, Stopping, WaitingForRetrigger,
			// or already Stopped: an unbang forces an immediate stop rather
			// than waiting for a boundary that a stray release shouldn't
			// wait for.
			s.state = Stopped
		}
	}
}
