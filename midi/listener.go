// Package midi wires a real MIDI input device to the trigger box's note
// dispatch, using gitlab.com/gomidi/midi/v2's ListenTo callback the same
// way the sequencer example pack's keyboard controller does. Device
// hot-plug management is intentionally not implemented (see SPEC_FULL.md's
// non-goals); the engine binds to one input port at startup.
package midi

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/mrdg/triggerbox/trigger"
)

// queueSize must be a power of two, matching the audio package's own
// event ring buffer convention.
const queueSize = 256

// eventQueue is a lock-free SPSC ring buffer of trigger.NoteEvent: the
// gomidi callback (its own goroutine) is the sole producer, the audio
// thread's per-slice Drain call is the sole consumer. Grounded on the
// teacher engine's audio/event_buffer.go.
type eventQueue struct {
	events      [queueSize]trigger.NoteEvent
	read, write uint32
}

func (q *eventQueue) push(ev trigger.NoteEvent) {
	for atomic.LoadUint32(&q.write)-atomic.LoadUint32(&q.read) == queueSize {
		runtime.Gosched()
	}
	w := atomic.LoadUint32(&q.write)
	q.events[w%queueSize] = ev
	atomic.StoreUint32(&q.write, w+1)
}

func (q *eventQueue) drain(dst []trigger.NoteEvent) []trigger.NoteEvent {
	r := atomic.LoadUint32(&q.read)
	w := atomic.LoadUint32(&q.write)
	for r != w {
		dst = append(dst, q.events[r%queueSize])
		r++
	}
	atomic.StoreUint32(&q.read, r)
	return dst
}

// Listener forwards note-on/note-off messages from one MIDI input port
// into a lock-free queue the audio thread drains once per slice.
type Listener struct {
	inPort   drivers.In
	stopFunc func()
	queue    eventQueue
}

// Open binds to the input port whose name contains name (case-insensitive
// substring match), or the first available input port if name is empty.
func Open(name string) (*Listener, error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("midi: no input ports available")
	}
	var port drivers.In
	if name == "" {
		port = ports[0]
	} else {
		for _, p := range ports {
			if strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
				port = p
				break
			}
		}
		if port == nil {
			return nil, fmt.Errorf("midi: no input port matching %q", name)
		}
	}

	l := &Listener{inPort: port}
	stop, err := gomidi.ListenTo(port, l.handle)
	if err != nil {
		return nil, fmt.Errorf("midi: open input %s: %w", port.String(), err)
	}
	l.stopFunc = stop
	return l, nil
}

func (l *Listener) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		if velocity > 0 {
			l.queue.push(trigger.NoteEvent{Note: note, On: true, Velocity: velocity})
		} else {
			// Many keyboards send note-on velocity 0 in place of note-off.
			l.queue.push(trigger.NoteEvent{Note: note, On: false})
		}
	case msg.GetNoteOff(&channel, &note, &velocity):
		l.queue.push(trigger.NoteEvent{Note: note, On: false})
	}
}

// Drain appends all events queued since the last call to dst and returns
// it, meant to be called once per slice from the audio callback.
func (l *Listener) Drain(dst []trigger.NoteEvent) []trigger.NoteEvent {
	return l.queue.drain(dst)
}

func (l *Listener) Close() error {
	if l.stopFunc != nil {
		l.stopFunc()
	}
	return nil
}

// PortName returns the name of the bound input port.
func (l *Listener) PortName() string {
	if l.inPort == nil {
		return ""
	}
	return l.inPort.String()
}
