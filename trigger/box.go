package trigger

import (
	"math/rand"
	"sync/atomic"

	"github.com/mrdg/triggerbox/region"
	"github.com/mrdg/triggerbox/stretch"
	"github.com/mrdg/triggerbox/tempo"
)

// firstMidiNote/lastMidiNote bound the fixed MIDI-note-to-slot mapping
// described in §4.5: notes 60..69 map to slots 0..9, everything else is
// dropped.
const (
	firstMidiNote = 60
	lastMidiNote  = 69
)

// stretchBlock is the block size used by the two-pass stretch drain, per
// §4.2.
const stretchBlock = 16384

// NoteEvent is the narrow MIDI shape the box's dispatch loop needs: note
// number extraction only, per §1's scope note ("MIDI parsing beyond note
// number extraction" is an external collaborator's job).
type NoteEvent struct {
	Note     uint8
	On       bool
	Velocity uint8
}

// Box is the fixed-length bank of slots plus the per-slice dispatch loop
// (§4.4). Grounded on the teacher engine's Sink/Source split
// (audio/sink.go): the box implements the same "one Process call per
// slice" shape, generalized from mixing sources into dispatching triggers.
type Box struct {
	slots []*Slot

	explicit slotQueue
	implicit slotQueue

	stopAll          uint32 // atomic flag, latched by control, cleared by audio
	currentlyPlaying int    // -1 means none

	midiMap [128]int

	rng *rand.Rand
	tm  *tempo.Map

	transportRolling bool
	onRequestRoll    func()

	// LastChannelCount is the maximum channel count observed across the
	// most recent Run call, per §4.4.2 step 8.
	LastChannelCount int
}

// NewBox builds a box with n audio slots and the default MIDI note map.
func NewBox(n int, tm *tempo.Map, seed int64) *Box {
	b := &Box{
		slots:            make([]*Slot, n),
		currentlyPlaying: -1,
		rng:              rand.New(rand.NewSource(seed)),
		tm:               tm,
	}
	for i := range b.midiMap {
		b.midiMap[i] = -1
	}
	for note := firstMidiNote; note <= lastMidiNote && note-firstMidiNote < n; note++ {
		b.midiMap[note] = note - firstMidiNote
	}
	for i := range b.slots {
		b.slots[i] = NewAudioSlot(i, "")
	}
	return b
}

func (b *Box) NumSlots() int { return len(b.slots) }

// Slot returns the slot at idx, or nil if out of range.
func (b *Box) Slot(idx int) *Slot {
	if idx < 0 || idx >= len(b.slots) {
		return nil
	}
	return b.slots[idx]
}

// OnRequestRoll registers the callback used to ask the host transport to
// start rolling (§4.4.2 step 4). Optional; nil means the box assumes the
// transport is always rolling.
func (b *Box) OnRequestRoll(f func()) { b.onRequestRoll = f }

// --- control surface (§6) ---

func (b *Box) checkIndex(idx int) error {
	if idx < 0 || idx >= len(b.slots) {
		return errBadArgument("slot index %d out of range (0..%d)", idx, len(b.slots)-1)
	}
	return nil
}

func (b *Box) Bang(idx int) error {
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	b.slots[idx].Bang()
	return nil
}

func (b *Box) Unbang(idx int) error {
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	b.slots[idx].Unbang()
	return nil
}

func (b *Box) Stop(idx int) error {
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	b.slots[idx].RequestState(Stopped)
	return nil
}

// RequestStopAll latches the stop-all flag; the audio thread clears it and
// acts on it at the start of its next slice.
func (b *Box) RequestStopAll() {
	atomic.StoreUint32(&b.stopAll, 1)
}

// SetRegion loads a region into a slot's clip. Only permitted while the
// slot is Stopped, per §3's reload discipline.
func (b *Box) SetRegion(idx int, r region.Region) error {
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	s := b.slots[idx]
	if s.state != Stopped {
		return errPrecondition("slot %d must be stopped to reload its region", idx)
	}
	clip := s.Clip()
	if clip == nil {
		return errBadArgument("slot %d is not an audio slot", idx)
	}
	if err := clip.Load(r); err != nil {
		return errLoadFailure("%v", err)
	}
	return nil
}

// SetLength runs the two-pass stretch adaptor (§4.2) to resize a slot's
// clip to targetSamples, replacing its buffer in place. Only permitted
// while the slot is Stopped and only ever called from a control thread.
func (b *Box) SetLength(idx int, targetSamples int64) error {
	if err := b.checkIndex(idx); err != nil {
		return err
	}
	s := b.slots[idx]
	if s.state != Stopped {
		return errPrecondition("slot %d must be stopped to stretch its clip", idx)
	}
	clip := s.Clip()
	if clip == nil || !clip.Loaded() {
		return errLoadFailure("slot %d has no region loaded", idx)
	}
	if targetSamples <= 0 {
		return errBadArgument("target length must be positive, got %d", targetSamples)
	}
	ratio := float64(targetSamples) / float64(clip.DataLength())

	nchans := clip.NumChannels()
	out := make([][]float32, nchans)
	for ch := 0; ch < nchans; ch++ {
		st := stretch.New(clipSource{clip})
		if err := st.SetTimeRatio(ratio); err != nil {
			return errBadArgument("%v", err)
		}
		st.Study(0, clip.DataLength())

		dst := make([]float32, 0, targetSamples)
		var written int64
		for written < targetSamples {
			st.Retrieve(1)
			chunk := int64(stretchBlock)
			if targetSamples-written < chunk {
				chunk = targetSamples - written
			}
			buf := make([]float32, chunk)
			n, err := st.Process(buf, chunk, uint(ch))
			if err != nil {
				return errLoadFailure("stretch channel %d: %v", ch, err)
			}
			dst = append(dst, buf[:n]...)
			written += n
			if n == 0 {
				break
			}
		}
		out[ch] = dst
	}

	length := int64(len(out[0]))
	clip.buf.Store(&clipBuffer{channels: out})
	clip.startOffset = 0
	clip.usableLength = length
	clip.readIndex = clip.startOffset
	return nil
}

// clipSource adapts a Clip's raw buffer (ignoring its read cursor) to the
// stretch.Source contract.
type clipSource struct{ clip *Clip }

func (c clipSource) NumChannels() uint      { return uint(c.clip.NumChannels()) }
func (c clipSource) LengthSamples() int64   { return c.clip.DataLength() }
func (c clipSource) Read(dst []float32, offset, n int64, channel uint) (int64, error) {
	return c.clip.ReadRaw(dst, offset, n, channel)
}

// --- dispatch loop (§4.4.2) ---

// queueExplicit pushes idx onto the explicit queue, clearing the implicit
// queue and starting the current slot's wind-down, per §4.4.1: "explicit
// always wins". Safe to call from the audio thread (no allocation).
func (b *Box) queueExplicit(idx int) {
	b.implicit.clear()
	if b.currentlyPlaying >= 0 && b.currentlyPlaying != idx {
		b.slots[b.currentlyPlaying].Unbang()
	}
	b.explicit.push(idx)
}

func (b *Box) popNext() (int, bool) {
	if idx, ok := b.explicit.pop(); ok {
		return idx, true
	}
	if idx, ok := b.implicit.pop(); ok {
		return idx, true
	}
	return 0, false
}

func (b *Box) startup(idx int) {
	s := b.slots[idx]
	if s.state == Stopped {
		s.state = WaitingToStart
	}
}

func (b *Box) legatoPeek() {
	head, ok := b.explicit.peek()
	if !ok || head == b.currentlyPlaying {
		return
	}
	idx, _ := b.explicit.pop()
	next := b.slots[idx]
	if !next.legato || b.currentlyPlaying < 0 {
		b.explicit.pushFront(idx)
		return
	}
	cur := b.slots[b.currentlyPlaying]
	next.media.SetLegatoOffset(cur.media.RelativeReadIndex())
	next.media.Retrigger()
	next.state = Running
	cur.state = Stopped
	b.prepareNext(next.Index)
	b.currentlyPlaying = next.Index
}

func (b *Box) isSelfRepeat(idx int) bool {
	if h, ok := b.explicit.peek(); ok && h == idx {
		return true
	}
	if h, ok := b.implicit.peek(); ok && h == idx {
		return true
	}
	return false
}

func (b *Box) resolveRun(v Verdict, sliceStart int64, nframes, filled int) (destOffset, triggerSamples int) {
	switch v.Kind {
	case RunStart:
		bangSample := b.tm.BeatsToSample(v.EventBeats)
		destOffset = clampInt(int(bangSample-sliceStart), 0, nframes)
		return destOffset, nframes - destOffset
	case RunEnd:
		bangSample := b.tm.BeatsToSample(v.EventBeats)
		triggerSamples = clampInt(int(bangSample-sliceStart), 0, nframes)
		return 0, triggerSamples
	default: // RunFull
		return filled, nframes - filled
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run is the per-slice driver (§4.4.2), called once per slice from the
// realtime audio thread. buffers holds one slice per output channel,
// pre-sized to nframes; sliceStart is the slice's first absolute sample
// position. midi carries this slice's note events.
func (b *Box) Run(buffers [][]float32, sliceStart int64, nframes int, midi []NoteEvent) {
	if sliceStart < 0 {
		return
	}

	iv := Interval{
		StartBeats: b.tm.SampleToBeats(sliceStart),
		EndBeats:   b.tm.SampleToBeats(sliceStart + int64(nframes)),
	}

	for _, e := range midi {
		if int(e.Note) >= len(b.midiMap) {
			continue
		}
		idx := b.midiMap[e.Note]
		if idx < 0 {
			continue
		}
		if e.On {
			b.slots[idx].Bang()
		} else {
			b.slots[idx].Unbang()
		}
	}

	for _, s := range b.slots {
		processStateRequests(s, b)
	}

	if b.currentlyPlaying < 0 {
		idx, ok := b.popNext()
		if !ok {
			return
		}
		b.startup(idx)
		b.currentlyPlaying = idx
	}

	if !b.transportRolling {
		if b.onRequestRoll != nil {
			b.onRequestRoll()
		}
		b.transportRolling = true
	}

	b.legatoPeek()

	if atomic.CompareAndSwapUint32(&b.stopAll, 1, 0) {
		for _, s := range b.slots {
			s.state = Stopped
		}
		b.explicit.clear()
		b.implicit.clear()
		b.currentlyPlaying = -1
	}

	filled := 0
	maxChannels := 0

	for b.currentlyPlaying >= 0 && filled < nframes {
		s := b.slots[b.currentlyPlaying]

		verdict, started := maybeComputeNextTransition(s, iv)
		if verdict.Kind == RunNone {
			return
		}
		if started {
			b.prepareNext(s.Index)
		}

		destOffset, triggerSamples := b.resolveRun(verdict, sliceStart, nframes, filled)
		loop := s.launchStyle == Repeat || b.isSelfRepeat(s.Index)
		// buffers is a shared output bus: audio/sink.go zeroes it once per
		// callback before any source runs, so accumulating (first=false)
		// composes correctly with whatever another source (the audition
		// instrument) already wrote into this slice, instead of
		// overwriting it.
		written, exhausted := s.media.Fill(buffers, destOffset, triggerSamples, false, loop)
		filled = destOffset + written

		if clip := s.Clip(); clip != nil {
			if n := clip.NumChannels(); n > maxChannels {
				maxChannels = n
			}
		}

		if s.state == Stopping && nframes >= FadeSamples {
			s.state = Stopped
		}
		if exhausted {
			s.state = Stopped
		}

		if s.state != Stopped {
			break
		}

		idx, ok := b.popNext()
		if !ok {
			b.currentlyPlaying = -1
			break
		}
		next := b.slots[idx]
		if next.legato {
			next.media.SetLegatoOffset(s.media.RelativeReadIndex())
		}
		b.startup(idx)
		b.currentlyPlaying = idx
	}

	b.LastChannelCount = maxChannels
}

// prepareNext is called as soon as a slot transitions into Running, not at
// end-of-clip, so the follow-up is already queued by the time the slot
// ends (§4.4.3).
func (b *Box) prepareNext(idx int) {
	next := b.determineNextTrigger(idx)
	if next >= 0 {
		b.implicit.push(next)
	}
}

// determineNextTrigger implements the follow-action resolution table in
// §4.4.3.
func (b *Box) determineNextTrigger(idx int) int {
	s := b.slots[idx]
	action := s.followAction[0]
	if b.rng.Intn(100) >= s.followProbability {
		action = s.followAction[1]
	}

	runnable := b.countRunnable()
	if runnable == 1 && action != FollowStop && action != FollowQueuedTrigger {
		return idx
	}

	switch action {
	case FollowStop, FollowQueuedTrigger:
		return -1
	case FollowAgain:
		return idx
	case FollowNextTrigger:
		return b.scan(idx, 1)
	case FollowPrevTrigger:
		return b.scan(idx, -1)
	case FollowFirstTrigger:
		return b.edgeRunnable(true)
	case FollowLastTrigger:
		return b.edgeRunnable(false)
	case FollowAnyTrigger:
		return b.sampleRunnable(-1)
	case FollowOtherTrigger:
		return b.sampleRunnable(idx)
	default:
		return -1
	}
}

func (b *Box) countRunnable() int {
	n := 0
	for _, s := range b.slots {
		if s.Runnable() {
			n++
		}
	}
	return n
}

func (b *Box) scan(from, step int) int {
	n := len(b.slots)
	for i := 1; i <= n; i++ {
		j := ((from+step*i)%n + n) % n
		if b.slots[j].Runnable() {
			return j
		}
	}
	return -1
}

func (b *Box) edgeRunnable(first bool) int {
	result := -1
	for i, s := range b.slots {
		if !s.Runnable() {
			continue
		}
		if result == -1 {
			result = i
		} else if first {
			break
		} else {
			result = i
		}
	}
	return result
}

func (b *Box) sampleRunnable(exclude int) int {
	var candidates []int
	for i, s := range b.slots {
		if i == exclude {
			continue
		}
		if s.Runnable() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[b.rng.Intn(len(candidates))]
}
