package trigger

import (
	"fmt"
	"sync/atomic"

	"github.com/mrdg/triggerbox/region"
)

// clipBuffer is the immutable-after-load, per-channel sample data for one
// clip. Swapped wholesale by the stretcher, never mutated in place, so the
// audio thread can hold a reference across a slice without locking.
type clipBuffer struct {
	channels [][]float32
}

func (b *clipBuffer) numChannels() int {
	return len(b.channels)
}

func (b *clipBuffer) dataLength() int64 {
	if len(b.channels) == 0 {
		return 0
	}
	return int64(len(b.channels[0]))
}

// Clip owns a clip's sample data, read cursor, start offset, usable-length
// window and legato offset; launch policy lives on the owning Slot.
// The buffer itself is held behind an atomic.Value so the non-audio thread
// can swap it in (after a region load or a stretch) without the audio
// thread ever taking a lock; §5 requires reload only while the slot is
// Stopped, so there is never a concurrent writer during playback.
type Clip struct {
	buf atomic.Value // *clipBuffer

	readIndex    int64
	startOffset  int64
	usableLength int64
	legatoOffset int64
}

func NewClip() *Clip {
	c := &Clip{}
	c.buf.Store(&clipBuffer{})
	return c
}

func (c *Clip) buffer() *clipBuffer {
	return c.buf.Load().(*clipBuffer)
}

// Loaded reports whether a region has been pulled into the clip buffer.
func (c *Clip) Loaded() bool {
	return c.buffer().numChannels() > 0
}

// NumChannels returns the number of channels in the loaded buffer.
func (c *Clip) NumChannels() int {
	return c.buffer().numChannels()
}

// DataLength returns the total sample count of the loaded buffer.
func (c *Clip) DataLength() int64 {
	return c.buffer().dataLength()
}

// LastSample is the exclusive upper bound of the clip's usable window.
func (c *Clip) LastSample() int64 {
	return c.startOffset + c.usableLength
}

// Load pulls a region's sample data into a freshly allocated buffer and
// swaps it in only once fully populated, per §4.1's "fully populated or
// fully dropped" guarantee. May only be called while the slot is Stopped.
func (c *Clip) Load(r region.Region) error {
	nchans := int(r.NumChannels())
	if nchans < 1 {
		return fmt.Errorf("trigger: region has no channels")
	}
	length := r.LengthSamples()
	channels := make([][]float32, nchans)
	for ch := 0; ch < nchans; ch++ {
		buf := make([]float32, length)
		n, err := r.Read(buf, 0, length, uint(ch))
		if err != nil {
			return fmt.Errorf("trigger: load region channel %d: %w", ch, err)
		}
		channels[ch] = buf[:n]
	}
	c.buf.Store(&clipBuffer{channels: channels})
	c.startOffset = 0
	c.usableLength = length
	c.readIndex = c.startOffset
	c.legatoOffset = 0
	return nil
}

// SetStartOffset sets the sample offset within the buffer that playback
// starts from, clamped into [0, data_length].
func (c *Clip) SetStartOffset(offset int64) {
	length := c.DataLength()
	if offset < 0 {
		offset = 0
	}
	if offset > length {
		offset = length
	}
	c.startOffset = offset
	if c.usableLength > length-offset {
		c.usableLength = length - offset
	}
}

// SetUsableLength sets how many samples starting at startOffset are played
// before the clip is considered exhausted, clamped so last_sample never
// exceeds data_length.
func (c *Clip) SetUsableLength(n int64) {
	length := c.DataLength()
	if n < 0 {
		n = 0
	}
	if c.startOffset+n > length {
		n = length - c.startOffset
	}
	c.usableLength = n
}

// SetLegatoOffset records the ephemeral offset consumed exactly once at the
// next retrigger. Per DESIGN.md's fix of the source's absolute-offset bug,
// callers pass a position already relative to start_offset; negative
// values become 0, and Retrigger falls back to start_offset when the offset
// would land past last_sample.
func (c *Clip) SetLegatoOffset(offset int64) {
	if offset < 0 {
		offset = 0
	}
	c.legatoOffset = offset
}

// Retrigger resets the read cursor to start_offset + legato_offset (or to
// start_offset alone when that sum is past last_sample) and clears
// legato_offset.
func (c *Clip) Retrigger() {
	pos := c.startOffset + c.legatoOffset
	if last := c.LastSample(); pos > last {
		pos = c.startOffset
	}
	c.readIndex = pos
	c.legatoOffset = 0
}

// ReadRaw reads directly from the underlying buffer, ignoring the read
// cursor and usable-length window. Used by the stretch adaptor, which
// needs the clip's full raw data regardless of playback state.
func (c *Clip) ReadRaw(dst []float32, offset, n int64, channel uint) (int64, error) {
	buf := c.buffer()
	if int(channel) >= buf.numChannels() {
		return 0, fmt.Errorf("trigger: channel %d out of range", channel)
	}
	src := buf.channels[channel]
	if offset >= int64(len(src)) {
		return 0, nil
	}
	end := offset + n
	if end > int64(len(src)) {
		end = int64(len(src))
	}
	return int64(copy(dst, src[offset:end])), nil
}

// ReadIndex returns the clip's current read cursor.
func (c *Clip) ReadIndex() int64 { return c.readIndex }

// RelativeReadIndex returns read_index - start_offset, the value a legato
// splice should hand to the incoming clip (see DESIGN.md open question 4).
func (c *Clip) RelativeReadIndex() int64 {
	rel := c.readIndex - c.startOffset
	if rel < 0 {
		rel = 0
	}
	return rel
}

// Exhausted reports whether the read cursor has reached the end of the
// usable window.
func (c *Clip) Exhausted() bool {
	return c.readIndex >= c.LastSample()
}

// Fill implements §4.3.3's per-slice fill algorithm. out is one slice per
// output channel; clip channel c maps onto out[c % len(out)], so a mono
// clip duplicates across a stereo pair. destOffset is where inside each
// output channel this call should start writing; n is how many samples to
// produce. first selects replace-vs-accumulate semantics; when the clip
// runs out, only replace mode zeroes the unfilled tail. loop is true for
// Repeat launch style or when the box's queued next trigger is this same
// slot, and makes playback retrigger and continue at the end of the usable
// window. Returns the number of samples actually written and whether the
// clip ran out (should transition to Stopped); a looping fill that
// satisfies the request never reports exhausted.
func (c *Clip) Fill(out [][]float32, destOffset, n int, first bool, loop bool) (written int, exhausted bool) {
	buf := c.buffer()
	nOutChans := len(out)
	if nOutChans == 0 || buf.numChannels() == 0 {
		return 0, true
	}

	for written < n {
		remaining := c.LastSample() - c.readIndex
		if remaining <= 0 {
			if loop {
				c.Retrigger()
				continue
			}
			break
		}
		chunk := n - written
		if int64(chunk) > remaining {
			chunk = int(remaining)
		}
		for ch := 0; ch < nOutChans; ch++ {
			src := buf.channels[ch%buf.numChannels()]
			dst := out[ch][destOffset+written : destOffset+written+chunk]
			readAt := c.readIndex
			if first {
				copy(dst, src[readAt:readAt+int64(chunk)])
			} else {
				for i := 0; i < chunk; i++ {
					dst[i] += src[readAt+int64(i)]
				}
			}
		}
		c.readIndex += int64(chunk)
		written += chunk
	}

	if written < n {
		// In accumulate mode the tail simply receives nothing, leaving
		// whatever another source already wrote there intact.
		if first {
			for ch := range out {
				tail := out[ch][destOffset+written : destOffset+n]
				for i := range tail {
					tail[i] = 0
				}
			}
		}
		return written, true
	}
	return written, !loop && c.Exhausted()
}
