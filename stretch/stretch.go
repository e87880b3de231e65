// Package stretch adapts a source region to a target playback ratio using a
// study/process/retrieve pipeline, the shape real time-stretch libraries
// (rubberband and friends) expose. The implementation here is a minimal
// linear-interpolation resampler standing in for that library, following
// the same two-pass drain contract so the trigger box's clip fill code
// never has to know whether it is talking to a real stretcher or not.
package stretch

import (
	"fmt"
	"time"
)

// Source supplies raw, unstretched samples for one channel.
type Source interface {
	NumChannels() uint
	LengthSamples() int64
	Read(dst []float32, offset, n int64, channel uint) (int64, error)
}

// Stretcher time-scales a Source's channel data to a target ratio. Ratio 1.0
// is pass-through; ratio 2.0 plays twice as slow (stretched to double
// length); 0.5 plays twice as fast.
type Stretcher struct {
	src    Source
	ratio  float64
	pos    float64 // fractional read position into src, in source samples
	studyN int64
}

func New(src Source) *Stretcher {
	return &Stretcher{src: src, ratio: 1.0}
}

// SetTimeRatio configures the stretch ratio. Must be called before Process.
func (s *Stretcher) SetTimeRatio(ratio float64) error {
	if ratio <= 0 {
		return fmt.Errorf("stretch: ratio must be positive, got %v", ratio)
	}
	s.ratio = ratio
	return nil
}

// Study primes the stretcher with a look-ahead window starting at offset.
// Real stretch engines use this to analyze transients; the stand-in only
// moves its read position to offset and records offset+n, which Process
// does not consult (it reads up to the end of the source).
func (s *Stretcher) Study(offset, n int64) {
	s.studyN = offset + n
	s.pos = float64(offset)
}

// Process reads n stretched output frames for the given channel into dst,
// pulling from the underlying source at the configured ratio using linear
// interpolation. It returns the number of frames actually written, which
// may be less than n at the end of the source.
func (s *Stretcher) Process(dst []float32, n int64, channel uint) (int64, error) {
	length := s.src.LengthSamples()
	var written int64
	buf := make([]float32, 2)
	for written < n {
		i0 := int64(s.pos)
		if i0 >= length {
			break
		}
		frac := s.pos - float64(i0)
		if _, err := s.src.Read(buf[:1], i0, 1, channel); err != nil {
			return written, err
		}
		buf[1] = buf[0]
		if i0+1 < length {
			if _, err := s.src.Read(buf[1:2], i0+1, 1, channel); err != nil {
				return written, err
			}
		}
		dst[written] = buf[0] + float32(frac)*(buf[1]-buf[0])
		s.pos += 1.0 / s.ratio
		written++
	}
	return written, nil
}

// Available reports how many stretched output frames are ready without
// blocking. The stand-in always has an answer immediately, but the method
// exists so callers written against a real async stretcher (which may
// return 0 while it is still working on a block) compose unchanged.
func (s *Stretcher) Available() int64 {
	length := s.src.LengthSamples()
	remaining := float64(length) - s.pos
	if remaining <= 0 {
		return 0
	}
	return int64(remaining * s.ratio)
}

// Retrieve waits (cooperatively) until at least min frames are Available,
// or the source is exhausted, whichever comes first. Real async stretch
// libraries need this drain step between Process calls; kept here so the
// two-pass protocol is identical regardless of backend.
func (s *Stretcher) Retrieve(min int64) {
	for s.Available() < min {
		length := s.src.LengthSamples()
		if float64(length)-s.pos <= 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
