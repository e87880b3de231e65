// Package audio hosts the shared output bus the trigger box and the
// audition instrument write onto. Grounded on the teacher engine's own
// Sink/Source split: every registered Source gets the same zeroed buffer
// each callback and is expected to accumulate onto it, which is what lets
// the trigger box's clip playback (trigger/box.go's Run) and the audition
// instrument (instrument.go's PlayNote) share one PortAudio stream without
// either silently erasing the other's contribution.
package audio

import (
	"github.com/gordonklaus/portaudio"
)

const outputChannels = 2

// Source is anything that contributes samples to a slice of the shared
// output buffer. Both *trigger.Box (via cmd/triggerd's boxSource adaptor)
// and *Instrument implement it.
type Source interface {
	Process([][]float32)
}

func NewSink() (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, outputChannels, sampleRate, bufferSize, s.Process)
	if err != nil {
		return nil, err
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

// Sink drives one PortAudio callback per slice, zeroing the shared buffer
// once and then letting every registered Source add its contribution.
type Sink struct {
	sources []Source
	stream  *portaudio.Stream
}

func (s *Sink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
}
