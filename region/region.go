// Package region implements the narrow Region/Source contract the trigger
// box's clip loader needs: channel count, sample length, and a per-channel
// read. Decoding itself is delegated to a WAV decoder, following the same
// approach the teacher engine uses for its own sample playback path.
package region

import (
	"fmt"
	"io"
	"os"

	wav "github.com/youpy/go-wav"
)

// Region is the external collaborator the trigger box's clip loader
// depends on. Only these three operations are required by the core.
type Region interface {
	NumChannels() uint
	LengthSamples() int64
	// Read copies up to n samples of the given channel starting at offset
	// into dst, returning the number of samples actually copied.
	Read(dst []float32, offset, n int64, channel uint) (int64, error)
}

// WavRegion is a Region backed by fully decoded, deinterleaved WAV sample
// data. Grounded on the teacher's audio/sampler.go LoadSound, generalized
// from a single float64 slice into per-channel float32 slices so multiple
// channels can be addressed independently, matching spec.md's
// n_channels()/read(dst, offset, n, channel) contract.
type WavRegion struct {
	name     string
	channels [][]float32
}

func (r *WavRegion) Name() string { return r.name }

func (r *WavRegion) NumChannels() uint {
	return uint(len(r.channels))
}

func (r *WavRegion) LengthSamples() int64 {
	if len(r.channels) == 0 {
		return 0
	}
	return int64(len(r.channels[0]))
}

func (r *WavRegion) Read(dst []float32, offset, n int64, channel uint) (int64, error) {
	if channel >= uint(len(r.channels)) {
		return 0, fmt.Errorf("region: channel %d out of range (have %d)", channel, len(r.channels))
	}
	src := r.channels[channel]
	if offset >= int64(len(src)) {
		return 0, nil
	}
	end := offset + n
	if end > int64(len(src)) {
		end = int64(len(src))
	}
	copied := copy(dst, src[offset:end])
	return int64(copied), nil
}

// Load decodes a WAV file into a fully deinterleaved, in-memory Region.
// On any read or allocation failure it returns an error and no partially
// populated Region, matching spec.md §4.1's "fully populated or fully
// dropped" guarantee.
func Load(path string) (*WavRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", path, err)
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("region: read format of %s: %w", path, err)
	}
	nchans := int(format.NumChannels)
	if nchans < 1 {
		return nil, fmt.Errorf("region: %s has no channels", path)
	}

	channels := make([][]float32, nchans)
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("region: decode %s: %w", path, err)
		}
		for _, sample := range samples {
			for c := 0; c < nchans; c++ {
				channels[c] = append(channels[c], float32(r.FloatValue(sample, uint(c))))
			}
		}
	}

	return &WavRegion{name: baseName(path), channels: channels}, nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
