package trigger

// fakeRegion is an in-memory region.Region used across the package's tests.
type fakeRegion struct {
	channels [][]float32
}

func (f fakeRegion) NumChannels() uint {
	return uint(len(f.channels))
}

func (f fakeRegion) LengthSamples() int64 {
	if len(f.channels) == 0 {
		return 0
	}
	return int64(len(f.channels[0]))
}

func (f fakeRegion) Read(dst []float32, offset, n int64, channel uint) (int64, error) {
	src := f.channels[channel]
	if offset >= int64(len(src)) {
		return 0, nil
	}
	end := offset + n
	if end > int64(len(src)) {
		end = int64(len(src))
	}
	return int64(copy(dst, src[offset:end])), nil
}

func newBuffers(nchans, n int) [][]float32 {
	buf := make([][]float32, nchans)
	for i := range buf {
		buf[i] = make([]float32, n)
	}
	return buf
}
