package region

import "testing"

func TestWavRegionRead(t *testing.T) {
	r := &WavRegion{
		name: "test.wav",
		channels: [][]float32{
			{0, 1, 2, 3, 4},
			{10, 11, 12, 13, 14},
		},
	}

	if r.NumChannels() != 2 {
		t.Fatalf("NumChannels() = %d, want 2", r.NumChannels())
	}
	if r.LengthSamples() != 5 {
		t.Fatalf("LengthSamples() = %d, want 5", r.LengthSamples())
	}

	dst := make([]float32, 3)
	n, err := r.Read(dst, 1, 3, 0)
	if err != nil {
		t.Fatalf("Read: unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("Read returned %d samples, want 3", n)
	}
	want := []float32{1, 2, 3}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestWavRegionReadPastEnd(t *testing.T) {
	r := &WavRegion{channels: [][]float32{{0, 1, 2}}}

	dst := make([]float32, 4)
	n, err := r.Read(dst, 2, 4, 0)
	if err != nil {
		t.Fatalf("Read: unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("Read returned %d samples, want 1 (clamped to end of buffer)", n)
	}

	n, err = r.Read(dst, 10, 4, 0)
	if err != nil {
		t.Fatalf("Read past end: unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("Read past end returned %d samples, want 0", n)
	}
}

func TestWavRegionReadInvalidChannel(t *testing.T) {
	r := &WavRegion{channels: [][]float32{{0, 1, 2}}}
	if _, err := r.Read(make([]float32, 1), 0, 1, 1); err == nil {
		t.Fatal("expected an error for an out-of-range channel")
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"kick.wav":               "kick.wav",
		"/samples/kick.wav":      "kick.wav",
		"/samples/kits/kick.wav": "kick.wav",
	}
	for input, want := range tests {
		if got := baseName(input); got != want {
			t.Errorf("baseName(%q) = %q, want %q", input, got, want)
		}
	}
}
