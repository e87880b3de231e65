package tempo

import "testing"

func TestSampleToBeatsRoundTrip(t *testing.T) {
	m := NewMap(48000, 120)
	beat := m.SampleToBeats(24000)
	if beat != 1.0 {
		t.Fatalf("SampleToBeats(24000) at 120bpm/48kHz = %v, want 1.0", beat)
	}
	sample := m.BeatsToSample(beat)
	if sample != 24000 {
		t.Fatalf("BeatsToSample(1.0) = %d, want 24000", sample)
	}
}

func TestSnapUpOnGrid(t *testing.T) {
	m := NewMap(48000, 120)
	q := Quantization{Beats: 1}
	got, err := m.SnapUp(2.0, q)
	if err != nil {
		t.Fatalf("SnapUp: %v", err)
	}
	if got != 2.0 {
		t.Fatalf("SnapUp(2.0, 1 beat) = %v, want 2.0 (already on grid)", got)
	}
}

func TestSnapUpOffGrid(t *testing.T) {
	m := NewMap(48000, 120)
	q := Quantization{Beats: 1}
	got, err := m.SnapUp(2.3, q)
	if err != nil {
		t.Fatalf("SnapUp: %v", err)
	}
	if got != 3.0 {
		t.Fatalf("SnapUp(2.3, 1 beat) = %v, want 3.0", got)
	}
}

func TestSnapUpFractionalGrid(t *testing.T) {
	m := NewMap(48000, 120)
	q := Quantization{Ticks: TicksPerBeat / 2} // half a beat
	got, err := m.SnapUp(0.1, q)
	if err != nil {
		t.Fatalf("SnapUp: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("SnapUp(0.1, half-beat grid) = %v, want 0.5", got)
	}
}

func TestSnapUpRejectsBars(t *testing.T) {
	m := NewMap(48000, 120)
	if _, err := m.SnapUp(0, Quantization{Bars: 1}); err == nil {
		t.Fatal("expected an error for bar-level quantization")
	}
}

func TestSnapUpZeroGridIsNoOp(t *testing.T) {
	m := NewMap(48000, 120)
	got, err := m.SnapUp(1.75, Quantization{})
	if err != nil {
		t.Fatalf("SnapUp: %v", err)
	}
	if got != 1.75 {
		t.Fatalf("SnapUp with zero grid = %v, want 1.75 unchanged", got)
	}
}
