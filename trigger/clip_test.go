package trigger

import "testing"

func TestClipLoadAndFillReplace(t *testing.T) {
	c := NewClip()
	r := fakeRegion{channels: [][]float32{{1, 2, 3, 4, 5}}}
	if err := c.Load(r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.Loaded() {
		t.Fatal("Loaded() = false after a successful Load")
	}
	if c.DataLength() != 5 {
		t.Fatalf("DataLength() = %d, want 5", c.DataLength())
	}

	out := newBuffers(2, 5)
	// pre-fill with a marker so we can tell replace from accumulate
	for ch := range out {
		for i := range out[ch] {
			out[ch][i] = 100
		}
	}
	written, exhausted := c.Fill(out, 0, 5, true, false)
	if written != 5 {
		t.Fatalf("Fill wrote %d samples, want 5", written)
	}
	if !exhausted {
		t.Fatal("Fill should report exhausted once the clip's last sample is reached")
	}
	want := []float32{1, 2, 3, 4, 5}
	for ch := range out {
		for i, v := range want {
			if out[ch][i] != v {
				t.Errorf("out[%d][%d] = %v, want %v (mono clip duplicated across channels)", ch, i, out[ch][i], v)
			}
		}
	}
}

func TestClipFillAccumulate(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 1, 1}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := newBuffers(1, 3)
	out[0][0], out[0][1], out[0][2] = 5, 5, 5
	written, _ := c.Fill(out, 0, 3, false, false)
	if written != 3 {
		t.Fatalf("Fill wrote %d samples, want 3", written)
	}
	for i, v := range out[0] {
		if v != 6 {
			t.Errorf("out[0][%d] = %v, want 6 (accumulated onto existing 5)", i, v)
		}
	}
}

func TestClipFillIncompleteSilencesTail(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := newBuffers(1, 5)
	for i := range out[0] {
		out[0][i] = 9
	}
	written, exhausted := c.Fill(out, 0, 5, true, false)
	if written != 2 {
		t.Fatalf("Fill wrote %d samples, want 2 (clip is only 2 samples long)", written)
	}
	if !exhausted {
		t.Fatal("Fill should report exhausted when the clip runs out mid-request")
	}
	for i := 2; i < 5; i++ {
		if out[0][i] != 0 {
			t.Errorf("out[0][%d] = %v, want 0 (tail should be silenced)", i, out[0][i])
		}
	}
}

func TestClipFillLoops(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := newBuffers(1, 5)
	written, exhausted := c.Fill(out, 0, 5, true, true)
	if written != 5 {
		t.Fatalf("Fill wrote %d samples, want 5 (should loop to fill the request)", written)
	}
	if exhausted {
		t.Fatal("a looping Fill that satisfies the full request should not report exhausted")
	}
	want := []float32{1, 2, 1, 2, 1}
	for i, v := range want {
		if out[0][i] != v {
			t.Errorf("out[0][%d] = %v, want %v", i, out[0][i], v)
		}
	}
}

func TestClipRetriggerUsesLegatoOffset(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2, 3, 4, 5}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.SetLegatoOffset(2)
	c.Retrigger()
	if c.ReadIndex() != 2 {
		t.Fatalf("ReadIndex() after retrigger with legato offset 2 = %d, want 2", c.ReadIndex())
	}

	out := newBuffers(1, 1)
	c.Fill(out, 0, 1, true, false)
	if out[0][0] != 3 {
		t.Fatalf("first sample after a legato retrigger = %v, want 3", out[0][0])
	}

	// legato offset is consumed exactly once
	c.Retrigger()
	if c.ReadIndex() != 0 {
		t.Fatalf("ReadIndex() after a second retrigger = %d, want 0 (legato offset should be one-shot)", c.ReadIndex())
	}
}

func TestClipRetriggerClampsOutOfRangeOffset(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2, 3}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.SetLegatoOffset(100)
	c.Retrigger()
	if c.ReadIndex() != 0 {
		t.Fatalf("ReadIndex() after an out-of-range legato offset = %d, want 0", c.ReadIndex())
	}
}

func TestClipRelativeReadIndexNeverNegative(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2, 3}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.SetStartOffset(1)
	c.Retrigger()
	if got := c.RelativeReadIndex(); got != 0 {
		t.Fatalf("RelativeReadIndex() right after retrigger = %d, want 0", got)
	}
}

func TestClipUsableLengthClampedToDataLength(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{channels: [][]float32{{1, 2, 3}}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.SetStartOffset(1)
	c.SetUsableLength(10)
	if c.LastSample() != 3 {
		t.Fatalf("LastSample() = %d, want 3 (clamped to data length)", c.LastSample())
	}
}

func TestClipLoadRejectsRegionWithNoChannels(t *testing.T) {
	c := NewClip()
	if err := c.Load(fakeRegion{}); err == nil {
		t.Fatal("expected an error loading a region with zero channels")
	}
}
