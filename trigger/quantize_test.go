package trigger

import (
	"testing"

	"github.com/mrdg/triggerbox/tempo"
)

func TestMaybeComputeNextTransitionStopped(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = Stopped
	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0, EndBeats: 1})
	if v.Kind != RunNone || started {
		t.Fatalf("Stopped slot should never run, got %+v started=%v", v, started)
	}
}

func TestMaybeComputeNextTransitionRunningIsAlwaysFull(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = Running
	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0.5, EndBeats: 1.5})
	if v.Kind != RunFull || started {
		t.Fatalf("Running slot should always report RunFull, got %+v started=%v", v, started)
	}
}

func TestMaybeComputeNextTransitionWaitingToStartFiresOnGrid(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = WaitingToStart
	s.quantization = tempo.Quantization{Beats: 1}

	// slice spans [0, 1) beats, grid is 1 beat, so beat 0 fires immediately.
	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0, EndBeats: 1})
	if v.Kind != RunStart {
		t.Fatalf("expected RunStart at the grid boundary, got %+v", v)
	}
	if !started {
		t.Fatal("expected started=true when a WaitingToStart slot fires")
	}
	if s.state != Running {
		t.Fatalf("state after firing = %v, want Running", s.state)
	}
}

func TestMaybeComputeNextTransitionWaitingToStartMisses(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = WaitingToStart
	s.quantization = tempo.Quantization{Beats: 4}

	// slice spans [0.1, 0.2) beats; the next 4-beat grid line is beat 4,
	// which doesn't fall inside this slice.
	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0.1, EndBeats: 0.2})
	if v.Kind != RunNone || started {
		t.Fatalf("expected RunNone with no grid hit inside the slice, got %+v started=%v", v, started)
	}
	if s.state != WaitingToStart {
		t.Fatalf("state should remain WaitingToStart, got %v", s.state)
	}
}

func TestMaybeComputeNextTransitionWaitingToStopFiresRunEnd(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = WaitingToStop
	s.quantization = tempo.Quantization{Beats: 1}

	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0, EndBeats: 1})
	if v.Kind != RunEnd {
		t.Fatalf("expected RunEnd, got %+v", v)
	}
	if started {
		t.Fatal("a stop transition should never report started=true")
	}
	if s.state != Stopping {
		t.Fatalf("state after firing = %v, want Stopping", s.state)
	}
}

func TestMaybeComputeNextTransitionWaitingForRetrigger(t *testing.T) {
	s := NewAudioSlot(0, "")
	s.state = WaitingForRetrigger
	s.quantization = tempo.Quantization{} // no quantization, fires immediately

	v, started := maybeComputeNextTransition(s, Interval{StartBeats: 0, EndBeats: 1})
	if v.Kind != RunFull || !started {
		t.Fatalf("expected RunFull with started=true, got %+v started=%v", v, started)
	}
	if s.state != Running {
		t.Fatalf("state after retrigger = %v, want Running", s.state)
	}
}

func TestSnapUpZeroGridFiresImmediately(t *testing.T) {
	if got := snapUp(1.75, 0); got != 1.75 {
		t.Fatalf("snapUp with zero grid = %v, want 1.75 unchanged", got)
	}
}

func TestGrid(t *testing.T) {
	g := grid(tempo.Quantization{Beats: 1, Ticks: tempo.TicksPerBeat / 4})
	if g != 1.25 {
		t.Fatalf("grid(1 beat, quarter-beat ticks) = %v, want 1.25", g)
	}
}
