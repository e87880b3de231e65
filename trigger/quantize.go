package trigger

import (
	"math"

	"github.com/mrdg/triggerbox/tempo"
)

// grid returns the slot's quantization interval in beats.
func grid(q tempo.Quantization) tempo.Beats {
	return tempo.Beats(q.Beats) + tempo.Beats(q.Ticks)/tempo.TicksPerBeat
}

// snapUp rounds b up to the next multiple of g. A non-positive grid means
// "no quantization", so any position qualifies immediately.
func snapUp(b, g tempo.Beats) tempo.Beats {
	if g <= 0 {
		return b
	}
	n := math.Ceil(float64(b) / float64(g))
	return tempo.Beats(n * float64(g))
}

// maybeComputeNextTransition implements §4.3.2. It never touches the
// tempo map directly (all beat math is precomputed by the caller into
// iv), so it never allocates and is safe to call from the audio thread.
// started reports whether the slot just transitioned into Running, the
// signal the box uses to call prepareNext immediately (hiding follow-action
// latency inside the newly started slot's own runtime).
func maybeComputeNextTransition(s *Slot, iv Interval) (v Verdict, started bool) {
	switch s.state {
	case Stopped:
		return Verdict{Kind: RunNone}, false
	case Running, Stopping:
		return Verdict{Kind: RunFull}, false
	}

	g := grid(s.quantization)
	evTime := snapUp(iv.StartBeats, g)
	fires := evTime >= iv.StartBeats && evTime < iv.EndBeats

	if fires {
		switch s.state {
		case WaitingToStop:
			s.state = Stopping
			return Verdict{Kind: RunEnd, EventBeats: evTime}, false
		case WaitingToStart:
			s.media.Retrigger()
			s.state = Running
			return Verdict{Kind: RunStart, EventBeats: evTime}, true
		case WaitingForRetrigger:
			s.media.Retrigger()
			s.state = Running
			return Verdict{Kind: RunFull}, true
		}
	}

	switch s.state {
	case WaitingForRetrigger, WaitingToStop:
		return Verdict{Kind: RunFull}, false
	case WaitingToStart:
		return Verdict{Kind: RunNone}, false
	}
	return Verdict{Kind: RunNone}, false
}
