// Package trigger implements the clip-launching trigger engine: a
// fixed-capacity bank of slots, each holding at most one audio clip, driven
// by a per-slice dispatch loop on the realtime audio thread and by
// bang/unbang/set_region-style calls from control threads.
package trigger

import (
	"fmt"

	"github.com/mrdg/triggerbox/tempo"
)

// State is a slot's position in its lifecycle. None is a sentinel meaning
// "no pending explicit request", never a slot's live state.
type State int

const (
	None State = iota
	Stopped
	WaitingToStart
	Running
	WaitingForRetrigger
	WaitingToStop
	Stopping
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Stopped:
		return "stopped"
	case WaitingToStart:
		return "waiting-to-start"
	case Running:
		return "running"
	case WaitingForRetrigger:
		return "waiting-for-retrigger"
	case WaitingToStop:
		return "waiting-to-stop"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// LaunchStyle governs how bang/unbang stimuli map onto start/stop
// transitions.
type LaunchStyle int

const (
	OneShot LaunchStyle = iota
	Gate
	Toggle
	Repeat
)

func (l LaunchStyle) String() string {
	switch l {
	case OneShot:
		return "one-shot"
	case Gate:
		return "gate"
	case Toggle:
		return "toggle"
	case Repeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// FollowAction is the end-of-clip policy that selects (or declines to
// select) the next slot to run.
type FollowAction int

const (
	FollowStop FollowAction = iota
	FollowAgain
	FollowQueuedTrigger
	FollowNextTrigger
	FollowPrevTrigger
	FollowFirstTrigger
	FollowLastTrigger
	FollowAnyTrigger
	FollowOtherTrigger
)

func (f FollowAction) String() string {
	switch f {
	case FollowStop:
		return "stop"
	case FollowAgain:
		return "again"
	case FollowQueuedTrigger:
		return "queued-trigger"
	case FollowNextTrigger:
		return "next-trigger"
	case FollowPrevTrigger:
		return "prev-trigger"
	case FollowFirstTrigger:
		return "first-trigger"
	case FollowLastTrigger:
		return "last-trigger"
	case FollowAnyTrigger:
		return "any-trigger"
	case FollowOtherTrigger:
		return "other-trigger"
	default:
		return "unknown"
	}
}

// ParseFollowAction accepts the same names String() produces, for the
// control language and persistence shim.
func ParseFollowAction(s string) (FollowAction, error) {
	for _, f := range []FollowAction{
		FollowStop, FollowAgain, FollowQueuedTrigger, FollowNextTrigger,
		FollowPrevTrigger, FollowFirstTrigger, FollowLastTrigger,
		FollowAnyTrigger, FollowOtherTrigger,
	} {
		if f.String() == s {
			return f, nil
		}
	}
	return FollowStop, fmt.Errorf("trigger: unknown follow action %q", s)
}

// ParseLaunchStyle accepts the same names String() produces.
func ParseLaunchStyle(s string) (LaunchStyle, error) {
	for _, l := range []LaunchStyle{OneShot, Gate, Toggle, Repeat} {
		if l.String() == s {
			return l, nil
		}
	}
	return OneShot, fmt.Errorf("trigger: unknown launch style %q", s)
}

// RunKind is the verdict maybeComputeNextTransition hands back to the box.
type RunKind int

const (
	// RunNone means don't play anything this slice.
	RunNone RunKind = iota
	// RunFull means play the full remainder of the slice.
	RunFull
	// RunStart means a start boundary fires inside the slice.
	RunStart
	// RunEnd means a stop boundary fires inside the slice.
	RunEnd
)

// Verdict is the result of a quantized-transition check for one slot
// against one slice.
type Verdict struct {
	Kind       RunKind
	EventBeats tempo.Beats
}

// Interval is a slice's musical-time span, computed by the caller from the
// tempo map.
type Interval struct {
	StartBeats tempo.Beats
	EndBeats   tempo.Beats
}

// FadeSamples is the minimum slice length (in samples) considered long
// enough to contain an inaudible stop fade.
const FadeSamples = 64
