package trigger

import "testing"

func TestLaunchStyleRoundTrip(t *testing.T) {
	for _, l := range []LaunchStyle{OneShot, Gate, Toggle, Repeat} {
		got, err := ParseLaunchStyle(l.String())
		if err != nil {
			t.Fatalf("ParseLaunchStyle(%q): %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLaunchStyle(%q) = %v, want %v", l.String(), got, l)
		}
	}
}

func TestParseLaunchStyleUnknown(t *testing.T) {
	if _, err := ParseLaunchStyle("bogus"); err == nil {
		t.Fatal("expected an error for an unknown launch style")
	}
}

func TestFollowActionRoundTrip(t *testing.T) {
	actions := []FollowAction{
		FollowStop, FollowAgain, FollowQueuedTrigger, FollowNextTrigger,
		FollowPrevTrigger, FollowFirstTrigger, FollowLastTrigger,
		FollowAnyTrigger, FollowOtherTrigger,
	}
	for _, f := range actions {
		got, err := ParseFollowAction(f.String())
		if err != nil {
			t.Fatalf("ParseFollowAction(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("ParseFollowAction(%q) = %v, want %v", f.String(), got, f)
		}
	}
}

func TestParseFollowActionUnknown(t *testing.T) {
	if _, err := ParseFollowAction("bogus"); err == nil {
		t.Fatal("expected an error for an unknown follow action")
	}
}

func TestStateString(t *testing.T) {
	if Running.String() != "running" {
		t.Errorf("Running.String() = %q, want %q", Running.String(), "running")
	}
	if State(99).String() != "unknown" {
		t.Errorf("unknown state should stringify to %q", "unknown")
	}
}
