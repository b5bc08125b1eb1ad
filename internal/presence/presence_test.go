package presence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestTypingWindow(t *testing.T) {
	tr := NewTracker(3 * time.Second)
	tr.Touch(1, base)

	tests := []struct {
		name string
		at   time.Duration
		want bool
	}{
		{name: "AtKeystroke", at: 0, want: true},
		{name: "JustUnderWindow", at: 3*time.Second - time.Millisecond, want: true},
		{name: "AtWindow", at: 3 * time.Second, want: false},
		{name: "PastWindow", at: 5 * time.Second, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.IsTyping(1, base.Add(tt.at)); got != tt.want {
				t.Errorf("IsTyping at +%v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestTouchRestartsWindow(t *testing.T) {
	tr := NewTracker(3 * time.Second)
	tr.Touch(1, base)
	tr.Touch(1, base.Add(2*time.Second))

	if !tr.IsTyping(1, base.Add(4*time.Second)) {
		t.Error("second keystroke did not restart the idle window")
	}
	if tr.IsTyping(1, base.Add(5*time.Second)) {
		t.Error("still typing 3s after the last keystroke")
	}
}

func TestActiveExcludesSelf(t *testing.T) {
	tr := NewTracker(3 * time.Second)
	tr.Touch(1, base)
	tr.Touch(2, base)
	tr.Touch(3, base)

	got := tr.Active(base.Add(time.Second), 2)
	if !cmp.Equal(got, []int64{1, 3}) {
		t.Errorf("Active = %v, want [1 3]", got)
	}
}

func TestStopRemovesImmediately(t *testing.T) {
	tr := NewTracker(3 * time.Second)
	tr.Touch(1, base)
	tr.Stop(1)

	if tr.IsTyping(1, base) {
		t.Error("user still typing after Stop")
	}
}

func TestPruneReturnsExpired(t *testing.T) {
	tr := NewTracker(3 * time.Second)
	tr.Touch(1, base)
	tr.Touch(2, base.Add(2*time.Second))

	expired := tr.Prune(base.Add(3 * time.Second))
	if !cmp.Equal(expired, []int64{1}) {
		t.Errorf("Prune = %v, want [1]", expired)
	}
	if got := tr.Active(base.Add(3*time.Second), 0); !cmp.Equal(got, []int64{2}) {
		t.Errorf("Active after prune = %v, want [2]", got)
	}
	// A pruned entry must not come back on a later prune.
	if again := tr.Prune(base.Add(10 * time.Second)); !cmp.Equal(again, []int64{2}) {
		t.Errorf("second Prune = %v, want [2]", again)
	}
}
