// Package presence tracks who is typing. Entries are recency-windowed
// signals, not durable state: each keystroke refreshes a last-seen stamp and
// an entry falls out of the set once the idle window passes, so a client
// that disappears without a stop signal ages out on its own.
package presence

import (
	"sort"
	"sync"
	"time"
)

// DefaultIdle matches the composer's keystroke-silence timeout.
const DefaultIdle = 3 * time.Second

type Tracker struct {
	mu       sync.Mutex
	idle     time.Duration
	lastSeen map[int64]time.Time
}

func NewTracker(idle time.Duration) *Tracker {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Tracker{
		idle:     idle,
		lastSeen: make(map[int64]time.Time),
	}
}

// Touch records a keystroke from the user, restarting their idle window.
func (t *Tracker) Touch(userID int64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSeen[userID] = now
}

// Stop removes the user immediately (explicit typing-stop or disconnect).
func (t *Tracker) Stop(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSeen, userID)
}

// Active returns the users whose last keystroke is within the idle window,
// excluding exclude (a user never sees themselves typing). The result is
// sorted so snapshots compare stably.
func (t *Tracker) Active(now time.Time, exclude int64) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []int64
	for id, seen := range t.lastSeen {
		if id == exclude {
			continue
		}
		if now.Sub(seen) < t.idle {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsTyping reports whether a single user is inside their idle window.
func (t *Tracker) IsTyping(userID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen, ok := t.lastSeen[userID]
	return ok && now.Sub(seen) < t.idle
}

// Prune drops entries whose idle window has passed and returns their user
// IDs, so the caller can broadcast the stop to observers.
func (t *Tracker) Prune(now time.Time) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []int64
	for id, seen := range t.lastSeen {
		if now.Sub(seen) >= t.idle {
			delete(t.lastSeen, id)
			expired = append(expired, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}
