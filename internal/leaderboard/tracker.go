package leaderboard

import (
	"sync"

	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Tracker derives ScoreChanged flags by comparing each successful snapshot to
// the one before it.
//
// All exported methods are safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	prev map[string]int
}

// NewTracker returns a Tracker with no history; the first snapshot it sees
// reports no changes.
func NewTracker() *Tracker {
	return &Tracker{prev: make(map[string]int)}
}

// Mark sets ScoreChanged on every entry of snap and records its scores as
// the new baseline. Failed snapshots pass through untouched and do not
// replace the baseline.
func (t *Tracker) Mark(snap types.Snapshot) types.Snapshot {
	if !snap.OK() {
		return snap
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]int, len(snap.Entries))
	marked := make([]types.ScoreEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		old, seen := t.prev[e.Name]
		e.ScoreChanged = seen && old != e.Score
		marked[i] = e
		next[e.Name] = e.Score
	}
	t.prev = next
	snap.Entries = marked
	return snap
}

// Reset forgets the baseline, e.g. after the source is reconfigured.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.prev = make(map[string]int)
	t.mu.Unlock()
}
