package store

import (
	"sync"
	"time"

	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Board is the state the presentation layer renders.
type Board struct {
	// Entries are the ranked entries of the last successful poll. A failed
	// poll leaves them in place.
	Entries []types.ScoreEntry

	// UpdatedAt is the time of the last successful poll.
	UpdatedAt time.Time

	// CheckedAt is the time of the last poll attempt, successful or not.
	CheckedAt time.Time

	// Err and ErrKind describe the most recent poll when it failed.
	Err     string
	ErrKind types.ErrorKind

	// Loaded is false until the first poll completes.
	Loaded bool

	// Version increments on every Apply.
	Version uint64
}

// HasError reports whether the last poll failed.
func (b Board) HasError() bool { return b.Err != "" }

// Store is a thread-safe holder for the current Board.
type Store struct {
	mu      sync.RWMutex
	board   Board
	changed chan struct{}
	now     func() time.Time // injectable for deterministic tests
}

// New returns an empty Store in the loading state.
func New() *Store {
	return &Store{
		board:   Board{Entries: []types.ScoreEntry{}},
		changed: make(chan struct{}),
		now:     time.Now,
	}
}

// Apply merges the result of one poll and wakes every Changed waiter.
// A successful snapshot replaces the entries and clears the error; a failed
// one keeps the entries and records the error.
func (s *Store) Apply(snap types.Snapshot) Board {
	at := snap.FetchedAt
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	b := s.board
	b.CheckedAt = at
	b.Loaded = true
	b.Version++
	if snap.OK() {
		b.Entries = cloneEntries(snap.Entries)
		b.UpdatedAt = at
		b.Err = ""
		b.ErrKind = types.ErrKindNone
	} else {
		b.Err = snap.Err
		b.ErrKind = snap.ErrKind
	}
	s.board = b
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	b.Entries = cloneEntries(b.Entries)
	return b
}

// Board returns a copy of the current state.
func (s *Store) Board() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.board
	b.Entries = cloneEntries(b.Entries)
	return b
}

// Changed returns a channel that is closed on the next Apply.
// Callers re-read Changed after each wake-up.
func (s *Store) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Stale reports whether a loaded board has had no successful poll within
// after. A board that is still loading is never stale.
func (s *Store) Stale(now time.Time, after time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.board.Loaded || after <= 0 {
		return false
	}
	if s.board.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(s.board.UpdatedAt) > after
}

func cloneEntries(in []types.ScoreEntry) []types.ScoreEntry {
	out := make([]types.ScoreEntry, len(in))
	copy(out, in)
	return out
}
