package types

import "time"

// ErrorKind classifies why a poll produced no entries.
type ErrorKind string

const (
	// ErrKindNone marks a successful snapshot.
	ErrKindNone ErrorKind = ""

	// ErrKindTransport covers DNS, connection and timeout failures.
	ErrKindTransport ErrorKind = "transport"

	// ErrKindStatus is a non-2xx response from the source.
	ErrKindStatus ErrorKind = "status"

	// ErrKindMalformed is an empty or undecodable response body.
	ErrKindMalformed ErrorKind = "malformed"

	// ErrKindMissing means the body decoded but no configured column
	// carried both a name and a value.
	ErrKindMissing ErrorKind = "missing"

	// ErrKindCanceled is a fetch abandoned because its context ended.
	ErrKindCanceled ErrorKind = "canceled"
)

// ScoreEntry is one named participant's current score and derived flags.
type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`

	// IsLeader is true for every entry holding the maximum score, provided
	// that maximum is greater than zero. Ties all qualify.
	IsLeader bool `json:"is_leader"`

	// ScoreChanged is true when the previous successful poll recorded a
	// different score for the same name. Always false for a new name.
	ScoreChanged bool `json:"score_changed"`
}

// Snapshot is the ranked result of one poll attempt.
// Entries are ordered by descending score. A failed poll carries no entries
// and a non-empty Err.
type Snapshot struct {
	Entries   []ScoreEntry `json:"entries"`
	FetchedAt time.Time    `json:"fetched_at"`
	Err       string       `json:"error,omitempty"`
	ErrKind   ErrorKind    `json:"error_kind,omitempty"`
}

// OK reports whether the snapshot came from a successful poll.
func (s Snapshot) OK() bool {
	return s.Err == ""
}

// Failed builds the snapshot returned for a failed poll.
func Failed(at time.Time, kind ErrorKind, err error) Snapshot {
	msg := "failed to fetch data"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Snapshot{
		Entries:   []ScoreEntry{},
		FetchedAt: at,
		Err:       msg,
		ErrKind:   kind,
	}
}
