package api

import "github.com/montenegronyc/scoreboard/pkg/types"

// Board statuses shown in the page header.
const (
	StatusLive            = "LIVE"
	StatusConnectionError = "CONNECTION ERROR"
)

// LastKnownDataNotice is shown under the error text while old entries stay visible.
const LastKnownDataNotice = "DISPLAYING LAST KNOWN DATA"

// Health states.
const (
	StateLoading = "loading"
	StateLive    = "live"
	StateError   = "error"
	StateStale   = "stale"
)

// BoardResponse is the payload for GET /api/v1/scoreboard and the data of
// every WebSocket message.
type BoardResponse struct {
	Status  string          `json:"status"`
	Loading bool            `json:"loading"`
	Stale   bool            `json:"stale"`
	Entries []EntryResponse `json:"entries"`

	Error     string          `json:"error,omitempty"`
	ErrorKind types.ErrorKind `json:"error_kind,omitempty"`
	Notice    string          `json:"notice,omitempty"`

	LastUpdate  string `json:"last_update,omitempty"` // RFC3339, last successful poll
	LastChecked string `json:"last_checked,omitempty"`
	Version     uint64 `json:"version"`
}

// EntryResponse is one card on the board.
type EntryResponse struct {
	// Rank is the 1-based position. Leaders show a crown instead.
	Rank         int    `json:"rank"`
	Crown        bool   `json:"crown"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	ScoreText    string `json:"score_text"`
	IsLeader     bool   `json:"is_leader"`
	ScoreChanged bool   `json:"score_changed"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State       string           `json:"state"`
	Source      string           `json:"source,omitempty"`
	EntryCount  int              `json:"entry_count"`
	LastSuccess string           `json:"last_success,omitempty"`
	LastCheck   string           `json:"last_check,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   types.ErrorKind  `json:"error_kind,omitempty"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// refreshResponse is the payload for POST /api/v1/refresh.
type refreshResponse struct {
	Status string `json:"status"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
