package api

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/montenegronyc/scoreboard/internal/store"
)

// BuildBoard renders the store's current state as the board view model.
// staleAfter <= 0 disables the stale flag.
func BuildBoard(st *store.Store, now time.Time, staleAfter time.Duration) BoardResponse {
	return boardResponse(st.Board(), st.Stale(now, staleAfter))
}

func boardResponse(b store.Board, stale bool) BoardResponse {
	p := message.NewPrinter(language.English)

	entries := make([]EntryResponse, 0, len(b.Entries))
	for i, e := range b.Entries {
		entries = append(entries, EntryResponse{
			Rank:         i + 1,
			Crown:        e.IsLeader,
			Name:         e.Name,
			Score:        e.Score,
			ScoreText:    p.Sprintf("%d", e.Score),
			IsLeader:     e.IsLeader,
			ScoreChanged: e.ScoreChanged,
		})
	}

	resp := BoardResponse{
		Status:      StatusLive,
		Loading:     !b.Loaded,
		Stale:       stale,
		Entries:     entries,
		LastUpdate:  formatTime(b.UpdatedAt),
		LastChecked: formatTime(b.CheckedAt),
		Version:     b.Version,
	}
	if b.HasError() {
		resp.Status = StatusConnectionError
		resp.Error = b.Err
		resp.ErrorKind = b.ErrKind
		resp.Notice = LastKnownDataNotice
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
