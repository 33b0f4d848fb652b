package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/montenegronyc/scoreboard/internal/store"
	"github.com/montenegronyc/scoreboard/pkg/types"
)

// DiagnosticHint is one human-readable insight about the board's health.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label (≤ 5 words).
	Title string `json:"title"`
	// Detail is the full explanation in plain English.
	Detail string `json:"detail"`
}

// computeDiagnostics derives hints from the board. The most severe hint is first.
func computeDiagnostics(b store.Board, stale bool, now time.Time) []DiagnosticHint {
	var hints []DiagnosticHint

	if !b.Loaded {
		return append(hints, DiagnosticHint{
			Key:   "warming_up",
			Level: "info",
			Title: "Waiting for first poll",
			Detail: "The service has started but the first read of the spreadsheet has not " +
				"finished yet. The board shows a loading screen until it does. No action needed.",
		})
	}

	if b.HasError() {
		hints = append(hints, errorHint(b.ErrKind, b.Err))
	}

	if stale {
		since := "any successful poll"
		if !b.UpdatedAt.IsZero() {
			since = fmt.Sprintf("the last successful poll %s ago", now.Sub(b.UpdatedAt).Round(time.Second))
		}
		hints = append(hints, DiagnosticHint{
			Key:   "stale",
			Level: "warning",
			Title: "Scores may be outdated",
			Detail: fmt.Sprintf("Nothing new has been read since %s. "+
				"Screens keep showing the last known scores until polling succeeds again.", since),
		})
	}

	if len(hints) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:    "ok",
			Level:  "ok",
			Title:  "Live",
			Detail: fmt.Sprintf("Polling is healthy and %d entries are on the board.", len(b.Entries)),
		})
	}
	return hints
}

func errorHint(kind types.ErrorKind, msg string) DiagnosticHint {
	switch kind {
	case types.ErrKindTransport:
		return DiagnosticHint{
			Key:   "unreachable",
			Level: "critical",
			Title: "Can't reach the sheet",
			Detail: fmt.Sprintf("The last request never got an answer: %q. "+
				"Check that this host has outbound internet access and can resolve the API host. "+
				"The board keeps showing the last known scores meanwhile.", msg),
		}
	case types.ErrKindStatus:
		return DiagnosticHint{
			Key:    "rejected",
			Level:  "critical",
			Title:  "API rejected the request",
			Detail: statusAdvice(msg),
		}
	case types.ErrKindMalformed:
		return DiagnosticHint{
			Key:   "empty_range",
			Level: "warning",
			Title: "Range returned no rows",
			Detail: "The spreadsheet answered but the configured range is empty or unreadable. " +
				"Check source.range points at the tab holding the scores and that it covers both " +
				"the header row and the value row.",
		}
	case types.ErrKindMissing:
		return DiagnosticHint{
			Key:   "no_scores",
			Level: "warning",
			Title: "No scores in columns",
			Detail: "Rows came back, but none of the columns listed in schema.columns had both a " +
				"name in the header row and a value in the value row. Columns are lettered from " +
				"the first column of source.range.",
		}
	case types.ErrKindCanceled:
		return DiagnosticHint{
			Key:    "canceled",
			Level:  "info",
			Title:  "Poll was interrupted",
			Detail: "The last poll was abandoned before it finished, usually during a restart or reload.",
		}
	default:
		return DiagnosticHint{Key: "error", Level: "critical", Title: "Poll failed", Detail: msg}
	}
}

func statusAdvice(msg string) string {
	switch {
	case strings.Contains(msg, "status 400"):
		return "The API could not parse the request. This is almost always a malformed source.range; " +
			"use A1 notation such as Sheet1!A:C."
	case strings.Contains(msg, "status 401"), strings.Contains(msg, "status 403"):
		return "The API key was refused. Make sure the key in the configured environment variable is " +
			"valid, has the Sheets API enabled, and that the spreadsheet is shared as " +
			"\"anyone with the link can view\"."
	case strings.Contains(msg, "status 404"):
		return "The spreadsheet was not found. Check source.sheet_id against the id in the sheet's URL."
	case strings.Contains(msg, "status 429"):
		return "The API quota was exceeded. Increase source.min_request_interval or poll.interval."
	default:
		return fmt.Sprintf("The spreadsheet API returned an error: %q. "+
			"Server-side errors usually clear up on their own; the next poll retries automatically.", msg)
	}
}
