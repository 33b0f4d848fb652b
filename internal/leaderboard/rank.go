package leaderboard

import (
	"sort"

	"github.com/montenegronyc/scoreboard/pkg/types"
)

// Rank marks leaders and orders entries by descending score in place.
// It returns the same slice for chaining.
func Rank(entries []types.ScoreEntry) []types.ScoreEntry {
	best := MaxScore(entries)
	for i := range entries {
		entries[i].IsLeader = best > 0 && entries[i].Score == best
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// MaxScore returns the highest score in entries, or 0 for an empty slice.
func MaxScore(entries []types.ScoreEntry) int {
	best := 0
	for _, e := range entries {
		if e.Score > best {
			best = e.Score
		}
	}
	return best
}

// Leaders returns the names of all leader entries in ranked order.
func Leaders(entries []types.ScoreEntry) []string {
	var out []string
	for _, e := range entries {
		if e.IsLeader {
			out = append(out, e.Name)
		}
	}
	return out
}
