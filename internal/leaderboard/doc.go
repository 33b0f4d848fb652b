// Package leaderboard ranks parsed score entries and tracks score changes
// between polls.
//
// Rank(entries) marks leaders (every entry at the maximum score, when that
// maximum is above zero) and sorts by descending score. The sort is stable:
// tied entries keep the order the parser produced them in.
//
// Tracker remembers the name→score map of the last successful poll and sets
// ScoreChanged on the entries of the next one. A failed poll leaves the map
// untouched so the following success is compared against the last good data.
package leaderboard
