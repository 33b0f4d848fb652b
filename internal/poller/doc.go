// Package poller drives a sheets.Source on a fixed interval and merges each
// result into the store.
//
// One Run goroutine owns the ticker. Each fetch runs in its own goroutine and
// at most one is in flight: ticks that land during a fetch are dropped, and
// any number of Refresh calls during a fetch collapse into a single follow-up.
//
// Every fetch is stamped with a sequence number and the generation of the
// source it was issued against. SetSource bumps the generation, so a slow
// response from a replaced source is discarded instead of overwriting newer
// data.
package poller
