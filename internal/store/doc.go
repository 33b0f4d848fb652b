// Package store holds the current scoreboard state shared between the poller
// and the HTTP surface.
package store
