// Package types defines the score data shared by the adapter, the poller and
// the presentation layer. These are the canonical in-memory representations of
// one poll result, separate from the JSON wire format served to the browser.
package types
