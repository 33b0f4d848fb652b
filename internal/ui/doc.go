// Package ui serves the scoreboard page and its static assets.
//
// The page is rendered once with the configured title, score label and the
// current board embedded as JSON, so a reload never flashes the loading
// screen when data is already available. After that app.js keeps it current
// over /ws/stream and falls back to polling GET /api/v1/scoreboard while the
// socket is down.
package ui
