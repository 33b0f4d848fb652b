// Package api serves the scoreboard REST surface under /api/v1.
//
// Endpoints:
//
//	GET  /api/v1/scoreboard  ranked board view model (same payload the WebSocket pushes)
//	GET  /api/v1/health      loading | live | error | stale, with plain-English hints
//	POST /api/v1/refresh     request an immediate poll (202)
//	GET  /api/v1/events      recent leader and outage notifications
//	GET  /api/v1/chart.png   bar chart of the current scores
package api
