// Package ws implements the WebSocket hub behind /ws/stream.
//
// Hub pushes the board view model to every connected client: once on
// connect, again whenever the store changes, and on a keepalive interval so
// idle screens keep their LAST UPDATE clock honest and dead connections
// surface.
//
// Message format sent to clients:
//
//	{
//	  "event": "scoreboard",
//	  "data":  { /* same schema as GET /api/v1/scoreboard */ }
//	}
package ws
