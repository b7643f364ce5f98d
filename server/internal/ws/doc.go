// Package ws pushes the live series to WebSocket clients.
//
// New(window, interval, loc) creates a Hub. Hub.Run(ctx) ticks every interval
// and sends the current series to every client until ctx is cancelled.
// Hub.ServeHTTP upgrades the request, sends the series immediately, then
// streams updates. The server mounts it at /ws/stream.
//
// Message format:
//
//	{
//	  "event": "series",
//	  "data":  { /* same schema as GET /api/v1/series */ }
//	}
//
// A client whose send buffer is full is disconnected rather than slowing the
// broadcast for everyone else.
package ws
