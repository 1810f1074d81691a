// Package ws implements the WebSocket stream for botdash-server.
//
// Hub pushes the combined dashboard view (configuration plus notification
// log) to every connected client on a fixed interval, so the UI does not
// have to poll the REST endpoints.
//
// New(registry, log, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker and blocks until ctx is
// cancelled, then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection, sends the current view
// immediately, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "dashboard",
//	  "data":  { "config": {...}, "notifications": [...], "generated_at": "..." }
//	}
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/stream.
package ws
