// Package api implements the HTTP REST API for botdash-server.
//
// New(registry, log) returns an http.Handler that serves:
//
//	GET  /api/config        — current configuration (default if none stored)
//	POST /api/config        — partial update; 201 with the merged config
//	GET  /api/notification  — notification log, oldest first
//	POST /api/notification  — append an event; 201 with the stamped event
//	GET  /healthz           — liveness
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 with a JSON error body for unsupported methods
//   - Return 400 for unparseable bodies and rejected input
//
// Routing and request-id/recover middleware come from go-chi. Requests are
// logged through slog.
package api
