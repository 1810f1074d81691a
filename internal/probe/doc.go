// Package probe serves the standard gRPC health checking protocol
// (grpc.health.v1.Health) for botdash-server.
//
// The overall status ("") and the per-store services ServiceConfig and
// ServiceNotification report SERVING from New until Shutdown, which flips
// them to NOT_SERVING before stopping the gRPC server gracefully.
package probe
