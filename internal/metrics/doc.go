// Package metrics exposes cache statistics in the Prometheus exposition
// format. Metric families are assembled directly from client_model types and
// written with expfmt, using the format negotiated from the Accept header.
package metrics
