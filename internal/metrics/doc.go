// Package metrics provides Prometheus instrumentation for session lifecycle,
// provider switching, and the HTTP API.
package metrics
