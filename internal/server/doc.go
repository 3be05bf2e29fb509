// Package server implements the HTTP signaling and management API: identity
// registration, connection establishment with single-connection-per-identity
// handover, a websocket control channel for provider switching, and
// health/stats/metrics endpoints.
package server
