// Package transport adapts WebRTC peer connections to the session layer's
// transport contract: an idempotent, context-aware disconnect, plus the
// dictation data channel carrying transcript text in both directions.
package transport
