// Package pipeline provides the cancellable task handle that ties a
// connection's background pipeline work to the session lifecycle.
package pipeline
