// Package session manages client identities and active connections. It
// guarantees at most one live connection per identity: a reconnect atomically
// claims the identity's slot and the superseded connection is torn down in the
// background without ever blocking the reconnect.
package session
