// Package session is the single source of truth for who is logged in on
// this device.
//
// A Session is persisted as one JSON record under a fixed key of a
// metadata.Repository. It is either absent or fully populated, and it is
// treated as absent once it has been idle for longer than the configured
// timeout: the next read deletes it. A background Monitor turns
// interaction signals into debounced Touch calls and, on a fixed period,
// notices sessions that expired without further interaction and sends the
// user back to login.
//
// The idle timeout is a client-side convenience layered on top of the
// server's own token expiry, which reaches the client as the
// SESSION_EXPIRED error handled by the transport bridge.
package session
