// Package common contains shared constants and sentinel errors used across
// CuponCode client components.
package common

const (
	// DefaultSessionKey is the storage key that holds the serialized Session.
	DefaultSessionKey = "cuponcode_session"

	// PayloadParam is the query parameter carrying the JSON-encoded envelope.
	PayloadParam = "payload"

	// SessionExpiredSentinel is the backend error value meaning the
	// server no longer accepts the session token.
	SessionExpiredSentinel = "SESSION_EXPIRED"

	// LocalTokenPrefix marks session tokens generated on this device.
	LocalTokenPrefix = "tk_"
)

// Envelope field names shared with the backend.
const (
	FieldAction       = "action"
	FieldUserID       = "userId"
	FieldSessionToken = "sessionToken"
	FieldSuccess      = "success"
	FieldError        = "error"
)
